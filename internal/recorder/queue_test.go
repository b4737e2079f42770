package recorder

import (
	"sync"
	"testing"
)

func TestQueue_PushPop(t *testing.T) {
	q := NewQueue[int](10)

	for i := 0; i < 5; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}
	if q.Len() != 5 {
		t.Errorf("Len = %d, want 5", q.Len())
	}

	for i := 0; i < 5; i++ {
		got, ok := q.Pop()
		if !ok || got != i {
			t.Errorf("Pop = %d, %v; want %d, true", got, ok, i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestQueue_GrowsAt70Percent(t *testing.T) {
	q := NewQueue[int](10)

	// Pushing the 7th item crosses the 70% threshold.
	for i := 0; i < 20; i++ {
		q.Push(i)
	}

	if q.Cap() <= 10 {
		t.Errorf("Cap = %d, want growth beyond 10", q.Cap())
	}
	stats := q.Stats()
	if stats.ResizeCount == 0 {
		t.Error("ResizeCount = 0, want at least one resize")
	}

	// Order survives the copy.
	for i := 0; i < 20; i++ {
		got, ok := q.Pop()
		if !ok || got != i {
			t.Fatalf("Pop = %d, %v; want %d, true", got, ok, i)
		}
	}
}

func TestQueue_GrowPreservesWrappedOrder(t *testing.T) {
	q := NewQueue[int](10)

	// Wrap head past tail before forcing growth.
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	for i := 0; i < 5; i++ {
		q.Pop()
	}
	for i := 100; i < 115; i++ {
		q.Push(i)
	}

	for i := 100; i < 115; i++ {
		got, ok := q.Pop()
		if !ok || got != i {
			t.Fatalf("Pop = %d, %v; want %d, true", got, ok, i)
		}
	}
}

func TestQueue_TryPopEmpty(t *testing.T) {
	q := NewQueue[string](4)

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop on empty queue returned ok")
	}

	q.Push("a")
	if got, ok := q.TryPop(); !ok || got != "a" {
		t.Errorf("TryPop = %q, %v; want a, true", got, ok)
	}
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue[int](10)
	for i := 0; i < 8; i++ {
		q.Push(i)
	}

	first := q.Drain(3)
	if len(first) != 3 || first[0] != 0 || first[2] != 2 {
		t.Errorf("Drain(3) = %v", first)
	}

	rest := q.Drain(0)
	if len(rest) != 5 || rest[0] != 3 {
		t.Errorf("Drain(0) = %v", rest)
	}

	if q.Drain(0) != nil {
		t.Error("Drain on empty queue should return nil")
	}
}

func TestQueue_CloseUnblocksAndDrains(t *testing.T) {
	q := NewQueue[int](4)
	q.Push(1)

	var wg sync.WaitGroup
	results := make(chan int, 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			v, ok := q.Pop()
			if !ok {
				return
			}
			results <- v
		}
	}()

	q.Close()
	wg.Wait()
	close(results)

	var drained []int
	for v := range results {
		drained = append(drained, v)
	}
	if len(drained) != 1 || drained[0] != 1 {
		t.Errorf("drained = %v, want [1]", drained)
	}

	if q.Push(2) {
		t.Error("Push after Close returned true")
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue[int](16)

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Errorf("Len = %d, want %d", q.Len(), producers*perProducer)
	}
	stats := q.Stats()
	if stats.TotalEnqueued != producers*perProducer {
		t.Errorf("TotalEnqueued = %d, want %d", stats.TotalEnqueued, producers*perProducer)
	}
}
