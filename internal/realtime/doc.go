// Package realtime implements the client side of the Polisight analysis
// stream: a persistent WebSocket channel carrying analysis progress and chat
// events.
//
// The Client:
//   - Owns a single transport at a time, addressed by session id
//   - Answers server liveness probes and sends a periodic keep-alive
//   - Reconnects with capped exponential backoff and jitter
//   - Fans decoded messages out to subscribed listeners
//   - Publishes connection status transitions to observers
//
// The transport and the clock are injectable so tests can script connection
// events and advance time deterministically.
package realtime
