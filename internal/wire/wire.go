package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message type discriminators.
const (
	TypePing             = "ping"
	TypePong             = "pong"
	TypeAnalysisProgress = "analysis_progress"
	TypeChatEvent        = "chat_event"
)

// Errors
var (
	ErrMissingType = errors.New("message has no type field")
)

// Message is a decoded frame from the realtime channel.
type Message interface {
	// MessageType returns the wire discriminator for this message.
	MessageType() string
}

// Ping is the server-initiated liveness probe. The client must answer with a
// Pong carrying the same ID.
type Ping struct {
	ID string `json:"id,omitempty"`
}

func (Ping) MessageType() string { return TypePing }

// Pong acknowledges a Ping. It is also sent periodically (with an empty ID)
// as the client keep-alive.
type Pong struct {
	ID string `json:"id,omitempty"`
}

func (Pong) MessageType() string { return TypePong }

// AnalysisProgress reports progress of a running analysis.
type AnalysisProgress struct {
	AnalysisID string  `json:"analysis_id"`
	Stage      string  `json:"stage"`
	Percent    float64 `json:"percent"`
	Detail     string  `json:"detail,omitempty"`
}

func (AnalysisProgress) MessageType() string { return TypeAnalysisProgress }

// ChatEvent is a streamed chat message or delta from the assistant.
type ChatEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Role           string `json:"role"`
	Delta          string `json:"delta"`
	Done           bool   `json:"done,omitempty"`
}

func (ChatEvent) MessageType() string { return TypeChatEvent }

// Unknown holds a well-formed frame whose type this client does not
// recognize. Raw is the complete original payload, discriminator included.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (u Unknown) MessageType() string { return u.Type }

// envelope extracts the discriminator without committing to a variant.
type envelope struct {
	Type string `json:"type"`
}

// Decode parses a frame into its variant. Malformed JSON or a missing
// discriminator is an error; an unrecognized discriminator is not, and
// yields Unknown.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}

	switch env.Type {
	case TypePing:
		var m Ping
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse ping: %w", err)
		}
		return m, nil

	case TypePong:
		var m Pong
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse pong: %w", err)
		}
		return m, nil

	case TypeAnalysisProgress:
		var m AnalysisProgress
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse analysis_progress: %w", err)
		}
		return m, nil

	case TypeChatEvent:
		var m ChatEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse chat_event: %w", err)
		}
		return m, nil

	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Type: env.Type, Raw: raw}, nil
	}
}

// Encode serializes a message with its discriminator injected. Unknown
// messages round-trip their original bytes.
func Encode(m Message) ([]byte, error) {
	if u, ok := m.(Unknown); ok {
		return u.Raw, nil
	}

	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.MessageType(), err)
	}

	head := fmt.Sprintf(`{"type":%q`, m.MessageType())
	if len(body) <= 2 {
		// Variant marshaled to an empty object.
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), body[1:]...), nil
}
