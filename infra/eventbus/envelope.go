package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/bankledger/pkg/domain/events"
)

// envelope is the wire format shared by the Redis and Kafka buses.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: payload})
}

// decodeEnvelope returns the event type and the decoded event. An unknown
// type yields errUnknownEventType.
func decodeEnvelope(raw []byte) (string, events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	ctor, ok := events.EventTypes[env.Type]
	if !ok {
		return env.Type, nil, errUnknownEventType
	}
	evt := ctor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return env.Type, nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return env.Type, evt, nil
}

var errUnknownEventType = fmt.Errorf("unknown event type")
