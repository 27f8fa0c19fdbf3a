package kafka

import (
	"encoding/json"
)

// Envelope is the wire shape of every message on every topic in this
// platform: a discriminator, a partitioning key, and an opaque payload.
type Envelope struct {
	EventType string          `json:"event_type"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
}

// Coordinates locates a message within the broker's log. These are runtime
// metadata attached after decode; they are never part of the wire envelope.
type Coordinates struct {
	Topic     string
	Partition int
	Offset    int64
}

// Event is a decoded message plus the coordinates it was read from.
type Event struct {
	Envelope
	Coordinates
}

// decodeEvent parses the wire envelope and attaches coordinates. If
// event_type is absent on the wire, it defaults to the topic name.
func decodeEvent(raw []byte, coords Coordinates) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.EventType == "" {
		env.EventType = coords.Topic
	}
	return &Event{Envelope: env, Coordinates: coords}, nil
}

// UnmarshalPayload deserializes the event payload into the given target.
func (e *Event) UnmarshalPayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// Marshal serializes the wire envelope (not the coordinates) to JSON bytes.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// NewEnvelope builds an envelope from a typed payload.
func NewEnvelope(eventType, key string, data any) (*Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{EventType: eventType, Key: key, Payload: payload}, nil
}
