package subscription

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// CreatedMessage carries the raw payload of a subscription-created event
// from the ingestion path to the worker that processes it.
//
// The zero value holds an empty payload. A CreatedMessage is never mutated:
// the payload is copied on construction and on every read.
type CreatedMessage struct {
	payload map[string]any
}

// NewCreatedMessage wraps payload without validating it.
func NewCreatedMessage(payload map[string]any) CreatedMessage {
	return CreatedMessage{payload: copyMap(payload)}
}

// Payload returns a copy of the payload exactly as received.
func (m CreatedMessage) Payload() map[string]any {
	return copyMap(m.payload)
}

// SubscriptionID returns the "id" field when it is a non-empty string.
func (m CreatedMessage) SubscriptionID() (string, bool) {
	id, ok := m.payload["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// MarshalJSON encodes the payload as a plain JSON object.
func (m CreatedMessage) MarshalJSON() ([]byte, error) {
	if m.payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.payload)
}

func (m *CreatedMessage) UnmarshalJSON(data []byte) error {
	var payload map[string]any
	if err := decodeJSON(data, &payload); err != nil {
		return err
	}
	m.payload = payload
	return nil
}

// decodeJSON unmarshals a single JSON value keeping numbers as json.Number,
// so integers beyond float64 precision survive unchanged.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func copyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

// copyValue copies the container types produced by encoding/json.
// Other values are returned as is.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = copyMap(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
