package models

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Metadata is the free-form JSON object stored in payments.metadata.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func (m *Metadata) Scan(src interface{}) error {
	var raw []byte
	switch value := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}

	decoded := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
	}
	*m = decoded
	return nil
}

// Merge returns a copy of m with patch applied on top. Nested objects are
// replaced, not deep-merged.
func (m Metadata) Merge(patch Metadata) Metadata {
	merged := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

func (m Metadata) String(key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}

// ProcessedEvents returns the event ids mirrored under key, oldest first.
func (m Metadata) ProcessedEvents(key string) []string {
	switch values := m[key].(type) {
	case []string:
		return append([]string(nil), values...)
	case []interface{}:
		events := make([]string, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok {
				events = append(events, s)
			}
		}
		return events
	}
	return nil
}

// WithProcessedEvent appends eventID to the mirror under key, keeping at most
// limit entries.
func (m Metadata) WithProcessedEvent(key, eventID string, limit int) Metadata {
	events := m.ProcessedEvents(key)
	for _, existing := range events {
		if existing == eventID {
			return m.Merge(nil)
		}
	}
	events = append(events, eventID)
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return m.Merge(Metadata{key: events})
}

// Decode re-marshals the value stored under key into out.
func (m Metadata) Decode(key string, out interface{}) error {
	value, ok := m[key]
	if !ok || value == nil {
		return ErrMetadataKeyNotFound
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

var ErrMetadataKeyNotFound = errors.New("metadata key not found")
