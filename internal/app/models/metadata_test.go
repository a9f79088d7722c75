package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataScanAndValue(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan([]byte(`{"manual_status":"completed","processed_events":["a","b"]}`)))
	assert.Equal(t, "completed", m.String("manual_status"))
	assert.Equal(t, []string{"a", "b"}, m.ProcessedEvents("processed_events"))

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))

	var empty Metadata
	value, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}

func TestMetadataMergeDoesNotMutate(t *testing.T) {
	base := Metadata{"a": 1, "nested": map[string]interface{}{"x": 1}}
	merged := base.Merge(Metadata{"b": 2, "nested": map[string]interface{}{"y": 2}})

	assert.Len(t, base, 2)
	assert.Equal(t, 2, merged["b"])
	assert.Equal(t, map[string]interface{}{"y": 2}, merged["nested"])
}

func TestMetadataWithProcessedEvent(t *testing.T) {
	m := Metadata{}
	for i := 0; i < 25; i++ {
		m = m.WithProcessedEvent("processed_events", fmt.Sprintf("evt-%02d", i), 20)
	}

	events := m.ProcessedEvents("processed_events")
	require.Len(t, events, 20)
	assert.Equal(t, "evt-05", events[0])
	assert.Equal(t, "evt-24", events[19])

	again := m.WithProcessedEvent("processed_events", "evt-24", 20)
	assert.Equal(t, events, again.ProcessedEvents("processed_events"))
}

func TestMetadataDecode(t *testing.T) {
	m := Metadata{"appointment_data": map[string]interface{}{"branch_id": "b1"}}

	var out struct {
		BranchID string `json:"branch_id"`
	}
	require.NoError(t, m.Decode("appointment_data", &out))
	assert.Equal(t, "b1", out.BranchID)

	assert.ErrorIs(t, m.Decode("missing", &out), ErrMetadataKeyNotFound)
}

func TestPaymentStatusIsOpen(t *testing.T) {
	assert.True(t, PaymentStatusPending.IsOpen())
	assert.True(t, PaymentStatusProcessing.IsOpen())
	for _, s := range []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusExpired} {
		assert.True(t, s.IsTerminal(), s)
	}
}
