package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish(Event{Type: TypePing})

	assert.Equal(t, TypePing, (<-a).Type)
	assert.Equal(t, TypePing, (<-b).Type)

	h.Unsubscribe(b)
	h.Publish(Event{Type: TypeRunStarted})
	assert.Equal(t, TypeRunStarted, (<-a).Type)

	_, open := <-b
	assert.False(t, open, "unsubscribed channel must be closed")
}

func TestHubDropsWhenSlow(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	// channel buffer is 10; the extras must be dropped, not block
	for i := 0; i < 25; i++ {
		h.Publish(Event{Type: TypePing})
	}
	assert.Len(t, ch, 10)
}

func TestMakeEventEnvelope(t *testing.T) {
	evt := MakeEvent("req-1", TypeRunCompleted, 1, RunCompleted{RunID: 7, Status: "completed"})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(evt.Encode()), &e))
	assert.Equal(t, TypeRunCompleted, e.Type)
	assert.Equal(t, "req-1", e.RequestID)
	assert.False(t, e.At.IsZero())

	var rc RunCompleted
	require.NoError(t, json.Unmarshal(e.Data, &rc))
	assert.Equal(t, int64(7), rc.RunID)
}
