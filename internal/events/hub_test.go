package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	hub.Publish(Event{InterviewID: "int-1", Stage: "acquiring"})

	ev := <-ch1
	assert.Equal(t, "int-1", ev.InterviewID)
	assert.Equal(t, "acquiring", ev.Stage)
	assert.False(t, ev.Timestamp.IsZero())

	ev = <-ch2
	assert.Equal(t, "acquiring", ev.Stage)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{InterviewID: "int-1", Stage: "x"})
}

func TestHubSlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	// Overflow the buffer; Publish must never block.
	for i := 0; i < 200; i++ {
		hub.Publish(Event{InterviewID: "int-1", Stage: "s"})
	}

	assert.Equal(t, 64, len(ch))
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice is safe, and the hub keeps working.
	cancel()
	hub.Publish(Event{Stage: "s"})
	require.NotPanics(t, func() { hub.Publish(Event{Stage: "s"}) })
}
