package handlers

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/events"
	"github.com/intervuave/interview-worker/internal/logging"
)

// EventsHandler streams job progress events over WebSocket.
type EventsHandler struct {
	hub *events.Hub
	log zerolog.Logger
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		log: logging.WithComponent("events_ws"),
	}
}

// Handle subscribes the connection to the hub and forwards events until the
// client disconnects. An optional ?interviewId= query filters the stream.
func (h *EventsHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	filter := c.Query("interviewId")
	ch, cancel := h.hub.Subscribe()
	defer cancel()

	// Drain reads so close frames are processed; unsubscribes on disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if filter != "" && ev.InterviewID != filter {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed, closing")
				return
			}
		}
	}
}
