package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/events"
	"kingspos/internal/logger"
)

// EventsHandler streams catalog and document events over a websocket.
type EventsHandler struct {
	hub *events.Hub
	log zerolog.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(hub *events.Hub, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, log: logger.Component(log, "events_handler")}
}

// Stream godoc
// @Summary Realtime event stream
// @Description Upgrades to a websocket that receives {"event", "payload", "at"} messages.
// @Tags events
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} errors.ErrorResponse
// @Router /ws [get]
func (h *EventsHandler) Stream(c echo.Context) error {
	// The upgrader has already written the failure response.
	if err := h.hub.Serve(c.Response(), c.Request()); err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
	}
	return nil
}
