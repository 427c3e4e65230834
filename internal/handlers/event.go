package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/services"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type EventHandler struct {
	log          *logger.Logger
	eventService services.EventService
}

func NewEventHandler(baseLog *logger.Logger, eventService services.EventService) *EventHandler {
	return &EventHandler{
		log:          baseLog.With("handler", "EventHandler"),
		eventService: eventService,
	}
}

// POST /api/events
// Direct ingestion covers view events only. Reaction and watchlist events
// are produced by their own endpoints so the stored state stays consistent
// with the event log.
func (eh *EventHandler) Record(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	var req struct {
		ItemID     int64    `json:"item_id"`
		EventType  string   `json:"event_type"`
		EventValue *float64 `json:"event_value"`
		Source     string   `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("invalid request body"))
		return
	}
	if req.ItemID <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_argument", errors.New("item_id must be a positive integer"))
		return
	}
	if req.EventType != types.EventTypeView {
		RespondError(c, http.StatusBadRequest, "invalid_argument", errors.New("unsupported event_type"))
		return
	}
	source := req.Source
	if source == "" {
		source = types.EventSourceCatalog
	}
	event, err := eh.eventService.Record(c.Request.Context(), nil, userID, req.ItemID, req.EventType, req.EventValue, source)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GET /api/events
func (eh *EventHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	events, err := eh.eventService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": events, "total": len(events)})
}
