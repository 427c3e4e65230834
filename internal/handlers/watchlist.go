package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/services"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type WatchlistHandler struct {
	log              *logger.Logger
	watchlistService services.WatchlistService
}

func NewWatchlistHandler(baseLog *logger.Logger, watchlistService services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{
		log:              baseLog.With("handler", "WatchlistHandler"),
		watchlistService: watchlistService,
	}
}

// GET /api/watchlist
func (wh *WatchlistHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	items, err := wh.watchlistService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": items, "total": len(items)})
}

// POST /api/watchlist/:id
func (wh *WatchlistHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	itemID, err := parseItemID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	item, err := wh.watchlistService.AddItem(c.Request.Context(), userID, itemID, types.EventSourceCatalog)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// DELETE /api/watchlist/:id
func (wh *WatchlistHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	itemID, err := parseItemID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if err := wh.watchlistService.RemoveItem(c.Request.Context(), userID, itemID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "removed from watchlist"})
}
