package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/services"
)

type FeedHandler struct {
	log         *logger.Logger
	feedService services.FeedService
}

func NewFeedHandler(baseLog *logger.Logger, feedService services.FeedService) *FeedHandler {
	return &FeedHandler{
		log:         baseLog.With("handler", "FeedHandler"),
		feedService: feedService,
	}
}

// GET /api/feed/personal
func (fh *FeedHandler) GetPersonalFeed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	result, err := fh.feedService.GetPersonalFeed(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
