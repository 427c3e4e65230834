package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/services"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type ReactionHandler struct {
	log             *logger.Logger
	reactionService services.ReactionService
}

func NewReactionHandler(baseLog *logger.Logger, reactionService services.ReactionService) *ReactionHandler {
	return &ReactionHandler{
		log:             baseLog.With("handler", "ReactionHandler"),
		reactionService: reactionService,
	}
}

// GET /api/reactions
func (rh *ReactionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	reactions, err := rh.reactionService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"data": reactions, "total": len(reactions)})
}

// POST /api/movies/:id/like
func (rh *ReactionHandler) AddLike(c *gin.Context) {
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
	reaction, err := rh.reactionService.AddLike(c.Request.Context(), userID, itemID, types.EventSourceCatalog)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, reaction)
}

// DELETE /api/movies/:id/like
func (rh *ReactionHandler) RemoveLike(c *gin.Context) {
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
	if err := rh.reactionService.RemoveLike(c.Request.Context(), userID, itemID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "like removed"})
}

// POST /api/movies/:id/dislike
func (rh *ReactionHandler) AddDislike(c *gin.Context) {
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
	reaction, err := rh.reactionService.AddDislike(c.Request.Context(), userID, itemID, types.EventSourceCatalog)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, reaction)
}

// DELETE /api/movies/:id/dislike
func (rh *ReactionHandler) RemoveDislike(c *gin.Context) {
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
	if err := rh.reactionService.RemoveDislike(c.Request.Context(), userID, itemID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "dislike removed"})
}
