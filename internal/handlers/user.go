package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/services"
)

type UserHandler struct {
	log            *logger.Logger
	userService    services.UserService
	aggregationSvc services.ProfileAggregationService
}

func NewUserHandler(
	baseLog *logger.Logger,
	userService services.UserService,
	aggregationSvc services.ProfileAggregationService,
) *UserHandler {
	return &UserHandler{
		log:            baseLog.With("handler", "UserHandler"),
		userService:    userService,
		aggregationSvc: aggregationSvc,
	}
}

// GET /api/user/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	user, err := uh.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

// GET /api/user/profile
func (uh *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	profile, err := uh.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, profile)
}

// GET /api/user/profile/aggregate
// Recomputes the preference snapshot synchronously. Accepts an optional
// window_days query param for shorter or longer trailing windows.
func (uh *UserHandler) AggregateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user"))
		return
	}
	windowDays := 0
	if raw := c.Query("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_argument", errors.New("window_days must be a positive integer"))
			return
		}
		windowDays = parsed
	}
	profile, err := uh.aggregationSvc.Aggregate(c.Request.Context(), userID, windowDays)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, profile)
}
