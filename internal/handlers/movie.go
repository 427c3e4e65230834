package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/services"
)

type MovieHandler struct {
	log          *logger.Logger
	movieService services.MovieService
}

func NewMovieHandler(baseLog *logger.Logger, movieService services.MovieService) *MovieHandler {
	return &MovieHandler{
		log:          baseLog.With("handler", "MovieHandler"),
		movieService: movieService,
	}
}

// GET /api/movies
func (mh *MovieHandler) List(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	result, err := mh.movieService.List(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/movies/:id
func (mh *MovieHandler) GetByID(c *gin.Context) {
	id, err := parseItemID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	movie, err := mh.movieService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, movie)
}

func parseItemID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func parseIntQuery(c *gin.Context, key string, defaultVal int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return parsed, nil
}
