package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/apperr"
	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/repos"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type MovieListResult struct {
	Data  []*types.Movie `json:"data"`
	Total int64          `json:"total"`
}

type MovieService interface {
	GetByID(ctx context.Context, id int64) (*types.Movie, error)
	List(ctx context.Context, search string, limit, offset int) (*MovieListResult, error)
}

type movieService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.MovieRepo
}

func NewMovieService(db *gorm.DB, baseLog *logger.Logger, repo repos.MovieRepo) MovieService {
	return &movieService{
		db:   db,
		log:  baseLog.With("service", "MovieService"),
		repo: repo,
	}
}

func (s *movieService) GetByID(ctx context.Context, id int64) (*types.Movie, error) {
	movie, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load movie: %w", err)
	}
	if movie == nil {
		return nil, fmt.Errorf("movie %d: %w", id, apperr.ErrNotFound)
	}
	return movie, nil
}

func (s *movieService) List(ctx context.Context, search string, limit, offset int) (*MovieListResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	movies, total, err := s.repo.List(ctx, nil, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return &MovieListResult{Data: movies, Total: total}, nil
}
