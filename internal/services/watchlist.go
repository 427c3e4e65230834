package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/apperr"
	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/repos"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type WatchlistService interface {
	AddItem(ctx context.Context, userID uuid.UUID, itemID int64, source string) (*types.WatchlistItem, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, itemID int64) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.WatchlistItem, error)
}

type watchlistService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.WatchlistItemRepo
	eventSvc EventService
}

func NewWatchlistService(db *gorm.DB, baseLog *logger.Logger, repo repos.WatchlistItemRepo, eventSvc EventService) WatchlistService {
	return &watchlistService{
		db:       db,
		log:      baseLog.With("service", "WatchlistService"),
		repo:     repo,
		eventSvc: eventSvc,
	}
}

func (s *watchlistService) AddItem(ctx context.Context, userID uuid.UUID, itemID int64, source string) (*types.WatchlistItem, error) {
	if source == "" {
		source = types.EventSourceCatalog
	}

	var result *types.WatchlistItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByUserAndItem(ctx, tx, userID, itemID)
		if err != nil {
			return fmt.Errorf("load watchlist item: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("item already in watchlist: %w", apperr.ErrConflict)
		}

		item := &types.WatchlistItem{
			UserID:    userID,
			ItemID:    itemID,
			Source:    source,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.Create(ctx, tx, item); err != nil {
			return fmt.Errorf("create watchlist item: %w", err)
		}

		if _, err := s.eventSvc.Record(ctx, tx, userID, itemID, types.EventTypeAddToWatchlist, nil, source); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.eventSvc.ScheduleAggregation(ctx, userID, types.EventTypeAddToWatchlist)
	return result, nil
}

func (s *watchlistService) RemoveItem(ctx context.Context, userID uuid.UUID, itemID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByUserAndItem(ctx, tx, userID, itemID)
		if err != nil {
			return fmt.Errorf("load watchlist item: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("item not in watchlist: %w", apperr.ErrNotFound)
		}

		if _, err := s.eventSvc.Record(ctx, tx, userID, itemID, types.EventTypeRemoveFromWatchlist, nil, existing.Source); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, existing); err != nil {
			return fmt.Errorf("delete watchlist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.eventSvc.ScheduleAggregation(ctx, userID, types.EventTypeRemoveFromWatchlist)
	return nil
}

func (s *watchlistService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.WatchlistItem, error) {
	return s.repo.GetByUserID(ctx, nil, userID)
}
