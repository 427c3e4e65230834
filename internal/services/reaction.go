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

type ReactionService interface {
	AddLike(ctx context.Context, userID uuid.UUID, itemID int64, source string) (*types.UserItemReaction, error)
	RemoveLike(ctx context.Context, userID uuid.UUID, itemID int64) error
	AddDislike(ctx context.Context, userID uuid.UUID, itemID int64, source string) (*types.UserItemReaction, error)
	RemoveDislike(ctx context.Context, userID uuid.UUID, itemID int64) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.UserItemReaction, error)
}

type reactionService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.UserItemReactionRepo
	eventSvc EventService
}

func NewReactionService(db *gorm.DB, baseLog *logger.Logger, repo repos.UserItemReactionRepo, eventSvc EventService) ReactionService {
	return &reactionService{
		db:       db,
		log:      baseLog.With("service", "ReactionService"),
		repo:     repo,
		eventSvc: eventSvc,
	}
}

func (s *reactionService) AddLike(ctx context.Context, userID uuid.UUID, itemID int64, source string) (*types.UserItemReaction, error) {
	return s.setReaction(ctx, userID, itemID, source, types.ReactionLike, types.EventTypeLike)
}

func (s *reactionService) AddDislike(ctx context.Context, userID uuid.UUID, itemID int64, source string) (*types.UserItemReaction, error) {
	return s.setReaction(ctx, userID, itemID, source, types.ReactionDislike, types.EventTypeDislike)
}

// setReaction creates the current-state row or overwrites it on toggle,
// keeping the one-row-per-(user,item) invariant.
func (s *reactionService) setReaction(ctx context.Context, userID uuid.UUID, itemID int64, source, reaction, eventType string) (*types.UserItemReaction, error) {
	if source == "" {
		source = types.EventSourceCatalog
	}

	var result *types.UserItemReaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByUserAndItem(ctx, tx, userID, itemID)
		if err != nil {
			return fmt.Errorf("load reaction: %w", err)
		}
		now := time.Now().UTC()
		if existing != nil {
			existing.Reaction = reaction
			existing.Source = source
			existing.UpdatedAt = now
			if err := s.repo.Save(ctx, tx, existing); err != nil {
				return fmt.Errorf("update reaction: %w", err)
			}
			result = existing
		} else {
			created := &types.UserItemReaction{
				UserID:    userID,
				ItemID:    itemID,
				Reaction:  reaction,
				Source:    source,
				UpdatedAt: now,
			}
			if err := s.repo.Create(ctx, tx, created); err != nil {
				return fmt.Errorf("create reaction: %w", err)
			}
			result = created
		}

		if _, err := s.eventSvc.Record(ctx, tx, userID, itemID, eventType, nil, source); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.eventSvc.ScheduleAggregation(ctx, userID, eventType)
	return result, nil
}

func (s *reactionService) RemoveLike(ctx context.Context, userID uuid.UUID, itemID int64) error {
	return s.removeReaction(ctx, userID, itemID, types.ReactionLike, types.EventTypeRemoveLike)
}

func (s *reactionService) RemoveDislike(ctx context.Context, userID uuid.UUID, itemID int64) error {
	return s.removeReaction(ctx, userID, itemID, types.ReactionDislike, types.EventTypeRemoveDislike)
}

func (s *reactionService) removeReaction(ctx context.Context, userID uuid.UUID, itemID int64, expected, eventType string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByUserAndItem(ctx, tx, userID, itemID)
		if err != nil {
			return fmt.Errorf("load reaction: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("%s: %w", expected, apperr.ErrNotFound)
		}
		if existing.Reaction != expected {
			return fmt.Errorf("reaction is not a %s: %w", expected, apperr.ErrConflict)
		}

		if _, err := s.eventSvc.Record(ctx, tx, userID, itemID, eventType, nil, existing.Source); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, existing); err != nil {
			return fmt.Errorf("delete reaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.eventSvc.ScheduleAggregation(ctx, userID, eventType)
	return nil
}

func (s *reactionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.UserItemReaction, error) {
	return s.repo.GetByUserID(ctx, nil, userID)
}
