package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/repos"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type EventService interface {
	// Record appends one interaction event to the log. Outside a transaction
	// it also schedules a profile aggregation for qualifying event types;
	// transactional callers must call ScheduleAggregation themselves after
	// their transaction commits, because the aggregation worker reads on its
	// own connection and must only ever see committed state.
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64, eventType string, eventValue *float64, source string) (*types.UserEvent, error)
	// ScheduleAggregation enqueues a profile recomputation when the event
	// type qualifies. Fire-and-forget: it never fails the caller.
	ScheduleAggregation(ctx context.Context, userID uuid.UUID, eventType string)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.UserEvent, error)
}

type eventService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.UserEventRepo
	queue ProfileQueue
}

func NewEventService(db *gorm.DB, baseLog *logger.Logger, repo repos.UserEventRepo, queue ProfileQueue) EventService {
	return &eventService{
		db:    db,
		log:   baseLog.With("service", "EventService"),
		repo:  repo,
		queue: queue,
	}
}

func (s *eventService) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64, eventType string, eventValue *float64, source string) (*types.UserEvent, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("record event: user id required")
	}
	if source == "" {
		source = types.EventSourceCatalog
	}

	event := &types.UserEvent{
		UserID:     userID,
		ItemID:     itemID,
		EventType:  eventType,
		EventValue: eventValue,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.repo.Create(ctx, tx, []*types.UserEvent{event}); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	// Inside a transaction the write is not yet visible to other
	// connections; the caller enqueues after commit.
	if tx == nil {
		s.ScheduleAggregation(ctx, userID, eventType)
	}
	return event, nil
}

func (s *eventService) ScheduleAggregation(ctx context.Context, userID uuid.UUID, eventType string) {
	if s.queue != nil && ShouldTriggerAggregation(eventType) {
		s.queue.Enqueue(ctx, userID)
	}
}

func (s *eventService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.UserEvent, error) {
	return s.repo.GetByUserID(ctx, nil, userID)
}
