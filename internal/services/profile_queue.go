package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

// ShouldTriggerAggregation is the allow-list gate deciding whether an event
// type schedules a profile recomputation.
func ShouldTriggerAggregation(eventType string) bool {
	switch eventType {
	case types.EventTypeLike,
		types.EventTypeRemoveLike,
		types.EventTypeDislike,
		types.EventTypeRemoveDislike:
		return true
	}
	return false
}

// ProfileQueue schedules profile aggregation jobs, one in flight per user.
// Enqueueing while a job for the same user is pending or running is a no-op.
type ProfileQueue interface {
	Enqueue(ctx context.Context, userID uuid.UUID)
	StartWorker(ctx context.Context)
}

// jobDedup marks a user as having a pending/running job. Acquire returns
// false when a marker already exists.
type jobDedup interface {
	Acquire(ctx context.Context, userID uuid.UUID) bool
	Release(ctx context.Context, userID uuid.UUID)
}

type profileQueue struct {
	log        *logger.Logger
	aggregator ProfileAggregationService
	dedup      jobDedup
	jobs       chan uuid.UUID

	maxAttempts  int
	retryBackoff time.Duration
}

// NewProfileQueue builds the single-process aggregation trigger. When rdb is
// non-nil the dedup markers live in Redis, so restarted workers and multiple
// API replicas share the single-flight property; otherwise an in-memory set
// is used.
func NewProfileQueue(baseLog *logger.Logger, aggregator ProfileAggregationService, rdb *goredis.Client) ProfileQueue {
	var dedup jobDedup
	if rdb != nil {
		dedup = &redisJobDedup{rdb: rdb, ttl: 10 * time.Minute}
	} else {
		dedup = &memoryJobDedup{pending: map[uuid.UUID]struct{}{}}
	}
	return &profileQueue{
		log:          baseLog.With("service", "ProfileQueue"),
		aggregator:   aggregator,
		dedup:        dedup,
		jobs:         make(chan uuid.UUID, 1024),
		maxAttempts:  3,
		retryBackoff: 2 * time.Second,
	}
}

func (q *profileQueue) Enqueue(ctx context.Context, userID uuid.UUID) {
	if userID == uuid.Nil {
		return
	}
	if !q.dedup.Acquire(ctx, userID) {
		// A job for this user is already pending or running; the existing
		// job wins and keeps its queue position.
		return
	}
	select {
	case q.jobs <- userID:
	default:
		q.dedup.Release(ctx, userID)
		q.log.Warn("aggregation queue full, dropping job", "user_id", userID)
	}
}

func (q *profileQueue) StartWorker(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case userID := <-q.jobs:
				q.process(ctx, userID)
				q.dedup.Release(ctx, userID)
			}
		}
	}()
}

// process runs one aggregation with retries. After the attempt ceiling the
// job is dropped; the next qualifying event re-triggers it.
func (q *profileQueue) process(ctx context.Context, userID uuid.UUID) {
	backoff := q.retryBackoff
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		_, err := q.aggregator.Aggregate(ctx, userID, 0)
		if err == nil {
			return
		}
		q.log.Warn("profile aggregation attempt failed",
			"user_id", userID,
			"attempt", attempt,
			"error", err,
		)
		if attempt == q.maxAttempts {
			q.log.Error("profile aggregation dropped after retries", "user_id", userID)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

type memoryJobDedup struct {
	mu      sync.Mutex
	pending map[uuid.UUID]struct{}
}

func (d *memoryJobDedup) Acquire(_ context.Context, userID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.pending[userID]; exists {
		return false
	}
	d.pending[userID] = struct{}{}
	return true
}

func (d *memoryJobDedup) Release(_ context.Context, userID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, userID)
}

// redisJobDedup mirrors the jobId-keyed dedup of a Redis-backed job queue.
// The TTL is a safety net against markers leaking if a worker dies mid-job.
type redisJobDedup struct {
	rdb *goredis.Client
	ttl time.Duration
}

func (d *redisJobDedup) key(userID uuid.UUID) string {
	return "profile:aggregate:" + userID.String()
}

func (d *redisJobDedup) Acquire(ctx context.Context, userID uuid.UUID) bool {
	ok, err := d.rdb.SetNX(ctx, d.key(userID), "1", d.ttl).Result()
	if err != nil {
		// Redis being down must not stall the trigger path; run the job.
		return true
	}
	return ok
}

func (d *redisJobDedup) Release(ctx context.Context, userID uuid.UUID) {
	_ = d.rdb.Del(ctx, d.key(userID)).Err()
}
