package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cinefeed/cinefeed-backend/internal/types"
)

type fakeAggregator struct {
	mu       sync.Mutex
	calls    []uuid.UUID
	failures int
	signal   chan struct{}
}

func newFakeAggregator(failures int) *fakeAggregator {
	return &fakeAggregator{failures: failures, signal: make(chan struct{}, 64)}
}

func (f *fakeAggregator) Aggregate(ctx context.Context, userID uuid.UUID, windowDays int) (*types.UserProfile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, userID)
	shouldFail := len(f.calls) <= f.failures
	f.mu.Unlock()
	f.signal <- struct{}{}
	if shouldFail {
		return nil, errors.New("aggregation backend unavailable")
	}
	return &types.UserProfile{UserID: userID}, nil
}

func (f *fakeAggregator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitForSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for aggregation call")
	}
}

func TestShouldTriggerAggregation(t *testing.T) {
	cases := []struct {
		eventType string
		want      bool
	}{
		{types.EventTypeLike, true},
		{types.EventTypeRemoveLike, true},
		{types.EventTypeDislike, true},
		{types.EventTypeRemoveDislike, true},
		{types.EventTypeView, false},
		{types.EventTypeAddToWatchlist, false},
		{types.EventTypeRemoveFromWatchlist, false},
		{"unknown", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ShouldTriggerAggregation(tc.eventType); got != tc.want {
			t.Fatalf("ShouldTriggerAggregation(%q) = %v, want %v", tc.eventType, got, tc.want)
		}
	}
}

func TestEnqueue_DeduplicatesPendingJobs(t *testing.T) {
	agg := newFakeAggregator(0)
	q := NewProfileQueue(newTestLogger(t), agg, nil).(*profileQueue)
	userID := uuid.New()

	q.Enqueue(context.Background(), userID)
	q.Enqueue(context.Background(), userID)
	q.Enqueue(context.Background(), userID)

	if got := len(q.jobs); got != 1 {
		t.Fatalf("expected a single pending job, got %d", got)
	}
}

func TestEnqueue_DistinctUsersQueueSeparately(t *testing.T) {
	agg := newFakeAggregator(0)
	q := NewProfileQueue(newTestLogger(t), agg, nil).(*profileQueue)

	q.Enqueue(context.Background(), uuid.New())
	q.Enqueue(context.Background(), uuid.New())

	if got := len(q.jobs); got != 2 {
		t.Fatalf("expected two pending jobs, got %d", got)
	}
}

func TestEnqueue_NilUserIsNoOp(t *testing.T) {
	agg := newFakeAggregator(0)
	q := NewProfileQueue(newTestLogger(t), agg, nil).(*profileQueue)

	q.Enqueue(context.Background(), uuid.Nil)
	if got := len(q.jobs); got != 0 {
		t.Fatalf("expected no job for nil user, got %d", got)
	}
}

func TestWorker_ProcessesJobAndAllowsReEnqueue(t *testing.T) {
	agg := newFakeAggregator(0)
	q := NewProfileQueue(newTestLogger(t), agg, nil).(*profileQueue)
	userID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.StartWorker(ctx)

	q.Enqueue(ctx, userID)
	waitForSignal(t, agg.signal)

	// The dedup marker is released after processing; the next qualifying
	// event must be able to schedule a fresh job.
	dedup := q.dedup.(*memoryJobDedup)
	deadline := time.Now().Add(2 * time.Second)
	for {
		dedup.mu.Lock()
		_, pending := dedup.pending[userID]
		dedup.mu.Unlock()
		if !pending {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dedup marker never released")
		}
		time.Sleep(5 * time.Millisecond)
	}

	q.Enqueue(ctx, userID)
	waitForSignal(t, agg.signal)
	if got := agg.callCount(); got != 2 {
		t.Fatalf("expected two aggregations, got %d", got)
	}
}

func TestWorker_RetriesUntilSuccess(t *testing.T) {
	agg := newFakeAggregator(2)
	q := NewProfileQueue(newTestLogger(t), agg, nil).(*profileQueue)
	q.retryBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.StartWorker(ctx)

	q.Enqueue(ctx, uuid.New())
	waitForSignal(t, agg.signal)
	waitForSignal(t, agg.signal)
	waitForSignal(t, agg.signal)

	if got := agg.callCount(); got != 3 {
		t.Fatalf("expected two failures then one success, got %d calls", got)
	}
}

func TestWorker_DropsJobAfterAttemptCeiling(t *testing.T) {
	agg := newFakeAggregator(100)
	q := NewProfileQueue(newTestLogger(t), agg, nil).(*profileQueue)
	q.retryBackoff = time.Millisecond
	userID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.StartWorker(ctx)

	q.Enqueue(ctx, userID)
	for i := 0; i < q.maxAttempts; i++ {
		waitForSignal(t, agg.signal)
	}

	// Give the worker a moment to release the marker, then confirm no
	// further attempts happen.
	time.Sleep(50 * time.Millisecond)
	if got := agg.callCount(); got != q.maxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", q.maxAttempts, got)
	}
}
