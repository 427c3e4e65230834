package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

type fakeEventRepo struct {
	events  []*types.UserEvent
	created []*types.UserEvent
}

func (f *fakeEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.UserEvent) ([]*types.UserEvent, error) {
	f.created = append(f.created, events...)
	return events, nil
}

func (f *fakeEventRepo) GetByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.UserEvent, error) {
	var out []*types.UserEvent
	for _, e := range f.events {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEventRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserEvent, error) {
	var out []*types.UserEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeReactionRepo struct {
	reactions []*types.UserItemReaction
}

func (f *fakeReactionRepo) GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64) (*types.UserItemReaction, error) {
	for _, r := range f.reactions {
		if r.UserID == userID && r.ItemID == itemID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeReactionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserItemReaction, error) {
	var out []*types.UserItemReaction
	for _, r := range f.reactions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReactionRepo) GetLikedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserItemReaction, error) {
	var out []*types.UserItemReaction
	for _, r := range f.reactions {
		if r.UserID == userID && r.Reaction == types.ReactionLike {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReactionRepo) Create(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error {
	f.reactions = append(f.reactions, reaction)
	return nil
}

func (f *fakeReactionRepo) Save(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error {
	for i, r := range f.reactions {
		if r.UserID == reaction.UserID && r.ItemID == reaction.ItemID {
			f.reactions[i] = reaction
			return nil
		}
	}
	f.reactions = append(f.reactions, reaction)
	return nil
}

func (f *fakeReactionRepo) Delete(ctx context.Context, tx *gorm.DB, reaction *types.UserItemReaction) error {
	for i, r := range f.reactions {
		if r.UserID == reaction.UserID && r.ItemID == reaction.ItemID {
			f.reactions = append(f.reactions[:i], f.reactions[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeWatchlistRepo struct {
	items []*types.WatchlistItem
}

func (f *fakeWatchlistRepo) GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemID int64) (*types.WatchlistItem, error) {
	for _, w := range f.items {
		if w.UserID == userID && w.ItemID == itemID {
			return w, nil
		}
	}
	return nil, nil
}

func (f *fakeWatchlistRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.WatchlistItem, error) {
	var out []*types.WatchlistItem
	for _, w := range f.items {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWatchlistRepo) Create(ctx context.Context, tx *gorm.DB, item *types.WatchlistItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeWatchlistRepo) Delete(ctx context.Context, tx *gorm.DB, item *types.WatchlistItem) error {
	for i, w := range f.items {
		if w.UserID == item.UserID && w.ItemID == item.ItemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeMovieRepo struct {
	movies map[int64]*types.Movie
}

func newFakeMovieRepo(movies ...*types.Movie) *fakeMovieRepo {
	m := map[int64]*types.Movie{}
	for _, movie := range movies {
		m[movie.ID] = movie
	}
	return &fakeMovieRepo{movies: m}
}

func (f *fakeMovieRepo) all() []*types.Movie {
	out := make([]*types.Movie, 0, len(f.movies))
	for _, m := range f.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeMovieRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Movie, error) {
	return f.movies[id], nil
}

func (f *fakeMovieRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Movie, error) {
	var out []*types.Movie
	for _, id := range ids {
		if m, ok := f.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovieRepo) GetPopular(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Movie, error) {
	out := f.all()
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := 0.0, 0.0
		if out[i].Popularity != nil {
			pi = *out[i].Popularity
		}
		if out[j].Popularity != nil {
			pj = *out[j].Popularity
		}
		return pi > pj
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMovieRepo) GetRecent(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]*types.Movie, error) {
	var out []*types.Movie
	for _, m := range f.all() {
		if m.ReleaseDate != nil && m.ReleaseDate.After(since) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMovieRepo) GetByGenre(ctx context.Context, tx *gorm.DB, genre string, limit int) ([]*types.Movie, error) {
	var out []*types.Movie
	for _, m := range f.all() {
		if strings.Contains(strings.ToLower(m.Genres), strings.ToLower(genre)) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMovieRepo) List(ctx context.Context, tx *gorm.DB, search string, limit, offset int) ([]*types.Movie, int64, error) {
	out := f.all()
	return out, int64(len(out)), nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*types.UserProfile
	upserts  int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[uuid.UUID]*types.UserProfile{}}
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) error {
	f.profiles[profile.UserID] = profile
	f.upserts++
	return nil
}
