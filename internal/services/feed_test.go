package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cinefeed/cinefeed-backend/internal/apperr"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

func floatPtr(v float64) *float64 { return &v }

func newFeedFixture(t *testing.T, cfg FeedConfig) (*fakeMovieRepo, *fakeProfileRepo, *fakeReactionRepo, *fakeWatchlistRepo, FeedService) {
	t.Helper()
	movieRepo := newFakeMovieRepo()
	profileRepo := newFakeProfileRepo()
	reactionRepo := &fakeReactionRepo{}
	watchlistRepo := &fakeWatchlistRepo{}
	svc := NewFeedService(newTestLogger(t), cfg, movieRepo, profileRepo, reactionRepo, watchlistRepo)
	return movieRepo, profileRepo, reactionRepo, watchlistRepo, svc
}

func storeProfile(profileRepo *fakeProfileRepo, userID uuid.UUID, genreWeights map[string]float64) {
	profileRepo.profiles[userID] = &types.UserProfile{
		UserID:         userID,
		ProfileVersion: types.ProfileSchemaVersion,
		WindowDays:     90,
		ComputedAt:     time.Now().UTC(),
		GenreWeights:   marshalJSON(genreWeights),
	}
}

func TestGetPersonalFeed_MissingProfileIsNotFound(t *testing.T) {
	_, _, _, _, svc := newFeedFixture(t, DefaultFeedConfig())
	_, err := svc.GetPersonalFeed(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPersonalFeed_EmptyCatalogGivesEmptyFeed(t *testing.T) {
	_, profileRepo, _, _, svc := newFeedFixture(t, DefaultFeedConfig())
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 3})

	result, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if result.Total != 0 || len(result.Data) != 0 {
		t.Fatalf("expected empty feed, got %+v", result)
	}
}

func TestGetPersonalFeed_PreferredGenreRanksAboveDisliked(t *testing.T) {
	movieRepo, profileRepo, _, _, svc := newFeedFixture(t, DefaultFeedConfig())
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 5, "Horror": -5})

	movieRepo.movies[1] = &types.Movie{ID: 1, Title: "Liked Genre", Genres: "Drama", Popularity: floatPtr(50)}
	movieRepo.movies[2] = &types.Movie{ID: 2, Title: "Disliked Genre", Genres: "Horror", Popularity: floatPtr(50)}

	result, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Data))
	}
	if result.Data[0].ID != 1 || result.Data[1].ID != 2 {
		t.Fatalf("expected the preferred genre first, got ids %d, %d", result.Data[0].ID, result.Data[1].ID)
	}
}

func TestGetPersonalFeed_ExcludesLikedAndWatchlistedItems(t *testing.T) {
	movieRepo, profileRepo, reactionRepo, watchlistRepo, svc := newFeedFixture(t, DefaultFeedConfig())
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 3})

	movieRepo.movies[1] = &types.Movie{ID: 1, Genres: "Drama", Popularity: floatPtr(90)}
	movieRepo.movies[2] = &types.Movie{ID: 2, Genres: "Drama", Popularity: floatPtr(80)}
	movieRepo.movies[3] = &types.Movie{ID: 3, Genres: "Drama", Popularity: floatPtr(70)}
	reactionRepo.reactions = append(reactionRepo.reactions, &types.UserItemReaction{
		UserID: userID, ItemID: 1, Reaction: types.ReactionLike,
	})
	watchlistRepo.items = append(watchlistRepo.items, &types.WatchlistItem{UserID: userID, ItemID: 2})

	result, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != 3 {
		t.Fatalf("expected only the uninteracted movie, got %+v", result.Data)
	}
}

func TestGetPersonalFeed_DislikedItemsStayEligible(t *testing.T) {
	movieRepo, profileRepo, reactionRepo, _, svc := newFeedFixture(t, DefaultFeedConfig())
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 3})

	movieRepo.movies[1] = &types.Movie{ID: 1, Genres: "Drama", Popularity: floatPtr(90)}
	reactionRepo.reactions = append(reactionRepo.reactions, &types.UserItemReaction{
		UserID: userID, ItemID: 1, Reaction: types.ReactionDislike,
	})

	result, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != 1 {
		t.Fatalf("expected the disliked item to remain a candidate, got %+v", result.Data)
	}
}

func TestGetPersonalFeed_CapsAtFeedLimit(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.FeedLimit = 3
	movieRepo, profileRepo, _, _, svc := newFeedFixture(t, cfg)
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 3})

	for i := int64(1); i <= 10; i++ {
		movieRepo.movies[i] = &types.Movie{ID: i, Genres: "Drama", Popularity: floatPtr(float64(100 - i))}
	}

	result, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(result.Data) != 3 || result.Total != 3 {
		t.Fatalf("expected feed capped at 3, got %d", len(result.Data))
	}
}

// Ranking is deterministic for unchanged inputs: two back-to-back calls over
// a pool wide enough to run diversification must return the same id sequence.
func TestGetPersonalFeed_RepeatedCallsReturnSameOrder(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.FeedLimit = 5
	movieRepo, profileRepo, _, _, svc := newFeedFixture(t, cfg)
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 4, "Comedy": 2, "Thriller": 1, "Horror": -3})

	genres := []string{"Drama", "Comedy", "Drama, Comedy", "Thriller", "Horror"}
	for i := int64(1); i <= 15; i++ {
		movieRepo.movies[i] = &types.Movie{
			ID:         i,
			Genres:     genres[int(i)%len(genres)],
			Popularity: floatPtr(float64(20 + 3*i)),
		}
	}

	first, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("first feed: %v", err)
	}
	second, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("second feed: %v", err)
	}

	if len(first.Data) != cfg.FeedLimit {
		t.Fatalf("expected a full page of %d items, got %d", cfg.FeedLimit, len(first.Data))
	}
	if len(second.Data) != len(first.Data) {
		t.Fatalf("result sizes differ: %d vs %d", len(first.Data), len(second.Data))
	}
	for i := range first.Data {
		if first.Data[i].ID != second.Data[i].ID {
			t.Fatalf("id sequence diverged at position %d: %d vs %d", i, first.Data[i].ID, second.Data[i].ID)
		}
	}
}

func TestGetPersonalFeed_ItemsCarryNoInteractionFlags(t *testing.T) {
	movieRepo, profileRepo, _, _, svc := newFeedFixture(t, DefaultFeedConfig())
	userID := uuid.New()
	storeProfile(profileRepo, userID, map[string]float64{"Drama": 3})
	movieRepo.movies[1] = &types.Movie{ID: 1, Genres: "Drama", Popularity: floatPtr(50)}

	result, err := svc.GetPersonalFeed(context.Background(), userID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	for _, item := range result.Data {
		if item.IsInWatchlist || item.Reaction != nil {
			t.Fatalf("recommended items must carry no interaction state, got %+v", item)
		}
	}
}

func TestSelectWithMMR_PureRelevanceKeepsScoreOrder(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.MMRLambda = 1
	svc := &feedService{cfg: cfg}

	scored := []scoredMovie{
		{movie: &types.Movie{ID: 1}, genres: []string{"Drama"}, score: 0.9},
		{movie: &types.Movie{ID: 2}, genres: []string{"Drama"}, score: 0.8},
		{movie: &types.Movie{ID: 3}, genres: []string{"Comedy"}, score: 0.7},
	}
	selected := svc.selectWithMMR(scored, 2)
	if len(selected) != 2 || selected[0].movie.ID != 1 || selected[1].movie.ID != 2 {
		t.Fatalf("expected pure score order [1,2], got %+v", selected)
	}
}

func TestSelectWithMMR_PureDiversityPrefersDissimilar(t *testing.T) {
	cfg := DefaultFeedConfig()
	cfg.MMRLambda = 0
	svc := &feedService{cfg: cfg}

	// Seed is the top-scored Drama; with relevance ignored the next pick must
	// be the genre-disjoint Comedy despite its lower score.
	scored := []scoredMovie{
		{movie: &types.Movie{ID: 1}, genres: []string{"Drama"}, score: 0.9},
		{movie: &types.Movie{ID: 2}, genres: []string{"Drama"}, score: 0.8},
		{movie: &types.Movie{ID: 3}, genres: []string{"Comedy"}, score: 0.1},
	}
	selected := svc.selectWithMMR(scored, 2)
	if len(selected) != 2 || selected[0].movie.ID != 1 || selected[1].movie.ID != 3 {
		t.Fatalf("expected diversity pick [1,3], got %+v", selected)
	}
}

func TestSelectWithMMR_SmallPoolSkipsDiversification(t *testing.T) {
	svc := &feedService{cfg: DefaultFeedConfig()}
	scored := []scoredMovie{
		{movie: &types.Movie{ID: 1}, score: 0.2},
		{movie: &types.Movie{ID: 2}, score: 0.9},
	}
	selected := svc.selectWithMMR(scored, 20)
	if len(selected) != 2 || selected[0].movie.ID != 2 || selected[1].movie.ID != 1 {
		t.Fatalf("expected score-sorted passthrough, got %+v", selected)
	}
}

func TestTopGenresByWeight_OrderAndCount(t *testing.T) {
	weights := map[string]float64{"Drama": 3, "Comedy": 3, "Horror": -2, "Action": 1}
	got := topGenresByWeight(weights, 3)
	want := []string{"Comedy", "Drama", "Action"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestScoreMovies_PopularityBreaksGenreTies(t *testing.T) {
	svc := &feedService{cfg: DefaultFeedConfig()}
	candidates := []*types.Movie{
		{ID: 1, Genres: "Drama", Popularity: floatPtr(10)},
		{ID: 2, Genres: "Drama", Popularity: floatPtr(500)},
	}
	scored := svc.scoreMovies(candidates, map[string]float64{"Drama": 2})
	if scored[1].score <= scored[0].score {
		t.Fatalf("expected the more popular movie to score higher: %v vs %v", scored[1].score, scored[0].score)
	}
}

func TestScoreMovies_FreshReleaseGetsFreshnessBoost(t *testing.T) {
	svc := &feedService{cfg: DefaultFeedConfig()}
	recent := time.Now().UTC().AddDate(0, 0, -1)
	old := time.Now().UTC().AddDate(-10, 0, 0)
	candidates := []*types.Movie{
		{ID: 1, Genres: "Drama", ReleaseDate: &recent},
		{ID: 2, Genres: "Drama", ReleaseDate: &old},
	}
	scored := svc.scoreMovies(candidates, map[string]float64{"Drama": 2})
	if scored[0].fresh <= scored[1].fresh {
		t.Fatalf("expected higher freshness for the recent release: %v vs %v", scored[0].fresh, scored[1].fresh)
	}
	if scored[0].score <= scored[1].score {
		t.Fatalf("expected freshness to break the tie: %v vs %v", scored[0].score, scored[1].score)
	}
}
