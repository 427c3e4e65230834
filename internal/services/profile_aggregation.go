package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/repos"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

// AggregationConfig holds the tunable constants of the profile aggregation.
// All weights are hand-picked so that the resulting profile stays explainable.
type AggregationConfig struct {
	WindowDays            int
	DecayHalfLifeDays     float64
	EventWeights          map[string]float64
	ReactionLikeWeight    float64
	ReactionDislikeWeight float64
	ClampMin              float64
	ClampMax              float64
	TopGenresCount        int
	TopDecadesCount       int
	TopLanguagesCount     int
}

func DefaultAggregationConfig() AggregationConfig {
	return AggregationConfig{
		WindowDays:        90,
		DecayHalfLifeDays: 30,
		EventWeights: map[string]float64{
			types.EventTypeView:                0.5,
			types.EventTypeLike:                2.0,
			types.EventTypeRemoveLike:          -1.0,
			types.EventTypeDislike:             -1.5,
			types.EventTypeRemoveDislike:       0.5,
			types.EventTypeAddToWatchlist:      1.5,
			types.EventTypeRemoveFromWatchlist: -0.5,
		},
		ReactionLikeWeight:    2.0,
		ReactionDislikeWeight: -1.5,
		ClampMin:              -5,
		ClampMax:              5,
		TopGenresCount:        15,
		TopDecadesCount:       5,
		TopLanguagesCount:     5,
	}
}

type ProfileAggregationService interface {
	// Aggregate recomputes and persists the user's preference snapshot over
	// the trailing window. windowDays <= 0 selects the configured default.
	Aggregate(ctx context.Context, userID uuid.UUID, windowDays int) (*types.UserProfile, error)
}

type profileAggregationService struct {
	db  *gorm.DB
	log *logger.Logger
	cfg AggregationConfig

	eventRepo     repos.UserEventRepo
	reactionRepo  repos.UserItemReactionRepo
	watchlistRepo repos.WatchlistItemRepo
	movieRepo     repos.MovieRepo
	profileRepo   repos.UserProfileRepo
}

func NewProfileAggregationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg AggregationConfig,
	eventRepo repos.UserEventRepo,
	reactionRepo repos.UserItemReactionRepo,
	watchlistRepo repos.WatchlistItemRepo,
	movieRepo repos.MovieRepo,
	profileRepo repos.UserProfileRepo,
) ProfileAggregationService {
	return &profileAggregationService{
		db:            db,
		log:           baseLog.With("service", "ProfileAggregationService"),
		cfg:           cfg,
		eventRepo:     eventRepo,
		reactionRepo:  reactionRepo,
		watchlistRepo: watchlistRepo,
		movieRepo:     movieRepo,
		profileRepo:   profileRepo,
	}
}

func (s *profileAggregationService) Aggregate(ctx context.Context, userID uuid.UUID, windowDays int) (*types.UserProfile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("aggregate: user id required")
	}
	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -windowDays)

	// Events are windowed history; reactions and watchlist are current state
	// and fetched without a window. The three reads are independent.
	var (
		events         []*types.UserEvent
		reactions      []*types.UserItemReaction
		watchlistItems []*types.WatchlistItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.eventRepo.GetByUserSince(gctx, nil, userID, windowStart)
		if err != nil {
			return fmt.Errorf("fetch events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reactions, err = s.reactionRepo.GetByUserID(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("fetch reactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		watchlistItems, err = s.watchlistRepo.GetByUserID(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("fetch watchlist: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	movieMap, err := s.loadReferencedMovies(ctx, events, reactions, watchlistItems)
	if err != nil {
		return nil, err
	}

	stats := s.computeStats(events, reactions, watchlistItems)

	genreWeights, decadeWeights, languageWeights := s.computeWeights(events, reactions, movieMap, now)

	stats.TasteDiversity = shannonEntropyNormalized(genreWeights)
	stats.PreferenceConfidence = s.computePreferenceConfidence(stats)

	likedItems := make([]int64, 0, len(reactions))
	dislikedItems := make([]int64, 0, len(reactions))
	for _, r := range reactions {
		switch r.Reaction {
		case types.ReactionLike:
			likedItems = append(likedItems, r.ItemID)
		case types.ReactionDislike:
			dislikedItems = append(dislikedItems, r.ItemID)
		}
	}

	profile := &types.UserProfile{
		UserID:          userID,
		ProfileVersion:  types.ProfileSchemaVersion,
		WindowDays:      windowDays,
		ComputedAt:      now,
		GenreWeights:    marshalJSON(genreWeights),
		DecadeWeights:   marshalJSON(decadeWeights),
		LanguageWeights: marshalJSON(languageWeights),
		Stats:           marshalJSON(stats),
		TotalEvents:     len(events),
		LikeCount:       len(likedItems),
		DislikeCount:    len(dislikedItems),
		LikedItems:      marshalJSON(likedItems),
		DislikedItems:   marshalJSON(dislikedItems),
		LastEventAt:     stats.LastEventAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.profileRepo.Upsert(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.log.Debug("profile aggregated",
		"user_id", userID,
		"window_days", windowDays,
		"events", len(events),
		"confidence", stats.PreferenceConfidence,
		"diversity", stats.TasteDiversity,
	)
	return profile, nil
}

// loadReferencedMovies bulk-fetches catalog metadata for every item id the
// inputs mention. Ids missing from the catalog are simply absent from the map.
func (s *profileAggregationService) loadReferencedMovies(
	ctx context.Context,
	events []*types.UserEvent,
	reactions []*types.UserItemReaction,
	watchlistItems []*types.WatchlistItem,
) (map[int64]*types.Movie, error) {
	idSet := map[int64]struct{}{}
	for _, e := range events {
		idSet[e.ItemID] = struct{}{}
	}
	for _, r := range reactions {
		idSet[r.ItemID] = struct{}{}
	}
	for _, w := range watchlistItems {
		idSet[w.ItemID] = struct{}{}
	}

	movieMap := make(map[int64]*types.Movie, len(idSet))
	if len(idSet) == 0 {
		return movieMap, nil
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	movies, err := s.movieRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog items: %w", err)
	}
	for _, m := range movies {
		movieMap[m.ID] = m
	}
	return movieMap, nil
}

func (s *profileAggregationService) computeStats(
	events []*types.UserEvent,
	reactions []*types.UserItemReaction,
	watchlistItems []*types.WatchlistItem,
) types.ProfileStats {
	stats := types.ProfileStats{
		EventsTotal90d:      len(events),
		WatchlistItemsCount: len(watchlistItems),
	}

	if len(events) > 0 {
		// Events arrive ordered by created_at descending.
		last := events[0].CreatedAt
		stats.LastEventAt = &last
	}

	activeDays := map[string]struct{}{}
	for _, e := range events {
		activeDays[e.CreatedAt.UTC().Format("2006-01-02")] = struct{}{}
		switch e.EventType {
		case types.EventTypeView:
			stats.ViewsCount90d++
		case types.EventTypeLike:
			stats.LikesCount90d++
		case types.EventTypeRemoveLike:
			stats.UnlikesCount90d++
		case types.EventTypeAddToWatchlist:
			stats.WatchlistAddCount90d++
		case types.EventTypeRemoveFromWatchlist:
			stats.WatchlistRemoveCount90d++
		}
	}
	stats.ActiveDays90d = len(activeDays)

	for _, r := range reactions {
		if r.Reaction == types.ReactionLike {
			stats.LikedItemsCount++
		}
	}
	return stats
}

func (s *profileAggregationService) computeWeights(
	events []*types.UserEvent,
	reactions []*types.UserItemReaction,
	movieMap map[int64]*types.Movie,
	now time.Time,
) (map[string]float64, map[string]float64, map[string]float64) {
	genreAcc := map[string]float64{}
	decadeAcc := map[string]float64{}
	languageAcc := map[string]float64{}

	for _, event := range events {
		movie, ok := movieMap[event.ItemID]
		if !ok {
			continue
		}
		weight := s.cfg.EventWeights[event.EventType] * timeDecay(event.CreatedAt, now, s.cfg.DecayHalfLifeDays)
		accumulateMovieWeights(movie, weight, genreAcc, decadeAcc, languageAcc)
	}

	// Reactions are current truth, not historical signal: fixed weight, no decay.
	for _, reaction := range reactions {
		movie, ok := movieMap[reaction.ItemID]
		if !ok {
			continue
		}
		weight := s.cfg.ReactionDislikeWeight
		if reaction.Reaction == types.ReactionLike {
			weight = s.cfg.ReactionLikeWeight
		}
		accumulateMovieWeights(movie, weight, genreAcc, decadeAcc, languageAcc)
	}

	return s.finalizeWeights(genreAcc, s.cfg.TopGenresCount),
		s.finalizeWeights(decadeAcc, s.cfg.TopDecadesCount),
		s.finalizeWeights(languageAcc, s.cfg.TopLanguagesCount)
}

// accumulateMovieWeights splits the weight evenly across the movie's genres
// and spoken languages, while the release decade receives the full weight.
// The asymmetry is intentional: decade is a single-valued attribute.
func accumulateMovieWeights(movie *types.Movie, weight float64, genreAcc, decadeAcc, languageAcc map[string]float64) {
	if genres := splitLabels(movie.Genres); len(genres) > 0 {
		perGenre := weight / float64(len(genres))
		for _, g := range genres {
			genreAcc[g] += perGenre
		}
	}

	if movie.ReleaseDate != nil {
		decade := fmt.Sprintf("%ds", movie.ReleaseDate.Year()/10*10)
		decadeAcc[decade] += weight
	}

	if languages := splitLabels(movie.SpokenLanguages); len(languages) > 0 {
		perLanguage := weight / float64(len(languages))
		for _, l := range languages {
			languageAcc[l] += perLanguage
		}
	}
}

// finalizeWeights keeps the top-N labels by accumulated value and clamps each
// kept value into the configured range. Label ascending breaks value ties so
// the result is deterministic.
func (s *profileAggregationService) finalizeWeights(acc map[string]float64, topN int) map[string]float64 {
	type entry struct {
		label string
		value float64
	}
	entries := make([]entry, 0, len(acc))
	for label, value := range acc {
		entries = append(entries, entry{label: label, value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value > entries[j].value
		}
		return entries[i].label < entries[j].label
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}

	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.label] = clamp(e.value, s.cfg.ClampMin, s.cfg.ClampMax)
	}
	return out
}

// computePreferenceConfidence combines capped activity signals: likes are the
// strongest indicator, watchlist adds next, spread of active days last.
func (s *profileAggregationService) computePreferenceConfidence(stats types.ProfileStats) float64 {
	signalLikes := math.Min(float64(stats.LikesCount90d)/10, 1.0)
	signalWatchlist := math.Min(float64(stats.WatchlistAddCount90d)/5, 1.0)
	signalActivity := math.Min(float64(stats.ActiveDays90d)/30, 1.0)

	confidence := signalLikes*0.5 + signalWatchlist*0.3 + signalActivity*0.2
	return clamp(confidence, 0, 1)
}

func marshalJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}
