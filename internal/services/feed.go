package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cinefeed/cinefeed-backend/internal/apperr"
	"github.com/cinefeed/cinefeed-backend/internal/logger"
	"github.com/cinefeed/cinefeed-backend/internal/repos"
	"github.com/cinefeed/cinefeed-backend/internal/types"
)

// FeedConfig holds the candidate bounds and score weights of the personal
// feed. Popularity normalization is always computed fresh per request.
type FeedConfig struct {
	FeedLimit         int
	PopularLimit      int
	FreshLimit        int
	ByGenreLimit      int
	TopGenres         int
	FreshWindowMonths int
	FreshDecayDays    float64
	GenreWeight       float64
	PopularityWeight  float64
	FreshnessWeight   float64
	MMRLambda         float64
}

func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		FeedLimit:         20,
		PopularLimit:      500,
		FreshLimit:        300,
		ByGenreLimit:      200,
		TopGenres:         5,
		FreshWindowMonths: 6,
		FreshDecayDays:    45,
		GenreWeight:       0.65,
		PopularityWeight:  0.30,
		FreshnessWeight:   0.05,
		MMRLambda:         0.75,
	}
}

// FeedItem carries the catalog attributes of one recommended movie. The
// watchlist/reaction flags are always empty by construction: anything the
// user already liked or queued was excluded before scoring.
type FeedItem struct {
	*types.Movie
	IsInWatchlist bool    `json:"isInWatchlist"`
	Reaction      *string `json:"reaction"`
}

type FeedResult struct {
	Data  []FeedItem `json:"data"`
	Total int        `json:"total"`
}

type FeedService interface {
	GetPersonalFeed(ctx context.Context, userID uuid.UUID) (*FeedResult, error)
}

// feedService is read-only and goes through the repos directly; it holds no
// database handle of its own.
type feedService struct {
	log *logger.Logger
	cfg FeedConfig

	movieRepo     repos.MovieRepo
	profileRepo   repos.UserProfileRepo
	reactionRepo  repos.UserItemReactionRepo
	watchlistRepo repos.WatchlistItemRepo
}

func NewFeedService(
	baseLog *logger.Logger,
	cfg FeedConfig,
	movieRepo repos.MovieRepo,
	profileRepo repos.UserProfileRepo,
	reactionRepo repos.UserItemReactionRepo,
	watchlistRepo repos.WatchlistItemRepo,
) FeedService {
	return &feedService{
		log:           baseLog.With("service", "FeedService"),
		cfg:           cfg,
		movieRepo:     movieRepo,
		profileRepo:   profileRepo,
		reactionRepo:  reactionRepo,
		watchlistRepo: watchlistRepo,
	}
}

type scoredMovie struct {
	movie      *types.Movie
	genres     []string
	score      float64
	genreScore float64
	popNorm    float64
	fresh      float64
}

func (s *feedService) GetPersonalFeed(ctx context.Context, userID uuid.UUID) (*FeedResult, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		// Feed never aggregates implicitly; the caller must build the
		// profile first.
		return nil, fmt.Errorf("user profile: %w", apperr.ErrNotFound)
	}

	excluded, err := s.loadExcludedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	genreWeights := profile.GenreWeightMap()

	candidates, err := s.collectCandidates(ctx, genreWeights)
	if err != nil {
		return nil, err
	}

	filtered := make([]*types.Movie, 0, len(candidates))
	for _, m := range candidates {
		if _, skip := excluded[m.ID]; !skip {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		return &FeedResult{Data: []FeedItem{}, Total: 0}, nil
	}

	scored := s.scoreMovies(filtered, genreWeights)
	selected := s.selectWithMMR(scored, s.cfg.FeedLimit)

	data := make([]FeedItem, 0, len(selected))
	for _, sm := range selected {
		data = append(data, FeedItem{Movie: sm.movie, IsInWatchlist: false, Reaction: nil})
	}
	return &FeedResult{Data: data, Total: len(data)}, nil
}

// loadExcludedIDs returns the union of currently-liked and watchlisted item
// ids; those are never recommended.
func (s *feedService) loadExcludedIDs(ctx context.Context, userID uuid.UUID) (map[int64]struct{}, error) {
	var (
		liked     []*types.UserItemReaction
		watchlist []*types.WatchlistItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		liked, err = s.reactionRepo.GetLikedByUserID(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("load liked items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		watchlist, err = s.watchlistRepo.GetByUserID(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("load watchlist: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	excluded := make(map[int64]struct{}, len(liked)+len(watchlist))
	for _, r := range liked {
		excluded[r.ItemID] = struct{}{}
	}
	for _, w := range watchlist {
		excluded[w.ItemID] = struct{}{}
	}
	return excluded, nil
}

// collectCandidates gathers the bounded candidate pool from three independent
// sources, de-duplicated by id in priority order: popular, then fresh, then
// by top profile genres.
func (s *feedService) collectCandidates(ctx context.Context, genreWeights map[string]float64) ([]*types.Movie, error) {
	topGenres := topGenresByWeight(genreWeights, s.cfg.TopGenres)

	var (
		popular []*types.Movie
		fresh   []*types.Movie
	)
	byGenre := make([][]*types.Movie, len(topGenres))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		popular, err = s.movieRepo.GetPopular(gctx, nil, s.cfg.PopularLimit)
		if err != nil {
			return fmt.Errorf("popular candidates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		since := time.Now().UTC().AddDate(0, -s.cfg.FreshWindowMonths, 0)
		var err error
		fresh, err = s.movieRepo.GetRecent(gctx, nil, since, s.cfg.FreshLimit)
		if err != nil {
			return fmt.Errorf("fresh candidates: %w", err)
		}
		return nil
	})
	for i, genre := range topGenres {
		i, genre := i, genre
		g.Go(func() error {
			movies, err := s.movieRepo.GetByGenre(gctx, nil, genre, s.cfg.ByGenreLimit)
			if err != nil {
				return fmt.Errorf("genre candidates %q: %w", genre, err)
			}
			byGenre[i] = movies
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[int64]struct{}{}
	candidates := make([]*types.Movie, 0, len(popular)+len(fresh))
	appendUnique := func(movies []*types.Movie) {
		for _, m := range movies {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			candidates = append(candidates, m)
		}
	}
	appendUnique(popular)
	appendUnique(fresh)
	for _, movies := range byGenre {
		appendUnique(movies)
	}
	return candidates, nil
}

func topGenresByWeight(genreWeights map[string]float64, count int) []string {
	type entry struct {
		genre  string
		weight float64
	}
	entries := make([]entry, 0, len(genreWeights))
	for g, w := range genreWeights {
		entries = append(entries, entry{genre: g, weight: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].genre < entries[j].genre
	})
	if len(entries) > count {
		entries = entries[:count]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.genre)
	}
	return out
}

func (s *feedService) scoreMovies(candidates []*types.Movie, genreWeights map[string]float64) []scoredMovie {
	scored := make([]scoredMovie, len(candidates))

	popularities := make([]float64, len(candidates))
	for i, m := range candidates {
		scored[i].movie = m
		scored[i].genres = splitLabels(m.Genres)
		if m.Popularity != nil {
			popularities[i] = *m.Popularity
		}
	}

	// Normalization is per-request: the same movie can score differently in
	// two requests with different candidate pools.
	popNorm := minMaxNormalize(popularities)

	now := time.Now().UTC()
	for i := range scored {
		sm := &scored[i]

		if len(sm.genres) > 0 {
			sum := 0.0
			for _, g := range sm.genres {
				sum += genreWeights[g]
			}
			sm.genreScore = sum / float64(len(sm.genres))
		}

		sm.popNorm = popNorm[i]

		if sm.movie.ReleaseDate != nil {
			daysSinceRelease := now.Sub(*sm.movie.ReleaseDate).Hours() / 24
			sm.fresh = math.Exp(-daysSinceRelease / s.cfg.FreshDecayDays)
		}

		sm.score = s.cfg.GenreWeight*sm.genreScore +
			s.cfg.PopularityWeight*sm.popNorm +
			s.cfg.FreshnessWeight*sm.fresh
	}
	return scored
}

// selectWithMMR runs Maximal Marginal Relevance over the scored pool: seed
// with the top-scored candidate, then greedily take the candidate maximizing
// lambda*score - (1-lambda)*maxSimilarityToSelected. Pools already within the
// limit skip diversification and come back sorted by score.
func (s *feedService) selectWithMMR(scored []scoredMovie, limit int) []scoredMovie {
	if len(scored) == 0 {
		return nil
	}

	sorted := make([]scoredMovie, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})

	if len(sorted) <= limit {
		return sorted
	}

	selected := sorted[:1:1]
	remaining := sorted[1:]

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := 0
		bestMMR := math.Inf(-1)
		for i := range remaining {
			maxSim := 0.0
			for j := range selected {
				if sim := jaccardSimilarity(remaining[i].genres, selected[j].genres); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := s.cfg.MMRLambda*remaining[i].score - (1-s.cfg.MMRLambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
