package movies

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/categories"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// Selector chooses a movie for an AI seat: catalog candidates filtered by
// category eligibility and prior picks, ranked by a quality heuristic, with
// light randomness among near-equal leaders so repeated drafts vary.
type Selector struct {
	catalog Catalog
	rules   *categories.Set
	rng     *rand.Rand
}

func NewSelector(catalog Catalog, rules *categories.Set) *Selector {
	return &Selector{
		catalog: catalog,
		rules:   rules,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithSeed pins the tie-break randomness, for tests.
func (s *Selector) WithSeed(seed int64) *Selector {
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

func (s *Selector) SelectMovie(ctx context.Context, d models.Draft, category string, excludeMovieIDs []int64) (*models.Movie, error) {
	candidates, err := s.catalog.Search(ctx, d.Theme, d.Option)
	if err != nil {
		return nil, err
	}

	excluded := make(map[int64]bool, len(excludeMovieIDs))
	for _, id := range excludeMovieIDs {
		excluded[id] = true
	}

	var eligible []models.Movie
	for _, m := range candidates {
		if excluded[m.ID] {
			continue
		}
		if s.rules != nil && !s.rules.Eligible(category, m) {
			continue
		}
		eligible = append(eligible, m)
	}
	if len(eligible) == 0 {
		log.Warn().
			Str("draft_id", d.ID.String()).
			Str("category", category).
			Msg("no eligible movies for AI selection")
		return nil, nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		sa, sb := qualityScore(a), qualityScore(b)
		if sa != sb {
			return sa > sb
		}
		if a.VoteAverage != b.VoteAverage {
			return a.VoteAverage > b.VoteAverage
		}
		// Among equals, prefer established releases over the newest thing.
		inRangeA := a.Year >= 1990 && a.Year <= 2020
		inRangeB := b.Year >= 1990 && b.Year <= 2020
		if inRangeA != inRangeB {
			return inRangeA
		}
		return a.Year < b.Year
	})

	// When the leaders are within a few points of each other, pick among
	// them at random instead of deterministically taking the top.
	top := qualityScore(eligible[0])
	limit := len(eligible)
	if limit > 3 {
		limit = 3
	}
	leaders := []models.Movie{eligible[0]}
	for _, m := range eligible[1:limit] {
		if top-qualityScore(m) <= 5 {
			leaders = append(leaders, m)
		}
	}
	chosen := leaders[0]
	if len(leaders) > 1 {
		chosen = leaders[s.rng.Intn(len(leaders))]
	}
	return &chosen, nil
}

// qualityScore ranks a candidate. Ratings only count fully once enough votes
// back them; awards and box-office standing add fixed bonuses.
func qualityScore(m models.Movie) float64 {
	var score float64

	if m.VoteAverage > 0 && m.VoteCount >= 100 {
		score += m.VoteAverage * 10
		if m.VoteCount >= 1000 {
			score += 5
		}
		if m.VoteCount >= 5000 {
			score += 5
		}
	} else if m.VoteAverage > 0 {
		score += m.VoteAverage * 5
	}

	switch models.OscarStatus(m.OscarStatus) {
	case models.OscarStatusWinner:
		score += 20
	case models.OscarStatusNominee:
		score += 10
	}

	if m.Blockbuster {
		score += 5
	}
	if m.Budget >= 50_000_000 {
		score += 3
	}
	if m.Revenue >= 100_000_000 {
		score += 2
	}
	if m.Year >= 1990 && m.Year <= 2010 {
		score += 2
	}
	return score
}
