// Package categories decides which category slots a movie is eligible for.
// Eligibility is a pluggable rule per category; drafts reference categories
// by name and unknown names fall back to a permissive manual rule.
package categories

import (
	"strings"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// Rule answers whether a movie may fill one category.
type Rule interface {
	Name() string
	Eligible(movie models.Movie) bool
}

// GenreRule matches movies carrying a genre, case-insensitively, against
// either the primary genre or the full genre list.
type GenreRule struct {
	Category string
	Genre    string
}

func (r GenreRule) Name() string { return r.Category }

func (r GenreRule) Eligible(movie models.Movie) bool {
	if strings.EqualFold(movie.Genre, r.Genre) {
		return true
	}
	for _, g := range movie.Genres {
		if strings.EqualFold(g, r.Genre) {
			return true
		}
	}
	return false
}

// DecadeRule matches movies released within one decade, e.g. Decade 1990
// covers 1990 through 1999.
type DecadeRule struct {
	Category string
	Decade   int
}

func (r DecadeRule) Name() string { return r.Category }

func (r DecadeRule) Eligible(movie models.Movie) bool {
	return movie.Year >= r.Decade && movie.Year < r.Decade+10
}

// AwardsRule matches by Oscar standing. RequireWinner narrows it from any
// nomination to wins only.
type AwardsRule struct {
	Category      string
	RequireWinner bool
}

func (r AwardsRule) Name() string { return r.Category }

func (r AwardsRule) Eligible(movie models.Movie) bool {
	switch models.OscarStatus(movie.OscarStatus) {
	case models.OscarStatusWinner:
		return true
	case models.OscarStatusNominee:
		return !r.RequireWinner
	default:
		return false
	}
}

// RevenueRule matches box-office hits at or above a revenue floor. A zero
// floor falls back to the catalog's own blockbuster flag.
type RevenueRule struct {
	Category   string
	MinRevenue int64
}

func (r RevenueRule) Name() string { return r.Category }

func (r RevenueRule) Eligible(movie models.Movie) bool {
	if r.MinRevenue <= 0 {
		return movie.Blockbuster
	}
	return movie.Revenue >= r.MinRevenue
}

// ManualRule admits any movie. Spec-draft custom categories and categories
// with no configured rule use it; the humans decide what fits.
type ManualRule struct {
	Category string
}

func (r ManualRule) Name() string { return r.Category }

func (r ManualRule) Eligible(models.Movie) bool { return true }

// Set resolves category names to rules.
type Set struct {
	rules map[string]Rule
}

func NewSet(rules ...Rule) *Set {
	s := &Set{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		s.rules[strings.ToLower(r.Name())] = r
	}
	return s
}

// Eligible reports whether a movie may fill the named category. Unknown
// categories are treated as manual.
func (s *Set) Eligible(category string, movie models.Movie) bool {
	rule, ok := s.rules[strings.ToLower(category)]
	if !ok {
		return true
	}
	return rule.Eligible(movie)
}

// EligibleCategories filters a draft's category list down to those the movie
// may fill.
func (s *Set) EligibleCategories(categories []string, movie models.Movie) []string {
	var out []string
	for _, c := range categories {
		if s.Eligible(c, movie) {
			out = append(out, c)
		}
	}
	return out
}
