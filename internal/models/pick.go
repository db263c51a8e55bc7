package models

import (
	"time"

	"github.com/google/uuid"
)

// OscarStatus is the awards standing of a picked movie.
type OscarStatus string

const (
	OscarStatusNone    OscarStatus = "none"
	OscarStatusNominee OscarStatus = "nominee"
	OscarStatusWinner  OscarStatus = "winner"
)

// Pick is one committed movie-to-category assignment.
//
// PlayerID is a 1-based display position derived from participant join order,
// not a participant UUID; ParticipantID carries the stable reference.
type Pick struct {
	ID            uuid.UUID  `json:"id"`
	DraftID       uuid.UUID  `json:"draft_id"`
	PlayerID      int        `json:"player_id"`
	PlayerName    string     `json:"player_name"`
	ParticipantID *uuid.UUID `json:"participant_id,omitempty"`
	MovieID       int64      `json:"movie_id"`
	MovieTitle    string     `json:"movie_title"`
	MovieYear     *int       `json:"movie_year,omitempty"`
	MovieGenre    *string    `json:"movie_genre,omitempty"`
	PosterPath    *string    `json:"poster_path,omitempty"`
	Category      string     `json:"category"`
	PickOrder     int        `json:"pick_order"`
	CreatedAt     time.Time  `json:"created_at"`

	// Enrichment fields, backfilled once external metadata arrives.
	CriticsScore        *float64     `json:"rt_critics_score,omitempty"`
	AudienceScore       *float64     `json:"rt_audience_score,omitempty"`
	MetacriticScore     *float64     `json:"metacritic_score,omitempty"`
	IMDBRating          *float64     `json:"imdb_rating,omitempty"`
	Budget              *int64       `json:"movie_budget,omitempty"`
	Revenue             *int64       `json:"movie_revenue,omitempty"`
	OscarStatus         *OscarStatus `json:"oscar_status,omitempty"`
	CalculatedScore     *float64     `json:"calculated_score,omitempty"`
	ScoringDataComplete bool         `json:"scoring_data_complete"`
}
