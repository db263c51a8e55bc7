package draft

import (
	"github.com/google/uuid"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// CreateDraftRequest carries everything needed to set up a play-through.
// HumanParticipants are invite identifiers (email or display name) beyond the
// host; AIParticipants are display names for autonomous seats.
type CreateDraftRequest struct {
	Title             string            `json:"title"`
	Theme             models.DraftTheme `json:"theme"`
	Option            string            `json:"option"`
	Categories        []string          `json:"categories"`
	HostName          string            `json:"host_name"`
	HumanParticipants []string          `json:"human_participants"`
	AIParticipants    []string          `json:"ai_participants"`
}

// MakePickRequest commits one movie into one category slot. OnBehalfOf is set
// only by the host's autoplay coordinator when acting for an AI seat.
type MakePickRequest struct {
	DraftID    uuid.UUID  `json:"draft_id"`
	MovieID    int64      `json:"movie_id"`
	MovieTitle string     `json:"movie_title"`
	MovieYear  *int       `json:"movie_year,omitempty"`
	Genre      *string    `json:"movie_genre,omitempty"`
	Category   string     `json:"category"`
	PosterPath *string    `json:"poster_path,omitempty"`
	OnBehalfOf *uuid.UUID `json:"on_behalf_of,omitempty"`
}

// MakePickResult reports where the draft landed after an accepted pick.
// Clients must still reload the full snapshot; concurrent pickers may have
// advanced the draft past what this result shows.
type MakePickResult struct {
	Pick              models.Pick `json:"pick"`
	NextPickNumber    int         `json:"next_pick_number"`
	NextParticipantID *uuid.UUID  `json:"next_participant_id,omitempty"`
	Completed         bool        `json:"completed"`
}

// Snapshot is the full authoritative state of one draft.
type Snapshot struct {
	Draft        models.Draft         `json:"draft"`
	Participants []models.Participant `json:"participants"`
	Picks        []models.Pick        `json:"picks"`
}
