package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftTheme is the axis constraining eligible movies.
type DraftTheme string

const (
	DraftThemeYear   DraftTheme = "year"
	DraftThemePeople DraftTheme = "people"
	DraftThemeSpec   DraftTheme = "spec-draft"
)

// TurnSlot is one entry in a draft's frozen snake schedule.
type TurnSlot struct {
	Round         int       `json:"round"`
	PickNumber    int       `json:"pick_number"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

// Draft represents one play-through with fixed categories and participants.
type Draft struct {
	ID                       uuid.UUID  `json:"id"`
	Title                    string     `json:"title"`
	Theme                    DraftTheme `json:"theme"`
	Option                   string     `json:"option"`
	Categories               []string   `json:"categories"`
	InviteCode               *string    `json:"invite_code,omitempty"`
	CurrentTurnParticipantID *uuid.UUID `json:"current_turn_participant_id,omitempty"`
	CurrentPickNumber        int        `json:"current_pick_number"`
	IsComplete               bool       `json:"is_complete"`
	TurnOrder                []TurnSlot `json:"turn_order,omitempty"`
	HostUserID               *uuid.UUID `json:"host_user_id,omitempty"`
	HostGuestID              *string    `json:"host_guest_id,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// Started reports whether the snake schedule has been frozen.
func (d *Draft) Started() bool {
	return len(d.TurnOrder) > 0
}

// TotalPicks is the length of the frozen schedule, or zero before start.
func (d *Draft) TotalPicks() int {
	return len(d.TurnOrder)
}
