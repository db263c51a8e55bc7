package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantStatus defines the lifecycle state of a seat.
type ParticipantStatus string

const (
	ParticipantStatusInvited ParticipantStatus = "invited"
	ParticipantStatusJoined  ParticipantStatus = "joined"
	ParticipantStatusLeft    ParticipantStatus = "left"
)

// Participant is one seat in a draft. Exactly one of UserID, GuestID or the
// AI flag resolves as the seat's identity; AI seats fall back to the row id.
type Participant struct {
	ID        uuid.UUID         `json:"id"`
	DraftID   uuid.UUID         `json:"draft_id"`
	UserID    *uuid.UUID        `json:"user_id,omitempty"`
	GuestID   *string           `json:"guest_participant_id,omitempty"`
	Name      string            `json:"participant_name"`
	Status    ParticipantStatus `json:"status"`
	IsHost    bool              `json:"is_host"`
	IsAI      bool              `json:"is_ai"`
	JoinedAt  *time.Time        `json:"joined_at,omitempty"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
}

// Identity resolves the seat to a single identity string. Precedence: user id,
// then guest id, then (AI or legacy rows) the row id itself.
func (p *Participant) Identity() string {
	if p.UserID != nil {
		return p.UserID.String()
	}
	if p.GuestID != nil && *p.GuestID != "" {
		return *p.GuestID
	}
	return p.ID.String()
}
