// Package realtime defines the draft event stream: the envelope that travels
// over JetStream and WebSocket, the payloads, and the publisher/subscriber
// contracts the rest of the system depends on.
package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// EventType identifies the kind of draft event.
type EventType string

const (
	EventTypeDraftStarted       EventType = "DraftStarted"
	EventTypeDraftUpdated       EventType = "DraftUpdated"
	EventTypeDraftCompleted     EventType = "DraftCompleted"
	EventTypePickMade           EventType = "PickMade"
	EventTypeParticipantJoined  EventType = "ParticipantJoined"
	EventTypeParticipantUpdated EventType = "ParticipantUpdated"
	EventTypePresenceJoin       EventType = "PresenceJoin"
	EventTypePresenceLeave      EventType = "PresenceLeave"
	EventTypePresenceSync       EventType = "PresenceSync"
	EventTypePickEnriched       EventType = "PickEnriched"
)

// Event is the envelope for all draft events. Payload is type-specific and
// kept raw so the gateway can forward without re-encoding.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// DraftStartedPayload announces the frozen schedule.
type DraftStartedPayload struct {
	DraftID    string    `json:"draft_id"`
	Theme      string    `json:"theme"`
	TotalPicks int       `json:"total_picks"`
	StartedAt  time.Time `json:"started_at"`
}

// PickMadePayload reports one accepted pick and where the turn moved.
type PickMadePayload struct {
	PickID            string     `json:"pick_id"`
	ParticipantID     string     `json:"participant_id"`
	PlayerName        string     `json:"player_name"`
	PlayerPosition    int        `json:"player_position"`
	MovieID           int64      `json:"movie_id"`
	MovieTitle        string     `json:"movie_title"`
	Category          string     `json:"category"`
	PickOrder         int        `json:"pick_order"`
	NextParticipantID *uuid.UUID `json:"next_participant_id,omitempty"`
	MadeAt            time.Time  `json:"made_at"`
}

// DraftCompletedPayload marks the final pick having landed.
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	TotalPicks  int       `json:"total_picks"`
	CompletedAt time.Time `json:"completed_at"`
}

// ParticipantPayload covers joins and seat updates.
type ParticipantPayload struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	IsHost        bool   `json:"is_host"`
	IsAI          bool   `json:"is_ai"`
}

// PresencePayload tracks who is currently watching a draft.
type PresencePayload struct {
	Key     string   `json:"key,omitempty"`
	Present []string `json:"present,omitempty"`
}

// PickEnrichedPayload signals that a pick's scoring data was filled in.
type PickEnrichedPayload struct {
	PickID   string   `json:"pick_id"`
	Score    *float64 `json:"score,omitempty"`
	Complete bool     `json:"complete"`
}

func newEvent(draftID uuid.UUID, typ EventType, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{
		ID:        uuid.New(),
		DraftID:   draftID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}
}

func NewDraftStarted(draft models.Draft) Event {
	return newEvent(draft.ID, EventTypeDraftStarted, DraftStartedPayload{
		DraftID:    draft.ID.String(),
		Theme:      string(draft.Theme),
		TotalPicks: draft.TotalPicks(),
		StartedAt:  time.Now().UTC(),
	})
}

func NewPickMade(draft models.Draft, pick models.Pick) Event {
	var participantID string
	if pick.ParticipantID != nil {
		participantID = pick.ParticipantID.String()
	}
	return newEvent(draft.ID, EventTypePickMade, PickMadePayload{
		PickID:            pick.ID.String(),
		ParticipantID:     participantID,
		PlayerName:        pick.PlayerName,
		PlayerPosition:    pick.PlayerID,
		MovieID:           pick.MovieID,
		MovieTitle:        pick.MovieTitle,
		Category:          pick.Category,
		PickOrder:         pick.PickOrder,
		NextParticipantID: draft.CurrentTurnParticipantID,
		MadeAt:            pick.CreatedAt,
	})
}

func NewDraftCompleted(draft models.Draft) Event {
	return newEvent(draft.ID, EventTypeDraftCompleted, DraftCompletedPayload{
		DraftID:     draft.ID.String(),
		TotalPicks:  draft.TotalPicks(),
		CompletedAt: time.Now().UTC(),
	})
}

func NewParticipantJoined(draftID uuid.UUID, p models.Participant) Event {
	return newEvent(draftID, EventTypeParticipantJoined, ParticipantPayload{
		ParticipantID: p.ID.String(),
		Name:          p.Name,
		Status:        string(p.Status),
		IsHost:        p.IsHost,
		IsAI:          p.IsAI,
	})
}

func NewParticipantUpdated(draftID uuid.UUID, p models.Participant) Event {
	return newEvent(draftID, EventTypeParticipantUpdated, ParticipantPayload{
		ParticipantID: p.ID.String(),
		Name:          p.Name,
		Status:        string(p.Status),
		IsHost:        p.IsHost,
		IsAI:          p.IsAI,
	})
}

func NewPresenceJoin(draftID uuid.UUID, key string) Event {
	return newEvent(draftID, EventTypePresenceJoin, PresencePayload{Key: key})
}

func NewPresenceLeave(draftID uuid.UUID, key string) Event {
	return newEvent(draftID, EventTypePresenceLeave, PresencePayload{Key: key})
}

func NewPresenceSync(draftID uuid.UUID, present []string) Event {
	return newEvent(draftID, EventTypePresenceSync, PresencePayload{Present: present})
}

func NewPickEnriched(draftID uuid.UUID, pickID uuid.UUID, score *float64, complete bool) Event {
	return newEvent(draftID, EventTypePickEnriched, PickEnrichedPayload{
		PickID:   pickID.String(),
		Score:    score,
		Complete: complete,
	})
}
