package draft

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draftorder"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/identity"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
)

// Repository defines what the draft app layer needs from storage.
type Repository interface {
	CreateDraft(ctx context.Context, draft models.Draft) error
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	GetDraftByInviteCode(ctx context.Context, code string) (*models.Draft, error)
	UpdateDraft(ctx context.Context, draft models.Draft) error
	CreateParticipant(ctx context.Context, p models.Participant) error
	GetParticipantsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Participant, error)
	UpdateParticipant(ctx context.Context, p models.Participant) error
	CreatePick(ctx context.Context, pick models.Pick) error
	GetPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error)
	UpdatePickEnrichment(ctx context.Context, pickID uuid.UUID, meta models.MovieMetadata, score *float64, complete bool) error
	ListPicksMissingScoringData(ctx context.Context, limit int) ([]models.Pick, error)
}

// InviteSender dispatches join invitations. Best-effort: the app logs
// failures and proceeds.
type InviteSender interface {
	SendInvitations(ctx context.Context, draft models.Draft, invitees []models.Participant) error
}

// App owns draft business logic: setup, the frozen snake schedule, turn
// advancement and pick validation. It is the single authority on turn state;
// clients treat its responses as canonical and reload rather than patch.
type App struct {
	repo    Repository
	ids     identity.Provider
	events  realtime.Publisher
	invites InviteSender
	clock   clockwork.Clock
}

func NewApp(repo Repository, ids identity.Provider, events realtime.Publisher, invites InviteSender) *App {
	return &App{
		repo:    repo,
		ids:     ids,
		events:  events,
		invites: invites,
		clock:   clockwork.NewRealClock(),
	}
}

// WithClock overrides the app clock. Tests use a fake.
func (a *App) WithClock(clock clockwork.Clock) *App {
	a.clock = clock
	return a
}

// WithIdentity returns a shallow copy bound to a different identity source.
// The HTTP layer uses this to scope each request to its caller.
func (a *App) WithIdentity(ids identity.Provider) *App {
	scoped := *a
	scoped.ids = ids
	return &scoped
}

// CreateDraft sets up a draft with the caller as host, invited human seats
// and materialized AI seats. Multi-participant drafts get an invite code.
func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*Snapshot, error) {
	ident, ok := a.ids.CurrentIdentity()
	if !ok {
		return nil, ErrIdentityUnavailable
	}
	if err := validateCreateDraftRequest(req); err != nil {
		return nil, err
	}

	now := a.clock.Now().UTC()
	draft := models.Draft{
		ID:                uuid.New(),
		Title:             strings.TrimSpace(req.Title),
		Theme:             req.Theme,
		Option:            req.Option,
		Categories:        append([]string(nil), req.Categories...),
		CurrentPickNumber: 1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	totalSeats := 1 + len(req.HumanParticipants) + len(req.AIParticipants)
	if totalSeats > 1 {
		code := newInviteCode()
		draft.InviteCode = &code
	}

	host := models.Participant{
		ID:        uuid.New(),
		DraftID:   draft.ID,
		Name:      req.HostName,
		Status:    models.ParticipantStatusJoined,
		IsHost:    true,
		JoinedAt:  &now,
		CreatedAt: &now,
	}
	applyIdentity(&host, ident)
	switch ident.Kind {
	case identity.KindUser:
		draft.HostUserID = host.UserID
	case identity.KindGuest:
		draft.HostGuestID = host.GuestID
	}

	participants := []models.Participant{host}

	// Stagger created_at so join order, and therefore pick player positions,
	// stay deterministic.
	seat := 1
	for _, name := range req.HumanParticipants {
		at := now.Add(time.Duration(seat) * time.Millisecond)
		participants = append(participants, models.Participant{
			ID:        uuid.New(),
			DraftID:   draft.ID,
			Name:      name,
			Status:    models.ParticipantStatusInvited,
			CreatedAt: &at,
		})
		seat++
	}
	for _, name := range req.AIParticipants {
		at := now.Add(time.Duration(seat) * time.Millisecond)
		participants = append(participants, models.Participant{
			ID:        uuid.New(),
			DraftID:   draft.ID,
			Name:      name,
			Status:    models.ParticipantStatusJoined,
			IsAI:      true,
			JoinedAt:  &at,
			CreatedAt: &at,
		})
		seat++
	}

	if err := a.repo.CreateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	for _, p := range participants {
		if err := a.repo.CreateParticipant(ctx, p); err != nil {
			return nil, fmt.Errorf("create participant: %w", err)
		}
	}

	a.sendInvitations(ctx, draft, participants)

	log.Info().
		Str("draft_id", draft.ID.String()).
		Str("theme", string(draft.Theme)).
		Int("participants", len(participants)).
		Msg("draft created")

	return &Snapshot{Draft: draft, Participants: participants}, nil
}

// sendInvitations is a best-effort side call; delivery failure must not fail
// draft creation.
func (a *App) sendInvitations(ctx context.Context, draft models.Draft, participants []models.Participant) {
	if a.invites == nil {
		return
	}
	var invitees []models.Participant
	for _, p := range participants {
		if p.Status == models.ParticipantStatusInvited {
			invitees = append(invitees, p)
		}
	}
	if len(invitees) == 0 {
		return
	}
	if err := a.invites.SendInvitations(ctx, draft, invitees); err != nil {
		log.Warn().Err(err).Str("draft_id", draft.ID.String()).Msg("failed to send draft invitations")
	}
}

// StartDraft freezes the snake schedule over the joined participants and
// hands the first turn out. Host only; idempotent calls fail AlreadyStarted.
func (a *App) StartDraft(ctx context.Context, draftID uuid.UUID) (*Snapshot, error) {
	ident, ok := a.ids.CurrentIdentity()
	if !ok {
		return nil, ErrIdentityUnavailable
	}

	draft, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Started() {
		return nil, ErrAlreadyStarted
	}

	participants, err := a.repo.GetParticipantsByDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	caller := findByIdentity(participants, ident)
	if caller == nil || !caller.IsHost {
		return nil, ErrNotHost
	}

	joined := draftorder.PositionSorted(participants)
	if len(joined) == 0 {
		return nil, fmt.Errorf("no joined participants to start with")
	}

	draft.TurnOrder = generateSnakeOrder(joined, len(draft.Categories))
	draft.CurrentPickNumber = 1
	first := draft.TurnOrder[0].ParticipantID
	draft.CurrentTurnParticipantID = &first
	draft.UpdatedAt = a.clock.Now().UTC()

	if err := a.repo.UpdateDraft(ctx, *draft); err != nil {
		return nil, fmt.Errorf("persist turn order: %w", err)
	}

	a.publish(ctx, realtime.NewDraftStarted(*draft))

	log.Info().
		Str("draft_id", draft.ID.String()).
		Int("total_picks", draft.TotalPicks()).
		Msg("draft started")

	return a.LoadDraft(ctx, draftID)
}

// JoinByInviteCode attaches the caller to the draft behind a share code,
// either claiming an invited seat by name or appending a fresh one.
func (a *App) JoinByInviteCode(ctx context.Context, code, displayName string) (*Snapshot, error) {
	ident, ok := a.ids.CurrentIdentity()
	if !ok {
		return nil, ErrIdentityUnavailable
	}

	draft, err := a.repo.GetDraftByInviteCode(ctx, normalizeInviteCode(code))
	if err != nil {
		return nil, err
	}
	if draft.IsComplete {
		return nil, ErrDraftComplete
	}

	participants, err := a.repo.GetParticipantsByDraft(ctx, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	now := a.clock.Now().UTC()
	joined := findByIdentity(participants, ident)
	if joined == nil {
		joined = claimInvitedSeat(participants, displayName)
		if joined != nil {
			joined.Status = models.ParticipantStatusJoined
			joined.JoinedAt = &now
			applyIdentity(joined, ident)
			if err := a.repo.UpdateParticipant(ctx, *joined); err != nil {
				return nil, fmt.Errorf("claim seat: %w", err)
			}
		} else {
			fresh := models.Participant{
				ID:        uuid.New(),
				DraftID:   draft.ID,
				Name:      displayName,
				Status:    models.ParticipantStatusJoined,
				JoinedAt:  &now,
				CreatedAt: &now,
			}
			applyIdentity(&fresh, ident)
			if err := a.repo.CreateParticipant(ctx, fresh); err != nil {
				return nil, fmt.Errorf("join draft: %w", err)
			}
			joined = &fresh
		}
	}

	a.publish(ctx, realtime.NewParticipantJoined(draft.ID, *joined))

	log.Info().
		Str("draft_id", draft.ID.String()).
		Str("participant_id", joined.ID.String()).
		Msg("participant joined by invite code")

	return a.LoadDraft(ctx, draft.ID)
}

// LoadDraft returns the full authoritative snapshot. Idempotent; safe to call
// on every refresh trigger.
func (a *App) LoadDraft(ctx context.Context, draftID uuid.UUID) (*Snapshot, error) {
	draft, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	participants, err := a.repo.GetParticipantsByDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	// Solo drafts are private to their host.
	if draft.InviteCode == nil {
		if ident, ok := a.ids.CurrentIdentity(); ok {
			if caller := findByIdentity(participants, ident); caller == nil {
				return nil, ErrAccessDenied
			}
		} else {
			return nil, ErrAccessDenied
		}
	}

	picks, err := a.repo.GetPicksByDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load picks: %w", err)
	}

	return &Snapshot{Draft: *draft, Participants: participants, Picks: picks}, nil
}

// MakePick validates turn ownership and uniqueness, records the pick and
// advances the turn pointer. All three checks are authoritative here
// regardless of any client-side pre-checks.
func (a *App) MakePick(ctx context.Context, req MakePickRequest) (*MakePickResult, error) {
	ident, ok := a.ids.CurrentIdentity()
	if !ok {
		return nil, ErrIdentityUnavailable
	}
	if req.Category == "" || req.MovieTitle == "" {
		return nil, fmt.Errorf("category and movie title are required")
	}

	draft, err := a.repo.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if !draft.Started() {
		return nil, ErrDraftNotStarted
	}
	if draft.IsComplete {
		return nil, ErrDraftComplete
	}

	participants, err := a.repo.GetParticipantsByDraft(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	actor, err := resolveActor(participants, ident, req.OnBehalfOf)
	if err != nil {
		return nil, err
	}

	if draft.CurrentTurnParticipantID == nil || *draft.CurrentTurnParticipantID != actor.ID {
		return nil, ErrNotYourTurn
	}

	picks, err := a.repo.GetPicksByDraft(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("load picks: %w", err)
	}

	playerPos := playerPosition(participants, actor.ID)
	for _, p := range picks {
		if p.MovieID == req.MovieID {
			return nil, ErrMovieAlreadyPicked
		}
		if p.PlayerID == playerPos && p.Category == req.Category {
			return nil, ErrCategoryFilled
		}
	}

	actorID := actor.ID
	pick := models.Pick{
		ID:            uuid.New(),
		DraftID:       draft.ID,
		PlayerID:      playerPos,
		PlayerName:    actor.Name,
		ParticipantID: &actorID,
		MovieID:       req.MovieID,
		MovieTitle:    req.MovieTitle,
		MovieYear:     req.MovieYear,
		MovieGenre:    req.Genre,
		PosterPath:    req.PosterPath,
		Category:      req.Category,
		PickOrder:     draft.CurrentPickNumber,
		CreatedAt:     a.clock.Now().UTC(),
	}
	if err := a.repo.CreatePick(ctx, pick); err != nil {
		return nil, fmt.Errorf("record pick: %w", err)
	}

	draft.CurrentPickNumber++
	if draft.CurrentPickNumber > draft.TotalPicks() {
		draft.IsComplete = true
		draft.CurrentTurnParticipantID = nil
	} else {
		next := draft.TurnOrder[draft.CurrentPickNumber-1].ParticipantID
		draft.CurrentTurnParticipantID = &next
	}
	draft.UpdatedAt = a.clock.Now().UTC()

	if err := a.repo.UpdateDraft(ctx, *draft); err != nil {
		return nil, fmt.Errorf("advance turn: %w", err)
	}

	a.publish(ctx, realtime.NewPickMade(*draft, pick))
	if draft.IsComplete {
		a.publish(ctx, realtime.NewDraftCompleted(*draft))
	}

	log.Info().
		Str("draft_id", draft.ID.String()).
		Str("participant_id", actor.ID.String()).
		Int("pick_order", pick.PickOrder).
		Str("category", pick.Category).
		Bool("complete", draft.IsComplete).
		Msg("pick recorded")

	return &MakePickResult{
		Pick:              pick,
		NextPickNumber:    draft.CurrentPickNumber,
		NextParticipantID: draft.CurrentTurnParticipantID,
		Completed:         draft.IsComplete,
	}, nil
}

func (a *App) publish(ctx context.Context, event realtime.Event) {
	if a.events == nil {
		return
	}
	if err := a.events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish draft event")
	}
}

// generateSnakeOrder builds the frozen schedule: round r lists seats
// ascending when r is even, descending when odd. Rounds are 0-indexed and
// pick numbers run 1..seats*rounds.
func generateSnakeOrder(seats []models.Participant, rounds int) []models.TurnSlot {
	order := make([]models.TurnSlot, 0, len(seats)*rounds)
	pick := 1
	for round := 0; round < rounds; round++ {
		if round%2 == 0 {
			for i := 0; i < len(seats); i++ {
				order = append(order, models.TurnSlot{Round: round, PickNumber: pick, ParticipantID: seats[i].ID})
				pick++
			}
		} else {
			for i := len(seats) - 1; i >= 0; i-- {
				order = append(order, models.TurnSlot{Round: round, PickNumber: pick, ParticipantID: seats[i].ID})
				pick++
			}
		}
	}
	return order
}

// playerPosition is the 1-based join-order position used as the pick's
// player label.
func playerPosition(participants []models.Participant, participantID uuid.UUID) int {
	for i, p := range draftorder.PositionSorted(participants) {
		if p.ID == participantID {
			return i + 1
		}
	}
	return 0
}

// resolveActor determines which seat a pick is for. Acting on behalf of
// another seat is reserved for the host driving an AI participant.
func resolveActor(participants []models.Participant, ident identity.Identity, onBehalfOf *uuid.UUID) (*models.Participant, error) {
	caller := findByIdentity(participants, ident)
	if onBehalfOf == nil {
		if caller == nil {
			return nil, ErrParticipantNotFound
		}
		return caller, nil
	}

	if caller == nil || !caller.IsHost {
		return nil, ErrNotHost
	}
	for i := range participants {
		if participants[i].ID == *onBehalfOf {
			if !participants[i].IsAI {
				return nil, ErrAccessDenied
			}
			return &participants[i], nil
		}
	}
	return nil, ErrParticipantNotFound
}

func findByIdentity(participants []models.Participant, ident identity.Identity) *models.Participant {
	for i := range participants {
		p := &participants[i]
		switch ident.Kind {
		case identity.KindUser:
			if p.UserID != nil && p.UserID.String() == ident.Value {
				return p
			}
		case identity.KindGuest:
			if p.GuestID != nil && *p.GuestID == ident.Value {
				return p
			}
		}
	}
	return nil
}

func claimInvitedSeat(participants []models.Participant, displayName string) *models.Participant {
	for i := range participants {
		p := &participants[i]
		if p.Status == models.ParticipantStatusInvited && strings.EqualFold(p.Name, displayName) {
			return p
		}
	}
	return nil
}

func applyIdentity(p *models.Participant, ident identity.Identity) {
	switch ident.Kind {
	case identity.KindUser:
		if id, err := uuid.Parse(ident.Value); err == nil {
			p.UserID = &id
			return
		}
		// Malformed user ids degrade to the guest column rather than failing.
		v := ident.Value
		p.GuestID = &v
	case identity.KindGuest:
		v := ident.Value
		p.GuestID = &v
	}
}

func validateCreateDraftRequest(req CreateDraftRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}
	switch req.Theme {
	case models.DraftThemeYear, models.DraftThemePeople, models.DraftThemeSpec:
	default:
		return fmt.Errorf("unsupported draft theme: %s", req.Theme)
	}
	if len(req.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	if req.HostName == "" {
		return fmt.Errorf("host name is required")
	}
	return nil
}

const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newInviteCode mints a 6-character share token. The alphabet skips easily
// confused glyphs.
func newInviteCode() string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(inviteCodeAlphabet))))
		if err != nil {
			// crypto/rand only fails if the platform source is broken.
			n = big.NewInt(int64(i))
		}
		b.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return b.String()
}

func normalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
