// Package session holds one client's live view of a draft. All state changes
// go through remote operations whose results are treated as canonical; the
// session never patches picks or turn state locally, it reloads.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draft"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draftorder"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/identity"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
)

// DraftService is the remote surface the session talks to. *draft.App
// satisfies it directly; over the wire an HTTP client does.
type DraftService interface {
	CreateDraft(ctx context.Context, req draft.CreateDraftRequest) (*draft.Snapshot, error)
	StartDraft(ctx context.Context, draftID uuid.UUID) (*draft.Snapshot, error)
	JoinByInviteCode(ctx context.Context, code, displayName string) (*draft.Snapshot, error)
	LoadDraft(ctx context.Context, draftID uuid.UUID) (*draft.Snapshot, error)
	MakePick(ctx context.Context, req draft.MakePickRequest) (*draft.MakePickResult, error)
}

const (
	// Presence events older than this do not force a reload.
	presenceWindow = 5 * time.Second
	// Coalescing window for event-driven reloads. Events landing inside an
	// armed window ride along with the scheduled reload.
	defaultDebounce = 250 * time.Millisecond
)

// Synchronizer is the single source of truth for one draft on this client.
type Synchronizer struct {
	svc      DraftService
	ids      identity.Provider
	events   realtime.Subscriber
	clock    clockwork.Clock
	debounce time.Duration

	onUpdate func(draft.Snapshot)
	onError  func(Failure)

	mu          sync.Mutex
	draftID     uuid.UUID
	snapshot    *draft.Snapshot
	stabilizer  *draftorder.Stabilizer
	reloadArmed bool
	unsubscribe func()
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock swaps the wall clock for a fake in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Synchronizer) { s.clock = clock }
}

// WithDebounce overrides the reload coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(s *Synchronizer) { s.debounce = d }
}

// OnUpdate registers a callback invoked after every accepted snapshot.
func OnUpdate(fn func(draft.Snapshot)) Option {
	return func(s *Synchronizer) { s.onUpdate = fn }
}

// OnError registers a callback for classified remote failures.
func OnError(fn func(Failure)) Option {
	return func(s *Synchronizer) { s.onError = fn }
}

func NewSynchronizer(svc DraftService, ids identity.Provider, events realtime.Subscriber, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		svc:        svc,
		ids:        ids,
		events:     events,
		clock:      clockwork.NewRealClock(),
		debounce:   defaultDebounce,
		stabilizer: draftorder.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft sets up a draft and attaches the session to it.
func (s *Synchronizer) CreateDraft(ctx context.Context, req draft.CreateDraftRequest) (uuid.UUID, error) {
	snap, err := s.svc.CreateDraft(ctx, req)
	if err != nil {
		s.fail(err)
		return uuid.Nil, err
	}
	s.adopt(snap)
	s.subscribe(snap.Draft.ID)
	return snap.Draft.ID, nil
}

// JoinByInviteCode joins the draft behind a share code and attaches to it.
func (s *Synchronizer) JoinByInviteCode(ctx context.Context, code, displayName string) (uuid.UUID, error) {
	snap, err := s.svc.JoinByInviteCode(ctx, code, displayName)
	if err != nil {
		s.fail(err)
		return uuid.Nil, err
	}
	s.adopt(snap)
	s.subscribe(snap.Draft.ID)
	return snap.Draft.ID, nil
}

// Attach loads an existing draft and subscribes to its event stream.
func (s *Synchronizer) Attach(ctx context.Context, draftID uuid.UUID) error {
	snap, err := s.svc.LoadDraft(ctx, draftID)
	if err != nil {
		s.fail(err)
		return err
	}
	s.adopt(snap)
	s.subscribe(draftID)
	return nil
}

// Detach drops the subscription and the cached snapshot.
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.draftID = uuid.Nil
	s.snapshot = nil
	s.stabilizer = draftorder.New()
}

// StartDraft asks the server to freeze the schedule, then reloads. The
// reload is unconditional; the start response alone is not trusted as the
// final word on turn state.
func (s *Synchronizer) StartDraft(ctx context.Context) error {
	id := s.currentDraftID()
	if id == uuid.Nil {
		return draft.ErrDraftNotFound
	}
	if _, err := s.svc.StartDraft(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	return s.Reload(ctx)
}

// MakePick submits a pick and reloads on success. Concurrent pickers may
// have advanced the draft past the pick response, so the full snapshot is
// always re-fetched.
func (s *Synchronizer) MakePick(ctx context.Context, req draft.MakePickRequest) error {
	if req.DraftID == uuid.Nil {
		req.DraftID = s.currentDraftID()
	}
	if _, err := s.svc.MakePick(ctx, req); err != nil {
		s.fail(err)
		return err
	}
	return s.Reload(ctx)
}

// Reload fetches the full authoritative snapshot. Idempotent and safe to
// call from any trigger; last write wins.
func (s *Synchronizer) Reload(ctx context.Context) error {
	id := s.currentDraftID()
	if id == uuid.Nil {
		return nil
	}
	snap, err := s.svc.LoadDraft(ctx, id)
	if err != nil {
		s.fail(err)
		return err
	}
	s.adopt(snap)
	return nil
}

// Snapshot returns the last accepted state, or nil before the first load.
func (s *Synchronizer) Snapshot() *draft.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Order is the stabilized display ordering for the current snapshot.
func (s *Synchronizer) Order() *draftorder.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return draftorder.New().Resolve(nil, nil)
	}
	return s.stabilizer.Resolve(&s.snapshot.Draft, s.snapshot.Participants)
}

// Me resolves the local identity to a participant in the current draft.
func (s *Synchronizer) Me() *models.Participant {
	ident, ok := s.ids.CurrentIdentity()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil
	}
	for i := range s.snapshot.Participants {
		p := s.snapshot.Participants[i]
		if p.Identity() == ident.Value {
			return &p
		}
	}
	return nil
}

// IsMyTurn reports whether the server's current-turn pointer names the local
// participant.
func (s *Synchronizer) IsMyTurn() bool {
	me := s.Me()
	if me == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || s.snapshot.Draft.CurrentTurnParticipantID == nil {
		return false
	}
	return *s.snapshot.Draft.CurrentTurnParticipantID == me.ID
}

// CurrentTurn returns the participant who owns the turn, if any.
func (s *Synchronizer) CurrentTurn() *models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || s.snapshot.Draft.CurrentTurnParticipantID == nil {
		return nil
	}
	for i := range s.snapshot.Participants {
		if s.snapshot.Participants[i].ID == *s.snapshot.Draft.CurrentTurnParticipantID {
			p := s.snapshot.Participants[i]
			return &p
		}
	}
	return nil
}

func (s *Synchronizer) currentDraftID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

func (s *Synchronizer) adopt(snap *draft.Snapshot) {
	s.mu.Lock()
	s.draftID = snap.Draft.ID
	s.snapshot = snap
	s.stabilizer.Resolve(&snap.Draft, snap.Participants)
	onUpdate := s.onUpdate
	copied := *snap
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(copied)
	}
}

func (s *Synchronizer) subscribe(draftID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.events == nil {
		return
	}
	s.unsubscribe = s.events.Subscribe(draftID, s.handleEvent)
}

// handleEvent decides whether a stream event warrants a reload.
//
// Presence events count only when timestamped within the last five seconds.
// Row-change events count only for authenticated sessions; guests cannot
// subscribe to row-level notifications under the access-control model and
// rely on presence alone.
func (s *Synchronizer) handleEvent(event realtime.Event) {
	switch event.Type {
	case realtime.EventTypePresenceJoin, realtime.EventTypePresenceLeave, realtime.EventTypePresenceSync:
		if s.clock.Now().Sub(event.Timestamp) > presenceWindow {
			return
		}
	default:
		ident, ok := s.ids.CurrentIdentity()
		if !ok || ident.IsGuest() {
			return
		}
	}
	s.scheduleReload()
}

// scheduleReload coalesces bursts of qualifying events into one reload per
// debounce window.
func (s *Synchronizer) scheduleReload() {
	s.mu.Lock()
	if s.reloadArmed {
		s.mu.Unlock()
		return
	}
	s.reloadArmed = true
	s.mu.Unlock()

	s.clock.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.reloadArmed = false
		s.mu.Unlock()
		if err := s.Reload(context.Background()); err != nil {
			log.Warn().Err(err).Msg("event-triggered reload failed")
		}
	})
}

func (s *Synchronizer) fail(err error) {
	failure := Classify(err)
	log.Warn().
		Err(err).
		Str("category", string(failure.Category)).
		Msg("draft operation failed")
	if s.onError != nil {
		s.onError(failure)
	}
}
