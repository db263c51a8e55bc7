// Package autoplay drives picks for AI-flagged seats. Only the host's client
// acts for AI participants; everyone else just sees the turn resolve.
package autoplay

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draft"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// DefaultThinkDelay is the simulated deliberation pause before an AI pick.
const DefaultThinkDelay = 1500 * time.Millisecond

// Session is the slice of the draft session the coordinator needs.
type Session interface {
	Snapshot() *draft.Snapshot
	Me() *models.Participant
	MakePick(ctx context.Context, req draft.MakePickRequest) error
}

// MovieSelector picks an eligible, not-yet-drafted movie for a theme and
// category. Returning (nil, nil) means no candidate was found.
type MovieSelector interface {
	SelectMovie(ctx context.Context, d models.Draft, category string, excludeMovieIDs []int64) (*models.Movie, error)
}

// Coordinator watches snapshots and, when the turn belongs to an AI seat and
// the local client is the host, selects and submits a pick exactly once per
// turn.
type Coordinator struct {
	session  Session
	selector MovieSelector
	clock    clockwork.Clock
	delay    time.Duration

	mu       sync.Mutex
	inFlight bool
	// One shuffled category permutation per AI seat, fixed for the session.
	// Without this every AI would fill categories in declaration order.
	permutations map[uuid.UUID][]string
	rng          *rand.Rand
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithThinkDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

// WithSeed fixes the permutation shuffle for reproducible runs.
func WithSeed(seed int64) Option {
	return func(c *Coordinator) { c.rng = rand.New(rand.NewSource(seed)) }
}

func NewCoordinator(session Session, selector MovieSelector, opts ...Option) *Coordinator {
	c := &Coordinator{
		session:      session,
		selector:     selector,
		clock:        clockwork.NewRealClock(),
		delay:        DefaultThinkDelay,
		permutations: make(map[uuid.UUID][]string),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe inspects the latest snapshot and kicks off an AI pick if one is
// due. Safe to call on every update; the in-flight flag makes rapid repeat
// calls a no-op while a pick routine is running.
func (c *Coordinator) Observe(ctx context.Context) {
	snap := c.session.Snapshot()
	ai := aiOnTurn(snap)
	if ai == nil {
		return
	}

	me := c.session.Me()
	if me == nil || !me.IsHost {
		// Non-hosts render a passive indicator only; acting here would race
		// other clients picking for the same seat.
		return
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	go c.run(ctx, ai.ID)
}

func (c *Coordinator) run(ctx context.Context, aiID uuid.UUID) {
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	select {
	case <-c.clock.After(c.delay):
	case <-ctx.Done():
		return
	}

	// State may have moved during the delay; only proceed if the turn still
	// belongs to the same AI seat.
	snap := c.session.Snapshot()
	ai := aiOnTurn(snap)
	if ai == nil || ai.ID != aiID {
		log.Debug().Str("participant_id", aiID.String()).Msg("turn moved during think delay, skipping AI pick")
		return
	}

	category, ok := c.nextCategory(*ai, snap)
	if !ok {
		log.Warn().
			Str("participant_id", ai.ID.String()).
			Msg("AI seat has no unfilled category on its turn")
		return
	}

	exclude := make([]int64, 0, len(snap.Picks))
	for _, p := range snap.Picks {
		exclude = append(exclude, p.MovieID)
	}

	movie, err := c.selector.SelectMovie(ctx, snap.Draft, category, exclude)
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("AI movie selection failed")
		return
	}
	if movie == nil {
		log.Warn().Str("category", category).Msg("no eligible movie for AI pick")
		return
	}

	req := draft.MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    movie.ID,
		MovieTitle: movie.Title,
		Category:   category,
		OnBehalfOf: &aiID,
	}
	if movie.Year > 0 {
		year := movie.Year
		req.MovieYear = &year
	}
	if movie.Genre != "" {
		genre := movie.Genre
		req.Genre = &genre
	}
	if movie.PosterPath != "" {
		poster := movie.PosterPath
		req.PosterPath = &poster
	}

	if err := c.session.MakePick(ctx, req); err != nil {
		// A human pick landing during the think delay loses the race here;
		// that outcome is expected and not worth surfacing.
		if errors.Is(err, draft.ErrNotYourTurn) {
			log.Debug().Str("participant_id", aiID.String()).Msg("AI pick lost the turn race")
			return
		}
		log.Error().Err(err).Str("participant_id", aiID.String()).Msg("AI pick failed")
		return
	}

	log.Info().
		Str("participant_id", aiID.String()).
		Str("movie", movie.Title).
		Str("category", category).
		Msg("AI pick submitted")
}

// nextCategory walks the seat's private category permutation, indexed by how
// many picks the seat has already made.
func (c *Coordinator) nextCategory(ai models.Participant, snap *draft.Snapshot) (string, bool) {
	c.mu.Lock()
	perm, ok := c.permutations[ai.ID]
	if !ok {
		perm = append([]string(nil), snap.Draft.Categories...)
		c.rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		c.permutations[ai.ID] = perm
	}
	c.mu.Unlock()

	made := 0
	for _, p := range snap.Picks {
		if p.ParticipantID != nil && *p.ParticipantID == ai.ID {
			made++
		}
	}
	if made >= len(perm) {
		return "", false
	}
	return perm[made], true
}

// Evict drops the permutation cache, for when the session switches drafts.
func (c *Coordinator) Evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permutations = make(map[uuid.UUID][]string)
}

func aiOnTurn(snap *draft.Snapshot) *models.Participant {
	if snap == nil || snap.Draft.IsComplete || snap.Draft.CurrentTurnParticipantID == nil {
		return nil
	}
	for i := range snap.Participants {
		p := snap.Participants[i]
		if p.ID == *snap.Draft.CurrentTurnParticipantID && p.IsAI {
			return &p
		}
	}
	return nil
}
