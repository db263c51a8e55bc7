package autoplay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draft"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

type fakeSession struct {
	mu       sync.Mutex
	snapshot draft.Snapshot
	me       models.Participant
	picks    []draft.MakePickRequest
	pickErr  error
}

func (f *fakeSession) Snapshot() *draft.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.snapshot
	return &out
}

func (f *fakeSession) Me() *models.Participant {
	f.mu.Lock()
	defer f.mu.Unlock()
	me := f.me
	return &me
}

func (f *fakeSession) MakePick(_ context.Context, req draft.MakePickRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pickErr != nil {
		return f.pickErr
	}
	f.picks = append(f.picks, req)
	return nil
}

func (f *fakeSession) pickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.picks)
}

func (f *fakeSession) setTurn(id *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot.Draft.CurrentTurnParticipantID = id
}

type fakeSelector struct {
	mu    sync.Mutex
	calls int
	movie *models.Movie
}

func (f *fakeSelector) SelectMovie(_ context.Context, _ models.Draft, _ string, _ []int64) (*models.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.movie, nil
}

func (f *fakeSelector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func aiTurnSession() (*fakeSession, models.Participant) {
	draftID := uuid.New()
	host := models.Participant{
		ID: uuid.New(), DraftID: draftID, Name: "Sam",
		Status: models.ParticipantStatusJoined, IsHost: true,
	}
	bot := models.Participant{
		ID: uuid.New(), DraftID: draftID, Name: "Bot One",
		Status: models.ParticipantStatusJoined, IsAI: true,
	}
	return &fakeSession{
		snapshot: draft.Snapshot{
			Draft: models.Draft{
				ID:                       draftID,
				Categories:               []string{"Action", "Drama", "Comedy"},
				CurrentTurnParticipantID: &bot.ID,
				TurnOrder: []models.TurnSlot{
					{Round: 0, PickNumber: 1, ParticipantID: bot.ID},
				},
			},
			Participants: []models.Participant{host, bot},
		},
		me: host,
	}, bot
}

func TestRapidObservesProduceExactlyOnePick(t *testing.T) {
	session, _ := aiTurnSession()
	selector := &fakeSelector{movie: &models.Movie{ID: 7, Title: "Heat", Year: 1995}}
	c := NewCoordinator(session, selector, WithThinkDelay(30*time.Millisecond), WithSeed(1))

	ctx := context.Background()
	c.Observe(ctx)
	c.Observe(ctx)

	require.Eventually(t, func() bool { return session.pickCount() == 1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, session.pickCount())
	assert.Equal(t, 1, selector.callCount())
}

func TestNonHostNeverActs(t *testing.T) {
	session, bot := aiTurnSession()
	session.me = models.Participant{
		ID: uuid.New(), DraftID: bot.DraftID, Name: "Riley",
		Status: models.ParticipantStatusJoined,
	}
	selector := &fakeSelector{movie: &models.Movie{ID: 7, Title: "Heat"}}
	c := NewCoordinator(session, selector, WithThinkDelay(5*time.Millisecond))

	c.Observe(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, session.pickCount())
	assert.Zero(t, selector.callCount())
}

func TestNoActionWhenHumanOnTurn(t *testing.T) {
	session, _ := aiTurnSession()
	human := session.snapshot.Participants[0].ID
	session.setTurn(&human)
	selector := &fakeSelector{movie: &models.Movie{ID: 7, Title: "Heat"}}
	c := NewCoordinator(session, selector, WithThinkDelay(5*time.Millisecond))

	c.Observe(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, session.pickCount())
}

func TestTurnChangeDuringDelayAbortsPick(t *testing.T) {
	session, _ := aiTurnSession()
	selector := &fakeSelector{movie: &models.Movie{ID: 7, Title: "Heat"}}
	c := NewCoordinator(session, selector, WithThinkDelay(50*time.Millisecond))

	c.Observe(context.Background())

	// A human pick lands while the AI is "thinking".
	human := session.snapshot.Participants[0].ID
	session.setTurn(&human)

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, session.pickCount())
	assert.Zero(t, selector.callCount())
}

func TestNotYourTurnRaceIsSuppressed(t *testing.T) {
	session, _ := aiTurnSession()
	session.pickErr = draft.ErrNotYourTurn
	selector := &fakeSelector{movie: &models.Movie{ID: 7, Title: "Heat"}}
	c := NewCoordinator(session, selector, WithThinkDelay(5*time.Millisecond))

	c.Observe(context.Background())
	require.Eventually(t, func() bool { return selector.callCount() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Zero(t, session.pickCount())

	// The flag cleared; a later AI turn can still be acted on.
	session.mu.Lock()
	session.pickErr = nil
	session.mu.Unlock()
	c.Observe(context.Background())
	require.Eventually(t, func() bool { return session.pickCount() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestCategoryPermutationFixedPerSeat(t *testing.T) {
	session, bot := aiTurnSession()
	selector := &fakeSelector{movie: &models.Movie{ID: 100, Title: "Movie"}}
	c := NewCoordinator(session, selector, WithThinkDelay(time.Millisecond), WithSeed(42))

	var picked []string
	for i := 0; i < 3; i++ {
		c.Observe(context.Background())
		require.Eventually(t, func() bool { return session.pickCount() == i+1 },
			time.Second, 5*time.Millisecond)

		session.mu.Lock()
		req := session.picks[i]
		picked = append(picked, req.Category)
		botID := bot.ID
		session.snapshot.Picks = append(session.snapshot.Picks, models.Pick{
			ID:            uuid.New(),
			ParticipantID: &botID,
			MovieID:       int64(100 + i),
			Category:      req.Category,
		})
		session.mu.Unlock()
	}

	// All categories filled exactly once, in the seat's private order.
	assert.ElementsMatch(t, []string{"Action", "Drama", "Comedy"}, picked)

	// A fourth turn has nothing left to fill and submits nothing.
	c.Observe(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, session.pickCount())
}
