package session

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draft"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/identity"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
)

// fakeService records calls and serves a canned snapshot.
type fakeService struct {
	mu       stdsync.Mutex
	loads    int
	snapshot draft.Snapshot
	pickErr  error
}

func (f *fakeService) CreateDraft(context.Context, draft.CreateDraftRequest) (*draft.Snapshot, error) {
	return f.snap(), nil
}

func (f *fakeService) StartDraft(context.Context, uuid.UUID) (*draft.Snapshot, error) {
	return f.snap(), nil
}

func (f *fakeService) JoinByInviteCode(context.Context, string, string) (*draft.Snapshot, error) {
	return f.snap(), nil
}

func (f *fakeService) LoadDraft(context.Context, uuid.UUID) (*draft.Snapshot, error) {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()
	return f.snap(), nil
}

func (f *fakeService) MakePick(context.Context, draft.MakePickRequest) (*draft.MakePickResult, error) {
	if f.pickErr != nil {
		return nil, f.pickErr
	}
	return &draft.MakePickResult{}, nil
}

func (f *fakeService) snap() *draft.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.snapshot
	return &out
}

func (f *fakeService) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func testSnapshot() draft.Snapshot {
	draftID := uuid.New()
	hostGuest := "guest-host"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	host := models.Participant{
		ID:        uuid.New(),
		DraftID:   draftID,
		GuestID:   &hostGuest,
		Name:      "Sam",
		Status:    models.ParticipantStatusJoined,
		IsHost:    true,
		CreatedAt: &now,
	}
	return draft.Snapshot{
		Draft: models.Draft{
			ID:                       draftID,
			Title:                    "Session Test",
			Theme:                    models.DraftThemeYear,
			Categories:               []string{"Action"},
			CurrentPickNumber:        1,
			CurrentTurnParticipantID: &host.ID,
			TurnOrder: []models.TurnSlot{
				{Round: 0, PickNumber: 1, ParticipantID: host.ID},
			},
		},
		Participants: []models.Participant{host},
	}
}

func newTestSynchronizer(t *testing.T, ids identity.Provider) (*Synchronizer, *fakeService, *realtime.Hub, *clockwork.FakeClock) {
	t.Helper()
	svc := &fakeService{snapshot: testSnapshot()}
	hub := realtime.NewHub()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	sync := NewSynchronizer(svc, ids, hub, WithClock(clock))
	return sync, svc, hub, clock
}

func TestAttachLoadsSnapshot(t *testing.T) {
	sync, svc, _, _ := newTestSynchronizer(t, identity.NewGuest("guest-host"))

	require.NoError(t, sync.Attach(context.Background(), svc.snapshot.Draft.ID))
	require.NotNil(t, sync.Snapshot())
	assert.Equal(t, "Session Test", sync.Snapshot().Draft.Title)
	assert.Equal(t, 1, svc.loadCount())
}

func TestRecentPresenceEventTriggersDebouncedReload(t *testing.T) {
	sync, svc, hub, clock := newTestSynchronizer(t, identity.NewGuest("guest-host"))
	ctx := context.Background()
	draftID := svc.snapshot.Draft.ID

	require.NoError(t, sync.Attach(ctx, draftID))
	base := svc.loadCount()

	event := realtime.NewPresenceJoin(draftID, "someone")
	event.Timestamp = clock.Now()
	require.NoError(t, hub.Publish(ctx, event))

	// Nothing happens until the debounce window elapses.
	assert.Equal(t, base, svc.loadCount())
	clock.Advance(defaultDebounce)
	require.Eventually(t, func() bool { return svc.loadCount() == base+1 },
		time.Second, 5*time.Millisecond)
}

func TestStalePresenceEventIgnored(t *testing.T) {
	sync, svc, hub, clock := newTestSynchronizer(t, identity.NewGuest("guest-host"))
	ctx := context.Background()
	draftID := svc.snapshot.Draft.ID

	require.NoError(t, sync.Attach(ctx, draftID))
	base := svc.loadCount()

	event := realtime.NewPresenceJoin(draftID, "someone")
	event.Timestamp = clock.Now().Add(-6 * time.Second)
	require.NoError(t, hub.Publish(ctx, event))

	clock.Advance(defaultDebounce)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, base, svc.loadCount())
}

func TestEventBurstCoalescesIntoOneReload(t *testing.T) {
	sync, svc, hub, clock := newTestSynchronizer(t, identity.NewGuest("guest-host"))
	ctx := context.Background()
	draftID := svc.snapshot.Draft.ID

	require.NoError(t, sync.Attach(ctx, draftID))
	base := svc.loadCount()

	for i := 0; i < 10; i++ {
		event := realtime.NewPresenceSync(draftID, []string{"a", "b"})
		event.Timestamp = clock.Now()
		require.NoError(t, hub.Publish(ctx, event))
	}

	clock.Advance(defaultDebounce)
	require.Eventually(t, func() bool { return svc.loadCount() == base+1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, base+1, svc.loadCount())
}

func TestGuestIgnoresRowChangeEvents(t *testing.T) {
	sync, svc, hub, clock := newTestSynchronizer(t, identity.NewGuest("guest-host"))
	ctx := context.Background()
	draftID := svc.snapshot.Draft.ID

	require.NoError(t, sync.Attach(ctx, draftID))
	base := svc.loadCount()

	require.NoError(t, hub.Publish(ctx, realtime.NewPickMade(svc.snapshot.Draft, models.Pick{ID: uuid.New()})))
	clock.Advance(defaultDebounce)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, base, svc.loadCount())
}

func TestAuthenticatedUserReloadsOnRowChangeEvents(t *testing.T) {
	sync, svc, hub, clock := newTestSynchronizer(t, identity.NewUser(uuid.New()))
	ctx := context.Background()
	draftID := svc.snapshot.Draft.ID

	require.NoError(t, sync.Attach(ctx, draftID))
	base := svc.loadCount()

	require.NoError(t, hub.Publish(ctx, realtime.NewPickMade(svc.snapshot.Draft, models.Pick{ID: uuid.New()})))
	clock.Advance(defaultDebounce)
	require.Eventually(t, func() bool { return svc.loadCount() == base+1 },
		time.Second, 5*time.Millisecond)
}

func TestMakePickReloadsAfterSuccess(t *testing.T) {
	sync, svc, _, _ := newTestSynchronizer(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	require.NoError(t, sync.Attach(ctx, svc.snapshot.Draft.ID))
	base := svc.loadCount()

	require.NoError(t, sync.MakePick(ctx, draft.MakePickRequest{
		MovieID:    42,
		MovieTitle: "Heat",
		Category:   "Action",
	}))
	assert.Equal(t, base+1, svc.loadCount())
}

func TestMakePickFailureClassified(t *testing.T) {
	var got []Failure
	svc := &fakeService{snapshot: testSnapshot(), pickErr: draft.ErrNotYourTurn}
	sync := NewSynchronizer(svc, identity.NewGuest("guest-host"), realtime.NewHub(),
		WithClock(clockwork.NewFakeClock()),
		OnError(func(f Failure) { got = append(got, f) }),
	)
	ctx := context.Background()

	require.NoError(t, sync.Attach(ctx, svc.snapshot.Draft.ID))
	err := sync.MakePick(ctx, draft.MakePickRequest{MovieID: 1, MovieTitle: "X", Category: "Action"})
	require.ErrorIs(t, err, draft.ErrNotYourTurn)

	require.Len(t, got, 1)
	assert.Equal(t, CategoryTurn, got[0].Category)
}

func TestIsMyTurn(t *testing.T) {
	sync, svc, _, _ := newTestSynchronizer(t, identity.NewGuest("guest-host"))
	require.NoError(t, sync.Attach(context.Background(), svc.snapshot.Draft.ID))
	assert.True(t, sync.IsMyTurn())

	other, _, _, _ := newTestSynchronizer(t, identity.NewGuest("guest-other"))
	require.NoError(t, other.Attach(context.Background(), svc.snapshot.Draft.ID))
	assert.False(t, other.IsMyTurn())
}

func TestFailureClassification(t *testing.T) {
	assert.Equal(t, CategoryDuplicate, Classify(draft.ErrMovieAlreadyPicked).Category)
	assert.Equal(t, CategoryNotFound, Classify(draft.ErrInvalidInviteCode).Category)
	assert.Equal(t, CategoryIdentity, Classify(draft.ErrIdentityUnavailable).Category)
	assert.Equal(t, CategoryTurn, Classify(draft.ErrDraftComplete).Category)
	assert.Equal(t, CategoryGeneric, Classify(assert.AnError).Category)
}
