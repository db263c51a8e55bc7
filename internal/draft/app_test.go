package draft

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draftorder"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/identity"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
)

func newTestApp(t *testing.T, ids identity.Provider) (*App, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	app := NewApp(repo, ids, realtime.NewHub(), nil).WithClock(clock)
	return app, repo
}

func TestCreateDraftSoloHasNoInviteCode(t *testing.T) {
	app, _ := newTestApp(t, identity.NewGuest("guest-host"))

	snap, err := app.CreateDraft(context.Background(), CreateDraftRequest{
		Title:      "Summer Blockbusters",
		Theme:      models.DraftThemeYear,
		Option:     "1999",
		Categories: []string{"Action", "Comedy"},
		HostName:   "Sam",
	})
	require.NoError(t, err)

	assert.Nil(t, snap.Draft.InviteCode)
	require.Len(t, snap.Participants, 1)
	assert.True(t, snap.Participants[0].IsHost)
	assert.Equal(t, models.ParticipantStatusJoined, snap.Participants[0].Status)
}

func TestCreateDraftMultiplayerSetsUpSeats(t *testing.T) {
	app, _ := newTestApp(t, identity.NewGuest("guest-host"))

	snap, err := app.CreateDraft(context.Background(), CreateDraftRequest{
		Title:             "Oscar Night",
		Theme:             models.DraftThemePeople,
		Option:            "Meryl Streep",
		Categories:        []string{"Drama"},
		HostName:          "Sam",
		HumanParticipants: []string{"Riley"},
		AIParticipants:    []string{"Bot One", "Bot Two"},
	})
	require.NoError(t, err)

	require.NotNil(t, snap.Draft.InviteCode)
	assert.Len(t, *snap.Draft.InviteCode, 6)
	require.Len(t, snap.Participants, 4)

	byName := make(map[string]models.Participant)
	for _, p := range snap.Participants {
		byName[p.Name] = p
	}
	assert.Equal(t, models.ParticipantStatusInvited, byName["Riley"].Status)
	assert.True(t, byName["Bot One"].IsAI)
	assert.Equal(t, models.ParticipantStatusJoined, byName["Bot One"].Status)
}

func TestCreateDraftRequiresIdentity(t *testing.T) {
	app, _ := newTestApp(t, identity.None{})

	_, err := app.CreateDraft(context.Background(), CreateDraftRequest{
		Title:      "No One Home",
		Theme:      models.DraftThemeYear,
		Option:     "2001",
		Categories: []string{"Action"},
		HostName:   "Sam",
	})
	assert.ErrorIs(t, err, ErrIdentityUnavailable)
}

func TestStartDraftFreezesSnakeOrder(t *testing.T) {
	app, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := app.CreateDraft(ctx, CreateDraftRequest{
		Title:          "Snake Test",
		Theme:          models.DraftThemeYear,
		Option:         "1994",
		Categories:     []string{"Drama", "Comedy"},
		HostName:       "Sam",
		AIParticipants: []string{"Bot One", "Bot Two"},
	})
	require.NoError(t, err)

	started, err := app.StartDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)

	order := started.Draft.TurnOrder
	require.Len(t, order, 6) // 3 seats x 2 categories

	// Round one ascending, round two descending over the same seats.
	assert.Equal(t, order[0].ParticipantID, order[5].ParticipantID)
	assert.Equal(t, order[1].ParticipantID, order[4].ParticipantID)
	assert.Equal(t, order[2].ParticipantID, order[3].ParticipantID)
	assert.Equal(t, 0, order[2].Round)
	assert.Equal(t, 1, order[3].Round)
	for i, slot := range order {
		assert.Equal(t, i+1, slot.PickNumber)
	}

	require.NotNil(t, started.Draft.CurrentTurnParticipantID)
	assert.Equal(t, order[0].ParticipantID, *started.Draft.CurrentTurnParticipantID)
}

func TestStartDraftRejectsNonHostAndDoubleStart(t *testing.T) {
	hostApp, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:             "Host Only",
		Theme:             models.DraftThemeYear,
		Option:            "2010",
		Categories:        []string{"Action"},
		HostName:          "Sam",
		HumanParticipants: []string{"Riley"},
	})
	require.NoError(t, err)

	stranger := hostApp.WithIdentity(identity.NewGuest("guest-stranger"))
	_, err = stranger.StartDraft(ctx, snap.Draft.ID)
	assert.ErrorIs(t, err, ErrNotHost)

	_, err = hostApp.StartDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)

	_, err = hostApp.StartDraft(ctx, snap.Draft.ID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestJoinByInviteCode(t *testing.T) {
	hostApp, repo := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:             "Join Me",
		Theme:             models.DraftThemeYear,
		Option:            "1985",
		Categories:        []string{"Sci-Fi"},
		HostName:          "Sam",
		HumanParticipants: []string{"Riley"},
	})
	require.NoError(t, err)
	code := *snap.Draft.InviteCode

	_, err = hostApp.WithIdentity(identity.NewGuest("guest-riley")).
		JoinByInviteCode(ctx, "WRONG1", "Riley")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)

	// A rejected code leaves no trace: only the two seats from creation.
	seats, err := repo.GetParticipantsByDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)
	assert.Len(t, seats, 2)

	// Claiming the invited seat by name, case-insensitively.
	joined, err := hostApp.WithIdentity(identity.NewGuest("guest-riley")).
		JoinByInviteCode(ctx, code, "riley")
	require.NoError(t, err)
	require.Len(t, joined.Participants, 2)
	for _, p := range joined.Participants {
		assert.Equal(t, models.ParticipantStatusJoined, p.Status)
	}

	// Rejoining is idempotent; no extra seat appears.
	again, err := hostApp.WithIdentity(identity.NewGuest("guest-riley")).
		JoinByInviteCode(ctx, code, "riley")
	require.NoError(t, err)
	assert.Len(t, again.Participants, 2)

	// An unexpected guest gets a fresh seat.
	extra, err := hostApp.WithIdentity(identity.NewGuest("guest-casey")).
		JoinByInviteCode(ctx, code, "Casey")
	require.NoError(t, err)
	assert.Len(t, extra.Participants, 3)
}

func TestJoinRejectsCompletedDraft(t *testing.T) {
	hostApp, repo := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:             "Done Deal",
		Theme:             models.DraftThemeYear,
		Option:            "2000",
		Categories:        []string{"Action"},
		HostName:          "Sam",
		HumanParticipants: []string{"Riley"},
	})
	require.NoError(t, err)

	draft, err := repo.GetDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)
	draft.IsComplete = true
	require.NoError(t, repo.UpdateDraft(ctx, *draft))

	_, err = hostApp.WithIdentity(identity.NewGuest("guest-riley")).
		JoinByInviteCode(ctx, *snap.Draft.InviteCode, "Riley")
	assert.ErrorIs(t, err, ErrDraftComplete)
}

func TestLoadDraftDeniesStrangersOnSoloDrafts(t *testing.T) {
	hostApp, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:      "Private",
		Theme:      models.DraftThemeYear,
		Option:     "1977",
		Categories: []string{"Sci-Fi"},
		HostName:   "Sam",
	})
	require.NoError(t, err)

	_, err = hostApp.LoadDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)

	_, err = hostApp.WithIdentity(identity.NewGuest("guest-other")).LoadDraft(ctx, snap.Draft.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestMakePickFullDraftRunsToCompletion(t *testing.T) {
	hostApp, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:             "Full Run",
		Theme:             models.DraftThemeYear,
		Option:            "1994",
		Categories:        []string{"Drama", "Comedy"},
		HostName:          "Sam",
		HumanParticipants: []string{"Riley"},
	})
	require.NoError(t, err)
	code := *snap.Draft.InviteCode

	rileyApp := hostApp.WithIdentity(identity.NewGuest("guest-riley"))
	_, err = rileyApp.JoinByInviteCode(ctx, code, "Riley")
	require.NoError(t, err)

	started, err := hostApp.StartDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)
	require.Len(t, started.Draft.TurnOrder, 4)

	apps := map[uuid.UUID]*App{}
	for _, p := range started.Participants {
		if p.IsHost {
			apps[p.ID] = hostApp
		} else {
			apps[p.ID] = rileyApp
		}
	}

	categories := []string{"Drama", "Drama", "Comedy", "Comedy"}
	movieID := int64(100)
	for i, slot := range started.Draft.TurnOrder {
		actor := apps[slot.ParticipantID]

		// Someone else moving first is rejected.
		for id, other := range apps {
			if id == slot.ParticipantID {
				continue
			}
			_, err := other.MakePick(ctx, MakePickRequest{
				DraftID:    snap.Draft.ID,
				MovieID:    movieID,
				MovieTitle: "Interloper",
				Category:   categories[i],
			})
			assert.ErrorIs(t, err, ErrNotYourTurn)
		}

		result, err := actor.MakePick(ctx, MakePickRequest{
			DraftID:    snap.Draft.ID,
			MovieID:    movieID,
			MovieTitle: "Movie " + categories[i],
			Category:   categories[i],
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, result.Pick.PickOrder)
		movieID++

		if i == len(started.Draft.TurnOrder)-1 {
			assert.True(t, result.Completed)
			assert.Nil(t, result.NextParticipantID)
		} else {
			assert.False(t, result.Completed)
			require.NotNil(t, result.NextParticipantID)
			assert.Equal(t, started.Draft.TurnOrder[i+1].ParticipantID, *result.NextParticipantID)
		}
	}

	final, err := hostApp.LoadDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)
	assert.True(t, final.Draft.IsComplete)
	require.Len(t, final.Picks, 4)

	// Positional player ids follow join order, 1-based.
	for _, p := range final.Picks {
		assert.Contains(t, []int{1, 2}, p.PlayerID)
		require.NotNil(t, p.ParticipantID)
	}

	_, err = hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    999,
		MovieTitle: "Too Late",
		Category:   "Drama",
	})
	assert.ErrorIs(t, err, ErrDraftComplete)
}

func TestPickLabelsMatchDisplayOrderWithUnclaimedSeat(t *testing.T) {
	hostApp, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	// Riley is invited but never claims the seat before the draft starts.
	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:             "Ghost Seat",
		Theme:             models.DraftThemeYear,
		Option:            "1999",
		Categories:        []string{"Action"},
		HostName:          "Sam",
		HumanParticipants: []string{"Riley"},
		AIParticipants:    []string{"Bot"},
	})
	require.NoError(t, err)

	started, err := hostApp.StartDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)
	require.Len(t, started.Draft.TurnOrder, 2, "the unclaimed seat drafts no slots")

	var bot models.Participant
	for _, p := range started.Participants {
		if p.IsAI {
			bot = p
		}
	}

	movieID := int64(700)
	for _, slot := range started.Draft.TurnOrder {
		req := MakePickRequest{
			DraftID:    snap.Draft.ID,
			MovieID:    movieID,
			MovieTitle: "Heat",
			Category:   "Action",
		}
		if slot.ParticipantID == bot.ID {
			id := bot.ID
			req.OnBehalfOf = &id
		}
		_, err := hostApp.MakePick(ctx, req)
		require.NoError(t, err)
		movieID++
	}

	final, err := hostApp.LoadDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)

	// The display path must map each pick's positional label back to the
	// seat that made it; the unclaimed seat holds no position.
	order := draftorder.New().Resolve(&final.Draft, final.Participants)
	for _, p := range final.Picks {
		require.NotNil(t, p.ParticipantID)
		assert.Equal(t, order.DisplayRow(*p.ParticipantID), order.DisplayIndexOf(p.PlayerID),
			"pick %d labeled player %d", p.PickOrder, p.PlayerID)
	}
	assert.Equal(t, 0, order.DisplayIndexOf(3))
}

func TestMakePickRejectsDuplicatesAndFilledCategories(t *testing.T) {
	hostApp, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:      "Validation",
		Theme:      models.DraftThemeYear,
		Option:     "2008",
		Categories: []string{"Action", "Drama"},
		HostName:   "Sam",
	})
	require.NoError(t, err)

	_, err = hostApp.StartDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)

	_, err = hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    1,
		MovieTitle: "The Dark Knight",
		Category:   "Action",
	})
	require.NoError(t, err)

	_, err = hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    1,
		MovieTitle: "The Dark Knight",
		Category:   "Drama",
	})
	assert.ErrorIs(t, err, ErrMovieAlreadyPicked)

	_, err = hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    2,
		MovieTitle: "Iron Man",
		Category:   "Action",
	})
	assert.ErrorIs(t, err, ErrCategoryFilled)
}

func TestMakePickOnBehalfOfAISeat(t *testing.T) {
	hostApp, _ := newTestApp(t, identity.NewGuest("guest-host"))
	ctx := context.Background()

	snap, err := hostApp.CreateDraft(ctx, CreateDraftRequest{
		Title:          "Bot Turn",
		Theme:          models.DraftThemeYear,
		Option:         "1999",
		Categories:     []string{"Sci-Fi"},
		HostName:       "Sam",
		AIParticipants: []string{"Bot One"},
	})
	require.NoError(t, err)

	started, err := hostApp.StartDraft(ctx, snap.Draft.ID)
	require.NoError(t, err)

	var host, bot models.Participant
	for _, p := range started.Participants {
		if p.IsAI {
			bot = p
		} else {
			host = p
		}
	}

	// Host picks own seat first (host joined before the bot).
	require.Equal(t, host.ID, started.Draft.TurnOrder[0].ParticipantID)
	_, err = hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    10,
		MovieTitle: "The Matrix",
		Category:   "Sci-Fi",
	})
	require.NoError(t, err)

	// Acting for a human seat is refused even for the host.
	_, err = hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    11,
		MovieTitle: "eXistenZ",
		Category:   "Sci-Fi",
		OnBehalfOf: &host.ID,
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	result, err := hostApp.MakePick(ctx, MakePickRequest{
		DraftID:    snap.Draft.ID,
		MovieID:    11,
		MovieTitle: "eXistenZ",
		Category:   "Sci-Fi",
		OnBehalfOf: &bot.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, bot.Name, result.Pick.PlayerName)
}
