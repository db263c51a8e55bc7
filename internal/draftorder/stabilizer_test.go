package draftorder

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

func participantAt(name string, createdAt *time.Time) models.Participant {
	return models.Participant{
		ID:        uuid.New(),
		Name:      name,
		Status:    models.ParticipantStatusJoined,
		CreatedAt: createdAt,
	}
}

func ts(secs int) *time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(secs) * time.Second)
	return &t
}

func snakeOrder(ids ...uuid.UUID) []models.TurnSlot {
	var slots []models.TurnSlot
	pick := 1
	for round := 0; round < 2; round++ {
		order := ids
		if round%2 == 1 {
			order = make([]uuid.UUID, len(ids))
			for i, id := range ids {
				order[len(ids)-1-i] = id
			}
		}
		for _, id := range order {
			slots = append(slots, models.TurnSlot{Round: round, PickNumber: pick, ParticipantID: id})
			pick++
		}
	}
	return slots
}

func TestPreStartOrderFollowsJoinOrder(t *testing.T) {
	alice := participantAt("Alice", ts(0))
	bob := participantAt("Bob", ts(1))
	noTime := participantAt("Latecomer", nil)

	draft := &models.Draft{ID: uuid.New()}

	s := New()
	order := s.Resolve(draft, []models.Participant{noTime, bob, alice})

	got := order.Participants()
	require.Len(t, got, 3)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, "Bob", got[1].Name)
	assert.Equal(t, "Latecomer", got[2].Name, "nil created_at sorts last")

	assert.Equal(t, 1, order.DisplayIndexOf(1))
	assert.Equal(t, 2, order.DisplayIndexOf(2))
	assert.Equal(t, 3, order.DisplayIndexOf(3))
}

func TestIdentityTieBreakOnEqualCreatedAt(t *testing.T) {
	a := participantAt("P1", ts(5))
	b := participantAt("P2", ts(5))

	s := New()
	order := s.Resolve(&models.Draft{ID: uuid.New()}, []models.Participant{a, b})

	got := order.Participants()
	require.Len(t, got, 2)
	// Same timestamp: lexical comparison of resolved identity decides.
	wantFirst := a
	if b.Identity() < a.Identity() {
		wantFirst = b
	}
	assert.Equal(t, wantFirst.ID, got[0].ID)
}

func TestFrozenOrderStableUnderFetchPermutations(t *testing.T) {
	alice := participantAt("Alice", ts(0))
	bob := participantAt("Bob", ts(1))
	carol := participantAt("Carol", ts(2))
	all := []models.Participant{alice, bob, carol}

	draft := &models.Draft{
		ID:        uuid.New(),
		TurnOrder: snakeOrder(alice.ID, bob.ID, carol.ID),
	}

	s := New()
	baseline := s.Resolve(draft, all)

	var baselineRows []int
	for raw := 1; raw <= 3; raw++ {
		baselineRows = append(baselineRows, baseline.DisplayIndexOf(raw))
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := append([]models.Participant(nil), all...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		order := s.Resolve(draft, shuffled)
		for raw := 1; raw <= 3; raw++ {
			assert.Equal(t, baselineRows[raw-1], order.DisplayIndexOf(raw),
				"row for player %d drifted on iteration %d", raw, i)
		}

		got := order.Participants()
		require.Len(t, got, 3)
		assert.Equal(t, alice.ID, got[0].ID)
		assert.Equal(t, bob.ID, got[1].ID)
		assert.Equal(t, carol.ID, got[2].ID)
	}
}

func TestFrozenOrderSurvivesMissingTurnOrder(t *testing.T) {
	alice := participantAt("Alice", ts(0))
	bob := participantAt("Bob", ts(1))

	draft := &models.Draft{
		ID:        uuid.New(),
		TurnOrder: snakeOrder(bob.ID, alice.ID), // server shuffled Bob first
	}

	s := New()
	order := s.Resolve(draft, []models.Participant{alice, bob})
	require.Equal(t, bob.ID, order.Participants()[0].ID)

	// A reload can transiently drop the turn order; seating must not revert
	// to join order.
	bare := &models.Draft{ID: draft.ID}
	order = s.Resolve(bare, []models.Participant{alice, bob})
	require.Equal(t, bob.ID, order.Participants()[0].ID)
}

func TestLateDiscoveryAppendsWithoutReordering(t *testing.T) {
	alice := participantAt("Alice", ts(0))
	bob := participantAt("Bob", ts(1))
	carol := participantAt("Carol", ts(2))

	draft := &models.Draft{
		ID:        uuid.New(),
		TurnOrder: snakeOrder(alice.ID, bob.ID),
	}

	s := New()
	order := s.Resolve(draft, []models.Participant{alice, bob})
	require.Len(t, order.Participants(), 2)

	order = s.Resolve(draft, []models.Participant{carol, alice, bob})
	got := order.Participants()
	require.Len(t, got, 3)
	assert.Equal(t, carol.ID, got[2].ID, "late participant appends at the end")

	// Existing rows unchanged.
	assert.Equal(t, 1, order.DisplayRow(alice.ID))
	assert.Equal(t, 2, order.DisplayRow(bob.ID))
}

func TestInvitedSeatHoldsNoPlayerPosition(t *testing.T) {
	host := participantAt("Sam", ts(0))
	riley := participantAt("Riley", ts(1))
	riley.Status = models.ParticipantStatusInvited
	bot := participantAt("Bot", ts(2))

	// The draft started while Riley's seat was still unclaimed, so only the
	// host and the bot hold pick positions.
	draft := &models.Draft{
		ID:        uuid.New(),
		TurnOrder: snakeOrder(host.ID, bot.ID),
	}

	s := New()
	order := s.Resolve(draft, []models.Participant{host, riley, bot})

	assert.Equal(t, order.DisplayRow(host.ID), order.DisplayIndexOf(1))
	assert.Equal(t, order.DisplayRow(bot.ID), order.DisplayIndexOf(2))
	assert.Equal(t, 0, order.DisplayIndexOf(3))

	// The unclaimed seat still shows, after the drafting seats.
	assert.Equal(t, 3, order.DisplayRow(riley.ID))

	// If Riley claims the seat later, positions shift to include it, the same
	// way the engine relabels. Display rows never move.
	riley.Status = models.ParticipantStatusJoined
	order = s.Resolve(draft, []models.Participant{host, riley, bot})
	assert.Equal(t, order.DisplayRow(riley.ID), order.DisplayIndexOf(2))
	assert.Equal(t, order.DisplayRow(bot.ID), order.DisplayIndexOf(3))
	assert.Equal(t, 2, order.DisplayRow(bot.ID))
	assert.Equal(t, 3, order.DisplayRow(riley.ID))
}

func TestLateBatchReservesRowsInJoinOrder(t *testing.T) {
	alice := participantAt("Alice", ts(0))
	bob := participantAt("Bob", ts(1))
	carol := participantAt("Carol", ts(2))
	dana := participantAt("Dana", ts(3))

	draft := &models.Draft{ID: uuid.New(), TurnOrder: snakeOrder(alice.ID, bob.ID)}

	s := New()
	s.Resolve(draft, []models.Participant{alice, bob})

	// Two seats joined between reloads and the fetch returns them out of
	// order; their reserved rows still follow join order.
	order := s.Resolve(draft, []models.Participant{dana, carol, alice, bob})
	assert.Equal(t, 3, order.DisplayRow(carol.ID))
	assert.Equal(t, 4, order.DisplayRow(dana.ID))
}

func TestUnmappablePlayerDegradesToZero(t *testing.T) {
	alice := participantAt("Alice", ts(0))

	s := New()
	order := s.Resolve(&models.Draft{ID: uuid.New()}, []models.Participant{alice})

	assert.Equal(t, 0, order.DisplayIndexOf(0))
	assert.Equal(t, 0, order.DisplayIndexOf(99))
	assert.Equal(t, 0, order.DisplayRow(uuid.New()))
}

func TestDraftChangeEvictsCache(t *testing.T) {
	alice := participantAt("Alice", ts(0))
	bob := participantAt("Bob", ts(1))

	first := &models.Draft{ID: uuid.New(), TurnOrder: snakeOrder(bob.ID, alice.ID)}

	s := New()
	order := s.Resolve(first, []models.Participant{alice, bob})
	require.Equal(t, bob.ID, order.Participants()[0].ID)

	// New draft id: the freeze from the previous draft must not leak.
	second := &models.Draft{ID: uuid.New()}
	order = s.Resolve(second, []models.Participant{alice, bob})
	require.Equal(t, alice.ID, order.Participants()[0].ID)
}
