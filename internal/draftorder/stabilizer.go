// Package draftorder derives a stable display ordering for draft seats.
//
// Participant lists come back from the store in no particular order, and the
// frozen turn schedule can be transiently absent during a reload. Picks
// reference players by a 1-based join-order position rather than a stable id,
// so the display path has to re-derive the exact ordering the server used when
// it assigned those positions, and then never change it for the lifetime of
// the session once the draft has started.
package draftorder

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// Stabilizer caches the frozen seat order for a single draft at a time.
// Switching draft ids evicts the cache. Not safe for concurrent use; it is
// owned by one session.
type Stabilizer struct {
	draftID   uuid.UUID
	frozen    bool
	order     []uuid.UUID // display order, append-only once frozen
	joinOrder []uuid.UUID // player_id position -> participant, re-derived every resolve
	seen      map[uuid.UUID]models.Participant
}

func New() *Stabilizer {
	return &Stabilizer{seen: make(map[uuid.UUID]models.Participant)}
}

// Order is one resolved view of the draft's seating.
type Order struct {
	participants []models.Participant
	rows         map[uuid.UUID]int // participant -> 1-based display row
	joinOrder    []uuid.UUID
}

// Resolve refreshes the stabilizer with the latest fetch and returns the
// current seating view. The first call that observes a non-empty turn order
// freezes the seating for this draft id; later calls may only append newly
// discovered participants, never reorder.
func (s *Stabilizer) Resolve(draft *models.Draft, participants []models.Participant) *Order {
	if draft == nil {
		return &Order{rows: map[uuid.UUID]int{}}
	}
	if s.draftID != draft.ID {
		s.reset(draft.ID)
	}
	var late []models.Participant
	for _, p := range participants {
		if _, known := s.seen[p.ID]; known || !s.frozen {
			s.seen[p.ID] = p
			continue
		}
		s.seen[p.ID] = p
		late = append(late, p)
	}
	// Discovered after the freeze: reserve the next seats, in join order so a
	// batch of newcomers lands in the same rows on every client.
	for _, p := range JoinSorted(late) {
		if !contains(s.order, p.ID) {
			s.order = append(s.order, p.ID)
		}
	}

	if !s.frozen {
		if len(draft.TurnOrder) > 0 {
			s.freeze(draft.TurnOrder)
		} else {
			s.order = joinSort(s.known())
		}
	}

	// Pick player positions count joined seats only; an invited seat that
	// never joined holds no position. Re-derive from the latest statuses so
	// the mapping tracks the same filtered ordering the engine labels from.
	s.joinOrder = idsOf(PositionSorted(s.known()))

	return s.view()
}

func (s *Stabilizer) reset(draftID uuid.UUID) {
	s.draftID = draftID
	s.frozen = false
	s.order = nil
	s.joinOrder = nil
	s.seen = make(map[uuid.UUID]models.Participant)
}

// freeze pins the display order to round-one pick order, with any known
// participant missing from the schedule appended after it.
func (s *Stabilizer) freeze(turnOrder []models.TurnSlot) {
	slots := append([]models.TurnSlot(nil), turnOrder...)
	sort.Slice(slots, func(i, j int) bool { return slots[i].PickNumber < slots[j].PickNumber })

	var order []uuid.UUID
	for _, slot := range slots {
		if !contains(order, slot.ParticipantID) {
			order = append(order, slot.ParticipantID)
		}
	}
	for _, p := range joinSort(s.known()) {
		if !contains(order, p) {
			order = append(order, p)
		}
	}

	s.order = order
	s.frozen = true
}

func (s *Stabilizer) known() []models.Participant {
	out := make([]models.Participant, 0, len(s.seen))
	for _, p := range s.seen {
		out = append(out, p)
	}
	return out
}

func (s *Stabilizer) view() *Order {
	o := &Order{
		rows:      make(map[uuid.UUID]int, len(s.order)),
		joinOrder: append([]uuid.UUID(nil), s.joinOrder...),
	}
	for i, id := range s.order {
		o.rows[id] = i + 1
		if p, ok := s.seen[id]; ok {
			o.participants = append(o.participants, p)
		}
	}
	return o
}

// Participants returns the seats in display order. Participants referenced by
// the frozen schedule but not yet fetched are omitted until they appear; their
// rows stay reserved.
func (o *Order) Participants() []models.Participant {
	return o.participants
}

// DisplayRow returns the 1-based display row for a participant, or 0 if the
// participant is unknown.
func (o *Order) DisplayRow(participantID uuid.UUID) int {
	return o.rows[participantID]
}

// DisplayIndexOf maps a pick's raw 1-based player position onto a display
// row. Unmappable positions degrade to row 0 rather than failing.
func (o *Order) DisplayIndexOf(rawPlayerID int) int {
	if rawPlayerID < 1 || rawPlayerID > len(o.joinOrder) {
		return 0
	}
	return o.rows[o.joinOrder[rawPlayerID-1]]
}

// PositionSorted orders the seats the way the draft engine assigns 1-based
// player positions to picks: joined seats only, in join order. Both the
// engine and the display path use this single implementation; any divergence
// would silently mislabel whose pick is whose.
func PositionSorted(participants []models.Participant) []models.Participant {
	var joined []models.Participant
	for _, p := range participants {
		if p.Status == models.ParticipantStatusJoined {
			joined = append(joined, p)
		}
	}
	return JoinSorted(joined)
}

// JoinSorted orders participants by join order: created_at ascending with
// nulls last, ties broken by lexical comparison of the resolved identity.
func JoinSorted(participants []models.Participant) []models.Participant {
	sorted := append([]models.Participant(nil), participants...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			// fall through to identity
		case a.CreatedAt == nil:
			return false
		case b.CreatedAt == nil:
			return true
		case !a.CreatedAt.Equal(*b.CreatedAt):
			return a.CreatedAt.Before(*b.CreatedAt)
		}
		if cmp := strings.Compare(a.Identity(), b.Identity()); cmp != 0 {
			return cmp < 0
		}
		return a.ID.String() < b.ID.String()
	})
	return sorted
}

func joinSort(participants []models.Participant) []uuid.UUID {
	return idsOf(JoinSorted(participants))
}

func idsOf(participants []models.Participant) []uuid.UUID {
	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	return ids
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
