package draft

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// MemoryRepository is an in-memory Repository. It backs tests and
// single-node local runs; drafts vanish on restart.
type MemoryRepository struct {
	mu           sync.RWMutex
	drafts       map[uuid.UUID]models.Draft
	participants map[uuid.UUID][]models.Participant
	picks        map[uuid.UUID][]models.Pick
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		drafts:       make(map[uuid.UUID]models.Draft),
		participants: make(map[uuid.UUID][]models.Participant),
		picks:        make(map[uuid.UUID][]models.Pick),
	}
}

func (r *MemoryRepository) CreateDraft(_ context.Context, draft models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[draft.ID] = cloneDraft(draft)
	return nil
}

func (r *MemoryRepository) GetDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	draft, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	out := cloneDraft(draft)
	return &out, nil
}

func (r *MemoryRepository) GetDraftByInviteCode(_ context.Context, code string) (*models.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, draft := range r.drafts {
		if draft.InviteCode != nil && *draft.InviteCode == code {
			out := cloneDraft(draft)
			return &out, nil
		}
	}
	return nil, ErrInvalidInviteCode
}

func (r *MemoryRepository) UpdateDraft(_ context.Context, draft models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[draft.ID]; !ok {
		return ErrDraftNotFound
	}
	r.drafts[draft.ID] = cloneDraft(draft)
	return nil
}

func (r *MemoryRepository) CreateParticipant(_ context.Context, p models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.DraftID] = append(r.participants[p.DraftID], p)
	return nil
}

func (r *MemoryRepository) GetParticipantsByDraft(_ context.Context, draftID uuid.UUID) ([]models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Participant(nil), r.participants[draftID]...), nil
}

func (r *MemoryRepository) UpdateParticipant(_ context.Context, p models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seats := r.participants[p.DraftID]
	for i := range seats {
		if seats[i].ID == p.ID {
			seats[i] = p
			return nil
		}
	}
	return ErrParticipantNotFound
}

func (r *MemoryRepository) CreatePick(_ context.Context, pick models.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picks[pick.DraftID] = append(r.picks[pick.DraftID], pick)
	return nil
}

func (r *MemoryRepository) GetPicksByDraft(_ context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]models.Pick(nil), r.picks[draftID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].PickOrder < out[j].PickOrder })
	return out, nil
}

func (r *MemoryRepository) UpdatePickEnrichment(_ context.Context, pickID uuid.UUID, meta models.MovieMetadata, score *float64, complete bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for draftID := range r.picks {
		picks := r.picks[draftID]
		for i := range picks {
			if picks[i].ID != pickID {
				continue
			}
			applyEnrichment(&picks[i], meta, score, complete)
			return nil
		}
	}
	return ErrDraftNotFound
}

func (r *MemoryRepository) ListPicksMissingScoringData(_ context.Context, limit int) ([]models.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Pick
	for _, picks := range r.picks {
		for _, p := range picks {
			if p.ScoringDataComplete {
				continue
			}
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// applyEnrichment merges fetched metadata into a pick, leaving fields the
// fetch could not supply untouched.
func applyEnrichment(pick *models.Pick, meta models.MovieMetadata, score *float64, complete bool) {
	if meta.CriticsScore != nil {
		pick.CriticsScore = meta.CriticsScore
	}
	if meta.AudienceScore != nil {
		pick.AudienceScore = meta.AudienceScore
	}
	if meta.MetacriticScore != nil {
		pick.MetacriticScore = meta.MetacriticScore
	}
	if meta.IMDBRating != nil {
		pick.IMDBRating = meta.IMDBRating
	}
	if meta.Budget != nil {
		pick.Budget = meta.Budget
	}
	if meta.Revenue != nil {
		pick.Revenue = meta.Revenue
	}
	if meta.OscarStatus != nil {
		pick.OscarStatus = meta.OscarStatus
	}
	if score != nil {
		pick.CalculatedScore = score
	}
	pick.ScoringDataComplete = complete
}

func cloneDraft(d models.Draft) models.Draft {
	d.Categories = append([]string(nil), d.Categories...)
	d.TurnOrder = append([]models.TurnSlot(nil), d.TurnOrder...)
	return d
}
