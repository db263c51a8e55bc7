package session

import (
	"errors"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/draft"
)

// Category buckets remote failures for user-facing presentation. Every
// failure lands in exactly one bucket; nothing is silently swallowed.
type Category string

const (
	// CategoryTurn covers authorization and turn-ownership rejections.
	CategoryTurn Category = "turn"
	// CategoryDuplicate covers already-picked / already-filled conflicts.
	CategoryDuplicate Category = "duplicate"
	// CategoryNotFound covers missing drafts and bad invite codes.
	CategoryNotFound Category = "not_found"
	// CategoryIdentity covers operations attempted before an identity exists.
	CategoryIdentity Category = "identity"
	// CategoryGeneric covers network and unclassified server failures.
	CategoryGeneric Category = "generic"
)

// Failure is a classified remote error ready for display.
type Failure struct {
	Category Category
	Err      error
}

func (f Failure) Error() string { return f.Err.Error() }

// Classify maps a draft operation error onto its presentation bucket.
func Classify(err error) Failure {
	switch {
	case errors.Is(err, draft.ErrNotYourTurn),
		errors.Is(err, draft.ErrNotHost),
		errors.Is(err, draft.ErrAccessDenied),
		errors.Is(err, draft.ErrAlreadyStarted),
		errors.Is(err, draft.ErrDraftNotStarted),
		errors.Is(err, draft.ErrDraftComplete):
		return Failure{Category: CategoryTurn, Err: err}
	case errors.Is(err, draft.ErrMovieAlreadyPicked),
		errors.Is(err, draft.ErrCategoryFilled):
		return Failure{Category: CategoryDuplicate, Err: err}
	case errors.Is(err, draft.ErrDraftNotFound),
		errors.Is(err, draft.ErrInvalidInviteCode),
		errors.Is(err, draft.ErrParticipantNotFound):
		return Failure{Category: CategoryNotFound, Err: err}
	case errors.Is(err, draft.ErrIdentityUnavailable):
		return Failure{Category: CategoryIdentity, Err: err}
	default:
		return Failure{Category: CategoryGeneric, Err: err}
	}
}
