package draft

import "errors"

// Failure kinds surfaced across the operation boundary. The transport and
// session layers classify on these; none of them may escape as a generic
// internal error.
var (
	ErrIdentityUnavailable = errors.New("no local identity available")
	ErrNotHost             = errors.New("only the host may perform this action")
	ErrAlreadyStarted      = errors.New("draft already started")
	ErrDraftNotStarted     = errors.New("draft has not started")
	ErrDraftComplete       = errors.New("draft already complete")
	ErrInvalidInviteCode   = errors.New("invalid invite code")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrMovieAlreadyPicked  = errors.New("movie already picked in this draft")
	ErrCategoryFilled      = errors.New("category already filled for this player")
	ErrDraftNotFound       = errors.New("draft not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrParticipantNotFound = errors.New("participant not found in draft")
)
