package draft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/identity"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/scoring"
)

// Suggester proposes an eligible, not-yet-picked movie for a category.
type Suggester interface {
	SelectMovie(ctx context.Context, d models.Draft, category string, excludeMovieIDs []int64) (*models.Movie, error)
}

// Service exposes the draft app over JSON HTTP.
type Service struct {
	app       *App
	suggester Suggester
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSuggester enables the movie-suggestion endpoint.
func WithSuggester(s Suggester) ServiceOption {
	return func(svc *Service) { svc.suggester = s }
}

func NewService(app *App, opts ...ServiceOption) *Service {
	svc := &Service{app: app}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Routes mounts the draft endpoints on a chi router.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", s.handleCreateDraft)
	r.Post("/join", s.handleJoinByInviteCode)
	r.Route("/{draftID}", func(r chi.Router) {
		r.Get("/", s.handleGetDraft)
		r.Post("/start", s.handleStartDraft)
		r.Post("/picks", s.handleMakePick)
		r.Get("/scores", s.handleGetScores)
		r.Get("/suggest", s.handleSuggest)
	})
	return r
}

// Caller identity travels in headers: an authenticated user id or a minted
// guest session id. Absent both, identity-requiring operations fail 401.
func callerIdentity(r *http.Request) identity.Provider {
	if raw := r.Header.Get("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return identity.NewUser(id)
		}
	}
	if guest := r.Header.Get("X-Guest-ID"); guest != "" {
		return identity.NewGuest(guest)
	}
	return identity.None{}
}

func (s *Service) scoped(r *http.Request) *App {
	return s.app.WithIdentity(callerIdentity(r))
}

func (s *Service) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, err := s.scoped(r).CreateDraft(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (s *Service) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return
	}

	snapshot, err := s.scoped(r).LoadDraft(r.Context(), draftID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return
	}

	snapshot, err := s.scoped(r).StartDraft(r.Context(), draftID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleJoinByInviteCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode  string `json:"invite_code"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InviteCode == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "invite_code and display_name are required")
		return
	}

	snapshot, err := s.scoped(r).JoinByInviteCode(r.Context(), req.InviteCode, req.DisplayName)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleMakePick(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return
	}

	var req MakePickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DraftID = draftID

	result, err := s.scoped(r).MakePick(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleGetScores(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return
	}

	snapshot, err := s.scoped(r).LoadDraft(r.Context(), draftID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoring.TeamScores(snapshot.Picks))
}

// handleSuggest proposes a movie for a category: eligible under the
// category's rule, not yet picked in this draft. AI hosts and indecisive
// humans both use it.
func (s *Service) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if s.suggester == nil {
		writeError(w, http.StatusNotImplemented, "movie suggestions not configured")
		return
	}

	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	snapshot, err := s.scoped(r).LoadDraft(r.Context(), draftID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	exclude := make([]int64, 0, len(snapshot.Picks))
	for _, p := range snapshot.Picks {
		exclude = append(exclude, p.MovieID)
	}

	movie, err := s.suggester.SelectMovie(r.Context(), snapshot.Draft, category, exclude)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("movie suggestion failed")
		writeError(w, http.StatusBadGateway, "movie catalog unavailable")
		return
	}
	if movie == nil {
		writeError(w, http.StatusNotFound, "no eligible movie found")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// writeAppError maps app sentinels onto HTTP status codes. Anything
// unrecognized logs and surfaces as a 500 without leaking internals.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrIdentityUnavailable):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrDraftNotFound),
		errors.Is(err, ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotHost),
		errors.Is(err, ErrAccessDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrDraftNotStarted),
		errors.Is(err, ErrDraftComplete),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrMovieAlreadyPicked),
		errors.Is(err, ErrCategoryFilled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInviteCode):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("draft operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
