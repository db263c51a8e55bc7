package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service exposes the WebSocket endpoint.
type Service struct {
	manager *Manager
}

func NewService(manager *Manager) *Service {
	return &Service{manager: manager}
}

// Routes mounts the gateway endpoints on a chi router.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{draftID}", s.handleConnect)
	return r
}

// handleConnect upgrades the request to a WebSocket scoped to one draft. The
// viewer's identity key comes from headers or, for browser WebSocket clients
// that cannot set headers, a query parameter.
func (s *Service) handleConnect(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	key := r.Header.Get("X-User-ID")
	if key == "" {
		key = r.Header.Get("X-Guest-ID")
	}
	if key == "" {
		key = r.URL.Query().Get("identity")
	}
	if key == "" {
		key = "anonymous-" + uuid.NewString()
	}

	if err := s.manager.Upgrade(w, r, key, draftID); err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("WebSocket upgrade failed")
	}
}
