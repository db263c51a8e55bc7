// Package invites dispatches join invitations for multi-participant drafts.
// Delivery is best-effort everywhere: a failed invitation never fails the
// operation that triggered it.
package invites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// HTTPSender posts invitations to an external notification service.
type HTTPSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPSender(endpoint, apiKey string) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type invitationPayload struct {
	DraftID    string   `json:"draft_id"`
	DraftTitle string   `json:"draft_title"`
	InviteCode string   `json:"invite_code"`
	Invitees   []string `json:"invitees"`
}

func (s *HTTPSender) SendInvitations(ctx context.Context, draft models.Draft, invitees []models.Participant) error {
	if draft.InviteCode == nil {
		return fmt.Errorf("draft %s has no invite code", draft.ID)
	}

	payload := invitationPayload{
		DraftID:    draft.ID.String(),
		DraftTitle: draft.Title,
		InviteCode: *draft.InviteCode,
	}
	for _, p := range invitees {
		payload.Invitees = append(payload.Invitees, p.Name)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal invitation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create invitation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send invitations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("invitation service returned status %d", resp.StatusCode)
	}

	log.Info().
		Str("draft_id", draft.ID.String()).
		Int("invitees", len(invitees)).
		Msg("invitations dispatched")
	return nil
}

// LogSender records invitations in the log only. Local runs without a
// notification service use it.
type LogSender struct{}

func (LogSender) SendInvitations(_ context.Context, draft models.Draft, invitees []models.Participant) error {
	names := make([]string, 0, len(invitees))
	for _, p := range invitees {
		names = append(names, p.Name)
	}
	log.Info().
		Str("draft_id", draft.ID.String()).
		Strs("invitees", names).
		Msg("invitations logged (no sender configured)")
	return nil
}
