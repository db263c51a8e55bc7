package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
)

// PostgresRepository persists drafts in Postgres via pgx. Categories and the
// frozen turn order are stored as JSONB; everything else is flat columns.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS drafts (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    theme TEXT NOT NULL,
    option_value TEXT NOT NULL DEFAULT '',
    categories JSONB NOT NULL DEFAULT '[]',
    invite_code TEXT UNIQUE,
    current_turn_participant_id UUID,
    current_pick_number INT NOT NULL DEFAULT 1,
    is_complete BOOLEAN NOT NULL DEFAULT FALSE,
    turn_order JSONB,
    host_user_id UUID,
    host_guest_id TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS draft_participants (
    id UUID PRIMARY KEY,
    draft_id UUID NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
    user_id UUID,
    guest_participant_id TEXT,
    participant_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'invited',
    is_host BOOLEAN NOT NULL DEFAULT FALSE,
    is_ai BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_draft_participants_draft ON draft_participants(draft_id);

CREATE TABLE IF NOT EXISTS draft_picks (
    id UUID PRIMARY KEY,
    draft_id UUID NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
    player_id INT NOT NULL,
    player_name TEXT NOT NULL,
    participant_id UUID,
    movie_id BIGINT NOT NULL,
    movie_title TEXT NOT NULL,
    movie_year INT,
    movie_genre TEXT,
    poster_path TEXT,
    category TEXT NOT NULL,
    pick_order INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    rt_critics_score DOUBLE PRECISION,
    rt_audience_score DOUBLE PRECISION,
    metacritic_score DOUBLE PRECISION,
    imdb_rating DOUBLE PRECISION,
    movie_budget BIGINT,
    movie_revenue BIGINT,
    oscar_status TEXT,
    calculated_score DOUBLE PRECISION,
    scoring_data_complete BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (draft_id, movie_id)
);

CREATE INDEX IF NOT EXISTS idx_draft_picks_draft ON draft_picks(draft_id);
`

// Migrate applies the schema. Idempotent.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateDraft(ctx context.Context, d models.Draft) error {
	categories, err := json.Marshal(d.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	turnOrder, err := marshalTurnOrder(d.TurnOrder)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO drafts (
          id, title, theme, option_value, categories, invite_code,
          current_turn_participant_id, current_pick_number, is_complete,
          turn_order, host_user_id, host_guest_id, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    `,
		d.ID, d.Title, d.Theme, d.Option, categories, d.InviteCode,
		d.CurrentTurnParticipantID, d.CurrentPickNumber, d.IsComplete,
		turnOrder, d.HostUserID, d.HostGuestID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

const draftColumns = `
  id, title, theme, option_value, categories, invite_code,
  current_turn_participant_id, current_pick_number, is_complete,
  turn_order, host_user_id, host_guest_id, created_at, updated_at`

func (r *PostgresRepository) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	d, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	return d, err
}

func (r *PostgresRepository) GetDraftByInviteCode(ctx context.Context, code string) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE invite_code = $1`, code)
	d, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidInviteCode
	}
	return d, err
}

func (r *PostgresRepository) UpdateDraft(ctx context.Context, d models.Draft) error {
	categories, err := json.Marshal(d.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	turnOrder, err := marshalTurnOrder(d.TurnOrder)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
        UPDATE drafts SET
          title = $2, theme = $3, option_value = $4, categories = $5,
          invite_code = $6, current_turn_participant_id = $7,
          current_pick_number = $8, is_complete = $9, turn_order = $10,
          updated_at = $11
        WHERE id = $1
    `,
		d.ID, d.Title, d.Theme, d.Option, categories,
		d.InviteCode, d.CurrentTurnParticipantID,
		d.CurrentPickNumber, d.IsComplete, turnOrder,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateParticipant(ctx context.Context, p models.Participant) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO draft_participants (
          id, draft_id, user_id, guest_participant_id, participant_name,
          status, is_host, is_ai, joined_at, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `,
		p.ID, p.DraftID, p.UserID, p.GuestID, p.Name,
		p.Status, p.IsHost, p.IsAI, p.JoinedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetParticipantsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, draft_id, user_id, guest_participant_id, participant_name,
               status, is_host, is_ai, joined_at, created_at
        FROM draft_participants
        WHERE draft_id = $1
        ORDER BY created_at ASC NULLS LAST, id ASC
    `, draftID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ID, &p.DraftID, &p.UserID, &p.GuestID, &p.Name,
			&p.Status, &p.IsHost, &p.IsAI, &p.JoinedAt, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateParticipant(ctx context.Context, p models.Participant) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE draft_participants SET
          user_id = $2, guest_participant_id = $3, participant_name = $4,
          status = $5, is_host = $6, is_ai = $7, joined_at = $8
        WHERE id = $1
    `,
		p.ID, p.UserID, p.GuestID, p.Name,
		p.Status, p.IsHost, p.IsAI, p.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresRepository) CreatePick(ctx context.Context, pick models.Pick) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO draft_picks (
          id, draft_id, player_id, player_name, participant_id,
          movie_id, movie_title, movie_year, movie_genre, poster_path,
          category, pick_order, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `,
		pick.ID, pick.DraftID, pick.PlayerID, pick.PlayerName, pick.ParticipantID,
		pick.MovieID, pick.MovieTitle, pick.MovieYear, pick.MovieGenre, pick.PosterPath,
		pick.Category, pick.PickOrder, pick.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pick: %w", err)
	}
	return nil
}

const pickColumns = `
  id, draft_id, player_id, player_name, participant_id,
  movie_id, movie_title, movie_year, movie_genre, poster_path,
  category, pick_order, created_at,
  rt_critics_score, rt_audience_score, metacritic_score, imdb_rating,
  movie_budget, movie_revenue, oscar_status, calculated_score,
  scoring_data_complete`

func (r *PostgresRepository) GetPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pickColumns+` FROM draft_picks WHERE draft_id = $1 ORDER BY pick_order ASC`,
		draftID)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()
	return scanPicks(rows)
}

func (r *PostgresRepository) UpdatePickEnrichment(ctx context.Context, pickID uuid.UUID, meta models.MovieMetadata, score *float64, complete bool) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE draft_picks SET
          rt_critics_score = COALESCE($2, rt_critics_score),
          rt_audience_score = COALESCE($3, rt_audience_score),
          metacritic_score = COALESCE($4, metacritic_score),
          imdb_rating = COALESCE($5, imdb_rating),
          movie_budget = COALESCE($6, movie_budget),
          movie_revenue = COALESCE($7, movie_revenue),
          oscar_status = COALESCE($8, oscar_status),
          calculated_score = COALESCE($9, calculated_score),
          scoring_data_complete = $10
        WHERE id = $1
    `,
		pickID, meta.CriticsScore, meta.AudienceScore, meta.MetacriticScore,
		meta.IMDBRating, meta.Budget, meta.Revenue, meta.OscarStatus,
		score, complete,
	)
	if err != nil {
		return fmt.Errorf("update pick enrichment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pick %s not found", pickID)
	}
	return nil
}

func (r *PostgresRepository) ListPicksMissingScoringData(ctx context.Context, limit int) ([]models.Pick, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pickColumns+` FROM draft_picks WHERE NOT scoring_data_complete ORDER BY created_at ASC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query unenriched picks: %w", err)
	}
	defer rows.Close()
	return scanPicks(rows)
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	var (
		d          models.Draft
		categories []byte
		turnOrder  []byte
	)
	if err := row.Scan(
		&d.ID, &d.Title, &d.Theme, &d.Option, &categories, &d.InviteCode,
		&d.CurrentTurnParticipantID, &d.CurrentPickNumber, &d.IsComplete,
		&turnOrder, &d.HostUserID, &d.HostGuestID, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(categories, &d.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if len(turnOrder) > 0 {
		if err := json.Unmarshal(turnOrder, &d.TurnOrder); err != nil {
			return nil, fmt.Errorf("decode turn order: %w", err)
		}
	}
	return &d, nil
}

func scanPicks(rows pgx.Rows) ([]models.Pick, error) {
	var out []models.Pick
	for rows.Next() {
		var p models.Pick
		if err := rows.Scan(
			&p.ID, &p.DraftID, &p.PlayerID, &p.PlayerName, &p.ParticipantID,
			&p.MovieID, &p.MovieTitle, &p.MovieYear, &p.MovieGenre, &p.PosterPath,
			&p.Category, &p.PickOrder, &p.CreatedAt,
			&p.CriticsScore, &p.AudienceScore, &p.MetacriticScore, &p.IMDBRating,
			&p.Budget, &p.Revenue, &p.OscarStatus, &p.CalculatedScore,
			&p.ScoringDataComplete,
		); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func marshalTurnOrder(order []models.TurnSlot) ([]byte, error) {
	if len(order) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal turn order: %w", err)
	}
	return data, nil
}
