// Package enrich backfills scoring metadata onto picks after they land.
// Enrichment is best-effort: failures log and retry on the next sweep, and
// the draft flow never waits on it.
package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hamill-design/movie-draft-oracle-sub000/internal/models"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/realtime"
	"github.com/hamill-design/movie-draft-oracle-sub000/internal/scoring"
)

// Store is the slice of pick storage the worker needs.
type Store interface {
	ListPicksMissingScoringData(ctx context.Context, limit int) ([]models.Pick, error)
	GetPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error)
	UpdatePickEnrichment(ctx context.Context, pickID uuid.UUID, meta models.MovieMetadata, score *float64, complete bool) error
}

// MetadataSource fetches enrichment fields for one movie.
type MetadataSource interface {
	Metadata(ctx context.Context, movieID int64) (*models.MovieMetadata, error)
}

// Worker sweeps for picks missing scoring data and fills them in through a
// small worker pool. A per-pick in-flight set keeps overlapping sweeps from
// enriching the same pick twice.
type Worker struct {
	store   Store
	source  MetadataSource
	events  realtime.Publisher
	clock   clockwork.Clock
	workers int
	batch   int
	sweep   time.Duration

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

// Config tunes the worker. Zero values fall back to defaults.
type Config struct {
	Workers       int
	BatchSize     int
	SweepInterval time.Duration
}

func NewWorker(store Store, source MetadataSource, events realtime.Publisher, cfg Config) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	return &Worker{
		store:    store,
		source:   source,
		events:   events,
		clock:    clockwork.NewRealClock(),
		workers:  cfg.Workers,
		batch:    cfg.BatchSize,
		sweep:    cfg.SweepInterval,
		inFlight: make(map[uuid.UUID]bool),
	}
}

// WithClock overrides the sweep clock for tests.
func (w *Worker) WithClock(clock clockwork.Clock) *Worker {
	w.clock = clock
	return w
}

// Run sweeps until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	log.Info().
		Int("workers", w.workers).
		Dur("sweep_interval", w.sweep).
		Msg("enrichment worker started")

	ticker := w.clock.NewTicker(w.sweep)
	defer ticker.Stop()

	for {
		w.Sweep(ctx)
		select {
		case <-ctx.Done():
			log.Info().Msg("enrichment worker shutting down")
			return nil
		case <-ticker.Chan():
		}
	}
}

// Sweep enriches one batch of incomplete picks. Exposed for event-driven
// triggering on PickMade in addition to the timer.
func (w *Worker) Sweep(ctx context.Context) {
	picks, err := w.store.ListPicksMissingScoringData(ctx, w.batch)
	if err != nil {
		log.Error().Err(err).Msg("failed to list picks for enrichment")
		return
	}

	work := make(chan models.Pick)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pick := range work {
				w.enrich(ctx, pick)
			}
		}()
	}

	for _, pick := range picks {
		if !w.claim(pick.ID) {
			continue
		}
		select {
		case work <- pick:
		case <-ctx.Done():
			w.release(pick.ID)
		}
	}
	close(work)
	wg.Wait()
}

func (w *Worker) claim(pickID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[pickID] {
		return false
	}
	w.inFlight[pickID] = true
	return true
}

func (w *Worker) release(pickID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, pickID)
}

func (w *Worker) enrich(ctx context.Context, pick models.Pick) {
	defer w.release(pick.ID)

	meta, err := w.source.Metadata(ctx, pick.MovieID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("pick_id", pick.ID.String()).
			Int64("movie_id", pick.MovieID).
			Msg("metadata fetch failed, will retry next sweep")
		return
	}

	merged := pick
	applyEnrichment(&merged, *meta)

	var score *float64
	complete := false
	if inputs := scoring.InputsFromPick(merged); scoring.Scorable(merged) {
		value := scoring.Score(inputs).Final
		score = &value
		complete = true
	}

	if err := w.store.UpdatePickEnrichment(ctx, pick.ID, *meta, score, complete); err != nil {
		log.Error().
			Err(err).
			Str("pick_id", pick.ID.String()).
			Msg("failed to persist enrichment")
		return
	}

	if w.events != nil {
		if err := w.events.Publish(ctx, realtime.NewPickEnriched(pick.DraftID, pick.ID, score, complete)); err != nil {
			log.Warn().Err(err).Str("pick_id", pick.ID.String()).Msg("failed to publish enrichment event")
		}
	}

	log.Info().
		Str("pick_id", pick.ID.String()).
		Int64("movie_id", pick.MovieID).
		Bool("complete", complete).
		Msg("pick enriched")
}

func applyEnrichment(pick *models.Pick, meta models.MovieMetadata) {
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
}
