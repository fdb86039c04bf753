// Package scheduler runs the periodic fetch-evaluate-alert cycle over every
// tracked asset.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"daily-tracker/internal/alert"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/models"
	"daily-tracker/internal/provider"
	"daily-tracker/internal/store"
)

// DefaultCronExpr polls every 30 minutes.
const DefaultCronExpr = "*/30 * * * *"

// Scheduler drives fetch cycles from a cron timer and from manual triggers.
type Scheduler struct {
	store      store.DataStore
	provider   provider.Provider
	dispatcher *alert.Dispatcher
	logger     zerolog.Logger

	cronExpr string
	cron     *cron.Cron

	// mu serializes cycles: a manual trigger arriving while a timer-driven
	// cycle runs waits for it instead of interleaving asset processing.
	mu  sync.Mutex
	now func() time.Time

	cooldown time.Duration
}

// New creates a Scheduler. cronExpr is evaluated in UTC; empty selects the
// default 30 minute interval.
func New(dataStore store.DataStore, quoteProvider provider.Provider, dispatcher *alert.Dispatcher, cronExpr string, logger zerolog.Logger) *Scheduler {
	if cronExpr == "" {
		cronExpr = DefaultCronExpr
	}
	return &Scheduler{
		store:      dataStore,
		provider:   quoteProvider,
		dispatcher: dispatcher,
		logger:     logging.WithComponent(logger, "scheduler"),
		cronExpr:   cronExpr,
		now:        time.Now,
		cooldown:   alert.Cooldown,
	}
}

// SetClock overrides the scheduler's clock. Used by tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// SetCooldown overrides the alert cooldown window. Used by tests.
func (s *Scheduler) SetCooldown(d time.Duration) {
	s.cooldown = d
}

// Start begins timer-driven cycles. It returns once the cron entry is
// registered; cycles run on the cron goroutine.
func (s *Scheduler) Start() error {
	s.cron = cron.New(cron.WithLocation(time.UTC))
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		if err := s.RunCycle(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("Timer-driven cycle failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Str("cron_expr", s.cronExpr).Msg("Scheduler started")
	return nil
}

// Stop halts timer-driven cycles. A cycle already running completes; there
// is no cooperative cancellation of in-flight work.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunCycle runs one full fetch-evaluate-alert pass over all tracked assets.
// Per-asset failures are logged and never abort the remaining assets; the
// returned error covers only the initial asset load.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.now()
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load tracked assets")
		return err
	}

	failures := 0
	for i := range assets {
		if err := s.processAsset(ctx, &assets[i]); err != nil {
			failures++
			assetLogger := logging.WithSymbol(s.logger, assets[i].Symbol)
			assetLogger.Error().Err(err).Msg("Asset cycle failed")
		}
	}

	logging.LogCycle(s.logger, len(assets), failures, s.now().Sub(started))
	return nil
}

// processAsset runs the fetch -> snapshot -> evaluate -> dispatch pipeline
// for a single asset. A failed fetch writes no snapshot for this cycle; a
// snapshot that cannot be written skips evaluation (the quote is lost, not
// retried).
func (s *Scheduler) processAsset(ctx context.Context, asset *models.Asset) error {
	fetchStart := s.now()
	quote, err := s.provider.Fetch(ctx, asset.ProviderSymbol)
	logging.LogFetch(s.logger, s.provider.Name(), asset.ProviderSymbol, priceOf(quote), time.Since(fetchStart), err)
	if err != nil {
		return err
	}

	snap := &models.Snapshot{
		AssetID:       asset.ID,
		Name:          asset.Name,
		Price:         quote.Price,
		ChangePercent: quote.ChangePercent,
		Unit:          firstNonEmpty(quote.Unit, asset.Unit),
		Currency:      firstNonEmpty(quote.Currency, asset.Currency),
		Raw:           quote.Raw,
		TakenAt:       s.now().UTC(),
	}
	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return err
	}

	decision := alert.Evaluate(quote.Price, asset.UpperThreshold, asset.LowerThreshold, asset.LastAlertedAt, s.now(), s.cooldown)
	if decision.Boundary != "" && !decision.Fired {
		assetLogger := logging.WithSymbol(s.logger, asset.Symbol)
		assetLogger.Debug().
			Str("boundary", string(decision.Boundary)).
			Msg("Breach suppressed by cooldown")
	}
	if decision.Fired {
		s.dispatcher.Dispatch(ctx, asset, quote.Price, decision.Boundary, decision.Threshold)
	}
	return nil
}

func priceOf(q *models.Quote) float64 {
	if q == nil {
		return 0
	}
	return q.Price
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
