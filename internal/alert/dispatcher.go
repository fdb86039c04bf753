package alert

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"daily-tracker/internal/logging"
	"daily-tracker/internal/models"
	"daily-tracker/internal/notify"
	"daily-tracker/internal/store"
	"daily-tracker/internal/stream"
)

// Dispatcher performs the side effects of a fired alert: it marks the asset
// alerted, sends notifications, records history, and publishes the event to
// live subscribers.
type Dispatcher struct {
	store    store.DataStore
	notifier notify.Notifier
	hub      *stream.Hub
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. The hub is the process-wide broadcast
// point owned by the composition root.
func NewDispatcher(dataStore store.DataStore, notifier notify.Notifier, hub *stream.Hub, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    dataStore,
		notifier: notifier,
		hub:      hub,
		logger:   logging.WithComponent(logger, "dispatcher"),
		now:      time.Now,
	}
}

// SetClock overrides the dispatcher's clock. Used by tests.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Dispatch runs the fired-alert side effects for one asset.
//
// The asset's lastAlertedAt is updated and persisted before anything
// observable happens, so a rapid re-trigger reading the same asset cannot
// pass the cooldown check twice. Notification sends and the history write
// are best-effort: their failures are logged and never abort the caller's
// cycle, and the history write is deliberately not transactional with the
// rest (at-most-once semantics).
func (d *Dispatcher) Dispatch(ctx context.Context, asset *models.Asset, price float64, boundary models.Boundary, threshold float64) models.AlertEvent {
	now := d.now().UTC()

	asset.LastAlertedAt = &now
	if err := d.store.MarkAlerted(ctx, asset.ID, now); err != nil {
		d.logger.Error().Err(err).Str("symbol", asset.Symbol).Msg("Failed to persist last alerted time")
	}

	event := models.AlertEvent{
		AssetID:     asset.ID,
		Symbol:      asset.Symbol,
		Name:        asset.Name,
		Boundary:    boundary,
		Price:       price,
		Threshold:   threshold,
		TriggeredAt: now,
	}

	logging.LogAlert(d.logger, asset.Symbol, string(boundary), price, threshold)

	if d.notifier != nil {
		if err := d.notifier.SendThresholdAlert(ctx, asset, &event); err != nil {
			d.logger.Error().Err(err).Str("symbol", asset.Symbol).Msg("Alert notification failed")
		}
	}

	if err := d.store.InsertAlert(ctx, &event); err != nil {
		d.logger.Error().Err(err).Str("symbol", asset.Symbol).Msg("Alert history write failed")
	}

	if d.hub != nil {
		d.hub.Publish(event)
	}

	return event
}
