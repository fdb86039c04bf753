// Package alert decides when threshold breaches fire and delivers the
// resulting events to notification channels, history, and live subscribers.
package alert

import (
	"time"

	"daily-tracker/internal/models"
)

// Cooldown is the minimum elapsed time after a fired alert before the same
// asset may fire again.
const Cooldown = 2 * time.Hour

// Decision is the outcome of evaluating one observed price against an
// asset's configured bounds.
type Decision struct {
	// Boundary is the crossed boundary, or empty when neither bound was
	// crossed.
	Boundary models.Boundary
	// Threshold is the configured value that was crossed.
	Threshold float64
	// Fired reports whether the breach is actionable. A breach inside the
	// cooldown window leaves Fired false while Boundary is still set.
	Fired bool
}

// Evaluate checks price against the configured bounds. The upper bound is
// checked first (price >= upper), then the lower (price <= lower); when a
// degenerate configuration crosses both at once, upper wins. Unset bounds
// are never evaluated. A crossed boundary fires only when the last fired
// alert is older than cooldown.
func Evaluate(price float64, upper, lower *float64, lastAlertedAt *time.Time, now time.Time, cooldown time.Duration) Decision {
	var d Decision

	switch {
	case upper != nil && price >= *upper:
		d.Boundary = models.BoundaryUpper
		d.Threshold = *upper
	case lower != nil && price <= *lower:
		d.Boundary = models.BoundaryLower
		d.Threshold = *lower
	default:
		return d
	}

	if lastAlertedAt == nil || now.Sub(*lastAlertedAt) > cooldown {
		d.Fired = true
	}
	return d
}
