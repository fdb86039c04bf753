package alert

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"daily-tracker/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		price         float64
		upper         *float64
		lower         *float64
		lastAlertedAt *time.Time
		wantBoundary  models.Boundary
		wantThreshold float64
		wantFired     bool
	}{
		{
			name:          "upper crossed with no prior alert",
			price:         2050,
			upper:         floatPtr(2000),
			wantBoundary:  models.BoundaryUpper,
			wantThreshold: 2000,
			wantFired:     true,
		},
		{
			name:          "upper crossed exactly at threshold",
			price:         2000,
			upper:         floatPtr(2000),
			wantBoundary:  models.BoundaryUpper,
			wantThreshold: 2000,
			wantFired:     true,
		},
		{
			name:          "lower crossed",
			price:         1800,
			lower:         floatPtr(1850),
			wantBoundary:  models.BoundaryLower,
			wantThreshold: 1850,
			wantFired:     true,
		},
		{
			name:  "no bounds set never fires",
			price: 5000,
		},
		{
			name:  "between bounds",
			price: 1900,
			upper: floatPtr(2000),
			lower: floatPtr(1850),
		},
		{
			name:          "degenerate config crossing both picks upper",
			price:         1900,
			upper:         floatPtr(1800), // price >= upper
			lower:         floatPtr(1950), // price <= lower
			wantBoundary:  models.BoundaryUpper,
			wantThreshold: 1800,
			wantFired:     true,
		},
		{
			name:          "breach within cooldown is suppressed",
			price:         2100,
			upper:         floatPtr(2000),
			lastAlertedAt: timePtr(now.Add(-10 * time.Minute)),
			wantBoundary:  models.BoundaryUpper,
			wantThreshold: 2000,
			wantFired:     false,
		},
		{
			name:          "breach exactly at cooldown boundary is still suppressed",
			price:         2100,
			upper:         floatPtr(2000),
			lastAlertedAt: timePtr(now.Add(-Cooldown)),
			wantBoundary:  models.BoundaryUpper,
			wantThreshold: 2000,
			wantFired:     false,
		},
		{
			name:          "breach just past cooldown fires again",
			price:         2100,
			upper:         floatPtr(2000),
			lastAlertedAt: timePtr(now.Add(-Cooldown - time.Second)),
			wantBoundary:  models.BoundaryUpper,
			wantThreshold: 2000,
			wantFired:     true,
		},
		{
			name:          "price below upper with no lower set",
			price:         1990,
			upper:         floatPtr(2000),
			lastAlertedAt: timePtr(now.Add(-3 * time.Hour)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.price, tt.upper, tt.lower, tt.lastAlertedAt, now, Cooldown)
			if d.Boundary != tt.wantBoundary {
				t.Errorf("Boundary = %q, want %q", d.Boundary, tt.wantBoundary)
			}
			if d.Threshold != tt.wantThreshold {
				t.Errorf("Threshold = %v, want %v", d.Threshold, tt.wantThreshold)
			}
			if d.Fired != tt.wantFired {
				t.Errorf("Fired = %v, want %v", d.Fired, tt.wantFired)
			}
		})
	}
}

// Property: whenever both bounds are crossed simultaneously, the upper
// boundary always wins regardless of the specific values involved.
func TestProperty_UpperBoundaryPrecedence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	properties.Property("upper wins when both bounds are crossed", prop.ForAll(
		func(price, upperDelta, lowerDelta float64) bool {
			upper := price - upperDelta // price >= upper
			lower := price + lowerDelta // price <= lower
			d := Evaluate(price, &upper, &lower, nil, now, Cooldown)
			return d.Boundary == models.BoundaryUpper && d.Fired && d.Threshold == upper
		},
		gen.Float64Range(1, 1e6),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.Property("no boundary fires when price is strictly inside the bounds", prop.ForAll(
		func(price, margin float64) bool {
			upper := price + margin
			lower := price - margin
			d := Evaluate(price, &upper, &lower, nil, now, Cooldown)
			return d.Boundary == "" && !d.Fired
		},
		gen.Float64Range(1, 1e6),
		gen.Float64Range(0.001, 1000),
	))

	properties.TestingRun(t)
}

// Property: a breach never fires inside the cooldown window and always
// fires once the window has elapsed.
func TestProperty_CooldownSuppression(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	properties.Property("breach inside cooldown is suppressed", prop.ForAll(
		func(price float64, elapsedSec int) bool {
			upper := price - 1
			last := now.Add(-time.Duration(elapsedSec) * time.Second)
			d := Evaluate(price, &upper, nil, &last, now, Cooldown)
			return d.Boundary == models.BoundaryUpper && !d.Fired
		},
		gen.Float64Range(10, 1e6),
		gen.IntRange(0, int(Cooldown/time.Second)),
	))

	properties.Property("breach after cooldown fires", prop.ForAll(
		func(price float64, extraSec int) bool {
			upper := price - 1
			last := now.Add(-Cooldown - time.Duration(extraSec)*time.Second)
			d := Evaluate(price, &upper, nil, &last, now, Cooldown)
			return d.Boundary == models.BoundaryUpper && d.Fired
		},
		gen.Float64Range(10, 1e6),
		gen.IntRange(1, 86400),
	))

	properties.TestingRun(t)
}
