package provider

import (
	"context"
	"time"

	"daily-tracker/internal/models"

	apperrors "daily-tracker/internal/errors"
)

const (
	maxAttempts = 3

	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// Router directs each provider symbol to the routine that serves it:
// commodity proxies go to the scraping provider, everything else to the
// configured market-data vendor. Retryable failures are retried with
// exponential backoff before the error is handed back to the caller.
type Router struct {
	metals *MetalsProvider
	vendor Provider
}

// NewRouter creates a Router around the given vendor provider.
func NewRouter(vendor Provider, metals *MetalsProvider) *Router {
	return &Router{metals: metals, vendor: vendor}
}

// Name returns the name of the vendor behind the router.
func (r *Router) Name() string { return r.vendor.Name() }

// Fetch resolves providerSymbol to a routine and fetches the quote.
func (r *Router) Fetch(ctx context.Context, providerSymbol string) (*models.Quote, error) {
	target := r.vendor
	if r.metals != nil && r.metals.Handles(providerSymbol) {
		target = r.metals
	}
	return fetchWithRetry(ctx, target, providerSymbol)
}

// fetchWithRetry retries retryable provider failures (timeouts, vendor
// rate-limit notices) with exponential backoff. Non-retryable failures and
// exhausted attempts return the last error unchanged.
func fetchWithRetry(ctx context.Context, p Provider, providerSymbol string) (*models.Quote, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindTimeout, ctx.Err())
			}
		}

		quote, err := p.Fetch(ctx, providerSymbol)
		if err == nil {
			return quote, nil
		}
		lastErr = err

		var provErr *apperrors.ProviderError
		if !apperrors.As(err, &provErr) || !provErr.Retryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoffDelay returns baseDelay * 2^retryCount, capped at maxDelay.
func backoffDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		return baseDelay
	}
	if retryCount > 30 {
		return maxDelay
	}
	d := baseDelay * time.Duration(1<<retryCount)
	if d > maxDelay {
		return maxDelay
	}
	return d
}
