// Package provider fetches current prices from upstream data vendors and
// normalizes their heterogeneous response shapes into a single Quote form.
package provider

import (
	"context"
	"net/http"
	"time"

	"daily-tracker/internal/models"
)

const (
	// restTimeout bounds REST vendor calls.
	restTimeout = 10 * time.Second
	// scrapeTimeout bounds scraped page fetches. The pages involved have no
	// API-level SLA, so the cap is deliberately looser than restTimeout.
	scrapeTimeout = 15 * time.Second

	// userAgent is sent on scraping requests so the pages serve the same
	// markup they serve a desktop browser.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Provider fetches the current quote for one provider-specific symbol.
// Implementations must be side-effect free beyond the network call.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, providerSymbol string) (*models.Quote, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
