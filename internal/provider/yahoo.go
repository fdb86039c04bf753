package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"daily-tracker/internal/models"

	apperrors "daily-tracker/internal/errors"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider fetches quotes from the public Yahoo-style quote endpoint.
// No API key is required; the endpoint is subject to upstream rate limits.
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// NewYahooProvider creates a YahooProvider. baseURL may be empty to use the
// public endpoint; tests point it at an httptest server.
func NewYahooProvider(baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooProvider{
		baseURL: baseURL,
		client:  newHTTPClient(restTimeout),
	}
}

// Name returns the vendor name.
func (p *YahooProvider) Name() string { return "yahoo" }

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	Currency                   string  `json:"currency"`
}

// Fetch retrieves the current quote for providerSymbol.
func (p *YahooProvider) Fetch(ctx context.Context, providerSymbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", p.baseURL, url.QueryEscape(providerSymbol))

	body, err := getJSON(ctx, p.client, u, nil)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, classifyTransport(err), err)
	}

	var resp yahooQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindSymbolNotFound, apperrors.ErrSymbolNotFound)
	}

	result := resp.QuoteResponse.Result[0]
	raw, _ := json.Marshal(result)
	return &models.Quote{
		Price:         result.RegularMarketPrice,
		ChangePercent: result.RegularMarketChangePercent,
		Currency:      result.Currency,
		Raw:           raw,
	}, nil
}

// getJSON performs a GET and returns the response body. Non-2xx statuses are
// returned as errors; 429 maps to the rate-limit sentinel so callers can
// classify it as retryable.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// classifyTransport maps a transport-level error to a provider failure kind.
func classifyTransport(err error) apperrors.ProviderKind {
	if errors.Is(err, apperrors.ErrRateLimited) {
		return apperrors.KindRateLimit
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.KindTimeout
	}
	// Connection resets and DNS hiccups are worth a retry as well.
	return apperrors.KindTimeout
}
