package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"daily-tracker/internal/models"

	apperrors "daily-tracker/internal/errors"
)

const defaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageProvider fetches quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. Requires an API key; the free tier embeds rate-limit notices in
// 200 responses, which are surfaced as retryable failures.
type AlphaVantageProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAlphaVantageProvider creates an AlphaVantageProvider. baseURL may be
// empty to use the public endpoint.
func NewAlphaVantageProvider(baseURL, apiKey string) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = defaultAlphaVantageBaseURL
	}
	return &AlphaVantageProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(restTimeout),
	}
}

// Name returns the vendor name.
func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

type alphaVantageResponse struct {
	Note         string          `json:"Note"`
	ErrorMessage string          `json:"Error Message"`
	GlobalQuote  json.RawMessage `json:"Global Quote"`
}

// Documented field paths within "Global Quote".
type alphaVantageQuote struct {
	Price         string `json:"05. price"`
	ChangePercent string `json:"10. change percent"` // e.g. "1.23%"
}

// Fetch retrieves the current quote for providerSymbol.
// A missing API key is a configuration failure surfaced at first use for
// this vendor; other vendors remain unaffected.
func (p *AlphaVantageProvider) Fetch(ctx context.Context, providerSymbol string) (*models.Quote, error) {
	if p.apiKey == "" {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindMissingKey, apperrors.ErrMissingAPIKey)
	}

	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", providerSymbol)
	q.Set("apikey", p.apiKey)
	u := fmt.Sprintf("%s/query?%s", p.baseURL, q.Encode())

	body, err := getJSON(ctx, p.client, u, nil)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, classifyTransport(err), err)
	}

	var resp alphaVantageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}
	if resp.Note != "" {
		// Rate-limit notice delivered inside a 200 response.
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindRateLimit,
			apperrors.Wrapf(apperrors.ErrRateLimited, "vendor note: %s", resp.Note))
	}
	if resp.ErrorMessage != "" {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindSymbolNotFound,
			fmt.Errorf("vendor error: %s", resp.ErrorMessage))
	}
	if len(resp.GlobalQuote) == 0 || string(resp.GlobalQuote) == "{}" || string(resp.GlobalQuote) == "null" {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindSymbolNotFound, apperrors.ErrSymbolNotFound)
	}

	var quote alphaVantageQuote
	if err := json.Unmarshal(resp.GlobalQuote, &quote); err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}

	price, err := ParsePrice(quote.Price)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}
	changePercent, err := ParsePercent(quote.ChangePercent)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}

	return &models.Quote{
		Price:         price,
		ChangePercent: changePercent,
		Raw:           resp.GlobalQuote,
	}, nil
}
