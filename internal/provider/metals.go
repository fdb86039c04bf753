package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"daily-tracker/internal/models"

	apperrors "daily-tracker/internal/errors"
)

const (
	defaultGoldPageURL   = "https://www.goodreturns.in/gold-rates/"
	defaultSilverPageURL = "https://www.goodreturns.in/silver-rates/"

	// Field paths within the rates pages. The rate cell carries the
	// locale-formatted price ("6,325"); the change cell carries the percent
	// move ("+0.52%"). Both pages share the same markup.
	priceSelector  = "#current-price .rate-value"
	changeSelector = "#current-price .rate-change-percent"
)

// MetalsProvider extracts gold and silver prices from vendor rate pages.
// It serves the commodity proxy symbols that no quote API covers; page
// structure assumptions live entirely in this file so the pages can be
// swapped without touching the scheduler or the evaluator.
type MetalsProvider struct {
	goldURL   string
	silverURL string
	client    *http.Client
}

// NewMetalsProvider creates a MetalsProvider. Empty URLs fall back to the
// default rate pages; tests point them at an httptest server.
func NewMetalsProvider(goldURL, silverURL string) *MetalsProvider {
	if goldURL == "" {
		goldURL = defaultGoldPageURL
	}
	if silverURL == "" {
		silverURL = defaultSilverPageURL
	}
	return &MetalsProvider{
		goldURL:   goldURL,
		silverURL: silverURL,
		client:    newHTTPClient(scrapeTimeout),
	}
}

// Name returns the provider name.
func (p *MetalsProvider) Name() string { return "metals" }

// Handles reports whether providerSymbol is served by this provider.
func (p *MetalsProvider) Handles(providerSymbol string) bool {
	switch strings.ToUpper(providerSymbol) {
	case "XAU", "GOLD", "XAG", "SILVER":
		return true
	}
	return false
}

// Fetch scrapes the rate page for the given metal symbol.
func (p *MetalsProvider) Fetch(ctx context.Context, providerSymbol string) (*models.Quote, error) {
	var pageURL, unit string
	switch strings.ToUpper(providerSymbol) {
	case "XAU", "GOLD":
		pageURL = p.goldURL
		unit = "per 10gm"
	case "XAG", "SILVER":
		pageURL = p.silverURL
		unit = "per kg"
	default:
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindSymbolNotFound, apperrors.ErrSymbolNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}
	// Serve the desktop markup, not a bot wall.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, classifyTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := apperrors.KindParseFailure
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = apperrors.KindRateLimit
		}
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, kind,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}

	priceText := strings.TrimSpace(doc.Find(priceSelector).First().Text())
	if priceText == "" {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure,
			fmt.Errorf("selector %q matched nothing", priceSelector))
	}
	changeText := strings.TrimSpace(doc.Find(changeSelector).First().Text())

	price, err := ParsePrice(priceText)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}
	changePercent, err := ParsePercent(changeText)
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), providerSymbol, apperrors.KindParseFailure, err)
	}

	raw, _ := json.Marshal(map[string]string{
		"source": pageURL,
		"price":  priceText,
		"change": changeText,
	})

	return &models.Quote{
		Price:         price,
		ChangePercent: changePercent,
		Unit:          unit,
		Currency:      "INR",
		Raw:           raw,
	}, nil
}
