package provider

import "daily-tracker/internal/config"

// NewFromConfig builds the provider router for the configured vendor.
// Vendor selection happens once, here; nothing reads the environment at
// fetch time.
func NewFromConfig(cfg *config.Config) *Router {
	var vendor Provider
	switch cfg.VendorName() {
	case "yahoo":
		vendor = NewYahooProvider(cfg.Provider.YahooBaseURL)
	default:
		vendor = NewAlphaVantageProvider(cfg.Provider.AlphaVantageBaseURL, cfg.Provider.AlphaVantageKey)
	}

	metals := NewMetalsProvider(cfg.Provider.GoldPageURL, cfg.Provider.SilverPageURL)
	return NewRouter(vendor, metals)
}
