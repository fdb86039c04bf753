// Package models defines the core data types shared across the application.
package models

import (
	"encoding/json"
	"time"
)

// Asset represents a tracked instrument: an index, a commodity proxy, etc.
type Asset struct {
	ID             string
	Name           string
	Symbol         string // internal short symbol, unique per owner scope
	ProviderSymbol string // symbol used when querying the upstream vendor (e.g., ^NSEI)
	Unit           string // e.g., "per 10gm", "per barrel"
	Currency       string // ISO currency code
	UpperThreshold *float64
	LowerThreshold *float64
	LastAlertedAt  *time.Time
	UserID         string // empty for global assets
	IsGlobal       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot is one immutable observed price point for an asset.
type Snapshot struct {
	ID            int64
	AssetID       string
	Name          string // denormalized for convenience
	Price         float64
	ChangePercent float64
	Unit          string
	Currency      string
	Raw           json.RawMessage // opaque provider payload, kept for audit
	TakenAt       time.Time
}

// Quote is the normalized shape returned by every provider.
type Quote struct {
	Price         float64
	ChangePercent float64 // plain percent: 1.23 means 1.23%
	Unit          string
	Currency      string
	Raw           json.RawMessage
}
