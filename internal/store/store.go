// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"daily-tracker/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Assets
	ListAssets(ctx context.Context) ([]models.Asset, error)
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	CreateAsset(ctx context.Context, asset *models.Asset) error
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	DeleteAsset(ctx context.Context, id string) error
	// MarkAlerted persists last_alerted_at for one asset. It is the only
	// asset mutation performed by the alert path.
	MarkAlerted(ctx context.Context, assetID string, at time.Time) error

	// Snapshots (append-only)
	InsertSnapshot(ctx context.Context, snap *models.Snapshot) error
	LatestSnapshot(ctx context.Context, assetID string) (*models.Snapshot, error)
	SnapshotHistory(ctx context.Context, assetID string, limit int) ([]models.Snapshot, error)

	// Alert history (append-only)
	InsertAlert(ctx context.Context, event *models.AlertEvent) error
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertEvent, int, error)

	// Lifecycle
	Close() error
}

// AlertFilter represents filters for querying alert history.
type AlertFilter struct {
	AssetID  string
	Symbol   string // exact match, case-insensitive
	Boundary models.Boundary
	Page     int
	PageSize int
}
