package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"daily-tracker/internal/models"

	apperrors "daily-tracker/internal/errors"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Tracked assets
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		provider_symbol TEXT NOT NULL,
		unit TEXT,
		currency TEXT NOT NULL DEFAULT 'INR',
		upper_threshold REAL,
		lower_threshold REAL,
		last_alerted_at DATETIME,
		user_id TEXT NOT NULL DEFAULT '',
		is_global INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, user_id)
	);

	-- Append-only price observations
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price REAL NOT NULL,
		change_percent REAL,
		unit TEXT,
		currency TEXT,
		raw TEXT,
		taken_at DATETIME NOT NULL,
		FOREIGN KEY (asset_id) REFERENCES assets(id)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_asset_taken ON snapshots(asset_id, taken_at DESC);

	-- Append-only fired alert records
	CREATE TABLE IF NOT EXISTS alert_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		name TEXT NOT NULL,
		boundary TEXT NOT NULL CHECK (boundary IN ('upper', 'lower')),
		price REAL NOT NULL,
		threshold REAL,
		triggered_at DATETIME NOT NULL,
		FOREIGN KEY (asset_id) REFERENCES assets(id)
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_asset_triggered ON alert_history(asset_id, triggered_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Assets ---

const assetColumns = `id, name, symbol, provider_symbol, unit, currency,
	upper_threshold, lower_threshold, last_alerted_at, user_id, is_global,
	created_at, updated_at`

// ListAssets returns every tracked asset.
func (s *SQLiteStore) ListAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY created_at`)
	if err != nil {
		return nil, apperrors.NewPersistenceError("asset.list", "assets", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("asset.list", "assets", err)
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

// GetAsset returns one asset by ID.
func (s *SQLiteStore) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("asset.get", id, err)
	}
	return asset, nil
}

// CreateAsset inserts a new asset, generating an ID when none is set.
func (s *SQLiteStore) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, name, symbol, provider_symbol, unit, currency,
			upper_threshold, lower_threshold, last_alerted_at, user_id, is_global,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.Name, asset.Symbol, asset.ProviderSymbol, asset.Unit, asset.Currency,
		nullFloat(asset.UpperThreshold), nullFloat(asset.LowerThreshold), nullTime(asset.LastAlertedAt),
		asset.UserID, asset.IsGlobal, asset.CreatedAt, asset.UpdatedAt)
	if err != nil {
		return apperrors.NewPersistenceError("asset.create", asset.Symbol, err)
	}
	return nil
}

// UpdateAsset updates a tracked asset's configurable fields.
func (s *SQLiteStore) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	asset.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE assets SET name = ?, symbol = ?, provider_symbol = ?, unit = ?, currency = ?,
			upper_threshold = ?, lower_threshold = ?, updated_at = ?
		WHERE id = ?`,
		asset.Name, asset.Symbol, asset.ProviderSymbol, asset.Unit, asset.Currency,
		nullFloat(asset.UpperThreshold), nullFloat(asset.LowerThreshold), asset.UpdatedAt, asset.ID)
	if err != nil {
		return apperrors.NewPersistenceError("asset.update", asset.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// DeleteAsset removes an asset by ID.
func (s *SQLiteStore) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return apperrors.NewPersistenceError("asset.delete", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// MarkAlerted persists last_alerted_at for one asset.
func (s *SQLiteStore) MarkAlerted(ctx context.Context, assetID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE assets SET last_alerted_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), assetID)
	if err != nil {
		return apperrors.NewPersistenceError("asset.mark_alerted", assetID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// --- Snapshots ---

// InsertSnapshot appends one price observation.
func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (asset_id, name, price, change_percent, unit, currency, raw, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.AssetID, snap.Name, snap.Price, snap.ChangePercent, snap.Unit, snap.Currency,
		string(snap.Raw), snap.TakenAt)
	if err != nil {
		return apperrors.NewPersistenceError("snapshot.insert", snap.AssetID, err)
	}
	snap.ID, _ = res.LastInsertId()
	return nil
}

// LatestSnapshot returns the most recent observation for an asset, or nil
// when the asset has never been observed.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context, assetID string) (*models.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, asset_id, name, price, change_percent, unit, currency, raw, taken_at
		FROM snapshots WHERE asset_id = ? ORDER BY taken_at DESC LIMIT 1`, assetID)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("snapshot.latest", assetID, err)
	}
	return snap, nil
}

// SnapshotHistory returns up to limit observations for an asset in
// chronological order.
func (s *SQLiteStore) SnapshotHistory(ctx context.Context, assetID string, limit int) ([]models.Snapshot, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asset_id, name, price, change_percent, unit, currency, raw, taken_at
		FROM snapshots WHERE asset_id = ? ORDER BY taken_at DESC LIMIT ?`, assetID, limit)
	if err != nil {
		return nil, apperrors.NewPersistenceError("snapshot.history", assetID, err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceError("snapshot.history", assetID, err)
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("snapshot.history", assetID, err)
	}

	// Query is newest-first for the index; callers want chronological.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

// --- Alert history ---

// InsertAlert appends one fired alert record.
func (s *SQLiteStore) InsertAlert(ctx context.Context, event *models.AlertEvent) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_history (asset_id, symbol, name, boundary, price, threshold, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.AssetID, event.Symbol, event.Name, string(event.Boundary),
		event.Price, event.Threshold, event.TriggeredAt)
	if err != nil {
		return apperrors.NewPersistenceError("alert.insert", event.Symbol, err)
	}
	event.ID, _ = res.LastInsertId()
	return nil
}

// ListAlerts returns a filtered, paginated page of alert history plus the
// total matching count.
func (s *SQLiteStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertEvent, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	var conds []string
	var args []interface{}
	if filter.AssetID != "" {
		conds = append(conds, "asset_id = ?")
		args = append(args, filter.AssetID)
	}
	if filter.Symbol != "" {
		conds = append(conds, "symbol = ? COLLATE NOCASE")
		args = append(args, filter.Symbol)
	}
	if filter.Boundary.Valid() {
		conds = append(conds, "boundary = ?")
		args = append(args, string(filter.Boundary))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_history`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewPersistenceError("alert.count", "alert_history", err)
	}

	query := `SELECT id, asset_id, symbol, name, boundary, price, threshold, triggered_at
		FROM alert_history` + where + ` ORDER BY triggered_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewPersistenceError("alert.list", "alert_history", err)
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var e models.AlertEvent
		var boundary string
		var threshold sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.AssetID, &e.Symbol, &e.Name, &boundary, &e.Price, &threshold, &e.TriggeredAt); err != nil {
			return nil, 0, apperrors.NewPersistenceError("alert.list", "alert_history", err)
		}
		e.Boundary = models.Boundary(boundary)
		e.Threshold = threshold.Float64
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var a models.Asset
	var unit, currency sql.NullString
	var upper, lower sql.NullFloat64
	var lastAlerted sql.NullTime

	err := row.Scan(&a.ID, &a.Name, &a.Symbol, &a.ProviderSymbol, &unit, &currency,
		&upper, &lower, &lastAlerted, &a.UserID, &a.IsGlobal, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Unit = unit.String
	a.Currency = currency.String
	if upper.Valid {
		v := upper.Float64
		a.UpperThreshold = &v
	}
	if lower.Valid {
		v := lower.Float64
		a.LowerThreshold = &v
	}
	if lastAlerted.Valid {
		t := lastAlerted.Time
		a.LastAlertedAt = &t
	}
	return &a, nil
}

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var s models.Snapshot
	var changePercent sql.NullFloat64
	var unit, currency, raw sql.NullString

	err := row.Scan(&s.ID, &s.AssetID, &s.Name, &s.Price, &changePercent, &unit, &currency, &raw, &s.TakenAt)
	if err != nil {
		return nil, err
	}

	s.ChangePercent = changePercent.Float64
	s.Unit = unit.String
	s.Currency = currency.String
	if raw.Valid {
		s.Raw = []byte(raw.String)
	}
	return &s, nil
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
