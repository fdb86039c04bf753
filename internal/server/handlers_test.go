package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daily-tracker/internal/alert"
	apperrors "daily-tracker/internal/errors"
	"daily-tracker/internal/models"
	"daily-tracker/internal/scheduler"
	"daily-tracker/internal/store"
	"daily-tracker/internal/stream"
)

type stubProvider struct {
	prices map[string]float64
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(ctx context.Context, providerSymbol string) (*models.Quote, error) {
	price, ok := s.prices[providerSymbol]
	if !ok {
		return nil, apperrors.NewProviderError(s.Name(), providerSymbol, apperrors.KindSymbolNotFound, apperrors.ErrSymbolNotFound)
	}
	return &models.Quote{Price: price, Currency: "INR"}, nil
}

type testEnv struct {
	server   *Server
	store    *store.SQLiteStore
	provider *stubProvider
	hub      *stream.Hub
}

func newTestEnv(t *testing.T, production bool) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	prov := &stubProvider{prices: map[string]float64{}}
	hub := stream.NewHub()
	dispatcher := alert.NewDispatcher(st, nil, hub, zerolog.Nop())
	sched := scheduler.New(st, prov, dispatcher, "", zerolog.Nop())

	srv := NewServer(":0", st, sched, hub, zerolog.Nop(), production)
	return &testEnv{server: srv, store: st, provider: prov, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestAssetLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, false)

	// Create.
	rec := env.do(t, http.MethodPost, "/api/assets", map[string]interface{}{
		"name":           "Gold",
		"symbol":         "GOLD",
		"providerSymbol": "XAU",
		"unit":           "per 10gm",
		"upperThreshold": 75000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID             string   `json:"id"`
		Currency       string   `json:"currency"`
		UpperThreshold *float64 `json:"upperThreshold"`
		LowerThreshold *float64 `json:"lowerThreshold"`
	}
	decodeJSON(t, rec, &created)
	if created.ID == "" {
		t.Fatal("created asset has no ID")
	}
	if created.Currency != "INR" {
		t.Errorf("default currency = %q, want INR", created.Currency)
	}
	if created.UpperThreshold == nil || *created.UpperThreshold != 75000 {
		t.Errorf("upperThreshold = %v, want 75000", created.UpperThreshold)
	}
	if created.LowerThreshold != nil {
		t.Errorf("lowerThreshold = %v, want null", created.LowerThreshold)
	}

	// List.
	rec = env.do(t, http.MethodGet, "/api/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var listed []json.RawMessage
	decodeJSON(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("listed %d assets, want 1", len(listed))
	}

	// Update: an omitted threshold is left untouched.
	rec = env.do(t, http.MethodPut, "/api/assets/"+created.ID, map[string]interface{}{
		"lowerThreshold": 70000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		UpperThreshold *float64 `json:"upperThreshold"`
		LowerThreshold *float64 `json:"lowerThreshold"`
	}
	decodeJSON(t, rec, &updated)
	if updated.UpperThreshold == nil || *updated.UpperThreshold != 75000 {
		t.Errorf("upperThreshold after update = %v, want 75000 untouched", updated.UpperThreshold)
	}
	if updated.LowerThreshold == nil || *updated.LowerThreshold != 70000 {
		t.Errorf("lowerThreshold after update = %v, want 70000", updated.LowerThreshold)
	}

	// Delete.
	rec = env.do(t, http.MethodDelete, "/api/assets/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/assets/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateAssetValidation(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing name", body: map[string]interface{}{"symbol": "GOLD", "providerSymbol": "XAU"}},
		{name: "missing symbol", body: map[string]interface{}{"name": "Gold", "providerSymbol": "XAU"}},
		{name: "missing providerSymbol", body: map[string]interface{}{"name": "Gold", "symbol": "GOLD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/assets", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	// Malformed JSON.
	req := httptest.NewRequest(http.MethodPost, "/api/assets", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", rec.Code)
	}
}

func TestUpdateThresholdSemantics(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	upper, lower := 75000.0, 70000.0
	asset := &models.Asset{
		Name: "Gold", Symbol: "GOLD", ProviderSymbol: "XAU", Currency: "INR",
		UpperThreshold: &upper, LowerThreshold: &lower,
	}
	if err := env.store.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	// A body touching neither threshold leaves both in place.
	rec := env.do(t, http.MethodPut, "/api/assets/"+asset.ID, map[string]interface{}{
		"name": "Gold 24K",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	got, err := env.store.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.UpperThreshold == nil || *got.UpperThreshold != 75000 {
		t.Errorf("omitted upperThreshold = %v, want 75000 unchanged", got.UpperThreshold)
	}
	if got.LowerThreshold == nil || *got.LowerThreshold != 70000 {
		t.Errorf("omitted lowerThreshold = %v, want 70000 unchanged", got.LowerThreshold)
	}

	// An explicit null clears exactly that threshold.
	rec = env.do(t, http.MethodPut, "/api/assets/"+asset.ID, map[string]interface{}{
		"upperThreshold": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	got, err = env.store.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.UpperThreshold != nil {
		t.Errorf("null upperThreshold = %v, want cleared", got.UpperThreshold)
	}
	if got.LowerThreshold == nil || *got.LowerThreshold != 70000 {
		t.Errorf("lowerThreshold = %v, want 70000 unchanged", got.LowerThreshold)
	}

	// A number replaces the value.
	rec = env.do(t, http.MethodPut, "/api/assets/"+asset.ID, map[string]interface{}{
		"upperThreshold": 80000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	got, err = env.store.GetAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.UpperThreshold == nil || *got.UpperThreshold != 80000 {
		t.Errorf("upperThreshold = %v, want 80000", got.UpperThreshold)
	}

	// Garbage in a threshold field is rejected.
	rec = env.do(t, http.MethodPut, "/api/assets/"+asset.ID, map[string]interface{}{
		"upperThreshold": "high",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric threshold status = %d, want 400", rec.Code)
	}
}

func TestUpdateMissingAsset(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodPut, "/api/assets/nope", map[string]interface{}{"name": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCurrentQuotesAndHistory(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	asset := &models.Asset{Name: "Gold", Symbol: "GOLD", ProviderSymbol: "XAU", Currency: "INR"}
	if err := env.store.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	// An asset that was never observed is absent from current quotes.
	bare := &models.Asset{Name: "Silver", Symbol: "SILVER", ProviderSymbol: "XAG", Currency: "INR"}
	if err := env.store.CreateAsset(ctx, bare); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snap := &models.Snapshot{
			AssetID: asset.ID,
			Name:    asset.Name,
			Price:   74000 + float64(i*100),
			TakenAt: base.Add(time.Duration(i) * 30 * time.Minute),
		}
		if err := env.store.InsertSnapshot(ctx, snap); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/quotes/current", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current status = %d, want 200", rec.Code)
	}
	var current []struct {
		AssetID string  `json:"assetId"`
		Symbol  string  `json:"symbol"`
		Price   float64 `json:"price"`
	}
	decodeJSON(t, rec, &current)
	if len(current) != 1 {
		t.Fatalf("current quotes = %d entries, want 1", len(current))
	}
	if current[0].Symbol != "GOLD" || current[0].Price != 74200 {
		t.Errorf("current quote = %+v, want GOLD at latest price 74200", current[0])
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/quotes/%s/history?limit=2", asset.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", rec.Code)
	}
	var history []struct {
		Price float64 `json:"price"`
	}
	decodeJSON(t, rec, &history)
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	// Chronological, trimmed to the newest observations.
	if history[0].Price != 74100 || history[1].Price != 74200 {
		t.Errorf("history prices = %+v, want [74100 74200]", history)
	}
}

func TestAlertHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	asset := &models.Asset{Name: "Gold", Symbol: "GOLD", ProviderSymbol: "XAU", Currency: "INR"}
	if err := env.store.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		event := &models.AlertEvent{
			AssetID:     asset.ID,
			Symbol:      asset.Symbol,
			Name:        asset.Name,
			Boundary:    models.BoundaryUpper,
			Price:       75000 + float64(i),
			Threshold:   75000,
			TriggeredAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := env.store.InsertAlert(ctx, event); err != nil {
			t.Fatalf("InsertAlert failed: %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/alerts/history?page=2&pageSize=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Data       []json.RawMessage `json:"data"`
		Page       int               `json:"page"`
		PageSize   int               `json:"pageSize"`
		Total      int               `json:"total"`
		TotalPages int               `json:"totalPages"`
	}
	decodeJSON(t, rec, &body)
	if body.Page != 2 || body.PageSize != 3 {
		t.Errorf("page/pageSize = %d/%d, want 2/3", body.Page, body.PageSize)
	}
	if body.Total != 7 || body.TotalPages != 3 {
		t.Errorf("total/totalPages = %d/%d, want 7/3", body.Total, body.TotalPages)
	}
	if len(body.Data) != 3 {
		t.Errorf("page 2 has %d rows, want 3", len(body.Data))
	}

	// Empty store still returns a well-formed page with an empty data array.
	empty := newTestEnv(t, false)
	rec = empty.do(t, http.MethodGet, "/api/alerts/history", nil)
	decodeJSON(t, rec, &body)
	if body.Data == nil || len(body.Data) != 0 {
		t.Errorf("empty history data = %v, want []", body.Data)
	}
	if body.TotalPages != 1 {
		t.Errorf("empty history totalPages = %d, want 1", body.TotalPages)
	}
}

func TestFetchNowTrigger(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	asset := &models.Asset{Name: "Gold", Symbol: "GOLD", ProviderSymbol: "XAU", Currency: "INR"}
	if err := env.store.CreateAsset(ctx, asset); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	env.provider.prices["XAU"] = 74000

	rec := env.do(t, http.MethodPost, "/api/admin/fetch-now", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	var body map[string]bool
	decodeJSON(t, rec, &body)
	if !body["success"] {
		t.Errorf("body = %v, want success true", body)
	}

	// The cycle ran synchronously: a snapshot exists.
	snaps, err := env.store.SnapshotHistory(ctx, asset.ID, 10)
	if err != nil {
		t.Fatalf("SnapshotHistory failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("snapshots after fetch-now = %d, want 1", len(snaps))
	}
}

func TestFetchNowForbiddenInProduction(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/admin/fetch-now", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["message"] != "Forbidden" {
		t.Errorf("message = %q, want Forbidden", body["message"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/api/admin/fetch-now", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
