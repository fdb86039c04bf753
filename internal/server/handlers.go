package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"daily-tracker/internal/models"
	"daily-tracker/internal/store"

	apperrors "daily-tracker/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Asset configuration ---

type assetRequest struct {
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol"`
	ProviderSymbol string   `json:"providerSymbol"`
	Unit           string   `json:"unit"`
	Currency       string   `json:"currency"`
	UpperThreshold *float64 `json:"upperThreshold"`
	LowerThreshold *float64 `json:"lowerThreshold"`
	UserID         string   `json:"userId"`
	IsGlobal       bool     `json:"isGlobal"`
}

type assetResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Symbol         string     `json:"symbol"`
	ProviderSymbol string     `json:"providerSymbol"`
	Unit           string     `json:"unit,omitempty"`
	Currency       string     `json:"currency"`
	UpperThreshold *float64   `json:"upperThreshold"`
	LowerThreshold *float64   `json:"lowerThreshold"`
	LastAlertedAt  *time.Time `json:"lastAlertedAt"`
	UserID         string     `json:"userId,omitempty"`
	IsGlobal       bool       `json:"isGlobal"`
}

func toAssetResponse(a *models.Asset) assetResponse {
	return assetResponse{
		ID:             a.ID,
		Name:           a.Name,
		Symbol:         a.Symbol,
		ProviderSymbol: a.ProviderSymbol,
		Unit:           a.Unit,
		Currency:       a.Currency,
		UpperThreshold: a.UpperThreshold,
		LowerThreshold: a.LowerThreshold,
		LastAlertedAt:  a.LastAlertedAt,
		UserID:         a.UserID,
		IsGlobal:       a.IsGlobal,
	}
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.ListAssets(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list assets")
		writeError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	out := make([]assetResponse, 0, len(assets))
	for i := range assets {
		out = append(out, toAssetResponse(&assets[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Symbol == "" || req.ProviderSymbol == "" {
		writeError(w, http.StatusBadRequest, "name, symbol and providerSymbol are required")
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	asset := &models.Asset{
		Name:           req.Name,
		Symbol:         req.Symbol,
		ProviderSymbol: req.ProviderSymbol,
		Unit:           req.Unit,
		Currency:       req.Currency,
		UpperThreshold: req.UpperThreshold,
		LowerThreshold: req.LowerThreshold,
		UserID:         req.UserID,
		IsGlobal:       req.IsGlobal,
	}
	if err := s.store.CreateAsset(r.Context(), asset); err != nil {
		s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to create asset")
		writeError(w, http.StatusConflict, "failed to create asset")
		return
	}
	writeJSON(w, http.StatusCreated, toAssetResponse(asset))
}

// updateAssetRequest keeps the raw threshold values so an absent field can
// be told apart from an explicit null: absent leaves the stored value
// unchanged, null clears it.
type updateAssetRequest struct {
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	ProviderSymbol string          `json:"providerSymbol"`
	Unit           string          `json:"unit"`
	Currency       string          `json:"currency"`
	UpperThreshold json.RawMessage `json:"upperThreshold"`
	LowerThreshold json.RawMessage `json:"lowerThreshold"`
}

// applyThreshold interprets a raw threshold field: absent keeps the current
// value, null clears it, a number replaces it.
func applyThreshold(raw json.RawMessage, current **float64) error {
	if len(raw) == 0 {
		return nil
	}
	if string(raw) == "null" {
		*current = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*current = &v
	return nil
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	asset, err := s.store.GetAsset(r.Context(), id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAssetNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load asset")
		return
	}

	var req updateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Name != "" {
		asset.Name = req.Name
	}
	if req.Symbol != "" {
		asset.Symbol = req.Symbol
	}
	if req.ProviderSymbol != "" {
		asset.ProviderSymbol = req.ProviderSymbol
	}
	if req.Unit != "" {
		asset.Unit = req.Unit
	}
	if req.Currency != "" {
		asset.Currency = req.Currency
	}
	if err := applyThreshold(req.UpperThreshold, &asset.UpperThreshold); err != nil {
		writeError(w, http.StatusBadRequest, "upperThreshold must be a number or null")
		return
	}
	if err := applyThreshold(req.LowerThreshold, &asset.LowerThreshold); err != nil {
		writeError(w, http.StatusBadRequest, "lowerThreshold must be a number or null")
		return
	}

	if err := s.store.UpdateAsset(r.Context(), asset); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to update asset")
		writeError(w, http.StatusInternalServerError, "failed to update asset")
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteAsset(r.Context(), id); err != nil {
		if apperrors.Is(err, apperrors.ErrAssetNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Quote queries ---

type currentQuoteResponse struct {
	AssetID       string    `json:"assetId"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Unit          string    `json:"unit,omitempty"`
	Currency      string    `json:"currency"`
	ChangePercent float64   `json:"changePercent"`
	TakenAt       time.Time `json:"takenAt"`
}

func (s *Server) handleCurrentQuotes(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.ListAssets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}

	data := make([]currentQuoteResponse, 0, len(assets))
	for i := range assets {
		asset := &assets[i]
		snap, err := s.store.LatestSnapshot(r.Context(), asset.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", asset.Symbol).Msg("Failed to load latest snapshot")
			continue
		}
		if snap == nil {
			continue
		}
		data = append(data, currentQuoteResponse{
			AssetID:       asset.ID,
			Symbol:        asset.Symbol,
			Name:          asset.Name,
			Price:         snap.Price,
			Unit:          firstNonEmpty(snap.Unit, asset.Unit),
			Currency:      firstNonEmpty(snap.Currency, asset.Currency, "INR"),
			ChangePercent: snap.ChangePercent,
			TakenAt:       snap.TakenAt,
		})
	}
	writeJSON(w, http.StatusOK, data)
}

type snapshotResponse struct {
	ID            int64           `json:"id"`
	AssetID       string          `json:"assetId"`
	Name          string          `json:"name"`
	Price         float64         `json:"price"`
	ChangePercent float64         `json:"changePercent"`
	Unit          string          `json:"unit,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
	TakenAt       time.Time       `json:"takenAt"`
}

func (s *Server) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	snaps, err := s.store.SnapshotHistory(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	out := make([]snapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotResponse{
			ID:            snap.ID,
			AssetID:       snap.AssetID,
			Name:          snap.Name,
			Price:         snap.Price,
			ChangePercent: snap.ChangePercent,
			Unit:          snap.Unit,
			Currency:      snap.Currency,
			Raw:           snap.Raw,
			TakenAt:       snap.TakenAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Alert history ---

type alertHistoryResponse struct {
	Data       []models.AlertEvent `json:"data"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"totalPages"`
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.AlertFilter{
		AssetID:  q.Get("assetId"),
		Symbol:   q.Get("symbol"),
		Boundary: models.Boundary(q.Get("boundary")),
		Page:     1,
		PageSize: 20,
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page = n
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.PageSize = n
		}
	}
	if filter.PageSize > 200 {
		filter.PageSize = 200
	}

	events, total, err := s.store.ListAlerts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	if events == nil {
		events = []models.AlertEvent{}
	}

	totalPages := (total + filter.PageSize - 1) / filter.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	writeJSON(w, http.StatusOK, alertHistoryResponse{
		Data:       events,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// --- Manual trigger ---

func (s *Server) handleFetchNow(w http.ResponseWriter, r *http.Request) {
	if s.production {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err := s.scheduler.RunCycle(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "cycle failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
