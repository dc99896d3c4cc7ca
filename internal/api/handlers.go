// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/metrics"
	"github.com/ajwhitfield/covidcache/internal/models"
	"github.com/ajwhitfield/covidcache/internal/sync"
	"github.com/ajwhitfield/covidcache/internal/usecase"
)

const defaultSummaryLimit = 50

// Handler implements the API endpoints.
type Handler struct {
	db        *database.DB
	svc       *usecase.Service
	refresher *usecase.Refresher
	clock     clock.Clock
}

// NewHandler creates a Handler.
func NewHandler(db *database.DB, svc *usecase.Service, refresher *usecase.Refresher, clk clock.Clock) *Handler {
	return &Handler{db: db, svc: svc, refresher: refresher, clock: clk}
}

// Health reports liveness, cache connectivity and the number of cached
// datasets.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "cache": err.Error()})
		return
	}
	body := map[string]any{"status": "ok"}
	if ids, err := h.db.ListMetadataIDs(r.Context()); err == nil {
		body["datasets"] = len(ids)
	}
	writeJSON(w, http.StatusOK, body)
}

// ListAreas returns the searchable area list, optionally filtered by
// ?type=<areaType>.
func (h *Handler) ListAreas(w http.ResponseWriter, r *http.Request) {
	var areaType models.AreaType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := models.ParseAreaType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		areaType = t
	}

	areas, err := h.db.ListAreas(r.Context(), areaType)
	if err != nil {
		logging.Error().Err(err).Msg("List areas failed")
		writeError(w, http.StatusInternalServerError, "failed to list areas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"areas": areas, "count": len(areas)})
}

// AreaDetail returns the assembled derived view for one area.
func (h *Handler) AreaDetail(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	detail, err := h.svc.AreaDetail(r.Context(), code)
	if err != nil {
		logging.Error().Err(err).Str("area", code).Msg("Area detail failed")
		writeError(w, http.StatusInternalServerError, "failed to assemble area detail")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// AreaSummary returns one area's 4-week rollup row.
func (h *Handler) AreaSummary(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	summary, err := h.db.GetAreaSummary(r.Context(), code)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "no summary for area "+code)
	case err != nil:
		logging.Error().Err(err).Str("area", code).Msg("Area summary failed")
		writeError(w, http.StatusInternalServerError, "failed to read summary")
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

// ListSummaries returns the rollup rows ordered by latest weekly cases,
// bounded by ?limit=.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	limit := defaultSummaryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summaries, err := h.db.ListAreaSummaries(r.Context(), limit)
	if err != nil {
		logging.Error().Err(err).Msg("List summaries failed")
		writeError(w, http.StatusInternalServerError, "failed to list summaries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries, "count": len(summaries)})
}

// ListSavedAreas returns the pinned areas.
func (h *Handler) ListSavedAreas(w http.ResponseWriter, r *http.Request) {
	saved, err := h.db.ListSavedAreas(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("List saved areas failed")
		writeError(w, http.StatusInternalServerError, "failed to list saved areas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"savedAreas": saved, "count": len(saved)})
}

type saveAreaRequest struct {
	AreaCode string `json:"areaCode"`
	AreaName string `json:"areaName"`
	AreaType string `json:"areaType"`
}

// SaveArea pins an area so the background sync keeps it current.
func (h *Handler) SaveArea(w http.ResponseWriter, r *http.Request) {
	var req saveAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AreaCode == "" || req.AreaName == "" {
		writeError(w, http.StatusBadRequest, "areaCode and areaName are required")
		return
	}
	areaType, err := models.ParseAreaType(req.AreaType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sa := models.SavedArea{
		AreaCode: req.AreaCode,
		AreaName: req.AreaName,
		AreaType: areaType,
		SavedAt:  h.clock.Now().UTC(),
	}
	if err := h.db.SaveArea(r.Context(), sa); err != nil {
		logging.Error().Err(err).Str("area", req.AreaCode).Msg("Save area failed")
		writeError(w, http.StatusInternalServerError, "failed to save area")
		return
	}
	h.updateSavedAreasGauge(r)
	writeJSON(w, http.StatusCreated, sa)
}

// DeleteSavedArea unpins an area. The cleaner reclaims its datasets on
// the next pass.
func (h *Handler) DeleteSavedArea(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.db.DeleteSavedArea(r.Context(), code); err != nil {
		logging.Error().Err(err).Str("area", code).Msg("Delete saved area failed")
		writeError(w, http.StatusInternalServerError, "failed to delete saved area")
		return
	}
	h.updateSavedAreasGauge(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateSavedAreasGauge(r *http.Request) {
	if saved, err := h.db.ListSavedAreas(r.Context()); err == nil {
		metrics.SavedAreas.Set(float64(len(saved)))
	}
}

// SyncArea triggers an on-demand refresh of one area's datasets. The
// area type comes from the cached area list, or ?type= for areas not
// listed yet.
func (h *Handler) SyncArea(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var areaType models.AreaType
	area, err := h.db.GetArea(r.Context(), code)
	switch {
	case err == nil:
		areaType = area.AreaType
	case errors.Is(err, database.ErrNotFound):
		t, parseErr := models.ParseAreaType(r.URL.Query().Get("type"))
		if parseErr != nil {
			writeError(w, http.StatusNotFound, "unknown area "+code+"; pass ?type= for unlisted areas")
			return
		}
		areaType = t
	default:
		logging.Error().Err(err).Str("area", code).Msg("Resolve area failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve area")
		return
	}

	results, err := h.refresher.RefreshArea(r.Context(), code, areaType)
	if errors.Is(err, sync.ErrOffline) {
		writeError(w, http.StatusServiceUnavailable, "upstream unreachable")
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("area", code).Msg("Area refresh failed")
		writeError(w, http.StatusInternalServerError, "failed to refresh area")
		return
	}
	writeJSON(w, http.StatusOK, syncResponse(results))
}

// SyncAll triggers one full background synchronisation run.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.refresher.RefreshAll(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Full sync failed")
		writeError(w, http.StatusInternalServerError, "failed to run sync")
		return
	}
	writeJSON(w, http.StatusOK, syncResponse(results))
}

func syncResponse(results []sync.Result) map[string]any {
	var updated, failed int
	for _, res := range results {
		switch {
		case res.Status == sync.StatusUpdated:
			updated++
		case res.Failed():
			failed++
		}
	}
	return map[string]any{
		"datasets": len(results),
		"updated":  updated,
		"failed":   failed,
		"results":  results,
	}
}
