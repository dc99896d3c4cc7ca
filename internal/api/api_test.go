// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/covidapi"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/models"
	"github.com/ajwhitfield/covidcache/internal/sync"
	"github.com/ajwhitfield/covidcache/internal/usecase"
)

type offlineConn struct{}

func (offlineConn) Reachable(context.Context) bool { return false }

var apiTestTime = time.Date(2020, 11, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()
	db, err := database.New(context.Background(), config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clk := clock.NewFake(apiTestTime)
	client := covidapi.New(covidapi.Options{BaseURL: "http://127.0.0.1:1/v1/data"})
	registry := sync.NewRegistry(db, client, offlineConn{}, clk, config.SyncConfig{
		Interval:        15 * time.Minute,
		RefreshInterval: time.Hour,
		RetryAttempts:   0,
		RetryDelay:      time.Millisecond,
		SummaryLagDays:  3,
	})
	manager := sync.NewManager(registry)

	router := NewRouter(db, usecase.NewService(db), usecase.NewRefresher(registry, manager), clk, config.APIConfig{
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv, db
}

func get(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	srv, db := newTestServer(t)
	checkSeed(t, db.UpsertMetadata(context.Background(), models.Metadata{
		ID:           models.AreaListMetadataID,
		LastSyncTime: time.Now(),
	}))

	var body map[string]any
	if status := get(t, srv.URL+"/healthz", &body); status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body: %+v", body)
	}
	if n, ok := body["datasets"].(float64); !ok || n != 1 {
		t.Errorf("datasets: got %v, want 1", body["datasets"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	if status := get(t, srv.URL+"/metrics", nil); status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
}

func TestListAreasWithTypeFilter(t *testing.T) {
	srv, db := newTestServer(t)
	checkSeed(t, db.UpsertAreas(context.Background(), []models.Area{
		{AreaCode: "E09000001", AreaName: "City of London", AreaType: models.AreaTypeLTLA},
		{AreaCode: models.CodeEngland, AreaName: "England", AreaType: models.AreaTypeNation},
	}, models.Metadata{ID: models.AreaListMetadataID, LastSyncTime: time.Now()}))

	var body struct {
		Areas []models.Area `json:"areas"`
		Count int           `json:"count"`
	}
	if status := get(t, srv.URL+"/api/v1/areas?type=ltla", &body); status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	if body.Count != 1 || body.Areas[0].AreaCode != "E09000001" {
		t.Errorf("filtered areas: %+v", body)
	}

	if status := get(t, srv.URL+"/api/v1/areas?type=galaxy", nil); status != http.StatusBadRequest {
		t.Errorf("bad type: got %d, want 400", status)
	}
}

func TestAreaSummaryNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	if status := get(t, srv.URL+"/api/v1/areas/E09000001/summary", nil); status != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", status)
	}
}

func TestSavedAreasLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"areaCode":"E09000001","areaName":"City of London","areaType":"ltla"}`
	resp, err := http.Post(srv.URL+"/api/v1/saved-areas", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST saved-areas: %v", err)
	}
	var created models.SavedArea
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created saved area: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d", resp.StatusCode)
	}
	// The save timestamp comes from the injected clock, not the wall clock.
	if !created.SavedAt.Equal(apiTestTime) {
		t.Errorf("saved at: got %v, want %v", created.SavedAt, apiTestTime)
	}

	var list struct {
		Count int `json:"count"`
	}
	get(t, srv.URL+"/api/v1/saved-areas", &list)
	if list.Count != 1 {
		t.Fatalf("saved count: got %d, want 1", list.Count)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/saved-areas/E09000001", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE saved-areas: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: got %d", resp.StatusCode)
	}

	get(t, srv.URL+"/api/v1/saved-areas", &list)
	if list.Count != 0 {
		t.Errorf("saved count after delete: got %d, want 0", list.Count)
	}
}

func TestSaveAreaValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, payload := range []string{
		`{"areaName":"x","areaType":"ltla"}`,
		`{"areaCode":"E1","areaName":"x","areaType":"galaxy"}`,
		`not json`,
	} {
		resp, err := http.Post(srv.URL+"/api/v1/saved-areas", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST saved-areas: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q: got %d, want 400", payload, resp.StatusCode)
		}
	}
}

func TestSyncAreaOfflineReturns503(t *testing.T) {
	srv, db := newTestServer(t)
	checkSeed(t, db.UpsertAreas(context.Background(), []models.Area{
		{AreaCode: "E09000001", AreaName: "City of London", AreaType: models.AreaTypeLTLA},
	}, models.Metadata{ID: models.AreaListMetadataID, LastSyncTime: time.Now()}))

	resp, err := http.Post(srv.URL+"/api/v1/areas/E09000001/sync", "application/json", nil)
	if err != nil {
		t.Fatalf("POST sync: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", resp.StatusCode)
	}
}

func TestSyncAreaUnknownWithoutType(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/v1/areas/E99999999/sync", "application/json", nil)
	if err != nil {
		t.Fatalf("POST sync: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestAreaDetailEmptyCache(t *testing.T) {
	srv, _ := newTestServer(t)
	var detail usecase.AreaDetail
	if status := get(t, srv.URL+"/api/v1/areas/E09000001", &detail); status != http.StatusOK {
		t.Fatalf("status: got %d", status)
	}
	if detail.Cases != nil {
		t.Errorf("case view present on empty cache: %+v", detail.Cases)
	}
}

func checkSeed(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
