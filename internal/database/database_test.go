// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func checkNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func dateUTC(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

func sampleAreaData(areaCode string, dates ...time.Time) []models.AreaData {
	rows := make([]models.AreaData, 0, len(dates))
	for i, d := range dates {
		rows = append(rows, models.AreaData{
			AreaCode:        areaCode,
			AreaName:        "Test Area",
			AreaType:        models.AreaTypeLTLA,
			Date:            d,
			NewCases:        intPtr(10 + i),
			CumulativeCases: intPtr(100 + i),
			InfectionRate:   floatPtr(50.0),
		})
	}
	return rows
}

func TestReplaceAreaDataRefusesEmpty(t *testing.T) {
	db := newTestDB(t)
	err := db.ReplaceAreaData(context.Background(), "E09000001", nil, models.Metadata{
		ID: models.AreaMetadataID("E09000001"), LastSyncTime: time.Now(),
	})
	if !errors.Is(err, ErrEmptyReplace) {
		t.Fatalf("expected ErrEmptyReplace, got %v", err)
	}
}

func TestReplaceAreaDataIsFullReplacement(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	meta := models.Metadata{
		ID:            models.AreaMetadataID("E09000001"),
		LastUpdatedAt: dateUTC(2020, 11, 1),
		LastSyncTime:  dateUTC(2020, 11, 2),
	}

	first := sampleAreaData("E09000001", dateUTC(2020, 10, 1), dateUTC(2020, 10, 2), dateUTC(2020, 10, 3))
	checkNoError(t, db.ReplaceAreaData(ctx, "E09000001", first, meta), "first replace")

	// The second sync drops one date and revises another; no row from the
	// first sync may survive outside the new set.
	second := sampleAreaData("E09000001", dateUTC(2020, 10, 2), dateUTC(2020, 10, 3))
	second[0].NewCases = intPtr(99)
	checkNoError(t, db.ReplaceAreaData(ctx, "E09000001", second, meta), "second replace")

	got, err := db.GetAreaData(ctx, "E09000001")
	checkNoError(t, err, "get area data")
	if len(got) != 2 {
		t.Fatalf("rows after replace: got %d, want 2", len(got))
	}
	if !got[0].Date.Equal(dateUTC(2020, 10, 2)) || *got[0].NewCases != 99 {
		t.Errorf("revised row not reflected: %+v", got[0])
	}
}

func TestReplaceAreaDataWritesMetadataAtomically(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	id := models.AreaMetadataID("E09000001")
	meta := models.Metadata{ID: id, LastUpdatedAt: dateUTC(2020, 11, 1), LastSyncTime: dateUTC(2020, 11, 2)}

	checkNoError(t, db.ReplaceAreaData(ctx, "E09000001", sampleAreaData("E09000001", dateUTC(2020, 10, 1)), meta), "replace")

	got, err := db.GetMetadata(ctx, id)
	checkNoError(t, err, "get metadata")
	if !got.LastUpdatedAt.Equal(meta.LastUpdatedAt) || !got.LastSyncTime.Equal(meta.LastSyncTime) {
		t.Errorf("metadata round-trip: got %+v", got)
	}
}

func TestTouchMetadataSyncTimePreservesWatermark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	id := models.AreaMetadataID("E09000001")
	checkNoError(t, db.UpsertMetadata(ctx, models.Metadata{
		ID: id, LastUpdatedAt: dateUTC(2020, 11, 1), LastSyncTime: dateUTC(2020, 11, 2),
	}), "upsert metadata")

	touched := dateUTC(2020, 11, 3)
	checkNoError(t, db.TouchMetadataSyncTime(ctx, id, touched), "touch")

	got, err := db.GetMetadata(ctx, id)
	checkNoError(t, err, "get metadata")
	if !got.LastUpdatedAt.Equal(dateUTC(2020, 11, 1)) {
		t.Errorf("watermark moved: %v", got.LastUpdatedAt)
	}
	if !got.LastSyncTime.Equal(touched) {
		t.Errorf("sync time not bumped: %v", got.LastSyncTime)
	}
}

func TestTouchMetadataSyncTimeMissingRow(t *testing.T) {
	db := newTestDB(t)
	err := db.TouchMetadataSyncTime(context.Background(), "AREA_E09000001_METADATA", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSavedAreaRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	checkNoError(t, db.SaveArea(ctx, models.SavedArea{
		AreaCode: "E09000001", AreaName: "City of London", AreaType: models.AreaTypeLTLA, SavedAt: dateUTC(2020, 11, 1),
	}), "save area")

	saved, err := db.ListSavedAreas(ctx)
	checkNoError(t, err, "list saved areas")
	if len(saved) != 1 || saved[0].AreaCode != "E09000001" {
		t.Fatalf("saved areas: %+v", saved)
	}

	checkNoError(t, db.DeleteSavedArea(ctx, "E09000001"), "delete saved area")
	saved, err = db.ListSavedAreas(ctx)
	checkNoError(t, err, "list saved areas after delete")
	if len(saved) != 0 {
		t.Errorf("saved areas after delete: %+v", saved)
	}
}

func TestPruneUnreachable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	meta := func(id string) models.Metadata {
		return models.Metadata{ID: id, LastSyncTime: dateUTC(2020, 11, 1)}
	}

	for _, code := range []string{"E09000001", "E09000002", "E12000007", "E92000001"} {
		checkNoError(t, db.ReplaceAreaData(ctx, code,
			sampleAreaData(code, dateUTC(2020, 10, 1)), meta(models.AreaMetadataID(code))), "seed "+code)
	}

	reachable := models.NewReachableSet()
	for _, code := range []string{"E09000001", "E12000007", "E92000001"} {
		reachable.AreaCodes[code] = struct{}{}
		reachable.MetadataIDs[models.AreaMetadataID(code)] = struct{}{}
	}

	counts, err := db.PruneUnreachable(ctx, reachable)
	checkNoError(t, err, "prune")
	if counts["area_data"] != 1 {
		t.Errorf("area_data deletions: got %d, want 1", counts["area_data"])
	}
	if counts["metadata"] != 1 {
		t.Errorf("metadata deletions: got %d, want 1", counts["metadata"])
	}

	if rows, _ := db.GetAreaData(ctx, "E09000002"); len(rows) != 0 {
		t.Errorf("unreachable area data survived: %+v", rows)
	}
	if rows, _ := db.GetAreaData(ctx, "E09000001"); len(rows) != 1 {
		t.Errorf("reachable area data deleted")
	}
}

func TestExpireDatasets(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := models.Metadata{ID: models.AreaMetadataID("E09000001"), LastSyncTime: dateUTC(2020, 10, 1)}
	fresh := models.Metadata{ID: models.AreaMetadataID("E09000002"), LastSyncTime: dateUTC(2020, 11, 1)}
	checkNoError(t, db.ReplaceAreaData(ctx, "E09000001", sampleAreaData("E09000001", dateUTC(2020, 9, 30)), old), "seed old")
	checkNoError(t, db.ReplaceAreaData(ctx, "E09000002", sampleAreaData("E09000002", dateUTC(2020, 10, 30)), fresh), "seed fresh")

	cutoff := dateUTC(2020, 10, 30)
	counts, err := db.ExpireDatasets(ctx, cutoff)
	checkNoError(t, err, "expire")
	if counts["metadata"] != 1 || counts["area_data"] != 1 {
		t.Errorf("expire counts: %v", counts)
	}

	if _, err := db.GetMetadata(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("expired metadata survived")
	}
	if _, err := db.GetMetadata(ctx, fresh.ID); err != nil {
		t.Errorf("fresh metadata deleted: %v", err)
	}
	if rows, _ := db.GetAreaData(ctx, "E09000001"); len(rows) != 0 {
		t.Error("expired area data survived")
	}
}

func TestAreaLookupRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	region := "E12000007"
	l := models.AreaLookup{
		LsoaCode: "E01000001", LsoaName: "City of London 001A",
		MsoaCode: "E02000001", MsoaName: "City of London 001",
		LtlaCode: "E09000001", LtlaName: "City of London",
		UtlaCode: "E09000001", UtlaName: "City of London",
		RegionCode: &region, RegionName: strPtr("London"),
		NationCode: models.CodeEngland, NationName: "England",
	}
	checkNoError(t, db.UpsertAreaLookup(ctx, l, models.Metadata{
		ID: models.LookupMetadataID("E01000001"), LastSyncTime: dateUTC(2020, 11, 1),
	}), "upsert lookup")

	got, err := db.FindLookupByAreaCode(ctx, "E09000001")
	checkNoError(t, err, "find lookup by ltla code")
	if got.LsoaCode != "E01000001" || *got.RegionCode != "E12000007" {
		t.Errorf("lookup round-trip: %+v", got)
	}

	if _, err := db.FindLookupByAreaCode(ctx, "E09000099"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got %v", err)
	}
}

func TestAreaLookupFeedsHealthcareLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	l := models.AreaLookup{
		LsoaCode: "E01000001", LsoaName: "City of London 001A",
		MsoaCode: "E02000001", MsoaName: "City of London 001",
		LtlaCode: "E09000001", LtlaName: "City of London",
		UtlaCode: "E09000001", UtlaName: "City of London",
		NhsTrustCode: strPtr("RF4"), NhsTrustName: strPtr("Barking, Havering and Redbridge"),
		NhsRegionCode: strPtr("E40000003"), NhsRegionName: strPtr("London NHS Region"),
		NationCode: models.CodeEngland, NationName: "England",
	}
	checkNoError(t, db.UpsertAreaLookup(ctx, l, models.Metadata{
		ID: models.LookupMetadataID("E09000001"), LastSyncTime: dateUTC(2020, 11, 1),
	}), "upsert lookup")

	hls, err := db.ListHealthcareLookups(ctx)
	checkNoError(t, err, "list healthcare lookups")
	if len(hls) != 1 || hls[0].NhsTrustCode != "RF4" || hls[0].NhsRegionCode != "E40000003" {
		t.Errorf("trust-to-region mapping not written: %+v", hls)
	}
}

func strPtr(s string) *string { return &s }
