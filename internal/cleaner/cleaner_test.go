// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package cleaner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ajwhitfield/covidcache/internal/clock"
	"github.com/ajwhitfield/covidcache/internal/config"
	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/models"
)

var cleanerTime = time.Date(2020, 11, 10, 12, 0, 0, 0, time.UTC)

func newTestCleaner(t *testing.T) (*Cleaner, *database.DB, *clock.Fake) {
	t.Helper()
	db, err := database.New(context.Background(), config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	clk := clock.NewFake(cleanerTime)
	c := New(db, clk, config.CleanerConfig{Interval: 6 * time.Hour, ExpiryCutoff: 48 * time.Hour})
	return c, db, clk
}

func checkNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

func strPtr(s string) *string { return &s }

// cityOfLondonLookup is the containing-area chain for the City of
// London LTLA: London region, England, with NHS codes.
func cityOfLondonLookup() models.AreaLookup {
	return models.AreaLookup{
		LsoaCode: "E01000001", LsoaName: "City of London 001A",
		MsoaCode: "E02000001", MsoaName: "City of London 001",
		LtlaCode: "E09000001", LtlaName: "City of London",
		UtlaCode: "E09000001", UtlaName: "City of London",
		RegionCode: strPtr("E12000007"), RegionName: strPtr("London"),
		NhsTrustCode: strPtr("RF4"), NhsTrustName: strPtr("Barking, Havering and Redbridge"),
		NhsRegionCode: strPtr("E40000003"), NhsRegionName: strPtr("London NHS Region"),
		NationCode: models.CodeEngland, NationName: "England",
	}
}

func seedAreaData(t *testing.T, db *database.DB, areaCode string, syncTime time.Time) {
	t.Helper()
	rows := []models.AreaData{{
		AreaCode: areaCode,
		AreaName: areaCode,
		AreaType: models.AreaTypeLTLA,
		Date:     time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC),
	}}
	meta := models.Metadata{
		ID:            models.AreaMetadataID(areaCode),
		LastUpdatedAt: syncTime,
		LastSyncTime:  syncTime,
	}
	checkNoError(t, db.ReplaceAreaData(context.Background(), areaCode, rows, meta), "seed area data")
}

func saveArea(t *testing.T, db *database.DB, areaCode string, areaType models.AreaType) {
	t.Helper()
	checkNoError(t, db.SaveArea(context.Background(), models.SavedArea{
		AreaCode: areaCode,
		AreaName: areaCode,
		AreaType: areaType,
		SavedAt:  cleanerTime,
	}), "save area")
}

func TestPruneKeepsSavedChainAndNationals(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	saveArea(t, db, "E09000001", models.AreaTypeLTLA)
	checkNoError(t, db.UpsertAreaLookup(ctx, cityOfLondonLookup(), models.Metadata{
		ID:           models.LookupMetadataID("E09000001"),
		LastSyncTime: cleanerTime,
	}), "seed lookup")

	// Saved area, its containing areas, a national code and one area
	// nothing justifies.
	seedAreaData(t, db, "E09000001", cleanerTime)
	seedAreaData(t, db, "E12000007", cleanerTime)
	seedAreaData(t, db, models.CodeEngland, cleanerTime)
	seedAreaData(t, db, models.CodeUK, cleanerTime)
	seedAreaData(t, db, "E09000002", cleanerTime)

	counts, err := c.PruneUnreachable(ctx)
	checkNoError(t, err, "prune")
	if counts["area_data"] != 1 {
		t.Errorf("area_data deletes: got %d, want 1", counts["area_data"])
	}

	for _, code := range []string{"E09000001", "E12000007", models.CodeEngland, models.CodeUK} {
		rows, err := db.GetAreaData(ctx, code)
		checkNoError(t, err, "read "+code)
		if len(rows) == 0 {
			t.Errorf("reachable area %s was pruned", code)
		}
	}
	if rows, _ := db.GetAreaData(ctx, "E09000002"); len(rows) != 0 {
		t.Error("unreachable area E09000002 survived the prune")
	}
	if _, err := db.GetMetadata(ctx, models.AreaMetadataID("E09000002")); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("unreachable metadata survived: %v", err)
	}
	if _, err := db.GetAreaLookup(ctx, "E01000001"); err != nil {
		t.Errorf("saved area's lookup was pruned: %v", err)
	}
}

func TestPruneKeepsAuxiliaryDatasetsOfSavedArea(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	saveArea(t, db, "E09000001", models.AreaTypeLTLA)
	checkNoError(t, db.UpsertAreaLookup(ctx, cityOfLondonLookup(), models.Metadata{
		ID:           models.LookupMetadataID("E09000001"),
		LastSyncTime: cleanerTime,
	}), "seed lookup")

	hcRow := func(code string) []models.Healthcare {
		return []models.Healthcare{{
			AreaCode: code, AreaName: code, AreaType: models.AreaTypeNHSRegion,
			Date: time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC),
		}}
	}
	checkNoError(t, db.ReplaceHealthcare(ctx, "E40000003", hcRow("E40000003"), models.Metadata{
		ID: models.HealthcareMetadataID("E40000003"), LastSyncTime: cleanerTime,
	}), "seed nhs region healthcare")
	checkNoError(t, db.ReplaceHealthcare(ctx, "E40000099", hcRow("E40000099"), models.Metadata{
		ID: models.HealthcareMetadataID("E40000099"), LastSyncTime: cleanerTime,
	}), "seed orphan healthcare")

	soa := []models.SoaData{{
		AreaCode: "E02000001", AreaName: "City of London 001",
		Date: time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC),
	}}
	checkNoError(t, db.ReplaceSoaData(ctx, "E02000001", soa, models.Metadata{
		ID: models.SoaMetadataID("E02000001"), LastSyncTime: cleanerTime,
	}), "seed soa")

	alert := []models.AlertLevel{{
		AreaCode: "E09000001", AreaName: "City of London",
		Date: time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC), AlertLevel: 2,
	}}
	checkNoError(t, db.ReplaceAlertLevels(ctx, "E09000001", alert, models.Metadata{
		ID: models.AlertLevelMetadataID("E09000001"), LastSyncTime: cleanerTime,
	}), "seed alert level")

	_, err := c.PruneUnreachable(ctx)
	checkNoError(t, err, "prune")

	if rows, _ := db.GetHealthcare(ctx, "E40000003"); len(rows) == 0 {
		t.Error("NHS region healthcare for the saved area was pruned")
	}
	if rows, _ := db.GetHealthcare(ctx, "E40000099"); len(rows) != 0 {
		t.Error("orphan healthcare survived the prune")
	}
	if rows, _ := db.GetSoaData(ctx, "E02000001"); len(rows) == 0 {
		t.Error("MSOA data for the saved area was pruned")
	}
	if lvl, _ := db.GetLatestAlertLevel(ctx, "E09000001"); lvl == nil {
		t.Error("alert level for the saved area was pruned")
	}
}

func TestPruneKeepsAssociatedDependencies(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	// Saved area with no lookup row yet, only a recorded dependency edge.
	saveArea(t, db, "E09000001", models.AreaTypeLTLA)
	checkNoError(t, db.InsertAssociation(ctx, models.AreaAssociation{
		AreaCode:           "E09000001",
		AssociatedAreaCode: "E12000007",
		AssociationType:    models.AssociationAreaData,
	}), "record association")

	seedAreaData(t, db, "E12000007", cleanerTime)

	_, err := c.PruneUnreachable(ctx)
	checkNoError(t, err, "prune")

	if rows, _ := db.GetAreaData(ctx, "E12000007"); len(rows) == 0 {
		t.Error("associated dependency was pruned")
	}
}

func TestPruneKeepsTrustMappedHealthcare(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	// A saved bare trust code has no geographic lookup chain; only the
	// trust-to-region mapping justifies its healthcare series.
	saveArea(t, db, "RF4", models.AreaTypeNHSTrust)
	checkNoError(t, db.UpsertHealthcareLookup(ctx, models.HealthcareLookup{
		NhsTrustCode: "RF4", NhsTrustName: "Barking, Havering and Redbridge",
		NhsRegionCode: "E40000003", NhsRegionName: "London NHS Region",
	}), "seed healthcare lookup")

	hcRow := func(code string, at models.AreaType) []models.Healthcare {
		return []models.Healthcare{{
			AreaCode: code, AreaName: code, AreaType: at,
			Date: time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC),
		}}
	}
	checkNoError(t, db.ReplaceHealthcare(ctx, "RF4", hcRow("RF4", models.AreaTypeNHSTrust), models.Metadata{
		ID: models.HealthcareMetadataID("RF4"), LastSyncTime: cleanerTime,
	}), "seed trust healthcare")
	checkNoError(t, db.ReplaceHealthcare(ctx, "E40000003", hcRow("E40000003", models.AreaTypeNHSRegion), models.Metadata{
		ID: models.HealthcareMetadataID("E40000003"), LastSyncTime: cleanerTime,
	}), "seed region healthcare")
	checkNoError(t, db.ReplaceHealthcare(ctx, "E40000099", hcRow("E40000099", models.AreaTypeNHSRegion), models.Metadata{
		ID: models.HealthcareMetadataID("E40000099"), LastSyncTime: cleanerTime,
	}), "seed orphan healthcare")

	_, err := c.PruneUnreachable(ctx)
	checkNoError(t, err, "prune")

	if rows, _ := db.GetHealthcare(ctx, "RF4"); len(rows) == 0 {
		t.Error("saved trust's healthcare was pruned")
	}
	if rows, _ := db.GetHealthcare(ctx, "E40000003"); len(rows) == 0 {
		t.Error("mapped NHS region healthcare was pruned")
	}
	if rows, _ := db.GetHealthcare(ctx, "E40000099"); len(rows) != 0 {
		t.Error("orphan healthcare survived the prune")
	}
}

func TestPruneWithNoSavedAreasKeepsFixedDatasets(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	seedAreaData(t, db, models.CodeUK, cleanerTime)
	seedAreaData(t, db, "E09000001", cleanerTime)
	checkNoError(t, db.UpsertMetadata(ctx, models.Metadata{
		ID: models.AreaListMetadataID, LastSyncTime: cleanerTime,
	}), "seed area list metadata")

	_, err := c.PruneUnreachable(ctx)
	checkNoError(t, err, "prune")

	if rows, _ := db.GetAreaData(ctx, models.CodeUK); len(rows) == 0 {
		t.Error("UK overview pruned with no saved areas")
	}
	if rows, _ := db.GetAreaData(ctx, "E09000001"); len(rows) != 0 {
		t.Error("unsaved area survived with no saved areas")
	}
	if _, err := db.GetMetadata(ctx, models.AreaListMetadataID); err != nil {
		t.Errorf("area list metadata pruned: %v", err)
	}
}

func TestExpireStaleDeletesOldDatasets(t *testing.T) {
	c, db, clk := newTestCleaner(t)
	ctx := context.Background()

	seedAreaData(t, db, "E09000001", cleanerTime.Add(-72*time.Hour))
	seedAreaData(t, db, "E09000002", cleanerTime.Add(-1*time.Hour))
	clk.Set(cleanerTime)

	counts, err := c.ExpireStale(ctx)
	checkNoError(t, err, "expire")
	if counts["metadata"] != 1 {
		t.Errorf("metadata deletes: got %d, want 1", counts["metadata"])
	}

	if rows, _ := db.GetAreaData(ctx, "E09000001"); len(rows) != 0 {
		t.Error("expired dataset survived")
	}
	if rows, _ := db.GetAreaData(ctx, "E09000002"); len(rows) == 0 {
		t.Error("fresh dataset was expired")
	}
}

func TestExpireStaleDeletesLookupChain(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	// Lookup metadata is keyed by the requested area code while the row
	// itself is keyed by LSOA; expiry must bridge the two.
	checkNoError(t, db.UpsertAreaLookup(ctx, cityOfLondonLookup(), models.Metadata{
		ID:           models.LookupMetadataID("E09000001"),
		LastSyncTime: cleanerTime.Add(-72 * time.Hour),
	}), "seed stale lookup")

	counts, err := c.ExpireStale(ctx)
	checkNoError(t, err, "expire")
	if counts["area_lookups"] != 1 {
		t.Errorf("area_lookups deletes: got %d, want 1", counts["area_lookups"])
	}

	if _, err := db.GetAreaLookup(ctx, "E01000001"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expired lookup row survived: %v", err)
	}
	if _, err := db.GetMetadata(ctx, models.LookupMetadataID("E09000001")); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expired lookup metadata survived: %v", err)
	}
}

func TestRunCombinesBothPasses(t *testing.T) {
	c, db, _ := newTestCleaner(t)
	ctx := context.Background()

	saveArea(t, db, "E09000001", models.AreaTypeLTLA)
	seedAreaData(t, db, "E09000001", cleanerTime.Add(-72*time.Hour))
	seedAreaData(t, db, "E09000002", cleanerTime)

	checkNoError(t, c.Run(ctx), "run")

	// E09000002 falls to reachability, E09000001 to expiry despite
	// being reachable.
	if rows, _ := db.GetAreaData(ctx, "E09000002"); len(rows) != 0 {
		t.Error("unreachable dataset survived the combined run")
	}
	if rows, _ := db.GetAreaData(ctx, "E09000001"); len(rows) != 0 {
		t.Error("stale reachable dataset survived the combined run")
	}
}
