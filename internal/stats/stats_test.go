// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/ajwhitfield/covidcache/internal/models"
)

func checkFloat(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func intPtr(v int) *int { return &v }

func TestRollingAverageLengthInvariance(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7, 8, 30} {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i)
		}
		out := RollingAverage(values, 7)
		if len(out) != n {
			t.Errorf("length %d: output has %d points", n, len(out))
		}
	}
}

func TestRollingAveragePartialPrefix(t *testing.T) {
	out := RollingAverage([]float64{10, 20, 30}, 7)
	checkFloat(t, out[0], 10, "first point averages itself only")
	checkFloat(t, out[1], 15, "second point averages two values")
	checkFloat(t, out[2], 20, "third point averages three values")
}

func TestRollingAverageFullWindow(t *testing.T) {
	values := []float64{7, 7, 7, 7, 7, 7, 7, 14}
	out := RollingAverage(values, 7)
	checkFloat(t, out[6], 7, "full first window")
	// Trailing window at the last point covers days 2..8: six 7s and one 14.
	checkFloat(t, out[7], 8, "window slides off the first value")
}

func TestBuildWeeklySummaryAdditivity(t *testing.T) {
	// 14 days: earlier half all 2s, recent half all 5s.
	values := make([]*int, 0, 14)
	for i := 0; i < 7; i++ {
		values = append(values, intPtr(2))
	}
	for i := 0; i < 7; i++ {
		values = append(values, intPtr(5))
	}

	s := BuildWeeklySummary(values, 0, 0)
	if s.WeeklyTotal != 35 {
		t.Errorf("weekly total: got %d, want 35", s.WeeklyTotal)
	}
	if s.ChangeInTotal != 35-14 {
		t.Errorf("change in total: got %d, want 21", s.ChangeInTotal)
	}
}

func TestBuildWeeklySummaryPartialHistory(t *testing.T) {
	// 4 days of history: weekly total is a partial sum, the preceding
	// week is empty, and nothing errors.
	values := []*int{intPtr(1), intPtr(2), nil, intPtr(4)}
	s := BuildWeeklySummary(values, 0, 0)
	if s.WeeklyTotal != 7 {
		t.Errorf("partial weekly total: got %d, want 7", s.WeeklyTotal)
	}
	if s.ChangeInTotal != 7 {
		t.Errorf("change with no prior week: got %d, want 7", s.ChangeInTotal)
	}
}

func TestBuildWeeklySummaryRates(t *testing.T) {
	values := make([]*int, 14)
	for i := range values {
		values[i] = intPtr(10)
	}
	// base rate = 50 / 100 = 0.5
	s := BuildWeeklySummary(values, 50.0, 100)
	checkFloat(t, s.WeeklyRate, 70*0.5, "weekly rate")
	checkFloat(t, s.ChangeInRate, 0, "no change in rate")
}

func TestBaseRateZeroGuard(t *testing.T) {
	checkFloat(t, BaseRate(50.0, 0), 0.0, "zero cumulative yields zero base rate")
	checkFloat(t, BaseRate(50.0, 100), 0.5, "normal base rate")
}

func week(entries ...AreaWeek) []AreaWeek { return entries }

func TestMergeWeeklySnapshotsConcrete(t *testing.T) {
	// Week 1: cumulative 100, rate 50.0 -> base rate 0.5.
	// Week 2: cumulative 80 -> newCasesWeek1 = 20, rate 10.0.
	weeks := [SummaryWeeks][]AreaWeek{
		week(AreaWeek{AreaCode: "E09000001", AreaName: "City of London", AreaType: models.AreaTypeLTLA, CumulativeCases: 100, InfectionRate: 50.0}),
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 80, InfectionRate: 40.0}),
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 70, InfectionRate: 35.0}),
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 40, InfectionRate: 20.0}),
	}

	summaries, err := MergeWeeklySnapshots(weeks)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries: got %d, want 1", len(summaries))
	}
	s := summaries[0]

	if s.NewCasesWeek1 != 20 {
		t.Errorf("new cases week 1: got %d, want 20", s.NewCasesWeek1)
	}
	checkFloat(t, s.NewCaseRateWeek1, 10.0, "new case rate week 1")

	if s.NewCasesWeek2 != 10 || s.NewCasesWeek3 != 30 {
		t.Errorf("backward differences: week2=%d week3=%d", s.NewCasesWeek2, s.NewCasesWeek3)
	}
	if s.NewCasesWeek4 != 40 {
		t.Errorf("oldest week diffs against zero: got %d, want 40", s.NewCasesWeek4)
	}
	checkFloat(t, s.CumulativeCaseRateWeek3, 35.0, "older weeks keep their own cumulative rate")
}

func TestMergeWeeklySnapshotsZeroCaseArea(t *testing.T) {
	weeks := [SummaryWeeks][]AreaWeek{
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 0, InfectionRate: 50.0}),
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 0}),
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 0}),
		week(AreaWeek{AreaCode: "E09000001", CumulativeCases: 0}),
	}
	summaries, err := MergeWeeklySnapshots(weeks)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	s := summaries[0]
	for i, rate := range []float64{s.NewCaseRateWeek1, s.NewCaseRateWeek2, s.NewCaseRateWeek3, s.NewCaseRateWeek4} {
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			t.Errorf("week %d rate not guarded: %v", i+1, rate)
		}
		checkFloat(t, rate, 0.0, "zero-case area rate")
	}
}

func TestMergeWeeklySnapshotsCountMismatch(t *testing.T) {
	a := AreaWeek{AreaCode: "E09000001", CumulativeCases: 10}
	b := AreaWeek{AreaCode: "E09000002", CumulativeCases: 20}
	weeks := [SummaryWeeks][]AreaWeek{
		week(a, b),
		week(a),
		week(a, b),
		week(a, b),
	}
	if _, err := MergeWeeklySnapshots(weeks); !errors.Is(err, ErrWeekCountMismatch) {
		t.Fatalf("expected ErrWeekCountMismatch, got %v", err)
	}
}

func TestMergeWeeklySnapshotsMissingAreaSameCount(t *testing.T) {
	// Same row counts but a different area set is still a mismatch.
	a := AreaWeek{AreaCode: "E09000001", CumulativeCases: 10}
	c := AreaWeek{AreaCode: "E09000003", CumulativeCases: 30}
	weeks := [SummaryWeeks][]AreaWeek{
		week(a),
		week(c),
		week(a),
		week(a),
	}
	if _, err := MergeWeeklySnapshots(weeks); !errors.Is(err, ErrWeekCountMismatch) {
		t.Fatalf("expected ErrWeekCountMismatch, got %v", err)
	}
}
