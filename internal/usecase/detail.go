// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/models"
	"github.com/ajwhitfield/covidcache/internal/stats"
)

// SeriesPoint is one charted day: the raw new value plus its trailing
// rolling average.
type SeriesPoint struct {
	Date           time.Time `json:"date"`
	Value          *int      `json:"value"`
	RollingAverage float64   `json:"rollingAverage"`
}

// SeriesView is one resolved series prepared for presentation: the
// source area (after fallback), the smoothed points and the weekly
// digest.
type SeriesView struct {
	AreaCode string          `json:"areaCode"`
	AreaName string          `json:"areaName"`
	AreaType models.AreaType `json:"areaType"`
	Fallback bool            `json:"fallback"`

	Points []SeriesPoint       `json:"points"`
	Weekly stats.WeeklySummary `json:"weekly"`
}

// AreaDetail is everything the area screen shows. Series the area (and
// its whole fallback chain) lacks are nil rather than an error.
type AreaDetail struct {
	AreaCode string `json:"areaCode"`

	Cases           *SeriesView `json:"cases"`
	DeathsPublished *SeriesView `json:"deathsPublished"`
	DeathsOns       *SeriesView `json:"deathsOns"`

	AlertLevel *models.AlertLevel  `json:"alertLevel,omitempty"`
	SoaData    []models.SoaData    `json:"soaData,omitempty"`
	Summary    *models.AreaSummary `json:"summary,omitempty"`
}

// AreaDetail assembles the full derived view for one area.
func (s *Service) AreaDetail(ctx context.Context, areaCode string) (*AreaDetail, error) {
	detail := &AreaDetail{AreaCode: areaCode}

	cases, err := s.CasesFor(ctx, areaCode)
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, err
	}
	if cases != nil {
		detail.Cases = buildSeriesView(cases,
			func(d *models.AreaData) *int { return d.NewCases },
			func(d *models.AreaData) (*float64, *int) { return d.InfectionRate, d.CumulativeCases })
	}

	deathsPub, err := s.PublishedDeathsFor(ctx, areaCode)
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, err
	}
	if deathsPub != nil {
		detail.DeathsPublished = buildSeriesView(deathsPub,
			func(d *models.AreaData) *int { return d.NewDeathsByPublishedDate },
			func(d *models.AreaData) (*float64, *int) {
				return d.DeathRateByPublishedDate, d.CumulativeDeathsByPublishedDate
			})
	}

	deathsOns, err := s.OnsDeathsFor(ctx, areaCode)
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, err
	}
	if deathsOns != nil {
		detail.DeathsOns = buildSeriesView(deathsOns,
			func(d *models.AreaData) *int { return d.NewOnsDeathsByRegistrationDate },
			func(d *models.AreaData) (*float64, *int) {
				return d.OnsDeathRateByRegistrationDate, d.CumulativeOnsDeathsByRegistrationDate
			})
	}

	if err := s.attachAuxiliary(ctx, areaCode, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// attachAuxiliary adds the alert level, MSOA series and summary row
// where the area's lookup chain carries them.
func (s *Service) attachAuxiliary(ctx context.Context, areaCode string, detail *AreaDetail) error {
	alertCode := areaCode
	soaCode := ""
	lookup, err := s.db.FindLookupByAreaCode(ctx, areaCode)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return fmt.Errorf("resolve lookup for %s: %w", areaCode, err)
	default:
		if lookup.LtlaCode != "" {
			alertCode = lookup.LtlaCode
		}
		soaCode = lookup.MsoaCode
	}

	alert, err := s.db.GetLatestAlertLevel(ctx, alertCode)
	if err != nil {
		return fmt.Errorf("read alert level for %s: %w", alertCode, err)
	}
	detail.AlertLevel = alert

	if soaCode != "" {
		soa, err := s.db.GetSoaData(ctx, soaCode)
		if err != nil {
			return fmt.Errorf("read soa data for %s: %w", soaCode, err)
		}
		detail.SoaData = soa
	}

	summary, err := s.db.GetAreaSummary(ctx, areaCode)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read summary for %s: %w", areaCode, err)
	default:
		detail.Summary = summary
	}
	return nil
}

// buildSeriesView smooths a resolved series and derives its weekly
// digest. latest non-nil rate/cumulative pair anchors the base rate.
func buildSeriesView(rs *ResolvedSeries, newValue func(*models.AreaData) *int, ratePair func(*models.AreaData) (*float64, *int)) *SeriesView {
	values := make([]*int, len(rs.Data))
	for i := range rs.Data {
		values[i] = newValue(&rs.Data[i])
	}
	rolling := stats.RollingAverageInts(values, stats.DefaultRollingWindow)

	points := make([]SeriesPoint, len(rs.Data))
	for i := range rs.Data {
		points[i] = SeriesPoint{
			Date:           rs.Data[i].Date,
			Value:          values[i],
			RollingAverage: rolling[i],
		}
	}

	var (
		latestRate float64
		latestCum  int
	)
	for i := len(rs.Data) - 1; i >= 0; i-- {
		rate, cum := ratePair(&rs.Data[i])
		if rate != nil && cum != nil {
			latestRate, latestCum = *rate, *cum
			break
		}
	}

	return &SeriesView{
		AreaCode: rs.AreaCode,
		AreaName: rs.AreaName,
		AreaType: rs.AreaType,
		Fallback: rs.Fallback,
		Points:   points,
		Weekly:   stats.BuildWeeklySummary(values, latestRate, latestCum),
	}
}
