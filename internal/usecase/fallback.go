// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package usecase orchestrates reads for presentation: hierarchical
// fallback when an area lacks a series, derived-series assembly and
// on-demand refresh of one area's datasets.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/database"
	"github.com/ajwhitfield/covidcache/internal/models"
)

// ErrNoData means no candidate in the fallback chain had the series,
// the UK overview included.
var ErrNoData = errors.New("no data for area or any containing area")

// Service is the read-side orchestrator over the cache.
type Service struct {
	db *database.DB
}

// NewService creates a Service.
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// ResolvedSeries is a daily series together with the area it was
// actually read from, which may be a containing area when the requested
// one lacks the series.
type ResolvedSeries struct {
	AreaCode string            `json:"areaCode"`
	AreaName string            `json:"areaName"`
	AreaType models.AreaType   `json:"areaType"`
	Fallback bool              `json:"fallback"`
	Data     []models.AreaData `json:"data"`
}

// ResolvedHealthcare is the healthcare analogue of ResolvedSeries.
type ResolvedHealthcare struct {
	AreaCode string              `json:"areaCode"`
	AreaName string              `json:"areaName"`
	Fallback bool                `json:"fallback"`
	Data     []models.Healthcare `json:"data"`
}

// CasesFor resolves the case series for an area, falling back
// self -> region -> nation -> UK overview.
func (s *Service) CasesFor(ctx context.Context, areaCode string) (*ResolvedSeries, error) {
	return s.resolveSeries(ctx, areaCode, func(d *models.AreaData) bool { return d.HasCaseData() })
}

// PublishedDeathsFor resolves the published-date death series for an
// area with the same fallback chain as CasesFor.
func (s *Service) PublishedDeathsFor(ctx context.Context, areaCode string) (*ResolvedSeries, error) {
	return s.resolveSeries(ctx, areaCode, func(d *models.AreaData) bool { return d.HasPublishedDeaths() })
}

// OnsDeathsFor resolves the ONS registration-date death series for an
// area with the same fallback chain as CasesFor.
func (s *Service) OnsDeathsFor(ctx context.Context, areaCode string) (*ResolvedSeries, error) {
	return s.resolveSeries(ctx, areaCode, func(d *models.AreaData) bool { return d.HasOnsDeaths() })
}

func (s *Service) resolveSeries(ctx context.Context, areaCode string, present func(*models.AreaData) bool) (*ResolvedSeries, error) {
	chain, err := s.areaChain(ctx, areaCode)
	if err != nil {
		return nil, err
	}
	for i, code := range chain {
		rows, err := s.db.GetAreaData(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("read series for %s: %w", code, err)
		}
		kept := rows[:0]
		for j := range rows {
			if present(&rows[j]) {
				kept = append(kept, rows[j])
			}
		}
		if len(kept) == 0 {
			continue
		}
		return &ResolvedSeries{
			AreaCode: kept[0].AreaCode,
			AreaName: kept[0].AreaName,
			AreaType: kept[0].AreaType,
			Fallback: i > 0,
			Data:     kept,
		}, nil
	}
	return nil, ErrNoData
}

// areaChain returns the ordered fallback candidates for an area:
// self, containing region, containing nation, UK overview. Without a
// cached lookup the chain degrades to self then overview.
func (s *Service) areaChain(ctx context.Context, areaCode string) ([]string, error) {
	chain := []string{areaCode}
	appendCode := func(code string) {
		for _, c := range chain {
			if c == code {
				return
			}
		}
		chain = append(chain, code)
	}

	lookup, err := s.db.FindLookupByAreaCode(ctx, areaCode)
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("resolve lookup for %s: %w", areaCode, err)
	default:
		if lookup.RegionCode != nil && *lookup.RegionCode != "" {
			appendCode(*lookup.RegionCode)
		}
		if lookup.NationCode != "" {
			appendCode(lookup.NationCode)
		}
	}
	appendCode(models.CodeUK)
	return chain, nil
}

// HealthcareFor resolves the healthcare series for an area, falling
// back NHS trust -> NHS region -> nation -> UK overview. A bare trust
// code with no geographic lookup falls back through the trust-to-region
// healthcare lookup instead.
func (s *Service) HealthcareFor(ctx context.Context, areaCode string) (*ResolvedHealthcare, error) {
	chain, err := s.healthcareChain(ctx, areaCode)
	if err != nil {
		return nil, err
	}
	for i, code := range chain {
		rows, err := s.db.GetHealthcare(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("read healthcare for %s: %w", code, err)
		}
		if len(rows) == 0 {
			continue
		}
		return &ResolvedHealthcare{
			AreaCode: rows[0].AreaCode,
			AreaName: rows[0].AreaName,
			Fallback: i > 0,
			Data:     rows,
		}, nil
	}
	return nil, ErrNoData
}

func (s *Service) healthcareChain(ctx context.Context, areaCode string) ([]string, error) {
	var chain []string
	appendCode := func(code string) {
		if code == "" {
			return
		}
		for _, c := range chain {
			if c == code {
				return
			}
		}
		chain = append(chain, code)
	}

	lookup, err := s.db.FindLookupByAreaCode(ctx, areaCode)
	switch {
	case errors.Is(err, database.ErrNotFound):
		// Possibly a trust code requested directly: map it to its NHS
		// region through the healthcare lookup table.
		appendCode(areaCode)
		hls, err := s.db.ListHealthcareLookups(ctx)
		if err != nil {
			return nil, fmt.Errorf("list healthcare lookups: %w", err)
		}
		for _, hl := range hls {
			if hl.NhsTrustCode == areaCode {
				appendCode(hl.NhsRegionCode)
				break
			}
		}
	case err != nil:
		return nil, fmt.Errorf("resolve lookup for %s: %w", areaCode, err)
	default:
		for _, code := range lookup.HealthcareCodes() {
			appendCode(code)
		}
		appendCode(lookup.NationCode)
	}
	appendCode(models.CodeUK)
	return chain, nil
}
