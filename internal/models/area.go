// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package models defines the cached entities shared between the database,
// sync, cleaner and API layers: geographic areas, daily statistics series,
// summary rollups, sync metadata and the association edges the cleaner
// uses to compute reachability.
package models

import (
	"fmt"
	"time"
)

// AreaType classifies a UK geographic area, ordered from most aggregate
// (overview) to most granular (MSOA). The string values match the
// areaType filter values of the upstream dashboard API.
type AreaType string

const (
	AreaTypeOverview  AreaType = "overview"
	AreaTypeNation    AreaType = "nation"
	AreaTypeRegion    AreaType = "region"
	AreaTypeNHSRegion AreaType = "nhsRegion"
	AreaTypeNHSTrust  AreaType = "nhsTrust"
	AreaTypeUTLA      AreaType = "utla"
	AreaTypeLTLA      AreaType = "ltla"
	AreaTypeMSOA      AreaType = "msoa"
)

// ParseAreaType validates a string as an AreaType.
func ParseAreaType(s string) (AreaType, error) {
	switch AreaType(s) {
	case AreaTypeOverview, AreaTypeNation, AreaTypeRegion, AreaTypeNHSRegion,
		AreaTypeNHSTrust, AreaTypeUTLA, AreaTypeLTLA, AreaTypeMSOA:
		return AreaType(s), nil
	default:
		return "", fmt.Errorf("unknown area type %q", s)
	}
}

// IsValid reports whether t is a known area type.
func (t AreaType) IsValid() bool {
	_, err := ParseAreaType(string(t))
	return err == nil
}

// Fixed top-level national area codes. These are always reachable
// regardless of the saved-area set.
const (
	CodeUK              = "K02000001"
	CodeEngland         = "E92000001"
	CodeNorthernIreland = "N92000002"
	CodeScotland        = "S92000003"
	CodeWales           = "W92000004"
)

// NationalCodes returns the UK overview code plus the four nation codes.
func NationalCodes() []string {
	return []string{CodeUK, CodeEngland, CodeNorthernIreland, CodeScotland, CodeWales}
}

// Area is a UK geographic area known to the cache.
type Area struct {
	AreaCode string   `json:"areaCode"`
	AreaName string   `json:"areaName"`
	AreaType AreaType `json:"areaType"`
}

// SavedArea is an area the user pinned. Saved areas form the root set for
// cache reachability.
type SavedArea struct {
	AreaCode string    `json:"areaCode"`
	AreaName string    `json:"areaName"`
	AreaType AreaType  `json:"areaType"`
	SavedAt  time.Time `json:"savedAt"`
}
