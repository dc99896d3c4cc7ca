// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

// ReachableSet is the snapshot of cache keys justified by the current
// saved-area set. The cleaner deletes every row outside it.
type ReachableSet struct {
	// AreaCodes keeps area_data rows and the areas list entries.
	AreaCodes map[string]struct{}

	// LookupCodes keeps area_lookups rows, keyed by LSOA code.
	LookupCodes map[string]struct{}

	// HealthcareCodes keeps healthcare rows (NHS trust/region plus
	// nation-level fallbacks).
	HealthcareCodes map[string]struct{}

	// AlertLevelCodes keeps alert_levels rows.
	AlertLevelCodes map[string]struct{}

	// SoaCodes keeps soa_data rows (MSOA codes).
	SoaCodes map[string]struct{}

	// MetadataIDs keeps metadata rows.
	MetadataIDs map[string]struct{}
}

// NewReachableSet returns an empty ReachableSet with all sets allocated.
func NewReachableSet() *ReachableSet {
	return &ReachableSet{
		AreaCodes:       make(map[string]struct{}),
		LookupCodes:     make(map[string]struct{}),
		HealthcareCodes: make(map[string]struct{}),
		AlertLevelCodes: make(map[string]struct{}),
		SoaCodes:        make(map[string]struct{}),
		MetadataIDs:     make(map[string]struct{}),
	}
}
