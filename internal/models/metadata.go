// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

import (
	"strings"
	"time"
)

// Metadata is the per-dataset sync watermark row.
//
// LastUpdatedAt carries the upstream Last-Modified value and drives
// conditional fetching (If-Modified-Since). LastSyncTime records when the
// local sync last ran and drives the staleness gate and time-based expiry.
type Metadata struct {
	ID            string    `json:"id"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastSyncTime  time.Time `json:"lastSyncTime"`
}

// Metadata IDs for datasets that are not keyed by an area code.
const (
	AreaListMetadataID    = "AREA_LIST_METADATA"
	AreaSummaryMetadataID = "AREA_SUMMARY_METADATA"
)

const metadataSuffix = "_METADATA"

// Per-area dataset kinds, used as metadata ID prefixes.
const (
	metadataPrefixArea       = "AREA_"
	metadataPrefixHealthcare = "HEALTHCARE_"
	metadataPrefixAlertLevel = "ALERT_LEVEL_"
	metadataPrefixSoa        = "SOA_"
	metadataPrefixLookup     = "LOOKUP_"
)

// AreaMetadataID returns the metadata ID for an area's daily data series,
// e.g. AREA_E09000001_METADATA.
func AreaMetadataID(areaCode string) string {
	return metadataPrefixArea + areaCode + metadataSuffix
}

// HealthcareMetadataID returns the metadata ID for an area's healthcare series.
func HealthcareMetadataID(areaCode string) string {
	return metadataPrefixHealthcare + areaCode + metadataSuffix
}

// AlertLevelMetadataID returns the metadata ID for an area's alert level data.
func AlertLevelMetadataID(areaCode string) string {
	return metadataPrefixAlertLevel + areaCode + metadataSuffix
}

// SoaMetadataID returns the metadata ID for an MSOA's small-area data.
func SoaMetadataID(areaCode string) string {
	return metadataPrefixSoa + areaCode + metadataSuffix
}

// LookupMetadataID returns the metadata ID for an area's lookup row.
func LookupMetadataID(areaCode string) string {
	return metadataPrefixLookup + areaCode + metadataSuffix
}

// MetadataKind identifies which dataset family a metadata ID belongs to.
type MetadataKind int

const (
	MetadataKindUnknown MetadataKind = iota
	MetadataKindAreaList
	MetadataKindAreaSummary
	MetadataKindAreaData
	MetadataKindHealthcare
	MetadataKindAlertLevel
	MetadataKindSoa
	MetadataKindLookup
)

// ParseMetadataID classifies a metadata ID and extracts the embedded area
// code where the dataset is area-keyed. The code is empty for the area
// list, the area summary and unrecognised IDs.
func ParseMetadataID(id string) (MetadataKind, string) {
	switch id {
	case AreaListMetadataID:
		return MetadataKindAreaList, ""
	case AreaSummaryMetadataID:
		return MetadataKindAreaSummary, ""
	}
	if !strings.HasSuffix(id, metadataSuffix) {
		return MetadataKindUnknown, ""
	}
	body := strings.TrimSuffix(id, metadataSuffix)
	for _, p := range []struct {
		prefix string
		kind   MetadataKind
	}{
		{metadataPrefixAlertLevel, MetadataKindAlertLevel},
		{metadataPrefixHealthcare, MetadataKindHealthcare},
		{metadataPrefixLookup, MetadataKindLookup},
		{metadataPrefixSoa, MetadataKindSoa},
		{metadataPrefixArea, MetadataKindAreaData},
	} {
		if strings.HasPrefix(body, p.prefix) {
			code := strings.TrimPrefix(body, p.prefix)
			if code == "" {
				return MetadataKindUnknown, ""
			}
			return p.kind, code
		}
	}
	return MetadataKindUnknown, ""
}
