// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package covidapi

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Filters selects the rows a query returns. Zero-valued fields are
// omitted from the rendered filter string.
type Filters struct {
	AreaType string
	AreaCode string
	Date     time.Time
}

// String renders the filters in the upstream API's semicolon-separated
// form, e.g. "areaType=ltla;areaCode=E09000001;date=2020-10-01".
func (f Filters) String() string {
	parts := make([]string, 0, 3)
	if f.AreaType != "" {
		parts = append(parts, "areaType="+f.AreaType)
	}
	if f.AreaCode != "" {
		parts = append(parts, "areaCode="+f.AreaCode)
	}
	if !f.Date.IsZero() {
		parts = append(parts, "date="+f.Date.Format("2006-01-02"))
	}
	return strings.Join(parts, ";")
}

// Request describes one paged query against the dashboard API.
type Request struct {
	Filters Filters

	// Structure is the field-selection parameter: a JSON object mapping
	// response field names to upstream metric names.
	Structure string

	// ModifiedSince, when non-zero, is sent as If-Modified-Since; the
	// upstream may then answer 304.
	ModifiedSince time.Time
}

// page is the upstream page envelope.
type page struct {
	Length       int               `json:"length"`
	MaxPageLimit int               `json:"maxPageLimit"`
	Data         []json.RawMessage `json:"data"`
}
