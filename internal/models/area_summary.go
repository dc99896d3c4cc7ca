// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

// AreaSummary is the denormalised 4-week rollup behind the dashboard's
// top/rising rankings: one row per area, fully replaced on each summary
// sync. Week 1 is the most recent week.
type AreaSummary struct {
	AreaCode string   `json:"areaCode"`
	AreaName string   `json:"areaName"`
	AreaType AreaType `json:"areaType"`

	CumulativeCasesWeek1 int `json:"cumulativeCasesWeek1"`
	CumulativeCasesWeek2 int `json:"cumulativeCasesWeek2"`
	CumulativeCasesWeek3 int `json:"cumulativeCasesWeek3"`
	CumulativeCasesWeek4 int `json:"cumulativeCasesWeek4"`

	CumulativeCaseRateWeek1 float64 `json:"cumulativeCaseRateWeek1"`
	CumulativeCaseRateWeek2 float64 `json:"cumulativeCaseRateWeek2"`
	CumulativeCaseRateWeek3 float64 `json:"cumulativeCaseRateWeek3"`
	CumulativeCaseRateWeek4 float64 `json:"cumulativeCaseRateWeek4"`

	NewCasesWeek1 int `json:"newCasesWeek1"`
	NewCasesWeek2 int `json:"newCasesWeek2"`
	NewCasesWeek3 int `json:"newCasesWeek3"`
	NewCasesWeek4 int `json:"newCasesWeek4"`

	NewCaseRateWeek1 float64 `json:"newCaseRateWeek1"`
	NewCaseRateWeek2 float64 `json:"newCaseRateWeek2"`
	NewCaseRateWeek3 float64 `json:"newCaseRateWeek3"`
	NewCaseRateWeek4 float64 `json:"newCaseRateWeek4"`
}
