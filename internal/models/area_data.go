// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

import "time"

// AreaData is one day of statistics for one area, keyed by (AreaCode, Date).
//
// The case series is always present for area types the dashboard publishes
// cases for; the three death series are independently nullable because not
// every area type carries every series (MSOAs have no death data at all,
// and ONS registration deaths exist only at nation/region/UTLA/LTLA level).
type AreaData struct {
	AreaCode string    `json:"areaCode"`
	AreaName string    `json:"areaName"`
	AreaType AreaType  `json:"areaType"`
	Date     time.Time `json:"date"`

	NewCases        *int     `json:"newCases"`
	CumulativeCases *int     `json:"cumulativeCases"`
	InfectionRate   *float64 `json:"infectionRate"`

	// Deaths by date the death was reported.
	NewDeathsByPublishedDate        *int     `json:"newDeathsByPublishedDate"`
	CumulativeDeathsByPublishedDate *int     `json:"cumulativeDeathsByPublishedDate"`
	DeathRateByPublishedDate        *float64 `json:"deathRateByPublishedDate"`

	// Deaths by date of death.
	NewDeathsByDeathDate        *int     `json:"newDeathsByDeathDate"`
	CumulativeDeathsByDeathDate *int     `json:"cumulativeDeathsByDeathDate"`
	DeathRateByDeathDate        *float64 `json:"deathRateByDeathDate"`

	// ONS deaths by registration date (certificate-mention basis).
	NewOnsDeathsByRegistrationDate        *int     `json:"newOnsDeathsByRegistrationDate"`
	CumulativeOnsDeathsByRegistrationDate *int     `json:"cumulativeOnsDeathsByRegistrationDate"`
	OnsDeathRateByRegistrationDate        *float64 `json:"onsDeathRateByRegistrationDate"`
}

// HasCaseData reports whether the row carries any case figures.
func (d *AreaData) HasCaseData() bool {
	return d.NewCases != nil || d.CumulativeCases != nil
}

// HasPublishedDeaths reports whether the published-date death series is present.
func (d *AreaData) HasPublishedDeaths() bool {
	return d.NewDeathsByPublishedDate != nil || d.CumulativeDeathsByPublishedDate != nil
}

// HasOnsDeaths reports whether the ONS registration-date death series is present.
func (d *AreaData) HasOnsDeaths() bool {
	return d.NewOnsDeathsByRegistrationDate != nil || d.CumulativeOnsDeathsByRegistrationDate != nil
}
