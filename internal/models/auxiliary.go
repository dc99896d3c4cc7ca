// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package models

import "time"

// Healthcare is one day of hospital statistics for an NHS area, keyed by
// (AreaCode, Date). All figure fields are nullable because the dashboard
// publishes different subsets per area type.
type Healthcare struct {
	AreaCode string    `json:"areaCode"`
	AreaName string    `json:"areaName"`
	AreaType AreaType  `json:"areaType"`
	Date     time.Time `json:"date"`

	NewAdmissions        *int `json:"newAdmissions"`
	CumulativeAdmissions *int `json:"cumulativeAdmissions"`
	HospitalCases        *int `json:"hospitalCases"`
	CovidOccupiedMVBeds  *int `json:"covidOccupiedMVBeds"`

	TransmissionRateMin       *float64 `json:"transmissionRateMin"`
	TransmissionRateMax       *float64 `json:"transmissionRateMax"`
	TransmissionGrowthRateMin *float64 `json:"transmissionRateGrowthRateMin"`
	TransmissionGrowthRateMax *float64 `json:"transmissionRateGrowthRateMax"`
}

// AlertLevel is the local COVID alert tier for an area on a date.
type AlertLevel struct {
	AreaCode       string    `json:"areaCode"`
	AreaName       string    `json:"areaName"`
	Date           time.Time `json:"date"`
	AlertLevel     int       `json:"alertLevel"`
	AlertLevelName string    `json:"alertLevelName"`
	AlertLevelURL  string    `json:"alertLevelUrl"`
}

// SoaData is a weekly rolling figure for an MSOA, keyed by
// (AreaCode, Date) where Date is the week-ending date. The dashboard
// suppresses small counts, in which case the rolling fields are nil.
type SoaData struct {
	AreaCode string    `json:"areaCode"`
	AreaName string    `json:"areaName"`
	Date     time.Time `json:"date"`

	RollingSum       *int     `json:"rollingSum"`
	RollingRate      *float64 `json:"rollingRate"`
	Change           *int     `json:"change"`
	Direction        *string  `json:"direction"`
	ChangePercentage *float64 `json:"changePercentage"`
}
