// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package covidapi

import (
	"fmt"
	"time"
)

// Structure parameters for each dataset. A structure maps the response
// field names this client decodes to the upstream metric names, so row
// types below unmarshal directly from page data.
const (
	// StructureAreas selects the area identity triple only.
	StructureAreas = `{"areaCode":"areaCode","areaName":"areaName","areaType":"areaType"}`

	// StructureDaily selects the full daily series: cases plus the three
	// death series.
	StructureDaily = `{` +
		`"date":"date",` +
		`"areaCode":"areaCode","areaName":"areaName","areaType":"areaType",` +
		`"newCases":"newCasesByPublishDate",` +
		`"cumulativeCases":"cumCasesByPublishDate",` +
		`"infectionRate":"cumCasesByPublishDateRate",` +
		`"newDeathsByPublishedDate":"newDeaths28DaysByPublishDate",` +
		`"cumulativeDeathsByPublishedDate":"cumDeaths28DaysByPublishDate",` +
		`"deathRateByPublishedDate":"cumDeaths28DaysByPublishDateRate",` +
		`"newDeathsByDeathDate":"newDeaths28DaysByDeathDate",` +
		`"cumulativeDeathsByDeathDate":"cumDeaths28DaysByDeathDate",` +
		`"deathRateByDeathDate":"cumDeaths28DaysByDeathDateRate",` +
		`"newOnsDeathsByRegistrationDate":"newOnsDeathsByRegistrationDate",` +
		`"cumulativeOnsDeathsByRegistrationDate":"cumOnsDeathsByRegistrationDate",` +
		`"onsDeathRateByRegistrationDate":"cumOnsDeathsByRegistrationDateRate"}`

	// StructureSummary selects the cumulative-case pair used by the
	// 4-week rollup.
	StructureSummary = `{` +
		`"areaCode":"areaCode","areaName":"areaName","areaType":"areaType",` +
		`"cumulativeCases":"cumCasesBySpecimenDate",` +
		`"infectionRate":"cumCasesBySpecimenDateRate"}`

	// StructureHealthcare selects hospital figures and transmission rates.
	StructureHealthcare = `{` +
		`"date":"date",` +
		`"areaCode":"areaCode","areaName":"areaName","areaType":"areaType",` +
		`"newAdmissions":"newAdmissions",` +
		`"cumulativeAdmissions":"cumAdmissions",` +
		`"hospitalCases":"hospitalCases",` +
		`"covidOccupiedMVBeds":"covidOccupiedMVBeds",` +
		`"transmissionRateMin":"transmissionRateMin",` +
		`"transmissionRateMax":"transmissionRateMax",` +
		`"transmissionRateGrowthRateMin":"transmissionRateGrowthRateMin",` +
		`"transmissionRateGrowthRateMax":"transmissionRateGrowthRateMax"}`

	// StructureAlertLevel selects the local alert tier.
	StructureAlertLevel = `{` +
		`"date":"date",` +
		`"areaCode":"areaCode","areaName":"areaName",` +
		`"alertLevel":"alertLevel",` +
		`"alertLevelName":"alertLevelName",` +
		`"alertLevelUrl":"alertLevelUrl"}`

	// StructureLookup selects the containing-area chain for a
	// fine-grained area.
	StructureLookup = `{` +
		`"lsoaCode":"lsoaCode","lsoaName":"lsoaName",` +
		`"msoaCode":"msoaCode","msoaName":"msoaName",` +
		`"ltlaCode":"ltlaCode","ltlaName":"ltlaName",` +
		`"utlaCode":"utlaCode","utlaName":"utlaName",` +
		`"regionCode":"regionCode","regionName":"regionName",` +
		`"nhsTrustCode":"nhsTrustCode","nhsTrustName":"nhsTrustName",` +
		`"nhsRegionCode":"nhsRegionCode","nhsRegionName":"nhsRegionName",` +
		`"nationCode":"nationCode","nationName":"nationName"}`

	// StructureSoa selects the MSOA weekly rolling figures.
	StructureSoa = `{` +
		`"date":"date",` +
		`"areaCode":"areaCode","areaName":"areaName",` +
		`"rollingSum":"newCasesBySpecimenDateRollingSum",` +
		`"rollingRate":"newCasesBySpecimenDateRollingRate",` +
		`"change":"newCasesBySpecimenDateChange",` +
		`"direction":"newCasesBySpecimenDateDirection",` +
		`"changePercentage":"newCasesBySpecimenDateChangePercentage"}`
)

// AreaRow is one row of the area list dataset.
type AreaRow struct {
	AreaCode string `json:"areaCode"`
	AreaName string `json:"areaName"`
	AreaType string `json:"areaType"`
}

// DailyRow is one row of an area's daily series.
type DailyRow struct {
	Date     string `json:"date"`
	AreaCode string `json:"areaCode"`
	AreaName string `json:"areaName"`
	AreaType string `json:"areaType"`

	NewCases        *int     `json:"newCases"`
	CumulativeCases *int     `json:"cumulativeCases"`
	InfectionRate   *float64 `json:"infectionRate"`

	NewDeathsByPublishedDate        *int     `json:"newDeathsByPublishedDate"`
	CumulativeDeathsByPublishedDate *int     `json:"cumulativeDeathsByPublishedDate"`
	DeathRateByPublishedDate        *float64 `json:"deathRateByPublishedDate"`

	NewDeathsByDeathDate        *int     `json:"newDeathsByDeathDate"`
	CumulativeDeathsByDeathDate *int     `json:"cumulativeDeathsByDeathDate"`
	DeathRateByDeathDate        *float64 `json:"deathRateByDeathDate"`

	NewOnsDeathsByRegistrationDate        *int     `json:"newOnsDeathsByRegistrationDate"`
	CumulativeOnsDeathsByRegistrationDate *int     `json:"cumulativeOnsDeathsByRegistrationDate"`
	OnsDeathRateByRegistrationDate        *float64 `json:"onsDeathRateByRegistrationDate"`
}

// SummaryRow is one area's cumulative-case snapshot for a single date.
type SummaryRow struct {
	AreaCode        string   `json:"areaCode"`
	AreaName        string   `json:"areaName"`
	AreaType        string   `json:"areaType"`
	CumulativeCases *int     `json:"cumulativeCases"`
	InfectionRate   *float64 `json:"infectionRate"`
}

// HealthcareRow is one row of an NHS area's hospital series.
type HealthcareRow struct {
	Date     string `json:"date"`
	AreaCode string `json:"areaCode"`
	AreaName string `json:"areaName"`
	AreaType string `json:"areaType"`

	NewAdmissions        *int `json:"newAdmissions"`
	CumulativeAdmissions *int `json:"cumulativeAdmissions"`
	HospitalCases        *int `json:"hospitalCases"`
	CovidOccupiedMVBeds  *int `json:"covidOccupiedMVBeds"`

	TransmissionRateMin       *float64 `json:"transmissionRateMin"`
	TransmissionRateMax       *float64 `json:"transmissionRateMax"`
	TransmissionGrowthRateMin *float64 `json:"transmissionRateGrowthRateMin"`
	TransmissionGrowthRateMax *float64 `json:"transmissionRateGrowthRateMax"`
}

// AlertLevelRow is one row of an area's alert-level dataset.
type AlertLevelRow struct {
	Date           string `json:"date"`
	AreaCode       string `json:"areaCode"`
	AreaName       string `json:"areaName"`
	AlertLevel     int    `json:"alertLevel"`
	AlertLevelName string `json:"alertLevelName"`
	AlertLevelURL  string `json:"alertLevelUrl"`
}

// SoaRow is one weekly rolling row for an MSOA.
type SoaRow struct {
	Date     string `json:"date"`
	AreaCode string `json:"areaCode"`
	AreaName string `json:"areaName"`

	RollingSum       *int     `json:"rollingSum"`
	RollingRate      *float64 `json:"rollingRate"`
	Change           *int     `json:"change"`
	Direction        *string  `json:"direction"`
	ChangePercentage *float64 `json:"changePercentage"`
}

// LookupRow is the containing-area chain for one fine-grained area.
type LookupRow struct {
	LsoaCode string `json:"lsoaCode"`
	LsoaName string `json:"lsoaName"`
	MsoaCode string `json:"msoaCode"`
	MsoaName string `json:"msoaName"`
	LtlaCode string `json:"ltlaCode"`
	LtlaName string `json:"ltlaName"`
	UtlaCode string `json:"utlaCode"`
	UtlaName string `json:"utlaName"`

	RegionCode    *string `json:"regionCode"`
	RegionName    *string `json:"regionName"`
	NhsTrustCode  *string `json:"nhsTrustCode"`
	NhsTrustName  *string `json:"nhsTrustName"`
	NhsRegionCode *string `json:"nhsRegionCode"`
	NhsRegionName *string `json:"nhsRegionName"`

	NationCode string `json:"nationCode"`
	NationName string `json:"nationName"`
}

// ParseDate parses the upstream date format (2006-01-02).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse upstream date %q: %w", s, err)
	}
	return t, nil
}
