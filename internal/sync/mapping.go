// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"fmt"
	"sort"

	"github.com/ajwhitfield/covidcache/internal/covidapi"
	"github.com/ajwhitfield/covidcache/internal/models"
)

// The upstream returns newest-first; cached series are stored and read
// oldest-first, so every mapper sorts ascending by date.

func dailyRowsToModels(rows []covidapi.DailyRow) ([]models.AreaData, error) {
	out := make([]models.AreaData, 0, len(rows))
	for _, r := range rows {
		date, err := covidapi.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("daily row for %s: %w", r.AreaCode, err)
		}
		out = append(out, models.AreaData{
			AreaCode: r.AreaCode,
			AreaName: r.AreaName,
			AreaType: models.AreaType(r.AreaType),
			Date:     date,

			NewCases:        r.NewCases,
			CumulativeCases: r.CumulativeCases,
			InfectionRate:   r.InfectionRate,

			NewDeathsByPublishedDate:        r.NewDeathsByPublishedDate,
			CumulativeDeathsByPublishedDate: r.CumulativeDeathsByPublishedDate,
			DeathRateByPublishedDate:        r.DeathRateByPublishedDate,

			NewDeathsByDeathDate:        r.NewDeathsByDeathDate,
			CumulativeDeathsByDeathDate: r.CumulativeDeathsByDeathDate,
			DeathRateByDeathDate:        r.DeathRateByDeathDate,

			NewOnsDeathsByRegistrationDate:        r.NewOnsDeathsByRegistrationDate,
			CumulativeOnsDeathsByRegistrationDate: r.CumulativeOnsDeathsByRegistrationDate,
			OnsDeathRateByRegistrationDate:        r.OnsDeathRateByRegistrationDate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func healthcareRowsToModels(rows []covidapi.HealthcareRow) ([]models.Healthcare, error) {
	out := make([]models.Healthcare, 0, len(rows))
	for _, r := range rows {
		date, err := covidapi.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("healthcare row for %s: %w", r.AreaCode, err)
		}
		out = append(out, models.Healthcare{
			AreaCode: r.AreaCode,
			AreaName: r.AreaName,
			AreaType: models.AreaType(r.AreaType),
			Date:     date,

			NewAdmissions:        r.NewAdmissions,
			CumulativeAdmissions: r.CumulativeAdmissions,
			HospitalCases:        r.HospitalCases,
			CovidOccupiedMVBeds:  r.CovidOccupiedMVBeds,

			TransmissionRateMin:       r.TransmissionRateMin,
			TransmissionRateMax:       r.TransmissionRateMax,
			TransmissionGrowthRateMin: r.TransmissionGrowthRateMin,
			TransmissionGrowthRateMax: r.TransmissionGrowthRateMax,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func alertLevelRowsToModels(rows []covidapi.AlertLevelRow) ([]models.AlertLevel, error) {
	out := make([]models.AlertLevel, 0, len(rows))
	for _, r := range rows {
		date, err := covidapi.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("alert level row for %s: %w", r.AreaCode, err)
		}
		out = append(out, models.AlertLevel{
			AreaCode:       r.AreaCode,
			AreaName:       r.AreaName,
			Date:           date,
			AlertLevel:     r.AlertLevel,
			AlertLevelName: r.AlertLevelName,
			AlertLevelURL:  r.AlertLevelURL,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func soaRowsToModels(rows []covidapi.SoaRow) ([]models.SoaData, error) {
	out := make([]models.SoaData, 0, len(rows))
	for _, r := range rows {
		date, err := covidapi.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("soa row for %s: %w", r.AreaCode, err)
		}
		out = append(out, models.SoaData{
			AreaCode: r.AreaCode,
			AreaName: r.AreaName,
			Date:     date,

			RollingSum:       r.RollingSum,
			RollingRate:      r.RollingRate,
			Change:           r.Change,
			Direction:        r.Direction,
			ChangePercentage: r.ChangePercentage,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func lookupRowToModel(r covidapi.LookupRow) models.AreaLookup {
	return models.AreaLookup{
		LsoaCode: r.LsoaCode,
		LsoaName: r.LsoaName,
		MsoaCode: r.MsoaCode,
		MsoaName: r.MsoaName,
		LtlaCode: r.LtlaCode,
		LtlaName: r.LtlaName,
		UtlaCode: r.UtlaCode,
		UtlaName: r.UtlaName,

		RegionCode:    r.RegionCode,
		RegionName:    r.RegionName,
		NhsTrustCode:  r.NhsTrustCode,
		NhsTrustName:  r.NhsTrustName,
		NhsRegionCode: r.NhsRegionCode,
		NhsRegionName: r.NhsRegionName,

		NationCode: r.NationCode,
		NationName: r.NationName,
	}
}
