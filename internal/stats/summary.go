// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package stats

import (
	"errors"
	"fmt"

	"github.com/ajwhitfield/covidcache/internal/models"
)

// SummaryWeeks is the number of weekly snapshots behind an area summary.
const SummaryWeeks = 4

// ErrWeekCountMismatch aborts a summary merge when the weekly snapshots
// disagree on the area set. The upstream area set should be stable
// across the 4-week lookback; a mismatch is a data-quality anomaly and
// producing misaligned summaries would be worse than producing none.
var ErrWeekCountMismatch = errors.New("weekly snapshots differ in area count")

// AreaWeek is one area's cumulative snapshot for one week.
type AreaWeek struct {
	AreaCode        string
	AreaName        string
	AreaType        models.AreaType
	CumulativeCases int
	InfectionRate   float64
}

// MergeWeeklySnapshots merges four weekly snapshots (index 0 = most
// recent) into one summary row per area.
//
// Per area: the most recent week is the base row and fixes
// baseRate = infectionRate / cumulativeCases (0.0 for zero-case areas).
// New cases per week are backward differences of the cumulative counts —
// the oldest week diffs against a zero baseline — and new-case rates are
// a linear projection through the base rate, deliberately using the most
// recent week's rate-per-case ratio for every week so the rate column is
// comparable across weeks.
func MergeWeeklySnapshots(weeks [SummaryWeeks][]AreaWeek) ([]models.AreaSummary, error) {
	for i := 1; i < SummaryWeeks; i++ {
		if len(weeks[i]) != len(weeks[0]) {
			return nil, fmt.Errorf("week %d has %d areas, week 1 has %d: %w",
				i+1, len(weeks[i]), len(weeks[0]), ErrWeekCountMismatch)
		}
	}

	byCode := [SummaryWeeks]map[string]AreaWeek{}
	for i, week := range weeks {
		byCode[i] = make(map[string]AreaWeek, len(week))
		for _, aw := range week {
			byCode[i][aw.AreaCode] = aw
		}
	}

	summaries := make([]models.AreaSummary, 0, len(weeks[0]))
	for _, base := range weeks[0] {
		var (
			cumulative [SummaryWeeks]int
			rates      [SummaryWeeks]float64
		)
		cumulative[0] = base.CumulativeCases
		rates[0] = base.InfectionRate
		for i := 1; i < SummaryWeeks; i++ {
			aw, ok := byCode[i][base.AreaCode]
			if !ok {
				return nil, fmt.Errorf("area %s missing from week %d snapshot: %w",
					base.AreaCode, i+1, ErrWeekCountMismatch)
			}
			cumulative[i] = aw.CumulativeCases
			rates[i] = aw.InfectionRate
		}

		baseRate := BaseRate(base.InfectionRate, base.CumulativeCases)

		var newCases [SummaryWeeks]int
		for i := 0; i < SummaryWeeks-1; i++ {
			newCases[i] = cumulative[i] - cumulative[i+1]
		}
		newCases[SummaryWeeks-1] = cumulative[SummaryWeeks-1]

		summaries = append(summaries, models.AreaSummary{
			AreaCode: base.AreaCode,
			AreaName: base.AreaName,
			AreaType: base.AreaType,

			CumulativeCasesWeek1: cumulative[0],
			CumulativeCasesWeek2: cumulative[1],
			CumulativeCasesWeek3: cumulative[2],
			CumulativeCasesWeek4: cumulative[3],

			CumulativeCaseRateWeek1: rates[0],
			CumulativeCaseRateWeek2: rates[1],
			CumulativeCaseRateWeek3: rates[2],
			CumulativeCaseRateWeek4: rates[3],

			NewCasesWeek1: newCases[0],
			NewCasesWeek2: newCases[1],
			NewCasesWeek3: newCases[2],
			NewCasesWeek4: newCases[3],

			NewCaseRateWeek1: float64(newCases[0]) * baseRate,
			NewCaseRateWeek2: float64(newCases[1]) * baseRate,
			NewCaseRateWeek3: float64(newCases[2]) * baseRate,
			NewCaseRateWeek4: float64(newCases[3]) * baseRate,
		})
	}
	return summaries, nil
}
