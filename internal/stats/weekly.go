// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package stats

// WeeklySummary is the trailing 7/14-day digest shown on summary cards.
type WeeklySummary struct {
	// WeeklyTotal is the sum of the last 7 days' new values.
	WeeklyTotal int `json:"weeklyTotal"`

	// ChangeInTotal is WeeklyTotal minus the preceding 7 days' sum.
	ChangeInTotal int `json:"changeInTotal"`

	// WeeklyRate projects WeeklyTotal through the base rate.
	WeeklyRate float64 `json:"weeklyRate"`

	// ChangeInRate projects ChangeInTotal through the base rate.
	ChangeInRate float64 `json:"changeInRate"`
}

// BaseRate is rate per cumulative unit, guarded against zero cumulative:
// a zero-case area yields 0.0 rather than propagating Inf/NaN.
func BaseRate(rate float64, cumulative int) float64 {
	if cumulative == 0 {
		return 0.0
	}
	return rate / float64(cumulative)
}

// BuildWeeklySummary computes the trailing sums over a series of daily
// new values ordered by date ascending, with nil entries contributing
// zero. Fewer than 7 or 14 days of history yields partial sums, not an
// error: the summary degrades gracefully for areas with short history.
//
// The rate fields follow the backward-difference-times-base-rate pattern:
// baseRate is derived from the latest cumulative/rate pair and projects
// the weekly totals onto the rate scale.
func BuildWeeklySummary(newValues []*int, latestRate float64, latestCumulative int) WeeklySummary {
	latestWeek := trailingSum(newValues, 0, 7)
	previousWeek := trailingSum(newValues, 7, 7)
	base := BaseRate(latestRate, latestCumulative)

	change := latestWeek - previousWeek
	return WeeklySummary{
		WeeklyTotal:   latestWeek,
		ChangeInTotal: change,
		WeeklyRate:    float64(latestWeek) * base,
		ChangeInRate:  float64(change) * base,
	}
}

// trailingSum sums up to length values ending `offset` days before the
// end of the series. Missing days contribute zero.
func trailingSum(values []*int, offset, length int) int {
	end := len(values) - offset
	if end <= 0 {
		return 0
	}
	start := end - length
	if start < 0 {
		start = 0
	}
	var sum int
	for _, v := range values[start:end] {
		if v != nil {
			sum += *v
		}
	}
	return sum
}
