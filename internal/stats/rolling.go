// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package stats holds the pure statistics builders: rolling averages,
// weekly summaries and the 4-week area summary merge. No I/O; callers
// pass ordered-by-date series in and get derived series out.
package stats

// DefaultRollingWindow is the trailing window used for chart smoothing.
const DefaultRollingWindow = 7

// RollingAverage produces a parallel series where each point is the mean
// of the trailing window ending at that point. The first window-1 points
// average over however many predecessors exist — no left padding — so
// the output length always equals the input length.
func RollingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// RollingAverageInts is RollingAverage over an integer series, with nil
// entries contributing zero. Daily new-case counts arrive as nullable
// integers from the cache.
func RollingAverageInts(values []*int, window int) []float64 {
	floats := make([]float64, len(values))
	for i, v := range values {
		if v != nil {
			floats[i] = float64(*v)
		}
	}
	return RollingAverage(floats, window)
}
