// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"errors"
	"time"
)

// ErrOffline is reported by synchronisers whose offline policy is
// OfflineFail when no network path to the source exists.
var ErrOffline = errors.New("source unreachable")

// Status is the terminal state of one synchroniser run.
type Status string

const (
	// StatusUpdated: fresh rows were fetched and written.
	StatusUpdated Status = "updated"

	// StatusNotModified: upstream confirmed the cache is current (304);
	// only last_sync_time moved.
	StatusNotModified Status = "not_modified"

	// StatusSkippedFresh: the staleness gate suppressed the fetch.
	StatusSkippedFresh Status = "skipped_fresh"

	// StatusSkippedOffline: no connectivity and the dataset's policy is
	// to silently no-op.
	StatusSkippedOffline Status = "skipped_offline"

	// StatusFailed: transport error, upstream error response or empty
	// body; the cache was left untouched.
	StatusFailed Status = "failed"
)

// Result captures one synchroniser run. Failures are recorded here
// rather than aborting sibling synchronisers.
type Result struct {
	Dataset  string        `json:"dataset"`
	Status   Status        `json:"status"`
	Rows     int           `json:"rows,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// Failed reports whether the run ended in error.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}
