// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/ajwhitfield/covidcache/internal/covidapi"
	"github.com/ajwhitfield/covidcache/internal/logging"
)

// retryWithBackoff runs fn up to attempts+1 times with exponential
// backoff between tries, waiting cancellably on the context. Permanent
// outcomes — not-modified, empty body, context cancellation — are never
// retried.
func retryWithBackoff(ctx context.Context, dataset string, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) || attempt >= attempts {
			return err
		}

		wait := delay * (1 << attempt)
		logging.Warn().
			Str("dataset", dataset).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Err(err).
			Msg("Fetch failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// isRetryable reports whether another fetch attempt could succeed.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, covidapi.ErrNotModified),
		errors.Is(err, covidapi.ErrEmptyBody),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	var he *covidapi.HTTPError
	if errors.As(err, &he) {
		// Client errors will not heal on retry; server errors might.
		return he.StatusCode >= 500
	}
	return true
}
