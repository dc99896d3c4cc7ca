// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package covidapi

import (
	"errors"
	"fmt"
)

// ErrNotModified is returned when the upstream answers 304 for a
// conditional fetch. The caller's cache is current; no body was sent.
var ErrNotModified = errors.New("upstream data not modified")

// ErrEmptyBody is returned when the upstream answers 2xx with no rows.
// Synchronisers treat it like an upstream error: no cache write occurs.
var ErrEmptyBody = errors.New("upstream response contained no rows")

// HTTPError is a non-2xx upstream response. It is distinguishable from
// transport failures (which are returned as wrapped *url.Error values)
// and from ErrNotModified.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned %s", e.Status)
}

// IsHTTPError reports whether err is a non-2xx upstream response.
func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}
