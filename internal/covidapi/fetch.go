// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package covidapi

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// FetchAll runs a paged query and decodes every row into T. The returned
// watermark is the response Last-Modified (zero when absent).
func FetchAll[T any](ctx context.Context, c *Client, req Request) ([]T, time.Time, error) {
	raw, lastModified, err := c.Query(ctx, req)
	if err != nil {
		return nil, time.Time{}, err
	}

	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var row T
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode row %d: %w", i, err)
		}
		out = append(out, row)
	}
	return out, lastModified, nil
}
