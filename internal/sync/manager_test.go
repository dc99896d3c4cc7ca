// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package sync

import (
	"context"
	"errors"
	"testing"
)

type stubSyncer struct {
	id     string
	result Result
	runs   int
}

func (s *stubSyncer) ID() string { return s.id }

func (s *stubSyncer) Sync(context.Context) Result {
	s.runs++
	r := s.result
	r.Dataset = s.id
	return r
}

type stubSource struct {
	syncers []Syncer
	err     error
}

func (s stubSource) BuildSyncers(context.Context) ([]Syncer, error) {
	return s.syncers, s.err
}

func TestSyncAllRunsEverySyncer(t *testing.T) {
	a := &stubSyncer{id: "A", result: Result{Status: StatusUpdated, Rows: 5}}
	b := &stubSyncer{id: "B", result: Result{Status: StatusNotModified}}
	c := &stubSyncer{id: "C", result: Result{Status: StatusSkippedFresh}}
	m := NewManager(stubSource{syncers: []Syncer{a, b, c}})

	results, err := m.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}
	for _, s := range []*stubSyncer{a, b, c} {
		if s.runs != 1 {
			t.Errorf("syncer %s ran %d times", s.id, s.runs)
		}
	}
	// Results keep source order despite concurrent execution.
	for i, want := range []string{"A", "B", "C"} {
		if results[i].Dataset != want {
			t.Errorf("result %d: got %s, want %s", i, results[i].Dataset, want)
		}
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	boom := errors.New("upstream exploded")
	failing := &stubSyncer{id: "BAD", result: Result{Status: StatusFailed, Err: boom}}
	healthy := &stubSyncer{id: "OK", result: Result{Status: StatusUpdated, Rows: 1}}
	m := NewManager(stubSource{syncers: []Syncer{failing, healthy}})

	results, err := m.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("a failed dataset must not fail the run: %v", err)
	}
	if healthy.runs != 1 {
		t.Error("healthy syncer skipped because a sibling failed")
	}
	if !results[0].Failed() || !errors.Is(results[0].Err, boom) {
		t.Errorf("failure not captured: %+v", results[0])
	}
	if results[1].Status != StatusUpdated {
		t.Errorf("healthy result: %+v", results[1])
	}
}

func TestSyncAllSourceError(t *testing.T) {
	srcErr := errors.New("lookup unavailable")
	m := NewManager(stubSource{err: srcErr})
	if _, err := m.SyncAll(context.Background()); !errors.Is(err, srcErr) {
		t.Fatalf("source error not surfaced: %v", err)
	}
}
