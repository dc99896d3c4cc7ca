// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/sync"
)

// SyncTrigger runs one full synchronisation pass.
type SyncTrigger interface {
	SyncAll(ctx context.Context) ([]sync.Result, error)
}

// SyncLoopService runs a sync pass immediately on start and then on a
// fixed interval. A pass that cannot even be assembled (cache down)
// surfaces as a service error so suture restarts the loop with backoff;
// individual dataset failures are already isolated inside the pass.
type SyncLoopService struct {
	trigger  SyncTrigger
	interval time.Duration
}

// NewSyncLoopService creates the periodic sync loop.
func NewSyncLoopService(trigger SyncTrigger, interval time.Duration) *SyncLoopService {
	return &SyncLoopService{trigger: trigger, interval: interval}
}

// Serve implements suture.Service.
func (s *SyncLoopService) Serve(ctx context.Context) error {
	if _, err := s.trigger.SyncAll(ctx); err != nil {
		return fmt.Errorf("sync pass: %w", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.trigger.SyncAll(ctx); err != nil {
				return fmt.Errorf("sync pass: %w", err)
			}
		}
	}
}

func (s *SyncLoopService) String() string { return "sync-loop" }

// CacheCleaner runs one cleaner pass.
type CacheCleaner interface {
	Run(ctx context.Context) error
}

// CleanerLoopService runs the cleaner on a fixed interval. The first
// pass waits one interval so a cold start syncs before it prunes.
type CleanerLoopService struct {
	cleaner  CacheCleaner
	interval time.Duration
}

// NewCleanerLoopService creates the periodic cleaner loop.
func NewCleanerLoopService(cleaner CacheCleaner, interval time.Duration) *CleanerLoopService {
	return &CleanerLoopService{cleaner: cleaner, interval: interval}
}

// Serve implements suture.Service. A failed pass is logged and retried
// on the next tick rather than restarting the service: the cleaner is
// housekeeping, not a correctness dependency of the read path.
func (s *CleanerLoopService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.cleaner.Run(ctx); err != nil {
				logging.Warn().Err(err).Msg("Cleaner pass failed; will retry next tick")
			}
		}
	}
}

func (s *CleanerLoopService) String() string { return "cleaner-loop" }

// HTTPServer matches *http.Server's lifecycle methods.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts an HTTP server's blocking ListenAndServe to
// suture's context-aware Serve.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps an HTTP server as a supervised service.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPServerService) String() string { return "http-server" }
