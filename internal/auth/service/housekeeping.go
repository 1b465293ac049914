package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/store"
)

// HousekeepingService periodically drops revocation entries for tokens that
// have expired anyway, along with stale phone verifications.
type HousekeepingService struct {
	Store    store.Store
	Registry revocation.Registry
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	started atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 24 hours.
func NewHousekeepingService(s store.Store, registry revocation.Registry, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &HousekeepingService{
		Store:    s,
		Registry: registry,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the worker. It runs one cleanup immediately and then once
// per Interval until Stop is called.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-progress cleanup to finish.
// It is a no-op if the worker was never started.
func (s *HousekeepingService) Stop() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanupTimeout bounds each prune so a hung backend cannot wedge Stop.
const cleanupTimeout = time.Minute

// cleanup runs each prune independently; one failing does not stop the other.
func (s *HousekeepingService) cleanup() {
	now := s.Now()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	pruned, err := s.Registry.Prune(ctx, now)
	cancel()
	if err != nil {
		s.Logger.Error("failed to prune revocation registry", slog.Any("error", err))
	}

	ctx, cancel = context.WithTimeout(context.Background(), cleanupTimeout)
	deleted, err := s.Store.PhoneVerifications().DeleteExpiredPhoneVerifications(ctx, now)
	cancel()
	if err != nil {
		s.Logger.Error("failed to delete expired phone verifications", slog.Any("error", err))
	}

	s.Logger.Info("housekeeping cleanup completed",
		slog.Int("revocations_pruned", pruned),
		slog.Int64("phone_verifications_deleted", deleted),
	)
}
