package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
)

const defaultRefreshGrace = 30 * 24 * time.Hour

// HousekeepingService periodically deletes expired sessions, authorization
// codes, invites and app sessions so the tables stay bounded.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// RefreshGrace keeps an app session refreshable for this long after its
	// access token expired; only sessions older than that are swept. Zero
	// means thirty days.
	RefreshGrace time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService sets up the worker. An interval of zero or less
// defaults to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs each deletion independently; one failure does not stop the
// others.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	now := time.Now()

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("sweep sessions failed", "error", err)
	}
	if err := s.Store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx, now); err != nil {
		s.Logger.Error("sweep authorization codes failed", "error", err)
	}
	if err := s.Store.Invites().DeleteExpiredInvites(ctx, now); err != nil {
		s.Logger.Error("sweep invites failed", "error", err)
	}

	grace := s.RefreshGrace
	if grace <= 0 {
		grace = defaultRefreshGrace
	}
	if err := s.Store.AppSessions().DeleteExpiredAppSessions(ctx, now.Add(-grace)); err != nil {
		s.Logger.Error("sweep app sessions failed", "error", err)
	}

	s.Logger.Debug("housekeeping sweep completed")
}
