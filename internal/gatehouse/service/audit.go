package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const defaultAuditListLimit = 50

type AuditService struct {
	Store store.Store
}

// Record appends an audit entry. Failures are logged and counted, never
// returned: the audit write must not fail the action it describes.
func (s *AuditService) Record(ctx context.Context, event string, details domain.AuditDetails) {
	entry := domain.AuditEntry{
		ID:        idx.New().String(),
		Event:     event,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := s.Store.AuditLog().AppendAuditEntry(ctx, entry); err != nil {
		slogx.FromContext(ctx).Error("audit write failed",
			slog.String("event", event),
			slog.Any("error", err))
		metrics.AuditWriteFailuresTotal.Inc()
	}
}

// Recent returns the newest audit entries, capped at limit (default 50).
func (s *AuditService) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	return s.Store.AuditLog().ListRecentAuditEntries(ctx, limit)
}
