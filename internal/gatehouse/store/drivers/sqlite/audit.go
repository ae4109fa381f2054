package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type auditLogRepo struct {
	db dbtx
}

func (r *auditLogRepo) AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, event_type, details, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Event, string(details), e.CreatedAt.Unix(),
	)
	return err
}

func (r *auditLogRepo) ListRecentAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, details, created_at FROM audit_log
		 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e         domain.AuditEntry
			details   string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Event, &details, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("decode audit details %s: %w", e.ID, err)
		}
		e.CreatedAt = unixToTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
