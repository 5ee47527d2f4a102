package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/employee-directory/internal/core/audit"
	pgdb "github.com/ogurasousui/employee-directory/internal/platform/db/postgres"
)

// AuditRepository は audit_logs テーブルへの追記と参照を提供します。更新・削除は提供しません。
type AuditRepository struct {
	pool pgdb.Queryer
}

// NewAuditRepository は AuditRepository を生成します。
func NewAuditRepository(pool pgdb.Queryer) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append は監査ログを一件追記します。社員の変更と同じトランザクションで呼び出してください。
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) (*audit.Entry, error) {
	if !entry.Action.Valid() {
		return nil, fmt.Errorf("postgres: unknown audit action %q", entry.Action)
	}

	oldValues, err := encodeSnapshot(entry.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := encodeSnapshot(entry.NewValues)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	saved := *entry
	if err := exec.QueryRow(ctx, `
        INSERT INTO audit_logs (employee_id, action, changed_by, old_values, new_values, timestamp, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `,
		entry.EmployeeID,
		string(entry.Action),
		entry.ChangedBy,
		oldValues,
		newValues,
		entry.Timestamp,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&saved.ID); err != nil {
		return nil, fmt.Errorf("postgres: insert audit log: %w", err)
	}
	return &saved, nil
}

// ListByEmployee は社員の監査ログを新しい順に返します。
func (r *AuditRepository) ListByEmployee(ctx context.Context, filter audit.ListFilter) ([]*audit.Entry, error) {
	if filter.Limit <= 0 {
		return nil, fmt.Errorf("postgres: audit limit must be positive")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, action, changed_by, old_values, new_values, timestamp, ip_address, user_agent
          FROM audit_logs
         WHERE employee_id = $1
         ORDER BY timestamp DESC, id DESC
         LIMIT $2
        OFFSET $3
    `, filter.EmployeeID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*audit.Entry, 0, filter.Limit)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list audit logs: %w", err)
	}
	return entries, nil
}

// CountByEmployee は社員の監査ログ件数を返します。
func (r *AuditRepository) CountByEmployee(ctx context.Context, employeeID int64) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE employee_id = $1`, employeeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count audit logs: %w", err)
	}
	return count, nil
}

func scanAuditEntry(row pgx.Row) (*audit.Entry, error) {
	var (
		e         audit.Entry
		action    string
		oldValues []byte
		newValues []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.EmployeeID,
		&action,
		&e.ChangedBy,
		&oldValues,
		&newValues,
		&e.Timestamp,
		&e.IPAddress,
		&e.UserAgent,
	); err != nil {
		return nil, fmt.Errorf("postgres: scan audit log: %w", err)
	}

	e.Action = audit.Action(action)
	e.Timestamp = e.Timestamp.UTC()

	var err error
	if e.OldValues, err = audit.DecodeSnapshot(oldValues); err != nil {
		return nil, fmt.Errorf("postgres: decode old_values of audit log %d: %w", e.ID, err)
	}
	if e.NewValues, err = audit.DecodeSnapshot(newValues); err != nil {
		return nil, fmt.Errorf("postgres: decode new_values of audit log %d: %w", e.ID, err)
	}
	return &e, nil
}

func encodeSnapshot(s *audit.Snapshot) (any, error) {
	b, err := s.Encode()
	if err != nil {
		return nil, fmt.Errorf("postgres: encode snapshot: %w", err)
	}
	if b == nil {
		return nil, nil
	}
	return json.RawMessage(b), nil
}
