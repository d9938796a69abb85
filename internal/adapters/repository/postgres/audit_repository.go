package postgres

import (
	"context"
	"fmt"

	"github.com/ksdhq/personnel/internal/core/audit"
	pgdb "github.com/ksdhq/personnel/internal/platform/db/postgres"
)

// AuditRepository は PostgreSQL を利用した操作ログの実装です。追記と記録順の
// 列挙のみを提供し、既存エントリの更新や削除は行いません。
type AuditRepository struct {
	pool pgdb.Queryer
}

// NewAuditRepository は AuditRepository を生成します。
func NewAuditRepository(pool pgdb.Queryer) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append は操作ログへエントリを 1 件追記します。
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        INSERT INTO audit_entries (id, recorded_at, kind, employee_id, description)
        VALUES ($1, $2, $3, $4, $5)
    `,
		entry.ID,
		entry.Timestamp,
		string(entry.Kind),
		entry.EmployeeID,
		entry.Description,
	); err != nil {
		return fmt.Errorf("postgres: append audit entry: %w", err)
	}
	return nil
}

// List は操作ログを記録順に列挙します。
func (r *AuditRepository) List(ctx context.Context) ([]*audit.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, recorded_at, kind, employee_id, description
          FROM audit_entries
         ORDER BY recorded_at ASC, id ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var (
			entry audit.Entry
			kind  string
		)
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &kind, &entry.EmployeeID, &entry.Description); err != nil {
			return nil, fmt.Errorf("postgres: scan audit entry: %w", err)
		}
		entry.Kind = audit.Kind(kind)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list audit entries: %w", err)
	}

	return entries, nil
}
