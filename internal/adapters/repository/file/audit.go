package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ksdhq/personnel/internal/core/audit"
)

// AuditLog は JSON Lines 形式の追記専用操作ログです。既存行の書き換えや
// 切り詰めは行いません。
type AuditLog struct {
	path string
}

// NewAuditLog は AuditLog を生成します。
func NewAuditLog(path string) (*AuditLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file: audit log path is required")
	}
	return &AuditLog{path: path}, nil
}

type auditRecord struct {
	ID          string    `json:"id"`
	RecordedAt  time.Time `json:"recorded_at"`
	Kind        string    `json:"kind"`
	EmployeeID  string    `json:"employee_id"`
	Description string    `json:"description"`
}

// Append は操作ログへエントリを 1 行追記します。ファイルハンドルは
// 操作ごとに取得し、必ず解放します。
func (l *AuditLog) Append(_ context.Context, entry *audit.Entry) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file: create audit dir: %w", err)
		}
	}

	b, err := json.Marshal(auditRecord{
		ID:          entry.ID,
		RecordedAt:  entry.Timestamp,
		Kind:        string(entry.Kind),
		EmployeeID:  entry.EmployeeID,
		Description: entry.Description,
	})
	if err != nil {
		return fmt.Errorf("file: encode audit entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("file: open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("file: append audit entry: %w", err)
	}
	return f.Sync()
}

// List は操作ログを記録順に列挙します。
func (l *AuditLog) List(_ context.Context) ([]*audit.Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: open audit log: %w", err)
	}
	defer f.Close()

	var entries []*audit.Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec auditRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("file: parse audit entry: %w", err)
		}

		entries = append(entries, &audit.Entry{
			ID:          rec.ID,
			Timestamp:   rec.RecordedAt,
			Kind:        audit.Kind(rec.Kind),
			EmployeeID:  rec.EmployeeID,
			Description: rec.Description,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("file: read audit log: %w", err)
	}

	return entries, nil
}
