// Package file は単一の JSON ドキュメントを記録媒体とする社員レコード
// ストアの実装です。各操作はレコードセット全体を読み込み、変更し、一時
// ファイルへの書き込みと rename でアトミックに書き戻します。単一プロセス・
// 単一セッションでの利用を前提とし、同じファイルを外部プロセスが同時に
// 変更することはサポート外です。
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ksdhq/personnel/internal/core/employee"
)

// Store は employee.Repository のファイル実装です。
type Store struct {
	path      string
	backupDir string
}

// NewStore は Store を生成します。backupDir が空の場合はデータファイルと
// 同じディレクトリ直下の backups が使われます。
func NewStore(path, backupDir string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file: store path is required")
	}
	if strings.TrimSpace(backupDir) == "" {
		backupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	return &Store{path: path, backupDir: backupDir}, nil
}

// employeeRecord は 1 社員分の永続化レイアウトです。Kind は読み込み時の
// 多相復元に必須の型タグです。
type employeeRecord struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Department  string          `json:"department"`
	Phone       string          `json:"phone"`
	YearStarted int             `json:"year_started"`
	BaseSalary  float64         `json:"base_salary"`
	TeamSize    int             `json:"team_size,omitempty"`
	Office      string          `json:"office,omitempty"`
	Projects    []projectRecord `json:"projects,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type projectRecord struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

type document struct {
	Employees []employeeRecord `json:"employees"`
}

// Create は社員レコードを追加します。
func (s *Store) Create(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.ID == e.ID {
			return nil, employee.ErrEmployeeAlreadyExists
		}
	}

	records = append(records, toRecord(e))
	if err := s.save(records); err != nil {
		return nil, err
	}

	return e.Clone(), nil
}

// Update は既存の社員レコードを丸ごと置き換えます。
func (s *Store) Update(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	replaced := false
	for i, rec := range records {
		if rec.ID == e.ID {
			records[i] = toRecord(e)
			replaced = true
			break
		}
	}
	if !replaced {
		return nil, employee.ErrEmployeeNotFound
	}

	if err := s.save(records); err != nil {
		return nil, err
	}

	return e.Clone(), nil
}

// Delete は社員レコードを削除します。
func (s *Store) Delete(_ context.Context, id string) error {
	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return employee.ErrEmployeeNotFound
	}

	return s.save(kept)
}

// FindByID は ID で社員レコードを取得します。
func (s *Store) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.ID == id {
			return toDomain(rec), nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

// List は社員レコードの一覧を ID 順に取得します。
func (s *Store) List(_ context.Context, filter employee.ListFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	records, err := s.load()
	if err != nil {
		return nil, "", err
	}

	filtered := make([]*employee.Employee, 0, len(records))
	for _, rec := range records {
		if filter.Department != nil && rec.Department != *filter.Department {
			continue
		}
		if filter.Kind != nil && rec.Kind != string(*filter.Kind) {
			continue
		}
		filtered = append(filtered, toDomain(rec))
	}

	if filter.Offset >= len(filtered) {
		return []*employee.Employee{}, "", nil
	}

	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := filtered[filter.Offset:end]

	nextToken := ""
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}

	return page, nextToken, nil
}

// Snapshot は現在のレコードセット全体をバックアップディレクトリ配下の
// 名前付きファイルへ複製します。
func (s *Store) Snapshot(_ context.Context, name string, _ time.Time) (int, error) {
	records, err := s.load()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return 0, fmt.Errorf("file: create backup dir: %w", err)
	}

	target := filepath.Join(s.backupDir, name+".json")
	if err := writeAtomic(target, document{Employees: records}); err != nil {
		return 0, err
	}

	return len(records), nil
}

func (s *Store) load() ([]employeeRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: read store: %w", err)
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("file: parse store: %w", err)
	}
	return doc.Employees, nil
}

func (s *Store) save(records []employeeRecord) error {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file: create store dir: %w", err)
		}
	}

	return writeAtomic(s.path, document{Employees: records})
}

// writeAtomic は一時ファイルへ書き込んだ上で rename します。途中で失敗しても
// 既存ファイルは元のまま残ります。
func writeAtomic(path string, doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("file: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("file: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("file: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("file: replace store: %w", err)
	}
	return nil
}

func toRecord(e *employee.Employee) employeeRecord {
	rec := employeeRecord{
		ID:          e.ID,
		Kind:        string(e.Kind),
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Department:  e.Department,
		Phone:       e.Phone,
		YearStarted: e.YearStarted,
		BaseSalary:  e.BaseSalary,
		TeamSize:    e.TeamSize,
		Office:      e.Office,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Project != nil {
		rec.Projects = append(rec.Projects, projectRecord{Name: e.Project.Name, Revenue: e.Project.Revenue})
	}
	for _, p := range e.Projects {
		rec.Projects = append(rec.Projects, projectRecord{Name: p.Name, Revenue: p.Revenue})
	}
	return rec
}

func toDomain(rec employeeRecord) *employee.Employee {
	e := &employee.Employee{
		ID:          rec.ID,
		Kind:        employee.Kind(rec.Kind),
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Department:  rec.Department,
		Phone:       rec.Phone,
		YearStarted: rec.YearStarted,
		BaseSalary:  rec.BaseSalary,
		TeamSize:    rec.TeamSize,
		Office:      rec.Office,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}

	switch e.Kind {
	case employee.KindProgrammer, employee.KindProjectManager:
		if len(rec.Projects) > 0 {
			e.Project = &employee.Project{Name: rec.Projects[0].Name, Revenue: rec.Projects[0].Revenue}
		}
	case employee.KindGeneralManager:
		projects := make([]employee.Project, 0, len(rec.Projects))
		for _, p := range rec.Projects {
			projects = append(projects, employee.Project{Name: p.Name, Revenue: p.Revenue})
		}
		e.Projects = projects
	}

	return e
}
