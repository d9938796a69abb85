package employee

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ksdhq/personnel/internal/core/audit"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。バックエンドが
// トランザクションを持たない場合は noop 実装が使われます。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200

	backupTimeFormat = "20060102-150405"
)

// Service は社員レコードストアのユースケースをまとめます。すべての変更操作は
// 書き込み前に検証を通り、成功時にのみ操作ログへ 1 件追記します。
type Service struct {
	repo  Repository
	log   audit.Recorder
	clock Clock
	tx    TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	Backup(ctx context.Context, in BackupInput) (*BackupResult, error)
	AuditEntries(ctx context.Context) ([]*audit.Entry, error)
	ComputeCompensation(e *Employee) (float64, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, log audit.Recorder, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, log: log, clock: clock, tx: tx}
}

// CreateEmployeeInput は社員作成時の入力です。Project は programmer /
// project_manager 区分、Projects は general_manager 区分でのみ使われます。
type CreateEmployeeInput struct {
	ID          string
	Kind        Kind
	FirstName   string
	LastName    string
	Department  string
	Phone       string
	YearStarted int
	BaseSalary  float64
	TeamSize    int
	Office      string
	Project     *Project
	Projects    []Project
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは現在値を
// 維持します。ID と Kind は作成後に変更できません。Project の指定は区分の
// 関連付け規則（置き換えまたは追記）に従って適用されます。
type UpdateEmployeeInput struct {
	ID          string
	FirstName   *string
	LastName    *string
	Department  *string
	Phone       *string
	YearStarted *int
	BaseSalary  *float64
	TeamSize    *int
	Office      *string
	Project     *Project
	AddProjects []Project
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Department string
	Kind       *Kind
	PageSize   int
	PageToken  string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// BackupInput はバックアップ作成時の入力です。Name が空の場合は
// タイムスタンプ付きの名前が割り当てられます。
type BackupInput struct {
	Name string
}

// BackupResult はバックアップ作成結果を表します。
type BackupResult struct {
	Name        string
	RecordCount int
	TakenAt     time.Time
}

// CreateEmployee は新しい社員レコードを作成します。ID が既に存在する場合は
// ErrEmployeeAlreadyExists を返し、ストアにも操作ログにも何も残しません。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	now := s.clock.Now()

	emp := &Employee{
		ID:          in.ID,
		Kind:        in.Kind,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Department:  in.Department,
		Phone:       in.Phone,
		YearStarted: in.YearStarted,
		BaseSalary:  in.BaseSalary,
		TeamSize:    in.TeamSize,
		Office:      strings.TrimSpace(in.Office),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Project != nil {
		p := *in.Project
		emp.Project = &p
	}
	if len(in.Projects) > 0 {
		emp.Projects = append([]Project(nil), in.Projects...)
	}

	if err := validateAndNormalize(emp, now.Year()); err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureIDNotExists(txCtx, emp.ID); err != nil {
			return err
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("created %s %s (%s)", result.Kind, result.ID, result.FullName())
		if err := s.appendAudit(txCtx, audit.KindCreate, result.ID, desc); err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployee は社員レコードを更新します。パッチを既存レコードへ適用した
// 結果に対して全フィールドの検証を再実行し、失敗時は保存済みレコードを
// 一切変更しません（置き換えるか拒否するかのどちらかです）。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		merged := existing.Clone()
		changed := make([]string, 0, 8)

		if in.FirstName != nil {
			merged.FirstName = *in.FirstName
			changed = append(changed, "first_name")
		}
		if in.LastName != nil {
			merged.LastName = *in.LastName
			changed = append(changed, "last_name")
		}
		if in.Department != nil {
			merged.Department = *in.Department
			changed = append(changed, "department")
		}
		if in.Phone != nil {
			merged.Phone = *in.Phone
			changed = append(changed, "phone")
		}
		if in.YearStarted != nil {
			merged.YearStarted = *in.YearStarted
			changed = append(changed, "year_started")
		}
		if in.BaseSalary != nil {
			merged.BaseSalary = *in.BaseSalary
			changed = append(changed, "base_salary")
		}
		if in.TeamSize != nil {
			merged.TeamSize = *in.TeamSize
			changed = append(changed, "team_size")
		}
		if in.Office != nil {
			merged.Office = strings.TrimSpace(*in.Office)
			changed = append(changed, "office")
		}
		if in.Project != nil {
			if err := merged.AssignProject(*in.Project); err != nil {
				return err
			}
			changed = append(changed, "project")
		}
		if len(in.AddProjects) > 0 {
			for _, p := range in.AddProjects {
				if err := merged.AssignProject(p); err != nil {
					return err
				}
			}
			changed = append(changed, "projects")
		}

		if len(changed) == 0 {
			// 空のパッチは読み取りと等価。ストアにも操作ログにも触れない。
			updated = existing
			return nil
		}

		if err := validateAndNormalize(merged, s.clock.Now().Year()); err != nil {
			return err
		}

		merged.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, merged)
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("updated %s %s: %s", result.Kind, result.ID, strings.Join(changed, ", "))
		if err := s.appendAudit(txCtx, audit.KindUpdate, result.ID, desc); err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEmployee は社員レコードを削除します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(txCtx, existing.ID); err != nil {
			return err
		}

		desc := fmt.Sprintf("deleted %s %s (%s)", existing.Kind, existing.ID, existing.FullName())
		return s.appendAudit(txCtx, audit.KindDelete, existing.ID, desc)
	})
}

// GetEmployee は社員レコードを取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員レコードの一覧を取得します。純粋な読み取りで、
// 操作ログには何も追記しません。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var deptPtr *string
	if dept := strings.TrimSpace(in.Department); dept != "" {
		deptPtr = &dept
	}

	var kindPtr *Kind
	if in.Kind != nil {
		if !isValidKind(*in.Kind) {
			return nil, ErrInvalidKind
		}
		kind := *in.Kind
		kindPtr = &kind
	}

	var (
		employees []*Employee
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListFilter{
			Department: deptPtr,
			Kind:       kindPtr,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		employees = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// Backup は現在のレコードセット全体を名前付きスナップショットへ複製します。
// スナップショットは読み取りに対してアトミックですが、同時書き込みに対する
// アトミック性は保証されません。バックアップ自体は操作ログに記録されません。
func (s *Service) Backup(ctx context.Context, in BackupInput) (*BackupResult, error) {
	now := s.clock.Now()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fmt.Sprintf("employees-backup-%s-%s", now.Format(backupTimeFormat), uuid.NewString()[:8])
	}

	var count int
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		c, err := s.repo.Snapshot(txCtx, name, now)
		if err != nil {
			return err
		}
		count = c
		return nil
	}); err != nil {
		return nil, err
	}

	return &BackupResult{Name: name, RecordCount: count, TakenAt: now}, nil
}

// AuditEntries は操作ログを記録順に列挙します。ログは読み取り専用で、
// この操作自体は何も記録しません。
func (s *Service) AuditEntries(ctx context.Context) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.log.List(txCtx)
		if err != nil {
			return err
		}
		entries = result
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}

// ComputeCompensation は呼び出し時点の状態から報酬を計算します。値は
// キャッシュされず、プロジェクトの付け替え後も常に最新の状態を反映します。
func (s *Service) ComputeCompensation(e *Employee) (float64, error) {
	return Compensation(e, s.clock.Now().Year())
}

func (s *Service) ensureIDNotExists(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if existing != nil {
		return ErrEmployeeAlreadyExists
	}
	return nil
}

func (s *Service) appendAudit(ctx context.Context, kind audit.Kind, employeeID, description string) error {
	return s.log.Append(ctx, &audit.Entry{
		ID:          uuid.NewString(),
		Timestamp:   s.clock.Now(),
		Kind:        kind,
		EmployeeID:  employeeID,
		Description: description,
	})
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
