package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ksdhq/personnel/internal/core/employee"
	pgdb "github.com/ksdhq/personnel/internal/platform/db/postgres"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

const employeeColumns = `id, kind, first_name, last_name, department, phone, year_started, base_salary, team_size, office, projects, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員レコードを新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	projects, err := encodeProjects(e)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (`+employeeColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING `+employeeColumns+`
    `,
		e.ID,
		string(e.Kind),
		e.FirstName,
		e.LastName,
		e.Department,
		e.Phone,
		e.YearStarted,
		e.BaseSalary,
		e.TeamSize,
		e.Office,
		projects,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return created, nil
}

// Update は社員レコードを更新します。ID と作成日時は変更しません。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	projects, err := encodeProjects(e)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               department = $3,
               phone = $4,
               year_started = $5,
               base_salary = $6,
               team_size = $7,
               office = $8,
               projects = $9,
               updated_at = $10
         WHERE id = $11
        RETURNING `+employeeColumns+`
    `,
		e.FirstName,
		e.LastName,
		e.Department,
		e.Phone,
		e.YearStarted,
		e.BaseSalary,
		e.TeamSize,
		e.Office,
		projects,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return updated, nil
}

// Delete は社員レコードを削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員レコードを取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(err)
	}
	return found, nil
}

// List は社員レコードの一覧を ID 順に取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.Department != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "department = "+placeholder)
		args = append(args, *filter.Department)
	}
	if filter.Kind != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "kind = "+placeholder)
		args = append(args, string(*filter.Kind))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translatePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translatePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translatePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

// Snapshot は employees の全レコードをスナップショットテーブルへ 1 文で
// 複製します。単一文のため読み取りに対してアトミックです。
func (r *EmployeeRepository) Snapshot(ctx context.Context, name string, takenAt time.Time) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        INSERT INTO employee_snapshots (snapshot_name, taken_at, `+employeeColumns+`)
        SELECT $1, $2, `+employeeColumns+`
          FROM employees
    `, name, takenAt)
	if err != nil {
		return 0, translatePgError(err)
	}
	return int(tag.RowsAffected()), nil
}

// projectRecord はプロジェクトの jsonb 表現です。
type projectRecord struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

// encodeProjects は区分ごとのプロジェクト関連を jsonb 配列へ畳み込みます。
// 単一プロジェクト区分は要素 1 件の配列として保存されます。
func encodeProjects(e *employee.Employee) ([]byte, error) {
	records := make([]projectRecord, 0, len(e.Projects)+1)
	if e.Project != nil {
		records = append(records, projectRecord{Name: e.Project.Name, Revenue: e.Project.Revenue})
	}
	for _, p := range e.Projects {
		records = append(records, projectRecord{Name: p.Name, Revenue: p.Revenue})
	}

	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode projects: %w", err)
	}
	return b, nil
}

// decodeProjects は型タグに従って jsonb 配列から区分ごとの関連を復元します。
func decodeProjects(e *employee.Employee, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}

	var records []projectRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("postgres: decode projects for %s: %w", e.ID, err)
	}

	switch e.Kind {
	case employee.KindProgrammer, employee.KindProjectManager:
		if len(records) > 0 {
			e.Project = &employee.Project{Name: records[0].Name, Revenue: records[0].Revenue}
		}
	case employee.KindGeneralManager:
		projects := make([]employee.Project, 0, len(records))
		for _, rec := range records {
			projects = append(projects, employee.Project{Name: rec.Name, Revenue: rec.Revenue})
		}
		e.Projects = projects
	}

	return nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e        employee.Employee
		kind     string
		projects []byte
	)

	if err := row.Scan(
		&e.ID,
		&kind,
		&e.FirstName,
		&e.LastName,
		&e.Department,
		&e.Phone,
		&e.YearStarted,
		&e.BaseSalary,
		&e.TeamSize,
		&e.Office,
		&projects,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.Kind = employee.Kind(kind)
	if err := decodeProjects(&e, projects); err != nil {
		return nil, err
	}

	return &e, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return employee.ErrEmployeeAlreadyExists
		case checkViolationCode:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, employee.ErrInvalidState)
		}
	}

	return err
}
