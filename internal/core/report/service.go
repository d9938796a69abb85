// Package report はレコードストアの読み取りのみで構成される検索・集計
// レイヤです。変更操作を持たず、操作ログにも何も追記しません。
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ksdhq/personnel/internal/core/employee"
)

// Field は検索対象フィールドを表します。
type Field string

const (
	FieldID         Field = "id"
	FieldName       Field = "name"
	FieldDepartment Field = "department"
	FieldPhone      Field = "phone"
	FieldKind       Field = "kind"
)

var (
	ErrInvalidField = errors.New("report: invalid search field")
	ErrEmptyValue   = errors.New("report: search value must not be empty")
)

// Summary は 1 部門分の集計値です。
type Summary struct {
	Count             int
	TotalBaseSalary   float64
	TotalCompensation float64
}

const scanPageSize = 200

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は検索と部門別集計を提供します。
type Service struct {
	repo  employee.Repository
	clock employee.Clock
}

// NewService は Service を生成します。
func NewService(repo employee.Repository, clock employee.Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// Search は指定フィールドで社員を検索します。id / name / phone は大文字小文字を
// 区別しない部分一致、department / kind は完全一致（大文字小文字は区別しない）です。
func (s *Service) Search(ctx context.Context, field Field, value string) ([]*employee.Employee, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrEmptyValue
	}

	match, err := matcherFor(field, value)
	if err != nil {
		return nil, err
	}

	var found []*employee.Employee
	if err := s.forEach(ctx, func(e *employee.Employee) {
		if match(e) {
			found = append(found, e)
		}
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// DepartmentSummary は部門コードごとの人数、給与合計、報酬合計を返します。
// 報酬は保存値ではなく呼び出し時点の計算値です。
func (s *Service) DepartmentSummary(ctx context.Context) (map[string]Summary, error) {
	currentYear := s.clock.Now().Year()
	summaries := make(map[string]Summary)

	var compErr error
	if err := s.forEach(ctx, func(e *employee.Employee) {
		if compErr != nil {
			return
		}

		comp, err := employee.Compensation(e, currentYear)
		if err != nil {
			compErr = err
			return
		}

		summary := summaries[e.Department]
		summary.Count++
		summary.TotalBaseSalary += e.BaseSalary
		summary.TotalCompensation += comp
		summaries[e.Department] = summary
	}); err != nil {
		return nil, err
	}
	if compErr != nil {
		return nil, compErr
	}

	return summaries, nil
}

// forEach はストアの全レコードをページ単位で走査します。
func (s *Service) forEach(ctx context.Context, fn func(*employee.Employee)) error {
	offset := 0
	for {
		page, next, err := s.repo.List(ctx, employee.ListFilter{Limit: scanPageSize, Offset: offset})
		if err != nil {
			return err
		}

		for _, e := range page {
			fn(e)
		}

		if next == "" {
			return nil
		}

		offset, err = strconv.Atoi(next)
		if err != nil {
			return fmt.Errorf("report: malformed page token %q: %w", next, err)
		}
	}
}

func matcherFor(field Field, value string) (func(*employee.Employee) bool, error) {
	needle := strings.ToLower(value)

	switch field {
	case FieldID:
		return func(e *employee.Employee) bool {
			return strings.Contains(strings.ToLower(e.ID), needle)
		}, nil
	case FieldName:
		return func(e *employee.Employee) bool {
			return strings.Contains(strings.ToLower(e.FirstName), needle) ||
				strings.Contains(strings.ToLower(e.LastName), needle)
		}, nil
	case FieldPhone:
		digits := strings.Map(func(r rune) rune {
			if r < '0' || r > '9' {
				return -1
			}
			return r
		}, value)
		if digits == "" {
			return nil, ErrEmptyValue
		}
		return func(e *employee.Employee) bool {
			return strings.Contains(e.Phone, digits)
		}, nil
	case FieldDepartment:
		return func(e *employee.Employee) bool {
			return strings.EqualFold(e.Department, value)
		}, nil
	case FieldKind:
		return func(e *employee.Employee) bool {
			return strings.EqualFold(string(e.Kind), value)
		}, nil
	default:
		return nil, fmt.Errorf("%q: %w", field, ErrInvalidField)
	}
}
