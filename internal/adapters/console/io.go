package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ksdhq/personnel/internal/core/employee"
	"github.com/ksdhq/personnel/internal/core/report"
)

type reader struct {
	scanner *bufio.Scanner
}

func newReader(in io.Reader) *reader {
	return &reader{scanner: bufio.NewScanner(in)}
}

// line は 1 行読み取ります。入力が尽きた場合は ok=false を返します。
func (r *reader) line() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return r.scanner.Text(), true
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	return c.in.line()
}

// promptOptional は空入力を「現在値を維持」として nil で返します。
func (c *Console) promptOptional(label string) (*string, bool) {
	raw, ok := c.prompt(label)
	if !ok {
		return nil, false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, true
	}
	return &trimmed, true
}

func (c *Console) promptInt(label string) (int, bool) {
	for {
		raw, ok := c.prompt(label)
		if !ok {
			return 0, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil {
			return v, true
		}
		c.printf("Please enter a whole number.\n")
	}
}

func (c *Console) promptOptionalInt(label string) (*int, bool) {
	for {
		raw, ok := c.prompt(label)
		if !ok {
			return nil, false
		}
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, true
		}
		v, err := strconv.Atoi(trimmed)
		if err == nil {
			return &v, true
		}
		c.printf("Please enter a whole number.\n")
	}
}

func (c *Console) promptFloat(label string) (float64, bool) {
	for {
		raw, ok := c.prompt(label)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil {
			return v, true
		}
		c.printf("Please enter a number.\n")
	}
}

func (c *Console) promptOptionalFloat(label string) (*float64, bool) {
	for {
		raw, ok := c.prompt(label)
		if !ok {
			return nil, false
		}
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, true
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err == nil {
			return &v, true
		}
		c.printf("Please enter a number.\n")
	}
}

func (c *Console) promptProject() (employee.Project, bool) {
	name, ok := c.prompt("Project name: ")
	if !ok {
		return employee.Project{}, false
	}
	revenue, ok := c.promptFloat("Project revenue: ")
	if !ok {
		return employee.Project{}, false
	}
	return employee.Project{Name: strings.TrimSpace(name), Revenue: revenue}, true
}

func (c *Console) confirm(question string) bool {
	answer, ok := c.prompt(question + " (y/n): ")
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// renderEmployee は社員 1 件を、表示時点で計算した報酬とともに出力します。
// 報酬は保存値ではなく毎回計算されます。
func (c *Console) renderEmployee(e *employee.Employee) {
	c.printf("%s  %-15s  %-24s  dept=%s  phone=%s  started=%d\n",
		e.ID, e.Kind, e.FullName(), e.Department, e.FormattedPhone(), e.YearStarted)

	switch e.Kind {
	case employee.KindManager:
		c.printf("    team=%d  office=%s\n", e.TeamSize, e.Office)
	case employee.KindProgrammer, employee.KindProjectManager:
		if e.Project != nil {
			c.printf("    project=%s (revenue $%.2f)\n", e.Project.Name, e.Project.Revenue)
		}
	case employee.KindGeneralManager:
		for _, p := range e.Projects {
			c.printf("    project=%s (revenue $%.2f)\n", p.Name, p.Revenue)
		}
	}

	comp, err := c.svc.ComputeCompensation(e)
	if err != nil {
		c.printf("    compensation unavailable: %v\n", err)
		return
	}
	c.printf("    compensation=$%.2f\n", comp)
}

// renderError はドメインエラーを利用者向けメッセージへ変換します。検証失敗は
// フィールドごとの理由をすべて列挙します。
func (c *Console) renderError(err error) {
	var vErr *employee.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.printf("Validation failed:\n")
		for _, f := range vErr.Fields {
			c.printf("  - %s: %s\n", f.Field, f.Reason)
		}
	case errors.Is(err, employee.ErrEmployeeNotFound):
		c.printf("No employee with that ID.\n")
	case errors.Is(err, employee.ErrEmployeeAlreadyExists):
		c.printf("An employee with that ID already exists.\n")
	case errors.Is(err, employee.ErrNoProjectRole):
		c.printf("This employee kind has no project association.\n")
	case errors.Is(err, employee.ErrInvalidState):
		c.printf("Stored record is inconsistent: %v\n", err)
	case errors.Is(err, report.ErrInvalidField):
		c.printf("Unknown search field.\n")
	case errors.Is(err, report.ErrEmptyValue):
		c.printf("Search value must not be empty.\n")
	default:
		c.printf("Error: %v\n", err)
	}
}
