package employee

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	departmentPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	digitPattern      = regexp.MustCompile(`[0-9]`)
	nonDigitPattern   = regexp.MustCompile(`[^0-9]`)
)

// FieldError は単一フィールドの検証失敗を表します。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// ValidationError はフィールド単位の検証失敗の一覧です。どれか 1 つでも
// 失敗すればレコード全体が拒否され、部分的な書き込みは発生しません。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	reasons := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		reasons = append(reasons, f.Error())
	}
	return "employee: validation failed: " + strings.Join(reasons, "; ")
}

// Is は errors.Is(err, ErrValidation) を成立させます。
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// validateAndNormalize は社員の全フィールドを検証し、受理時の正規化
// （氏名のタイトルケース化、電話番号のサニタイズ）を適用します。
// 失敗はフィールド単位で収集し、呼び出し元へまとめて返します。
func validateAndNormalize(e *Employee, currentYear int) error {
	var fields []FieldError

	if strings.TrimSpace(e.ID) == "" {
		fields = append(fields, FieldError{Field: "id", Reason: "must not be empty"})
	} else {
		e.ID = strings.TrimSpace(e.ID)
	}

	if !isValidKind(e.Kind) {
		fields = append(fields, FieldError{Field: "kind", Reason: fmt.Sprintf("unknown employee kind %q", e.Kind)})
	}

	if name, reason := normalizeName(e.FirstName); reason != "" {
		fields = append(fields, FieldError{Field: "first_name", Reason: reason})
	} else {
		e.FirstName = name
	}

	if name, reason := normalizeName(e.LastName); reason != "" {
		fields = append(fields, FieldError{Field: "last_name", Reason: reason})
	} else {
		e.LastName = name
	}

	dept := strings.TrimSpace(e.Department)
	if !departmentPattern.MatchString(dept) {
		fields = append(fields, FieldError{Field: "department", Reason: "must be exactly 3 uppercase letters"})
	} else {
		e.Department = dept
	}

	phone := nonDigitPattern.ReplaceAllString(e.Phone, "")
	if len(phone) != 10 {
		fields = append(fields, FieldError{Field: "phone", Reason: "must contain exactly 10 digits"})
	} else {
		e.Phone = phone
	}

	if e.YearStarted <= 0 {
		fields = append(fields, FieldError{Field: "year_started", Reason: "must be a positive year"})
	} else if e.YearStarted > currentYear {
		fields = append(fields, FieldError{Field: "year_started", Reason: "must not be later than the current year"})
	}

	if e.BaseSalary < 0 {
		fields = append(fields, FieldError{Field: "base_salary", Reason: "must not be negative"})
	}

	if e.TeamSize < 0 {
		fields = append(fields, FieldError{Field: "team_size", Reason: "must be a non-negative integer"})
	}

	fields = append(fields, validateProjectShape(e)...)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validateProjectShape は区分ごとのプロジェクト関連の不変条件を検証します。
func validateProjectShape(e *Employee) []FieldError {
	var fields []FieldError

	switch {
	case hasSingleProject(e.Kind):
		if len(e.Projects) > 0 {
			fields = append(fields, FieldError{Field: "projects", Reason: "only general managers hold a project collection"})
		}
		if e.Project == nil {
			fields = append(fields, FieldError{Field: "project", Reason: "exactly one project is required"})
		} else {
			fields = append(fields, validateProject("project", *e.Project)...)
		}
	case e.Kind == KindGeneralManager:
		if e.Project != nil {
			fields = append(fields, FieldError{Field: "project", Reason: "general managers hold a project collection, not a single project"})
		}
		for i, p := range e.Projects {
			fields = append(fields, validateProject(fmt.Sprintf("projects[%d]", i), p)...)
		}
	default:
		if e.Project != nil || len(e.Projects) > 0 {
			fields = append(fields, FieldError{Field: "project", Reason: fmt.Sprintf("kind %q has no project association", e.Kind)})
		}
	}

	return fields
}

func validateProject(field string, p Project) []FieldError {
	var fields []FieldError
	if strings.TrimSpace(p.Name) == "" {
		fields = append(fields, FieldError{Field: field + ".name", Reason: "must not be empty"})
	}
	if p.Revenue < 0 {
		fields = append(fields, FieldError{Field: field + ".revenue", Reason: "must not be negative"})
	}
	return fields
}

func normalizeName(raw string) (normalized, reason string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "must not be empty"
	}
	if digitPattern.MatchString(trimmed) {
		return "", "must not contain digits"
	}
	return titleCase(trimmed), ""
}

// titleCase は空白区切りの各語の先頭を大文字、残りを小文字に正規化します。
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
