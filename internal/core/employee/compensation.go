package employee

import "fmt"

const (
	tenureBonusPerYear      = 100.0
	generalManagerBonusRate = 0.03
)

// TenureBonus は勤続年数ボーナスを返します。検証済みレコードでは勤続年数が
// 負になることはありませんが、計算上は 0 に切り詰めます。
func TenureBonus(e *Employee, currentYear int) float64 {
	years := currentYear - e.YearStarted
	if years < 0 {
		years = 0
	}
	return tenureBonusPerYear * float64(years)
}

// Compensation は区分ごとの報酬を計算する純粋関数です。レコードストアが
// 書き込み時に検証済みであることを前提とし、ここでは再検証しません。
// ただし保存済みレコードが不変条件を破っている場合（単一プロジェクト区分の
// プロジェクト欠落、負の売上、未知の区分）は黙って 0 扱いにせず
// ErrInvalidState を返します。
func Compensation(e *Employee, currentYear int) (float64, error) {
	base := e.BaseSalary + TenureBonus(e, currentYear)

	switch e.Kind {
	case KindStaff, KindManager:
		return base, nil

	case KindProgrammer, KindProjectManager:
		if e.Project == nil {
			return 0, fmt.Errorf("%s %s: missing project: %w", e.Kind, e.ID, ErrInvalidState)
		}
		if e.Project.Revenue < 0 {
			return 0, fmt.Errorf("%s %s: negative revenue for project %q: %w", e.Kind, e.ID, e.Project.Name, ErrInvalidState)
		}
		return base, nil

	case KindGeneralManager:
		// 重複したプロジェクト名も許容し、売上はそのまま合算されます。
		var revenue float64
		for _, p := range e.Projects {
			if p.Revenue < 0 {
				return 0, fmt.Errorf("%s %s: negative revenue for project %q: %w", e.Kind, e.ID, p.Name, ErrInvalidState)
			}
			revenue += p.Revenue
		}
		return base + generalManagerBonusRate*revenue, nil

	default:
		return 0, fmt.Errorf("employee %s: unknown kind %q: %w", e.ID, e.Kind, ErrInvalidState)
	}
}
