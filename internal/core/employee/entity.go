package employee

import "time"

// Kind は社員の区分（型タグ）を表します。永続化レイヤはこのタグで
// 区分ごとの固有フィールドを復元します。
type Kind string

const (
	KindStaff          Kind = "staff"
	KindProgrammer     Kind = "programmer"
	KindProjectManager Kind = "project_manager"
	KindGeneralManager Kind = "general_manager"
	KindManager        Kind = "manager"
)

// Project は社員に紐づくプロジェクトの値オブジェクトです。参照する社員が
// 所有し、独立したライフサイクルを持ちません。
type Project struct {
	Name    string
	Revenue float64
}

// Employee は社員エンティティです。区分ごとの固有フィールドは Kind で
// 判別します。ID は作成時に割り当てられ、以後変更されません。
type Employee struct {
	ID          string
	Kind        Kind
	FirstName   string
	LastName    string
	Department  string
	Phone       string
	YearStarted int
	BaseSalary  float64

	// manager 区分のみ
	TeamSize int
	Office   string

	// programmer / project_manager 区分のみ。常にちょうど 1 件。
	Project *Project

	// general_manager 区分のみ。0 件以上の順序付きコレクションで、
	// エンティティごとに独立して所有されます。
	Projects []Project

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignProject は区分ごとの関連付け規則でプロジェクトを割り当てます。
// programmer / project_manager は既存の関連を置き換え（追加は存在しない）、
// general_manager はコレクションへ追記します。それ以外の区分は
// プロジェクト関連を持たないため ErrNoProjectRole を返します。
func (e *Employee) AssignProject(p Project) error {
	switch e.Kind {
	case KindProgrammer, KindProjectManager:
		assigned := p
		e.Project = &assigned
		return nil
	case KindGeneralManager:
		e.Projects = append(e.Projects, p)
		return nil
	default:
		return ErrNoProjectRole
	}
}

// Clone はエンティティの深いコピーを返します。プロジェクトのコレクションも
// 新しく割り当てられ、元のエンティティと共有されません。
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Project != nil {
		p := *e.Project
		clone.Project = &p
	}
	if e.Projects != nil {
		clone.Projects = append([]Project(nil), e.Projects...)
	}
	return &clone
}

// FullName は表示用の氏名を返します。
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// FormattedPhone は表示用に整形した電話番号を返します。保存形式は常に
// サニタイズ済みの 10 桁です。
func (e *Employee) FormattedPhone() string {
	if len(e.Phone) != 10 {
		return e.Phone
	}
	return "(" + e.Phone[:3] + ")-" + e.Phone[3:6] + "-" + e.Phone[6:]
}

func isValidKind(kind Kind) bool {
	switch kind {
	case KindStaff, KindProgrammer, KindProjectManager, KindGeneralManager, KindManager:
		return true
	default:
		return false
	}
}

func hasSingleProject(kind Kind) bool {
	return kind == KindProgrammer || kind == KindProjectManager
}
