package employee

import (
	"context"
	"time"
)

// Repository は社員永続化の抽象です。ストアはキー（社員 ID）で索引された
// レコードの get/put/delete/list バックエンドとしてのみ扱われます。
type Repository interface {
	Create(ctx context.Context, e *Employee) (*Employee, error)
	Update(ctx context.Context, e *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, filter ListFilter) ([]*Employee, string, error)

	// Snapshot は現在のレコードセット全体を名前付きの別ストアへ複製し、
	// 複製したレコード数を返します。読み取りに対してはアトミックですが、
	// 同時書き込みに対するアトミック性は保証しません。
	Snapshot(ctx context.Context, name string, takenAt time.Time) (int, error)
}

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	Department *string
	Kind       *Kind
	Limit      int
	Offset     int
}
