// Package audit は変更操作ごとに 1 件追記される操作ログを定義します。
// ログはストア起動時に空（または前回の内容）で初期化され、通常運用で
// 巻き戻されたり切り詰められたりすることはありません。
package audit

import (
	"context"
	"time"
)

// Kind は記録対象の操作種別です。読み取り操作は記録されません。
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Entry は操作ログの 1 レコードです。追記後は不変です。
type Entry struct {
	ID          string
	Timestamp   time.Time
	Kind        Kind
	EmployeeID  string
	Description string
}

// Recorder は追記専用の操作ログの抽象です。外部へは List による列挙のみを
// 公開し、既存エントリの書き換えや削除は提供しません。
type Recorder interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context) ([]*Entry, error)
}
