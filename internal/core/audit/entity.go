package audit

import "time"

// Action は監査対象となった操作種別です。
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid は既知の操作種別かどうかを返します。
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Entry は社員レコードに対する一回の変更を表す監査ログです。
// 作成後に更新・削除されることはありません。
type Entry struct {
	ID         int64
	EmployeeID int64
	Action     Action
	ChangedBy  string
	OldValues  *Snapshot
	NewValues  *Snapshot
	Timestamp  time.Time
	IPAddress  string
	UserAgent  string
}

// Actor は変更を行った呼び出し元の情報です。値は検証せずそのまま記録します。
type Actor struct {
	ID        string
	IPAddress string
	UserAgent string
}

const unknown = "unknown"

// Normalized は空の項目を "unknown" で埋めた Actor を返します。
func (a Actor) Normalized() Actor {
	if a.ID == "" {
		a.ID = unknown
	}
	if a.IPAddress == "" {
		a.IPAddress = unknown
	}
	if a.UserAgent == "" {
		a.UserAgent = unknown
	}
	return a
}
