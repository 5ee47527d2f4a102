package audit

import "context"

// Repository は監査ログ永続化の抽象です。追記と社員単位の参照のみを提供します。
type Repository interface {
	Append(ctx context.Context, entry *Entry) (*Entry, error)
	ListByEmployee(ctx context.Context, filter ListFilter) ([]*Entry, error)
	CountByEmployee(ctx context.Context, employeeID int64) (int, error)
}

// ListFilter は社員単位の監査ログ取得条件です。並び順は常に新しい順です。
type ListFilter struct {
	EmployeeID int64
	Limit      int
	Offset     int
}
