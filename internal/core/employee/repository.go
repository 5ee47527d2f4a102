package employee

import (
	"context"
	"time"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, e *Employee) (*Employee, error)
	Update(ctx context.Context, e *Employee) (*Employee, error)
	FindByID(ctx context.Context, id int64) (*Employee, error)
	// FindByIDForUpdate はトランザクション内で行ロックを取得して社員を返します。
	FindByIDForUpdate(ctx context.Context, id int64) (*Employee, error)
	// EmailTaken は excludeID 以外の行 (在籍・退職を問わない) がメールアドレスを使用しているかを返します。
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Search(ctx context.Context, filter SearchFilter) ([]*Summary, int, error)
	ActiveDepartments(ctx context.Context) ([]Department, error)
	ActiveLocations(ctx context.Context) ([]LocationCount, error)
	CountByStatus(ctx context.Context) (active int, inactive int, err error)
	// CountActiveHiredBetween は hire_date が from 以上 to 以下の在籍者数を返します。
	CountActiveHiredBetween(ctx context.Context, from, to time.Time) (int, error)
	// CountCreatedBetween は created_at が from 以上 to 未満の社員数を返します。
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// SortField は一覧の並び替え項目です。
type SortField string

const (
	SortByName       SortField = "name"
	SortByEmail      SortField = "email"
	SortByDepartment SortField = "department"
	SortByCreatedAt  SortField = "created_at"
)

// Valid は並び替え可能な項目かどうかを返します。
func (f SortField) Valid() bool {
	switch f {
	case SortByName, SortByEmail, SortByDepartment, SortByCreatedAt:
		return true
	default:
		return false
	}
}

// SearchFilter は一覧取得時の絞り込み条件です。nil の項目は条件に含めません。
// 同順位は ID の昇順で並びます。
type SearchFilter struct {
	Query      string
	Department *string
	IsActive   bool
	Location   *string
	Position   *string
	Manager    *string
	HiredFrom  *time.Time
	HiredTo    *time.Time
	SortBy     SortField
	Descending bool
	Limit      int
	Offset     int
}

// LocationCount は勤務地ごとの在籍者数です。
type LocationCount struct {
	Location string
	Count    int
}
