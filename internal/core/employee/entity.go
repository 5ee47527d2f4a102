package employee

import (
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
)

// Employee は社員エンティティです。IsActive が false の社員は論理削除済みです。
type Employee struct {
	ID         int64
	Name       string
	Email      string
	Phone      *string
	Department string
	Position   *string
	Location   *string
	Manager    *string
	IsActive   bool
	HireDate   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary は一覧表示向けの社員情報です。電話番号・上長・タイムスタンプは含みません。
type Summary struct {
	ID         int64
	Name       string
	Email      string
	Department string
	Position   *string
	Location   *string
	IsActive   bool
}

// Summarize は Employee から Summary を生成します。
func (e *Employee) Summarize() *Summary {
	return &Summary{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Department: e.Department,
		Position:   cloneString(e.Position),
		Location:   cloneString(e.Location),
		IsActive:   e.IsActive,
	}
}

// Snapshot は監査ログ用にレコード全体を固定の順序で書き出します。
func (e *Employee) Snapshot() *audit.Snapshot {
	s := audit.NewSnapshot().
		Set("id", e.ID).
		Set(FieldName, e.Name).
		Set(FieldEmail, e.Email).
		Set(FieldPhone, stringOrNil(e.Phone)).
		Set(FieldDepartment, e.Department).
		Set(FieldPosition, stringOrNil(e.Position)).
		Set(FieldLocation, stringOrNil(e.Location)).
		Set(FieldManager, stringOrNil(e.Manager)).
		Set(FieldIsActive, e.IsActive)
	if e.HireDate != nil {
		s.Set(FieldHireDate, e.HireDate.Format(DateLayout))
	} else {
		s.Set(FieldHireDate, nil)
	}
	return s.Set("created_at", e.CreatedAt).Set("updated_at", e.UpdatedAt)
}

// Department は在籍中の社員から導出される部署です。
type Department struct {
	Name          string
	EmployeeCount int
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneEmployee(e *Employee) *Employee {
	if e == nil {
		return nil
	}
	c := *e
	c.Phone = cloneString(e.Phone)
	c.Position = cloneString(e.Position)
	c.Location = cloneString(e.Location)
	c.Manager = cloneString(e.Manager)
	c.HireDate = cloneTime(e.HireDate)
	return &c
}
