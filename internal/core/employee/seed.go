package employee

import (
	"context"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
)

// SeedActor は初期データ投入時に監査ログへ記録する変更者です。
var SeedActor = audit.Actor{ID: "system"}

// SamplePayloads は初期データとして投入する社員の一覧です。
func SamplePayloads() []map[string]any {
	return []map[string]any{
		sample("John Doe", "john.doe@company.com", "+1-555-555-0101", "Engineering", "Senior Software Engineer", "San Francisco, CA", "Jane Smith"),
		sample("Jane Smith", "jane.smith@company.com", "+1-555-555-0102", "Engineering", "Engineering Manager", "San Francisco, CA", "Bob Johnson"),
		sample("Bob Johnson", "bob.johnson@company.com", "+1-555-555-0103", "Engineering", "VP of Engineering", "San Francisco, CA", ""),
		sample("Alice Brown", "alice.brown@company.com", "+1-555-555-0104", "Marketing", "Marketing Manager", "New York, NY", "Carol White"),
		sample("Carol White", "carol.white@company.com", "+1-555-555-0105", "Marketing", "VP of Marketing", "New York, NY", ""),
		sample("David Wilson", "david.wilson@company.com", "+1-555-555-0106", "Sales", "Sales Representative", "Chicago, IL", "Eva Davis"),
		sample("Eva Davis", "eva.davis@company.com", "+1-555-555-0107", "Sales", "Sales Manager", "Chicago, IL", ""),
		sample("Frank Miller", "frank.miller@company.com", "+1-555-555-0108", "HR", "HR Specialist", "Austin, TX", "Grace Lee"),
		sample("Grace Lee", "grace.lee@company.com", "+1-555-555-0109", "HR", "HR Manager", "Austin, TX", ""),
		sample("Henry Taylor", "henry.taylor@company.com", "+1-555-555-0110", "Finance", "Financial Analyst", "Boston, MA", "Ivy Chen"),
		sample("Ivy Chen", "ivy.chen@company.com", "+1-555-555-0111", "Finance", "Finance Manager", "Boston, MA", ""),
	}
}

func sample(name, email, phone, department, position, location, manager string) map[string]any {
	p := map[string]any{
		FieldName:       name,
		FieldEmail:      email,
		FieldPhone:      phone,
		FieldDepartment: department,
		FieldPosition:   position,
		FieldLocation:   location,
	}
	if manager != "" {
		p[FieldManager] = manager
	}
	return p
}

// Seed はテーブルが空の場合に限り payloads を一つのトランザクションで作成し、作成件数を返します。
// 既に社員が存在する場合は何もしません。
func (s *Service) Seed(ctx context.Context, payloads []map[string]any, actor audit.Actor) (int, error) {
	created := 0
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		active, inactive, err := s.repo.CountByStatus(txCtx)
		if err != nil {
			return err
		}
		if active+inactive > 0 {
			return nil
		}

		for _, p := range payloads {
			if _, err := s.CreateEmployee(txCtx, p, actor); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
