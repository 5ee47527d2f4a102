package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は社員レコードの変更と取得をまとめます。
// 変更は必ず監査ログの追記と同一トランザクションで行われます。
type Service struct {
	repo  Repository
	audit audit.Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, payload map[string]any, actor audit.Actor) (*Employee, error)
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	UpdateEmployee(ctx context.Context, id int64, payload map[string]any, actor audit.Actor) (*Employee, error)
	DeleteEmployee(ctx context.Context, id int64, actor audit.Actor) (*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, auditRepo audit.Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, audit: auditRepo, clock: clock, tx: tx}
}

// CreateEmployee は新しい社員を作成し、CREATE の監査ログを記録します。
func (s *Service) CreateEmployee(ctx context.Context, payload map[string]any, actor audit.Actor) (*Employee, error) {
	fields, err := Validate(payload, CreateRequired...)
	if err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailAvailable(txCtx, *fields.Email, 0); err != nil {
			return err
		}

		now := s.clock.Now()
		emp := &Employee{IsActive: true, CreatedAt: now, UpdatedAt: now}
		fields.apply(emp)

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		if err := s.record(txCtx, result.ID, audit.ActionCreate, actor, nil, fields.Snapshot()); err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployee は入力に含まれる項目のみを更新します。
// 認識できる項目が一つもない場合は更新せず、現在のレコードを返します。
func (s *Service) UpdateEmployee(ctx context.Context, id int64, payload map[string]any, actor audit.Actor) (*Employee, error) {
	fields, err := Validate(payload)
	if err != nil {
		return nil, err
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		oldValues := existing.Snapshot()

		if fields.Empty() {
			updated = existing
			return s.record(txCtx, id, audit.ActionUpdate, actor, oldValues, audit.NewSnapshot())
		}

		if fields.Has(FieldEmail) && *fields.Email != existing.Email {
			if err := s.ensureEmailAvailable(txCtx, *fields.Email, id); err != nil {
				return err
			}
		}

		fields.apply(existing)
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		if err := s.record(txCtx, id, audit.ActionUpdate, actor, oldValues, fields.Snapshot()); err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEmployee は社員を論理削除します。行は削除されず is_active が false になります。
func (s *Service) DeleteEmployee(ctx context.Context, id int64, actor audit.Actor) (*Employee, error) {
	var deleted *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		oldValues := existing.Snapshot()

		existing.IsActive = false
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		newValues := audit.NewSnapshot().Set(FieldIsActive, false)
		if err := s.record(txCtx, id, audit.ActionDelete, actor, oldValues, newValues); err != nil {
			return err
		}

		deleted = result
		return nil
	}); err != nil {
		return nil, err
	}

	return deleted, nil
}

// GetEmployee は在籍状態に関わらず社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ensureEmailAvailable(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailAlreadyExists
	}
	return nil
}

func (s *Service) record(ctx context.Context, employeeID int64, action audit.Action, actor audit.Actor, oldValues, newValues *audit.Snapshot) error {
	actor = actor.Normalized()
	entry := &audit.Entry{
		EmployeeID: employeeID,
		Action:     action,
		ChangedBy:  actor.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Timestamp:  s.clock.Now(),
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}
	if _, err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("employee: append audit entry: %w", err)
	}
	return nil
}
