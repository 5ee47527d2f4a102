package employee

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

func (s *stubClock) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

type fakeEmployeeRepo struct {
	employees map[int64]*Employee
	sequence  int64

	createErr error
	updateErr error
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[int64]*Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.employees {
		if existing.Email == e.Email {
			return nil, ErrEmailAlreadyExists
		}
	}
	r.sequence++
	clone := cloneEmployee(e)
	clone.ID = r.sequence
	r.employees[clone.ID] = clone
	return cloneEmployee(clone), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *Employee) (*Employee, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.employees[e.ID]; !ok {
		return nil, ErrEmployeeNotFound
	}
	for _, existing := range r.employees {
		if existing.ID != e.ID && existing.Email == e.Email {
			return nil, ErrEmailAlreadyExists
		}
	}
	r.employees[e.ID] = cloneEmployee(e)
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id int64) (*Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return cloneEmployee(emp), nil
}

func (r *fakeEmployeeRepo) FindByIDForUpdate(ctx context.Context, id int64) (*Employee, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeEmployeeRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, e := range r.employees {
		if e.ID != excludeID && e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEmployeeRepo) Search(_ context.Context, f SearchFilter) ([]*Summary, int, error) {
	var matched []*Employee
	for _, e := range r.employees {
		if e.IsActive != f.IsActive {
			continue
		}
		if f.Query != "" && !containsFold(e.Name, f.Query) && !containsFold(e.Email, f.Query) && !containsFold(deref(e.Position), f.Query) {
			continue
		}
		if f.Department != nil && e.Department != *f.Department {
			continue
		}
		if f.Location != nil && !containsFold(deref(e.Location), *f.Location) {
			continue
		}
		if f.Position != nil && !containsFold(deref(e.Position), *f.Position) {
			continue
		}
		if f.Manager != nil && !containsFold(deref(e.Manager), *f.Manager) {
			continue
		}
		if f.HiredFrom != nil && (e.HireDate == nil || e.HireDate.Before(*f.HiredFrom)) {
			continue
		}
		if f.HiredTo != nil && (e.HireDate == nil || e.HireDate.After(*f.HiredTo)) {
			continue
		}
		matched = append(matched, e)
	}

	key := func(e *Employee) string {
		switch f.SortBy {
		case SortByEmail:
			return e.Email
		case SortByDepartment:
			return e.Department
		case SortByCreatedAt:
			return e.CreatedAt.Format(time.RFC3339Nano)
		default:
			return e.Name
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		ki, kj := key(matched[i]), key(matched[j])
		if ki != kj {
			if f.Descending {
				return ki > kj
			}
			return ki < kj
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if f.Offset >= total {
		return []*Summary{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	out := make([]*Summary, 0, end-f.Offset)
	for _, e := range matched[f.Offset:end] {
		out = append(out, e.Summarize())
	}
	return out, total, nil
}

func (r *fakeEmployeeRepo) ActiveDepartments(_ context.Context) ([]Department, error) {
	counts := map[string]int{}
	for _, e := range r.employees {
		if e.IsActive && e.Department != "" {
			counts[e.Department]++
		}
	}
	out := make([]Department, 0, len(counts))
	for name, n := range counts {
		out = append(out, Department{Name: name, EmployeeCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeEmployeeRepo) ActiveLocations(_ context.Context) ([]LocationCount, error) {
	counts := map[string]int{}
	for _, e := range r.employees {
		if e.IsActive && e.Location != nil {
			counts[*e.Location]++
		}
	}
	out := make([]LocationCount, 0, len(counts))
	for loc, n := range counts {
		out = append(out, LocationCount{Location: loc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

func (r *fakeEmployeeRepo) CountByStatus(_ context.Context) (int, int, error) {
	var active, inactive int
	for _, e := range r.employees {
		if e.IsActive {
			active++
		} else {
			inactive++
		}
	}
	return active, inactive, nil
}

func (r *fakeEmployeeRepo) CountActiveHiredBetween(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	for _, e := range r.employees {
		if e.IsActive && e.HireDate != nil && !e.HireDate.Before(from) && !e.HireDate.After(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeEmployeeRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	for _, e := range r.employees {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeEmployeeRepo) snapshot() map[int64]*Employee {
	out := make(map[int64]*Employee, len(r.employees))
	for id, e := range r.employees {
		out[id] = cloneEmployee(e)
	}
	return out
}

type fakeAuditRepo struct {
	entries   []*audit.Entry
	sequence  int64
	appendErr error
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *audit.Entry) (*audit.Entry, error) {
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	r.sequence++
	clone := *entry
	clone.ID = r.sequence
	r.entries = append(r.entries, &clone)
	return &clone, nil
}

func (r *fakeAuditRepo) ListByEmployee(_ context.Context, f audit.ListFilter) ([]*audit.Entry, error) {
	var matched []*audit.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].EmployeeID == f.EmployeeID {
			matched = append(matched, r.entries[i])
		}
	}
	if f.Offset >= len(matched) {
		return nil, nil
	}
	return matched[f.Offset:min(f.Offset+f.Limit, len(matched))], nil
}

func (r *fakeAuditRepo) CountByEmployee(_ context.Context, employeeID int64) (int, error) {
	n := 0
	for _, e := range r.entries {
		if e.EmployeeID == employeeID {
			n++
		}
	}
	return n, nil
}

func (r *fakeAuditRepo) forEmployee(id int64) []*audit.Entry {
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.EmployeeID == id {
			out = append(out, e)
		}
	}
	return out
}

// fakeTxManager は失敗時に両リポジトリの状態を巻き戻します。
type fakeTxManager struct {
	repo  *fakeEmployeeRepo
	audit *fakeAuditRepo
	calls int
}

func (m *fakeTxManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	m.calls++
	employees := m.repo.snapshot()
	sequence := m.repo.sequence
	entries := append([]*audit.Entry(nil), m.audit.entries...)

	if err := fn(ctx); err != nil {
		m.repo.employees = employees
		m.repo.sequence = sequence
		m.audit.entries = entries
		return err
	}
	return nil
}

var errBoom = errors.New("boom")

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}

type fixture struct {
	repo  *fakeEmployeeRepo
	audit *fakeAuditRepo
	tx    *fakeTxManager
	clock *stubClock
	svc   *Service
	query *Query
}

func newFixture() *fixture {
	repo := newFakeEmployeeRepo()
	auditRepo := &fakeAuditRepo{}
	clock := &stubClock{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
	tx := &fakeTxManager{repo: repo, audit: auditRepo}
	return &fixture{
		repo:  repo,
		audit: auditRepo,
		tx:    tx,
		clock: clock,
		svc:   NewService(repo, auditRepo, clock, tx),
		query: NewQuery(repo, auditRepo, clock),
	}
}

var testActor = audit.Actor{ID: "admin", IPAddress: "10.0.0.1", UserAgent: "curl/8.0"}
