package employee

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, f *fixture, payloads ...map[string]any) []*Employee {
	t.Helper()

	out := make([]*Employee, 0, len(payloads))
	for _, p := range payloads {
		emp, err := f.svc.CreateEmployee(context.Background(), p, testActor)
		require.NoError(t, err)
		out = append(out, emp)
	}
	return out
}

func TestQuery_SearchScenario(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seed(t, f,
		map[string]any{"name": "Zed Park", "email": "zed@co.com", "department": "Engineering", "position": "Senior Engineer"},
		map[string]any{"name": "Ann Cole", "email": "ann@co.com", "department": "Engineering", "position": "Engineer"},
		map[string]any{"name": "Eng Sales", "email": "sales@co.com", "department": "Sales", "position": "Account Manager"},
	)

	result, err := f.query.Search(context.Background(), SearchParams{Query: "eng", Department: "Engineering"})
	require.NoError(t, err)

	require.Len(t, result.Employees, 2)
	assert.Equal(t, "Ann Cole", result.Employees[0].Name)
	assert.Equal(t, "Zed Park", result.Employees[1].Name)
	assert.Equal(t, NewPagination(1, 50, 2), result.Pagination)
	assert.True(t, result.Filter.IsActive)
}

func TestQuery_SearchPagination(t *testing.T) {
	t.Parallel()

	f := newFixture()
	for _, name := range []string{"Aa One", "Bb Two", "Cc Three"} {
		seed(t, f, map[string]any{"name": name, "email": name[:2] + "@co.com", "department": "Ops"})
	}
	ctx := context.Background()

	result, err := f.query.Search(ctx, SearchParams{Page: "0", PerPage: "2"})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, PerPage: 2, Total: 3, Pages: 2, HasNext: true, HasPrev: false}, result.Pagination)
	assert.Len(t, result.Employees, 2)

	result, err = f.query.Search(ctx, SearchParams{Page: "2", PerPage: "2", SortOrder: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, PerPage: 2, Total: 3, Pages: 2, HasNext: false, HasPrev: true}, result.Pagination)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, "Aa One", result.Employees[0].Name)

	result, err = f.query.Search(ctx, SearchParams{PerPage: "500"})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Pagination.PerPage)

	result, err = f.query.Search(ctx, SearchParams{PerPage: "-3"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.PerPage)
}

func TestQuery_SearchInvalidParameters(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		params SearchParams
		field  string
	}{
		{name: "page", params: SearchParams{Page: "first"}, field: "page"},
		{name: "per_page", params: SearchParams{PerPage: "1.5"}, field: "per_page"},
		{name: "sort_by", params: SearchParams{SortBy: "salary"}, field: "sort_by"},
		{name: "hire_date_from", params: SearchParams{HiredFrom: "2024-13-01"}, field: "hire_date_from"},
		{name: "hire_date_to", params: SearchParams{HiredTo: "yesterday"}, field: "hire_date_to"},
	}

	for _, tt := range tests {
		_, err := f.query.Search(ctx, tt.params)
		assert.ErrorIs(t, err, ErrInvalidParameter, tt.name)
		assert.Equal(t, tt.field, FieldOf(err), tt.name)
	}
}

func TestQuery_SearchFilters(t *testing.T) {
	t.Parallel()

	f := newFixture()
	emps := seed(t, f,
		map[string]any{"name": "Amy Lin", "email": "amy@co.com", "department": "Sales", "location": "Tokyo Office", "manager": "Grace Hopper", "hire_date": "2023-01-10"},
		map[string]any{"name": "Bob Ray", "email": "bob@co.com", "department": "Sales", "location": "Osaka", "hire_date": "2023-05-20"},
	)
	_, err := f.svc.DeleteEmployee(context.Background(), emps[1].ID, testActor)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := f.query.Search(ctx, SearchParams{Location: "tokyo", Manager: "hopper"})
	require.NoError(t, err)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, emps[0].ID, result.Employees[0].ID)

	result, err = f.query.Search(ctx, SearchParams{IsActive: "FALSE"})
	require.NoError(t, err)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, emps[1].ID, result.Employees[0].ID)

	result, err = f.query.Search(ctx, SearchParams{HiredFrom: "2023-01-10", HiredTo: "2023-01-10"})
	require.NoError(t, err)
	assert.Len(t, result.Employees, 1)
}

func TestQuery_Departments(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	departments, err := f.query.Departments(ctx)
	require.NoError(t, err)
	require.Len(t, departments, 9)
	for _, d := range departments {
		assert.Zero(t, d.EmployeeCount, d.Name)
	}
	assert.Equal(t, "Engineering", departments[0].Name)

	seed(t, f,
		map[string]any{"name": "Amy Lin", "email": "amy@co.com", "department": "Sales"},
		map[string]any{"name": "Bob Ray", "email": "bob@co.com", "department": "Engineering"},
		map[string]any{"name": "Cat Poe", "email": "cat@co.com", "department": "Sales"},
	)

	departments, err = f.query.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Department{{Name: "Engineering", EmployeeCount: 1}, {Name: "Sales", EmployeeCount: 2}}, departments)

	result, err := f.query.DepartmentEmployees(ctx, "Sales", SearchParams{Department: "Engineering"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pagination.Total)
}

func TestQuery_AuditLog(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	emp := seed(t, f, map[string]any{"name": "Amy Lin", "email": "amy@co.com", "department": "Sales"})[0]
	_, err := f.svc.UpdateEmployee(ctx, emp.ID, map[string]any{"department": "Engineering"}, testActor)
	require.NoError(t, err)
	_, err = f.svc.DeleteEmployee(ctx, emp.ID, testActor)
	require.NoError(t, err)

	result, err := f.query.AuditLog(ctx, emp.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Amy Lin", result.Employee.Name)
	assert.Equal(t, NewPagination(1, 20, 3), result.Pagination)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, "DELETE", string(result.Entries[0].Action))
	assert.Equal(t, "CREATE", string(result.Entries[2].Action))

	result, err = f.query.AuditLog(ctx, emp.ID, "2", "2")
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "CREATE", string(result.Entries[0].Action))

	_, err = f.query.AuditLog(ctx, 999, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.query.AuditLog(ctx, 999, "x", "-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.query.AuditLog(ctx, emp.ID, "x", "")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestQuery_Statistics(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	// 2023-11 に 1 件、2024-03 (当月) に 2 件作成する。
	f.clock.now = time.Date(2023, 11, 30, 23, 0, 0, 0, time.UTC)
	old := seed(t, f, map[string]any{"name": "Old Timer", "email": "old@co.com", "department": "Sales", "location": "Osaka"})[0]

	f.clock.now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	seed(t, f,
		map[string]any{"name": "Amy Lin", "email": "amy@co.com", "department": "Sales", "location": "Tokyo", "hire_date": "2024-02-14"},
		map[string]any{"name": "Bob Ray", "email": "bob@co.com", "department": "Engineering", "hire_date": "2024-02-13"},
	)
	_, err := f.svc.DeleteEmployee(ctx, old.ID, testActor)
	require.NoError(t, err)

	stats, err := f.query.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalActive)
	assert.Equal(t, 1, stats.TotalInactive)
	assert.Equal(t, []Department{{Name: "Engineering", EmployeeCount: 1}, {Name: "Sales", EmployeeCount: 1}}, stats.Departments)
	assert.Equal(t, []LocationCount{{Location: "Tokyo", Count: 1}}, stats.Locations)
	assert.Equal(t, 1, stats.RecentHires)
	assert.Equal(t, []MonthCount{
		{Month: "2023-10", Count: 0},
		{Month: "2023-11", Count: 1},
		{Month: "2023-12", Count: 0},
		{Month: "2024-01", Count: 0},
		{Month: "2024-02", Count: 0},
		{Month: "2024-03", Count: 2},
	}, stats.MonthlyGrowth)
	assert.Equal(t, f.clock.now, stats.GeneratedAt)
}
