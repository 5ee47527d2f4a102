package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository_Append(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuditRepository(mock)

	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entry := &audit.Entry{
		EmployeeID: 7,
		Action:     audit.ActionUpdate,
		ChangedBy:  "admin",
		OldValues:  audit.NewSnapshot().Set("department", "Engineering"),
		NewValues:  audit.NewSnapshot().Set("department", "Sales"),
		Timestamp:  ts,
		IPAddress:  "10.0.0.1",
		UserAgent:  "curl/8.0",
	}

	mock.ExpectQuery(`INSERT INTO audit_logs \(employee_id, action, changed_by, old_values, new_values, timestamp, ip_address, user_agent\)`).
		WithArgs(int64(7), "UPDATE", "admin",
			json.RawMessage(`{"department":"Engineering"}`),
			json.RawMessage(`{"department":"Sales"}`),
			ts, "10.0.0.1", "curl/8.0").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	saved, err := repo.Append(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, int64(11), saved.ID)
	assert.Equal(t, int64(0), entry.ID, "input entry must not be mutated")
}

func TestAuditRepository_Append_NullOldValues(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuditRepository(mock)

	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs(int64(7), "CREATE", "admin", nil, json.RawMessage(`{"name":"Amy Lin"}`), pgxmock.AnyArg(), "unknown", "unknown").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err := repo.Append(context.Background(), &audit.Entry{
		EmployeeID: 7,
		Action:     audit.ActionCreate,
		ChangedBy:  "admin",
		NewValues:  audit.NewSnapshot().Set("name", "Amy Lin"),
		Timestamp:  time.Now(),
		IPAddress:  "unknown",
		UserAgent:  "unknown",
	})
	require.NoError(t, err)
}

func TestAuditRepository_Append_RejectsUnknownAction(t *testing.T) {
	t.Parallel()

	repo := NewAuditRepository(newMockPool(t))
	_, err := repo.Append(context.Background(), &audit.Entry{Action: "PURGE"})
	require.Error(t, err)
}

func TestAuditRepository_ListByEmployee(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuditRepository(mock)

	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM audit_logs\s+WHERE employee_id = \$1\s+ORDER BY timestamp DESC, id DESC\s+LIMIT \$2\s+OFFSET \$3`).
		WithArgs(int64(7), 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "action", "changed_by", "old_values", "new_values", "timestamp", "ip_address", "user_agent"}).
			AddRow(int64(2), int64(7), "DELETE", "admin", []byte(`{"id":7,"is_active":true}`), []byte(`{"is_active":false}`), ts, "10.0.0.1", "curl/8.0").
			AddRow(int64(1), int64(7), "CREATE", "admin", []byte(nil), []byte(`{"name":"Amy Lin"}`), ts.Add(-time.Hour), "10.0.0.1", "curl/8.0"))

	entries, err := repo.ListByEmployee(context.Background(), audit.ListFilter{EmployeeID: 7, Limit: 20})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, audit.ActionDelete, entries[0].Action)
	assert.Equal(t, []string{"id", "is_active"}, entries[0].OldValues.Keys())
	id, _ := entries[0].OldValues.Get("id")
	assert.Equal(t, int64(7), id)
	assert.Nil(t, entries[1].OldValues)
	name, _ := entries[1].NewValues.Get("name")
	assert.Equal(t, "Amy Lin", name)
}

func TestAuditRepository_CountByEmployee(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuditRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs WHERE employee_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByEmployee(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
