package employee

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Create(t *testing.T) {
	t.Parallel()

	fields, err := Validate(map[string]any{
		"name":       " Amy Lin ",
		"email":      " Amy.Lin@Example.COM ",
		"department": " Engineering ",
		"phone":      " +1 (555) 123-4567 ",
		"position":   "  ",
		"is_active":  "false",
		"hire_date":  "2024-01-31",
		"unknown":    "ignored",
	}, CreateRequired...)
	require.NoError(t, err)

	assert.Equal(t, "Amy Lin", *fields.Name)
	assert.Equal(t, "amy.lin@example.com", *fields.Email)
	assert.Equal(t, "Engineering", *fields.Department)
	assert.Equal(t, "+1 (555) 123-4567", *fields.Phone)
	assert.True(t, fields.Has(FieldPosition))
	assert.Nil(t, fields.Position)
	assert.False(t, *fields.IsActive)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *fields.HireDate)
	assert.False(t, fields.Has("unknown"))

	assert.Equal(t,
		[]string{"name", "email", "phone", "department", "position", "is_active", "hire_date"},
		fields.Snapshot().Keys())
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	base := func() map[string]any {
		return map[string]any{"name": "Amy Lin", "email": "amy@co.com", "department": "Sales"}
	}

	tests := []struct {
		name     string
		mutate   func(map[string]any)
		required []string
		field    string
		kind     error
	}{
		{name: "missing name", mutate: func(p map[string]any) { delete(p, "name") }, required: CreateRequired, field: "name", kind: ErrRequired},
		{name: "blank email", mutate: func(p map[string]any) { p["email"] = "   " }, required: CreateRequired, field: "email", kind: ErrRequired},
		{name: "null department", mutate: func(p map[string]any) { p["department"] = nil }, required: CreateRequired, field: "department", kind: ErrRequired},
		{name: "blank department on update", mutate: func(p map[string]any) { p["department"] = " " }, field: "department", kind: ErrRequired},
		{name: "short name", mutate: func(p map[string]any) { p["name"] = " A " }, field: "name", kind: ErrTooShort},
		{name: "bad email", mutate: func(p map[string]any) { p["email"] = "amy@co" }, field: "email", kind: ErrInvalidFormat},
		{name: "short phone", mutate: func(p map[string]any) { p["phone"] = "555-1234" }, field: "phone", kind: ErrInvalidFormat},
		{name: "bad hire date", mutate: func(p map[string]any) { p["hire_date"] = "01/31/2024" }, field: "hire_date", kind: ErrInvalidFormat},
		{name: "non string hire date", mutate: func(p map[string]any) { p["hire_date"] = 20240131 }, field: "hire_date", kind: ErrInvalidFormat},
		{name: "long name", mutate: func(p map[string]any) { p["name"] = strings.Repeat("a", 101) }, field: "name", kind: ErrInvalidFormat},
		{name: "long email", mutate: func(p map[string]any) { p["email"] = strings.Repeat("a", 250) + "@co.com" }, field: "email", kind: ErrInvalidFormat},
		{name: "long phone", mutate: func(p map[string]any) { p["phone"] = "+1 (555) 123-4567 ext. 12" }, field: "phone", kind: ErrInvalidFormat},
		{name: "long department", mutate: func(p map[string]any) { p["department"] = strings.Repeat("d", 101) }, field: "department", kind: ErrInvalidFormat},
		{name: "long manager", mutate: func(p map[string]any) { p["manager"] = strings.Repeat("m", 101) }, field: "manager", kind: ErrInvalidFormat},
		{name: "object name", mutate: func(p map[string]any) { p["name"] = map[string]any{"first": "Amy"} }, field: "name", kind: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := base()
			tt.mutate(payload)

			_, err := Validate(payload, tt.required...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.field, FieldOf(err))
		})
	}
}

func TestValidate_UpdateAcceptsPartialPayload(t *testing.T) {
	t.Parallel()

	fields, err := Validate(map[string]any{"department": "Sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"department"}, fields.Snapshot().Keys())
	assert.False(t, fields.Empty())

	empty, err := Validate(map[string]any{})
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.Equal(t, 0, empty.Snapshot().Len())
}

func TestValidate_Coercions(t *testing.T) {
	t.Parallel()

	fields, err := Validate(map[string]any{
		"is_active": nil,
		"phone":     float64(5551234567),
		"hire_date": "",
	})
	require.NoError(t, err)
	assert.False(t, *fields.IsActive)
	assert.Equal(t, "5551234567", *fields.Phone)
	assert.False(t, fields.Has(FieldHireDate))
}

func TestValidate_IsActiveTruthiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		want bool
	}{
		{name: "true", raw: true, want: true},
		{name: "false", raw: false, want: false},
		{name: "number one", raw: json.Number("1"), want: true},
		{name: "number zero", raw: json.Number("0"), want: false},
		{name: "decimal zero", raw: json.Number("0.0"), want: false},
		{name: "float", raw: float64(2), want: true},
		{name: "string false", raw: "false", want: false},
		{name: "string zero", raw: "0", want: false},
		{name: "string yes", raw: "yes", want: true},
		{name: "blank string", raw: "  ", want: false},
		{name: "empty list", raw: []any{}, want: false},
		{name: "object", raw: map[string]any{"a": 1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields, err := Validate(map[string]any{"is_active": tt.raw})
			require.NoError(t, err)
			assert.Equal(t, tt.want, *fields.IsActive)
		})
	}
}

func TestValidate_AcceptsMaximumLengths(t *testing.T) {
	t.Parallel()

	fields, err := Validate(map[string]any{
		"name":       strings.Repeat("a", 100),
		"department": strings.Repeat("d", 100),
		"phone":      "+1 (555) 123-4567 x1",
		"location":   strings.Repeat("l", 100),
	}, FieldName, FieldDepartment)
	require.NoError(t, err)
	assert.Len(t, *fields.Name, 100)
	assert.Equal(t, "+1 (555) 123-4567 x1", *fields.Phone)
}
