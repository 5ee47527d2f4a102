package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	pgdb "github.com/ogurasousui/employee-directory/internal/platform/db/postgres"
)

const (
	uniqueViolationCode = "23505"

	employeeColumns = `id, name, email, phone, department, position, location, manager, is_active, hire_date, created_at, updated_at`
)

var sortColumns = map[employee.SortField]string{
	employee.SortByName:       "name",
	employee.SortByEmail:      "email",
	employee.SortByDepartment: "department",
	employee.SortByCreatedAt:  "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (name, email, phone, department, position, location, manager, is_active, hire_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+employeeColumns,
		e.Name,
		e.Email,
		e.Phone,
		e.Department,
		e.Position,
		e.Location,
		e.Manager,
		e.IsActive,
		nullableDate(e.HireDate),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員の全項目を書き換えます。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET name = $1,
               email = $2,
               phone = $3,
               department = $4,
               position = $5,
               location = $6,
               manager = $7,
               is_active = $8,
               hire_date = $9,
               updated_at = $10
         WHERE id = $11
        RETURNING `+employeeColumns,
		e.Name,
		e.Email,
		e.Phone,
		e.Department,
		e.Position,
		e.Location,
		e.Manager,
		e.IsActive,
		nullableDate(e.HireDate),
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByIDForUpdate は行ロックを取得して社員を取得します。トランザクション外で呼ばれた場合は
// ロックは文の終了とともに解放されます。
func (r *EmployeeRepository) FindByIDForUpdate(ctx context.Context, id int64) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1 FOR UPDATE`, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// EmailTaken は excludeID 以外の行がメールアドレスを使用しているかを返します。
func (r *EmployeeRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var taken bool
	if err := exec.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE email = $1 AND id <> $2)`,
		email, excludeID,
	).Scan(&taken); err != nil {
		return false, translateEmployeePgError(err)
	}
	return taken, nil
}

// Search は条件に一致する社員の要約と総件数を返します。
func (r *EmployeeRepository) Search(ctx context.Context, filter employee.SearchFilter) ([]*employee.Summary, int, error) {
	if filter.Limit <= 0 {
		return nil, 0, fmt.Errorf("postgres: search limit must be positive")
	}
	if filter.Offset < 0 {
		return nil, 0, fmt.Errorf("postgres: search offset must not be negative")
	}

	sortColumn, ok := sortColumns[filter.SortBy]
	if !ok {
		sortColumn = sortColumns[employee.SortByName]
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	whereClause, args := buildSearchConditions(filter)
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT id, name, email, department, position, location, is_active
          FROM employees` + whereClause + `
         ORDER BY ` + sortColumn + ` ` + direction + `, id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateEmployeePgError(err)
	}
	defer rows.Close()

	summaries := make([]*employee.Summary, 0, filter.Limit)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, translateEmployeePgError(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	return summaries, total, nil
}

func buildSearchConditions(filter employee.SearchFilter) (string, []any) {
	args := make([]any, 0, 8)
	conditions := make([]string, 0, 8)

	next := func(value any) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	conditions = append(conditions, "is_active = "+next(filter.IsActive))

	if filter.Query != "" {
		p := next(containsPattern(filter.Query))
		conditions = append(conditions, "(name ILIKE "+p+" OR email ILIKE "+p+" OR position ILIKE "+p+")")
	}
	if filter.Department != nil {
		conditions = append(conditions, "department = "+next(*filter.Department))
	}
	if filter.Location != nil {
		conditions = append(conditions, "location ILIKE "+next(containsPattern(*filter.Location)))
	}
	if filter.Position != nil {
		conditions = append(conditions, "position ILIKE "+next(containsPattern(*filter.Position)))
	}
	if filter.Manager != nil {
		conditions = append(conditions, "manager ILIKE "+next(containsPattern(*filter.Manager)))
	}
	if filter.HiredFrom != nil {
		conditions = append(conditions, "hire_date >= "+next(nullableDate(filter.HiredFrom)))
	}
	if filter.HiredTo != nil {
		conditions = append(conditions, "hire_date <= "+next(nullableDate(filter.HiredTo)))
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ActiveDepartments は在籍者の部署ごとの人数を部署名順で返します。
func (r *EmployeeRepository) ActiveDepartments(ctx context.Context) ([]employee.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT department, COUNT(*)
          FROM employees
         WHERE is_active = TRUE AND department <> ''
         GROUP BY department
         ORDER BY department ASC
    `)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var departments []employee.Department
	for rows.Next() {
		var d employee.Department
		if err := rows.Scan(&d.Name, &d.EmployeeCount); err != nil {
			return nil, translateEmployeePgError(err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return departments, nil
}

// ActiveLocations は在籍者の勤務地ごとの人数を返します。勤務地未設定の社員は含みません。
func (r *EmployeeRepository) ActiveLocations(ctx context.Context) ([]employee.LocationCount, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT location, COUNT(*)
          FROM employees
         WHERE is_active = TRUE AND location IS NOT NULL
         GROUP BY location
         ORDER BY location ASC
    `)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	var locations []employee.LocationCount
	for rows.Next() {
		var l employee.LocationCount
		if err := rows.Scan(&l.Location, &l.Count); err != nil {
			return nil, translateEmployeePgError(err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return locations, nil
}

// CountByStatus は在籍者数と退職者数を返します。
func (r *EmployeeRepository) CountByStatus(ctx context.Context) (int, int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var active, inactive int
	if err := exec.QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE is_active),
               COUNT(*) FILTER (WHERE NOT is_active)
          FROM employees
    `).Scan(&active, &inactive); err != nil {
		return 0, 0, translateEmployeePgError(err)
	}
	return active, inactive, nil
}

// CountActiveHiredBetween は hire_date が from 以上 to 以下の在籍者数を返します。
func (r *EmployeeRepository) CountActiveHiredBetween(ctx context.Context, from, to time.Time) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	if err := exec.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE is_active = TRUE AND hire_date BETWEEN $1 AND $2`,
		nullableDate(&from), nullableDate(&to),
	).Scan(&count); err != nil {
		return 0, translateEmployeePgError(err)
	}
	return count, nil
}

// CountCreatedBetween は created_at が from 以上 to 未満の社員数を返します。
func (r *EmployeeRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	if err := exec.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&count); err != nil {
		return 0, translateEmployeePgError(err)
	}
	return count, nil
}

// Count は在籍状態に関わらず全社員数を返します。
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return 0, translateEmployeePgError(err)
	}
	return count, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e        employee.Employee
		phone    sql.NullString
		position sql.NullString
		location sql.NullString
		manager  sql.NullString
		hireDate sql.NullTime
	)

	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&phone,
		&e.Department,
		&position,
		&location,
		&manager,
		&e.IsActive,
		&hireDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.Phone = nullString(phone)
	e.Position = nullString(position)
	e.Location = nullString(location)
	e.Manager = nullString(manager)
	e.HireDate = nullDate(hireDate)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func scanSummary(row pgx.Row) (*employee.Summary, error) {
	var (
		s        employee.Summary
		position sql.NullString
		location sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Department, &position, &location, &s.IsActive); err != nil {
		return nil, err
	}
	s.Position = nullString(position)
	s.Location = nullString(location)
	return &s, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return employee.ErrEmailAlreadyExists
	}

	return err
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullDate(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
