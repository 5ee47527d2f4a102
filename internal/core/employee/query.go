package employee

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
)

const (
	defaultPerPage      = 50
	defaultAuditPerPage = 20
	maxPerPage          = 100
)

// fallbackDepartments は在籍者が一人もいない場合に返す既定の部署一覧です。
var fallbackDepartments = []string{
	"Engineering", "Marketing", "Sales", "HR", "Finance",
	"Operations", "Customer Support", "Product", "Design",
}

// SearchParams は一覧・検索リクエストの未解釈のパラメータです。空文字列は未指定を表します。
type SearchParams struct {
	Query      string
	Department string
	IsActive   string
	Location   string
	Position   string
	Manager    string
	HiredFrom  string
	HiredTo    string
	SortBy     string
	SortOrder  string
	Page       string
	PerPage    string
}

// Pagination はページング情報です。
type Pagination struct {
	Page    int
	PerPage int
	Total   int
	Pages   int
	HasNext bool
	HasPrev bool
}

// NewPagination は総件数から Pagination を組み立てます。
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// SearchResult は一覧・検索の結果です。Filter には解釈済みの条件が入ります。
type SearchResult struct {
	Employees  []*Summary
	Pagination Pagination
	Filter     SearchFilter
}

// AuditLogResult は社員単位の監査ログ一覧です。
type AuditLogResult struct {
	Employee   *Employee
	Entries    []*audit.Entry
	Pagination Pagination
}

// QueryUseCase は一覧・集計ユースケースの公開インターフェースです。
type QueryUseCase interface {
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	DepartmentEmployees(ctx context.Context, department string, params SearchParams) (*SearchResult, error)
	Departments(ctx context.Context) ([]Department, error)
	AuditLog(ctx context.Context, employeeID int64, page, perPage string) (*AuditLogResult, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// Query は読み取り専用の一覧・集計処理をまとめます。各処理は単一のステートメントとして
// 実行され、ロックもトランザクションも取得しません。
type Query struct {
	repo  Repository
	audit audit.Repository
	clock Clock
}

// NewQuery は Query を生成します。
func NewQuery(repo Repository, auditRepo audit.Repository, clock Clock) *Query {
	if clock == nil {
		clock = realClock{}
	}
	return &Query{repo: repo, audit: auditRepo, clock: clock}
}

// Search は条件に一致する社員の要約をページ単位で返します。
func (q *Query) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	filter, page, perPage, err := parseSearchParams(params)
	if err != nil {
		return nil, err
	}

	items, total, err := q.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Summary{}
	}

	return &SearchResult{
		Employees:  items,
		Pagination: NewPagination(page, perPage, total),
		Filter:     filter,
	}, nil
}

// DepartmentEmployees は指定部署 (完全一致) に絞り込んだ一覧を返します。
func (q *Query) DepartmentEmployees(ctx context.Context, department string, params SearchParams) (*SearchResult, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, required(FieldDepartment)
	}
	params.Department = department
	return q.Search(ctx, params)
}

// Departments は在籍者のいる部署を名前順で返します。在籍者が一人もいない場合は既定の一覧を件数 0 で返します。
func (q *Query) Departments(ctx context.Context) ([]Department, error) {
	departments, err := q.repo.ActiveDepartments(ctx)
	if err != nil {
		return nil, err
	}
	if len(departments) > 0 {
		return departments, nil
	}

	fallback := make([]Department, 0, len(fallbackDepartments))
	for _, name := range fallbackDepartments {
		fallback = append(fallback, Department{Name: name})
	}
	return fallback, nil
}

// AuditLog は社員の監査ログを新しい順にページ単位で返します。社員が存在しない場合は ErrNotFound を返します。
func (q *Query) AuditLog(ctx context.Context, employeeID int64, rawPage, rawPerPage string) (*AuditLogResult, error) {
	emp, err := q.repo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	page, err := parsePage(rawPage)
	if err != nil {
		return nil, err
	}
	perPage, err := parsePerPage(rawPerPage, defaultAuditPerPage)
	if err != nil {
		return nil, err
	}

	total, err := q.audit.CountByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	entries, err := q.audit.ListByEmployee(ctx, audit.ListFilter{
		EmployeeID: employeeID,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}

	return &AuditLogResult{
		Employee:   emp,
		Entries:    entries,
		Pagination: NewPagination(page, perPage, total),
	}, nil
}

func parseSearchParams(p SearchParams) (SearchFilter, int, int, error) {
	page, err := parsePage(p.Page)
	if err != nil {
		return SearchFilter{}, 0, 0, err
	}
	perPage, err := parsePerPage(p.PerPage, defaultPerPage)
	if err != nil {
		return SearchFilter{}, 0, 0, err
	}

	sortBy := SortByName
	if raw := strings.TrimSpace(p.SortBy); raw != "" {
		sortBy = SortField(raw)
		if !sortBy.Valid() {
			return SearchFilter{}, 0, 0, invalidParameter("sort_by", fmt.Sprintf("unsupported sort field %q", raw))
		}
	}

	from, err := parseDateParam("hire_date_from", p.HiredFrom)
	if err != nil {
		return SearchFilter{}, 0, 0, err
	}
	to, err := parseDateParam("hire_date_to", p.HiredTo)
	if err != nil {
		return SearchFilter{}, 0, 0, err
	}

	isActive := true
	if raw := strings.TrimSpace(p.IsActive); raw != "" {
		isActive = strings.EqualFold(raw, "true")
	}

	return SearchFilter{
		Query:      strings.TrimSpace(p.Query),
		Department: nonEmpty(p.Department),
		IsActive:   isActive,
		Location:   nonEmpty(p.Location),
		Position:   nonEmpty(p.Position),
		Manager:    nonEmpty(p.Manager),
		HiredFrom:  from,
		HiredTo:    to,
		SortBy:     sortBy,
		Descending: strings.EqualFold(strings.TrimSpace(p.SortOrder), "desc"),
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}, page, perPage, nil
}

func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParameter("page", "page must be an integer")
	}
	return max(n, 1), nil
}

func parsePerPage(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParameter("per_page", "per_page must be an integer")
	}
	return min(max(n, 1), maxPerPage), nil
}

func parseDateParam(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, invalidParameter(field, fmt.Sprintf("%s must be in YYYY-MM-DD format", field))
	}
	return &d, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
