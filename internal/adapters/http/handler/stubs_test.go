package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
	"github.com/ogurasousui/employee-directory/internal/core/auth"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"github.com/ogurasousui/employee-directory/internal/core/health"
	"github.com/ogurasousui/employee-directory/internal/platform/metrics"
)

const validToken = "valid-token"

type stubEmployeeUseCase struct {
	createPayload map[string]any
	createActor   audit.Actor
	createOut     *employee.Employee
	createErr     error
	createCalls   int

	getID  int64
	getOut *employee.Employee
	getErr error

	updateID      int64
	updatePayload map[string]any
	updateActor   audit.Actor
	updateOut     *employee.Employee
	updateErr     error

	deleteID    int64
	deleteActor audit.Actor
	deleteOut   *employee.Employee
	deleteErr   error
}

func (s *stubEmployeeUseCase) CreateEmployee(_ context.Context, payload map[string]any, actor audit.Actor) (*employee.Employee, error) {
	s.createCalls++
	s.createPayload = payload
	s.createActor = actor
	return s.createOut, s.createErr
}

func (s *stubEmployeeUseCase) GetEmployee(_ context.Context, id int64) (*employee.Employee, error) {
	s.getID = id
	return s.getOut, s.getErr
}

func (s *stubEmployeeUseCase) UpdateEmployee(_ context.Context, id int64, payload map[string]any, actor audit.Actor) (*employee.Employee, error) {
	s.updateID = id
	s.updatePayload = payload
	s.updateActor = actor
	return s.updateOut, s.updateErr
}

func (s *stubEmployeeUseCase) DeleteEmployee(_ context.Context, id int64, actor audit.Actor) (*employee.Employee, error) {
	s.deleteID = id
	s.deleteActor = actor
	return s.deleteOut, s.deleteErr
}

type stubQueryUseCase struct {
	searchParams employee.SearchParams
	searchOut    *employee.SearchResult
	searchErr    error

	department string

	departmentsOut []employee.Department
	departmentsErr error

	auditID      int64
	auditPage    string
	auditPerPage string
	auditOut     *employee.AuditLogResult
	auditErr     error

	statsOut *employee.Statistics
	statsErr error
}

func (s *stubQueryUseCase) Search(_ context.Context, params employee.SearchParams) (*employee.SearchResult, error) {
	s.searchParams = params
	return s.searchOut, s.searchErr
}

func (s *stubQueryUseCase) DepartmentEmployees(_ context.Context, department string, params employee.SearchParams) (*employee.SearchResult, error) {
	s.department = department
	s.searchParams = params
	return s.searchOut, s.searchErr
}

func (s *stubQueryUseCase) Departments(context.Context) ([]employee.Department, error) {
	return s.departmentsOut, s.departmentsErr
}

func (s *stubQueryUseCase) AuditLog(_ context.Context, id int64, page, perPage string) (*employee.AuditLogResult, error) {
	s.auditID = id
	s.auditPage = page
	s.auditPerPage = perPage
	return s.auditOut, s.auditErr
}

func (s *stubQueryUseCase) Statistics(context.Context) (*employee.Statistics, error) {
	return s.statsOut, s.statsErr
}

type stubAuthenticator struct {
	loginUser string
	loginPass string
	loginOut  *auth.Token
	loginErr  error
	verifyErr error
}

func (s *stubAuthenticator) Login(_ context.Context, username, password string) (*auth.Token, error) {
	s.loginUser = username
	s.loginPass = password
	return s.loginOut, s.loginErr
}

func (s *stubAuthenticator) Verify(_ context.Context, token string) (string, error) {
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	if token != validToken {
		return "", auth.ErrInvalidToken
	}
	return "admin", nil
}

type stubChecker struct {
	report health.Report
}

func (s *stubChecker) Check(context.Context) health.Report {
	return s.report
}

type testServer struct {
	employees *stubEmployeeUseCase
	queries   *stubQueryUseCase
	auth      *stubAuthenticator
	checker   *stubChecker
	metrics   *metrics.Metrics
	router    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		employees: &stubEmployeeUseCase{},
		queries:   &stubQueryUseCase{},
		auth:      &stubAuthenticator{},
		checker:   &stubChecker{},
		metrics:   metrics.New(),
	}
	ts.router = NewRouter(Dependencies{
		Employees:   ts.employees,
		Queries:     ts.queries,
		Auth:        ts.auth,
		Health:      ts.checker,
		Metrics:     ts.metrics,
		CORSOrigins: []string{"*"},
	})
	return ts
}

func (ts *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + validToken}
}

func strPtr(s string) *string { return &s }

func sampleEmployee() *employee.Employee {
	created := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	hired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &employee.Employee{
		ID:         7,
		Name:       "Amy Lin",
		Email:      "amy.lin@example.com",
		Department: "Engineering",
		Position:   strPtr("Backend Engineer"),
		Location:   strPtr("Tokyo"),
		IsActive:   true,
		HireDate:   &hired,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}
