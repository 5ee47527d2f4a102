package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type departmentEmployeesResponse struct {
	Department string             `json:"department"`
	Employees  []summaryResponse  `json:"employees"`
	Pagination paginationResponse `json:"pagination"`
}

// ListDepartments は GET /api/departments を処理します。
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.queries.Departments(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]departmentResponse, 0, len(departments))
	for _, d := range departments {
		out = append(out, departmentResponse{Name: d.Name, EmployeeCount: d.EmployeeCount})
	}
	writeJSON(w, http.StatusOK, out)
}

// DepartmentEmployees は GET /api/departments/{name}/employees を処理します。
func (h *Handler) DepartmentEmployees(w http.ResponseWriter, r *http.Request) {
	name, err := decodedURLParam(r, "name")
	if err != nil {
		writeError(w, http.StatusNotFound, "The requested resource was not found")
		return
	}
	params := searchParamsFromQuery(r)
	params.Department = ""

	result, err := h.queries.DepartmentEmployees(r.Context(), name, params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	department := name
	if result.Filter.Department != nil {
		department = *result.Filter.Department
	}
	writeJSON(w, http.StatusOK, departmentEmployeesResponse{
		Department: department,
		Employees:  toSummaryResponses(result.Employees),
		Pagination: toPaginationResponse(result.Pagination),
	})
}

// decodedURLParam はパスパラメータをデコードして返します。
// chi は RawPath が設定されている場合にエスケープされたままの値でマッチするため、その場合のみ復元します。
func decodedURLParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}
