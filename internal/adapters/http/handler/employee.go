package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/employee-directory/internal/core/audit"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body must contain JSON data")

type listFiltersResponse struct {
	Search     any  `json:"search"`
	Department any  `json:"department"`
	IsActive   bool `json:"is_active"`
}

type listEmployeesResponse struct {
	Employees  []summaryResponse   `json:"employees"`
	Pagination paginationResponse  `json:"pagination"`
	Filters    listFiltersResponse `json:"filters"`
}

type auditLogResponse struct {
	EmployeeID   int64                `json:"employee_id"`
	EmployeeName string               `json:"employee_name"`
	AuditLogs    []auditEntryResponse `json:"audit_logs"`
	Pagination   paginationResponse   `json:"pagination"`
}

// ListEmployees は GET /api/employees を処理します。検索語は search または q で受け付けます。
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	params := searchParamsFromQuery(r)
	if params.Query == "" {
		params.Query = r.URL.Query().Get("q")
	}

	result, err := h.queries.Search(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var search any
	if result.Filter.Query != "" {
		search = result.Filter.Query
	}
	writeJSON(w, http.StatusOK, listEmployeesResponse{
		Employees:  toSummaryResponses(result.Employees),
		Pagination: toPaginationResponse(result.Pagination),
		Filters: listFiltersResponse{
			Search:     search,
			Department: stringOrNil(result.Filter.Department),
			IsActive:   result.Filter.IsActive,
		},
	})
}

// GetEmployee は GET /api/employees/{id} を処理します。論理削除済みの社員も返します。
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	emp, err := h.employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.respondEmployeeError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(emp))
}

// CreateEmployee は POST /api/employees を処理します。
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	actor := actorFromRequest(r)
	created, err := h.employees.CreateEmployee(r.Context(), payload, actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.metrics.IncMutation(string(audit.ActionCreate))
	h.logger.Info("employee created",
		zap.Int64("employee_id", created.ID),
		zap.String("changed_by", actor.ID),
	)
	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

// UpdateEmployee は PUT /api/employees/{id} を処理します。指定された項目のみ更新します。
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	payload, err := decodePayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, payloadErrorMessage(err))
		return
	}

	actor := actorFromRequest(r)
	updated, err := h.employees.UpdateEmployee(r.Context(), id, payload, actor)
	if err != nil {
		h.respondEmployeeError(w, r, id, err)
		return
	}

	h.metrics.IncMutation(string(audit.ActionUpdate))
	h.logger.Info("employee updated",
		zap.Int64("employee_id", id),
		zap.String("changed_by", actor.ID),
	)
	writeJSON(w, http.StatusOK, toEmployeeResponse(updated))
}

// DeleteEmployee は DELETE /api/employees/{id} を処理します。レコードは論理削除されます。
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	actor := actorFromRequest(r)
	if _, err := h.employees.DeleteEmployee(r.Context(), id, actor); err != nil {
		h.respondEmployeeError(w, r, id, err)
		return
	}

	h.metrics.IncMutation(string(audit.ActionDelete))
	h.logger.Info("employee deleted",
		zap.Int64("employee_id", id),
		zap.String("changed_by", actor.ID),
	)
	writeMessage(w, http.StatusOK, "Employee deleted successfully")
}

// EmployeeAuditLog は GET /api/employees/{id}/audit を処理します。
func (h *Handler) EmployeeAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.queries.AuditLog(r.Context(), id, q.Get("page"), q.Get("per_page"))
	if err != nil {
		h.respondEmployeeError(w, r, id, err)
		return
	}

	writeJSON(w, http.StatusOK, auditLogResponse{
		EmployeeID:   id,
		EmployeeName: result.Employee.Name,
		AuditLogs:    toAuditEntryResponses(result.Entries),
		Pagination:   toPaginationResponse(result.Pagination),
	})
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "The requested resource was not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondEmployeeError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, employee.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Employee with ID %d not found", id))
		return
	}
	h.respondError(w, r, err)
}

// decodePayload は JSON オブジェクトの本文を map として読み込みます。数値は json.Number のまま保持します。
func decodePayload(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyBody
		}
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if payload == nil {
		return nil, errEmptyBody
	}
	return payload, nil
}

func payloadErrorMessage(err error) string {
	if errors.Is(err, errEmptyBody) {
		return "Request body must contain JSON data"
	}
	return "Request body must be a JSON object"
}
