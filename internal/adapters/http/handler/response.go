package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ogurasousui/employee-directory/internal/core/audit"
	"github.com/ogurasousui/employee-directory/internal/core/employee"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type employeeResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone"`
	Department string  `json:"department"`
	Position   *string `json:"position"`
	Location   *string `json:"location"`
	Manager    *string `json:"manager"`
	IsActive   bool    `json:"is_active"`
	HireDate   *string `json:"hire_date"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type summaryResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Position   *string `json:"position"`
	Location   *string `json:"location"`
	IsActive   bool    `json:"is_active"`
}

type paginationResponse struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

type auditEntryResponse struct {
	ID         int64           `json:"id"`
	EmployeeID int64           `json:"employee_id"`
	Action     string          `json:"action"`
	ChangedBy  string          `json:"changed_by"`
	OldValues  *audit.Snapshot `json:"old_values"`
	NewValues  *audit.Snapshot `json:"new_values"`
	Timestamp  string          `json:"timestamp"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
}

type departmentResponse struct {
	Name          string `json:"name"`
	EmployeeCount int    `json:"employee_count"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Phone:      e.Phone,
		Department: e.Department,
		Position:   e.Position,
		Location:   e.Location,
		Manager:    e.Manager,
		IsActive:   e.IsActive,
		CreatedAt:  formatTimestamp(e.CreatedAt),
		UpdatedAt:  formatTimestamp(e.UpdatedAt),
	}
	if e.HireDate != nil {
		d := e.HireDate.Format(employee.DateLayout)
		resp.HireDate = &d
	}
	return resp
}

func toSummaryResponses(items []*employee.Summary) []summaryResponse {
	out := make([]summaryResponse, 0, len(items))
	for _, s := range items {
		out = append(out, summaryResponse{
			ID:         s.ID,
			Name:       s.Name,
			Email:      s.Email,
			Department: s.Department,
			Position:   s.Position,
			Location:   s.Location,
			IsActive:   s.IsActive,
		})
	}
	return out
}

func toPaginationResponse(p employee.Pagination) paginationResponse {
	return paginationResponse{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   p.Total,
		Pages:   p.Pages,
		HasNext: p.HasNext,
		HasPrev: p.HasPrev,
	}
}

func toAuditEntryResponses(entries []*audit.Entry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:         e.ID,
			EmployeeID: e.EmployeeID,
			Action:     string(e.Action),
			ChangedBy:  e.ChangedBy,
			OldValues:  e.OldValues,
			NewValues:  e.NewValues,
			Timestamp:  formatTimestamp(e.Timestamp),
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
		})
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func dateOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(employee.DateLayout)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}
