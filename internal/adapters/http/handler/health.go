package handler

import (
	"net/http"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Database      string `json:"database"`
	EmployeeCount *int   `json:"employee_count,omitempty"`
	Version       string `json:"version,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Health は GET /health を処理します。データベースに到達できない場合は 503 を返します。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())

	resp := healthResponse{
		Status:    string(report.Status),
		Timestamp: formatTimestamp(report.Timestamp),
		Database:  report.Database,
	}
	if !report.Healthy() {
		h.logger.Warn("health check failed", zap.String("error", report.Error))
		resp.Error = report.Error
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	count := report.EmployeeCount
	resp.EmployeeCount = &count
	resp.Version = report.Version
	writeJSON(w, http.StatusOK, resp)
}
