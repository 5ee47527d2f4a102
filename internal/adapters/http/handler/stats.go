package handler

import (
	"net/http"
)

type growthResponse struct {
	Month        string `json:"month"`
	NewEmployees int    `json:"new_employees"`
}

type statisticsResponse struct {
	TotalEmployees int              `json:"total_employees"`
	TotalInactive  int              `json:"total_inactive"`
	RecentHires    int              `json:"recent_hires"`
	Departments    map[string]int   `json:"departments"`
	Locations      map[string]int   `json:"locations"`
	Growth         []growthResponse `json:"growth"`
	GeneratedAt    string           `json:"generated_at"`
}

// Statistics は GET /api/stats を処理します。
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Statistics(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	departments := make(map[string]int, len(stats.Departments))
	for _, d := range stats.Departments {
		departments[d.Name] = d.EmployeeCount
	}
	locations := make(map[string]int, len(stats.Locations))
	for _, l := range stats.Locations {
		locations[l.Location] = l.Count
	}
	growth := make([]growthResponse, 0, len(stats.MonthlyGrowth))
	for _, m := range stats.MonthlyGrowth {
		growth = append(growth, growthResponse{Month: m.Month, NewEmployees: m.Count})
	}

	writeJSON(w, http.StatusOK, statisticsResponse{
		TotalEmployees: stats.TotalActive,
		TotalInactive:  stats.TotalInactive,
		RecentHires:    stats.RecentHires,
		Departments:    departments,
		Locations:      locations,
		Growth:         growth,
		GeneratedAt:    formatTimestamp(stats.GeneratedAt),
	})
}
