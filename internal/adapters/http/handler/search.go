package handler

import (
	"net/http"

	"github.com/ogurasousui/employee-directory/internal/core/employee"
)

type searchParamsResponse struct {
	Query        any  `json:"query"`
	Department   any  `json:"department"`
	Location     any  `json:"location"`
	Position     any  `json:"position"`
	Manager      any  `json:"manager"`
	IsActive     bool `json:"is_active"`
	HireDateFrom any  `json:"hire_date_from"`
	HireDateTo   any  `json:"hire_date_to"`
}

type searchResponse struct {
	Employees    []summaryResponse    `json:"employees"`
	Pagination   paginationResponse   `json:"pagination"`
	SearchParams searchParamsResponse `json:"search_params"`
}

// Search は GET /api/search を処理します。
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := searchParamsFromQuery(r)
	params.Query = r.URL.Query().Get("q")

	result, err := h.queries.Search(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	f := result.Filter
	var query any
	if f.Query != "" {
		query = f.Query
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Employees:  toSummaryResponses(result.Employees),
		Pagination: toPaginationResponse(result.Pagination),
		SearchParams: searchParamsResponse{
			Query:        query,
			Department:   stringOrNil(f.Department),
			Location:     stringOrNil(f.Location),
			Position:     stringOrNil(f.Position),
			Manager:      stringOrNil(f.Manager),
			IsActive:     f.IsActive,
			HireDateFrom: dateOrNil(f.HiredFrom),
			HireDateTo:   dateOrNil(f.HiredTo),
		},
	})
}

// searchParamsFromQuery はクエリ文字列を未解釈のまま SearchParams に写します。
func searchParamsFromQuery(r *http.Request) employee.SearchParams {
	q := r.URL.Query()
	return employee.SearchParams{
		Query:      q.Get("search"),
		Department: q.Get("department"),
		IsActive:   q.Get("is_active"),
		Location:   q.Get("location"),
		Position:   q.Get("position"),
		Manager:    q.Get("manager"),
		HiredFrom:  q.Get("hire_date_from"),
		HiredTo:    q.Get("hire_date_to"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Page:       q.Get("page"),
		PerPage:    q.Get("per_page"),
	}
}
