package record

import (
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/common/query"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

// SortColumns is the allow-list for sort_by.
var SortColumns = query.SortSpec{
	Columns: map[string]query.ColumnKind{
		"id":                   query.KindScalar,
		"date_of_discharge":    query.KindScalar,
		"full_name":            query.KindText,
		"discharge_department": query.KindText,
		"treating_physician":   query.KindText,
		"history":              query.KindText,
		"k_days":               query.KindScalar,
		"discharge_status":     query.KindText,
		"date_of_death":        query.KindScalar,
		"created_at":           query.KindScalar,
		"updated_at":           query.KindScalar,
	},
	Default: "date_of_discharge",
}

// Criteria are the equality and substring filters shared by the dashboard
// and the exports. Empty values impose no constraint.
type Criteria struct {
	Status     string
	Physician  string
	Department string
	History    string
	FullName   string
}

func CriteriaFromQuery(q url.Values) Criteria {
	return Criteria{
		Status:     strings.TrimSpace(q.Get("discharge_status")),
		Physician:  strings.TrimSpace(q.Get("treating_physician")),
		Department: strings.TrimSpace(q.Get("discharge_department")),
		History:    strings.TrimSpace(q.Get("history")),
		FullName:   strings.TrimSpace(q.Get("full_name")),
	}
}

// ListFilter is a fully resolved dashboard query.
type ListFilter struct {
	Criteria
	HasDeathDate bool
	Month        period.Month
	AllMonths    bool
	Sort         query.Sort
	Page         pagination.Params
	// CreatedBy pins the listing to one author. It is set from the caller's
	// role, never from request parameters.
	CreatedBy *int64
}

// ListFilterFromQuery resolves raw parameters. Invalid month values fall
// back to the current month in loc.
func ListFilterFromQuery(q url.Values, now time.Time, loc *time.Location) ListFilter {
	rawMonth := q.Get("month")
	if rawMonth == "" {
		rawMonth = q.Get("month_filter")
	}
	return ListFilter{
		Criteria:     CriteriaFromQuery(q),
		HasDeathDate: query.Truthy(q.Get("has_death_date")),
		Month:        period.ResolveMonth(rawMonth, now, loc),
		AllMonths:    query.Truthy(q.Get("all_months")),
		Sort:         SortColumns.ParseSort(q.Get("sort_by"), q.Get("sort_order")),
		Page:         pagination.FromQuery(q),
	}
}

// StatusGroup is one row of the grouped aggregate: a status value split by
// whether a death date is recorded.
type StatusGroup struct {
	Status   *string
	Deceased bool
	Count    int64
}

// Summary holds the dashboard buckets. Deceased counts every row with a
// death date; the other buckets count only rows without one.
type Summary struct {
	Total      int64 `json:"total"`
	Deceased   int64 `json:"deceased"`
	Discharged int64 `json:"discharged"`
	Processing int64 `json:"processing"`
	Violations int64 `json:"violations"`
}

// Aggregate derives the scope total, the per-status counts and the summary
// from the grouped rows. The status filter applies to total and summary but
// not to the per-status counts.
func Aggregate(groups []StatusGroup, statusFilter string) (int64, map[string]int64, Summary) {
	counts := make(map[string]int64)
	var s Summary
	for _, g := range groups {
		status := ""
		if g.Status != nil {
			status = *g.Status
		}
		counts[status] += g.Count

		if statusFilter != "" && status != statusFilter {
			continue
		}
		s.Total += g.Count
		if g.Deceased {
			s.Deceased += g.Count
			continue
		}
		switch status {
		case StatusDischarged:
			s.Discharged += g.Count
		case StatusProcessing:
			s.Processing += g.Count
		case StatusViolated:
			s.Violations += g.Count
		}
	}
	return s.Total, counts, s
}

type ListResponse struct {
	Records      []RecordResponse `json:"records"`
	Pagination   pagination.Meta  `json:"pagination"`
	StatusCounts map[string]int64 `json:"status_counts"`
	Summary      Summary          `json:"summary"`
	Dropdowns    dropdown.Values  `json:"dropdowns"`
	Month        string           `json:"month"`
	AllMonths    bool             `json:"all_months"`
	SortBy       string           `json:"sort_by"`
	SortOrder    string           `json:"sort_order"`
}

// ExportFilter selects the unpaginated export scope: an inclusive date range
// plus the dashboard criteria.
type ExportFilter struct {
	Criteria
	From time.Time
	To   time.Time
}
