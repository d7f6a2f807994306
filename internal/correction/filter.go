package correction

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/common/query"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

var SortColumns = query.SortSpec{
	Columns: map[string]query.ColumnKind{
		"id":             query.KindScalar,
		"date":           query.KindScalar,
		"nszu_record_id": query.KindText,
		"doctor":         query.KindText,
		"status":         query.KindText,
		"fakt_summ":      query.KindScalar,
	},
	Default: "date",
}

type Criteria struct {
	Status       string
	Doctor       string
	NszuRecordID string
}

func CriteriaFromQuery(q url.Values) Criteria {
	return Criteria{
		Status:       strings.TrimSpace(q.Get("status")),
		Doctor:       strings.TrimSpace(q.Get("doctor")),
		NszuRecordID: strings.TrimSpace(q.Get("nszu_record_id")),
	}
}

type ListFilter struct {
	Criteria
	Month period.Month
	Sort  query.Sort
	Page  pagination.Params
}

// ListFilterFromQuery resolves raw parameters. The month is read from month
// or month_year and falls back to the current month.
func ListFilterFromQuery(q url.Values, now time.Time, loc *time.Location) ListFilter {
	rawMonth := q.Get("month")
	if rawMonth == "" {
		rawMonth = q.Get("month_year")
	}
	return ListFilter{
		Criteria: CriteriaFromQuery(q),
		Month:    period.ResolveMonth(rawMonth, now, loc),
		Sort:     SortColumns.ParseSort(q.Get("sort_by"), q.Get("sort_order")),
		Page:     pagination.FromQuery(q),
	}
}

// StatusGroup is one row of the grouped aggregate.
type StatusGroup struct {
	Status string
	Count  int64
	Sum    decimal.Decimal
}

type StatusStat struct {
	Count int64           `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// Aggregate derives per-status stats over the scope without the status
// filter, and the total count and sum with it.
func Aggregate(groups []StatusGroup, statusFilter string) (int64, decimal.Decimal, map[string]StatusStat) {
	stats := make(map[string]StatusStat)
	total := int64(0)
	sum := decimal.Zero
	for _, g := range groups {
		s := stats[g.Status]
		s.Count += g.Count
		s.Sum = s.Sum.Add(g.Sum)
		stats[g.Status] = s

		if statusFilter != "" && g.Status != statusFilter {
			continue
		}
		total += g.Count
		sum = sum.Add(g.Sum)
	}
	for k, s := range stats {
		s.Sum = s.Sum.Round(2)
		stats[k] = s
	}
	return total, sum.Round(2), stats
}

type ListResponse struct {
	Corrections []CorrectionResponse  `json:"corrections"`
	Pagination  pagination.Meta       `json:"pagination"`
	StatusStats map[string]StatusStat `json:"status_stats"`
	TotalSum    decimal.Decimal       `json:"total_sum"`
	Statuses    []string              `json:"statuses"`
	Doctors     []string              `json:"doctors"`
	Month       string                `json:"month"`
	SortBy      string                `json:"sort_by"`
	SortOrder   string                `json:"sort_order"`
}

type ExportFilter struct {
	Criteria
	From time.Time
	To   time.Time
}
