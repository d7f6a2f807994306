// Package statistics aggregates the record and correction tables for the
// viewer and admin overview.
package statistics

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/common/query"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

// Scope selects one calendar month, or every row when AllMonths is set.
type Scope struct {
	Month     period.Month
	AllMonths bool
}

func ScopeFromQuery(q url.Values, now time.Time, loc *time.Location) Scope {
	return Scope{
		Month:     period.ResolveMonth(q.Get("month"), now, loc),
		AllMonths: query.Truthy(q.Get("all_months")),
	}
}

type NamedCount struct {
	Name     string `json:"name"`
	Total    int64  `json:"total"`
	Deceased int64  `json:"deceased"`
}

type CorrectionStats struct {
	Total       int64                            `json:"total"`
	TotalSum    decimal.Decimal                  `json:"total_sum"`
	StatusStats map[string]correction.StatusStat `json:"status_stats"`
}

type Report struct {
	Month        string           `json:"month"`
	AllMonths    bool             `json:"all_months"`
	Summary      record.Summary   `json:"summary"`
	StatusCounts map[string]int64 `json:"status_counts"`
	Departments  []NamedCount     `json:"departments"`
	Physicians   []NamedCount     `json:"physicians"`
	Corrections  CorrectionStats  `json:"corrections"`
}
