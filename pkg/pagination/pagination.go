package pagination

import (
	"math"
	"net/url"
	"strconv"
)

// DefaultPerPage is the default number of items per page
const DefaultPerPage = 100

// MaxPerPage bounds a single page
const MaxPerPage = 200

// MaxPage keeps the offset computation from overflowing.
const MaxPage = math.MaxInt32

// Params represents pagination parameters
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewParams normalizes raw page values. Unparseable or out of range values
// fall back to the defaults and per_page is capped at MaxPerPage.
func NewParams(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// FromQuery extracts pagination parameters from query values
func FromQuery(q url.Values) Params {
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return NewParams(page, perPage)
}

// GetMeta calculates pagination metadata
func GetMeta(params Params, total int64) Meta {
	perPage := params.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := int(total / int64(perPage))
	if total%int64(perPage) > 0 {
		totalPages++
	}

	return Meta{
		Page:       params.Page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
