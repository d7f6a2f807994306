package record

import (
	"time"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
)

const (
	StatusProcessing = "Опрацьовується"
	StatusDischarged = "Виписаний"
	StatusViolated   = "Порушені вимоги"
	StatusDeceased   = "Помер"
)

// Statuses are the canonical discharge statuses accepted on edit.
var Statuses = []string{StatusProcessing, StatusDischarged, StatusViolated, StatusDeceased}

type Record struct {
	ID                  int64
	DateOfDischarge     time.Time
	FullName            string
	DischargeDepartment *string
	TreatingPhysician   string
	History             string
	KDays               int64
	DischargeStatus     *string
	DateOfDeath         *time.Time
	Comment             *string
	CreatedBy           *int64
	CreatedAt           time.Time
	UpdatedBy           *int64
	UpdatedAt           time.Time
}

type RecordResponse struct {
	ID                  int64     `json:"id"`
	DateOfDischarge     string    `json:"date_of_discharge"`
	FullName            string    `json:"full_name"`
	DischargeDepartment *string   `json:"discharge_department"`
	TreatingPhysician   string    `json:"treating_physician"`
	History             string    `json:"history"`
	KDays               int64     `json:"k_days"`
	DischargeStatus     *string   `json:"discharge_status"`
	DateOfDeath         *string   `json:"date_of_death"`
	Comment             *string   `json:"comment"`
	CreatedBy           *int64    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedBy           *int64    `json:"updated_by"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// IsDeceased reports whether the record counts toward the deceased bucket.
func (r *Record) IsDeceased() bool {
	return r.DateOfDeath != nil
}

func (r *Record) ToResponse() RecordResponse {
	return RecordResponse{
		ID:                  r.ID,
		DateOfDischarge:     period.FormatISO(r.DateOfDischarge),
		FullName:            r.FullName,
		DischargeDepartment: r.DischargeDepartment,
		TreatingPhysician:   r.TreatingPhysician,
		History:             r.History,
		KDays:               r.KDays,
		DischargeStatus:     r.DischargeStatus,
		DateOfDeath:         period.FormatISOPtr(r.DateOfDeath),
		Comment:             r.Comment,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedBy:           r.UpdatedBy,
		UpdatedAt:           r.UpdatedAt,
	}
}

func ToDataModel(r *Record) *recordDatamodel.Record {
	return &recordDatamodel.Record{
		ID:                  r.ID,
		DateOfDischarge:     r.DateOfDischarge,
		FullName:            r.FullName,
		DischargeDepartment: r.DischargeDepartment,
		TreatingPhysician:   r.TreatingPhysician,
		History:             r.History,
		KDays:               r.KDays,
		DischargeStatus:     r.DischargeStatus,
		DateOfDeath:         r.DateOfDeath,
		Comment:             r.Comment,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedBy:           r.UpdatedBy,
		UpdatedAt:           r.UpdatedAt,
	}
}

func FromDataModel(r *recordDatamodel.Record) *Record {
	out := &Record{
		ID:                  r.ID,
		DateOfDischarge:     period.Normalize(r.DateOfDischarge),
		FullName:            r.FullName,
		DischargeDepartment: r.DischargeDepartment,
		TreatingPhysician:   r.TreatingPhysician,
		History:             r.History,
		KDays:               r.KDays,
		DischargeStatus:     r.DischargeStatus,
		Comment:             r.Comment,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedBy:           r.UpdatedBy,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.DateOfDeath != nil {
		d := period.Normalize(*r.DateOfDeath)
		out.DateOfDeath = &d
	}
	return out
}
