package export

import (
	"fmt"
	"strings"
	"time"

	errors "github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/common/validation"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

const (
	ModeMonth = "month"
	ModeRange = "range"
)

// Window is a resolved inclusive date range. Month is set when the range
// came from a whole month.
type Window struct {
	From  time.Time
	To    time.Time
	Month *period.Month
}

// Details renders the window for the audit log.
func (w Window) Details() string {
	if w.Month != nil {
		start, _ := w.Month.Bounds()
		return fmt.Sprintf("month=%s", start.Format("01-2006"))
	}
	return fmt.Sprintf("from=%s to=%s", period.FormatISO(w.From), period.FormatISO(w.To))
}

type WindowDTO struct {
	Mode  string `json:"mode"`
	Month string `json:"month"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Resolve turns the request into a date window. Month mode is the default
// unless rangeOnly is set.
func (d WindowDTO) Resolve(rangeOnly bool) (Window, *errors.AppError) {
	mode := strings.ToLower(strings.TrimSpace(d.Mode))
	if mode == "" {
		mode = ModeMonth
		if rangeOnly {
			mode = ModeRange
		}
	}

	v := validation.NewValidator()
	switch {
	case mode == ModeMonth && !rangeOnly:
		raw := strings.TrimSpace(d.Month)
		if raw == "" {
			v.AddError("month", "month is required", errors.ErrCodeRequired)
			return Window{}, v.Validate()
		}
		m, ok := period.ParseMonth(raw)
		if !ok {
			v.AddError("month", "month must be YYYY-MM", errors.ErrCodeInvalidDate)
			return Window{}, v.Validate()
		}
		start, _ := m.Bounds()
		return Window{From: start, To: m.LastDay(), Month: &m}, nil

	case mode == ModeRange:
		from := parseBound(v, "from", d.From)
		to := parseBound(v, "to", d.To)
		if v.HasErrors() {
			return Window{}, v.Validate()
		}
		if from.After(to) {
			v.AddError("from", "from must not be after to", errors.ErrCodeInvalidRange)
			return Window{}, v.Validate()
		}
		return Window{From: from, To: to}, nil
	}

	v.AddError("mode", "mode must be month or range", errors.ErrCodeValidationFailed)
	return Window{}, v.Validate()
}

func parseBound(v *validation.ValidationBuilder, field, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.AddError(field, field+" is required", errors.ErrCodeRequired)
		return time.Time{}
	}
	t, err := period.ParseDate(raw)
	if err != nil {
		v.AddError(field, field+" must be dd.mm.yyyy or yyyy-mm-dd", errors.ErrCodeInvalidDate)
		return time.Time{}
	}
	return t
}

// RecordsRequest is the body of the record export and print endpoints.
type RecordsRequest struct {
	WindowDTO
	DischargeStatus     string `json:"discharge_status"`
	TreatingPhysician   string `json:"treating_physician"`
	DischargeDepartment string `json:"discharge_department"`
	History             string `json:"history"`
	FullName            string `json:"full_name"`
}

func (r RecordsRequest) Filter(w Window) record.ExportFilter {
	return record.ExportFilter{
		Criteria: record.Criteria{
			Status:     strings.TrimSpace(r.DischargeStatus),
			Physician:  strings.TrimSpace(r.TreatingPhysician),
			Department: strings.TrimSpace(r.DischargeDepartment),
			History:    strings.TrimSpace(r.History),
			FullName:   strings.TrimSpace(r.FullName),
		},
		From: w.From,
		To:   w.To,
	}
}

// CorrectionsRequest is the body of the correction export and print endpoints.
type CorrectionsRequest struct {
	WindowDTO
	Status       string `json:"status"`
	Doctor       string `json:"doctor"`
	NszuRecordID string `json:"nszu_record_id"`
}

func (r CorrectionsRequest) Filter(w Window) correction.ExportFilter {
	return correction.ExportFilter{
		Criteria: correction.Criteria{
			Status:       strings.TrimSpace(r.Status),
			Doctor:       strings.TrimSpace(r.Doctor),
			NszuRecordID: strings.TrimSpace(r.NszuRecordID),
		},
		From: w.From,
		To:   w.To,
	}
}
