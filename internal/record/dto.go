package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/common/validation"
)

// CreateRecordDTO is the operator intake form. Any discharge_status sent by
// the client is ignored.
type CreateRecordDTO struct {
	DateOfDischarge     string          `json:"date_of_discharge"`
	FullName            string          `json:"full_name"`
	DischargeDepartment string          `json:"discharge_department"`
	TreatingPhysician   string          `json:"treating_physician"`
	History             string          `json:"history"`
	KDays               json.RawMessage `json:"k_days"`
	DischargeStatus     string          `json:"discharge_status"`
	DateOfDeath         string          `json:"date_of_death"`
	Comment             string          `json:"comment"`
}

type UpdateRecordDTO struct {
	DateOfDischarge     string          `json:"date_of_discharge"`
	FullName            string          `json:"full_name"`
	DischargeDepartment string          `json:"discharge_department"`
	TreatingPhysician   string          `json:"treating_physician"`
	History             string          `json:"history"`
	KDays               json.RawMessage `json:"k_days"`
	DischargeStatus     string          `json:"discharge_status"`
	DateOfDeath         string          `json:"date_of_death"`
	Comment             string          `json:"comment"`
}

// fields is the parsed, validated form shared by create and update.
type fields struct {
	DateOfDischarge     time.Time
	FullName            string
	DischargeDepartment *string
	TreatingPhysician   string
	History             string
	KDays               int64
	DischargeStatus     string
	DateOfDeath         *time.Time
	Comment             *string
}

type rawFields struct {
	dateOfDischarge     string
	fullName            string
	dischargeDepartment string
	treatingPhysician   string
	history             string
	kDays               json.RawMessage
	dischargeStatus     string
	dateOfDeath         string
	comment             string
}

func (d CreateRecordDTO) parse() (*fields, *errors.AppError) {
	return rawFields{
		dateOfDischarge:     d.DateOfDischarge,
		fullName:            d.FullName,
		dischargeDepartment: d.DischargeDepartment,
		treatingPhysician:   d.TreatingPhysician,
		history:             d.History,
		kDays:               d.KDays,
		dateOfDeath:         d.DateOfDeath,
		comment:             d.Comment,
	}.parse(false)
}

func (d UpdateRecordDTO) parse() (*fields, *errors.AppError) {
	return rawFields{
		dateOfDischarge:     d.DateOfDischarge,
		fullName:            d.FullName,
		dischargeDepartment: d.DischargeDepartment,
		treatingPhysician:   d.TreatingPhysician,
		history:             d.History,
		kDays:               d.KDays,
		dischargeStatus:     d.DischargeStatus,
		dateOfDeath:         d.DateOfDeath,
		comment:             d.Comment,
	}.parse(true)
}

func (r rawFields) parse(isEdit bool) (*fields, *errors.AppError) {
	v := validation.NewValidator()
	out := &fields{
		FullName:            strings.TrimSpace(r.fullName),
		TreatingPhysician:   strings.TrimSpace(r.treatingPhysician),
		History:             strings.TrimSpace(r.history),
		DischargeStatus:     strings.TrimSpace(r.dischargeStatus),
		DischargeDepartment: optional(r.dischargeDepartment),
		Comment:             optional(r.comment),
	}

	var discharge *time.Time
	if raw := strings.TrimSpace(r.dateOfDischarge); raw != "" {
		t, err := period.ParseDate(raw)
		if err != nil {
			v.AddError("date_of_discharge", "date_of_discharge must be dd.mm.yyyy or yyyy-mm-dd", errors.ErrCodeInvalidDate)
		} else {
			out.DateOfDischarge = t
			discharge = &t
		}
	} else {
		v.AddError("date_of_discharge", "date_of_discharge is required", errors.ErrCodeRequired)
	}

	kDays, kErr := parseInteger(r.kDays)
	switch {
	case kErr == errMissing:
		v.AddError("k_days", "k_days is required", errors.ErrCodeRequired)
	case kErr != nil:
		v.AddError("k_days", "k_days must be a whole number", errors.ErrCodeInvalidNumber)
	default:
		out.KDays = kDays
	}

	death, err := period.ParseOptionalDate(r.dateOfDeath)
	if err != nil {
		v.AddError("date_of_death", "date_of_death must be dd.mm.yyyy or yyyy-mm-dd", errors.ErrCodeInvalidDate)
	}
	out.DateOfDeath = death

	if isEdit && out.DischargeStatus == StatusDeceased && death == nil && err == nil {
		v.AddError("date_of_death", "date_of_death is required when the status is "+StatusDeceased, errors.ErrCodeDeathDateMissing)
	}

	v.Field("full_name", out.FullName).Required().MaxLength(255)
	v.Field("treating_physician", out.TreatingPhysician).Required().MaxLength(255)
	v.Field("history", out.History).Required().MaxLength(255)
	v.Field("k_days", out.KDays).MinInt(0, errors.ErrCodeInvalidNumber).MaxInt(math.MaxInt32, errors.ErrCodeOutOfRange)
	v.Field("date_of_death", death).NotBefore(discharge, "date_of_discharge", errors.ErrCodeDeathBeforeDisch)
	if isEdit {
		v.Field("discharge_department", out.DischargeDepartment).Required().MaxLength(255)
		v.Field("discharge_status", out.DischargeStatus).Required().OneOf(Statuses, errors.ErrCodeInvalidStatus)
	} else {
		v.Field("discharge_department", out.DischargeDepartment).MaxLength(255)
	}
	v.Field("comment", out.Comment).MaxLength(2000)

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type parseError string

func (e parseError) Error() string { return string(e) }

const errMissing = parseError("missing")

// parseInteger accepts a JSON number or a numeric string.
func parseInteger(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, errMissing
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, errMissing
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
