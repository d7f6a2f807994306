package correction

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/common/validation"
)

// CorrectionDTO is the create and edit form. On create an empty status
// defaults to in-progress; on edit it is required.
type CorrectionDTO struct {
	Date         string          `json:"date"`
	NszuRecordID string          `json:"nszu_record_id"`
	Doctor       string          `json:"doctor"`
	Status       string          `json:"status"`
	Detail       string          `json:"detail"`
	FaktSumm     json.RawMessage `json:"fakt_summ"`
	Comment      string          `json:"comment"`
}

type fields struct {
	Date         time.Time
	NszuRecordID string
	Doctor       string
	Status       string
	Detail       *string
	FaktSumm     decimal.Decimal
	Comment      *string
}

func (d CorrectionDTO) parse(isEdit bool) (*fields, *errors.AppError) {
	v := validation.NewValidator()
	out := &fields{
		NszuRecordID: strings.TrimSpace(d.NszuRecordID),
		Doctor:       strings.TrimSpace(d.Doctor),
		Status:       strings.TrimSpace(d.Status),
		Detail:       optional(d.Detail),
		Comment:      optional(d.Comment),
	}
	if out.Status == "" && !isEdit {
		out.Status = StatusInProgress
	}

	if raw := strings.TrimSpace(d.Date); raw != "" {
		t, err := period.ParseDate(raw)
		if err != nil {
			v.AddError("date", "date must be dd.mm.yyyy or yyyy-mm-dd", errors.ErrCodeInvalidDate)
		} else {
			out.Date = t
		}
	} else {
		v.AddError("date", "date is required", errors.ErrCodeRequired)
	}

	amount, err := ParseAmount(d.FaktSumm)
	switch {
	case err != nil:
		v.AddError("fakt_summ", "fakt_summ must be a number", errors.ErrCodeInvalidNumber)
	case amount.IsNegative():
		v.AddError("fakt_summ", "fakt_summ cannot be negative", errors.ErrCodeNegativeAmount)
	case amount.Round(2).GreaterThanOrEqual(maxAmount):
		v.AddError("fakt_summ", "fakt_summ must be less than 10000000000", errors.ErrCodeOutOfRange)
	default:
		out.FaktSumm = amount.Round(2)
	}

	v.Field("nszu_record_id", out.NszuRecordID).Required().MaxLength(255)
	v.Field("doctor", out.Doctor).Required().MaxLength(255)
	v.Field("status", out.Status).Required().OneOf(Statuses, errors.ErrCodeInvalidStatus)
	v.Field("comment", out.Comment).MaxLength(2000)

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseAmount accepts a JSON number or a string using a dot or a comma as
// the decimal separator. Empty input and "-" mean zero.
// maxAmount is the first value a NUMERIC(12,2) column cannot hold.
var maxAmount = decimal.New(1, 10)

func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(str)
	}
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
