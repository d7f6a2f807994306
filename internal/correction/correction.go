package correction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	correctionDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/correction"
)

const (
	StatusInProgress = "В обробці"
	StatusProcessed  = "Опрацьовано"
	StatusPaid       = "Оплачено"
	StatusNotPayable = "Не підлягає оплаті"
)

var Statuses = []string{StatusInProgress, StatusProcessed, StatusPaid, StatusNotPayable}

type Correction struct {
	ID           int64
	Date         time.Time
	NszuRecordID string
	Doctor       string
	Status       string
	Detail       *string
	FaktSumm     decimal.Decimal
	Comment      *string
	CreatedBy    *int64
	CreatedAt    time.Time
	UpdatedBy    *int64
	UpdatedAt    time.Time
}

type CorrectionResponse struct {
	ID           int64           `json:"id"`
	Date         string          `json:"date"`
	NszuRecordID string          `json:"nszu_record_id"`
	Doctor       string          `json:"doctor"`
	Status       string          `json:"status"`
	Detail       *string         `json:"detail"`
	FaktSumm     decimal.Decimal `json:"fakt_summ"`
	Comment      *string         `json:"comment"`
	CreatedBy    *int64          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedBy    *int64          `json:"updated_by"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (c *Correction) ToResponse() CorrectionResponse {
	return CorrectionResponse{
		ID:           c.ID,
		Date:         period.FormatISO(c.Date),
		NszuRecordID: c.NszuRecordID,
		Doctor:       c.Doctor,
		Status:       c.Status,
		Detail:       c.Detail,
		FaktSumm:     c.FaktSumm.Round(2),
		Comment:      c.Comment,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedBy:    c.UpdatedBy,
		UpdatedAt:    c.UpdatedAt,
	}
}

func ToDataModel(c *Correction) *correctionDatamodel.Correction {
	return &correctionDatamodel.Correction{
		ID:           c.ID,
		Date:         c.Date,
		NszuRecordID: c.NszuRecordID,
		Doctor:       c.Doctor,
		Status:       c.Status,
		Detail:       c.Detail,
		FaktSumm:     c.FaktSumm,
		Comment:      c.Comment,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedBy:    c.UpdatedBy,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromDataModel(c *correctionDatamodel.Correction) *Correction {
	return &Correction{
		ID:           c.ID,
		Date:         period.Normalize(c.Date),
		NszuRecordID: c.NszuRecordID,
		Doctor:       c.Doctor,
		Status:       c.Status,
		Detail:       c.Detail,
		FaktSumm:     c.FaktSumm,
		Comment:      c.Comment,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedBy:    c.UpdatedBy,
		UpdatedAt:    c.UpdatedAt,
	}
}
