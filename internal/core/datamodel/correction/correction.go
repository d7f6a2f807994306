package correction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Correction struct {
	ID           int64           `gorm:"primaryKey"`
	Date         time.Time       `gorm:"column:date;type:date;not null;index"`
	NszuRecordID string          `gorm:"column:nszu_record_id;not null"`
	Doctor       string          `gorm:"column:doctor;not null;index"`
	Status       string          `gorm:"column:status;not null;index"`
	Detail       *string         `gorm:"column:detail"`
	FaktSumm     decimal.Decimal `gorm:"column:fakt_summ;type:numeric(12,2);not null;default:0"`
	Comment      *string         `gorm:"column:comment"`
	CreatedBy    *int64          `gorm:"column:created_by"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedBy    *int64          `gorm:"column:updated_by"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Correction) TableName() string {
	return "nszu_corrections"
}
