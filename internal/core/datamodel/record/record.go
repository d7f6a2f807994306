package record

import "time"

type Record struct {
	ID                  int64      `gorm:"primaryKey"`
	DateOfDischarge     time.Time  `gorm:"column:date_of_discharge;type:date;not null;index"`
	FullName            string     `gorm:"column:full_name;not null;index"`
	DischargeDepartment *string    `gorm:"column:discharge_department;index"`
	TreatingPhysician   string     `gorm:"column:treating_physician;not null;index"`
	History             string     `gorm:"column:history;not null"`
	KDays               int64      `gorm:"column:k_days;not null"`
	DischargeStatus     *string    `gorm:"column:discharge_status;index"`
	DateOfDeath         *time.Time `gorm:"column:date_of_death;type:date"`
	Comment             *string    `gorm:"column:comment"`
	CreatedBy           *int64     `gorm:"column:created_by;index"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedBy           *int64     `gorm:"column:updated_by"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime;index"`
}

func (Record) TableName() string {
	return "records"
}
