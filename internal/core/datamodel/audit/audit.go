package audit

import "time"

type AuditLog struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     *int64    `gorm:"column:user_id;index"`
	Action     string    `gorm:"column:action;not null;index"`
	TargetType string    `gorm:"column:target_type"`
	TargetID   *int64    `gorm:"column:target_id"`
	Details    string    `gorm:"column:details"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogView is an audit row joined with the acting username.
type AuditLogView struct {
	AuditLog `gorm:"embedded"`
	Username *string `gorm:"column:username"`
}
