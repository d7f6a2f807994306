package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/audit"
	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, row *auditDatamodel.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return internal.NewInternalError("failed to write audit entry", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.ListFilter) ([]*auditDatamodel.AuditLogView, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count audit entries", err)
	}

	rows := make([]*auditDatamodel.AuditLogView, 0)
	err := r.filtered(ctx, filter).
		Select("audit_logs.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = audit_logs.user_id").
		Order("audit_logs.created_at DESC").
		Order("audit_logs.id DESC").
		Limit(filter.Page.PerPage).
		Offset(filter.Page.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list audit entries", err)
	}
	return rows, total, nil
}

func (r *AuditRepository) filtered(ctx context.Context, filter audit.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&auditDatamodel.AuditLog{})
	if filter.Action != "" {
		q = q.Where("audit_logs.action = ?", filter.Action)
	}
	if filter.UserID != nil {
		q = q.Where("audit_logs.user_id = ?", *filter.UserID)
	}
	if filter.TargetType != "" {
		q = q.Where("audit_logs.target_type = ?", filter.TargetType)
	}
	return q
}
