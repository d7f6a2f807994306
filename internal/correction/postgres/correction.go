package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/core/common/query"
	correctionDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/correction"
	"github.com/frahmantamala/discharge-registry/internal/correction"
)

type CorrectionRepository struct {
	db *gorm.DB
}

func NewCorrectionRepository(db *gorm.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

func (r *CorrectionRepository) Create(ctx context.Context, row *correctionDatamodel.Correction) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return internal.NewInternalError("failed to create correction", err)
	}
	return nil
}

func (r *CorrectionRepository) GetByID(ctx context.Context, id int64) (*correctionDatamodel.Correction, error) {
	var row correctionDatamodel.Correction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("correction not found", internal.ErrCodeCorrectionNotFound)
		}
		return nil, internal.NewInternalError("failed to load correction", err)
	}
	return &row, nil
}

func (r *CorrectionRepository) Update(ctx context.Context, row *correctionDatamodel.Correction) error {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return internal.NewInternalError("failed to update correction", err)
	}
	return nil
}

func (r *CorrectionRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&correctionDatamodel.Correction{})
	if res.Error != nil {
		return internal.NewInternalError("failed to delete correction", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("correction not found", internal.ErrCodeCorrectionNotFound)
	}
	return nil
}

type statusGroupRow struct {
	Status string          `gorm:"column:status"`
	Count  int64           `gorm:"column:cnt"`
	Sum    decimal.Decimal `gorm:"column:total"`
}

func (r *CorrectionRepository) List(ctx context.Context, filter correction.ListFilter) ([]*correctionDatamodel.Correction, []correction.StatusGroup, error) {
	var grouped []statusGroupRow
	err := r.scope(ctx, filter).
		Select("status, COUNT(*) AS cnt, COALESCE(SUM(fakt_summ), 0) AS total").
		Group("status").
		Scan(&grouped).Error
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to aggregate corrections", err)
	}
	groups := make([]correction.StatusGroup, 0, len(grouped))
	for _, g := range grouped {
		groups = append(groups, correction.StatusGroup{Status: g.Status, Count: g.Count, Sum: g.Sum})
	}

	q := r.scope(ctx, filter)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	rows := make([]*correctionDatamodel.Correction, 0)
	err = filter.Sort.Apply(q).
		Limit(filter.Page.PerPage).
		Offset(filter.Page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to list corrections", err)
	}
	return rows, groups, nil
}

func (r *CorrectionRepository) Doctors(ctx context.Context) ([]string, error) {
	doctors := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&correctionDatamodel.Correction{}).
		Distinct("doctor").
		Where("doctor IS NOT NULL").
		Order("doctor ASC").
		Pluck("doctor", &doctors).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list doctors", err)
	}
	return doctors, nil
}

func (r *CorrectionRepository) Each(ctx context.Context, filter correction.ExportFilter, batchSize int, fn func([]*correctionDatamodel.Correction) error) error {
	q := r.db.WithContext(ctx).Model(&correctionDatamodel.Correction{}).
		Where("date >= ? AND date <= ?", filter.From, filter.To)
	q = applyCriteria(q, filter.Criteria, true)

	for offset := 0; ; offset += batchSize {
		var batch []*correctionDatamodel.Correction
		err := q.Session(&gorm.Session{}).
			Order("date DESC").
			Order("id DESC").
			Limit(batchSize).
			Offset(offset).
			Find(&batch).Error
		if err != nil {
			return internal.NewInternalError("failed to read export batch", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
	}
}

func (r *CorrectionRepository) scope(ctx context.Context, filter correction.ListFilter) *gorm.DB {
	start, end := filter.Month.Bounds()
	q := r.db.WithContext(ctx).Model(&correctionDatamodel.Correction{}).
		Where("date >= ? AND date < ?", start, end)
	return applyCriteria(q, filter.Criteria, false)
}

func applyCriteria(q *gorm.DB, c correction.Criteria, withStatus bool) *gorm.DB {
	if withStatus && c.Status != "" {
		q = q.Where("status = ?", c.Status)
	}
	if c.Doctor != "" {
		q = q.Where("doctor = ?", c.Doctor)
	}
	if c.NszuRecordID != "" {
		q = query.Contains(q, "nszu_record_id", c.NszuRecordID)
	}
	return q
}
