package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/core/common/query"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Create(ctx context.Context, row *recordDatamodel.Record) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return internal.NewInternalError("failed to create record", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*recordDatamodel.Record, error) {
	var row recordDatamodel.Record
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("record not found", internal.ErrCodeRecordNotFound)
		}
		return nil, internal.NewInternalError("failed to load record", err)
	}
	return &row, nil
}

func (r *RecordRepository) Update(ctx context.Context, row *recordDatamodel.Record) error {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return internal.NewInternalError("failed to update record", err)
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&recordDatamodel.Record{})
	if res.Error != nil {
		return internal.NewInternalError("failed to delete record", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("record not found", internal.ErrCodeRecordNotFound)
	}
	return nil
}

type statusGroupRow struct {
	Status   *string `gorm:"column:status"`
	Deceased int     `gorm:"column:deceased"`
	Count    int64   `gorm:"column:cnt"`
}

// List returns one page and the grouped aggregate over the whole scope. The
// aggregate ignores the status filter; the page honors it.
func (r *RecordRepository) List(ctx context.Context, filter record.ListFilter) ([]*recordDatamodel.Record, []record.StatusGroup, error) {
	var grouped []statusGroupRow
	err := r.scope(ctx, filter).
		Select("discharge_status AS status, CASE WHEN date_of_death IS NULL THEN 0 ELSE 1 END AS deceased, COUNT(*) AS cnt").
		Group("discharge_status, CASE WHEN date_of_death IS NULL THEN 0 ELSE 1 END").
		Scan(&grouped).Error
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to aggregate records", err)
	}

	groups := make([]record.StatusGroup, 0, len(grouped))
	for _, g := range grouped {
		groups = append(groups, record.StatusGroup{Status: g.Status, Deceased: g.Deceased == 1, Count: g.Count})
	}

	q := r.scope(ctx, filter)
	if filter.Status != "" {
		q = q.Where("discharge_status = ?", filter.Status)
	}
	rows := make([]*recordDatamodel.Record, 0)
	err = filter.Sort.Apply(q).
		Limit(filter.Page.PerPage).
		Offset(filter.Page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to list records", err)
	}
	return rows, groups, nil
}

// Each walks the export scope newest discharge first, batchSize rows at a
// time.
func (r *RecordRepository) Each(ctx context.Context, filter record.ExportFilter, batchSize int, fn func([]*recordDatamodel.Record) error) error {
	q := r.db.WithContext(ctx).Model(&recordDatamodel.Record{}).
		Where("date_of_discharge >= ? AND date_of_discharge <= ?", filter.From, filter.To)
	q = applyCriteria(q, filter.Criteria, true)

	for offset := 0; ; offset += batchSize {
		var batch []*recordDatamodel.Record
		err := q.Session(&gorm.Session{}).
			Order("date_of_discharge DESC").
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

// scope applies every predicate except the status filter.
func (r *RecordRepository) scope(ctx context.Context, filter record.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&recordDatamodel.Record{})
	if !filter.AllMonths {
		start, end := filter.Month.Bounds()
		q = q.Where("date_of_discharge >= ? AND date_of_discharge < ?", start, end)
	}
	q = applyCriteria(q, filter.Criteria, false)
	if filter.HasDeathDate {
		q = q.Where("date_of_death IS NOT NULL")
	}
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}
	return q
}

func applyCriteria(q *gorm.DB, c record.Criteria, withStatus bool) *gorm.DB {
	if withStatus && c.Status != "" {
		q = q.Where("discharge_status = ?", c.Status)
	}
	if c.Physician != "" {
		q = q.Where("treating_physician = ?", c.Physician)
	}
	if c.Department != "" {
		q = q.Where("discharge_department = ?", c.Department)
	}
	if c.History != "" {
		q = query.Contains(q, "history", c.History)
	}
	if c.FullName != "" {
		q = query.ContainsFold(q, "full_name", c.FullName)
	}
	return q
}
