package postgres

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	correctionDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/correction"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
	"github.com/frahmantamala/discharge-registry/internal/statistics"
)

const deceasedExpr = "CASE WHEN date_of_death IS NULL THEN 0 ELSE 1 END"

type StatisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

func (r *StatisticsRepository) RecordStatusGroups(ctx context.Context, scope statistics.Scope) ([]record.StatusGroup, error) {
	var rows []struct {
		Status   *string `gorm:"column:status"`
		Deceased int     `gorm:"column:deceased"`
		Count    int64   `gorm:"column:cnt"`
	}
	err := r.records(ctx, scope).
		Select("discharge_status AS status, " + deceasedExpr + " AS deceased, COUNT(*) AS cnt").
		Group("discharge_status, " + deceasedExpr).
		Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to aggregate records", err)
	}
	out := make([]record.StatusGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, record.StatusGroup{Status: row.Status, Deceased: row.Deceased == 1, Count: row.Count})
	}
	return out, nil
}

func (r *StatisticsRepository) ByDepartment(ctx context.Context, scope statistics.Scope) ([]statistics.NamedCount, error) {
	return r.namedCounts(ctx, scope, "discharge_department")
}

func (r *StatisticsRepository) ByPhysician(ctx context.Context, scope statistics.Scope) ([]statistics.NamedCount, error) {
	return r.namedCounts(ctx, scope, "treating_physician")
}

// namedCounts groups the scope by column, largest groups first. Rows with a
// null value are left out.
func (r *StatisticsRepository) namedCounts(ctx context.Context, scope statistics.Scope, column string) ([]statistics.NamedCount, error) {
	out := make([]statistics.NamedCount, 0)
	err := r.records(ctx, scope).
		Select(column + " AS name, COUNT(*) AS total, SUM(" + deceasedExpr + ") AS deceased").
		Where(column + " IS NOT NULL").
		Group(column).
		Order("total DESC").
		Order(column + " ASC").
		Scan(&out).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to count records by "+column, err)
	}
	return out, nil
}

func (r *StatisticsRepository) CorrectionStatusGroups(ctx context.Context, scope statistics.Scope) ([]correction.StatusGroup, error) {
	var rows []struct {
		Status string          `gorm:"column:status"`
		Count  int64           `gorm:"column:cnt"`
		Sum    decimal.Decimal `gorm:"column:total"`
	}
	q := r.db.WithContext(ctx).Model(&correctionDatamodel.Correction{})
	if !scope.AllMonths {
		start, end := scope.Month.Bounds()
		q = q.Where("date >= ? AND date < ?", start, end)
	}
	err := q.Select("status, COUNT(*) AS cnt, COALESCE(SUM(fakt_summ), 0) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to aggregate corrections", err)
	}
	out := make([]correction.StatusGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, correction.StatusGroup{Status: row.Status, Count: row.Count, Sum: row.Sum})
	}
	return out, nil
}

func (r *StatisticsRepository) records(ctx context.Context, scope statistics.Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&recordDatamodel.Record{})
	if !scope.AllMonths {
		start, end := scope.Month.Bounds()
		q = q.Where("date_of_discharge >= ? AND date_of_discharge < ?", start, end)
	}
	return q
}
