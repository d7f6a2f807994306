package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	departmentDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/department"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, internal.NewInternalError("failed to list departments", err)
	}
	return departments, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("department not found", internal.ErrCodeDepartmentNotFound)
		}
		return nil, internal.NewInternalError("failed to load department", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&departmentDatamodel.Department{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, internal.NewInternalError("failed to look up department", err)
	}
	return count > 0, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *departmentDatamodel.Department) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.NewConflictError("department already exists", internal.ErrCodeDuplicateDepartment)
		}
		return internal.NewInternalError("failed to create department", err)
	}
	return nil
}

func (r *DepartmentRepository) CountRecords(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&recordDatamodel.Record{}).
		Where("discharge_department = ?", name).
		Count(&count).Error
	if err != nil {
		return 0, internal.NewInternalError("failed to count department records", err)
	}
	return count, nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&departmentDatamodel.Department{})
	if res.Error != nil {
		return internal.NewInternalError("failed to delete department", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("department not found", internal.ErrCodeDepartmentNotFound)
	}
	return nil
}
