package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
)

var columns = map[dropdown.Key]string{
	dropdown.KeyStatuses:    "discharge_status",
	dropdown.KeyPhysicians:  "treating_physician",
	dropdown.KeyDepartments: "discharge_department",
}

type Loader struct {
	db *gorm.DB
}

func NewLoader(db *gorm.DB) *Loader {
	return &Loader{db: db}
}

// Distinct returns the non-null values of the column behind key, ascending.
func (l *Loader) Distinct(ctx context.Context, key dropdown.Key) ([]string, error) {
	col, ok := columns[key]
	if !ok {
		return nil, fmt.Errorf("unknown dropdown key %q", key)
	}
	var values []string
	err := l.db.WithContext(ctx).
		Model(&recordDatamodel.Record{}).
		Distinct(col).
		Where(col+" IS NOT NULL").
		Order(col+" ASC").
		Pluck(col, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}
