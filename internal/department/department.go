package department

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/department"
)

type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDepartment(name string) *Department {
	return &Department{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
	}
}

func FromDataModel(d *departmentDatamodel.Department) *Department {
	return &Department{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
	}
}

// StandardDepartments is the hospital's department list installed by the
// seed command.
var StandardDepartments = []string{
	"Гінекологічне",
	"Реанімаційне",
	"Кардіологічне",
	"Хірургічне",
	"Терапевтичне",
	"Травматологічне",
	"Отоларингологічне",
	"Педіатричне",
	"Паліативне",
	"Гастроентерологічне",
	"Ендокринологічне",
	"Урологічне",
	"Реабілітаційне",
	"Нейрохірургічне",
	"Неврологічне",
	"Нефрологічне",
	"НЕМД",
}
