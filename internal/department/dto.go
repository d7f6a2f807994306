package department

import (
	"strings"

	errors "github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/core/common/validation"
)

type CreateDepartmentDTO struct {
	Name string `json:"name"`
}

func (d *CreateDepartmentDTO) Validate() *errors.AppError {
	d.Name = strings.TrimSpace(d.Name)
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	return v.Validate()
}

type DepartmentsResponse struct {
	Departments []*Department `json:"departments"`
}

// InUseDetails is attached to the conflict returned when a referenced
// department is deleted.
type InUseDetails struct {
	Records int64 `json:"records"`
}
