package user

import (
	"strings"

	errors "github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	"github.com/frahmantamala/discharge-registry/internal/core/common/validation"
)

const MinPasswordLength = 6

type CreateUserDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserDTO changes the role, the password or both. Empty fields are
// left untouched.
type UpdateUserDTO struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (d *CreateUserDTO) Validate() (auth.Role, *errors.AppError) {
	d.Username = strings.TrimSpace(d.Username)

	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(150)
	v.Field("password", d.Password).Required().MinLength(MinPasswordLength).MaxLength(128)

	role := auth.RoleOperator
	if strings.TrimSpace(d.Role) != "" {
		r, err := auth.ParseRole(d.Role)
		if err != nil {
			v.AddError("role", "role must be one of: "+strings.Join(auth.RoleNames(), ", "), errors.ErrCodeInvalidRole)
		}
		role = r
	}

	if err := v.Validate(); err != nil {
		return "", err
	}
	return role, nil
}

func (d UpdateUserDTO) Validate() (auth.Role, *errors.AppError) {
	v := validation.NewValidator()
	if d.Role == "" && d.Password == "" {
		v.AddError("role", "role or password is required", errors.ErrCodeRequired)
	}
	if d.Password != "" {
		v.Field("password", d.Password).MinLength(MinPasswordLength).MaxLength(128)
	}

	var role auth.Role
	if strings.TrimSpace(d.Role) != "" {
		r, err := auth.ParseRole(d.Role)
		if err != nil {
			v.AddError("role", "role must be one of: "+strings.Join(auth.RoleNames(), ", "), errors.ErrCodeInvalidRole)
		}
		role = r
	}

	if err := v.Validate(); err != nil {
		return "", err
	}
	return role, nil
}
