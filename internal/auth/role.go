package auth

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/discharge-registry/internal"
)

type Role string

const (
	RoleOperator Role = "operator"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
	RoleViewer   Role = "viewer"
)

var AllRoles = []Role{RoleOperator, RoleEditor, RoleAdmin, RoleViewer}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", internal.NewValidationFieldError("role",
			fmt.Sprintf("role must be one of: %s", strings.Join(RoleNames(), ", ")),
			internal.ErrCodeInvalidRole)
	}
	return r, nil
}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

func RoleNames() []string {
	names := make([]string, len(AllRoles))
	for i, r := range AllRoles {
		names[i] = string(r)
	}
	return names
}
