package auth

import (
	"github.com/frahmantamala/discharge-registry/internal"
)

// CreatorScope returns the creator id that the caller's record listings are
// pinned to. Operators only ever see their own records; other roles are not
// restricted and get nil.
func CreatorScope(u *internal.CurrentUser) *int64 {
	if u == nil || Role(u.Role) != RoleOperator {
		return nil
	}
	id := u.ID
	return &id
}

// CanViewRecord applies the same ownership rule to a single record.
func CanViewRecord(u *internal.CurrentUser, createdBy *int64) error {
	if u == nil {
		return internal.ErrAccessDenied
	}
	scope := CreatorScope(u)
	if scope == nil {
		return nil
	}
	if createdBy == nil || *createdBy != *scope {
		return internal.ErrAccessDenied
	}
	return nil
}
