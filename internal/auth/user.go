package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/discharge-registry/internal"
	userDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/user"
)

// User is the authenticated identity as the auth layer sees it.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToCurrentUser() *internal.CurrentUser {
	return &internal.CurrentUser{ID: u.ID, Username: u.Username, Role: string(u.Role)}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		Role:      Role(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
