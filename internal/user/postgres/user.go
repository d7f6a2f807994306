package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	userDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return &u, nil
}

// Usernames maps every user id to its username.
func (r *UserRepository) Usernames(ctx context.Context) (map[int64]string, error) {
	var rows []struct {
		ID       int64
		Username string
	}
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Select("id, username").
		Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list usernames", err)
	}
	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Username
	}
	return out, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, internal.NewInternalError("failed to look up user", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.NewConflictError("username already taken", internal.ErrCodeDuplicateUsername)
		}
		return internal.NewInternalError("failed to create user", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		return internal.NewInternalError("failed to update user", err)
	}
	return nil
}

// Delete removes the account. Records and corrections keep their rows with
// the author columns cleared by the foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userDatamodel.User{})
	if res.Error != nil {
		return internal.NewInternalError("failed to delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	return nil
}
