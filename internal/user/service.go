package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	userDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/user"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	Usernames(ctx context.Context) (map[int64]string, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) error
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event)
}

type Service struct {
	repo       RepositoryAPI
	publisher  Publisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, publisher Publisher, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Usernames resolves author ids for exports.
func (s *Service) Usernames(ctx context.Context) (map[int64]string, error) {
	return s.repo.Usernames(ctx)
}

// Create registers an account. Without an actor in ctx the change is
// attributed to the command line.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	role, appErr := dto.Validate()
	if appErr != nil {
		return nil, appErr
	}

	exists, err := s.repo.ExistsByUsername(ctx, dto.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, internal.NewConflictError("username already taken", internal.ErrCodeDuplicateUsername)
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := ToDataModel(&User{Username: dto.Username, PasswordHash: hash, Role: role})
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("username=%s role=%s", row.Username, row.Role)
	if internal.ActorID(ctx) == nil {
		details += " created by CLI"
	}
	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	s.publish(ctx, events.EventTypeUserCreated, row.ID, details)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	role, appErr := dto.Validate()
	if appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("username=%s", row.Username)
	if role != "" {
		row.Role = string(role)
		details += fmt.Sprintf(" role=%s", role)
	}
	if dto.Password != "" {
		hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		row.PasswordHash = hash
		details += " password=changed"
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", row.ID, "role", row.Role)
	s.publish(ctx, events.EventTypeUserUpdated, row.ID, details)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if actor := internal.ActorID(ctx); actor != nil && *actor == id {
		return internal.NewValidationFieldError("id", "you cannot delete your own account", internal.ErrCodeSelfDelete)
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", id)
	s.publish(ctx, events.EventTypeUserDeleted, id, fmt.Sprintf("username=%s", row.Username))
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, id int64, details string) {
	s.publisher.PublishSync(ctx, events.NewChangeEvent(
		eventType,
		internal.ActorID(ctx),
		events.TargetUser,
		events.ID(id),
		details,
	))
}
