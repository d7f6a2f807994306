package department

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/discharge-registry/internal"
	departmentDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/department"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, d *departmentDatamodel.Department) error
	CountRecords(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event)
}

type Service struct {
	repo      RepositoryAPI
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Department, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// Exists reports whether a department with exactly this name is registered.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	return s.repo.ExistsByName(ctx, name)
}

func (s *Service) Create(ctx context.Context, dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, dto.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, internal.NewConflictError("department already exists", internal.ErrCodeDuplicateDepartment)
	}

	row := ToDataModel(NewDepartment(dto.Name))
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("department created", "department_id", row.ID, "name", row.Name)
	s.publisher.PublishSync(ctx, events.NewChangeEvent(
		events.EventTypeDepartmentCreated,
		internal.ActorID(ctx),
		events.TargetDepartment,
		events.ID(row.ID),
		fmt.Sprintf("name=%s", row.Name),
	))
	return FromDataModel(row), nil
}

// Delete removes an unreferenced department. While records still name it the
// call fails with a conflict carrying the reference count.
func (s *Service) Delete(ctx context.Context, id int64) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountRecords(ctx, row.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.NewConflictError(
			fmt.Sprintf("department is referenced by %d record(s)", count),
			internal.ErrCodeDepartmentInUse,
		).WithDetails(InUseDetails{Records: count})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("department deleted", "department_id", id, "name", row.Name)
	s.publisher.PublishSync(ctx, events.NewChangeEvent(
		events.EventTypeDepartmentDeleted,
		internal.ActorID(ctx),
		events.TargetDepartment,
		events.ID(id),
		fmt.Sprintf("name=%s", row.Name),
	))
	return nil
}

// Seed creates the departments in names that do not exist yet and returns
// how many were added. Running it twice adds nothing.
func (s *Service) Seed(ctx context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		exists, err := s.repo.ExistsByName(ctx, name)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		if _, err := s.Create(ctx, CreateDepartmentDTO{Name: name}); err != nil {
			return added, fmt.Errorf("seed %q: %w", name, err)
		}
		added++
	}
	return added, nil
}
