package record

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

// ExportBatchSize bounds how many rows an export holds per fetch.
const ExportBatchSize = 500

type RepositoryAPI interface {
	Create(ctx context.Context, r *recordDatamodel.Record) error
	GetByID(ctx context.Context, id int64) (*recordDatamodel.Record, error)
	Update(ctx context.Context, r *recordDatamodel.Record) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]*recordDatamodel.Record, []StatusGroup, error)
	Each(ctx context.Context, filter ExportFilter, batchSize int, fn func([]*recordDatamodel.Record) error) error
}

type DepartmentChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type DropdownSource interface {
	All(ctx context.Context) (dropdown.Values, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event)
}

type Service struct {
	repo        RepositoryAPI
	departments DepartmentChecker
	dropdowns   DropdownSource
	publisher   Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentChecker, dropdowns DropdownSource, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		dropdowns:   dropdowns,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create stores a new record. The status always starts as processing.
func (s *Service) Create(ctx context.Context, dto CreateRecordDTO) (*Record, error) {
	f, appErr := dto.parse()
	if appErr != nil {
		return nil, appErr
	}
	if err := s.checkDepartment(ctx, f.DischargeDepartment); err != nil {
		return nil, err
	}

	status := StatusProcessing
	actor := internal.ActorID(ctx)
	rec := &Record{
		DateOfDischarge:     f.DateOfDischarge,
		FullName:            f.FullName,
		DischargeDepartment: f.DischargeDepartment,
		TreatingPhysician:   f.TreatingPhysician,
		History:             f.History,
		KDays:               f.KDays,
		DischargeStatus:     &status,
		DateOfDeath:         f.DateOfDeath,
		Comment:             f.Comment,
		CreatedBy:           actor,
		UpdatedBy:           actor,
	}

	row := ToDataModel(rec)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("record created", "record_id", row.ID)
	s.publish(ctx, events.EventTypeRecordCreated, row.ID, row.FullName)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRecordDTO) (*Record, error) {
	f, appErr := dto.parse()
	if appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, f.DischargeDepartment); err != nil {
		return nil, err
	}

	status := f.DischargeStatus
	row.DateOfDischarge = f.DateOfDischarge
	row.FullName = f.FullName
	row.DischargeDepartment = f.DischargeDepartment
	row.TreatingPhysician = f.TreatingPhysician
	row.History = f.History
	row.KDays = f.KDays
	row.DischargeStatus = &status
	row.DateOfDeath = f.DateOfDeath
	row.Comment = f.Comment
	row.UpdatedBy = internal.ActorID(ctx)

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("record updated", "record_id", row.ID, "status", status)
	s.publish(ctx, events.EventTypeRecordUpdated, row.ID, row.FullName)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("record deleted", "record_id", id)
	s.publish(ctx, events.EventTypeRecordDeleted, id, row.FullName)
	return nil
}

// Get loads one record. Operators may only read records they created.
func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewRecord(internal.UserFromContext(ctx), row.CreatedBy); err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// List runs a dashboard query. The creator scope is derived from the caller
// and overrides anything already set on the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	filter.CreatedBy = auth.CreatorScope(internal.UserFromContext(ctx))
	if filter.Page.PerPage == 0 {
		filter.Page = pagination.NewParams(filter.Page.Page, 0)
	}

	rows, groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, counts, summary := Aggregate(groups, filter.Status)

	dropdowns, err := s.dropdowns.All(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load dropdown values", err)
	}

	records := make([]RecordResponse, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromDataModel(row).ToResponse())
	}

	return &ListResponse{
		Records:      records,
		Pagination:   pagination.GetMeta(filter.Page, total),
		StatusCounts: counts,
		Summary:      summary,
		Dropdowns:    dropdowns,
		Month:        filter.Month.String(),
		AllMonths:    filter.AllMonths,
		SortBy:       filter.Sort.Column,
		SortOrder:    filter.Sort.Direction(),
	}, nil
}

func (s *Service) Dropdowns(ctx context.Context) (dropdown.Values, error) {
	values, err := s.dropdowns.All(ctx)
	if err != nil {
		return dropdown.Values{}, internal.NewInternalError("failed to load dropdown values", err)
	}
	return values, nil
}

// Each streams the export scope in date_of_discharge descending order, one
// batch at a time.
func (s *Service) Each(ctx context.Context, filter ExportFilter, fn func([]*Record) error) error {
	return s.repo.Each(ctx, filter, ExportBatchSize, func(rows []*recordDatamodel.Record) error {
		batch := make([]*Record, 0, len(rows))
		for _, row := range rows {
			batch = append(batch, FromDataModel(row))
		}
		return fn(batch)
	})
}

func (s *Service) checkDepartment(ctx context.Context, name *string) error {
	if name == nil {
		return nil
	}
	ok, err := s.departments.Exists(ctx, *name)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewValidationFieldError("discharge_department",
			fmt.Sprintf("department %q does not exist", *name), internal.ErrCodeUnknownDept)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, id int64, fullName string) {
	s.publisher.PublishSync(ctx, events.NewChangeEvent(
		eventType,
		internal.ActorID(ctx),
		events.TargetRecord,
		events.ID(id),
		fmt.Sprintf("full_name=%s", fullName),
	))
}
