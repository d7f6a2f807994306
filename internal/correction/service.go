package correction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/discharge-registry/internal"
	correctionDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/correction"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

const ExportBatchSize = 500

type RepositoryAPI interface {
	Create(ctx context.Context, c *correctionDatamodel.Correction) error
	GetByID(ctx context.Context, id int64) (*correctionDatamodel.Correction, error)
	Update(ctx context.Context, c *correctionDatamodel.Correction) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]*correctionDatamodel.Correction, []StatusGroup, error)
	Doctors(ctx context.Context) ([]string, error)
	Each(ctx context.Context, filter ExportFilter, batchSize int, fn func([]*correctionDatamodel.Correction) error) error
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

func (s *Service) Create(ctx context.Context, dto CorrectionDTO) (*Correction, error) {
	f, appErr := dto.parse(false)
	if appErr != nil {
		return nil, appErr
	}

	actor := internal.ActorID(ctx)
	row := ToDataModel(&Correction{
		Date:         f.Date,
		NszuRecordID: f.NszuRecordID,
		Doctor:       f.Doctor,
		Status:       f.Status,
		Detail:       f.Detail,
		FaktSumm:     f.FaktSumm,
		Comment:      f.Comment,
		CreatedBy:    actor,
		UpdatedBy:    actor,
	})
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("correction created", "correction_id", row.ID)
	s.publish(ctx, events.EventTypeCorrectionCreated, row.ID, row.NszuRecordID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto CorrectionDTO) (*Correction, error) {
	f, appErr := dto.parse(true)
	if appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Date = f.Date
	row.NszuRecordID = f.NszuRecordID
	row.Doctor = f.Doctor
	row.Status = f.Status
	row.Detail = f.Detail
	row.FaktSumm = f.FaktSumm
	row.Comment = f.Comment
	row.UpdatedBy = internal.ActorID(ctx)

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("correction updated", "correction_id", row.ID, "status", row.Status)
	s.publish(ctx, events.EventTypeCorrectionUpdated, row.ID, row.NszuRecordID)
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

	s.logger.Info("correction deleted", "correction_id", id)
	s.publish(ctx, events.EventTypeCorrectionDeleted, id, row.NszuRecordID)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Correction, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Page.PerPage == 0 {
		filter.Page = pagination.NewParams(filter.Page.Page, 0)
	}

	rows, groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	doctors, err := s.repo.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	total, sum, stats := Aggregate(groups, filter.Status)

	out := make([]CorrectionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row).ToResponse())
	}

	return &ListResponse{
		Corrections: out,
		Pagination:  pagination.GetMeta(filter.Page, total),
		StatusStats: stats,
		TotalSum:    sum,
		Statuses:    Statuses,
		Doctors:     doctors,
		Month:       filter.Month.String(),
		SortBy:      filter.Sort.Column,
		SortOrder:   filter.Sort.Direction(),
	}, nil
}

// Each streams the export scope newest first in fixed-size batches.
func (s *Service) Each(ctx context.Context, filter ExportFilter, fn func([]*Correction) error) error {
	return s.repo.Each(ctx, filter, ExportBatchSize, func(rows []*correctionDatamodel.Correction) error {
		batch := make([]*Correction, 0, len(rows))
		for _, row := range rows {
			batch = append(batch, FromDataModel(row))
		}
		return fn(batch)
	})
}

func (s *Service) publish(ctx context.Context, eventType string, id int64, nszuRecordID string) {
	s.publisher.PublishSync(ctx, events.NewChangeEvent(
		eventType,
		internal.ActorID(ctx),
		events.TargetCorrection,
		events.ID(id),
		fmt.Sprintf("nszu_record_id=%s", nszuRecordID),
	))
}
