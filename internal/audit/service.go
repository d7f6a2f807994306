package audit

import (
	"context"
	"log/slog"

	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

type RepositoryAPI interface {
	Create(ctx context.Context, row *auditDatamodel.AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]*auditDatamodel.AuditLogView, int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns one page of audit entries, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Page.PerPage == 0 {
		filter.Page = pagination.NewParams(filter.Page.Page, 0)
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDataModel(row))
	}
	return &ListResponse{
		Entries:    entries,
		Pagination: pagination.GetMeta(filter.Page, total),
	}, nil
}
