package statistics

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

type RepositoryAPI interface {
	RecordStatusGroups(ctx context.Context, scope Scope) ([]record.StatusGroup, error)
	ByDepartment(ctx context.Context, scope Scope) ([]NamedCount, error)
	ByPhysician(ctx context.Context, scope Scope) ([]NamedCount, error)
	CorrectionStatusGroups(ctx context.Context, scope Scope) ([]correction.StatusGroup, error)
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

// Report runs the four aggregates concurrently.
func (s *Service) Report(ctx context.Context, scope Scope) (*Report, error) {
	var (
		recordGroups     []record.StatusGroup
		departments      []NamedCount
		physicians       []NamedCount
		correctionGroups []correction.StatusGroup
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recordGroups, err = s.repo.RecordStatusGroups(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		departments, err = s.repo.ByDepartment(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		physicians, err = s.repo.ByPhysician(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		correctionGroups, err = s.repo.CorrectionStatusGroups(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("statistics query failed", "error", err)
		return nil, err
	}

	_, counts, summary := record.Aggregate(recordGroups, "")
	total, sum, stats := correction.Aggregate(correctionGroups, "")

	return &Report{
		Month:        scope.Month.String(),
		AllMonths:    scope.AllMonths,
		Summary:      summary,
		StatusCounts: counts,
		Departments:  departments,
		Physicians:   physicians,
		Corrections: CorrectionStats{
			Total:       total,
			TotalSum:    sum,
			StatusStats: stats,
		},
	}, nil
}
