package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

type RecordSource interface {
	Each(ctx context.Context, filter record.ExportFilter, fn func([]*record.Record) error) error
}

type CorrectionSource interface {
	Each(ctx context.Context, filter correction.ExportFilter, fn func([]*correction.Correction) error) error
}

type UserDirectory interface {
	Usernames(ctx context.Context) (map[int64]string, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event)
}

// File is a generated download.
type File struct {
	Name        string
	ContentType string
	Body        []byte
	Rows        int
}

var ErrNothingToExport = internal.NewNotFoundError("no rows match the export filters", internal.ErrCodeNothingToExport)

type Service struct {
	records     RecordSource
	corrections CorrectionSource
	users       UserDirectory
	publisher   Publisher
	location    *time.Location
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(records RecordSource, corrections CorrectionSource, users UserDirectory, publisher Publisher, loc *time.Location, logger *slog.Logger) *Service {
	return &Service{
		records:     records,
		corrections: corrections,
		users:       users,
		publisher:   publisher,
		location:    loc,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for file names and print stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ExportRecords builds the records workbook. Viewers get the reduced column
// set without provenance.
func (s *Service) ExportRecords(ctx context.Context, req RecordsRequest) (*File, error) {
	window, appErr := req.Resolve(false)
	if appErr != nil {
		return nil, appErr
	}

	reduced := isViewer(ctx)
	var users map[int64]string
	if !reduced {
		var err error
		if users, err = s.users.Usernames(ctx); err != nil {
			return nil, err
		}
	}

	sheet, err := newRecordSheet(reduced, users, s.location)
	if err != nil {
		return nil, internal.NewInternalError("failed to create workbook", err)
	}
	err = s.records.Each(ctx, req.Filter(window), func(batch []*record.Record) error {
		for _, r := range batch {
			if err := sheet.add(r); err != nil {
				return internal.NewInternalError("failed to write workbook row", err)
			}
		}
		return nil
	})
	if err != nil {
		sheet.f.Close()
		return nil, err
	}
	if sheet.rows() == 0 {
		sheet.f.Close()
		return nil, ErrNothingToExport
	}

	body, err := sheet.bytes()
	if err != nil {
		return nil, internal.NewInternalError("failed to build workbook", err)
	}

	name := fmt.Sprintf("vipiski_export_%s_%s.xlsx", window.From.Format(period.FileDateLayout), window.To.Format(period.FileDateLayout))
	if window.Month != nil {
		name = fmt.Sprintf("vipiski_export_%s.xlsx", window.From.Format("01-2006"))
	}

	details := fmt.Sprintf("%s status=%s count=%d", window.Details(), req.DischargeStatus, sheet.rows())
	s.logger.Info("records exported", "details", details, "reduced", reduced)
	s.publish(ctx, events.EventTypeRecordsExport, events.TargetExport, details)

	return &File{Name: name, ContentType: ContentTypeXLSX, Body: body, Rows: sheet.rows()}, nil
}

// PrintRecords renders a print-ready page for an explicit date range.
func (s *Service) PrintRecords(ctx context.Context, req RecordsRequest) (*File, error) {
	window, appErr := req.Resolve(true)
	if appErr != nil {
		return nil, appErr
	}

	now := s.clock()
	page := &recordsPage{printHeader: newPrintHeader(window, labeled(
		"Статус", req.DischargeStatus,
		"Лікар", req.TreatingPhysician,
		"Відділення", req.DischargeDepartment,
		"Історія хвороби", req.History,
		"ПІБ", req.FullName,
	), actorName(ctx), now)}

	err := s.records.Each(ctx, req.Filter(window), func(batch []*record.Record) error {
		for _, r := range batch {
			page.add(r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(page.Records) == 0 {
		return nil, ErrNothingToExport
	}

	body, err := render("records.html", page)
	if err != nil {
		return nil, internal.NewInternalError("failed to render print page", err)
	}

	details := fmt.Sprintf("%s status=%s count=%d", window.Details(), req.DischargeStatus, len(page.Records))
	s.logger.Info("records printed", "details", details)
	s.publish(ctx, events.EventTypeRecordsPrint, events.TargetPrint, details)

	return &File{
		Name:        fmt.Sprintf("vipiski_print_%s.html", now.Format(period.FileDateLayout)),
		ContentType: ContentTypeHTML,
		Body:        body,
		Rows:        len(page.Records),
	}, nil
}

func (s *Service) ExportCorrections(ctx context.Context, req CorrectionsRequest) (*File, error) {
	window, appErr := req.Resolve(false)
	if appErr != nil {
		return nil, appErr
	}

	users, err := s.users.Usernames(ctx)
	if err != nil {
		return nil, err
	}
	sheet, err := newCorrectionSheet(users, s.location)
	if err != nil {
		return nil, internal.NewInternalError("failed to create workbook", err)
	}
	err = s.corrections.Each(ctx, req.Filter(window), func(batch []*correction.Correction) error {
		for _, c := range batch {
			if err := sheet.add(c); err != nil {
				return internal.NewInternalError("failed to write workbook row", err)
			}
		}
		return nil
	})
	if err != nil {
		sheet.f.Close()
		return nil, err
	}
	if sheet.rows() == 0 {
		sheet.f.Close()
		return nil, ErrNothingToExport
	}

	body, err := sheet.bytes()
	if err != nil {
		return nil, internal.NewInternalError("failed to build workbook", err)
	}

	parts := []string{"nszu", window.From.Format("2006-01")}
	if status := strings.TrimSpace(req.Status); status != "" {
		parts = append(parts, strings.ReplaceAll(status, " ", "-"))
	}
	parts = append(parts, s.clock().Format(period.FileDateLayout))

	details := fmt.Sprintf("%s status=%s doctor=%s count=%d", window.Details(), req.Status, req.Doctor, sheet.rows())
	s.logger.Info("corrections exported", "details", details)
	s.publish(ctx, events.EventTypeCorrectionsExport, events.TargetExport, details)

	return &File{Name: strings.Join(parts, "_") + ".xlsx", ContentType: ContentTypeXLSX, Body: body, Rows: sheet.rows()}, nil
}

func (s *Service) PrintCorrections(ctx context.Context, req CorrectionsRequest) (*File, error) {
	window, appErr := req.Resolve(true)
	if appErr != nil {
		return nil, appErr
	}

	now := s.clock()
	page := &correctionsPage{printHeader: newPrintHeader(window, labeled(
		"Статус", req.Status,
		"Лікар", req.Doctor,
		"НСЗУ ID", req.NszuRecordID,
	), actorName(ctx), now)}

	total := decimal.Zero
	err := s.corrections.Each(ctx, req.Filter(window), func(batch []*correction.Correction) error {
		for _, c := range batch {
			page.add(c, &total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(page.Corrections) == 0 {
		return nil, ErrNothingToExport
	}
	page.Total = total.StringFixed(2)

	body, err := render("corrections.html", page)
	if err != nil {
		return nil, internal.NewInternalError("failed to render print page", err)
	}

	details := fmt.Sprintf("%s status=%s doctor=%s count=%d", window.Details(), req.Status, req.Doctor, len(page.Corrections))
	s.logger.Info("corrections printed", "details", details)
	s.publish(ctx, events.EventTypeCorrectionsPrint, events.TargetPrint, details)

	return &File{
		Name:        fmt.Sprintf("nszu_print_%s.html", now.Format(period.FileDateLayout)),
		ContentType: ContentTypeHTML,
		Body:        body,
		Rows:        len(page.Corrections),
	}, nil
}

func (s *Service) clock() time.Time {
	now := s.now()
	if s.location != nil {
		now = now.In(s.location)
	}
	return now
}

func (s *Service) publish(ctx context.Context, eventType, target, details string) {
	s.publisher.PublishSync(ctx, events.NewChangeEvent(eventType, internal.ActorID(ctx), target, nil, details))
}

func isViewer(ctx context.Context) bool {
	u := internal.UserFromContext(ctx)
	return u != nil && auth.Role(u.Role) == auth.RoleViewer
}

func actorName(ctx context.Context) string {
	if u := internal.UserFromContext(ctx); u != nil {
		return u.Username
	}
	return ""
}
