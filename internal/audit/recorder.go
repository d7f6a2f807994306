package audit

import (
	"context"
	"log/slog"

	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
)

// Recorder turns committed change events into audit rows. It runs as a
// post-commit hook: an error it returns is logged by the bus and never
// reaches the caller that made the change.
type Recorder struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewRecorder(repo RepositoryAPI, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
	}
}

func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	change, ok := event.(*events.ChangeEvent)
	if !ok {
		return nil
	}

	row := &auditDatamodel.AuditLog{
		UserID:     change.ActorID,
		Action:     change.EventType(),
		TargetType: change.TargetType,
		TargetID:   change.TargetID,
		Details:    change.Details,
	}
	if err := r.repo.Create(ctx, row); err != nil {
		return err
	}
	r.logger.Debug("audit entry written", "action", row.Action, "audit_id", row.ID)
	return nil
}

// Subscribe registers the recorder for every event. It must be called
// before any other subscriber so the audit row is written first.
func (r *Recorder) Subscribe(bus *events.EventBus) {
	bus.Subscribe("*", r.Handle)
}
