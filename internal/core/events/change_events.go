package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRecordCreated = "record.create"
	EventTypeRecordUpdated = "record.update"
	EventTypeRecordDeleted = "record.delete"
	EventTypeRecordsExport = "records.export"
	EventTypeRecordsPrint  = "records.print"

	EventTypeCorrectionCreated = "nszu.create"
	EventTypeCorrectionUpdated = "nszu.update"
	EventTypeCorrectionDeleted = "nszu.delete"
	EventTypeCorrectionsExport = "nszu.export"
	EventTypeCorrectionsPrint  = "nszu.print"

	EventTypeDepartmentCreated = "department.create"
	EventTypeDepartmentDeleted = "department.delete"

	EventTypeUserCreated         = "user.create"
	EventTypeUserUpdated         = "user.update"
	EventTypeUserDeleted         = "user.delete"
	EventTypeUserPasswordChanged = "user.password_change"
)

const (
	TargetRecord     = "record"
	TargetCorrection = "nszu_correction"
	TargetDepartment = "department"
	TargetUser       = "user"
	TargetExport     = "export"
	TargetPrint      = "print"
)

// ChangeEvent describes a committed mutation or a data export.
type ChangeEvent struct {
	BaseEvent
	ActorID    *int64 `json:"actor_id"`
	TargetType string `json:"target_type"`
	TargetID   *int64 `json:"target_id"`
	Details    string `json:"details"`
}

// NewChangeEvent builds an event; actorID is nil for CLI and system actions.
func NewChangeEvent(eventType string, actorID *int64, targetType string, targetID *int64, details string) *ChangeEvent {
	return &ChangeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data: map[string]any{
				"actor_id":    actorID,
				"target_type": targetType,
				"target_id":   targetID,
				"details":     details,
			},
		},
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
}

func ID(id int64) *int64 {
	return &id
}
