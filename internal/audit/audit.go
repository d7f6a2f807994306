package audit

import (
	"time"

	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

type Entry struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id"`
	Username   *string   `json:"username"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *int64    `json:"target_id"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromDataModel(row *auditDatamodel.AuditLogView) *Entry {
	return &Entry{
		ID:         row.ID,
		UserID:     row.UserID,
		Username:   row.Username,
		Action:     row.Action,
		TargetType: row.TargetType,
		TargetID:   row.TargetID,
		Details:    row.Details,
		CreatedAt:  row.CreatedAt,
	}
}

type ListResponse struct {
	Entries    []*Entry        `json:"entries"`
	Pagination pagination.Meta `json:"pagination"`
}
