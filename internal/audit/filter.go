package audit

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/pkg/pagination"
)

// ListFilter narrows the audit listing. Empty fields impose no constraint.
type ListFilter struct {
	Action     string
	UserID     *int64
	TargetType string
	Page       pagination.Params
}

func ListFilterFromQuery(q url.Values) (ListFilter, error) {
	f := ListFilter{
		Action:     strings.TrimSpace(q.Get("action")),
		TargetType: strings.TrimSpace(q.Get("target_type")),
		Page:       pagination.FromQuery(q),
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ListFilter{}, internal.NewValidationFieldError("user_id", "user_id must be an integer", internal.ErrCodeInvalidNumber)
		}
		f.UserID = &id
	}
	return f, nil
}
