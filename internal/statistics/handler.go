package statistics

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/discharge-registry/internal/transport"
)

type ServiceAPI interface {
	Report(ctx context.Context, scope Scope) (*Report, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Location *time.Location
	Now      func() time.Time
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, loc *time.Location) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Location:    loc,
		Now:         time.Now,
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromQuery(r.URL.Query(), h.Now(), h.Location)
	report, err := h.Service.Report(r.Context(), scope)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}
