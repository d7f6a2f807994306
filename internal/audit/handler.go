package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/discharge-registry/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ListFilterFromQuery(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
