package correction

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/discharge-registry/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CorrectionDTO) (*Correction, error)
	Update(ctx context.Context, id int64, dto CorrectionDTO) (*Correction, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Correction, error)
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilterFromQuery(r.URL.Query(), h.Now(), h.Location)
	resp, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c.ToResponse())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CorrectionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	c, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c.ToResponse())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto CorrectionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	c, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c.ToResponse())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
