package export

import (
	"context"
	"net/http"

	"github.com/frahmantamala/discharge-registry/internal/transport"
)

type ServiceAPI interface {
	ExportRecords(ctx context.Context, req RecordsRequest) (*File, error)
	PrintRecords(ctx context.Context, req RecordsRequest) (*File, error)
	ExportCorrections(ctx context.Context, req CorrectionsRequest) (*File, error)
	PrintCorrections(ctx context.Context, req CorrectionsRequest) (*File, error)
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

func (h *Handler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	h.records(w, r, h.Service.ExportRecords)
}

func (h *Handler) PrintRecords(w http.ResponseWriter, r *http.Request) {
	h.records(w, r, h.Service.PrintRecords)
}

func (h *Handler) ExportCorrections(w http.ResponseWriter, r *http.Request) {
	h.corrections(w, r, h.Service.ExportCorrections)
}

func (h *Handler) PrintCorrections(w http.ResponseWriter, r *http.Request) {
	h.corrections(w, r, h.Service.PrintCorrections)
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request, build func(context.Context, RecordsRequest) (*File, error)) {
	var req RecordsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.send(w, r, func() (*File, error) { return build(r.Context(), req) })
}

func (h *Handler) corrections(w http.ResponseWriter, r *http.Request, build func(context.Context, CorrectionsRequest) (*File, error)) {
	var req CorrectionsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.send(w, r, func() (*File, error) { return build(r.Context(), req) })
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, build func() (*File, error)) {
	file, err := build()
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteFile(w, file.ContentType, file.Name, file.Body)
}
