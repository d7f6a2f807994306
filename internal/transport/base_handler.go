package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

// BaseHandler carries the response helpers every domain handler embeds.
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("encode response", "error", err)
	}
}

var typeByStatus = map[int]internal.ErrorType{
	http.StatusBadRequest:   internal.ErrorTypeValidation,
	http.StatusUnauthorized: internal.ErrorTypeUnauthorized,
	http.StatusForbidden:    internal.ErrorTypeForbidden,
	http.StatusNotFound:     internal.ErrorTypeNotFound,
	http.StatusConflict:     internal.ErrorTypeConflict,
}

// WriteError writes an error envelope without details; the code mirrors the
// type.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	t, ok := typeByStatus[status]
	if !ok {
		t = internal.ErrorTypeInternal
	}
	h.writeAppError(w, &internal.AppError{Type: t, Code: internal.ErrorCode(t), Message: message, StatusCode: status})
}

// HandleServiceError maps domain errors onto the uniform error envelope.
// Internal causes are logged, never written to the client.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		logger.From(r.Context()).Error("unhandled service error", "error", err)
		h.writeAppError(w, internal.NewInternalError("internal server error", nil))
		return
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("service error", "error", appErr.Error())
		h.writeAppError(w, internal.NewInternalError("internal server error", nil))
		return
	}
	logger.From(r.Context()).Warn("request rejected",
		"type", appErr.Type,
		"code", appErr.Code,
		"message", appErr.GetDetailedMessage())
	h.writeAppError(w, appErr)
}

func (h *BaseHandler) writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON reads the request body into dst. An empty body is a
// validation error, not EOF.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return internal.NewValidationError("request body is required", internal.ErrCodeValidationFailed)
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return internal.NewValidationError("request body is required", internal.ErrCodeValidationFailed)
	default:
		return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed).WithCause(err)
	}
}

// IDParam parses a positive integer URL parameter.
func (h *BaseHandler) IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, fmt.Sprintf("invalid %s", name), internal.ErrCodeValidationFailed)
	}
	return id, nil
}

// WriteFile sends a downloadable document.
func (h *BaseHandler) WriteFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("failed to write file response", "error", err, "filename", filename)
	}
}

// ExtractTokenFromHeader returns the bearer token, or "" when the header is
// missing or uses another scheme.
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
