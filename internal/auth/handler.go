package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/transport"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

// bearer pulls the token or writes the 401 itself.
func (h *Handler) bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.HandleServiceError(w, r, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
		return "", false
	}
	return token, true
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout is stateless: the client discards its tokens once the access token
// has been confirmed.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.bearer(w, r)
	if !ok {
		return
	}
	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := internal.UserFromContext(r.Context())
	if user == nil {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto ChangePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user.ID, dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// AuthMiddleware resolves the bearer token to a fresh user row and stores it
// in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := h.bearer(w, r)
		if !ok {
			return
		}
		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			logger.From(r.Context()).Debug("token validation failed", "error", err)
			h.HandleServiceError(w, r, err)
			return
		}

		u, err := h.Service.GetUser(r.Context(), claims.UserID)
		if err != nil {
			if internal.IsType(err, internal.ErrorTypeNotFound) {
				h.HandleServiceError(w, r, internal.ErrInvalidToken)
				return
			}
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := internal.ContextWithUser(r.Context(), u.ToCurrentUser())
		ctx = logger.With(ctx, "user_id", u.ID, "role", string(u.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
