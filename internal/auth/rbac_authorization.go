package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/transport"
)

// RBACAuthorization gates handlers by capability before they run.
type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
		logger:      logger,
	}
}

// Allowed reports whether the user in context holds the capability.
func (ra *RBACAuthorization) Allowed(user *internal.CurrentUser, capability Capability) bool {
	if user == nil {
		return false
	}
	return ra.checker.Can(Role(user.Role), capability)
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, capability Capability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := internal.UserFromContext(r.Context())
		if user == nil {
			ra.logger.WarnContext(r.Context(), "authorization check failed: user not found in context",
				"capability", capability)
			ra.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if !ra.Allowed(user, capability) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
				"user_id", user.ID,
				"role", user.Role,
				"capability", capability)
			ra.HandleServiceError(w, r, internal.ErrAccessDenied)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, capability)
	}
}
