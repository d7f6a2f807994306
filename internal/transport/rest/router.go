package rest

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/discharge-registry/internal/audit"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/department"
	"github.com/frahmantamala/discharge-registry/internal/export"
	"github.com/frahmantamala/discharge-registry/internal/record"
	"github.com/frahmantamala/discharge-registry/internal/statistics"
	"github.com/frahmantamala/discharge-registry/internal/transport/middleware"
	"github.com/frahmantamala/discharge-registry/internal/transport/swagger"
	"github.com/frahmantamala/discharge-registry/internal/user"
)

// Handlers groups everything RegisterAllRoutes mounts. A nil handler leaves
// its routes out.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Record      *record.Handler
	Correction  *correction.Handler
	Department  *department.Handler
	Export      *export.Handler
	Audit       *audit.Handler
	Statistics  *statistics.Handler
	RBAC        *auth.RBACAuthorization
	CORSOrigins []string
	// Probes are checked by /health next to the database.
	Probes []Probe
}

func RegisterAllRoutes(router *chi.Mux, db *sqlx.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, h.Probes...)
	rbac := h.RBAC

	router.Use(middleware.CORS(h.CORSOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
			sr.With(h.Auth.AuthMiddleware, rbac.Require(auth.CapChangePassword)).
				Post("/change-password", h.Auth.ChangePassword)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.With(rbac.Require(auth.CapViewSelf)).Get("/users/me", h.User.GetCurrentUser)

				pr.Route("/admin/users", func(ur chi.Router) {
					ur.Use(rbac.Require(auth.CapManageUsers))
					ur.Get("/", h.User.List)
					ur.Post("/", h.User.Create)
					ur.Get("/{id}", h.User.Get)
					ur.Put("/{id}", h.User.Update)
					ur.Delete("/{id}", h.User.Delete)
				})
			}

			if h.Record != nil {
				pr.Route("/records", func(rr chi.Router) {
					view := rbac.Require(auth.CapViewDashboard)
					rr.With(view).Get("/", h.Record.List)
					rr.With(view).Get("/dropdowns", h.Record.Dropdowns)
					rr.With(rbac.Require(auth.CapCreateRecord)).Post("/", h.Record.Create)
					if h.Export != nil {
						exp := rbac.Require(auth.CapExportRecord)
						rr.With(exp).Post("/export", h.Export.ExportRecords)
						rr.With(exp).Post("/print", h.Export.PrintRecords)
					}
					rr.With(view).Get("/{id}", h.Record.Get)
					rr.With(rbac.Require(auth.CapEditRecord)).Put("/{id}", h.Record.Update)
					rr.With(rbac.Require(auth.CapDeleteRecord)).Delete("/{id}", h.Record.Delete)
				})
			}

			if h.Correction != nil {
				pr.Route("/corrections", func(cr chi.Router) {
					list := rbac.Require(auth.CapListCorrections)
					cr.With(list).Get("/", h.Correction.List)
					cr.With(rbac.Require(auth.CapCreateCorrection)).Post("/", h.Correction.Create)
					if h.Export != nil {
						exp := rbac.Require(auth.CapExportCorrection)
						cr.With(exp).Post("/export", h.Export.ExportCorrections)
						cr.With(exp).Post("/print", h.Export.PrintCorrections)
					}
					cr.With(list).Get("/{id}", h.Correction.Get)
					cr.With(rbac.Require(auth.CapEditCorrection)).Put("/{id}", h.Correction.Update)
					cr.With(rbac.Require(auth.CapDeleteCorrection)).Delete("/{id}", h.Correction.Delete)
				})
			}

			if h.Department != nil {
				pr.Route("/departments", func(dr chi.Router) {
					manage := rbac.Require(auth.CapManageDepartments)
					dr.With(rbac.Require(auth.CapListDepartments)).Get("/", h.Department.List)
					dr.With(manage).Post("/", h.Department.Create)
					dr.With(manage).Delete("/{id}", h.Department.Delete)
				})
			}

			if h.Audit != nil {
				pr.With(rbac.Require(auth.CapViewAudit)).Get("/audit", h.Audit.List)
			}

			if h.Statistics != nil {
				pr.With(rbac.Require(auth.CapViewStatistics)).Get("/statistics", h.Statistics.Get)
			}
		})
	})
}
