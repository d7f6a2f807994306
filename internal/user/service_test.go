package user_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/audit"
	auditPostgres "github.com/frahmantamala/discharge-registry/internal/audit/postgres"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/testutil"
	"github.com/frahmantamala/discharge-registry/internal/transport"
	"github.com/frahmantamala/discharge-registry/internal/user"
	userPostgres "github.com/frahmantamala/discharge-registry/internal/user/postgres"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

var _ = Describe("User Service", func() {
	var (
		db      *gorm.DB
		service *user.Service
		admin   *internal.CurrentUser
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		u, err := testutil.CreateUser(db, "admin", "secret1", auth.RoleAdmin)
		Expect(err).NotTo(HaveOccurred())
		admin = &internal.CurrentUser{ID: u.ID, Username: u.Username, Role: u.Role}
		ctx = internal.ContextWithUser(context.Background(), admin)

		bus := events.NewEventBus(logger.Discard())
		audit.NewRecorder(auditPostgres.NewAuditRepository(db), logger.Discard()).Subscribe(bus)
		service = user.NewService(userPostgres.NewUserRepository(db), bus, 4, logger.Discard())
	})

	AfterEach(func() {
		Expect(testutil.Close(db)).To(Succeed())
	})

	auditFor := func(action string) []auditDatamodel.AuditLog {
		var logs []auditDatamodel.AuditLog
		Expect(db.Where("action = ?", action).Find(&logs).Error).To(Succeed())
		return logs
	}

	Describe("Create", func() {
		It("hashes the password and defaults the role", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{Username: " nurse ", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("nurse"))
			Expect(u.Role).To(Equal(auth.RoleOperator))
			Expect(auth.VerifyPassword(u.PasswordHash, "secret1")).To(Succeed())

			logs := auditFor(events.EventTypeUserCreated)
			Expect(logs).To(HaveLen(1))
			Expect(*logs[0].UserID).To(Equal(admin.ID))
			Expect(logs[0].Details).To(Equal("username=nurse role=operator"))
		})

		It("attributes actorless creation to the command line", func() {
			_, err := service.Create(context.Background(), user.CreateUserDTO{Username: "root2", Password: "secret1", Role: "admin"})
			Expect(err).NotTo(HaveOccurred())

			logs := auditFor(events.EventTypeUserCreated)
			Expect(logs[0].UserID).To(BeNil())
			Expect(logs[0].Details).To(ContainSubstring("created by CLI"))
		})

		It("rejects short passwords and unknown roles", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Username: "x", Password: "12345", Role: "root"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Fields()).To(ConsistOf("password", "role"))
		})

		It("refuses a taken username with a conflict", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Username: "admin", Password: "secret1"})
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateUsername))
		})
	})

	Describe("Update", func() {
		It("changes role and password independently", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{Username: "nurse", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, u.ID, user.UpdateUserDTO{Role: "Editor"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(auth.RoleEditor))
			Expect(auth.VerifyPassword(updated.PasswordHash, "secret1")).To(Succeed())

			updated, err = service.Update(ctx, u.ID, user.UpdateUserDTO{Password: "another"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(auth.RoleEditor))
			Expect(auth.VerifyPassword(updated.PasswordHash, "another")).To(Succeed())

			Expect(auditFor(events.EventTypeUserUpdated)).To(HaveLen(2))
		})

		It("requires something to change", func() {
			_, err := service.Update(ctx, admin.ID, user.UpdateUserDTO{})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("reports a missing user", func() {
			_, err := service.Update(ctx, 999, user.UpdateUserDTO{Role: "viewer"})
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("refuses to delete the caller", func() {
			err := service.Delete(ctx, admin.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(appErr.Fields()).To(Equal([]string{"id"}))
		})

		It("deletes others and 404s afterwards", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{Username: "nurse", Password: "secret1"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, u.ID)).To(Succeed())
			Expect(internal.IsType(service.Delete(ctx, u.ID), internal.ErrorTypeNotFound)).To(BeTrue())
			Expect(auditFor(events.EventTypeUserDeleted)).To(HaveLen(1))
		})
	})

	Describe("Handler", func() {
		var router chi.Router

		BeforeEach(func() {
			h := user.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
			router = chi.NewRouter()
			router.Get("/users/me", h.GetCurrentUser)
			router.Get("/admin/users", h.List)
			router.Post("/admin/users", h.Create)
			router.Get("/admin/users/{id}", h.Get)
			router.Put("/admin/users/{id}", h.Update)
			router.Delete("/admin/users/{id}", h.Delete)
		})

		do := func(method, path, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			req = req.WithContext(ctx)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("never exposes the password hash", func() {
			w := do(http.MethodPost, "/admin/users", `{"username":"nurse","password":"secret1","role":"viewer"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(w.Body.String()).NotTo(ContainSubstring("password"))
			Expect(w.Body.String()).To(ContainSubstring(`"role":"viewer"`))

			w = do(http.MethodGet, "/admin/users", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"username":"nurse"`))
			Expect(w.Body.String()).NotTo(ContainSubstring("$2a$"))
		})

		It("serves the caller's own profile", func() {
			w := do(http.MethodGet, "/users/me", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"username":"admin"`))
		})

		It("maps errors to status codes", func() {
			Expect(do(http.MethodPost, "/admin/users", `{"username":"admin","password":"secret1"}`).Code).To(Equal(http.StatusConflict))
			Expect(do(http.MethodGet, "/admin/users/999", "").Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodDelete, "/admin/users/"+strconv.FormatInt(admin.ID, 10), "").Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodPut, "/admin/users/"+strconv.FormatInt(admin.ID, 10), `{"role":"wizard"}`).Code).To(Equal(http.StatusBadRequest))
		})
	})
})
