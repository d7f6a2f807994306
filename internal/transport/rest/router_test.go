package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal/audit"
	auditPostgres "github.com/frahmantamala/discharge-registry/internal/audit/postgres"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	authPostgres "github.com/frahmantamala/discharge-registry/internal/auth/postgres"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	correctionPostgres "github.com/frahmantamala/discharge-registry/internal/correction/postgres"
	"github.com/frahmantamala/discharge-registry/internal/department"
	departmentPostgres "github.com/frahmantamala/discharge-registry/internal/department/postgres"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
	dropdownPostgres "github.com/frahmantamala/discharge-registry/internal/dropdown/postgres"
	"github.com/frahmantamala/discharge-registry/internal/export"
	"github.com/frahmantamala/discharge-registry/internal/record"
	recordPostgres "github.com/frahmantamala/discharge-registry/internal/record/postgres"
	"github.com/frahmantamala/discharge-registry/internal/statistics"
	statisticsPostgres "github.com/frahmantamala/discharge-registry/internal/statistics/postgres"
	"github.com/frahmantamala/discharge-registry/internal/testutil"
	"github.com/frahmantamala/discharge-registry/internal/transport"
	"github.com/frahmantamala/discharge-registry/internal/transport/rest"
	"github.com/frahmantamala/discharge-registry/internal/transport/swagger"
	"github.com/frahmantamala/discharge-registry/internal/user"
	userPostgres "github.com/frahmantamala/discharge-registry/internal/user/postgres"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

func buildRouter(db *gorm.DB) *chi.Mux {
	lg := logger.Discard()
	loc := time.UTC
	base := transport.NewBaseHandler(lg)
	bus := events.NewEventBus(lg)

	auditRepo := auditPostgres.NewAuditRepository(db)
	audit.NewRecorder(auditRepo, lg).Subscribe(bus)

	cache := dropdown.New(dropdown.NewMemoryStore(), dropdownPostgres.NewLoader(db), time.Minute, lg)
	cache.Subscribe(bus)

	tokens := auth.NewJWTTokenGenerator(
		"router-test-access-secret-0123456789",
		"router-test-refresh-secret-012345678",
		15*time.Minute, time.Hour)
	authService := auth.NewService(authPostgres.NewRepository(db), tokens, 4, bus, lg)

	departmentService := department.NewService(departmentPostgres.NewDepartmentRepository(db), bus, lg)
	recordService := record.NewService(recordPostgres.NewRecordRepository(db), departmentService, cache, bus, lg)
	correctionService := correction.NewService(correctionPostgres.NewCorrectionRepository(db), bus, lg)
	userService := user.NewService(userPostgres.NewUserRepository(db), bus, 4, lg)
	exportService := export.NewService(recordService, correctionService, userService, bus, loc, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, nil, rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		User:       user.NewHandler(base, userService),
		Record:     record.NewHandler(base, recordService, loc),
		Correction: correction.NewHandler(base, correctionService, loc),
		Department: department.NewHandler(base, departmentService),
		Export:     export.NewHandler(base, exportService),
		Audit:      audit.NewHandler(base, audit.NewService(auditRepo, lg)),
		Statistics: statistics.NewHandler(base, statistics.NewService(statisticsPostgres.NewStatisticsRepository(db), lg), loc),
		RBAC:       auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
	}, lg)
	return router
}

var _ = ginkgo.Describe("router", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		router = buildRouter(db)
	})

	ginkgo.AfterEach(func() {
		gomega.Expect(testutil.Close(db)).To(gomega.Succeed())
	})

	do := func(method, path, token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			gomega.Expect(json.NewEncoder(&buf).Encode(body)).To(gomega.Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func(username, password string) string {
		w := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK), w.Body.String())
		var tokens auth.AuthTokens
		gomega.Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(gomega.Succeed())
		return tokens.AccessToken
	}

	ginkgo.It("mounts every documented operation", func() {
		doc, err := swagger.Load(context.Background())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		count := 0
		for path, item := range doc.Paths.Map() {
			for method := range item.Operations() {
				url := "/api/v1" + strings.ReplaceAll(path, "{id}", "1")
				w := do(method, url, "", nil)
				gomega.Expect(w.Code).ToNot(gomega.Equal(http.StatusNotFound), method+" "+url)
				gomega.Expect(w.Code).ToNot(gomega.Equal(http.StatusMethodNotAllowed), method+" "+url)
				count++
			}
		}
		gomega.Expect(count).To(gomega.BeNumerically(">=", 30))

		gomega.Expect(do(http.MethodGet, "/api/v1/patients", "", nil).Code).To(gomega.Equal(http.StatusNotFound))
	})

	ginkgo.It("requires a token outside the public routes", func() {
		w := do(http.MethodGet, "/api/v1/records", "", nil)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))

		w = do(http.MethodGet, "/api/v1/records", "garbage", nil)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("applies the role policy per route", func() {
		_, err := testutil.CreateUser(db, "viewer", "viewer-pass", auth.RoleViewer)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		token := login("viewer", "viewer-pass")

		me := do(http.MethodGet, "/api/v1/users/me", token, nil)
		gomega.Expect(me.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(me.Body.String()).To(gomega.ContainSubstring(`"username":"viewer"`))

		gomega.Expect(do(http.MethodGet, "/api/v1/statistics", token, nil).Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(do(http.MethodGet, "/api/v1/corrections", token, nil).Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(do(http.MethodDelete, "/api/v1/records/1", token, nil).Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(do(http.MethodPost, "/api/v1/records", token, map[string]string{}).Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(do(http.MethodGet, "/api/v1/admin/users", token, nil).Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("applies a role change to tokens that are already issued", func() {
		_, err := testutil.CreateUser(db, "admin", "admin-pass", auth.RoleAdmin)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		viewer, err := testutil.CreateUser(db, "viewer", "viewer-pass", auth.RoleViewer)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		adminToken := login("admin", "admin-pass")
		viewerToken := login("viewer", "viewer-pass")

		correctionBody := map[string]string{
			"date":           "12.03.2026",
			"nszu_record_id": "NSZU-1",
			"doctor":         "Коваль",
			"fakt_summ":      "10,5",
		}
		w := do(http.MethodPost, "/api/v1/corrections", viewerToken, correctionBody)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))

		w = do(http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d", viewer.ID), adminToken, map[string]string{"role": "editor"})
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK), w.Body.String())

		w = do(http.MethodPost, "/api/v1/corrections", viewerToken, correctionBody)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusCreated), w.Body.String())

		w = do(http.MethodGet, "/api/v1/audit?action="+events.EventTypeCorrectionCreated, adminToken, nil)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("nszu_record_id=NSZU-1"))
	})

	ginkgo.It("rejects tokens of deleted accounts", func() {
		_, err := testutil.CreateUser(db, "admin", "admin-pass", auth.RoleAdmin)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		op, err := testutil.CreateUser(db, "operator", "operator-pass", auth.RoleOperator)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		adminToken := login("admin", "admin-pass")
		opToken := login("operator", "operator-pass")

		w := do(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", op.ID), adminToken, nil)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/api/v1/users/me", opToken, nil)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})
