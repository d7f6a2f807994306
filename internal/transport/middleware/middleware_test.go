package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/discharge-registry/internal/transport/middleware"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

var _ = ginkgo.Describe("RequestID", func() {
	var seen string

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.TraceID(r.Context())
	}))

	ginkgo.BeforeEach(func() { seen = "" })

	ginkgo.It("keeps a trace id sent by the caller", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		gomega.Expect(seen).To(gomega.Equal("abc-123"))
		gomega.Expect(w.Header().Get(middleware.TraceHeader)).To(gomega.Equal("abc-123"))
	})

	ginkgo.It("mints one otherwise", func() {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(seen).To(gomega.HaveLen(36))
		gomega.Expect(w.Header().Get(middleware.TraceHeader)).To(gomega.Equal(seen))
	})
})

var _ = ginkgo.Describe("RecoveryMiddleware", func() {
	ginkgo.It("answers a panic with the internal error envelope", func() {
		handler := middleware.RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("db exploded")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/records", nil))

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusInternalServerError))
		var body struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body.Error.Type).To(gomega.Equal("INTERNAL_ERROR"))
		gomega.Expect(w.Body.String()).ToNot(gomega.ContainSubstring("db exploded"))
	})
})

var _ = ginkgo.Describe("CORS", func() {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	ginkgo.It("short-circuits preflight requests from allowed origins", func() {
		handler := middleware.CORS([]string{"https://registry.example"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/records", nil)
		req.Header.Set("Origin", "https://registry.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(w.Header().Get("Access-Control-Allow-Origin")).To(gomega.Equal("https://registry.example"))
		gomega.Expect(w.Header().Get("Access-Control-Expose-Headers")).To(gomega.ContainSubstring("Content-Disposition"))
	})

	ginkgo.It("sends no grant to other origins", func() {
		handler := middleware.CORS([]string{"https://registry.example"})(next)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusTeapot))
		gomega.Expect(w.Header().Get("Access-Control-Allow-Origin")).To(gomega.BeEmpty())
	})

	ginkgo.It("allows any origin when none are configured", func() {
		handler := middleware.CORS(nil)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		gomega.Expect(w.Header().Get("Access-Control-Allow-Origin")).To(gomega.Equal("http://localhost:5173"))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware", func() {
	var (
		buf *bytes.Buffer
		lg  *slog.Logger
	)

	ginkgo.BeforeEach(func() {
		buf = &bytes.Buffer{}
		lg = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	ginkgo.It("masks passwords and tokens", func() {
		handler := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"eyJhbGciOi","token_type":"Bearer"}`))
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"hunter22"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer secret-token")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		gomega.Expect(out).To(gomega.ContainSubstring("admin"))
		gomega.Expect(out).ToNot(gomega.ContainSubstring("hunter22"))
		gomega.Expect(out).ToNot(gomega.ContainSubstring("eyJhbGciOi"))
		gomega.Expect(out).ToNot(gomega.ContainSubstring("secret-token"))
	})

	ginkgo.It("does not log binary downloads", func() {
		handler := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			_, _ = w.Write([]byte("PK\x03\x04-workbook-bytes"))
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/records/export", nil))

		gomega.Expect(w.Body.String()).To(gomega.HavePrefix("PK"))
		gomega.Expect(buf.String()).ToNot(gomega.ContainSubstring("workbook-bytes"))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware patient data", func() {
	ginkgo.It("masks patient names and history numbers", func() {
		buf := &bytes.Buffer{}
		lg := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		var received []byte
		handler := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		}))

		body := `{"full_name":"Шевченко Тарас","history":"H-1001","treating_physician":"Коваль"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(string(received)).To(gomega.Equal(body))

		out := buf.String()
		gomega.Expect(out).ToNot(gomega.ContainSubstring("H-1001"))
		gomega.Expect(out).To(gomega.ContainSubstring("treating_physician"))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware levels", func() {
	ginkgo.It("logs one entry per request without bodies above debug", func() {
		buf := &bytes.Buffer{}
		lg := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		handler := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND"}}`))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/records/9", nil))

		var entry map[string]any
		gomega.Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry)).To(gomega.Succeed())
		gomega.Expect(entry["level"]).To(gomega.Equal("WARN"))
		gomega.Expect(entry["status"]).To(gomega.BeNumerically("==", 404))
		gomega.Expect(entry).ToNot(gomega.HaveKey("response_body"))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware query string", func() {
	ginkgo.It("masks patient filters but keeps the others", func() {
		buf := &bytes.Buffer{}
		lg := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		handler := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		target := "/api/v1/records?full_name=%D0%A8%D0%B5%D0%B2%D1%87%D0%B5%D0%BD%D0%BA%D0%BE&history=H-1001&month=2026-01&discharge_status=Виписаний"
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))

		var entry map[string]any
		gomega.Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry)).To(gomega.Succeed())
		query, _ := entry["query"].(string)
		gomega.Expect(query).To(gomega.ContainSubstring("full_name=[FILTERED]"))
		gomega.Expect(query).To(gomega.ContainSubstring("history=[FILTERED]"))
		gomega.Expect(query).To(gomega.ContainSubstring("month=2026-01"))
		gomega.Expect(buf.String()).ToNot(gomega.ContainSubstring("H-1001"))
		gomega.Expect(buf.String()).ToNot(gomega.ContainSubstring("%D0%A8"))
	})
})
