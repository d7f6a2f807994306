package record_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/record"
	"github.com/frahmantamala/discharge-registry/internal/transport"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

var _ = Describe("Record Handler", func() {
	var (
		f      *fixture
		router chi.Router
	)

	BeforeEach(func() {
		f = newFixture()
		h := record.NewHandler(transport.NewBaseHandler(logger.Discard()), f.service, time.UTC)
		h.Now = func() time.Time { return time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC) }

		router = chi.NewRouter()
		router.Get("/records", h.List)
		router.Post("/records", h.Create)
		router.Get("/records/dropdowns", h.Dropdowns)
		router.Get("/records/{id}", h.Get)
		router.Put("/records/{id}", h.Update)
		router.Delete("/records/{id}", h.Delete)
	})

	AfterEach(func() {
		f.close()
	})

	do := func(u *internal.CurrentUser, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(as(u))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates a record and answers with ISO dates", func() {
		w := do(f.operator, http.MethodPost, "/records", `{
			"date_of_discharge": "09.01.2026",
			"full_name": "Petrenko Ivan",
			"treating_physician": "Bondar",
			"history": "77/26",
			"k_days": 4,
			"discharge_status": "Виписаний"
		}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp record.RecordResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.DateOfDischarge).To(Equal("2026-01-09"))
		Expect(*resp.DischargeStatus).To(Equal(record.StatusProcessing))
		Expect(resp.DateOfDeath).To(BeNil())
	})

	It("answers 400 with the failing fields", func() {
		w := do(f.operator, http.MethodPost, "/records", `{"date_of_discharge":"2026-01-09","date_of_death":"2026-01-05","k_days":"x"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body struct {
			Error struct {
				Type    string                    `json:"type"`
				Details internal.ValidationErrors `json:"details"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Type).To(Equal("VALIDATION_ERROR"))
		fields := []string{}
		for _, e := range body.Error.Details.Errors {
			fields = append(fields, e.Field)
		}
		Expect(fields).To(ContainElements("date_of_death", "k_days", "full_name"))
	})

	It("defaults the dashboard to the current month", func() {
		f.mustCreate(f.operator, validCreate("2026-01-09", "Petrenko Ivan", "Bondar"))
		f.mustCreate(f.operator, validCreate("2025-12-09", "Old Record", "Bondar"))

		w := do(f.editor, http.MethodGet, "/records?month=not-a-month", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp record.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Month).To(Equal("2026-01"))
		Expect(resp.Records).To(HaveLen(1))
		Expect(resp.Dropdowns.Physicians).To(Equal([]string{"Bondar"}))
		Expect(resp.Summary.Processing).To(Equal(int64(1)))

		w = do(f.editor, http.MethodGet, "/records?month_filter=2025-12&per_page=500", "")
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Month).To(Equal("2025-12"))
		Expect(resp.Records).To(HaveLen(1))
		Expect(resp.Pagination.PerPage).To(Equal(200))
	})

	It("answers 403 when an operator opens another operator's record", func() {
		rec := f.mustCreate(f.other, validCreate("2026-01-09", "Petrenko Ivan", "Bondar"))
		w := do(f.operator, http.MethodGet, "/records/"+strconv.FormatInt(rec.ID, 10), "")
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("updates and deletes", func() {
		rec := f.mustCreate(f.operator, validCreate("2026-01-09", "Petrenko Ivan", "Bondar"))
		path := "/records/" + strconv.FormatInt(rec.ID, 10)

		w := do(f.editor, http.MethodPut, path, `{
			"date_of_discharge": "2026-01-09",
			"full_name": "Petrenko Ivan",
			"discharge_department": "Хірургія",
			"treating_physician": "Bondar",
			"history": "1234/26",
			"k_days": 5,
			"discharge_status": "Помер",
			"date_of_death": "2026-01-11"
		}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		Expect(do(f.admin, http.MethodDelete, path, "").Code).To(Equal(http.StatusNoContent))
		Expect(do(f.admin, http.MethodGet, path, "").Code).To(Equal(http.StatusNotFound))
	})
})
