package correction_test

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/audit"
	auditPostgres "github.com/frahmantamala/discharge-registry/internal/audit/postgres"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	auditDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/audit"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	correctionPostgres "github.com/frahmantamala/discharge-registry/internal/correction/postgres"
	"github.com/frahmantamala/discharge-registry/internal/testutil"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

var now = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	service *correction.Service
	editor  *internal.CurrentUser
}

func newFixture() *fixture {
	db, err := testutil.NewSQLiteDB()
	Expect(err).NotTo(HaveOccurred())

	u, err := testutil.CreateUser(db, "editor", "secret1", auth.RoleEditor)
	Expect(err).NotTo(HaveOccurred())

	bus := events.NewEventBus(logger.Discard())
	audit.NewRecorder(auditPostgres.NewAuditRepository(db), logger.Discard()).Subscribe(bus)

	return &fixture{
		db:      db,
		service: correction.NewService(correctionPostgres.NewCorrectionRepository(db), bus, logger.Discard()),
		editor:  &internal.CurrentUser{ID: u.ID, Username: u.Username, Role: u.Role},
	}
}

func (f *fixture) close() {
	Expect(testutil.Close(f.db)).To(Succeed())
}

func (f *fixture) ctx() context.Context {
	return internal.ContextWithUser(context.Background(), f.editor)
}

func (f *fixture) mustCreate(date, nszuID, doctor, status, amount string) *correction.Correction {
	c, err := f.service.Create(f.ctx(), correction.CorrectionDTO{
		Date:         date,
		NszuRecordID: nszuID,
		Doctor:       doctor,
		Status:       status,
		FaktSumm:     json.RawMessage(amount),
	})
	Expect(err).NotTo(HaveOccurred())
	return c
}

func fieldCodes(err error) map[string]string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	out := make(map[string]string)
	for _, e := range details.Errors {
		out[e.Field] = e.Code
	}
	return out
}

func listFor(q url.Values) correction.ListFilter {
	return correction.ListFilterFromQuery(q, now, time.UTC)
}

var _ = Describe("Correction Service", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	AfterEach(func() {
		f.close()
	})

	Describe("Create", func() {
		It("defaults the status and stamps the author", func() {
			c := f.mustCreate("05.03.2026", "NSZU-1", "Bondar", "", `"1250,5"`)

			Expect(c.Status).To(Equal(correction.StatusInProgress))
			Expect(c.Date).To(Equal(testutil.Date(2026, time.March, 5)))
			Expect(c.FaktSumm.Equal(decimal.RequireFromString("1250.50"))).To(BeTrue())
			Expect(*c.CreatedBy).To(Equal(f.editor.ID))
			Expect(*c.UpdatedBy).To(Equal(f.editor.ID))
		})

		It("treats an empty or dash amount as zero", func() {
			Expect(f.mustCreate("2026-03-05", "A", "Bondar", "", `"-"`).FaktSumm.IsZero()).To(BeTrue())
			Expect(f.mustCreate("2026-03-05", "B", "Bondar", "", ``).FaktSumm.IsZero()).To(BeTrue())
			Expect(f.mustCreate("2026-03-05", "C", "Bondar", "", `12.345`).FaktSumm.String()).To(Equal("12.35"))
		})

		It("names every failing field", func() {
			_, err := f.service.Create(f.ctx(), correction.CorrectionDTO{
				Date:     "31.02.2026",
				Status:   "Paid",
				FaktSumm: json.RawMessage(`"-5"`),
			})
			Expect(fieldCodes(err)).To(Equal(map[string]string{
				"date":           string(internal.ErrCodeInvalidDate),
				"fakt_summ":      string(internal.ErrCodeNegativeAmount),
				"nszu_record_id": string(internal.ErrCodeRequired),
				"doctor":         string(internal.ErrCodeRequired),
				"status":         string(internal.ErrCodeInvalidStatus),
			}))
		})

		It("rejects an amount that is not a number", func() {
			_, err := f.service.Create(f.ctx(), correction.CorrectionDTO{
				Date: "2026-03-05", NszuRecordID: "X", Doctor: "Bondar", FaktSumm: json.RawMessage(`"abc"`),
			})
			Expect(fieldCodes(err)).To(HaveKeyWithValue("fakt_summ", string(internal.ErrCodeInvalidNumber)))
		})

		It("rejects an amount beyond NUMERIC(12,2)", func() {
			for _, raw := range []string{`1e12`, `10000000000`, `"9999999999.999"`} {
				_, err := f.service.Create(f.ctx(), correction.CorrectionDTO{
					Date: "2026-03-05", NszuRecordID: "X", Doctor: "Bondar", FaktSumm: json.RawMessage(raw),
				})
				Expect(fieldCodes(err)).To(HaveKeyWithValue("fakt_summ", string(internal.ErrCodeOutOfRange)), raw)
			}

			c := f.mustCreate("2026-03-05", "NSZU-1", "Bondar", "", `9999999999.99`)
			Expect(c.FaktSumm.StringFixed(2)).To(Equal("9999999999.99"))
		})

		It("writes an audit entry naming the NSZU id", func() {
			c := f.mustCreate("2026-03-05", "NSZU-77", "Bondar", "", `10`)

			var logs []auditDatamodel.AuditLog
			Expect(f.db.Find(&logs).Error).To(Succeed())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Action).To(Equal(events.EventTypeCorrectionCreated))
			Expect(logs[0].TargetType).To(Equal(events.TargetCorrection))
			Expect(*logs[0].TargetID).To(Equal(c.ID))
			Expect(logs[0].Details).To(Equal("nszu_record_id=NSZU-77"))
		})
	})

	Describe("Update", func() {
		It("requires a status on edit", func() {
			c := f.mustCreate("2026-03-05", "A", "Bondar", "", `10`)
			_, err := f.service.Update(f.ctx(), c.ID, correction.CorrectionDTO{
				Date: "2026-03-05", NszuRecordID: "A", Doctor: "Bondar",
			})
			Expect(fieldCodes(err)).To(HaveKeyWithValue("status", string(internal.ErrCodeRequired)))
		})

		It("replaces the editable fields", func() {
			c := f.mustCreate("2026-03-05", "A", "Bondar", "", `10`)
			updated, err := f.service.Update(f.ctx(), c.ID, correction.CorrectionDTO{
				Date: "2026-03-06", NszuRecordID: "A-2", Doctor: "Kovalenko",
				Status: correction.StatusPaid, FaktSumm: json.RawMessage(`"99,99"`), Comment: " paid in full ",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(correction.StatusPaid))
			Expect(*updated.Comment).To(Equal("paid in full"))

			got, err := f.service.Get(f.ctx(), c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.NszuRecordID).To(Equal("A-2"))
			Expect(got.FaktSumm.String()).To(Equal("99.99"))
		})

		It("reports a missing correction", func() {
			_, err := f.service.Update(f.ctx(), 404, correction.CorrectionDTO{
				Date: "2026-03-06", NszuRecordID: "A", Doctor: "B", Status: correction.StatusPaid,
			})
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the row and audits it", func() {
			c := f.mustCreate("2026-03-05", "A", "Bondar", "", `10`)
			Expect(f.service.Delete(f.ctx(), c.ID)).To(Succeed())

			_, err := f.service.Get(f.ctx(), c.ID)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())

			var count int64
			f.db.Model(&auditDatamodel.AuditLog{}).Where("action = ?", events.EventTypeCorrectionDeleted).Count(&count)
			Expect(count).To(Equal(int64(1)))

			Expect(internal.IsType(f.service.Delete(f.ctx(), c.ID), internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			f.mustCreate("2026-03-01", "NSZU-100", "Bondar", correction.StatusPaid, `100.10`)
			f.mustCreate("2026-03-02", "NSZU-101", "Bondar", correction.StatusPaid, `"50,40"`)
			f.mustCreate("2026-03-03", "NSZU-200", "Kovalenko", correction.StatusProcessed, `20`)
			f.mustCreate("2026-03-04", "NSZU-201", "Kovalenko", "", `5`)
			f.mustCreate("2026-02-27", "NSZU-300", "Shevchenko", correction.StatusPaid, `1000`)
		})

		It("scopes to the month and sums amounts per status", func() {
			resp, err := f.service.List(f.ctx(), listFor(url.Values{}))
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Month).To(Equal("2026-03"))
			Expect(resp.Corrections).To(HaveLen(4))
			Expect(resp.Pagination.Total).To(Equal(int64(4)))
			Expect(resp.TotalSum.String()).To(Equal("175.5"))
			Expect(resp.StatusStats[correction.StatusPaid].Count).To(Equal(int64(2)))
			Expect(resp.StatusStats[correction.StatusPaid].Sum.String()).To(Equal("150.5"))
			Expect(resp.StatusStats[correction.StatusInProgress].Count).To(Equal(int64(1)))
			Expect(resp.Statuses).To(Equal(correction.Statuses))
			Expect(resp.Doctors).To(Equal([]string{"Bondar", "Kovalenko", "Shevchenko"}))
		})

		It("newest date comes first by default", func() {
			resp, err := f.service.List(f.ctx(), listFor(url.Values{}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Corrections[0].NszuRecordID).To(Equal("NSZU-201"))
			Expect(resp.SortBy).To(Equal("date"))
			Expect(resp.SortOrder).To(Equal("desc"))
		})

		It("keeps per-status stats when a status is selected", func() {
			resp, err := f.service.List(f.ctx(), listFor(url.Values{"status": {correction.StatusPaid}}))
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.Corrections).To(HaveLen(2))
			Expect(resp.Pagination.Total).To(Equal(int64(2)))
			Expect(resp.TotalSum.String()).To(Equal("150.5"))
			Expect(resp.StatusStats).To(HaveKey(correction.StatusProcessed))
		})

		It("filters by doctor and a fragment of the NSZU id", func() {
			resp, err := f.service.List(f.ctx(), listFor(url.Values{"doctor": {"Kovalenko"}, "nszu_record_id": {"20"}}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Corrections).To(HaveLen(2))

			resp, err = f.service.List(f.ctx(), listFor(url.Values{"nszu_record_id": {"101"}}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Corrections).To(HaveLen(1))
			Expect(resp.Corrections[0].FaktSumm.String()).To(Equal("50.4"))
		})

		It("accepts month_year", func() {
			resp, err := f.service.List(f.ctx(), listFor(url.Values{"month_year": {"2026-02"}}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Month).To(Equal("2026-02"))
			Expect(resp.Corrections).To(HaveLen(1))
			Expect(resp.TotalSum.String()).To(Equal("1000"))
		})

		It("sorts by amount", func() {
			resp, err := f.service.List(f.ctx(), listFor(url.Values{"sort_by": {"fakt_summ"}, "sort_order": {"asc"}}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Corrections[0].NszuRecordID).To(Equal("NSZU-201"))
			Expect(resp.Corrections[3].NszuRecordID).To(Equal("NSZU-100"))
		})
	})

	Describe("Each", func() {
		It("streams the inclusive range newest first", func() {
			f.mustCreate("2026-03-01", "A", "Bondar", "", `1`)
			f.mustCreate("2026-03-10", "B", "Bondar", "", `1`)
			f.mustCreate("2026-03-11", "C", "Bondar", "", `1`)

			var ids []string
			err := f.service.Each(f.ctx(), correction.ExportFilter{
				From: testutil.Date(2026, time.March, 1),
				To:   testutil.Date(2026, time.March, 10),
			}, func(batch []*correction.Correction) error {
				for _, c := range batch {
					ids = append(ids, c.NszuRecordID)
				}
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"B", "A"}))
		})
	})
})

var _ = Describe("Aggregate", func() {
	It("sums the whole scope into stats and the filtered part into the total", func() {
		groups := []correction.StatusGroup{
			{Status: correction.StatusPaid, Count: 2, Sum: decimal.RequireFromString("10.005")},
			{Status: correction.StatusProcessed, Count: 1, Sum: decimal.NewFromInt(3)},
		}
		total, sum, stats := correction.Aggregate(groups, correction.StatusPaid)
		Expect(total).To(Equal(int64(2)))
		Expect(sum.String()).To(Equal("10.01"))
		Expect(stats).To(HaveLen(2))

		total, sum, _ = correction.Aggregate(groups, "")
		Expect(total).To(Equal(int64(3)))
		Expect(sum.String()).To(Equal("13.01"))
	})
})
