package record_test

import (
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

var _ = Describe("Filter", func() {
	kyiv, _ := time.LoadLocation("Europe/Kyiv")
	// 22:30 UTC on 31 Jan is already February in Kyiv.
	now := time.Date(2026, 1, 31, 22, 30, 0, 0, time.UTC)

	It("resolves the current month in the configured zone", func() {
		f := record.ListFilterFromQuery(url.Values{}, now, kyiv)
		Expect(f.Month).To(Equal(period.Month{Year: 2026, Month: time.February}))
		Expect(f.AllMonths).To(BeFalse())
		Expect(f.Page.Page).To(Equal(1))
		Expect(f.Page.PerPage).To(Equal(100))
	})

	It("reads every parameter", func() {
		q := url.Values{
			"discharge_status":     {" Виписаний "},
			"treating_physician":   {"Bondar"},
			"discharge_department": {"Хірургія"},
			"history":              {"12"},
			"full_name":            {"iv"},
			"has_death_date":       {"yes"},
			"all_months":           {"1"},
			"month":                {"2025-11"},
			"sort_by":              {"k_days"},
			"sort_order":           {"asc"},
			"page":                 {"3"},
			"per_page":             {"20"},
		}
		f := record.ListFilterFromQuery(q, now, kyiv)
		Expect(f.Status).To(Equal("Виписаний"))
		Expect(f.Physician).To(Equal("Bondar"))
		Expect(f.Department).To(Equal("Хірургія"))
		Expect(f.History).To(Equal("12"))
		Expect(f.FullName).To(Equal("iv"))
		Expect(f.HasDeathDate).To(BeTrue())
		Expect(f.AllMonths).To(BeTrue())
		Expect(f.Month.String()).To(Equal("2025-11"))
		Expect(f.Sort.Column).To(Equal("k_days"))
		Expect(f.Sort.Direction()).To(Equal("asc"))
		Expect(f.Page.Offset).To(Equal(40))
		Expect(f.CreatedBy).To(BeNil())
	})

	Describe("Aggregate", func() {
		str := func(s string) *string { return &s }
		groups := []record.StatusGroup{
			{Status: str(record.StatusProcessing), Count: 4},
			{Status: str(record.StatusProcessing), Deceased: true, Count: 1},
			{Status: str(record.StatusDischarged), Count: 3},
			{Status: str(record.StatusViolated), Count: 2},
			{Status: str(record.StatusDeceased), Deceased: true, Count: 5},
			{Status: nil, Count: 1},
		}

		It("sums to the unfiltered total", func() {
			total, counts, summary := record.Aggregate(groups, "")
			Expect(total).To(Equal(int64(16)))
			var sum int64
			for _, n := range counts {
				sum += n
			}
			Expect(sum).To(Equal(total))
			Expect(counts).To(HaveKeyWithValue("", int64(1)))
			Expect(counts).To(HaveKeyWithValue(record.StatusProcessing, int64(5)))
			Expect(summary).To(Equal(record.Summary{Total: 16, Deceased: 6, Discharged: 3, Processing: 4, Violations: 2}))
		})

		It("narrows total and summary but not counts under a status filter", func() {
			total, counts, summary := record.Aggregate(groups, record.StatusProcessing)
			Expect(total).To(Equal(int64(5)))
			Expect(counts).To(HaveLen(5))
			Expect(summary.Deceased).To(Equal(int64(1)))
			Expect(summary.Processing).To(Equal(int64(4)))
			Expect(summary.Discharged).To(BeZero())
		})

		It("is zero for an empty scope", func() {
			total, counts, summary := record.Aggregate(nil, "")
			Expect(total).To(BeZero())
			Expect(counts).To(BeEmpty())
			Expect(summary).To(Equal(record.Summary{}))
		})
	})
})
