package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

//go:embed templates/*.html
var templateFS embed.FS

var printTemplates = template.Must(template.New("print").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(templateFS, "templates/*.html"))

type printHeader struct {
	From        string
	To          string
	Filters     []string
	GeneratedBy string
	GeneratedAt string
}

type recordLine struct {
	DateOfDischarge string
	FullName        string
	Department      string
	Physician       string
	History         string
	KDays           int64
	Status          string
	DateOfDeath     string
	Comment         string
}

type recordsPage struct {
	printHeader
	Records []recordLine
}

type correctionLine struct {
	Date         string
	NszuRecordID string
	Doctor       string
	Status       string
	Detail       string
	Amount       string
	Comment      string
}

type correctionsPage struct {
	printHeader
	Corrections []correctionLine
	Total       string
}

func newPrintHeader(w Window, filters []string, by string, at time.Time) printHeader {
	return printHeader{
		From:        period.FormatDate(&w.From),
		To:          period.FormatDate(&w.To),
		Filters:     filters,
		GeneratedBy: by,
		GeneratedAt: at.Format(period.DateTimeLayout),
	}
}

func (p *recordsPage) add(r *record.Record) {
	p.Records = append(p.Records, recordLine{
		DateOfDischarge: period.FormatDate(&r.DateOfDischarge),
		FullName:        r.FullName,
		Department:      deref(r.DischargeDepartment),
		Physician:       r.TreatingPhysician,
		History:         r.History,
		KDays:           r.KDays,
		Status:          deref(r.DischargeStatus),
		DateOfDeath:     period.FormatDate(r.DateOfDeath),
		Comment:         deref(r.Comment),
	})
}

func (p *correctionsPage) add(c *correction.Correction, total *decimal.Decimal) {
	*total = total.Add(c.FaktSumm)
	p.Corrections = append(p.Corrections, correctionLine{
		Date:         period.FormatDate(&c.Date),
		NszuRecordID: c.NszuRecordID,
		Doctor:       c.Doctor,
		Status:       c.Status,
		Detail:       deref(c.Detail),
		Amount:       c.FaktSumm.StringFixed(2),
		Comment:      deref(c.Comment),
	})
}

func render(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := printTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// labeled renders non-empty filters as "label: value".
func labeled(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			out = append(out, pairs[i]+": "+pairs[i+1])
		}
	}
	return out
}
