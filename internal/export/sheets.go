package export

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/discharge-registry/internal/core/common/period"
	"github.com/frahmantamala/discharge-registry/internal/correction"
	"github.com/frahmantamala/discharge-registry/internal/record"
)

const (
	RecordsSheet     = "Записи"
	CorrectionsSheet = "NSZU"
)

// ReducedRecordHeaders is the column set exported for viewers.
var ReducedRecordHeaders = []string{
	"ID", "Дата виписки", "ПІБ", "Відділення", "Лікар", "Історія хвороби", "К днів", "Статус виписки",
}

var FullRecordHeaders = append(append([]string{}, ReducedRecordHeaders...),
	"Дата смерті", "Коментар", "Створено", "Оновлено", "Автор", "Редактор",
)

var CorrectionHeaders = []string{
	"ID", "Дата", "НСЗУ ID", "Лікар", "Статус", "Деталі", "Факт. сума", "Коментар", "Створив", "Створено", "Оновив", "Оновлено",
}

var recordHeaderStyle = &excelize.Style{
	Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
	Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
	Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
}

var correctionHeaderStyle = &excelize.Style{
	Font:      &excelize.Font{Bold: true},
	Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
}

// twoDecimals is the built-in "0.00" number format.
var twoDecimals = &excelize.Style{NumFmt: 2}

type recordSheet struct {
	*sheetWriter
	reduced bool
	users   map[int64]string
	loc     *time.Location
}

func newRecordSheet(reduced bool, users map[int64]string, loc *time.Location) (*recordSheet, error) {
	headers := FullRecordHeaders
	if reduced {
		headers = ReducedRecordHeaders
	}
	w, err := newSheetWriter(RecordsSheet, headers, recordHeaderStyle)
	if err != nil {
		return nil, err
	}
	return &recordSheet{sheetWriter: w, reduced: reduced, users: users, loc: loc}, nil
}

func (s *recordSheet) add(r *record.Record) error {
	cells := []interface{}{
		r.ID,
		period.FormatDate(&r.DateOfDischarge),
		r.FullName,
		deref(r.DischargeDepartment),
		r.TreatingPhysician,
		r.History,
		r.KDays,
		deref(r.DischargeStatus),
	}
	if !s.reduced {
		cells = append(cells,
			period.FormatDate(r.DateOfDeath),
			deref(r.Comment),
			period.FormatDateTime(&r.CreatedAt, s.loc),
			period.FormatDateTime(&r.UpdatedAt, s.loc),
			username(s.users, r.CreatedBy),
			username(s.users, r.UpdatedBy),
		)
	}
	return s.append(cells)
}

type correctionSheet struct {
	*sheetWriter
	users map[int64]string
	loc   *time.Location
}

func newCorrectionSheet(users map[int64]string, loc *time.Location) (*correctionSheet, error) {
	w, err := newSheetWriter(CorrectionsSheet, CorrectionHeaders, correctionHeaderStyle)
	if err != nil {
		return nil, err
	}
	return &correctionSheet{sheetWriter: w, users: users, loc: loc}, nil
}

func (s *correctionSheet) add(c *correction.Correction) error {
	amount, _ := c.FaktSumm.Round(2).Float64()
	return s.append([]interface{}{
		c.ID,
		period.FormatDate(&c.Date),
		c.NszuRecordID,
		c.Doctor,
		c.Status,
		deref(c.Detail),
		amount,
		deref(c.Comment),
		username(s.users, c.CreatedBy),
		period.FormatDateTime(&c.CreatedAt, s.loc),
		username(s.users, c.UpdatedBy),
		period.FormatDateTime(&c.UpdatedAt, s.loc),
	})
}

func (s *correctionSheet) bytes() ([]byte, error) {
	if err := s.styleColumn(7, twoDecimals); err != nil {
		s.f.Close()
		return nil, err
	}
	return s.sheetWriter.bytes()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func username(users map[int64]string, id *int64) string {
	if id == nil {
		return ""
	}
	return users[*id]
}
