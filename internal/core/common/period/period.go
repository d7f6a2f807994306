// Package period resolves month scopes and parses the date formats accepted
// by the API. All dates are normalized to midnight UTC.
package period

import (
	"fmt"
	"strings"
	"time"
)

const (
	MonthLayout    = "2006-01"
	ISODateLayout  = "2006-01-02"
	DateLayout     = "02.01.2006"
	DateTimeLayout = "02.01.2006 15:04"
	FileDateLayout = "02-01-2006"
)

type Month struct {
	Year  int
	Month time.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Bounds returns the first day of the month and the first day of the next
// month. The range is half-open.
func (m Month) Bounds() (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// LastDay is the final calendar day of the month.
func (m Month) LastDay() time.Time {
	_, end := m.Bounds()
	return end.AddDate(0, 0, -1)
}

func (m Month) Contains(t time.Time) bool {
	start, end := m.Bounds()
	d := Normalize(t)
	return !d.Before(start) && d.Before(end)
}

func CurrentMonth(now time.Time, loc *time.Location) Month {
	if loc != nil {
		now = now.In(loc)
	}
	return Month{Year: now.Year(), Month: now.Month()}
}

// ParseMonth accepts YYYY-MM.
func ParseMonth(s string) (Month, bool) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, false
	}
	if t.Year() < 1900 || t.Year() > 2999 {
		return Month{}, false
	}
	return Month{Year: t.Year(), Month: t.Month()}, true
}

// ResolveMonth returns the requested month, or the current month when the
// value is empty or invalid.
func ResolveMonth(raw string, now time.Time, loc *time.Location) Month {
	if m, ok := ParseMonth(raw); ok {
		return m
	}
	return CurrentMonth(now, loc)
}

// ParseDate accepts dd.mm.yyyy and yyyy-mm-dd.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, ISODateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected dd.mm.yyyy or yyyy-mm-dd", s)
}

// ParseOptionalDate returns nil for an empty input.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatISO(t time.Time) string {
	return t.Format(ISODateLayout)
}

func FormatISOPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatISO(*t)
	return &s
}

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func FormatDateTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc != nil {
		return t.In(loc).Format(DateTimeLayout)
	}
	return t.Format(DateTimeLayout)
}
