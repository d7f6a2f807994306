// Package query holds the dialect-aware predicate and ordering helpers shared by
// the record and correction listings.
package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ColumnKind int

const (
	KindScalar ColumnKind = iota
	KindText
)

// SortSpec is the allow-list of sortable columns for one listing.
type SortSpec struct {
	Columns map[string]ColumnKind
	Default string
}

type Sort struct {
	Column string
	Desc   bool
	kind   ColumnKind
}

// ParseSort resolves user input against the allow-list. Unknown columns fall
// back to the default; anything other than "asc" sorts descending.
func (s SortSpec) ParseSort(by, order string) Sort {
	by = strings.TrimSpace(by)
	kind, ok := s.Columns[by]
	if !ok {
		by = s.Default
		kind = s.Columns[by]
	}
	return Sort{
		Column: by,
		Desc:   !strings.EqualFold(strings.TrimSpace(order), "asc"),
		kind:   kind,
	}
}

func (s Sort) Direction() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

// Apply orders by the column, folding text columns, with a stable tiebreak on
// created_at and id.
func (s Sort) Apply(db *gorm.DB) *gorm.DB {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	col := s.Column
	if s.kind == KindText {
		col = fmt.Sprintf("lower(%s)", s.Column)
	}
	db = db.Order(fmt.Sprintf("%s %s", col, dir))
	if s.Column != "created_at" {
		db = db.Order("created_at DESC")
	}
	if s.Column != "id" {
		db = db.Order("id DESC")
	}
	return db
}

// Truthy reads the checkbox-style flags used by the dashboard.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// Contains adds a case-sensitive substring predicate.
func Contains(db *gorm.DB, column, needle string) *gorm.DB {
	if IsPostgres(db) {
		return db.Where(fmt.Sprintf("strpos(%s, ?) > 0", column), needle)
	}
	return db.Where(fmt.Sprintf("instr(%s, ?) > 0", column), needle)
}

// ContainsFold adds a case-insensitive substring predicate.
func ContainsFold(db *gorm.DB, column, needle string) *gorm.DB {
	if IsPostgres(db) {
		return db.Where(fmt.Sprintf("%s ILIKE ? ESCAPE '\\'", column), "%"+EscapeLike(needle)+"%")
	}
	return db.Where(fmt.Sprintf("instr(lower(%s), lower(?)) > 0", column), needle)
}

func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
