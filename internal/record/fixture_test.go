package record_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	"github.com/frahmantamala/discharge-registry/internal/audit"
	auditPostgres "github.com/frahmantamala/discharge-registry/internal/audit/postgres"
	"github.com/frahmantamala/discharge-registry/internal/auth"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/department"
	departmentPostgres "github.com/frahmantamala/discharge-registry/internal/department/postgres"
	"github.com/frahmantamala/discharge-registry/internal/dropdown"
	dropdownPostgres "github.com/frahmantamala/discharge-registry/internal/dropdown/postgres"
	"github.com/frahmantamala/discharge-registry/internal/record"
	recordPostgres "github.com/frahmantamala/discharge-registry/internal/record/postgres"
	"github.com/frahmantamala/discharge-registry/internal/testutil"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

type fixture struct {
	db       *gorm.DB
	service  *record.Service
	cache    *dropdown.Cache
	operator *internal.CurrentUser
	other    *internal.CurrentUser
	editor   *internal.CurrentUser
	admin    *internal.CurrentUser
	viewer   *internal.CurrentUser
}

func newFixture() *fixture {
	db, err := testutil.NewSQLiteDB()
	Expect(err).NotTo(HaveOccurred())

	f := &fixture{db: db}
	mk := func(name string, role auth.Role) *internal.CurrentUser {
		u, err := testutil.CreateUser(db, name, "secret1", role)
		Expect(err).NotTo(HaveOccurred())
		return &internal.CurrentUser{ID: u.ID, Username: u.Username, Role: u.Role}
	}
	f.operator = mk("operator1", auth.RoleOperator)
	f.other = mk("operator2", auth.RoleOperator)
	f.editor = mk("editor", auth.RoleEditor)
	f.admin = mk("admin", auth.RoleAdmin)
	f.viewer = mk("viewer", auth.RoleViewer)

	for _, name := range []string{"Кардіологія", "Хірургія"} {
		_, err := testutil.CreateDepartment(db, name)
		Expect(err).NotTo(HaveOccurred())
	}

	bus := events.NewEventBus(logger.Discard())
	audit.NewRecorder(auditPostgres.NewAuditRepository(db), logger.Discard()).Subscribe(bus)
	f.cache = dropdown.New(dropdown.NewMemoryStore(), dropdownPostgres.NewLoader(db), 15*time.Minute, logger.Discard())
	f.cache.Subscribe(bus)

	departments := department.NewService(departmentPostgres.NewDepartmentRepository(db), bus, logger.Discard())
	f.service = record.NewService(recordPostgres.NewRecordRepository(db), departments, f.cache, bus, logger.Discard())
	return f
}

func (f *fixture) close() {
	Expect(testutil.Close(f.db)).To(Succeed())
}

func as(u *internal.CurrentUser) context.Context {
	return internal.ContextWithUser(context.Background(), u)
}

func validCreate(date, name, physician string) record.CreateRecordDTO {
	return record.CreateRecordDTO{
		DateOfDischarge:     date,
		FullName:            name,
		DischargeDepartment: "Кардіологія",
		TreatingPhysician:   physician,
		History:             "1234/26",
		KDays:               json.RawMessage(`5`),
	}
}

func (f *fixture) mustCreate(u *internal.CurrentUser, dto record.CreateRecordDTO) *record.Record {
	rec, err := f.service.Create(as(u), dto)
	Expect(err).NotTo(HaveOccurred())
	return rec
}

func (f *fixture) mustUpdate(id int64, dto record.UpdateRecordDTO) *record.Record {
	rec, err := f.service.Update(as(f.editor), id, dto)
	Expect(err).NotTo(HaveOccurred())
	return rec
}

func updateFrom(r *record.Record, status, death string) record.UpdateRecordDTO {
	dept := ""
	if r.DischargeDepartment != nil {
		dept = *r.DischargeDepartment
	}
	return record.UpdateRecordDTO{
		DateOfDischarge:     r.DateOfDischarge.Format("2006-01-02"),
		FullName:            r.FullName,
		DischargeDepartment: dept,
		TreatingPhysician:   r.TreatingPhysician,
		History:             r.History,
		KDays:               json.RawMessage(`5`),
		DischargeStatus:     status,
		DateOfDeath:         death,
	}
}

func validationCodes(err error) map[string]string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue(), "expected validation details")
	out := make(map[string]string)
	for _, e := range details.Errors {
		out[e.Field] = e.Code
	}
	return out
}
