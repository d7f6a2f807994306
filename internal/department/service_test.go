package department_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/discharge-registry/internal"
	recordDatamodel "github.com/frahmantamala/discharge-registry/internal/core/datamodel/record"
	"github.com/frahmantamala/discharge-registry/internal/core/events"
	"github.com/frahmantamala/discharge-registry/internal/department"
	departmentPostgres "github.com/frahmantamala/discharge-registry/internal/department/postgres"
	"github.com/frahmantamala/discharge-registry/internal/testutil"
	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

var _ = Describe("Department Service", func() {
	var (
		db        *gorm.DB
		service   *department.Service
		published []*events.ChangeEvent
		ctx       context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		bus := events.NewEventBus(logger.Discard())
		published = nil
		bus.Subscribe("*", func(_ context.Context, e events.Event) error {
			published = append(published, e.(*events.ChangeEvent))
			return nil
		})

		service = department.NewService(departmentPostgres.NewDepartmentRepository(db), bus, logger.Discard())
		ctx = internal.ContextWithUser(context.Background(), &internal.CurrentUser{ID: 1, Username: "admin", Role: "admin"})
	})

	AfterEach(func() {
		Expect(testutil.Close(db)).To(Succeed())
	})

	Describe("Create", func() {
		It("stores the trimmed name and emits an event", func() {
			d, err := service.Create(ctx, department.CreateDepartmentDTO{Name: "  Кардіологія "})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.ID).To(BeNumerically(">", 0))
			Expect(d.Name).To(Equal("Кардіологія"))

			Expect(published).To(HaveLen(1))
			Expect(published[0].EventType()).To(Equal(events.EventTypeDepartmentCreated))
			Expect(*published[0].ActorID).To(Equal(int64(1)))
			Expect(*published[0].TargetID).To(Equal(d.ID))
		})

		It("rejects a blank name", func() {
			_, err := service.Create(ctx, department.CreateDepartmentDTO{Name: "   "})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Fields()).To(Equal([]string{"name"}))
			Expect(published).To(BeEmpty())
		})

		It("rejects a duplicate with a conflict", func() {
			_, err := service.Create(ctx, department.CreateDepartmentDTO{Name: "Хірургія"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, department.CreateDepartmentDTO{Name: "Хірургія"})
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateDepartment))
		})
	})

	Describe("List", func() {
		It("orders by name", func() {
			for _, n := range []string{"Неврологія", "Кардіологія", "Хірургія"} {
				_, err := testutil.CreateDepartment(db, n)
				Expect(err).NotTo(HaveOccurred())
			}
			list, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(3))
			Expect(list[0].Name).To(Equal("Кардіологія"))
			Expect(list[2].Name).To(Equal("Хірургія"))
		})

		It("returns an empty slice for an empty registry", func() {
			list, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).NotTo(BeNil())
			Expect(list).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("refuses while a record references the department and reports the count", func() {
			d, err := testutil.CreateDepartment(db, "Терапія")
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Create(&recordDatamodel.Record{
				DateOfDischarge:     testutil.Date(2026, 1, 9),
				FullName:            "Petrenko Ivan",
				DischargeDepartment: testutil.Str("Терапія"),
				TreatingPhysician:   "Bondar",
				History:             "123/26",
				KDays:               5,
			}).Error).To(Succeed())

			err = service.Delete(ctx, d.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
			Expect(appErr.Code).To(Equal(internal.ErrCodeDepartmentInUse))
			Expect(appErr.Details).To(Equal(department.InUseDetails{Records: 1}))

			exists, err := service.Exists(ctx, "Терапія")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
			Expect(published).To(BeEmpty())
		})

		It("removes an unreferenced department", func() {
			d, err := testutil.CreateDepartment(db, "Педіатрія")
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, d.ID)).To(Succeed())
			exists, _ := service.Exists(ctx, "Педіатрія")
			Expect(exists).To(BeFalse())
			Expect(published).To(HaveLen(1))
			Expect(published[0].EventType()).To(Equal(events.EventTypeDepartmentDeleted))
			Expect(published[0].Details).To(Equal("name=Педіатрія"))
		})

		It("reports a missing department as not found", func() {
			err := service.Delete(ctx, 999)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("Seed", func() {
		It("installs the standard list once", func() {
			added, err := service.Seed(context.Background(), department.StandardDepartments)
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(Equal(17))

			again, err := service.Seed(context.Background(), department.StandardDepartments)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(BeZero())

			all, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(17))
			Expect(published).To(HaveLen(17))
			Expect(published[0].ActorID).To(BeNil())
		})

		It("skips names that are already present", func() {
			_, err := testutil.CreateDepartment(db, "НЕМД")
			Expect(err).NotTo(HaveOccurred())

			added, err := service.Seed(context.Background(), []string{"НЕМД", "Урологічне"})
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(Equal(1))
		})
	})
})
