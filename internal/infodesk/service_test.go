package infodesk_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database/sqlitetest"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	"github.com/frahmantamala/attendance-management/internal/core/events"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/infodesk"
	"github.com/frahmantamala/attendance-management/internal/infodesk/postgres"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var _ = Describe("InfoDesk Service", func() {
	var (
		db        *gorm.DB
		ctx       context.Context
		service   *infodesk.Service
		publisher *capturePublisher
		admin     = &coreuser.Actor{ID: 1, Username: "admin", Role: coreuser.RoleAdmin}
		employee  = &coreuser.Actor{ID: 2, Username: "worker", Role: coreuser.RoleEmployee}
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		boss := int64(1)
		Expect(db.Create(&userDatamodel.User{ID: 1, Username: "admin", PasswordHash: "x", Role: "ADMIN", IsActive: true}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: 2, Username: "worker", PasswordHash: "x", Role: "MANAGER", ReportingID: &boss, IsActive: true}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: 3, Username: "gone", PasswordHash: "x", Role: "MANAGER", ReportingID: &boss, IsActive: false}).Error).To(Succeed())

		publisher = &capturePublisher{}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = infodesk.NewService(postgres.NewInfoDeskRepository(db), publisher, slogger)
	})

	AfterEach(func() {
		Expect(sqlitetest.Close(db)).To(Succeed())
	})

	Describe("Feedback", func() {
		It("stores the author's username and lists newest first", func() {
			first, err := service.SubmitFeedback(ctx, 2, infodesk.SubmitFeedbackDTO{Feedback: "  more coffee  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Username).To(Equal("worker"))
			Expect(first.Feedback).To(Equal("more coffee"))

			_, err = service.SubmitFeedback(ctx, 1, infodesk.SubmitFeedbackDTO{Feedback: "quieter office"})
			Expect(err).NotTo(HaveOccurred())

			items, err := service.ListFeedback(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].Feedback).To(Equal("quieter office"))
		})

		It("is listed only for admins", func() {
			_, err := service.ListFeedback(ctx, employee)
			Expect(err).To(MatchError(internal.ErrAdminOnly))
		})

		DescribeTable("rejects bad text",
			func(text string) {
				_, err := service.SubmitFeedback(ctx, 2, infodesk.SubmitFeedbackDTO{Feedback: text})
				Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
			},
			Entry("empty", ""),
			Entry("whitespace", "   "),
			Entry("too long", strings.Repeat("x", 2001)),
		)

		It("rejects an inactive author", func() {
			_, err := service.SubmitFeedback(ctx, 3, infodesk.SubmitFeedbackDTO{Feedback: "hello"})
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("Info requests", func() {
		var open *infodesk.InfoRequest

		BeforeEach(func() {
			var err error
			open, err = service.SubmitInfoRequest(ctx, 2, infodesk.SubmitInfoRequestDTO{
				RequestType:        "Salary Slip",
				RequestDescription: "March please",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(open.Status).To(Equal(infodesk.InfoStatusOpen))
		})

		It("resolves an open request once", func() {
			resolved, err := service.Resolve(ctx, admin, open.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.Status).To(Equal(infodesk.InfoStatusResolved))
			Expect(*resolved.ResolvedBy).To(Equal(int64(1)))
			Expect(resolved.ResolvedAt).NotTo(BeNil())

			_, err = service.Resolve(ctx, admin, open.ID)
			Expect(err).To(MatchError(internal.ErrInfoRequestResolved))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeInfoRequestResolved))
		})

		It("only lets admins resolve", func() {
			_, err := service.Resolve(ctx, employee, open.ID)
			Expect(err).To(MatchError(internal.ErrAdminOnly))
		})

		It("reports an unknown id", func() {
			_, err := service.Resolve(ctx, admin, 999)
			Expect(err).To(MatchError(internal.ErrInfoRequestNotFound))
		})

		It("filters by status", func() {
			second, err := service.SubmitInfoRequest(ctx, 1, infodesk.SubmitInfoRequestDTO{RequestType: "Tax Form", RequestDescription: "2023"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Resolve(ctx, admin, open.ID)
			Expect(err).NotTo(HaveOccurred())

			all, err := service.ListInfoRequests(ctx, admin, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			pending, err := service.ListInfoRequests(ctx, admin, "OPEN")
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].ID).To(Equal(second.ID))

			_, err = service.ListInfoRequests(ctx, admin, "CLOSED")
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("requires a type and a description", func() {
			_, err := service.SubmitInfoRequest(ctx, 2, infodesk.SubmitInfoRequestDTO{RequestType: "Salary Slip"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})
})
