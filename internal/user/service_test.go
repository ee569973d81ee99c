package user_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	"github.com/frahmantamala/attendance-management/internal/core/database/sqlitetest"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/attendance-management/internal/ledger/postgres"
	"github.com/frahmantamala/attendance-management/internal/orgchart"
	orgchartPostgres "github.com/frahmantamala/attendance-management/internal/orgchart/postgres"
	"github.com/frahmantamala/attendance-management/internal/user"
	userPostgres "github.com/frahmantamala/attendance-management/internal/user/postgres"
)

type pendingStub map[int64]int64

func (p pendingStub) PendingCount(_ context.Context, userID int64) (int64, error) {
	return p[userID], nil
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

var _ = Describe("User Service", func() {
	var (
		db      *gorm.DB
		ctx     context.Context
		service *user.Service
		pending pendingStub
		root    *coreuser.Actor
	)

	create := func(actor *coreuser.Actor, dto user.CreateUserDTO) *user.User {
		u, err := service.Create(ctx, actor, dto)
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ledgerSvc := ledger.NewService(ledgerPostgres.NewLedgerRepository(db), nil, slogger)
		hierarchy := orgchart.NewHierarchy(orgchartPostgres.NewDirectoryRepository(db), slogger)
		pending = pendingStub{}

		service = user.NewService(
			userPostgres.NewUserRepository(db),
			database.NewTransactor(db),
			ledgerSvc,
			hierarchy,
			pending,
			bcrypt.MinCost,
			slogger,
		)

		bootstrap := &coreuser.Actor{ID: 0, Role: coreuser.RoleAdmin}
		admin := create(bootstrap, user.CreateUserDTO{Username: "root", Password: "password1", Role: "ADMIN"})
		root = admin.Actor()
	})

	AfterEach(func() {
		Expect(sqlitetest.Close(db)).To(Succeed())
	})

	Describe("Create", func() {
		It("defaults the supervisor to the creator and seeds balances", func() {
			mgr := create(root, user.CreateUserDTO{Username: "mgr", Password: "password1", Role: "MANAGER"})
			Expect(*mgr.ReportingID).To(Equal(root.ID))
			Expect(mgr.IsActive).To(BeTrue())
			Expect(mgr.Balances).To(Equal(ledger.Balances{
				ledger.CategorySick: 7, ledger.CategoryCasual: 7, ledger.CategoryEarned: 15,
			}))

			emp := create(mgr.Actor(), user.CreateUserDTO{
				Username: "emp",
				Password: "password1",
				Role:     "EMPLOYEE",
				Balances: &user.BalancesDTO{Casual: intPtr(2)},
				ProfileDTO: user.ProfileDTO{
					Department:  strPtr("HR"),
					JoiningDate: strPtr("2023-05-01"),
				},
			})
			Expect(*emp.ReportingID).To(Equal(mgr.ID))
			Expect(emp.Balances[ledger.CategoryCasual]).To(Equal(2))
			Expect(*emp.Department).To(Equal("HR"))
			Expect(emp.JoiningDate.String()).To(Equal("2023-05-01"))
			Expect(emp.PasswordHash).NotTo(Equal("password1"))
		})

		It("rejects a duplicate username", func() {
			_, err := service.Create(ctx, root, user.CreateUserDTO{Username: "root", Password: "password1", Role: "MANAGER"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("rejects an employee reporting to an admin", func() {
			_, err := service.Create(ctx, root, user.CreateUserDTO{Username: "emp", Password: "password1", Role: "EMPLOYEE"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("forbids a manager from creating anything but its own employees", func() {
			mgr := create(root, user.CreateUserDTO{Username: "mgr", Password: "password1", Role: "MANAGER"})

			_, err := service.Create(ctx, mgr.Actor(), user.CreateUserDTO{Username: "mgr2", Password: "password1", Role: "MANAGER"})
			Expect(err).To(MatchError(internal.ErrUserNotManageable))

			other := create(root, user.CreateUserDTO{Username: "other", Password: "password1", Role: "MANAGER"})
			_, err = service.Create(ctx, mgr.Actor(), user.CreateUserDTO{
				Username: "emp", Password: "password1", Role: "EMPLOYEE", ReportingID: &other.ID,
			})
			Expect(err).To(MatchError(internal.ErrUserNotManageable))
		})

		DescribeTable("payload validation",
			func(dto user.CreateUserDTO) {
				_, err := service.Create(ctx, root, dto)
				Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue(), "got %v", err)
			},
			Entry("missing password", user.CreateUserDTO{Username: "x-user", Role: "MANAGER"}),
			Entry("unknown role", user.CreateUserDTO{Username: "x-user", Password: "password1", Role: "OWNER"}),
			Entry("unknown department", user.CreateUserDTO{Username: "x-user", Password: "password1", Role: "MANAGER", ProfileDTO: user.ProfileDTO{Department: strPtr("LEGAL")}}),
			Entry("negative balance", user.CreateUserDTO{Username: "x-user", Password: "password1", Role: "MANAGER", Balances: &user.BalancesDTO{Sick: intPtr(-1)}}),
		)
	})

	Describe("Update", func() {
		var mgr, emp *user.User

		BeforeEach(func() {
			mgr = create(root, user.CreateUserDTO{Username: "mgr", Password: "password1", Role: "MANAGER"})
			emp = create(mgr.Actor(), user.CreateUserDTO{Username: "emp", Password: "password1", Role: "EMPLOYEE", ProfileDTO: user.ProfileDTO{Age: intPtr(30)}})
		})

		It("changes only the fields present", func() {
			updated, err := service.Update(ctx, mgr.Actor(), emp.ID, user.UpdateUserDTO{
				ProfileDTO: user.ProfileDTO{MobileNumber: strPtr("0812345678")},
				Balances:   &user.BalancesDTO{Earned: intPtr(20)},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.MobileNumber).To(Equal("0812345678"))
			Expect(*updated.Age).To(Equal(30))
			Expect(updated.Username).To(Equal("emp"))
			Expect(updated.Balances[ledger.CategoryEarned]).To(Equal(20))
			Expect(updated.Balances[ledger.CategorySick]).To(Equal(7))
		})

		It("rejects a username owned by someone else", func() {
			_, err := service.Update(ctx, root, emp.ID, user.UpdateUserDTO{Username: strPtr("mgr")})
			Expect(err).To(MatchError(internal.ErrUsernameTaken))
		})

		It("forbids a manager from editing another team", func() {
			other := create(root, user.CreateUserDTO{Username: "other", Password: "password1", Role: "MANAGER"})
			_, err := service.Update(ctx, other.Actor(), emp.ID, user.UpdateUserDTO{ProfileDTO: user.ProfileDTO{Age: intPtr(31)}})
			Expect(err).To(MatchError(internal.ErrUserNotManageable))
		})

		It("moves an employee between managers", func() {
			other := create(root, user.CreateUserDTO{Username: "other", Password: "password1", Role: "MANAGER"})
			updated, err := service.Update(ctx, root, emp.ID, user.UpdateUserDTO{ReportingID: &other.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.ReportingID).To(Equal(other.ID))
		})

		It("rejects a re-parent that would form a cycle", func() {
			second := create(root, user.CreateUserDTO{Username: "second-admin", Password: "password1", Role: "ADMIN", ReportingID: int64Ptr(root.ID)})

			_, err := service.Update(ctx, second.Actor(), root.ID, user.UpdateUserDTO{ReportingID: &second.ID})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("refuses to demote a manager that still has reports", func() {
			_, err := service.Update(ctx, root, mgr.ID, user.UpdateUserDTO{Role: strPtr("EMPLOYEE"), ReportingID: int64Ptr(mgr.ID)})
			Expect(internal.IsErrorType(err, internal.ErrorTypeForbidden)).To(BeTrue())
		})

		It("refuses to deactivate a manager that still has reports", func() {
			_, err := service.Update(ctx, root, mgr.ID, user.UpdateUserDTO{IsActive: boolPtr(false)})
			Expect(err).To(MatchError(internal.ErrUserHasReports))
		})

		It("refuses to deactivate an employee with pending requests", func() {
			pending[emp.ID] = 2
			_, err := service.Update(ctx, mgr.Actor(), emp.ID, user.UpdateUserDTO{IsActive: boolPtr(false)})
			Expect(err).To(MatchError(internal.ErrUserHasPending))

			reloaded, err := service.GetByID(ctx, emp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.IsActive).To(BeTrue())
		})

		It("deactivates an employee once nothing is pending", func() {
			updated, err := service.Update(ctx, mgr.Actor(), emp.ID, user.UpdateUserDTO{IsActive: boolPtr(false)})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive).To(BeFalse())
		})

		It("lets a user update its own profile", func() {
			updated, err := service.UpdateSelf(ctx, emp.Actor(), user.UpdateProfileDTO{
				ProfileDTO: user.ProfileDTO{EmploymentType: strPtr("CONTRACT")},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.EmploymentType).To(Equal("CONTRACT"))
		})
	})

	Describe("Delete", func() {
		var mgr, emp *user.User

		BeforeEach(func() {
			mgr = create(root, user.CreateUserDTO{Username: "mgr", Password: "password1", Role: "MANAGER"})
			emp = create(mgr.Actor(), user.CreateUserDTO{Username: "emp", Password: "password1", Role: "EMPLOYEE"})
		})

		It("is forbidden while the user has subordinates", func() {
			err := service.Delete(ctx, root, mgr.ID)
			Expect(err).To(MatchError(internal.ErrUserHasReports))
		})

		It("is forbidden while the user has pending requests", func() {
			pending[emp.ID] = 1
			err := service.Delete(ctx, mgr.Actor(), emp.ID)
			Expect(err).To(MatchError(internal.ErrUserHasPending))
		})

		It("retires the user and drops its balances", func() {
			Expect(service.Delete(ctx, mgr.Actor(), emp.ID)).To(Succeed())

			_, err := service.GetByID(ctx, emp.ID)
			Expect(err).To(MatchError(internal.ErrUserNotFound))

			Expect(service.Delete(ctx, root, mgr.ID)).To(Succeed())
		})

		It("keeps a deleted user's username reserved", func() {
			Expect(service.Delete(ctx, mgr.Actor(), emp.ID)).To(Succeed())

			_, err := service.Create(ctx, mgr.Actor(), user.CreateUserDTO{Username: "emp", Password: "password1", Role: "EMPLOYEE"})
			Expect(err).To(MatchError(internal.ErrUsernameTaken))
		})

		It("refuses self-deletion", func() {
			err := service.Delete(ctx, root, root.ID)
			Expect(internal.IsErrorType(err, internal.ErrorTypeForbidden)).To(BeTrue())
		})

		It("forbids employees", func() {
			err := service.Delete(ctx, emp.Actor(), mgr.ID)
			Expect(err).To(MatchError(internal.ErrUserNotManageable))
		})
	})

	Describe("List", func() {
		var mgr *user.User

		BeforeEach(func() {
			mgr = create(root, user.CreateUserDTO{Username: "mgr", Password: "password1", Role: "MANAGER"})
			other := create(root, user.CreateUserDTO{Username: "other", Password: "password1", Role: "MANAGER"})
			create(mgr.Actor(), user.CreateUserDTO{Username: "emp-a", Password: "password1", Role: "EMPLOYEE"})
			create(other.Actor(), user.CreateUserDTO{Username: "emp-b", Password: "password1", Role: "EMPLOYEE"})
		})

		It("filters by role for an admin", func() {
			users, err := service.List(ctx, root, user.ListUsersQuery{Role: "MANAGER"})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})

		It("scopes a manager to its reports", func() {
			users, err := service.List(ctx, root, user.ListUsersQuery{Role: "EMPLOYEE"})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))

			scoped, err := service.List(ctx, mgr.Actor(), user.ListUsersQuery{})
			Expect(err).NotTo(HaveOccurred())
			Expect(scoped).To(HaveLen(1))
			Expect(scoped[0].Username).To(Equal("emp-a"))
		})

		It("forbids employees", func() {
			emps, err := service.List(ctx, mgr.Actor(), user.ListUsersQuery{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.List(ctx, emps[0].Actor(), user.ListUsersQuery{})
			Expect(err).To(MatchError(internal.ErrUserNotManageable))
		})

		It("rejects an unknown role filter", func() {
			_, err := service.List(ctx, root, user.ListUsersQuery{Role: "GUEST"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})
})
