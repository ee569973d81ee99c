package request_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	"github.com/frahmantamala/attendance-management/internal/core/events"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	"github.com/frahmantamala/attendance-management/internal/request"
)

var _ = Describe("Request Service", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	AfterEach(func() {
		f.close()
	})

	approve := func(comment string) request.DecideRequestDTO {
		return request.DecideRequestDTO{Decision: string(request.StatusApproved), Comment: strPtr(comment)}
	}
	reject := func(comment string) request.DecideRequestDTO {
		return request.DecideRequestDTO{Decision: string(request.StatusRejected), Comment: strPtr(comment)}
	}

	Describe("Submit", func() {
		It("creates a pending leave and approval debits the day count", func() {
			req, err := f.service.Submit(ctx, employeeID, leave("CASUAL", "2024-01-10", "2024-01-12"))
			Expect(err).NotTo(HaveOccurred())
			Expect(req.ID).To(BeNumerically(">", 0))
			Expect(req.Status).To(Equal(request.StatusPending))
			Expect(req.DayCount()).To(Equal(3))
			Expect(*req.ReportingID).To(Equal(managerID))

			decided, err := f.service.Decide(ctx, manager, req.ID, approve("enjoy"))
			Expect(err).NotTo(HaveOccurred())
			Expect(decided.Status).To(Equal(request.StatusApproved))
			Expect(*decided.DecidedBy).To(Equal(managerID))
			Expect(decided.DecidedAt).NotTo(BeNil())
			Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(4))
		})

		It("rejects a range that shares a day with a pending request", func() {
			_, err := f.service.Submit(ctx, employeeID, leave("CASUAL", "2024-01-10", "2024-01-12"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, employeeID, leave("SICK", "2024-01-11", "2024-01-13"))
			Expect(internal.IsErrorType(err, internal.ErrorTypeConflict)).To(BeTrue())
			Expect(err).To(MatchError(internal.ErrRequestOverlap))
		})

		It("treats a shared boundary date as an overlap", func() {
			_, err := f.service.Submit(ctx, employeeID, attendance("2024-03-01", "2024-03-05"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, employeeID, attendance("2024-03-05", "2024-03-06"))
			Expect(err).To(MatchError(internal.ErrRequestOverlap))

			_, err = f.service.Submit(ctx, employeeID, attendance("2024-02-20", "2024-03-01"))
			Expect(err).To(MatchError(internal.ErrRequestOverlap))
		})

		It("allows adjacent ranges", func() {
			_, err := f.service.Submit(ctx, employeeID, attendance("2024-03-01", "2024-03-05"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, employeeID, attendance("2024-03-06", "2024-03-06"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("frees the range once a request is rejected", func() {
			req, err := f.service.Submit(ctx, employeeID, attendance("2024-04-01", "2024-04-02"))
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Decide(ctx, manager, req.ID, reject("no"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, employeeID, attendance("2024-04-01", "2024-04-02"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not compare ranges across users", func() {
			_, err := f.service.Submit(ctx, employeeID, attendance("2024-05-01", "2024-05-03"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, colleagueID, attendance("2024-05-01", "2024-05-03"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets only one of two concurrent overlapping submissions through", func() {
			var (
				wg   sync.WaitGroup
				errs = make([]error, 2)
			)
			for i, dto := range []request.SubmitRequestDTO{
				leave("CASUAL", "2024-06-10", "2024-06-12"),
				attendance("2024-06-12", "2024-06-14"),
			} {
				wg.Add(1)
				go func(i int, dto request.SubmitRequestDTO) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = f.service.Submit(ctx, employeeID, dto)
				}(i, dto)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(err).To(MatchError(internal.ErrRequestOverlap))
			}
			Expect(succeeded).To(Equal(1))

			own, err := f.service.ListOwn(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))
		})

		DescribeTable("validation failures",
			func(dto request.SubmitRequestDTO) {
				_, err := f.service.Submit(ctx, employeeID, dto)
				Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue(), "got %v", err)
			},
			Entry("start after end", attendance("2024-01-12", "2024-01-10")),
			Entry("malformed date", attendance("2024/01/10", "2024-01-10")),
			Entry("leave without category", request.SubmitRequestDTO{Type: "LEAVE", StartDate: "2024-01-10", EndDate: "2024-01-10"}),
			Entry("attendance with category", request.SubmitRequestDTO{Type: "ATTENDANCE", LeaveCategory: strPtr("SICK"), StartDate: "2024-01-10", EndDate: "2024-01-10"}),
			Entry("unknown category", leave("SABBATICAL", "2024-01-10", "2024-01-10")),
			Entry("unknown type", request.SubmitRequestDTO{Type: "OVERTIME", StartDate: "2024-01-10", EndDate: "2024-01-10"}),
		)

		It("fails for an unknown owner", func() {
			_, err := f.service.Submit(ctx, 999, attendance("2024-01-10", "2024-01-10"))
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})

		It("fails for an inactive owner", func() {
			Expect(f.db.Model(&userDatamodel.User{}).Where("id = ?", colleagueID).Update("is_active", false).Error).To(Succeed())

			_, err := f.service.Submit(ctx, colleagueID, attendance("2024-01-10", "2024-01-10"))
			Expect(internal.IsErrorType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})

		It("invalidates the owner's cached list and publishes", func() {
			_, err := f.service.ListOwn(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Submit(ctx, employeeID, attendance("2024-01-10", "2024-01-10"))
			Expect(err).NotTo(HaveOccurred())

			Expect(f.cache.invalidated).To(ContainElement(employeeID))
			Expect(f.publisher.Types()).To(Equal([]string{events.EventTypeRequestSubmitted}))

			own, err := f.service.ListOwn(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))
		})
	})

	Describe("Precheck", func() {
		BeforeEach(func() {
			_, err := f.service.Submit(ctx, employeeID, leave("CASUAL", "2024-01-10", "2024-01-12"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("agrees with the authoritative check", func() {
			conflict, err := f.service.Precheck(ctx, employeeID, request.PrecheckQuery{StartDate: "2024-01-12", EndDate: "2024-01-14"})
			Expect(err).NotTo(HaveOccurred())
			Expect(conflict).To(BeTrue())

			conflict, err = f.service.Precheck(ctx, employeeID, request.PrecheckQuery{StartDate: "2024-01-13", EndDate: "2024-01-14"})
			Expect(err).NotTo(HaveOccurred())
			Expect(conflict).To(BeFalse())
		})

		It("validates the range", func() {
			_, err := f.service.Precheck(ctx, employeeID, request.PrecheckQuery{StartDate: "2024-01-14", EndDate: "2024-01-13"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("Decide", func() {
		var pending *request.Request

		BeforeEach(func() {
			var err error
			pending, err = f.service.Submit(ctx, employeeID, leave("CASUAL", "2024-01-10", "2024-01-12"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("forbids a manager who does not supervise the owner", func() {
			_, err := f.service.Decide(ctx, otherMgr, pending.ID, approve(""))
			Expect(internal.IsErrorType(err, internal.ErrorTypeForbidden)).To(BeTrue())

			reloaded, err := f.service.Get(ctx, employee, pending.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(request.StatusPending))
		})

		It("forbids employees", func() {
			_, err := f.service.Decide(ctx, employee, pending.ID, approve(""))
			Expect(err).To(MatchError(internal.ErrDecisionNotAllowed))
		})

		It("forbids deciding one's own request", func() {
			own, err := f.service.Submit(ctx, adminID, attendance("2024-03-01", "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Decide(ctx, admin, own.ID, approve(""))
			Expect(err).To(MatchError(internal.ErrDecisionNotAllowed))
		})

		It("lets an admin decide", func() {
			decided, err := f.service.Decide(ctx, admin, pending.ID, reject("no"))
			Expect(err).NotTo(HaveOccurred())
			Expect(decided.Status).To(Equal(request.StatusRejected))
		})

		It("stores the rejection comment verbatim and leaves balances alone", func() {
			decided, err := f.service.Decide(ctx, manager, pending.ID, reject("insufficient staffing"))
			Expect(err).NotTo(HaveOccurred())
			Expect(decided.Status).To(Equal(request.StatusRejected))
			Expect(*decided.ManagerComment).To(Equal("insufficient staffing"))
			Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(7))
		})

		It("refuses approval on insufficient balance and keeps the request pending", func() {
			Expect(f.ledger.SetBalance(ctx, employeeID, ledger.CategoryCasual, 2)).To(Succeed())

			_, err := f.service.Decide(ctx, manager, pending.ID, approve(""))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInsufficientBalance)).To(BeTrue())

			reloaded, err := f.service.Get(ctx, manager, pending.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Status).To(Equal(request.StatusPending))
			Expect(reloaded.DecidedBy).To(BeNil())
			Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(2))
		})

		It("returns an invalid state error on a second decision", func() {
			_, err := f.service.Decide(ctx, manager, pending.ID, approve(""))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Decide(ctx, manager, pending.ID, reject(""))
			Expect(internal.IsErrorType(err, internal.ErrorTypeInvalidState)).To(BeTrue())
			Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(4))
		})

		It("reports a missing request", func() {
			_, err := f.service.Decide(ctx, manager, 12345, approve(""))
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})

		It("rejects an unknown decision value", func() {
			_, err := f.service.Decide(ctx, manager, pending.ID, request.DecideRequestDTO{Decision: "MAYBE"})
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("never touches the ledger for attendance or LWP", func() {
			att, err := f.service.Submit(ctx, employeeID, attendance("2024-02-01", "2024-02-03"))
			Expect(err).NotTo(HaveOccurred())
			lwp, err := f.service.Submit(ctx, employeeID, leave("LWP", "2024-02-10", "2024-02-20"))
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Decide(ctx, manager, att.ID, approve(""))
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Decide(ctx, manager, lwp.ID, approve(""))
			Expect(err).NotTo(HaveOccurred())

			Expect(f.balance(employeeID, ledger.CategorySick)).To(Equal(7))
			Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(7))
			Expect(f.balance(employeeID, ledger.CategoryEarned)).To(Equal(15))
		})

		It("lets exactly one of two concurrent decisions win", func() {
			var (
				wg   sync.WaitGroup
				errs = make([]error, 2)
			)
			for i, dto := range []request.DecideRequestDTO{approve(""), reject("")} {
				wg.Add(1)
				go func(i int, dto request.DecideRequestDTO) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = f.service.Decide(ctx, manager, pending.ID, dto)
				}(i, dto)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(err).To(MatchError(internal.ErrRequestNotPending))
			}
			Expect(succeeded).To(Equal(1))

			reloaded, err := f.service.Get(ctx, manager, pending.ID)
			Expect(err).NotTo(HaveOccurred())
			if reloaded.Status == request.StatusApproved {
				Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(4))
			} else {
				Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(7))
			}
		})

		It("keeps both debits when two requests in one category are approved concurrently", func() {
			second, err := f.service.Submit(ctx, employeeID, leave("CASUAL", "2024-02-01", "2024-02-02"))
			Expect(err).NotTo(HaveOccurred())

			var (
				wg   sync.WaitGroup
				errs = make([]error, 2)
			)
			for i, id := range []int64{pending.ID, second.ID} {
				wg.Add(1)
				go func(i int, id int64) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = f.service.Decide(ctx, manager, id, approve(""))
				}(i, id)
			}
			wg.Wait()

			Expect(errs[0]).NotTo(HaveOccurred())
			Expect(errs[1]).NotTo(HaveOccurred())
			Expect(f.balance(employeeID, ledger.CategoryCasual)).To(Equal(7 - 3 - 2))
		})

		It("publishes the decision with the debited days", func() {
			_, err := f.service.Decide(ctx, manager, pending.ID, approve(""))
			Expect(err).NotTo(HaveOccurred())

			last := f.publisher.events[len(f.publisher.events)-1]
			decided, ok := last.(*events.RequestDecidedEvent)
			Expect(ok).To(BeTrue())
			Expect(decided.DaysDebited).To(Equal(3))
			Expect(decided.Status).To(Equal("APPROVED"))
		})
	})

	Describe("scoped listing", func() {
		BeforeEach(func() {
			for _, id := range []int64{employeeID, colleagueID, outsiderID, managerID} {
				_, err := f.service.Submit(ctx, id, attendance("2024-06-01", "2024-06-01"))
				Expect(err).NotTo(HaveOccurred())
			}
		})

		owners := func(reqs []*request.Request) []int64 {
			out := make([]int64, len(reqs))
			for i, r := range reqs {
				out[i] = r.UserID
			}
			return out
		}

		It("shows an employee only its own requests", func() {
			reqs, err := f.service.ListVisible(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(owners(reqs)).To(ConsistOf(employeeID))
		})

		It("shows a manager its direct reports' pending requests", func() {
			reqs, err := f.service.ListPendingForActor(ctx, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(owners(reqs)).To(ConsistOf(employeeID, colleagueID))
		})

		It("shows an admin managers' requests but not employees'", func() {
			reqs, err := f.service.ListPendingForActor(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(owners(reqs)).To(ConsistOf(managerID))
		})

		It("drops decided requests from the pending list", func() {
			reqs, err := f.service.ListPendingForActor(ctx, manager)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Decide(ctx, manager, reqs[0].ID, approve(""))
			Expect(err).NotTo(HaveOccurred())

			reqs, err = f.service.ListPendingForActor(ctx, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(reqs).To(HaveLen(1))

			visible, err := f.service.ListVisible(ctx, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(visible).To(HaveLen(2))
		})

		It("lists own requests most recent first", func() {
			_, err := f.service.Submit(ctx, employeeID, attendance("2024-07-01", "2024-07-01"))
			Expect(err).NotTo(HaveOccurred())

			reqs, err := f.service.ListOwn(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reqs).To(HaveLen(2))
			Expect(reqs[0].StartDate.String()).To(Equal("2024-07-01"))
		})

		It("falls back to storage when the cache cannot be read", func() {
			f.cache.readErr = errors.New("redis down")

			reqs, err := f.service.ListOwn(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reqs).To(HaveLen(1))
		})

		It("hides another team's request", func() {
			reqs, err := f.service.ListOwn(ctx, outsiderID)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Get(ctx, manager, reqs[0].ID)
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})
	})

	It("never stores overlapping active requests for a user", func() {
		rng := rand.New(rand.NewSource(42))
		base := calendar.MustParse("2024-01-01")

		for i := 0; i < 60; i++ {
			start := base.AddDate(0, 0, rng.Intn(90))
			end := start.AddDate(0, 0, rng.Intn(5))
			req, err := f.service.Submit(ctx, employeeID, attendance(start.Format(calendar.Layout), end.Format(calendar.Layout)))
			if err != nil {
				Expect(err).To(MatchError(internal.ErrRequestOverlap))
				continue
			}
			if rng.Intn(3) == 0 {
				_, err = f.service.Decide(ctx, manager, req.ID, reject(fmt.Sprintf("round %d", i)))
				Expect(err).NotTo(HaveOccurred())
			}
		}

		all, err := f.service.ListOwn(ctx, employeeID)
		Expect(err).NotTo(HaveOccurred())

		var active []*request.Request
		for _, r := range all {
			if r.Status != request.StatusRejected {
				active = append(active, r)
			}
		}
		Expect(active).NotTo(BeEmpty())
		for i := range active {
			Expect(active[i].DayCount()).To(BeNumerically(">=", 1))
			for j := i + 1; j < len(active); j++ {
				Expect(active[i].OverlapsRange(active[j].StartDate, active[j].EndDate)).To(BeFalse(),
					"requests %d and %d overlap", active[i].ID, active[j].ID)
			}
		}
	})
})
