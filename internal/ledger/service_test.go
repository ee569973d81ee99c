package ledger_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database/sqlitetest"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/attendance-management/internal/ledger/postgres"
)

func intPtr(v int) *int { return &v }

var _ = Describe("Ledger Service", func() {
	var (
		db      *gorm.DB
		service *ledger.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = ledger.NewService(ledgerPostgres.NewLedgerRepository(db), nil, slogger)
	})

	AfterEach(func() {
		Expect(sqlitetest.Close(db)).To(Succeed())
	})

	Describe("Initialize", func() {
		It("writes the policy defaults", func() {
			Expect(service.Initialize(ctx, 1, nil)).To(Succeed())

			balances, err := service.Balances(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(balances).To(Equal(ledger.Balances{
				ledger.CategorySick:   7,
				ledger.CategoryCasual: 7,
				ledger.CategoryEarned: 15,
			}))
		})

		It("honours overrides at creation", func() {
			Expect(service.Initialize(ctx, 1, map[ledger.Category]*int{ledger.CategoryCasual: intPtr(2)})).To(Succeed())

			balances, _ := service.Balances(ctx, 1)
			Expect(balances[ledger.CategoryCasual]).To(Equal(2))
			Expect(balances[ledger.CategorySick]).To(Equal(7))
		})
	})

	Describe("Debit", func() {
		BeforeEach(func() {
			Expect(service.Initialize(ctx, 1, map[ledger.Category]*int{ledger.CategoryCasual: intPtr(2)})).To(Succeed())
		})

		It("debits exactly the requested days", func() {
			Expect(service.Debit(ctx, 1, ledger.CategoryEarned, 5)).To(Succeed())
			balances, _ := service.Balances(ctx, 1)
			Expect(balances[ledger.CategoryEarned]).To(Equal(10))
		})

		It("returns an insufficient balance error and leaves the balance untouched", func() {
			err := service.Debit(ctx, 1, ledger.CategoryCasual, 3)
			Expect(internal.IsErrorType(err, internal.ErrorTypeInsufficientBalance)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("available 2"))

			balances, _ := service.Balances(ctx, 1)
			Expect(balances[ledger.CategoryCasual]).To(Equal(2))
		})

		It("rejects LWP because it has no balance", func() {
			err := service.Debit(ctx, 1, ledger.CategoryLWP, 1)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("rejects non-positive day counts", func() {
			err := service.Debit(ctx, 1, ledger.CategorySick, 0)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("SetBalance", func() {
		It("refuses a negative value", func() {
			err := service.SetBalance(ctx, 1, ledger.CategorySick, -1)
			Expect(internal.IsErrorType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("accepts zero", func() {
			Expect(service.SetBalance(ctx, 1, ledger.CategorySick, 0)).To(Succeed())
		})
	})

	Describe("Credit", func() {
		It("restores days to a category", func() {
			Expect(service.Initialize(ctx, 1, nil)).To(Succeed())
			Expect(service.Credit(ctx, 1, ledger.CategorySick, 3)).To(Succeed())
			balances, _ := service.Balances(ctx, 1)
			Expect(balances[ledger.CategorySick]).To(Equal(10))
		})
	})
})
