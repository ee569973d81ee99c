package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal/core/database"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/attendance-management/internal/ledger/postgres"
	"github.com/frahmantamala/attendance-management/internal/orgchart"
	orgchartPostgres "github.com/frahmantamala/attendance-management/internal/orgchart/postgres"
	"github.com/frahmantamala/attendance-management/internal/request"
	requestPostgres "github.com/frahmantamala/attendance-management/internal/request/postgres"
	"github.com/frahmantamala/attendance-management/internal/user"
	userPostgres "github.com/frahmantamala/attendance-management/internal/user/postgres"
	"github.com/frahmantamala/attendance-management/pkg/logger"
)

const seedPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed an admin, a manager and an employee with default leave balances for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

		db, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		if clearData {
			if err := clearTables(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		ledgerService := ledger.NewService(ledgerPostgres.NewLedgerRepository(db), leaveDefaults(cfg.Leave), lg)
		hierarchy := orgchart.NewHierarchy(orgchartPostgres.NewDirectoryRepository(db), lg)
		userRepo := userPostgres.NewUserRepository(db)
		tx := database.NewTransactor(db)
		requestService := request.NewService(
			requestPostgres.NewRequestRepository(db),
			requestPostgres.NewScopedReader(sqlxDB),
			tx, ledgerService, request.NewAccessScope(hierarchy), nil, nil, lg,
		)
		users := user.NewService(userRepo, tx, ledgerService, hierarchy, requestService, bcrypt.DefaultCost, lg)

		ctx := context.Background()
		// The seeding actor is a synthetic admin; ID 0 never matches a row.
		seeder := &coreuser.Actor{ID: 0, Username: "seeder", Role: coreuser.RoleAdmin}

		admin := seedUser(ctx, users, userRepo, seeder, user.CreateUserDTO{Username: "admin", Password: seedPassword, Role: string(coreuser.RoleAdmin)})
		manager := seedUser(ctx, users, userRepo, seeder, user.CreateUserDTO{Username: "manager", Password: seedPassword, Role: string(coreuser.RoleManager), ReportingID: &admin.ID})
		seedUser(ctx, users, userRepo, seeder, user.CreateUserDTO{Username: "employee", Password: seedPassword, Role: string(coreuser.RoleEmployee), ReportingID: &manager.ID})

		fmt.Printf("Seeded users admin, manager and employee with password %q\n", seedPassword)
	},
}

// seedUser creates the user unless the username already exists.
func seedUser(ctx context.Context, users *user.Service, repo *userPostgres.UserRepository, actor *coreuser.Actor, dto user.CreateUserDTO) *user.User {
	if existing, err := repo.GetByUsername(ctx, dto.Username); err == nil {
		fmt.Printf("%s user already exists; skipping\n", dto.Username)
		return existing
	}

	u, err := users.Create(ctx, actor, dto)
	if err != nil {
		log.Fatalf("failed to seed user %s: %v", dto.Username, err)
	}
	fmt.Printf("Seeded %s user: %s\n", u.Role, u.Username)
	return u
}

func clearTables(db *gorm.DB) error {
	return db.Exec("TRUNCATE info_requests, feedbacks, attendance_requests, leave_balances, users RESTART IDENTITY CASCADE").Error
}
