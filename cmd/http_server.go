package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/auth"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	"github.com/frahmantamala/attendance-management/internal/core/events"
	"github.com/frahmantamala/attendance-management/internal/infodesk"
	infodeskPostgres "github.com/frahmantamala/attendance-management/internal/infodesk/postgres"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/attendance-management/internal/ledger/postgres"
	"github.com/frahmantamala/attendance-management/internal/notifier"
	"github.com/frahmantamala/attendance-management/internal/orgchart"
	orgchartPostgres "github.com/frahmantamala/attendance-management/internal/orgchart/postgres"
	"github.com/frahmantamala/attendance-management/internal/request"
	requestPostgres "github.com/frahmantamala/attendance-management/internal/request/postgres"
	requestRedis "github.com/frahmantamala/attendance-management/internal/request/redis"
	"github.com/frahmantamala/attendance-management/internal/transport/rest"
	"github.com/frahmantamala/attendance-management/internal/transport/swagger"
	"github.com/frahmantamala/attendance-management/internal/user"
	userPostgres "github.com/frahmantamala/attendance-management/internal/user/postgres"
	"github.com/frahmantamala/attendance-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	SQLX     *sqlx.DB
	Redis    *goredis.Client
	EventBus *events.EventBus
	Notifier *notifier.Notifier
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		timeout := deps.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.close(ctx)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close(context.Background())
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

// close drains event handlers before the notifier so forwarded events are
// still delivered, then releases the stores.
func (d *Dependencies) close(ctx context.Context) {
	if err := d.EventBus.Wait(ctx); err != nil {
		d.Logger.Error("Event handlers did not finish", "error", err)
	}
	if err := d.Notifier.Shutdown(ctx); err != nil {
		d.Logger.Error("Notifier shutdown error", "error", err)
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.SQLX.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)

	db, sqlxDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := initRedis(context.Background(), config.Cache)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	n := newNotifier(config.Notifier, lg)
	n.Subscribe(eventBus)

	deps := &Dependencies{
		Config:   config,
		DB:       db,
		SQLX:     sqlxDB,
		Redis:    redisClient,
		EventBus: eventBus,
		Notifier: n,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}
	setupRoutes(deps)

	return deps, nil
}

func setupRoutes(deps *Dependencies) {
	cfg, lg := deps.Config, deps.Logger
	tx := database.NewTransactor(deps.DB)

	ledgerService := ledger.NewService(ledgerPostgres.NewLedgerRepository(deps.DB), leaveDefaults(cfg.Leave), lg)
	hierarchy := orgchart.NewHierarchy(orgchartPostgres.NewDirectoryRepository(deps.DB), lg)

	var listCache request.ListCache
	if deps.Redis != nil {
		listCache = requestRedis.NewListCache(deps.Redis, cfg.Cache.TTL)
	}
	requestService := request.NewService(
		requestPostgres.NewRequestRepository(deps.DB),
		requestPostgres.NewScopedReader(deps.SQLX),
		tx,
		ledgerService,
		request.NewAccessScope(hierarchy),
		listCache,
		deps.EventBus,
		lg,
	)

	userRepo := userPostgres.NewUserRepository(deps.DB)
	userService := user.NewService(userRepo, tx, ledgerService, hierarchy, requestService, cfg.Security.BCryptCost, lg)

	infoDeskService := infodesk.NewService(infodeskPostgres.NewInfoDeskRepository(deps.DB), deps.EventBus, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userRepo, tokenGen, lg)

	checks := map[string]rest.Check{
		"database": func(ctx context.Context) error { return deps.SQLX.PingContext(ctx) },
	}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}

	handlers := rest.Handlers{
		Auth:     auth.NewHandler(authService),
		Roles:    auth.NewRoleAuthorization(lg),
		User:     user.NewHandler(userService),
		Request:  request.NewHandler(requestService),
		InfoDesk: infodesk.NewHandler(infoDeskService),
		Health:   rest.NewHealthHandler(checks),
	}

	specPath := cfg.Server.OpenAPIPath
	if specPath == "" {
		specPath = "api/openapi.yml"
	}
	if spec, err := swagger.LoadSpec(context.Background(), specPath); err != nil {
		lg.Warn("OpenAPI document not served", "path", specPath, "error", err)
	} else {
		handlers.Spec = spec
	}

	rest.RegisterAllRoutes(deps.Router, handlers, rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		LogLevel:       logger.ParseLevel(cfg.Observability.Logging.Level),
	}, lg)
}
