package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/tdy-voucher/api"
	"github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/auth"
	"github.com/frahmantamala/tdy-voucher/internal/core/events"
	"github.com/frahmantamala/tdy-voucher/internal/estimate"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
	"github.com/frahmantamala/tdy-voucher/internal/rate/httpprovider"
	ratePostgres "github.com/frahmantamala/tdy-voucher/internal/rate/postgres"
	"github.com/frahmantamala/tdy-voucher/internal/transport/middleware"
	"github.com/frahmantamala/tdy-voucher/internal/transport/rest"
	"github.com/frahmantamala/tdy-voucher/internal/voucher"
	voucherPostgres "github.com/frahmantamala/tdy-voucher/internal/voucher/postgres"
	"github.com/frahmantamala/tdy-voucher/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle estimate and voucher requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "rates_provider", deps.Config.Rates.Provider)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// let audit subscribers finish before the process exits
		deps.EventBus.Wait()
		if deps.DB != nil {
			if err := deps.DB.Close(); err != nil {
				deps.Logger.Error("Database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	provider, err := newRateProvider(cfg, deps.DB, lg)
	if err != nil {
		return err
	}
	resolver := rate.NewResolver(provider, cfg.Rates.LookupTimeout)
	engine := estimate.NewEngine(resolver, cfg.Rates.MaxConcurrentLookups)

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.AccessTokenDuration)

	estimateService := estimate.NewService(engine, deps.EventBus, lg)
	voucherService := voucher.NewService(engine, voucherPostgres.NewVoucherRepository(deps.GormDB), deps.EventBus, lg)

	doc, err := middleware.LoadOpenAPI(context.Background(), api.OpenAPISpec)
	if err != nil {
		return err
	}
	validate, err := middleware.OpenAPIValidator(doc, lg)
	if err != nil {
		return err
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Health:   rest.NewHealthHandler(map[string]rest.Pinger{"postgres": deps.DB}),
		Auth:     auth.NewHandler(tokens),
		Rate:     rate.NewHandler(resolver),
		Estimate: estimate.NewHandler(estimateService),
		Voucher:  voucher.NewHandler(voucherService),
	}, rest.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPISpec:    api.OpenAPISpec,
		Validate:       validate,
	}, lg)
	return nil
}

// newRateProvider picks the rate source: the local perdiem_rates table or a
// remote rate service speaking the same GET /rates contract.
func newRateProvider(cfg *internal.Config, db *sqlx.DB, lg *slog.Logger) (rate.Provider, error) {
	switch cfg.Rates.Provider {
	case internal.RateProviderHTTP:
		return httpprovider.NewClient(httpprovider.Config{
			BaseURL: cfg.Rates.BaseURL,
			APIKey:  cfg.Rates.APIKey,
			Timeout: cfg.Rates.LookupTimeout,
		}, lg), nil
	case internal.RateProviderDatabase, "":
		if db == nil {
			return nil, fmt.Errorf("rates provider %q needs a database", cfg.Rates.Provider)
		}
		return ratePostgres.NewRateTable(db), nil
	default:
		return nil, fmt.Errorf("unknown rates provider %q", cfg.Rates.Provider)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Init(logger.Config{
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
	})

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGormDB(db.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize voucher archive: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg.With("component", "audit"))

	return &Dependencies{
		Config:   config,
		DB:       db,
		GormDB:   gormDB,
		EventBus: bus,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGormDB shares the pgx pool with the sqlx rate table.
func initGormDB(conn *sql.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: conn}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
