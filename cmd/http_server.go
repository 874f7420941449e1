package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/iyzipay-checkout/api"
	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/auth"
	authPostgres "github.com/frahmantamala/iyzipay-checkout/internal/auth/postgres"
	"github.com/frahmantamala/iyzipay-checkout/internal/cart"
	cartPostgres "github.com/frahmantamala/iyzipay-checkout/internal/cart/postgres"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
	notificationPostgres "github.com/frahmantamala/iyzipay-checkout/internal/notification/postgres"
	"github.com/frahmantamala/iyzipay-checkout/internal/order"
	orderPostgres "github.com/frahmantamala/iyzipay-checkout/internal/order/postgres"
	"github.com/frahmantamala/iyzipay-checkout/internal/payment"
	paymentPostgres "github.com/frahmantamala/iyzipay-checkout/internal/payment/postgres"
	paymentRedis "github.com/frahmantamala/iyzipay-checkout/internal/payment/redis"
	"github.com/frahmantamala/iyzipay-checkout/internal/paymentgateway"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport/middleware"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport/rest"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
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
	Config         *internal.Config
	DB             *sqlx.DB
	Gorm           *gorm.DB
	Redis          *goredis.Client
	Router         *chi.Mux
	EventBus       *events.EventBus
	PaymentService *payment.Service
	Logger         *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
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
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	validator, err := middleware.NewOpenAPIValidator(api.OpenAPISpec, deps.Logger)
	if err != nil {
		return err
	}

	base := transport.NewBaseHandler(deps.Logger)
	cfg := deps.Config

	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		auth.NewJWTTokenGenerator(
			cfg.Security.JWTAccessSecret,
			cfg.Security.JWTRefreshSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		),
		cfg.Security.BCryptCost,
	).WithLogger(deps.Logger)

	var healthChecks map[string]rest.Checker
	if deps.Redis != nil {
		healthChecks = map[string]rest.Checker{
			"redis": func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		}
	}

	rest.RegisterAllRoutes(deps.Router, rest.RouteDependencies{
		DB:             deps.DB.DB,
		HealthChecks:   healthChecks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthHandler:    auth.NewHandler(authService, strings.HasPrefix(cfg.Server.BaseURL, "https://")),
		PaymentHandler: payment.NewHandler(base, deps.PaymentService),
		WebhookHandler: payment.NewWebhookHandler(base, deps.PaymentService, notificationPostgres.NewNotificationRepository(deps.Gorm)),
		Validator:      validator,
		Logger:         deps.Logger,
	})
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gormDB,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
		Logger:   lg,
	}
	events.SubscribeAuditLog(deps.EventBus, lg)

	locker, client, err := initLocker(config.Redis, lg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Redis = client

	deps.PaymentService = newPaymentService(config, gormDB, locker, deps.EventBus, lg)
	return deps, nil
}

// initLocker returns the redis lease when redis is configured and the
// in-process keyed mutex otherwise. The client is nil in the latter case.
func initLocker(cfg internal.RedisConfig, lg *slog.Logger) (payment.Locker, *goredis.Client, error) {
	if cfg.URL == "" {
		return payment.NewKeyedMutex(), nil, nil
	}
	ctx, cancel := internal.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := paymentRedis.NewClient(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return paymentRedis.NewLocker(client, cfg.LockTTL, lg), client, nil
}

func newPaymentService(cfg *internal.Config, db *gorm.DB, locker payment.Locker, bus *events.EventBus, lg *slog.Logger) *payment.Service {
	cartService := cart.NewService(cartPostgres.NewCartRepository(db), lg)
	orderService := order.NewService(orderPostgres.NewOrderRepository(db), cartService, lg)

	gateway := paymentgateway.NewClient(paymentgateway.Config{
		APIKey:    cfg.Iyzipay.APIKey,
		SecretKey: cfg.Iyzipay.SecretKey,
		BaseURL:   cfg.Iyzipay.BaseURL,
		Timeout:   cfg.Iyzipay.Timeout,
	}, lg)

	return payment.NewService(payment.Dependencies{
		Orders:   orderService,
		Carts:    cartService,
		Metadata: paymentPostgres.NewMetadataRepository(db),
		Gateway:  gateway,
		Locker:   locker,
		Events:   bus,
	}, payment.NewSettings(cfg.Iyzipay, cfg.Server.BaseURL), lg)
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
		d.Redis = nil
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
		d.DB = nil
	}
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

// initGorm shares the sqlx pool with the gorm repositories.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
}
