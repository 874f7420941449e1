package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
	"github.com/frahmantamala/iyzipay-checkout/internal/notification"
	notificationPostgres "github.com/frahmantamala/iyzipay-checkout/internal/notification/postgres"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers such as the webhook replay pool.`,
}

// Replay worker command
var replayWorkerCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay failed webhook notifications",
	Long:  `Re-run webhook deliveries recorded as handle_failed through the payment engine`,
	Run: func(cmd *cobra.Command, args []string) {
		startReplayWorker()
	},
}

var (
	maxWorkers     int
	batchSize      int
	maxAttempts    int
	replayInterval time.Duration
	replayOnce     bool
)

func startReplayWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(logger)
	events.SubscribeAuditLog(eventBus, logger)

	// replays take the same per-order lease as live traffic
	locker, client, err := initLocker(config.Redis, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if client != nil {
		defer client.Close()
	}

	service := newPaymentService(config, gormDB, locker, eventBus, logger)

	replayConfig := notification.ReplayConfig{
		MaxWorkers:  getIntFlag(maxWorkers, config.Worker.MaxWorkers),
		BatchSize:   getIntFlag(batchSize, config.Worker.BatchSize),
		MaxAttempts: getIntFlag(maxAttempts, config.Worker.MaxAttempts),
	}
	replayer := notification.NewReplayer(notificationPostgres.NewNotificationRepository(gormDB), service, replayConfig, logger)

	interval := replayInterval
	if interval <= 0 {
		interval = config.Worker.ReplayInterval
	}
	if interval <= 0 {
		interval = time.Minute
	}

	logger.Info("starting webhook replay worker",
		"max_workers", replayConfig.MaxWorkers,
		"batch_size", replayConfig.BatchSize,
		"max_attempts", replayConfig.MaxAttempts,
		"interval", interval,
		"once", replayOnce)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runReplay := func() {
		summary, err := replayer.Run(ctx)
		if err != nil {
			logger.Error("replay run failed", "error", err)
			return
		}
		logger.Info("replay run complete",
			"total", summary.Total,
			"handled", summary.Handled,
			"failed", summary.Failed)
	}

	runReplay()
	if replayOnce {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("received signal, shutting down replay worker")
			return
		case <-ticker.C:
			runReplay()
		}
	}
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	replayWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	replayWorkerCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Notifications fetched per run (overrides config)")
	replayWorkerCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Skip notifications tried this many times (overrides config)")
	replayWorkerCmd.Flags().DurationVar(&replayInterval, "interval", 0, "Delay between runs (overrides config)")
	replayWorkerCmd.Flags().BoolVar(&replayOnce, "once", false, "Run a single pass and exit")

	workerCmd.AddCommand(replayWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
