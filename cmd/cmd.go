package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

var (
	clearData bool
)

var rootCmd = &cobra.Command{
	Use:   "iyzipay-checkout",
	Short: "iyzipay checkout",
	Long:  `Checkout-form payments through iyzipay with webhook reconciliation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, setupLogger(cfg)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, setupLogger(&cfg)
}

func setupLogger(cfg *internal.Config) error {
	l := cfg.Observability.Logging
	return logger.Setup(logger.Options{
		Environment: cfg.Environment,
		Level:       l.Level,
		Format:      l.Format,
		Output:      l.Output,
		FilePath:    l.FilePath,
		MaxSize:     l.MaxSize,
		MaxBackups:  l.MaxBackups,
		MaxAge:      l.MaxAge,
		Compress:    l.Compress,
	})
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
