package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Iyzipay       IyzipayConfig       `mapstructure:"iyzipay"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Worker        WorkerConfig        `mapstructure:"worker"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTAccessSecret      string        `mapstructure:"jwt_access_secret" validate:"required,min=32"`
	JWTRefreshSecret     string        `mapstructure:"jwt_refresh_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

// IyzipayConfig holds merchant credentials and checkout behaviour.
type IyzipayConfig struct {
	APIKey                  string        `mapstructure:"api_key"`
	SecretKey               string        `mapstructure:"secret_key"`
	BaseURL                 string        `mapstructure:"base_url"`
	Locale                  string        `mapstructure:"locale"`
	Currency                string        `mapstructure:"currency"`
	EnableInstallments      bool          `mapstructure:"enable_installments"`
	MaxInstallmentCount     int           `mapstructure:"max_installment_count"`
	OrderStatusAfterPayment string        `mapstructure:"order_status_after_payment"`
	PaymentFormMode         string        `mapstructure:"payment_form_mode"`
	RequireWebhookSignature bool          `mapstructure:"require_webhook_signature"`
	StrictBuyerValidation   bool          `mapstructure:"strict_buyer_validation"`
	CancelWindow            time.Duration `mapstructure:"cancel_window"`
	Timeout                 time.Duration `mapstructure:"timeout"`
	CompletedURL            string        `mapstructure:"completed_url"`
}

type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type WorkerConfig struct {
	MaxWorkers     int           `mapstructure:"max_workers"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	ReplayInterval time.Duration `mapstructure:"replay_interval"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json text"`
	Output     string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoadConfigFromEnv builds the configuration from plain environment variables
// for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
			JWTRefreshSecret:     getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:      getEnv("LOG_LEVEL", "info"),
				Format:     getEnv("LOG_FORMAT", "json"),
				Output:     getEnv("LOG_OUTPUT", "stdout"),
				FilePath:   getEnv("LOG_FILE_PATH", ""),
				MaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
				MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
				MaxAge:     getEnvAsInt("LOG_MAX_AGE", 30),
				Compress:   getEnvAsBool("LOG_COMPRESS", true),
			},
		},
		Iyzipay: IyzipayConfig{
			APIKey:                  getEnv("IYZIPAY_API_KEY", ""),
			SecretKey:               getEnv("IYZIPAY_SECRET_KEY", ""),
			BaseURL:                 getEnv("IYZIPAY_BASE_URL", "https://sandbox-api.iyzipay.com"),
			Locale:                  getEnv("IYZIPAY_LOCALE", "tr"),
			Currency:                getEnv("IYZIPAY_CURRENCY", "TRY"),
			EnableInstallments:      getEnvAsBool("IYZIPAY_ENABLE_INSTALLMENTS", true),
			MaxInstallmentCount:     getEnvAsInt("IYZIPAY_MAX_INSTALLMENT_COUNT", 12),
			OrderStatusAfterPayment: getEnv("IYZIPAY_ORDER_STATUS_AFTER_PAYMENT", "Pending"),
			PaymentFormMode:         getEnv("IYZIPAY_PAYMENT_FORM_MODE", "iframe"),
			RequireWebhookSignature: getEnvAsBool("IYZIPAY_REQUIRE_WEBHOOK_SIGNATURE", false),
			StrictBuyerValidation:   getEnvAsBool("IYZIPAY_STRICT_BUYER_VALIDATION", false),
			CancelWindow:            getEnvAsDuration("IYZIPAY_CANCEL_WINDOW", 24*time.Hour),
			Timeout:                 getEnvAsDuration("IYZIPAY_TIMEOUT", 30*time.Second),
			CompletedURL:            getEnv("IYZIPAY_COMPLETED_URL", "/checkout/completed"),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: getEnvAsDuration("REDIS_LOCK_TTL", 30*time.Second),
		},
		Worker: WorkerConfig{
			MaxWorkers:     getEnvAsInt("WORKER_MAX_WORKERS", 4),
			BatchSize:      getEnvAsInt("WORKER_BATCH_SIZE", 50),
			MaxAttempts:    getEnvAsInt("WORKER_MAX_ATTEMPTS", 5),
			ReplayInterval: getEnvAsDuration("WORKER_REPLAY_INTERVAL", time.Minute),
		},
	}
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if err := c.Iyzipay.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("iyzipay config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTAccessSecret) < 32 {
		return errors.New("jwt_access_secret must be at least 32 characters")
	}
	if len(c.JWTRefreshSecret) < 32 {
		return errors.New("jwt_refresh_secret must be at least 32 characters")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	if c.Output == "file" && c.FilePath == "" {
		return errors.New("file_path is required when output is 'file'")
	}
	return nil
}

func (c *IyzipayConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("api_key is required")
	}
	if c.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.MaxInstallmentCount < 1 || c.MaxInstallmentCount > 12 {
		return errors.New("max_installment_count must be between 1 and 12")
	}
	switch strings.ToLower(c.PaymentFormMode) {
	case "iframe", "popup", "redirect":
	default:
		return fmt.Errorf("unsupported payment_form_mode %q", c.PaymentFormMode)
	}
	switch c.OrderStatusAfterPayment {
	case "Pending", "Processing", "Complete":
	default:
		return fmt.Errorf("unsupported order_status_after_payment %q", c.OrderStatusAfterPayment)
	}
	return nil
}
