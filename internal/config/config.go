package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS" envDefault:":8080"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	AuthSecret         string        `env:"AUTH_SECRET"`
	AuthSecretFile     string        `env:"AUTH_SECRET_FILE"`
	AuthTokenTTL       time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	CardGatewayURL     string        `env:"CARD_GATEWAY_URL" envDefault:"https://api.stripe.com"`
	CardGatewayKey     string        `env:"CARD_GATEWAY_SECRET_KEY"`
	CardGatewayTimeout time.Duration `env:"CARD_GATEWAY_TIMEOUT" envDefault:"15s"`
	WalletTimeout      time.Duration `env:"WALLET_TIMEOUT" envDefault:"30s"`
	WalletLatency      time.Duration `env:"WALLET_SIMULATED_LATENCY" envDefault:"0s"`
	OrderNumberPrefix  string        `env:"ORDER_NUMBER_PREFIX" envDefault:"ORD"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	ReconcileAfter     time.Duration `env:"SWEEP_RECONCILE_AFTER" envDefault:"15m"`
	StaleOrderTTL      time.Duration `env:"STALE_ORDER_TTL" envDefault:"24h"`
	SweepBatchSize     int           `env:"SWEEP_BATCH_SIZE" envDefault:"32"`
	WorkerPoolSize     int           `env:"WORKER_POOL_SIZE" envDefault:"4"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	TracingEnabled     bool          `env:"TRACING_ENABLED" envDefault:"false"`
}

const (
	defaultSweepInterval   = time.Minute
	defaultStaleOrderTTL   = 24 * time.Hour
	defaultReconcileAfter  = 15 * time.Minute
	defaultWalletTimeout   = 30 * time.Second
	defaultSweepBatchSize  = 32
	defaultWorkerPoolSize  = 4
	defaultShutdownTimeout = 10 * time.Second
	defaultOrderPrefix     = "ORD"
)

var prefixPattern = regexp.MustCompile(`^[A-Z]{2,8}$`)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], environ())
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}

func load(args []string, environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("paycore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CardGatewayURL, "card-url", cfg.CardGatewayURL, "Card gateway base URL")
	fs.StringVar(&cfg.CardGatewayKey, "card-key", cfg.CardGatewayKey, "Card gateway secret key")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.OrderNumberPrefix, "order-prefix", cfg.OrderNumberPrefix, "Order number prefix")
	fs.DurationVar(&cfg.WalletTimeout, "wallet-timeout", cfg.WalletTimeout, "Upper bound for wallet gateway calls")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Interval between pending order sweeps")
	fs.DurationVar(&cfg.StaleOrderTTL, "stale-ttl", cfg.StaleOrderTTL, "Age after which unpaid orders are cancelled")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	fs.IntVar(&cfg.SweepBatchSize, "sweep-batch", cfg.SweepBatchSize, "Maximum orders per sweep batch")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "Log level")
	fs.BoolVar(&cfg.TracingEnabled, "tracing", cfg.TracingEnabled, "Export traces to stdout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.AuthSecretFile != "" {
		content, err := os.ReadFile(cfg.AuthSecretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = strings.TrimSpace(string(content))
	}

	normalize(cfg)

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.CardGatewayKey == "" {
		return nil, fmt.Errorf("card gateway secret key must be provided")
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("auth secret must be provided")
	}

	if !prefixPattern.MatchString(cfg.OrderNumberPrefix) {
		return nil, fmt.Errorf("order number prefix %q must be 2-8 upper-case letters", cfg.OrderNumberPrefix)
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.OrderNumberPrefix = strings.ToUpper(strings.TrimSpace(cfg.OrderNumberPrefix))
	if cfg.OrderNumberPrefix == "" {
		cfg.OrderNumberPrefix = defaultOrderPrefix
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.StaleOrderTTL <= 0 {
		cfg.StaleOrderTTL = defaultStaleOrderTTL
	}

	if cfg.ReconcileAfter <= 0 || cfg.ReconcileAfter > cfg.StaleOrderTTL {
		cfg.ReconcileAfter = min(defaultReconcileAfter, cfg.StaleOrderTTL)
	}

	if cfg.WalletTimeout <= 0 {
		cfg.WalletTimeout = defaultWalletTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.WalletLatency < 0 {
		cfg.WalletLatency = 0
	}
}
