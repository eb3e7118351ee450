package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/persistence/middleware"
	"github.com/spf13/pflag"
)

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds the settings shared by every command.
// Each field has a flag and a TURING_* environment fallback.
type Config struct {
	LogLevel      string
	LogFormat     string
	Store         string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	MaxSteps      int
	MachinesDir   string

	// StoreKey enables encryption at rest: comma-separated base64 AES-256
	// keys, active key first. Read from TURING_STORE_KEY only, never a flag.
	StoreKey string
}

// DefaultConfig reads the environment. Flags registered by BindFlags use
// these values as their defaults, so an explicit flag always wins.
func DefaultConfig() Config {
	return Config{
		LogLevel:      envString("TURING_LOG_LEVEL", "warn"),
		LogFormat:     envString("TURING_LOG_FORMAT", string(logging.FormatText)),
		Store:         envString("TURING_STORE", StoreFile),
		StorePath:     envString("TURING_STORE_PATH", ""),
		RedisAddr:     envString("TURING_REDIS_ADDR", "localhost:6379"),
		RedisPassword: envString("TURING_REDIS_PASSWORD", ""),
		SessionTTL:    envDuration("TURING_SESSION_TTL", 0),
		MaxSteps:      envInt("TURING_MAX_STEPS", 0),
		MachinesDir:   envString("TURING_MACHINES_DIR", ""),
		StoreKey:      envString("TURING_STORE_KEY", ""),
	}
}

// BindFlags registers the persistent flags on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error (TURING_LOG_LEVEL)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json (TURING_LOG_FORMAT)")
	fs.StringVar(&c.Store, "store", c.Store, "Session store: memory, file, redis, sqlite (TURING_STORE)")
	fs.StringVar(&c.StorePath, "store-path", c.StorePath, "Directory (file) or database path (sqlite) for sessions (TURING_STORE_PATH)")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address for --store redis (TURING_REDIS_ADDR)")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password (TURING_REDIS_PASSWORD)")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Expire redis sessions after this long, 0 keeps them (TURING_SESSION_TTL)")
	fs.IntVar(&c.MaxSteps, "max-steps", c.MaxSteps, "Override the step cap, 0 uses the machine's or the default (TURING_MAX_STEPS)")
	fs.StringVar(&c.MachinesDir, "machines-dir", c.MachinesDir, "Directory of machine files registered next to the builtins (TURING_MACHINES_DIR)")
}

// Validate rejects values no command could use.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("--max-steps must not be negative, got %d", c.MaxSteps)
	}
	if c.StoreKey != "" {
		if _, err := middleware.ParseKeys(c.StoreKey); err != nil {
			return fmt.Errorf("TURING_STORE_KEY: %w", err)
		}
	}
	return nil
}

// Logger builds the stderr logger described by the config.
func (c Config) Logger() *slog.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		format = logging.FormatText
	}
	return logging.NewWithWriter(os.Stderr, level, format)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
