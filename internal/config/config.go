package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig captures all tunable parameters for the client process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ClientConfig struct {
	// Backend reachability
	Origin         string // e.g. https://recab.example.com; empty means relative paths only
	APIBase        string
	ProxyBase      string // serverless-functions proxy prefix
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
	BackoffWindow  time.Duration

	// Client-side caches and persistence
	CacheTTL  time.Duration
	RedisAddr string
	RedisPass string
	StatePath string // durable KV file

	// Session
	InactivityWindow time.Duration
	SplashPath       string

	// Location
	PingThrottle time.Duration
	GeoTimeout   time.Duration

	// Operations
	OpsAddr  string
	LogLevel string
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		APIBase:          "/api",
		ProxyBase:        "/.netlify/functions/api",
		RequestTimeout:   7 * time.Second,
		ProbeTimeout:     2500 * time.Millisecond,
		BackoffWindow:    15 * time.Second,
		CacheTTL:         5 * time.Minute,
		StatePath:        "recab-state.json",
		InactivityWindow: 30 * time.Minute,
		SplashPath:       "/splash",
		PingThrottle:     2500 * time.Millisecond,
		GeoTimeout:       3 * time.Second,
		OpsAddr:          ":9464",
		LogLevel:         "info",
	}
}

func Load() (ClientConfig, error) {
	// load .env if present; real env always wins
	_ = godotenv.Load()

	cfg := defaultClientConfig()
	var errs []error

	setStringFromEnv(&cfg.Origin, "RECAB_ORIGIN")
	setStringFromEnv(&cfg.APIBase, "RECAB_API_BASE")
	setStringFromEnv(&cfg.ProxyBase, "RECAB_PROXY_BASE")
	setDurationFromEnv(&cfg.RequestTimeout, "RECAB_REQUEST_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ProbeTimeout, "RECAB_PROBE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.BackoffWindow, "RECAB_BACKOFF_WINDOW", &errs)

	setDurationFromEnv(&cfg.CacheTTL, "RECAB_CACHE_TTL", &errs)
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("RECAB_REDIS_ADDR"))
	cfg.RedisPass = os.Getenv("RECAB_REDIS_PASSWORD")
	setStringFromEnv(&cfg.StatePath, "RECAB_STATE_PATH")

	setDurationFromEnv(&cfg.InactivityWindow, "RECAB_INACTIVITY_WINDOW", &errs)
	setStringFromEnv(&cfg.SplashPath, "RECAB_SPLASH_PATH")

	setDurationFromEnv(&cfg.PingThrottle, "RECAB_PING_THROTTLE", &errs)
	setDurationFromEnv(&cfg.GeoTimeout, "RECAB_GEO_TIMEOUT", &errs)

	setStringFromEnv(&cfg.OpsAddr, "RECAB_OPS_ADDR")
	if v := os.Getenv("RECAB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RECAB_REQUEST_TIMEOUT must be > 0"))
	}
	if cfg.BackoffWindow <= 0 {
		errs = append(errs, fmt.Errorf("RECAB_BACKOFF_WINDOW must be > 0"))
	}
	cfg.Origin = strings.TrimRight(cfg.Origin, "/")

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}
