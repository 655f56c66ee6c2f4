package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	WalletRPCURL string

	XMRRateLeeway   time.Duration
	HotwalletLeeway time.Duration

	DepositSweepInterval time.Duration
	WithdrawStaleAfter   time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		RedisURL:             getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:            getEnv("REDIS_PASS", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		WalletRPCURL:         getEnv("WALLET_RPC_URL", "http://127.0.0.1:18082/json_rpc"),
		XMRRateLeeway:        getDuration("XMR_RATE_LEEWAY", 60*time.Second),
		HotwalletLeeway:      getDuration("HOTWALLET_STATUS_LEEWAY", 120*time.Second),
		DepositSweepInterval: getDuration("DEPOSIT_SWEEP_INTERVAL", 30*time.Second),
		WithdrawStaleAfter:   getDuration("WITHDRAW_STALE_AFTER", 10*time.Minute),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.JWTSecret == "" && cfg.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
