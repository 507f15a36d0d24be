// config.go
//
// Process configuration.
// Every setting has an environment variable (optionally loaded from .env);
// the common ones can also be overridden by command-line flags.

package main

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/game"
)

type config struct {
	Port          string
	DBPath        string
	SymbolsFile   string
	Pretty        bool
	LogLevel      string
	MismatchDelay time.Duration
	WinDelay      time.Duration
	TickInterval  time.Duration
	SessionTTL    time.Duration
	JWTSecret     string
	DailySalt     string
	ClientOrigin  string
	SecureCookies bool
}

func configFromEnv() config {
	d := game.DefaultDelays()
	return config{
		Port:          getEnv("PORT", "5175"),
		DBPath:        getEnv("DB_PATH", "./data/memory.db"),
		SymbolsFile:   getEnv("SYMBOLS_FILE", ""),
		Pretty:        envBool("PRETTY_LOGS", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MismatchDelay: envDuration("MISMATCH_DELAY", d.Mismatch),
		WinDelay:      envDuration("WIN_DELAY", d.Win),
		TickInterval:  envDuration("TICK_INTERVAL", d.Tick),
		SessionTTL:    envDuration("SESSION_TTL", time.Hour),
		JWTSecret:     getEnv("JWT_SECRET", "dev_secret_change_me"),
		DailySalt:     getEnv("DAILY_SALT", "local_dev_salt"),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		SecureCookies: envBool("COOKIE_SECURE", false),
	}
}

// getEnv returns the value of k, or def when unset or empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid bool, using default")
		return def
	}
	return b
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
		return def
	}
	return d
}
