package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order when present. Values already set in the
// process environment win.
var envFiles = []string{".env", "config/.env"}

type Config struct {
	Env                string
	Port               int
	StoreURI           string
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
	ServiceName        string
	OTLPEndpoint       string
	TraceSampleRatio   float64
}

var ErrMissingStoreURI = errors.New("MONGO_URI is required")

func Load() Config {
	loadEnvFiles()

	return Config{
		Env:                getEnv("APP_ENV", "dev"),
		Port:               getEnvInt("PORT", 3000),
		StoreURI:           strings.TrimSpace(os.Getenv("MONGO_URI")),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		ServiceName:        getEnv("OTEL_SERVICE_NAME", "users-api"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio:   getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
	}
}

func (c Config) Validate() error {
	if c.StoreURI == "" {
		return ErrMissingStoreURI
	}
	return nil
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("could not load env file", "path", path, "err", err)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env value, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env value, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
