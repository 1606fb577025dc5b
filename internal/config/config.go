package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Upstream billing API
	APIBaseURL       string
	BillsEndpoint    string
	DetailsEndpoint  string
	RequestTimeout   time.Duration
	UpstreamRPS      float64
	FetchConcurrency int

	// Dashboard behaviour
	RecentWindowDays int
	Timezone         string

	// Operator auth
	JWTSecret           string
	AdminEmail          string
	AdminPasswordHash   string
	ManagerEmail        string
	ManagerPasswordHash string

	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found; using process environment")
	}

	return &Config{
		Port:                getEnv("PORT", "8081"),
		APIBaseURL:          strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3800/api"), "/"),
		BillsEndpoint:       getEnv("BILLS_ENDPOINT", "/bills"),
		DetailsEndpoint:     getEnv("BILL_DETAILS_ENDPOINT", "/bill-details"),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 15*time.Second),
		UpstreamRPS:         getFloat("UPSTREAM_RPS", 0),
		FetchConcurrency:    getInt("FETCH_CONCURRENCY", 5),
		RecentWindowDays:    getInt("RECENT_WINDOW_DAYS", 30),
		Timezone:            getEnv("TIMEZONE", "Asia/Thimphu"),
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AdminEmail:          getEnv("ADMIN_EMAIL", "admin@legphel.bt"),
		AdminPasswordHash:   getEnv("ADMIN_PASSWORD_HASH", ""),
		ManagerEmail:        getEnv("MANAGER_EMAIL", ""),
		ManagerPasswordHash: getEnv("MANAGER_PASSWORD_HASH", ""),
		AllowedOrigins:      getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

// Location resolves Timezone, falling back to a fixed UTC+6 zone (Bhutan
// Time) when the tz database is unavailable.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("BTT", 6*60*60)
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", v)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		slog.Warn("Ignoring invalid number setting", "key", key, "value", v)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", v)
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
