package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// TaxComponent is one named sub-rate configured for GST-style billing.
type TaxComponent struct {
	Name string
	Rate decimal.Decimal
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CurrencyCode string
	// TaxRatePercent is the flat tax rate; TaxComponents, when configured,
	// takes precedence (e.g. TAX_COMPONENTS="CGST:2.5,SGST:2.5").
	TaxRatePercent decimal.Decimal
	TaxComponents  []TaxComponent

	SalonOpenTime   string
	SalonCloseTime  string
	SlotStepMinutes int
	ReminderLead    time.Duration

	CatalogCacheTTL     time.Duration
	CatalogDefaultPage  int
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	IdempotencyTTL    time.Duration
	LookupRateWindow  time.Duration
	LookupRateMax     int
	InvoiceRateWindow time.Duration
	InvoiceRateMax    int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	taxComponents, err := parseTaxComponents(k.String("TAX_COMPONENTS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CurrencyCode:   valueOrDefault(k.String("CURRENCY_CODE"), "USD"),
		TaxRatePercent: parseRate(k.String("TAX_RATE_PERCENT"), "0"),
		TaxComponents:  taxComponents,

		SalonOpenTime:   valueOrDefault(k.String("SALON_OPEN_TIME"), "09:00"),
		SalonCloseTime:  valueOrDefault(k.String("SALON_CLOSE_TIME"), "21:00"),
		SlotStepMinutes: parseInt(k.String("SLOT_STEP_MINUTES"), 30),
		ReminderLead:    parseDuration(k.String("REMINDER_LEAD"), "2h"),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultPage:  parseInt(k.String("CATALOG_DEFAULT_PAGE"), 1),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LookupRateWindow:  parseDuration(k.String("LOOKUP_RATE_WINDOW"), "1m"),
		LookupRateMax:     parseInt(k.String("LOOKUP_RATE_MAX"), 30),
		InvoiceRateWindow: parseDuration(k.String("INVOICE_RATE_WINDOW"), "1m"),
		InvoiceRateMax:    parseInt(k.String("INVOICE_RATE_MAX"), 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.SlotStepMinutes <= 0 {
		return nil, errors.New("SLOT_STEP_MINUTES must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// parseTaxComponents parses "NAME:RATE,NAME:RATE" into named components.
func parseTaxComponents(value string) ([]TaxComponent, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	components := make([]TaxComponent, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rateStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("TAX_COMPONENTS: malformed entry %q", part)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rateStr))
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("TAX_COMPONENTS: invalid rate in %q", part)
		}
		components = append(components, TaxComponent{Name: strings.TrimSpace(name), Rate: rate})
	}
	return components, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func parseRate(value, fallback string) decimal.Decimal {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = fallback
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil || d.IsNegative() {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
