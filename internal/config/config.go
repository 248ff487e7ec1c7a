package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"museumbooking/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultRefreshTokenPepper = "change-me-refresh-pepper"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Facility FacilityConfig
}

type AppConfig struct {
	Env       string `envconfig:"APP_ENV" default:"dev"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

type HTTPConfig struct {
	Addr               string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout    time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
}

type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" default:"museum.db"`
}

type AuthConfig struct {
	JWTSecret          string        `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	JWTAccessTTL       time.Duration `envconfig:"JWT_ACCESS_TTL" default:"15m"`
	RefreshTTL         time.Duration `envconfig:"REFRESH_TTL" default:"168h"`
	RefreshTokenPepper string        `envconfig:"REFRESH_TOKEN_PEPPER" default:"change-me-refresh-pepper"`
}

// FacilityConfig describes the museum's local zone, opening hours, slot grid and the
// experience policy table ("name:grid|window:capacity").
type FacilityConfig struct {
	Timezone    string   `envconfig:"FACILITY_TIMEZONE" default:"Europe/Rome"`
	OpeningTime string   `envconfig:"FACILITY_OPENING_TIME" default:"09:00"`
	LastSlot    string   `envconfig:"FACILITY_LAST_SLOT" default:"19:30"`
	SlotGrid    []string `envconfig:"FACILITY_SLOT_GRID" default:"09:00,10:30,12:00,15:00,16:30,18:00"`
	Experiences []string `envconfig:"EXPERIENCES" default:"guided_tour:grid:20,tour_tasting:grid:12"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	sections := []any{&cfg.App, &cfg.HTTP, &cfg.Database, &cfg.Auth, &cfg.Facility}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, err
		}
	}
	cfg.App.Env = strings.ToLower(strings.TrimSpace(cfg.App.Env))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Auth.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if _, err := cfg.Facility.Policy(); err != nil {
		return err
	}

	if cfg.App.IsProdLike() {
		if isEmptyOrDefault(cfg.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.Auth.RefreshTokenPepper, defaultRefreshTokenPepper) {
			return fmt.Errorf("in prod/release REFRESH_TOKEN_PEPPER must be set and not default")
		}
	}

	return nil
}

func (a AppConfig) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == "prod" || env == "production" || env == "release"
}

// Policy builds the slot policy table described by the facility settings.
func (f FacilityConfig) Policy() (*schedule.Policy, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(f.Timezone))
	if err != nil {
		return nil, fmt.Errorf("invalid FACILITY_TIMEZONE %q: %w", f.Timezone, err)
	}
	open, err := schedule.ParseTimeOfDay(f.OpeningTime)
	if err != nil {
		return nil, fmt.Errorf("invalid FACILITY_OPENING_TIME: %w", err)
	}
	last, err := schedule.ParseTimeOfDay(f.LastSlot)
	if err != nil {
		return nil, fmt.Errorf("invalid FACILITY_LAST_SLOT: %w", err)
	}
	grid, err := schedule.ParseGrid(f.SlotGrid)
	if err != nil {
		return nil, fmt.Errorf("invalid FACILITY_SLOT_GRID: %w", err)
	}
	exps, err := schedule.ParseExperiences(f.Experiences)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPERIENCES: %w", err)
	}

	return schedule.NewPolicy(schedule.Options{
		Location:    loc,
		Open:        open,
		LastSlot:    last,
		Grid:        grid,
		Experiences: exps,
	})
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
