package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings are process-level options read from the environment.
type Settings struct {
	Port         string        `env:"API_PORT" envDefault:"8080"`
	Env          string        `env:"API_ENV" envDefault:"development"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	BatteryDir   string        `env:"BATTERY_DIR" envDefault:"./examples/batteries"`
	CatalogFile  string        `env:"CATALOG_FILE" envDefault:"./data/catalog.json"`
	DataDir      string        `env:"DATA_DIR" envDefault:"./data"`
	SolveTimeout time.Duration `env:"SOLVE_TIMEOUT" envDefault:"60s"`

	// Result caching is for local development; it is ignored in production.
	CacheEnabled bool          `env:"ENABLE_RESULT_CACHE" envDefault:"false"`
	CacheTTL     time.Duration `env:"RESULT_CACHE_TTL" envDefault:"1h"`

	// CORSOrigins empty means allow all origins.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Workers bounds concurrent solves in sweeps; zero means GOMAXPROCS.
	Workers int `env:"SWEEP_WORKERS" envDefault:"0"`

	// CatalogSchedule is a cron spec for rescanning DataDir into CatalogFile;
	// empty leaves the catalog alone.
	CatalogSchedule string `env:"CATALOG_SCHEDULE"`
}

// LoadSettings reads Settings from the environment. Each dotenv file that
// exists is loaded first; variables already set in the process win.
func LoadSettings(dotenv ...string) (Settings, error) {
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	s, err := env.ParseAs[Settings]()
	if err != nil {
		return Settings{}, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}

// Production reports whether API_ENV is production.
func (s Settings) Production() bool {
	return s.Env == "production"
}

// ResultCacheEnabled reports whether results may be cached in memory.
func (s Settings) ResultCacheEnabled() bool {
	return s.CacheEnabled && !s.Production()
}
