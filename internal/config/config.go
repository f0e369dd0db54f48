package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Record store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-api"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store    Store
	Postgres Postgres
	Redis    Redis
	Cache    Cache
	Import   Import
	CORS     CORS
}

// Store selects the record store backend.
type Store struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"postgres"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"trivia.db"`
	// SQLiteSeed loads the sample bank into an empty SQLite database.
	SQLiteSeed bool `env:"SQLITE_SEED" envDefault:"true"`
}

// Postgres captures connection info for the SQL database.
// Required only when Store.Driver is postgres.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the keyword/value connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache configuration. An empty Addr disables the cache.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Cache tunes the category cache.
type Cache struct {
	CategoryTTL time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"5m"`
}

// Import configures the background question importer.
type Import struct {
	Enabled        bool          `env:"IMPORT_ENABLED" envDefault:"true"`
	QueueSize      int           `env:"IMPORT_QUEUE_SIZE" envDefault:"8"`
	Timeout        time.Duration `env:"IMPORT_TIMEOUT" envDefault:"10s"`
	MaxAmount      int           `env:"IMPORT_MAX_AMOUNT" envDefault:"50"`
	HTTPTimeout    time.Duration `env:"IMPORT_HTTP_TIMEOUT" envDefault:"5s"`
	OpenTDBBaseURL string        `env:"OPENTDB_BASE_URL" envDefault:"https://opentdb.com"`
	OpenTDBOff     bool          `env:"OPENTDB_DISABLED" envDefault:"false"`
	TriviaAPIURL   string        `env:"TRIVIA_API_BASE_URL" envDefault:"https://the-trivia-api.com/api"`
	TriviaAPIKey   string        `env:"TRIVIA_API_KEY"`
	TriviaAPIOff   bool          `env:"TRIVIA_API_DISABLED" envDefault:"false"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadPostgres parses only the Postgres section. Used by the migrator.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.Parse(&pg); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, pg.validate()
}

func (c *App) validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if err := c.Postgres.validate(); err != nil {
			return err
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Import.QueueSize < 1 {
		return errors.New("IMPORT_QUEUE_SIZE must be positive")
	}
	if c.Import.MaxAmount < 1 {
		return errors.New("IMPORT_MAX_AMOUNT must be positive")
	}
	return nil
}

func (p Postgres) validate() error {
	var missing []error
	if p.User == "" {
		missing = append(missing, errors.New("PG_USER is required"))
	}
	if p.Password == "" {
		missing = append(missing, errors.New("PG_PASSWORD is required"))
	}
	if p.Database == "" {
		missing = append(missing, errors.New("PG_DATABASE is required"))
	}
	return errors.Join(missing...)
}
