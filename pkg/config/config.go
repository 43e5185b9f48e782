package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LODGEKEEP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "LODGEKEEP_APP_ENV"
	EnvLogLevel       = "LODGEKEEP_LOG_LEVEL"
	EnvStorageBackend = "LODGEKEEP_STORAGE_BACKEND"
	EnvDataDir        = "LODGEKEEP_DATA_DIR"
	EnvDBDSN          = "LODGEKEEP_DB_DSN"
	EnvDBDriver       = "LODGEKEEP_DB_DRIVER"
	EnvRedisURL       = "LODGEKEEP_REDIS_URL"
)

// Storage backends selectable through LODGEKEEP_STORAGE_BACKEND.
const (
	BackendFile   = "file"
	BackendGorm   = "gorm"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
}

// Load reads configuration from the environment, honoring a local .env file
// when one exists. There is no process entry point in this library, so dotenv
// loading happens here rather than in a main.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"LODGEKEEP_APP_ENV" default:"dev"`
	LogLevel string `envconfig:"LODGEKEEP_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Backend          string `envconfig:"LODGEKEEP_STORAGE_BACKEND" default:"file"`
	DataDir          string `envconfig:"LODGEKEEP_DATA_DIR" default:"."`
	CustomersFile    string `envconfig:"LODGEKEEP_CUSTOMERS_FILE" default:"customers.json"`
	HotelsFile       string `envconfig:"LODGEKEEP_HOTELS_FILE" default:"hotels.json"`
	ReservationsFile string `envconfig:"LODGEKEEP_RESERVATIONS_FILE" default:"reservations.json"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(s.Backend) {
	case BackendFile, BackendGorm, BackendRedis, BackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

type DBConfig struct {
	DSN    string `envconfig:"LODGEKEEP_DB_DSN"`
	Driver string `envconfig:"LODGEKEEP_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"LODGEKEEP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LODGEKEEP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LODGEKEEP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LODGEKEEP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LODGEKEEP_REDIS_URL"`
	Address      string        `envconfig:"LODGEKEEP_REDIS_ADDR"`
	Password     string        `envconfig:"LODGEKEEP_REDIS_PASSWORD"`
	DB           int           `envconfig:"LODGEKEEP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LODGEKEEP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LODGEKEEP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LODGEKEEP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LODGEKEEP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LODGEKEEP_REDIS_WRITE_TIMEOUT" default:"5s"`
}
