package config

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/intake-api/internal/repository/postgres"
	"github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/messaging/redis"
)

const (
	DriverAppwrite = "appwrite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultConfigPaths are searched in order for config.yml
var DefaultConfigPaths = []string{".", "./config", "/app/config"}

// BackendConfig comes from the environment only
type BackendConfig struct {
	Endpoint                string `envconfig:"ENDPOINT" required:"true"`
	ProjectID               string `envconfig:"PROJECT_ID" required:"true"`
	APIKey                  string `envconfig:"API_KEY" required:"true"`
	DatabaseID              string `envconfig:"DATABASE_ID"`
	PatientCollectionID     string `envconfig:"PATIENT_COLLECTION_ID"`
	DoctorCollectionID      string `envconfig:"DOCTOR_COLLECTION_ID"`
	AppointmentCollectionID string `envconfig:"APPOINTMENT_COLLECTION_ID"`
	BucketID                string `envconfig:"BUCKET_ID"`
	AdminPasskey            string `envconfig:"ADMIN_PASSKEY"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	FileURLBase string `mapstructure:"file_url_base"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	TTL               time.Duration `mapstructure:"ttl"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type NotifierConfig struct {
	SMS           bool          `mapstructure:"sms"`
	SMTP          SMTPConfig    `mapstructure:"smtp"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type Config struct {
	Backend   BackendConfig   `mapstructure:"-"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("storage.driver", DriverAppwrite)
	v.SetDefault("storage.file_url_base", "/api/v1/files")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "intake")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 10)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.ttl", 10*time.Minute)

	v.SetDefault("notifier.sms", true)
	v.SetDefault("notifier.retry_attempts", 3)
	v.SetDefault("notifier.retry_delay", 2*time.Second)
	v.SetDefault("notifier.smtp.host", "")
	v.SetDefault("notifier.smtp.port", 587)
	v.SetDefault("notifier.smtp.username", "")
	v.SetDefault("notifier.smtp.password", "")
	v.SetDefault("notifier.smtp.from", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}

// Load reads .env, the backend environment and an optional config.yml
// found in paths (DefaultConfigPaths when none are given). INTAKE_
// variables override the file, e.g. INTAKE_SERVER_PORT.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Configuration("failed to read .env", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg.Backend); err != nil {
		return nil, errors.Configuration("missing backend environment", err)
	}

	if len(paths) == 0 {
		paths = DefaultConfigPaths
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.Configuration("failed to read config file", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Configuration("failed to decode config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations viper cannot express.
func (c *Config) Validate() error {
	if c.Backend.Endpoint == "" || c.Backend.ProjectID == "" || c.Backend.APIKey == "" {
		return errors.Configuration("ENDPOINT, PROJECT_ID and API_KEY must not be empty", nil)
	}
	switch c.Storage.Driver {
	case DriverAppwrite, DriverPostgres, DriverMemory:
	default:
		return errors.Configuration("storage.driver must be appwrite, postgres or memory", nil)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Configuration("server.port is out of range", nil)
	}
	return nil
}

func (c *DatabaseConfig) ToPostgresConfig() postgres.Config {
	return postgres.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
