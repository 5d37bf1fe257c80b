package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` name the environment variable,
// `default:""` provides a value when it is unset.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Blob       BlobConfig
	Profile    ProfileConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"60s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
	// MaxUploadBytes bounds a whole multipart photo batch.
	MaxUploadBytes int64 `envconfig:"HTTP_SERVER_MAX_UPLOAD_BYTES" default:"104857600"`
}

type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL connection details and pool settings.
type PostgresConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" required:"true"`
	Port            string        `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" required:"true"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName          string        `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
	AutoMigrate     bool          `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// RedisConfig configures the seller profile cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

const (
	BlobDriverLocal      = "local"
	BlobDriverCloudinary = "cloudinary"
)

// BlobConfig selects where uploaded photos are kept.
type BlobConfig struct {
	Driver string `envconfig:"BLOB_DRIVER" default:"local"`

	LocalDir          string `envconfig:"BLOB_LOCAL_DIR" default:"./uploads"`
	LocalPublicPrefix string `envconfig:"BLOB_LOCAL_PUBLIC_PREFIX" default:"/uploads"`

	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `envconfig:"CLOUDINARY_FOLDER" default:"catalog"`
}

// ProfileConfig points at the user-profile service. An empty BaseURL serves
// listings without sellers.
type ProfileConfig struct {
	BaseURL  string        `envconfig:"PROFILE_SERVICE_URL"`
	Timeout  time.Duration `envconfig:"PROFILE_SERVICE_TIMEOUT" default:"2s"`
	CacheTTL time.Duration `envconfig:"PROFILE_CACHE_TTL" default:"5m"`
}

// Load reads the configuration from environment variables and checks the
// values envconfig cannot.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Blob.Driver = strings.ToLower(strings.TrimSpace(c.Blob.Driver))
	switch c.Blob.Driver {
	case BlobDriverLocal:
	case BlobDriverCloudinary:
		if c.Blob.CloudinaryCloudName == "" || c.Blob.CloudinaryAPIKey == "" || c.Blob.CloudinaryAPISecret == "" {
			return fmt.Errorf("invalid configuration: BLOB_DRIVER=cloudinary needs CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("invalid configuration: unknown BLOB_DRIVER %q", c.Blob.Driver)
	}
	if c.Postgres.MaxIdleConns > c.Postgres.MaxOpenConns {
		c.Postgres.MaxIdleConns = c.Postgres.MaxOpenConns
	}
	return nil
}
