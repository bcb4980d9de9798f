package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	HTTPPort    string `mapstructure:"HTTP_PORT"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	PostgresDSN   string `mapstructure:"POSTGRES_DSN"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	MinIOEndpoint   string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey  string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey  string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket     string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL     bool   `mapstructure:"MINIO_USE_SSL"`
	PublicBucketURL string `mapstructure:"PUBLIC_BUCKET_URL"`

	AuthMode       string `mapstructure:"AUTH_MODE"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AuthServiceURL string `mapstructure:"AUTH_SERVICE_URL"`
	AuthAPIKey     string `mapstructure:"AUTH_API_KEY"`

	RedisAddress  string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPEmail    string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	OTELEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogOutputFile string `mapstructure:"LOG_OUTPUT_FILE"`

	// MaxImageBytes caps each uploaded file before re-encoding.
	MaxImageBytes       int64         `mapstructure:"MAX_IMAGE_BYTES"`
	MaxImagesPerRequest int           `mapstructure:"MAX_IMAGES_PER_REQUEST"`
	// MaxImagePixels caps width*height, checked from the image header.
	MaxImagePixels      int64         `mapstructure:"MAX_IMAGE_PIXELS"`
	ImageQuality        int           `mapstructure:"IMAGE_QUALITY"`
	ThumbSize           int           `mapstructure:"THUMB_SIZE"`
	ReconcileInterval   time.Duration `mapstructure:"RECONCILE_INTERVAL"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "flog-it-listings")
	v.SetDefault("HTTP_PORT", "3000")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=flogit port=5432 sslmode=disable")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "flogit")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "listings")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("PUBLIC_BUCKET_URL", "")

	v.SetDefault("AUTH_MODE", AuthModeJWT)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("AUTH_SERVICE_URL", "")
	v.SetDefault("AUTH_API_KEY", "")

	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("NATS_URL", "")

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9093")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT_FILE", "stdout")

	v.SetDefault("MAX_IMAGE_BYTES", 1_000_000)
	v.SetDefault("MAX_IMAGES_PER_REQUEST", 10)
	v.SetDefault("MAX_IMAGE_PIXELS", 40_000_000)
	v.SetDefault("IMAGE_QUALITY", 80)
	v.SetDefault("THUMB_SIZE", 300)
	v.SetDefault("RECONCILE_INTERVAL", "0s")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://flogit.com.au")
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()
	return LoadFrom(viper.New())
}

// LoadFrom unmarshals configuration from v after applying defaults and
// enabling environment lookups. Exposed so tests can inject values.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.PublicBucketURL = strings.TrimRight(cfg.PublicBucketURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	case StoreDriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required when STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=jwt"))
		}
	case AuthModeRemote:
		if c.AuthServiceURL == "" {
			errs = append(errs, errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode))
	}

	if c.MinIOBucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required"))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_BYTES must be positive"))
	}
	if c.MaxImagesPerRequest <= 0 {
		errs = append(errs, errors.New("MAX_IMAGES_PER_REQUEST must be positive"))
	}
	if c.MaxImagePixels <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_PIXELS must be positive"))
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		errs = append(errs, errors.New("IMAGE_QUALITY must be between 1 and 100"))
	}
	if c.ThumbSize <= 0 {
		errs = append(errs, errors.New("THUMB_SIZE must be positive"))
	}
	if c.ReconcileInterval < 0 {
		errs = append(errs, errors.New("RECONCILE_INTERVAL cannot be negative"))
	}

	return errors.Join(errs...)
}

// AllowedOrigins splits CORSAllowedOrigins on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// BucketBaseURL is the prefix every public object URL starts with. When
// PUBLIC_BUCKET_URL is unset it falls back to path-style MinIO URLs.
func (c *Config) BucketBaseURL() string {
	if c.PublicBucketURL != "" {
		return c.PublicBucketURL
	}
	scheme := "http"
	if c.MinIOUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, c.MinIOEndpoint, c.MinIOBucket)
}
