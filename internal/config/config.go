// Package config loads server configuration from an optional YAML file,
// a .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"

	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/filestore"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Server struct {
		Port         int      `yaml:"port"`
		AllowOrigins []string `yaml:"allowOrigins"`
	} `yaml:"server"`

	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`

	Database Database `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Files struct {
		Root        string `yaml:"root"`
		BucketID    string `yaml:"bucketId"`
		MaxFileSize int64  `yaml:"maxFileSize"`
	} `yaml:"files"`

	Auth struct {
		JWTSecret string        `yaml:"jwtSecret"`
		TokenTTL  time.Duration `yaml:"tokenTTL"`
	} `yaml:"auth"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rateLimit"`
}

type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a key/value connection string accepted by both lib/pq and pgx.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Default returns a configuration that runs against the in-memory store.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.AllowOrigins = []string{"*"}
	cfg.Store.Driver = DriverMemory
	cfg.Database.Port = "5432"
	cfg.Database.SSLMode = "disable"
	cfg.Mongo.Database = "qaforum"
	cfg.Files.Root = "uploads"
	cfg.Files.BucketID = "question-attachment"
	cfg.Files.MaxFileSize = 10 << 20
	cfg.Auth.TokenTTL = 72 * time.Hour
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.RateLimit.RPS = 5
	cfg.RateLimit.Burst = 10
	return &cfg
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowOrigins = splitList(v)
	}
	setString(&c.Store.Driver, "STORE_DRIVER")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")

	setString(&c.Files.Root, "FILES_ROOT")
	setString(&c.Files.BucketID, "FILES_BUCKET_ID")
	if v := os.Getenv("FILES_MAX_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FILES_MAX_SIZE %q: %w", v, err)
		}
		c.Files.MaxFileSize = n
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = d
	}

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.RateLimit.RPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		c.RateLimit.Burst = n
	}
	return nil
}

// Validate checks the keys required by the selected store driver.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return errors.New("DB_HOST, DB_NAME and DB_USER required for postgres driver")
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGO_URI required for mongo driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Files.BucketID == "" || c.Files.Root == "" {
		return errors.New("files root and bucket id required")
	}
	return nil
}

// Presence reports which integration settings are configured without
// leaking their values.
func (c *Config) Presence() map[string]bool {
	return map[string]bool{
		"hasDatabase":  c.Database.Host != "",
		"hasMongo":     c.Mongo.URI != "",
		"hasJWTSecret": c.Auth.JWTSecret != "",
		"hasBucketId":  c.Files.BucketID != "",
	}
}

// AttachmentBucket describes the bucket questions attach images to.
func (c *Config) AttachmentBucket() store.Bucket {
	return store.Bucket{
		ID:                c.Files.BucketID,
		AllowedExtensions: filestore.AttachmentExtensions,
		MaxFileSize:       c.Files.MaxFileSize,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
