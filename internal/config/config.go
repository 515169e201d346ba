package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Auth    AuthConfig
	Log     LogConfig
	Redis   RedisConfig
	Storage StorageConfig
	Notify  NotifyConfig
}

type AppConfig struct {
	Port           string
	GinMode        string
	ClientURL      string
	AllowedOrigins string
}

type DBConfig struct {
	// postgres, pq, mysql or sqlite
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieDomain string
}

type LogConfig struct {
	Level  string
	Format string
}

type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type NotifyConfig struct {
	Timeout time.Duration
}

func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("REDIS_CHANNEL", "plank:events")
	v.SetDefault("MINIO_BUCKET", "plank-avatars")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("NOTIFY_TIMEOUT", "5s")

	v.AutomaticEnv()

	c := &Config{
		App: AppConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			ClientURL:      v.GetString("CLIENT_URL"),
			AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		},
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			TokenTTL:     v.GetDuration("JWT_TTL"),
			CookieDomain: v.GetString("DOMAIN"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			PublicURL: v.GetString("MINIO_PUBLIC_URL"),
		},
		Notify: NotifyConfig{
			Timeout: v.GetDuration("NOTIFY_TIMEOUT"),
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}

	switch c.DB.Driver {
	case "postgres", "pq", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
