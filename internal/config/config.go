package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config describes all runtime settings for the server.
//
// Loaded once in main, validated, then passed down explicitly.
type Config struct {
	Env string `env:"APP_ENV" envDefault:"dev"` // dev|stage|prod

	Log struct {
		Format string `env:"LOG_FORMAT" envDefault:"text"` // text|json
		Level  string `env:"LOG_LEVEL" envDefault:"info"`  // debug|info|warn|error
	}

	HTTP struct {
		Port              string        `env:"PORT" envDefault:"9449"`
		Addr              string        `env:"HTTP_ADDR"` // defaults to ":"+PORT
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
		ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"0s"`
		WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`
		IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
		MaxBodyBytes      int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	}

	// Redis is optional; an empty Addr disables event publishing.
	Redis struct {
		Addr           string `env:"REDIS_ADDR"`
		DB             int    `env:"REDIS_DB" envDefault:"0"`
		Channel        string `env:"REDIS_CHANNEL" envDefault:"arena:events"`
		ConnectRetries int    `env:"REDIS_CONNECT_RETRIES" envDefault:"5"`
	}

	Arena struct {
		SeedSample bool `env:"SEED_SAMPLE" envDefault:"false"`
	}

	Feed struct {
		Buffer int `env:"FEED_BUFFER" envDefault:"64"`
	}
}

// LoadFromEnv reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadFromEnv(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":" + c.HTTP.Port
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("HTTP addr is empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL=%q (want debug|info|warn|error)", c.Log.Level)
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		return errors.New("REDIS_CHANNEL is empty")
	}
	if c.Redis.ConnectRetries < 0 {
		return fmt.Errorf("REDIS_CONNECT_RETRIES must be >= 0, got %d", c.Redis.ConnectRetries)
	}
	if c.Feed.Buffer <= 0 {
		return fmt.Errorf("FEED_BUFFER must be positive, got %d", c.Feed.Buffer)
	}
	return nil
}
