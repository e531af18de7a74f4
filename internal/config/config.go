// Package config loads server settings from the environment and the command line.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"

	"ttts/pkg/logger"
)

// DefaultPort is used when neither the command line nor TTTS_PORT names one.
const DefaultPort = "15000"

// DefaultWriteTimeout bounds a single frame write to a client that has
// stopped reading.
const DefaultWriteTimeout = 10 * time.Second

// Config holds everything the server binary needs at start-up.
type Config struct {
	Host         string        `mapstructure:"TTTS_HOST"`
	Port         string        `mapstructure:"TTTS_PORT"`
	LogLevel     string        `mapstructure:"TTTS_LOG_LEVEL"`
	LogFile      string        `mapstructure:"TTTS_LOG_FILE"`
	IdleTimeout  time.Duration `mapstructure:"TTTS_IDLE_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"TTTS_WRITE_TIMEOUT"`
}

var keys = []string{
	"TTTS_HOST",
	"TTTS_PORT",
	"TTTS_LOG_LEVEL",
	"TTTS_LOG_FILE",
	"TTTS_IDLE_TIMEOUT",
	"TTTS_WRITE_TIMEOUT",
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		LogLevel:     "INFO",
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Load builds a Config from defaults, the optional TTTS_ENV_FILE dotenv file,
// the process environment and the positional arguments, in increasing order
// of precedence. args excludes the program name.
func Load(args []string) (*Config, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("usage: ttts [port]: got %d arguments", len(args))
	}

	if path, ok := os.LookupEnv("TTTS_ENV_FILE"); ok && path != "" {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}

	env := make(map[string]interface{})
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}

	cfg, err := FromMap(env)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 && args[0] != "" {
		cfg.Port = args[0]
	}
	return cfg, cfg.Validate()
}

// FromMap decodes loosely typed settings on top of Default.
func FromMap(values map[string]interface{}) (*Config, error) {
	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative: %s", c.IdleTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write timeout must not be negative: %s", c.WriteTimeout)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logger.LogLevel {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// Address is the host:port pair handed to the listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
