package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/avkuzmin/gymcore/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the gymcore service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis address for one-time codes; empty means in-memory fallback
	RedisAddr string

	// AMQP broker for code delivery; empty means codes go to the log
	AmqpURL string

	// Secrets for signing JWT tokens
	// Access and refresh tokens are signed with separate keys and the keys
	// must differ
	AccessSecret  string
	RefreshSecret string

	// Environment
	Environment string

	// Allow the refresh cookie over plain http, local runs only
	InsecureCookies bool
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setBool := func(o *bool) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value == "true" || value == "1"
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":      setString(&c.ListenAddr),
		"DATABASE_URI":     setString(&c.DatabaseDSN),
		"REDIS_ADDR":       setString(&c.RedisAddr),
		"AMQP_URL":         setString(&c.AmqpURL),
		"ACCESS_SECRET":    setString(&c.AccessSecret),
		"REFRESH_SECRET":   setString(&c.RefreshSecret),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"ENVIRONMENT":      setString(&c.Environment),
		"INSECURE_COOKIES": setBool(&c.InsecureCookies),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("gymcore", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "Redis address for one-time codes")
	fs.StringVar(&c.AmqpURL, "amqp", c.AmqpURL, "AMQP broker url for code delivery")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret key for access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret key for refresh tokens")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.BoolVar(&c.InsecureCookies, "insecure-cookies", c.InsecureCookies, "Allow refresh cookie over plain http")

	return fs.Parse(args)
}

// Validate checks the options that have no usable defaults
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database DSN is required")
	case c.AccessSecret == "":
		return errors.New("access token secret is required")
	case c.RefreshSecret == "":
		return errors.New("refresh token secret is required")
	case c.AccessSecret == c.RefreshSecret:
		return errors.New("access and refresh token secrets must differ")
	}

	return nil
}
