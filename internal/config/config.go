package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL string `yaml:"database_url"`
	Driver      string `yaml:"driver"`
	Addr        string `yaml:"addr"`
	AMQPURL     string `yaml:"amqp_url"`
	EventsQueue string `yaml:"events_queue"`
	Telemetry   string `yaml:"telemetry"`
	SeedDir     string `yaml:"seed_dir"`
}

type Flags struct {
	URL       string
	Driver    string
	Addr      string
	AMQPURL   string
	Telemetry string
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.DatabaseURL = expandEnv(cfg.DatabaseURL)
	cfg.Driver = expandEnv(cfg.Driver)
	cfg.Addr = expandEnv(cfg.Addr)
	cfg.AMQPURL = expandEnv(cfg.AMQPURL)
	cfg.EventsQueue = expandEnv(cfg.EventsQueue)
	cfg.Telemetry = expandEnv(cfg.Telemetry)
	cfg.SeedDir = expandEnv(cfg.SeedDir)

	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to an empty config.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return Load(path)
}

// GetDatabaseURL resolves the DSN: flag, config file, DATABASE_URL, then the
// DB_USER/DB_PASSWORD/DB_HOST/DB_PORT/DB_NAME variables.
func (c *Config) GetDatabaseURL(flags *Flags) (string, error) {
	if flags != nil && flags.URL != "" {
		return flags.URL, nil
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if user == "" || name == "" {
		return "", fmt.Errorf("database_url is required (set in config, DATABASE_URL, DB_* variables or pass --url flag)")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return dsn.String(), nil
}

// GetDriver returns "postgres" (lib/pq) or "pgx".
func (c *Config) GetDriver(flags *Flags) string {
	if flags != nil && flags.Driver != "" {
		return flags.Driver
	}
	if c.Driver != "" {
		return c.Driver
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		return v
	}
	return "postgres"
}

func (c *Config) GetAddr(flags *Flags) string {
	if flags != nil && flags.Addr != "" {
		return flags.Addr
	}
	if c.Addr != "" {
		return c.Addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

// GetAMQPURL returns an empty string when RabbitMQ is not configured.
func (c *Config) GetAMQPURL(flags *Flags) string {
	if flags != nil && flags.AMQPURL != "" {
		return flags.AMQPURL
	}
	if c.AMQPURL != "" {
		return c.AMQPURL
	}
	return os.Getenv("AMQP_URL")
}

func (c *Config) GetEventsQueue() string {
	if c.EventsQueue != "" {
		return c.EventsQueue
	}
	return "lunchly_events"
}

// GetTelemetry returns "stdout" or "none".
func (c *Config) GetTelemetry(flags *Flags) string {
	if flags != nil && flags.Telemetry != "" {
		return flags.Telemetry
	}
	if c.Telemetry != "" {
		return c.Telemetry
	}
	if v := os.Getenv("TELEMETRY"); v != "" {
		return v
	}
	return "none"
}

func (c *Config) GetSeedDir() string {
	if c.SeedDir != "" {
		return c.SeedDir
	}
	return "seed"
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return os.ExpandEnv(s)
}
