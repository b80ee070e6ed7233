// Package config reads process settings from the environment (optionally
// seeded from a .env file) and the YAML gateway file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Name string
	Env  string
}

type APIConfig struct {
	Host string
	Port string
}

// Addr is the listen address of the HTTP server.
func (c APIConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the libpq keyword/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GatewaysConfig points at the YAML file describing gateways, active hours
// and verification settings.
type GatewaysConfig struct {
	File string
}

// QueueConfig names the Redis work queue and caps each unqueued scan.
type QueueConfig struct {
	Key       string
	ScanLimit int
}

// SchedulerConfig drives the periodic maintenance tick.
type SchedulerConfig struct {
	Interval     time.Duration
	BatchTimeout time.Duration
}

// WorkerConfig sizes the pool that drains the work queue.
type WorkerConfig struct {
	Enabled           bool
	BatchSize         int
	MaxWorkers        int
	PerMessageTimeout time.Duration
}

type Config struct {
	App       AppConfig
	API       APIConfig
	DB        DBConfig
	Redis     RedisConfig
	Gateways  GatewaysConfig
	Queue     QueueConfig
	Scheduler SchedulerConfig
	Worker    WorkerConfig
}

// New loads .env when present and reads every section from the
// environment. Unparsable numbers and durations fall back to defaults.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "sms-framework"),
			Env:  getEnv("APP_ENV", "development"),
		},
		API: APIConfig{
			Host: getEnv("API_HOST", "0.0.0.0"),
			Port: getEnv("API_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "db"),
			Port:     getInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", "123456"),
			Name:     getEnv("DB_NAME", "db_sms"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Gateways: GatewaysConfig{
			File: getEnv("GATEWAYS_FILE", "config/gateways.yaml"),
		},
		Queue: QueueConfig{
			Key:       getEnv("QUEUE_KEY", "sms:queue"),
			ScanLimit: getInt("QUEUE_SCAN_LIMIT", 100),
		},
		Scheduler: SchedulerConfig{
			Interval:     getDuration("SCHEDULER_INTERVAL", 5*time.Second),
			BatchTimeout: getDuration("SCHEDULER_BATCH_TIMEOUT", 30*time.Second),
		},
		Worker: WorkerConfig{
			Enabled:           isTruthy(getEnv("WORKER_ENABLED", "true")),
			BatchSize:         getInt("MESSAGE_BATCH_SIZE", 100),
			MaxWorkers:        getInt("MESSAGE_MAX_WORKERS", 4),
			PerMessageTimeout: getDuration("MESSAGE_PER_MESSAGE_TIMEOUT", 5*time.Second),
		},
	}
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if p, err := strconv.Atoi(c.API.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT %q is not a valid port", c.API.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT %d is not a valid port", c.DB.Port))
	}
	if c.Gateways.File == "" {
		errs = append(errs, errors.New("GATEWAYS_FILE is empty"))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("SCHEDULER_INTERVAL must be positive"))
	}
	if c.Scheduler.BatchTimeout <= 0 {
		errs = append(errs, errors.New("SCHEDULER_BATCH_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// PostgresDSN is shorthand for c.DB.DSN().
func (c *Config) PostgresDSN() string {
	return c.DB.DSN()
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func getInt(key string, def int) int {
	i, err := strconv.Atoi(getEnv(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return i
}

// getDuration accepts Go durations ("90s", "2m") and bare integers, which
// are read as seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
