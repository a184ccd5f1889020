// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment
// variables, with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Bootstrap is the full service configuration tree.
type Bootstrap struct {
	Server  *Server
	Data    *Data
	PMS     *PMS
	Gateway *Gateway
	Queue   *Queue
	Breaker *Breaker
	Cache   *Cache
	Monitor *Monitor
	Log     *Log
}

// Server holds the transport configuration.
type Server struct {
	Http *ServerHTTP
}

// ServerHTTP holds the HTTP listener configuration.
type ServerHTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds the persistent store configuration.
type Data struct {
	Database *Database
	Redis    *Redis
}

// Database holds the MySQL job-store configuration.
type Database struct {
	Driver string
	Source string
}

// Redis holds the rate-limit window store configuration.
type Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// PMS holds the upstream Property Management System endpoint.
type PMS struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	HealthTimeout time.Duration
}

// Gateway holds the outbound messaging gateway endpoint.
type Gateway struct {
	BaseURL  string
	Token    string
	ProxyURL string
	Timeout  time.Duration
}

// Queue holds the outbound message queue policy.
type Queue struct {
	DispatchInterval time.Duration
	BatchSize        int
	RateLimit        int
	RateWindow       time.Duration
	MaxRetries       int
	Retention        time.Duration
}

// Breaker holds the default circuit breaker tuning, shared by every breaker
// name unless a caller overrides it at creation.
type Breaker struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	HalfOpenMaxCalls int
	Timeout          time.Duration
	MonitoringPeriod time.Duration
}

// Cache holds the PMS response cache sizing.
type Cache struct {
	MaxSize    int
	DefaultTTL time.Duration
}

// Monitor holds the operation monitoring thresholds.
type Monitor struct {
	SlowThreshold time.Duration
	HangTimeout   time.Duration
	SweepInterval time.Duration
}

// Log holds the logging configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies
// defaults, and allows overrides from environment variables prefixed with
// STAYBRIDGE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - MYSQL_DSN or STAYBRIDGE_DATA_DATABASE_SOURCE: MySQL connection string
//   - PMS_API_KEY or STAYBRIDGE_PMS_API_KEY: upstream PMS credential
//   - GATEWAY_TOKEN or STAYBRIDGE_GATEWAY_TOKEN: messaging gateway credential
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("STAYBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Direct environment variable names (without STAYBRIDGE_ prefix) for the
	// secrets that deployments already provide.
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "STAYBRIDGE_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "STAYBRIDGE_DATA_REDIS_ADDR")
	_ = v.BindEnv("pms.api_key", "PMS_API_KEY", "STAYBRIDGE_PMS_API_KEY")
	_ = v.BindEnv("gateway.token", "GATEWAY_TOKEN", "STAYBRIDGE_GATEWAY_TOKEN")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &ServerHTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		PMS: &PMS{
			BaseURL:       v.GetString("pms.base_url"),
			APIKey:        v.GetString("pms.api_key"),
			Timeout:       v.GetDuration("pms.timeout"),
			HealthTimeout: v.GetDuration("pms.health_timeout"),
		},
		Gateway: &Gateway{
			BaseURL:  v.GetString("gateway.base_url"),
			Token:    v.GetString("gateway.token"),
			ProxyURL: v.GetString("gateway.proxy_url"),
			Timeout:  v.GetDuration("gateway.timeout"),
		},
		Queue: &Queue{
			DispatchInterval: v.GetDuration("queue.dispatch_interval"),
			BatchSize:        v.GetInt("queue.batch_size"),
			RateLimit:        v.GetInt("queue.rate_limit"),
			RateWindow:       v.GetDuration("queue.rate_window"),
			MaxRetries:       v.GetInt("queue.max_retries"),
			Retention:        v.GetDuration("queue.retention"),
		},
		Breaker: &Breaker{
			FailureThreshold: v.GetInt("breaker.failure_threshold"),
			RecoveryTimeout:  v.GetDuration("breaker.recovery_timeout"),
			HalfOpenMaxCalls: v.GetInt("breaker.half_open_max_calls"),
			Timeout:          v.GetDuration("breaker.timeout"),
			MonitoringPeriod: v.GetDuration("breaker.monitoring_period"),
		},
		Cache: &Cache{
			MaxSize:    v.GetInt("cache.max_size"),
			DefaultTTL: v.GetDuration("cache.default_ttl"),
		},
		Monitor: &Monitor{
			SlowThreshold: v.GetDuration("monitor.slow_threshold"),
			HangTimeout:   v.GetDuration("monitor.hang_timeout"),
			SweepInterval: v.GetDuration("monitor.sweep_interval"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", time.Minute)

	v.SetDefault("data.database.driver", "mysql")
	// data.database.source (MYSQL_DSN) is required from environment.

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	v.SetDefault("pms.timeout", 10*time.Second)
	v.SetDefault("pms.health_timeout", 3*time.Second)

	v.SetDefault("gateway.timeout", 15*time.Second)

	v.SetDefault("queue.dispatch_interval", 5*time.Second)
	v.SetDefault("queue.batch_size", 10)
	v.SetDefault("queue.rate_limit", 10)
	v.SetDefault("queue.rate_window", time.Minute)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.retention", 7*24*time.Hour)

	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.recovery_timeout", 30*time.Second)
	v.SetDefault("breaker.half_open_max_calls", 2)
	v.SetDefault("breaker.timeout", 10*time.Second)
	v.SetDefault("breaker.monitoring_period", time.Minute)

	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.default_ttl", 5*time.Minute)

	v.SetDefault("monitor.slow_threshold", 3*time.Second)
	v.SetDefault("monitor.hang_timeout", 2*time.Minute)
	v.SetDefault("monitor.sweep_interval", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present.
// It returns an error listing every missing required field.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}

	if bc.PMS == nil || bc.PMS.BaseURL == "" {
		missingFields = append(missingFields, "pms.base_url")
	}
	if bc.PMS == nil || bc.PMS.APIKey == "" {
		missingFields = append(missingFields, "pms.api_key (PMS_API_KEY)")
	}

	if bc.Gateway == nil || bc.Gateway.BaseURL == "" {
		missingFields = append(missingFields, "gateway.base_url")
	}
	if bc.Gateway == nil || bc.Gateway.Token == "" {
		missingFields = append(missingFields, "gateway.token (GATEWAY_TOKEN)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	return nil
}
