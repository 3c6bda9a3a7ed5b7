package config

import (
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Backend   BackendConfig   `yaml:"backend"`
	Scan      ScanConfig      `yaml:"scan"`
	Policy    PolicyConfig    `yaml:"policy"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + strconv.Itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort int    `yaml:"metrics_port"`
}

// BackendConfig describes the remote scanning service. The call is single-shot
// and hard-bounded by Timeout; there are no retries.
type BackendConfig struct {
	BaseURL  string        `yaml:"base_url"`
	ScanPath string        `yaml:"scan_path"`
	Timeout  time.Duration `yaml:"timeout"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	Enabled               bool          `yaml:"enabled"`
	FailureThreshold      int           `yaml:"failure_threshold"`
	RecoveryProbeInterval time.Duration `yaml:"recovery_probe_interval"`
}

// ScanConfig carries gateway-side scan defaults forwarded to the backend when
// a request supplies none of its own.
type ScanConfig struct {
	DefaultBannedSubstrings []string `yaml:"default_banned_substrings"`
	DefaultRegexPatterns    []string `yaml:"default_regex_patterns"`
	MaxPromptBytes          int      `yaml:"max_prompt_bytes"`
}

type PolicyConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "promptguard",
			User:            "promptguard",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
		Backend: BackendConfig{
			BaseURL:  "http://localhost:8000",
			ScanPath: "/scan/comprehensive",
			Timeout:  3 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:               true,
				FailureThreshold:      5,
				RecoveryProbeInterval: 15 * time.Second,
			},
		},
		Scan: ScanConfig{
			DefaultBannedSubstrings: []string{
				"Project Chimera",
				"Q4_Roadmap_Internal_Draft",
				"CONFIDENTIAL_DO_NOT_SHARE",
			},
			DefaultRegexPatterns: []string{
				`INTDOC-\d{6}-[A-Z]{3}`,
			},
			MaxPromptBytes: 1 << 20,
		},
		Policy: PolicyConfig{
			Enabled:           false,
			BundlePath:        "/etc/promptguard/policies",
			EvaluationTimeout: 100 * time.Millisecond,
		},
	}
}
