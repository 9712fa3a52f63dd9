package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the application configuration structure
type Config struct {
	Jivas   JivasConfig   `mapstructure:"jivas"`
	Console ConsoleConfig `mapstructure:"console"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Secret  string        `mapstructure:"secret"` // Secret used for signing session cookies

	logger *ConsoleLogger
}

// JivasConfig points at the platform the console manages.
type JivasConfig struct {
	Host     string        `mapstructure:"host"`
	User     string        `mapstructure:"user"`     // Prefills the login form
	Password string        `mapstructure:"password"` // Used by non-interactive CLI logins
	Timeout  time.Duration `mapstructure:"timeout"`

	// How often the server probes the platform's /healthz
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type ConsoleConfig struct {
	LoginPath       string `mapstructure:"login_path"`
	HomePath        string `mapstructure:"home_path"`
	CredentialsFile string `mapstructure:"credentials_file"`
	GraphURL        string `mapstructure:"graph_url"` // Graph viewer embedded on /graph
}

type ServerConfig struct {
	Host     string             `mapstructure:"host"`
	Port     int                `mapstructure:"port"`
	Limits   ServerLimitsConfig `mapstructure:"limits"`
	Metrics  MetricsConfig      `mapstructure:"metrics"`
	Health   HealthConfig       `mapstructure:"health"`
	Ready    ReadyConfig        `mapstructure:"ready"`
	Security SecurityConfig     `mapstructure:"security"`
}

type ServerLimitsConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Applied to POST /login only
	LoginRequestsPerMinute int `mapstructure:"login_requests_per_minute"`
	LoginBurst             int `mapstructure:"login_burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ReadyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`

	// Mark session cookies Secure; enable behind TLS
	SecureCookies bool `mapstructure:"secure_cookies"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

func (c *Config) GetSecret() string {
	return c.Secret
}

// GetServerAddress returns the server bind address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetLocalServerUrl() string {
	hostname := c.Server.Host
	if hostname == "0.0.0.0" {
		hostname = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", hostname, c.Server.Port)
}

func (c *Config) GetJivasHost() string {
	return strings.TrimRight(strings.TrimSpace(c.Jivas.Host), "/")
}

func (c *Config) HasJivasHost() bool {
	return len(c.GetJivasHost()) > 0
}

func (c *Config) GetLoginPath() string {
	if len(c.Console.LoginPath) > 0 {
		return c.Console.LoginPath
	}
	return "/login"
}

func (c *Config) GetHomePath() string {
	if len(c.Console.HomePath) > 0 {
		return c.Console.HomePath
	}
	return "/dashboard"
}

// GetLogger returns the in-memory log buffer installed by Load. It is nil
// for configs that were not loaded.
func (c *Config) GetLogger() *ConsoleLogger {
	return c.logger
}
