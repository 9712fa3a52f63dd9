package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/jivas-io/jvmanager/internal/common"
)

var ErrNoJivasHost = errors.New(
	"no Jivas host configured. Set jivas.host, JIVAS_HOST or pass --host")

// DefaultSecret signals that no session secret was configured.
const DefaultSecret = "change-me"

func DefaultConfig() *Config {
	v := viper.New()

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	setupViperConfig(v, configFile)
	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/jvmanager")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "jvmanager"))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix("JVMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
}

// bindEnvironmentVariables binds the variables the Jivas tooling already uses
// alongside the JVMANAGER_ prefixed ones.
func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("jivas.host", "JVMANAGER_JIVAS_HOST", "JIVAS_HOST")
	v.BindEnv("jivas.user", "JVMANAGER_JIVAS_USER", "JIVAS_USER")
	v.BindEnv("jivas.password", "JVMANAGER_JIVAS_PASSWORD", "JIVAS_PASSWORD")

	v.BindEnv("logging.level", "JVMANAGER_LOGGING_LEVEL")
	v.BindEnv("logging.format", "JVMANAGER_LOGGING_FORMAT")
	v.BindEnv("logging.output", "JVMANAGER_LOGGING_OUTPUT")

	v.BindEnv("secret", "JVMANAGER_SECRET")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Defaults and environment variables only
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)
	config.logger = NewConsoleLogger(defaultLogBufferSize)
	logrus.AddHook(config.logger)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	output, err := logOutput(config.Logging.Output)
	if err != nil {
		return err
	}
	logrus.SetOutput(output)

	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			if key == "secret" {
				continue
			}
			logrus.Debugf("Config '%s': %v\n", key, value)
		}
	}

	return nil
}

// logOutput resolves stdout, stderr or a file path to append to.
func logOutput(output string) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %s: %w", output, err)
	}
	return file, nil
}

// Validate checks the settings every front end depends on.
func (c *Config) Validate() error {
	if c.HasJivasHost() && !common.IsValidURL(c.GetJivasHost()) {
		return fmt.Errorf("jivas.host %q must be an http or https address", c.Jivas.Host)
	}
	if !strings.HasPrefix(c.GetLoginPath(), "/") {
		return fmt.Errorf("console.login_path %q must start with /", c.Console.LoginPath)
	}
	if !strings.HasPrefix(c.GetHomePath(), "/") {
		return fmt.Errorf("console.home_path %q must start with /", c.Console.HomePath)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Jivas platform defaults
	v.SetDefault("jivas.host", "")
	v.SetDefault("jivas.user", "")
	v.SetDefault("jivas.password", "")
	v.SetDefault("jivas.timeout", "30s")
	v.SetDefault("jivas.health_interval", "30s")

	// Console defaults
	v.SetDefault("console.login_path", "/login")
	v.SetDefault("console.home_path", "/dashboard")
	v.SetDefault("console.credentials_file", "")
	v.SetDefault("console.graph_url", "")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8501)

	// Metrics defaults
	v.SetDefault("server.metrics.enabled", true)
	v.SetDefault("server.metrics.path", "/metrics")
	v.SetDefault("server.metrics.namespace", "jvmanager")

	// Health defaults
	v.SetDefault("server.health.enabled", true)
	v.SetDefault("server.health.path", "/health")

	// Ready defaults
	v.SetDefault("server.ready.enabled", true)
	v.SetDefault("server.ready.path", "/ready")

	// Security defaults
	v.SetDefault("server.security.cors.allowed_origins", []string{"http://localhost:8501"})
	v.SetDefault("server.security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.security.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Requested-With", "X-Correlation-ID"})
	v.SetDefault("server.security.cors.max_age", 86400)
	v.SetDefault("server.security.secure_cookies", false)

	// Limits defaults
	v.SetDefault("server.limits.read_timeout", "30s")
	v.SetDefault("server.limits.write_timeout", "30s")
	v.SetDefault("server.limits.idle_timeout", "120s")
	v.SetDefault("server.limits.login_requests_per_minute", 10)
	v.SetDefault("server.limits.login_burst", 5)

	// Session defaults
	v.SetDefault("secret", DefaultSecret)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}
