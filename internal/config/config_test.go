package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "/login", config.GetLoginPath())
	assert.Equal(t, "/dashboard", config.GetHomePath())
	assert.Equal(t, 30*time.Second, config.Jivas.Timeout)
	assert.Equal(t, 8501, config.Server.Port)
	assert.Equal(t, "/metrics", config.Server.Metrics.Path)
	assert.Equal(t, DefaultSecret, config.GetSecret())
	assert.False(t, config.HasJivasHost())
	assert.Equal(t, "http://localhost:8501", config.GetLocalServerUrl())
	assert.NoError(t, config.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
jivas:
  host: http://jivas.internal:8000/
  timeout: 5s
console:
  home_path: /agents
server:
  port: 9000
  limits:
    login_requests_per_minute: 3
logging:
  level: warn
  format: json
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://jivas.internal:8000", config.GetJivasHost())
	assert.Equal(t, 5*time.Second, config.Jivas.Timeout)
	assert.Equal(t, "/agents", config.GetHomePath())
	assert.Equal(t, "/login", config.GetLoginPath())
	assert.Equal(t, "0.0.0.0:9000", config.GetServerAddress())
	assert.Equal(t, 3, config.Server.Limits.LoginRequestsPerMinute)
	assert.NotNil(t, config.GetLogger())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "jivas:\n  host: http://from-file:8000\n")

	t.Setenv("JIVAS_HOST", "http://from-env:8000")
	t.Setenv("JIVAS_USER", "admin@jivas.com")
	t.Setenv("JVMANAGER_SERVER_PORT", "9100")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8000", config.GetJivasHost())
	assert.Equal(t, "admin@jivas.com", config.Jivas.User)
	assert.Equal(t, 9100, config.Server.Port)
}

func TestLoad_InvalidLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jvmanager.log")
	path := writeConfig(t, "logging:\n  output: "+logPath+"\n")

	_, err := Load(path)
	require.NoError(t, err)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	_, err = os.Stat(logPath)
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()

	config.Jivas.Host = "jivas.internal"
	assert.Error(t, config.Validate())

	config.Jivas.Host = "https://jivas.internal"
	assert.NoError(t, config.Validate())

	config.Console.LoginPath = "login"
	assert.Error(t, config.Validate())
}
