package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/staybridge")
	t.Setenv("PMS_API_KEY", "test-pms-key")
	t.Setenv("GATEWAY_TOKEN", "test-gateway-token")
}

func TestNewBootstrap_Defaults(t *testing.T) {
	configPath := writeConfig(t, `server:
  http:
    addr: :8080
pms:
  base_url: https://pms.example.com/api
gateway:
  base_url: https://gateway.example.com/v1
`)
	setRequiredEnv(t)

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, "tcp", bc.Server.Http.Network)
	assert.Equal(t, time.Minute, bc.Server.Http.Timeout.AsDuration())

	assert.Equal(t, "mysql", bc.Data.Database.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/staybridge", bc.Data.Database.Source)
	assert.Equal(t, "127.0.0.1:6379", bc.Data.Redis.Addr)
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.ReadTimeout.AsDuration())

	assert.Equal(t, "https://pms.example.com/api", bc.PMS.BaseURL)
	assert.Equal(t, "test-pms-key", bc.PMS.APIKey)
	assert.Equal(t, 10*time.Second, bc.PMS.Timeout)
	assert.Equal(t, 3*time.Second, bc.PMS.HealthTimeout)

	assert.Equal(t, "test-gateway-token", bc.Gateway.Token)
	assert.Equal(t, 15*time.Second, bc.Gateway.Timeout)

	assert.Equal(t, 5*time.Second, bc.Queue.DispatchInterval)
	assert.Equal(t, 10, bc.Queue.BatchSize)
	assert.Equal(t, 10, bc.Queue.RateLimit)
	assert.Equal(t, time.Minute, bc.Queue.RateWindow)
	assert.Equal(t, 5, bc.Queue.MaxRetries)
	assert.Equal(t, 7*24*time.Hour, bc.Queue.Retention)

	assert.Equal(t, 5, bc.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, bc.Breaker.RecoveryTimeout)
	assert.Equal(t, 2, bc.Breaker.HalfOpenMaxCalls)

	assert.Equal(t, 1000, bc.Cache.MaxSize)
	assert.Equal(t, 2*time.Minute, bc.Monitor.HangTimeout)

	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
}

func TestNewBootstrap_EnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envKey  string
		envVal  string
		checked func(*Bootstrap) bool
	}{
		{
			name:   "override_http_addr",
			envKey: "STAYBRIDGE_SERVER_HTTP_ADDR",
			envVal: ":9999",
			checked: func(bc *Bootstrap) bool {
				return bc.Server.Http.Addr == ":9999"
			},
		},
		{
			name:   "override_redis_addr",
			envKey: "STAYBRIDGE_DATA_REDIS_ADDR",
			envVal: "redis.example.com:6379",
			checked: func(bc *Bootstrap) bool {
				return bc.Data.Redis.Addr == "redis.example.com:6379"
			},
		},
		{
			name:   "override_log_level",
			envKey: "STAYBRIDGE_LOG_LEVEL",
			envVal: "debug",
			checked: func(bc *Bootstrap) bool {
				return bc.Log.Level == "debug"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, `pms:
  base_url: https://pms.example.com/api
gateway:
  base_url: https://gateway.example.com/v1
`)
			setRequiredEnv(t)
			t.Setenv(tt.envKey, tt.envVal)

			bc, err := NewBootstrap(configPath)
			require.NoError(t, err)
			assert.True(t, tt.checked(bc), "%s should override the default", tt.envKey)
		})
	}
}

func TestNewBootstrap_MissingRequired(t *testing.T) {
	tests := []struct {
		name          string
		envVars       map[string]string
		expectedError string
	}{
		{
			name: "missing_mysql_dsn",
			envVars: map[string]string{
				"PMS_API_KEY":   "k",
				"GATEWAY_TOKEN": "t",
			},
			expectedError: "data.database.source (MYSQL_DSN)",
		},
		{
			name: "missing_pms_api_key",
			envVars: map[string]string{
				"MYSQL_DSN":     "user:pass@tcp(localhost:3306)/staybridge",
				"GATEWAY_TOKEN": "t",
			},
			expectedError: "pms.api_key (PMS_API_KEY)",
		},
		{
			name: "missing_gateway_token",
			envVars: map[string]string{
				"MYSQL_DSN":   "user:pass@tcp(localhost:3306)/staybridge",
				"PMS_API_KEY": "k",
			},
			expectedError: "gateway.token (GATEWAY_TOKEN)",
		},
		{
			name:          "missing_all_required",
			envVars:       map[string]string{},
			expectedError: "missing required configuration fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, `pms:
  base_url: https://pms.example.com/api
gateway:
  base_url: https://gateway.example.com/v1
`)

			os.Unsetenv("MYSQL_DSN")
			os.Unsetenv("STAYBRIDGE_DATA_DATABASE_SOURCE")
			os.Unsetenv("PMS_API_KEY")
			os.Unsetenv("STAYBRIDGE_PMS_API_KEY")
			os.Unsetenv("GATEWAY_TOKEN")
			os.Unsetenv("STAYBRIDGE_GATEWAY_TOKEN")

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			bc, err := NewBootstrap(configPath)
			assert.Error(t, err)
			assert.Nil(t, bc)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestNewBootstrap_ConfigFileNotFound(t *testing.T) {
	setRequiredEnv(t)

	bc, err := NewBootstrap("/non/existent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNewBootstrap_PriorityOrder(t *testing.T) {
	configPath := writeConfig(t, `server:
  http:
    addr: :7777
pms:
  base_url: https://pms.example.com/api
gateway:
  base_url: https://gateway.example.com/v1
`)
	setRequiredEnv(t)
	t.Setenv("STAYBRIDGE_SERVER_HTTP_ADDR", ":8888")

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	assert.Equal(t, ":8888", bc.Server.Http.Addr, "environment variable should override config file")
}

func TestValidate_AllFieldsPresent(t *testing.T) {
	bc := &Bootstrap{
		Data: &Data{
			Database: &Database{Driver: "mysql", Source: "user:pass@tcp(localhost:3306)/staybridge"},
			Redis:    &Redis{Addr: "127.0.0.1:6379"},
		},
		PMS:     &PMS{BaseURL: "https://pms.example.com/api", APIKey: "k"},
		Gateway: &Gateway{BaseURL: "https://gateway.example.com/v1", Token: "t"},
	}

	assert.NoError(t, Validate(bc))
}

func TestValidate_EmptyBootstrap(t *testing.T) {
	err := Validate(&Bootstrap{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required configuration fields")
}
