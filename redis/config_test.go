package redis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firebrand/go-firebrand-common/errhandling"
	"github.com/firebrand/go-firebrand-common/logger"
)

const testConfigYAML = `
FBRedis:
  Connections:
    Default:
      AllowAdmin: true
      EndPoints:
        - Host: cache.internal
        - Host: 10.0.0.7
          Port: 6380
    Sessions:
      DatabaseCount: 4
      DefaultDatabase: 2
      ConnectTimeout: 250
      ConnectRetry: 0
      KeepAlive: 30
      Password: secret
      Ssl: true
      SslHost: sessions.example.com
      ClientName: sessions-api
      EndPoints:
        - HostPort: "[::1]:6390"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "redis.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))
	return filename
}

func TestLoadConfiguration(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(writeConfig(t, testConfigYAML))
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfiguration(v)
	require.NoError(t, err)
	require.Len(t, cfg.Connections, 2)

	// configuration keys are case-insensitive and come back lower-cased
	def, ok := cfg.Connections["default"]
	require.True(t, ok)
	assert.Nil(t, def.DefaultDatabase)
	assert.True(t, def.AllowAdmin)
	// two endpoints make a cluster
	assert.Equal(t, ClusterDatabaseCount, def.DatabaseCount)
	assert.Equal(t, DefaultTimeoutMillis, def.ConnectTimeout)
	assert.Equal(t, DefaultTimeoutMillis, def.SyncTimeout)
	assert.Equal(t, DefaultTimeoutMillis, def.AsyncTimeout)
	assert.Equal(t, DefaultConnectRetry, def.ConnectRetry)
	assert.Equal(t, DefaultKeepAliveSecs, def.KeepAlive)
	assert.False(t, def.AbortOnConnectFail)
	assert.Equal(t, []string{"cache.internal:6379", "10.0.0.7:6380"}, def.addresses())

	sessions := cfg.Connections["sessions"]
	require.NotNil(t, sessions.DefaultDatabase)
	assert.Equal(t, 2, *sessions.DefaultDatabase)
	assert.Equal(t, 4, sessions.DatabaseCount)
	assert.Equal(t, 250, sessions.ConnectTimeout)
	assert.Equal(t, 0, sessions.ConnectRetry)
	assert.Equal(t, 30, sessions.KeepAlive)
	assert.Equal(t, "secret", sessions.Password)
	assert.True(t, sessions.Ssl)
	assert.Equal(t, "sessions.example.com", sessions.SslHost)
	assert.Equal(t, "sessions-api", sessions.ClientName)
	assert.Equal(t, []string{"[::1]:6390"}, sessions.addresses())
}

func TestLoadConfigurationEmpty(t *testing.T) {
	cfg, err := LoadConfiguration(viper.New())
	require.NoError(t, err)
	assert.Empty(t, cfg.Connections)
}

func TestConfigurationFromEnvOrFatal(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	t.Setenv(ConfigFileEnv, writeConfig(t, testConfigYAML))
	cfg := ConfigurationFromEnvOrFatal(logger.Sugar)
	assert.Len(t, cfg.Connections, 2)

	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Panics(t, func() { ConfigurationFromEnvOrFatal(logger.Sugar) })
}

func TestEndPointAddress(t *testing.T) {
	tests := []struct {
		name     string
		ep       EndPoint
		expected string
	}{
		{"host default port", EndPoint{Host: "redis"}, "redis:6379"},
		{"host and port", EndPoint{Host: "redis", Port: 7000}, "redis:7000"},
		{"ipv6", EndPoint{Host: "::1", Port: 7000}, "[::1]:7000"},
		{"hostport wins", EndPoint{Host: "ignored", Port: 1, HostPort: "redis:7001"}, "redis:7001"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.ep.Address())
		})
	}
}

func TestValidate(t *testing.T) {
	outOfRange := 16
	one := 1
	cluster := []EndPoint{{Host: "redis-0"}, {Host: "redis-1"}}

	tests := []struct {
		name     string
		cfg      ConnectionConfiguration
		err      error
		property string
	}{
		{
			name: "no endpoints",
			cfg:  ConnectionConfiguration{},
			err:  ErrEndPointNotFound,
		},
		{
			name:     "endpoint without host",
			cfg:      ConnectionConfiguration{EndPoints: []EndPoint{{Port: 6379}}},
			err:      &errhandling.ConfigurationError{},
			property: "Host",
		},
		{
			name:     "bad hostport",
			cfg:      ConnectionConfiguration{EndPoints: []EndPoint{{HostPort: "redis"}}},
			err:      &errhandling.ConfigurationError{},
			property: "HostPort",
		},
		{
			name: "default database out of range",
			cfg: ConnectionConfiguration{
				DefaultDatabase: &outOfRange,
				EndPoints:       []EndPoint{{Host: "redis"}},
			},
			err:      &errhandling.ConfigurationError{},
			property: "DefaultDatabase",
		},
		{
			name:     "cluster with numbered databases",
			cfg:      ConnectionConfiguration{DatabaseCount: DefaultDatabaseCount, EndPoints: cluster},
			err:      &errhandling.ConfigurationError{},
			property: "DatabaseCount",
		},
		{
			name:     "cluster default database",
			cfg:      ConnectionConfiguration{DefaultDatabase: &one, EndPoints: cluster},
			err:      &errhandling.ConfigurationError{},
			property: "DefaultDatabase",
		},
		{
			name: "valid",
			cfg:  ConnectionConfiguration{EndPoints: []EndPoint{{Host: "redis"}}},
		},
		{
			name: "valid cluster",
			cfg:  ConnectionConfiguration{EndPoints: cluster},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.withDefaults().validate()
			if test.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.err)
			if test.property != "" {
				var ce *errhandling.ConfigurationError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, test.property, ce.Property)
			}
		})
	}
}
