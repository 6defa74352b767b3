package redis

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"

	env "github.com/firebrand/go-firebrand-common/environment"
	"github.com/firebrand/go-firebrand-common/errhandling"
)

const (
	// SectionKey is the configuration section holding every named connection.
	SectionKey = "FBRedis"
	// ConfigFileEnv names the file read by ConfigurationFromEnvOrFatal.
	ConfigFileEnv = "FBREDIS_CONFIG_FILE"

	DefaultPort           = 6379
	DefaultDatabaseCount  = 16
	ClusterDatabaseCount  = 1
	DefaultTimeoutMillis  = 5000
	DefaultConnectRetry   = 3
	DefaultKeepAliveSecs  = -1
	DefaultConnectionName = "Default"
)

// Configuration maps connection names to their settings. Names are
// case-insensitive.
type Configuration struct {
	Connections map[string]ConnectionConfiguration
}

// ConnectionConfiguration holds the settings of one named connection.
// Timeouts are in milliseconds, KeepAlive in seconds (-1 leaves the driver
// default).
type ConnectionConfiguration struct {
	DatabaseCount              int
	AbortOnConnectFail         bool
	ConnectTimeout             int
	SyncTimeout                int
	AsyncTimeout               int
	AllowAdmin                 bool
	ConnectRetry               int
	DefaultDatabase            *int
	KeepAlive                  int
	Password                   string
	Ssl                        bool
	SslHost                    string
	CheckCertificateRevocation bool
	ClientName                 string
	EndPoints                  []EndPoint
}

// EndPoint is either Host and Port or a single HostPort ("host:port").
type EndPoint struct {
	Host     string
	Port     int
	HostPort string
}

// DefaultConnectionConfiguration returns a configuration with every default
// applied and no endpoints.
func DefaultConnectionConfiguration() ConnectionConfiguration {
	return ConnectionConfiguration{
		DatabaseCount:  DefaultDatabaseCount,
		ConnectTimeout: DefaultTimeoutMillis,
		SyncTimeout:    DefaultTimeoutMillis,
		AsyncTimeout:   DefaultTimeoutMillis,
		ConnectRetry:   DefaultConnectRetry,
		KeepAlive:      DefaultKeepAliveSecs,
	}
}

// withDefaults fills the values for which zero is never meaningful.
func (c ConnectionConfiguration) withDefaults() ConnectionConfiguration {
	if c.DatabaseCount == 0 {
		c.DatabaseCount = DefaultDatabaseCount
		if c.isCluster() {
			c.DatabaseCount = ClusterDatabaseCount
		}
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultTimeoutMillis
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = DefaultTimeoutMillis
	}
	if c.AsyncTimeout == 0 {
		c.AsyncTimeout = DefaultTimeoutMillis
	}
	endPoints := make([]EndPoint, len(c.EndPoints))
	for i, ep := range c.EndPoints {
		if ep.Port == 0 {
			ep.Port = DefaultPort
		}
		endPoints[i] = ep
	}
	c.EndPoints = endPoints
	return c
}

// validate checks everything that can be checked without connecting.
func (c ConnectionConfiguration) validate() error {
	if len(c.EndPoints) == 0 {
		return ErrEndPointNotFound
	}
	for _, ep := range c.EndPoints {
		if ep.HostPort == "" && ep.Host == "" {
			return errhandling.NewConfigurationError(ep, "Host")
		}
		if ep.HostPort != "" {
			if _, _, err := net.SplitHostPort(ep.HostPort); err != nil {
				return errhandling.ConfigurationErrorf(ep, "HostPort", "%v", err)
			}
		}
		if ep.Port < 0 || ep.Port > 65535 {
			return errhandling.ConfigurationErrorf(ep, "Port", "%d out of range", ep.Port)
		}
	}
	if c.DatabaseCount < 1 {
		return errhandling.ConfigurationErrorf(c, "DatabaseCount", "%d", c.DatabaseCount)
	}
	if c.isCluster() && c.DatabaseCount != ClusterDatabaseCount {
		return errhandling.ConfigurationErrorf(c, "DatabaseCount",
			"%d endpoints form a cluster, which only has database 0", len(c.EndPoints))
	}
	if db := c.DefaultDatabase; db != nil && (*db < 0 || *db >= c.DatabaseCount) {
		return errhandling.ConfigurationErrorf(c, "DefaultDatabase", "%d not in [0, %d)", *db, c.DatabaseCount)
	}
	return nil
}

// Address is HostPort when set, otherwise Host and Port joined. IPv6 hosts
// are bracketed.
func (ep EndPoint) Address() string {
	if ep.HostPort != "" {
		return ep.HostPort
	}
	port := ep.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(ep.Host, strconv.Itoa(port))
}

// isCluster reports whether the driver will treat the endpoints as a cluster.
func (c ConnectionConfiguration) isCluster() bool {
	return len(c.EndPoints) > 1
}

func (c ConnectionConfiguration) addresses() []string {
	addrs := make([]string, 0, len(c.EndPoints))
	for _, ep := range c.EndPoints {
		addrs = append(addrs, ep.Address())
	}
	return addrs
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// LoadConfiguration reads the FBRedis section of v. Settings absent from the
// source keep their defaults.
func LoadConfiguration(v *viper.Viper) (Configuration, error) {
	cfg := Configuration{Connections: map[string]ConnectionConfiguration{}}

	connectionsKey := SectionKey + ".Connections"
	for name := range v.GetStringMap(connectionsKey) {
		cc := DefaultConnectionConfiguration()
		// left to withDefaults, which knows the endpoint count
		cc.DatabaseCount = 0
		if err := v.UnmarshalKey(connectionsKey+"."+name, &cc); err != nil {
			return Configuration{}, errhandling.ConfigurationErrorf(cfg, name, "%v", err)
		}
		cfg.Connections[name] = cc.withDefaults()
	}
	return cfg, nil
}

// ConfigurationFromEnvOrFatal reads the configuration file named by
// FBREDIS_CONFIG_FILE. Any error is fatal.
func ConfigurationFromEnvOrFatal(log Logger) Configuration {
	filename := env.GetOrFatal(ConfigFileEnv)

	v := viper.New()
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		log.Panicf("cannot read redis configuration %s: %v", filename, err)
	}
	cfg, err := LoadConfiguration(v)
	if err != nil {
		log.Panicf("invalid redis configuration %s: %v", filename, err)
	}
	log.Infof("redis configuration %s: %d connections", filename, len(cfg.Connections))
	return cfg
}
