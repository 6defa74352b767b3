package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Outcome labels err as ok or error.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// RedisConnectionsMetric counts connection attempts per named connection.
func RedisConnectionsMetric() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_connections_total",
			Help:      "Redis connection attempts by service, connection and outcome.",
		},
		[]string{"service", "connection", "outcome"},
	)
}

// RedisCommandsMetric counts commands per named connection and database.
func RedisCommandsMetric() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_commands_total",
			Help:      "Redis commands by service, connection, command, database and outcome.",
		},
		[]string{"service", "connection", "command", "db", "outcome"},
	)
}

// RedisLatencyMetric buckets are in seconds.
func RedisLatencyMetric() *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redis_command_latency_seconds",
			Help:      "Histogram of redis command latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"service", "connection", "command"},
	)
}

// HashOperationsMetric counts hash manager operations per strategy.
func HashOperationsMetric() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hash_operations_total",
			Help:      "Hash operations by service, strategy, operation and outcome.",
		},
		[]string{"service", "strategy", "operation", "outcome"},
	)
}

// RedisObservers records redis connection and command metrics. A nil
// *RedisObservers observes nothing.
type RedisObservers struct {
	connections *prometheus.CounterVec
	commands    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	serviceName string
}

// NewRedisObservers returns nil when m is nil.
func NewRedisObservers(m *Metrics) *RedisObservers {
	if m == nil {
		return nil
	}
	return &RedisObservers{
		connections: m.registerOrExisting(RedisConnectionsMetric()).(*prometheus.CounterVec),
		commands:    m.registerOrExisting(RedisCommandsMetric()).(*prometheus.CounterVec),
		latency:     m.registerOrExisting(RedisLatencyMetric()).(*prometheus.HistogramVec),
		serviceName: m.serviceName,
	}
}

func (o *RedisObservers) ObserveConnect(connection string, err error) {
	if o == nil {
		return
	}
	o.connections.WithLabelValues(o.serviceName, connection, Outcome(err)).Inc()
}

func (o *RedisObservers) ObserveCommand(connection, command string, db int, elapsed time.Duration, outcome string) {
	if o == nil {
		return
	}
	o.commands.WithLabelValues(o.serviceName, connection, command, strconv.Itoa(db), outcome).Inc()
	o.latency.WithLabelValues(o.serviceName, connection, command).Observe(elapsed.Seconds())
}

// HashObservers records hash manager metrics. A nil *HashObservers observes
// nothing.
type HashObservers struct {
	operations  *prometheus.CounterVec
	serviceName string
}

// NewHashObservers returns nil when m is nil.
func NewHashObservers(m *Metrics) *HashObservers {
	if m == nil {
		return nil
	}
	return &HashObservers{
		operations:  m.registerOrExisting(HashOperationsMetric()).(*prometheus.CounterVec),
		serviceName: m.serviceName,
	}
}

func (o *HashObservers) ObserveHash(strategy, operation string, err error) {
	if o == nil {
		return
	}
	o.operations.WithLabelValues(o.serviceName, strategy, operation, Outcome(err)).Inc()
}

// Operations exposes the underlying counter, mainly for tests.
func (o *HashObservers) Operations() *prometheus.CounterVec {
	return o.operations
}

// Commands exposes the underlying counter, mainly for tests.
func (o *RedisObservers) Commands() *prometheus.CounterVec {
	return o.commands
}

// Connections exposes the underlying counter, mainly for tests.
func (o *RedisObservers) Connections() *prometheus.CounterVec {
	return o.connections
}
