package metrics

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firebrand/go-firebrand-common/environment"
	"github.com/firebrand/go-firebrand-common/logger"
)

type Logger = logger.Logger

const (
	namespace = "firebrand"

	UseMetricsEnv  = "USE_METRICS"
	MetricsPortEnv = "METRICS_PORT"
)

// Metrics owns a private registry. Only the collectors registered here are
// exported; the default Go and process collectors are omitted.
//
// A nil *Metrics is valid and disables every observer created from it.
type Metrics struct {
	serviceName string
	port        string
	registry    *prometheus.Registry
	log         Logger
}

type MetricsOption func(*Metrics)

func WithPort(port string) MetricsOption {
	return func(m *Metrics) {
		m.port = port
	}
}

func New(log Logger, serviceName string, opts ...MetricsOption) *Metrics {
	m := Metrics{
		log:         log,
		serviceName: strings.ToLower(serviceName),
		registry:    prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return &m
}

// NewFromEnvironment returns nil unless USE_METRICS is truthy, in which case
// METRICS_PORT is required.
func NewFromEnvironment(log Logger, serviceName string, opts ...MetricsOption) *Metrics {
	if !environment.GetTruthyOrFatal(UseMetricsEnv) {
		return nil
	}
	port := environment.GetOrFatal(MetricsPortEnv)
	return New(log, serviceName, append(opts, WithPort(port))...)
}

func (m *Metrics) String() string {
	return m.serviceName
}

func (m *Metrics) Register(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

// registerOrExisting registers c, returning the collector already registered
// under the same descriptor when there is one. Several clients may share one
// Metrics.
func (m *Metrics) registerOrExisting(c prometheus.Collector) prometheus.Collector {
	err := m.registry.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	m.log.Panicf("cannot register collector: %v", err)
	return nil
}

func (m *Metrics) Port() string {
	if m != nil {
		return m.port
	}
	return ""
}

// NewPromHandler serves the registry, normally on a port separate from the
// service. The default InstrumentMetricHandler is suppressed.
func (m *Metrics) NewPromHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
