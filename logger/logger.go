package logger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	_ "github.com/KimMachineGun/automemlimit"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	opentracing "github.com/opentracing/opentracing-go"
)

var (
	Plain        *zap.Logger
	Sugar        *WrappedLogger
	Recorded     *observer.ObservedLogs
	undoLogger   = func() {}
	undoMaxProcs = func() {}
)

const (
	componentKey = "component"
	// TraceIDKey is the b3 propagation header carrying the trace id.
	TraceIDKey = "x-b3-traceid"
)

// so we dont have to import zap everywhere
type Option = zap.Option

type WrappedLogger struct {
	*zap.SugaredLogger
}

func init() {
	// usable before New is called, e.g. in library tests
	Plain = zap.NewNop()
	Sugar = &WrappedLogger{Plain.Sugar()}
}

// positional turns plain arguments into arg0, arg1... key value pairs.
func positional(args []any) []any {
	keyVals := make([]any, 0, 2*len(args))
	for i, v := range args {
		keyVals = append(keyVals, fmt.Sprintf("arg%d", i), v)
	}
	return keyVals
}

func (wl *WrappedLogger) ErrorR(msg string, args ...any) {
	wl.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar().Errorw(msg, positional(args)...)
}

func (wl *WrappedLogger) InfoR(msg string, args ...any) {
	wl.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar().Infow(msg, positional(args)...)
}

func (wl *WrappedLogger) DebugR(msg string, args ...any) {
	wl.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugw(msg, positional(args)...)
}

// OnExit should be deferred immediately after calling New().
func OnExit() {
	_ = Sugar.Sync()
	_ = Plain.Sync()
	undoMaxProcs()
	undoLogger()
	Recorded = nil
}

type Resource struct {
	console  bool
	filename string
}

type ResourceOption func(*Resource)

func WithFile(filename string) ResourceOption {
	return func(r *Resource) {
		r.filename = filename
	}
}

func WithConsole() ResourceOption {
	return func(r *Resource) {
		r.console = true
	}
}

func (r *Resource) apply(cfg zap.Config) zap.Config {
	if r.filename != "" {
		cfg.OutputPaths = []string{r.filename}
	}
	if r.console {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zapcore.EncoderConfig{
			MessageKey: "message",
		}
	}
	return cfg
}

// New replaces the global Plain and Sugar loggers according to level:
// "DEBUG", "NOOP", "TEST" (records entries in Recorded) or anything else for
// production INFO. Output of the standard library logger is redirected.
// ResourceOption and zap.Option values may be mixed in opts.
func New(level string, opts ...any) {
	r := &Resource{}
	var zopts []zap.Option
	for _, iopt := range opts {
		switch opt := iopt.(type) {
		case ResourceOption:
			opt(r)
		case zap.Option:
			zopts = append(zopts, opt)
		}
	}

	var err error
	switch strings.ToUpper(level) {
	case DebugLevel:
		Plain, err = r.apply(zap.NewDevelopmentConfig()).Build(zopts...)

	case NoopLevel:
		Plain = zap.NewNop()

	case TestLevel:
		core, recorded := observer.New(zapcore.DebugLevel)
		var plain *zap.Logger
		plain, err = r.apply(zap.NewDevelopmentConfig()).Build(zopts...)
		if err == nil {
			Plain = plain.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))
			Recorded = recorded
		}

	default:
		Plain, err = r.apply(zap.NewProductionConfig()).Build(zopts...)
	}
	if err != nil {
		log.Panicf("cannot initialise zap logger: %v", err)
	}

	undoLogger = zap.RedirectStdLog(Plain)
	Sugar = &WrappedLogger{Plain.Sugar()}

	Sugar.Debugf("Go version %s", runtime.Version())

	// GOMAXPROCS follows the container CPU quota rather than the host core count.
	undoMaxProcs, err = maxprocs.Set(maxprocs.Logger(Sugar.Debugf))
	if err != nil {
		Sugar.Infof("automaxprocs: %v", err)
		undoMaxProcs = func() {}
	}
	Sugar.Debugf("GOMAXPROCS %d GOMEMLIMIT %d", runtime.GOMAXPROCS(-1), debug.SetMemoryLimit(-1))
}

// FromContext returns a child logger carrying the trace id of the span in ctx,
// or the receiver when there is no span.
func (wl *WrappedLogger) FromContext(ctx context.Context) *WrappedLogger {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return wl
	}
	carrier := opentracing.TextMapCarrier{}
	err := opentracing.GlobalTracer().Inject(span.Context(), opentracing.TextMap, carrier)
	if err != nil {
		wl.Debugf("FromContext: can't inject span: %v", err)
		return wl
	}
	traceID, ok := carrier[TraceIDKey]
	if !ok || traceID == "" {
		return wl
	}
	return &WrappedLogger{
		SugaredLogger: wl.With(zap.String(TraceIDKey, traceID)),
	}
}

// WithComponent tags every entry with the emitting component, e.g. "redis".
func (wl *WrappedLogger) WithComponent(name string) *WrappedLogger {
	return wl.WithIndex(componentKey, name)
}

func (wl *WrappedLogger) WithIndex(key, value string) *WrappedLogger {
	return &WrappedLogger{
		SugaredLogger: wl.With(zap.String(key, strings.ToLower(value))),
	}
}

func (wl *WrappedLogger) WithOptions(opts ...Option) *WrappedLogger {
	return &WrappedLogger{
		SugaredLogger: wl.Desugar().WithOptions(opts...).Sugar(),
	}
}

// Close attempts to flush any buffered log entries.
func (wl *WrappedLogger) Close() {
	err := wl.Sync()
	// 'sync /dev/stderr: invalid argument' is expected and not worth reporting
	if err != nil && !errors.Is(err, syscall.EINVAL) {
		wl.Debugf("Close: failed to flush log: %v", err)
	}
}
