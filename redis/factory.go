package redis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	otrace "github.com/opentracing/opentracing-go"
	"golang.org/x/sync/errgroup"

	"github.com/firebrand/go-firebrand-common/errhandling"
	"github.com/firebrand/go-firebrand-common/logger"
)

// ClientFactory hands out connected clients by connection name.
type ClientFactory interface {
	CreateClient(ctx context.Context) (*Client, error)
	CreateNamedClient(ctx context.Context, name string) (*Client, error)
}

// Factory connects each named client at most once. Concurrent callers for
// the same name share one connection attempt and all observe its outcome;
// a failed attempt is not retried.
type Factory struct {
	log        Logger
	clientOpts []ClientOption
	clients    map[string]*lazyClient
	connect    func(ctx context.Context, c *Client) error
}

type lazyClient struct {
	client *Client
	start  sync.Once
	done   chan struct{}
	err    error
}

type FactoryOption func(*Factory)

func WithFactoryLogger(log Logger) FactoryOption {
	return func(f *Factory) {
		f.log = log
	}
}

// WithClientOptions applies opts to every client the factory creates.
func WithClientOptions(opts ...ClientOption) FactoryOption {
	return func(f *Factory) {
		f.clientOpts = append(f.clientOpts, opts...)
	}
}

// NewFactory validates every configured connection up front. It fails with
// ErrConfigurationNotFound when there are none and with the connection's own
// error (for example ErrEndPointNotFound) when one is invalid.
func NewFactory(cfg Configuration, opts ...FactoryOption) (*Factory, error) {
	f := &Factory{
		log:     logger.Sugar,
		clients: make(map[string]*lazyClient, len(cfg.Connections)),
		connect: func(ctx context.Context, c *Client) error { return c.Connect(ctx) },
	}
	for _, opt := range opts {
		opt(f)
	}
	if len(cfg.Connections) == 0 {
		return nil, ErrConfigurationNotFound
	}

	for name, cc := range cfg.Connections {
		key := strings.ToLower(name)
		if _, ok := f.clients[key]; ok {
			return nil, errhandling.ConfigurationErrorf(cfg, "Connections", "duplicate connection name %q", name)
		}
		client, err := NewClient(name, cc, append([]ClientOption{WithLogger(f.log)}, f.clientOpts...)...)
		if err != nil {
			return nil, err
		}
		f.clients[key] = &lazyClient{client: client, done: make(chan struct{})}
	}
	return f, nil
}

// CreateClient returns the connected client named DefaultConnectionName.
func (f *Factory) CreateClient(ctx context.Context) (*Client, error) {
	return f.CreateNamedClient(ctx, DefaultConnectionName)
}

// CreateNamedClient returns the connected client for name, connecting it on
// first use. The connection attempt is not cancelled with ctx; ctx only
// bounds how long this caller waits for it.
func (f *Factory) CreateNamedClient(ctx context.Context, name string) (*Client, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.factory.CreateNamedClient")
	defer span.Finish()

	lc, ok := f.clients[strings.ToLower(name)]
	if !ok {
		return nil, ClientNotFoundError(name)
	}

	lc.start.Do(func() {
		connectCtx := context.WithoutCancel(ctx)
		go func() {
			defer close(lc.done)
			lc.err = f.connect(connectCtx, lc.client)
			if lc.err != nil {
				f.log.Infof("CreateNamedClient: %s: %v", name, lc.err)
			}
		}()
	})

	select {
	case <-lc.done:
	case <-ctx.Done():
		// prefer a finished attempt over a simultaneous cancellation
		select {
		case <-lc.done:
		default:
			return nil, ctx.Err()
		}
	}
	if lc.err != nil {
		return nil, lc.err
	}
	return lc.client, nil
}

// Names returns the configured connection names, sorted.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.clients))
	for _, lc := range f.clients {
		names = append(names, lc.client.Name())
	}
	sort.Strings(names)
	return names
}

// ConnectAll connects every configured client concurrently and returns the
// first error.
func (f *Factory) ConnectAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range f.Names() {
		g.Go(func() error {
			_, err := f.CreateNamedClient(gctx, name)
			return err
		})
	}
	return g.Wait()
}

// Close closes every client that connected successfully.
func (f *Factory) Close() error {
	var errs []error
	for _, lc := range f.clients {
		select {
		case <-lc.done:
		default:
			continue
		}
		if lc.err != nil {
			continue
		}
		if err := lc.client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
