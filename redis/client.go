package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	otrace "github.com/opentracing/opentracing-go"

	"github.com/firebrand/go-firebrand-common/logger"
	"github.com/firebrand/go-firebrand-common/metrics"
)

// DefaultDB selects the connection's default database.
const DefaultDB = -1

// Client is one named connection. Connect establishes the connection on the
// default database; handles for the other databases are created on first use
// and kept for the life of the client. Reconnection is left to the driver.
type Client struct {
	name      string
	cfg       ConnectionConfiguration
	defaultDB int
	log       Logger
	observers *metrics.RedisObservers
	codec     Codec

	mu          sync.RWMutex
	databases   []*databaseSlot
	newDatabase func(db int) Database
}

type databaseSlot struct {
	once sync.Once
	db   Database
}

// get creates the handle on first use. A slot closed before that never gets
// one and reports ErrNotConnected.
func (s *databaseSlot) get(newDatabase func(int) Database, index int) (Database, error) {
	s.once.Do(func() {
		s.db = newDatabase(index)
	})
	if s.db == nil {
		return nil, ErrNotConnected
	}
	return s.db, nil
}

// close stops any later creation and closes the handle if one was made.
func (s *databaseSlot) close() error {
	s.once.Do(func() {})
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type ClientOption func(*Client)

func WithLogger(log Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics records connection and command metrics. A nil Metrics is
// ignored.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.observers = metrics.NewRedisObservers(m)
	}
}

// WithCodec sets the codec used by SetObject and GetObject. JSON by default.
func WithCodec(codec Codec) ClientOption {
	return func(c *Client) {
		c.codec = codec
	}
}

// withDatabaseFactory replaces the driver, for tests.
func withDatabaseFactory(f func(db int) Database) ClientOption {
	return func(c *Client) {
		c.newDatabase = f
	}
}

// NewClient validates cfg and returns an unconnected client. A configuration
// without endpoints fails with ErrEndPointNotFound.
func NewClient(name string, cfg ConnectionConfiguration, opts ...ClientOption) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Client{
		name:  name,
		cfg:   cfg,
		log:   logger.Sugar,
		codec: JSONCodec{},
	}
	if cfg.DefaultDatabase != nil {
		c.defaultDB = *cfg.DefaultDatabase
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("redis").WithIndex("connection", name)
	return c, nil
}

func (c *Client) Name() string {
	return c.name
}

// Configuration returns the configuration with defaults applied.
func (c *Client) Configuration() ConnectionConfiguration {
	return c.cfg
}

// Connect opens the default database and pings it. When the ping fails the
// error is returned if AbortOnConnectFail is set; otherwise it is logged and
// the driver keeps trying on later commands. Calling Connect on a connected
// client does nothing.
func (c *Client) Connect(ctx context.Context) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.client.Connect")
	defer span.Finish()

	log := c.log.FromContext(ctx)
	defer log.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.databases != nil {
		return nil
	}
	if c.newDatabase == nil {
		opts := c.universalOptions()
		c.newDatabase = func(db int) Database {
			o := *opts
			o.DB = db
			return redis.NewUniversalClient(&o)
		}
	}

	slots := make([]*databaseSlot, c.cfg.DatabaseCount)
	for i := range slots {
		slots[i] = &databaseSlot{}
	}
	db, err := slots[c.defaultDB].get(c.newDatabase, c.defaultDB)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, millis(c.cfg.ConnectTimeout))
	defer cancel()
	err = db.Ping(pingCtx).Err()
	c.observers.ObserveConnect(c.name, err)
	if err != nil {
		if c.cfg.AbortOnConnectFail {
			_ = db.Close()
			return ConnectError(err, c.name)
		}
		log.Infof("Connect: ping failed, continuing: %v", err)
	}

	c.databases = slots
	log.Debugf("Connect: %v database %d of %d", c.cfg.addresses(), c.defaultDB, c.cfg.DatabaseCount)
	return nil
}

// Database returns the handle for database db, creating it on first use.
// DefaultDB selects the default database.
func (c *Client) Database(db int) (Database, error) {
	d, _, err := c.database(db)
	return d, err
}

// database holds the read lock until the handle exists, so Close cannot
// detach the slots in between.
func (c *Client) database(db int) (Database, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slots := c.databases
	if slots == nil {
		return nil, db, ErrNotConnected
	}
	if db == DefaultDB {
		db = c.defaultDB
	}
	if db < 0 || db >= len(slots) {
		return nil, db, DatabaseOutOfRangeError(db, len(slots))
	}
	d, err := slots[db].get(c.newDatabase, db)
	return d, db, err
}

// commandContext bounds ctx by AsyncTimeout unless it already has a deadline.
func (c *Client) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, millis(c.cfg.AsyncTimeout))
}

func (c *Client) observe(command string, db int, start time.Time, outcome string) {
	c.observers.ObserveCommand(c.name, command, db, time.Since(start), outcome)
}

// Get reads key from the default database. found is false when the key does
// not exist.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	return c.GetDB(ctx, DefaultDB, key)
}

// GetDB reads key from database db.
func (c *Client) GetDB(ctx context.Context, db int, key string) (string, bool, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.client.Get")
	defer span.Finish()

	d, index, err := c.database(db)
	if err != nil {
		return "", false, err
	}
	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	start := time.Now()
	value, err := d.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.observe("get", index, start, metrics.OutcomeMiss)
		return "", false, nil
	}
	c.observe("get", index, start, metrics.Outcome(err))
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes key in the default database, reporting whether the server
// accepted it.
func (c *Client) Set(ctx context.Context, key string, value string) (bool, error) {
	return c.SetWithExpiry(ctx, DefaultDB, key, value, 0)
}

// SetDB writes key in database db.
func (c *Client) SetDB(ctx context.Context, db int, key string, value string) (bool, error) {
	return c.SetWithExpiry(ctx, db, key, value, 0)
}

// SetWithExpiry writes key in database db, expiring after ttl unless ttl is
// zero.
func (c *Client) SetWithExpiry(ctx context.Context, db int, key string, value any, ttl time.Duration) (bool, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.client.Set")
	defer span.Finish()

	d, index, err := c.database(db)
	if err != nil {
		return false, err
	}
	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	start := time.Now()
	status, err := d.Set(ctx, key, value, ttl).Result()
	c.observe("set", index, start, metrics.Outcome(err))
	if err != nil {
		return false, err
	}
	return status == "OK", nil
}

// Delete removes key from database db, reporting whether it existed.
func (c *Client) Delete(ctx context.Context, db int, key string) (bool, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.client.Delete")
	defer span.Finish()

	d, index, err := c.database(db)
	if err != nil {
		return false, err
	}
	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	start := time.Now()
	n, err := d.Del(ctx, key).Result()
	c.observe("del", index, start, metrics.Outcome(err))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FlushDatabase removes every key of database db. It needs AllowAdmin.
func (c *Client) FlushDatabase(ctx context.Context, db int) error {
	if !c.cfg.AllowAdmin {
		return ErrAdminNotAllowed
	}
	span, ctx := otrace.StartSpanFromContext(ctx, "redis.client.FlushDatabase")
	defer span.Finish()

	d, index, err := c.database(db)
	if err != nil {
		return err
	}
	ctx, cancel := c.commandContext(ctx)
	defer cancel()

	start := time.Now()
	err = d.FlushDB(ctx).Err()
	c.observe("flushdb", index, start, metrics.Outcome(err))
	return err
}

// SetObject encodes value with the client's codec and stores it under key in
// the default database.
func (c *Client) SetObject(ctx context.Context, key string, value any) error {
	data, err := c.codec.Marshal(value)
	if err != nil {
		return CodecError(err, c.codec.Name(), key)
	}
	_, err = c.SetWithExpiry(ctx, DefaultDB, key, data, 0)
	return err
}

// GetObject decodes the value under key into target, which must be a
// pointer. found is false when the key does not exist.
func (c *Client) GetObject(ctx context.Context, key string, target any) (found bool, err error) {
	value, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := c.codec.Unmarshal([]byte(value), target); err != nil {
		return true, CodecError(err, c.codec.Name(), key)
	}
	return true, nil
}

// Close closes every database handle created so far. The client can be
// connected again afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	slots := c.databases
	c.databases = nil
	c.mu.Unlock()

	var errs []error
	for _, slot := range slots {
		if err := slot.close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return CloseError(err, c.name)
	}
	return nil
}
