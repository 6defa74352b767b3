package redis

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
)

// Database is the part of the driver client used for one numbered database.
// Both *redis.Client and *redis.ClusterClient satisfy it.
type Database interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	FlushDB(ctx context.Context) *redis.StatusCmd
	Close() error
}

// universalOptions maps the connection configuration onto driver options.
// A single endpoint gives a plain client; several give a cluster client, which
// only has database 0. validate keeps DatabaseCount at 1 for those.
func (c *Client) universalOptions() *redis.UniversalOptions {
	cfg := c.cfg
	opts := &redis.UniversalOptions{
		Addrs:        cfg.addresses(),
		Password:     cfg.Password,
		DialTimeout:  millis(cfg.ConnectTimeout),
		ReadTimeout:  millis(cfg.SyncTimeout),
		WriteTimeout: millis(cfg.SyncTimeout),
		MaxRetries:   cfg.ConnectRetry,
		OnConnect:    c.onConnect,
	}
	// the driver treats 0 as "use its default of 3"
	if cfg.ConnectRetry == 0 {
		opts.MaxRetries = -1
	}
	if cfg.Ssl {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.SslHost,
		}
		if cfg.CheckCertificateRevocation {
			c.log.Infof("%s: certificate revocation checking is not supported, relying on chain verification", c.name)
		}
	}
	if cfg.KeepAlive > 0 {
		opts.Dialer = keepAliveDialer(opts.DialTimeout, time.Duration(cfg.KeepAlive)*time.Second, opts.TLSConfig)
	}
	return opts
}

// keepAliveDialer replaces the driver's dialer, so it must handle TLS too.
func keepAliveDialer(timeout, keepAlive time.Duration, tlsConfig *tls.Config) func(context.Context, string, string) (net.Conn, error) {
	netDialer := &net.Dialer{Timeout: timeout, KeepAlive: keepAlive}
	if tlsConfig == nil {
		return netDialer.DialContext
	}
	tlsDialer := &tls.Dialer{NetDialer: netDialer, Config: tlsConfig}
	return tlsDialer.DialContext
}

// onConnect names every new driver connection. A server refusing the name
// does not fail the connection.
func (c *Client) onConnect(ctx context.Context, cn *redis.Conn) error {
	if err := cn.ClientSetName(ctx, c.clientName()).Err(); err != nil {
		c.log.Debugf("%s: client setname: %v", c.name, err)
	}
	return nil
}

func (c *Client) clientName() string {
	if c.cfg.ClientName != "" {
		return c.cfg.ClientName
	}
	return c.name
}
