// Package ldapconn owns the policy for obtaining a directory connection
// bound as a given principal. The two implementations reflect the two
// legitimate deployment models: dial fresh per request, or keep one bound
// connection per principal to amortize the bind handshake. The choice is
// explicit configuration, never ambient global state.
package ldapconn

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"golang.org/x/sync/singleflight"

	"dirgate/internal/directory"
)

// BindFunc authenticates a freshly dialed connection as the given
// principal. Credential mechanics (GSSAPI proxy authorization and friends)
// stay behind this hook.
type BindFunc func(conn *ldap.Conn, principal string) error

// Provider yields a directory client bound as the caller's principal,
// together with a release function the caller must invoke once the request
// is done. Whether release closes the connection or keeps it alive is the
// provider's policy.
type Provider interface {
	Get(ctx context.Context, principal string) (*directory.Client, func(), error)
}

// Dialer dials a new connection on every Get; its release function closes
// the connection.
type Dialer struct {
	BaseDN string
	Bind   BindFunc
	Logger *slog.Logger

	dial    func() (directory.Conn, error)
	observe func()
}

type Option func(*Dialer)

// WithRoundTripObserver forwards a per-round-trip callback to the clients
// the dialer builds.
func WithRoundTripObserver(fn func()) Option {
	return func(d *Dialer) { d.observe = fn }
}

func NewDialer(uri, baseDN string, timeout time.Duration, bind BindFunc, logger *slog.Logger, opts ...Option) *Dialer {
	d := &Dialer{
		BaseDN: baseDN,
		Bind:   bind,
		Logger: logger,
		dial: func() (directory.Conn, error) {
			conn, err := ldap.DialURL(uri)
			if err != nil {
				return nil, err
			}
			conn.SetTimeout(timeout)
			return conn, nil
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dialer) Get(ctx context.Context, principal string) (*directory.Client, func(), error) {
	conn, err := d.dial()
	if err != nil {
		return nil, nil, &directory.Error{Kind: directory.KindUnavailable, Op: "dial", Err: err}
	}
	if lc, ok := conn.(*ldap.Conn); ok && d.Bind != nil {
		if err := d.Bind(lc, principal); err != nil {
			_ = conn.Close()
			return nil, nil, &directory.Error{Kind: directory.KindLocal, Op: "bind " + principal, Err: err}
		}
	}
	opts := []directory.Option{directory.WithLogger(d.Logger)}
	if d.observe != nil {
		opts = append(opts, directory.WithRoundTripObserver(d.observe))
	}
	client := directory.NewClient(conn, d.BaseDN, opts...)
	return client, func() { _ = client.Close() }, nil
}

// Cache keeps one bound client per principal. Lookups are mutex-guarded and
// concurrent binds for the same principal are collapsed through
// singleflight, so a burst of first requests costs one handshake.
type Cache struct {
	dialer *Dialer

	mu    sync.Mutex
	conns map[string]*directory.Client
	group singleflight.Group
}

func NewCache(dialer *Dialer) *Cache {
	return &Cache{
		dialer: dialer,
		conns:  make(map[string]*directory.Client),
	}
}

// Get returns the principal's cached client. The release function is a
// no-op: cached connections stay open across requests and are only closed
// through Evict.
func (c *Cache) Get(ctx context.Context, principal string) (*directory.Client, func(), error) {
	release := func() {}
	c.mu.Lock()
	client, ok := c.conns[principal]
	c.mu.Unlock()
	if ok {
		return client, release, nil
	}
	v, err, _ := c.group.Do(principal, func() (any, error) {
		client, _, err := c.dialer.Get(ctx, principal)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.conns[principal] = client
		c.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return v.(*directory.Client), release, nil
}

// Evict drops a principal's cached client, closing its connection. The HTTP
// layer calls it when a request fails with an unavailable error so the next
// request re-binds instead of reusing a dead connection.
func (c *Cache) Evict(principal string) {
	c.mu.Lock()
	client, ok := c.conns[principal]
	delete(c.conns, principal)
	c.mu.Unlock()
	if ok {
		_ = client.Close()
	}
}

// ReadyCheck returns a readiness probe that dials the directory and closes
// the connection straight away. The probe's context deadline bounds the
// dial so a hung directory cannot stall the health endpoint.
func ReadyCheck(uri string, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		dialer := &net.Dialer{Timeout: timeout}
		if deadline, ok := ctx.Deadline(); ok {
			dialer.Deadline = deadline
		}
		conn, err := ldap.DialURL(uri, ldap.DialWithDialer(dialer))
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
