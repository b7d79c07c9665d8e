package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultConnectTimeout = 5 * time.Second

// DefaultCheckInterval is how long a connected adapter trusts its connection before pinging again.
const DefaultCheckInterval = 15 * time.Second

// Adapter owns the single shared store handle. It is created once and injected into every repository.
type Adapter struct {
	engine         Engine
	connectTimeout time.Duration
	logger         *zap.Logger

	status        atomic.Value // Status
	group         singleflight.Group
	checkInterval time.Duration
	lastCheck     atomic.Int64 // unix nanos of the last successful connect or ping; 0 forces a ping
}

// NewAdapter wraps engine. A nil engine means no connection string was configured and the adapter stays
// not_configured forever.
func NewAdapter(engine Engine, connectTimeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	a := &Adapter{engine: engine, connectTimeout: connectTimeout, checkInterval: DefaultCheckInterval, logger: logger}
	if engine == nil {
		a.status.Store(StatusNotConfigured)
	} else {
		a.status.Store(StatusDisconnected)
	}
	return a
}

// Status returns the current connection state.
func (a *Adapter) Status() Status {
	return a.status.Load().(Status)
}

// Driver returns the engine name, or "" when not configured.
func (a *Adapter) Driver() string {
	if a.engine == nil {
		return ""
	}
	return a.engine.Driver()
}

// Configured reports whether a connection string was provided.
func (a *Adapter) Configured() bool { return a.engine != nil }

// Ready reports whether collection operations can be attempted.
func (a *Adapter) Ready() bool { return a.Status() == StatusConnected }

// Connect is the start-up connection attempt. Failure is logged, never returned: the process keeps serving
// fallback data and later requests retry through EnsureConnected.
func (a *Adapter) Connect(ctx context.Context) Status {
	st := a.EnsureConnected(ctx)
	if st != StatusConnected && st != StatusNotConfigured {
		a.logger.Warn("store not connected at startup, serving fallback data", zap.String("status", string(st)))
	}
	return st
}

// SetCheckInterval changes how often a connected adapter re-verifies its connection. Zero pings on every call.
func (a *Adapter) SetCheckInterval(d time.Duration) {
	a.checkInterval = d
}

func (a *Adapter) checkDue() bool {
	last := a.lastCheck.Load()
	return last == 0 || time.Since(time.Unix(0, last)) >= a.checkInterval
}

// suspect forces the next EnsureConnected to ping before trusting the connection.
func (a *Adapter) suspect() {
	a.lastCheck.Store(0)
}

// EnsureConnected connects if needed and returns the resulting status. A connected adapter pings when the
// check interval has passed or an operation failed, and reconnects when the ping fails. Safe to call on
// every request; concurrent callers share one attempt.
func (a *Adapter) EnsureConnected(ctx context.Context) Status {
	if a.engine == nil {
		return StatusNotConfigured
	}
	if a.Status() == StatusConnected && !a.checkDue() {
		return StatusConnected
	}
	v, _, _ := a.group.Do("connect", func() (interface{}, error) {
		// the attempt is shared, so it must not die with the request that happened to start it
		base := context.WithoutCancel(ctx)
		if a.Status() == StatusConnected {
			if !a.checkDue() {
				return StatusConnected, nil
			}
			pctx, cancel := context.WithTimeout(base, a.connectTimeout)
			err := a.engine.Ping(pctx)
			cancel()
			if err == nil {
				a.lastCheck.Store(time.Now().UnixNano())
				return StatusConnected, nil
			}
			a.status.Store(StatusDisconnected)
			a.logger.Warn("store ping failed, reconnecting", zap.String("driver", a.engine.Driver()), zap.Error(err))
		}
		a.status.Store(StatusConnecting)
		cctx, cancel := context.WithTimeout(base, a.connectTimeout)
		defer cancel()
		start := time.Now()
		if err := a.engine.Connect(cctx); err != nil {
			a.status.Store(StatusDisconnected)
			a.logger.Warn("store connect failed", zap.String("driver", a.engine.Driver()), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return StatusDisconnected, nil
		}
		a.lastCheck.Store(time.Now().UnixNano())
		a.status.Store(StatusConnected)
		a.logger.Info("store connected", zap.String("driver", a.engine.Driver()), zap.Duration("elapsed", time.Since(start)))
		return StatusConnected, nil
	})
	return v.(Status)
}

// Close disconnects the engine.
func (a *Adapter) Close(ctx context.Context) error {
	if a.engine == nil {
		return nil
	}
	a.status.Store(StatusDisconnecting)
	err := a.engine.Disconnect(ctx)
	a.status.Store(StatusDisconnected)
	return err
}

// Collection returns a handle that fails with ErrUnavailable while the adapter is not connected.
func (a *Adapter) Collection(name string) Collection {
	return &guardedCollection{adapter: a, name: name}
}

type guardedCollection struct {
	adapter *Adapter
	name    string
}

func (g *guardedCollection) target() (Collection, error) {
	if !g.adapter.Ready() {
		return nil, ErrUnavailable
	}
	return g.adapter.engine.Collection(g.name), nil
}

// observe flags the connection for a ping after any failure other than a missing document.
func (g *guardedCollection) observe(err error) error {
	if err != nil && !errors.Is(err, ErrNotFound) {
		g.adapter.suspect()
	}
	return err
}

func (g *guardedCollection) Insert(ctx context.Context, doc Document) error {
	c, err := g.target()
	if err != nil {
		return err
	}
	return g.observe(c.Insert(ctx, doc))
}

func (g *guardedCollection) FindByID(ctx context.Context, id string, out any) error {
	c, err := g.target()
	if err != nil {
		return err
	}
	return g.observe(c.FindByID(ctx, id, out))
}

func (g *guardedCollection) Find(ctx context.Context, q Query, out any) error {
	c, err := g.target()
	if err != nil {
		return err
	}
	return g.observe(c.Find(ctx, q, out))
}

func (g *guardedCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	c, err := g.target()
	if err != nil {
		return 0, err
	}
	n, err := c.Count(ctx, filter)
	return n, g.observe(err)
}

func (g *guardedCollection) Update(ctx context.Context, id string, set Filter) error {
	c, err := g.target()
	if err != nil {
		return err
	}
	return g.observe(c.Update(ctx, id, set))
}
