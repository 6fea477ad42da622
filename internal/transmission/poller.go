package transmission

import (
	"context"
	"sync"

	"github.com/seedstats/seedstats/internal/metric"
	"go.uber.org/zap"
)

// State describes the poller's connection lifecycle.
type State int

const (
	// StateUninitialized means no connection attempt has been made yet.
	StateUninitialized State = iota
	// StateConnected means a live handle is held.
	StateConnected
	// StateDisconnected means the last connect or fetch failed and no
	// handle is held.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// Poller owns the single connection handle and all retry logic. Ticks
// run one at a time on the agent goroutine, but State is also read from
// the HTTP status route, so the handle fields sit behind a mutex.
//
// The reconnect policy is deliberately eager: the daemon may restart or
// drop idle connections between ticks, and redialing is cheap relative
// to the tick interval, so a failed fetch tears the handle down and the
// next tick (plus one in-tick attempt) redials from scratch. No backoff.
type Poller struct {
	dialer Dialer
	logger *zap.Logger

	mu       sync.Mutex // guards state, conn, resolver
	state    State
	conn     Conn
	resolver FieldResolver
}

// NewPoller creates a poller in the uninitialized state. No connection
// is attempted until Connect or the first tick.
func NewPoller(d Dialer, logger *zap.Logger) *Poller {
	return &Poller{
		dialer: d,
		logger: logger,
		state:  StateUninitialized,
	}
}

// State returns the poller's current lifecycle state. Safe to call from
// any goroutine.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Connect attempts to establish the connection if none is live and
// reports whether a usable handle is held afterwards. Failure is a
// normal operating condition, not an error: the daemon may simply be
// down, and the next tick tries again.
func (p *Poller) Connect(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked(ctx)
}

func (p *Poller) connectLocked(ctx context.Context) bool {
	if p.state == StateConnected && p.conn != nil {
		return true
	}
	conn, err := p.dialer.Dial(ctx)
	if err != nil {
		p.conn = nil
		p.state = StateDisconnected
		p.logger.Debug("daemon unreachable", zap.Error(err))
		return false
	}
	p.conn = conn
	// The resolver strategy is fixed for the connection's lifetime;
	// nothing downstream branches on version again.
	p.resolver = ResolverFor(conn.RPCVersion())
	p.state = StateConnected
	p.logger.Info("connected to daemon", zap.Int("rpc_version", conn.RPCVersion()))
	return true
}

// teardown explicitly closes and discards the handle so a stale
// connection can never be reused.
func (p *Poller) teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.state = StateDisconnected
}

// Shutdown releases the connection and returns the poller to its
// initial state. Safe to call repeatedly and to follow with Connect.
func (p *Poller) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.state = StateUninitialized
}

// CollectTick runs one collection pass and returns the samples for the
// tick. An unreachable daemon yields zero samples and a nil error; the
// core statistics group is all-or-nothing, while the announce pair is
// best-effort on top of a successful catalog pass. A non-nil error is a
// schema contract violation for the caller to log; the poller remains
// usable for subsequent ticks either way.
func (p *Poller) CollectTick(ctx context.Context) ([]metric.Sample, error) {
	p.mu.Lock()
	ok := p.connectLocked(ctx)
	conn, resolver := p.conn, p.resolver
	p.mu.Unlock()
	if !ok {
		return nil, nil
	}

	snap, err := conn.SessionStats(ctx)
	if err != nil {
		if IsConnError(err) {
			p.logger.Warn("stats fetch failed, reconnecting", zap.Error(err))
			p.teardown()
			reconnects.Inc()
			// One immediate redial so a daemon restart costs a single
			// tick. The fetch itself is not retried within this tick.
			p.Connect(ctx)
			return nil, nil
		}
		return nil, err
	}

	samples := make([]metric.Sample, 0, CatalogSize()+2)
	for _, cat := range Categories {
		for _, name := range Catalog[cat] {
			v, err := resolver.Resolve(snap, name, cat)
			if err != nil {
				// No partial catalog: one unresolvable field voids the
				// whole group for this tick.
				return nil, err
			}
			samples = append(samples, metric.Sample{
				Plugin:       PluginName,
				TypeInstance: string(cat) + "." + metric.SnakeCase(name),
				ValueType:    metric.Gauge,
				Value:        v,
			})
		}
	}

	torrents, err := conn.Torrents(ctx)
	if err != nil {
		if IsConnError(err) {
			p.teardown()
		}
		p.logger.Warn("torrent list unavailable, skipping announce stats", zap.Error(err))
		return samples, nil
	}

	agg, err := Aggregate(torrents)
	if err != nil {
		p.logger.Warn("announce aggregation failed, skipping announce stats", zap.Error(err))
		return samples, nil
	}
	samples = append(samples,
		metric.Sample{
			Plugin:       PluginName,
			TypeInstance: "announce.succeeded",
			ValueType:    metric.Gauge,
			Value:        float64(agg.Succeeded),
		},
		metric.Sample{
			Plugin:       PluginName,
			TypeInstance: "announce.failed",
			ValueType:    metric.Gauge,
			Value:        float64(agg.Failed),
		},
	)
	return samples, nil
}
