// Package transmission collects session and torrent statistics from a
// Transmission daemon's RPC interface and turns them into gauge samples.
//
// The package is built around three pieces: a thin RPC client speaking
// the daemon's JSON POST protocol, field-resolver strategies that hide
// payload-shape differences between RPC versions, and a poller that
// owns the single connection handle and decides per tick whether a
// fetch is attempted at all.
package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAddress is the daemon's conventional local RPC endpoint.
const DefaultAddress = "http://localhost:9091/transmission/rpc"

// DefaultTimeout bounds every RPC round trip unless configured.
const DefaultTimeout = 5 * time.Second

// sessionIDHeader carries the daemon's CSRF token. The daemon answers
// 409 with a fresh token when the header is missing or stale.
const sessionIDHeader = "X-Transmission-Session-Id"

// Options configure the connection to the daemon's RPC endpoint.
type Options struct {
	Address  string
	Username string
	Password string
	Timeout  time.Duration
}

// withDefaults fills unset options with their documented defaults.
func (o Options) withDefaults() Options {
	if o.Address == "" {
		o.Address = DefaultAddress
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// TrackerStat is one tracker's view of a torrent.
type TrackerStat struct {
	Host                  string `json:"host"`
	LastAnnounceSucceeded bool   `json:"lastAnnounceSucceeded"`
}

// Torrent is one entry of a torrent list snapshot.
type Torrent struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	TrackerStats []TrackerStat `json:"trackerStats"`
}

// Conn is a live authenticated session with the daemon. At most one
// Conn is held at a time, exclusively by the poller; a nil Conn means
// "not connected", never "connected but idle".
type Conn interface {
	// SessionStats fetches the session statistics for one tick.
	SessionStats(ctx context.Context) (StatsSnapshot, error)

	// Torrents fetches the current torrent list with tracker status.
	Torrents(ctx context.Context) ([]Torrent, error)

	// RPCVersion returns the RPC version probed at connect time.
	RPCVersion() int

	// Close releases the connection's resources.
	Close() error
}

// Dialer establishes connections to the daemon. Connectivity and
// authentication failures come back as ConnError so the caller can
// retry on a later tick instead of crashing.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// HTTPDialer dials a real daemon over HTTP.
type HTTPDialer struct {
	Opts Options
}

// Dial opens a session and probes the daemon's RPC version. The probe
// doubles as the authentication check: a daemon that rejects the
// credentials fails here, not on the first stats fetch.
func (d *HTTPDialer) Dial(ctx context.Context) (Conn, error) {
	opts := d.Opts.withDefaults()
	c := &client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		address:    opts.Address,
		username:   opts.Username,
		password:   opts.Password,
	}

	raw, err := c.call(ctx, "session-get", nil)
	if err != nil {
		return nil, err
	}
	var probe struct {
		RPCVersion int `json:"rpc-version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &SchemaError{Field: "rpc-version", Detail: fmt.Sprintf("session-get arguments: %v", err)}
	}
	// Daemons predating the version field simply omit it; zero selects
	// the legacy resolver.
	c.rpcVersion = probe.RPCVersion
	return c, nil
}

var _ Dialer = (*HTTPDialer)(nil)

// client implements Conn over the daemon's JSON POST protocol.
type client struct {
	httpClient *http.Client
	address    string
	username   string
	password   string
	sessionID  string
	rpcVersion int
}

var _ Conn = (*client)(nil)

type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// call performs one RPC round trip, transparently renewing the session
// ID on a 409 response. Transport, auth, and protocol failures are
// ConnError; a well-formed non-success result is a SchemaError.
func (c *client) call(ctx context.Context, method string, args any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address, bytes.NewReader(body))
		if err != nil {
			return nil, connErrf(method, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.username != "" || c.password != "" {
			req.SetBasicAuth(c.username, c.password)
		}
		if c.sessionID != "" {
			req.Header.Set(sessionIDHeader, c.sessionID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, connErrf(method, err)
		}

		if resp.StatusCode == http.StatusConflict {
			// CSRF handshake: adopt the fresh token and retry once.
			c.sessionID = resp.Header.Get(sessionIDHeader)
			resp.Body.Close()
			if c.sessionID == "" || attempt > 0 {
				return nil, connErrf(method, fmt.Errorf("session id handshake failed (status %d)", resp.StatusCode))
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, connErrf(method, fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		var rr rpcResponse
		err = json.NewDecoder(resp.Body).Decode(&rr)
		resp.Body.Close()
		if err != nil {
			return nil, connErrf(method, fmt.Errorf("decode response: %w", err))
		}
		if rr.Result != "success" {
			return nil, &SchemaError{Field: method, Detail: fmt.Sprintf("daemon rejected call: %s", rr.Result)}
		}
		return rr.Arguments, nil
	}
	return nil, connErrf(method, fmt.Errorf("session id handshake failed"))
}

func (c *client) SessionStats(ctx context.Context) (StatsSnapshot, error) {
	raw, err := c.call(ctx, "session-stats", nil)
	if err != nil {
		return nil, err
	}
	var snap StatsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &SchemaError{Field: "session-stats", Detail: fmt.Sprintf("arguments not an object: %v", err)}
	}
	return snap, nil
}

func (c *client) Torrents(ctx context.Context) ([]Torrent, error) {
	args := map[string]any{
		"fields": []string{"id", "name", "trackerStats"},
	}
	raw, err := c.call(ctx, "torrent-get", args)
	if err != nil {
		return nil, err
	}
	var out struct {
		Torrents []Torrent `json:"torrents"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &SchemaError{Field: "torrent-get", Detail: fmt.Sprintf("arguments malformed: %v", err)}
	}
	return out.Torrents, nil
}

func (c *client) RPCVersion() int {
	return c.rpcVersion
}

func (c *client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
