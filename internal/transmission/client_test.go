package transmission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeDaemon speaks just enough of the daemon's RPC protocol for the
// client: basic auth, the 409 session-id handshake, and the three
// methods the collector calls.
type fakeDaemon struct {
	t          *testing.T
	username   string
	password   string
	rpcVersion int
	stats      map[string]any
	torrents   []map[string]any
	reject     string // method the daemon refuses with a non-success result
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	return &fakeDaemon{
		t:          t,
		username:   "arr",
		password:   "hunter2",
		rpcVersion: 17,
		stats: map[string]any{
			"activeTorrentCount": 3,
			"torrentCount":       5,
			"downloadSpeed":      1024,
			"uploadSpeed":        512,
			"pausedTorrentCount": 2,
			"blocklist_size":     100,
			"cumulative-stats": map[string]any{
				"downloadedBytes": 1, "filesAdded": 2, "uploadedBytes": 3,
				"secondsActive": 4, "sessionCount": 5,
			},
			"current-stats": map[string]any{
				"downloadedBytes": 6, "filesAdded": 7, "uploadedBytes": 8,
				"secondsActive": 9, "sessionCount": 10,
			},
		},
		torrents: []map[string]any{
			{"id": 1, "name": "a", "trackerStats": []map[string]any{{"host": "tr.example", "lastAnnounceSucceeded": true}}},
			{"id": 2, "name": "b", "trackerStats": []map[string]any{{"host": "tr.example", "lastAnnounceSucceeded": false}}},
		},
	}
}

const testSessionID = "fSBlGpB6vAgh"

func (d *fakeDaemon) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != d.username || pass != d.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get(sessionIDHeader) != testSessionID {
			w.Header().Set(sessionIDHeader, testSessionID)
			w.WriteHeader(http.StatusConflict)
			return
		}

		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			d.t.Errorf("decode rpc request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := map[string]any{"result": "success"}
		switch {
		case req.Method == d.reject:
			resp["result"] = "method not allowed"
		case req.Method == "session-get":
			resp["arguments"] = map[string]any{"rpc-version": d.rpcVersion}
		case req.Method == "session-stats":
			resp["arguments"] = d.stats
		case req.Method == "torrent-get":
			resp["arguments"] = map[string]any{"torrents": d.torrents}
		default:
			d.t.Errorf("unexpected rpc method %q", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func (d *fakeDaemon) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(d.handler())
	t.Cleanup(srv.Close)
	return srv
}

func dialerFor(srv *httptest.Server, daemon *fakeDaemon) *HTTPDialer {
	return &HTTPDialer{Opts: Options{
		Address:  srv.URL,
		Username: daemon.username,
		Password: daemon.password,
	}}
}

func TestDialProbesVersionAndAuthenticates(t *testing.T) {
	daemon := newFakeDaemon(t)
	srv := daemon.serve(t)

	conn, err := dialerFor(srv, daemon).Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if got := conn.RPCVersion(); got != 17 {
		t.Errorf("RPCVersion() = %d, want 17", got)
	}
}

func TestDialRejectedCredentials(t *testing.T) {
	daemon := newFakeDaemon(t)
	srv := daemon.serve(t)

	d := &HTTPDialer{Opts: Options{
		Address:  srv.URL,
		Username: daemon.username,
		Password: "wrong",
	}}
	_, err := d.Dial(context.Background())
	if !IsConnError(err) {
		t.Fatalf("Dial() error = %v, want ConnError", err)
	}
}

func TestDialDaemonDown(t *testing.T) {
	daemon := newFakeDaemon(t)
	srv := httptest.NewServer(daemon.handler())
	srv.Close() // refuse all connections

	_, err := dialerFor(srv, daemon).Dial(context.Background())
	if !IsConnError(err) {
		t.Fatalf("Dial() error = %v, want ConnError", err)
	}
}

func TestDialTimeoutIsConnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	d := &HTTPDialer{Opts: Options{
		Address:  srv.URL,
		Username: "arr",
		Password: "hunter2",
		Timeout:  20 * time.Millisecond,
	}}
	_, err := d.Dial(context.Background())
	if !IsConnError(err) {
		t.Fatalf("Dial() error = %v, want ConnError", err)
	}
}

func TestSessionStatsRoundTrip(t *testing.T) {
	daemon := newFakeDaemon(t)
	srv := daemon.serve(t)

	conn, err := dialerFor(srv, daemon).Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	snap, err := conn.SessionStats(context.Background())
	if err != nil {
		t.Fatalf("SessionStats() error = %v", err)
	}

	r := ResolverFor(conn.RPCVersion())
	tests := []struct {
		metric   string
		category Category
		want     float64
	}{
		{"downloadSpeed", General, 1024},
		{"blocklist_size", General, 100},
		{"filesAdded", Cumulative, 2},
		{"filesAdded", Current, 7},
	}
	for _, tt := range tests {
		got, err := r.Resolve(snap, tt.metric, tt.category)
		if err != nil {
			t.Fatalf("Resolve(%s/%s) error = %v", tt.category, tt.metric, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%s/%s) = %v, want %v", tt.category, tt.metric, got, tt.want)
		}
	}
}

func TestTorrentsRoundTrip(t *testing.T) {
	daemon := newFakeDaemon(t)
	srv := daemon.serve(t)

	conn, err := dialerFor(srv, daemon).Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	torrents, err := conn.Torrents(context.Background())
	if err != nil {
		t.Fatalf("Torrents() error = %v", err)
	}
	if len(torrents) != 2 {
		t.Fatalf("Torrents() returned %d entries, want 2", len(torrents))
	}
	if !torrents[0].TrackerStats[0].LastAnnounceSucceeded {
		t.Error("torrent a: first tracker entry should report a successful announce")
	}
	if torrents[1].TrackerStats[0].LastAnnounceSucceeded {
		t.Error("torrent b: first tracker entry should report a failed announce")
	}
}

func TestRejectedMethodIsSchemaError(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.reject = "session-stats"
	srv := daemon.serve(t)

	conn, err := dialerFor(srv, daemon).Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_, err = conn.SessionStats(context.Background())
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("SessionStats() error = %v, want SchemaError", err)
	}
}
