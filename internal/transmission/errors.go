package transmission

import (
	"errors"
	"fmt"
)

// ConnError is a transient connectivity failure reaching the daemon:
// connection refused, timeout, authentication rejection, or a broken
// protocol handshake. The poller absorbs it and retries on a later
// tick; it never reaches the host.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("transmission %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// connErrf wraps err as a ConnError for the given RPC operation.
func connErrf(op string, err error) *ConnError {
	return &ConnError{Op: op, Err: err}
}

// IsConnError reports whether err is (or wraps) a ConnError.
func IsConnError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce)
}

// SchemaError indicates the daemon's payload did not have the expected
// shape: a missing catalog field, a malformed sub-structure, or a
// torrent without tracker entries. It signals version skew between this
// collector and the daemon, not a reachability problem, so it surfaces
// at the tick boundary instead of triggering a reconnect.
type SchemaError struct {
	Field  string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("transmission schema mismatch on %q: %s", e.Field, e.Detail)
}

// ConfigError is a fatal pre-flight failure: the plugin configuration
// is missing a required key or holds an unusable value. Initialization
// fails outright and the host decides what to do.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("transmission config %q: %s", e.Field, e.Reason)
}
