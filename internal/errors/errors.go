package errors

import (
	"errors"
	"fmt"
)

// BkmrLSPError is the base interface for all errors produced by this SDK.
type BkmrLSPError interface {
	error
	IsBkmrLSPError() bool
}

// Compile-time verification that all error types implement BkmrLSPError.
var (
	_ BkmrLSPError = (*ServerNotFoundError)(nil)
	_ BkmrLSPError = (*StartupError)(nil)
	_ BkmrLSPError = (*TransportError)(nil)
	_ BkmrLSPError = (*ProtocolError)(nil)
	_ BkmrLSPError = (*HandshakeError)(nil)
	_ BkmrLSPError = (*InvalidStateError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrRequestTimeout indicates no matching response arrived within the
	// configured window. Recoverable: the session remains usable.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrServerDied indicates the output stream reached end-of-stream while
	// a response was still awaited. The server process has exited.
	ErrServerDied = errors.New("server process died")

	// ErrSessionClosed indicates the session has been closed and cannot be
	// reused. Sessions are single-use; create a new one with NewSession().
	ErrSessionClosed = errors.New("session closed")

	// ErrAlreadyStarted indicates Start was called on a running session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrTransportNotConnected indicates the transport has not been started.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrStdinClosed indicates the input pipe was closed, usually because a
	// write was aborted by context cancellation.
	ErrStdinClosed = errors.New("stdin closed")
)

// ServerNotFoundError indicates the LSP server binary was not found.
type ServerNotFoundError struct {
	SearchedPaths []string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("bkmr binary not found in: %v", e.SearchedPaths)
}

// IsBkmrLSPError implements BkmrLSPError.
func (e *ServerNotFoundError) IsBkmrLSPError() bool { return true }

// StartupError indicates the server process failed to launch or exited
// during the startup grace period. Fatal to the session; not retried.
type StartupError struct {
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *StartupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("server failed to start (%s): %v", e.Path, e.Err)
	}

	return fmt.Sprintf("server %s exited during startup (exit %d): %s", e.Path, e.ExitCode, e.Stderr)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// IsBkmrLSPError implements BkmrLSPError.
func (e *StartupError) IsBkmrLSPError() bool { return true }

// TransportError indicates a pipe read or write failure (broken pipe,
// closed stream). Fatal; the session must be closed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsBkmrLSPError implements BkmrLSPError.
func (e *TransportError) IsBkmrLSPError() bool { return true }

// ProtocolError indicates a malformed header or JSON payload on the wire.
// The reader skips the offending message and keeps going; the error is
// surfaced on the transport's error channel so it is never silently lost.
type ProtocolError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsBkmrLSPError implements BkmrLSPError.
func (e *ProtocolError) IsBkmrLSPError() bool { return true }

// HandshakeError indicates the initialize request was rejected by the server.
// Fatal to session startup.
type HandshakeError struct {
	RPC *RPCError
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("initialize handshake failed: %v", e.RPC)
}

func (e *HandshakeError) Unwrap() error {
	return e.RPC
}

// IsBkmrLSPError implements BkmrLSPError.
func (e *HandshakeError) IsBkmrLSPError() bool { return true }

// InvalidStateError indicates an operation was invoked outside its valid
// session state, e.g. ExecuteCommand before Initialize.
type InvalidStateError struct {
	State string
	Op    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not valid in session state %q", e.Op, e.State)
}

// IsBkmrLSPError implements BkmrLSPError.
func (e *InvalidStateError) IsBkmrLSPError() bool { return true }
