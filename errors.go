package bkmrlsp

import "github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"

// ServerNotFoundError indicates the bkmr binary could not be located.
type ServerNotFoundError = errors.ServerNotFoundError

// StartupError indicates the server process failed to start or died during
// the startup grace period. ExitCode and Stderr carry what was observed.
type StartupError = errors.StartupError

// TransportError indicates an I/O failure on the server's pipes.
type TransportError = errors.TransportError

// ProtocolError indicates a malformed frame or message. Recoverable: the
// reader skips the offending message and continues.
type ProtocolError = errors.ProtocolError

// HandshakeError indicates the server rejected the initialize request.
type HandshakeError = errors.HandshakeError

// InvalidStateError indicates an operation was attempted in the wrong
// session state.
type InvalidStateError = errors.InvalidStateError

// RPCError is a JSON-RPC error object returned by the server.
type RPCError = errors.RPCError

// Sentinel errors. Match with errors.Is.
var (
	// ErrRequestTimeout indicates no response arrived within the request
	// timeout.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrServerDied indicates the server process exited while requests were
	// outstanding.
	ErrServerDied = errors.ErrServerDied

	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrTransportNotConnected indicates an operation before Start.
	ErrTransportNotConnected = errors.ErrTransportNotConnected
)
