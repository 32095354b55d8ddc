// Package config defines the internal configuration surface shared by the
// transport, protocol, and session layers. The public package exposes it
// through functional options.
package config

import (
	"log/slog"
	"time"
)

// Defaults applied by Normalize. The timing values mirror what the bkmr
// debug tooling has always used: half a second of startup grace, five
// seconds per request, two seconds of cooperative shutdown.
const (
	DefaultRequestTimeout = 5 * time.Second
	DefaultStartupGrace   = 500 * time.Millisecond
	DefaultTerminateGrace = 2 * time.Second

	DefaultClientName    = "bkmr-lsp-client-go"
	DefaultClientVersion = "0.1.0"

	// DefaultLogLevel is forwarded as RUST_LOG when the caller sets nothing.
	DefaultLogLevel = "info"

	// DefaultNotificationBuffer is the capacity of the notification sink
	// channel. Unsolicited server notifications beyond this are dropped
	// rather than allowed to stall the protocol read path.
	DefaultNotificationBuffer = 64
)

// Options configures a session. Zero values mean "use the default".
type Options struct {
	// Logger receives debug, info, warn, and error messages. Nil disables
	// logging entirely.
	Logger *slog.Logger

	// ServerPath is the explicit path to the bkmr binary. When empty the
	// binary is discovered in PATH and common install directories.
	ServerPath string

	// ServerArgs are extra arguments appended after the "lsp" subcommand.
	ServerArgs []string

	// NoInterpolation disables template interpolation in the server
	// (bkmr lsp --no-interpolation).
	NoInterpolation bool

	// Database is forwarded to the server as BKMR_DB_URL. The client never
	// interprets it.
	Database string

	// LogLevel is forwarded to the server as RUST_LOG.
	LogLevel string

	// Env is an additional environment overlay for the server process.
	Env map[string]string

	// Cwd is the working directory for the server process.
	Cwd string

	// ClientName and ClientVersion are reported in the initialize request.
	ClientName    string
	ClientVersion string

	// RequestTimeout bounds each request's wait for its response.
	RequestTimeout time.Duration

	// StartupGrace is how long Start watches for an immediate server exit
	// before declaring the process healthy.
	StartupGrace time.Duration

	// TerminateGrace is how long Close waits for cooperative exit before
	// force-killing the server.
	TerminateGrace time.Duration

	// NotificationBuffer overrides the notification sink capacity.
	NotificationBuffer int

	// Stderr, when set, receives every classified server stderr line.
	Stderr func(DiagnosticLine)

	// Transport, when set, replaces the subprocess transport. Used for
	// testing against in-process stub servers.
	Transport Transport
}

// Normalize fills unset fields with defaults and returns the receiver.
func (o *Options) Normalize() *Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}

	if o.StartupGrace <= 0 {
		o.StartupGrace = DefaultStartupGrace
	}

	if o.TerminateGrace <= 0 {
		o.TerminateGrace = DefaultTerminateGrace
	}

	if o.ClientName == "" {
		o.ClientName = DefaultClientName
	}

	if o.ClientVersion == "" {
		o.ClientVersion = DefaultClientVersion
	}

	if o.LogLevel == "" {
		o.LogLevel = DefaultLogLevel
	}

	if o.NotificationBuffer <= 0 {
		o.NotificationBuffer = DefaultNotificationBuffer
	}

	return o
}
