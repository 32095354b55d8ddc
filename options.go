package bkmrlsp

import (
	"log/slog"
	"time"
)

// Option configures SessionOptions using the functional options pattern.
type Option func(*SessionOptions)

// applySessionOptions applies functional options to a SessionOptions struct.
func applySessionOptions(opts []Option) *SessionOptions {
	options := &SessionOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *SessionOptions) {
		o.Logger = logger
	}
}

// WithServerPath sets the explicit path to the bkmr binary.
// If not set, the binary is searched in PATH and the usual install
// locations.
func WithServerPath(path string) Option {
	return func(o *SessionOptions) {
		o.ServerPath = path
	}
}

// WithServerArgs appends extra arguments after `bkmr lsp`.
func WithServerArgs(args ...string) Option {
	return func(o *SessionOptions) {
		o.ServerArgs = args
	}
}

// WithNoInterpolation starts the server with --no-interpolation, disabling
// template rendering of snippet bodies.
func WithNoInterpolation() Option {
	return func(o *SessionOptions) {
		o.NoInterpolation = true
	}
}

// WithDatabase sets the snippet database path, exported to the server as
// BKMR_DB_URL.
func WithDatabase(path string) Option {
	return func(o *SessionOptions) {
		o.Database = path
	}
}

// WithLogLevel sets the server's RUST_LOG level (default "info").
func WithLogLevel(level string) Option {
	return func(o *SessionOptions) {
		o.LogLevel = level
	}
}

// WithEnv provides additional environment variables for the server
// process.
func WithEnv(env map[string]string) Option {
	return func(o *SessionOptions) {
		o.Env = env
	}
}

// WithCwd sets the working directory for the server process.
func WithCwd(cwd string) Option {
	return func(o *SessionOptions) {
		o.Cwd = cwd
	}
}

// WithClientInfo sets the name and version reported in the initialize
// handshake.
func WithClientInfo(name, version string) Option {
	return func(o *SessionOptions) {
		o.ClientName = name
		o.ClientVersion = version
	}
}

// ===== Timeouts =====

// WithRequestTimeout bounds how long each request waits for its response
// (default 5s).
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *SessionOptions) {
		o.RequestTimeout = timeout
	}
}

// WithStartupGrace sets how long Start watches the freshly spawned process
// for an early exit (default 500ms).
func WithStartupGrace(grace time.Duration) Option {
	return func(o *SessionOptions) {
		o.StartupGrace = grace
	}
}

// WithTerminateGrace sets how long Close waits after SIGTERM before
// force-killing the process (default 2s).
func WithTerminateGrace(grace time.Duration) Option {
	return func(o *SessionOptions) {
		o.TerminateGrace = grace
	}
}

// ===== Plumbing =====

// WithStderrHandler registers a callback invoked for every classified line
// of server stderr. The callback runs on the monitor goroutine; keep it
// fast.
func WithStderrHandler(fn func(DiagnosticLine)) Option {
	return func(o *SessionOptions) {
		o.Stderr = fn
	}
}

// WithNotificationBuffer sets the capacity of the notification sink
// (default 64). Notifications beyond a full sink are dropped with a
// warning.
func WithNotificationBuffer(n int) Option {
	return func(o *SessionOptions) {
		o.NotificationBuffer = n
	}
}

// WithTransport substitutes a custom transport, bypassing process
// spawning. Intended for tests.
func WithTransport(t Transport) Option {
	return func(o *SessionOptions) {
		o.Transport = t
	}
}
