package config

import (
	"context"
	"time"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

// Transport abstracts the connection to the LSP server process.
//
// The default implementation spawns a bkmr subprocess and frames messages
// over its stdio pipes. Tests inject pipe-backed stubs through
// Options.Transport.
type Transport interface {
	// Start launches the server and begins pumping messages. It fails with
	// StartupError if the process exits within the startup grace period.
	Start(ctx context.Context) error

	// Send writes one message to the server's input stream. A write after
	// process death fails with TransportError.
	Send(ctx context.Context, msg wire.Message) error

	// Messages returns the channel of decoded incoming messages. The
	// channel closes when the output stream reaches end-of-stream.
	Messages() <-chan wire.Message

	// Errors returns the channel of read-side errors. ProtocolErrors are
	// recoverable (the reader skipped the message and kept going); any
	// other error is fatal to the session.
	Errors() <-chan error

	// Terminate requests cooperative shutdown, force-killing after grace.
	// It always waits for process exit before returning.
	Terminate(grace time.Duration) error

	// Close releases all resources. Safe to call multiple times.
	Close() error
}
