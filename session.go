package bkmrlsp

import (
	"context"
	"encoding/json"
)

// Session is a stateful connection to one bkmr LSP server process.
//
// Lifecycle: Start spawns and validates the process, Initialize performs
// the protocol handshake, Initialized completes it. Document and command
// operations require an initialized session. Shutdown performs the
// cooperative termination handshake; Close always works, from any state,
// and guarantees the process is gone.
//
// Sessions are single-use. After Close, create a new one with NewSession.
//
// Example usage:
//
//	session := NewSession(WithDatabase(db))
//	defer session.Close()
//
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := session.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Initialized(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	raw, err := session.ExecuteCommand(ctx, CommandListSnippets, nil)
type Session interface {
	// Start spawns the server process and validates it survives startup.
	// Returns ServerNotFoundError if the binary is missing, StartupError
	// (with exit code and stderr) if the process dies immediately.
	Start(ctx context.Context) error

	// Initialize performs the LSP handshake and returns the server's
	// capabilities. Returns HandshakeError if the server rejects it.
	Initialize(ctx context.Context) (*InitializeResult, error)

	// Initialized sends the initialized notification, completing the
	// handshake.
	Initialized(ctx context.Context) error

	// DidOpen announces a document to the server.
	DidOpen(ctx context.Context, doc TextDocumentItem) error

	// DidChange replaces a document's content (full sync).
	DidChange(ctx context.Context, uri DocumentURI, version int, text string) error

	// DidClose closes a document.
	DidClose(ctx context.Context, uri DocumentURI) error

	// Completion requests snippet completions at a position.
	Completion(ctx context.Context, params *CompletionParams) (*CompletionList, error)

	// ExecuteCommand runs a workspace/executeCommand request and returns
	// the raw result payload.
	ExecuteCommand(ctx context.Context, command string, args []any) (json.RawMessage, error)

	// Request issues an arbitrary request. An error response surfaces as
	// *RPCError.
	Request(ctx context.Context, method string, params any) (json.RawMessage, error)

	// Notify sends an arbitrary notification.
	Notify(ctx context.Context, method string, params any) error

	// Notifications returns the stream of unsolicited server
	// notifications. The channel closes when the session stops.
	Notifications() <-chan *Notification

	// InitializeResult returns the handshake result, or nil before
	// Initialize.
	InitializeResult() *InitializeResult

	// Commands lists the executeCommand names the server advertised.
	Commands() []string

	// Shutdown sends the shutdown request followed by the exit
	// notification. Exit is sent even if shutdown fails.
	Shutdown(ctx context.Context) error

	// Close terminates the server process and releases all resources.
	// Idempotent and valid from any state.
	Close() error
}

// NewSession creates a session for the given options. Nothing runs until
// Start.
func NewSession(opts ...Option) Session {
	return newSessionImpl(applySessionOptions(opts))
}
