package bkmrlsp

import (
	"context"
	"encoding/json"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/protocol"
)

// sessionWrapper wraps the internal session to adapt it to the public
// interface.
type sessionWrapper struct {
	impl *protocol.Session
}

// Compile-time check that *sessionWrapper implements the Session interface.
var _ Session = (*sessionWrapper)(nil)

// newSessionImpl creates the internal session implementation.
func newSessionImpl(options *config.Options) Session {
	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return &sessionWrapper{impl: protocol.NewSession(log, options)}
}

// Start spawns the server process and validates it survives startup.
func (s *sessionWrapper) Start(ctx context.Context) error {
	return s.impl.Start(ctx)
}

// Initialize performs the LSP handshake.
func (s *sessionWrapper) Initialize(ctx context.Context) (*InitializeResult, error) {
	return s.impl.Initialize(ctx)
}

// Initialized completes the handshake.
func (s *sessionWrapper) Initialized(ctx context.Context) error {
	return s.impl.Initialized(ctx)
}

// DidOpen announces a document to the server.
func (s *sessionWrapper) DidOpen(ctx context.Context, doc TextDocumentItem) error {
	return s.impl.DidOpen(ctx, doc)
}

// DidChange replaces a document's content.
func (s *sessionWrapper) DidChange(ctx context.Context, uri DocumentURI, version int, text string) error {
	return s.impl.DidChange(ctx, uri, version, text)
}

// DidClose closes a document.
func (s *sessionWrapper) DidClose(ctx context.Context, uri DocumentURI) error {
	return s.impl.DidClose(ctx, uri)
}

// Completion requests completions at a position.
func (s *sessionWrapper) Completion(ctx context.Context, params *CompletionParams) (*CompletionList, error) {
	return s.impl.Completion(ctx, params)
}

// ExecuteCommand runs a workspace command.
func (s *sessionWrapper) ExecuteCommand(ctx context.Context, command string, args []any) (json.RawMessage, error) {
	return s.impl.ExecuteCommand(ctx, command, args)
}

// Request issues an arbitrary request.
func (s *sessionWrapper) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return s.impl.Request(ctx, method, params)
}

// Notify sends an arbitrary notification.
func (s *sessionWrapper) Notify(ctx context.Context, method string, params any) error {
	return s.impl.Notify(ctx, method, params)
}

// Notifications returns the unsolicited notification stream.
func (s *sessionWrapper) Notifications() <-chan *Notification {
	return s.impl.Notifications()
}

// InitializeResult returns the handshake result, or nil before Initialize.
func (s *sessionWrapper) InitializeResult() *InitializeResult {
	return s.impl.InitializeResult()
}

// Commands lists the advertised executeCommand names.
func (s *sessionWrapper) Commands() []string {
	return s.impl.Commands()
}

// Shutdown performs the two-step termination handshake.
func (s *sessionWrapper) Shutdown(ctx context.Context) error {
	return s.impl.Shutdown(ctx)
}

// Close terminates the server process and releases all resources.
func (s *sessionWrapper) Close() error {
	return s.impl.Close()
}
