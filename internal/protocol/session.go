package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/lsp"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/subprocess"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

// State is the session lifecycle state.
type State int

const (
	StateUnstarted State = iota
	StateStarted
	StateInitialized
	StateShuttingDown
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarted:
		return "started"
	case StateInitialized:
		return "initialized"
	case StateShuttingDown:
		return "shutting down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives one server process through the LSP lifecycle:
//
//	Unstarted → Started → Initialized → ShuttingDown → Closed
//
// Document and command operations are only valid while Initialized.
// Close is valid from every state and idempotent; it guarantees the server
// process is gone and all pipes are released on every exit path.
type Session struct {
	log        *slog.Logger
	options    *config.Options
	transport  config.Transport
	correlator *Correlator

	mu         sync.Mutex
	state      State
	initResult *lsp.InitializeResult

	closeOnce sync.Once
	closeErr  error
}

// NewSession creates a session for the given options. Nothing runs until
// Start.
func NewSession(log *slog.Logger, options *config.Options) *Session {
	options = options.Normalize()

	// Each session gets a trace id so interleaved logs from multiple
	// sessions stay attributable.
	log = log.With("component", "session", "session_id", ulid.Make().String())

	transport := options.Transport
	if transport == nil {
		transport = subprocess.NewServerTransport(log, options)
	}

	return &Session{
		log:        log,
		options:    options,
		transport:  transport,
		correlator: NewCorrelator(log, transport, options.NotificationBuffer),
		state:      StateUnstarted,
	}
}

// Start spawns and validates the server process. StartupError (including
// the observed exit code when the process dies inside the grace period)
// propagates unmodified.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return errors.ErrSessionClosed
	case StateUnstarted:
	default:
		return errors.ErrAlreadyStarted
	}

	if err := s.transport.Start(ctx); err != nil {
		return err
	}

	s.correlator.Start()
	s.state = StateStarted

	return nil
}

// Initialize performs the protocol handshake. A response carrying an error
// field, or no response before the timeout, fails with HandshakeError.
func (s *Session) Initialize(ctx context.Context) (*lsp.InitializeResult, error) {
	if err := s.requireState(lsp.MethodInitialize, StateStarted); err != nil {
		return nil, err
	}

	caps := lsp.DefaultCapabilities()

	params := &lsp.InitializeParams{
		ProcessID: nil, // the server must not tie its lifetime to ours
		ClientInfo: &lsp.ClientInfo{
			Name:    s.options.ClientName,
			Version: s.options.ClientVersion,
		},
		Capabilities:     caps,
		WorkspaceFolders: nil,
	}

	resp, err := s.correlator.Call(ctx, lsp.MethodInitialize, params, s.options.RequestTimeout)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, &errors.HandshakeError{RPC: resp.Error}
	}

	var result lsp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &errors.ProtocolError{
			Reason: "malformed initialize result",
			Raw:    string(resp.Result),
			Err:    err,
		}
	}

	s.mu.Lock()
	s.state = StateInitialized
	s.initResult = &result
	s.mu.Unlock()

	s.log.Info("Session initialized",
		"server", serverName(&result),
		"commands", len(commands(&result)),
	)

	return &result, nil
}

// Initialized sends the initialized notification. Only valid after a
// successful Initialize.
func (s *Session) Initialized(ctx context.Context) error {
	if err := s.requireState(lsp.MethodInitialized, StateInitialized); err != nil {
		return err
	}

	return s.correlator.Notify(ctx, lsp.MethodInitialized, struct{}{})
}

// Request issues an arbitrary request and returns its raw result payload.
// A response carrying an error field surfaces as *RPCError.
func (s *Session) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := s.requireState(method, StateInitialized); err != nil {
		return nil, err
	}

	return s.call(ctx, method, params)
}

// Notify sends an arbitrary notification.
func (s *Session) Notify(ctx context.Context, method string, params any) error {
	if err := s.requireState(method, StateInitialized); err != nil {
		return err
	}

	return s.correlator.Notify(ctx, method, params)
}

// DidOpen announces a document so the server has a language context for
// completion filtering.
func (s *Session) DidOpen(ctx context.Context, doc lsp.TextDocumentItem) error {
	return s.Notify(ctx, lsp.MethodDidOpen, &lsp.DidOpenParams{TextDocument: doc})
}

// DidChange replaces a document's content (full sync).
func (s *Session) DidChange(ctx context.Context, uri lsp.DocumentURI, version int, text string) error {
	return s.Notify(ctx, lsp.MethodDidChange, &lsp.DidChangeParams{
		TextDocument: lsp.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: text}},
	})
}

// DidClose closes a document.
func (s *Session) DidClose(ctx context.Context, uri lsp.DocumentURI) error {
	return s.Notify(ctx, lsp.MethodDidClose, &lsp.DidCloseParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	})
}

// Completion requests completions at a position.
func (s *Session) Completion(ctx context.Context, params *lsp.CompletionParams) (*lsp.CompletionList, error) {
	raw, err := s.Request(ctx, lsp.MethodCompletion, params)
	if err != nil {
		return nil, err
	}

	return lsp.DecodeCompletionResult(raw)
}

// ExecuteCommand runs a workspace/executeCommand request and returns the
// raw result payload. The caller interprets domain semantics.
func (s *Session) ExecuteCommand(ctx context.Context, command string, args []any) (json.RawMessage, error) {
	return s.Request(ctx, lsp.MethodExecuteCommand, &lsp.ExecuteCommandParams{
		Command:   command,
		Arguments: args,
	})
}

// Shutdown performs the two-step termination handshake: the shutdown
// request followed by the exit notification. Exit is sent regardless of
// whether shutdown succeeded; the server owns its reaction to either.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()

	switch s.state {
	case StateStarted, StateInitialized:
		s.state = StateShuttingDown
	case StateShuttingDown:
	default:
		state := s.state
		s.mu.Unlock()

		return &errors.InvalidStateError{State: state.String(), Op: lsp.MethodShutdown}
	}

	s.mu.Unlock()

	_, shutdownErr := s.correlator.Call(ctx, lsp.MethodShutdown, nil, s.options.RequestTimeout)
	if shutdownErr != nil {
		s.log.Warn("Shutdown request failed, sending exit anyway", "error", shutdownErr)
	}

	if err := s.correlator.Notify(ctx, lsp.MethodExit, nil); err != nil {
		s.log.Debug("Exit notification failed", "error", err)
	}

	return shutdownErr
}

// Close releases everything: the correlator, the pipes, and the server
// process. Valid from any state, idempotent, and never leaves the process
// running.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.state != StateUnstarted && s.state != StateClosed
		s.state = StateClosed
		s.mu.Unlock()

		if !started {
			return
		}

		s.log.Debug("Closing session")

		s.closeErr = s.transport.Close()

		s.correlator.Stop()

		s.log.Info("Session closed")
	})

	return s.closeErr
}

// Notifications returns the sink of unsolicited server notifications.
func (s *Session) Notifications() <-chan *wire.Notification {
	return s.correlator.Notifications()
}

// InitializeResult returns the handshake result, or nil before Initialize.
func (s *Session) InitializeResult() *lsp.InitializeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initResult
}

// Commands lists the executeCommand names the server advertised.
func (s *Session) Commands() []string {
	return commands(s.InitializeResult())
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// call issues a request in the current state and unwraps the response.
func (s *Session) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	resp, err := s.correlator.Call(ctx, method, params, s.options.RequestTimeout)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("%s: %w", method, resp.Error)
	}

	return resp.Result, nil
}

// requireState guards an operation against the session lifecycle.
func (s *Session) requireState(op string, want State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return errors.ErrSessionClosed
	}

	if s.state != want {
		return &errors.InvalidStateError{State: s.state.String(), Op: op}
	}

	return nil
}

func serverName(result *lsp.InitializeResult) string {
	if result == nil || result.ServerInfo == nil {
		return "unknown"
	}

	return result.ServerInfo.Name
}

func commands(result *lsp.InitializeResult) []string {
	if result == nil || result.Capabilities.ExecuteCommandProvider == nil {
		return nil
	}

	return result.Capabilities.ExecuteCommandProvider.Commands
}
