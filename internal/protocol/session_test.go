package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/lsp"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

func testSessionOptions(tr config.Transport) *config.Options {
	return &config.Options{
		Transport:      tr,
		RequestTimeout: time.Second,
	}
}

func initializeResult() string {
	return `{
		"capabilities": {
			"completionProvider": {"triggerCharacters": [":"]},
			"executeCommandProvider": {"commands": ["bkmr.getSnippet", "bkmr.listSnippets"]}
		},
		"serverInfo": {"name": "bkmr-lsp", "version": "1.0.0"}
	}`
}

func TestSessionLifecycleStates(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.respondWith(initializeResult())

	s := NewSession(nopLogger(), testSessionOptions(tr))
	assert.Equal(t, StateUnstarted, s.State())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateStarted, s.State())

	result, err := s.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, s.State())
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "bkmr-lsp", result.ServerInfo.Name)
	assert.Equal(t, []string{"bkmr.getSnippet", "bkmr.listSnippets"}, s.Commands())

	require.NoError(t, s.Initialized(context.Background()))

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, StateShuttingDown, s.State())

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionStartTwice(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()

	s := NewSession(nopLogger(), testSessionOptions(tr))

	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Close() })

	assert.ErrorIs(t, s.Start(context.Background()), errors.ErrAlreadyStarted)
}

func TestSessionOperationsRequireInitialize(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()

	s := NewSession(nopLogger(), testSessionOptions(tr))

	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Completion(context.Background(), &lsp.CompletionParams{})
	require.Error(t, err)

	var stateErr *errors.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "started", stateErr.State)

	err = s.DidOpen(context.Background(), lsp.TextDocumentItem{URI: "file:///x"})
	assert.ErrorAs(t, err, &stateErr)
}

func TestSessionInitializeBeforeStart(t *testing.T) {
	t.Parallel()

	s := NewSession(nopLogger(), testSessionOptions(newFakeTransport()))

	_, err := s.Initialize(context.Background())

	var stateErr *errors.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "unstarted", stateErr.State)
}

func TestSessionHandshakeRejection(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.onSend = func(msg wire.Message) {
		req, ok := msg.(*wire.Request)
		if !ok || req.ID == 0 {
			return
		}

		tr.messages <- &wire.Response{
			JSONRPC: wire.Version,
			ID:      req.ID,
			Error:   &errors.RPCError{Code: errors.CodeInvalidParams, Message: "unsupported client"},
		}
	}

	s := NewSession(nopLogger(), testSessionOptions(tr))

	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Initialize(context.Background())
	require.Error(t, err)

	var handshakeErr *errors.HandshakeError
	require.ErrorAs(t, err, &handshakeErr)
	assert.Contains(t, handshakeErr.Error(), "unsupported client")

	// A failed handshake leaves the session started, not initialized.
	assert.Equal(t, StateStarted, s.State())
}

func TestSessionShutdownSendsExitAfterFailure(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport() // never answers, so shutdown times out

	opts := testSessionOptions(tr)
	opts.RequestTimeout = 50 * time.Millisecond

	s := NewSession(nopLogger(), opts)

	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Close() })

	err := s.Shutdown(context.Background())
	require.ErrorIs(t, err, errors.ErrRequestTimeout)

	// The exit notification must go out even though shutdown failed.
	var sawExit bool

	for _, msg := range tr.sentMessages() {
		req, ok := msg.(*wire.Request)
		if ok && req.ID == 0 && req.Method == lsp.MethodExit {
			sawExit = true
		}
	}

	assert.True(t, sawExit, "exit notification not sent after failed shutdown")
}

func TestSessionCloseIdempotentFromAnyState(t *testing.T) {
	t.Parallel()

	s := NewSession(nopLogger(), testSessionOptions(newFakeTransport()))

	// Close before Start.
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())

	// And everything after Close fails with the closed sentinel.
	assert.ErrorIs(t, s.Start(context.Background()), errors.ErrSessionClosed)

	_, err := s.Initialize(context.Background())
	assert.ErrorIs(t, err, errors.ErrSessionClosed)
}

// pipeTransport runs the real framing layer over in-process pipes against
// a stub server, exercising the full encode/frame/decode path without a
// child process.
type pipeTransport struct {
	framer *wire.Framer

	writeMu sync.Mutex

	clientIn io.Closer
	serverIn io.Closer

	messages chan wire.Message
	errs     chan error
}

func newPipeTransport(t *testing.T) *pipeTransport {
	t.Helper()

	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()

	tr := &pipeTransport{
		framer:   wire.NewFramer(s2cR, c2sW),
		clientIn: c2sW,
		serverIn: s2cW,
		messages: make(chan wire.Message, 16),
		errs:     make(chan error, 16),
	}

	go stubServer(wire.NewFramer(c2sR, s2cW), s2cW)

	return tr
}

func (p *pipeTransport) Start(context.Context) error {
	go func() {
		defer close(p.errs)
		defer close(p.messages)

		for {
			msg, err := p.framer.Read()
			if err != nil {
				return
			}

			p.messages <- msg
		}
	}()

	return nil
}

func (p *pipeTransport) Send(_ context.Context, msg wire.Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	return p.framer.Write(msg)
}

func (p *pipeTransport) Messages() <-chan wire.Message { return p.messages }
func (p *pipeTransport) Errors() <-chan error          { return p.errs }
func (p *pipeTransport) Terminate(time.Duration) error { return nil }

func (p *pipeTransport) Close() error {
	_ = p.clientIn.Close()
	_ = p.serverIn.Close()

	return nil
}

var _ config.Transport = (*pipeTransport)(nil)

// stubServer speaks enough of the protocol to carry a full session: the
// handshake, one notification, completion, executeCommand, and shutdown.
func stubServer(framer *wire.Framer, out io.Closer) {
	defer out.Close()

	respond := func(id int64, result string) {
		_ = framer.Write(&wire.Response{JSONRPC: wire.Version, ID: id, Result: []byte(result)})
	}

	for {
		msg, err := framer.Read()
		if err != nil {
			return
		}

		switch m := msg.(type) {
		case *wire.ServerRequest: // client requests decode as id+method
			switch m.Method {
			case lsp.MethodInitialize:
				respond(m.ID, initializeResult())

			case lsp.MethodCompletion:
				respond(m.ID, `{"isIncomplete":false,"items":[{"label":"hello-world","insertText":"echo hello","insertTextFormat":2}]}`)

			case lsp.MethodExecuteCommand:
				respond(m.ID, `{"id":7,"title":"greeting","url":"echo hello","tags":["sh"]}`)

			case lsp.MethodShutdown:
				respond(m.ID, `null`)

			default:
				_ = framer.Write(&wire.Response{
					JSONRPC: wire.Version,
					ID:      m.ID,
					Error:   &errors.RPCError{Code: errors.CodeMethodNotFound, Message: m.Method},
				})
			}

		case *wire.Notification:
			switch m.Method {
			case lsp.MethodInitialized:
				_ = framer.Write(&wire.Request{
					JSONRPC: wire.Version,
					Method:  "window/logMessage",
					Params:  map[string]any{"type": 3, "message": "bkmr LSP server ready"},
				})

			case lsp.MethodExit:
				return
			}
		}
	}
}

func TestSessionEndToEndOverPipes(t *testing.T) {
	t.Parallel()

	tr := newPipeTransport(t)

	s := NewSession(nopLogger(), testSessionOptions(tr))

	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Close() })

	result, err := s.Initialize(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Capabilities.ExecuteCommandProvider)

	require.NoError(t, s.Initialized(context.Background()))

	// The ready notification announced after the handshake.
	select {
	case n := <-s.Notifications():
		assert.Equal(t, "window/logMessage", n.Method)

	case <-time.After(2 * time.Second):
		t.Fatal("server notification not delivered")
	}

	require.NoError(t, s.DidOpen(context.Background(), lsp.TextDocumentItem{
		URI:        "file:///tmp/scratch.sh",
		LanguageID: "sh",
		Version:    1,
		Text:       "",
	}))

	list, err := s.Completion(context.Background(), &lsp.CompletionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///tmp/scratch.sh"},
		Position:     lsp.Position{Line: 0, Character: 0},
	})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "hello-world", list.Items[0].Label)
	assert.Equal(t, lsp.InsertTextSnippet, list.Items[0].InsertTextFormat)

	raw, err := s.ExecuteCommand(context.Background(), "bkmr.getSnippet", []any{map[string]any{"id": 7}})
	require.NoError(t, err)

	var snippet struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(raw, &snippet))
	assert.Equal(t, 7, snippet.ID)
	assert.Equal(t, "greeting", snippet.Title)

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Close())
}

func TestSessionConcurrentRequests(t *testing.T) {
	t.Parallel()

	tr := newPipeTransport(t)

	s := NewSession(nopLogger(), testSessionOptions(tr))

	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Initialize(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Go(func() {
			raw, err := s.ExecuteCommand(context.Background(), "bkmr.getSnippet", []any{map[string]any{"id": i}})
			assert.NoError(t, err)
			assert.NotEmpty(t, raw)
		})
	}

	wg.Wait()
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unstarted", StateUnstarted.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", fmt.Sprint(State(42)))
}
