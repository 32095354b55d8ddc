package bkmrlsp

import (
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/lsp"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

// SessionOptions configures a session. Usually built through the
// functional options; exposed for callers that prefer a struct.
type SessionOptions = config.Options

// Transport abstracts the byte stream to the server. The default
// implementation spawns `bkmr lsp` as a child process; tests substitute
// their own.
type Transport = config.Transport

// DiagnosticLine is one classified line of server stderr.
type DiagnosticLine = config.DiagnosticLine

// Severity classifies a stderr line.
type Severity = config.Severity

// Stderr severities, most to least severe.
const (
	SeverityError   = config.SeverityError
	SeverityWarning = config.SeverityWarning
	SeverityInfo    = config.SeverityInfo
	SeverityDebug   = config.SeverityDebug
	SeverityUnknown = config.SeverityUnknown
)

// Notification is an unsolicited server-to-client message.
type Notification = wire.Notification

// LSP structures used by the session API.
type (
	DocumentURI            = lsp.DocumentURI
	Position               = lsp.Position
	TextDocumentItem       = lsp.TextDocumentItem
	TextDocumentIdentifier = lsp.TextDocumentIdentifier
	ClientCapabilities     = lsp.ClientCapabilities
	InitializeResult       = lsp.InitializeResult
	ServerInfo             = lsp.ServerInfo
	ServerCapabilities     = lsp.ServerCapabilities
	CompletionParams       = lsp.CompletionParams
	CompletionContext      = lsp.CompletionContext
	CompletionItem         = lsp.CompletionItem
	CompletionList         = lsp.CompletionList
)

// Completion trigger kinds.
const (
	TriggerInvoked          = lsp.TriggerInvoked
	TriggerCharacter        = lsp.TriggerCharacter
	TriggerIncompleteResult = lsp.TriggerIncompleteResult
)

// Insert text formats.
const (
	InsertTextPlain   = lsp.InsertTextPlain
	InsertTextSnippet = lsp.InsertTextSnippet
)
