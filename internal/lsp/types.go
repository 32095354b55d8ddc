// Package lsp defines the subset of Language Server Protocol structures the
// bkmr server speaks: the lifecycle handshake, text document sync,
// completion, and workspace command execution.
package lsp

import (
	"encoding/json"
	"fmt"
)

// Method names used by the client.
const (
	MethodInitialize     = "initialize"
	MethodInitialized    = "initialized"
	MethodShutdown       = "shutdown"
	MethodExit           = "exit"
	MethodDidOpen        = "textDocument/didOpen"
	MethodDidChange      = "textDocument/didChange"
	MethodDidClose       = "textDocument/didClose"
	MethodCompletion     = "textDocument/completion"
	MethodExecuteCommand = "workspace/executeCommand"
)

// DocumentURI is a resource identifier, typically a file:// URI.
type DocumentURI string

// Position is a zero-based line/character offset in a document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// VersionedTextDocumentIdentifier identifies a specific document version.
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// TextDocumentItem transfers a document from client to server.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentContentChangeEvent describes a document content change. The
// bkmr server only consumes full-document sync, so no range is carried.
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// ClientInfo identifies the client in the initialize request.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ClientCapabilities advertises what this client supports. Only the
// completion-related capabilities matter to the snippet server.
type ClientCapabilities struct {
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
}

// TextDocumentClientCapabilities groups text document capabilities.
type TextDocumentClientCapabilities struct {
	Completion *CompletionClientCapabilities `json:"completion,omitempty"`
}

// CompletionClientCapabilities advertises completion support.
type CompletionClientCapabilities struct {
	CompletionItem *CompletionItemCapabilities `json:"completionItem,omitempty"`
	ContextSupport bool                        `json:"contextSupport,omitempty"`
}

// CompletionItemCapabilities advertises per-item completion support.
type CompletionItemCapabilities struct {
	SnippetSupport       bool `json:"snippetSupport,omitempty"`
	InsertReplaceSupport bool `json:"insertReplaceSupport,omitempty"`
	DeprecatedSupport    bool `json:"deprecatedSupport,omitempty"`
}

// DefaultCapabilities is what the client advertises unless overridden:
// snippet-capable completion with context support, matching what the bkmr
// server expects from editor integrations.
func DefaultCapabilities() ClientCapabilities {
	return ClientCapabilities{
		TextDocument: &TextDocumentClientCapabilities{
			Completion: &CompletionClientCapabilities{
				CompletionItem: &CompletionItemCapabilities{
					SnippetSupport:       true,
					InsertReplaceSupport: true,
					DeprecatedSupport:    true,
				},
				ContextSupport: true,
			},
		},
	}
}

// InitializeParams are the parameters of the initialize request. ProcessID
// and WorkspaceFolders are serialized as explicit nulls when absent, the
// shape the server's LSP library expects.
type InitializeParams struct {
	ProcessID        *int               `json:"processId"`
	ClientInfo       *ClientInfo        `json:"clientInfo,omitempty"`
	Capabilities     ClientCapabilities `json:"capabilities"`
	WorkspaceFolders any                `json:"workspaceFolders"`
}

// InitializeResult is the server's answer to initialize.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// ServerInfo identifies the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerCapabilities is the subset of server capabilities this client
// inspects.
type ServerCapabilities struct {
	TextDocumentSync       any                    `json:"textDocumentSync,omitempty"`
	CompletionProvider     *CompletionOptions     `json:"completionProvider,omitempty"`
	ExecuteCommandProvider *ExecuteCommandOptions `json:"executeCommandProvider,omitempty"`
}

// CompletionOptions describes the server's completion support.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
	ResolveProvider   bool     `json:"resolveProvider,omitempty"`
}

// ExecuteCommandOptions lists the commands the server executes.
type ExecuteCommandOptions struct {
	Commands []string `json:"commands,omitempty"`
}

// DidOpenParams are the parameters of textDocument/didOpen.
type DidOpenParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidChangeParams are the parameters of textDocument/didChange.
type DidChangeParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseParams are the parameters of textDocument/didClose.
type DidCloseParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// CompletionTriggerKind says how completion was started.
type CompletionTriggerKind int

const (
	TriggerInvoked          CompletionTriggerKind = 1
	TriggerCharacter        CompletionTriggerKind = 2
	TriggerIncompleteResult CompletionTriggerKind = 3
)

// CompletionContext carries the trigger information.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

// CompletionParams are the parameters of textDocument/completion.
type CompletionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	Context      *CompletionContext     `json:"context,omitempty"`
}

// InsertTextFormat says how a completion item's insert text is interpreted.
type InsertTextFormat int

const (
	InsertTextPlain   InsertTextFormat = 1
	InsertTextSnippet InsertTextFormat = 2
)

// CompletionItem is one completion suggestion. The bkmr server stashes
// snippet metadata (id, tags) in Data.
type CompletionItem struct {
	Label            string           `json:"label"`
	Kind             int              `json:"kind,omitempty"`
	Detail           string           `json:"detail,omitempty"`
	Documentation    any              `json:"documentation,omitempty"`
	FilterText       string           `json:"filterText,omitempty"`
	SortText         string           `json:"sortText,omitempty"`
	InsertText       string           `json:"insertText,omitempty"`
	InsertTextFormat InsertTextFormat `json:"insertTextFormat,omitempty"`
	Data             json.RawMessage  `json:"data,omitempty"`
}

// CompletionList is a collection of completion items.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// ExecuteCommandParams are the parameters of workspace/executeCommand.
type ExecuteCommandParams struct {
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// DecodeCompletionResult normalizes the two result shapes the protocol
// allows — a bare item array or a CompletionList — into a CompletionList.
// A null result means "no completions" and decodes to an empty list.
func DecodeCompletionResult(raw json.RawMessage) (*CompletionList, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return &CompletionList{}, nil
	}

	if raw[0] == '[' {
		var items []CompletionItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode completion items: %w", err)
		}

		return &CompletionList{Items: items}, nil
	}

	var list CompletionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode completion list: %w", err)
	}

	return &list, nil
}
