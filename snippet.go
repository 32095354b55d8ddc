package bkmrlsp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Snippet is one stored bkmr snippet. The server returns content under
// "url" for historical reasons; Content covers servers that already use
// the newer key.
type Snippet struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Content     string   `json:"content,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Metadata    string   `json:"metadata,omitempty"`
	FilePath    string   `json:"file_path,omitempty"`
	FileMtime   int64    `json:"file_mtime,omitempty"`
}

// Body returns the snippet content regardless of which key the server
// used.
func (s *Snippet) Body() string {
	if s.Content != "" {
		return s.Content
	}

	return s.URL
}

// commandFailure is the embedded failure shape some command results carry
// instead of an RPC-level error.
type commandFailure struct {
	Success *bool `json:"success"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// checkCommandResult surfaces a {"success": false, "error": {...}} payload
// as an error. Results without the envelope pass through.
func checkCommandResult(command string, raw json.RawMessage) error {
	var failure commandFailure
	if err := json.Unmarshal(raw, &failure); err != nil {
		// Not an object; nothing to check.
		return nil //nolint:nilerr // non-envelope results are valid
	}

	if failure.Error != nil && failure.Success != nil && !*failure.Success {
		return fmt.Errorf("%s: %s", command, failure.Error.Message)
	}

	return nil
}

// executeCommand runs a command with the bkmr argument convention: a
// single-element array holding the argument object, validated locally
// first.
func executeCommand(ctx context.Context, s Session, command string, args map[string]any) (json.RawMessage, error) {
	if err := ValidateArguments(command, args); err != nil {
		return nil, err
	}

	raw, err := s.ExecuteCommand(ctx, command, []any{args})
	if err != nil {
		return nil, err
	}

	if err := checkCommandResult(command, raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// GetSnippet retrieves one snippet by id. The result is the snippet
// object itself, not a wrapper.
func GetSnippet(ctx context.Context, s Session, id int) (*Snippet, error) {
	raw, err := executeCommand(ctx, s, CommandGetSnippet, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	var snippet Snippet
	if err := json.Unmarshal(raw, &snippet); err != nil {
		return nil, fmt.Errorf("decode snippet: %w", err)
	}

	if snippet.ID == 0 {
		return nil, fmt.Errorf("%s: no snippet in result", CommandGetSnippet)
	}

	return &snippet, nil
}

// ListSnippets lists snippets, optionally filtered by language. Pass ""
// for all.
func ListSnippets(ctx context.Context, s Session, language string) ([]Snippet, error) {
	args := map[string]any{}
	if language != "" {
		args["language"] = language
	}

	raw, err := executeCommand(ctx, s, CommandListSnippets, args)
	if err != nil {
		return nil, err
	}

	return decodeSnippetList(raw)
}

// SearchSnippets searches snippets by query string.
func SearchSnippets(ctx context.Context, s Session, query string) ([]Snippet, error) {
	raw, err := executeCommand(ctx, s, CommandSearchSnippets, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}

	return decodeSnippetList(raw)
}

// CreateSnippet creates a snippet and returns the raw result payload.
func CreateSnippet(ctx context.Context, s Session, title, content string, tags []string) (json.RawMessage, error) {
	args := map[string]any{
		"url":   content,
		"title": title,
	}
	if len(tags) > 0 {
		args["tags"] = tags
	}

	return executeCommand(ctx, s, CommandCreateSnippet, args)
}

// DeleteSnippet deletes a snippet by id.
func DeleteSnippet(ctx context.Context, s Session, id int) error {
	_, err := executeCommand(ctx, s, CommandDeleteSnippet, map[string]any{"id": id})

	return err
}

// decodeSnippetList handles the two list shapes the server produces: a
// {"snippets": [...]} wrapper or a bare array.
func decodeSnippetList(raw json.RawMessage) ([]Snippet, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	if raw[0] == '[' {
		var snippets []Snippet
		if err := json.Unmarshal(raw, &snippets); err != nil {
			return nil, fmt.Errorf("decode snippets: %w", err)
		}

		return snippets, nil
	}

	var wrapper struct {
		Snippets []Snippet `json:"snippets"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode snippets: %w", err)
	}

	return wrapper.Snippets, nil
}
