package bkmrlsp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSession answers ExecuteCommand from a canned result and records the
// calls it saw.
type stubSession struct {
	Session

	result  json.RawMessage
	err     error
	command string
	args    []any
}

func (s *stubSession) ExecuteCommand(_ context.Context, command string, args []any) (json.RawMessage, error) {
	s.command = command
	s.args = args

	if s.err != nil {
		return nil, s.err
	}

	return s.result, nil
}

func TestGetSnippet(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{
		"id": 42,
		"title": "Hello World",
		"url": "echo hello",
		"tags": ["sh", "demo"],
		"description": "greeting"
	}`)}

	snippet, err := GetSnippet(context.Background(), s, 42)
	require.NoError(t, err)

	assert.Equal(t, CommandGetSnippet, s.command)
	require.Len(t, s.args, 1)
	assert.Equal(t, map[string]any{"id": 42}, s.args[0])

	assert.Equal(t, 42, snippet.ID)
	assert.Equal(t, "Hello World", snippet.Title)
	assert.Equal(t, "echo hello", snippet.Body())
	assert.Equal(t, []string{"sh", "demo"}, snippet.Tags)
}

func TestGetSnippetEmbeddedFailure(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{
		"success": false,
		"error": {"message": "Snippet with id 999 not found"}
	}`)}

	_, err := GetSnippet(context.Background(), s, 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "999 not found")
}

func TestGetSnippetEmptyResult(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{}`)}

	_, err := GetSnippet(context.Background(), s, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snippet")
}

func TestListSnippetsWrappedResult(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{
		"snippets": [
			{"id": 1, "title": "one", "url": "echo 1"},
			{"id": 2, "title": "two", "url": "echo 2"}
		]
	}`)}

	snippets, err := ListSnippets(context.Background(), s, "sh")
	require.NoError(t, err)

	assert.Equal(t, CommandListSnippets, s.command)
	require.Len(t, s.args, 1)
	assert.Equal(t, map[string]any{"language": "sh"}, s.args[0])

	require.Len(t, snippets, 2)
	assert.Equal(t, "one", snippets[0].Title)
	assert.Equal(t, 2, snippets[1].ID)
}

func TestListSnippetsNoFilter(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{"snippets": []}`)}

	snippets, err := ListSnippets(context.Background(), s, "")
	require.NoError(t, err)
	assert.Empty(t, snippets)

	// No language key when no filter was asked for.
	require.Len(t, s.args, 1)
	assert.Equal(t, map[string]any{}, s.args[0])
}

func TestSearchSnippetsBareArrayResult(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`[{"id": 3, "title": "three", "url": "echo 3"}]`)}

	snippets, err := SearchSnippets(context.Background(), s, "echo")
	require.NoError(t, err)

	assert.Equal(t, CommandSearchSnippets, s.command)
	require.Len(t, snippets, 1)
	assert.Equal(t, 3, snippets[0].ID)
}

func TestSnippetBodyPrefersContent(t *testing.T) {
	t.Parallel()

	s := Snippet{URL: "legacy", Content: "modern"}
	assert.Equal(t, "modern", s.Body())

	s = Snippet{URL: "legacy"}
	assert.Equal(t, "legacy", s.Body())
}

func TestCreateSnippetValidatesLocally(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{"success": true}`)}

	// Missing title never reaches the server.
	_, err := executeCommand(context.Background(), s, CommandCreateSnippet, map[string]any{"url": "echo"})
	require.Error(t, err)
	assert.Empty(t, s.command)

	_, err = CreateSnippet(context.Background(), s, "greeting", "echo hello", []string{"sh"})
	require.NoError(t, err)
	assert.Equal(t, CommandCreateSnippet, s.command)
}

func TestDeleteSnippet(t *testing.T) {
	t.Parallel()

	s := &stubSession{result: json.RawMessage(`{"success": true}`)}

	require.NoError(t, DeleteSnippet(context.Background(), s, 5))
	assert.Equal(t, CommandDeleteSnippet, s.command)
}

func TestDecodeSnippetListNull(t *testing.T) {
	t.Parallel()

	snippets, err := decodeSnippetList(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, snippets)
}
