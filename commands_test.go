package bkmrlsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownCommandsCoverRegistry(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, len(KnownCommands()))
	for _, spec := range KnownCommands() {
		names = append(names, spec.Name)

		assert.NotEmpty(t, spec.Description, spec.Name)
		assert.NotNil(t, spec.Schema, spec.Name)
		assert.NotEmpty(t, spec.Example, spec.Name)
	}

	assert.Equal(t, []string{
		CommandCreateSnippet,
		CommandUpdateSnippet,
		CommandDeleteSnippet,
		CommandGetSnippet,
		CommandListSnippets,
		CommandSearchSnippets,
		CommandInsertFilepathComment,
	}, names)
}

func TestLookupCommand(t *testing.T) {
	t.Parallel()

	spec, ok := LookupCommand(CommandGetSnippet)
	require.True(t, ok)
	assert.Equal(t, CommandGetSnippet, spec.Name)

	_, ok = LookupCommand("bkmr.unknown")
	assert.False(t, ok)
}

func TestValidateArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
		args    map[string]any
		wantErr bool
	}{
		{
			name:    "valid get",
			command: CommandGetSnippet,
			args:    map[string]any{"id": 1},
		},
		{
			name:    "get missing id",
			command: CommandGetSnippet,
			args:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "get wrong id type",
			command: CommandGetSnippet,
			args:    map[string]any{"id": "one"},
			wantErr: true,
		},
		{
			name:    "valid create",
			command: CommandCreateSnippet,
			args: map[string]any{
				"url":   "echo hi",
				"title": "hi",
				"tags":  []any{"sh"},
			},
		},
		{
			name:    "create missing title",
			command: CommandCreateSnippet,
			args:    map[string]any{"url": "echo hi"},
			wantErr: true,
		},
		{
			name:    "list without filter",
			command: CommandListSnippets,
			args:    map[string]any{},
		},
		{
			name:    "search valid",
			command: CommandSearchSnippets,
			args:    map[string]any{"query": "async"},
		},
		{
			name:    "unknown command passes through",
			command: "bkmr.futureCommand",
			args:    map[string]any{"anything": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateArguments(tt.command, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommandExamplesValidate(t *testing.T) {
	t.Parallel()

	// Every registry example must pass its own schema.
	for _, spec := range KnownCommands() {
		assert.NoError(t, ValidateArguments(spec.Name, spec.Example), spec.Name)
	}
}
