package bkmrlsp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Workspace commands exposed by the bkmr LSP server.
const (
	CommandCreateSnippet         = "bkmr.createSnippet"
	CommandUpdateSnippet         = "bkmr.updateSnippet"
	CommandDeleteSnippet         = "bkmr.deleteSnippet"
	CommandGetSnippet            = "bkmr.getSnippet"
	CommandListSnippets          = "bkmr.listSnippets"
	CommandSearchSnippets        = "bkmr.searchSnippets"
	CommandInsertFilepathComment = "bkmr.insertFilepathComment"
)

// CommandSpec describes one workspace command: what it does, the shape of
// its argument object, and a representative example.
type CommandSpec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Example     map[string]any
}

// commandRegistry is the known command surface of the bkmr server, in
// stable display order. The server remains the source of truth; commands
// it advertises beyond this list still execute through ExecuteCommand,
// they just lack a local spec.
var commandRegistry = []CommandSpec{
	{
		Name:        CommandCreateSnippet,
		Description: "Create a new snippet in the database",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url":         {Type: "string", Description: "Snippet content/code"},
				"title":       {Type: "string", Description: "Snippet title"},
				"description": {Type: "string", Description: "Optional description"},
				"tags":        {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "List of tags"},
			},
			Required: []string{"url", "title"},
		},
		Example: map[string]any{
			"url":         "console.log('Hello, World!');",
			"title":       "JavaScript Hello World",
			"description": "Simple console log example",
			"tags":        []any{"javascript", "example"},
		},
	},
	{
		Name:        CommandUpdateSnippet,
		Description: "Update an existing snippet",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id":    {Type: "integer", Description: "Snippet ID"},
				"url":   {Type: "string", Description: "Updated content"},
				"title": {Type: "string", Description: "Updated title"},
				"tags":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Updated tags"},
			},
			Required: []string{"id"},
		},
		Example: map[string]any{
			"id":    1,
			"url":   "console.log('Updated!');",
			"title": "Updated JavaScript",
			"tags":  []any{"javascript", "updated"},
		},
	},
	{
		Name:        CommandDeleteSnippet,
		Description: "Delete a snippet from the database",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {Type: "integer", Description: "Snippet ID to delete"},
			},
			Required: []string{"id"},
		},
		Example: map[string]any{"id": 1},
	},
	{
		Name:        CommandGetSnippet,
		Description: "Retrieve a specific snippet by ID",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {Type: "integer", Description: "Snippet ID to retrieve"},
			},
			Required: []string{"id"},
		},
		Example: map[string]any{"id": 1},
	},
	{
		Name:        CommandListSnippets,
		Description: "List snippets with optional language filtering",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"language": {Type: "string", Description: "Optional language filter (e.g., 'rust', 'python')"},
			},
		},
		Example: map[string]any{"language": "rust"},
	},
	{
		Name:        CommandSearchSnippets,
		Description: "Search snippets by query",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Search query string"},
			},
			Required: []string{"query"},
		},
		Example: map[string]any{"query": "async"},
	},
	{
		Name:        CommandInsertFilepathComment,
		Description: "Insert a comment with the current file path",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"uri": {Type: "string", Description: "File URI"},
			},
			Required: []string{"uri"},
		},
		Example: map[string]any{"uri": "file:///path/to/file.rs"},
	},
}

// KnownCommands returns the specs of all known bkmr commands.
func KnownCommands() []CommandSpec {
	out := make([]CommandSpec, len(commandRegistry))
	copy(out, commandRegistry)

	return out
}

// LookupCommand returns the spec for a command name.
func LookupCommand(name string) (CommandSpec, bool) {
	for _, spec := range commandRegistry {
		if spec.Name == name {
			return spec, true
		}
	}

	return CommandSpec{}, false
}

// ValidateArguments checks a command's argument object against its schema
// before it goes over the wire, turning a would-be server-side rejection
// into a local error. Unknown commands validate trivially.
func ValidateArguments(command string, args map[string]any) error {
	spec, ok := LookupCommand(command)
	if !ok {
		return nil
	}

	resolved, err := spec.Schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve %s schema: %w", command, err)
	}

	if err := resolved.Validate(args); err != nil {
		return fmt.Errorf("%s arguments: %w", command, err)
	}

	return nil
}
