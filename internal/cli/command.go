package cli

import (
	"fmt"
	"os"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
)

// BuildArgs constructs the server command arguments.
//
// The server always runs as "bkmr lsp"; extra arguments from the options
// are appended verbatim after the subcommand.
func BuildArgs(options *config.Options) []string {
	args := []string{"lsp"}

	if options.NoInterpolation {
		args = append(args, "--no-interpolation")
	}

	args = append(args, options.ServerArgs...)

	return args
}

// BuildEnvironment constructs the environment for the server process.
//
// The overlay is applied on top of the current environment; the client
// never mutates its own process environment. RUST_LOG and BKMR_DB_URL are
// opaque to the client and merely forwarded.
func BuildEnvironment(options *config.Options) []string {
	env := os.Environ()

	if options.LogLevel != "" {
		env = append(env, "RUST_LOG="+options.LogLevel)
	}

	if options.Database != "" {
		env = append(env, "BKMR_DB_URL="+options.Database)
	}

	for key, value := range options.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}
