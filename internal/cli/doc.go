// Package cli locates the bkmr binary and builds the command line and
// environment for its LSP server mode.
package cli
