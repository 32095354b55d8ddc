// Package errors defines error types for the bkmr LSP client.
//
// This package provides structured error types that wrap different failure
// scenarios when driving the bkmr LSP server. All error types support
// error unwrapping and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
