package bkmrlsp

import (
	"context"
	"fmt"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// This helper creates a session, starts it, performs the initialize
// handshake, executes the callback, and ensures the server process is torn
// down via Shutdown and Close when done.
//
// The callback receives a fully initialized Session that is ready for
// document and command operations. If the callback returns an error, it is
// returned to the caller. Shutdown and Close failures during cleanup are
// logged but do not override the callback's error.
//
// Example usage:
//
//	err := bkmrlsp.WithSession(ctx, func(s bkmrlsp.Session) error {
//	    raw, err := s.ExecuteCommand(ctx, bkmrlsp.CommandListSnippets, nil)
//	    if err != nil {
//	        return err
//	    }
//	    // process result...
//	    return nil
//	},
//	    bkmrlsp.WithDatabase("/path/to/bkmr.db"),
//	    bkmrlsp.WithLogger(log),
//	)
func WithSession(ctx context.Context, fn func(Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applySessionOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	session := newSessionImpl(options)

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("failed to close session", "error", closeErr)
		}
	}()

	if _, err := session.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	if err := session.Initialized(ctx); err != nil {
		return fmt.Errorf("failed to complete handshake: %w", err)
	}

	err := fn(session)

	if shutdownErr := session.Shutdown(ctx); shutdownErr != nil {
		log.Warn("shutdown handshake failed", "error", shutdownErr)
	}

	return err
}
