// Package bkmrlsp is a test client for the bkmr LSP server.
//
// It spawns `bkmr lsp` as a child process, speaks the LSP base protocol
// over its stdin/stdout pipes, and exposes the lifecycle handshake, text
// document sync, completion, and the bkmr workspace command surface as a
// typed Go API. Stderr is drained concurrently and classified, and every
// request carries a timeout so a wedged server is reported instead of
// hanging the caller.
//
// The entry point is NewSession:
//
//	session := bkmrlsp.NewSession(
//	    bkmrlsp.WithDatabase("/path/to/bkmr.db"),
//	    bkmrlsp.WithLogger(slog.Default()),
//	)
//	defer session.Close()
//
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := session.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Initialized(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	snippet, err := bkmrlsp.GetSnippet(ctx, session, 42)
//
// WithSession wraps the same sequence, including cleanup, around a
// callback.
package bkmrlsp
