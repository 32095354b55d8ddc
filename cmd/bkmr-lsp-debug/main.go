// bkmr-lsp-debug exercises a bkmr LSP server from the command line: it
// spawns `bkmr lsp`, runs the protocol handshake, and exposes the snippet
// command surface for inspection and troubleshooting.
//
// Usage:
//
//	bkmr-lsp-debug [flags] session            full lifecycle round trip
//	bkmr-lsp-debug [flags] commands           show the command surface
//	bkmr-lsp-debug [flags] get <id>           fetch one snippet
//	bkmr-lsp-debug [flags] list [language]    list snippets
//	bkmr-lsp-debug [flags] search <query>     search snippets
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	bkmrlsp "github.com/bkmrdev/bkmr-lsp-client-go"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config (optional)")
	server := flag.String("server", "", "Explicit path to the bkmr binary")
	database := flag.String("db", "", "Snippet database path (BKMR_DB_URL)")
	logLevel := flag.String("log-level", "", "Server RUST_LOG level")
	noInterp := flag.Bool("no-interpolation", false, "Disable snippet template interpolation")
	verbose := flag.Bool("v", false, "Verbose client logging")
	asJSON := flag.Bool("json", false, "Emit results as JSON")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, runFlags{
		server:   *server,
		database: *database,
		logLevel: *logLevel,
		noInterp: *noInterp,
		verbose:  *verbose,
		asJSON:   *asJSON,
	}, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "bkmr-lsp-debug: %v\n", err)
		os.Exit(1)
	}
}

type runFlags struct {
	server   string
	database string
	logLevel string
	noInterp bool
	verbose  bool
	asJSON   bool
}

func run(ctx context.Context, configPath string, flags runFlags, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	opts, err := buildOptions(cfg, flags)
	if err != nil {
		return err
	}

	command, rest := args[0], args[1:]

	err = bkmrlsp.WithSession(ctx, func(s bkmrlsp.Session) error {
		switch command {
		case "session":
			return runSession(ctx, s, flags.asJSON)
		case "commands":
			return showCommands(ctx, s, flags.asJSON)
		case "get":
			if len(rest) != 1 {
				return fmt.Errorf("usage: get <id>")
			}

			id, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("snippet id: %w", err)
			}

			return runGet(ctx, s, id, flags.asJSON)
		case "list":
			language := ""
			if len(rest) > 0 {
				language = rest[0]
			}

			return runList(ctx, s, language, flags.asJSON)
		case "search":
			if len(rest) != 1 {
				return fmt.Errorf("usage: search <query>")
			}

			return runSearch(ctx, s, rest[0], flags.asJSON)
		default:
			return fmt.Errorf("unknown command %q", command)
		}
	}, opts...)

	// The command registry is local knowledge; show it even when no
	// bkmr binary is installed.
	var notFound *bkmrlsp.ServerNotFoundError
	if command == "commands" && errors.As(err, &notFound) {
		fmt.Fprintf(os.Stderr, "no bkmr binary found, showing local registry only\n")

		return showCommands(ctx, nil, flags.asJSON)
	}

	return err
}

// buildOptions merges file config and flags into session options. Flags
// win.
func buildOptions(cfg *fileConfig, flags runFlags) ([]bkmrlsp.Option, error) {
	opts := []bkmrlsp.Option{
		bkmrlsp.WithClientInfo("bkmr-lsp-debug", "0.1.0"),
		bkmrlsp.WithStderrHandler(func(line bkmrlsp.DiagnosticLine) {
			if line.Severity == bkmrlsp.SeverityError || line.Severity == bkmrlsp.SeverityWarning {
				fmt.Fprintf(os.Stderr, "[server %s] %s\n", line.Severity, line.Text)
			}
		}),
	}

	if flags.verbose {
		opts = append(opts, bkmrlsp.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}

	if server := firstOf(flags.server, cfg.Server); server != "" {
		opts = append(opts, bkmrlsp.WithServerPath(server))
	}

	if db := firstOf(flags.database, cfg.Database); db != "" {
		opts = append(opts, bkmrlsp.WithDatabase(db))
	}

	if level := firstOf(flags.logLevel, cfg.LogLevel); level != "" {
		opts = append(opts, bkmrlsp.WithLogLevel(level))
	}

	if flags.noInterp || cfg.NoInterpolation {
		opts = append(opts, bkmrlsp.WithNoInterpolation())
	}

	timeout, err := cfg.requestTimeout()
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		opts = append(opts, bkmrlsp.WithRequestTimeout(timeout))
	}

	return opts, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// runSession drives the full protocol surface once: handshake results,
// document sync, a completion request, and the command list, while
// printing any notifications the server emits along the way.
func runSession(ctx context.Context, s bkmrlsp.Session, asJSON bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Unsolicited notifications (logMessage, publishDiagnostics) arrive
	// interleaved with responses; drain them concurrently so they are
	// visible the moment they happen.
	g.Go(func() error {
		for {
			select {
			case n, ok := <-s.Notifications():
				if !ok {
					return nil
				}

				fmt.Printf("notification %s: %s\n", n.Method, compact(n.Params))

			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		// Stop the notification drain once the round trip is done.
		defer cancel()

		result := s.InitializeResult()
		if result != nil && result.ServerInfo != nil {
			fmt.Printf("server: %s %s\n", result.ServerInfo.Name, result.ServerInfo.Version)
		}

		fmt.Printf("advertised commands: %v\n", s.Commands())

		doc := bkmrlsp.TextDocumentItem{
			URI:        "file:///tmp/bkmr-lsp-debug.sh",
			LanguageID: "sh",
			Version:    1,
			Text:       "# scratch\n",
		}

		if err := s.DidOpen(ctx, doc); err != nil {
			return err
		}

		list, err := s.Completion(ctx, &bkmrlsp.CompletionParams{
			TextDocument: bkmrlsp.TextDocumentIdentifier{URI: doc.URI},
			Position:     bkmrlsp.Position{Line: 1, Character: 0},
			Context:      &bkmrlsp.CompletionContext{TriggerKind: bkmrlsp.TriggerInvoked},
		})
		if err != nil {
			return fmt.Errorf("completion: %w", err)
		}

		fmt.Printf("completions: %d (incomplete=%v)\n", len(list.Items), list.IsIncomplete)

		if asJSON {
			return printJSON(list)
		}

		for i, item := range list.Items {
			if i == 10 {
				fmt.Printf("... and %d more\n", len(list.Items)-i)

				break
			}

			fmt.Printf("  %s  %s\n", item.Label, item.Detail)
		}

		if err := s.DidClose(ctx, doc.URI); err != nil {
			return err
		}

		return nil
	})

	return g.Wait()
}

// showCommands prints the command surface: the local registry, plus what
// the live server actually advertises when a session is available.
func showCommands(_ context.Context, s bkmrlsp.Session, asJSON bool) error {
	specs := bkmrlsp.KnownCommands()

	if asJSON {
		return printJSON(map[string]any{
			"known":      specs,
			"advertised": advertised(s),
		})
	}

	for _, spec := range specs {
		fmt.Printf("%s\n    %s\n", spec.Name, spec.Description)

		example, err := json.Marshal(spec.Example)
		if err == nil {
			fmt.Printf("    example: %s\n", example)
		}
	}

	if s != nil {
		fmt.Printf("\nserver advertises: %v\n", advertised(s))
	}

	return nil
}

func advertised(s bkmrlsp.Session) []string {
	if s == nil {
		return nil
	}

	return s.Commands()
}

func runGet(ctx context.Context, s bkmrlsp.Session, id int, asJSON bool) error {
	snippet, err := bkmrlsp.GetSnippet(ctx, s, id)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(snippet)
	}

	fmt.Printf("#%d  %s\n", snippet.ID, snippet.Title)

	if len(snippet.Tags) > 0 {
		fmt.Printf("tags: %v\n", snippet.Tags)
	}

	if snippet.Description != "" {
		fmt.Printf("%s\n", snippet.Description)
	}

	fmt.Printf("\n%s\n", snippet.Body())

	return nil
}

func runList(ctx context.Context, s bkmrlsp.Session, language string, asJSON bool) error {
	snippets, err := bkmrlsp.ListSnippets(ctx, s, language)
	if err != nil {
		return err
	}

	return printSnippets(snippets, asJSON)
}

func runSearch(ctx context.Context, s bkmrlsp.Session, query string, asJSON bool) error {
	snippets, err := bkmrlsp.SearchSnippets(ctx, s, query)
	if err != nil {
		return err
	}

	return printSnippets(snippets, asJSON)
}

func printSnippets(snippets []bkmrlsp.Snippet, asJSON bool) error {
	if asJSON {
		return printJSON(snippets)
	}

	if len(snippets) == 0 {
		fmt.Println("no snippets")

		return nil
	}

	for _, snippet := range snippets {
		fmt.Printf("#%-5d %-40s %v\n", snippet.ID, snippet.Title, snippet.Tags)
	}

	fmt.Printf("%d snippets\n", len(snippets))

	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}

func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}

	if len(raw) > 200 {
		return string(raw[:200]) + "..."
	}

	return string(raw)
}
