package subprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

// writeScript materializes a fake server binary for lifecycle tests.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("lifecycle tests use sh scripts")
	}

	path := filepath.Join(t.TempDir(), "fake-bkmr")
	script := "#!/bin/sh\n" + body

	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}

func testOptions(path string) *config.Options {
	return &config.Options{
		ServerPath:     path,
		StartupGrace:   100 * time.Millisecond,
		TerminateGrace: 500 * time.Millisecond,
	}
}

func TestStartReportsImmediateExit(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "echo 'ERROR no database' >&2\nexit 3\n")

	tr := NewServerTransport(nopLogger(), testOptions(path))

	err := tr.Start(context.Background())
	require.Error(t, err)

	startupErr, ok := err.(*errors.StartupError)
	require.True(t, ok, "want StartupError, got %T", err)
	assert.Equal(t, 3, startupErr.ExitCode)
	assert.Contains(t, startupErr.Stderr, "no database")
}

func TestStartMissingBinary(t *testing.T) {
	t.Parallel()

	tr := NewServerTransport(nopLogger(), testOptions("/nonexistent/bkmr"))

	err := tr.Start(context.Background())
	require.Error(t, err)

	var notFound *errors.ServerNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStartReadsFramedMessages(t *testing.T) {
	t.Parallel()

	payload := `{"jsonrpc":"2.0","method":"window/logMessage","params":{"type":3,"message":"up"}}`
	path := writeScript(t, fmt.Sprintf(
		"printf 'Content-Length: %d\\r\\n\\r\\n%s'\nexec sleep 30\n",
		len(payload), payload,
	))

	tr := NewServerTransport(nopLogger(), testOptions(path))

	require.NoError(t, tr.Start(context.Background()))

	t.Cleanup(func() { _ = tr.Close() })

	select {
	case msg := <-tr.Messages():
		notif, ok := msg.(*wire.Notification)
		require.True(t, ok, "want Notification, got %T", msg)
		assert.Equal(t, "window/logMessage", notif.Method)

	case <-time.After(2 * time.Second):
		t.Fatal("no message before deadline")
	}
}

func TestTerminateReapsProcess(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "exec sleep 30\n")

	tr := NewServerTransport(nopLogger(), testOptions(path))

	require.NoError(t, tr.Start(context.Background()))

	start := time.Now()
	require.NoError(t, tr.Terminate(500*time.Millisecond))

	// SIGTERM kills sleep immediately; the grace period is an upper bound,
	// not a wait.
	assert.Less(t, time.Since(start), 5*time.Second)

	// The process is gone; sends must fail with the died sentinel, not a
	// raw pipe error.
	err := tr.Send(context.Background(), wire.NewNotification("exit", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrServerDied)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "exec sleep 30\n")

	tr := NewServerTransport(nopLogger(), testOptions(path))

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

func TestCloseWithoutStart(t *testing.T) {
	t.Parallel()

	tr := NewServerTransport(nopLogger(), testOptions("/nonexistent/bkmr"))

	assert.NoError(t, tr.Close())
}

func TestSendBeforeStart(t *testing.T) {
	t.Parallel()

	tr := NewServerTransport(nopLogger(), testOptions("/nonexistent/bkmr"))

	err := tr.Send(context.Background(), wire.NewNotification("initialized", nil))
	assert.ErrorIs(t, err, errors.ErrTransportNotConnected)
}

func TestMessagesCloseOnServerExit(t *testing.T) {
	t.Parallel()

	// Survives the grace period, then exits on its own.
	path := writeScript(t, "sleep 0.3\n")

	tr := NewServerTransport(nopLogger(), testOptions(path))

	require.NoError(t, tr.Start(context.Background()))

	t.Cleanup(func() { _ = tr.Close() })

	select {
	case _, ok := <-tr.Messages():
		assert.False(t, ok, "messages channel should close at end of stream")

	case <-time.After(2 * time.Second):
		t.Fatal("messages channel did not close after server exit")
	}
}
