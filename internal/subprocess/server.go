package subprocess

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/cli"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

// errorBufferSize is the capacity of the read-side error channel.
// Recoverable protocol errors beyond this are logged and dropped rather
// than allowed to stall the reader.
const errorBufferSize = 16

// ServerTransport owns the bkmr server child process and its three pipes.
// Protocol messages flow through the Framer on stdin/stdout; stderr is
// drained by a StderrMonitor for the lifetime of the process.
type ServerTransport struct {
	log     *slog.Logger
	options *config.Options

	path string
	args []string

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	framer  *wire.Framer
	monitor *StderrMonitor

	messages chan wire.Message
	errs     chan error

	mu          sync.Mutex // protects writes and lifecycle flags
	started     bool
	closing     bool
	stdinClosed bool

	exited   chan struct{} // closed once the process has been reaped
	exitCode int
	wg       sync.WaitGroup

	done     chan struct{} // closed when shutdown begins; unblocks delivery
	doneOnce sync.Once
}

// Compile-time verification that ServerTransport implements the Transport
// interface.
var _ config.Transport = (*ServerTransport)(nil)

// NewServerTransport creates a transport for the given options. The server
// binary is discovered in Start.
func NewServerTransport(log *slog.Logger, options *config.Options) *ServerTransport {
	return &ServerTransport{
		log:      log.With("component", "transport"),
		options:  options,
		messages: make(chan wire.Message),
		errs:     make(chan error, errorBufferSize),
		exited:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start spawns the server process, connects its pipes, and watches it for
// the startup grace period. A process that exits within the grace period
// fails Start with a StartupError carrying the observed exit code and any
// stderr output.
func (t *ServerTransport) Start(ctx context.Context) error {
	t.mu.Lock()

	if t.started {
		t.mu.Unlock()

		return errors.ErrAlreadyStarted
	}

	path, err := cli.Discover(t.log, t.options.ServerPath)
	if err != nil {
		t.mu.Unlock()

		return err
	}

	t.path = path
	t.args = cli.BuildArgs(t.options)

	t.log.Info("Starting bkmr LSP server", "path", path, "args", t.args)

	//nolint:gosec // G204: spawning the configured server binary is the point
	cmd := exec.Command(path, t.args...)
	cmd.Env = cli.BuildEnvironment(t.options)
	cmd.Dir = t.options.Cwd

	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.mu.Unlock()

		return &errors.StartupError{Path: path, Err: err}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.mu.Unlock()

		return &errors.StartupError{Path: path, Err: err}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		t.mu.Unlock()

		return &errors.StartupError{Path: path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		t.mu.Unlock()

		return &errors.StartupError{Path: path, Err: err}
	}

	t.cmd = cmd
	t.stdin = stdin
	t.framer = wire.NewFramer(stdout, stdin)
	t.monitor = NewStderrMonitor(t.log, stderr, t.options.Stderr)
	t.started = true

	t.wg.Go(t.monitor.Run)
	t.wg.Go(t.readLoop)

	t.mu.Unlock()

	t.log.Debug("Server process started", "pid", cmd.Process.Pid)

	// Startup validation: an immediate exit (bad database path, bad flag)
	// surfaces here instead of as a confusing broken pipe later.
	select {
	case <-t.exited:
		return &errors.StartupError{
			Path:     path,
			ExitCode: t.exitCode,
			Stderr:   t.monitor.Output(),
		}

	case <-time.After(t.options.StartupGrace):
		t.log.Info("Server survived startup grace period", "pid", cmd.Process.Pid)

		return nil

	case <-ctx.Done():
		_ = t.Terminate(t.options.TerminateGrace)

		return ctx.Err()
	}
}

// readLoop frames messages off stdout until end-of-stream, then reaps the
// process. Recoverable protocol errors are surfaced on the error channel
// and reading continues; the loop never hangs silently on garbage.
func (t *ServerTransport) readLoop() {
	defer close(t.errs)
	defer close(t.messages)

loop:
	for {
		msg, err := t.framer.Read()
		if err != nil {
			var protoErr *errors.ProtocolError
			if stderrors.As(err, &protoErr) {
				t.log.Warn("Skipping malformed message", "error", err)
				t.surfaceError(err)

				continue
			}

			if err != io.EOF && !t.isClosing() {
				t.surfaceError(err)
			}

			break
		}

		select {
		case t.messages <- msg:
		case <-t.done:
			// Shutdown in progress; nobody is consuming anymore.
			break loop
		}
	}

	// Stderr reads must complete before Wait releases the pipes.
	t.monitor.Wait()
	t.reap()
}

// surfaceError delivers a read-side error without ever blocking the reader.
func (t *ServerTransport) surfaceError(err error) {
	select {
	case t.errs <- err:
	default:
		t.log.Warn("Dropping transport error, channel full", "error", err)
	}
}

// reap waits for the process and records its exit code.
func (t *ServerTransport) reap() {
	err := t.cmd.Wait()

	t.mu.Lock()

	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		t.exitCode = exitErr.ExitCode()
	}

	closing := t.closing

	t.mu.Unlock()

	close(t.exited)

	if err != nil && !closing {
		t.log.Warn("Server process exited", "exit_code", t.exitCode, "error", err)
	} else {
		t.log.Info("Server process exited", "exit_code", t.exitCode)
	}
}

// Send writes one framed message to the server's stdin.
//
// A send after process death fails with a TransportError wrapping
// ErrServerDied instead of whatever the OS would report for the dead pipe.
func (t *ServerTransport) Send(ctx context.Context, msg wire.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return errors.ErrTransportNotConnected
	}

	if t.stdinClosed {
		return errors.ErrStdinClosed
	}

	select {
	case <-t.exited:
		return &errors.TransportError{Op: "write", Err: errors.ErrServerDied}
	default:
	}

	return t.framer.Write(msg)
}

// Messages returns the decoded incoming message stream. The channel closes
// at end-of-stream.
func (t *ServerTransport) Messages() <-chan wire.Message {
	return t.messages
}

// Errors returns the read-side error stream.
func (t *ServerTransport) Errors() <-chan error {
	return t.errs
}

// Terminate requests cooperative termination (SIGTERM) and force-kills
// after the grace period. It always waits for the process to be reaped, so
// no zombie is left behind.
func (t *ServerTransport) Terminate(grace time.Duration) error {
	t.mu.Lock()

	if !t.started {
		t.mu.Unlock()

		return nil
	}

	t.closing = true
	cmd := t.cmd

	t.mu.Unlock()

	t.doneOnce.Do(func() { close(t.done) })

	select {
	case <-t.exited:
		return nil
	default:
	}

	t.log.Debug("Terminating server process", "pid", cmd.Process.Pid, "grace", grace)

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone; the read loop will reap it.
		t.log.Debug("SIGTERM failed", "error", err)
	}

	select {
	case <-t.exited:
	case <-time.After(grace):
		t.log.Warn("Server ignored SIGTERM, killing", "pid", cmd.Process.Pid)

		if err := cmd.Process.Kill(); err != nil {
			t.log.Debug("Kill failed", "error", err)
		}

		<-t.exited
	}

	return nil
}

// Close terminates the process and closes the input pipe. Safe to call
// multiple times and from any session state.
func (t *ServerTransport) Close() error {
	t.mu.Lock()

	if !t.started {
		t.mu.Unlock()

		return nil
	}

	t.closing = true

	if t.stdin != nil && !t.stdinClosed {
		_ = t.stdin.Close()
		t.stdinClosed = true
	}

	grace := t.options.TerminateGrace

	t.mu.Unlock()

	if err := t.Terminate(grace); err != nil {
		return err
	}

	t.wg.Wait()

	return nil
}

// isClosing reports whether shutdown was requested.
func (t *ServerTransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closing
}
