package subprocess

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
)

// maxStderrBufferSize caps the retained stderr buffer. The callback still
// receives every line; only the buffer used for startup error reporting
// stops growing.
const maxStderrBufferSize = 10 * 1024 * 1024

// StderrMonitor continuously drains the server's error stream so the
// process never stalls on a full pipe, classifying each line for
// diagnostics. It is purely advisory: it never fails the session, and any
// panic inside it (including one raised by the caller's callback) is
// swallowed.
type StderrMonitor struct {
	log      *slog.Logger
	r        io.Reader
	callback func(config.DiagnosticLine)

	mu  sync.Mutex
	buf strings.Builder

	done chan struct{}
}

// NewStderrMonitor creates a monitor for the given error stream. The
// callback may be nil.
func NewStderrMonitor(
	log *slog.Logger,
	r io.Reader,
	callback func(config.DiagnosticLine),
) *StderrMonitor {
	return &StderrMonitor{
		log:      log.With("component", "stderr_monitor"),
		r:        r,
		callback: callback,
		done:     make(chan struct{}),
	}
}

// Run drains the stream until it closes. It must run on its own goroutine;
// protocol traffic never waits on it.
func (m *StderrMonitor) Run() {
	defer close(m.done)

	defer func() {
		if r := recover(); r != nil {
			m.log.Debug("Stderr monitor recovered from panic", "panic", r)
		}
	}()

	scanner := bufio.NewScanner(m.r)
	for scanner.Scan() {
		line := scanner.Text()
		severity := Classify(line)

		m.mu.Lock()

		if m.buf.Len() < maxStderrBufferSize {
			if m.buf.Len() > 0 {
				m.buf.WriteString("\n")
			}

			m.buf.WriteString(line)
		}

		m.mu.Unlock()

		m.log.Debug("Server stderr", "severity", severity.String(), "line", line)

		if m.callback != nil {
			m.callback(config.DiagnosticLine{Severity: severity, Text: line})
		}
	}

	// Scanner errors mean the pipe closed; the process exit path reports
	// anything worth reporting.
	if err := scanner.Err(); err != nil {
		m.log.Debug("Stderr scanner stopped", "error", err)
	}
}

// Wait blocks until the stream has been fully drained.
func (m *StderrMonitor) Wait() {
	<-m.done
}

// Output returns the retained stderr text.
func (m *StderrMonitor) Output() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.buf.String()
}

// Classify tags a stderr line by the log-level markers the bkmr server
// (env_logger via RUST_LOG) embeds in its output.
func Classify(line string) config.Severity {
	switch {
	case strings.Contains(line, "ERROR"):
		return config.SeverityError
	case strings.Contains(line, "WARN"):
		return config.SeverityWarning
	case strings.Contains(line, "INFO"):
		return config.SeverityInfo
	case strings.Contains(line, "DEBUG"), strings.Contains(line, "TRACE"):
		return config.SeverityDebug
	default:
		return config.SeverityUnknown
	}
}
