package protocol

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/config"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
	"github.com/bkmrdev/bkmr-lsp-client-go/internal/wire"
)

// Correlator matches responses to the requests that produced them.
//
// It allocates strictly increasing integer ids (starting at 1, never
// reused), tracks a pending entry per outstanding request, and routes every
// incoming message: responses to their waiting caller, notifications to the
// sink, anything unmatched to the log. Responses are matched purely by id —
// the server may answer out of order or interleave notifications freely.
//
// A timed-out request's pending entry is discarded; if its response arrives
// later it no longer matches anything and is dropped silently, exactly as a
// cancelled-but-uncancellable in-flight request requires.
type Correlator struct {
	log       *slog.Logger
	transport config.Transport

	lastID atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan *wire.Response

	notifications chan *wire.Notification

	errMu    sync.RWMutex
	fatalErr error

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewCorrelator creates a correlator reading from the given transport.
func NewCorrelator(log *slog.Logger, transport config.Transport, sinkBuffer int) *Correlator {
	return &Correlator{
		log:           log.With("component", "correlator"),
		transport:     transport,
		pending:       make(map[int64]chan *wire.Response, 4),
		notifications: make(chan *wire.Notification, sinkBuffer),
		done:          make(chan struct{}),
	}
}

// Start begins routing incoming messages. The transport must already be
// started.
func (c *Correlator) Start() {
	c.wg.Go(c.readLoop)
}

// Stop shuts the routing loop down and waits for it. Safe to call
// multiple times.
func (c *Correlator) Stop() {
	c.closeDone()
	c.wg.Wait()
}

// Notifications returns the sink for unsolicited server notifications.
// The channel closes when the correlator stops.
func (c *Correlator) Notifications() <-chan *wire.Notification {
	return c.notifications
}

// NextID returns a fresh request id. Ids are strictly increasing and never
// reused within a session; the first id is 1, so 0 never appears on the
// wire and an id-0 response can only ever be unmatched.
func (c *Correlator) NextID() int64 {
	return c.lastID.Add(1)
}

// Call sends a request and blocks until its response arrives, the timeout
// elapses, the stream ends, or ctx is cancelled.
func (c *Correlator) Call(
	ctx context.Context,
	method string,
	params any,
	timeout time.Duration,
) (*wire.Response, error) {
	id := c.NextID()

	ch := make(chan *wire.Response, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.log.Debug("Sending request", "id", id, "method", method)

	if err := c.transport.Send(ctx, wire.NewRequest(id, method, params)); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		c.log.Debug("Request completed", "id", id, "method", method, "is_error", resp.Error != nil)

		return resp, nil

	case <-time.After(timeout):
		c.log.Warn("Request timed out", "id", id, "method", method, "timeout", timeout)

		return nil, fmt.Errorf("%s: %w after %s", method, errors.ErrRequestTimeout, timeout)

	case <-c.done:
		if err := c.FatalError(); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}

		return nil, fmt.Errorf("%s: %w", method, errors.ErrSessionClosed)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Notify sends a notification: fire-and-forget, no id, no waiting.
func (c *Correlator) Notify(ctx context.Context, method string, params any) error {
	c.log.Debug("Sending notification", "method", method)

	if err := c.transport.Send(ctx, wire.NewNotification(method, params)); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	return nil
}

// FatalError returns the error that stopped the correlator, if any.
func (c *Correlator) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Done returns a channel closed when the correlator stops.
func (c *Correlator) Done() <-chan struct{} {
	return c.done
}

// setFatalError records the first fatal error and wakes all waiters.
func (c *Correlator) setFatalError(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.closeDone()
}

func (c *Correlator) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readLoop routes incoming traffic until end-of-stream or a fatal error.
func (c *Correlator) readLoop() {
	defer close(c.notifications)
	defer c.log.Debug("Correlator read loop stopped")

	msgs := c.transport.Messages()
	errs := c.transport.Errors()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				// End of stream: the server exited. Waiters must not block
				// on responses that can never arrive.
				c.setFatalError(errors.ErrServerDied)

				return
			}

			c.route(msg)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if _, recoverable := stderrors.AsType[*errors.ProtocolError](err); recoverable {
				// The reader already skipped the malformed message and kept
				// going; protocol traffic continues.
				c.log.Warn("Protocol error, message skipped", "error", err)

				continue
			}

			c.setFatalError(err)

			return

		case <-c.done:
			return
		}
	}
}

// route dispatches one decoded message.
func (c *Correlator) route(msg wire.Message) {
	switch m := msg.(type) {
	case *wire.Response:
		c.routeResponse(m)

	case *wire.Notification:
		select {
		case c.notifications <- m:
		default:
			c.log.Warn("Notification sink full, dropping", "method", m.Method)
		}

	case *wire.ServerRequest:
		// The bkmr server is not expected to call back into the client.
		// Answer method-not-found so a compliant server is not left waiting.
		c.log.Warn("Unsupported server request", "id", m.ID, "method", m.Method)

		resp := &wire.Response{
			JSONRPC: wire.Version,
			ID:      m.ID,
			Error: &errors.RPCError{
				Code:    errors.CodeMethodNotFound,
				Message: fmt.Sprintf("method %q not supported by client", m.Method),
			},
		}

		if err := c.transport.Send(context.Background(), resp); err != nil {
			c.log.Debug("Could not answer server request", "error", err)
		}

	default:
		c.log.Warn("Dropping unexpected message type")
	}
}

// routeResponse delivers a response to its pending request, claiming the
// entry atomically so a racing timeout cannot double-deliver.
func (c *Correlator) routeResponse(resp *wire.Response) {
	c.pendingMu.Lock()

	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}

	c.pendingMu.Unlock()

	if !ok {
		// Late response to a timed-out request, or a server bug. Either
		// way it matches nothing and is dropped.
		c.log.Debug("Dropping unmatched response", "id", resp.ID)

		return
	}

	// Channel is buffered and exclusively owned now; this never blocks.
	ch <- resp
}
