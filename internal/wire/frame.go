package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
)

const (
	// readBufferSize is the buffered reader size for the server's output pipe.
	readBufferSize = 64 * 1024

	// maxContentLength caps a single message body. Completion results over a
	// large snippet database stay well under this.
	maxContentLength = 16 * 1024 * 1024
)

// Framer turns a byte stream into discrete JSON-RPC messages and back,
// using the LSP base protocol envelope:
//
//	Content-Length: <decimal byte count>\r\n
//	\r\n
//	<UTF-8 JSON payload>
//
// Reads block until a complete message is available or the stream closes;
// a partial message is never returned.
type Framer struct {
	r *bufio.Reader
	w io.Writer
}

// NewFramer creates a framer reading from r and writing to w.
func NewFramer(r io.Reader, w io.Writer) *Framer {
	return &Framer{
		r: bufio.NewReaderSize(r, readBufferSize),
		w: w,
	}
}

// Write serializes msg and writes it with its Content-Length header.
// There is no trailing delimiter beyond the declared length.
func (f *Framer) Write(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	if _, err := io.WriteString(f.w, header); err != nil {
		return &errors.TransportError{Op: "write", Err: err}
	}

	if _, err := f.w.Write(data); err != nil {
		return &errors.TransportError{Op: "write", Err: err}
	}

	return nil
}

// Read blocks until one complete message has been framed and decoded.
//
// It returns io.EOF, not an error value of its own, when the stream closes
// before a Content-Length header is seen. A stream that closes mid-message
// is a TransportError. Malformed headers or payloads are ProtocolErrors.
func (f *Framer) Read() (Message, error) {
	length, err := f.readHeaders()
	if err != nil {
		return nil, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(f.r, body); err != nil {
		return nil, &errors.TransportError{Op: "read", Err: err}
	}

	return Decode(body)
}

// readHeaders scans the header section and returns the declared body length.
//
// Any line before the Content-Length header (including stray blanks or an
// unexpected Content-Type) is tolerated and skipped, matching the LSP
// header-section convention. After Content-Length, headers are consumed up
// to the blank separator line.
func (f *Framer) readHeaders() (int, error) {
	length := -1

	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && length < 0 {
				// Clean end of stream between messages.
				return 0, io.EOF
			}

			return 0, &errors.TransportError{Op: "read", Err: err}
		}

		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if length >= 0 {
				return length, nil
			}
			// Blank line before any Content-Length: skip.
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			// Other headers are tolerated and ignored.
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, &errors.ProtocolError{
				Reason: "invalid Content-Length value",
				Raw:    line,
				Err:    err,
			}
		}

		if n > maxContentLength {
			return 0, &errors.ProtocolError{
				Reason: fmt.Sprintf("Content-Length %d exceeds limit %d", n, maxContentLength),
				Raw:    line,
			}
		}

		length = n
	}
}
