// Package wire implements the LSP base protocol framing: Content-Length
// delimited JSON-RPC 2.0 messages over a byte stream.
//
// Messages are decoded once, at the framing boundary, into a tagged variant
// (Request, Response, Notification, ServerRequest) so the rest of the SDK
// never handles untyped maps.
package wire

import (
	"encoding/json"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
)

// Version is the JSON-RPC protocol version used by LSP.
const Version = "2.0"

// Message is one decoded JSON-RPC message. Exactly one of the concrete
// types Request, Response, Notification, or ServerRequest.
type Message interface {
	message()
}

// Request is a client-to-server call expecting a Response with the same id.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response answers a Request. Exactly one of Result or Error is set.
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      int64            `json:"id"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *errors.RPCError `json:"error,omitempty"`
}

// Notification is a call with no id; no response is ever produced for it.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ServerRequest is a server-to-client call. The bkmr server rarely issues
// these; the correlator surfaces them alongside notifications.
type ServerRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (*Request) message()       {}
func (*Response) message()      {}
func (*Notification) message()  {}
func (*ServerRequest) message() {}

// NewRequest builds an outgoing request.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{JSONRPC: Version, ID: id, Method: method, Params: params}
}

// NewNotification builds an outgoing notification.
func NewNotification(method string, params any) *Request {
	// A notification is a request without an id; encode via an anonymous
	// struct so the id field is omitted entirely rather than sent as 0.
	return &Request{JSONRPC: Version, Method: method, Params: params}
}

// notificationEnvelope is the encoding shape for outgoing notifications.
type notificationEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Decode parses raw payload bytes into the matching message variant.
//
// Shape is determined structurally: presence of an id plus result/error
// marks a Response, id plus method a ServerRequest, method alone a
// Notification. Anything else is a ProtocolError.
func Decode(data []byte) (Message, error) {
	var probe struct {
		JSONRPC string           `json:"jsonrpc"`
		ID      *int64           `json:"id"`
		Method  string           `json:"method"`
		Result  json.RawMessage  `json:"result"`
		Error   *errors.RPCError `json:"error"`
		Params  json.RawMessage  `json:"params"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &errors.ProtocolError{
			Reason: "malformed JSON payload",
			Raw:    string(data),
			Err:    err,
		}
	}

	if probe.JSONRPC != Version {
		return nil, &errors.ProtocolError{
			Reason: `missing or unsupported "jsonrpc" version`,
			Raw:    string(data),
		}
	}

	switch {
	case probe.ID != nil && (probe.Result != nil || probe.Error != nil):
		return &Response{
			JSONRPC: probe.JSONRPC,
			ID:      *probe.ID,
			Result:  probe.Result,
			Error:   probe.Error,
		}, nil

	case probe.ID != nil && probe.Method != "":
		return &ServerRequest{
			JSONRPC: probe.JSONRPC,
			ID:      *probe.ID,
			Method:  probe.Method,
			Params:  probe.Params,
		}, nil

	case probe.Method != "":
		return &Notification{
			JSONRPC: probe.JSONRPC,
			Method:  probe.Method,
			Params:  probe.Params,
		}, nil

	default:
		return nil, &errors.ProtocolError{
			Reason: "message is neither request, response, nor notification",
			Raw:    string(data),
		}
	}
}

// Encode serializes an outgoing message to its canonical JSON payload.
func Encode(msg Message) ([]byte, error) {
	if req, ok := msg.(*Request); ok && req.ID == 0 {
		return json.Marshal(&notificationEnvelope{
			JSONRPC: req.JSONRPC,
			Method:  req.Method,
			Params:  req.Params,
		})
	}

	return json.Marshal(msg)
}
