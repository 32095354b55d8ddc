// Package protocol implements the JSON-RPC request/response machinery on
// top of a transport: id allocation, correlation of responses to pending
// requests amid interleaved notifications, and the LSP session lifecycle.
package protocol
