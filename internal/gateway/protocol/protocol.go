// Package protocol defines the WebSocket RPC protocol spoken with an
// OpenClaw gateway. Frames are JSON text messages. Every inbound frame is
// either a response (carries "id") or a server-pushed event (carries
// "event"); the "event" field is the discriminator.
package protocol

import (
	"encoding/json"
	"errors"
)

// RPCRequest is an outgoing JSON-RPC style request.
type RPCRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// RPCError is the error half of a response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard error codes.
const (
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// ErrUnroutableFrame marks a frame that is valid JSON but carries neither a
// correlation id nor an event name.
var ErrUnroutableFrame = errors.New("frame has neither id nor event")

// Frame is the union of everything a gateway may send. Exactly one
// interpretation applies per frame; IsEvent distinguishes them.
type Frame struct {
	ID      string          `json:"id,omitempty"`
	Event   string          `json:"event,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsEvent reports whether the frame is a server-pushed event rather than a
// response to an outstanding request.
func (f *Frame) IsEvent() bool { return f.Event != "" }

// ParseFrame decodes one inbound frame.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.ID == "" && f.Event == "" {
		return nil, ErrUnroutableFrame
	}
	return &f, nil
}

// ConnectParams is sent with the reserved "connect" method when a client
// establishes its logical connection.
type ConnectParams struct {
	Token      string     `json:"token,omitempty"`
	ClientInfo ClientInfo `json:"clientInfo"`
}

// ClientInfo describes the connecting client.
type ClientInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// EventType identifies the kind of a stream event. Values match the wire
// names; unknown values still flow to unfiltered subscriptions.
type EventType string

const (
	EventThinking      EventType = "thinking"
	EventToolCall      EventType = "tool_call"
	EventToolResult    EventType = "tool_result"
	EventFileGenerated EventType = "file_generated"
	EventContent       EventType = "content"
	EventError         EventType = "error"
	EventDone          EventType = "done"
)

// Terminal reports whether the event ends a run. Subscribers assembling a
// streamed reply stop at the first terminal event.
func (t EventType) Terminal() bool {
	return t == EventDone || t == EventError
}
