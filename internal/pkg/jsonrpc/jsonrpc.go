// Package jsonrpc carries the JSON-RPC 2.0 envelope shared by the stdio and
// HTTP transports, plus the incremental line framer the stdio transport
// reads with.
package jsonrpc

import "encoding/json"

const Version = "2.0"

// Request is an incoming JSON-RPC envelope. ID is kept raw so numeric and
// string ids echo back exactly as received; a nil ID marks a notification.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Notification is an id-less server-to-client message, used for progress.
type Notification struct {
	Jsonrpc string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

func NewResponse(id json.RawMessage, result interface{}) Response {
	return Response{Jsonrpc: Version, ID: id, Result: result}
}

func NewErrorResponse(id json.RawMessage, code int, message string, data interface{}) Response {
	return Response{
		Jsonrpc: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

func NewNotification(method string, params interface{}) Notification {
	return Notification{Jsonrpc: Version, Method: method, Params: params}
}
