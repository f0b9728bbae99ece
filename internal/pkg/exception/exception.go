package exception

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes used across both transports.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ApplicationError handles application level errors. RPCCode is the JSON-RPC
// error code the transport should answer with when the error escapes the
// tool layer.
type ApplicationError struct {
	Message string
	RPCCode int
	Cause   error
}

// Error interface implementation.
func (e ApplicationError) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Message, e.Cause)
}

func (e ApplicationError) Unwrap() error {
	if e.Cause == nil {
		return errors.New(e.Message)
	}

	return e.Cause
}

func (e ApplicationError) Is(target error) bool {
	var targetErr ApplicationError

	if !errors.As(target, &targetErr) {
		return false
	}

	return e.Cause == targetErr.Cause &&
		e.Message == targetErr.Message
}

// ErrorCode returns the JSON-RPC code for an application error.
func (e ApplicationError) ErrorCode() int {
	return e.RPCCode
}

// RPCCodeOf extracts the JSON-RPC code from err, defaulting to internal error.
func RPCCodeOf(err error) int {
	var appErr ApplicationError
	if errors.As(err, &appErr) && appErr.RPCCode != 0 {
		return appErr.RPCCode
	}

	return CodeInternalError
}
