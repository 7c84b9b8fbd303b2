package protocol

import (
	"context"
	"errors"

	"github.com/zeusync/editorharness/internal/host"
)

// Core protocol errors
var (
	ErrConnectionClosed      = errors.New("connection is closed")
	ErrInvalidFrame          = errors.New("invalid frame")
	ErrFrameTooLarge         = errors.New("frame too large")
	ErrUnexpectedResponse    = errors.New("unexpected response")
	ErrSerializationFailed   = errors.New("value serialization failed")
	ErrDeserializationFailed = errors.New("value deserialization failed")
	ErrUnknownConnection     = errors.New("unknown notification connection")
)

// ErrorCode identifies an error across the wire so the far side can
// rebuild a matching sentinel.
type ErrorCode int

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodeBusNotFound
	ErrorCodeMethodNotFound
	ErrorCodeBadArguments
	ErrorCodeNotAddressable
	ErrorCodeHostClosed
	ErrorCodeCanceled
	ErrorCodeInvalidFrame
	ErrorCodeUnknownConnection
)

// Error is a protocol error with its wire code.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the sentinel matching Code so errors.Is works on the
// receiving side.
func (e *Error) Unwrap() error {
	for sentinel, code := range errorCodeMap {
		if code == e.Code {
			return sentinel
		}
	}
	return nil
}

var errorCodeMap = map[error]ErrorCode{
	host.ErrBusNotFound:    ErrorCodeBusNotFound,
	host.ErrMethodNotFound: ErrorCodeMethodNotFound,
	host.ErrBadArguments:   ErrorCodeBadArguments,
	host.ErrNotAddressable: ErrorCodeNotAddressable,
	host.ErrHostClosed:     ErrorCodeHostClosed,
	ErrInvalidFrame:        ErrorCodeInvalidFrame,
	ErrUnknownConnection:   ErrorCodeUnknownConnection,
	context.Canceled:       ErrorCodeCanceled,
}

// GetErrorCode returns the code of the first known sentinel in err's chain.
func GetErrorCode(err error) ErrorCode {
	var protocolErr *Error
	if errors.As(err, &protocolErr) {
		return protocolErr.Code
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeCanceled
	}
	return ErrorCodeUnknown
}

// WrapError converts any error into its wire form.
func WrapError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: GetErrorCode(err), Message: err.Error()}
}
