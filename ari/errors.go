package ari

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame matches every *MalformedFrameError.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownCorrelationID matches every *UnknownCorrelationIDError.
	ErrUnknownCorrelationID = errors.New("unknown correlation id")
	// ErrDuplicateCorrelationID is returned when a request id is registered twice.
	ErrDuplicateCorrelationID = errors.New("duplicate correlation id")
	// ErrEncode matches every *EncodeError.
	ErrEncode = errors.New("encode error")
	// ErrClosed is the cause carried by waiters failed on shutdown.
	ErrClosed = errors.New("client closed")
	// ErrCanceled is reported by a future whose entry was cancelled.
	ErrCanceled = errors.New("request canceled")
)

// MalformedFrameError describes an inbound frame that could not be decoded.
type MalformedFrameError struct {
	Reason string
	Cause  error
}

func (e *MalformedFrameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed frame: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed frame: %s", e.Reason)
}

func (e *MalformedFrameError) Unwrap() error { return e.Cause }

func (e *MalformedFrameError) Is(target error) bool { return target == ErrMalformedFrame }

// UnknownCorrelationIDError is reported when a response arrives for an id
// that has no pending entry: a duplicate delivery or a cancelled wait.
type UnknownCorrelationIDError struct {
	RequestID string
}

func (e *UnknownCorrelationIDError) Error() string {
	return fmt.Sprintf("pending request %s not found", e.RequestID)
}

func (e *UnknownCorrelationIDError) Is(target error) bool { return target == ErrUnknownCorrelationID }

// EncodeError is returned synchronously by SendRequest when the request
// cannot be serialized. Nothing is written and nothing is registered.
type EncodeError struct {
	Reason string
	Cause  error
}

func (e *EncodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("encode request: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("encode request: %s", e.Reason)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// TransportError wraps a write or connection failure.
type TransportError struct {
	Op    string
	Cause error
}

// NewTransportError creates a TransportError for op caused by cause.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Cause: cause}
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Op)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// StatusError carries a non-2xx REST status returned by the server.
type StatusError struct {
	URI          string
	StatusCode   int
	ReasonPhrase string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URI, e.StatusCode, e.ReasonPhrase)
}
