package domain

import (
	"errors"
	"fmt"
)

// Error classes. Concrete errors wrap one of these so callers can branch
// with errors.Is.
var (
	ErrInvalidSpatialReference = errors.New("invalid spatial reference")
	ErrTransport               = errors.New("transport error")
	ErrDecode                  = errors.New("decode error")
	ErrCallerContract          = errors.New("caller contract violation")
)

// maxPayloadInError caps how much of an offending payload is echoed in
// error messages.
const maxPayloadInError = 256

// DecodeError reports a response payload that could not be turned into the
// record model. Field names the missing or malformed JSON field, empty when
// the payload is not valid JSON at all.
type DecodeError struct {
	Field   string
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	payload := e.Payload
	suffix := ""
	if len(payload) > maxPayloadInError {
		payload = payload[:maxPayloadInError]
		suffix = "…"
	}
	what := "response"
	if e.Field != "" {
		what = fmt.Sprintf("field %q", e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %v (payload: %s%s)", what, e.Err, payload, suffix)
	}
	return fmt.Sprintf("decode %s (payload: %s%s)", what, payload, suffix)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// TransportError reports a failed call: the request never completed, the
// provider answered with a non-success status, or it answered 200 with an
// error envelope. Status is zero when no response was received.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("transport: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("arcgis API error: status %d: %s", e.Status, e.Message)
	default:
		return "transport: " + e.Message
	}
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

func callerContractf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCallerContract, fmt.Sprintf(format, args...))
}
