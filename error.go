package dhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Codes the dispatcher attaches to errors it generates itself. Handlers are
// free to use their own codes; the envelope carries them verbatim.
const (
	CodeParameterDecodeFailed     = "parameterDecodeFailed"
	CodeForwardCollectionNotFound = "forwardCollectionNotFound"
	CodeForwardHandleNotFound     = "forwardHandleNotFound"
	CodeForwardDepthExceeded      = "forwardDepthExceeded"
)

// Error describes a dispatch failure with an HTTP status, a human-readable
// message, and an optional machine-readable application code. It can be
// passed around across middleware and handlers to fail requests structurally.
type Error struct {
	status  int
	message string
	code    string
	fields  map[string]any
	cause   error
}

// NewError inits an error with the given HTTP status. A stack trace is
// captured at the call site for %+v formatting and error envelopes.
func NewError(status int, message, code string) *Error {
	return newError(1, status, message, code)
}

// NotFoundError fails a request with HTTP 404.
func NotFoundError(message, code string) *Error {
	return newError(1, http.StatusNotFound, message, code)
}

// NotImplementedError fails a request with HTTP 501.
func NotImplementedError(message, code string) *Error {
	return newError(1, http.StatusNotImplemented, message, code)
}

// InternalServerError fails a request with HTTP 500.
func InternalServerError(message, code string) *Error {
	return newError(1, http.StatusInternalServerError, message, code)
}

// BadRequestError fails a request with HTTP 400.
func BadRequestError(message, code string) *Error {
	return newError(1, http.StatusBadRequest, message, code)
}

func newError(depth, status int, message, code string) *Error {
	return &Error{
		status:  status,
		message: message,
		code:    code,
		cause:   errors.NewWithDepthf(depth+1, "%s", message),
	}
}

func (e *Error) Status() int     { return e.status }
func (e *Error) Message() string { return e.message }
func (e *Error) Code() string    { return e.code }
func (e *Error) Unwrap() error   { return e.cause }

func (e *Error) Error() string {
	status := http.StatusText(e.status)
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.message)
}

// Format implements fmt.Formatter so %+v renders the stack trace captured at
// construction, or the one carried by a cause set with [Error.WithCause].
func (e *Error) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// WithCause replaces the captured cause, keeping the underlying error
// available to errors.Is and errors.As while the envelope keeps this error's
// status, message, and code.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithField attaches an extra key to the error envelope. Reserved envelope
// keys (status, message, code, stack) cannot be overridden.
func (e *Error) WithField(key string, value any) *Error {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}

	e.fields[key] = value

	return e
}

// StatusOf returns the HTTP status of err if it is or wraps an [*Error], and
// zero otherwise.
func StatusOf(err error) int {
	if derr, ok := asError(err); ok {
		return derr.Status()
	}

	return 0
}

// CodeOf returns the application code of err if it is or wraps an [*Error],
// and the empty string otherwise.
func CodeOf(err error) string {
	if derr, ok := asError(err); ok {
		return derr.Code()
	}

	return ""
}

// asError uses errors.As to unwrap any error and look for a dhttp *Error.
func asError(err error) (*Error, bool) {
	var derr *Error
	ok := errors.As(err, &derr)
	return derr, ok
}

// NormalizedError is the wire form of a dispatch failure: the payload of the
// "error" key in the JSON envelope the dispatcher sends for failed requests.
type NormalizedError struct {
	Status  int
	Message string
	Code    string
	Stack   string
	Fields  map[string]any
}

// Normalize turns any error into a [NormalizedError]. Errors that are not a
// dhttp [*Error] become internal server errors carrying the original message,
// so no failure is ever dropped. The stack is rendered from %+v formatting
// and only included when includeStack is set.
func Normalize(err error, includeStack bool) *NormalizedError {
	if err == nil {
		return nil
	}

	norm := &NormalizedError{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
	}

	if derr, ok := asError(err); ok {
		norm.Status = derr.status
		norm.Message = derr.message
		norm.Code = derr.code

		if len(derr.fields) > 0 {
			norm.Fields = derr.fields
		}
	}

	if includeStack {
		norm.Stack = fmt.Sprintf("%+v", err)
	}

	return norm
}

// MarshalJSON renders the envelope payload with any extra fields merged in.
func (n *NormalizedError) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, 4+len(n.Fields))

	for k, v := range n.Fields {
		switch k {
		case "status", "message", "code", "stack":
			continue
		}

		obj[k] = v
	}

	obj["status"] = n.Status
	obj["message"] = n.Message

	if n.Code != "" {
		obj["code"] = n.Code
	}

	if n.Stack != "" {
		obj["stack"] = n.Stack
	}

	return json.Marshal(obj)
}
