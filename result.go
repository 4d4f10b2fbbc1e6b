package dhttp

// Result tells the dispatcher what to do after a handler returns. It is a
// tagged value: exactly one of [Ok], [NotFound], or [Forward] produced it.
// Because a fresh Result is returned per invocation, a forwarded handler can
// never observe leftover dispatch instructions from a previous hop.
//
// The zero value is Ok with a nil payload.
type Result struct {
	kind       resultKind
	value      any
	message    string
	code       string
	collection string
	handler    string
}

type resultKind uint8

const (
	resultOk resultKind = iota
	resultNotFound
	resultForward
)

// Ok resolves the request with a payload to be formatted into the response
// body. A nil payload is formatted as-is (JSON null, empty text).
func Ok(value any) Result {
	return Result{kind: resultOk, value: value}
}

// NotFound fails the request with HTTP 404, an optional message, and an
// optional application code for the error envelope.
func NotFound(message, code string) Result {
	return Result{kind: resultNotFound, message: message, code: code}
}

// Forward re-dispatches the request to another collection handler within the
// same request. The forwarded handler shares the request, the response
// writer, the decoded path parameters, and the request state.
func Forward(collection, handler string) Result {
	return Result{kind: resultForward, collection: collection, handler: handler}
}
