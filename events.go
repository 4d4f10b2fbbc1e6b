package dhttp

// Event identifies a dispatcher lifecycle event.
type Event string

const (
	// EventIncomingMessage is emitted once per request, before lookup.
	EventIncomingMessage Event = "incomingMessage"

	// EventForwarding is emitted every time a handler forwards the request
	// to another collection handler.
	EventForwarding Event = "forwarding"

	// EventError is emitted when a request fails, right before the error
	// envelope is written.
	EventError Event = "error"
)

// IncomingMessagePayload accompanies [EventIncomingMessage].
type IncomingMessagePayload struct {
	RequestID string
	Method    string
	Path      string
}

// ForwardingPayload accompanies [EventForwarding]. Depth counts forward hops
// within the request, starting at 1.
type ForwardingPayload struct {
	RequestID  string
	Collection string
	Handler    string
	Depth      int
}

// ErrorPayload accompanies [EventError]. Err is the original error; format it
// with %+v to render its stack trace.
type ErrorPayload struct {
	RequestID string
	Status    int
	Message   string
	Code      string
	Err       error
}

// EventSink receives dispatcher events. Emit is called on the request path,
// so implementations must be fast and must not block.
type EventSink interface {
	Emit(event Event, payload any)
}

// SinkFunc adapts a function to an [EventSink].
type SinkFunc func(event Event, payload any)

// Emit implements [EventSink].
func (f SinkFunc) Emit(event Event, payload any) { f(event, payload) }

// NopSink discards all events.
func NopSink() EventSink {
	return SinkFunc(func(Event, any) {})
}

// MultiSink fans every event out to all sinks, in order.
func MultiSink(sinks ...EventSink) EventSink {
	return SinkFunc(func(event Event, payload any) {
		for _, s := range sinks {
			s.Emit(event, payload)
		}
	})
}
