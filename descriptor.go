package dhttp

import "context"

// EndpointDescriptor declares one route: an HTTP method and a colon-style
// path template bound to a collection handler by name.
type EndpointDescriptor struct {
	Collection string
	Handler    string
	Method     string
	Path       string
}

// DescriptorSource supplies the endpoint descriptors a dispatcher builds its
// route table from. Implementations may fetch descriptors from files or
// remote configuration, hence the context and the error.
type DescriptorSource interface {
	Descriptors(ctx context.Context) ([]EndpointDescriptor, error)
}

// StaticDescriptors is an in-memory [DescriptorSource].
type StaticDescriptors []EndpointDescriptor

// Descriptors implements [DescriptorSource].
func (s StaticDescriptors) Descriptors(context.Context) ([]EndpointDescriptor, error) {
	return s, nil
}
