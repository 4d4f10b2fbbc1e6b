package dhttp

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/advdv/dhttp/internal/pathpattern"
)

// RouteTable indexes compiled routes two ways: by method in declaration order
// for first-match-wins lookup, and by collection and handler name to resolve
// forward targets and reverse URLs. Tables are immutable once built; the
// dispatcher replaces them wholesale.
type RouteTable struct {
	byMethod     map[string][]*CompiledRoute
	byCollection map[string]map[string]*CompiledRoute
	total        int
}

// BuildRouteTable compiles and indexes descriptors against the collections.
// It returns a complete table or an error; a partially populated table can
// never be observed. Duplicate (collection, handler) pairs are rejected so
// every route occupies exactly one slot in each index.
func BuildRouteTable(descs []EndpointDescriptor, cols *Collections) (*RouteTable, error) {
	table := &RouteTable{
		byMethod:     make(map[string][]*CompiledRoute),
		byCollection: make(map[string]map[string]*CompiledRoute),
	}

	for _, desc := range descs {
		route, err := compileRoute(desc, cols)
		if err != nil {
			return nil, err
		}

		if _, exists := table.byCollection[route.collection][route.handler]; exists {
			return nil, errors.Newf("endpoint %s.%s declared twice", route.collection, route.handler)
		}

		table.byMethod[route.method] = append(table.byMethod[route.method], route)

		handlers := table.byCollection[route.collection]
		if handlers == nil {
			handlers = make(map[string]*CompiledRoute)
			table.byCollection[route.collection] = handlers
		}

		handlers[route.handler] = route
		table.total++
	}

	return table, nil
}

// Len returns the number of routes in the table.
func (t *RouteTable) Len() int { return t.total }

// Lookup scans the routes declared for the method in declaration order and
// returns the first whose pattern matches, with its decoded parameters. A nil
// route means nothing matched. An error means a matching route's parameters
// failed to decode; it aborts the lookup so later routes are not considered.
func (t *RouteTable) Lookup(method, path string) (*CompiledRoute, map[string]string, error) {
	for _, route := range t.byMethod[strings.ToLower(method)] {
		params, ok, err := route.match(path)
		if err != nil {
			return nil, nil, err
		}

		if ok {
			return route, params, nil
		}
	}

	return nil, nil, nil
}

// ForwardTarget resolves the route a [Forward] result points at. Unknown
// names fail with internal server errors since forwarding to a missing
// handler is a programming error, not client input.
func (t *RouteTable) ForwardTarget(collection, handler string) (*CompiledRoute, error) {
	handlers, ok := t.byCollection[collection]
	if !ok {
		return nil, InternalServerError(
			fmt.Sprintf("Collection %s not found for forward", collection),
			CodeForwardCollectionNotFound)
	}

	route, ok := handlers[handler]
	if !ok {
		return nil, InternalServerError(
			fmt.Sprintf("Handle %s not found for forward", handler),
			CodeForwardHandleNotFound)
	}

	return route, nil
}

// Reverse builds a concrete path for the endpoint registered under the
// collection and handler names, substituting vals for the path parameters in
// declaration order.
func (t *RouteTable) Reverse(collection, handler string, vals ...string) (string, error) {
	handlers, ok := t.byCollection[collection]
	if !ok {
		return "", errors.Newf("no collection named: %q, got: %v", collection, lo.Keys(t.byCollection))
	}

	route, ok := handlers[handler]
	if !ok {
		return "", errors.Newf("no handler named: %q in collection %q, got: %v",
			handler, collection, lo.Keys(handlers))
	}

	res, err := pathpattern.Build(route.pattern, vals...)
	if err != nil {
		return "", errors.Wrap(err, "failed to build")
	}

	return res, nil
}
