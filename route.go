package dhttp

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/advdv/dhttp/internal/pathpattern"
)

// CompiledRoute binds an endpoint descriptor to its compiled path pattern and
// its resolved handler. Routes are immutable once built.
type CompiledRoute struct {
	collection string
	handler    string
	method     string
	path       string
	pattern    *pathpattern.Pattern
	fn         HandlerFunc
}

func (rt *CompiledRoute) Collection() string { return rt.collection }
func (rt *CompiledRoute) Handler() string    { return rt.handler }

// Method returns the route's HTTP method, lowercased.
func (rt *CompiledRoute) Method() string { return rt.method }

// Path returns the normalized path template.
func (rt *CompiledRoute) Path() string { return rt.path }

// compileRoute resolves the descriptor's handler and compiles its path
// template. Resolution failures are configuration errors reported at build
// time, never at request time.
func compileRoute(desc EndpointDescriptor, cols *Collections) (*CompiledRoute, error) {
	if desc.Method == "" {
		return nil, errors.Newf("endpoint %q of collection %q has no method", desc.Handler, desc.Collection)
	}

	fn, ok := cols.Lookup(desc.Collection, desc.Handler)
	if !ok {
		if _, exists := cols.byName[desc.Collection]; !exists {
			return nil, errors.Newf("collection %q not found, got: %v", desc.Collection, lo.Keys(cols.byName))
		}

		return nil, errors.Newf("handler %q not found in collection %q, got: %v",
			desc.Handler, desc.Collection, lo.Keys(cols.byName[desc.Collection].Handlers))
	}

	pattern, err := pathpattern.Parse(desc.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "endpoint %s.%s", desc.Collection, desc.Handler)
	}

	return &CompiledRoute{
		collection: desc.Collection,
		handler:    desc.Handler,
		method:     strings.ToLower(desc.Method),
		path:       pattern.Template(),
		pattern:    pattern,
		fn:         fn,
	}, nil
}

// match matches a request path against the route's pattern and returns the
// decoded parameters. A capture that fails percent-decoding matches but
// returns a 400 error that aborts the whole lookup.
func (rt *CompiledRoute) match(path string) (map[string]string, bool, error) {
	raw, ok := rt.pattern.Match(path)
	if !ok {
		return nil, false, nil
	}

	params, err := rt.pattern.Bind(raw)
	if err != nil {
		return nil, true, BadRequestError(err.Error(), CodeParameterDecodeFailed).WithCause(err)
	}

	return params, true, nil
}
