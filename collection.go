package dhttp

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// HandlerFunc is a collection handler. It receives the per-invocation
// [*Context] and returns a [Result] telling the dispatcher how to proceed, or
// an error that fails the request through the error envelope.
type HandlerFunc func(c *Context) (Result, error)

// Collection groups named handlers under a collection name. Endpoint
// descriptors reference handlers by (collection, handler) name pair.
type Collection struct {
	Name     string
	Handlers map[string]HandlerFunc
}

// Collections is the validated set of collections known to a dispatcher.
type Collections struct {
	byName map[string]Collection
}

// NewCollections validates and indexes collections. Collection names must be
// non-empty and unique, and every handler must be non-nil.
func NewCollections(cols ...Collection) (*Collections, error) {
	byName := make(map[string]Collection, len(cols))

	for _, col := range cols {
		if col.Name == "" {
			return nil, errors.New("collection with an empty name")
		}

		if _, exists := byName[col.Name]; exists {
			return nil, errors.Newf("collection %q declared twice", col.Name)
		}

		for name, fn := range col.Handlers {
			if fn == nil {
				return nil, errors.Newf("handler %q of collection %q is nil", name, col.Name)
			}
		}

		byName[col.Name] = col
	}

	return &Collections{byName: byName}, nil
}

// MustCollections is like [NewCollections] but panics on validation errors.
// Useful for package-level declarations.
func MustCollections(cols ...Collection) *Collections {
	res, err := NewCollections(cols...)
	if err != nil {
		panic("dhttp: " + err.Error())
	}

	return res
}

// Lookup resolves a handler by collection and handler name.
func (c *Collections) Lookup(collection, handler string) (HandlerFunc, bool) {
	col, ok := c.byName[collection]
	if !ok {
		return nil, false
	}

	fn, ok := col.Handlers[handler]

	return fn, ok
}

// Names returns the known collection names, for error reporting.
func (c *Collections) Names() []string {
	return lo.Keys(c.byName)
}
