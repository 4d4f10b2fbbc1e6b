// Package pathpattern compiles colon-style path templates into regular
// expression matchers with ordered, percent-decoded parameters.
package pathpattern

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// Pattern is a compiled path template. A template is a sequence of literal
// and parameter segments:
//
//	/users/:id/orders/:orderId
//
// Parameter segments start with a colon and match exactly one non-empty path
// segment. The root template "/" is matched by equality and never captures.
type Pattern struct {
	template  string
	paramKeys []string
	re        *regexp.Regexp
	root      bool
}

// DecodeError is returned when a matched parameter capture fails
// percent-decoding. It carries the offending raw value.
type DecodeError struct {
	Name  string
	Value string
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode path parameter %q from %q: %s", e.Name, e.Value, e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// Normalize strips trailing slashes from a path. The root path "/" is kept
// as-is. Normalizing an already normalized path returns it unchanged.
func Normalize(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}

	return trimmed
}

// Parse compiles a path template. The template is normalized before
// compilation so "/users/" and "/users" compile to the same pattern.
func Parse(template string) (*Pattern, error) {
	template = Normalize(template)
	if !strings.HasPrefix(template, "/") {
		return nil, errors.Newf("path template must start with '/': %q", template)
	}

	p := &Pattern{template: template}
	if template == "/" {
		p.root = true
		return p, nil
	}

	var expr strings.Builder
	expr.WriteString("^")

	for _, seg := range strings.Split(template[1:], "/") {
		expr.WriteString("/")

		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if name == "" {
				return nil, errors.Newf("path template %q has a parameter without a name", template)
			}

			p.paramKeys = append(p.paramKeys, name)
			expr.WriteString("([^/]+)")

			continue
		}

		expr.WriteString(regexp.QuoteMeta(seg))
	}

	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "compile path template %q", template)
	}

	p.re = re

	return p, nil
}

// Template returns the normalized template the pattern was compiled from.
func (p *Pattern) Template() string { return p.template }

// ParamKeys returns the parameter names in template order.
func (p *Pattern) ParamKeys() []string { return p.paramKeys }

// Match matches a request path against the pattern and returns the raw
// parameter captures in template order. A match of a parameter-less template
// returns an empty, non-nil slice so callers can tell a match from a miss.
// The path is normalized the same way templates are.
func (p *Pattern) Match(path string) ([]string, bool) {
	path = Normalize(path)
	if p.root {
		if path != "/" {
			return nil, false
		}

		return []string{}, true
	}

	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	return m[1:], true
}

// Bind percent-decodes raw captures and binds them to the pattern's parameter
// names. When a name occurs more than once the later capture wins, unless the
// later capture is empty while the name is already bound, in which case the
// first bound value is kept.
func (p *Pattern) Bind(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(p.paramKeys))

	for i, key := range p.paramKeys {
		if i >= len(raw) {
			break
		}

		if _, bound := params[key]; bound && raw[i] == "" {
			continue
		}

		val, err := url.PathUnescape(raw[i])
		if err != nil {
			return nil, &DecodeError{Name: key, Value: raw[i], cause: err}
		}

		params[key] = val
	}

	return params, nil
}

// Build substitutes vals for the pattern's parameters in template order,
// producing a concrete path. Values are percent-encoded.
func Build(p *Pattern, vals ...string) (string, error) {
	if len(vals) != len(p.paramKeys) {
		return "", errors.Newf("pattern %q takes %d parameter(s), got %d",
			p.template, len(p.paramKeys), len(vals))
	}

	if p.root {
		return "/", nil
	}

	var sb strings.Builder

	next := 0

	for _, seg := range strings.Split(p.template[1:], "/") {
		sb.WriteString("/")

		if strings.HasPrefix(seg, ":") {
			sb.WriteString(url.PathEscape(vals[next]))
			next++

			continue
		}

		sb.WriteString(seg)
	}

	return sb.String(), nil
}
