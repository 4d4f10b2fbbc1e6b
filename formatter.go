package dhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Formatter renders a handler payload into response body bytes.
type Formatter interface {
	// ContentType is the media type the formatter produces, used for Accept
	// negotiation and for the response Content-Type header.
	ContentType() string

	// Format renders the payload of an [Ok] result.
	Format(c *Context, v any) ([]byte, error)
}

// FormatterProvider selects the formatter for a request.
type FormatterProvider interface {
	// Negotiate returns the formatter to render the response with, or false
	// when no registered formatter satisfies the request.
	Negotiate(r *http.Request) (Formatter, bool)
}

// AcceptFormatters negotiates between registered formatters using the
// request's Accept header: quality values rank media ranges, wildcards match
// any formatter, and more specific ranges win quality ties. Requests without
// an Accept header get the first registered formatter.
type AcceptFormatters struct {
	formatters []Formatter
}

// NewAcceptFormatters creates a provider that prefers formatters in the given
// order.
func NewAcceptFormatters(formatters ...Formatter) *AcceptFormatters {
	return &AcceptFormatters{formatters: formatters}
}

// acceptRange is one parsed media range of an Accept header.
type acceptRange struct {
	mediaType string
	quality   float64
}

// Negotiate implements [FormatterProvider].
func (p *AcceptFormatters) Negotiate(r *http.Request) (Formatter, bool) {
	if len(p.formatters) == 0 {
		return nil, false
	}

	header := r.Header.Get("Accept")
	if header == "" {
		return p.formatters[0], true
	}

	ranges := parseAccept(header)
	if len(ranges) == 0 {
		return p.formatters[0], true
	}

	var (
		best            Formatter
		bestQuality     float64
		bestSpecificity = -1
	)

	for _, f := range p.formatters {
		for _, rng := range ranges {
			quality, specificity := matchMediaType(f.ContentType(), rng)
			if quality <= 0 {
				continue
			}

			if quality > bestQuality || (quality == bestQuality && specificity > bestSpecificity) {
				best, bestQuality, bestSpecificity = f, quality, specificity
			}
		}
	}

	if best == nil {
		return nil, false
	}

	return best, true
}

// parseAccept splits an Accept header into media ranges with quality values.
// Malformed parts are skipped rather than failing the request.
func parseAccept(header string) []acceptRange {
	parts := strings.Split(header, ",")
	ranges := make([]acceptRange, 0, len(parts))

	for _, part := range parts {
		fields := strings.Split(part, ";")

		mediaType := strings.ToLower(strings.TrimSpace(fields[0]))
		if mediaType == "" {
			continue
		}

		quality := 1.0

		for _, param := range fields[1:] {
			param = strings.TrimSpace(param)
			if !strings.HasPrefix(param, "q=") {
				continue
			}

			q, err := strconv.ParseFloat(param[2:], 64)
			if err != nil || q < 0 || q > 1 {
				continue
			}

			quality = q
		}

		ranges = append(ranges, acceptRange{mediaType: mediaType, quality: quality})
	}

	return ranges
}

// matchMediaType scores an offered content type against a media range.
// Specificity ranks exact matches above type wildcards above */*.
func matchMediaType(offer string, rng acceptRange) (quality float64, specificity int) {
	switch {
	case rng.mediaType == "*/*":
		return rng.quality, 0
	case strings.HasSuffix(rng.mediaType, "/*"):
		if strings.HasPrefix(offer, strings.TrimSuffix(rng.mediaType, "*")) {
			return rng.quality, 1
		}
	case rng.mediaType == offer:
		return rng.quality, 2
	}

	return 0, 0
}

// JSONFormatter renders payloads as JSON. It is the dispatcher's default.
type JSONFormatter struct{}

func (JSONFormatter) ContentType() string { return "application/json" }

func (JSONFormatter) Format(_ *Context, v any) ([]byte, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload to JSON")
	}

	return buf, nil
}

// MsgpackFormatter renders payloads as MessagePack for binary clients.
type MsgpackFormatter struct{}

func (MsgpackFormatter) ContentType() string { return "application/msgpack" }

func (MsgpackFormatter) Format(_ *Context, v any) ([]byte, error) {
	buf, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload to msgpack")
	}

	return buf, nil
}

// TextFormatter renders payloads as plain text using fmt conventions for
// values that are not strings or bytes.
type TextFormatter struct{}

func (TextFormatter) ContentType() string { return "text/plain" }

func (TextFormatter) Format(_ *Context, v any) ([]byte, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(tv), nil
	case []byte:
		return tv, nil
	default:
		return fmt.Appendf(nil, "%v", v), nil
	}
}
