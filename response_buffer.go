package dhttp

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned by [ResponseBuffer.Write] when a configured
// buffer limit would be exceeded. Nothing is written in that case.
var ErrBufferFull = errors.New("response buffer is full")

// ResponseWriter implements http.ResponseWriter but the underlying bytes are
// buffered until the dispatcher is done with the request. The buffering is
// what allows the error envelope to completely replace whatever a handler
// already wrote.
type ResponseWriter interface {
	http.ResponseWriter

	// Reset clears the buffered body, headers, and status so a completely
	// new response can be formulated. It panics when any part of the
	// response was already flushed.
	Reset()

	// Free returns the buffer to its pool. The dispatcher calls this after
	// the response is flushed; the writer must not be used afterwards.
	Free()

	// FlushBuffer writes the buffered response to the underlying writer.
	FlushBuffer() error
}

// ResponseBuffer is the pooled, buffered [ResponseWriter] the dispatcher
// wraps every response in.
type ResponseBuffer struct {
	resp   http.ResponseWriter
	buf    *bytes.Buffer
	limit  int
	status int
	header http.Header

	// headerSent: the status line and headers reached the underlying writer.
	// explicit: the handler flushed through http.ResponseController.
	headerSent bool
	explicit   bool
}

var responseBufferPool = sync.Pool{
	New: func() any { return &ResponseBuffer{buf: bytes.NewBuffer(nil)} },
}

// NewResponseWriter wraps w in a pooled, buffered response writer. Writes
// past limit fail with [ErrBufferFull]; a negative limit disables the check.
func NewResponseWriter(w http.ResponseWriter, limit int) *ResponseBuffer {
	return newBufferResponse(w, limit)
}

func newBufferResponse(w http.ResponseWriter, limit int) *ResponseBuffer {
	b, ok := responseBufferPool.Get().(*ResponseBuffer)
	if !ok {
		panic("dhttp: responseBufferPool corruption, expected *ResponseBuffer")
	}

	b.resp = w
	b.limit = limit
	b.status = 0
	b.header = make(http.Header)
	b.headerSent = false
	b.explicit = false
	b.buf.Reset()

	return b
}

// Header implements http.ResponseWriter. Headers are buffered and reach the
// underlying writer on the first flush.
func (b *ResponseBuffer) Header() http.Header { return b.header }

// WriteHeader implements http.ResponseWriter. As in the standard library the
// first status wins and later calls are ignored.
func (b *ResponseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

// Write implements http.ResponseWriter. A write that would exceed the
// configured limit fails with [ErrBufferFull] without writing anything.
func (b *ResponseBuffer) Write(p []byte) (int, error) {
	if b.limit >= 0 && b.buf.Len()+len(p) > b.limit {
		return 0, ErrBufferFull
	}

	return b.buf.Write(p)
}

// Buffered returns the number of body bytes waiting to be flushed.
func (b *ResponseBuffer) Buffered() int { return b.buf.Len() }

// Flushed reports whether any part of the response reached the underlying
// writer, after which the response can no longer be replaced.
func (b *ResponseBuffer) Flushed() bool { return b.headerSent }

// FlushError implements the explicit flush picked up by
// http.NewResponseController: it sends the status line, headers, and buffered
// body to the underlying writer and flushes that through to the client when
// supported.
func (b *ResponseBuffer) FlushError() error {
	b.explicit = true

	if err := b.flush(); err != nil {
		return err
	}

	if err := http.NewResponseController(b.resp).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return errors.Wrap(err, "flush underlying response writer")
	}

	return nil
}

// FlushBuffer implements the final, implicit flush the dispatcher performs
// when it is done with the request.
func (b *ResponseBuffer) FlushBuffer() error {
	return b.flush()
}

func (b *ResponseBuffer) flush() error {
	if !b.headerSent {
		dst := b.resp.Header()
		for key, vals := range b.header {
			dst[key] = vals
		}

		status := b.status
		if status == 0 {
			status = http.StatusOK
		}

		b.resp.WriteHeader(status)
		b.headerSent = true
	}

	if b.buf.Len() > 0 {
		if _, err := b.resp.Write(b.buf.Bytes()); err != nil {
			return errors.Wrap(err, "write buffered response")
		}

		b.buf.Reset()
	}

	return nil
}

// Reset clears the buffered body, headers, and status so a completely new
// response can be formulated. Resetting after a flush would reorder bytes on
// the wire, so it panics instead.
func (b *ResponseBuffer) Reset() {
	if b.explicit || b.headerSent {
		panic("dhttp: response already flushed, cannot reset")
	}

	b.buf.Reset()
	b.status = 0
	b.header = make(http.Header)
}

// Free returns the buffer to the pool.
func (b *ResponseBuffer) Free() {
	b.resp = nil
	b.header = nil
	responseBufferPool.Put(b)
}

// Unwrap returns the underlying http.ResponseWriter so the standard library's
// response controller can reach it.
func (b *ResponseBuffer) Unwrap() http.ResponseWriter { return b.resp }

var _ ResponseWriter = (*ResponseBuffer)(nil)
