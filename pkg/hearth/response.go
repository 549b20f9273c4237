package hearth

import (
	"bufio"
	"strconv"
	"strings"
	"time"
)

// forbiddenResponseHeaders are header names the library controls itself;
// Response.SetHeader silently drops any of these.
var forbiddenResponseHeaders = map[string]bool{
	"transfer-encoding": true,
	"content-length":    true,
	"connection":        true,
	"keep-alive":        true,
	"set-cookie":        true,
	"date":              true,
	"host":              true,
}

func isForbiddenHeader(name string) bool {
	return forbiddenResponseHeaders[strings.ToLower(name)]
}

// Response is the streaming status/header/chunked-body writer passed to a
// handler. It borrows the connection's writer for the lifetime of exactly
// one request; a handler must finish with End or EndWith before returning.
//
// Phase progression: FRESH -> (first write) STATUS_SENT+HEADERS_SENT ->
// LAST_CHUNK_SENT. Status() is only effective in FRESH.
type Response struct {
	bw *bufio.Writer

	status  Status
	headers Headers
	cookies []Cookie

	statusSent bool
	ended      bool

	now time.Time
}

// NewResponse constructs a fresh Response writing through bw, with the
// mandatory Date header seeded from now.
func NewResponse(bw *bufio.Writer, now time.Time) *Response {
	return &Response{
		bw:      bw,
		status:  StatusOK,
		headers: NewHeaders(),
		now:     now,
	}
}

// Status sets the response status. A no-op once the status line has been
// sent (invariant 8: the first byte written freezes the status).
func (r *Response) Status(s Status) {
	if r.statusSent {
		return
	}
	r.status = s
}

// SetHeader sets a response header, silently dropping forbidden names.
func (r *Response) SetHeader(name, value string) {
	if isForbiddenHeader(name) {
		return
	}
	r.headers.Set(name, value)
}

// SetHeaders applies SetHeader for every entry in m. Iteration order over a
// map is unspecified; callers needing a stable header order should call
// SetHeader directly.
func (r *Response) SetHeaders(m map[string]string) {
	for name, value := range m {
		r.SetHeader(name, value)
	}
}

// SetCookie appends or replaces (by name) a cookie to be emitted as
// Set-Cookie when headers are written.
func (r *Response) SetCookie(c Cookie) {
	for i := range r.cookies {
		if r.cookies[i].Name == c.Name {
			r.cookies[i] = c
			return
		}
	}
	r.cookies = append(r.cookies, c)
}

// writeHead emits the status line, headers, and Set-Cookie lines exactly
// once, on the first call from Send/End/EndWith.
func (r *Response) writeHead() error {
	if r.statusSent {
		return nil
	}
	r.statusSent = true

	if _, err := r.bw.WriteString("HTTP/1.1 " + r.status.String() + "\r\n"); err != nil {
		return err
	}

	r.headers.VisitAll(func(name, value string) {
		r.bw.WriteString(name + ": " + value + "\r\n")
	})
	r.bw.WriteString("Transfer-Encoding: chunked\r\n")
	r.bw.WriteString("Date: " + r.now.UTC().Format(imfFixdate) + "\r\n")

	for _, c := range r.cookies {
		r.bw.WriteString("Set-Cookie: " + c.Serialize(r.now) + "\r\n")
	}

	_, err := r.bw.WriteString("\r\n")
	return err
}

// Send writes one chunk of the response body. A zero-length payload is a
// no-op per RFC 7230 §4.1 (zero-length chunks are reserved for the
// terminator).
func (r *Response) Send(data []byte) error {
	if r.ended {
		return ErrResponseConsumed
	}
	if err := r.writeHead(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := r.bw.WriteString(strconv.FormatInt(int64(len(data)), 16) + "\r\n"); err != nil {
		return err
	}
	if _, err := r.bw.Write(data); err != nil {
		return err
	}
	if _, err := r.bw.WriteString("\r\n"); err != nil {
		return err
	}
	return r.bw.Flush()
}

// End emits the terminal zero-length chunk and consumes the response.
func (r *Response) End() error {
	if r.ended {
		return ErrResponseConsumed
	}
	if err := r.writeHead(); err != nil {
		return err
	}
	r.ended = true
	if _, err := r.bw.WriteString("0\r\n\r\n"); err != nil {
		return err
	}
	return r.bw.Flush()
}

// EndWith is Send(data) followed by End().
func (r *Response) EndWith(data []byte) error {
	if err := r.Send(data); err != nil {
		return err
	}
	return r.End()
}

// HeadersSent reports whether the status line and headers have already been
// written to the wire.
func (r *Response) HeadersSent() bool {
	return r.statusSent
}

// Quick constructs a response, sets status, and immediately ends it with no
// body. Used internally by the driver for early protocol failures.
func Quick(bw *bufio.Writer, now time.Time, status Status) error {
	r := NewResponse(bw, now)
	r.Status(status)
	return r.End()
}
