package hearth

import (
	"strconv"
	"strings"
)

// Request is an immutable view of one parsed HTTP request. The router may
// rewrite Target.HandlerPath/RelativePath before a directory handler sees
// this value; nothing else mutates it after BuildRequest returns.
type Request struct {
	Method  Method
	Target  Target
	Version Version
	Headers Headers
	Cookies map[string]string
	Body    []byte
}

// buildFailure is returned by BuildRequest when the request-builder state
// machine fails before producing a Request. Terminate is true when the
// connection is closed with no response at all (a malformed header line);
// otherwise Status is the status to send.
type buildFailure struct {
	Status    Status
	Terminate bool
	err       error
}

func (f *buildFailure) Error() string {
	if f.err != nil {
		return f.err.Error()
	}
	return f.Status.String()
}

func fail(status Status, err error) *buildFailure {
	return &buildFailure{Status: status, err: err}
}

func terminateNoResponse(err error) *buildFailure {
	return &buildFailure{Terminate: true, err: err}
}

// BuildRequest drives the START -> READ_REQUEST_LINE -> READ_HEADERS ->
// DECIDE_BODY -> READ_BODY -> DONE state machine against w. A protocol
// failure is returned as a *buildFailure carrying the status the driver
// must send (or, for a malformed header line, an instruction to terminate
// with no response at all). Errors from the wire reader (ErrIdleTimeout,
// ErrConnectionClosed, other I/O errors) are returned unwrapped.
func BuildRequest(w *wireReader) (Request, error) {
	req := Request{Headers: NewHeaders()}

	// READ_REQUEST_LINE
	line, err := w.readLine()
	if err != nil {
		return Request{}, err
	}
	tokens := strings.Fields(line)
	if len(tokens) != 3 {
		return Request{}, fail(StatusBadRequest, ErrInvalidRequestLine)
	}
	methodTok, targetTok, versionTok := tokens[0], tokens[1], tokens[2]

	method := ParseMethod(methodTok)
	if method == MethodUnknown {
		return Request{}, fail(StatusNotImplemented, ErrInvalidMethod)
	}
	req.Method = method
	req.Target = ParseTarget(targetTok)

	version, ok := ParseVersion(versionTok)
	if !ok {
		return Request{}, fail(StatusBadRequest, ErrInvalidVersion)
	}
	req.Version = version

	// READ_HEADERS
	for {
		headerLine, err := w.readLine()
		if err != nil {
			return Request{}, err
		}
		if headerLine == "" {
			break
		}
		if !req.Headers.ParseHeaderLine(headerLine) {
			return Request{}, terminateNoResponse(ErrInvalidHeaderLine)
		}
	}

	// Cookie extraction.
	if cookieHeader, ok := req.Headers.Get("Cookie"); ok {
		req.Cookies = ParseCookieHeader(cookieHeader)
	} else {
		req.Cookies = map[string]string{}
	}

	// DECIDE_BODY / READ_BODY
	body, err := readBody(w, req.Headers)
	if err != nil {
		return Request{}, err
	}
	req.Body = body

	return req, nil
}

// readBody implements DECIDE_BODY and the two READ_BODY variants.
func readBody(w *wireReader, headers Headers) ([]byte, error) {
	if te, ok := headers.Get("Transfer-Encoding"); ok {
		if !strings.EqualFold(strings.TrimSpace(te), "chunked") {
			return nil, fail(StatusBadRequest, ErrInvalidBodyFraming)
		}
		return readChunkedBody(w)
	}

	if cl, ok := headers.Get("Content-Length"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || n < 0 {
			return nil, fail(StatusBadRequest, ErrInvalidBodyFraming)
		}
		if n == 0 {
			return []byte{}, nil
		}
		body, err := w.readExact(int(n))
		if err != nil {
			if err == ErrBodyTruncated {
				return nil, fail(StatusInternalServerError, err)
			}
			return nil, err
		}
		return body, nil
	}

	return nil, nil
}

// readChunkedBody reads RFC 7230 §4.1 chunks until the zero-length
// terminator, then drains trailer lines up to the closing empty line.
// Trailers are never exposed to the caller.
func readChunkedBody(w *wireReader) ([]byte, error) {
	var body []byte
	for {
		sizeLine, err := w.readLine()
		if err != nil {
			return nil, err
		}
		sizeTok := sizeLine
		if i := strings.IndexByte(sizeTok, ';'); i >= 0 {
			sizeTok = sizeTok[:i]
		}
		size, err := strconv.ParseUint(strings.TrimSpace(sizeTok), 16, 64)
		if err != nil {
			return nil, fail(StatusBadRequest, ErrChunkedEncoding)
		}

		if size == 0 {
			for {
				trailer, err := w.readLine()
				if err != nil {
					return nil, err
				}
				if trailer == "" {
					break
				}
			}
			return body, nil
		}

		chunk, err := w.readExact(int(size))
		if err != nil {
			if err == ErrBodyTruncated {
				return nil, fail(StatusBadRequest, ErrChunkedEncoding)
			}
			return nil, err
		}
		body = append(body, chunk...)

		crlf, err := w.readExact(2)
		if err != nil {
			if err == ErrBodyTruncated {
				return nil, fail(StatusBadRequest, ErrChunkedEncoding)
			}
			return nil, err
		}
		if crlf[0] != '\r' || crlf[1] != '\n' {
			return nil, fail(StatusBadRequest, ErrChunkedEncoding)
		}
	}
}
