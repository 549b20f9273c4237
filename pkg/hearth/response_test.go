package hearth

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"
)

func newTestResponse() (*Response, *bytes.Buffer) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	return NewResponse(bw, time.Now()), &buf
}

func TestResponseBasicFraming(t *testing.T) {
	r, buf := newTestResponse()
	if err := r.EndWith([]byte("pong")); err != nil {
		t.Fatalf("EndWith: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "HTTP/1.1 ") {
		t.Fatalf("response does not start with status line: %q", out)
	}
	if !strings.HasSuffix(out, "0\r\n\r\n") {
		t.Fatalf("response does not end with terminator: %q", out)
	}
	if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
		t.Fatalf("missing Transfer-Encoding header: %q", out)
	}
	if !strings.Contains(out, "4\r\npong\r\n") {
		t.Fatalf("missing expected chunk framing: %q", out)
	}
}

func TestResponseStatusNoopAfterSend(t *testing.T) {
	r, _ := newTestResponse()
	r.Status(StatusNotFound)
	r.Send([]byte("x"))
	r.Status(StatusOK) // must be a no-op now
	if r.status.Code != 404 {
		t.Fatalf("status changed after first byte written: %d", r.status.Code)
	}
}

func TestResponseForbiddenHeaderDropped(t *testing.T) {
	r, buf := newTestResponse()
	r.SetHeader("Content-Length", "999")
	r.SetHeader("X-Custom", "kept")
	r.End()

	out := buf.String()
	if strings.Contains(out, "Content-Length: 999") {
		t.Fatalf("forbidden header leaked into response: %q", out)
	}
	if !strings.Contains(out, "X-Custom: kept") {
		t.Fatalf("custom header missing: %q", out)
	}
}

func TestResponseZeroLengthSendIsNoop(t *testing.T) {
	r, buf := newTestResponse()
	r.Send(nil)
	r.End()
	out := buf.String()
	// One CRLFCRLF ends the header block, one is inside the "0\r\n\r\n"
	// terminator; a zero-length chunk from Send(nil) would add a third.
	if strings.Count(out, "\r\n\r\n") != 2 {
		t.Fatalf("expected only the header end and the terminator, got %q", out)
	}
}

func TestResponseEndTwiceFails(t *testing.T) {
	r, _ := newTestResponse()
	if err := r.End(); err != nil {
		t.Fatalf("first End: %v", err)
	}
	if err := r.End(); err != ErrResponseConsumed {
		t.Fatalf("second End() = %v, want ErrResponseConsumed", err)
	}
}

func TestResponseSetCookieLastWriteWins(t *testing.T) {
	r, buf := newTestResponse()
	r.SetCookie(NewCookie("session", "first"))
	r.SetCookie(NewCookie("session", "second"))
	r.End()

	out := buf.String()
	if strings.Count(out, "Set-Cookie: session=") != 1 {
		t.Fatalf("expected exactly one Set-Cookie for session, got %q", out)
	}
	if !strings.Contains(out, "session=second") {
		t.Fatalf("expected last write to win: %q", out)
	}
}

func TestResponseDateHeaderPresent(t *testing.T) {
	r, buf := newTestResponse()
	r.End()
	if !strings.Contains(buf.String(), "Date: ") {
		t.Fatalf("missing Date header: %q", buf.String())
	}
}
