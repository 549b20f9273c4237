package statichandler

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourusername/hearth/pkg/hearth"
)

func writeTempFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func serveAndCapture(t *testing.T, h *Handler, req *hearth.Request) string {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	resp := hearth.NewResponse(bw, time.Now())
	if err := h.Serve(req, resp); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return buf.String()
}

func TestServeExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "main.txt", "hello world")

	h := New(dir)
	req := &hearth.Request{Target: hearth.Target{RelativePath: "/main.txt"}}
	out := serveAndCapture(t, h, req)

	if want := "HTTP/1.1 200 OK"; out[:len(want)] != want {
		t.Fatalf("response = %q", out)
	}
}

func TestServeMissingFile(t *testing.T) {
	dir := t.TempDir()
	h := New(dir)
	req := &hearth.Request{Target: hearth.Target{RelativePath: "/nope.txt"}}
	out := serveAndCapture(t, h, req)

	if want := "HTTP/1.1 404"; out[:len(want)] != want {
		t.Fatalf("response = %q", out)
	}
}

func TestServeRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	h := New(dir)
	req := &hearth.Request{Target: hearth.Target{RelativePath: "/../secret.txt"}}
	out := serveAndCapture(t, h, req)

	if want := "HTTP/1.1 404"; out[:len(want)] != want {
		t.Fatalf("response = %q, want 404 for traversal attempt", out)
	}
}

func TestNewSameDirDerivesRootFromMountPath(t *testing.T) {
	base := t.TempDir()
	mount := filepath.Join(base, "mounted")
	if err := os.Mkdir(mount, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeTempFile(t, mount, "same.txt", "served from mount path")
	t.Chdir(base)

	h := NewSameDir()
	req := &hearth.Request{Target: hearth.Target{HandlerPath: "/mounted", RelativePath: "/same.txt"}}
	out := serveAndCapture(t, h, req)

	if want := "HTTP/1.1 200 OK"; out[:len(want)] != want {
		t.Fatalf("response = %q", out)
	}
}

func TestNewSameDirDiffersFromExplicitRoot(t *testing.T) {
	base := t.TempDir()
	mount := filepath.Join(base, "mounted")
	other := filepath.Join(base, "other")
	if err := os.Mkdir(mount, 0o755); err != nil {
		t.Fatalf("Mkdir mounted: %v", err)
	}
	if err := os.Mkdir(other, 0o755); err != nil {
		t.Fatalf("Mkdir other: %v", err)
	}
	writeTempFile(t, other, "only-in-other.txt", "alternate root")
	t.Chdir(base)

	// New(other) serves "other" regardless of the request's mount path...
	diffDir := New(other)
	req := &hearth.Request{Target: hearth.Target{HandlerPath: "/mounted", RelativePath: "/only-in-other.txt"}}
	out := serveAndCapture(t, diffDir, req)
	if want := "HTTP/1.1 200 OK"; out[:len(want)] != want {
		t.Fatalf("New(other) response = %q, want 200", out)
	}

	// ...while NewSameDir() only looks under the mount path itself, so the
	// identical request 404s.
	sameDir := NewSameDir()
	out = serveAndCapture(t, sameDir, req)
	if want := "HTTP/1.1 404"; out[:len(want)] != want {
		t.Fatalf("NewSameDir() response = %q, want 404", out)
	}
}
