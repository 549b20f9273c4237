// Package statichandler is the bundled directory handler spec.md describes
// as an external collaborator: it reads files relative to a root directory
// using only the public hearth.Request/hearth.Response contract.
package statichandler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/hearth/pkg/hearth"
)

// Handler serves files relative to a root directory for every request it's
// invoked with. When Root is empty, the root is derived per-request from
// the directory handler's own mount path (req.Target.HandlerPath) instead
// of a fixed directory — see NewSameDir.
type Handler struct {
	Root string
}

// New returns a Handler rooted at root, resolving every request at
// root + req.Target.RelativePath regardless of where it's mounted. Register
// it with Server.OnDirectory; the relative path the router computes is what
// gets joined to root.
func New(root string) *Handler {
	return &Handler{Root: root}
}

// NewSameDir returns a Handler with no fixed root: each request is served
// out of the directory it was registered under, stripped of its leading
// slash (e.g. mounted at "/www", a request resolves against "www/..."). This
// mirrors original_source/lib/handlers.rs's read_same_dir, which reads
// relative to request.target.target_path rather than a constructor
// argument, as opposed to read_diff_dir's (New's) explicit separate root.
func NewSameDir() *Handler {
	return &Handler{}
}

// Serve implements hearth.Handler. It rejects any relative path containing
// a ".." segment before ever touching the filesystem (spec.md §9 open
// question 4: the core specifies no traversal protection, so the bundled
// handler supplies its own).
func (h *Handler) Serve(req *hearth.Request, resp *hearth.Response) error {
	rel := req.Target.RelativePath
	if containsDotDot(rel) {
		resp.Status(hearth.StatusNotFound)
		return resp.EndWith([]byte(hearth.StatusNotFound.String()))
	}

	root := h.Root
	if root == "" {
		root = strings.TrimPrefix(req.Target.HandlerPath, "/")
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		resp.Status(hearth.StatusOK)
		return resp.EndWith(data)
	case errors.Is(err, os.ErrNotExist):
		resp.Status(hearth.StatusNotFound)
		return resp.EndWith([]byte(hearth.StatusNotFound.String()))
	default:
		resp.Status(hearth.StatusInternalServerError)
		return resp.EndWith([]byte(hearth.StatusInternalServerError.String()))
	}
}

// containsDotDot reports whether any slash-delimited segment of path is
// "..", whether or not filepath.Join would otherwise normalize it away.
func containsDotDot(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
