package hearth

// Handler is the callback signature a registered route invokes. A non-nil
// error is treated as an internal failure by the connection driver (see
// spec.md §7): surfaced as 500 if no response byte has been written yet,
// otherwise the connection is simply abandoned.
type Handler func(req *Request, resp *Response) error

// selectorKind distinguishes the three ways a route can be registered.
type selectorKind uint8

const (
	selectorAnyMethod selectorKind = iota
	selectorSpecificMethod
	selectorDirectoryPrefix
)

// Selector is the tagged union spec.md §3 describes: AnyMethod,
// SpecificMethod(Method), or DirectoryPrefix.
type Selector struct {
	kind   selectorKind
	method Method
}

// AnyMethodSelector matches a request regardless of method.
func AnyMethodSelector() Selector { return Selector{kind: selectorAnyMethod} }

// SpecificMethodSelector matches only requests using m.
func SpecificMethodSelector(m Method) Selector {
	return Selector{kind: selectorSpecificMethod, method: m}
}

// DirectoryPrefixSelector marks a route as a directory fallback: it never
// participates in exact-match dispatch, only the prefix-match pass.
func DirectoryPrefixSelector() Selector { return Selector{kind: selectorDirectoryPrefix} }

type routeEntry struct {
	selector Selector
	handler  Handler
}

// Router holds the registered route table: a map from literal path string
// to an ordered list of (selector, handler) pairs, exactly as spec.md §3
// describes the Server's handler table. Router is safe for concurrent
// lookups once registration is complete; it performs no synchronization
// because, per spec.md §5, the table is write-only before Start and
// read-only after.
type Router struct {
	handlers map[string][]routeEntry
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string][]routeEntry)}
}

// Register appends (selector, handler) to path's entry list, preserving
// insertion order.
func (r *Router) Register(path string, selector Selector, handler Handler) {
	r.handlers[path] = append(r.handlers[path], routeEntry{selector: selector, handler: handler})
}

// Lookup implements spec.md §4.H: an exact-match pass over req's full URL,
// then a slash-segment-by-slash-segment prefix-match pass for directory
// handlers. It returns nil when no handler applies (the driver maps that to
// 404). req.Target is rewritten in place when a directory handler matches.
func (r *Router) Lookup(req *Request) Handler {
	path := req.Target.FullURL()

	if entries, ok := r.handlers[path]; ok {
		for _, e := range entries {
			switch e.selector.kind {
			case selectorSpecificMethod:
				if e.selector.method == req.Method {
					return e.handler
				}
				// A non-matching SpecificMethod at an exact-path hit falls
				// through to 404, not to the next selector or to the
				// prefix-match pass (spec.md §9 open question 1/3).
				return nil
			case selectorAnyMethod:
				return e.handler
			case selectorDirectoryPrefix:
				// Ignored during exact-match dispatch.
			}
		}
	}

	if handler, ok := r.lookupPrefix(req, path); ok {
		return handler
	}

	return nil
}

// lookupPrefix walks path slash-segment by slash-segment, accumulating
// "/a", "/a/b", "/a/b/c", ..., and returns the first DirectoryPrefix
// handler found at any accumulated prefix. On a match it rewrites
// req.Target's handler/relative path split.
func (r *Router) lookupPrefix(req *Request, path string) (Handler, bool) {
	for _, prefix := range prefixesOf(path) {
		entries, ok := r.handlers[prefix]
		if !ok {
			continue
		}
		for _, e := range entries {
			if e.selector.kind != selectorDirectoryPrefix {
				continue
			}
			req.Target.HandlerPath = prefix
			req.Target.RelativePath = path[len(prefix):]
			return e.handler, true
		}
	}
	return nil, false
}

// prefixesOf returns every slash-aligned prefix of path, shortest first:
// for "/a/b/c" that is ["/a", "/a/b", "/a/b/c"].
func prefixesOf(path string) []string {
	if path == "" || path[0] != '/' {
		return nil
	}
	var prefixes []string
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			prefixes = append(prefixes, path[:i])
		}
	}
	prefixes = append(prefixes, path)
	return prefixes
}
