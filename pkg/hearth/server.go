package hearth

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"

	"golang.org/x/sync/errgroup"
)

// ServerConfig bundles the per-connection tunables new connections are
// built with, plus the logging hooks the server frontend and every
// Connection it spawns share.
type ServerConfig struct {
	Connection ConnectionConfig
	// Logger receives accept-loop and protocol-level diagnostics. Defaults
	// to log.Default() when nil.
	Logger *log.Logger
	// AccessLog, when non-nil, is called once per completed request with a
	// structured record (see Connection.logAccess).
	AccessLog func(AccessLogEntry)
}

// DefaultServerConfig returns the zero-configuration defaults: the default
// ConnectionConfig and no access logging.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Connection: DefaultConnectionConfig()}
}

// Server is the host/port plus the handler table described in spec.md §3.
// The handler table is mutated only by On/OnGet/.../OnDirectory before
// Start; Start freezes it by never mutating the Router again, so concurrent
// workers read it lock-free.
type Server struct {
	host   string
	port   string
	config ServerConfig
	router *Router
}

// New constructs an empty Server bound to host:port with default
// configuration. Use NewWithConfig to override connection tuning or
// logging.
func New(host, port string) *Server {
	return NewWithConfig(host, port, DefaultServerConfig())
}

// NewWithConfig constructs an empty Server with an explicit ServerConfig.
func NewWithConfig(host, port string, config ServerConfig) *Server {
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Server{host: host, port: port, config: config, router: NewRouter()}
}

// On registers cb for every method at path (Selector: AnyMethod).
func (s *Server) On(path string, cb Handler) {
	s.router.Register(path, AnyMethodSelector(), cb)
}

// OnGet registers cb for GET requests at path.
func (s *Server) OnGet(path string, cb Handler) { s.onMethod(path, MethodGET, cb) }

// OnHead registers cb for HEAD requests at path.
func (s *Server) OnHead(path string, cb Handler) { s.onMethod(path, MethodHEAD, cb) }

// OnPost registers cb for POST requests at path.
func (s *Server) OnPost(path string, cb Handler) { s.onMethod(path, MethodPOST, cb) }

// OnPut registers cb for PUT requests at path.
func (s *Server) OnPut(path string, cb Handler) { s.onMethod(path, MethodPUT, cb) }

// OnDelete registers cb for DELETE requests at path.
func (s *Server) OnDelete(path string, cb Handler) { s.onMethod(path, MethodDELETE, cb) }

func (s *Server) onMethod(path string, m Method, cb Handler) {
	s.router.Register(path, SpecificMethodSelector(m), cb)
}

// OnDirectory registers cb as a directory fallback rooted at path: any
// request whose decoded path has path as a slash-aligned prefix and no
// exact-path hit is routed here, with the prefix rewritten into
// Target.HandlerPath/RelativePath.
func (s *Server) OnDirectory(path string, cb Handler) {
	s.router.Register(path, DirectoryPrefixSelector(), cb)
}

// Start binds a TCP listener on host:port, calls onReady (with the bound
// address, useful when port is "0") once bound, then spawns one worker per
// accepted connection until ctx is cancelled. A bind failure terminates the
// process with a nonzero exit code, per spec.md §4.I.
func (s *Server) Start(ctx context.Context, onReady func(addr net.Addr)) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.host, s.port))
	if err != nil {
		s.config.Logger.Printf("hearth: listen on %s:%s failed: %v", s.host, s.port, err)
		os.Exit(1)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	if onReady != nil {
		onReady(listener.Addr())
	}

	group.Go(func() error {
		return s.acceptLoop(ctx, listener)
	})

	return group.Wait()
}

// acceptLoop accepts connections until ctx is cancelled (observed via the
// listener being closed by the sibling goroutine in Start), spawning an
// independent worker goroutine for each one.
func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("hearth: accept failed: %w", err)
			}
		}
		go func() {
			c := NewConnection(conn, s.config.Connection, s.router, s.config.Logger, s.config.AccessLog)
			c.Serve()
		}()
	}
}
