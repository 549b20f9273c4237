package hearth

import (
	"bufio"
	"log"
	"net"
	"strconv"
	"strings"
	"time"
)

// ConnectionConfig tunes the per-connection driver's starting timeout and
// request budget. Both are the pre-negotiation defaults; via a Keep-Alive
// header a client may shorten the timeout and set the request budget to any
// value up to MaxKeepAliveRequests (see processConnHeaders).
type ConnectionConfig struct {
	// IdleTimeout is how long the driver waits for request bytes before
	// sending 408 and closing.
	IdleTimeout time.Duration
	// MaxRequests is how many requests a connection serves before a silent
	// close. Zero is invalid; use DefaultConnectionConfig.
	MaxRequests uint
	// MaxKeepAliveRequests is the ceiling a client's Keep-Alive: max=M may
	// not exceed.
	MaxKeepAliveRequests uint
	// ReadBufferSize/WriteBufferSize size the connection's bufio wrappers.
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultConnectionConfig matches spec: 60s idle timeout, 5 requests per
// connection by default, adjustable by the client up to 20.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		IdleTimeout:          60 * time.Second,
		MaxRequests:          5,
		MaxKeepAliveRequests: 20,
		ReadBufferSize:       4096,
		WriteBufferSize:      4096,
	}
}

// AccessLogEntry is one structured record emitted by an optional access-log
// hook after each request completes.
type AccessLogEntry struct {
	PeerAddr string `json:"peer_addr"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Status   int    `json:"status"`
	Closed   bool   `json:"closed"`
}

// Connection owns one accepted socket and the mutable state the driver loop
// threads through BuildRequest/Response/Router: the close flag, the
// negotiated timeout and request budget, and the idle clock. It is owned by
// exactly one worker goroutine; nothing else touches it concurrently.
type Connection struct {
	conn     net.Conn
	br       *bufio.Reader
	bw       *bufio.Writer
	peerAddr string

	close             bool
	timeout           time.Duration
	maxRequests       uint
	maxKeepAlive      uint
	inactiveSince     time.Time
	requestsReceived  uint

	logger    *log.Logger
	accessLog func(AccessLogEntry)
	router    *Router
}

// NewConnection wraps an accepted net.Conn with the buffering and timeout
// state the driver loop needs.
func NewConnection(conn net.Conn, cfg ConnectionConfig, router *Router, logger *log.Logger, accessLog func(AccessLogEntry)) *Connection {
	if logger == nil {
		logger = log.Default()
	}
	return &Connection{
		conn:             conn,
		br:               bufio.NewReaderSize(conn, cfg.ReadBufferSize),
		bw:               bufio.NewWriterSize(conn, cfg.WriteBufferSize),
		peerAddr:         conn.RemoteAddr().String(),
		timeout:          cfg.IdleTimeout,
		maxRequests:      cfg.MaxRequests,
		maxKeepAlive:     cfg.MaxKeepAliveRequests,
		inactiveSince:    time.Now(),
		logger:           logger,
		accessLog:        accessLog,
		router:           router,
	}
}

// Serve runs the connection driver loop until the connection closes, per
// spec.md §4.G, then shuts down the socket.
func (c *Connection) Serve() {
	defer c.shutdown()

	for !c.close {
		if !c.serveOne() {
			return
		}
	}
}

// serveOne drives exactly one request/response cycle. It returns false when
// the loop must stop (close already decided, or a failure ended the
// connection).
func (c *Connection) serveOne() bool {
	w := newWireReader(c.conn, c.br, c.timeout)
	req, err := BuildRequest(w)
	c.inactiveSince = time.Now()

	if err != nil {
		return c.handleBuildFailure(err)
	}

	c.requestsReceived++
	if c.requestsReceived > c.maxRequests {
		// Silent close: no response per spec.md §7.
		return false
	}

	if req.Version.Major != 1 {
		c.quick(StatusHTTPVersionNotSupported)
		return false
	}
	if req.Version.Minor > 1 {
		c.quick(StatusBadRequest)
		return false
	}
	if req.Version.Minor < 1 {
		c.quick(StatusUpgradeRequired)
		return false
	}
	if !req.Headers.Has("Host") {
		c.quick(StatusBadRequest)
		return false
	}
	if !c.processConnHeaders(req.Headers) {
		c.quick(StatusBadRequest)
		return false
	}

	handler := c.router.Lookup(&req)
	if handler == nil {
		c.quick(StatusNotFound)
		c.logAccess(req, StatusNotFound.Code, true)
		return false
	}

	resp := NewResponse(c.bw, time.Now())
	if err := handler(&req, resp); err != nil {
		if !resp.HeadersSent() {
			Quick(c.bw, time.Now(), StatusInternalServerError)
		}
		c.logAccess(req, resp.status.Code, true)
		return false
	}
	if !resp.ended {
		if err := resp.End(); err != nil {
			c.logger.Printf("hearth: connection %s: write failed: %v", c.peerAddr, err)
			return false
		}
	}

	c.logAccess(req, resp.status.Code, c.close)
	return !c.close
}

// handleBuildFailure converts a BuildRequest error into the driver's
// required response (or silent termination) and reports whether the loop
// should continue — which, per spec, it never does: every builder failure
// ends the connection.
func (c *Connection) handleBuildFailure(err error) bool {
	switch err {
	case ErrConnectionClosed:
		// Peer closed between requests; nothing to send.
	case ErrIdleTimeout:
		c.quick(StatusRequestTimeout)
	default:
		if bf, ok := err.(*buildFailure); ok {
			if !bf.Terminate {
				c.quick(bf.Status)
			}
		} else {
			c.logger.Printf("hearth: connection %s: %v", c.peerAddr, err)
		}
	}
	return false
}

func (c *Connection) quick(status Status) {
	if err := Quick(c.bw, time.Now(), status); err != nil {
		c.logger.Printf("hearth: connection %s: write failed: %v", c.peerAddr, err)
	}
}

// processConnHeaders implements spec.md §4.G's connection-header scan:
// Connection: close and Keep-Alive: timeout=N, max=M. Returns false on any
// keep-alive parameter parse failure, which the caller maps to 400.
func (c *Connection) processConnHeaders(headers Headers) bool {
	if v, ok := headers.Get("Connection"); ok {
		if strings.EqualFold(strings.TrimSpace(v), "close") {
			c.close = true
		}
	}

	v, ok := headers.Get("Keep-Alive")
	if !ok {
		return true
	}
	for _, param := range strings.Split(v, ",") {
		name, value, found := strings.Cut(param, "=")
		if !found {
			return false
		}
		name = strings.TrimSpace(strings.ToLower(name))
		value = strings.TrimSpace(value)
		switch name {
		case "timeout":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return false
			}
			if time.Duration(n)*time.Second <= c.timeout {
				c.timeout = time.Duration(n) * time.Second
			}
		case "max":
			m, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return false
			}
			if uint(m) <= c.maxKeepAlive {
				c.maxRequests = uint(m)
			}
		default:
			return false
		}
	}
	return true
}

func (c *Connection) logAccess(req Request, status int, closed bool) {
	if c.accessLog == nil {
		return
	}
	c.accessLog(AccessLogEntry{
		PeerAddr: c.peerAddr,
		Method:   req.Method.String(),
		Path:     req.Target.FullURL(),
		Status:   status,
		Closed:   closed,
	})
}

func (c *Connection) shutdown() {
	c.bw.Flush()
	if tcp, ok := c.conn.(*net.TCPConn); ok {
		tcp.CloseWrite()
	}
	c.conn.Close()
}
