// Package hearth implements an embeddable HTTP/1.1 origin server.
//
// A host program registers path-keyed handlers with a Server, starts it on
// a host/port pair, and for every accepted connection the package parses
// requests, enforces HTTP/1.1 framing rules, routes to the registered
// handler, and streams the response back. It targets developers who want a
// dependency-light HTTP/1.1 surface rather than a production-scale reverse
// proxy: no virtual hosts, no pipelined responses, no request-body
// streaming, no TLS, no HTTP/2.
package hearth
