package hearth

import "strconv"

// Status is an HTTP response status: either one of the known codes in
// reasonPhrases (100 through 511) with its fixed reason phrase, or an
// "other" code carrying a caller-supplied reason.
//
// Status.String() always renders as "<code> <reason>" with a single space
// when Reason is non-empty, and just "<code>" otherwise.
type Status struct {
	Code   int
	Reason string
}

// reasonPhrases is the full set of status codes this library recognizes,
// 100 through 511, each with its fixed IANA reason phrase.
var reasonPhrases = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	102: "Processing",
	103: "Early Hints",

	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	207: "Multi-Status",
	208: "Already Reported",
	226: "IM Used",

	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",
	308: "Permanent Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I'm a teapot",
	421: "Misdirected Request",
	422: "Unprocessable Entity",
	423: "Locked",
	424: "Failed Dependency",
	425: "Too Early",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	451: "Unavailable For Legal Reasons",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	506: "Variant Also Negotiates",
	507: "Insufficient Storage",
	508: "Loop Detected",
	510: "Not Extended",
	511: "Network Authentication Required",
}

// StatusFromCode returns the Status for code. If code is one of the known
// codes above its fixed reason phrase is attached; otherwise Reason is
// empty — use Other to attach a custom reason phrase to an unknown code.
func StatusFromCode(code int) Status {
	return Status{Code: code, Reason: reasonPhrases[code]}
}

// Other constructs a Status carrying a numeric code outside (or inside) the
// known set with a caller-supplied reason phrase.
func Other(code int, reason string) Status {
	return Status{Code: code, Reason: reason}
}

// String renders the status line's status portion: "<code> <reason>", or
// just "<code>" when Reason is empty.
func (s Status) String() string {
	code := strconv.Itoa(s.Code)
	if s.Reason == "" {
		return code
	}
	return code + " " + s.Reason
}

// Convenience constructors for the statuses the driver emits directly
// (spec.md §6: 400, 404, 408, 426, 500, 501, 505) plus 200 and 405 for
// handlers to use.
var (
	StatusOK                  = StatusFromCode(200)
	StatusBadRequest          = StatusFromCode(400)
	StatusNotFound            = StatusFromCode(404)
	StatusMethodNotAllowed    = StatusFromCode(405)
	StatusRequestTimeout      = StatusFromCode(408)
	StatusUpgradeRequired     = StatusFromCode(426)
	StatusInternalServerError = StatusFromCode(500)
	StatusNotImplemented      = StatusFromCode(501)
	StatusHTTPVersionNotSupported = StatusFromCode(505)
)
