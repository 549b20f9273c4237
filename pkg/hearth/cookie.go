package hearth

import (
	"strconv"
	"strings"
	"time"
)

// imfFixdate is the RFC 9110 fixed-length date format, e.g.
// "Sun, 06 Nov 1994 08:49:37 GMT".
const imfFixdate = "Mon, 02 Jan 2006 15:04:05 GMT"

// SameSite is the Set-Cookie SameSite attribute.
type SameSite int

const (
	SameSiteUnset SameSite = iota
	SameSiteStrict
	SameSiteLax
	SameSiteNone
)

func (s SameSite) String() string {
	switch s {
	case SameSiteStrict:
		return "Strict"
	case SameSiteLax:
		return "Lax"
	case SameSiteNone:
		return "None"
	default:
		return ""
	}
}

// Cookie is a response-side Set-Cookie value. Name and Value are sanitized
// by NewCookie before being stored; constructing a Cookie literal bypasses
// sanitization, so prefer NewCookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Expires  time.Time // zero value means no Expires/Max-Age attribute
	HTTPOnly bool
	Path     string
	SameSite SameSite
	Secure   bool
}

// NewCookie builds a Cookie from a raw name/value pair, applying the
// RFC 6265 token sanitization spec.md §4.D requires before the cookie is
// ever serialized.
func NewCookie(name, value string) Cookie {
	return Cookie{Name: sanitizeCookieName(name), Value: sanitizeCookieValue(value)}
}

// sanitizeCookieName replaces every byte outside the permitted cookie-name
// token set with '_'.
func sanitizeCookieName(name string) string {
	const forbidden = " \t\",;/()<>@\\[]?={}"
	return replaceAny(name, forbidden)
}

// sanitizeCookieValue strips one pair of surrounding quotes, then replaces
// the narrower forbidden-value byte set with '_'. Parentheses, brackets,
// and the rest of the name's forbidden set are retained in values.
func sanitizeCookieValue(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	const forbidden = " \t\",;/"
	return replaceAny(value, forbidden)
}

func replaceAny(s, forbidden string) string {
	if !strings.ContainsAny(s, forbidden) {
		return s
	}
	out := []byte(s)
	for i, b := range out {
		if strings.IndexByte(forbidden, b) >= 0 {
			out[i] = '_'
		}
	}
	return string(out)
}

// Serialize renders the cookie as a Set-Cookie header value, applying
// SameSite=None's implied Secure attribute.
func (c Cookie) Serialize(now time.Time) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)

	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(imfFixdate))

		maxAge := int64(c.Expires.Sub(now).Seconds())
		if maxAge < 0 {
			maxAge = 0
		}
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.FormatInt(maxAge, 10))
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}

	secure := c.Secure
	if c.SameSite == SameSiteNone {
		secure = true
	}
	if c.SameSite != SameSiteUnset {
		b.WriteString("; SameSite=")
		b.WriteString(c.SameSite.String())
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if secure {
		b.WriteString("; Secure")
	}

	return b.String()
}

// ParseCookieHeader parses a request's Cookie header value into a map.
// Items are split on "; "; each item splits once on '=' into name/value.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	if header == "" {
		return cookies
	}
	for _, item := range strings.Split(header, "; ") {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		cookies[name] = value
	}
	return cookies
}
