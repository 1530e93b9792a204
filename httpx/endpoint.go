package httpx

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// URLEndpoint is an absolute http or https URL broken into the parts needed
// to connect and to write a request line. Host is ASCII (IDNA-encoded) and
// keeps the brackets of an IPv6 literal. Path includes any query.
type URLEndpoint struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// DefaultPort returns 443 for https and 80 for anything else.
func DefaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// ParseURL splits raw into an endpoint. A missing scheme means http. The
// authority ends at the first '/', '?' or '#'; an explicit port is taken
// from a trailing ":digits". Fragments are dropped.
func ParseURL(raw string) (URLEndpoint, error) {
	e := URLEndpoint{Scheme: "http"}
	rest := raw
	switch {
	case hasPrefixFold(rest, "https://"):
		e.Scheme = "https"
		rest = rest[len("https://"):]
	case hasPrefixFold(rest, "http://"):
		rest = rest[len("http://"):]
	}
	e.Port = DefaultPort(e.Scheme)

	authority, path := rest, ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	switch {
	case path == "":
		path = "/"
	case path[0] != '/':
		path = "/" + path
	}
	if i := strings.IndexFunc(path, isCTLOrSpace); i >= 0 {
		return URLEndpoint{}, fmt.Errorf("%w: %q: byte %#x in path", ErrInvalidURL, raw, path[i])
	}
	e.Path = path

	host, port, err := splitAuthority(authority)
	if err != nil {
		return URLEndpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	e.Host = host
	if port != 0 {
		e.Port = port
	}
	return e, nil
}

func splitAuthority(authority string) (host string, port int, err error) {
	if authority == "" {
		return "", 0, fmt.Errorf("empty host")
	}
	if authority[0] == '[' {
		end := strings.IndexByte(authority, ']')
		if end < 0 {
			return "", 0, fmt.Errorf("unterminated IPv6 literal")
		}
		if net.ParseIP(authority[1:end]) == nil {
			return "", 0, fmt.Errorf("bad IPv6 literal %q", authority[1:end])
		}
		host, rest := authority[:end+1], authority[end+1:]
		if rest == "" {
			return host, 0, nil
		}
		if rest[0] != ':' || !allDigits(rest[1:]) {
			return "", 0, fmt.Errorf("junk after IPv6 literal")
		}
		port, err = parsePort(rest[1:])
		return host, port, err
	}

	host = authority
	if i := strings.LastIndexByte(authority, ':'); i >= 0 && allDigits(authority[i+1:]) {
		if port, err = parsePort(authority[i+1:]); err != nil {
			return "", 0, err
		}
		host = authority[:i]
	}
	if host == "" {
		return "", 0, fmt.Errorf("empty host")
	}
	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", 0, err
	}
	if ascii == "" {
		return "", 0, fmt.Errorf("empty host")
	}
	for i := 0; i < len(ascii); i++ {
		if !isHostByte(ascii[i]) {
			return "", 0, fmt.Errorf("byte %#x in host", ascii[i])
		}
	}
	return ascii, port, nil
}

// hostProfile is idna.Lookup without the STD3 restriction, so names such
// as my_host.local survive. isHostByte then bounds what it lets through.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
)

func isHostByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '_' || c == '.'
}

// isCTLOrSpace matches bytes that cannot appear in a request-target.
func isCTLOrSpace(r rune) bool { return r <= ' ' || r == 0x7f }

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("port %q out of range", s)
	}
	return n, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Secure reports whether the endpoint needs TLS.
func (e URLEndpoint) Secure() bool { return e.Scheme == "https" }

// Hostname is Host without IPv6 brackets, suitable for TLS ServerName.
func (e URLEndpoint) Hostname() string { return strings.Trim(e.Host, "[]") }

// Addr is the host:port to dial.
func (e URLEndpoint) Addr() string {
	return net.JoinHostPort(e.Hostname(), strconv.Itoa(e.Port))
}

// HostHeader is the Host field value: the host, plus the port when it is
// not the scheme's default.
func (e URLEndpoint) HostHeader() string {
	if e.Port == DefaultPort(e.Scheme) {
		return e.Host
	}
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// String serializes e so that ParseURL(e.String()) == e.
func (e URLEndpoint) String() string {
	return e.Scheme + "://" + e.HostHeader() + e.Path
}

// Resolve interprets ref, typically a Location value, against e. Absolute
// http(s) URLs stand alone; anything else is resolved as a URI reference.
func (e URLEndpoint) Resolve(ref string) (URLEndpoint, error) {
	ref = strings.Trim(ref, " \t")
	if ref == "" {
		return URLEndpoint{}, fmt.Errorf("%w: empty reference", ErrInvalidURL)
	}
	if hasPrefixFold(ref, "http://") || hasPrefixFold(ref, "https://") {
		return ParseURL(ref)
	}
	base, err := url.Parse(e.String())
	if err != nil {
		return URLEndpoint{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return URLEndpoint{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if r.Scheme != "" && r.Scheme != "http" && r.Scheme != "https" {
		return URLEndpoint{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, r.Scheme)
	}
	return ParseURL(base.ResolveReference(r).String())
}
