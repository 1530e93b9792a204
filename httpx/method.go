package httpx

import "strings"

// Method is one of the eight request methods this package speaks.
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodHead
	MethodPut
	MethodDelete
	MethodOptions
	MethodTrace
	MethodConnect
)

// Methods lists every supported method in Allow-header order.
var Methods = []Method{
	MethodGet, MethodPost, MethodHead, MethodPut,
	MethodDelete, MethodOptions, MethodTrace, MethodConnect,
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodHead:
		return "HEAD"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodOptions:
		return "OPTIONS"
	case MethodTrace:
		return "TRACE"
	case MethodConnect:
		return "CONNECT"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether m is one of the eight defined methods.
func (m Method) Valid() bool { return m >= MethodGet && m <= MethodConnect }

// ParseMethod maps a method token to a Method. Tokens are case-sensitive,
// as on the wire.
func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// AllowHeader is the value of an Allow header naming every Method.
func AllowHeader() string {
	names := make([]string, len(Methods))
	for i, m := range Methods {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}
