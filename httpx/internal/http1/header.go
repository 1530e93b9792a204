package http1

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Field is one header line as it appeared on the wire or was added by a caller.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields. Lookups ignore case; the
// original spelling and order of names are preserved, and repeated names
// are all kept.
type Header []Field

// Add appends a field. It never replaces an existing one.
func (h *Header) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Set replaces every field named name with a single one, keeping the
// position of the first match. It appends when there is no match.
func (h *Header) Set(name, value string) {
	out := (*h)[:0]
	found := false
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
			continue
		}
		if !found {
			out = append(out, Field{Name: f.Name, Value: value})
			found = true
		}
	}
	if !found {
		out = append(out, Field{Name: name, Value: value})
	}
	*h = out
}

// Del removes every field named name.
func (h *Header) Del(name string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	*h = out
}

// Get returns the value of the first field named name, or "".
func (h Header) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup is Get that also reports whether the field exists.
func (h Header) Lookup(name string) (string, bool) {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether a field named name exists.
func (h Header) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Values returns the values of all fields named name, in order.
func (h Header) Values(name string) []string {
	var vv []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			vv = append(vv, f.Value)
		}
	}
	return vv
}

// Clone returns a copy that shares nothing with h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return append(Header(nil), h...)
}

// Validate reports the first field whose name is not a valid token.
func (h Header) Validate() error {
	for _, f := range h {
		if !ValidHeaderName(f.Name) {
			return headerNameError(f.Name)
		}
	}
	return nil
}

// ValidHeaderName reports whether name is a non-empty RFC 7230 token. CR, LF
// and every other control byte are rejected.
func ValidHeaderName(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

func isChunked(h Header) bool {
	vv := h.Values("Transfer-Encoding")
	return len(vv) > 0 && httpguts.HeaderValuesContainsToken(vv, "chunked")
}
