package httpx

import "dqx0.com/go/httpwire/httpx/internal/http1"

// Header is an ordered list of header fields with case-insensitive lookup.
// Repeated names are kept in the order they were added.
type Header = http1.Header

// Field is a single header name/value pair.
type Field = http1.Field
