package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, ok := ParseMethod(m.String())
		assert.True(t, ok, m.String())
		assert.Equal(t, m, got)
		assert.True(t, m.Valid())
	}
	for _, s := range []string{"get", "PATCH", "", "UNKNOWN"} {
		_, ok := ParseMethod(s)
		assert.False(t, ok, s)
	}
	assert.False(t, Method(0).Valid())
	assert.Equal(t, "UNKNOWN", Method(42).String())
}

func TestAllowHeader(t *testing.T) {
	assert.Equal(t, "GET, POST, HEAD, PUT, DELETE, OPTIONS, TRACE, CONNECT", AllowHeader())
}
