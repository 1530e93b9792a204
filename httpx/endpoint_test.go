package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want URLEndpoint
	}{
		{"http://example.com", URLEndpoint{"http", "example.com", 80, "/"}},
		{"https://example.com:8443/a/b?q=1", URLEndpoint{"https", "example.com", 8443, "/a/b?q=1"}},
		{"example.com/x", URLEndpoint{"http", "example.com", 80, "/x"}},
		{"HTTPS://Example.COM/", URLEndpoint{"https", "example.com", 443, "/"}},
		{"http://example.com?x=1", URLEndpoint{"http", "example.com", 80, "/?x=1"}},
		{"http://example.com/p#frag", URLEndpoint{"http", "example.com", 80, "/p"}},
		{"http://example.com#frag", URLEndpoint{"http", "example.com", 80, "/"}},
		{"http://[::1]:8080/v", URLEndpoint{"http", "[::1]", 8080, "/v"}},
		{"https://[2001:db8::1]/", URLEndpoint{"https", "[2001:db8::1]", 443, "/"}},
		{"http://127.0.0.1:80/", URLEndpoint{"http", "127.0.0.1", 80, "/"}},
		{"http://bücher.example/", URLEndpoint{"http", "xn--bcher-kva.example", 80, "/"}},
		{"http://my_host.local/", URLEndpoint{"http", "my_host.local", 80, "/"}},
		{"http://My_Host.local:8080/_x", URLEndpoint{"http", "my_host.local", 8080, "/_x"}},
		{"http://example.com/a%20b", URLEndpoint{"http", "example.com", 80, "/a%20b"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURL_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"http://",
		"http:///path",
		"http://:80/",
		"http://host:0/",
		"http://host:70000/",
		"http://[::1/",
		"http://[zz]/",
		"http://[::1]x/",
		"http://example.com/a b",
		"http://example.com/a\tb",
		"http://example.com/a\r\nX-Injected: 1",
		"http://example.com/\x00",
		"http://example.com/\x7f",
		"http://example.com?q=a b",
		"http://exa mple.com/",
		"http://user@example.com/",
		"http://exa!mple.com/",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseURL(raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestURLEndpoint_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"http://example.com/",
		"https://example.com:8443/a?b=c",
		"http://[::1]:9000/x",
		"https://xn--bcher-kva.example/",
	} {
		e, err := ParseURL(raw)
		require.NoError(t, err)
		again, err := ParseURL(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, again)
		assert.Equal(t, raw, e.String())
	}
}

func TestURLEndpoint_Addresses(t *testing.T) {
	e, err := ParseURL("http://[::1]:8080/")
	require.NoError(t, err)
	assert.Equal(t, "[::1]:8080", e.Addr())
	assert.Equal(t, "[::1]:8080", e.HostHeader())
	assert.Equal(t, "::1", e.Hostname())
	assert.False(t, e.Secure())

	e, err = ParseURL("https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "example.com:443", e.Addr())
	assert.Equal(t, "example.com", e.HostHeader())
	assert.True(t, e.Secure())
}

func TestURLEndpoint_Resolve(t *testing.T) {
	base, err := ParseURL("http://a.example/x/y?q=1")
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want string
	}{
		{"/new", "http://a.example/new"},
		{"z", "http://a.example/x/z"},
		{"../up", "http://a.example/up"},
		{"?p=2", "http://a.example/x/y?p=2"},
		{"//b.example:81/p", "http://b.example:81/p"},
		{"https://c.example/", "https://c.example/"},
		{" HTTP://d.example/d ", "http://d.example/d"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := base.Resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err = base.Resolve("ftp://files.example/")
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = base.Resolve("")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
