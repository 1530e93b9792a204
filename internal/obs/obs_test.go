package obs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New("debug", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	l, err = New("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(0))

	_, err = New("loud", false)
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	assert.Equal(t, NopMeter{}, OrNopMeter(nil))
}

func TestTally(t *testing.T) {
	var m Tally
	m.Counter("requests", 1, Label{"status", "200"}, Label{"method", "GET"})
	m.Counter("requests", 2, Label{"method", "GET"}, Label{"status", "200"})
	m.Histogram("latency_ms", 12)

	assert.Equal(t, 3.0, m.Get("requests{method=GET,status=200}"))
	assert.Equal(t, 1.0, m.Get(Key("latency_ms_count")))
	assert.Len(t, m.Snapshot(), 2)
}
