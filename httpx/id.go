package httpx

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// genID returns a 16-byte hex request ID for log correlation.
func genID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	// rand failed; spread the clock across the ID instead
	t := time.Now().UnixNano()
	for i := range b {
		b[i] = byte(t >> (uint(i%8) * 8))
	}
	return hex.EncodeToString(b[:])
}
