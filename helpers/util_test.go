package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 200))
	assert.Equal(t, "", Truncate("", 200))

	long := strings.Repeat("x", 500)
	got := Truncate(long, 200)
	assert.Len(t, got, 200)

	// Multi-byte input is cut on rune boundaries
	got = Truncate(strings.Repeat("₹", 10), 3)
	assert.Equal(t, "₹₹₹", got)
}
