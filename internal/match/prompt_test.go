package match

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateKeepsShortStrings(t *testing.T) {
	assert.Equal(t, "short title", truncate("short title", titleLimit))
	assert.Equal(t, "", truncate("", titleLimit))
}

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	// Two bytes per rune, so odd cut positions land mid-rune.
	s := strings.Repeat("é", 100)
	for limit := 10; limit <= 30; limit++ {
		out := truncate(s, limit)
		assert.True(t, utf8.ValidString(out), "limit %d produced invalid UTF-8", limit)
		assert.LessOrEqual(t, len(out), limit)
		assert.True(t, strings.HasSuffix(out, "..."))
	}
}
