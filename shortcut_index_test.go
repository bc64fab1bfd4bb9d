package urlfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortcutIndex_matchFindsInsertedRule(t *testing.T) {
	si := newShortcutIndex()
	si.add("banner", 7)

	out := make(map[int64]struct{})
	si.match("https://example.com/banner.js", out)

	assert.Contains(t, out, int64(7))
}

func TestShortcutIndex_noFalseMatch(t *testing.T) {
	si := newShortcutIndex()
	si.add("banner", 7)

	out := make(map[int64]struct{})
	si.match("https://example.com/harmless.js", out)

	assert.Empty(t, out)
}

func TestShortcutIndex_leastFrequentGramSpreadsLoad(t *testing.T) {
	si := newShortcutIndex()
	si.add("trackers", 1)
	si.add("tracking", 2)

	// Both share the "track" prefix; the second insertion should have been
	// steered to a different 5-gram once "track" had been used once.
	assert.NotContains(t, si.buckets[hashGram("track")], int64(2))
}
