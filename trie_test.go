package urlfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortcutTrie_collect(t *testing.T) {
	tr := newShortcutTrie()
	tr.add("ads/", 1)
	tr.add("pix.", 2)

	out := make(map[int64]struct{})
	tr.collect("example.com/ads/banner", out)

	assert.Contains(t, out, int64(1))
	assert.NotContains(t, out, int64(2))
}

func TestShortcutTrie_noMatch(t *testing.T) {
	tr := newShortcutTrie()
	tr.add("xyz1", 1)

	out := make(map[int64]struct{})
	tr.collect("example.com/abc", out)

	assert.Empty(t, out)
}
