package urlfilter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urlfilter "github.com/filterforge/urlfilter"
	"github.com/filterforge/urlfilter/filterlist"
	"github.com/filterforge/urlfilter/rules"
)

func buildNetworkEngine(t *testing.T, text string) *urlfilter.NetworkEngine {
	t.Helper()

	list := filterlist.NewString(1, text)
	storage, err := filterlist.NewRuleStorage([]filterlist.Interface{list})
	require.NoError(t, err)

	return urlfilter.NewNetworkEngine(storage)
}

func TestNetworkEngine_hostnamePattern(t *testing.T) {
	e := buildNetworkEngine(t, "||ads.example.com^$script")

	req := rules.NewRequest("https://ads.example.com/banner.js", "https://news.example/", rules.RequestTypeScript)
	matched := e.MatchAll(req)

	require.Len(t, matched, 1)
	assert.Equal(t, "||ads.example.com^$script", matched[0].Text())
}

func TestNetworkEngine_noMatchWrongType(t *testing.T) {
	e := buildNetworkEngine(t, "||ads.example.com^$script")

	req := rules.NewRequest("https://ads.example.com/banner.png", "https://news.example/", rules.RequestTypeImage)
	assert.Empty(t, e.MatchAll(req))
}

func TestNetworkEngine_shortcutSubstring(t *testing.T) {
	e := buildNetworkEngine(t, "/pagead/")

	req := rules.NewRequest("https://example.com/pagead/banner.js", "", rules.RequestTypeScript)
	matched := e.MatchAll(req)
	require.Len(t, matched, 1)
}

func TestNetworkEngine_domainTable(t *testing.T) {
	e := buildNetworkEngine(t, "/track$domain=example.com")

	matchedOK := e.MatchAll(rules.NewRequest("https://cdn.ads/track", "https://example.com/", rules.RequestTypeScript))
	require.Len(t, matchedOK, 1)

	matchedNo := e.MatchAll(rules.NewRequest("https://cdn.ads/track", "https://other.com/", rules.RequestTypeScript))
	assert.Empty(t, matchedNo)
}

func TestNetworkEngine_dedupAcrossIndexPaths(t *testing.T) {
	e := buildNetworkEngine(t, "||track.example.com^$domain=a.com")

	req := rules.NewRequest("https://track.example.com/x", "https://a.com/", rules.RequestTypeScript)
	matched := e.MatchAll(req)
	assert.Len(t, matched, 1)
}
