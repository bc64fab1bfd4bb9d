package urlfilter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urlfilter "github.com/filterforge/urlfilter"
	"github.com/filterforge/urlfilter/filterlist"
)

func buildCosmeticEngine(t *testing.T, text string) *urlfilter.CosmeticEngine {
	t.Helper()

	list := filterlist.NewString(1, text)
	storage, err := filterlist.NewRuleStorage([]filterlist.Interface{list})
	require.NoError(t, err)

	return urlfilter.NewCosmeticEngine(storage)
}

func TestCosmeticEngine_allowlistCancelsBlock(t *testing.T) {
	e := buildCosmeticEngine(t, "example.com##.ad\nexample.com#@#.ad\n")

	res := e.Match("example.com", "https://example.com/", urlfilter.CosmeticOptionAll)
	assert.Empty(t, res.ElementHiding.Specific)
}

func TestCosmeticEngine_scriptletPerHostname(t *testing.T) {
	e := buildCosmeticEngine(t, `example.com#%#//scriptlet('set-constant', 'x', 'true')`)

	res := e.Match("sub.example.com", "https://sub.example.com/", urlfilter.CosmeticOptionAll)
	require.Len(t, res.ScriptletRules, 1)
	assert.Equal(t, "set-constant", res.ScriptletRules[0].ScriptletName)

	other := e.Match("other.com", "https://other.com/", urlfilter.CosmeticOptionAll)
	assert.Empty(t, other.ScriptletRules)
}

func TestCosmeticEngine_genericOptionGatesGenericRules(t *testing.T) {
	e := buildCosmeticEngine(t, "##.generic-ad\n")

	opt := urlfilter.CosmeticOptionAll &^ urlfilter.CosmeticOptionGeneric
	res := e.Match("example.com", "https://example.com/", opt)
	assert.Empty(t, res.ElementHiding.Generic)

	res = e.Match("example.com", "https://example.com/", urlfilter.CosmeticOptionAll)
	assert.Equal(t, []string{".generic-ad"}, res.ElementHiding.Generic)
}

func TestCosmeticEngine_extendedCSSBucket(t *testing.T) {
	e := buildCosmeticEngine(t, "example.com##div:has(> .ad)")

	res := e.Match("example.com", "https://example.com/", urlfilter.CosmeticOptionAll)
	assert.Empty(t, res.ElementHiding.Specific)
	assert.Equal(t, []string{"div:has(> .ad)"}, res.ElementHiding.SpecificExtCSS)
}

// TestCosmeticEngine_perDomainOptionGating is the regression for gating the
// host-specific candidate path by CosmeticOption bit the same way the
// generic path already was: a $jsinject-suppressed option must not surface
// a host-specific JS injection rule, but the host-specific element-hiding
// rule with it still eligible must come through.
func TestCosmeticEngine_perDomainOptionGating(t *testing.T) {
	e := buildCosmeticEngine(t, "example.com##.ad\nexample.com#%#//scriptlet('set-constant', 'x', 'true')\n")

	opt := urlfilter.CosmeticOptionAll &^ urlfilter.CosmeticOptionJS
	res := e.Match("example.com", "https://example.com/", opt)
	assert.Empty(t, res.ScriptletRules)
	assert.Equal(t, []string{".ad"}, res.ElementHiding.Specific)
}
