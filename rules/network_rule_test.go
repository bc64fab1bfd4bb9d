package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/rules"
)

func TestParseNetworkRule_basic(t *testing.T) {
	r, err := rules.ParseNetworkRule("||example.org^$third-party", 1)
	require.NoError(t, err)

	assert.False(t, r.IsAllowlist)
	assert.True(t, r.Options.Has(rules.OptionThirdParty))
	assert.Equal(t, rules.PriorityBlock, r.PriorityTier())

	host, ok := r.Pattern.IsHostnamePattern()
	require.True(t, ok)
	assert.Equal(t, "example.org", host)
}

func TestParseNetworkRule_allowlistDocument(t *testing.T) {
	r, err := rules.ParseNetworkRule("@@||example.com^$document", 1)
	require.NoError(t, err)

	assert.True(t, r.IsAllowlist)
	assert.Equal(t, rules.PriorityDocumentAllowlist, r.PriorityTier())
}

func TestParseNetworkRule_documentRequiresAllowlist(t *testing.T) {
	_, err := rules.ParseNetworkRule("||example.com^$document", 1)
	assert.Error(t, err)
}

func TestParseNetworkRule_important(t *testing.T) {
	block, err := rules.ParseNetworkRule("||ads.example^$important", 1)
	require.NoError(t, err)
	assert.Equal(t, rules.PriorityImportantBlock, block.PriorityTier())

	allow, err := rules.ParseNetworkRule("@@||ads.example^$important", 1)
	require.NoError(t, err)
	assert.Equal(t, rules.PriorityImportantAllowlist, allow.PriorityTier())
}

func TestParseNetworkRule_domainModifier(t *testing.T) {
	r, err := rules.ParseNetworkRule("/ads.js$domain=example.com|~sub.example.com", 1)
	require.NoError(t, err)

	assert.True(t, r.MatchDomains("example.com"))
	assert.True(t, r.MatchDomains("other.example.com"))
	assert.False(t, r.MatchDomains("sub.example.com"))
	assert.False(t, r.MatchDomains("unrelated.com"))
}

func TestParseNetworkRule_duplicateDomain(t *testing.T) {
	_, err := rules.ParseNetworkRule("/ads.js$domain=a.com,domain=b.com", 1)
	assert.Error(t, err)
}

func TestParseNetworkRule_unknownModifier(t *testing.T) {
	_, err := rules.ParseNetworkRule("/ads.js$bogus", 1)
	assert.ErrorIs(t, err, rules.ErrUnknownModifier)
}

func TestParseNetworkRule_requestTypes(t *testing.T) {
	r, err := rules.ParseNetworkRule("/ads.js$script,image,~media", 1)
	require.NoError(t, err)

	assert.True(t, r.MatchRequestTypes(rules.RequestTypeScript))
	assert.True(t, r.MatchRequestTypes(rules.RequestTypeImage))
	assert.False(t, r.MatchRequestTypes(rules.RequestTypeMedia))
	assert.False(t, r.MatchRequestTypes(rules.RequestTypeDocument))
}

func TestParseNetworkRule_removeparamEmptySpec(t *testing.T) {
	r, err := rules.ParseNetworkRule("||tracker.com/*$removeparam", 1)
	require.NoError(t, err)
	require.NotNil(t, r.Advanced)
	assert.Equal(t, rules.AdvancedModifierRemoveParam, r.Advanced.Kind)
	assert.False(t, r.Advanced.HasValue)
}

func TestParseNetworkRule_redirectRequiresValue(t *testing.T) {
	_, err := rules.ParseNetworkRule("||tracker.com/*$redirect", 1)
	assert.Error(t, err)
}

func TestParseNetworkRule_denyallow(t *testing.T) {
	r, err := rules.ParseNetworkRule("*$denyallow=example.com|example.org,image", 1)
	require.NoError(t, err)

	assert.True(t, r.MatchDenyallow("example.com"))
	assert.True(t, r.MatchDenyallow("sub.example.org"))
	assert.False(t, r.MatchDenyallow("other.net"))
}

func TestParseNetworkRule_thirdPartyFirstPartyNegation(t *testing.T) {
	r, err := rules.ParseNetworkRule("/ads.js$~third-party", 1)
	require.NoError(t, err)

	assert.True(t, r.MatchThirdParty(false))
	assert.False(t, r.MatchThirdParty(true))
}

func TestIsTooGenericShortcut(t *testing.T) {
	assert.True(t, rules.IsTooGenericShortcut("http"))
	assert.False(t, rules.IsTooGenericShortcut("trackers"))
}
