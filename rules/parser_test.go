package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/rules"
)

func TestParseRule_blankAndComments(t *testing.T) {
	r, err := rules.ParseRule("", 1)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = rules.ParseRule("   ", 1)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = rules.ParseRule("! this is a comment", 1)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = rules.ParseRule("# also a comment", 1)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParseRule_cosmeticTakesPrecedenceOverHashComment(t *testing.T) {
	r, err := rules.ParseRule("example.com##.ad-banner", 1)
	require.NoError(t, err)
	require.NotNil(t, r)

	_, ok := r.(*rules.CosmeticRule)
	assert.True(t, ok)
}

func TestParseRule_tooShort(t *testing.T) {
	_, err := rules.ParseRule("ab", 1)
	assert.ErrorIs(t, err, rules.ErrTooShort)
}

func TestParseRule_hostRule(t *testing.T) {
	r, err := rules.ParseRule("0.0.0.0 ads.example.com", 1)
	require.NoError(t, err)
	require.NotNil(t, r)

	_, ok := r.(*rules.HostRule)
	assert.True(t, ok)
}

func TestParseRule_networkRule(t *testing.T) {
	r, err := rules.ParseRule("||ads.example.com^$script", 1)
	require.NoError(t, err)
	require.NotNil(t, r)

	_, ok := r.(*rules.NetworkRule)
	assert.True(t, ok)
}

func TestParseRule_filterListIDPropagated(t *testing.T) {
	r, err := rules.ParseRule("||ads.example.com^", 42)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, 42, r.FilterListID())
}
