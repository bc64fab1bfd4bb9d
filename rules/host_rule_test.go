package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/rules"
)

func TestLooksLikeHostRule(t *testing.T) {
	assert.True(t, rules.LooksLikeHostRule("0.0.0.0 ads.example.com"))
	assert.True(t, rules.LooksLikeHostRule("127.0.0.1 localhost analytics.example.com"))
	assert.False(t, rules.LooksLikeHostRule("||ads.example.com^"))
	assert.False(t, rules.LooksLikeHostRule("example.com"))
}

func TestParseHostRule_basic(t *testing.T) {
	r, err := rules.ParseHostRule("0.0.0.0 ads.example.com tracker.example.com", 1)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", r.IP.String())
	assert.Equal(t, []string{"ads.example.com", "tracker.example.com"}, r.Hostnames)
	assert.True(t, r.Match("ads.example.com"))
	assert.True(t, r.Match("ADS.EXAMPLE.COM"))
	assert.False(t, r.Match("example.com"))
}

func TestParseHostRule_trailingComment(t *testing.T) {
	r, err := rules.ParseHostRule("0.0.0.0 ads.example.com # a comment", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"ads.example.com"}, r.Hostnames)
}

func TestParseHostRule_invalidIP(t *testing.T) {
	_, err := rules.ParseHostRule("notanip ads.example.com", 1)
	assert.ErrorIs(t, err, rules.ErrInvalidHostRule)
}

func TestParseHostRule_noHostnames(t *testing.T) {
	_, err := rules.ParseHostRule("0.0.0.0", 1)
	assert.ErrorIs(t, err, rules.ErrInvalidHostRule)
}
