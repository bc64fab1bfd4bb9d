package declarative_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/declarative"
)

func TestSourceMap_resolveSource(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^")

	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})
	require.Len(t, res.RuleSet.Rules, 1)

	ruleID := res.RuleSet.Rules[0].ID
	texts, err := res.RuleSet.SourceMap.ResolveSource(ruleID, func(filterID, lineIndex int) (string, error) {
		assert.Equal(t, 1, filterID)
		assert.Equal(t, 0, lineIndex)

		return "||ads.example.com^", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"||ads.example.com^"}, texts)
}

func TestSourceMap_resolveSourceUnavailable(t *testing.T) {
	m := declarative.SourceMap{1: {{FilterID: 9, LineIndex: 3}}}

	_, err := m.ResolveSource(1, func(int, int) (string, error) {
		return "", assert.AnError
	})
	require.Error(t, err)

	var unavailable *declarative.UnavailableFilterSourceError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 9, unavailable.FilterID)
}
