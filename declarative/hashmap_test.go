package declarative_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/declarative"
)

func TestRulesHashMap_lookupByPattern(t *testing.T) {
	m := declarative.NewRulesHashMap()
	m.Add("||ads.example.com^", "||ads.example.com^", declarative.SourceRef{FilterID: 1, LineIndex: 0})
	m.Add("||other.example.com^", "||other.example.com^", declarative.SourceRef{FilterID: 1, LineIndex: 1})

	assert.Equal(t, 2, m.Len())

	hits := m.Lookup("||ads.example.com^")
	require.Len(t, hits, 1)
	assert.Equal(t, "||ads.example.com^", hits[0].Text)

	assert.Empty(t, m.Lookup("||nowhere.com^"))
}

func TestConvertRuleset_hashMapIndexesConvertedRules(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^")

	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})
	require.Len(t, res.RuleSet.Rules, 1)

	hits := res.RuleSet.HashMap.Lookup("||ads.example.com^")
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Ref.FilterID)
}
