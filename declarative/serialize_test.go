package declarative_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/declarative"
)

func TestMarshal_roundTripsDeclarativeRules(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^\n@@||example.com^$document")
	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})
	require.Empty(t, res.Errors)

	data, err := declarative.MarshalJSON(res.RuleSet, res.BadFilterRules)
	require.NoError(t, err)

	texts := map[[2]int]string{}
	for _, e := range entries {
		texts[[2]int{e.FilterID, e.LineIndex}] = e.Rule.Text()
	}
	lookup := func(filterID, lineIndex int) (string, error) {
		text, ok := texts[[2]int{filterID, lineIndex}]
		if !ok {
			return "", fmt.Errorf("no rule at filter %d line %d", filterID, lineIndex)
		}
		return text, nil
	}

	rs, badFilterTexts, err := declarative.UnmarshalJSON(data, lookup)
	require.NoError(t, err)
	assert.Empty(t, badFilterTexts)
	assert.Equal(t, "rs1", rs.ID)
	assert.Equal(t, res.RuleSet.RulesCount, rs.RulesCount)
	assert.Equal(t, res.RuleSet.Rules, rs.Rules)
	assert.Equal(t, map[int][]declarative.SourceRef(res.RuleSet.SourceMap), map[int][]declarative.SourceRef(rs.SourceMap))
}

func TestMarshal_includesRulesHashMapSegment(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^$script")
	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})
	require.Len(t, res.RuleSet.Rules, 1)

	blob := declarative.Marshal(res.RuleSet, nil)
	require.NotEmpty(t, blob.RulesHashMap)
	assert.Len(t, blob.RulesHashMap[0].Refs, 1)

	data, err := json.Marshal(blob)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rulesHashMap"`)
}

func TestUnmarshal_hashMapSupportsCrossRulesetCancelAfterRoundTrip(t *testing.T) {
	staticEntries := entriesFromText(t, 1, "||ads.example.com^$script")
	staticRes := declarative.ConvertRuleset("static", staticEntries, declarative.Limits{})
	require.Len(t, staticRes.RuleSet.Rules, 1)

	ruleText := staticEntries[0].Rule.Text()
	lookup := func(filterID, lineIndex int) (string, error) {
		if filterID == staticEntries[0].FilterID && lineIndex == staticEntries[0].LineIndex {
			return ruleText, nil
		}
		return "", fmt.Errorf("no rule at filter %d line %d", filterID, lineIndex)
	}

	data, err := declarative.MarshalJSON(staticRes.RuleSet, nil)
	require.NoError(t, err)

	loaded, _, err := declarative.UnmarshalJSON(data, lookup)
	require.NoError(t, err)

	dynamicEntries := entriesFromText(t, 2, "||ads.example.com^$script,badfilter")
	dynamicRes := declarative.ConvertRuleset("dynamic", dynamicEntries, declarative.Limits{})
	require.Len(t, dynamicRes.BadFilterRules, 1)

	cancel := declarative.CancelAcrossRulesets(dynamicRes.BadFilterRules, []*declarative.RuleSet{loaded})
	require.Len(t, cancel, 1)
	assert.Equal(t, "static", cancel[0].RuleSetID)
	assert.Equal(t, staticRes.RuleSet.Rules[0].ID, cancel[0].DeclarativeRuleID)
}

func TestUnmarshal_lookupErrorWrapsUnavailableFilterSource(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^")
	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})

	data, err := declarative.MarshalJSON(res.RuleSet, nil)
	require.NoError(t, err)

	lookup := func(int, int) (string, error) { return "", fmt.Errorf("storage gone") }

	_, _, err = declarative.UnmarshalJSON(data, lookup)
	require.Error(t, err)

	var unavailable *declarative.UnavailableFilterSourceError
	require.ErrorAs(t, err, &unavailable)
}
