package urlfilter_test

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urlfilter "github.com/filterforge/urlfilter"
	"github.com/filterforge/urlfilter/rules"
)

func mustParse(t *testing.T, text string) *rules.NetworkRule {
	t.Helper()

	r, err := rules.ParseNetworkRule(text, 1)
	require.NoError(t, err)

	return r
}

// assertRuleSetEqual compares two rule slices field-by-field, including the
// unexported bookkeeping (raw text, firstParty) that distinguishes two rules
// parsed from differently-ordered but semantically identical sources.
func assertRuleSetEqual(t *testing.T, want, got []*rules.NetworkRule) (ok bool) {
	t.Helper()

	exportAll := cmp.Exporter(func(reflect.Type) (export bool) { return true })

	diff := cmp.Diff(want, got, exportAll)
	if diff == "" {
		return true
	}

	return assert.Failf(t, "rule sets not equal", "diff: %s", diff)
}

func TestMatchingResult_basicBlock(t *testing.T) {
	r := mustParse(t, "||example.org^$third-party")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{r}, nil)
	require.NotNil(t, res.GetBasicResult())
	assert.False(t, res.GetBasicResult().IsAllowlist)
}

func TestMatchingResult_documentAllowlistWins(t *testing.T) {
	block := mustParse(t, "||example.com^")
	block.StorageIndex = 0
	allow := mustParse(t, "@@||example.com^$document")
	allow.StorageIndex = 1

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{block, allow}, []*rules.NetworkRule{allow})

	require.NotNil(t, res.GetBasicResult())
	assert.True(t, res.GetBasicResult().IsAllowlist)
	assert.Equal(t, rules.PriorityDocumentAllowlist, res.GetBasicResult().PriorityTier())
	require.NotNil(t, res.DocumentRule())
}

func TestMatchingResult_removeparamGrouping(t *testing.T) {
	a := mustParse(t, "||tracker.com/*$removeparam=uid")
	b := mustParse(t, "||tracker.com/*$removeparam=ref")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{a, b}, nil)
	assert.Len(t, res.RemoveParamRules(), 2)
}

func TestMatchingResult_removeparamBlanketAllowlistCancelsAll(t *testing.T) {
	block := mustParse(t, "||tracker.com/*$removeparam=uid")
	allow := mustParse(t, "@@||tracker.com/*$removeparam")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{block, allow}, nil)
	assert.Empty(t, res.RemoveParamRules())
}

func TestMatchingResult_removeparamValueSpecificAllowlist(t *testing.T) {
	uid := mustParse(t, "||tracker.com/*$removeparam=uid")
	ref := mustParse(t, "||tracker.com/*$removeparam=ref")
	allowUID := mustParse(t, "@@||tracker.com/*$removeparam=uid")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{uid, ref, allowUID}, nil)
	require.Len(t, res.RemoveParamRules(), 1)
	assert.Equal(t, "ref", res.RemoveParamRules()[0].Advanced.Value)
}

func TestMatchingResult_badFilterCancelsMatchingRule(t *testing.T) {
	block := mustParse(t, "||ads.example.com^$script")
	bad := mustParse(t, "||ads.example.com^$script,badfilter")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{block, bad}, nil)
	assert.Nil(t, res.GetBasicResult())
}

func TestMatchingResult_redirectOnlyWhenBlocking(t *testing.T) {
	block := mustParse(t, "||ads.example.com^$redirect=noopjs")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{block}, nil)
	require.NotNil(t, res.RedirectRule())
}

func TestMatchingResult_noRedirectWhenAllowlisted(t *testing.T) {
	allow := mustParse(t, "@@||ads.example.com^")

	res := urlfilter.NewMatchingResult([]*rules.NetworkRule{allow}, nil)
	assert.Nil(t, res.RedirectRule())
}

func TestMatchingResult_cosmeticOptionClearedByElemhideAllowlist(t *testing.T) {
	allow := mustParse(t, "@@||example.com^$elemhide")

	res := urlfilter.NewMatchingResult(nil, []*rules.NetworkRule{allow})
	opt := res.GetCosmeticOption()
	assert.False(t, opt.Has(urlfilter.CosmeticOptionElementHiding))
	assert.True(t, opt.Has(urlfilter.CosmeticOptionJS))
}

func TestMatchingResult_cosmeticOptionAllByDefault(t *testing.T) {
	res := urlfilter.NewMatchingResult(nil, nil)
	assert.Equal(t, urlfilter.CosmeticOptionAll, res.GetCosmeticOption())
}

// TestMatchingResult_removeparamRulesIndependentOfInputOrder parses the same
// two $removeparam rules into two independently-built NetworkRule sets and
// checks that the combinator's output is structurally identical regardless
// of which slice position each rule started in, down to the unexported
// bookkeeping fields a shallow require.ElementsMatch would miss.
func TestMatchingResult_removeparamRulesIndependentOfInputOrder(t *testing.T) {
	uid1, ref1 := mustParse(t, "||tracker.com/*$removeparam=uid"), mustParse(t, "||tracker.com/*$removeparam=ref")
	ref2, uid2 := mustParse(t, "||tracker.com/*$removeparam=ref"), mustParse(t, "||tracker.com/*$removeparam=uid")

	forward := urlfilter.NewMatchingResult([]*rules.NetworkRule{uid1, ref1}, nil).RemoveParamRules()
	reversed := urlfilter.NewMatchingResult([]*rules.NetworkRule{ref2, uid2}, nil).RemoveParamRules()

	require.Len(t, forward, 2)
	require.Len(t, reversed, 2)

	sortByValue := func(rs []*rules.NetworkRule) []*rules.NetworkRule {
		out := append([]*rules.NetworkRule(nil), rs...)
		if out[0].Advanced.Value > out[1].Advanced.Value {
			out[0], out[1] = out[1], out[0]
		}
		return out
	}

	assertRuleSetEqual(t, sortByValue(forward), sortByValue(reversed))
}
