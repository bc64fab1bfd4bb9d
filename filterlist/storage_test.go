package filterlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/filterlist"
	"github.com/filterforge/urlfilter/rules"
)

const testList = `! a comment
||ads.example.com^$script
example.com##.banner
0.0.0.0 blocked.example.com
! another comment
`

func TestNewRuleStorage_countsAndRetrieve(t *testing.T) {
	list := filterlist.NewString(1, testList)

	s, err := filterlist.NewRuleStorage([]filterlist.Interface{list})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())

	r, ok := s.Retrieve(0)
	require.True(t, ok)
	_, isNetwork := r.(*rules.NetworkRule)
	assert.True(t, isNetwork)

	_, ok = s.Retrieve(99)
	assert.False(t, ok)
}

func TestNewRuleStorage_duplicateID(t *testing.T) {
	a := filterlist.NewString(1, "||a.com^")
	b := filterlist.NewString(1, "||b.com^")

	_, err := filterlist.NewRuleStorage([]filterlist.Interface{a, b})
	assert.ErrorIs(t, err, filterlist.ErrDuplicateFilterListID)
}

func TestRuleStorage_scannerMask(t *testing.T) {
	list := filterlist.NewString(1, testList)
	s, err := filterlist.NewRuleStorage([]filterlist.Interface{list})
	require.NoError(t, err)

	sc := s.NewRuleStorageScanner(filterlist.CosmeticRules)

	var count int
	for sc.Scan() {
		rule, _ := sc.Rule()
		_, ok := rule.(*rules.CosmeticRule)
		assert.True(t, ok)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestRuleStorage_retrieveSourceText(t *testing.T) {
	list := filterlist.NewString(1, testList)
	s, err := filterlist.NewRuleStorage([]filterlist.Interface{list})
	require.NoError(t, err)

	text, err := s.RetrieveSourceText(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "||ads.example.com^$script", text)

	_, err = s.RetrieveSourceText(42, 0)
	assert.ErrorIs(t, err, filterlist.ErrUnknownFilterListID)
}

func TestBytesRuleList_ignoreCosmetic(t *testing.T) {
	list := filterlist.NewBytes(&filterlist.BytesConfig{
		ID:             1,
		RulesText:      []byte(testList),
		IgnoreCosmetic: true,
	})

	s, err := filterlist.NewRuleStorage([]filterlist.Interface{list})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
}

func TestScanner_collectsSyntaxErrors(t *testing.T) {
	list := filterlist.NewString(1, "||ok.example.com^\n/ads.js$bogus\n")
	scanner := list.NewScanner()

	var count int
	for scanner.Scan() {
		count++
	}

	assert.Equal(t, 1, count)
	require.Len(t, scanner.Errors(), 1)
	assert.Equal(t, 1, scanner.Errors()[0].LineIndex)
}
