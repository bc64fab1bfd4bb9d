package urlfilter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urlfilter "github.com/filterforge/urlfilter"
	"github.com/filterforge/urlfilter/declarative"
	"github.com/filterforge/urlfilter/rules"
)

func TestEngine_unstartedReturnsEmptyResults(t *testing.T) {
	e := urlfilter.NewEngine()

	res := e.MatchRequest(rules.NewRequest("https://ads.example.org/x.js", "https://other.com/", rules.RequestTypeScript))
	assert.Nil(t, res.GetBasicResult())
	assert.Equal(t, 0, e.GetRulesCount())
}

func TestEngine_scenario1_thirdPartyBlock(t *testing.T) {
	e := urlfilter.NewEngine()
	cfg := urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{FilterID: 1, Content: "||example.org^$third-party"}},
	}
	require.NoError(t, e.Start(context.Background(), cfg))

	req := rules.NewRequest("https://ads.example.org/x.js", "https://other.com/", rules.RequestTypeScript)
	res := e.MatchRequest(req)

	require.NotNil(t, res.GetBasicResult())
	assert.False(t, res.GetBasicResult().IsAllowlist)
}

func TestEngine_scenario2_documentAllowlist(t *testing.T) {
	e := urlfilter.NewEngine()
	cfg := urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{
			FilterID: 1,
			Content:  "||example.com^\n@@||example.com^$document",
		}},
	}
	require.NoError(t, e.Start(context.Background(), cfg))

	req := rules.NewRequest("https://example.com/", "", rules.RequestTypeDocument)
	res := e.MatchRequest(req)

	require.NotNil(t, res.GetBasicResult())
	assert.True(t, res.GetBasicResult().IsAllowlist)
	assert.Equal(t, rules.PriorityDocumentAllowlist, res.GetBasicResult().PriorityTier())
}

func TestEngine_resultCacheIsTransparent(t *testing.T) {
	e := urlfilter.NewEngine()
	cfg := urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{FilterID: 1, Content: "||ads.example.com^"}},
	}
	require.NoError(t, e.Start(context.Background(), cfg))

	req := rules.NewRequest("https://ads.example.com/x.js", "", rules.RequestTypeScript)

	first := e.MatchRequest(req)
	second := e.MatchRequest(req)

	require.NotNil(t, first.GetBasicResult())
	require.NotNil(t, second.GetBasicResult())
	assert.Equal(t, first.GetBasicResult().Text(), second.GetBasicResult().Text())
}

func TestEngine_configureInvalidatesCacheAndSwapsSnapshot(t *testing.T) {
	e := urlfilter.NewEngine()
	require.NoError(t, e.Start(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{FilterID: 1, Content: "||ads.example.com^"}},
	}))

	req := rules.NewRequest("https://ads.example.com/x.js", "", rules.RequestTypeScript)
	require.NotNil(t, e.MatchRequest(req).GetBasicResult())

	require.NoError(t, e.Configure(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{FilterID: 1, Content: "@@||ads.example.com^"}},
	}))

	res := e.MatchRequest(req)
	require.NotNil(t, res.GetBasicResult())
	assert.True(t, res.GetBasicResult().IsAllowlist)
}

func TestEngine_duplicateFilterIDIsFatal(t *testing.T) {
	e := urlfilter.NewEngine()
	err := e.Start(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{
			{FilterID: 1, Content: "||a.com^"},
			{FilterID: 1, Content: "||b.com^"},
		},
	})
	assert.Error(t, err)
}

func TestEngine_siteAllowlistBypassesBlock(t *testing.T) {
	e := urlfilter.NewEngine()
	require.NoError(t, e.Start(context.Background(), urlfilter.Config{
		Filters:          []urlfilter.FilterConfig{{FilterID: 1, Content: "||example.com^"}},
		AllowlistEnabled: true,
		AllowlistRules:   []string{"example.com"},
	}))

	req := rules.NewRequest("https://example.com/", "", rules.RequestTypeDocument)
	res := e.MatchRequest(req)
	assert.Nil(t, res.GetBasicResult())
}

func TestEngine_invertedAllowlistBlocksEverythingElse(t *testing.T) {
	e := urlfilter.NewEngine()
	require.NoError(t, e.Start(context.Background(), urlfilter.Config{
		AllowlistEnabled:  true,
		AllowlistInverted: true,
		AllowlistRules:    []string{"good.com"},
	}))

	blocked := e.MatchRequest(rules.NewRequest("https://bad.com/", "", rules.RequestTypeDocument))
	require.NotNil(t, blocked.GetBasicResult())
	assert.False(t, blocked.GetBasicResult().IsAllowlist)

	allowed := e.MatchRequest(rules.NewRequest("https://good.com/", "", rules.RequestTypeDocument))
	assert.Nil(t, allowed.GetBasicResult())
}

func TestEngine_matchFrame(t *testing.T) {
	e := urlfilter.NewEngine()
	require.NoError(t, e.Start(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{FilterID: 1, Content: "||ads.example.com^"}},
	}))

	rule := e.MatchFrame("https://ads.example.com/")
	require.NotNil(t, rule)
	assert.False(t, rule.IsAllowlist)
}

func TestEngine_cosmeticResultScenario4(t *testing.T) {
	e := urlfilter.NewEngine()
	require.NoError(t, e.Start(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{
			FilterID: 1,
			Content:  "example.com##.ad\nexample.com#@#.ad",
		}},
	}))

	res := e.GetCosmeticResult("example.com", "https://example.com/", urlfilter.CosmeticOptionAll)
	assert.Empty(t, res.ElementHiding.Specific)
}

func TestEngine_buildErrorsCollectedNotFatal(t *testing.T) {
	e := urlfilter.NewEngine()
	err := e.Start(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{
			FilterID: 1,
			Content:  "||good.com^\n||bad.com$unknownmodifierxyz",
		}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.LastBuildErrors())
	assert.Equal(t, 1, e.GetRulesCount())
}

func TestEngine_convertToDeclarativeLowersCurrentSnapshot(t *testing.T) {
	e := urlfilter.NewEngine()
	require.NoError(t, e.Start(context.Background(), urlfilter.Config{
		Filters: []urlfilter.FilterConfig{{
			FilterID: 1,
			Content:  "||ads.example.com^\n@@||example.com^$document",
		}},
	}))

	res := e.ConvertToDeclarative(declarative.Limits{})
	require.Empty(t, res.Errors)
	require.Len(t, res.RuleSet.Rules, 2)

	var sawBlock, sawAllowAll bool
	for _, r := range res.RuleSet.Rules {
		switch r.Action.Type {
		case declarative.ActionBlock:
			sawBlock = true
		case declarative.ActionAllowAllRequests:
			sawAllowAll = true
		}
	}
	assert.True(t, sawBlock)
	assert.True(t, sawAllowAll)
}

func TestEngine_convertToDeclarativeOnUnstartedEngineIsEmpty(t *testing.T) {
	e := urlfilter.NewEngine()

	res := e.ConvertToDeclarative(declarative.Limits{})
	require.NotNil(t, res.RuleSet)
	assert.Empty(t, res.RuleSet.Rules)
	assert.NotEmpty(t, res.RuleSet.ID)
}
