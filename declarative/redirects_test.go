package declarative_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filterforge/urlfilter/declarative"
)

func TestRedirectExtensionPath(t *testing.T) {
	path, ok := declarative.RedirectExtensionPath("noopjs")
	assert.True(t, ok)
	assert.Equal(t, "/resources/noop.js", path)

	_, ok = declarative.RedirectExtensionPath("does-not-exist")
	assert.False(t, ok)
}

func TestConvertRuleset_redirectModifierUsesCatalog(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^$redirect=noopjs")

	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})
	require.Len(t, res.RuleSet.Rules, 1)
	require.NotNil(t, res.RuleSet.Rules[0].Action.Redirect)
	assert.Equal(t, "/resources/noop.js", res.RuleSet.Rules[0].Action.Redirect.ExtensionPath)
}

func TestConvertRuleset_unknownRedirectResourceIsSemanticError(t *testing.T) {
	entries := entriesFromText(t, 1, "||ads.example.com^$redirect=nonexistent-resource")

	res := declarative.ConvertRuleset("rs1", entries, declarative.Limits{})
	assert.Empty(t, res.RuleSet.Rules)
	require.Len(t, res.Errors, 1)

	var semErr *declarative.SemanticError
	require.ErrorAs(t, res.Errors[0], &semErr)
}
