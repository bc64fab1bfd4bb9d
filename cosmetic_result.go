package urlfilter

import "github.com/filterforge/urlfilter/rules"

// ElementHidingBundle partitions surviving element-hiding selectors into
// spec's generic/specific crossed with plain/ExtendedCSS quadrants: a
// generic rule carries no host scoping (applies everywhere, subject to
// restricted domains), a specific one is host-scoped.
type ElementHidingBundle struct {
	Generic        []string
	Specific       []string
	GenericExtCSS  []string
	SpecificExtCSS []string
}

// CSSInjectionBundle is ElementHidingBundle's counterpart for $$/$@$ CSS
// injection rules, which carry a full rule (selector plus declaration)
// rather than a bare selector string.
type CSSInjectionBundle struct {
	Generic        []*rules.CosmeticRule
	Specific       []*rules.CosmeticRule
	GenericExtCSS  []*rules.CosmeticRule
	SpecificExtCSS []*rules.CosmeticRule
}

// CosmeticResult is the outcome of a cosmetic-rule lookup for one hostname,
// bucketed per §4.5 step 5: generic/specific crossed with plain/ExtendedCSS
// for the two selector-bearing kinds, plus the non-selector rule kinds.
type CosmeticResult struct {
	ElementHiding ElementHidingBundle
	CSSInjection  CSSInjectionBundle

	ScriptletRules []*rules.CosmeticRule
	ScriptRules    []*rules.CosmeticRule

	HTMLRules []*rules.CosmeticRule
}

func newCosmeticResult() (res *CosmeticResult) { return &CosmeticResult{} }

// add buckets a surviving (non-cancelled) cosmetic rule into the result,
// per §4.5 step 5.
func (res *CosmeticResult) add(r *rules.CosmeticRule) {
	switch r.Kind {
	case rules.ElementHiding:
		switch {
		case r.IsGeneric() && r.IsExtendedCSS:
			res.ElementHiding.GenericExtCSS = append(res.ElementHiding.GenericExtCSS, r.Selector)
		case r.IsGeneric():
			res.ElementHiding.Generic = append(res.ElementHiding.Generic, r.Selector)
		case r.IsExtendedCSS:
			res.ElementHiding.SpecificExtCSS = append(res.ElementHiding.SpecificExtCSS, r.Selector)
		default:
			res.ElementHiding.Specific = append(res.ElementHiding.Specific, r.Selector)
		}
	case rules.CssInjection:
		switch {
		case r.IsGeneric() && r.IsExtendedCSS:
			res.CSSInjection.GenericExtCSS = append(res.CSSInjection.GenericExtCSS, r)
		case r.IsGeneric():
			res.CSSInjection.Generic = append(res.CSSInjection.Generic, r)
		case r.IsExtendedCSS:
			res.CSSInjection.SpecificExtCSS = append(res.CSSInjection.SpecificExtCSS, r)
		default:
			res.CSSInjection.Specific = append(res.CSSInjection.Specific, r)
		}
	case rules.ScriptletInjection:
		res.ScriptletRules = append(res.ScriptletRules, r)
	case rules.JsInjection:
		res.ScriptRules = append(res.ScriptRules, r)
	case rules.HtmlFiltering:
		res.HTMLRules = append(res.HTMLRules, r)
	}
}
