package urlfilter

import (
	"github.com/filterforge/urlfilter/rules"
)

// CosmeticOption is a bitset describing which categories of cosmetic rule a
// request is eligible for, derived from the request's basic-rule flags per
// §4.4's last paragraph.
type CosmeticOption uint8

// Cosmetic option bits.
const (
	CosmeticOptionElementHiding CosmeticOption = 1 << iota
	CosmeticOptionCSS
	CosmeticOptionJS
	CosmeticOptionHTML
	CosmeticOptionGeneric
	CosmeticOptionSpecific

	CosmeticOptionAll = CosmeticOptionElementHiding | CosmeticOptionCSS | CosmeticOptionJS |
		CosmeticOptionHTML | CosmeticOptionGeneric | CosmeticOptionSpecific
)

// Has reports whether every bit in other is set in o.
func (o CosmeticOption) Has(other CosmeticOption) (ok bool) { return o&other == other }

// MatchingResult is the outcome of matching a Request against an engine
// snapshot, per §4.4.
type MatchingResult struct {
	basicRule    *rules.NetworkRule
	documentRule *rules.NetworkRule

	cspRules          []*rules.NetworkRule
	cookieRules       []*rules.NetworkRule
	removeParamRules  []*rules.NetworkRule
	removeHeaderRules []*rules.NetworkRule
	replaceRules      []*rules.NetworkRule
	redirectRule      *rules.NetworkRule
	stealthRules      []*rules.NetworkRule
}

// NewMatchingResult classifies requestRules (matched against the request
// URL) and sourceRules (matched against the source/initiator URL) into the
// slots described by §4.4 and returns the combined result.
func NewMatchingResult(requestRules, sourceRules []*rules.NetworkRule) (res *MatchingResult) {
	requestRules = removeBadFiltered(requestRules)
	sourceRules = removeBadFiltered(sourceRules)

	res = &MatchingResult{}

	res.basicRule = selectBasicRule(requestRules)
	res.documentRule = selectDocumentRule(sourceRules)

	res.classifyAggregates(requestRules)
	res.resolveRedirect(requestRules)

	return res
}

// removeBadFiltered drops every rule in set that some $badfilter rule also
// in set negates, and drops the $badfilter rules themselves — neither ever
// surfaces in a MatchingResult, per §4.4 step 5.
func removeBadFiltered(set []*rules.NetworkRule) (out []*rules.NetworkRule) {
	var badFilters []*rules.NetworkRule
	for _, r := range set {
		if r.Options.Has(rules.OptionBadFilter) {
			badFilters = append(badFilters, r)
		}
	}

	if len(badFilters) == 0 {
		return set
	}

	out = make([]*rules.NetworkRule, 0, len(set))
	for _, r := range set {
		if r.Options.Has(rules.OptionBadFilter) {
			continue
		}

		negated := false
		for _, b := range badFilters {
			if b.Negates(r) {
				negated = true

				break
			}
		}

		if !negated {
			out = append(out, r)
		}
	}

	return out
}

// selectBasicRule picks the highest-priority block/allowlist rule, tie-
// broken by longest pattern then highest StorageIndex, per §4.4 step 2 and
// the corresponding design-notes Open Question decision.
func selectBasicRule(set []*rules.NetworkRule) (best *rules.NetworkRule) {
	for _, r := range set {
		if r.Advanced != nil {
			switch r.Advanced.Kind {
			case rules.AdvancedModifierCSP, rules.AdvancedModifierCookie,
				rules.AdvancedModifierRemoveParam, rules.AdvancedModifierRemoveHeader,
				rules.AdvancedModifierReplace, rules.AdvancedModifierRedirectRule:
				// These fill their own slots; a $redirect-rule rule only
				// applies alongside another blocking rule.
				continue
			}
		}

		if best == nil || isHigherPriority(r, best) {
			best = r
		}
	}

	return best
}

func isHigherPriority(r, than *rules.NetworkRule) (ok bool) {
	if r.PriorityTier() != than.PriorityTier() {
		return r.PriorityTier() > than.PriorityTier()
	}

	rLen, thanLen := len(r.Pattern.Text()), len(than.Pattern.Text())
	if rLen != thanLen {
		return rLen > thanLen
	}

	return r.StorageIndex > than.StorageIndex
}

// documentScopeOptions are the flag modifiers that make a source-URL match
// surface as the document_rule, per §4.4 step 3.
const documentScopeOptions = rules.OptionDocument | rules.OptionElemhide | rules.OptionJsinject |
	rules.OptionUrlblock | rules.OptionGenerichide | rules.OptionSpecifichide | rules.OptionContent

func selectDocumentRule(sourceRules []*rules.NetworkRule) (best *rules.NetworkRule) {
	for _, r := range sourceRules {
		if !r.IsAllowlist {
			continue
		}

		if r.Options&documentScopeOptions == 0 {
			continue
		}

		if best == nil || isHigherPriority(r, best) {
			best = r
		}
	}

	return best
}

// classifyAggregates fills the csp/cookie/removeparam/removeheader/replace/
// stealth slots, applying family-scoped allowlist cancellation per §4.4
// step 4.
func (res *MatchingResult) classifyAggregates(set []*rules.NetworkRule) {
	res.cspRules = filterFamily(set, rules.AdvancedModifierCSP)
	res.cookieRules = filterFamily(set, rules.AdvancedModifierCookie)
	res.removeParamRules = filterFamily(set, rules.AdvancedModifierRemoveParam)
	res.removeHeaderRules = filterFamily(set, rules.AdvancedModifierRemoveHeader)
	res.replaceRules = filterFamily(set, rules.AdvancedModifierReplace)

	for _, r := range set {
		if r.Options.Has(rules.OptionStealth) {
			res.stealthRules = append(res.stealthRules, r)
		}
	}
}

// filterFamily returns every non-cancelled rule of the given advanced-
// modifier kind: a blanket allowlist (no value) cancels every block rule in
// the family, and a valued allowlist cancels only block rules with the
// identical value.
func filterFamily(set []*rules.NetworkRule, kind rules.AdvancedModifierKind) (out []*rules.NetworkRule) {
	var blanketAllow bool
	valueAllows := make(map[string]struct{})

	for _, r := range set {
		if r.Advanced == nil || r.Advanced.Kind != kind || !r.IsAllowlist {
			continue
		}

		if !r.Advanced.HasValue {
			blanketAllow = true

			continue
		}

		valueAllows[r.Advanced.Value] = struct{}{}
	}

	for _, r := range set {
		if r.Advanced == nil || r.Advanced.Kind != kind || r.IsAllowlist {
			continue
		}

		if blanketAllow {
			continue
		}

		if r.Advanced.HasValue {
			if _, cancelled := valueAllows[r.Advanced.Value]; cancelled {
				continue
			}
		}

		out = append(out, r)
	}

	return out
}

// resolveRedirect picks the redirect rule, if any, per §4.4 step 6: present
// only when the basic action is block and a $redirect (or $redirect-rule,
// only when another rule would already block) rule matched with priority at
// least as high as the block rule.
func (res *MatchingResult) resolveRedirect(set []*rules.NetworkRule) {
	if res.basicRule == nil || res.basicRule.IsAllowlist {
		return
	}

	var best *rules.NetworkRule

	for _, r := range set {
		if r.Advanced == nil || r.IsAllowlist {
			continue
		}

		switch r.Advanced.Kind {
		case rules.AdvancedModifierRedirect:
		case rules.AdvancedModifierRedirectRule:
			// redirect-rule only fires because some other rule would block;
			// res.basicRule already being non-allowlist satisfies that.
		default:
			continue
		}

		if r.PriorityTier() < res.basicRule.PriorityTier() {
			continue
		}

		if best == nil || isHigherPriority(r, best) {
			best = r
		}
	}

	res.redirectRule = best
}

// GetBasicResult returns the selected basic block/allowlist rule, or nil if
// nothing matched.
func (res *MatchingResult) GetBasicResult() (rule *rules.NetworkRule) { return res.basicRule }

// DocumentRule returns the source-URL's document-scope allowlist rule, if
// any.
func (res *MatchingResult) DocumentRule() (rule *rules.NetworkRule) { return res.documentRule }

// RedirectRule returns the rule that should redirect this request, if any.
func (res *MatchingResult) RedirectRule() (rule *rules.NetworkRule) { return res.redirectRule }

// CSPRules returns every surviving $csp rule.
func (res *MatchingResult) CSPRules() (list []*rules.NetworkRule) { return res.cspRules }

// CookieRules returns every surviving $cookie rule.
func (res *MatchingResult) CookieRules() (list []*rules.NetworkRule) { return res.cookieRules }

// RemoveParamRules returns every surviving $removeparam rule.
func (res *MatchingResult) RemoveParamRules() (list []*rules.NetworkRule) { return res.removeParamRules }

// RemoveHeaderRules returns every surviving $removeheader rule.
func (res *MatchingResult) RemoveHeaderRules() (list []*rules.NetworkRule) { return res.removeHeaderRules }

// ReplaceRules returns every surviving $replace rule.
func (res *MatchingResult) ReplaceRules() (list []*rules.NetworkRule) { return res.replaceRules }

// StealthRules returns every matched $stealth rule.
func (res *MatchingResult) StealthRules() (list []*rules.NetworkRule) { return res.stealthRules }

// GetCosmeticOption derives the CosmeticOption bitset for this result's
// basic and document rules, per §4.4's final paragraph.
func (res *MatchingResult) GetCosmeticOption() (opt CosmeticOption) {
	if res.basicRule != nil && res.basicRule.IsAllowlist && res.basicRule.Options.Has(rules.OptionDocument) {
		return 0
	}

	opt = CosmeticOptionAll

	clear := func(r *rules.NetworkRule) {
		if r == nil || !r.IsAllowlist {
			return
		}

		switch {
		case r.Options.Has(rules.OptionElemhide):
			opt &^= CosmeticOptionElementHiding | CosmeticOptionCSS
		case r.Options.Has(rules.OptionGenerichide):
			opt &^= CosmeticOptionGeneric
		case r.Options.Has(rules.OptionSpecifichide):
			opt &^= CosmeticOptionSpecific
		case r.Options.Has(rules.OptionJsinject):
			opt &^= CosmeticOptionJS
		case r.Options.Has(rules.OptionContent):
			opt &^= CosmeticOptionHTML
		}
	}

	clear(res.documentRule)
	clear(res.basicRule)

	return opt
}
