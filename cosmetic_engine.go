package urlfilter

import (
	"github.com/filterforge/urlfilter/filterlist"
	"github.com/filterforge/urlfilter/internal/domainutil"
	"github.com/filterforge/urlfilter/rules"
)

// CosmeticEngine indexes every CosmeticRule in a RuleStorage and resolves
// cosmetic queries for a hostname, per §4.5.
type CosmeticEngine struct {
	generic map[rules.CosmeticRuleKind][]*rules.CosmeticRule
	byDomain map[string][]*rules.CosmeticRule

	RulesCount int
}

// NewCosmeticEngine builds a CosmeticEngine over every cosmetic rule in s.
func NewCosmeticEngine(s *filterlist.RuleStorage) (e *CosmeticEngine) {
	e = &CosmeticEngine{
		generic:  make(map[rules.CosmeticRuleKind][]*rules.CosmeticRule),
		byDomain: make(map[string][]*rules.CosmeticRule),
	}

	scanner := s.NewRuleStorageScanner(filterlist.CosmeticRules)
	for scanner.Scan() {
		rule, _ := scanner.Rule()

		cosmeticRule, ok := rule.(*rules.CosmeticRule)
		if !ok {
			continue
		}

		e.addRule(cosmeticRule)
	}

	return e
}

func (e *CosmeticEngine) addRule(rule *rules.CosmeticRule) {
	e.RulesCount++

	if rule.IsGeneric() {
		e.generic[rule.Kind] = append(e.generic[rule.Kind], rule)

		return
	}

	for _, domain := range rule.PermittedDomains.Plain() {
		e.byDomain[domain] = append(e.byDomain[domain], rule)
	}
}

// Match resolves every cosmetic rule applicable to (hostname, requestURL)
// subject to opt, per §4.5's match phase, and returns a populated
// CosmeticResult.
func (e *CosmeticEngine) Match(hostname, requestURL string, opt CosmeticOption) (res *CosmeticResult) {
	candidates := e.candidates(hostname, opt)

	var allowed, blocked []*rules.CosmeticRule
	for _, r := range candidates {
		if !e.applies(r, hostname, requestURL) {
			continue
		}

		if r.IsAllowlist {
			allowed = append(allowed, r)
		} else {
			blocked = append(blocked, r)
		}
	}

	cancelledBodies := make(map[rules.CosmeticRuleKind]map[string]struct{})

	for _, r := range allowed {
		set, ok := cancelledBodies[r.Kind]
		if !ok {
			set = make(map[string]struct{})
			cancelledBodies[r.Kind] = set
		}

		set[r.Body()] = struct{}{}
	}

	res = newCosmeticResult()

	for _, r := range blocked {
		if set, ok := cancelledBodies[r.Kind]; ok {
			if _, cancelled := set[r.Body()]; cancelled {
				continue
			}
		}

		res.add(r)
	}

	return res
}

// candidates gathers generic and per-domain rules eligible under opt,
// without yet applying domain/path/url pattern checks.
func (e *CosmeticEngine) candidates(hostname string, opt CosmeticOption) (out []*rules.CosmeticRule) {
	kinds := []struct {
		kind rules.CosmeticRuleKind
		bit  CosmeticOption
	}{
		{rules.ElementHiding, CosmeticOptionElementHiding},
		{rules.CssInjection, CosmeticOptionCSS},
		{rules.ScriptletInjection, CosmeticOptionJS},
		{rules.JsInjection, CosmeticOptionJS},
		{rules.HtmlFiltering, CosmeticOptionHTML},
	}

	if opt.Has(CosmeticOptionGeneric) {
		for _, k := range kinds {
			if opt.Has(k.bit) {
				out = append(out, e.generic[k.kind]...)
			}
		}
	}

	if opt.Has(CosmeticOptionSpecific) {
		bitByKind := make(map[rules.CosmeticRuleKind]CosmeticOption, len(kinds))
		for _, k := range kinds {
			bitByKind[k.kind] = k.bit
		}

		for _, domain := range domainutil.Labels(hostname, rules.EffectiveDomain(hostname)) {
			for _, r := range e.byDomain[domain] {
				if opt.Has(bitByKind[r.Kind]) {
					out = append(out, r)
				}
			}
		}
	}

	return out
}

// applies runs the domain/path/url gating a candidate rule still needs
// after the coarse generic/per-domain bucket lookup.
func (e *CosmeticEngine) applies(r *rules.CosmeticRule, hostname, requestURL string) (ok bool) {
	if r.RestrictedDomains.Match(hostname) {
		return false
	}

	if !r.PermittedDomains.Empty() && !r.PermittedDomains.Match(hostname) {
		return false
	}

	if r.PathPattern != nil && !r.PathPattern.MatchURL(requestURL) {
		return false
	}

	if r.URLPattern != nil && !r.URLPattern.MatchURL(requestURL) {
		return false
	}

	return true
}

