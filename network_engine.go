package urlfilter

import (
	"strings"

	"github.com/filterforge/urlfilter/filterlist"
	"github.com/filterforge/urlfilter/rules"
)

// maxDomainTableDomains bounds how many permitted domains a rule may carry
// and still be filed into the domain table; beyond this a rule's domain
// list stops being "a small fixed set" (§4.3 step 5) and the rule is left
// to the shortcut/trie/other indexes alone.
const maxDomainTableDomains = 5

// NetworkEngine indexes every NetworkRule in a RuleStorage and answers
// candidate-matching queries for a Request, per §4.3.
type NetworkEngine struct {
	ruleStorage *filterlist.RuleStorage

	shortcuts   *shortcutIndex
	trie        *shortcutTrie
	domainTable map[string][]int64
	otherRules  []int64

	// RulesCount is the number of network rules indexed.
	RulesCount int
}

// NewNetworkEngine builds a NetworkEngine over every network rule in s.
func NewNetworkEngine(s *filterlist.RuleStorage) (e *NetworkEngine) {
	e = &NetworkEngine{
		ruleStorage: s,
		shortcuts:   newShortcutIndex(),
		trie:        newShortcutTrie(),
		domainTable: make(map[string][]int64),
	}

	scanner := s.NewRuleStorageScanner(filterlist.NetworkRules)
	for scanner.Scan() {
		rule, idx := scanner.Rule()

		networkRule, ok := rule.(*rules.NetworkRule)
		if !ok {
			continue
		}

		e.addRule(networkRule, idx)
	}

	return e
}

func (e *NetworkEngine) addRule(rule *rules.NetworkRule, idx int64) {
	e.RulesCount++

	shortcut := rule.Pattern.Shortcut()

	switch rules.ClassifyShortcut(shortcut) {
	case rules.ShortcutClassHashTable:
		e.shortcuts.add(shortcut, idx)
	case rules.ShortcutClassTrie:
		e.trie.add(shortcut, idx)
	default:
		e.otherRules = append(e.otherRules, idx)
	}

	domains := rule.PermittedDomains.Plain()
	if len(domains) > 0 && len(domains) <= maxDomainTableDomains {
		for _, d := range domains {
			e.domainTable[d] = append(e.domainTable[d], idx)
		}
	}
}

// MatchAll returns every NetworkRule whose Pattern matches req, deduplicated
// by storage index, per §4.3's match phase.
func (e *NetworkEngine) MatchAll(req *rules.Request) (matched []*rules.NetworkRule) {
	candidates := e.candidateIndices(req)
	if len(candidates) == 0 {
		return nil
	}

	matched = make([]*rules.NetworkRule, 0, len(candidates))
	for idx := range candidates {
		rule := e.ruleStorage.RetrieveNetworkRule(idx)
		if rule == nil {
			continue
		}

		if e.ruleMatches(rule, req) {
			matched = append(matched, rule)
		}
	}

	return matched
}

// candidateIndices gathers every storage index the indexes produce for req,
// without yet testing the rule's full pattern.
func (e *NetworkEngine) candidateIndices(req *rules.Request) (out map[int64]struct{}) {
	urlLower := req.URLLowerCase
	if len(urlLower) > maxURLMatchLength {
		urlLower = urlLower[:maxURLMatchLength]
	}

	out = make(map[int64]struct{})

	e.shortcuts.match(urlLower, out)
	e.trie.collect(urlLower, out)

	for _, idx := range e.otherRules {
		out[idx] = struct{}{}
	}

	for _, idx := range e.domainTable[req.SourceDomain] {
		out[idx] = struct{}{}
	}

	return out
}

// maxURLMatchLength mirrors rules.Pattern's own bound; kept as a distinct
// constant here since the network engine truncates once for the whole
// index scan rather than once per candidate.
const maxURLMatchLength = 4096

// ruleMatches applies every non-pattern constraint of rule (request type,
// domains, third-party scoping, denyallow) in addition to the pattern
// match itself.
func (e *NetworkEngine) ruleMatches(rule *rules.NetworkRule, req *rules.Request) (ok bool) {
	if !rule.MatchRequestTypes(req.RequestType) {
		return false
	}

	if !rule.MatchThirdParty(req.ThirdParty) {
		return false
	}

	if !rule.MatchDomains(req.SourceDomain) {
		return false
	}

	if rule.MatchDenyallow(req.Domain) {
		return false
	}

	if req.IsHostnameRequest && !isDomainSpecificPattern(rule.Pattern) {
		return matchesHostnameOnly(rule.Pattern, req.Hostname)
	}

	if rule.Pattern.MatchCase() {
		return rule.Pattern.MatchURL(req.URL)
	}

	return rule.Pattern.MatchURL(req.URLLowerCase)
}

// isDomainSpecificPattern reports whether a pattern is anchored enough to
// a domain/scheme shape that it's meaningful to test against a full URL
// even for a hostname-only request, per §4.6's carve-out.
func isDomainSpecificPattern(p *rules.Pattern) (ok bool) {
	if _, isHost := p.IsHostnamePattern(); isHost {
		return true
	}

	text := p.Text()
	for _, marker := range []string{"||", "http://", "https://", "://"} {
		if strings.Contains(text, marker) {
			return true
		}
	}

	return false
}

// matchesHostnameOnly applies p against hostname alone, for non-domain-
// specific patterns seen in a hostname-only request context.
func matchesHostnameOnly(p *rules.Pattern, hostname string) (ok bool) {
	if host, isHost := p.IsHostnamePattern(); isHost {
		return hostname == host || strings.HasSuffix(hostname, "."+host)
	}

	return p.MatchURL(hostname)
}
