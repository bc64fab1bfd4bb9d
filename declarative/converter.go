package declarative

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/idna"

	"github.com/filterforge/urlfilter/rules"
)

// NewRuleSetID returns a fresh identifier suitable for RuleSet.ID, for
// callers that don't already have a stable name (a filter's own id) to use.
func NewRuleSetID() (id string) { return uuid.NewString() }

// SourceEntry is one stored network rule, decoupled from filterlist's
// storage internals so the converter can run over rules gathered from any
// source: a live RuleStorage, a hand-built test fixture, or a dynamic rule
// list received over the wire.
type SourceEntry struct {
	Rule      *rules.NetworkRule
	FilterID  int
	LineIndex int
}

func (e SourceEntry) ref() (r SourceRef) {
	return SourceRef{FilterID: e.FilterID, LineIndex: e.LineIndex}
}

// Limits bounds how many declarative rules a conversion may emit.
type Limits struct {
	MaxRules      int
	MaxRegexRules int
}

// RuleSet is one converted rule set: the declarative rules themselves plus
// the bookkeeping needed to map them back to their sources and to cancel
// them from another rule set via $badfilter.
type RuleSet struct {
	ID    string
	Rules []Rule

	SourceMap SourceMap
	HashMap   *RulesHashMap

	RulesCount       int
	RegexpRulesCount int
}

// ConversionResult is the outcome of converting one batch of SourceEntry
// values: the rule set built from whatever converted cleanly, plus every
// per-rule error encountered along the way. A non-empty Errors slice is not
// fatal — RuleSet is always usable.
type ConversionResult struct {
	RuleSet *RuleSet

	// Errors holds one entry per dropped rule: *SemanticError,
	// *TooComplexRegexError, or a plain build error.
	Errors []error

	// Limitation is set when Limits truncated the output.
	Limitation *LimitationError

	// BadFilterRules holds the $badfilter rules pulled out of entries, for
	// the caller to run cross-ruleset cancellation with.
	BadFilterRules []SourceEntry
}

// pendingRule is a fully lowered declarative.Rule awaiting id assignment,
// still carrying its source refs and whether it needed a regex condition.
type pendingRule struct {
	rule    Rule
	refs    []SourceRef
	isRegex bool
}

type hashSource struct {
	pattern string
	text    string
}

// ConvertRuleset lowers entries into a RuleSet, applying $removeparam
// grouping and the given Limits. $badfilter rules are never lowered
// directly — they describe a cancellation, not a request — and are
// returned separately for the caller to run cross-ruleset cancellation
// with, per §4.7.
func ConvertRuleset(ruleSetID string, entries []SourceEntry, limits Limits) (res *ConversionResult) {
	res = &ConversionResult{RuleSet: &RuleSet{ID: ruleSetID, SourceMap: SourceMap{}, HashMap: NewRulesHashMap()}}

	var pending []pendingRule

	groups := map[string]*removeparamGroup{}
	sources := map[SourceRef]hashSource{}

	for _, entry := range entries {
		r := entry.Rule
		ref := entry.ref()

		if r.Options.Has(rules.OptionBadFilter) {
			res.BadFilterRules = append(res.BadFilterRules, entry)

			continue
		}

		lowered, isRegex, err := lowerRule(r)
		if err != nil {
			res.Errors = append(res.Errors, err)

			continue
		}

		sources[ref] = hashSource{pattern: r.Pattern.Text(), text: r.Text()}

		if r.Advanced != nil && r.Advanced.Kind == rules.AdvancedModifierRemoveParam {
			key := conditionKey(lowered.Condition)

			g, ok := groups[key]
			if !ok {
				transform := &URLTransform{QueryTransform: &QueryTransform{}}
				lowered.Action.Redirect = &Redirect{Transform: transform}

				pending = append(pending, pendingRule{rule: lowered, isRegex: isRegex})
				g = &removeparamGroup{
					pendingIdx: len(pending) - 1,
					transform:  transform,
					seenParams: map[string]struct{}{},
				}
				groups[key] = g
			}

			g.merge(r.Advanced.Value, r.Advanced.HasValue)
			pending[g.pendingIdx].refs = append(pending[g.pendingIdx].refs, ref)

			continue
		}

		pending = append(pending, pendingRule{rule: lowered, refs: []SourceRef{ref}, isRegex: isRegex})
	}

	for i := range pending {
		pending[i].rule.ID = i + 1
	}

	kept, lim := enforceLimits(pending, limits)
	res.Limitation = lim

	rs := res.RuleSet
	for _, p := range kept {
		rs.Rules = append(rs.Rules, p.rule)
		if p.isRegex {
			rs.RegexpRulesCount++
		}

		for _, ref := range p.refs {
			rs.SourceMap.add(p.rule.ID, ref)

			if hs, ok := sources[ref]; ok {
				rs.HashMap.Add(hs.pattern, hs.text, ref)
			}
		}
	}
	rs.RulesCount = len(rs.Rules)

	return res
}

// lowerRule converts one NetworkRule into a declarative Rule, reporting
// isRegex so callers can enforce the regex-rule cap separately from the
// overall rule cap.
func lowerRule(r *rules.NetworkRule) (rule Rule, isRegex bool, err error) {
	if r.Advanced != nil && r.Advanced.Kind == rules.AdvancedModifierCookie {
		return Rule{}, false, &SemanticError{
			Rule:   r.Text(),
			Reason: "$cookie rules require a host cookie API and cannot be expressed declaratively",
		}
	}

	condition, isRegex, err := buildCondition(r)
	if err != nil {
		return Rule{}, isRegex, err
	}

	action, err := buildAction(r)
	if err != nil {
		return Rule{}, isRegex, err
	}

	return Rule{Priority: priorityFor(r), Condition: condition, Action: action}, isRegex, nil
}

// resourceTypeNames maps this model's RequestType bits to the
// resourceTypes/excludedResourceTypes vocabulary a declarative rule engine
// expects, which for the document types follows browser frame terminology
// rather than this package's own "document"/"subdocument" spelling.
var resourceTypeNames = []struct {
	typ  rules.RequestType
	name string
}{
	{rules.RequestTypeDocument, "main_frame"},
	{rules.RequestTypeSubdocument, "sub_frame"},
	{rules.RequestTypeStylesheet, "stylesheet"},
	{rules.RequestTypeScript, "script"},
	{rules.RequestTypeImage, "image"},
	{rules.RequestTypeMedia, "media"},
	{rules.RequestTypeFont, "font"},
	{rules.RequestTypeObject, "object"},
	{rules.RequestTypeXmlHttpRequest, "xmlhttprequest"},
	{rules.RequestTypePing, "ping"},
	{rules.RequestTypeWebsocket, "websocket"},
	{rules.RequestTypeWebrtc, "webrtc"},
	{rules.RequestTypeOther, "other"},
}

// buildCondition derives a Condition from r's pattern, type and domain
// scoping, per §4.7's condition field list.
func buildCondition(r *rules.NetworkRule) (c Condition, isRegex bool, err error) {
	p := r.Pattern
	if p.Invalid() {
		return Condition{}, false, fmt.Errorf("rule %q: invalid pattern", r.Text())
	}

	if p.IsRegexp() {
		re := p.RegexpString()
		if constraintErr := checkRegexConstraints(re, r.Text()); constraintErr != nil {
			return Condition{}, true, constraintErr
		}

		c.RegexFilter = re
		isRegex = true
	} else {
		c.URLFilter = punycodeURLFilter(p.Text())
	}

	if p.MatchCase() {
		t := true
		c.IsURLFilterCaseSensitive = &t
	}

	if r.HasEnabledTypes {
		for _, rt := range resourceTypeNames {
			if r.EnabledTypes.Has(rt.typ) {
				c.ResourceTypes = append(c.ResourceTypes, rt.name)
			}
		}
	}

	for _, rt := range resourceTypeNames {
		if r.DisabledTypes.Has(rt.typ) {
			c.ExcludedResourceTypes = append(c.ExcludedResourceTypes, rt.name)
		}
	}

	c.InitiatorDomains = punycodeDomains(r.PermittedDomains.Plain())
	c.ExcludedInitiatorDomains = punycodeDomains(r.RestrictedDomains.Plain())
	c.ExcludedRequestDomains = punycodeDomains(r.DenyallowDomains)

	switch {
	case r.Options.Has(rules.OptionThirdParty):
		c.DomainType = DomainTypeThirdParty
	case r.IsFirstPartyOnly():
		c.DomainType = DomainTypeFirstParty
	}

	return c, isRegex, nil
}

// buildAction derives an Action from r's allowlist/redirect/header
// modifiers, per §4.7's action-selection table.
func buildAction(r *rules.NetworkRule) (a Action, err error) {
	if r.IsAllowlist && r.Options.Has(rules.OptionDocument) {
		return Action{Type: ActionAllowAllRequests}, nil
	}

	if r.IsAllowlist {
		return Action{Type: ActionAllow}, nil
	}

	if r.Advanced != nil {
		switch r.Advanced.Kind {
		case rules.AdvancedModifierRedirect, rules.AdvancedModifierRedirectRule:
			path, ok := RedirectExtensionPath(r.Advanced.Value)
			if !ok {
				return Action{}, &SemanticError{
					Rule:   r.Text(),
					Reason: fmt.Sprintf("unknown redirect resource %q", r.Advanced.Value),
				}
			}

			return Action{Type: ActionRedirect, Redirect: &Redirect{ExtensionPath: path}}, nil
		case rules.AdvancedModifierRemoveParam:
			// The caller (ConvertRuleset) owns Redirect.Transform so
			// identical-condition rules can merge; this placeholder is
			// replaced before the rule is ever stored.
			return Action{Type: ActionRedirect}, nil
		case rules.AdvancedModifierCSP:
			return Action{
				Type: ActionModifyHeaders,
				ResponseHeaders: []ModifyHeaderInfo{
					{Header: "Content-Security-Policy", Operation: HeaderOperationAppend, Value: r.Advanced.Value},
				},
			}, nil
		case rules.AdvancedModifierRemoveHeader:
			return Action{
				Type: ActionModifyHeaders,
				ResponseHeaders: []ModifyHeaderInfo{
					{Header: r.Advanced.Value, Operation: HeaderOperationRemove},
				},
			}, nil
		}
	}

	return Action{Type: ActionBlock}, nil
}

// priorityFor maps r's basic-rule priority tier onto the declarative
// priority scale, per §4.7.
func priorityFor(r *rules.NetworkRule) (priority int) {
	switch r.PriorityTier() {
	case rules.PriorityDocumentAllowlist:
		return PriorityDocumentException
	case rules.PriorityImportantAllowlist:
		return PriorityImportantExcept
	case rules.PriorityImportantBlock:
		return PriorityImportantBlock
	case rules.PriorityAllowlist:
		return PriorityException
	default:
		return PriorityDefault
	}
}

// boundedQuantifier matches a `{n,m}`-style repetition, one of the regex
// shapes §4.7 calls out as unsupported by a declarative rule engine even
// though Go's RE2 compiles it happily.
var boundedQuantifier = regexp.MustCompile(`\{[0-9]+,?[0-9]*\}`)

// checkRegexConstraints enforces §4.7's regex complexity cap (more than 15
// alternation groups, or any group longer than 31 chars) and its list of
// constructs a declarative rule engine's regex dialect can't express.
func checkRegexConstraints(re, ruleText string) (err error) {
	if boundedQuantifier.MatchString(re) {
		return &TooComplexRegexError{Rule: ruleText, Reason: "bounded quantifier {n,m} is not supported"}
	}

	for d := byte('1'); d <= '9'; d++ {
		if strings.Contains(re, `\`+string(d)) {
			return &TooComplexRegexError{Rule: ruleText, Reason: "backreferences are not supported"}
		}
	}

	if strings.Contains(re, "(?!") || strings.Contains(re, "(?<!") {
		return &TooComplexRegexError{Rule: ruleText, Reason: "negative lookaround is not supported"}
	}

	segments := strings.Split(re, "|")
	if len(segments) > 16 {
		return &TooComplexRegexError{
			Rule:   ruleText,
			Reason: fmt.Sprintf("%d alternation groups exceeds the limit of 15", len(segments)-1),
		}
	}

	for _, seg := range segments {
		if len(seg) > 31 {
			return &TooComplexRegexError{Rule: ruleText, Reason: "alternation group exceeds 31 characters"}
		}
	}

	return nil
}

// punycodeURLFilter converts any non-ASCII hostname labels embedded in an
// urlFilter pattern to punycode, per §4.7's "non-ASCII domains ... are
// converted to ASCII before emission". Patterns are mostly ASCII already
// (the `||`/`^`/`*` syntax is ASCII-only), so this only ever touches the
// rare internationalized-domain rule.
func punycodeURLFilter(pattern string) (out string) {
	if isASCII(pattern) {
		return pattern
	}

	var b strings.Builder

	for _, label := range strings.FieldsFunc(pattern, func(r rune) bool { return r == '.' }) {
		if b.Len() > 0 {
			b.WriteByte('.')
		}

		if ascii, err := idna.ToASCII(label); err == nil {
			b.WriteString(ascii)
		} else {
			b.WriteString(label)
		}
	}

	return b.String()
}

// punycodeDomains converts every entry of domains to ASCII form, leaving
// already-ASCII entries untouched.
func punycodeDomains(domains []string) (out []string) {
	if len(domains) == 0 {
		return nil
	}

	out = make([]string, len(domains))
	for i, d := range domains {
		if isASCII(d) {
			out[i] = d

			continue
		}

		ascii, err := idna.ToASCII(d)
		if err != nil {
			out[i] = d

			continue
		}

		out[i] = ascii
	}

	return out
}

// isASCII reports whether every byte of s is in the ASCII range.
func isASCII(s string) (ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}

	return true
}
