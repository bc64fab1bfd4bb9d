package rules

import (
	"strings"
)

// PriorityTier orders the basic-rule candidates a matching result chooses
// between, per spec §4.4 step 2.  Higher is more important.
type PriorityTier int

// Priority tiers, in the exact order spec §4.4 names them.
const (
	PriorityBlock PriorityTier = iota
	PriorityAllowlist
	PriorityImportantBlock
	PriorityImportantAllowlist
	PriorityDocumentAllowlist
)

// NetworkRule is a parsed network (blocking/allowing/modifying) filter
// rule, per spec §3.
type NetworkRule struct {
	Pattern *Pattern

	PermittedDomains  *DomainList
	RestrictedDomains *DomainList

	// DenyallowDomains holds the plain, non-wildcard, non-regex domains of
	// a $denyallow modifier: requests whose own domain is one of these (or a
	// subdomain of one) are excluded from matching regardless of the rest of
	// the rule.
	DenyallowDomains []string

	Advanced *AdvancedModifier

	raw string

	filterListID int

	Options Option

	EnabledTypes  RequestType
	DisabledTypes RequestType

	// HasEnabledTypes distinguishes "no type modifier present" (matches
	// every type) from a rule scoped to an empty set, which cannot occur
	// through parsing but is tracked explicitly for clarity.
	HasEnabledTypes bool

	IsAllowlist bool

	// StorageIndex is the rule's position in the RuleStorage that loaded
	// it, assigned once at load time. It is used as the final tie-break in
	// basic-rule priority selection ("later lists win") and as the join
	// key for $badfilter bookkeeping. Zero until the rule is stored.
	StorageIndex int64

	// firstParty records $first-party / $~third-party: the rule only
	// matches first-party requests.  Kept distinct from OptionThirdParty
	// (which records the opposite scoping) rather than overloading one
	// bit's negation.
	firstParty bool
}

// Text implements the Rule interface for *NetworkRule.
func (r *NetworkRule) Text() (s string) { return r.raw }

// FilterListID implements the Rule interface for *NetworkRule.
func (r *NetworkRule) FilterListID() (id int) { return r.filterListID }

// type check
var _ Rule = (*NetworkRule)(nil)

// IsHostLevelNetworkRule returns true if the rule is generic enough to be
// usable by a hostname-only (DNS-level) matcher: it carries no
// content-type restriction beyond Document, no $denyallow, and its pattern
// is plain-hostname shaped or a plain substring.  Mirrors the teacher's
// rules.NetworkRule.IsHostLevelNetworkRule, generalized to this package's
// richer Option set.
func (r *NetworkRule) IsHostLevelNetworkRule() (ok bool) {
	if r.HasEnabledTypes && r.EnabledTypes != RequestTypeAll && r.EnabledTypes != RequestTypeDocument {
		return false
	}

	if len(r.DenyallowDomains) > 0 {
		return false
	}

	if _, isHost := r.Pattern.IsHostnamePattern(); isHost {
		return true
	}

	return r.Pattern.Invalid() == false && !r.Pattern.IsRegexp()
}

// PriorityTier computes the rule's priority tier, per spec §3's invariant:
// "an allowlist rule + $important maps to priority tier 3; plain allowlist
// → tier 1; $important on block → tier 2; $document allowlist → tier 4."
func (r *NetworkRule) PriorityTier() (t PriorityTier) {
	important := r.Options.Has(OptionImportant)

	switch {
	case r.IsAllowlist && r.Options.Has(OptionDocument):
		return PriorityDocumentAllowlist
	case r.IsAllowlist && important:
		return PriorityImportantAllowlist
	case !r.IsAllowlist && important:
		return PriorityImportantBlock
	case r.IsAllowlist:
		return PriorityAllowlist
	default:
		return PriorityBlock
	}
}

// MatchDomains returns true if sourceDomain is permitted to match this rule:
// either there are no permitted domains (any domain is allowed) and
// sourceDomain is not restricted, or sourceDomain is explicitly permitted
// (and, redundantly per adblock semantics, also not restricted).
func (r *NetworkRule) MatchDomains(sourceDomain string) (ok bool) {
	if r.RestrictedDomains.Match(sourceDomain) {
		return false
	}

	if r.PermittedDomains.Empty() {
		return true
	}

	return r.PermittedDomains.Match(sourceDomain)
}

// MatchDenyallow returns true if domain, the request's own domain, is
// excluded by a $denyallow modifier.
func (r *NetworkRule) MatchDenyallow(domain string) (excluded bool) {
	for _, d := range r.DenyallowDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}

	return false
}

// MatchRequestTypes returns true if t is permitted by the rule's
// enabled/disabled type modifiers. RequestTypeNone (a hostname-only
// request) is permitted only by a rule with no enabled-type modifier.
func (r *NetworkRule) MatchRequestTypes(t RequestType) (ok bool) {
	if r.DisabledTypes&t != 0 {
		return false
	}

	if !r.HasEnabledTypes {
		return true
	}

	return r.EnabledTypes&t != 0
}

// MatchThirdParty returns true if the rule's $third-party/$first-party
// scoping is compatible with thirdParty.
func (r *NetworkRule) MatchThirdParty(thirdParty bool) (ok bool) {
	switch {
	case r.Options.Has(OptionThirdParty) && !thirdParty:
		return false
	case r.firstPartyOnly() && thirdParty:
		return false
	default:
		return true
	}
}

// firstPartyOnly reports whether the rule was written with $first-party (or
// equivalently $~third-party).
func (r *NetworkRule) firstPartyOnly() (ok bool) {
	return r.firstParty
}

// IsFirstPartyOnly exports firstPartyOnly for callers outside this package
// (the declarative converter's domainType derivation) that need to tell a
// $first-party rule apart from one with no party scoping at all.
func (r *NetworkRule) IsFirstPartyOnly() (ok bool) {
	return r.firstPartyOnly()
}

// Negates reports whether r, a $badfilter rule, cancels other: their
// patterns are textually identical and every option r carries (besides
// $badfilter itself) is also set on other, per §4.4 step 5.
func (r *NetworkRule) Negates(other *NetworkRule) (ok bool) {
	if !r.Options.Has(OptionBadFilter) {
		return false
	}

	if r.Pattern.Text() != other.Pattern.Text() {
		return false
	}

	if r.IsAllowlist != other.IsAllowlist {
		return false
	}

	mask := r.Options &^ OptionBadFilter

	return mask & ^other.Options == 0
}

// ShortcutLength is the minimum shortcut length, in bytes, that the network
// engine will insert into its shortcut-hash table rather than its trie.
// Spec §9 fixes this tuning constant at 5.
const ShortcutLength = 5

// minTrieShortcutLength is the minimum shortcut length for the trie,
// per §4.3 step 3.
const minTrieShortcutLength = 4

// tooGenericShortcuts lists shortcuts the hash table build steers to the
// trie or other-rules bucket instead, per §4.3 step 2, because they would
// create pathologically hot buckets.
var tooGenericShortcuts = map[string]struct{}{
	"http":  {},
	"https": {},
	"|http": {},
	"ws:":   {},
}

// IsTooGenericShortcut returns true if shortcut should never be used as a
// shortcut-hash table key.
func IsTooGenericShortcut(shortcut string) (ok bool) {
	_, ok = tooGenericShortcuts[shortcut]

	return ok
}

// ShortcutClass selects which network-engine index a rule's shortcut
// belongs in, per §4.3 steps 2-4.
type ShortcutClass int

// Shortcut classes, in the order the build phase tests them.
const (
	ShortcutClassHashTable ShortcutClass = iota
	ShortcutClassTrie
	ShortcutClassOther
)

// ClassifyShortcut routes shortcut to the hash table, the trie, or the
// catch-all "other rules" bucket.
func ClassifyShortcut(shortcut string) (class ShortcutClass) {
	switch {
	case len(shortcut) >= ShortcutLength && !IsTooGenericShortcut(shortcut):
		return ShortcutClassHashTable
	case len(shortcut) >= minTrieShortcutLength:
		return ShortcutClassTrie
	default:
		return ShortcutClassOther
	}
}

// redirectResourceName returns the resource name of a $redirect or
// $redirect-rule modifier, handling the bare `$redirect` (no `=value`) form
// by returning "" — such a rule is a syntax error the caller must reject.
func redirectResourceName(value string) (name string) {
	return strings.TrimSpace(value)
}
