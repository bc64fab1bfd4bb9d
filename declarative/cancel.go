package declarative

import "github.com/filterforge/urlfilter/rules"

// CancelAcrossRulesets implements §4.7's cross-ruleset $badfilter
// cancellation: for every dynamic $badfilter rule, it queries each static
// rule set's hash map for same-pattern candidates, reparses their stored
// text, and keeps the ones the $badfilter rule actually negates (per
// rules.NetworkRule.Negates: identical pattern, modifiers a superset,
// allowlist flag matching).
//
// The returned slice names every declarative rule id that should be
// disabled, each paired with the ID of its owning rule set, so ids that
// repeat across rule sets stay distinguishable. Within one rule set the
// refs come in no particular order.
func CancelAcrossRulesets(dynamicBadFilters []SourceEntry, static []*RuleSet) (cancel []CancelRef) {
	for _, dyn := range dynamicBadFilters {
		for _, rs := range static {
			for _, hit := range rs.HashMap.Lookup(dyn.Rule.Pattern.Text()) {
				target, err := rules.ParseNetworkRule(hit.Text, hit.Ref.FilterID)
				if err != nil {
					continue
				}

				if !dyn.Rule.Negates(target) {
					continue
				}

				for id, refs := range rs.SourceMap {
					if containsRef(refs, hit.Ref) {
						cancel = append(cancel, CancelRef{RuleSetID: rs.ID, DeclarativeRuleID: id})
					}
				}
			}
		}
	}

	return cancel
}

// CancelRef names one declarative rule to disable: a $badfilter rule from
// one rule set negated a rule contributing to declarative rule id in
// RuleSetID.
type CancelRef struct {
	RuleSetID         string
	DeclarativeRuleID int
}

func containsRef(refs []SourceRef, ref SourceRef) (ok bool) {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}

	return false
}
