package declarative

// enforceLimits trims pending to at most limits.MaxRegexRules regex rules
// and limits.MaxRules rules overall, dropping the tail in insertion order
// per §4.7's "excess rules are excluded in insertion order". A zero Limits
// field disables that particular cap.
func enforceLimits(pending []pendingRule, limits Limits) (kept []pendingRule, lim *LimitationError) {
	kept = pending
	var excludedIDs []int

	if limits.MaxRegexRules > 0 {
		filtered := make([]pendingRule, 0, len(kept))
		regexCount := 0

		for _, p := range kept {
			if p.isRegex {
				regexCount++
				if regexCount > limits.MaxRegexRules {
					excludedIDs = append(excludedIDs, p.rule.ID)

					continue
				}
			}

			filtered = append(filtered, p)
		}

		kept = filtered
	}

	if limits.MaxRules > 0 && len(kept) > limits.MaxRules {
		for _, p := range kept[limits.MaxRules:] {
			excludedIDs = append(excludedIDs, p.rule.ID)
		}

		kept = kept[:limits.MaxRules]
	}

	if len(excludedIDs) == 0 {
		return kept, nil
	}

	limit := limits.MaxRules
	if limit == 0 {
		limit = limits.MaxRegexRules
	}

	return kept, &LimitationError{
		NumberOfMaximumRules:             limit,
		NumberOfExcludedDeclarativeRules: len(excludedIDs),
		ExcludedRulesIDs:                 excludedIDs,
	}
}
