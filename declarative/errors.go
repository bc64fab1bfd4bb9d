package declarative

import "fmt"

// SemanticError reports a rule that parsed fine but can't be expressed
// declaratively for a reason intrinsic to its meaning: a $cookie rule, or
// $url mixed with $domain, per §4.7 "Unsupported" and §7's Semantic kind.
type SemanticError struct {
	Rule   string
	Reason string
}

// Error implements the error interface for *SemanticError.
func (e *SemanticError) Error() (s string) {
	return fmt.Sprintf("semantic: %s: %s", e.Reason, e.Rule)
}

// TooComplexRegexError reports a regex pattern that exceeds the complexity
// cap (§4.7: more than 15 alternation groups, or any group over 31 chars).
type TooComplexRegexError struct {
	Rule   string
	Reason string
}

// Error implements the error interface for *TooComplexRegexError.
func (e *TooComplexRegexError) Error() (s string) {
	return fmt.Sprintf("too complex regex (%s): %s", e.Reason, e.Rule)
}

// LimitationError reports that max_rules or max_regex_rules was exceeded
// and excess rules were excluded, per §4.7's "Limit enforcement".
type LimitationError struct {
	NumberOfMaximumRules             int
	NumberOfExcludedDeclarativeRules int
	ExcludedRulesIDs                 []int
}

// Error implements the error interface for *LimitationError.
func (e *LimitationError) Error() (s string) {
	return fmt.Sprintf(
		"limit %d exceeded: excluded %d rule(s)",
		e.NumberOfMaximumRules,
		e.NumberOfExcludedDeclarativeRules,
	)
}

// UnavailableFilterSourceError reports that recovering a rule's original
// source text (for source mapping or $badfilter recombination) failed.
type UnavailableFilterSourceError struct {
	FilterID  int
	LineIndex int
	Err       error
}

// Error implements the error interface for *UnavailableFilterSourceError.
func (e *UnavailableFilterSourceError) Error() (s string) {
	return fmt.Sprintf("filter %d line %d unavailable: %s", e.FilterID, e.LineIndex, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *UnavailableFilterSourceError) Unwrap() (err error) { return e.Err }
