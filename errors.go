package urlfilter

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"

	"github.com/filterforge/urlfilter/rules"
)

// ErrInvalidConfig is returned by Start/Configure when the supplied Config
// is structurally unusable (e.g. two filters sharing a FilterID) — one of
// the two fatal cases spec §7 calls out, the other being storage
// corruption, which this engine has no way to produce since RuleStorage is
// built fresh on every Configure call.
var ErrInvalidConfig = errors.Error("invalid engine configuration")

// BuildError is one rule's worth of the build-time error collection spec
// §7 describes ("errors are collected during build ... never thrown past
// the collector"). Engine.LastBuildErrors returns these after a
// Start/Configure call; they never prevent the engine from becoming ready.
type BuildError struct {
	// Err is the underlying reason, typically a *rules.SyntaxError.
	Err error

	// FilterListID and LineIndex locate the offending line.
	FilterListID int
	LineIndex    int
}

// Error implements the error interface for *BuildError.
func (e *BuildError) Error() (s string) {
	return fmt.Sprintf("filter %d, line %d: %s", e.FilterListID, e.LineIndex, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *BuildError) Unwrap() (err error) { return e.Err }

// LimitationError reports that part of the input was dropped because it
// exceeded a configured limit (§7 "Limitation": TooManyRules,
// TooManyRegexpRules), as opposed to being malformed.
type LimitationError struct {
	// Limit names which bound was exceeded.
	Limit string

	// Count is how many items were dropped as a result.
	Count int
}

// Error implements the error interface for *LimitationError.
func (e *LimitationError) Error() (s string) {
	return fmt.Sprintf("%s: dropped %d rule(s)", e.Limit, e.Count)
}

// TooComplexRegexError reports that a rule's regex pattern exceeds the
// complexity this engine is willing to compile or lower to a declarative
// condition (§7 "Complexity", §8 scenario 6).
type TooComplexRegexError struct {
	// Rule is the offending rule's source text.
	Rule string

	// Reason names the specific complexity trigger (e.g. "too many
	// alternation groups").
	Reason string
}

// Error implements the error interface for *TooComplexRegexError.
func (e *TooComplexRegexError) Error() (s string) {
	return fmt.Sprintf("too complex regex (%s): %s", e.Reason, e.Rule)
}

// UnavailableFilterSourceError reports that a filter's content could not be
// read at all (§7 "Resource unavailable"). Unlike the other error kinds
// here, this one is surfaced to the caller rather than merely collected:
// Start/Configure fail outright rather than installing a partial engine.
type UnavailableFilterSourceError struct {
	// FilterID identifies the filter that failed to load.
	FilterID int

	// Err is the underlying I/O or fetch error.
	Err error
}

// Error implements the error interface for *UnavailableFilterSourceError.
func (e *UnavailableFilterSourceError) Error() (s string) {
	return fmt.Sprintf("filter %d unavailable: %s", e.FilterID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *UnavailableFilterSourceError) Unwrap() (err error) { return e.Err }

// collectBuildError wraps a *rules.SyntaxError surfaced by a filterlist
// scanner into the engine-level *BuildError shape, annotated with the
// filter list id the scanner was reading.
func collectBuildError(filterListID int, synErr *rules.SyntaxError) (buildErr *BuildError) {
	return &BuildError{
		Err:          synErr,
		FilterListID: filterListID,
		LineIndex:    synErr.LineIndex,
	}
}
