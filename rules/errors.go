package rules

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// fmtErr formats an error, supporting %w the way fmt.Errorf does, so that
// wrapped sentinel errors (ErrUnknownModifier, etc.) keep participating in
// errors.Is/errors.As chains up through the build's error collector.
func fmtErr(format string, args ...any) (err error) {
	return fmt.Errorf(format, args...)
}

// SyntaxError is returned by the parser when a rule line is malformed.  It
// carries enough context (line index, text, reason) for the caller to
// report a precise diagnostic, per spec §4.1/§7.
type SyntaxError struct {
	// Err is the underlying reason the line failed to parse.
	Err error

	// Text is the offending rule line.
	Text string

	// LineIndex is the zero-based line number within its filter list.
	LineIndex int
}

// Error implements the error interface for *SyntaxError.
func (e *SyntaxError) Error() (s string) {
	return fmt.Sprintf("line %d: %q: %s", e.LineIndex, e.Text, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *SyntaxError) Unwrap() (err error) { return e.Err }

// NewSyntaxError is a constructor for *SyntaxError.
func NewSyntaxError(lineIndex int, text string, err error) (syntaxErr *SyntaxError) {
	return &SyntaxError{
		LineIndex: lineIndex,
		Text:      text,
		Err:       err,
	}
}

// Sentinel error values for common, named parse failures.  These exist
// alongside the free-form errors returned by individual parse steps so that
// callers can errors.Is against the well-known cases spec §4.1/§7 calls out
// by name.
var (
	// ErrTooShort is returned for a rule line of 3 characters or fewer, per
	// spec §6: "A rule line ≤ 3 chars is rejected as too short."
	ErrTooShort = errors.Error("rule line too short")

	// ErrUnknownModifier is returned when a network-rule modifier name is
	// not recognized.
	ErrUnknownModifier = errors.Error("unknown modifier")

	// ErrConflictingModifiers is returned for modifier combinations the
	// spec calls out as mutually exclusive (e.g. $url with $domain).
	ErrConflictingModifiers = errors.Error("conflicting modifiers")

	// ErrEmptyScriptletName is returned for a scriptlet invocation with no
	// name argument.
	ErrEmptyScriptletName = errors.Error("empty scriptlet name")

	// ErrUnsafeCSS is returned for a CSS injection body using a forbidden
	// construct (backslashes, URL-loading functions, or mixing `remove`
	// with other declarations).
	ErrUnsafeCSS = errors.Error("unsafe css injection body")

	// ErrInvalidSelector is returned when a cosmetic rule's selector body
	// fails validation.
	ErrInvalidSelector = errors.Error("invalid selector")

	// ErrInvalidHostRule is returned when a line resembling a host rule
	// (`IP host...`) doesn't actually parse as one.
	ErrInvalidHostRule = errors.Error("invalid host rule")
)
