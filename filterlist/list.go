// Package filterlist contains the rule storage layer: named rule lists, a
// scanner that lazily turns lines into rules.Rule values, and a RuleStorage
// that assigns every parsed rule a stable storage index so that the network
// and cosmetic engines can index rules by integer rather than by pointer.
package filterlist

import (
	"strings"

	"github.com/AdguardTeam/golibs/errors"
)

// Interface is a named, seekable source of filter rules. Implementations
// back a RuleStorage; the one provided here is the in-memory
// BytesRuleList, built by NewBytes or, from a string, by NewString.
type Interface interface {
	// GetID returns the filter list's identifier, used as the rule's
	// FilterListID and as the first element of a source-map entry.
	GetID() (id int)

	// NewScanner returns a fresh line Scanner over the list's content,
	// starting at line 0.
	NewScanner() (s *Scanner)

	// RetrieveRuleText returns the raw text of the line at lineIndex, for
	// source mapping and declarative-conversion error messages.
	RetrieveRuleText(lineIndex int) (text string, err error)

	// Close releases any resources held by the list.
	Close() (err error)
}

// ErrLineIndexOutOfRange is returned by RetrieveRuleText when lineIndex is
// outside the list's line count.
var ErrLineIndexOutOfRange = errors.Error("line index out of range")

// BytesConfig configures NewBytes.
type BytesConfig struct {
	// RulesText is the raw, newline-separated rule text.
	RulesText []byte

	// ID is the filter list's identifier.
	ID int

	// IgnoreCosmetic, when true, makes the list's Scanner skip cosmetic
	// rule lines entirely instead of parsing them. DNS-only engines set
	// this since they have no use for element-hiding or scriptlet rules.
	IgnoreCosmetic bool
}

// BytesRuleList is an in-memory, byte-slice-backed Interface implementation.
type BytesRuleList struct {
	id             int
	text           string
	lines          []string
	ignoreCosmetic bool
}

// type check
var _ Interface = (*BytesRuleList)(nil)

// NewBytes returns a new BytesRuleList built from c.
func NewBytes(c *BytesConfig) (l *BytesRuleList) {
	text := string(c.RulesText)

	return &BytesRuleList{
		id:             c.ID,
		text:           text,
		lines:          strings.Split(text, "\n"),
		ignoreCosmetic: c.IgnoreCosmetic,
	}
}

// NewString is a convenience constructor for tests and callers that already
// hold the rule text as a string; it is equivalent to NewBytes with
// RulesText: []byte(text).
func NewString(id int, text string) (l *BytesRuleList) {
	return NewBytes(&BytesConfig{ID: id, RulesText: []byte(text)})
}

// GetID implements the Interface interface for *BytesRuleList.
func (l *BytesRuleList) GetID() (id int) { return l.id }

// NewScanner implements the Interface interface for *BytesRuleList.
func (l *BytesRuleList) NewScanner() (s *Scanner) {
	return newScanner(l.id, l.lines, l.ignoreCosmetic)
}

// RetrieveRuleText implements the Interface interface for *BytesRuleList.
func (l *BytesRuleList) RetrieveRuleText(lineIndex int) (text string, err error) {
	if lineIndex < 0 || lineIndex >= len(l.lines) {
		return "", ErrLineIndexOutOfRange
	}

	return l.lines[lineIndex], nil
}

// Close implements the Interface interface for *BytesRuleList. BytesRuleList
// holds no external resources, so Close is a no-op.
func (l *BytesRuleList) Close() (err error) { return nil }
