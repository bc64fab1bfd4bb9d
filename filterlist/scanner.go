package filterlist

import (
	"github.com/filterforge/urlfilter/rules"
)

// Scanner walks a rule list's lines, lazily parsing each one and skipping
// blanks, comments, and (optionally) cosmetic rules. A syntax error on one
// line never stops the scan; it is recorded and the line is skipped, per
// the "failure of one line does not abort list loading" requirement.
type Scanner struct {
	filterListID   int
	lines          []string
	ignoreCosmetic bool

	pos int

	rule      rules.Rule
	lineIndex int

	errs []*rules.SyntaxError
}

func newScanner(filterListID int, lines []string, ignoreCosmetic bool) (s *Scanner) {
	return &Scanner{
		filterListID:   filterListID,
		lines:          lines,
		ignoreCosmetic: ignoreCosmetic,
	}
}

// Scan advances the scanner to the next successfully parsed rule. It
// returns false once the list is exhausted; callers should then inspect
// Errors for any lines that failed to parse.
func (s *Scanner) Scan() (ok bool) {
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]
		idx := s.pos
		s.pos++

		if s.ignoreCosmetic {
			if _, found := rules.HasCosmeticMarker(line); found {
				continue
			}
		}

		rule, err := rules.ParseRule(line, s.filterListID)
		if err != nil {
			s.errs = append(s.errs, rules.NewSyntaxError(idx, line, err))

			continue
		}

		if rule == nil {
			continue
		}

		s.rule = rule
		s.lineIndex = idx

		return true
	}

	return false
}

// Rule returns the rule produced by the most recent successful Scan call,
// along with the zero-based line index it came from.
func (s *Scanner) Rule() (rule rules.Rule, lineIndex int) {
	return s.rule, s.lineIndex
}

// Errors returns every syntax error accumulated so far.
func (s *Scanner) Errors() (errs []*rules.SyntaxError) {
	return s.errs
}
