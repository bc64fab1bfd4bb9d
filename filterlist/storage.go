package filterlist

import (
	"github.com/AdguardTeam/golibs/errors"

	"github.com/filterforge/urlfilter/rules"
)

// ErrDuplicateFilterListID is returned by NewRuleStorage when two lists
// share the same GetID() value.
var ErrDuplicateFilterListID = errors.Error("duplicate filter list id")

// ErrUnknownFilterListID is returned by RetrieveSourceText when no list with
// the requested id was ever added to the storage.
var ErrUnknownFilterListID = errors.Error("unknown filter list id")

// RuleKindMask selects which kinds of rule a RuleStorageScanner should
// yield, per the "create_scanner(mask: {network|cosmetic|host})" interface.
type RuleKindMask uint8

// Rule kind bits, combinable with |.
const (
	NetworkRules RuleKindMask = 1 << iota
	CosmeticRules
	HostRules

	AllRules = NetworkRules | CosmeticRules | HostRules
)

func (m RuleKindMask) matches(rule rules.Rule) (ok bool) {
	switch rule.(type) {
	case *rules.NetworkRule:
		return m&NetworkRules != 0
	case *rules.CosmeticRule:
		return m&CosmeticRules != 0
	case *rules.HostRule:
		return m&HostRules != 0
	default:
		return false
	}
}

// entry is one parsed rule as held by the storage, addressable by its
// position in RuleStorage.entries (its storage_idx).
type entry struct {
	rule         rules.Rule
	filterListID int
	lineIndex    int
}

// LoadError pairs a line's *rules.SyntaxError with the filter list it came
// from, for callers that want to report a build's discarded lines without
// reopening the list themselves.
type LoadError struct {
	Err          *rules.SyntaxError
	FilterListID int
}

// Error implements the error interface for *LoadError.
func (e *LoadError) Error() (s string) { return e.Err.Error() }

// Unwrap returns the underlying syntax error for errors.Is/errors.As.
func (e *LoadError) Unwrap() (err error) { return e.Err }

// RuleStorage holds every rule parsed from a set of named lists and assigns
// each one a stable, monotonically increasing storage index. Index tables
// built by the network engine store these integers rather than Rule
// pointers (the cosmetic engine keeps *rules.CosmeticRule pointers), per
// spec: compact index tables, and a reload that
// rebuilds a new RuleStorage never invalidates indices held by a still-live
// engine snapshot built from the old one.
type RuleStorage struct {
	lists   map[int]Interface
	entries []entry
	errs    []*LoadError
}

// NewRuleStorage scans every list in lists exactly once and returns a
// RuleStorage over the combined rule set. It is an error for two lists to
// report the same GetID().
func NewRuleStorage(lists []Interface) (s *RuleStorage, err error) {
	return NewRuleStorageChunked(lists, 0, nil)
}

// NewRuleStorageChunked is NewRuleStorage with a cooperative-yield hook: once
// every chunkSize parsed rules (across all lists combined), yield is called
// before parsing continues. A chunkSize of 0 or a nil yield disables
// chunking entirely, which is what NewRuleStorage does.
//
// If yield returns an error, the scan stops immediately and that error is
// returned, leaving s half-built and unreturned — callers that chunk a
// reconfiguration use this to let a cancellation abort the new storage
// without disturbing whatever storage is already installed.
func NewRuleStorageChunked(
	lists []Interface,
	chunkSize int,
	yield func() error,
) (s *RuleStorage, err error) {
	s = &RuleStorage{
		lists: make(map[int]Interface, len(lists)),
	}

	sinceYield := 0

	for _, l := range lists {
		id := l.GetID()
		if _, ok := s.lists[id]; ok {
			return nil, ErrDuplicateFilterListID
		}

		s.lists[id] = l

		scanner := l.NewScanner()
		for scanner.Scan() {
			rule, lineIndex := scanner.Rule()
			storageIdx := int64(len(s.entries))

			switch r := rule.(type) {
			case *rules.NetworkRule:
				r.StorageIndex = storageIdx
			case *rules.CosmeticRule:
				r.StorageIndex = storageIdx
			}

			s.entries = append(s.entries, entry{
				rule:         rule,
				filterListID: id,
				lineIndex:    lineIndex,
			})

			sinceYield++
			if chunkSize > 0 && yield != nil && sinceYield >= chunkSize {
				sinceYield = 0

				if yieldErr := yield(); yieldErr != nil {
					return nil, yieldErr
				}
			}
		}

		for _, synErr := range scanner.Errors() {
			s.errs = append(s.errs, &LoadError{Err: synErr, FilterListID: id})
		}
	}

	return s, nil
}

// Errors returns every line-level syntax error accumulated while building
// s, across every list. It is empty for a storage built with no malformed
// lines.
func (s *RuleStorage) Errors() (errs []*LoadError) { return s.errs }

// Len returns the number of rules held by the storage.
func (s *RuleStorage) Len() (n int) { return len(s.entries) }

// Retrieve returns the rule at storageIdx, and false if storageIdx is out
// of range.
func (s *RuleStorage) Retrieve(storageIdx int64) (rule rules.Rule, ok bool) {
	if storageIdx < 0 || int(storageIdx) >= len(s.entries) {
		return nil, false
	}

	return s.entries[storageIdx].rule, true
}

// RetrieveNetworkRule is a typed convenience wrapper around Retrieve for
// network-engine callers.
func (s *RuleStorage) RetrieveNetworkRule(storageIdx int64) (rule *rules.NetworkRule) {
	r, ok := s.Retrieve(storageIdx)
	if !ok {
		return nil
	}

	rule, _ = r.(*rules.NetworkRule)

	return rule
}

// RetrieveHostRule is a typed convenience wrapper around Retrieve for the
// DNS-style host-rule lookup table.
func (s *RuleStorage) RetrieveHostRule(storageIdx int64) (rule *rules.HostRule) {
	r, ok := s.Retrieve(storageIdx)
	if !ok {
		return nil
	}

	rule, _ = r.(*rules.HostRule)

	return rule
}

// RetrieveSourceText returns the original line text for (filterListID,
// lineIndex), for recovering a rule's source when building a source map or
// reporting a declarative-conversion error.
func (s *RuleStorage) RetrieveSourceText(filterListID, lineIndex int) (text string, err error) {
	l, ok := s.lists[filterListID]
	if !ok {
		return "", ErrUnknownFilterListID
	}

	return l.RetrieveRuleText(lineIndex)
}

// EntryInfo returns the (filterListID, lineIndex) a stored rule came from,
// for callers (the declarative converter's source mapper) that need to
// recover provenance without re-deriving it from the rule itself.
func (s *RuleStorage) EntryInfo(storageIdx int64) (filterListID, lineIndex int, ok bool) {
	if storageIdx < 0 || int(storageIdx) >= len(s.entries) {
		return 0, 0, false
	}

	e := s.entries[storageIdx]

	return e.filterListID, e.lineIndex, true
}

// Close closes every underlying list.
func (s *RuleStorage) Close() (err error) {
	for _, l := range s.lists {
		if closeErr := l.Close(); closeErr != nil {
			err = closeErr
		}
	}

	return err
}

// NewRuleStorageScanner returns a scanner over every already-parsed rule in
// s whose kind is set in mask. Because rules are parsed once at
// construction time, repeated scans (e.g. one to count rules, one to build
// indexes) are cheap and never re-invoke the line parser.
func (s *RuleStorage) NewRuleStorageScanner(mask RuleKindMask) (sc *RuleStorageScanner) {
	return &RuleStorageScanner{storage: s, mask: mask}
}

// RuleStorageScanner walks a RuleStorage's entries, yielding the
// (rule, storage_idx) pairs whose kind matches the scanner's mask.
type RuleStorageScanner struct {
	storage *RuleStorage
	mask    RuleKindMask

	pos int
	cur int64
}

// Scan advances to the next matching rule, returning false once the
// storage is exhausted.
func (sc *RuleStorageScanner) Scan() (ok bool) {
	for sc.pos < len(sc.storage.entries) {
		idx := sc.pos
		e := sc.storage.entries[idx]
		sc.pos++

		if !sc.mask.matches(e.rule) {
			continue
		}

		sc.cur = int64(idx)

		return true
	}

	return false
}

// Rule returns the rule and storage index produced by the most recent
// successful Scan call.
func (sc *RuleStorageScanner) Rule() (rule rules.Rule, storageIdx int64) {
	e := sc.storage.entries[sc.cur]

	return e.rule, sc.cur
}
