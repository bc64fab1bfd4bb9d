package declarative

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// patternHash returns the stable hash RulesHashMap keys on. Collisions are
// tolerated — callers confirm a match by reparsing and comparing the full
// pattern, mirroring how the network engine's own shortcut index (§4.3)
// treats its hash as a candidate filter, not a proof.
func patternHash(pattern string) (h uint64) {
	return xxhash.Sum64String(pattern)
}

// hashEntry is one RulesHashMap bucket member: the source location plus the
// raw rule text, kept alongside so a $badfilter cross-ruleset cancellation
// can reparse it without going back through a RuleStorage.
type hashEntry struct {
	Ref  SourceRef
	Text string
}

// RulesHashMap indexes a converted rule set by its pattern hash, so a
// dynamically-loaded $badfilter rule from one rule set can find and cancel
// matching rules in another already-converted, independently stored rule
// set, per §4.7's cross-ruleset cancellation.
type RulesHashMap struct {
	buckets map[uint64][]hashEntry
}

// NewRulesHashMap returns an empty RulesHashMap.
func NewRulesHashMap() (m *RulesHashMap) {
	return &RulesHashMap{buckets: map[uint64][]hashEntry{}}
}

// Add indexes one rule's pattern and raw text under ref.
func (m *RulesHashMap) Add(pattern, text string, ref SourceRef) {
	h := patternHash(pattern)
	m.buckets[h] = append(m.buckets[h], hashEntry{Ref: ref, Text: text})
}

// Lookup returns every entry sharing pattern's hash — candidates a caller
// must still reparse and compare, since the hash alone doesn't prove a
// pattern match.
func (m *RulesHashMap) Lookup(pattern string) (entries []hashEntry) {
	return m.buckets[patternHash(pattern)]
}

// Len returns the number of indexed rule entries across all buckets; rules
// sharing a pattern each count once.
func (m *RulesHashMap) Len() (n int) {
	for _, bucket := range m.buckets {
		n += len(bucket)
	}

	return n
}

// HashMapEntry is one rules_hash_map bucket as serialized: the pattern hash
// plus every (filter, line) location that hashed to it, per spec segment 3's
// "(hash, [(filter_id, source_rule_index), …]), …" shape. The rule text
// itself is deliberately not duplicated here — it is recovered through
// SourceMap/SourceTextLookup on demand, the same path ResolveSource uses.
type HashMapEntry struct {
	Hash uint64      `json:"hash"`
	Refs []SourceRef `json:"refs"`
}

// Entries returns m's buckets as a hash-ordered slice, ready for
// serialization as the rules_hash_map segment. Ordering by hash rather than
// map iteration order is what gives repeated conversions of the same input
// byte-for-byte identical serialized output.
func (m *RulesHashMap) Entries() (out []HashMapEntry) {
	hashes := make([]uint64, 0, len(m.buckets))
	for h := range m.buckets {
		hashes = append(hashes, h)
	}

	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	out = make([]HashMapEntry, 0, len(hashes))
	for _, h := range hashes {
		bucket := m.buckets[h]

		refs := make([]SourceRef, len(bucket))
		for i, e := range bucket {
			refs[i] = e.Ref
		}

		out = append(out, HashMapEntry{Hash: h, Refs: refs})
	}

	return out
}

// LoadRulesHashMap rebuilds a RulesHashMap from its serialized entries,
// resolving each entry's rule text through lookup so the result can still
// back CancelAcrossRulesets after a round trip through disk — otherwise a
// deserialized static rule set could never support the dynamic-over-static
// $badfilter recombination that is the whole point of indexing it.
func LoadRulesHashMap(entries []HashMapEntry, lookup SourceTextLookup) (m *RulesHashMap, err error) {
	m = NewRulesHashMap()

	for _, entry := range entries {
		bucket := make([]hashEntry, 0, len(entry.Refs))
		for _, ref := range entry.Refs {
			text, lookupErr := lookup(ref.FilterID, ref.LineIndex)
			if lookupErr != nil {
				return nil, &UnavailableFilterSourceError{FilterID: ref.FilterID, LineIndex: ref.LineIndex, Err: lookupErr}
			}

			bucket = append(bucket, hashEntry{Ref: ref, Text: text})
		}

		m.buckets[entry.Hash] = bucket
	}

	return m, nil
}
