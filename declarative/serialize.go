package declarative

import "encoding/json"

// Blob is the four-segment serialized form of a converted RuleSet, per
// §4.7/§6's ordered segments: the declarative rules themselves, the
// provenance needed to recover their source text, the pattern index used
// for cross-ruleset $badfilter lookups, and the $badfilter rule texts that
// were pulled out during conversion rather than lowered directly.
type Blob struct {
	ID               string              `json:"id"`
	RulesCount       int                 `json:"rulesCount"`
	RegexpRulesCount int                 `json:"regexpRulesCount"`
	DeclarativeRules []Rule              `json:"declarativeRules"`
	SourceMap        map[int][]SourceRef `json:"sourceMap"`
	RulesHashMap     []HashMapEntry      `json:"rulesHashMap"`
	BadFilterRules   []string            `json:"badFilterRules"`
}

// Marshal renders rs and its pulled-out $badfilter entries as a Blob, ready
// for JSON encoding. Field order in the Blob struct, and the hash-ordering
// RulesHashMap.Entries already applies, is what gives repeated conversions
// of the same input byte-for-byte identical output — not map iteration
// order, which Go deliberately randomizes.
func Marshal(rs *RuleSet, badFilterEntries []SourceEntry) (blob Blob) {
	texts := make([]string, len(badFilterEntries))
	for i, e := range badFilterEntries {
		texts[i] = e.Rule.Text()
	}

	return Blob{
		ID:               rs.ID,
		RulesCount:       rs.RulesCount,
		RegexpRulesCount: rs.RegexpRulesCount,
		DeclarativeRules: rs.Rules,
		SourceMap:        map[int][]SourceRef(rs.SourceMap),
		RulesHashMap:     rs.HashMap.Entries(),
		BadFilterRules:   texts,
	}
}

// MarshalJSON is a convenience wrapper returning the Blob's canonical JSON
// encoding directly.
func MarshalJSON(rs *RuleSet, badFilterEntries []SourceEntry) (data []byte, err error) {
	return json.Marshal(Marshal(rs, badFilterEntries))
}

// Unmarshal reverses Marshal, rebuilding a RuleSet whose HashMap is
// resolved through lookup so CancelAcrossRulesets keeps working against a
// rule set that was loaded back from disk. The pulled-out $badfilter rule
// texts are returned alongside rather than folded back into rs: re-lowering
// them would be meaningless, since a $badfilter rule never becomes a
// declarative rule of its own.
func Unmarshal(blob Blob, lookup SourceTextLookup) (rs *RuleSet, badFilterTexts []string, err error) {
	hashMap, err := LoadRulesHashMap(blob.RulesHashMap, lookup)
	if err != nil {
		return nil, nil, err
	}

	rs = &RuleSet{
		ID:               blob.ID,
		Rules:            blob.DeclarativeRules,
		RulesCount:       blob.RulesCount,
		RegexpRulesCount: blob.RegexpRulesCount,
		SourceMap:        SourceMap(blob.SourceMap),
		HashMap:          hashMap,
	}

	return rs, blob.BadFilterRules, nil
}

// UnmarshalJSON parses data as a Blob and reverses it via Unmarshal.
func UnmarshalJSON(data []byte, lookup SourceTextLookup) (rs *RuleSet, badFilterTexts []string, err error) {
	var blob Blob

	err = json.Unmarshal(data, &blob)
	if err != nil {
		return nil, nil, err
	}

	return Unmarshal(blob, lookup)
}
