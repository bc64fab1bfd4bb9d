package declarative

// SourceRef names the filter-list line a declarative rule was lowered from.
type SourceRef struct {
	FilterID  int
	LineIndex int
}

// SourceMap records, for every declarative rule id, the source rule(s) that
// contributed to it — ordinarily one, but more than one after $removeparam
// grouping merges several NetworkRules into a single declarative rule.
type SourceMap map[int][]SourceRef

// add appends ref to id's contributor list.
func (m SourceMap) add(id int, ref SourceRef) {
	m[id] = append(m[id], ref)
}

// SourceTextLookup recovers a stored rule's original source line, for
// callers that want to show a human the rule behind a declarative id or
// that need to reparse it (cross-ruleset $badfilter cancellation).
type SourceTextLookup func(filterID, lineIndex int) (text string, err error)

// ResolveSource returns the source text for every SourceRef contributing to
// id, stopping at the first lookup failure.
func (m SourceMap) ResolveSource(id int, lookup SourceTextLookup) (texts []string, err error) {
	refs := m[id]
	texts = make([]string, 0, len(refs))

	for _, ref := range refs {
		text, lookupErr := lookup(ref.FilterID, ref.LineIndex)
		if lookupErr != nil {
			return nil, &UnavailableFilterSourceError{
				FilterID:  ref.FilterID,
				LineIndex: ref.LineIndex,
				Err:       lookupErr,
			}
		}

		texts = append(texts, text)
	}

	return texts, nil
}
