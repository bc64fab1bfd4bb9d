package declarative

import "strings"

// conditionKey returns a stable string uniquely identifying a Condition's
// request-matching shape, ignoring anything to do with the rule's action.
// Two $removeparam rules sharing a conditionKey merge into a single
// declarative rule, per §4.7's removeparam grouping.
func conditionKey(c Condition) (key string) {
	var b strings.Builder

	b.WriteString(c.URLFilter)
	b.WriteByte(0)
	b.WriteString(c.RegexFilter)
	b.WriteByte(0)

	if c.IsURLFilterCaseSensitive != nil && *c.IsURLFilterCaseSensitive {
		b.WriteByte('C')
	}
	b.WriteByte(0)

	b.WriteString(strings.Join(c.ResourceTypes, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(c.ExcludedResourceTypes, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(c.InitiatorDomains, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(c.ExcludedInitiatorDomains, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(c.ExcludedRequestDomains, ","))
	b.WriteByte(0)
	b.WriteString(string(c.DomainType))

	return b.String()
}

// removeparamGroup tracks one in-progress merge of $removeparam rules that
// share a conditionKey, so later rules update the same declarative rule's
// query transform instead of emitting a new one.
type removeparamGroup struct {
	pendingIdx int
	transform  *URLTransform
	seenParams map[string]struct{}
	removeAll  bool
}

// merge folds one more $removeparam rule's value into g's transform.  An
// empty/absent value means "remove every query parameter", which once set
// can't be narrowed back by a later specific value (§4.7: "If any merged
// rule is empty-spec, it becomes transform.query = \"\"").
func (g *removeparamGroup) merge(value string, hasValue bool) {
	if !hasValue || value == "" {
		g.removeAll = true
		empty := ""
		g.transform.Query = &empty
		g.transform.QueryTransform = nil

		return
	}

	if g.removeAll {
		return
	}

	if _, seen := g.seenParams[value]; seen {
		return
	}

	g.seenParams[value] = struct{}{}
	g.transform.QueryTransform.RemoveParams = append(g.transform.QueryTransform.RemoveParams, value)
}
