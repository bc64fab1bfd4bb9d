package rules

import "strings"

// CosmeticRuleKind identifies what a cosmetic rule's body does, per spec §3.
type CosmeticRuleKind int

// Cosmetic rule kinds.
const (
	ElementHiding CosmeticRuleKind = iota
	CssInjection
	ScriptletInjection
	HtmlFiltering
	JsInjection
)

// String implements the fmt.Stringer interface for CosmeticRuleKind.
func (k CosmeticRuleKind) String() (s string) {
	switch k {
	case ElementHiding:
		return "element-hiding"
	case CssInjection:
		return "css-injection"
	case ScriptletInjection:
		return "scriptlet-injection"
	case HtmlFiltering:
		return "html-filtering"
	case JsInjection:
		return "js-injection"
	default:
		return "unknown"
	}
}

// cosmeticMarker describes one of the cosmetic separators recognized by
// spec §4.1 step 2.
type cosmeticMarker struct {
	text        string
	kind        CosmeticRuleKind
	isAllowlist bool
	forceExtCSS bool
}

// cosmeticMarkers lists every recognized cosmetic separator. No entry is a
// prefix of another, so at any position of a line at most one can match.
var cosmeticMarkers = []cosmeticMarker{
	{"#@$?#", CssInjection, true, true},
	{"#$?#", CssInjection, false, true},
	{"#@?#", ElementHiding, true, true},
	{"#?#", ElementHiding, false, true},
	{"#@$#", CssInjection, true, false},
	{"#$#", CssInjection, false, false},
	{"#@%#", ScriptletInjection, true, false},
	{"#%#", ScriptletInjection, false, false},
	{"#@#", ElementHiding, true, false},
	{"##", ElementHiding, false, false},
	{"$@$", HtmlFiltering, true, false},
	{"$$", HtmlFiltering, false, false},
}

// HasCosmeticMarker returns true, and the zero-based index of the marker, if
// line contains a recognized cosmetic separator.
func HasCosmeticMarker(line string) (index int, ok bool) {
	for i := 0; i < len(line); i++ {
		for _, m := range cosmeticMarkers {
			if strings.HasPrefix(line[i:], m.text) {
				return i, true
			}
		}
	}

	return 0, false
}

// splitCosmeticMarker finds the leftmost, longest-matching cosmetic marker
// in line and splits it into the pre-marker text, the marker descriptor,
// and the post-marker body.
func splitCosmeticMarker(line string) (pre string, marker cosmeticMarker, body string, ok bool) {
	for i := 0; i < len(line); i++ {
		for _, m := range cosmeticMarkers {
			if strings.HasPrefix(line[i:], m.text) {
				return line[:i], m, line[i+len(m.text):], true
			}
		}
	}

	return "", cosmeticMarker{}, "", false
}

// extendedCSSPseudoClasses is the exhaustive set of ExtendedCSS pseudo-class
// names from spec §4.1 step 3.
var extendedCSSPseudoClasses = []string{
	":has", ":has-text", ":contains", ":matches-css", ":matches-attr",
	":matches-property", ":nth-ancestor", ":upward", ":xpath", ":if",
	":if-not", ":remove", ":-abp-contains", ":-abp-has",
}

// isExtendedCSSSelector returns true if selector uses ExtendedCSS syntax:
// one of the known pseudo-classes, or a `-ext-` prefixed attribute selector.
func isExtendedCSSSelector(selector string) (ok bool) {
	for _, p := range extendedCSSPseudoClasses {
		if strings.Contains(selector, p) {
			return true
		}
	}

	return strings.Contains(selector, "[-ext-")
}

// CosmeticRule is a parsed cosmetic (element-hiding, CSS/JS injection,
// scriptlet, or HTML filtering) rule, per spec §3.
type CosmeticRule struct {
	PermittedDomains  *DomainList
	RestrictedDomains *DomainList

	PathPattern *Pattern
	URLPattern  *Pattern

	// Selector is the CSS selector list for ElementHiding, CssInjection and
	// HtmlFiltering rules.
	Selector string

	// Declaration is the CSS declaration block for CssInjection rules.
	Declaration string

	// IsRemove is true for a CssInjection `{ remove: true; }` rule.
	IsRemove bool

	// ScriptletName and ScriptletArgs hold a parsed
	// //scriptlet('name', 'arg0', …) invocation.
	ScriptletName string
	ScriptletArgs []string

	// ScriptBody is the raw script text of a JsInjection rule.
	ScriptBody string

	raw string

	filterListID int

	Kind CosmeticRuleKind

	IsAllowlist   bool
	IsExtendedCSS bool

	// StorageIndex is the rule's position in the RuleStorage that loaded
	// it, assigned once at load time.
	StorageIndex int64
}

// Text implements the Rule interface for *CosmeticRule.
func (r *CosmeticRule) Text() (s string) { return r.raw }

// FilterListID implements the Rule interface for *CosmeticRule.
func (r *CosmeticRule) FilterListID() (id int) { return r.filterListID }

// type check
var _ Rule = (*CosmeticRule)(nil)

// IsGeneric returns true if the rule has no permitted-domain restriction,
// i.e. it applies to every hostname (subject to restricted domains).
func (r *CosmeticRule) IsGeneric() (ok bool) {
	return r.PermittedDomains.Empty()
}

// Body returns the rule's comparison key for allowlist-cancellation
// purposes (spec §4.5 step 4: "same body (selector or declaration list or
// scriptlet invocation)").
func (r *CosmeticRule) Body() (body string) {
	switch r.Kind {
	case CssInjection:
		return r.Selector + "{" + r.Declaration + "}"
	case ScriptletInjection:
		return r.ScriptletName + "(" + strings.Join(r.ScriptletArgs, ",") + ")"
	case JsInjection:
		return r.ScriptBody
	default:
		return r.Selector
	}
}

// ParseCosmeticRule parses a cosmetic rule line, locating its marker with
// splitCosmeticMarker, per spec §4.1 step 3.
func ParseCosmeticRule(text string, filterListID int) (rule *CosmeticRule, err error) {
	pre, marker, body, ok := splitCosmeticMarker(text)
	if !ok {
		return nil, fmtErr("no cosmetic marker found")
	}

	rule = &CosmeticRule{
		raw:          text,
		filterListID: filterListID,
		Kind:         marker.kind,
		IsAllowlist:  marker.isAllowlist,
	}

	domainsText, pathPat, urlPat, err := parseCosmeticModifiers(pre)
	if err != nil {
		return nil, err
	}

	rule.PathPattern = pathPat
	rule.URLPattern = urlPat

	if domainsText != "" {
		perm, restr, dErr := ParseDomainList(domainsText, ',')
		if dErr != nil {
			return nil, dErr
		}

		rule.PermittedDomains = perm
		rule.RestrictedDomains = restr
	}

	switch marker.kind {
	case ElementHiding:
		if strings.TrimSpace(body) == "" {
			return nil, ErrInvalidSelector
		}

		rule.Selector = body
		rule.IsExtendedCSS = marker.forceExtCSS || isExtendedCSSSelector(body)
	case CssInjection:
		if err = parseCSSInjection(rule, body); err != nil {
			return nil, err
		}

		rule.IsExtendedCSS = marker.forceExtCSS || isExtendedCSSSelector(rule.Selector)
	case ScriptletInjection:
		if strings.HasPrefix(strings.TrimSpace(body), "//scriptlet(") {
			if err = parseScriptlet(rule, body); err != nil {
				return nil, err
			}
		} else {
			rule.Kind = JsInjection
			rule.ScriptBody = body
		}
	case HtmlFiltering:
		if strings.TrimSpace(body) == "" {
			return nil, ErrInvalidSelector
		}

		rule.Selector = body
	}

	return rule, nil
}

// parseCosmeticModifiers strips an optional leading `[$modifier=value,…]`
// block from pre (the text before the cosmetic marker), returning the
// remaining domain list text and any $path/$url patterns.  Per spec §4.1
// step 3, $url is mutually exclusive with $domain and $path.
func parseCosmeticModifiers(pre string) (domainsText string, pathPat, urlPat *Pattern, err error) {
	if !strings.HasPrefix(pre, "[$") {
		return pre, nil, nil, nil
	}

	end := strings.Index(pre, "]")
	if end < 0 {
		return "", nil, nil, fmtErr("unterminated cosmetic modifier block")
	}

	modBlock := pre[2:end]
	rest := pre[end+1:]

	var hasURL, hasDomainOrPath bool

	for _, m := range splitUnescaped(modBlock, ',') {
		name, value, hasValue := strings.Cut(m, "=")
		name = strings.TrimSpace(name)

		switch name {
		case "path":
			if !hasValue {
				return "", nil, nil, fmtErr("$path requires a value")
			}

			pathPat = NewPattern(value, false)
			hasDomainOrPath = true
		case "url":
			if !hasValue {
				return "", nil, nil, fmtErr("$url requires a value")
			}

			urlPat = NewPattern(value, false)
			hasURL = true
		case "domain":
			if !hasValue {
				return "", nil, nil, fmtErr("$domain requires a value")
			}

			rest = value
			hasDomainOrPath = true
		default:
			return "", nil, nil, fmtErr("%w: %q", ErrUnknownModifier, name)
		}
	}

	if hasURL && hasDomainOrPath {
		return "", nil, nil, fmtErr("%w: $url is mutually exclusive with $domain and $path", ErrConflictingModifiers)
	}

	return rest, pathPat, urlPat, nil
}

// urlLoadingFunctions are the CSS functions spec §4.1 step 3 forbids inside
// a CSS injection declaration block, since they can load external
// resources.
var urlLoadingFunctions = []string{
	"url(", "image-set(", "image(", "cross-fade(", "-webkit-image-set(",
}

// parseCSSInjection splits body into selector and declaration, validating
// per spec §4.1 step 3: no backslashes, no URL-loading functions, and a
// `{ remove: true; }` body forbids any other declaration.
func parseCSSInjection(rule *CosmeticRule, body string) (err error) {
	open := strings.IndexByte(body, '{')
	closeIdx := strings.LastIndexByte(body, '}')
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return ErrInvalidSelector
	}

	selector := strings.TrimSpace(body[:open])
	decl := strings.TrimSpace(body[open+1 : closeIdx])

	if selector == "" {
		return ErrInvalidSelector
	}

	if strings.Contains(decl, "\\") {
		return ErrUnsafeCSS
	}

	lowerDecl := strings.ToLower(decl)
	for _, fn := range urlLoadingFunctions {
		if strings.Contains(lowerDecl, fn) {
			return ErrUnsafeCSS
		}
	}

	normalized := strings.TrimSuffix(strings.ReplaceAll(decl, " ", ""), ";")
	if normalized == "remove:true" {
		rule.IsRemove = true
		rule.Selector = selector
		rule.Declaration = decl

		return nil
	}

	if strings.Contains(lowerDecl, "remove:") || strings.Contains(lowerDecl, "remove :") {
		return ErrUnsafeCSS
	}

	rule.Selector = selector
	rule.Declaration = decl

	return nil
}

// parseScriptlet parses a `//scriptlet('name', 'arg0', …)` invocation, per
// spec §4.1 step 3: "validate mask, parentheses, at least a name;
// parameters are comma-separated, quote-aware."
func parseScriptlet(rule *CosmeticRule, body string) (err error) {
	body = strings.TrimSpace(body)

	const prefix = "//scriptlet("
	if !strings.HasPrefix(body, prefix) || !strings.HasSuffix(body, ")") {
		return fmtErr("malformed scriptlet invocation")
	}

	argsText := body[len(prefix) : len(body)-1]

	args := splitScriptletArgs(argsText)
	if len(args) == 0 || args[0] == "" {
		return ErrEmptyScriptletName
	}

	rule.ScriptletName = args[0]
	rule.ScriptletArgs = args

	return nil
}

// splitScriptletArgs splits a scriptlet argument list on commas, respecting
// single/double quoting, and strips the quotes from each argument.
func splitScriptletArgs(s string) (args []string) {
	var cur strings.Builder

	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(s) {
				cur.WriteByte(s[i+1])
				i++

				continue
			}

			if c == quote {
				quote = 0

				continue
			}

			cur.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			if c != ' ' || cur.Len() > 0 {
				cur.WriteByte(c)
			}
		}
	}
	args = append(args, strings.TrimSpace(cur.String()))

	return args
}
