package rules

import (
	"regexp"
	"strings"
)

// patternShape classifies how a Pattern is matched, chosen once at build
// time so matching never has to re-inspect the original text.
type patternShape int

const (
	// shapeSubstring means the pattern equals its shortcut: a plain,
	// lowercase substring match against the URL.
	shapeSubstring patternShape = iota

	// shapeHostname means the pattern has the `||host^` shape and is
	// matched by hostname suffix comparison, never regex.
	shapeHostname

	// shapeRegexp means the pattern was lowered to a compiled regexp.
	shapeRegexp

	// shapeInvalid means regex compilation failed; the pattern never
	// matches.
	shapeInvalid
)

// Pattern is a lowered, precompiled form of a network or cosmetic-modifier
// URL pattern.  It is built once from the pattern text and reused for every
// match.
type Pattern struct {
	re *regexp.Regexp

	// text is the original pattern text, exactly as written in the rule.
	text string

	// shortcut is the longest literal substring of the pattern, lowercased.
	// It is always populated, even for regex and hostname patterns, since
	// the network engine's shortcut index relies on it.
	shortcut string

	// hostname is populated only when shape == shapeHostname.
	hostname string

	shape patternShape

	// matchCase, if true, disables the usual lowercasing before matching.
	matchCase bool
}

// NewPattern builds a Pattern from raw adblock pattern syntax.  matchCase
// corresponds to the $match-case modifier.
func NewPattern(text string, matchCase bool) (p *Pattern) {
	p = &Pattern{
		text:      text,
		matchCase: matchCase,
	}
	p.shortcut = strings.ToLower(extractShortcut(text))

	if isPlainSubstring(text) {
		p.shape = shapeSubstring

		return p
	}

	if host, ok := hostnamePatternShape(text); ok {
		p.shape = shapeHostname
		p.hostname = host

		return p
	}

	restr := patternToRegexpString(text)
	flags := "i"
	if matchCase {
		flags = ""
	}

	re, err := regexp.Compile(reFlags(flags) + restr)
	if err != nil {
		p.shape = shapeInvalid

		return p
	}

	p.re = re
	p.shape = shapeRegexp

	return p
}

// reFlags renders a Go regexp inline-flag group, or the empty string if
// flags is empty.
func reFlags(flags string) (s string) {
	if flags == "" {
		return ""
	}

	return "(?" + flags + ")"
}

// Text returns the original pattern text.
func (p *Pattern) Text() (s string) { return p.text }

// Shortcut returns the precomputed, lowercased shortcut of the pattern.
func (p *Pattern) Shortcut() (s string) { return p.shortcut }

// IsRegexp returns true if the pattern needs a compiled regexp to match,
// i.e. it is neither a plain substring nor a `||host^` pattern.
func (p *Pattern) IsRegexp() (ok bool) { return p.shape == shapeRegexp }

// IsHostnamePattern returns true and the hostname if the pattern has the
// `||host^` shape.
func (p *Pattern) IsHostnamePattern() (hostname string, ok bool) {
	return p.hostname, p.shape == shapeHostname
}

// Invalid returns true if the pattern's regex failed to compile; such a
// pattern never matches anything.
func (p *Pattern) Invalid() (ok bool) { return p.shape == shapeInvalid }

// MatchCase returns whether the pattern was built with $match-case.
func (p *Pattern) MatchCase() (ok bool) { return p.matchCase }

// RegexpString returns the Go regexp source the pattern compiles to, for
// regexp-shaped and invalid patterns; it returns "" for plain-substring and
// hostname patterns.  Used by the
// declarative converter, which must re-derive the condition independently
// of the compiled *regexp.Regexp.
func (p *Pattern) RegexpString() (s string) {
	if p.shape != shapeRegexp && p.shape != shapeInvalid {
		return ""
	}

	return patternToRegexpString(p.text)
}

// maxURLMatchLength bounds how much of a URL is scanned by pattern matching,
// matching the engine's MAX_URL_MATCH_LENGTH budget (§4.3).
const maxURLMatchLength = 4096

// truncateForMatch bounds s to maxURLMatchLength, as the network engine does
// before sliding its shortcut window.
func truncateForMatch(s string) (out string) {
	if len(s) > maxURLMatchLength {
		return s[:maxURLMatchLength]
	}

	return s
}

// MatchURL reports whether the pattern matches url (expected to already be
// lowercased by the caller unless matchCase is set).
func (p *Pattern) MatchURL(url string) (ok bool) {
	url = truncateForMatch(url)

	switch p.shape {
	case shapeSubstring:
		target := url
		pat := p.shortcut
		if p.matchCase {
			return strings.Contains(url, p.text)
		}

		return strings.Contains(strings.ToLower(target), pat)
	case shapeHostname:
		return hostMatchesSuffix(hostnameFromURL(url), p.hostname)
	case shapeRegexp:
		return p.re.MatchString(url)
	default:
		return false
	}
}

// isPlainSubstring returns true if text contains none of the special
// pattern characters (`*`, `^`, `|`) and is therefore matched as a literal
// substring equal to its own shortcut.
func isPlainSubstring(text string) (ok bool) {
	return !strings.ContainsAny(text, "*^|") && !isRegexLiteral(text)
}

// isRegexLiteral returns true if text is a /regex/ literal.
func isRegexLiteral(text string) (ok bool) {
	return len(text) >= 2 && text[0] == '/' && text[len(text)-1] == '/'
}

// hostnamePatternShape recognizes the canonical `||host^` shape and returns
// the bare hostname.
func hostnamePatternShape(text string) (host string, ok bool) {
	if !strings.HasPrefix(text, "||") {
		return "", false
	}

	body := text[2:]
	if !strings.HasSuffix(body, "^") {
		return "", false
	}

	body = body[:len(body)-1]
	if body == "" || strings.ContainsAny(body, "*^|/\\") {
		return "", false
	}

	return strings.ToLower(body), true
}

// separatorCharClass is the RFC 3986 separator character class used to
// lower `^` into a regexp, per §4.6.
const separatorCharClass = `(?:[^a-zA-Z0-9_.%-]|$)`

// patternToRegexpString lowers adblock wildcard/anchor syntax to a Go
// (RE2) regexp source string, per §4.6's transformation table.  A /regex/
// literal is passed through with its delimiters stripped.
func patternToRegexpString(text string) (out string) {
	if isRegexLiteral(text) {
		return text[1 : len(text)-1]
	}

	var b strings.Builder

	runes := []rune(text)
	n := len(runes)

	i := 0
	if n > 0 && runes[0] == '|' && (n == 1 || runes[1] != '|') {
		b.WriteString("^")
		i = 1
	}

	for ; i < n; i++ {
		c := runes[i]
		switch {
		case c == '*':
			b.WriteString(".*")
		case c == '^':
			b.WriteString(separatorCharClass)
		case c == '|' && i == n-1:
			b.WriteString("$")
		case i+1 < n && c == '|' && runes[i+1] == '|' && i == 0:
			// Handled above via hostnamePatternShape for the common case;
			// as a regexp fallback, treat "||" as "match the start of a
			// domain": optional scheme, optional subdomain labels.
			b.WriteString(`^(?:[a-z-]+://)?(?:[a-zA-Z0-9-]+\.)*`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	return b.String()
}

// extractShortcut returns the longest contiguous literal run of text,
// stopping at wildcard (`*`), separator (`^`) and anchor (`|`) characters,
// per §3's Pattern invariant.  It operates on the raw (non-regex) pattern
// syntax; for /regex/ literals it extracts the longest literal run between
// metacharacters on a best-effort basis.
func extractShortcut(text string) (shortcut string) {
	if isRegexLiteral(text) {
		return extractRegexShortcut(text[1 : len(text)-1])
	}

	best := ""
	cur := strings.Builder{}

	flush := func() {
		if cur.Len() > len(best) {
			best = cur.String()
		}
		cur.Reset()
	}

	for _, c := range text {
		switch c {
		case '*', '^', '|':
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()

	return best
}

// regexMetaChars are the characters that stop a literal run when scanning a
// /regex/ literal for a shortcut candidate.
const regexMetaChars = `\.^$|?*+()[]{}`

// extractRegexShortcut best-effort extracts the longest literal run from a
// regular expression source, skipping escape sequences and metacharacters.
func extractRegexShortcut(src string) (shortcut string) {
	best := ""
	cur := strings.Builder{}

	flush := func() {
		if cur.Len() > len(best) {
			best = cur.String()
		}
		cur.Reset()
	}

	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' {
			flush()
			i++

			continue
		}

		if strings.ContainsRune(regexMetaChars, c) {
			flush()

			continue
		}

		cur.WriteRune(c)
	}
	flush()

	return best
}

// hostnameFromURL extracts the authority component of a URL-ish string
// without a full net/url parse, mirroring the cheap hostname comparison the
// network engine performs for `||host^` patterns.  It's intentionally
// tolerant of malformed input since it only feeds a suffix comparison.
func hostnameFromURL(url string) (host string) {
	rest := url
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}

	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '@'); i >= 0 {
		rest = rest[i+1:]
	}

	if i := strings.IndexByte(rest, ':'); i >= 0 {
		rest = rest[:i]
	}

	return rest
}

// hostMatchesSuffix reports whether host equals pattern or is a subdomain
// of it, per §4.3's "Rules whose patterns are pure hostname form skip regex
// compilation and match via hostname suffix check".
func hostMatchesSuffix(host, pattern string) (ok bool) {
	host = strings.ToLower(host)
	if host == pattern {
		return true
	}

	return strings.HasSuffix(host, "."+pattern)
}
