package rules

import (
	"regexp"
	"strings"

	"github.com/AdguardTeam/golibs/errors"

	"github.com/filterforge/urlfilter/internal/domainutil"
)

// DomainList is a parsed `domain=a|~b|*.c|/re/` style list: a set of plain
// domains, a set of wildcard domains (`*.c`), and a set of compiled regular
// expressions (`/re/`), each optionally negated with a leading `~`.
//
// A DomainList is used for both permitted and restricted domains; the
// caller keeps two separate DomainLists (permitted / restricted) rather than
// mixing polarity inside one, matching spec §3's
// "permitted_domains, restricted_domains" split.
type DomainList struct {
	plain    map[string]struct{}
	wildcard []string
	regexps  []*regexp.Regexp
}

// ErrEmptyDomainList is returned when a $domain= (or cosmetic domain list)
// modifier has no entries at all.
var ErrEmptyDomainList = errors.Error("empty domain list")

// ParseDomainList parses a pipe-separated domain list (as used by the
// network $domain modifier) or a comma-separated one (as used by cosmetic
// rule domain prefixes) into permitted and restricted DomainLists.
//
// sep is the separator character between entries ('|' for network rules,
// ',' for cosmetic rules).
func ParseDomainList(raw string, sep byte) (permitted, restricted *DomainList, err error) {
	if raw == "" {
		return nil, nil, ErrEmptyDomainList
	}

	parts := splitUnescaped(raw, sep)
	if len(parts) == 0 {
		return nil, nil, ErrEmptyDomainList
	}

	permitted = newDomainList()
	restricted = newDomainList()

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, nil, errors.Error("empty domain list entry")
		}

		negated := false
		if part[0] == '~' {
			negated = true
			part = part[1:]
		}

		target := permitted
		if negated {
			target = restricted
		}

		if err = target.add(part); err != nil {
			return nil, nil, fmtErr("invalid domain %q: %w", part, err)
		}
	}

	if len(permitted.plain) == 0 && len(permitted.wildcard) == 0 && len(permitted.regexps) == 0 {
		permitted = nil
	}
	if len(restricted.plain) == 0 && len(restricted.wildcard) == 0 && len(restricted.regexps) == 0 {
		restricted = nil
	}

	return permitted, restricted, nil
}

func newDomainList() (d *DomainList) {
	return &DomainList{plain: map[string]struct{}{}}
}

func (d *DomainList) add(entry string) (err error) {
	switch {
	case isRegexLiteral(entry):
		re, reErr := regexp.Compile("(?i)" + entry[1:len(entry)-1])
		if reErr != nil {
			return fmtErr("compiling domain regexp: %w", reErr)
		}

		d.regexps = append(d.regexps, re)
	case strings.HasPrefix(entry, "*."):
		d.wildcard = append(d.wildcard, strings.ToLower(entry[2:]))
	default:
		d.plain[strings.ToLower(entry)] = struct{}{}
	}

	return nil
}

// Match returns true if hostname is a member of the domain list: an exact
// plain-domain match, a subdomain of a wildcard entry, or a regexp match.
func (d *DomainList) Match(hostname string) (ok bool) {
	if d == nil {
		return false
	}

	hostname = strings.ToLower(hostname)

	if _, ok = d.plain[hostname]; ok {
		return true
	}

	for _, w := range d.wildcard {
		if hostname == w || domainutil.IsSubdomain(hostname, w) {
			return true
		}
	}

	for _, re := range d.regexps {
		if re.MatchString(hostname) {
			return true
		}
	}

	// A plain entry also matches its subdomains, matching adblock-syntax
	// domain-modifier semantics (a rule for "example.com" also applies to
	// "sub.example.com").
	for plain := range d.plain {
		if domainutil.IsSubdomain(hostname, plain) {
			return true
		}
	}

	return false
}

// Empty returns true if d has no entries (including when d is nil).
func (d *DomainList) Empty() (ok bool) {
	return d == nil || (len(d.plain) == 0 && len(d.wildcard) == 0 && len(d.regexps) == 0)
}

// Plain returns the set of plain domain entries, for callers (e.g. the
// network engine's domain-keyed index) that only want the cheap, exact
// membership case.
func (d *DomainList) Plain() (domains []string) {
	if d == nil {
		return nil
	}

	domains = make([]string, 0, len(d.plain))
	for p := range d.plain {
		domains = append(domains, p)
	}

	return domains
}

// splitUnescaped splits s on sep, treating "\<sep>" as a literal separator
// character rather than a split point, per §4.1's "\," escape rule,
// generalized to whichever separator the caller uses.
func splitUnescaped(s string, sep byte) (parts []string) {
	var cur strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == sep {
			cur.WriteByte(sep)
			i++

			continue
		}

		if s[i] == sep {
			parts = append(parts, cur.String())
			cur.Reset()

			continue
		}

		cur.WriteByte(s[i])
	}
	parts = append(parts, cur.String())

	return parts
}
