package rules

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Request is a single match query: the request URL, the URL of the document
// that initiated it, and the kind of resource being requested. It is built
// once per match and reused across the network, cosmetic and declarative
// layers.
type Request struct {
	// URL is the request URL, exactly as given.
	URL string

	// URLLowerCase is URL lowercased once up front, since every pattern
	// match needs it and lowercasing on every attempt would be wasteful.
	URLLowerCase string

	// Hostname is the request URL's host, lowercased.
	Hostname string

	// Domain is Hostname's effective top-level-domain-plus-one, e.g.
	// "ads.example.co.uk" -> "example.co.uk".
	Domain string

	// SourceURL is the URL of the document that triggered the request, or
	// "" if unknown (e.g. a top-level navigation).
	SourceURL string

	// SourceHostname and SourceDomain are SourceURL's host and effective
	// domain, matching Hostname and Domain.
	SourceHostname string
	SourceDomain   string

	// SortedClientTags carries client-specific tags for $ctag-style
	// deployments. Nothing in this module sets or reads it; no rule
	// matching uses it.
	SortedClientTags []string

	// RequestType is the kind of resource being requested.
	RequestType RequestType

	// ThirdParty is true when SourceDomain and Domain differ.
	ThirdParty bool

	// IsHostnameRequest is true for DNS-style lookups that have no URL or
	// scheme, only a hostname; non-domain-specific patterns (§4.6) match
	// such requests against Hostname alone.
	IsHostnameRequest bool
}

// NewRequest builds a Request for an HTTP(S) request to reqURL, initiated by
// the document at sourceURL (empty for a top-level navigation).
func NewRequest(reqURL, sourceURL string, requestType RequestType) (r *Request) {
	r = &Request{
		URL:          reqURL,
		URLLowerCase: strings.ToLower(reqURL),
		SourceURL:    sourceURL,
		RequestType:  requestType,
	}

	r.Hostname = extractHostname(reqURL)
	r.Domain = effectiveDomain(r.Hostname)

	if sourceURL != "" {
		r.SourceHostname = extractHostname(sourceURL)
		r.SourceDomain = effectiveDomain(r.SourceHostname)
	}

	r.ThirdParty = r.SourceDomain != "" && r.Domain != "" && r.SourceDomain != r.Domain

	return r
}

// NewRequestForHostname builds a Request for a bare-hostname (DNS-style)
// lookup, with no URL, source, or request type.
func NewRequestForHostname(hostname string) (r *Request) {
	hostname = strings.ToLower(hostname)

	return &Request{
		URL:               hostname,
		URLLowerCase:      hostname,
		Hostname:          hostname,
		Domain:            effectiveDomain(hostname),
		IsHostnameRequest: true,
		RequestType:       RequestTypeNone,
	}
}

// extractHostname parses rawURL and returns its lowercased host, falling
// back to the forgiving authority scan used by Pattern matching if rawURL
// doesn't parse as a well-formed URL.
func extractHostname(rawURL string) (host string) {
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return strings.ToLower(u.Hostname())
	}

	return strings.ToLower(hostnameFromURL(rawURL))
}

// EffectiveDomain returns hostname's registrable domain (eTLD+1), exported
// for callers outside this package (the cosmetic engine's per-domain walk)
// that need the same eTLD+1 boundary Request itself uses.
func EffectiveDomain(hostname string) (domain string) { return effectiveDomain(hostname) }

// effectiveDomain returns hostname's registrable domain (eTLD+1), or
// hostname itself if it has no recognized public suffix (e.g. "localhost").
func effectiveDomain(hostname string) (domain string) {
	if hostname == "" {
		return ""
	}

	if d, err := publicsuffix.EffectiveTLDPlusOne(hostname); err == nil {
		return d
	}

	return hostname
}
