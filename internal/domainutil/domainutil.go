// Package domainutil contains small hostname-hierarchy helpers shared by the
// network and cosmetic engines.
package domainutil

import "strings"

// IsSubdomain returns true if domain is a subdomain of top.
func IsSubdomain(domain, top string) (ok bool) {
	return len(domain) > len(top)+1 &&
		strings.HasSuffix(domain, top) &&
		domain[len(domain)-len(top)-1] == '.'
}

// IsImmediateSubdomain returns true if domain is an immediate subdomain of
// top.
func IsImmediateSubdomain(domain, top string) (ok bool) {
	return IsSubdomain(domain, top) &&
		strings.Count(domain, ".") == strings.Count(top, ".")+1
}

// Labels returns the dot-separated labels of hostname from the most specific
// to the least specific, stopping at (and including) stopAt.  It is used to
// walk a hostname up to its eTLD+1 when looking up per-domain cosmetic and
// network tables.
//
// For hostname "a.b.example.com" and stopAt "example.com" it returns
// ["a.b.example.com", "b.example.com", "example.com"].
func Labels(hostname, stopAt string) (labels []string) {
	h := hostname
	for {
		labels = append(labels, h)
		if h == stopAt {
			return labels
		}

		i := strings.IndexByte(h, '.')
		if i < 0 {
			return labels
		}

		h = h[i+1:]
		if len(h) < len(stopAt) {
			return labels
		}
	}
}
