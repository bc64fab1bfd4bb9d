package rules

import (
	"net"
	"strings"
)

// HostRule is a parsed `/etc/hosts`-style rule: an IP address followed by
// one or more hostnames, per spec §3/§4.1 step 5.
type HostRule struct {
	IP net.IP

	Hostnames []string

	raw string

	filterListID int
}

// Text implements the Rule interface for *HostRule.
func (r *HostRule) Text() (s string) { return r.raw }

// FilterListID implements the Rule interface for *HostRule.
func (r *HostRule) FilterListID() (id int) { return r.filterListID }

// type check
var _ Rule = (*HostRule)(nil)

// Match returns true if hostname is exactly one of r's hostnames.
func (r *HostRule) Match(hostname string) (ok bool) {
	for _, h := range r.Hostnames {
		if strings.EqualFold(h, hostname) {
			return true
		}
	}

	return false
}

// LooksLikeHostRule reports whether text has the `IP host...` shape well
// enough to be worth attempting to parse as a host rule: the first
// whitespace-delimited field parses as an IP address.
func LooksLikeHostRule(text string) (ok bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return false
	}

	return net.ParseIP(fields[0]) != nil
}

// ParseHostRule parses a host-rule line, per spec §4.1 step 5: "IPv4 or
// IPv6 followed by one or more hostnames".
func ParseHostRule(text string, filterListID int) (rule *HostRule, err error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, ErrInvalidHostRule
	}

	ip := net.ParseIP(fields[0])
	if ip == nil {
		return nil, ErrInvalidHostRule
	}

	hostnames := make([]string, 0, len(fields)-1)
	for _, h := range fields[1:] {
		if strings.HasPrefix(h, "#") {
			break
		}

		hostnames = append(hostnames, strings.ToLower(h))
	}

	if len(hostnames) == 0 {
		return nil, ErrInvalidHostRule
	}

	return &HostRule{
		IP:           ip,
		Hostnames:    hostnames,
		raw:          text,
		filterListID: filterListID,
	}, nil
}
