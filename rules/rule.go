// Package rules contains the typed adblock rule model — network rules,
// cosmetic rules and host rules — together with the parser that turns raw
// filter-list lines into them and the pattern matcher that both the network
// and cosmetic engines rely on.
//
// The rule kinds mirror the upstream AdGuard urlfilter library's
// rules.NetworkRule / rules.CosmeticRule / rules.HostRule split: a sum type
// expressed as three concrete structs behind a small common interface rather
// than a class hierarchy, per the "tagged variants, not inheritance" guidance
// for this engine.
package rules

import "fmt"

// Rule is the interface common to every parsed rule kind.  Most callers type
// assert to *NetworkRule, *CosmeticRule or *HostRule to access kind-specific
// fields; Rule only captures what every kind has in common.
type Rule interface {
	// Text returns the original, unparsed rule text.
	Text() string

	// FilterListID returns the identifier of the filter list the rule was
	// loaded from.
	FilterListID() int
}

// RequestType is a bitmask of request destinations, matching the
// webRequest-style resource types a network rule can be scoped to.
type RequestType uint32

// Request types recognized by network-rule type modifiers (e.g. $script,
// $image).  The zero value, RequestTypeNone, matches no request type;
// RequestTypeAll matches every one of them.
const RequestTypeNone RequestType = 0

const (
	RequestTypeDocument RequestType = 1 << iota
	RequestTypeSubdocument
	RequestTypeStylesheet
	RequestTypeScript
	RequestTypeImage
	RequestTypeMedia
	RequestTypeFont
	RequestTypeObject
	RequestTypeXmlHttpRequest
	RequestTypePing
	RequestTypeWebsocket
	RequestTypeWebrtc
	RequestTypeOther
)

// RequestTypeAll is the union of every named request type above.
const RequestTypeAll = RequestTypeDocument | RequestTypeSubdocument | RequestTypeStylesheet |
	RequestTypeScript | RequestTypeImage | RequestTypeMedia | RequestTypeFont |
	RequestTypeObject | RequestTypeXmlHttpRequest | RequestTypePing |
	RequestTypeWebsocket | RequestTypeWebrtc | RequestTypeOther

// requestTypeNames maps every named bit to its modifier spelling, used both
// for parsing ($script, $~image, …) and for String.
var requestTypeNames = []struct {
	typ  RequestType
	name string
}{
	{RequestTypeDocument, "document"},
	{RequestTypeSubdocument, "subdocument"},
	{RequestTypeStylesheet, "stylesheet"},
	{RequestTypeScript, "script"},
	{RequestTypeImage, "image"},
	{RequestTypeMedia, "media"},
	{RequestTypeFont, "font"},
	{RequestTypeObject, "object"},
	{RequestTypeXmlHttpRequest, "xmlhttprequest"},
	{RequestTypePing, "ping"},
	{RequestTypeWebsocket, "websocket"},
	{RequestTypeWebrtc, "webrtc"},
	{RequestTypeOther, "other"},
}

// RequestTypeFromModifier returns the RequestType bit named by modifier, and
// ok=false if modifier does not name a recognized request type.
func RequestTypeFromModifier(modifier string) (t RequestType, ok bool) {
	for _, rt := range requestTypeNames {
		if rt.name == modifier {
			return rt.typ, true
		}
	}

	return RequestTypeNone, false
}

// Has returns true if t has every bit set in other.
func (t RequestType) Has(other RequestType) (ok bool) {
	return t&other == other
}

// String implements the fmt.Stringer interface for RequestType.
func (t RequestType) String() (s string) {
	if t == RequestTypeNone {
		return "none"
	} else if t == RequestTypeAll {
		return "all"
	}

	for _, rt := range requestTypeNames {
		if t == rt.typ {
			return rt.name
		}
	}

	return fmt.Sprintf("%#x", uint32(t))
}

// FilterListID is the identifier of the filter list a rule came from.  The
// zero value is reserved for user rules, matching the configuration's
// "implicit filter id 0" convention for user_rules.
type FilterListID int

// UserRulesListID is the reserved FilterListID for user_rules.
const UserRulesListID FilterListID = 0
