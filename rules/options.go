package rules

// Option is a bitset of boolean network-rule modifiers — the flag-only
// modifiers from spec §4.1 step 4 ("important, badfilter, popup, document,
// elemhide, generichide, specifichide, jsinject, urlblock, content,
// stealth") plus the party and case-sensitivity toggles.
type Option uint32

// Recognized boolean network-rule modifiers.
const (
	OptionThirdParty Option = 1 << iota
	OptionMatchCase
	OptionImportant
	OptionBadFilter
	OptionPopup
	OptionDocument
	OptionElemhide
	OptionGenerichide
	OptionSpecifichide
	OptionJsinject
	OptionUrlblock
	OptionContent
	OptionStealth
)

// Has returns true if every bit set in other is also set in o.
func (o Option) Has(other Option) (ok bool) { return o&other == other }

// booleanModifierNames maps modifier spelling (without leading ~) to the
// Option bit it sets.
var booleanModifierNames = map[string]Option{
	"important":     OptionImportant,
	"badfilter":     OptionBadFilter,
	"popup":         OptionPopup,
	"document":      OptionDocument,
	"elemhide":      OptionElemhide,
	"generichide":   OptionGenerichide,
	"specifichide":  OptionSpecifichide,
	"jsinject":      OptionJsinject,
	"urlblock":      OptionUrlblock,
	"content":       OptionContent,
	"stealth":       OptionStealth,
	"match-case":    OptionMatchCase,
	"third-party":   OptionThirdParty,
	"3p":            OptionThirdParty,
}

// AdvancedModifierKind identifies which value-carrying modifier an
// AdvancedModifier holds, per spec §3's "advanced_modifier" sum type.
type AdvancedModifierKind int

// Advanced modifier kinds, matching spec §3's enumeration exactly.
const (
	AdvancedModifierNone AdvancedModifierKind = iota
	AdvancedModifierCSP
	AdvancedModifierRedirect
	AdvancedModifierRedirectRule
	AdvancedModifierRemoveParam
	AdvancedModifierRemoveHeader
	AdvancedModifierReplace
	AdvancedModifierCookie
	AdvancedModifierApp
	AdvancedModifierMethod
	AdvancedModifierStealth
)

// AdvancedModifier is the value-carrying modifier a network rule can carry
// in addition to its boolean Option flags.  At most one AdvancedModifier is
// attached to a given NetworkRule, per spec §3.
type AdvancedModifier struct {
	// Value is the modifier's raw value text (e.g. the CSP directive, the
	// redirect resource name, the replace pattern).  For $removeparam with
	// no value ("remove all") Value is empty and HasValue is false.
	Value string

	// List holds multi-valued modifiers: $app=a|b, $method=get|post.
	List []string

	Kind AdvancedModifierKind

	// HasValue distinguishes a present-but-empty value ($removeparam=)
	// from no value at all ($removeparam).
	HasValue bool
}
