package rules

import (
	"strings"
)

// ParseNetworkRule parses a single network-rule line (no cosmetic marker
// present) into a *NetworkRule, per spec §4.1 step 4.
func ParseNetworkRule(text string, filterListID int) (rule *NetworkRule, err error) {
	raw := text

	body := text
	isAllowlist := false
	if strings.HasPrefix(body, "@@") {
		isAllowlist = true
		body = body[2:]
	}

	patternText, modifiersText, hasModifiers := splitLastUnescapedDollar(body)

	rule = &NetworkRule{
		raw:          raw,
		filterListID: filterListID,
		IsAllowlist:  isAllowlist,
	}

	var domainModifierSeen bool

	if hasModifiers {
		mods := splitUnescaped(modifiersText, ',')
		for _, m := range mods {
			m = strings.TrimSpace(m)
			if m == "" {
				continue
			}

			negated := false
			if strings.HasPrefix(m, "~") {
				negated = true
				m = m[1:]
			}

			name, value, hasValue := strings.Cut(m, "=")

			switch name {
			case "domain":
				if domainModifierSeen {
					return nil, fmtErr("duplicate $domain modifier")
				}

				domainModifierSeen = true

				if !hasValue {
					return nil, fmtErr("$domain requires a value")
				}

				perm, restr, pErr := ParseDomainList(value, '|')
				if pErr != nil {
					return nil, pErr
				}

				rule.PermittedDomains = perm
				rule.RestrictedDomains = restr
			case "denyallow":
				if !hasValue {
					return nil, fmtErr("$denyallow requires a value")
				}

				for _, d := range strings.Split(value, "|") {
					d = strings.TrimSpace(strings.ToLower(d))
					if d == "" || strings.ContainsAny(d, "*~/") {
						return nil, fmtErr("$denyallow only accepts literal domains, got %q", d)
					}

					rule.DenyallowDomains = append(rule.DenyallowDomains, d)
				}
			case "third-party", "3p":
				if negated {
					rule.firstParty = true
				} else {
					rule.Options |= OptionThirdParty
				}
			case "first-party", "1p":
				if negated {
					rule.Options |= OptionThirdParty
				} else {
					rule.firstParty = true
				}
			case "match-case":
				rule.Options |= OptionMatchCase
			case "important", "badfilter", "popup", "document", "elemhide",
				"generichide", "specifichide", "jsinject", "urlblock", "content", "stealth":
				bit := booleanModifierNames[name]
				if negated {
					return nil, fmtErr("modifier $%s cannot be negated", name)
				}

				rule.Options |= bit
			case "redirect":
				if err = setAdvanced(rule, AdvancedModifierRedirect, value, hasValue); err != nil {
					return nil, err
				}
			case "redirect-rule":
				if err = setAdvanced(rule, AdvancedModifierRedirectRule, value, hasValue); err != nil {
					return nil, err
				}
			case "removeparam":
				rule.Advanced = &AdvancedModifier{
					Kind:     AdvancedModifierRemoveParam,
					Value:    value,
					HasValue: hasValue,
				}
			case "removeheader":
				if !hasValue {
					return nil, fmtErr("$removeheader requires a value")
				}

				rule.Advanced = &AdvancedModifier{Kind: AdvancedModifierRemoveHeader, Value: value, HasValue: true}
			case "replace":
				if !hasValue {
					return nil, fmtErr("$replace requires a value")
				}

				rule.Advanced = &AdvancedModifier{Kind: AdvancedModifierReplace, Value: value, HasValue: true}
			case "csp":
				if !hasValue {
					return nil, fmtErr("$csp requires a value")
				}

				rule.Advanced = &AdvancedModifier{Kind: AdvancedModifierCSP, Value: value, HasValue: true}
			case "cookie":
				rule.Advanced = &AdvancedModifier{Kind: AdvancedModifierCookie, Value: value, HasValue: hasValue}
			case "app":
				if !hasValue {
					return nil, fmtErr("$app requires a value")
				}

				rule.Advanced = &AdvancedModifier{
					Kind: AdvancedModifierApp, List: strings.Split(value, "|"), HasValue: true,
				}
			case "method":
				if !hasValue {
					return nil, fmtErr("$method requires a value")
				}

				rule.Advanced = &AdvancedModifier{
					Kind: AdvancedModifierMethod, List: strings.Split(value, "|"), HasValue: true,
				}
			default:
				if rt, ok := RequestTypeFromModifier(name); ok {
					if negated {
						rule.DisabledTypes |= rt
					} else {
						rule.EnabledTypes |= rt
						rule.HasEnabledTypes = true
					}

					continue
				}

				return nil, fmtErr("%w: %q", ErrUnknownModifier, name)
			}
		}
	}

	if rule.Options.Has(OptionDocument) && !isAllowlist {
		return nil, fmtErr("$document is only valid on allowlist rules")
	}

	rule.Pattern = NewPattern(patternText, rule.Options.Has(OptionMatchCase))

	return rule, nil
}

// setAdvanced installs a redirect/redirect-rule AdvancedModifier, rejecting
// a bare `$redirect` with no resource name.
func setAdvanced(rule *NetworkRule, kind AdvancedModifierKind, value string, hasValue bool) (err error) {
	if !hasValue || redirectResourceName(value) == "" {
		return fmtErr("redirect modifier requires a resource name")
	}

	rule.Advanced = &AdvancedModifier{Kind: kind, Value: redirectResourceName(value), HasValue: true}

	return nil
}

// splitLastUnescapedDollar splits body on the last unescaped `$`, as spec
// §4.1 step 4 requires ("Split on last unescaped $ into pattern and
// modifier list").
func splitLastUnescapedDollar(body string) (pattern, modifiers string, hasModifiers bool) {
	for i := len(body) - 1; i >= 0; i-- {
		if body[i] != '$' {
			continue
		}

		if i > 0 && body[i-1] == '\\' {
			continue
		}

		return body[:i], body[i+1:], true
	}

	return body, "", false
}
