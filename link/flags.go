package link

import "strings"

// Flags control how LinkInModule resolves symbols between the donor and the
// composite. They are per-merge inputs, never persisted state.
type Flags uint8

const (
	// FlagOverrideFromSrc lets donor definitions replace same-named
	// definitions already in the composite.
	FlagOverrideFromSrc Flags = 1 << iota
	// FlagInternalizeLinkedSymbols demotes definitions linked in from the
	// donor to internal linkage.
	FlagInternalizeLinkedSymbols
	// FlagLinkOnlyNeeded links only donor definitions that satisfy
	// symbols the composite declares but does not define.
	FlagLinkOnlyNeeded
	// FlagDontForceLinkLinkonceODR leaves linkonce_odr definitions that
	// were not explicitly selected as declarations instead of pulling
	// them in.
	FlagDontForceLinkLinkonceODR
)

// FlagNone is the empty flag set.
const FlagNone Flags = 0

// Has reports whether every bit of flag is set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	if f.Has(FlagOverrideFromSrc) {
		parts = append(parts, "override-from-src")
	}
	if f.Has(FlagInternalizeLinkedSymbols) {
		parts = append(parts, "internalize")
	}
	if f.Has(FlagLinkOnlyNeeded) {
		parts = append(parts, "only-needed")
	}
	if f.Has(FlagDontForceLinkLinkonceODR) {
		parts = append(parts, "no-force-linkonce-odr")
	}
	return strings.Join(parts, "|")
}
