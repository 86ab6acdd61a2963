package ir

import "fmt"

// Linkage describes how a symbol behaves when modules are combined.
type Linkage uint8

const (
	// External symbols are strong definitions visible to every module.
	External Linkage = iota
	// AvailableExternally definitions exist for inspection only and are
	// discarded at link time.
	AvailableExternally
	// LinkOnce definitions may be duplicated; any one is kept and unused
	// copies are discardable.
	LinkOnce
	// LinkOnceODR is LinkOnce with the guarantee that all copies are
	// identical (one definition rule).
	LinkOnceODR
	// Weak definitions may differ between modules; the linker keeps an
	// unspecified one. Known as weak-any.
	Weak
	// WeakODR is Weak with the one-definition-rule guarantee.
	WeakODR
	// Appending globals are concatenated rather than resolved.
	Appending
	// Internal symbols are local to their module.
	Internal
	// Private symbols are local and omitted from symbol tables.
	Private
	// ExternWeak declarations resolve to null when no definition is found.
	ExternWeak
	// Common definitions are zero-initialized tentative definitions.
	Common
)

var linkageNames = map[Linkage]string{
	External:            "external",
	AvailableExternally: "available_externally",
	LinkOnce:            "linkonce",
	LinkOnceODR:         "linkonce_odr",
	Weak:                "weak",
	WeakODR:             "weak_odr",
	Appending:           "appending",
	Internal:            "internal",
	Private:             "private",
	ExternWeak:          "extern_weak",
	Common:              "common",
}

var linkageValues = func() map[string]Linkage {
	m := make(map[string]Linkage, len(linkageNames))
	for k, v := range linkageNames {
		m[v] = k
	}
	return m
}()

func (l Linkage) String() string {
	if s, ok := linkageNames[l]; ok {
		return s
	}
	return fmt.Sprintf("linkage(%d)", uint8(l))
}

// ParseLinkage parses a textual linkage keyword.
func ParseLinkage(s string) (Linkage, bool) {
	l, ok := linkageValues[s]
	return l, ok
}

// IsLocal reports whether the linkage is module-local (internal or private).
func (l Linkage) IsLocal() bool {
	return l == Internal || l == Private
}

// IsWeakAny reports whether the linkage is weak-any: duplicate definitions
// may differ and the linker picks an unspecified one. Such symbols cannot be
// safely cherry-picked across modules.
func (l Linkage) IsWeakAny() bool {
	return l == Weak
}

// IsLinkOnce reports whether the linkage is one of the linkonce kinds.
func (l Linkage) IsLinkOnce() bool {
	return l == LinkOnce || l == LinkOnceODR
}

// IsWeakForLinker reports whether a same-named strong definition is allowed
// to displace this one during a merge.
func (l Linkage) IsWeakForLinker() bool {
	switch l {
	case AvailableExternally, LinkOnce, LinkOnceODR, Weak, WeakODR, ExternWeak, Common:
		return true
	}
	return false
}
