package ir

import (
	"fmt"

	"github.com/modlink/modlink/errors"
)

// Verify checks the module's structural invariants: symbol names are
// unique, declarations carry no content, linkage kinds are valid for their
// symbol, and every @name reference resolves within the module.
//
// Deferred content is left deferred: references inside unmaterialized
// function bodies are not checked, so lazily loaded modules can be verified
// without forcing materialization.
//
// A nil return means the module is structurally sound.
func Verify(m *Module) error {
	seen := map[string]bool{}
	for _, name := range m.SymbolNames() {
		if seen[name] {
			return errors.Verify(m.Name, fmt.Errorf("symbol @%s defined more than once", name))
		}
		seen[name] = true
	}

	for _, g := range m.Globals {
		if err := verifyGlobal(g); err != nil {
			return errors.Verify(m.Name, err)
		}
	}
	for _, f := range m.Funcs {
		if err := verifyFunc(f); err != nil {
			return errors.Verify(m.Name, err)
		}
	}

	for _, v := range m.Values() {
		if f, ok := v.(*Function); ok && !f.Materialized() {
			continue
		}
		for _, ref := range v.Refs() {
			if m.NamedValue(ref) == nil {
				return errors.Verify(m.Name,
					fmt.Errorf("@%s references undefined symbol @%s", v.ValueName(), ref))
			}
		}
	}
	return nil
}

func verifyGlobal(g *Global) error {
	if g.Decl && g.Init != nil {
		return fmt.Errorf("global @%s declared but has an initializer", g.Name)
	}
	if !g.Decl && g.Init == nil {
		return fmt.Errorf("global @%s defined without an initializer", g.Name)
	}
	if g.Type == "" {
		return fmt.Errorf("global @%s has no type", g.Name)
	}
	return verifyLinkage(&g.Symbol)
}

func verifyFunc(f *Function) error {
	if f.Decl && (f.Body != nil || !f.Materialized()) {
		return fmt.Errorf("func @%s declared but has a body", f.Name)
	}
	if !f.Decl && f.Body == nil && f.Materialized() {
		return fmt.Errorf("func @%s defined without a body", f.Name)
	}
	if f.Linkage == Appending || f.Linkage == Common {
		return fmt.Errorf("func @%s: %s linkage is only valid on globals", f.Name, f.Linkage)
	}
	return verifyLinkage(&f.Symbol)
}

func verifyLinkage(s *Symbol) error {
	if s.Decl {
		switch {
		case s.Linkage.IsLocal():
			return fmt.Errorf("@%s: %s linkage requires a definition", s.Name, s.Linkage)
		case s.Linkage == Appending, s.Linkage == Common:
			return fmt.Errorf("@%s: %s linkage requires a definition", s.Name, s.Linkage)
		case s.Linkage != External && s.Linkage != ExternWeak:
			return fmt.Errorf("@%s: declaration cannot have %s linkage", s.Name, s.Linkage)
		}
		return nil
	}
	if s.Linkage == ExternWeak {
		return fmt.Errorf("@%s: extern_weak symbol cannot be defined", s.Name)
	}
	return nil
}
