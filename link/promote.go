package link

import (
	"go.uber.org/zap"

	"github.com/modlink/modlink/errors"
	"github.com/modlink/modlink/ir"
	"github.com/modlink/modlink/summary"
)

// PromoteForImport renames local symbols so they stay uniquely resolvable
// once they, or symbols referencing them, cross module boundaries. Locals
// the index classifies as exported get the donor-specific promoted name and
// external linkage; the index's naming ledger is updated to match. When
// only is non-nil the pass is scoped to the selected symbols plus the
// locals they reference.
//
// A true return means renaming could not proceed safely because the index
// does not account for a local in scope, or the promoted name is already
// present: the remaining work for this module is treated as satisfied
// elsewhere, not as a failure.
func PromoteForImport(m *ir.Module, ix *summary.Index, only map[ir.Value]bool) (bool, error) {
	// Renaming rewrites references textually, so every body must be
	// available before any symbol changes name.
	if err := m.Materialize(); err != nil {
		return false, errors.Parse(m.Name, err)
	}

	for _, v := range promotionScope(m, only) {
		if !v.ValueLinkage().IsLocal() {
			continue
		}
		e := entryFor(ix.Lookup(v.ValueName()), m.Name)
		if e == nil {
			Logger().Debug("promotion: local not in summary index, treating as satisfied",
				zap.String("module", m.Name), zap.String("symbol", v.ValueName()))
			return true, nil
		}
		if e.Linkage.IsLocal() {
			// The planning phase decided this one stays module-local.
			continue
		}

		old := v.ValueName()
		promoted := summary.PromotedName(old, m.Name)
		if m.NamedValue(promoted) != nil {
			Logger().Debug("promotion: promoted name already present, treating as satisfied",
				zap.String("module", m.Name), zap.String("symbol", promoted))
			return true, nil
		}
		m.RenameSymbol(v, promoted)
		v.SetValueLinkage(ir.External)
		ix.RenameModuleEntry(old, m.Name, promoted)

		Logger().Debug("promoted local symbol",
			zap.String("module", m.Name),
			zap.String("from", old), zap.String("to", promoted))
	}
	return false, nil
}

// promotionScope returns the symbols the pass operates on: everything, or
// the selection closed over the locals its definitions reference.
func promotionScope(m *ir.Module, only map[ir.Value]bool) []ir.Value {
	if only == nil {
		return m.Values()
	}
	include := make(map[ir.Value]bool, len(only))
	var scope []ir.Value
	for _, v := range m.Values() {
		if only[v] {
			include[v] = true
			scope = append(scope, v)
		}
	}
	for i := 0; i < len(scope); i++ {
		for _, ref := range scope[i].Refs() {
			t := m.NamedValue(ref)
			if t == nil || include[t] || !t.ValueLinkage().IsLocal() {
				continue
			}
			include[t] = true
			scope = append(scope, t)
		}
	}
	return scope
}

func entryFor(entries []*summary.Entry, module string) *summary.Entry {
	for _, e := range entries {
		if e.Module == module {
			return e
		}
	}
	return nil
}
