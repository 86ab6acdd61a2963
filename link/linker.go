package link

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/modlink/modlink/errors"
	"github.com/modlink/modlink/ir"
)

// Linker is the merge primitive. It owns the composite module for the
// duration of a run and destructively folds donor modules into it.
type Linker struct {
	composite *ir.Module
}

// New creates a Linker accumulating into the given composite module.
func New(composite *ir.Module) *Linker {
	return &Linker{composite: composite}
}

// Composite returns the accumulation target.
func (l *Linker) Composite() *ir.Module {
	return l.composite
}

// LinkInModule folds src into the composite under the given flags, taking
// ownership of src. When only is non-nil, just the listed symbols (plus
// whatever they require to stay link-consistent) are folded. After a call,
// successful or not, src is consumed and must not be merged again.
func (l *Linker) LinkInModule(src *ir.Module, flags Flags, only map[ir.Value]bool) error {
	if src.Consumed() {
		return errors.Consumed(src.Name)
	}
	src.Consume()

	Logger().Debug("merging module",
		zap.String("module", src.Name),
		zap.Stringer("flags", flags),
		zap.Bool("subset", only != nil))

	selection, err := l.selectValues(src, flags, only)
	if err != nil {
		return err
	}

	l.resolveLocalCollisions(src, selection)

	var moved []ir.Value
	for _, v := range selection {
		mv, err := l.mergeValue(src, v, flags)
		if err != nil {
			return err
		}
		if mv != nil {
			moved = append(moved, mv)
		}
	}

	if err := l.declareDanglingRefs(src, moved); err != nil {
		return err
	}

	if flags.Has(FlagInternalizeLinkedSymbols) {
		for _, v := range moved {
			if !v.IsDeclaration() && !v.ValueLinkage().IsLocal() && v.ValueLinkage() != ir.Appending {
				v.SetValueLinkage(ir.Internal)
			}
		}
	}
	return nil
}

// selectValues decides which donor symbols take part in the merge, in donor
// definition order.
func (l *Linker) selectValues(src *ir.Module, flags Flags, only map[ir.Value]bool) ([]ir.Value, error) {
	if only != nil {
		return l.selectSubset(src, flags, only), nil
	}
	if flags.Has(FlagLinkOnlyNeeded) {
		return l.selectNeeded(src), nil
	}
	return src.Values(), nil
}

// selectSubset closes the requested symbol set over what the selected
// definitions cannot live without: module-local referents must move with
// them, and referenced linkonce definitions are force-linked unless the
// flags forbid it.
func (l *Linker) selectSubset(src *ir.Module, flags Flags, only map[ir.Value]bool) []ir.Value {
	include := make(map[ir.Value]bool, len(only))
	var sel []ir.Value
	add := func(v ir.Value) {
		if include[v] {
			return
		}
		include[v] = true
		// Bodies must be inspectable for the closure walk below and for
		// reference fixup after the move.
		if f, ok := v.(*ir.Function); ok {
			f.Materialize()
		}
		sel = append(sel, v)
	}
	for _, v := range src.Values() {
		if only[v] {
			add(v)
		}
	}

	for i := 0; i < len(sel); i++ {
		v := sel[i]
		if v.IsDeclaration() {
			continue
		}
		for _, ref := range v.Refs() {
			t := src.NamedValue(ref)
			if t == nil || t.IsDeclaration() {
				continue
			}
			switch {
			case t.ValueLinkage().IsLocal():
				add(t)
			case t.ValueLinkage().IsLinkOnce() && !flags.Has(FlagDontForceLinkLinkonceODR):
				add(t)
			}
		}
	}
	return sel
}

// selectNeeded keeps only donor definitions that satisfy symbols the
// composite declares but does not define, transitively.
func (l *Linker) selectNeeded(src *ir.Module) []ir.Value {
	needed := map[string]bool{}
	for _, v := range l.composite.Values() {
		if v.IsDeclaration() {
			needed[v.ValueName()] = true
		}
	}

	selected := map[ir.Value]bool{}
	var sel []ir.Value
	for changed := true; changed; {
		changed = false
		for _, v := range src.Values() {
			if selected[v] || v.IsDeclaration() || !needed[v.ValueName()] {
				continue
			}
			selected[v] = true
			sel = append(sel, v)
			changed = true
			for _, ref := range v.Refs() {
				if dv := l.composite.NamedValue(ref); dv != nil && !dv.IsDeclaration() {
					continue
				}
				needed[ref] = true
			}
		}
	}
	return sel
}

// resolveLocalCollisions renames symbols so local definitions never clash
// with composite names. An incoming local moves aside; when the composite
// side is the local one, the composite symbol is renamed instead.
func (l *Linker) resolveLocalCollisions(src *ir.Module, selection []ir.Value) {
	for _, v := range selection {
		d := l.composite.NamedValue(v.ValueName())
		if d == nil {
			continue
		}
		switch {
		case v.ValueLinkage().IsLocal():
			fresh := l.uniqueName(src, v.ValueName())
			Logger().Debug("renaming local to avoid collision",
				zap.String("module", src.Name),
				zap.String("from", v.ValueName()), zap.String("to", fresh))
			src.RenameSymbol(v, fresh)
		case d.ValueLinkage().IsLocal():
			fresh := l.uniqueName(src, d.ValueName())
			l.composite.RenameSymbol(d, fresh)
		}
	}
}

func (l *Linker) uniqueName(src *ir.Module, base string) string {
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%d", base, i)
		if l.composite.NamedValue(candidate) == nil && src.NamedValue(candidate) == nil {
			return candidate
		}
	}
}

// mergeValue folds one donor symbol into the composite. It returns the
// value now living in the composite when the donor side won, or nil when
// the composite side stands.
func (l *Linker) mergeValue(src *ir.Module, v ir.Value, flags Flags) (ir.Value, error) {
	name := v.ValueName()
	d := l.composite.NamedValue(name)
	if d == nil {
		appendValue(l.composite, v)
		return v, nil
	}

	if err := checkCompatible(src, d, v); err != nil {
		return nil, err
	}

	// A donor declaration is satisfied by whatever the composite has.
	if v.IsDeclaration() {
		return nil, nil
	}
	if d.IsDeclaration() {
		l.composite.ReplaceNamedValue(name, v)
		return v, nil
	}

	// Both sides define the symbol.
	dApp := d.ValueLinkage() == ir.Appending
	vApp := v.ValueLinkage() == ir.Appending
	switch {
	case dApp && vApp:
		dg := d.(*ir.Global)
		vg := v.(*ir.Global)
		dg.Init = append(dg.Init, vg.Init...)
		return nil, nil
	case dApp || vApp:
		return nil, errors.TypeConflict(src.Name, name, "appending linkage mismatch")
	}

	if flags.Has(FlagOverrideFromSrc) {
		l.composite.ReplaceNamedValue(name, v)
		return v, nil
	}
	if d.ValueLinkage().IsWeakForLinker() && !v.ValueLinkage().IsWeakForLinker() {
		l.composite.ReplaceNamedValue(name, v)
		return v, nil
	}
	if v.ValueLinkage().IsWeakForLinker() {
		// Ordinary conflict resolution keeps the first definition seen.
		return nil, nil
	}
	return nil, errors.DuplicateSymbol(src.Name, name)
}

// checkCompatible rejects merges of symbols that disagree on kind or type.
func checkCompatible(src *ir.Module, d, v ir.Value) error {
	name := v.ValueName()
	switch dv := d.(type) {
	case *ir.Global:
		vg, ok := v.(*ir.Global)
		if !ok {
			return errors.TypeConflict(src.Name, name, "global redefined as function")
		}
		if dv.Type != vg.Type {
			return errors.TypeConflict(src.Name, name,
				fmt.Sprintf("global type mismatch: %s vs %s", dv.Type, vg.Type))
		}
	case *ir.Function:
		vf, ok := v.(*ir.Function)
		if !ok {
			return errors.TypeConflict(src.Name, name, "function redefined as global")
		}
		if len(dv.Params) != len(vf.Params) || dv.Result != vf.Result {
			return errors.TypeConflict(src.Name, name, "function signature mismatch")
		}
		for i := range dv.Params {
			if dv.Params[i] != vf.Params[i] {
				return errors.TypeConflict(src.Name, name, "function signature mismatch")
			}
		}
	}
	return nil
}

// declareDanglingRefs synthesizes declarations in the composite for symbols
// the moved values reference but the merge did not carry over.
func (l *Linker) declareDanglingRefs(src *ir.Module, moved []ir.Value) error {
	for _, v := range moved {
		if v.IsDeclaration() {
			continue
		}
		for _, ref := range v.Refs() {
			if l.composite.NamedValue(ref) != nil {
				continue
			}
			t := src.NamedValue(ref)
			if t == nil {
				return errors.NotFound(errors.PhaseLink, "referenced symbol", ref)
			}
			appendValue(l.composite, declarationOf(t))
		}
	}
	return nil
}

func declarationOf(t ir.Value) ir.Value {
	linkage := ir.External
	if t.ValueLinkage() == ir.ExternWeak {
		linkage = ir.ExternWeak
	}
	sym := ir.Symbol{Name: t.ValueName(), Linkage: linkage, Decl: true}
	switch tv := t.(type) {
	case *ir.Global:
		return &ir.Global{Symbol: sym, Type: tv.Type}
	case *ir.Function:
		params := make([]string, len(tv.Params))
		copy(params, tv.Params)
		return &ir.Function{Symbol: sym, Params: params, Result: tv.Result}
	}
	return nil
}

func appendValue(m *ir.Module, v ir.Value) {
	switch tv := v.(type) {
	case *ir.Global:
		m.AppendGlobal(tv)
	case *ir.Function:
		m.AppendFunc(tv)
	}
}
