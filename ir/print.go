package ir

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteText writes the module in textual MIR form. When preserveOrder is
// false, symbols are emitted sorted by name for stable output; otherwise
// definition order is kept. Deferred content is materialized first.
func (m *Module) WriteText(w io.Writer, preserveOrder bool) error {
	if err := m.Materialize(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "module %q\n", m.Name); err != nil {
		return err
	}
	if m.Target != "" {
		if _, err := fmt.Fprintf(w, "target %q\n", m.Target); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(m.Metadata))
	for k := range m.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "meta %s %q\n", k, m.Metadata[k]); err != nil {
			return err
		}
	}

	globals, funcs := m.orderedSymbols(preserveOrder)
	for _, g := range globals {
		if err := writeGlobal(w, g); err != nil {
			return err
		}
	}
	for _, f := range funcs {
		if err := writeFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

// String renders the module in definition order.
func (m *Module) String() string {
	var b strings.Builder
	// strings.Builder writes never fail; materialization of parsed input
	// cannot either, but surface it just in case.
	if err := m.WriteText(&b, true); err != nil {
		return fmt.Sprintf("; broken module %s: %v", m.Name, err)
	}
	return b.String()
}

func (m *Module) orderedSymbols(preserveOrder bool) ([]*Global, []*Function) {
	if preserveOrder {
		return m.Globals, m.Funcs
	}
	globals := make([]*Global, len(m.Globals))
	copy(globals, m.Globals)
	sort.Slice(globals, func(i, j int) bool { return globals[i].Name < globals[j].Name })
	funcs := make([]*Function, len(m.Funcs))
	copy(funcs, m.Funcs)
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].Name < funcs[j].Name })
	return globals, funcs
}

func writeGlobal(w io.Writer, g *Global) error {
	if g.Decl {
		_, err := fmt.Fprintf(w, "global @%s %s %s\n", g.Name, g.Linkage, g.Type)
		return err
	}
	_, err := fmt.Fprintf(w, "global @%s %s %s = %s\n",
		g.Name, g.Linkage, g.Type, strings.Join(g.Init, " "))
	return err
}

func writeFunc(w io.Writer, f *Function) error {
	sig := fmt.Sprintf("func @%s %s (%s) -> %s",
		f.Name, f.Linkage, strings.Join(f.Params, ", "), f.Result)
	if f.Decl {
		_, err := fmt.Fprintln(w, sig)
		return err
	}
	if _, err := fmt.Fprintln(w, sig+" {"); err != nil {
		return err
	}
	for _, line := range f.Body {
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
