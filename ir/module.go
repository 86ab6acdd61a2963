package ir

import (
	"strings"
)

// DebugVersion is the current debug metadata version. Modules loaded with an
// older version are normalized by the loader's upgrade pass.
const DebugVersion = 3

// Symbol is the part shared by globals and functions: an @name, a linkage,
// and whether this module merely declares the symbol.
type Symbol struct {
	Name    string
	Linkage Linkage
	Decl    bool
}

// ValueName returns the symbol name.
func (s *Symbol) ValueName() string { return s.Name }

// Rename changes the symbol name. Callers are responsible for rewriting
// references; see Module.RenameSymbol.
func (s *Symbol) Rename(name string) { s.Name = name }

// ValueLinkage returns the linkage kind.
func (s *Symbol) ValueLinkage() Linkage { return s.Linkage }

// SetValueLinkage changes the linkage kind.
func (s *Symbol) SetValueLinkage(l Linkage) { s.Linkage = l }

// IsDeclaration reports whether the symbol has no definition in this module.
func (s *Symbol) IsDeclaration() bool { return s.Decl }

// Value is the uniform view of a named module symbol used by the linker and
// the promotion engine.
type Value interface {
	ValueName() string
	Rename(string)
	ValueLinkage() Linkage
	SetValueLinkage(Linkage)
	IsDeclaration() bool
	// Refs returns the names of module symbols this value references.
	Refs() []string
}

// Global is a module-level variable.
type Global struct {
	Symbol
	Type string
	// Init holds the initializer tokens. Declarations have none.
	Init []string
}

// Refs returns symbol names referenced by the initializer.
func (g *Global) Refs() []string {
	return refsOf(g.Init)
}

// Function is a function definition or declaration.
type Function struct {
	Symbol
	Params []string
	Result string
	// Body holds the instruction lines of a materialized definition.
	Body []string
	// raw holds the unparsed body text while loading is deferred.
	raw []byte
}

// Materialized reports whether the body is available for inspection.
func (f *Function) Materialized() bool { return f.raw == nil }

// Materialize parses a deferred body. It is a no-op for declarations and
// already-materialized definitions.
func (f *Function) Materialize() {
	if f.raw == nil {
		return
	}
	f.Body = splitBodyLines(f.raw)
	f.raw = nil
}

// SetDeferredBody installs unparsed body text, to be finished by
// Materialize. Used by the loader for lazy loading.
func (f *Function) SetDeferredBody(text []byte) {
	f.raw = text
	f.Body = nil
}

// Refs returns symbol names referenced by the body. The function must be
// materialized first.
func (f *Function) Refs() []string {
	return refsOf(f.Body)
}

// splitBodyLines turns raw body text into trimmed instruction lines,
// dropping blanks and comments.
func splitBodyLines(text []byte) []string {
	var out []string
	for _, line := range strings.Split(string(text), "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// refsOf extracts @name references from instruction or initializer tokens.
func refsOf(lines []string) []string {
	var refs []string
	seen := map[string]bool{}
	for _, line := range lines {
		for i := 0; i < len(line); i++ {
			if line[i] != '@' {
				continue
			}
			j := i + 1
			for j < len(line) && isIdentByte(line[j]) {
				j++
			}
			if j > i+1 {
				name := line[i+1 : j]
				if !seen[name] {
					seen[name] = true
					refs = append(refs, name)
				}
			}
			i = j - 1
		}
	}
	return refs
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Module is a single IR translation unit, and also the composite
// accumulation target during linking.
type Module struct {
	// Name identifies the module, typically the path it was loaded from.
	Name   string
	Target string
	// Metadata is nil until materialized when the module was loaded
	// lazily.
	Metadata map[string]string

	Globals []*Global
	Funcs   []*Function

	deferredMeta []string
	consumed     bool
}

// NewModule creates an empty module with the given identifier.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Function {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// GlobalVar returns the global with the given name, or nil.
func (m *Module) GlobalVar(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// NamedValue returns the symbol with the given name, global or function,
// or nil.
func (m *Module) NamedValue(name string) Value {
	if g := m.GlobalVar(name); g != nil {
		return g
	}
	if f := m.Func(name); f != nil {
		return f
	}
	return nil
}

// Values returns all named symbols, globals first, in definition order.
func (m *Module) Values() []Value {
	out := make([]Value, 0, len(m.Globals)+len(m.Funcs))
	for _, g := range m.Globals {
		out = append(out, g)
	}
	for _, f := range m.Funcs {
		out = append(out, f)
	}
	return out
}

// SymbolNames returns the names of all symbols in definition order.
func (m *Module) SymbolNames() []string {
	out := make([]string, 0, len(m.Globals)+len(m.Funcs))
	for _, g := range m.Globals {
		out = append(out, g.Name)
	}
	for _, f := range m.Funcs {
		out = append(out, f.Name)
	}
	return out
}

// AppendGlobal adds a global to the module.
func (m *Module) AppendGlobal(g *Global) {
	m.Globals = append(m.Globals, g)
}

// AppendFunc adds a function to the module.
func (m *Module) AppendFunc(f *Function) {
	m.Funcs = append(m.Funcs, f)
}

// RemoveNamedValue removes the symbol with the given name. It reports
// whether a symbol was removed.
func (m *Module) RemoveNamedValue(name string) bool {
	for i, g := range m.Globals {
		if g.Name == name {
			m.Globals = append(m.Globals[:i], m.Globals[i+1:]...)
			return true
		}
	}
	for i, f := range m.Funcs {
		if f.Name == name {
			m.Funcs = append(m.Funcs[:i], m.Funcs[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceNamedValue substitutes the named symbol with v, keeping its
// position. The replacement must be of the same kind as the symbol it
// replaces. It reports whether a substitution happened.
func (m *Module) ReplaceNamedValue(name string, v Value) bool {
	switch nv := v.(type) {
	case *Global:
		for i, g := range m.Globals {
			if g.Name == name {
				m.Globals[i] = nv
				return true
			}
		}
	case *Function:
		for i, f := range m.Funcs {
			if f.Name == name {
				m.Funcs[i] = nv
				return true
			}
		}
	}
	return false
}

// RenameSymbol renames a symbol and rewrites every @old reference in the
// module's initializers and materialized bodies.
func (m *Module) RenameSymbol(v Value, newName string) {
	old := v.ValueName()
	v.Rename(newName)
	from, to := "@"+old, "@"+newName
	for _, g := range m.Globals {
		rewriteTokens(g.Init, from, to)
	}
	for _, f := range m.Funcs {
		rewriteTokens(f.Body, from, to)
	}
}

// rewriteTokens replaces whole @name references in place. A reference is
// whole when it is not followed by another identifier byte.
func rewriteTokens(lines []string, from, to string) {
	for i, line := range lines {
		if !strings.Contains(line, from) {
			continue
		}
		var b strings.Builder
		for j := 0; j < len(line); {
			if strings.HasPrefix(line[j:], from) {
				end := j + len(from)
				if end >= len(line) || !isIdentByte(line[end]) {
					b.WriteString(to)
					j = end
					continue
				}
			}
			b.WriteByte(line[j])
			j++
		}
		lines[i] = b.String()
	}
}

// SetDeferredMetadata installs unparsed metadata lines, to be finished by
// MaterializeMetadata. Used by the loader for lazy loading.
func (m *Module) SetDeferredMetadata(lines []string) {
	m.deferredMeta = lines
	m.Metadata = nil
}

// MetadataMaterialized reports whether metadata is available.
func (m *Module) MetadataMaterialized() bool { return m.deferredMeta == nil }

// MaterializeMetadata parses deferred metadata lines. It is a no-op when
// metadata is already materialized.
func (m *Module) MaterializeMetadata() error {
	if m.deferredMeta == nil {
		return nil
	}
	lines := m.deferredMeta
	m.deferredMeta = nil
	m.Metadata = map[string]string{}
	for _, line := range lines {
		key, value, err := parseMetaLine(line)
		if err != nil {
			return err
		}
		m.Metadata[key] = value
	}
	return nil
}

// Materialize finishes metadata and every deferred function body.
func (m *Module) Materialize() error {
	if err := m.MaterializeMetadata(); err != nil {
		return err
	}
	for _, f := range m.Funcs {
		f.Materialize()
	}
	return nil
}

// Consume marks the module as folded into a composite. Consumed modules
// must not be merged again.
func (m *Module) Consume() { m.consumed = true }

// Consumed reports whether the module was already folded into a composite.
func (m *Module) Consumed() bool { return m.consumed }
