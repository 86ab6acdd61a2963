package summary

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/modlink/modlink/errors"
	"github.com/modlink/modlink/ir"
)

// Entry is the per-module classification of one global symbol.
type Entry struct {
	Module  string
	Linkage ir.Linkage
}

// UnmarshalYAML decodes an entry, mapping the textual linkage keyword to
// its ir.Linkage value.
func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Module  string `yaml:"module"`
		Linkage string `yaml:"linkage"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	linkage, ok := ir.ParseLinkage(raw.Linkage)
	if !ok {
		return fmt.Errorf("summary entry for module %q: unknown linkage %q", raw.Module, raw.Linkage)
	}
	e.Module = raw.Module
	e.Linkage = linkage
	return nil
}

// Index maps global symbol names to their per-module entries.
type Index struct {
	Symbols map[string][]*Entry `yaml:"symbols"`
}

// Read loads a summary index file.
func Read(ctx context.Context, fs afs.Service, path string) (*Index, error) {
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, errors.Load(path, err)
	}
	ix, err := Parse(data)
	if err != nil {
		return nil, errors.Parse(path, err)
	}
	return ix, nil
}

// Parse decodes a summary index from YAML.
func Parse(data []byte) (*Index, error) {
	var ix Index
	if err := yaml.Unmarshal(data, &ix); err != nil {
		return nil, err
	}
	if ix.Symbols == nil {
		ix.Symbols = map[string][]*Entry{}
	}
	return &ix, nil
}

// Lookup returns the entries for a symbol name, or nil when the index does
// not know the symbol.
func (ix *Index) Lookup(name string) []*Entry {
	return ix.Symbols[name]
}

// PromoteLocals coerces every local-linkage entry to external linkage and
// returns how many entries changed. This conservatively marks all internal
// values as promoted, standing in for the planning phase that would
// normally decide which values cross module boundaries.
func (ix *Index) PromoteLocals() int {
	changed := 0
	for _, entries := range ix.Symbols {
		for _, e := range entries {
			if e.Linkage.IsLocal() {
				e.Linkage = ir.External
				changed++
			}
		}
	}
	return changed
}

// Rename moves a symbol's entries from old to new, keeping the ledger
// consistent with a promotion rename applied to a module.
func (ix *Index) Rename(old, new string) {
	entries, ok := ix.Symbols[old]
	if !ok {
		return
	}
	delete(ix.Symbols, old)
	ix.Symbols[new] = append(ix.Symbols[new], entries...)
}

// RenameModuleEntry moves only the given module's entry for a symbol to a
// new name, leaving other modules' entries for the old name in place.
func (ix *Index) RenameModuleEntry(name, module, newName string) {
	entries := ix.Symbols[name]
	for i, e := range entries {
		if e.Module != module {
			continue
		}
		ix.Symbols[newName] = append(ix.Symbols[newName], e)
		entries = append(entries[:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(ix.Symbols, name)
		} else {
			ix.Symbols[name] = entries
		}
		return
	}
}

// PromotedName returns the globally unique name a local symbol receives
// when promoted out of the given module: the original name suffixed with a
// short hash of the module identifier.
func PromotedName(name, moduleID string) string {
	h := fnv.New32a()
	h.Write([]byte(moduleID))
	return fmt.Sprintf("%s.%08x", name, h.Sum32())
}
