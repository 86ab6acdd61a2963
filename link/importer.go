package link

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/modlink/modlink/errors"
	"github.com/modlink/modlink/ir"
	"github.com/modlink/modlink/load"
	"github.com/modlink/modlink/summary"
)

// Importer pulls individual function definitions out of donor modules and
// merges them into the composite, batching all requests against the same
// donor into one merge so each donor is loaded and consumed exactly once.
type Importer struct {
	linker *Linker
	cache  *ModuleCache
	index  *summary.Index
}

// NewImporter creates an Importer. A nil index is allowed: importing without
// a summary index is a no-op, not an error.
func NewImporter(linker *Linker, cache *ModuleCache, index *summary.Index) *Importer {
	return &Importer{
		linker: linker,
		cache:  cache,
		index:  index,
	}
}

// donorGroup collects the functions requested from one donor file.
type donorGroup struct {
	file      string
	selection map[ir.Value]bool
}

// ImportFunctions resolves "name:file" requests and merges the selected
// function bodies into the composite. A malformed request or a donor that
// fails verification is fatal; a request naming a function the donor does
// not define, or one with interposable weak-any linkage, is skipped with a
// warning and the remaining requests proceed. Donors are merged in first
// request order.
func (imp *Importer) ImportFunctions(ctx context.Context, requests []string) error {
	if imp.index == nil {
		return nil
	}

	groups := make(map[string]*donorGroup)
	var order []*donorGroup

	for _, req := range requests {
		name, file, ok := strings.Cut(req, ":")
		if !ok || name == "" || file == "" {
			return errors.MalformedRequest(req)
		}

		src, err := imp.cache.Get(ctx, file)
		if err != nil {
			return err
		}
		if err := ir.Verify(src); err != nil {
			return err
		}

		f := src.Func(name)
		if f == nil {
			Logger().Warn("ignoring import request for non-existent function",
				zap.String("function", name),
				zap.String("module", file))
			continue
		}
		if f.Linkage.IsWeakAny() {
			Logger().Warn("ignoring import request for interposable function",
				zap.String("function", name),
				zap.String("module", file))
			continue
		}

		Logger().Info("importing function",
			zap.String("function", name),
			zap.String("module", file))
		f.Materialize()

		g := groups[file]
		if g == nil {
			g = &donorGroup{file: file, selection: make(map[ir.Value]bool)}
			groups[file] = g
			order = append(order, g)
		}
		g.selection[f] = true
	}

	for _, g := range order {
		src := imp.cache.Take(g.file)
		if err := src.MaterializeMetadata(); err != nil {
			return errors.Parse(src.Name, err)
		}
		load.UpgradeDebugInfo(src)

		imp.index.PromoteLocals()
		done, err := PromoteForImport(src, imp.index, g.selection)
		if err != nil {
			return err
		}
		if done {
			Logger().Info("promotion already satisfied, skipping donor",
				zap.String("module", g.file))
			continue
		}

		if err := imp.linker.LinkInModule(src, FlagDontForceLinkLinkonceODR, g.selection); err != nil {
			return err
		}
	}
	return nil
}
