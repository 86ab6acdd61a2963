package load

import (
	"context"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"go.uber.org/zap"

	"github.com/modlink/modlink/errors"
	"github.com/modlink/modlink/ir"
)

// Loader reads modules from storage by file identifier.
type Loader struct {
	fs afs.Service
}

// NewLoader creates a Loader over the given file service. A nil service
// defaults to the standard afs service, which handles plain paths as well
// as URL-style identifiers.
func NewLoader(fs afs.Service) *Loader {
	if fs == nil {
		fs = afs.New()
	}
	return &Loader{fs: fs}
}

// Load reads and decodes the module at path. With lazy set, metadata and
// function bodies stay deferred; otherwise the module is fully materialized
// and normalized by the debug-info upgrade pass before it is returned.
func (l *Loader) Load(ctx context.Context, path string, lazy bool) (*ir.Module, error) {
	Logger().Debug("loading module", zap.String("path", path), zap.Bool("lazy", lazy))

	data, err := l.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, errors.Load(path, err)
	}

	var m *ir.Module
	switch {
	case ir.IsBinary(data) && lazy:
		m, err = ir.DecodeLazy(path, data)
	case ir.IsBinary(data):
		m, err = ir.Decode(path, data)
	case lazy:
		m, err = ir.ParseBytesLazy(path, data)
	default:
		m, err = ir.ParseBytes(path, data)
	}
	if err != nil {
		return nil, errors.Parse(path, err)
	}

	if !lazy {
		if err := m.Materialize(); err != nil {
			return nil, errors.Parse(path, err)
		}
		UpgradeDebugInfo(m)
	}
	return m, nil
}

// UpgradeDebugInfo normalizes debug metadata to the current version. Stale
// debug keys from older producers are dropped and the version is bumped.
// It reports whether the module was changed. The module's metadata must be
// materialized.
func UpgradeDebugInfo(m *ir.Module) bool {
	if m.Metadata == nil {
		return false
	}
	raw, ok := m.Metadata["debug_version"]
	if !ok {
		// Debug keys without a version marker are unusable.
		return dropDebugKeys(m)
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version > ir.DebugVersion {
		Logger().Warn("unrecognized debug_version, stripping debug metadata",
			zap.String("module", m.Name), zap.String("debug_version", raw))
		changed := dropDebugKeys(m)
		delete(m.Metadata, "debug_version")
		return changed || true
	}
	if version == ir.DebugVersion {
		return false
	}

	// Old but recognized version: keep the keys, record the upgrade.
	m.Metadata["debug_version"] = strconv.Itoa(ir.DebugVersion)
	Logger().Debug("upgraded debug metadata",
		zap.String("module", m.Name), zap.Int("from", version), zap.Int("to", ir.DebugVersion))
	return true
}

func dropDebugKeys(m *ir.Module) bool {
	changed := false
	for k := range m.Metadata {
		if k != "debug_version" && strings.HasPrefix(k, "debug_") {
			delete(m.Metadata, k)
			changed = true
		}
	}
	return changed
}
