package link

import (
	"context"

	"go.uber.org/zap"

	"github.com/modlink/modlink/ir"
	"github.com/modlink/modlink/summary"
)

// Loader resolves file identifiers to modules. load.Loader implements it.
type Loader interface {
	Load(ctx context.Context, path string, lazy bool) (*ir.Module, error)
}

// seqState makes the first-file flag handling an explicit state machine.
type seqState uint8

const (
	atStart seqState = iota
	inProgress
)

// Sequencer walks an ordered list of input files and folds each module into
// the composite. Internalize and only-needed semantics compare against
// symbols already present, so they are suppressed while the composite is
// still empty; override semantics pass through from the first file on.
type Sequencer struct {
	linker *Linker
	loader Loader
	index  *summary.Index
	state  seqState
}

// NewSequencer creates a Sequencer merging through linker. A non-nil index
// enables the cross-module visibility adjustments a distributed planning
// phase would have computed.
func NewSequencer(linker *Linker, loader Loader, index *summary.Index) *Sequencer {
	return &Sequencer{
		linker: linker,
		loader: loader,
		index:  index,
	}
}

// LinkFiles loads and merges every file in order. Any load or merge failure
// is fatal and aborts the walk. Each call starts a fresh first-file state:
// the suppression rule applies per input list.
func (s *Sequencer) LinkFiles(ctx context.Context, files []string, flags Flags) error {
	s.state = atStart
	for _, file := range files {
		m, err := s.loader.Load(ctx, file, false)
		if err != nil {
			return err
		}

		if s.index != nil {
			// This tool does not run the planning phase that decides
			// which values cross module boundaries, so conservatively
			// treat every local in the index as exported.
			s.index.PromoteLocals()
			done, err := PromoteForImport(m, s.index, nil)
			if err != nil {
				return err
			}
			if done {
				Logger().Info("promotion already satisfied, skipping module",
					zap.String("module", file))
				continue
			}
		}

		Logger().Info("linking in", zap.String("module", file))
		if err := s.linker.LinkInModule(m, s.effectiveFlags(flags), nil); err != nil {
			return err
		}
		s.state = inProgress
	}
	return nil
}

// effectiveFlags returns the flag set actually honored for the next merge.
func (s *Sequencer) effectiveFlags(flags Flags) Flags {
	if s.state == atStart {
		return flags & FlagOverrideFromSrc
	}
	return flags
}
