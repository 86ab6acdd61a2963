// Command modlink merges multiple IR modules into one. Inputs are linked
// in command-line order, optionally followed by an overriding pass and
// selective function imports driven by a symbol summary index.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/modlink/modlink/ir"
	"github.com/modlink/modlink/link"
	"github.com/modlink/modlink/load"
	"github.com/modlink/modlink/summary"
)

type options struct {
	output           string
	overrides        []string
	imports          []string
	summaryIndex     string
	internalize      bool
	onlyNeeded       bool
	disableLazy      bool
	emitText         bool
	force            bool
	verbose          bool
	suppressWarnings bool
	preserveBinOrder bool
	preserveTxtOrder bool
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "modlink <input>... [flags]",
		Short: "Merge IR modules into a single module",
		Long: `modlink reads the given IR modules, text or binary, and links them
into one composite module written to the output file.

Inputs are merged in order. Symbols defined in a later input override
interposable definitions from earlier ones; two strong definitions of
the same symbol are an error. Files given with --override replace
earlier definitions unconditionally. With a summary index, individual
functions can be pulled out of donor modules via --import name:file.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&opts.output, "output", "o", "-", "output filename ('-' for stdout)")
	fl.StringArrayVar(&opts.overrides, "override", nil, "input file whose symbols override previously linked ones")
	fl.StringArrayVar(&opts.imports, "import", nil, "function to import, as function:filename")
	fl.StringVar(&opts.summaryIndex, "summary-index", "", "symbol summary index file driving imports and promotion")
	fl.BoolVar(&opts.internalize, "internalize", false, "internalize linked symbols")
	fl.BoolVar(&opts.onlyNeeded, "only-needed", false, "link only symbols needed by earlier inputs")
	fl.BoolVar(&opts.disableLazy, "disable-lazy-loading", false, "load donor modules eagerly")
	fl.BoolVarP(&opts.emitText, "emit-text", "S", false, "write output as textual IR")
	fl.BoolVarP(&opts.force, "force", "f", false, "allow binary output to a terminal")
	fl.BoolVarP(&opts.verbose, "verbose", "v", false, "print information about every linked action")
	fl.BoolVar(&opts.suppressWarnings, "suppress-warnings", false, "suppress all linking warnings")
	fl.BoolVar(&opts.preserveBinOrder, "preserve-bin-uselistorder", true, "preserve symbol order in binary output")
	fl.BoolVar(&opts.preserveTxtOrder, "preserve-text-uselistorder", false, "preserve symbol order in textual output")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "modlink: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, inputs []string, opts *options) error {
	ctx := cmd.Context()

	logger, err := buildLogger(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()
	link.SetLogger(logger)
	load.SetLogger(logger)

	if len(opts.imports) > 0 && opts.summaryIndex == "" {
		return fmt.Errorf("function importing requires --summary-index")
	}

	fs := afs.New()
	loader := load.NewLoader(fs)

	var index *summary.Index
	if opts.summaryIndex != "" {
		index, err = summary.Read(ctx, fs, opts.summaryIndex)
		if err != nil {
			return err
		}
	}

	linker := link.New(ir.NewModule(moduleName(opts.output)))
	seq := link.NewSequencer(linker, loader, index)

	flags := link.FlagNone
	if opts.internalize {
		flags |= link.FlagInternalizeLinkedSymbols
	}
	if opts.onlyNeeded {
		flags |= link.FlagLinkOnlyNeeded
	}

	if err := seq.LinkFiles(ctx, inputs, flags); err != nil {
		return err
	}
	if len(opts.overrides) > 0 {
		if err := seq.LinkFiles(ctx, opts.overrides, flags|link.FlagOverrideFromSrc); err != nil {
			return err
		}
	}

	if len(opts.imports) > 0 {
		cache := link.NewModuleCache(func(ctx context.Context, path string) (*ir.Module, error) {
			return loader.Load(ctx, path, !opts.disableLazy)
		})
		importer := link.NewImporter(linker, cache, index)
		if err := importer.ImportFunctions(ctx, opts.imports); err != nil {
			return err
		}
	}

	out := linker.Composite()
	if err := ir.Verify(out); err != nil {
		return err
	}

	return writeOutput(cmd, out, opts)
}

// writeOutput serializes the composite and writes it in one shot, so a
// failure earlier in the pipeline never leaves a partial file behind.
func writeOutput(cmd *cobra.Command, m *ir.Module, opts *options) error {
	var data []byte
	var err error
	if opts.emitText {
		var buf bytes.Buffer
		if err := m.WriteText(&buf, opts.preserveTxtOrder); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		data, err = m.Encode(opts.preserveBinOrder)
		if err != nil {
			return err
		}
	}

	if opts.output == "-" {
		if !opts.emitText && !opts.force && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("not writing binary output to a terminal, use -f to force or -S for text")
		}
		_, err := os.Stdout.Write(data)
		return err
	}
	return afs.New().Upload(cmd.Context(), opts.output, file.DefaultFileOsMode, bytes.NewReader(data))
}

// moduleName derives the composite module's identifier from the output
// target.
func moduleName(output string) string {
	if output == "" || output == "-" {
		return "modlink"
	}
	return output
}

func buildLogger(opts *options) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	switch {
	case opts.verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case opts.suppressWarnings:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}
