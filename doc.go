// Package modlink combines independently compiled IR modules into a single
// composite module suitable for further compilation.
//
// The tool folds an ordered list of input modules into one output, lets a
// second "override" list replace previously merged definitions, and can
// simulate cross-module function importing for partitioned build pipelines
// driven by a module summary index.
//
// # Architecture Overview
//
// The repository is organized into flat feature packages:
//
//	modlink/             Root package doc
//	├── ir/              IR module model, text/binary codecs, verifier
//	├── summary/         Module summary index (symbol linkage ledger)
//	├── load/            Eager/lazy module loading and normalization
//	├── link/            Merge primitive, link sequencer, import orchestrator
//	├── errors/          Structured error types shared by all packages
//	└── cmd/modlink/     Command line driver
//
// # Quick Start
//
// Link two modules and write the result:
//
//	composite := ir.NewModule("modlink")
//	l := link.New(composite)
//	seq := link.NewSequencer(l, loader, nil)
//	if err := seq.LinkFiles(ctx, []string{"a.mir", "b.mir"}, link.FlagNone); err != nil {
//	    log.Fatal(err)
//	}
//	if err := ir.Verify(composite); err != nil {
//	    log.Fatal(err)
//	}
//	err = composite.WriteText(os.Stdout, false)
//
// # Concurrency
//
// The link pipeline is strictly sequential. The composite module is owned by
// the driver and handed to one merge step at a time; donor modules transfer
// into the merge primitive and must not be touched afterwards.
package modlink
