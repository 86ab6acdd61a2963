// Package link implements the multi-module combination engine.
//
// # Main Types
//
//   - Linker: the merge primitive; destructively folds donor modules into
//     the composite under a Flags set
//   - Sequencer: walks an ordered file list, applying first-file flag
//     suppression, and merges each module in turn
//   - Importer: resolves "name:file" import requests against a summary
//     index and splices individual functions out of donor modules
//   - ModuleCache: memoizing lazy loader with single-shot ownership
//     transfer via Take
//
// # Control Flow
//
// Everything here is single-threaded and sequential. The composite module
// is handed to one merge step at a time, and ownership of every donor
// transfers into LinkInModule: a consumed donor must not be dereferenced
// again.
//
// # Failure Model
//
// Load, verification, and merge failures are fatal and surface as errors
// package values. A malformed import request aborts the import step.
// Requests naming a function the donor lacks, or one with weak-any linkage,
// are logged and skipped without failing the run.
package link
