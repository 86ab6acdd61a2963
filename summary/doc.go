// Package summary implements the module summary index: a whole-build map
// from global symbol name to per-module linkage classification.
//
// The index is produced by an external planning phase and read here to
// coordinate symbol promotion across modules. The only mutation the link
// pipeline performs is PromoteLocals, which conservatively coerces every
// local entry to external linkage, and the renames applied while promoting
// symbols for import.
package summary
