// Package load reads MIR modules from storage.
//
// A Loader resolves a file identifier to a module, decoding either the
// textual or the binary form. Loading can be lazy: symbol tables and
// signatures are parsed immediately while metadata and function bodies stay
// deferred until an orchestrator materializes them. Eager loads also run
// the debug-info upgrade pass so downstream consumers only ever see the
// current metadata version.
package load
