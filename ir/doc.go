// Package ir defines the in-memory model for MIR modules and their on-disk
// forms.
//
// A module is a named collection of global variables and functions. Each
// symbol carries a linkage kind that drives conflict resolution when modules
// are combined. Function bodies are opaque instruction lines; the only
// structure the linker needs from them is the set of @name symbol
// references, which Refs extracts.
//
// Two serialized forms are supported: a textual form (ParseBytes/WriteText)
// and a binary container (Decode/Encode) with a "MIRC" magic header. Both
// round-trip symbols, linkages, metadata, and bodies.
//
// Verify performs the structural checks the link pipeline relies on:
// name uniqueness, declaration consistency, linkage validity, and reference
// resolution.
package ir
