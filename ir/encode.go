package ir

import (
	"fmt"
	"sort"

	"github.com/modlink/modlink/ir/internal/binary"
)

// Binary container constants.
const (
	// Magic spells "MIRC" when written little-endian.
	Magic uint32 = 0x4352494d
	// BinaryVersion is the current container version.
	BinaryVersion uint32 = 1
)

// Symbol flag bits in the binary container.
const flagDecl byte = 0x01

// IsBinary reports whether data starts with the MIR binary magic.
func IsBinary(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 'M' && data[1] == 'I' && data[2] == 'R' && data[3] == 'C'
}

// Encode encodes the module into the MIR binary container. When
// preserveOrder is false, symbols are emitted sorted by name. Deferred
// content is materialized first.
func (m *Module) Encode(preserveOrder bool) ([]byte, error) {
	if err := m.Materialize(); err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(BinaryVersion)
	w.WriteName(m.Name)
	w.WriteName(m.Target)

	// Metadata travels as textual meta lines so lazy decoding can defer
	// them unparsed, same as the text form.
	keys := make([]string, 0, len(m.Metadata))
	for k := range m.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.WriteU32(uint32(len(keys)))
	for _, k := range keys {
		w.WriteName(fmt.Sprintf("meta %s %q", k, m.Metadata[k]))
	}

	globals, funcs := m.orderedSymbols(preserveOrder)

	w.WriteU32(uint32(len(globals)))
	for _, g := range globals {
		w.WriteName(g.Name)
		w.Byte(byte(g.Linkage))
		w.Byte(symbolFlags(&g.Symbol))
		w.WriteName(g.Type)
		w.WriteU32(uint32(len(g.Init)))
		for _, tok := range g.Init {
			w.WriteName(tok)
		}
	}

	w.WriteU32(uint32(len(funcs)))
	for _, f := range funcs {
		w.WriteName(f.Name)
		w.Byte(byte(f.Linkage))
		w.Byte(symbolFlags(&f.Symbol))
		w.WriteU32(uint32(len(f.Params)))
		for _, p := range f.Params {
			w.WriteName(p)
		}
		w.WriteName(f.Result)
		// The body travels as one raw text blob so lazy decoding can
		// defer splitting it into instruction lines.
		w.WriteName(bodyBlob(f))
	}

	return w.Bytes(), nil
}

func symbolFlags(s *Symbol) byte {
	var flags byte
	if s.Decl {
		flags |= flagDecl
	}
	return flags
}

func bodyBlob(f *Function) string {
	if f.Decl {
		return ""
	}
	var blob string
	for _, line := range f.Body {
		blob += line + "\n"
	}
	return blob
}
