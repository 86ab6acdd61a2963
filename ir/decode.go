package ir

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/modlink/modlink/ir/internal/binary"
)

// Decoding errors returned by Decode.
var (
	ErrInvalidMagic   = errors.New("invalid mir magic number")
	ErrInvalidVersion = errors.New("invalid mir container version")
)

// Decode decodes a MIR binary container into a fully materialized module.
// The path becomes the module identifier when the container carries none.
func Decode(path string, data []byte) (*Module, error) {
	return decode(path, data, false)
}

// DecodeLazy decodes a MIR binary container but defers metadata and
// function bodies for later materialization.
func DecodeLazy(path string, data []byte) (*Module, error) {
	return decode(path, data, true)
}

func decode(path string, data []byte, lazy bool) (*Module, error) {
	r := binary.NewReader(bytes.NewReader(data))

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != BinaryVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	name, err := r.ReadName()
	if err != nil {
		return nil, r.WrapError("module name", err)
	}
	if name == "" {
		name = path
	}
	m := NewModule(name)
	if m.Target, err = r.ReadName(); err != nil {
		return nil, r.WrapError("target", err)
	}

	metaCount, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("metadata", err)
	}
	metaLines := make([]string, 0, metaCount)
	for i := uint32(0); i < metaCount; i++ {
		line, err := r.ReadName()
		if err != nil {
			return nil, r.WrapError("metadata", err)
		}
		metaLines = append(metaLines, line)
	}
	if lazy {
		m.SetDeferredMetadata(metaLines)
	} else {
		m.Metadata = map[string]string{}
		for _, line := range metaLines {
			key, value, err := parseMetaLine(line)
			if err != nil {
				return nil, r.WrapError("metadata", err)
			}
			m.Metadata[key] = value
		}
	}

	globalCount, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("global section", err)
	}
	for i := uint32(0); i < globalCount; i++ {
		g, err := decodeGlobal(r)
		if err != nil {
			return nil, err
		}
		m.AppendGlobal(g)
	}

	funcCount, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("function section", err)
	}
	for i := uint32(0); i < funcCount; i++ {
		f, err := decodeFunc(r, lazy)
		if err != nil {
			return nil, err
		}
		m.AppendFunc(f)
	}

	return m, nil
}

func decodeSymbol(r *binary.Reader, section string) (Symbol, error) {
	name, err := r.ReadName()
	if err != nil {
		return Symbol{}, r.WrapError(section, err)
	}
	linkByte, err := r.ReadByte()
	if err != nil {
		return Symbol{}, r.WrapError(section, err)
	}
	if _, ok := linkageNames[Linkage(linkByte)]; !ok {
		return Symbol{}, r.WrapError(section, fmt.Errorf("unknown linkage byte 0x%02x", linkByte))
	}
	flags, err := r.ReadByte()
	if err != nil {
		return Symbol{}, r.WrapError(section, err)
	}
	return Symbol{
		Name:    name,
		Linkage: Linkage(linkByte),
		Decl:    flags&flagDecl != 0,
	}, nil
}

func decodeGlobal(r *binary.Reader) (*Global, error) {
	sym, err := decodeSymbol(r, "global section")
	if err != nil {
		return nil, err
	}
	g := &Global{Symbol: sym}
	if g.Type, err = r.ReadName(); err != nil {
		return nil, r.WrapError("global section", err)
	}
	initCount, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("global section", err)
	}
	for i := uint32(0); i < initCount; i++ {
		tok, err := r.ReadName()
		if err != nil {
			return nil, r.WrapError("global section", err)
		}
		g.Init = append(g.Init, tok)
	}
	return g, nil
}

func decodeFunc(r *binary.Reader, lazy bool) (*Function, error) {
	sym, err := decodeSymbol(r, "function section")
	if err != nil {
		return nil, err
	}
	f := &Function{Symbol: sym}

	paramCount, err := r.ReadU32()
	if err != nil {
		return nil, r.WrapError("function section", err)
	}
	for i := uint32(0); i < paramCount; i++ {
		p, err := r.ReadName()
		if err != nil {
			return nil, r.WrapError("function section", err)
		}
		f.Params = append(f.Params, p)
	}
	if f.Result, err = r.ReadName(); err != nil {
		return nil, r.WrapError("function section", err)
	}

	blob, err := r.ReadName()
	if err != nil {
		return nil, r.WrapError("function body", err)
	}
	if !f.Decl {
		if lazy {
			f.SetDeferredBody([]byte(blob))
		} else {
			f.Body = splitBodyLines([]byte(blob))
		}
	}
	return f, nil
}
