package ir

import (
	"fmt"
	"strings"
)

// ParseBytes parses textual MIR into a fully materialized module. The path
// becomes the module identifier when the source has no module directive.
func ParseBytes(path string, data []byte) (*Module, error) {
	m, err := parseText(path, data, false)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ParseBytesLazy parses textual MIR but defers function bodies and metadata
// for later materialization.
func ParseBytesLazy(path string, data []byte) (*Module, error) {
	return parseText(path, data, true)
}

type textParser struct {
	lines []string
	// next line index, for error positions
	pos   int
	lazy  bool
	m     *Module
	metas []string
}

func parseText(path string, data []byte, lazy bool) (*Module, error) {
	p := &textParser{
		lines: strings.Split(string(data), "\n"),
		lazy:  lazy,
		m:     NewModule(path),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	if lazy {
		metas := p.metas
		if metas == nil {
			metas = []string{}
		}
		p.m.SetDeferredMetadata(metas)
	} else {
		p.m.Metadata = map[string]string{}
		for _, line := range p.metas {
			key, value, err := parseMetaLine(line)
			if err != nil {
				return nil, err
			}
			p.m.Metadata[key] = value
		}
	}
	return p.m, nil
}

func (p *textParser) run() error {
	for p.pos < len(p.lines) {
		lineNo := p.pos + 1
		line := stripComment(p.lines[p.pos])
		p.pos++
		if line == "" {
			continue
		}

		word, rest := cutWord(line)
		var err error
		switch word {
		case "module":
			p.m.Name, err = parseQuoted(rest)
		case "target":
			p.m.Target, err = parseQuoted(rest)
		case "meta":
			p.metas = append(p.metas, line)
		case "global":
			err = p.parseGlobal(rest)
		case "func":
			err = p.parseFunc(rest)
		default:
			err = fmt.Errorf("unexpected directive %q", word)
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return nil
}

// parseGlobal parses "@name linkage type [= init tokens]".
func (p *textParser) parseGlobal(rest string) error {
	name, rest, err := parseSymbolName(rest)
	if err != nil {
		return err
	}
	linkTok, rest := cutWord(rest)
	linkage, ok := ParseLinkage(linkTok)
	if !ok {
		return fmt.Errorf("global @%s: unknown linkage %q", name, linkTok)
	}
	typ, rest := cutWord(rest)
	if typ == "" {
		return fmt.Errorf("global @%s: missing type", name)
	}

	g := &Global{
		Symbol: Symbol{Name: name, Linkage: linkage},
		Type:   typ,
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		g.Decl = true
	} else {
		if !strings.HasPrefix(rest, "=") {
			return fmt.Errorf("global @%s: expected '=' before initializer", name)
		}
		init := strings.Fields(strings.TrimSpace(rest[1:]))
		if len(init) == 0 {
			return fmt.Errorf("global @%s: empty initializer", name)
		}
		g.Init = init
	}
	p.m.AppendGlobal(g)
	return nil
}

// parseFunc parses "@name linkage (params) -> result [{".
func (p *textParser) parseFunc(rest string) error {
	name, rest, err := parseSymbolName(rest)
	if err != nil {
		return err
	}
	linkTok, rest := cutWord(rest)
	linkage, ok := ParseLinkage(linkTok)
	if !ok {
		return fmt.Errorf("func @%s: unknown linkage %q", name, linkTok)
	}

	rest = strings.TrimSpace(rest)
	open := strings.IndexByte(rest, '(')
	closing := strings.IndexByte(rest, ')')
	if open != 0 || closing < 0 {
		return fmt.Errorf("func @%s: malformed parameter list", name)
	}
	var params []string
	if inner := strings.TrimSpace(rest[open+1 : closing]); inner != "" {
		for _, prm := range strings.Split(inner, ",") {
			params = append(params, strings.TrimSpace(prm))
		}
	}
	rest = strings.TrimSpace(rest[closing+1:])
	if !strings.HasPrefix(rest, "->") {
		return fmt.Errorf("func @%s: missing '->' result", name)
	}
	rest = strings.TrimSpace(rest[2:])
	result, rest := cutWord(rest)
	if result == "" {
		return fmt.Errorf("func @%s: missing result type", name)
	}

	f := &Function{
		Symbol: Symbol{Name: name, Linkage: linkage},
		Params: params,
		Result: result,
	}

	rest = strings.TrimSpace(rest)
	switch rest {
	case "":
		f.Decl = true
	case "{":
		body, err := p.collectBody(name)
		if err != nil {
			return err
		}
		if p.lazy {
			f.SetDeferredBody(body)
		} else {
			f.Body = splitBodyLines(body)
		}
	default:
		return fmt.Errorf("func @%s: unexpected trailing %q", name, rest)
	}
	p.m.AppendFunc(f)
	return nil
}

// collectBody gathers raw body text up to the closing brace line.
func (p *textParser) collectBody(name string) ([]byte, error) {
	var b strings.Builder
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++
		if strings.TrimSpace(line) == "}" {
			return []byte(b.String()), nil
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return nil, fmt.Errorf("func @%s: unterminated body", name)
}

// parseMetaLine parses `meta key "value"`.
func parseMetaLine(line string) (key, value string, err error) {
	word, rest := cutWord(line)
	if word != "meta" {
		return "", "", fmt.Errorf("malformed metadata line %q", line)
	}
	key, rest = cutWord(rest)
	if key == "" {
		return "", "", fmt.Errorf("metadata line missing key: %q", line)
	}
	value, err = parseQuoted(rest)
	if err != nil {
		return "", "", fmt.Errorf("metadata %s: %w", key, err)
	}
	return key, value, nil
}

// parseSymbolName consumes a leading "@name" token.
func parseSymbolName(s string) (name, rest string, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") {
		return "", "", fmt.Errorf("expected @name, got %q", s)
	}
	i := 1
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	if i == 1 {
		return "", "", fmt.Errorf("empty symbol name in %q", s)
	}
	return s[1:i], s[i:], nil
}

// parseQuoted parses a double-quoted string.
func parseQuoted(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	return s[1 : len(s)-1], nil
}

// cutWord splits off the first whitespace-delimited word.
func cutWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// stripComment removes a trailing ";" comment, honoring double quotes, and
// trims surrounding whitespace.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return strings.TrimSpace(line[:i])
			}
		}
	}
	return strings.TrimSpace(line)
}
