// Package docpath implements the textual path language used to address
// locations inside nested documents, and the wildcard path patterns used by
// in-document reference constraints.
//
// A Path is an ordered list of tokens, each either a mapping key or a
// sequence index, rendered in bracketed form:
//
//	root['participants'][0]['samples'][2]['cimac_id']
//
// Bracket contents that are purely numeric are indices; quoted contents are
// keys. Quote characters inside a key are kept literally, so the key only
// ends at the matching quote immediately followed by ']'. Keys containing
// "']" are rendered in double quotes. A key containing both "']" and "\"]"
// has no bracketed form that Parse reads back; such paths do not round-trip.
//
// Lookups walk the document step by step. Nothing is ever evaluated.
package docpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/schemaerrors"
)

// RootName is the leading identifier of every textual path.
const RootName = "root"

// Token is a single path step.
type Token struct {
	// Key is the mapping key (when IsIndex is false)
	Key string
	// Index is the sequence index (when IsIndex is true)
	Index int
	// IsIndex selects between Key and Index
	IsIndex bool
}

// Key returns a mapping key token.
func Key(k string) Token { return Token{Key: k} }

// Index returns a sequence index token.
func Index(i int) Token { return Token{Index: i, IsIndex: true} }

// Value returns the token as a string or int.
func (t Token) Value() any {
	if t.IsIndex {
		return t.Index
	}
	return t.Key
}

// String renders the token in bracketed form.
func (t Token) String() string {
	if t.IsIndex {
		return "[" + strconv.Itoa(t.Index) + "]"
	}
	quote := "'"
	if strings.Contains(t.Key, "']") {
		quote = `"`
	}
	return "[" + quote + t.Key + quote + "]"
}

// Path is an ordered sequence of tokens rooted at the document root.
type Path []Token

// String renders the path in bracketed form, e.g. root['a'][0].
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(RootName)
	for _, t := range p {
		b.WriteString(t.String())
	}
	return b.String()
}

// Truncate returns the path without its last n tokens.
// Truncating more tokens than the path has yields the root path.
func (p Path) Truncate(n int) Path {
	if n <= 0 {
		return p
	}
	if n >= len(p) {
		return Path{}
	}
	return p[:len(p)-n]
}

// Child returns a new path extended by t. The receiver is not modified.
func (p Path) Child(t Token) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, t)
}

// Keys returns the mapping-key tokens of the path, skipping indices.
func (p Path) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, t := range p {
		if !t.IsIndex {
			keys = append(keys, t.Key)
		}
	}
	return keys
}

// Parse converts the bracketed textual form into a Path.
// The leading "root" is optional.
func Parse(text string) (Path, error) {
	p := &parser{input: strings.TrimSpace(text)}
	return p.parse()
}

// MustParse is Parse for literals; it panics on error.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// parser is the cursor-based path parser.
type parser struct {
	input string
	pos   int
}

func (p *parser) parse() (Path, error) {
	if strings.HasPrefix(p.input, RootName) {
		p.pos = len(RootName)
	}

	path := Path{}
	for p.pos < len(p.input) {
		if !p.consume('[') {
			return nil, fmt.Errorf("docpath: expected '[' at position %d in %q", p.pos, p.input)
		}
		tok, err := p.parseBracket()
		if err != nil {
			return nil, err
		}
		path = append(path, tok)
	}
	return path, nil
}

func (p *parser) parseBracket() (Token, error) {
	if p.pos >= len(p.input) {
		return Token{}, fmt.Errorf("docpath: unexpected end after '[' in %q", p.input)
	}

	ch := p.peek()
	if ch == '\'' || ch == '"' {
		p.advance()
		closing := string(ch) + "]"
		end := strings.Index(p.input[p.pos:], closing)
		if end < 0 {
			return Token{}, fmt.Errorf("docpath: unterminated key at position %d in %q", p.pos, p.input)
		}
		key := p.input[p.pos : p.pos+end]
		p.pos += end + len(closing)
		return Key(key), nil
	}

	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return Token{}, fmt.Errorf("docpath: unterminated bracket at position %d in %q", p.pos, p.input)
	}
	raw := p.input[p.pos : p.pos+end]
	p.pos += end + 1
	if raw == "" {
		return Token{}, fmt.Errorf("docpath: empty brackets in %q", p.input)
	}
	if isDigits(raw) {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return Token{}, fmt.Errorf("docpath: invalid index %q: %w", raw, err)
		}
		return Index(idx), nil
	}
	return Key(raw), nil
}

func (p *parser) peek() byte {
	return p.input[p.pos]
}

func (p *parser) advance() {
	p.pos++
}

func (p *parser) consume(ch byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == ch {
		p.pos++
		return true
	}
	return false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Resolve walks path from the document root and returns the value found,
// ignoring the last skipLast tokens. It fails with a PathNotFoundError naming
// the offending token and the part of the path walked so far.
func Resolve(doc any, path Path, skipLast int) (any, error) {
	target := path.Truncate(skipLast)
	current := doc
	for i, tok := range target {
		next, ok := step(current, tok)
		if !ok {
			return nil, &schemaerrors.PathNotFoundError{
				Path:    target.String(),
				Token:   tok.Value(),
				Walked:  target[:i].String(),
				Message: describeMiss(current, tok),
			}
		}
		current = next
	}
	return current, nil
}

// ResolveString parses text and resolves it against doc.
func ResolveString(doc any, text string, skipLast int) (any, error) {
	path, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Resolve(doc, path, skipLast)
}

func step(current any, tok Token) (any, bool) {
	switch v := current.(type) {
	case map[string]any:
		if tok.IsIndex {
			// Mappings decoded from YAML may use numeric-looking keys.
			next, ok := v[strconv.Itoa(tok.Index)]
			return next, ok
		}
		next, ok := v[tok.Key]
		return next, ok
	case []any:
		if !tok.IsIndex || tok.Index < 0 || tok.Index >= len(v) {
			return nil, false
		}
		return v[tok.Index], true
	default:
		return nil, false
	}
}

func describeMiss(current any, tok Token) string {
	switch v := current.(type) {
	case map[string]any:
		return "missing key"
	case []any:
		if !tok.IsIndex {
			return "sequence indexed by key"
		}
		return fmt.Sprintf("index out of range (length %d)", len(v))
	default:
		return fmt.Sprintf("cannot step into %T", current)
	}
}

// ResolvePointer walks a JSON pointer ("/a/0/b", optionally prefixed by "#")
// through doc. Numeric tokens index sequences and are plain keys on mappings.
func ResolvePointer(doc any, ptr string) (any, bool) {
	current := doc
	for _, tok := range pathutil.SplitPointer(ptr) {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// FromPointer converts a JSON pointer into a Path, using doc to decide
// which numeric tokens are sequence indices.
func FromPointer(doc any, ptr string) Path {
	path := Path{}
	current := doc
	for _, tok := range pathutil.SplitPointer(ptr) {
		if seq, ok := current.([]any); ok {
			if idx, err := strconv.Atoi(tok); err == nil {
				path = append(path, Index(idx))
				if idx >= 0 && idx < len(seq) {
					current = seq[idx]
				} else {
					current = nil
				}
				continue
			}
		}
		path = append(path, Key(tok))
		if m, ok := current.(map[string]any); ok {
			current = m[tok]
		} else {
			current = nil
		}
	}
	return path
}
