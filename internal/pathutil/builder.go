package pathutil

import (
	"strconv"
	"strings"
)

// PointerBuilder provides efficient incremental JSON Pointer construction.
// Segments are stored unescaped; escaping happens only in String().
type PointerBuilder struct {
	segments []string
	length   int // Pre-calculated length for String() allocation
}

// Push adds a mapping key segment.
func (p *PointerBuilder) Push(segment string) {
	p.segments = append(p.segments, segment)
	p.length += len(segment) + 1
}

// PushIndex adds a sequence index segment.
func (p *PointerBuilder) PushIndex(i int) {
	p.Push(strconv.Itoa(i))
}

// Pop removes the last segment.
func (p *PointerBuilder) Pop() {
	if len(p.segments) == 0 {
		return
	}
	last := p.segments[len(p.segments)-1]
	p.segments = p.segments[:len(p.segments)-1]
	p.length -= len(last) + 1
}

// Len returns the number of segments.
func (p *PointerBuilder) Len() int {
	return len(p.segments)
}

// Reset clears the builder for reuse.
func (p *PointerBuilder) Reset() {
	p.segments = p.segments[:0]
	p.length = 0
}

// String materializes the pointer ("" for the root, "/a/0/b" otherwise).
func (p *PointerBuilder) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(p.length)
	for _, seg := range p.segments {
		b.WriteByte('/')
		b.WriteString(EscapeToken(seg))
	}
	return b.String()
}

// Fragment returns the pointer in URI fragment form ("#" or "#/a/b").
func (p *PointerBuilder) Fragment() string {
	return "#" + p.String()
}

// EscapeToken escapes a pointer token per RFC 6901 (~ → ~0, / → ~1).
func EscapeToken(token string) string {
	if !strings.ContainsAny(token, "~/") {
		return token
	}
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// UnescapeToken reverses EscapeToken.
func UnescapeToken(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// SplitPointer splits "/a/b~1c" into unescaped tokens ["a", "b/c"].
// A leading "#" is accepted. The root pointer yields no tokens.
func SplitPointer(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	if ptr == "" || ptr == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, part := range parts {
		parts[i] = UnescapeToken(part)
	}
	return parts
}

// JoinPointer builds a pointer from unescaped tokens.
func JoinPointer(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(EscapeToken(t))
	}
	return b.String()
}
