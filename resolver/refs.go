package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ctschema/ctschema/internal/docutil"
	"github.com/ctschema/ctschema/internal/pathutil"
	"github.com/ctschema/ctschema/schemaerrors"
)

// fileContext resolves the references of one schema document.
type fileContext struct {
	r    *Resolver
	st   *resolveState
	file string // absolute path, "" for in-memory schemas
	raw  map[string]any

	// expanding holds same-file type_ref targets currently being expanded
	expanding map[string]bool
	// recursive memoises whether a same-file target reaches itself
	recursive map[string]bool
}

func newFileContext(r *Resolver, st *resolveState, file string, raw map[string]any) *fileContext {
	return &fileContext{
		r:         r,
		st:        st,
		file:      file,
		raw:       raw,
		expanding: make(map[string]bool),
		recursive: make(map[string]bool),
	}
}

func (fc *fileContext) display() string {
	return fc.r.display(fc.file)
}

func (fc *fileContext) resolveRoot() (map[string]any, error) {
	ptr := pathutil.Get()
	defer pathutil.Put(ptr)

	out, err := fc.resolveNode(fc.raw, ptr)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, &schemaerrors.RefResolutionError{
			File:    fc.display(),
			Message: fmt.Sprintf("top-level reference resolved to %T, not a mapping", out),
		}
	}
	return m, nil
}

// resolveNode returns a resolved copy of node. ptr is the location of node
// in the output document.
func (fc *fileContext) resolveNode(node any, ptr *pathutil.PointerBuilder) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v[KeyRef].(string); ok {
			return fc.resolveRef(v, ref, ptr)
		}
		if ref, ok := v[KeyTypeRef].(string); ok {
			return fc.resolveTypeRef(v, ref, ptr)
		}
		out := make(map[string]any, len(v))
		for _, k := range sortedKeys(v) {
			ptr.Push(k)
			child, err := fc.resolveNode(v[k], ptr)
			ptr.Pop()
			if err != nil {
				return nil, err
			}
			out[k] = child
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			ptr.PushIndex(i)
			child, err := fc.resolveNode(item, ptr)
			ptr.Pop()
			if err != nil {
				return nil, err
			}
			out[i] = child
		}
		return out, nil
	default:
		return v, nil
	}
}

func (fc *fileContext) resolveRef(node map[string]any, ref string, ptr *pathutil.PointerBuilder) (any, error) {
	if !isLocal(ref) {
		return fc.external(ref, ptr)
	}

	// Same-file references are kept so recursive definitions terminate.
	// Cross-file cycles have no equivalent escape and fail in resolveFile;
	// the asymmetry is intentional.
	if fc.r.mode == ModeKeepLocal || fc.isRecursive(fragmentOf(ref)) {
		return docutil.DeepCopy(node), nil
	}

	target, err := lookupPointer(fc.raw, fragmentOf(ref))
	if err != nil {
		return nil, fc.refError(ref, ptr, err)
	}
	fc.r.logger.Debug("inlining local reference", "ref", ref, "file", fc.display(), "at", ptr.Fragment())
	return fc.resolveNode(target, ptr)
}

func (fc *fileContext) resolveTypeRef(node map[string]any, ref string, ptr *pathutil.PointerBuilder) (any, error) {
	var target any
	if isLocal(ref) {
		frag := fragmentOf(ref)
		if fc.expanding[frag] {
			return nil, &schemaerrors.RefResolutionError{
				Ref:        ref,
				File:       fc.display(),
				Field:      ptr.Fragment(),
				IsCircular: true,
				Message:    "type_ref expands into itself",
			}
		}
		raw, err := lookupPointer(fc.raw, frag)
		if err != nil {
			return nil, fc.refError(ref, ptr, err)
		}
		fc.expanding[frag] = true
		target, err = fc.resolveNode(raw, ptr)
		delete(fc.expanding, frag)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		target, err = fc.external(ref, ptr)
		if err != nil {
			return nil, err
		}
	}

	base, ok := target.(map[string]any)
	if !ok {
		return nil, &schemaerrors.RefResolutionError{
			Ref:     ref,
			File:    fc.display(),
			Field:   ptr.Fragment(),
			Message: fmt.Sprintf("type_ref target is %T, not a mapping", target),
		}
	}

	for _, k := range sortedKeys(node) {
		if k == KeyTypeRef {
			continue
		}
		ptr.Push(k)
		val, err := fc.resolveNode(node[k], ptr)
		ptr.Pop()
		if err != nil {
			return nil, err
		}
		if k == KeyDescription || k == KeyComment {
			prev, okPrev := base[k].(string)
			own, okOwn := val.(string)
			if okPrev && okOwn {
				base[k] = joinText(prev, own)
				continue
			}
		}
		base[k] = val
	}
	return base, nil
}

// external resolves a cross-file reference and returns a private copy of
// the target fragment, ready to be placed at ptr.
func (fc *fileContext) external(ref string, ptr *pathutil.PointerBuilder) (any, error) {
	file, frag := splitRef(ref)
	abs, err := pathutil.WithinRoot(fc.r.root, file)
	if err != nil {
		return nil, &schemaerrors.RefResolutionError{
			Ref:             ref,
			File:            fc.display(),
			Field:           ptr.Fragment(),
			IsPathTraversal: errors.Is(err, pathutil.ErrOutsideRoot),
			Cause:           err,
		}
	}

	resolved, err := fc.r.resolveFile(fc.st, abs)
	if err != nil {
		return nil, &schemaerrors.RefResolutionError{
			Ref:   ref,
			File:  fc.display(),
			Field: ptr.Fragment(),
			Cause: err,
		}
	}

	target, err := lookupPointer(resolved, frag)
	if err != nil {
		return nil, fc.refError(ref, ptr, err)
	}

	fc.r.logger.Debug("splicing reference", "ref", ref, "file", fc.display(), "at", ptr.Fragment())
	sp := &splicer{
		doc:      resolved,
		file:     fc.r.display(abs),
		frag:     frag,
		site:     ptr.String(),
		inlining: make(map[string]string),
	}
	out, err := sp.rewrite(docutil.DeepCopy(target), sp.site)
	if err != nil {
		return nil, err
	}
	if m, ok := out.(map[string]any); ok && frag == "" {
		delete(m, KeySchema)
		delete(m, KeyID)
	}
	return out, nil
}

func (fc *fileContext) refError(ref string, ptr *pathutil.PointerBuilder, cause error) error {
	return &schemaerrors.RefResolutionError{
		Ref:   ref,
		File:  fc.display(),
		Field: ptr.Fragment(),
		Cause: cause,
	}
}

// isRecursive reports whether the same-file target at frag can reach itself
// through further same-file references.
func (fc *fileContext) isRecursive(frag string) bool {
	if rec, ok := fc.recursive[frag]; ok {
		return rec
	}
	seen := make(map[string]bool)
	var reaches func(string) bool
	reaches = func(from string) bool {
		if seen[from] {
			return false
		}
		seen[from] = true
		node, err := lookupPointer(fc.raw, from)
		if err != nil {
			return false
		}
		for _, next := range localTargets(node) {
			if next == frag || reaches(next) {
				return true
			}
		}
		return false
	}
	rec := reaches(frag)
	fc.recursive[frag] = rec
	return rec
}

// splicer rewrites the same-file references of a fragment copied out of a
// resolved document so they stay valid in the host document.
type splicer struct {
	doc  map[string]any // resolved source document
	file string         // source file, for errors
	frag string         // pointer of the fragment in doc ("" for the whole document)
	site string         // pointer of the reference site in the host

	// inlining maps out-of-fragment targets currently being copied in to the
	// host pointer of their copy
	inlining map[string]string
}

// rewrite returns node with its references rewritten. at is the host
// pointer node is placed at.
func (s *splicer) rewrite(node any, at string) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v[KeyRef].(string); ok && isLocal(ref) {
			target := fragmentOf(ref)
			if withinPointer(target, s.frag) {
				v[KeyRef] = "#" + s.site + strings.TrimPrefix(target, s.frag)
				return v, nil
			}
			if host, inner, ok := s.enclosingCopy(target); ok {
				v[KeyRef] = "#" + host + strings.TrimPrefix(target, inner)
				return v, nil
			}
			// The target has no address in the host yet, so it is copied in here.
			found, err := lookupPointer(s.doc, target)
			if err != nil {
				return nil, &schemaerrors.RefResolutionError{Ref: ref, File: s.file, Cause: err}
			}
			s.inlining[target] = at
			inlined, err := s.rewrite(docutil.DeepCopy(found), at)
			delete(s.inlining, target)
			return inlined, err
		}
		for k, child := range v {
			out, err := s.rewrite(child, at+"/"+pathutil.EscapeToken(k))
			if err != nil {
				return nil, err
			}
			v[k] = out
		}
		return v, nil
	case []any:
		for i, item := range v {
			out, err := s.rewrite(item, at+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			v[i] = out
		}
		return v, nil
	default:
		return v, nil
	}
}

// enclosingCopy finds the innermost target being copied in that contains
// target, returning the host pointer of its copy and its source pointer.
func (s *splicer) enclosingCopy(target string) (host, inner string, ok bool) {
	for t, h := range s.inlining {
		if withinPointer(target, t) && (!ok || len(t) > len(inner)) {
			host, inner, ok = h, t, true
		}
	}
	return host, inner, ok
}

// localTargets returns the pointers of every same-file reference below node.
func localTargets(node any) []string {
	var out []string
	var visit func(any)
	visit = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			for _, key := range []string{KeyRef, KeyTypeRef} {
				if ref, ok := v[key].(string); ok && isLocal(ref) {
					out = append(out, fragmentOf(ref))
				}
			}
			for _, child := range v {
				visit(child)
			}
		case []any:
			for _, item := range v {
				visit(item)
			}
		}
	}
	visit(node)
	return out
}

// lookupPointer walks a JSON pointer ("" or "/a/0/b") through doc.
func lookupPointer(doc any, ptr string) (any, error) {
	current := doc
	tokens := pathutil.SplitPointer(ptr)
	for i, tok := range tokens {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return nil, fmt.Errorf("reference target not found: #%s (missing key: %s)",
					pathutil.JoinPointer(tokens[:i+1]), tok)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("reference target not found: #%s (invalid index %s for length %d)",
					pathutil.JoinPointer(tokens[:i+1]), tok, len(v))
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot traverse into %T at #%s", v, pathutil.JoinPointer(tokens[:i]))
		}
	}
	return current, nil
}

func isLocal(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

// splitRef separates "file.json#/a/b" into "file.json" and "/a/b".
func splitRef(ref string) (file, frag string) {
	file, frag, _ = strings.Cut(ref, "#")
	return file, normalizeFragment(frag)
}

// fragmentOf returns the pointer part of a same-file reference.
func fragmentOf(ref string) string {
	return normalizeFragment(strings.TrimPrefix(ref, "#"))
}

func normalizeFragment(frag string) string {
	if frag == "/" {
		return ""
	}
	return frag
}

func withinPointer(ptr, prefix string) bool {
	return prefix == "" || ptr == prefix || strings.HasPrefix(ptr, prefix+"/")
}

func joinText(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + "\n\n" + second
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
