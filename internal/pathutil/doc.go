// Package pathutil provides JSON Pointer building and filesystem path guards
// used while traversing schemas and documents.
//
// The primary type is [PointerBuilder], which uses push/pop semantics to build
// RFC 6901 pointers incrementally without allocating intermediate strings.
// Resolution, validation and merging all walk trees recursively, but only
// materialise a pointer when they report a problem or record a location.
//
// # PointerBuilder Usage
//
// Use [Get] to obtain a pooled PointerBuilder, and [Put] to return it:
//
//	ptr := pathutil.Get()
//	defer pathutil.Put(ptr)
//
//	ptr.Push("properties")
//	ptr.Push(field)
//	// ... recurse ...
//	ptr.Pop()
//	ptr.Pop()
//
//	if conflict {
//	    return fmt.Errorf("conflict at %s", ptr.String())
//	}
//
// Sequence indices are pushed with [PointerBuilder.PushIndex].
//
// # Filesystem Guards
//
// [WithinRoot] resolves a relative schema path against a root directory and
// rejects paths that escape it. [SanitizeOutputPath] validates output paths
// for the CLI and rejects symlinks.
package pathutil
