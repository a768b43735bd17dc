// Package schemaerrors provides structured error types for ctschema.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between fatal schema problems,
// recoverable document validation problems, lookup failures and merge failures.
//
// # Error Categories
//
//   - SchemaLoadError: schema file missing, unreadable or not a mapping
//   - RefResolutionError: $ref / type_ref resolution failures, cross-file cycles, path traversal
//   - SchemaShapeError: a loaded schema violates the meta-schema
//   - ValidationError: type/required/enum/pattern mismatch in a document
//   - ReferentialIntegrityError: an in-document reference constraint failed
//   - PathNotFoundError / ValueNotFoundError: path or value lookups that failed
//   - MergeCollisionError: a no-clobber field disagreed between base and head
//   - InvalidMergeTargetError: base and head do not describe the same document
//   - ConfigError: invalid options
//
// # Usage with errors.As
//
//	_, err := merger.Merge(base, head, schema)
//	var collision *schemaerrors.MergeCollisionError
//	if errors.As(err, &collision) {
//	    fmt.Println(collision.Field, collision.Context)
//	}
package schemaerrors
