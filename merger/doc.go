// Package merger merges a head version of a document into a base version
// under schema-declared per-field strategies.
//
// Most metadata fields are write-once: a later patch may add a value the
// base lacks, but it may not change a value the base already records. Such
// disagreements stop the merge with a *schemaerrors.MergeCollisionError that
// names the field, both values and every enclosing identity-bearing record.
//
// # Quick Start
//
//	result, err := merger.Merge(base, head, schema)
//	if err != nil {
//		var collision *schemaerrors.MergeCollisionError
//		if errors.As(err, &collision) {
//			log.Fatalf("%s conflicts under %v", collision.Field, collision.ContextMap())
//		}
//		log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//		fmt.Println(msg)
//	}
//
// Or use functional options with files on disk:
//
//	result, err := merger.MergeWithOptions(
//		merger.WithBaseFile("trial.json"),
//		merger.WithHeadFile("patch.yaml"),
//		merger.WithSchemaFile("clinical_trial.json"),
//		merger.WithChangeSummary(true),
//	)
//
// # Strategies
//
// A schema node selects its strategy with "mergeStrategy":
//   - throwOnConflict: keep equal values, fail on different ones (scalars)
//   - overwrite: the head value always wins
//   - objectMerge: merge mappings field by field (objects)
//   - arrayMergeById: merge arrays of objects by an identity field (arrays of objects)
//   - append: concatenate arrays
//   - arrayUnion: append head items the base does not already hold (arrays of scalars)
//
// Nodes without an annotation use the default for their declared type, shown
// in parentheses. Fields without a schema node use the default for the values
// being merged. "mergeOptions": {"idRef": "sample_id"} changes the identity
// field of arrayMergeById from "id".
//
// # Identifier Check
//
// Before any field is merged, the top-level identifier field (by default
// "protocol_identifier") must be present in the base and equal in both
// documents. Otherwise the merge fails with a
// *schemaerrors.InvalidMergeTargetError.
//
// # Mutation
//
// The base document is updated in place and returned as Result.Document.
// A merge that fails part way leaves the base partially merged, so pass a
// copy when the original must survive a failed merge.
package merger
