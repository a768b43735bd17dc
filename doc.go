// Package ctschema validates, cross-references and merges clinical trial
// metadata documents against declarative schemas that may span several files.
//
// # Overview
//
// The library consists of these packages:
//
//   - docpath: parse and resolve paths such as root['participants'][0]['samples']
//   - locator: find every location of a value and the record that contains it
//   - resolver: inline $ref and type_ref references into a single schema tree
//   - validator: structural validation plus in-document reference checks
//   - merger: merge a patch into a stored record under per-field strategies
//   - schemaerrors: the error types returned by all of the above
//   - schemas: the embedded meta-schema and clinical trial schema set
//
// Documents and schemas are plain value trees: map[string]any, []any and
// scalars, as produced by decoding JSON or YAML.
//
// # Quick Start
//
// Resolve and validate:
//
//	r := resolver.New(resolver.Config{Root: "schemas"})
//	reg := validator.NewRegistry(r)
//	result, err := reg.Validate(doc, "clinical_trial.json")
//	if err != nil {
//		log.Fatal(err) // the schema could not be loaded or resolved
//	}
//	for _, msg := range result.Messages() {
//		fmt.Println(msg)
//	}
//
// Merge a patch into a stored record:
//
//	v, err := reg.For("clinical_trial.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	merged, err := merger.New(merger.DefaultConfig()).Merge(record, patch, v)
//
// Locate the sample that carries a known identifier:
//
//	sample, context, err := locator.LocateContainer(record, "CTTTPP1S1.00", 1)
//
// # In-document References
//
// A schema field may declare "in_doc_ref_pattern": "/shipments/*/manifest_id".
// The document is valid only if the field's value also appears at a location
// matching the pattern. Each "*" matches every child of a mapping or sequence.
//
// # Command Line and MCP
//
// The ctschema command exposes validate, merge, locate and resolve as
// subcommands, and "ctschema mcp" serves the same operations as MCP tools
// over stdio.
package ctschema
