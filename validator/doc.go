// Package validator checks documents against resolved schemas.
//
// Structural checks (type, required, enum, pattern and the rest of JSON
// Schema draft 7) are delegated to github.com/santhosh-tekuri/jsonschema/v5.
// On top of that the package enforces in-document reference constraints:
//
//	"cimac_id": {
//	    "type": "string",
//	    "in_doc_ref_pattern": "/participants/*/samples/*/cimac_id"
//	}
//
// A constrained value is valid only when it also appears at some location
// matching the pattern in the same document. Wildcard segments match every
// mapping value or sequence element at their level. A pattern that matches
// nothing makes every constrained value invalid.
//
// The keyword is registered with the structural validator as an extension
// that always reports a placeholder failure. Placeholders are withheld from
// the report; together with the constraints found by walking the schema
// alongside the document they are checked against the document in a second
// pass. Candidate values are computed once per pattern per call.
//
// Basic usage:
//
//	r := resolver.New(resolver.Config{Root: "schemas"})
//	v, err := validator.Load(r, "clinical_trial.json")
//	if err != nil {
//	    return err
//	}
//	result := v.Validate(doc)
//	for _, msg := range result.Messages() {
//	    fmt.Println(msg)
//	}
//
// A [Registry] memoises compiled validators per schema path.
package validator
