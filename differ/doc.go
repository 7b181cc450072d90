// Package differ computes operation-level semantic diffs between two
// Swagger/OpenAPI documents.
//
// Documents are treated as weakly-typed JSON values: the only structural
// assumption is a paths object mapping path templates to method-keyed
// operations. Each operation is projected onto the fields that matter for
// compatibility (tags, parameters, request body, responses, deprecation,
// security), canonicalized via the canon package, and compared by stable
// serialization. The result is deterministic and independent of input key
// ordering at any nesting depth.
//
// Example:
//
//	result, err := differ.Diff(beforeDoc, afterDoc)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, op := range result.Changed {
//		fmt.Printf("%s changed: %v\n", op.Key, op.ChangedFields)
//	}
package differ
