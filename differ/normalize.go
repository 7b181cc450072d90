package differ

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devgate/swagsync/canon"
	"github.com/devgate/swagsync/internal/httputil"
	"github.com/devgate/swagsync/syncerrors"
)

// comparedFields is the fixed order in which normalized fields are compared
// and reported in ChangedFields.
var comparedFields = []string{"tags", "parameters", "requestBody", "responses", "deprecated", "security"}

// normalizedOperation is the canonical projection of one operation limited to
// the fields that matter for compatibility comparison.
type normalizedOperation struct {
	ref OperationRef

	tags        []string
	parameters  []any
	requestBody any
	responses   any
	deprecated  bool
	security    any
}

// extractOperations walks the document's paths and builds the normalized
// operation map keyed by "{METHOD} {PATH}". A missing paths object yields an
// empty map; a paths value of the wrong type is an error.
func extractOperations(doc any) (map[string]normalizedOperation, error) {
	decoded, err := decodeDocument(doc)
	if err != nil {
		return nil, err
	}

	rawPaths, present := decoded["paths"]
	if !present || rawPaths == nil {
		return map[string]normalizedOperation{}, nil
	}
	paths, ok := rawPaths.(map[string]any)
	if !ok {
		return nil, &syncerrors.ValidationError{
			Field:   "paths",
			Message: fmt.Sprintf("paths must be an object, got %T", rawPaths),
		}
	}

	ops := make(map[string]normalizedOperation)
	for path, rawItem := range paths {
		item, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}
		for method, rawOp := range item {
			if !httputil.IsRecognizedMethod(method) {
				continue
			}
			op, ok := rawOp.(map[string]any)
			if !ok {
				continue
			}
			upper := strings.ToUpper(method)
			key := upper + " " + path
			ops[key] = normalizeOperation(OperationRef{Key: key, Method: upper, Path: path}, op)
		}
	}
	return ops, nil
}

// normalizeOperation projects one operation onto its comparable fields.
// Tags are sorted; parameters are canonicalized then sorted by their own
// stable serialization so declaration order does not register as a change.
// Request body, responses, and security keep their internal array order:
// that order is a meaningful signal.
func normalizeOperation(ref OperationRef, op map[string]any) normalizedOperation {
	n := normalizedOperation{
		ref:         ref,
		requestBody: canon.Canonicalize(op["requestBody"]),
		responses:   canon.Canonicalize(op["responses"]),
		deprecated:  coerceBool(op["deprecated"]),
		security:    canon.Canonicalize(op["security"]),
	}

	if rawTags, ok := op["tags"].([]any); ok {
		n.tags = make([]string, 0, len(rawTags))
		for _, t := range rawTags {
			n.tags = append(n.tags, fmt.Sprint(t))
		}
		sort.Strings(n.tags)
	}

	if rawParams, ok := op["parameters"].([]any); ok {
		n.parameters = make([]any, 0, len(rawParams))
		for _, p := range rawParams {
			n.parameters = append(n.parameters, canon.Canonicalize(p))
		}
		sort.Slice(n.parameters, func(i, j int) bool {
			return canon.StableStringify(n.parameters[i]) < canon.StableStringify(n.parameters[j])
		})
	}

	return n
}

// fieldStrings returns the stable serialization of each compared field,
// keyed by field name.
func (n normalizedOperation) fieldStrings() map[string]string {
	tags := make([]any, len(n.tags))
	for i, t := range n.tags {
		tags[i] = t
	}
	params := n.parameters
	if params == nil {
		params = []any{}
	}
	return map[string]string{
		"tags":        canon.StableStringify(tags),
		"parameters":  canon.StableStringify(params),
		"requestBody": canon.StableStringify(n.requestBody),
		"responses":   canon.StableStringify(n.responses),
		"deprecated":  canon.StableStringify(n.deprecated),
		"security":    canon.StableStringify(n.security),
	}
}

// changedFields compares two normalized operations field by field and returns
// the names of fields whose stable serializations differ, in comparedFields
// order. Empty result means the operations are semantically identical.
func (n normalizedOperation) changedFields(other normalizedOperation) []string {
	left := n.fieldStrings()
	right := other.fieldStrings()

	var changed []string
	for _, field := range comparedFields {
		if left[field] != right[field] {
			changed = append(changed, field)
		}
	}
	return changed
}

// coerceBool applies JavaScript-style truthiness to the deprecated flag,
// matching how loosely-authored documents mark deprecation ("true", 1, ...).
func coerceBool(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}
