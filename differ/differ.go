package differ

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/devgate/swagsync/syncerrors"
)

// OperationRef identifies one operation within a document by its derived key
// "{METHOD} {PATH}".
type OperationRef struct {
	Key    string `json:"key"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// ChangedOperation is an operation present in both documents whose normalized
// projection differs. ChangedFields lists the differing field names.
type ChangedOperation struct {
	OperationRef
	ChangedFields []string `json:"changedFields"`
}

// Summary holds the diff counters. Every operation key in the union of both
// documents is counted in exactly one of Added, Removed, Changed, or
// Unchanged.
type Summary struct {
	BeforeTotal int `json:"beforeTotal"`
	AfterTotal  int `json:"afterTotal"`
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	Changed     int `json:"changed"`
	Unchanged   int `json:"unchanged"`
}

// Result is the outcome of diffing two documents. The Added, Removed, and
// Changed slices are sorted lexicographically by operation key.
type Result struct {
	Summary Summary            `json:"summary"`
	Added   []OperationRef     `json:"added"`
	Removed []OperationRef     `json:"removed"`
	Changed []ChangedOperation `json:"changed"`
}

// Diff compares two OpenAPI documents by operation key and returns which
// operations were added, removed, or changed between before and after.
// Each document may be a decoded JSON value (map[string]any), a JSON-encoded
// string, or a []byte of JSON text.
func Diff(before, after any) (*Result, error) {
	beforeOps, err := extractOperations(before)
	if err != nil {
		return nil, fmt.Errorf("differ: diff failed: before document: %w", err)
	}
	afterOps, err := extractOperations(after)
	if err != nil {
		return nil, fmt.Errorf("differ: diff failed: after document: %w", err)
	}

	result := &Result{
		Added:   []OperationRef{},
		Removed: []OperationRef{},
		Changed: []ChangedOperation{},
	}
	result.Summary.BeforeTotal = len(beforeOps)
	result.Summary.AfterTotal = len(afterOps)

	for key, op := range beforeOps {
		if _, ok := afterOps[key]; !ok {
			result.Removed = append(result.Removed, op.ref)
		}
	}

	for key, afterOp := range afterOps {
		beforeOp, ok := beforeOps[key]
		if !ok {
			result.Added = append(result.Added, afterOp.ref)
			continue
		}
		changed := beforeOp.changedFields(afterOp)
		if len(changed) > 0 {
			result.Changed = append(result.Changed, ChangedOperation{
				OperationRef:  afterOp.ref,
				ChangedFields: changed,
			})
		} else {
			result.Summary.Unchanged++
		}
	}

	sort.Slice(result.Added, func(i, j int) bool { return result.Added[i].Key < result.Added[j].Key })
	sort.Slice(result.Removed, func(i, j int) bool { return result.Removed[i].Key < result.Removed[j].Key })
	sort.Slice(result.Changed, func(i, j int) bool { return result.Changed[i].Key < result.Changed[j].Key })

	result.Summary.Added = len(result.Added)
	result.Summary.Removed = len(result.Removed)
	result.Summary.Changed = len(result.Changed)

	return result, nil
}

// decodeDocument turns boundary input into a map document. Strings and byte
// slices are parsed as JSON; maps pass through.
func decodeDocument(v any) (map[string]any, error) {
	switch doc := v.(type) {
	case nil:
		return nil, &syncerrors.ValidationError{Message: "document is null"}
	case map[string]any:
		return doc, nil
	case string:
		return unmarshalDocument([]byte(doc))
	case []byte:
		return unmarshalDocument(doc)
	case json.RawMessage:
		return unmarshalDocument(doc)
	default:
		return nil, &syncerrors.ValidationError{
			Message: fmt.Sprintf("document must be a JSON object or JSON string, got %T", v),
		}
	}
}

func unmarshalDocument(data []byte) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &syncerrors.ValidationError{Message: "document is not valid JSON", Cause: err}
	}
	switch doc := decoded.(type) {
	case map[string]any:
		return doc, nil
	case string:
		// Clients that stringify documents before posting arrive here as a
		// JSON string whose text is itself a JSON document.
		var inner map[string]any
		if err := json.Unmarshal([]byte(doc), &inner); err != nil {
			return nil, &syncerrors.ValidationError{Message: "document string is not valid JSON", Cause: err}
		}
		return inner, nil
	case nil:
		return nil, &syncerrors.ValidationError{Message: "document is null"}
	default:
		return nil, &syncerrors.ValidationError{
			Message: fmt.Sprintf("document must be a JSON object or JSON string, got %T", decoded),
		}
	}
}
