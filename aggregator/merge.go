package aggregator

import (
	"fmt"
	"log/slog"

	"github.com/devgate/swagsync/internal/httputil"
)

// mergedTitle is the constant identity of every merged document.
const mergedTitle = "Merged API Documentation"

// shallowMergedSections are the top-level component maps merged across
// groups with last-write-wins per key.
var shallowMergedSections = []string{"definitions", "securityDefinitions", "parameters", "responses"}

// mergeGroupDocs merges group documents into one OAS 2.0 document, or nil
// when no group yielded a document. Groups are processed in resource order,
// so collision resolution is deterministic for a fixed discovery response.
//
// Per-operation tags are rewritten to "{group}/{tag}" ("{group}" when the
// operation is untagged), the global tag list is deduplicated by name, and
// every operation's responses are filtered to the fixed portal subset.
func mergeGroupDocs(docs []groupDoc, logger *slog.Logger) map[string]any {
	if len(docs) == 0 {
		return nil
	}

	// Base template metadata comes from the first document; unknown fields
	// pass through verbatim.
	merged := make(map[string]any, len(docs[0].doc)+4)
	for k, v := range docs[0].doc {
		merged[k] = v
	}
	merged["info"] = mergedInfo(docs[0].doc)
	merged["paths"] = map[string]any{}
	merged["tags"] = []any{}
	for _, section := range shallowMergedSections {
		merged[section] = map[string]any{}
	}

	mergedPaths := merged["paths"].(map[string]any)
	pathOwner := map[string]string{} // "{method} {path}" -> group
	var tags []any
	tagSeen := map[string]bool{}

	for _, gd := range docs {
		for _, section := range shallowMergedSections {
			dst := merged[section].(map[string]any)
			if src, ok := gd.doc[section].(map[string]any); ok {
				for k, v := range src {
					dst[k] = v
				}
			}
		}

		paths, ok := gd.doc["paths"].(map[string]any)
		if !ok {
			continue
		}
		for path, rawItem := range paths {
			item, ok := rawItem.(map[string]any)
			if !ok {
				continue
			}
			outItem := make(map[string]any, len(item))
			for key, rawOp := range item {
				if !httputil.IsRecognizedMethod(key) {
					outItem[key] = rawOp
					continue
				}
				op, ok := rawOp.(map[string]any)
				if !ok {
					outItem[key] = rawOp
					continue
				}

				opKey := key + " " + path
				if owner, exists := pathOwner[opKey]; exists && owner != gd.group {
					// Cross-group collision: last group wins; the overwrite
					// is almost certainly an upstream configuration bug.
					logger.Warn("path collision across swagger groups, later group overwrites",
						"path", path, "method", key, "kept_group", gd.group, "lost_group", owner)
				}
				pathOwner[opKey] = gd.group

				outOp := rewriteOperation(op, gd.group)
				for _, tag := range outOp["tags"].([]any) {
					name := tag.(string)
					if !tagSeen[name] {
						tagSeen[name] = true
						tags = append(tags, map[string]any{"name": name})
					}
				}
				outItem[key] = outOp
			}

			if existing, ok := mergedPaths[path].(map[string]any); ok {
				for k, v := range outItem {
					existing[k] = v
				}
			} else {
				mergedPaths[path] = outItem
			}
		}
	}

	if tags == nil {
		tags = []any{}
	}
	merged["tags"] = tags
	return merged
}

// mergedInfo builds the constant-identity info block, carrying any extra
// info fields from the first document.
func mergedInfo(first map[string]any) map[string]any {
	info := map[string]any{}
	if src, ok := first["info"].(map[string]any); ok {
		for k, v := range src {
			info[k] = v
		}
	}
	info["title"] = mergedTitle
	if _, ok := info["version"]; !ok {
		info["version"] = "1.0.0"
	}
	return info
}

// rewriteOperation clones one operation with namespaced tags and filtered
// responses; all other fields pass through verbatim.
func rewriteOperation(op map[string]any, group string) map[string]any {
	out := make(map[string]any, len(op))
	for k, v := range op {
		out[k] = v
	}

	var newTags []any
	if rawTags, ok := op["tags"].([]any); ok && len(rawTags) > 0 {
		newTags = make([]any, 0, len(rawTags))
		for _, t := range rawTags {
			newTags = append(newTags, fmt.Sprintf("%s/%v", group, t))
		}
	} else {
		newTags = []any{group}
	}
	out["tags"] = newTags

	if responses, ok := op["responses"].(map[string]any); ok {
		filtered := make(map[string]any, len(httputil.ResponseKeyOrder))
		for _, key := range httputil.ResponseKeyOrder {
			if v, present := responses[key]; present {
				filtered[key] = v
			}
		}
		out["responses"] = filtered
	}
	return out
}
