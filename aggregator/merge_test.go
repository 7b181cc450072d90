package aggregator

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestMergeGroupDocsEmpty(t *testing.T) {
	assert.Nil(t, mergeGroupDocs(nil, discard()))
	assert.Nil(t, mergeGroupDocs([]groupDoc{}, discard()))
}

func TestMergeGroupDocsTagNamespacing(t *testing.T) {
	docs := []groupDoc{
		{group: "A", doc: map[string]any{
			"paths": map[string]any{
				"/users": map[string]any{
					"get": map[string]any{"tags": []any{"Users"}},
				},
			},
		}},
		{group: "B", doc: map[string]any{
			"paths": map[string]any{
				"/accounts": map[string]any{
					"get": map[string]any{"tags": []any{"Users"}},
				},
			},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	require.NotNil(t, merged)

	usersOp := merged["paths"].(map[string]any)["/users"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, []any{"A/Users"}, usersOp["tags"])

	accountsOp := merged["paths"].(map[string]any)["/accounts"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, []any{"B/Users"}, accountsOp["tags"])

	var tagNames []string
	for _, tag := range merged["tags"].([]any) {
		tagNames = append(tagNames, tag.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"A/Users", "B/Users"}, tagNames,
		"same original tag in two groups yields two distinct namespaced tags")
}

func TestMergeGroupDocsUntaggedOperation(t *testing.T) {
	docs := []groupDoc{
		{group: "core", doc: map[string]any{
			"paths": map[string]any{
				"/ping": map[string]any{"get": map[string]any{}},
			},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	op := merged["paths"].(map[string]any)["/ping"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, []any{"core"}, op["tags"])
}

func TestMergeGroupDocsResponseFilter(t *testing.T) {
	docs := []groupDoc{
		{group: "g", doc: map[string]any{
			"paths": map[string]any{
				"/a": map[string]any{
					"get": map[string]any{
						"responses": map[string]any{
							"200":   map[string]any{"description": "ok"},
							"404":   map[string]any{"description": "dropped"},
							"40001": map[string]any{"description": "biz error"},
							"500":   map[string]any{"description": "dropped too"},
						},
					},
				},
			},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	responses := merged["paths"].(map[string]any)["/a"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)

	assert.Len(t, responses, 2)
	assert.Contains(t, responses, "200")
	assert.Contains(t, responses, "40001")
	assert.NotContains(t, responses, "404")
	assert.NotContains(t, responses, "500")
}

func TestMergeGroupDocsIdentityAndMetadata(t *testing.T) {
	docs := []groupDoc{
		{group: "first", doc: map[string]any{
			"swagger":  "2.0",
			"host":     "svc.internal",
			"basePath": "/",
			"info":     map[string]any{"title": "first svc", "version": "3.1.4", "x-owner": "team-a"},
			"paths":    map[string]any{},
		}},
		{group: "second", doc: map[string]any{
			"swagger": "2.0",
			"host":    "other.internal",
			"info":    map[string]any{"title": "second svc"},
			"paths":   map[string]any{},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	info := merged["info"].(map[string]any)

	assert.Equal(t, "Merged API Documentation", info["title"])
	assert.Equal(t, "3.1.4", info["version"])
	assert.Equal(t, "team-a", info["x-owner"], "extra info fields pass through")
	assert.Equal(t, "svc.internal", merged["host"], "base metadata comes from the first document")
}

func TestMergeGroupDocsShallowMergeSections(t *testing.T) {
	docs := []groupDoc{
		{group: "a", doc: map[string]any{
			"paths":       map[string]any{},
			"definitions": map[string]any{"Pet": map[string]any{"type": "object"}, "Shared": map[string]any{"from": "a"}},
		}},
		{group: "b", doc: map[string]any{
			"paths":       map[string]any{},
			"definitions": map[string]any{"Order": map[string]any{"type": "object"}, "Shared": map[string]any{"from": "b"}},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	defs := merged["definitions"].(map[string]any)

	assert.Len(t, defs, 3)
	assert.Equal(t, map[string]any{"from": "b"}, defs["Shared"], "later group wins on key collision")
}

func TestMergeGroupDocsCrossGroupPathCollision(t *testing.T) {
	docs := []groupDoc{
		{group: "a", doc: map[string]any{
			"paths": map[string]any{"/dup": map[string]any{"get": map[string]any{"summary": "from a"}}},
		}},
		{group: "b", doc: map[string]any{
			"paths": map[string]any{"/dup": map[string]any{"get": map[string]any{"summary": "from b"}}},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	op := merged["paths"].(map[string]any)["/dup"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, "from b", op["summary"], "later-iterated group overwrites")
	assert.Equal(t, []any{"b"}, op["tags"])
}

func TestMergeGroupDocsNonOperationPathKeys(t *testing.T) {
	docs := []groupDoc{
		{group: "g", doc: map[string]any{
			"paths": map[string]any{
				"/a": map[string]any{
					"get":        map[string]any{},
					"parameters": []any{map[string]any{"name": "id"}},
				},
			},
		}},
	}

	merged := mergeGroupDocs(docs, discard())
	item := merged["paths"].(map[string]any)["/a"].(map[string]any)
	assert.Contains(t, item, "parameters", "non-operation path keys pass through untouched")
}
