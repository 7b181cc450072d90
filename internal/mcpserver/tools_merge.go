package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devgate/swagsync/aggregator"
	"github.com/devgate/swagsync/internal/checker"
)

type mergeInput struct {
	TargetURL  string `json:"target_url,omitempty"  jsonschema:"The service's swagger documentation URL (UI suffixes are stripped)"`
	ModuleID   string `json:"module_id,omitempty"   jsonschema:"A registered module id, resolved when target_url is absent"`
	APIPrefix  string `json:"api_prefix,omitempty"  jsonschema:"Optional path prefix between the origin and the swagger endpoints"`
	TimeoutMS  int    `json:"timeout_ms,omitempty"  jsonschema:"Per-request upstream timeout in milliseconds"`
	DebugLimit int    `json:"debug_limit,omitempty" jsonschema:"Process only the first N discovered groups"`
	Validate   bool   `json:"validate,omitempty"    jsonschema:"Include a structural check report"`
}

type mergeOutput struct {
	Title     string          `json:"title"`
	PathCount int             `json:"path_count"`
	TagCount  int             `json:"tag_count"`
	Document  map[string]any  `json:"document"`
	Check     *checker.Report `json:"check,omitempty"`
	Summary   string          `json:"summary"`
}

func (ts *toolset) handleMerge(ctx context.Context, _ *mcp.CallToolRequest, input mergeInput) (*mcp.CallToolResult, mergeOutput, error) {
	targetURL := input.TargetURL
	apiPrefix := input.APIPrefix
	if targetURL == "" {
		if input.ModuleID == "" {
			return errResult(fmt.Errorf("either target_url or module_id is required")), mergeOutput{}, nil
		}
		module, err := ts.registry.Resolve(input.ModuleID)
		if err != nil {
			return errResult(err), mergeOutput{}, nil
		}
		targetURL = module.URL
		if apiPrefix == "" {
			apiPrefix = module.APIPrefix
		}
	}

	doc, err := ts.agg.FetchMerged(ctx, aggregator.Request{
		TargetURL:  targetURL,
		APIPrefix:  apiPrefix,
		Timeout:    time.Duration(input.TimeoutMS) * time.Millisecond,
		DebugLimit: input.DebugLimit,
	})
	if err != nil {
		return errResult(err), mergeOutput{}, nil
	}
	if doc == nil {
		return errResult(fmt.Errorf("no swagger group could be fetched from %s", targetURL)), mergeOutput{}, nil
	}

	output := mergeOutput{Document: doc}
	if info, ok := doc["info"].(map[string]any); ok {
		output.Title, _ = info["title"].(string)
	}
	if paths, ok := doc["paths"].(map[string]any); ok {
		output.PathCount = len(paths)
	}
	if tags, ok := doc["tags"].([]any); ok {
		output.TagCount = len(tags)
	}
	output.Summary = fmt.Sprintf("Merged %d paths across %d tags.", output.PathCount, output.TagCount)

	if input.Validate {
		report, err := checker.Check(ctx, doc)
		if err != nil {
			report = &checker.Report{Findings: []string{err.Error()}}
		}
		output.Check = report
	}

	return nil, output, nil
}
