package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devgate/swagsync/synclog"
)

type logsInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"The destination project id to list records for"`
	Limit     int    `json:"limit,omitempty"      jsonschema:"Maximum records to return (default 20)"`
}

type logsOutput struct {
	Projects []projectCount   `json:"projects,omitempty"`
	Records  []synclog.Record `json:"records,omitempty"`
}

type projectCount struct {
	ProjectID string `json:"project_id"`
	Count     int    `json:"count"`
}

func (ts *toolset) handleLogs(ctx context.Context, _ *mcp.CallToolRequest, input logsInput) (*mcp.CallToolResult, logsOutput, error) {
	if input.ProjectID == "" {
		ids, err := ts.store.ProjectIDs(ctx)
		if err != nil {
			return errResult(err), logsOutput{}, nil
		}
		projects := make([]projectCount, 0, len(ids))
		for _, id := range ids {
			count, err := ts.store.CountProject(ctx, id)
			if err != nil {
				return errResult(err), logsOutput{}, nil
			}
			projects = append(projects, projectCount{ProjectID: id, Count: count})
		}
		return nil, logsOutput{Projects: projects}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	records, err := ts.store.ListProject(ctx, input.ProjectID, limit)
	if err != nil {
		return errResult(err), logsOutput{}, nil
	}
	return nil, logsOutput{Records: records}, nil
}
