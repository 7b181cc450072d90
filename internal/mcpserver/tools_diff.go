package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devgate/swagsync/differ"
)

type diffInput struct {
	Before string `json:"before" jsonschema:"The earlier document as JSON text"`
	After  string `json:"after"  jsonschema:"The later document as JSON text"`
}

type diffOutput struct {
	Result  *differ.Result `json:"result"`
	Summary string         `json:"summary"`
}

func (ts *toolset) handleDiff(_ context.Context, _ *mcp.CallToolRequest, input diffInput) (*mcp.CallToolResult, diffOutput, error) {
	if input.Before == "" || input.After == "" {
		return errResult(fmt.Errorf("both before and after documents are required")), diffOutput{}, nil
	}

	result, err := differ.Diff(input.Before, input.After)
	if err != nil {
		return errResult(err), diffOutput{}, nil
	}

	return nil, diffOutput{
		Result:  result,
		Summary: diffSummaryLine(result),
	}, nil
}

func diffSummaryLine(result *differ.Result) string {
	s := result.Summary
	if s.Added == 0 && s.Removed == 0 && s.Changed == 0 {
		return fmt.Sprintf("No operation changes across %d operations.", s.AfterTotal)
	}
	return fmt.Sprintf("%d added, %d removed, %d changed (of %d before / %d after operations).",
		s.Added, s.Removed, s.Changed, s.BeforeTotal, s.AfterTotal)
}
