package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devgate/swagsync/internal/checker"
)

type checkInput struct {
	Document string `json:"document" jsonschema:"The swagger 2.0 or OpenAPI 3.x document as JSON text"`
}

type checkOutput struct {
	Report  *checker.Report `json:"report"`
	Summary string          `json:"summary"`
}

func (ts *toolset) handleCheck(ctx context.Context, _ *mcp.CallToolRequest, input checkInput) (*mcp.CallToolResult, checkOutput, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(input.Document), &doc); err != nil {
		return errResult(fmt.Errorf("document is not a JSON object: %w", err)), checkOutput{}, nil
	}

	report, err := checker.Check(ctx, doc)
	if err != nil {
		return errResult(err), checkOutput{}, nil
	}

	summary := "Document is structurally valid."
	if !report.Valid {
		summary = fmt.Sprintf("%d finding(s); see report.", len(report.Findings))
	}
	return nil, checkOutput{Report: report, Summary: summary}, nil
}
