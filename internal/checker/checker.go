// Package checker performs a structural validity check on a merged API
// document before it is handed to callers or to the import destination.
//
// Merged documents are loosely-typed maps; the check round-trips them
// through a typed OpenAPI model. Swagger 2.0 documents are converted to
// OpenAPI 3 first, since the typed validator only exists for v3. Validation
// findings are advisory: the merge endpoint reports them alongside the
// document rather than refusing to serve it.
package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// Report is the outcome of one structural check.
type Report struct {
	// Valid is true when the document loaded and validated cleanly.
	Valid bool `json:"valid"`
	// Version is the detected document version ("2.0" or the openapi value).
	Version string `json:"version"`
	// Findings lists validation problems, one message per finding.
	Findings []string `json:"findings,omitempty"`
}

// Check validates doc structurally and returns a report. A non-nil error
// means the check itself could not run (nil or non-object document); mere
// validation findings come back in the report with Valid=false.
func Check(ctx context.Context, doc map[string]any) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("checker: no document to check")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("checker: encoding document: %w", err)
	}

	if v, ok := doc["swagger"].(string); ok && v == "2.0" {
		return checkV2(ctx, raw), nil
	}
	if v, ok := doc["openapi"].(string); ok && strings.HasPrefix(v, "3") {
		return checkV3(ctx, raw, v), nil
	}
	return nil, fmt.Errorf("checker: document declares neither swagger 2.0 nor openapi 3.x")
}

func checkV2(ctx context.Context, raw []byte) *Report {
	report := &Report{Version: "2.0"}

	var v2 openapi2.T
	if err := json.Unmarshal(raw, &v2); err != nil {
		report.Findings = append(report.Findings, fmt.Sprintf("document does not fit the swagger 2.0 model: %v", err))
		return report
	}

	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		report.Findings = append(report.Findings, fmt.Sprintf("conversion to openapi 3 failed: %v", err))
		return report
	}
	// ToV3 leaves Paths nil when the source has no paths, which the v3
	// validator rejects even though an empty paths object is legal.
	if v3.Paths == nil {
		v3.Paths = openapi3.NewPaths()
	}

	return validateV3(ctx, v3, report)
}

func checkV3(ctx context.Context, raw []byte, version string) *Report {
	report := &Report{Version: version}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		report.Findings = append(report.Findings, fmt.Sprintf("document does not fit the openapi 3 model: %v", err))
		return report
	}

	return validateV3(ctx, doc, report)
}

func validateV3(ctx context.Context, doc *openapi3.T, report *Report) *Report {
	// Examples in hand-written swagger docs are frequently sloppy; schema
	// structure is what the import destination actually cares about.
	err := doc.Validate(ctx, openapi3.DisableExamplesValidation())
	if err != nil {
		report.Findings = append(report.Findings, splitFindings(err)...)
		return report
	}
	report.Valid = true
	return report
}

// splitFindings breaks a kin-openapi multi-error into individual messages.
func splitFindings(err error) []string {
	var findings []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			findings = append(findings, line)
		}
	}
	return findings
}
