package syncer

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/devgate/swagsync/synclog"
)

// importOptions are the merge-behavior flags sent with every import: the
// destination auto-merges endpoints and schemas incrementally, so re-running
// the same sync converges instead of duplicating resources.
type importOptions struct {
	EndpointOverwriteBehavior     string `json:"endpointOverwriteBehavior"`
	SchemaOverwriteBehavior       string `json:"schemaOverwriteBehavior"`
	UpdateFolderOfChangedEndpoint bool   `json:"updateFolderOfChangedEndpoint"`
	PrependBasePath               bool   `json:"prependBasePath"`
	DeleteUnmatchedResources      bool   `json:"deleteUnmatchedResources"`
	TargetEndpointFolderID        string `json:"targetEndpointFolderId,omitempty"`
}

// importRequest is the Apifox import-openapi request body. Input is a URL
// the destination pulls the merged document from.
type importRequest struct {
	Input   string        `json:"input"`
	Options importOptions `json:"options"`
}

// buildImportRequest assembles the import body for one sync attempt.
func buildImportRequest(exportURL string, params Params) importRequest {
	return importRequest{
		Input: exportURL,
		Options: importOptions{
			EndpointOverwriteBehavior: "AUTO_MERGE",
			SchemaOverwriteBehavior:   "AUTO_MERGE",
			TargetEndpointFolderID:    params.ModuleID,
		},
	}
}

// buildExportURL builds the self-referential public-export URL handed to the
// destination, carrying the same target parameters this sync used.
func buildExportURL(exportBase, exportToken string, params Params) string {
	q := url.Values{}
	if exportToken != "" {
		q.Set("token", exportToken)
	}
	q.Set("targetUrl", params.TargetURL)
	if params.APIPrefix != "" {
		q.Set("apiPrefix", params.APIPrefix)
	}
	return strings.TrimSuffix(exportBase, "/") + "/api/swagger/public-export?" + q.Encode()
}

// importResponse is the loosely-typed Apifox response envelope. Fields not
// present in a given response simply stay zero.
type importResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Counters struct {
			EndpointCreated int `json:"endpointCreated"`
			EndpointUpdated int `json:"endpointUpdated"`
			EndpointIgnored int `json:"endpointIgnored"`
			SchemaCreated   int `json:"schemaCreated"`
			SchemaUpdated   int `json:"schemaUpdated"`
			SchemaIgnored   int `json:"schemaIgnored"`
		} `json:"counters"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"data"`
	ErrorCode    json.Number `json:"errorCode"`
	ErrorMessage string      `json:"errorMessage"`
	Message      string      `json:"message"`
}

// counters converts the wire counters to the persisted shape.
func (r importResponse) counters() synclog.Counters {
	c := r.Data.Counters
	return synclog.Counters{
		EndpointCreated: c.EndpointCreated,
		EndpointUpdated: c.EndpointUpdated,
		EndpointIgnored: c.EndpointIgnored,
		SchemaCreated:   c.SchemaCreated,
		SchemaUpdated:   c.SchemaUpdated,
		SchemaIgnored:   c.SchemaIgnored,
	}
}

// partialErrors extracts the destination-reported partial-import messages.
func (r importResponse) partialErrors() []string {
	if len(r.Data.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Data.Errors))
	for _, e := range r.Data.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// failureMessage picks the most specific error description the destination
// offered.
func (r importResponse) failureMessage(statusCode int) string {
	msg := r.ErrorMessage
	if msg == "" {
		msg = r.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("import rejected with status %d", statusCode)
	}
	if r.ErrorCode != "" {
		msg = fmt.Sprintf("%s (code %s)", msg, r.ErrorCode)
	}
	return msg
}
