// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the swagger aggregation toolkit over stdio: merging a
// service's swagger groups, diffing two documents, running the structural
// check, and reading sync history.
package mcpserver

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/devgate/swagsync"
	"github.com/devgate/swagsync/aggregator"
	"github.com/devgate/swagsync/internal/config"
	"github.com/devgate/swagsync/registry"
	"github.com/devgate/swagsync/synclog"
)

const serverInstructions = `swagsync MCP server — merges, diffs, and checks swagger/OpenAPI documents from internal services.

Configuration: all defaults are configurable via SWAGSYNC_* environment variables set in your MCP client config.

Key settings:
- SWAGSYNC_FETCH_TIMEOUT (default: 10s) — per-request timeout for upstream swagger fetches
- SWAGSYNC_CACHE_TTL (default: 5m) — merged document cache TTL
- SWAGSYNC_REGISTRY_FILE — module registry file; enables module_id resolution in swagger_merge
- SWAGSYNC_DATA_DIR (default: data) — sync-log storage directory read by sync_logs

URL fetches are restricted to publicly-routable hosts: private, loopback, and link-local addresses are blocked. Hosts of registered modules are exempt, so module_id merges can reach internal services.`

// toolset carries the collaborators behind the MCP tools.
type toolset struct {
	agg      *aggregator.Aggregator
	registry *registry.Registry
	store    synclog.Store
}

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context, logger *slog.Logger) error {
	fsys := afero.NewOsFs()
	cfg, err := config.Load(fsys)
	if err != nil {
		return err
	}

	store, err := synclog.NewFileStore(fsys, cfg.DataDir)
	if err != nil {
		return err
	}

	reg := registry.New(fsys, cfg.RegistryFile)
	ts := &toolset{
		agg: aggregator.New(aggregator.Options{
			HTTPClient:     newSafeHTTPClient(registryHosts(reg)),
			DefaultTimeout: cfg.FetchTimeout,
			Cache:          aggregator.NewDocCache(cfg.CacheTTL, cfg.CacheMaxEntries),
			Logger:         logger,
		}),
		registry: reg,
		store:    store,
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "swagsync", Version: swagsync.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	ts.registerTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (ts *toolset) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "swagger_merge",
		Description: "Fetch a service's swagger resource groups and merge them into one document. Provide target_url (the service's documentation URL, UI suffixes like /doc.html are stripped automatically) or module_id (resolved through the module registry). Use debug_limit to process only the first N groups for a quick look, and validate=true to include a structural check report.",
	}, ts.handleMerge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "swagger_diff",
		Description: "Compare two swagger/OpenAPI documents operation by operation. Provide before and after as JSON text. Reports added, removed, and changed operations keyed by \"METHOD /path\", with the changed fields listed per operation.",
	}, ts.handleDiff)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "swagger_check",
		Description: "Run a structural validity check on a swagger 2.0 or OpenAPI 3.x document provided as JSON text. Returns findings rather than failing: use it to see what the import destination would complain about.",
	}, ts.handleCheck)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_logs",
		Description: "Read sync attempt history from the local log store. Without project_id, lists the projects that have records. With project_id, returns that project's records most-recent first, up to limit (default 20).",
	}, ts.handleLogs)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
