// Package orchestrator runs a worker/reviewer agent pair through a strictly
// sequential, bounded turn-taking loop, executing their tool calls against a
// running gateway over HTTP.
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"openproject-gateway-go/internal/llm"
)

// GatewayClient executes tool calls by POSTing their arguments to the
// matching gateway operation route. The gateway always answers with a JSON
// envelope, so every outcome (including upstream failure) is an ordinary tool
// result.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGatewayClient creates a GatewayClient for a gateway at baseURL.
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Call invokes one named operation with raw JSON arguments and returns the
// gateway's envelope verbatim.
func (g *GatewayClient) Call(ctx context.Context, name string, args string) (string, error) {
	if !toolNames[name] {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	body := strings.TrimSpace(args)
	if body == "" {
		body = "{}"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/"+name, bytes.NewReader([]byte(body)))
	if err != nil {
		return "", fmt.Errorf("build tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gateway: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read gateway response: %w", err)
	}
	return string(raw), nil
}

// toolNames is the reduced operation subset exposed to the agents.
var toolNames = map[string]bool{
	"list_projects":             true,
	"create_project":            true,
	"get_project_work_packages": true,
	"create_work_package":       true,
	"view_work_package":         true,
	"update_work_package":       true,
	"comment_work_package":      true,
	"list_statuses":             true,
}

func objectSchema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// ToolDefinitions returns the OpenAI-compatible definitions for the reduced
// tool subset.
func ToolDefinitions() []llm.Tool {
	defs := []struct {
		name        string
		description string
		parameters  map[string]any
	}{
		{
			name:        "list_projects",
			description: "Lists all projects. Use this to find project IDs.",
			parameters:  objectSchema(nil, map[string]any{}),
		},
		{
			name:        "create_project",
			description: "Creates a new project. Requires a unique name.",
			parameters: objectSchema([]string{"name"}, map[string]any{
				"name":               prop("string", "Display name of the project"),
				"identifier":         prop("string", "URL-friendly identifier, e.g. my-project"),
				"description":        prop("string", "Project description"),
				"public":             prop("boolean", "Whether the project is visible to everyone"),
				"status_explanation": prop("string", "Text explanation of the project status"),
			}),
		},
		{
			name:        "get_project_work_packages",
			description: "Fetches tasks/bugs within a project. Use filters to narrow down by status or priority.",
			parameters: objectSchema([]string{"project_id"}, map[string]any{
				"project_id": prop("integer", "Numeric project ID"),
				"offset":     prop("integer", "Page number, 1-based"),
				"page_size":  prop("integer", "Items per page"),
			}),
		},
		{
			name:        "create_work_package",
			description: "Creates a new task or bug in a project. Requires project_id and subject.",
			parameters: objectSchema([]string{"project_id", "subject"}, map[string]any{
				"project_id":  prop("integer", "Numeric project ID"),
				"subject":     prop("string", "Title of the work package"),
				"description": prop("string", "Detailed description"),
				"type_id":     prop("integer", "Work package type ID"),
				"priority_id": prop("integer", "Priority ID"),
				"status_id":   prop("integer", "Status ID"),
				"notify":      prop("boolean", "Send notifications, default true"),
			}),
		},
		{
			name:        "view_work_package",
			description: "Retrieves work package details including the lockVersion needed for updates.",
			parameters: objectSchema([]string{"work_package_id"}, map[string]any{
				"work_package_id": prop("integer", "Numeric work package ID"),
			}),
		},
		{
			name:        "update_work_package",
			description: "Updates a work package. You MUST provide the lock_version retrieved from view_work_package.",
			parameters: objectSchema([]string{"work_package_id", "lock_version"}, map[string]any{
				"work_package_id": prop("integer", "Numeric work package ID"),
				"lock_version":    prop("integer", "lockVersion from the last read of this work package"),
				"subject":         prop("string", "New title"),
				"description":     prop("string", "New description"),
				"status_id":       prop("integer", "New status ID"),
				"percentage_done": prop("integer", "Completion percentage, 0 to 100"),
			}),
		},
		{
			name:        "comment_work_package",
			description: "Adds a comment to a work package's activity log.",
			parameters: objectSchema([]string{"work_package_id", "comment_text"}, map[string]any{
				"work_package_id": prop("integer", "Numeric work package ID"),
				"comment_text":    prop("string", "Comment content"),
			}),
		},
		{
			name:        "list_statuses",
			description: "Lists all available work package statuses and their IDs.",
			parameters:  objectSchema(nil, map[string]any{}),
		},
	}

	tools := make([]llm.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        d.name,
				Description: d.description,
				Parameters:  d.parameters,
			},
		})
	}
	return tools
}
