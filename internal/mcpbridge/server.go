// Package mcpbridge exposes generic table operations of the hosted database
// as MCP tools. It is a developer utility and is not mounted by the API.
package mcpbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stepable/internal/supabase"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName  = "stepable-supabase"
	callTimeout = 15 * time.Second
	keyPreviewN = 20
	probeTable  = "_test"
	opSelect    = "select"
	opInsert    = "insert"
	opUpdate    = "update"
	opDelete    = "delete"
)

// Codes the REST layer answers with when the probe table does not exist,
// which still proves the service is reachable.
var missingTableCodes = map[string]bool{
	"PGRST116": true,
	"PGRST205": true,
	"42P01":    true,
}

// Client is the part of the hosted-service client the tools call.
type Client interface {
	Select(ctx context.Context, table string, filters supabase.Filters, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, table string, data any) ([]map[string]any, error)
	Update(ctx context.Context, table string, data any, filters supabase.Filters) ([]map[string]any, error)
	Delete(ctx context.Context, table string, filters supabase.Filters) ([]map[string]any, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	URL() string
	APIKey() string
}

type QueryInput struct {
	Table     string         `json:"table" jsonschema:"table to operate on"`
	Operation string         `json:"operation" jsonschema:"one of select, insert, update, delete"`
	Data      any            `json:"data,omitempty" jsonschema:"row data for insert and update"`
	Filters   map[string]any `json:"filters,omitempty" jsonschema:"column equality filters joined with AND"`
}

type EmptyInput struct{}

// NewServer registers the bridge tools. accessToken is the optional user
// session get_user_info reports on.
func NewServer(client Client, accessToken, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_supabase",
		Description: "Run a select, insert, update or delete against a table of the hosted database",
	}, QueryHandler(client))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_info",
		Description: "Show the authenticated user of the configured session",
	}, UserInfoHandler(client, accessToken))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_connection",
		Description: "Check that the hosted database answers",
	}, TestConnectionHandler(client))

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	res := textResult("Error: " + fmt.Sprintf(format, args...))
	res.IsError = true
	return res
}

func QueryHandler(client Client) mcp.ToolHandlerFor[QueryInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, any, error) {
		if in.Table == "" {
			return errorResult("table is required"), nil, nil
		}

		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		var (
			rows []map[string]any
			err  error
		)
		filters := supabase.Filters(in.Filters)
		switch in.Operation {
		case opSelect:
			rows, err = client.Select(runCtx, in.Table, filters, 0)
		case opInsert:
			rows, err = client.Insert(runCtx, in.Table, in.Data)
		case opUpdate:
			rows, err = client.Update(runCtx, in.Table, in.Data, filters)
		case opDelete:
			rows, err = client.Delete(runCtx, in.Table, filters)
		default:
			return errorResult("unsupported operation: %s", in.Operation), nil, nil
		}
		if err != nil {
			return errorResult("database error: %v", err), nil, nil
		}

		body, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("encode rows: %w", err)
		}
		return textResult(fmt.Sprintf("Operation %s succeeded on table %s:\n%s", in.Operation, in.Table, body)), nil, nil
	}
}

func UserInfoHandler(client Client, accessToken string) mcp.ToolHandlerFor[EmptyInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
		if accessToken == "" {
			return textResult("No authenticated user"), nil, nil
		}

		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		user, err := client.GetUser(runCtx, accessToken)
		if err != nil {
			return errorResult("failed to get user: %v", err), nil, nil
		}
		if user == nil {
			return textResult("No authenticated user"), nil, nil
		}
		return textResult(fmt.Sprintf("User: %s\nID: %s", user.Email, user.ID)), nil, nil
	}
}

func TestConnectionHandler(client Client) mcp.ToolHandlerFor[EmptyInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if _, err := client.Select(runCtx, probeTable, nil, 1); err != nil {
			var apiErr *supabase.APIError
			if !errors.As(err, &apiErr) || !missingTableCodes[apiErr.Code] {
				return errorResult("connection failed: %v", err), nil, nil
			}
		}

		key := client.APIKey()
		if len(key) > keyPreviewN {
			key = key[:keyPreviewN]
		}
		return textResult(fmt.Sprintf("Connection to Supabase succeeded\nURL: %s\nAPI Key: %s...", client.URL(), key)), nil, nil
	}
}
