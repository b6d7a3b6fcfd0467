package mcpbridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stepable/internal/supabase"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "anon-key-0123456789abcdefghij"

// connect starts the bridge against a fake hosted service and returns a
// connected client session.
func connect(t *testing.T, h http.HandlerFunc, accessToken string) *mcp.ClientSession {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	server := NewServer(supabase.NewClient(ts.URL, testKey), accessToken, "test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"query_supabase", "get_user_info", "test_connection"}, names)
}

func TestQuerySelectWithFilters(t *testing.T) {
	var gotQuery string
	session := connect(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"id":"p1","name":"Alpha"}]`)
	}, "")

	text, isErr := call(t, session, "query_supabase", map[string]any{
		"table":     "projects",
		"operation": "select",
		"filters":   map[string]any{"status": "active"},
	})

	assert.False(t, isErr)
	assert.True(t, strings.HasPrefix(text, "Operation select succeeded on table projects:\n"), text)
	assert.Contains(t, text, `"name": "Alpha"`)
	assert.Contains(t, gotQuery, "status=eq.active")
}

func TestQueryInsertSendsBody(t *testing.T) {
	session := connect(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Beta", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"p2","name":"Beta"}]`)
	}, "")

	text, isErr := call(t, session, "query_supabase", map[string]any{
		"table":     "projects",
		"operation": "insert",
		"data":      map[string]any{"name": "Beta"},
	})
	assert.False(t, isErr)
	assert.Contains(t, text, "Operation insert succeeded")
}

func TestQueryErrors(t *testing.T) {
	session := connect(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"42703","message":"column projects.nope does not exist"}`)
	}, "")

	text, isErr := call(t, session, "query_supabase", map[string]any{"table": "projects", "operation": "upsert"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unsupported operation: upsert")

	text, isErr = call(t, session, "query_supabase", map[string]any{
		"table":     "projects",
		"operation": "select",
		"filters":   map[string]any{"nope": 1},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "column projects.nope does not exist")
}

func TestGetUserInfo(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		session := connect(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("hosted service must not be called")
		}, "")
		text, isErr := call(t, session, "get_user_info", map[string]any{})
		assert.False(t, isErr)
		assert.Equal(t, "No authenticated user", text)
	})

	t.Run("with session", func(t *testing.T) {
		session := connect(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/user", r.URL.Path)
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"id":"u1","email":"ana@example.com"}`)
		}, "user-token")
		text, isErr := call(t, session, "get_user_info", map[string]any{})
		assert.False(t, isErr)
		assert.Equal(t, "User: ana@example.com\nID: u1", text)
	})
}

func TestTestConnection(t *testing.T) {
	t.Run("missing probe table still connects", func(t *testing.T) {
		session := connect(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rest/v1/_test", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"42P01","message":"relation \"public._test\" does not exist"}`)
		}, "")
		text, isErr := call(t, session, "test_connection", map[string]any{})
		assert.False(t, isErr)
		assert.Contains(t, text, "Connection to Supabase succeeded")
		assert.Contains(t, text, "API Key: "+testKey[:20]+"...")
		assert.NotContains(t, text, testKey)
	})

	t.Run("auth failure is an error", func(t *testing.T) {
		session := connect(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid API key"}`)
		}, "")
		text, isErr := call(t, session, "test_connection", map[string]any{})
		assert.True(t, isErr)
		assert.Contains(t, text, "Invalid API key")
	})
}
