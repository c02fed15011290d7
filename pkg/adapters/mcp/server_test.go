package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c := dsl.NewTool("Echo", "")
	c.Capability(dsl.RouteOptions{Name: "Message", Description: "Echo a message"}).
		Input(schema.Object(schema.Field("message", schema.String()))).
		Handler(func(_ context.Context, in any, _ domain.Context) (any, error) {
			return in.(map[string]any)["message"], nil
		})
	c.Capability(dsl.RouteOptions{Name: "Fail"}).
		Handler(func(context.Context, any, domain.Context) (any, error) {
			return nil, errors.New("boom")
		})

	reg := registry.NewRegistry().MustRegister(registry.ContainerUnit(c))
	s, err := NewServer(reg, "relay-test", "0.0.0", logging.NewNop())
	require.NoError(t, err)
	return s
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.HandleTool(ctx, "echo-message", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "hi", text(t, res))

	res, err = s.HandleTool(ctx, "echo-fail", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.JSONEq(t, `{"error":"boom"}`, text(t, res))

	res, err = s.HandleTool(ctx, "echo-message", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "message")

	res, err = s.HandleTool(ctx, "nonexistent-x", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolsOverJSONRPC(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	list := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(list)
	require.NoError(t, err)

	var listed struct {
		Result struct {
			Tools []struct {
				Name        string         `json:"name"`
				Description string         `json:"description"`
				InputSchema map[string]any `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(b, &listed))
	require.Len(t, listed.Result.Tools, 2)

	names := []string{listed.Result.Tools[0].Name, listed.Result.Tools[1].Name}
	assert.ElementsMatch(t, []string{"echo-message", "echo-fail"}, names)

	call := s.MCPServer().HandleMessage(ctx, json.RawMessage(
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo-message","arguments":{"message":"over the wire"}}}`))
	b, err = json.Marshal(call)
	require.NoError(t, err)
	assert.Contains(t, string(b), "over the wire")
}
