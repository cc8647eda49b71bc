package cmd

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tmplcheck/internal/config"
)

func callCheckTemplates(t *testing.T, cfg config.Config, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "check_templates", Arguments: args}}
	res, err := checkTemplatesHandler(cfg)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "want text content, got %T", res.Content[0])
	return tc.Text
}

func TestCheckTemplates(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		res := callCheckTemplates(t, config.Default(), map[string]any{"module": cleanModule})
		assert.False(t, res.IsError)
		assert.Equal(t, "no issues", resultText(t, res))
	})

	t.Run("diagnostics", func(t *testing.T) {
		res := callCheckTemplates(t, config.Default(), map[string]any{"module": restrictedModule})
		assert.False(t, res.IsError)
		text := resultText(t, res)
		assert.Contains(t, text, "Restriction on template definition `t' does not allow usage of omit value")
		assert.Contains(t, text, "1 error(s)")
	})

	t.Run("strict", func(t *testing.T) {
		res := callCheckTemplates(t, config.Default(), map[string]any{"module": warningModule, "strict": true})
		assert.Contains(t, resultText(t, res), "error: [illegal-construct] Using `*' for mandatory field")
	})

	t.Run("select", func(t *testing.T) {
		res := callCheckTemplates(t, config.Default(), map[string]any{
			"module": restrictedModule,
			"select": "$.definitions[?(@.name == 'nothing')]",
		})
		assert.Equal(t, "no issues", resultText(t, res))
	})

	t.Run("missing module", func(t *testing.T) {
		res := callCheckTemplates(t, config.Default(), map[string]any{})
		assert.True(t, res.IsError)
	})

	t.Run("invalid module", func(t *testing.T) {
		res := callCheckTemplates(t, config.Default(), map[string]any{"module": "{"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "invalid JSON")
	})
}

func TestNewMCPServer(t *testing.T) {
	s := newMCPServer(config.Default())
	require.NotNil(t, s)
}
