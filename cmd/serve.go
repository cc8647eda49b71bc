package cmd

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/tmplcheck/internal/config"
	"github.com/agentic-research/tmplcheck/internal/ingest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve template checks to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return server.ServeStdio(newMCPServer(cfg))
	},
}

func init() {
	addCheckFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func newMCPServer(cfg config.Config) *server.MCPServer {
	s := server.NewMCPServer("tmplcheck", version, server.WithToolCapabilities(false))
	tool := mcp.NewTool("check_templates",
		mcp.WithDescription("Check the templates of a TTCN-3 module description and return the diagnostics. "+
			"The module is the JSON format read by `tmplcheck check`."),
		mcp.WithString("module", mcp.Required(), mcp.Description("Module description as JSON text")),
		mcp.WithString("select", mcp.Description("JSONPath selecting the definitions to check; all when empty")),
		mcp.WithBoolean("legacy_omit_in_value_list", mcp.Description("Let value list elements inherit omit and ifpresent permission")),
		mcp.WithBoolean("strict", mcp.Description("Treat warnings as errors")),
	)
	s.AddTool(tool, checkTemplatesHandler(cfg))
	return s
}

func checkTemplatesHandler(cfg config.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		src, err := req.RequireString("module")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c := cfg
		c.Select = req.GetString("select", cfg.Select)
		c.LegacyOmitInValueList = req.GetBool("legacy_omit_in_value_list", cfg.LegacyOmitInValueList)
		c.Strict = req.GetBool("strict", cfg.Strict)

		u, err := ingest.Decode("module.json", []byte(src), ingest.Options{ImplicitOmit: c.ImplicitOmit})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		col, err := checkUnit(u, c)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(col.FormatAll() + col.Summary()), nil
	}
}
