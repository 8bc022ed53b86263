package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/cmd/webchat/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server over stdio",
	Long: `Start an MCP (Model Context Protocol) server that lets an assistant list,
read, rename and delete your chat sessions.

Example client config:
  {
    "mcpServers": {
      "webchat": {
        "command": "webchat",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := mcp.StartServer(dbPath, cfg); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
