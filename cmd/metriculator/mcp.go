package main

import (
	"fmt"

	"github.com/panbanda/metriculator/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes scope analysis
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "metriculator": {
        "command": "metriculator",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - scope_tree      Scope tree per file or for a whole workspace
  - scope_metrics   Complexity and structure metrics with violations
  - scope_linkage   Functions declared but never defined`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:  "manifest",
				Usage: "Print the MCP registry manifest (server.json)",
				Action: func(c *cli.Context) error {
					data, err := mcpserver.GenerateManifest(version)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(data))
					return nil
				},
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(cfg),
		mcpserver.WithLogger(newLogger(c, cfg)),
	)
	return server.Run(c.Context)
}
