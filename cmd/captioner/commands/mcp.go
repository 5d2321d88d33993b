package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	var backend backendFlags

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs captioner as an MCP (Model Context Protocol) server on stdio and
exposes the caption_image and compute_consensus tools.`,
		Example: `  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "captioner": {
  #       "command": "captioner",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			c, config, err := backend.newCaptioner(config)
			if err != nil {
				return err
			}
			defer c.Close()

			server := mcpserver.NewMCPServer("captioner", versionInfo.Version)
			RegisterTools(server, c, config)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !quiet {
				log.Println("captioner MCP server starting on stdio...")
			}

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- mcpserver.ServeStdio(server)
			}()

			select {
			case <-ctx.Done():
				if !quiet {
					log.Println("Shutdown signal received")
				}
			case err := <-serverErr:
				if err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("server error: %w", err)
				}
			}
			return nil
		},
	}

	backend.register(cmd)

	return cmd
}
