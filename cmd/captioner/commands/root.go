package commands

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Output formats of run and consensus
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Global flags
var (
	configPath   string
	outputFormat string
	verbose      bool
	quiet        bool
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captioner",
		Short: "Multi-model image captioning with semantic consensus",
		Long: `captioner runs several vision models on one image, picks the caption the
models agree on most, refines it with an LLM and explains every step.

Configuration is read from the environment (a .env file in the working
directory is loaded first) and from an optional YAML pipeline config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine, the environment may already be set
			_ = godotenv.Load()

			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet cannot be used together")
			}
			switch outputFormat {
			case FormatJSON, FormatMarkdown:
			default:
				return fmt.Errorf("unknown format %q (use %q or %q)", outputFormat, FormatJSON, FormatMarkdown)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML pipeline config file")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", FormatMarkdown, "output format: json or markdown")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewConsensusCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func logLevel() slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
