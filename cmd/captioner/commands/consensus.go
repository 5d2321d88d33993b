package commands

import (
	"github.com/siherrmann/captioner/core/consensus"
	"github.com/spf13/cobra"
)

// NewConsensusCmd creates the consensus command
func NewConsensusCmd() *cobra.Command {
	var embedderKind string

	cmd := &cobra.Command{
		Use:   "consensus source=caption...",
		Short: "Pick the consensus caption of already generated captions",
		Long: `Compute the semantic consensus of captions given as source=caption
arguments. No captioning or language model is called.`,
		Example: `  captioner consensus "BLIP=a dog in a park" "GIT=a dog on grass" "OFA=a red car"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			captions, err := parseCaptionArgs(args)
			if err != nil {
				return err
			}

			openAI, err := optionalOpenAI()
			if err != nil {
				return err
			}
			provider, _, err := newEmbedder(embedderKind, openAI)
			if err != nil {
				return err
			}
			defer provider.Close()

			result, err := consensus.NewEngine(provider).ComputeConsensus(cmd.Context(), captions)
			if err != nil {
				return err
			}

			return writeConsensus(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVar(&embedderKind, "embedder", EmbedderHugot, "embedding backend: hugot, openai or hashing")

	return cmd
}
