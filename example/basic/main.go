package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/captioner"
	"github.com/siherrmann/captioner/core/captioning"
	"github.com/siherrmann/captioner/model"
)

// Captions as three different vision models described the same photo
var models = []captioning.Model{
	captioning.NewStaticModel("BLIP Base", "a brown dog running across a grassy field"),
	captioning.NewStaticModel("GIT Base", "a dog playing with a ball on the grass"),
	captioning.NewStaticModel("ViT-GPT2", "a man riding a bicycle down a street"),
}

func main() {
	// Without an OpenAI key there is no refinement model, so the consensus
	// caption is used as the fused caption
	config := model.DefaultPipelineConfig()
	config.EnableToT = false
	config.EnableSelfCorrection = false
	config.EnableEvaluation = false

	c, err := captioner.NewCaptioner(models, captioner.WithPipelineConfig(config))
	if err != nil {
		log.Fatalf("Failed to create captioner: %v", err)
	}
	defer c.Close()

	c.Pipeline.SetFuser(func(ctx context.Context, captions model.CaptionSet, consensusCaption string) (string, error) {
		return consensusCaption, nil
	})

	result, err := c.Caption(context.Background(), model.Image{Path: "dog.jpg", Name: "dog.jpg"})
	if err != nil {
		log.Fatalf("Failed to caption image: %v", err)
	}

	fmt.Println(result.Explanation)

	fmt.Println("\nSimilarity matrix:")
	for i, row := range result.Consensus.SimilarityMatrix {
		fmt.Printf("  %-10s", result.Captions[i].Source)
		for _, v := range row {
			fmt.Printf(" %.3f", v)
		}
		fmt.Println()
	}
}
