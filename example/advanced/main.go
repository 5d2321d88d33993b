package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/captioner"
	"github.com/siherrmann/captioner/core/captioning"
	"github.com/siherrmann/captioner/database"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	openAI, err := helper.NewOpenAIConfiguration()
	if err != nil {
		log.Fatalf("This example needs OPENAI_API_KEY: %v", err)
	}

	vision, err := captioning.NewOpenAIVisionModel("GPT-4o mini", openAI)
	if err != nil {
		log.Fatalf("Failed to create vision model: %v", err)
	}
	models := []captioning.Model{
		vision,
		captioning.NewStaticModel("Human", "a dog catching a frisbee in a park"),
	}

	config := model.DefaultPipelineConfig()
	config.ReferencesPath = "data.json"

	c, err := captioner.NewCaptioner(models,
		captioner.WithPipelineConfig(config),
		captioner.WithOpenAI(openAI),
		captioner.WithCandidateCount(4),
		captioner.WithDatabase(dbConfig),
	)
	if err != nil {
		log.Fatalf("Failed to create captioner: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for _, name := range []string{"dog.jpg", "dog.jpg"} {
		result, err := c.Caption(ctx, model.Image{Path: name, Name: name})
		if err != nil {
			log.Fatalf("Failed to caption %s: %v", name, err)
		}
		fmt.Printf("Run %s: %s\n", result.RunID, result.FinalCaption)
		for _, e := range result.Evaluation {
			fmt.Printf("  %-12s %v\n", e.Source, e.Scores)
		}
	}

	runs, err := c.History("dog.jpg")
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	fmt.Printf("\n%d stored runs for dog.jpg\n", len(runs))

	// IVFFlat builds faster than HNSW on large caption tables
	err = c.Recorder.Captions().ChangeIndexType(ctx, database.IndexIVFFlat, database.IndexOptions{Lists: 10})
	if err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	similar, err := c.SimilarCaptions(ctx, "a dog playing outside", 5, 0.3)
	if err != nil {
		log.Fatalf("Failed to search captions: %v", err)
	}
	fmt.Println("\nStored captions similar to 'a dog playing outside':")
	for _, s := range similar {
		fmt.Printf("  %.3f  %-12s %s\n", s.Similarity, s.Source, s.Text)
	}
}
