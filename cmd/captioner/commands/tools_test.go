package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/siherrmann/captioner/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	lastImage  model.Image
	lastConfig model.PipelineConfig
	err        error
}

func (f *fakeService) CaptionWithConfig(ctx context.Context, image model.Image, config model.PipelineConfig) (*model.PipelineResult, error) {
	f.lastImage = image
	f.lastConfig = config
	if f.err != nil {
		return nil, f.err
	}
	return &model.PipelineResult{ImageName: image.Name, FinalCaption: "A dog."}, nil
}

func (f *fakeService) Consensus(ctx context.Context, captions model.CaptionSet) (*model.ConsensusResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.ConsensusResult{BestSource: captions[0].Source, BestCaption: captions[0].Text}, nil
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "Expected text content")
	return text.Text
}

func TestCaptionImageTool(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults and overrides", func(t *testing.T) {
		service := &fakeService{}
		handlers := NewToolHandlers(service, model.DefaultPipelineConfig())

		result, err := handlers.CaptionImage(ctx, callRequest(map[string]interface{}{
			"image_path": "/images/dog.jpg",
			"enable_tot": false,
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)

		assert.Equal(t, model.Image{Path: "/images/dog.jpg", Name: "dog.jpg"}, service.lastImage)
		assert.False(t, service.lastConfig.EnableToT)
		assert.True(t, service.lastConfig.EnableSelfCorrection)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
		assert.Equal(t, "A dog.", decoded["final_caption"])
	})

	t.Run("Missing image path", func(t *testing.T) {
		handlers := NewToolHandlers(&fakeService{}, model.DefaultPipelineConfig())
		result, err := handlers.CaptionImage(ctx, callRequest(map[string]interface{}{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("Pipeline failure is a tool error", func(t *testing.T) {
		handlers := NewToolHandlers(&fakeService{err: errors.New("stage CONSENSUS failed")}, model.DefaultPipelineConfig())
		result, err := handlers.CaptionImage(ctx, callRequest(map[string]interface{}{"image_path": "x.jpg"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "stage CONSENSUS failed")
	})
}

func TestComputeConsensusTool(t *testing.T) {
	ctx := context.Background()
	handlers := NewToolHandlers(&fakeService{}, model.DefaultPipelineConfig())

	t.Run("Valid captions", func(t *testing.T) {
		result, err := handlers.ComputeConsensus(ctx, callRequest(map[string]interface{}{
			"captions": []interface{}{"A=a dog", "B=a cat"},
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), `"best_model":"A"`)
	})

	t.Run("Missing captions", func(t *testing.T) {
		result, err := handlers.ComputeConsensus(ctx, callRequest(map[string]interface{}{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("Malformed caption", func(t *testing.T) {
		result, err := handlers.ComputeConsensus(ctx, callRequest(map[string]interface{}{
			"captions": []interface{}{"no separator"},
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestRegisterTools(t *testing.T) {
	server := mcpserver.NewMCPServer("captioner", "test")
	handlers := RegisterTools(server, &fakeService{}, model.DefaultPipelineConfig())
	require.NotNil(t, handlers)
}

func TestNewMCPCmd(t *testing.T) {
	cmd := NewMCPCmd()

	assert.Equal(t, "mcp", cmd.Use)
	assert.Contains(t, cmd.Long, "MCP")
	assert.Contains(t, cmd.Long, "stdio")
	assert.NotNil(t, cmd.RunE)
	assert.NotEmpty(t, cmd.Example)
}
