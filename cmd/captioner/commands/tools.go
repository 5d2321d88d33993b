package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/siherrmann/captioner/model"
)

// CaptionService is what the MCP tools need from a Captioner
type CaptionService interface {
	CaptionWithConfig(ctx context.Context, image model.Image, config model.PipelineConfig) (*model.PipelineResult, error)
	Consensus(ctx context.Context, captions model.CaptionSet) (*model.ConsensusResult, error)
}

// ToolHandlers implements the MCP tools on a CaptionService
type ToolHandlers struct {
	service CaptionService
	config  model.PipelineConfig
}

// RegisterTools registers the captioner tools with the server
func RegisterTools(server *mcpserver.MCPServer, service CaptionService, config model.PipelineConfig) *ToolHandlers {
	handlers := NewToolHandlers(service, config)

	server.AddTool(mcp.Tool{
		Name:        "caption_image",
		Description: "Caption an image with several vision models, pick the caption they agree on most and refine it. Returns the final caption, the consensus scores and a markdown explanation.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"image_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the image file",
				},
				"image_name": map[string]interface{}{
					"type":        "string",
					"description": "Name used to look up reference captions (default: file name)",
				},
				"enable_tot": map[string]interface{}{
					"type":        "boolean",
					"description": "Use Tree of Thoughts candidates instead of direct fusion",
				},
				"enable_self_correction": map[string]interface{}{
					"type":        "boolean",
					"description": "Run the self-correction pass",
				},
				"enable_evaluation": map[string]interface{}{
					"type":        "boolean",
					"description": "Score captions against reference captions",
				},
			},
			Required: []string{"image_path"},
		},
	}, handlers.CaptionImage)

	server.AddTool(mcp.Tool{
		Name:        "compute_consensus",
		Description: "Pick the most representative caption among captions from different models by semantic similarity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"captions": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Captions as source=caption strings",
				},
			},
			Required: []string{"captions"},
		},
	}, handlers.ComputeConsensus)

	return handlers
}

// NewToolHandlers creates handlers that run with config unless a request overrides a switch
func NewToolHandlers(service CaptionService, config model.PipelineConfig) *ToolHandlers {
	return &ToolHandlers{service: service, config: config}
}

// CaptionImage handles the caption_image tool
func (h *ToolHandlers) CaptionImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imagePath, err := request.RequireString("image_path")
	if err != nil {
		return mcp.NewToolResultError("image_path argument is required and must be a string"), nil
	}
	imageName := request.GetString("image_name", filepath.Base(imagePath))

	config := h.config
	config.EnableToT = request.GetBool("enable_tot", config.EnableToT)
	config.EnableSelfCorrection = request.GetBool("enable_self_correction", config.EnableSelfCorrection)
	config.EnableEvaluation = request.GetBool("enable_evaluation", config.EnableEvaluation)

	result, err := h.service.CaptionWithConfig(ctx, model.Image{Path: imagePath, Name: imageName}, config)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("captioning failed: %v", err)), nil
	}

	return jsonResult(result)
}

// ComputeConsensus handles the compute_consensus tool
func (h *ToolHandlers) ComputeConsensus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetStringSlice("captions", nil)
	if len(args) == 0 {
		return mcp.NewToolResultError("captions argument is required and must be a non-empty array"), nil
	}

	captions, err := parseCaptionArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.service.Consensus(ctx, captions)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("consensus failed: %v", err)), nil
	}

	return jsonResult(result)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
