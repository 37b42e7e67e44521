package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/vaibh/video-analyzer/internal/analysis"
	"github.com/vaibh/video-analyzer/internal/promptgen"
)

// GenerateHandler produces structured prompt templates from a free-text
// description, via the selected provider with a deterministic fallback
type GenerateHandler struct {
	service *promptgen.Service
	apiKey  APIKeyLookup
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(service *promptgen.Service, apiKey APIKeyLookup) *GenerateHandler {
	return &GenerateHandler{
		service: service,
		apiKey:  apiKey,
	}
}

type generateRequest struct {
	Target      string `json:"target"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	VideoType   string `json:"video_type"`
}

// Handle generates a prompt structure. The response shape is the same whether
// the structure came from the model or from the fallback template.
func (h *GenerateHandler) Handle(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", "ERR_BAD_REQUEST")
	}

	pgReq := promptgen.Request{
		Target:      req.Target,
		Description: req.Description,
		Provider:    req.Provider,
		Model:       req.Model,
		VideoType:   req.VideoType,
	}
	if err := pgReq.Validate(); err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_REQUEST")
	}

	key := h.apiKey(req.Provider)
	if key == "" {
		return badRequest(c, fmt.Sprintf("API key for %s not configured", req.Provider), "ERR_NO_API_KEY")
	}

	analyzer, err := analysis.NewAnalyzer(req.Provider, req.Model, key)
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_PROVIDER")
	}

	prompt, err := h.service.Generate(c.Context(), analyzer, pgReq)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to generate prompt",
			"code":  "ERR_GENERATION_FAILED",
		})
	}

	return c.JSON(fiber.Map{
		"target": req.Target,
		"prompt": prompt,
	})
}
