package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/vaibh/video-analyzer/internal/analysis"
	"github.com/vaibh/video-analyzer/internal/types"
)

// ValidateKeyHandler checks a configured provider key with a live request
type ValidateKeyHandler struct {
	apiKey APIKeyLookup
}

// NewValidateKeyHandler creates a new key validation handler
func NewValidateKeyHandler(apiKey APIKeyLookup) *ValidateKeyHandler {
	return &ValidateKeyHandler{apiKey: apiKey}
}

// Handle reports whether a provider's key is configured and accepted by the
// provider. An unconfigured key short-circuits without a network call.
func (h *ValidateKeyHandler) Handle(c *fiber.Ctx) error {
	provider := c.FormValue("provider")
	if provider != types.ProviderGemini && provider != types.ProviderOpenRouter {
		return badRequest(c, fmt.Sprintf("Unknown provider %q", provider), "ERR_INVALID_PROVIDER")
	}

	key := h.apiKey(provider)
	if key == "" {
		return c.JSON(fiber.Map{
			"provider":   provider,
			"configured": false,
			"valid":      false,
		})
	}

	analyzer, err := analysis.NewAnalyzer(provider, c.FormValue("model"), key)
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_PROVIDER")
	}

	return c.JSON(fiber.Map{
		"provider":   provider,
		"configured": true,
		"valid":      analyzer.ValidateKey(c.Context()),
	})
}
