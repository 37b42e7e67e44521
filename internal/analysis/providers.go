package analysis

import (
	"fmt"

	"github.com/vaibh/video-analyzer/internal/types"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	// Gemini's OpenAI-compatible endpoint
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// NewOpenRouterAnalyzer creates an analyzer backed by OpenRouter
func NewOpenRouterAnalyzer(model, apiKey string) Analyzer {
	return newChatClient(openRouterBaseURL, apiKey, model, map[string]string{
		"HTTP-Referer": "https://video-analyzer.local",
		"X-Title":      "Video Analyzer",
	})
}

// NewGeminiAnalyzer creates an analyzer backed by the Gemini API
func NewGeminiAnalyzer(model, apiKey string) Analyzer {
	return newChatClient(geminiBaseURL, apiKey, model, nil)
}

// NewAnalyzer picks the provider implementation by name
func NewAnalyzer(provider, model, apiKey string) (Analyzer, error) {
	switch provider {
	case types.ProviderGemini:
		return NewGeminiAnalyzer(model, apiKey), nil
	case types.ProviderOpenRouter:
		return NewOpenRouterAnalyzer(model, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
