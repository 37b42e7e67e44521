package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// maxVideoBytes bounds what gets inlined as a base64 data URL; the ~33%
// encoding overhead on top of this still fits provider request limits.
const maxVideoBytes = 20 * 1024 * 1024

// chatClient talks OpenAI-style chat completions for one provider. Text-only
// calls go through go-openai; the multimodal video call builds its payload
// explicitly because the video_url content part is not part of the library's
// message types.
type chatClient struct {
	baseURL      string
	apiKey       string
	model        string
	extraHeaders map[string]string
	httpClient   *http.Client
	textClient   *openai.Client
}

func newChatClient(baseURL, apiKey, model string, extraHeaders map[string]string) *chatClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &chatClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		httpClient: &http.Client{
			// Long read timeout: providers process the whole video before answering
			Timeout: 30 * time.Minute,
		},
		textClient: openai.NewClientWithConfig(cfg),
	}
}

type chatPayload struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	VideoURL *videoURL `json:"video_url,omitempty"`
}

type videoURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeVideo submits the video inline as a data URL with the formatted prompt
func (c *chatClient) AnalyzeVideo(ctx context.Context, videoPath, prompt string, chunk ChunkContext) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured: %w", ErrAuth)
	}

	encoded, mimeType, err := encodeVideo(videoPath)
	if err != nil {
		return "", err
	}

	payload := chatPayload{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContentPart{
				{Type: "video_url", VideoURL: &videoURL{URL: fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)}},
				{Type: "text", Text: FormatChunkPrompt(prompt, chunk)},
			},
		}},
		MaxTokens: 16000,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read analysis response: %v", err)
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse analysis response: %v", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// GenerateText runs a plain chat completion through go-openai
func (c *chatClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured: %w", ErrAuth)
	}

	resp, err := c.textClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 16000,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ValidateKey lists models as a cheap authenticated probe
func (c *chatClient) ValidateKey(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	_, err := c.textClient.ListModels(ctx)
	return err == nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("invalid API key: %w", ErrAuth)
	case status != http.StatusOK:
		return fmt.Errorf("provider returned %d: %s", status, truncateBody(body))
	}
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("invalid API key: %w", ErrAuth)
		}
	}
	return fmt.Errorf("text generation failed: %v", err)
}

func encodeVideo(videoPath string) (string, string, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return "", "", fmt.Errorf("video file not found: %s", videoPath)
	}
	if info.Size() > maxVideoBytes {
		return "", "", fmt.Errorf("video chunk too large for inline upload (%.1fMB, limit %dMB)",
			float64(info.Size())/(1024*1024), maxVideoBytes/(1024*1024))
	}

	data, err := os.ReadFile(videoPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read video: %v", err)
	}
	return base64.StdEncoding.EncodeToString(data), mimeTypeFor(videoPath), nil
}

func mimeTypeFor(videoPath string) string {
	switch strings.ToLower(filepath.Ext(videoPath)) {
	case ".mp4":
		return "video/mp4"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".m4v":
		return "video/x-m4v"
	default:
		return "video/mp4"
	}
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
