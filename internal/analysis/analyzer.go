package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Classified provider failures. Auth and quota errors are terminal;
// rate limits are retried by AnalyzeWithRetry.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrAuth        = errors.New("authentication failed")
)

// ChunkContext carries the chunk placement a prompt template is formatted with
type ChunkContext struct {
	Number       int
	Total        int
	StartSeconds float64
	EndSeconds   float64
}

// Analyzer is the capability every model provider exposes: submit media plus
// a prompt, get text back
type Analyzer interface {
	// AnalyzeVideo submits one video file with a chunk-formatted prompt
	AnalyzeVideo(ctx context.Context, videoPath, prompt string, chunk ChunkContext) (string, error)
	// GenerateText runs a text-only completion
	GenerateText(ctx context.Context, prompt string) (string, error)
	// ValidateKey checks that the configured API key works
	ValidateKey(ctx context.Context) bool
}

const (
	maxRetries = 5
	baseDelay  = 2 * time.Second
)

// AnalyzeWithRetry wraps AnalyzeVideo with exponential backoff on rate
// limits. Other provider errors surface immediately.
func AnalyzeWithRetry(ctx context.Context, a Analyzer, videoPath, prompt string, chunk ChunkContext) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := a.AnalyzeVideo(ctx, videoPath, prompt, chunk)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			delay := backoffDelay(attempt)
			log.Printf("Rate limited on chunk %d, retrying in %s (attempt %d/%d)", chunk.Number, delay.Round(time.Millisecond), attempt+1, maxRetries)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoffDelay is exponential with up to 10% jitter
func backoffDelay(attempt int) time.Duration {
	delay := baseDelay * (1 << attempt)
	jitter := time.Duration(rand.Int63n(int64(delay) / 10))
	return delay + jitter
}
