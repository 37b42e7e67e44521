package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// Chunk is a materialized segment of the source video
type Chunk struct {
	Index int
	Start float64
	End   float64
	Path  string
}

// ChunkExtractionError identifies which chunk of a plan failed
type ChunkExtractionError struct {
	Index int
	Err   error
}

func (e *ChunkExtractionError) Error() string {
	return fmt.Sprintf("chunk %d extraction failed: %v", e.Index, e.Err)
}

func (e *ChunkExtractionError) Unwrap() error {
	return e.Err
}

// Extractor materializes planned chunks as independent media files
type Extractor struct {
	FFmpegBin string
	// MaxParallel bounds concurrent ffmpeg processes per job
	MaxParallel int
}

// NewExtractor creates an extractor with the given concurrency bound
func NewExtractor(maxParallel int) *Extractor {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Extractor{
		FFmpegBin:   "ffmpeg",
		MaxParallel: maxParallel,
	}
}

// ExtractChunks produces one file per planned span under outputDir, named by
// chunk index. Chunks are extracted with bounded parallelism; the returned
// slice is ordered by index regardless of completion order. The first failed
// chunk aborts the whole extraction.
func (e *Extractor) ExtractChunks(ctx context.Context, videoPath string, spans []ChunkSpan, outputDir string) ([]Chunk, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %v", err)
	}

	chunks := make([]Chunk, len(spans))
	errs := make([]error, len(spans))

	sem := make(chan struct{}, e.MaxParallel)
	var wg sync.WaitGroup

	for i, span := range spans {
		wg.Add(1)
		go func(i int, span ChunkSpan) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}

			chunkPath := filepath.Join(outputDir, fmt.Sprintf("chunk_%03d.mp4", span.Index+1))
			if err := e.extractOne(ctx, videoPath, span, chunkPath); err != nil {
				errs[i] = err
				return
			}
			chunks[i] = Chunk{Index: span.Index, Start: span.Start, End: span.End, Path: chunkPath}
		}(i, span)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &ChunkExtractionError{Index: spans[i].Index, Err: err}
		}
	}
	return chunks, nil
}

// extractOne cuts [span.Start, span.End) into chunkPath. Stream copy is
// tried first; if the copied output is missing or empty (container keyframe
// granularity can defeat exact cuts) the chunk is re-encoded instead of
// shifting the boundary.
func (e *Extractor) extractOne(ctx context.Context, videoPath string, span ChunkSpan, chunkPath string) error {
	copyErr := e.runCut(ctx, videoPath, span, chunkPath, true)
	if copyErr == nil && fileNonEmpty(chunkPath) {
		return nil
	}

	log.Printf("Stream copy failed for chunk %d (%v), re-encoding", span.Index+1, copyErr)
	if err := e.runCut(ctx, videoPath, span, chunkPath, false); err != nil {
		return err
	}
	if !fileNonEmpty(chunkPath) {
		return fmt.Errorf("re-encode produced no output at %s", chunkPath)
	}
	return nil
}

func (e *Extractor) runCut(ctx context.Context, videoPath string, span ChunkSpan, chunkPath string, streamCopy bool) error {
	args := []string{
		"-y",
		"-ss", strconv.FormatFloat(span.Start, 'f', 3, 64),
		"-i", videoPath,
		"-t", strconv.FormatFloat(span.Duration(), 'f', 3, 64),
	}
	if streamCopy {
		args = append(args, "-c", "copy", "-avoid_negative_ts", "make_zero")
	} else {
		// Re-encode keeps audio/video aligned at the exact boundary
		args = append(args, "-c:v", "libx264", "-preset", "fast", "-c:a", "aac")
	}
	args = append(args, chunkPath)

	cmd := exec.CommandContext(ctx, e.FFmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg cut failed: %v\nOutput: %s", err, truncate(string(output), 2000))
	}
	return nil
}

func fileNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
