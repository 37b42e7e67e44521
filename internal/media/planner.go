package media

import (
	"context"
	"fmt"
	"math"

	"github.com/vaibh/video-analyzer/internal/types"
)

// ChunkSpan is one planned segment of the source video
type ChunkSpan struct {
	Index int
	Start float64
	End   float64
}

// Duration returns the span length in seconds
func (cs ChunkSpan) Duration() float64 {
	return cs.End - cs.Start
}

// PlanOptions configures chunk boundary selection
type PlanOptions struct {
	// ChunkDuration is the target segment length in seconds
	ChunkDuration float64
	// Mode is types.SplitFixed or types.SplitSilenceAware
	Mode string
	// SearchWindow is how far around a naive boundary (seconds, each
	// direction) silence is searched in silence_aware mode
	SearchWindow float64
	// MinSilence is the minimum silence duration (seconds) a candidate
	// interval must have
	MinSilence float64
}

// BoundaryDetector supplies silence intervals for silence-aware planning
type BoundaryDetector interface {
	Detect(ctx context.Context, videoPath string, start, end float64) []SilenceInterval
}

// PlanChunks computes segment boundaries covering exactly [0, duration).
// Chunks are contiguous and non-overlapping in every mode: each chunk ends
// where the next one starts, the first starts at zero and the last ends at
// the full duration.
func PlanChunks(ctx context.Context, videoPath string, duration float64, opts PlanOptions, detector BoundaryDetector) ([]ChunkSpan, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("invalid video duration %.3f", duration)
	}
	if opts.ChunkDuration <= 0 {
		return nil, fmt.Errorf("invalid chunk duration %.3f", opts.ChunkDuration)
	}

	boundaries := naiveBoundaries(duration, opts.ChunkDuration)

	if opts.Mode == types.SplitSilenceAware && detector != nil && len(boundaries) > 2 {
		boundaries = adjustToSilence(ctx, videoPath, boundaries, duration, opts, detector)
	}

	spans := make([]ChunkSpan, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		spans = append(spans, ChunkSpan{
			Index: i,
			Start: boundaries[i],
			End:   boundaries[i+1],
		})
	}
	return spans, nil
}

// naiveBoundaries returns 0, T, 2T, ..., duration. The last chunk absorbs
// the remainder and is never zero-length.
func naiveBoundaries(duration, chunkDuration float64) []float64 {
	boundaries := []float64{0}
	for b := chunkDuration; b < duration; b += chunkDuration {
		boundaries = append(boundaries, b)
	}
	return append(boundaries, duration)
}

// adjustToSilence moves each interior boundary to the midpoint of the best
// qualifying silence interval near it. Boundaries are processed left to
// right; an adjustment that would touch or cross a neighboring boundary is
// discarded and the naive boundary kept.
func adjustToSilence(ctx context.Context, videoPath string, boundaries []float64, duration float64, opts PlanOptions, detector BoundaryDetector) []float64 {
	adjusted := make([]float64, len(boundaries))
	copy(adjusted, boundaries)

	for i := 1; i < len(boundaries)-1; i++ {
		naive := boundaries[i]
		lo := math.Max(naive-opts.SearchWindow, 0)
		hi := math.Min(naive+opts.SearchWindow, duration)

		intervals := detector.Detect(ctx, videoPath, lo, hi)
		candidate, ok := closestQualifying(intervals, naive, opts.MinSilence)
		if !ok {
			continue
		}

		point := math.Min(math.Max(candidate, lo), hi)

		// Must stay strictly between the previous (possibly already
		// adjusted) boundary and the next naive boundary.
		if point <= adjusted[i-1] || point >= boundaries[i+1] {
			continue
		}
		adjusted[i] = point
	}

	return adjusted
}

// closestQualifying picks the midpoint of the interval closest to the naive
// boundary among those meeting the minimum duration. On an exact distance
// tie the earlier interval wins; detectors report intervals in ascending
// start order, so strict comparison keeps the first one seen.
func closestQualifying(intervals []SilenceInterval, naive, minSilence float64) (float64, bool) {
	best := 0.0
	bestDist := math.Inf(1)
	found := false

	for _, iv := range intervals {
		if iv.Duration() < minSilence {
			continue
		}
		mid := iv.Midpoint()
		dist := math.Abs(mid - naive)
		if dist < bestDist {
			best = mid
			bestDist = dist
			found = true
		}
	}

	return best, found
}
