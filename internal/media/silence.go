package media

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
)

// SilenceInterval is a detected span of low audio energy
type SilenceInterval struct {
	Start float64
	End   float64
}

// Duration returns the interval length in seconds
func (si SilenceInterval) Duration() float64 {
	return si.End - si.Start
}

// Midpoint returns the center of the interval in seconds
func (si SilenceInterval) Midpoint() float64 {
	return (si.Start + si.End) / 2
}

// SilenceDetector runs ffmpeg's silencedetect filter over a video
type SilenceDetector struct {
	FFmpegBin   string
	NoiseDB     float64 // threshold below which audio counts as silence, e.g. -30
	MinDuration float64 // seconds a span must last to be reported
}

// NewSilenceDetector creates a detector with the given thresholds
func NewSilenceDetector(noiseDB, minDuration float64) *SilenceDetector {
	return &SilenceDetector{
		FFmpegBin:   "ffmpeg",
		NoiseDB:     noiseDB,
		MinDuration: minDuration,
	}
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?\d+(?:\.\d+)?)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?\d+(?:\.\d+)?)`)
)

// Detect returns silence intervals over [start, end) of the given file,
// in ascending start order. Detection failure is never fatal: any error
// degrades to an empty list so callers fall back to naive boundaries.
func (sd *SilenceDetector) Detect(ctx context.Context, videoPath string, start, end float64) []SilenceInterval {
	if end <= start {
		return nil
	}

	args := []string{
		"-hide_banner",
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-t", strconv.FormatFloat(end-start, 'f', 3, 64),
		"-i", videoPath,
		"-af", fmt.Sprintf("silencedetect=noise=%gdB:d=%g", sd.NoiseDB, sd.MinDuration),
		"-f", "null", "-",
	}

	cmd := exec.CommandContext(ctx, sd.FFmpegBin, args...)
	// silencedetect logs its events on stderr
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("WARNING: silence detection failed on %s [%.1f-%.1f]: %v", videoPath, start, end, err)
		return nil
	}

	intervals := parseSilenceLog(string(output))

	// silencedetect reports times relative to the seek point
	for i := range intervals {
		intervals[i].Start += start
		intervals[i].End += start
	}
	return intervals
}

// parseSilenceLog pairs silence_start/silence_end markers from ffmpeg output
// in the order they appear. A start with no matching end (truncated log,
// silence running past the range) is dropped rather than reported as an open
// interval; a second start before any end supersedes the first.
func parseSilenceLog(logText string) []SilenceInterval {
	type marker struct {
		pos   int
		value float64
		start bool
	}
	var markers []marker

	for _, loc := range silenceStartRe.FindAllStringSubmatchIndex(logText, -1) {
		v, err := strconv.ParseFloat(logText[loc[2]:loc[3]], 64)
		if err == nil {
			markers = append(markers, marker{pos: loc[0], value: v, start: true})
		}
	}
	for _, loc := range silenceEndRe.FindAllStringSubmatchIndex(logText, -1) {
		v, err := strconv.ParseFloat(logText[loc[2]:loc[3]], 64)
		if err == nil {
			markers = append(markers, marker{pos: loc[0], value: v})
		}
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })

	var intervals []SilenceInterval
	pending := -1.0
	havePending := false
	for _, m := range markers {
		if m.start {
			pending = m.value
			havePending = true
			continue
		}
		if havePending && m.value > pending {
			intervals = append(intervals, SilenceInterval{Start: pending, End: m.value})
		}
		havePending = false
	}

	return intervals
}
