package media

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/vaibh/video-analyzer/internal/types"
)

// FrameFailure reports one keyframe that did not make it into the archive
type FrameFailure struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// FrameArchiver captures still frames at keyframe timecodes and packages
// them into a zip archive
type FrameArchiver struct {
	FFmpegBin string
	TempDir   string
}

// NewFrameArchiver creates an archiver writing temp frames under tempDir
func NewFrameArchiver(tempDir string) *FrameArchiver {
	return &FrameArchiver{
		FFmpegBin: "ffmpeg",
		TempDir:   tempDir,
	}
}

// Archive captures one frame per keyframe and writes a zip to w. Keyframes
// with timecodes outside [0, duration) and frames ffmpeg cannot capture are
// skipped and reported in the returned failure list; a manifest.json entry
// in the archive carries the same report. Partial success is the contract:
// an empty valid set still yields a (manifest-only) archive.
func (fa *FrameArchiver) Archive(ctx context.Context, videoPath string, duration float64, keyframes []types.Keyframe, w io.Writer) ([]FrameFailure, error) {
	workDir := filepath.Join(fa.TempDir, "frames_"+uuid.New().String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	zw := zip.NewWriter(w)
	var failures []FrameFailure
	var captured int

	for i, kf := range keyframes {
		seconds, err := ParseTimecode(kf.Timecode)
		if err != nil {
			failures = append(failures, FrameFailure{Index: i, Title: kf.Title, Reason: fmt.Sprintf("invalid timecode: %v", err)})
			continue
		}
		if seconds < 0 || seconds >= duration {
			failures = append(failures, FrameFailure{
				Index: i, Title: kf.Title,
				Reason: fmt.Sprintf("timecode %s out of range (video is %s)", kf.Timecode, FormatTimecode(duration)),
			})
			continue
		}

		framePath := filepath.Join(workDir, fmt.Sprintf("frame_%03d.jpg", i))
		if err := fa.captureFrame(ctx, videoPath, seconds, framePath); err != nil {
			log.Printf("Frame capture failed for keyframe %d (%s): %v", i, kf.Title, err)
			failures = append(failures, FrameFailure{Index: i, Title: kf.Title, Reason: "frame capture failed"})
			continue
		}

		if err := addFileToZip(zw, framePath, EntryName(i, kf.Title, seconds)); err != nil {
			zw.Close()
			return failures, fmt.Errorf("failed to write archive entry: %v", err)
		}
		captured++
	}

	manifest := map[string]interface{}{
		"requested": len(keyframes),
		"captured":  captured,
		"failures":  failures,
	}
	if failures == nil {
		manifest["failures"] = []FrameFailure{}
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		entry, werr := zw.Create("manifest.json")
		if werr == nil {
			_, werr = entry.Write(manifestJSON)
		}
		if werr != nil {
			zw.Close()
			return failures, fmt.Errorf("failed to write archive manifest: %v", werr)
		}
	}

	if err := zw.Close(); err != nil {
		return failures, fmt.Errorf("failed to finalize archive: %v", err)
	}
	return failures, nil
}

// captureFrame seeks to a timecode and grabs exactly one high quality JPEG
func (fa *FrameArchiver) captureFrame(ctx context.Context, videoPath string, seconds float64, outputPath string) error {
	cmd := exec.CommandContext(ctx, fa.FFmpegBin,
		"-y",
		"-ss", FormatTimecode(seconds),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg frame capture failed: %v\nOutput: %s", err, truncate(string(output), 1000))
	}
	if !fileNonEmpty(outputPath) {
		return fmt.Errorf("no frame produced at %s", outputPath)
	}
	return nil
}

// EntryName builds the deterministic archive name for a keyframe. The input
// position prefix keeps entries unique even when titles and timecodes collide.
func EntryName(index int, title string, seconds float64) string {
	tc := strings.ReplaceAll(FormatTimecode(seconds), ":", "-")
	return fmt.Sprintf("%02d_%s_%s.jpg", index+1, SanitizeTitle(title), tc)
}

var unsafeTitleChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// SanitizeTitle reduces a keyframe title to a safe filename fragment
func SanitizeTitle(title string) string {
	cleaned := unsafeTitleChars.ReplaceAllString(strings.TrimSpace(title), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		cleaned = "frame"
	}
	if len(cleaned) > 60 {
		cleaned = cleaned[:60]
	}
	return cleaned
}

func addFileToZip(zw *zip.Writer, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	entry, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = entry.Write(data)
	return err
}
