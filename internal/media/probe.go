package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vaibh/video-analyzer/internal/types"
)

// ffprobeOutput matches the JSON printed by ffprobe -print_format json
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		FrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe inspects a video file with ffprobe and returns its properties
func Probe(ctx context.Context, videoPath string) (*types.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %v", videoPath, err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %v", err)
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("ffprobe returned no usable duration for %s", videoPath)
	}

	size, _ := strconv.ParseInt(probed.Format.Size, 10, 64)

	info := &types.VideoInfo{
		Duration:  duration,
		SizeBytes: size,
		Format:    probed.Format.FormatName,
	}
	if info.Format == "" {
		info.Format = "unknown"
	}

	for _, stream := range probed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.Width = stream.Width
		info.Height = stream.Height
		info.Codec = stream.CodecName
		info.FPS = parseFrameRate(stream.FrameRate)
		break
	}

	return info, nil
}

// parseFrameRate handles ffprobe's fractional notation, e.g. "30000/1001"
func parseFrameRate(raw string) float64 {
	if raw == "" {
		return 0
	}
	if num, den, found := strings.Cut(raw, "/"); found {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return float64(int(n/d*100+0.5)) / 100
	}
	fps, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return fps
}
