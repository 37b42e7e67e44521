package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vaibh/video-analyzer/internal/prompts"
	"github.com/vaibh/video-analyzer/internal/types"
)

// LocalStorage writes finished analysis reports to the local filesystem
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// SaveReport writes the markdown report plus a metadata JSON next to it,
// under a directory per video
func (ls *LocalStorage) SaveReport(result *types.AnalysisResult) (string, error) {
	videoDir := filepath.Join(ls.outputDir, sanitizeFilename(result.VideoName))
	if err := os.MkdirAll(videoDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %v", err)
	}

	timestamp := result.ProcessedAt.Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s_analysis", timestamp, sanitizeFilename(result.VideoName))

	mdPath := filepath.Join(videoDir, baseFilename+".md")
	metaPath := filepath.Join(videoDir, baseFilename+"_meta.json")

	var report strings.Builder
	report.WriteString(fmt.Sprintf("# Video Analysis: %s\n\n", result.VideoName))
	report.WriteString(fmt.Sprintf("**Date:** %s\n", result.ProcessedAt.Format("2006-01-02 15:04")))
	report.WriteString(fmt.Sprintf("**Provider:** %s\n", result.Provider))
	report.WriteString(fmt.Sprintf("**Model:** %s\n", result.Model))
	report.WriteString(fmt.Sprintf("**Video Type:** %s\n\n", prompts.TypeName(result.VideoType)))
	report.WriteString("---\n\n")
	report.WriteString(result.Markdown)

	if err := os.WriteFile(mdPath, []byte(report.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to save report: %v", err)
	}

	metadata := map[string]interface{}{
		"job_id":           result.JobID,
		"video_name":       result.VideoName,
		"video_type":       result.VideoType,
		"provider":         result.Provider,
		"model":            result.Model,
		"duration_seconds": result.Duration,
		"chunk_count":      result.ChunkCount,
		"created_at":       result.ProcessedAt,
		"local_path":       mdPath,
		"gdrive_url":       result.GDriveURL,
	}

	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %v", err)
	}

	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %v", err)
	}

	return mdPath, nil
}

// sanitizeFilename removes path separators and unsafe characters
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	result := replacer.Replace(name)
	if len(result) > 100 {
		result = result[:100]
	}
	if result == "" || result == "." {
		result = "untitled"
	}
	return result
}
