package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vaibh/video-analyzer/internal/types"
)

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir)

	result := &types.AnalysisResult{
		JobID:       "job-1",
		VideoName:   "demo video",
		VideoType:   "general",
		Provider:    "gemini",
		Model:       "gemini-2.0-flash",
		Duration:    1500,
		ChunkCount:  3,
		Markdown:    "## Part 1\n\ncontent",
		ProcessedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}

	mdPath, err := ls.SaveReport(result)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	content, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("report unreadable: %v", err)
	}
	report := string(content)

	for _, want := range []string{
		"# Video Analysis: demo video",
		"**Provider:** gemini",
		"**Model:** gemini-2.0-flash",
		"**Video Type:** General Analysis",
		"## Part 1",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	// Metadata JSON lands next to the report
	metaPath := strings.TrimSuffix(mdPath, ".md") + "_meta.json"
	if _, err := os.Stat(metaPath); err != nil {
		t.Errorf("metadata file missing: %v", err)
	}

	// Reports are grouped per video with sanitized names
	if filepath.Base(filepath.Dir(mdPath)) != "demo_video" {
		t.Errorf("report directory = %s", filepath.Dir(mdPath))
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with_space"},
		{"a/b", "b"},
		{"bad:*?name", "bad___name"},
		{"", "untitled"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.input); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
