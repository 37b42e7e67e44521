package media

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vaibh/video-analyzer/internal/types"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Opening scene", "Opening_scene"},
		{"Кликает кнопку!", "Кликает_кнопку"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  ", "frame"},
		{"", "frame"},
		{"___", "frame"},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.input); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	long := strings.Repeat("a", 100)
	if got := SanitizeTitle(long); len(got) != 60 {
		t.Errorf("long title sanitized to %d chars, want 60", len(got))
	}
}

func TestEntryName(t *testing.T) {
	got := EntryName(0, "Settings panel", 42)
	want := "01_Settings_panel_00-00-42.jpg"
	if got != want {
		t.Errorf("EntryName = %q, want %q", got, want)
	}

	// Identical title and timecode stay unique via the position prefix
	a := EntryName(3, "same", 60)
	b := EntryName(4, "same", 60)
	if a == b {
		t.Errorf("colliding entries: %q", a)
	}
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		buf.ReadFrom(rc)
		rc.Close()
		entries[f.Name] = buf.Bytes()
	}
	return entries
}

func TestArchiveFiltersInvalidKeyframes(t *testing.T) {
	archiver := NewFrameArchiver(t.TempDir())

	keyframes := []types.Keyframe{
		{Timecode: "01:30:00", Title: "out of range"},
		{Timecode: "-5", Title: "negative"},
		{Timecode: "bogus", Title: "unparseable"},
	}

	var buf bytes.Buffer
	failures, err := archiver.Archive(context.Background(), "video.mp4", 20*60, keyframes, &buf)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d: %+v", len(failures), failures)
	}
	if failures[0].Index != 0 || !strings.Contains(failures[0].Reason, "out of range") {
		t.Errorf("first failure = %+v, want out-of-range at index 0", failures[0])
	}

	entries := readArchive(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("expected manifest-only archive, got entries %v", keysOf(entries))
	}

	var manifest struct {
		Requested int            `json:"requested"`
		Captured  int            `json:"captured"`
		Failures  []FrameFailure `json:"failures"`
	}
	if err := json.Unmarshal(entries["manifest.json"], &manifest); err != nil {
		t.Fatalf("manifest unreadable: %v", err)
	}
	if manifest.Requested != 3 || manifest.Captured != 0 || len(manifest.Failures) != 3 {
		t.Errorf("manifest = %+v", manifest)
	}
}

func TestArchiveEmptyKeyframeSet(t *testing.T) {
	archiver := NewFrameArchiver(t.TempDir())

	var buf bytes.Buffer
	failures, err := archiver.Archive(context.Background(), "video.mp4", 60, nil, &buf)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("expected no failures, got %+v", failures)
	}

	entries := readArchive(t, buf.Bytes())
	if _, ok := entries["manifest.json"]; !ok || len(entries) != 1 {
		t.Errorf("expected manifest-only archive, got %v", keysOf(entries))
	}
}

func TestArchiveReportsCaptureFailures(t *testing.T) {
	archiver := NewFrameArchiver(t.TempDir())
	// A capture command that exits cleanly but produces no frame file
	archiver.FFmpegBin = "true"

	keyframes := []types.Keyframe{
		{Timecode: "00:05", Title: "valid but uncapturable"},
	}

	var buf bytes.Buffer
	failures, err := archiver.Archive(context.Background(), "video.mp4", 60, keyframes, &buf)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", failures)
	}
	if failures[0].Reason != "frame capture failed" {
		t.Errorf("failure reason = %q", failures[0].Reason)
	}
}

// failingWriter rejects every write, as a full disk would
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestArchiveSurfacesManifestWriteError(t *testing.T) {
	archiver := NewFrameArchiver(t.TempDir())

	_, err := archiver.Archive(context.Background(), "video.mp4", 60, nil, failingWriter{})
	if err == nil {
		t.Fatal("expected error when the archive writer fails")
	}
}

func keysOf(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
