package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePromptDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestIsValidType(t *testing.T) {
	for _, vt := range []string{"general", "lecture", "voiceover"} {
		if !IsValidType(vt) {
			t.Errorf("IsValidType(%q) = false", vt)
		}
	}
	if IsValidType("cooking_show") {
		t.Error("unknown type accepted")
	}
}

func TestLoadPrompt(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"chunk_analysis_prompt.xml": "<prompt>base</prompt>",
	})
	m := NewManager(dir)

	got, err := m.Load("general", false, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "<prompt>base</prompt>" {
		t.Errorf("Load = %q", got)
	}

	if _, err := m.Load("cooking_show", false, ""); err == nil {
		t.Error("unknown type loaded")
	}
	if _, err := m.Load("lecture", false, ""); err == nil {
		t.Error("type without a template file loaded")
	}
}

func TestLoadPromptWithKeyframes(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"chunk_analysis_prompt.xml":      "<prompt>base</prompt>",
		"keyframes_criteria_default.xml": "<keyframes_criteria>default</keyframes_criteria>",
		"keyframes_format.xml":           "<keyframes_format>json</keyframes_format>",
	})
	m := NewManager(dir)

	got, err := m.Load("general", true, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, want := range []string{"base", "default", "json"} {
		if !strings.Contains(got, want) {
			t.Errorf("keyframes prompt missing %q:\n%s", want, got)
		}
	}

	// Custom criteria replace the default block but keep the format block
	custom, err := m.Load("general", true, "<keyframes_criteria>custom</keyframes_criteria>")
	if err != nil {
		t.Fatalf("Load with custom criteria failed: %v", err)
	}
	if !strings.Contains(custom, "custom") || strings.Contains(custom, "default") {
		t.Errorf("custom criteria not applied:\n%s", custom)
	}
}

func TestLoadUsesCache(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"chunk_analysis_prompt.xml": "<prompt>v1</prompt>",
	})
	m := NewManager(dir)

	if _, err := m.Load("general", false, ""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Changing the file on disk is invisible until the cache is cleared
	os.WriteFile(filepath.Join(dir, "chunk_analysis_prompt.xml"), []byte("<prompt>v2</prompt>"), 0644)

	cached, _ := m.Load("general", false, "")
	if cached != "<prompt>v1</prompt>" {
		t.Errorf("cache bypassed: %q", cached)
	}

	m.ClearCache()
	fresh, _ := m.Load("general", false, "")
	if fresh != "<prompt>v2</prompt>" {
		t.Errorf("cache not cleared: %q", fresh)
	}
}

func TestIsAvailable(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"chunk_analysis_prompt.xml": "<prompt>base</prompt>",
	})
	m := NewManager(dir)

	if !m.IsAvailable("general") {
		t.Error("general should be available")
	}
	if m.IsAvailable("tutorial") {
		t.Error("tutorial has no template file and must not be available")
	}
	if m.IsAvailable("cooking_show") {
		t.Error("unknown type reported available")
	}
}

func TestAvailableTypes(t *testing.T) {
	dir := writePromptDir(t, map[string]string{
		"chunk_analysis_prompt.xml": "<prompt>base</prompt>",
	})
	m := NewManager(dir)

	infos := m.AvailableTypes()
	if len(infos) != len(typeOrder) {
		t.Fatalf("expected %d types, got %d", len(typeOrder), len(infos))
	}
	if infos[0].ID != "general" || !infos[0].Available {
		t.Errorf("general entry = %+v", infos[0])
	}

	for _, info := range infos[1:] {
		if info.Available {
			t.Errorf("type %s reported available without a template file", info.ID)
		}
	}
}
