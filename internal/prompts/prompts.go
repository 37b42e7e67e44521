package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TypeInfo describes one analysis video type
type TypeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

type typeEntry struct {
	name        string
	description string
	promptFile  string
}

// videoTypes is the catalogue of built-in analysis templates
var videoTypes = map[string]typeEntry{
	"general":         {"General Analysis", "Universal video analysis for any content type", "chunk_analysis_prompt.xml"},
	"lecture":         {"Lecture / Educational", "Educational content, online courses, lectures", "chunk_analysis_lecture.xml"},
	"tutorial":        {"Tutorial / How-to", "Step-by-step tutorials and guides", "chunk_analysis_tutorial.xml"},
	"marketing":       {"Marketing / Product Demo", "Product demonstrations, advertisements, promotional videos", "chunk_analysis_marketing.xml"},
	"presentation":    {"Presentation / Pitch", "Business presentations, pitches, investor decks", "chunk_analysis_presentation.xml"},
	"meeting":         {"Meeting / Standup", "Work meetings, standups, team calls", "chunk_analysis_meeting.xml"},
	"interview":       {"Interview Evaluation", "Job interviews with detailed candidate evaluation", "chunk_analysis_interview.xml"},
	"language_lesson": {"Language Lesson", "Language instruction with full transcription", "chunk_analysis_language_lesson.xml"},
	"voiceover":       {"Voiceover / Sound Design", "Generate AI music/SFX prompts based on video", "chunk_analysis_voiceover.xml"},
}

// typeOrder keeps listings stable
var typeOrder = []string{
	"general", "lecture", "tutorial", "marketing", "presentation",
	"meeting", "interview", "language_lesson", "voiceover",
}

// Manager loads and caches prompt templates from a directory
type Manager struct {
	promptsDir string

	mu    sync.Mutex
	cache map[string]string
}

// NewManager creates a manager reading templates from promptsDir
func NewManager(promptsDir string) *Manager {
	return &Manager{
		promptsDir: promptsDir,
		cache:      make(map[string]string),
	}
}

// IsValidType reports whether a video type exists in the catalogue
func IsValidType(videoType string) bool {
	_, ok := videoTypes[videoType]
	return ok
}

// TypeName returns the display name for a video type
func TypeName(videoType string) string {
	if entry, ok := videoTypes[videoType]; ok {
		return entry.name
	}
	return videoType
}

// IsAvailable reports whether a catalogued type's template file exists on
// disk. A type can be valid but unavailable when its template is not shipped.
func (m *Manager) IsAvailable(videoType string) bool {
	entry, ok := videoTypes[videoType]
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(m.promptsDir, entry.promptFile))
	return err == nil
}

// AvailableTypes lists the catalogue with on-disk availability
func (m *Manager) AvailableTypes() []TypeInfo {
	result := make([]TypeInfo, 0, len(typeOrder))
	for _, id := range typeOrder {
		entry := videoTypes[id]
		result = append(result, TypeInfo{
			ID:          id,
			Name:        entry.name,
			Description: entry.description,
			Available:   m.IsAvailable(id),
		})
	}
	return result
}

// Load returns the template for a video type, optionally with keyframes
// criteria appended. customCriteria overrides the default criteria block
// and bypasses the cache.
func (m *Manager) Load(videoType string, withKeyframes bool, customCriteria string) (string, error) {
	entry, ok := videoTypes[videoType]
	if !ok {
		return "", fmt.Errorf("unknown video type: %s", videoType)
	}

	useCache := customCriteria == ""
	cacheKey := fmt.Sprintf("%s_%t", entry.promptFile, withKeyframes)

	if useCache {
		m.mu.Lock()
		cached, hit := m.cache[cacheKey]
		m.mu.Unlock()
		if hit {
			return cached, nil
		}
	}

	data, err := os.ReadFile(filepath.Join(m.promptsDir, entry.promptFile))
	if err != nil {
		return "", fmt.Errorf("prompt file not found for type %s: %v", videoType, err)
	}
	prompt := string(data)

	if withKeyframes {
		criteria := customCriteria
		if criteria == "" {
			criteria = m.KeyframesCriteriaDefault()
		}
		if criteria != "" {
			prompt += "\n\n" + criteria
		}
		if format := m.KeyframesFormat(); format != "" {
			prompt += "\n\n" + format
		}
	}

	if useCache {
		m.mu.Lock()
		m.cache[cacheKey] = prompt
		m.mu.Unlock()
	}
	return prompt, nil
}

// KeyframesCriteriaDefault returns the editable default criteria block,
// empty when the file is absent
func (m *Manager) KeyframesCriteriaDefault() string {
	return m.loadOptional("keyframes_criteria_default.xml")
}

// KeyframesFormat returns the fixed keyframes JSON format block, empty when
// the file is absent
func (m *Manager) KeyframesFormat() string {
	return m.loadOptional("keyframes_format.xml")
}

func (m *Manager) loadOptional(filename string) string {
	m.mu.Lock()
	cached, hit := m.cache[filename]
	m.mu.Unlock()
	if hit {
		return cached
	}

	data, err := os.ReadFile(filepath.Join(m.promptsDir, filename))
	if err != nil {
		return ""
	}

	m.mu.Lock()
	m.cache[filename] = string(data)
	m.mu.Unlock()
	return string(data)
}

// ClearCache drops all cached templates
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.cache = make(map[string]string)
	m.mu.Unlock()
}
