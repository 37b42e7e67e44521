package promptgen

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/vaibh/video-analyzer/internal/analysis"
	"github.com/vaibh/video-analyzer/internal/prompts"
)

// Service generates production-style XML prompt templates from user
// descriptions via a provider model, falling back to a deterministic
// template when the model's output cannot be extracted
type Service struct {
	prompts *prompts.Manager
}

// NewService creates a generation service over the prompt catalogue
func NewService(pm *prompts.Manager) *Service {
	return &Service{prompts: pm}
}

// Request describes one prompt generation call
type Request struct {
	Target      string `json:"target"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	VideoType   string `json:"video_type,omitempty"`
}

// Validate rejects malformed requests before any model call
func (r Request) Validate() error {
	if r.Target != TargetAnalysis && r.Target != TargetKeyframes {
		return fmt.Errorf("unsupported target: %s", r.Target)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	return nil
}

// Generate asks the provider model for a template and extracts its XML
// block. Extraction failure is never surfaced: the deterministic fallback
// is returned instead, and the two are indistinguishable to the caller.
func (s *Service) Generate(ctx context.Context, analyzer analysis.Analyzer, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	instruction := s.buildInstruction(req)

	raw, err := analyzer.GenerateText(ctx, instruction)
	if err != nil {
		log.Printf("Prompt generation call failed (%v), using fallback template", err)
		return Fallback(req.Target, req.Description, req.Provider, req.Model, req.VideoType), nil
	}

	extracted, err := ExtractStructured(raw, req.Target)
	if err != nil {
		log.Printf("Prompt extraction failed (%v), using fallback template", err)
		return Fallback(req.Target, req.Description, req.Provider, req.Model, req.VideoType), nil
	}
	return extracted, nil
}

func (s *Service) buildInstruction(req Request) string {
	if req.Target == TargetKeyframes {
		return s.buildKeyframesInstruction(req)
	}
	return s.buildAnalysisInstruction(req)
}

func (s *Service) buildAnalysisInstruction(req Request) string {
	referenceType := req.VideoType
	if referenceType == "" || referenceType == "custom" || !prompts.IsValidType(referenceType) {
		referenceType = "general"
	}
	reference, err := s.prompts.Load(referenceType, false, "")
	if err != nil {
		reference, _ = s.prompts.Load("general", false, "")
	}

	return fmt.Sprintf(`You are an expert system-prompt engineer for multimodal video analysis.

Your task: generate one production-ready XML prompt template for VIDEO ANALYSIS.
The generated prompt must be specialized for this runtime stack:
- Provider: %s
- Model: %s
- Selected video type: %s

User case description:
"""
%s
"""

Reference style (quality and depth baseline from existing repository):
"""
%s
"""

Hard requirements:
1) Return ONLY XML, no markdown, no explanations.
2) Root tag must be exactly <prompt>.
3) Keep this structure:
   - <type>
   - <task>
   - <context><chunk_info><chunk_number>{chunk_number}</chunk_number><total_chunks>{total_chunks}</total_chunks><time_range><start_minutes>{start_time_minutes}</start_minutes><end_minutes>{end_time_minutes}</end_minutes><duration_minutes>{duration_minutes}</duration_minutes></time_range></chunk_info></context>
   - <focus> with multiple <item>
   - <requirements> with at least: <language>, <detail_level>, <factuality>, <timecodes>, <confidence>
   - <output> with multiple <section>
4) Instructions inside XML must be in Russian.
5) No placeholders except these exact chunk placeholders: {chunk_number}, {total_chunks}, {start_time_minutes}, {end_time_minutes}, {duration_minutes}.
6) Make it strict, practical, and model-aware (wording/detail adapted to the specified model).
7) Ensure the result is valid XML and starts with XML declaration.
`, req.Provider, req.Model, referenceType, strings.TrimSpace(req.Description), reference)
}

func (s *Service) buildKeyframesInstruction(req Request) string {
	reference := s.prompts.KeyframesCriteriaDefault()

	return fmt.Sprintf(`You are an expert system-prompt engineer for multimodal keyframe extraction.

Your task: generate one production-ready XML criteria template for KEYFRAMES.
The generated criteria must be specialized for this runtime stack:
- Provider: %s
- Model: %s

User definition of keyframes:
"""
%s
"""

Reference style (quality and depth baseline from existing repository):
"""
%s
"""

Hard requirements:
1) Return ONLY XML, no markdown, no explanations.
2) Root tag must be exactly <keyframes_criteria>.
3) Keep this structure:
   - <json_output>
   - <no_limit>
   - <cadence>
   - <key_frame_criteria> containing <note> and multiple <item>
   - <recall_bias>
4) Instructions inside XML must be in Russian.
5) Do not include JSON schema block or <keyframes_format>; only criteria XML.
6) Make criteria specific, strict, and adapted to model capabilities.
7) Ensure the result is valid XML and starts with XML declaration.
`, req.Provider, req.Model, strings.TrimSpace(req.Description), reference)
}
