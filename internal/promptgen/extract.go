// Package promptgen builds model-aware XML prompt templates and pulls
// structured blocks back out of free-form model output.
package promptgen

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Generation targets
const (
	TargetAnalysis  = "analysis"
	TargetKeyframes = "keyframes"
)

const (
	analysisRoot  = "prompt"
	keyframesRoot = "keyframes_criteria"
)

var analysisRootAliases = map[string]bool{
	"prompt":          true,
	"analysis_prompt": true,
	"video_prompt":    true,
	"prompt_template": true,
}

var keyframesRootAliases = map[string]bool{
	"keyframes_criteria": true,
	"keyframe_criteria":  true,
	"keyframes":          true,
	"keyframes-criteria": true,
	"criteria":           true,
	"keyframesCriteria":  true,
}

var requiredTags = map[string][]string{
	TargetAnalysis:  {"type", "task", "context", "chunk_info", "focus", "requirements", "output"},
	TargetKeyframes: {"json_output", "no_limit", "cadence", "key_frame_criteria", "recall_bias"},
}

var fencedBlockRe = regexp.MustCompile("(?is)```(?:xml)?\\s*([\\s\\S]*?)\\s*```")

// ExtractStructured locates the XML block for a target inside free-form
// model output and returns it normalized (expected root tag, XML
// declaration prepended). The match is two-phase: locate a candidate span,
// then validate its structure, so "no block found" and "malformed block"
// stay distinguishable. Output is stable under re-extraction.
func ExtractStructured(raw, target string) (string, error) {
	rootTag, err := rootFor(target)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	// Some models return escaped XML (&lt;tag&gt;)
	text = html.UnescapeString(text)

	// Phase one: locate a candidate block — the expected root anywhere,
	// any well-formed root anywhere, then inside markdown code fences.
	block := findTagBlock(text, rootTag)
	if block == "" {
		block = findAnyTagBlock(text)
	}
	if block == "" {
		for _, fence := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
			fenced := strings.TrimSpace(fence[1])
			if block = findTagBlock(fenced, rootTag); block != "" {
				break
			}
			if block = findAnyTagBlock(fenced); block != "" {
				break
			}
		}
	}
	if block == "" {
		return "", fmt.Errorf("no <%s> block found in model response", rootTag)
	}

	block = normalizeRoot(block, target)
	block = strings.TrimSpace(block)
	if !strings.HasPrefix(block, "<?xml") {
		block = xmlDeclaration + "\n" + block
	}

	// Phase two: validate the located span
	if err := validateStructure(block, target); err != nil {
		return "", err
	}
	return block, nil
}

// ExtractTagContent returns the trimmed inner text of the first well-formed
// <tag>…</tag> occurrence, tolerating surrounding prose and code fences
func ExtractTagContent(text, tag string) (string, bool) {
	block := findTagBlock(text, tag)
	if block == "" {
		for _, fence := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
			if block = findTagBlock(strings.TrimSpace(fence[1]), tag); block != "" {
				break
			}
		}
	}
	if block == "" {
		return "", false
	}

	open := strings.Index(block, ">")
	close := strings.LastIndex(block, "</")
	if open < 0 || close <= open {
		return "", false
	}
	return strings.TrimSpace(block[open+1 : close]), true
}

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

func rootFor(target string) (string, error) {
	switch target {
	case TargetAnalysis:
		return analysisRoot, nil
	case TargetKeyframes:
		return keyframesRoot, nil
	default:
		return "", fmt.Errorf("unsupported target: %s", target)
	}
}

func aliasesFor(target string) map[string]bool {
	if target == TargetAnalysis {
		return analysisRootAliases
	}
	return keyframesRootAliases
}

// findTagBlock returns the first <tag ...>…</tag> span, preferring one led
// by an XML declaration
func findTagBlock(text, tag string) string {
	withDecl := regexp.MustCompile(`(?is)(<\?xml[\s\S]*?<\s*` + regexp.QuoteMeta(tag) + `\b[\s\S]*?</\s*` + regexp.QuoteMeta(tag) + `\s*>)`)
	if m := withDecl.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	bare := regexp.MustCompile(`(?is)(<\s*` + regexp.QuoteMeta(tag) + `\b[\s\S]*?</\s*` + regexp.QuoteMeta(tag) + `\s*>)`)
	if m := bare.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

var openTagRe = regexp.MustCompile(`<([A-Za-z_][\w:.\-]*)\b`)

// findAnyTagBlock returns the first span delimited by an opening tag and
// its matching closing tag
func findAnyTagBlock(text string) string {
	for _, loc := range openTagRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		closeRe := regexp.MustCompile(`</\s*` + regexp.QuoteMeta(name) + `\s*>`)
		if end := closeRe.FindStringIndex(text[loc[0]:]); end != nil {
			return text[loc[0] : loc[0]+end[1]]
		}
	}
	return ""
}

var openRootRe = regexp.MustCompile(`<\s*([A-Za-z_][\w:.\-]*)`)

// normalizeRoot renames accepted alias roots to the strict expected root
func normalizeRoot(block, target string) string {
	expected, _ := rootFor(target)
	aliases := aliasesFor(target)

	m := openRootRe.FindStringSubmatch(stripDeclaration(block))
	if m == nil {
		return block
	}
	root := m[1]
	if root == expected || !aliases[root] {
		return block
	}

	openRe := regexp.MustCompile(`<\s*` + regexp.QuoteMeta(root) + `\b`)
	closeRe := regexp.MustCompile(`</\s*` + regexp.QuoteMeta(root) + `\s*>`)
	block = openRe.ReplaceAllString(block, "<"+expected)
	return closeRe.ReplaceAllString(block, "</"+expected+">")
}

func stripDeclaration(block string) string {
	if idx := strings.Index(block, "?>"); idx >= 0 && strings.HasPrefix(strings.TrimSpace(block), "<?xml") {
		return block[idx+2:]
	}
	return block
}

// validateStructure checks the root tag and the presence of the required
// child tags for a target, without strict XML parsing
func validateStructure(block, target string) error {
	expected, _ := rootFor(target)
	aliases := aliasesFor(target)

	m := openRootRe.FindStringSubmatch(stripDeclaration(block))
	if m == nil {
		return fmt.Errorf("extracted block has no root tag")
	}
	if m[1] != expected && !aliases[m[1]] {
		return fmt.Errorf("extracted block has unexpected root tag <%s>", m[1])
	}

	for _, tag := range requiredTags[target] {
		tagRe := regexp.MustCompile(`(?i)<\s*` + regexp.QuoteMeta(tag) + `\b`)
		if !tagRe.MatchString(block) {
			return fmt.Errorf("extracted block is missing required tag <%s>", tag)
		}
	}
	return nil
}
