package promptgen

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vaibh/video-analyzer/internal/types"
)

var jsonFenceRe = regexp.MustCompile("(?is)```json\\s*([\\s\\S]*?)\\s*```")
var jsonArrayRe = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// ParseKeyframes pulls a keyframe list out of free-form analysis text. The
// model is asked to emit a fenced JSON array; this tolerates a bare array
// in prose and a list echoed inside the <json_output> or <keyframes> tag
// of the criteria block too. Entries without a timecode are skipped. No
// list at all is not an error — the caller gets an empty slice.
func ParseKeyframes(text string) []types.Keyframe {
	var candidates []string

	for _, tag := range []string{"json_output", "keyframes"} {
		if inner, ok := ExtractTagContent(text, tag); ok {
			candidates = append(candidates, inner)
		}
	}
	for _, m := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if m := jsonArrayRe.FindString(text); m != "" {
		candidates = append(candidates, m)
	}

	for _, candidate := range candidates {
		if frames := decodeKeyframes(candidate); len(frames) > 0 {
			return frames
		}
	}
	return nil
}

func decodeKeyframes(raw string) []types.Keyframe {
	raw = strings.TrimSpace(raw)

	var direct []types.Keyframe
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return filterKeyframes(direct)
	}

	// Some models wrap the list in an object, e.g. {"keyframes": [...]}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		for _, value := range wrapped {
			var list []types.Keyframe
			if err := json.Unmarshal(value, &list); err == nil && len(list) > 0 {
				return filterKeyframes(list)
			}
		}
	}
	return nil
}

func filterKeyframes(frames []types.Keyframe) []types.Keyframe {
	valid := frames[:0]
	for _, kf := range frames {
		if strings.TrimSpace(kf.Timecode) == "" {
			continue
		}
		if strings.TrimSpace(kf.Title) == "" {
			kf.Title = "keyframe"
		}
		valid = append(valid, kf)
	}
	return valid
}
