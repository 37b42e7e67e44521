package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vaibh/video-analyzer/internal/media"
)

// ChunkAnalysis pairs one chunk's placement with the text the model returned
type ChunkAnalysis struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// FormatChunkPrompt substitutes the chunk placement placeholders a template
// may carry. Templates without placeholders pass through unchanged.
func FormatChunkPrompt(prompt string, chunk ChunkContext) string {
	minutes := func(sec float64) string {
		return strconv.FormatFloat(float64(int(sec/60*10+0.5))/10, 'f', 1, 64)
	}
	replacer := strings.NewReplacer(
		"{chunk_number}", strconv.Itoa(chunk.Number),
		"{total_chunks}", strconv.Itoa(chunk.Total),
		"{start_time_minutes}", minutes(chunk.StartSeconds),
		"{end_time_minutes}", minutes(chunk.EndSeconds),
		"{duration_minutes}", minutes(chunk.EndSeconds-chunk.StartSeconds),
	)
	return replacer.Replace(prompt)
}

// MergeAnalyses concatenates chunk analyses in chunk index order into one
// markdown document. Chunk-local timecodes in each section are rewritten to
// global ones by adding the chunk's start offset. Input order does not
// matter; output order always follows chunk index.
func MergeAnalyses(analyses []ChunkAnalysis) string {
	ordered := make([]ChunkAnalysis, len(analyses))
	copy(ordered, analyses)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	if len(ordered) == 1 {
		return RewriteTimecodes(ordered[0].Text, ordered[0].Start)
	}

	var sb strings.Builder
	for i, ca := range ordered {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString(fmt.Sprintf("## Part %d (%s – %s)\n\n", ca.Index+1,
			media.FormatTimecode(ca.Start), media.FormatTimecode(ca.End)))
		sb.WriteString(RewriteTimecodes(ca.Text, ca.Start))
	}
	return sb.String()
}

// timecodeRe matches HH:MM:SS and MM:SS tokens in prose or JSON
var timecodeRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::(\d{2}))?\b`)

// RewriteTimecodes shifts every timecode in text by offset seconds and
// normalizes the result to HH:MM:SS. A zero offset still normalizes, so the
// first chunk's timecodes read the same as every later chunk's.
func RewriteTimecodes(text string, offset float64) string {
	return timecodeRe.ReplaceAllStringFunc(text, func(match string) string {
		seconds, err := media.ParseTimecode(match)
		if err != nil {
			return match
		}
		return media.FormatTimecode(seconds + offset)
	})
}
