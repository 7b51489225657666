// Package highlights converts heterogeneous transcript payloads into an
// ordered sequence of time-ranged text segments. Everything here is
// pure: no I/O, no failure modes. An unusable payload yields an empty
// sequence, which callers treat as the no-speech outcome.
package highlights

import (
	"strings"

	"github.com/clipforge/creator-studio/internal/assemblyai"
)

// Highlight is a time-bounded transcript excerpt considered for
// short-clip generation. Times are seconds; End strictly exceeds Start.
type Highlight struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the highlight length in seconds.
func (h Highlight) Duration() float64 {
	return h.End - h.Start
}

// wordChunkSpanMS closes a word chunk once its span exceeds this many
// milliseconds. The trailing partial chunk flushes regardless.
const wordChunkSpanMS = 5000

// Shape tags which transcript structure a payload provides. Shapes are
// attempted in declaration order; the first usable one wins.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeUtterances
	ShapeWords
	ShapeSentences
	ShapePlainText
)

func (s Shape) String() string {
	switch s {
	case ShapeUtterances:
		return "utterances"
	case ShapeWords:
		return "words"
	case ShapeSentences:
		return "sentences"
	case ShapePlainText:
		return "text"
	default:
		return "empty"
	}
}

// Classify determines which structure the payload carries, in priority
// order: utterances, words, sentences, plain text.
func Classify(t *assemblyai.Transcript) Shape {
	switch {
	case t == nil:
		return ShapeEmpty
	case len(t.Utterances) > 0:
		return ShapeUtterances
	case len(t.Words) > 0:
		return ShapeWords
	case len(t.Sentences) > 0:
		return ShapeSentences
	case strings.TrimSpace(t.Text) != "":
		return ShapePlainText
	default:
		return ShapeEmpty
	}
}

// Extract derives the ordered highlight sequence from a transcript
// payload. Plain-text payloads carry no timing information, so they
// yield no highlights; Text surfaces that case separately.
func Extract(t *assemblyai.Transcript) []Highlight {
	switch Classify(t) {
	case ShapeUtterances:
		return fromSpans(t.Utterances)
	case ShapeWords:
		return fromWords(t.Words)
	case ShapeSentences:
		return fromSpans(t.Sentences)
	default:
		return nil
	}
}

// Text reconstructs the full transcript text for informational display,
// regardless of whether the payload yielded highlights.
func Text(t *assemblyai.Transcript) string {
	switch Classify(t) {
	case ShapeUtterances:
		return joinSpans(t.Utterances)
	case ShapeWords:
		return joinSpans(t.Words)
	case ShapeSentences:
		return joinSpans(t.Sentences)
	case ShapePlainText:
		return strings.TrimSpace(t.Text)
	default:
		return ""
	}
}

// fromSpans maps already-segmented spans 1:1, converting milliseconds
// to seconds.
func fromSpans(spans []assemblyai.Span) []Highlight {
	ret := make([]Highlight, 0, len(spans))
	for _, s := range spans {
		ret = append(ret, Highlight{
			Start: float64(s.Start) / 1000,
			End:   float64(s.End) / 1000,
			Text:  s.Text,
		})
	}
	return ret
}

// fromWords greedily accumulates consecutive words into chunks. A chunk
// closes once the span from its first word's start to the current
// word's end exceeds wordChunkSpanMS; the trailing chunk flushes at the
// end whatever its span.
func fromWords(words []assemblyai.Span) []Highlight {
	var ret []Highlight
	var chunk []assemblyai.Span
	chunkStart := int64(-1)

	for _, word := range words {
		if chunkStart < 0 {
			chunkStart = word.Start
		}
		chunk = append(chunk, word)
		if word.End-chunkStart > wordChunkSpanMS {
			ret = append(ret, Highlight{
				Start: float64(chunkStart) / 1000,
				End:   float64(word.End) / 1000,
				Text:  joinSpans(chunk),
			})
			chunk = nil
			chunkStart = -1
		}
	}
	if len(chunk) > 0 {
		ret = append(ret, Highlight{
			Start: float64(chunkStart) / 1000,
			End:   float64(chunk[len(chunk)-1].End) / 1000,
			Text:  joinSpans(chunk),
		})
	}
	return ret
}

func joinSpans(spans []assemblyai.Span) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}
