package assemblyai

// TranscriptStatus is the provider-reported lifecycle state of a
// transcription job.
type TranscriptStatus string

const (
	StatusQueued     TranscriptStatus = "queued"
	StatusProcessing TranscriptStatus = "processing"
	StatusCompleted  TranscriptStatus = "completed"
	StatusError      TranscriptStatus = "error"
)

// Terminal reports whether no further status transition can occur.
func (s TranscriptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Span is one timed transcript element. The provider reports utterances,
// words, and sentences with the same shape; timestamps are milliseconds.
type Span struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

// Transcript is the raw transcription payload. Depending on the audio
// and the provider's processing path, any combination of the utterance,
// word, and sentence lists may be present; Text may be the only field
// populated.
type Transcript struct {
	ID              string           `json:"id"`
	Status          TranscriptStatus `json:"status"`
	PercentComplete int              `json:"percent_complete,omitempty"`
	Utterances      []Span           `json:"utterances,omitempty"`
	Words           []Span           `json:"words,omitempty"`
	Sentences       []Span           `json:"sentences,omitempty"`
	Text            string           `json:"text,omitempty"`
	AudioURL        string           `json:"audio_url,omitempty"`
	Error           string           `json:"error,omitempty"`
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL          string `json:"audio_url"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
	EntityDetection   bool   `json:"entity_detection"`
	Summarization     bool   `json:"summarization"`
}
