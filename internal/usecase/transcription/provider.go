package transcription

import (
	"context"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

// Word is a single transcribed word with timing
type Word struct {
	Text       string
	Start      float64
	End        float64
	Confidence float64
	Speaker    string
}

// Utterance is a provider-native transcript chunk. SpeakerLabel is the
// provider's opaque label ("A", "B", ...) and may be empty when the provider
// does not diarize.
type Utterance struct {
	Text         string
	SpeakerLabel string
	Start        float64
	End          float64
	Confidence   float64
}

// Result is the raw output of one provider call
type Result struct {
	Text            string
	DurationSeconds float64
	Utterances      []Utterance
	Words           []Word
	Turns           []entities.SpeakerTurn

	// Diarized is true when utterance speaker labels bind directly to domain
	// roles ("A" practitioner, "B" patient) and no overlap mapping is needed.
	Diarized bool
}

// Provider transcribes stored audio in a given language
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audioURL string, language entities.Language) (*Result, error)
}
