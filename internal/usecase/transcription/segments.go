package transcription

import (
	"strings"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

const (
	// maxSegmentSeconds bounds a synthesized segment's audio span
	maxSegmentSeconds = 10.0
	// maxSegmentWords bounds a synthesized segment's word count
	maxSegmentWords = 50
	// DefaultConfidence is assigned when the provider reports none
	DefaultConfidence = 0.9
)

// SynthesizeSegments groups consecutive words into segments when a provider
// returns no native segmentation. A segment closes after 10 seconds of
// elapsed audio or 50 words, whichever comes first. All synthesized segments
// carry the unknown speaker.
func SynthesizeSegments(words []Word) []entities.Segment {
	if len(words) == 0 {
		return nil
	}

	var segments []entities.Segment
	var texts []string
	segStart := words[0].Start
	segEnd := words[0].Start

	flush := func() {
		if len(texts) == 0 {
			return
		}
		conf := DefaultConfidence
		segments = append(segments, entities.Segment{
			Text:       strings.Join(texts, " "),
			Speaker:    entities.SpeakerUnknown,
			StartTime:  segStart,
			EndTime:    segEnd,
			Confidence: &conf,
		})
		texts = nil
	}

	for _, w := range words {
		if len(texts) > 0 && (len(texts) >= maxSegmentWords || w.End-segStart > maxSegmentSeconds) {
			flush()
			segStart = w.Start
		}
		texts = append(texts, w.Text)
		segEnd = w.End
	}
	flush()

	return segments
}

// UtterancesToSegments converts provider-native utterances to domain
// segments, mapping role-bound labels ("A" practitioner, "B" patient) and
// defaulting everything else to unknown.
func UtterancesToSegments(utterances []Utterance) []entities.Segment {
	segments := make([]entities.Segment, 0, len(utterances))
	for _, u := range utterances {
		conf := u.Confidence
		if conf == 0 {
			conf = DefaultConfidence
		}
		segments = append(segments, entities.Segment{
			Text:       u.Text,
			Speaker:    RoleForNativeLabel(u.SpeakerLabel),
			StartTime:  u.Start,
			EndTime:    u.End,
			Confidence: &conf,
		})
	}
	return segments
}

// RoleForNativeLabel maps a diarization-capable provider's native speaker
// label to a domain role
func RoleForNativeLabel(label string) entities.SpeakerRole {
	switch label {
	case "A":
		return entities.SpeakerPractitioner
	case "B":
		return entities.SpeakerPatient
	default:
		return entities.SpeakerUnknown
	}
}
