package transcription

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

func TestSynthesizeSegmentsEmpty(t *testing.T) {
	assert.Nil(t, SynthesizeSegments(nil))
	assert.Nil(t, SynthesizeSegments([]Word{}))
}

func TestSynthesizeSegmentsWordBoundary(t *testing.T) {
	// 120 words packed into 6 seconds: only the 50-word cap can split
	words := make([]Word, 120)
	for i := range words {
		words[i] = Word{
			Text:  fmt.Sprintf("w%d", i),
			Start: float64(i) * 0.05,
			End:   float64(i)*0.05 + 0.05,
		}
	}

	segments := SynthesizeSegments(words)

	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.Equal(t, entities.SpeakerUnknown, seg.Speaker)
		require.NotNil(t, seg.Confidence)
		assert.Equal(t, DefaultConfidence, *seg.Confidence)
	}
	// 50 + 50 + 20
	assert.Contains(t, segments[0].Text, "w0")
	assert.Contains(t, segments[0].Text, "w49")
	assert.Contains(t, segments[1].Text, "w50")
	assert.Contains(t, segments[2].Text, "w119")
}

func TestSynthesizeSegmentsTimeBoundary(t *testing.T) {
	// 12 words, one per 3 seconds: the 10-second cap splits before the word cap
	words := make([]Word, 12)
	for i := range words {
		words[i] = Word{
			Text:  fmt.Sprintf("w%d", i),
			Start: float64(i) * 3,
			End:   float64(i)*3 + 1,
		}
	}

	segments := SynthesizeSegments(words)

	require.Greater(t, len(segments), 1)
	for _, seg := range segments {
		assert.LessOrEqual(t, seg.EndTime-seg.StartTime, 10.0+3.0,
			"segment span must stay near the cap")
	}
	// Timing must be contiguous and ordered
	for i := 1; i < len(segments); i++ {
		assert.GreaterOrEqual(t, segments[i].StartTime, segments[i-1].EndTime-1)
	}
}

func TestUtterancesToSegments(t *testing.T) {
	utterances := []Utterance{
		{Text: "How are you feeling today?", SpeakerLabel: "A", Start: 0, End: 2.5, Confidence: 0.95},
		{Text: "I have a headache.", SpeakerLabel: "B", Start: 2.5, End: 4.0, Confidence: 0.87},
		{Text: "Hmm.", SpeakerLabel: "C", Start: 4.0, End: 4.5},
	}

	segments := UtterancesToSegments(utterances)

	require.Len(t, segments, 3)
	assert.Equal(t, entities.SpeakerPractitioner, segments[0].Speaker)
	assert.Equal(t, entities.SpeakerPatient, segments[1].Speaker)
	assert.Equal(t, entities.SpeakerUnknown, segments[2].Speaker)

	require.NotNil(t, segments[0].Confidence)
	assert.Equal(t, 0.95, *segments[0].Confidence)
	// Missing confidence falls back to the default
	require.NotNil(t, segments[2].Confidence)
	assert.Equal(t, DefaultConfidence, *segments[2].Confidence)
}

func TestRoleForNativeLabel(t *testing.T) {
	assert.Equal(t, entities.SpeakerPractitioner, RoleForNativeLabel("A"))
	assert.Equal(t, entities.SpeakerPatient, RoleForNativeLabel("B"))
	assert.Equal(t, entities.SpeakerUnknown, RoleForNativeLabel("C"))
	assert.Equal(t, entities.SpeakerUnknown, RoleForNativeLabel(""))
}
