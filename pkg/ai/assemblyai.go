package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

// AssemblyAIClient is the diarization-capable primary transcription provider
type AssemblyAIClient struct {
	client           *aai.Client
	httpClient       *http.Client
	speakersExpected int
	logger           *zap.Logger
}

// NewAssemblyAIClient creates an AssemblyAI provider using the official SDK
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig, logger *zap.Logger) *AssemblyAIClient {
	return &AssemblyAIClient{
		client:           aai.NewClient(cfg.APIKey),
		httpClient:       &http.Client{Timeout: 60 * time.Second},
		speakersExpected: cfg.SpeakersExpected,
		logger:           logger,
	}
}

// Name returns the provider identifier
func (c *AssemblyAIClient) Name() string {
	return "assemblyai"
}

// assemblyLanguageCodes maps domain languages to AssemblyAI language codes
var assemblyLanguageCodes = map[entities.Language]string{
	entities.LanguageEnglish: "en",
	entities.LanguageFrench:  "fr",
	entities.LanguageSwahili: "sw",
}

// Transcribe uploads the stored audio to AssemblyAI and waits for the
// diarized transcript. Utterance labels ("A", "B", ...) bind directly to
// domain roles, so the result is marked Diarized.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioURL string, language entities.Language) (*transcription.Result, error) {
	code, ok := assemblyLanguageCodes[language]
	if !ok {
		return nil, fmt.Errorf("language %s not supported by assemblyai", language)
	}

	data, err := fetchAudio(ctx, c.httpClient, audioURL)
	if err != nil {
		return nil, err
	}

	uploadURL, err := c.client.Upload(ctx, audioReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload to assemblyai: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("📤 Audio uploaded to AssemblyAI",
			zap.String("language", code),
			zap.Int("size_bytes", len(data)),
		)
	}

	speakersExpected := int64(c.speakersExpected)
	params := &aai.TranscriptOptionalParams{
		LanguageCode:     aai.TranscriptLanguageCode(code),
		SpeakerLabels:    aai.Bool(true),
		SpeakersExpected: &speakersExpected,
	}

	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		errMsg := "assemblyai transcription failed"
		if transcript.Error != nil {
			errMsg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai: %s", errMsg)
	}

	result := &transcription.Result{Diarized: true}
	if transcript.Text != nil {
		result.Text = *transcript.Text
	}
	if transcript.AudioDuration != nil {
		result.DurationSeconds = *transcript.AudioDuration
	}

	for _, utt := range transcript.Utterances {
		u := transcription.Utterance{}
		if utt.Text != nil {
			u.Text = *utt.Text
		}
		if utt.Speaker != nil {
			u.SpeakerLabel = *utt.Speaker
		}
		if utt.Start != nil {
			u.Start = float64(*utt.Start) / 1000.0 // ms to seconds
		}
		if utt.End != nil {
			u.End = float64(*utt.End) / 1000.0
		}
		if utt.Confidence != nil {
			u.Confidence = *utt.Confidence
		}
		result.Utterances = append(result.Utterances, u)
		result.Turns = append(result.Turns, entities.SpeakerTurn{
			SpeakerLabel: u.SpeakerLabel,
			StartTime:    u.Start,
			EndTime:      u.End,
		})
	}

	for _, w := range transcript.Words {
		word := transcription.Word{}
		if w.Text != nil {
			word.Text = *w.Text
		}
		if w.Start != nil {
			word.Start = float64(*w.Start) / 1000.0
		}
		if w.End != nil {
			word.End = float64(*w.End) / 1000.0
		}
		if w.Confidence != nil {
			word.Confidence = *w.Confidence
		}
		if w.Speaker != nil {
			word.Speaker = *w.Speaker
		}
		result.Words = append(result.Words, word)
	}

	if c.logger != nil {
		c.logger.Info("✅ AssemblyAI transcription completed",
			zap.Int("utterance_count", len(result.Utterances)),
			zap.Int("word_count", len(result.Words)),
			zap.Float64("duration_seconds", result.DurationSeconds),
		)
	}

	return result, nil
}
