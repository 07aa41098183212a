package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

// WhisperClient is the fallback transcription provider. Whisper does not
// diarize, so its results go through segment synthesis and carry the
// unknown speaker.
type WhisperClient struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	logger     *zap.Logger
}

// NewWhisperClient creates an OpenAI Whisper provider
func NewWhisperClient(cfg *config.OpenAIConfig, logger *zap.Logger) *WhisperClient {
	return &WhisperClient{
		client:     openai.NewClient(cfg.APIKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		model:      cfg.WhisperModel,
		logger:     logger,
	}
}

// Name returns the provider identifier
func (c *WhisperClient) Name() string {
	return "openai-whisper"
}

// whisperLanguageCodes maps domain languages to Whisper language hints
var whisperLanguageCodes = map[entities.Language]string{
	entities.LanguageEnglish: "en",
	entities.LanguageFrench:  "fr",
	entities.LanguageSwahili: "sw",
}

// Transcribe downloads the stored audio and transcribes it with Whisper
// in verbose_json format to recover segment and word timings.
func (c *WhisperClient) Transcribe(ctx context.Context, audioURL string, language entities.Language) (*transcription.Result, error) {
	code, ok := whisperLanguageCodes[language]
	if !ok {
		return nil, fmt.Errorf("language %s not supported by whisper", language)
	}

	data, err := fetchAudio(ctx, c.httpClient, audioURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		Reader:   audioReader(data),
		FilePath: fileNameFromURL(audioURL),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: code,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	result := &transcription.Result{
		Text:            resp.Text,
		DurationSeconds: resp.Duration,
	}

	for _, seg := range resp.Segments {
		result.Utterances = append(result.Utterances, transcription.Utterance{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
		})
	}
	for _, w := range resp.Words {
		result.Words = append(result.Words, transcription.Word{
			Text:  w.Word,
			Start: w.Start,
			End:   w.End,
		})
	}

	if c.logger != nil {
		c.logger.Info("✅ Whisper transcription completed",
			zap.Int("segment_count", len(result.Utterances)),
			zap.Float64("duration_seconds", result.DurationSeconds),
		)
	}

	return result, nil
}

// fileNameFromURL extracts the object file name from a presigned URL so the
// API can infer the audio container format
func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "audio.mp3"
	}
	name := path.Base(u.Path)
	if path.Ext(name) == "" {
		return "audio.mp3"
	}
	return name
}
