package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

// PindoClient is a minimal client for the Pindo Kinyarwanda speech-to-text
// API. Pindo has no Go SDK; requests are multipart/form-data with an "audio"
// field and the response is plain JSON. No diarization, no timing data.
type PindoClient struct {
	apiURL string
	apiKey string
	client *http.Client
	logger *zap.Logger
}

// NewPindoClient creates a Pindo client using the provided config
func NewPindoClient(cfg *config.PindoConfig, logger *zap.Logger) *PindoClient {
	return &PindoClient{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 120 * time.Second},
		logger: logger,
	}
}

// Name returns the provider identifier
func (p *PindoClient) Name() string {
	return "pindo"
}

// pindoResponse is the minimal response shape
type pindoResponse struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Transcribe sends the stored audio to Pindo and returns text only. There
// is no fallback behind this provider; a failure here is terminal for the
// recording.
func (p *PindoClient) Transcribe(ctx context.Context, audioURL string, language entities.Language) (*transcription.Result, error) {
	if language != entities.LanguageKinyarwanda {
		return nil, fmt.Errorf("language %s not supported by pindo", language)
	}

	data, err := fetchAudio(ctx, p.client, audioURL)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", fileNameFromURL(audioURL))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write audio form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pindo request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pindo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pindo returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var pr pindoResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pindo response: %w", err)
	}
	if pr.Text == "" {
		return nil, fmt.Errorf("pindo returned empty transcript")
	}

	if p.logger != nil {
		p.logger.Info("✅ Pindo transcription completed",
			zap.Int("text_length", len(pr.Text)),
		)
	}

	return &transcription.Result{Text: pr.Text}, nil
}
