package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

// Translator converts low-resource-language transcripts into a reference
// language using a chat completion model
type Translator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewTranslator creates a translator backed by OpenAI chat completions
func NewTranslator(cfg *config.OpenAIConfig, logger *zap.Logger) *Translator {
	return &Translator{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.TranslationModel,
		logger: logger,
	}
}

// Translate translates text from sourceLanguage to targetLanguage.
// Language names are human-readable ("Kinyarwanda", "English").
func (t *Translator) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You are a medical translator. Translate the following consultation transcript from %s to %s. Preserve medical terminology faithfully. Return only the translated text.",
					sourceLanguage, targetLanguage,
				),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation returned no choices")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("translation returned empty text")
	}

	if t.logger != nil {
		t.logger.Info("✅ Transcript translated",
			zap.String("source", sourceLanguage),
			zap.String("target", targetLanguage),
			zap.Int("original_length", len(text)),
			zap.Int("translated_length", len(translated)),
		)
	}

	return translated, nil
}
