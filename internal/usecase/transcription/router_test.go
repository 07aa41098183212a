package transcription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

type fakeProvider struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Transcribe(ctx context.Context, audioURL string, language entities.Language) (*Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestRouterPrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "primary", result: &Result{Text: "hello"}}
	fallback := &fakeProvider{name: "fallback", result: &Result{Text: "unused"}}

	router := NewRouter(time.Minute, nil, nil)
	router.Register(entities.LanguageEnglish, primary, fallback)

	result, provider, err := router.Transcribe(context.Background(), "http://audio", entities.LanguageEnglish)

	require.NoError(t, err)
	assert.Equal(t, "primary", provider)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestRouterFallbackAttempted(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("quota exceeded")}
	fallback := &fakeProvider{name: "fallback", result: &Result{Text: "rescued"}}

	router := NewRouter(time.Minute, nil, nil)
	router.Register(entities.LanguageEnglish, primary, fallback)

	result, provider, err := router.Transcribe(context.Background(), "http://audio", entities.LanguageEnglish)

	require.NoError(t, err)
	assert.Equal(t, "fallback", provider)
	assert.Equal(t, "rescued", result.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestRouterAllProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	fallback := &fakeProvider{name: "fallback", err: errors.New("also boom")}

	router := NewRouter(time.Minute, nil, nil)
	router.Register(entities.LanguageFrench, primary, fallback)

	result, provider, err := router.Transcribe(context.Background(), "http://audio", entities.LanguageFrench)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, provider)
	// The last provider's error surfaces
	assert.Contains(t, err.Error(), "fallback")
	assert.Contains(t, err.Error(), "also boom")
}

func TestRouterSingleProviderNoFallback(t *testing.T) {
	pindo := &fakeProvider{name: "pindo", err: errors.New("service down")}

	router := NewRouter(time.Minute, nil, nil)
	router.Register(entities.LanguageKinyarwanda, pindo)

	_, _, err := router.Transcribe(context.Background(), "http://audio", entities.LanguageKinyarwanda)

	require.Error(t, err)
	assert.Equal(t, 1, pindo.calls)
}

func TestRouterUnregisteredLanguage(t *testing.T) {
	router := NewRouter(time.Minute, nil, nil)

	_, _, err := router.Transcribe(context.Background(), "http://audio", entities.LanguageSwahili)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transcription provider registered")
}
