package transcription

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/metrics"
)

// Router selects transcription providers per language and applies the
// fallback policy: one fallback attempt at most, the last provider error
// is returned when every attempt fails.
type Router struct {
	routes  map[entities.Language][]Provider
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRouter creates a router with a per-provider-call timeout
func NewRouter(timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Router {
	return &Router{
		routes:  make(map[entities.Language][]Provider),
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Register sets the prioritized provider list for a language.
// The first provider is the primary attempt, the rest are fallbacks.
func (r *Router) Register(language entities.Language, providers ...Provider) {
	r.routes[language] = providers
}

// Providers returns the prioritized provider list for a language
func (r *Router) Providers(language entities.Language) []Provider {
	return r.routes[language]
}

// Transcribe runs the prioritized provider chain for the recording's
// language. Timeouts are treated the same as provider errors.
func (r *Router) Transcribe(ctx context.Context, audioURL string, language entities.Language) (*Result, string, error) {
	providers := r.routes[language]
	if len(providers) == 0 {
		return nil, "", fmt.Errorf("no transcription provider registered for language %s", language)
	}

	var lastErr error
	for i, provider := range providers {
		r.metrics.RecordProviderCall(provider.Name(), string(language))

		callCtx := ctx
		var cancel context.CancelFunc
		if r.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}

		started := time.Now()
		result, err := provider.Transcribe(callCtx, audioURL, language)
		if cancel != nil {
			cancel()
		}
		r.metrics.ObserveProviderDuration(provider.Name(), time.Since(started).Seconds())

		if err == nil {
			if i > 0 && r.logger != nil {
				r.logger.Info("✅ Fallback provider succeeded",
					zap.String("provider", provider.Name()),
					zap.String("language", string(language)),
				)
			}
			return result, provider.Name(), nil
		}

		lastErr = fmt.Errorf("provider %s: %w", provider.Name(), err)
		r.metrics.RecordProviderFailure(provider.Name(), string(language))
		if r.logger != nil {
			r.logger.Error("❌ Transcription provider failed",
				zap.String("provider", provider.Name()),
				zap.String("language", string(language)),
				zap.Bool("fallback_available", i < len(providers)-1),
				zap.Error(err),
			)
		}
	}

	return nil, "", lastErr
}
