package recording

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/jobcontext"
)

const (
	processingLockTTL = 30 * time.Minute

	translationHeader  = "=== ENGLISH TRANSLATION ==="
	originalHeader     = "=== KINYARWANDA ORIGINAL ==="
	untranslatedHeader = "=== TRANSLATION UNAVAILABLE ==="
)

// Enqueue submits a recording for background processing. The caller never
// waits on the result; the recording's status is the only completion signal.
func (s *recordingService) Enqueue(recordingID uuid.UUID) {
	select {
	case s.jobs <- recordingID:
		s.metrics.SetProcessingJobs("queued", float64(len(s.jobs)))
	default:
		// Queue full. The recording stays in UPLOADED/FAILED and can be
		// re-driven via the transcribe endpoint.
		if s.logger != nil {
			s.logger.Warn("⚠️ Processing queue full, recording not enqueued",
				zap.String("recording_id", recordingID.String()),
			)
		}
	}
}

// StartWorkerPool starts background workers that drive uploaded recordings
// through the transcription pipeline
func (s *recordingService) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}

	s.isWorkerPoolRunning = true
	s.workerStopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🚀 Starting recording worker pool",
			zap.Int("worker_count", workerCount),
		)
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.processingWorker(ctx, i)
	}

	return nil
}

// StopWorkerPool gracefully stops all worker goroutines
func (s *recordingService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping recording worker pool...")
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Recording worker pool stopped")
	}

	return nil
}

// processingWorker consumes queued recordings and runs the pipeline under a
// per-recording lock so no two workers ever process the same recording
func (s *recordingService) processingWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	if s.logger != nil {
		s.logger.Info("👷 Processing worker started",
			zap.Int("worker_id", workerID),
		)
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Processing worker stopping",
					zap.Int("worker_id", workerID),
				)
			}
			return

		case recordingID := <-s.jobs:
			s.metrics.SetProcessingJobs("queued", float64(len(s.jobs)))
			s.runJob(parentCtx, workerID, recordingID)
		}
	}
}

// runJob executes one processing job with locking, panic recovery and retry
// of transient infrastructure errors
func (s *recordingService) runJob(parentCtx context.Context, workerID int, recordingID uuid.UUID) {
	lockKey := "recording:processing:" + recordingID.String()

	acquired, err := s.locker.Acquire(parentCtx, lockKey, processingLockTTL)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to acquire processing lock",
				zap.String("recording_id", recordingID.String()),
				zap.Error(err),
			)
		}
		return
	}
	if !acquired {
		if s.logger != nil {
			s.logger.Info("⏭️ Recording already being processed elsewhere",
				zap.String("recording_id", recordingID.String()),
			)
		}
		return
	}
	defer func() {
		if err := s.locker.Release(parentCtx, lockKey); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to release processing lock",
				zap.String("recording_id", recordingID.String()),
				zap.Error(err),
			)
		}
	}()

	jobCtx, cancel := jobcontext.JobBegin(parentCtx, recordingID, "recording_processing", workerID, 2*s.cfg.ProviderTimeout)
	defer cancel()

	err = jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		return s.Process(ctx, recordingID)
	})
	if err != nil {
		// Provider failures are captured into FAILED inside Process; an
		// error escaping here means infra trouble (db, storage) survived
		// all retries. Capture it too so the recording is never stuck.
		if s.logger != nil {
			s.logger.Error("❌ Processing job failed after retries",
				zap.String("recording_id", recordingID.String()),
				zap.Error(err),
			)
		}
		s.captureFailure(parentCtx, recordingID, err.Error())
	}
}

// Process drives one recording through the pipeline:
// PROCESSING → TRANSCRIBING → (DIARIZING) → COMPLETED, or FAILED with
// processing_error set. Every transition is persisted before the next step.
// Safe to re-invoke: the atomic claim makes a concurrent or repeated call a
// no-op unless the recording is in a claimable state.
func (s *recordingService) Process(ctx context.Context, recordingID uuid.UUID) error {
	claimed, err := s.recordingRepo.ClaimForProcessing(ctx, recordingID)
	if err != nil {
		return fmt.Errorf("failed to claim recording: %w", err)
	}
	if !claimed {
		if s.logger != nil {
			s.logger.Info("⏭️ Recording not claimable, skipping",
				zap.String("recording_id", recordingID.String()),
			)
		}
		return nil
	}
	s.metrics.RecordTransition(string(entities.RecordingStatusProcessing))

	rec, err := s.recordingRepo.FindByID(ctx, recordingID)
	if err != nil {
		return fmt.Errorf("failed to load recording: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("recording %s vanished after claim", recordingID)
	}

	if rec.FilePath == nil || *rec.FilePath == "" {
		s.failRecording(ctx, rec, "no audio file attached to recording")
		return nil
	}

	audioURL, err := s.store.GetFileURL(ctx, *rec.FilePath, s.presignExpiry)
	if err != nil {
		s.failRecording(ctx, rec, fmt.Sprintf("failed to resolve audio URL: %v", err))
		return nil
	}

	rec.MarkAsTranscribing()
	if err := s.recordingRepo.Update(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist TRANSCRIBING: %w", err)
	}
	s.metrics.RecordTransition(string(entities.RecordingStatusTranscribing))

	result, providerName, err := s.router.Transcribe(ctx, audioURL, rec.Language)
	if err != nil {
		s.failRecording(ctx, rec, fmt.Sprintf("transcription failed: %v", err))
		return nil
	}

	if s.logger != nil {
		s.logger.Info("🎙️ Transcription succeeded",
			zap.String("recording_id", rec.ID.String()),
			zap.String("provider", providerName),
			zap.Int("utterance_count", len(result.Utterances)),
		)
	}

	if result.DurationSeconds > 0 {
		d := result.DurationSeconds
		rec.DurationSeconds = &d
	}

	segments := s.baseSegments(result)

	// Diarization is best-effort: malformed or missing turn data degrades
	// segments to unknown, it never fails the pipeline.
	if s.cfg.EnableDiarization && len(segments) > 0 && (result.Diarized || len(result.Turns) > 0) {
		rec.MarkAsDiarizing()
		if err := s.recordingRepo.Update(ctx, rec); err != nil {
			return fmt.Errorf("failed to persist DIARIZING: %w", err)
		}
		s.metrics.RecordTransition(string(entities.RecordingStatusDiarizing))

		if !result.Diarized {
			mapper := NewSpeakerMapper(s.logger)
			segments = mapper.Map(segments, result.Turns)
		}
	}

	transcriptText := result.Text
	var additionalData map[string]interface{}

	if rec.Language == entities.LanguageKinyarwanda {
		transcriptText, additionalData = s.assembleDualLanguage(ctx, result.Text)
	}

	rec.Transcript = &transcriptText
	rec.TranscriptSegments = segments
	if additionalData == nil {
		additionalData = map[string]interface{}{}
	}
	additionalData["transcription_provider"] = providerName
	rec.AdditionalData = additionalData
	rec.MarkAsCompleted()
	if err := s.recordingRepo.Update(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist COMPLETED: %w", err)
	}
	s.metrics.RecordTransition(string(entities.RecordingStatusCompleted))

	if s.logger != nil {
		s.logger.Info("✅ Recording processing completed",
			zap.String("recording_id", rec.ID.String()),
			zap.String("provider", providerName),
			zap.Int("segment_count", len(segments)),
		)
	}

	return nil
}

// baseSegments converts the provider result into domain segments. Providers
// without native segmentation get word-level synthesis; text-only providers
// get a single segment spanning the whole recording.
func (s *recordingService) baseSegments(result *transcription.Result) []entities.Segment {
	if len(result.Utterances) > 0 {
		segments := transcription.UtterancesToSegments(result.Utterances)
		if !result.Diarized {
			// Raw labels mean nothing until the overlap mapper has run
			for i := range segments {
				segments[i].Speaker = entities.SpeakerUnknown
			}
		}
		return segments
	}

	if len(result.Words) > 0 {
		return transcription.SynthesizeSegments(result.Words)
	}

	if result.Text != "" {
		conf := transcription.DefaultConfidence
		return []entities.Segment{{
			Text:       result.Text,
			Speaker:    entities.SpeakerUnknown,
			StartTime:  0,
			EndTime:    result.DurationSeconds,
			Confidence: &conf,
		}}
	}

	return nil
}

// assembleDualLanguage translates Kinyarwanda text and builds the labeled
// translated-first transcript plus the structured dual-language payload.
// Translation failure is a degradation: the original text is kept behind an
// explicit marker and the recording still completes.
func (s *recordingService) assembleDualLanguage(ctx context.Context, originalText string) (string, map[string]interface{}) {
	translated, err := s.translator.Translate(ctx, originalText, "Kinyarwanda", "English")
	if err != nil {
		s.metrics.RecordTranslationFailure()
		if s.logger != nil {
			s.logger.Warn("⚠️ Translation failed, storing original text only",
				zap.Error(err),
			)
		}
		transcript := fmt.Sprintf("%s\n\n%s\n%s", untranslatedHeader, originalHeader, originalText)
		return transcript, map[string]interface{}{
			"original_language": string(entities.LanguageKinyarwanda),
			"original_text":     originalText,
			"translation_error": err.Error(),
		}
	}

	transcript := fmt.Sprintf("%s\n%s\n\n%s\n%s", translationHeader, translated, originalHeader, originalText)
	return transcript, map[string]interface{}{
		"original_language":   string(entities.LanguageKinyarwanda),
		"translated_language": string(entities.LanguageEnglish),
		"original_text":       originalText,
		"translated_text":     translated,
	}
}

// failRecording persists the FAILED state with a non-empty error description
func (s *recordingService) failRecording(ctx context.Context, rec *entities.Recording, msg string) {
	rec.MarkAsFailed(msg)
	if err := s.recordingRepo.Update(ctx, rec); err != nil && s.logger != nil {
		s.logger.Error("❌ Failed to persist FAILED state",
			zap.String("recording_id", rec.ID.String()),
			zap.Error(err),
		)
	}
	s.metrics.RecordTransition(string(entities.RecordingStatusFailed))
	if s.logger != nil {
		s.logger.Error("❌ Recording processing failed",
			zap.String("recording_id", rec.ID.String()),
			zap.String("processing_error", msg),
		)
	}
}

// captureFailure marks a recording FAILED by id, used when an error escapes
// the pipeline before a recording instance is in hand
func (s *recordingService) captureFailure(ctx context.Context, recordingID uuid.UUID, msg string) {
	rec, err := s.recordingRepo.FindByID(ctx, recordingID)
	if err != nil || rec == nil {
		return
	}
	if rec.IsTerminal() {
		return
	}
	s.failRecording(ctx, rec, msg)
}
