package recording

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/errors"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/repositories"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/metrics"
)

// Service owns the Recording lifecycle: synchronous start/stop/upload and
// the background transcription pipeline. All Recording mutation is funneled
// through this service; it is the single writer.
type Service interface {
	Start(ctx context.Context, sessionID uuid.UUID, language entities.Language) (*entities.Recording, error)
	Stop(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error)
	Upload(ctx context.Context, recordingID uuid.UUID, content io.Reader, size int64, filename string) (*entities.Recording, error)
	Transcribe(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error)
	Get(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entities.Recording, error)

	Process(ctx context.Context, recordingID uuid.UUID) error
	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

// AudioStore persists raw audio bytes under collision-resistant names and
// hands out provider-downloadable URLs
type AudioStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	RemoveFile(ctx context.Context, objectName string) error
}

// Transcriber routes a transcription request to the provider chain for the
// recording's language
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string, language entities.Language) (*transcription.Result, string, error)
}

// Translator converts low-resource-language text into the reference language
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// ProcessLocker serializes background processing per recording
type ProcessLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type recordingService struct {
	recordingRepo repositories.RecordingRepository
	sessionRepo   repositories.SessionRepository
	store         AudioStore
	router        Transcriber
	translator    Translator
	locker        ProcessLocker
	metrics       *metrics.Metrics
	cfg           *config.TranscriptionConfig
	presignExpiry time.Duration
	logger        *zap.Logger

	jobs                chan uuid.UUID
	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewService constructs the recording lifecycle service
func NewService(
	recordingRepo repositories.RecordingRepository,
	sessionRepo repositories.SessionRepository,
	store AudioStore,
	router Transcriber,
	translator Translator,
	locker ProcessLocker,
	m *metrics.Metrics,
	cfg *config.TranscriptionConfig,
	presignExpiry time.Duration,
	logger *zap.Logger,
) Service {
	return &recordingService{
		recordingRepo: recordingRepo,
		sessionRepo:   sessionRepo,
		store:         store,
		router:        router,
		translator:    translator,
		locker:        locker,
		metrics:       m,
		cfg:           cfg,
		presignExpiry: presignExpiry,
		logger:        logger,
		jobs:          make(chan uuid.UUID, 64),
	}
}

// Start creates a recording in RECORDING state for an active session.
// A session may have at most one recording in RECORDING state.
func (s *recordingService) Start(ctx context.Context, sessionID uuid.UUID, language entities.Language) (*entities.Recording, error) {
	if !language.IsValid() {
		return nil, errors.ErrInvalidLanguage(string(language))
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}
	if session == nil {
		return nil, errors.ErrSessionNotFound(sessionID.String())
	}
	if !session.IsActive() {
		return nil, errors.ErrSessionNotActive(sessionID.String(), string(session.Status))
	}

	active, err := s.recordingRepo.FindActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}
	if active != nil {
		return nil, errors.ErrSessionAlreadyRecording(sessionID.String())
	}

	rec := entities.NewRecording(sessionID, language)
	if err := s.recordingRepo.Create(ctx, rec); err != nil {
		return nil, errors.ErrInternal(err)
	}

	s.metrics.RecordTransition(string(entities.RecordingStatusRecording))
	if s.logger != nil {
		s.logger.Info("🎙️ Recording started",
			zap.String("recording_id", rec.ID.String()),
			zap.String("session_id", sessionID.String()),
			zap.String("language", string(language)),
		)
	}

	return rec, nil
}

// Stop moves a RECORDING recording to STOPPED
func (s *recordingService) Stop(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error) {
	rec, err := s.findRecording(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if !rec.CanStop() {
		return nil, errors.ErrRecordingInvalidState(recordingID.String(), string(rec.Status), string(entities.RecordingStatusRecording))
	}

	rec.MarkAsStopped()
	if err := s.recordingRepo.Update(ctx, rec); err != nil {
		return nil, errors.ErrInternal(err)
	}

	s.metrics.RecordTransition(string(entities.RecordingStatusStopped))
	if s.logger != nil {
		s.logger.Info("⏹️ Recording stopped",
			zap.String("recording_id", rec.ID.String()),
		)
	}

	return rec, nil
}

// Upload validates and persists the captured audio, moves the recording to
// UPLOADED and enqueues background processing
func (s *recordingService) Upload(ctx context.Context, recordingID uuid.UUID, content io.Reader, size int64, filename string) (*entities.Recording, error) {
	rec, err := s.findRecording(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if !rec.CanUpload() {
		return nil, errors.ErrRecordingInvalidState(recordingID.String(), string(rec.Status), "RECORDING or STOPPED")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.isExtensionAllowed(ext) {
		return nil, errors.ErrUnsupportedAudioFormat(ext, strings.Join(s.cfg.AllowedExtensions, ","))
	}
	if size > s.cfg.MaxFileSize {
		return nil, errors.ErrFileTooLarge(size, s.cfg.MaxFileSize)
	}

	// uuid suffix keeps concurrent uploads for different recordings from colliding
	objectName := fmt.Sprintf("recordings/%s/%s%s", rec.SessionID, uuid.New(), ext)
	if err := s.store.UploadFile(ctx, objectName, content, size, contentTypeForExt(ext)); err != nil {
		return nil, errors.ErrRecordingUploadFailed(recordingID.String(), err)
	}

	rec.MarkAsUploaded(objectName, filename, size)
	if err := s.recordingRepo.Update(ctx, rec); err != nil {
		// best effort: do not leave an orphaned object behind a failed transition
		if removeErr := s.store.RemoveFile(ctx, objectName); removeErr != nil && s.logger != nil {
			s.logger.Warn("Failed to remove orphaned audio object",
				zap.String("object_name", objectName),
				zap.Error(removeErr),
			)
		}
		return nil, errors.ErrInternal(err)
	}

	s.metrics.RecordTransition(string(entities.RecordingStatusUploaded))
	if s.logger != nil {
		s.logger.Info("📦 Audio uploaded",
			zap.String("recording_id", rec.ID.String()),
			zap.String("object_name", objectName),
			zap.Int64("size_bytes", size),
		)
	}

	s.Enqueue(rec.ID)
	return rec, nil
}

// Transcribe re-initiates background processing for a recording whose audio
// is already stored (manual retry after a failure, or re-drive after a crash)
func (s *recordingService) Transcribe(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error) {
	rec, err := s.findRecording(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if !rec.CanProcess() {
		return nil, errors.ErrRecordingInvalidState(recordingID.String(), string(rec.Status), "UPLOADED or FAILED")
	}
	if rec.FilePath == nil {
		return nil, errors.ErrInvalidArgument("recording has no uploaded audio")
	}

	s.Enqueue(rec.ID)
	if s.logger != nil {
		s.logger.Info("🔁 Reprocessing requested",
			zap.String("recording_id", rec.ID.String()),
		)
	}
	return rec, nil
}

// Get returns a recording with its transcript and segments
func (s *recordingService) Get(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error) {
	return s.findRecording(ctx, recordingID)
}

// ListBySession returns all recordings for a session ordered by start time
func (s *recordingService) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entities.Recording, error) {
	exists, err := s.sessionRepo.Exists(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}
	if !exists {
		return nil, errors.ErrSessionNotFound(sessionID.String())
	}

	recordings, err := s.recordingRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}
	return recordings, nil
}

func (s *recordingService) findRecording(ctx context.Context, recordingID uuid.UUID) (*entities.Recording, error) {
	rec, err := s.recordingRepo.FindByID(ctx, recordingID)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}
	if rec == nil {
		return nil, errors.ErrRecordingNotFound(recordingID.String())
	}
	return rec, nil
}

func (s *recordingService) isExtensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

func contentTypeForExt(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
