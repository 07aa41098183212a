package recording

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rmoh-git/kwik-med-emr-backend/errors"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/transcription"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

type fakeRecordingRepo struct {
	recordings map[uuid.UUID]*entities.Recording
}

func newFakeRecordingRepo() *fakeRecordingRepo {
	return &fakeRecordingRepo{recordings: make(map[uuid.UUID]*entities.Recording)}
}

func (r *fakeRecordingRepo) Create(ctx context.Context, rec *entities.Recording) error {
	cp := *rec
	r.recordings[rec.ID] = &cp
	return nil
}

func (r *fakeRecordingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	rec, ok := r.recordings[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRecordingRepo) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entities.Recording, error) {
	var out []*entities.Recording
	for _, rec := range r.recordings {
		if rec.SessionID == sessionID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRecordingRepo) FindActiveBySession(ctx context.Context, sessionID uuid.UUID) (*entities.Recording, error) {
	for _, rec := range r.recordings {
		if rec.SessionID == sessionID && rec.Status == entities.RecordingStatusRecording {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRecordingRepo) Update(ctx context.Context, rec *entities.Recording) error {
	cp := *rec
	r.recordings[rec.ID] = &cp
	return nil
}

func (r *fakeRecordingRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	rec, ok := r.recordings[id]
	if !ok {
		return false, nil
	}
	if rec.Status != entities.RecordingStatusUploaded && rec.Status != entities.RecordingStatusFailed {
		return false, nil
	}
	rec.MarkAsProcessing()
	return true, nil
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*entities.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entities.Session)}
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.sessions[id]
	return ok, nil
}

type fakeStore struct {
	uploads map[string]int64
	failURL bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string]int64)}
}

func (s *fakeStore) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	s.uploads[objectName] = size
	return nil
}

func (s *fakeStore) RemoveFile(ctx context.Context, objectName string) error {
	delete(s.uploads, objectName)
	return nil
}

func (s *fakeStore) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if s.failURL {
		return "", stdErrors.New("presign failed")
	}
	return "http://storage.local/" + objectName, nil
}

type fakeTranscriber struct {
	result *transcription.Result
	name   string
	err    error
	calls  int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string, language entities.Language) (*transcription.Result, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.result, f.name, nil
}

type fakeTranslator struct {
	out   string
	err   error
	calls int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeLocker struct{}

func (fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (fakeLocker) Release(ctx context.Context, key string) error { return nil }

type fixture struct {
	service       Service
	recordingRepo *fakeRecordingRepo
	sessionRepo   *fakeSessionRepo
	store         *fakeStore
	transcriber   *fakeTranscriber
	translator    *fakeTranslator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	recordingRepo := newFakeRecordingRepo()
	sessionRepo := newFakeSessionRepo()
	store := newFakeStore()
	transcriber := &fakeTranscriber{}
	translator := &fakeTranslator{}

	cfg := &config.TranscriptionConfig{
		MaxFileSize:       1024 * 1024,
		AllowedExtensions: []string{".mp3", ".wav", ".m4a"},
		EnableDiarization: true,
		ProviderTimeout:   time.Minute,
		Workers:           1,
	}

	svc := NewService(recordingRepo, sessionRepo, store, transcriber, translator, fakeLocker{}, nil, cfg, time.Hour, nil)

	return &fixture{
		service:       svc,
		recordingRepo: recordingRepo,
		sessionRepo:   sessionRepo,
		store:         store,
		transcriber:   transcriber,
		translator:    translator,
	}
}

func (f *fixture) addActiveSession() uuid.UUID {
	id := uuid.New()
	f.sessionRepo.sessions[id] = &entities.Session{ID: id, Status: entities.SessionStatusActive}
	return id
}

func (f *fixture) addUploadedRecording(sessionID uuid.UUID, language entities.Language) *entities.Recording {
	rec := entities.NewRecording(sessionID, language)
	rec.MarkAsUploaded("recordings/"+sessionID.String()+"/audio.mp3", "audio.mp3", 2048)
	f.recordingRepo.recordings[rec.ID] = rec
	return rec
}

func appErrCode(t *testing.T, err error) int {
	t.Helper()
	var appErr apperrors.AppError
	require.True(t, stdErrors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.HTTPCode
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()

	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)

	require.NoError(t, err)
	assert.Equal(t, entities.RecordingStatusRecording, rec.Status)
	assert.Equal(t, sessionID, rec.SessionID)
}

func TestStartInvalidLanguage(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()

	_, err := f.service.Start(context.Background(), sessionID, entities.Language("KLINGON"))

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
}

func TestStartSessionNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Start(context.Background(), uuid.New(), entities.LanguageEnglish)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrCode(t, err))
}

func TestStartSessionNotActive(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.sessionRepo.sessions[id] = &entities.Session{ID: id, Status: entities.SessionStatusCompleted}

	_, err := f.service.Start(context.Background(), id, entities.LanguageEnglish)

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrCode(t, err))
}

func TestStartSessionAlreadyRecording(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()

	_, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	_, err = f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrCode(t, err))
}

func TestStop(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	stopped, err := f.service.Stop(context.Background(), rec.ID)

	require.NoError(t, err)
	assert.Equal(t, entities.RecordingStatusStopped, stopped.Status)
	assert.NotNil(t, stopped.StoppedAt)
}

func TestStopInvalidState(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)

	_, err := f.service.Stop(context.Background(), rec.ID)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
}

func TestStopNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Stop(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrCode(t, err))
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	content := strings.NewReader("fake audio bytes")
	uploaded, err := f.service.Upload(context.Background(), rec.ID, content, 16, "consult.mp3")

	require.NoError(t, err)
	assert.Equal(t, entities.RecordingStatusUploaded, uploaded.Status)
	require.NotNil(t, uploaded.FilePath)
	assert.True(t, strings.HasPrefix(*uploaded.FilePath, "recordings/"+sessionID.String()+"/"))
	assert.True(t, strings.HasSuffix(*uploaded.FilePath, ".mp3"))
	assert.Len(t, f.store.uploads, 1)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	_, err = f.service.Upload(context.Background(), rec.ID, strings.NewReader("x"), 1, "notes.txt")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
	assert.Empty(t, f.store.uploads)
}

func TestUploadFileTooLarge(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	_, err = f.service.Upload(context.Background(), rec.ID, strings.NewReader("x"), 10*1024*1024, "big.mp3")

	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErrCode(t, err))
	assert.Empty(t, f.store.uploads)
}

func TestUploadInvalidState(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)

	_, err := f.service.Upload(context.Background(), rec.ID, strings.NewReader("x"), 1, "audio.mp3")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
}

func TestTranscribeRequiresClaimableState(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	_, err = f.service.Transcribe(context.Background(), rec.ID)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
}

func TestListBySessionUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ListBySession(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrCode(t, err))
}

func TestProcessDiarizedProvider(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)

	f.transcriber.name = "assemblyai"
	f.transcriber.result = &transcription.Result{
		Text:            "How are you? I am fine.",
		DurationSeconds: 5,
		Diarized:        true,
		Utterances: []transcription.Utterance{
			{Text: "How are you?", SpeakerLabel: "A", Start: 0, End: 2, Confidence: 0.92},
			{Text: "I am fine.", SpeakerLabel: "B", Start: 2, End: 4, Confidence: 0.88},
		},
	}

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, err := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)
	require.NotNil(t, stored.Transcript)
	assert.Equal(t, "How are you? I am fine.", *stored.Transcript)
	require.Len(t, stored.TranscriptSegments, 2)
	assert.Equal(t, entities.SpeakerPractitioner, stored.TranscriptSegments[0].Speaker)
	assert.Equal(t, entities.SpeakerPatient, stored.TranscriptSegments[1].Speaker)
	assert.Equal(t, "assemblyai", stored.AdditionalData["transcription_provider"])
	require.NotNil(t, stored.DurationSeconds)
	assert.Equal(t, 5.0, *stored.DurationSeconds)
	// English path never calls the translator
	assert.Equal(t, 0, f.translator.calls)
}

func TestProcessMapsTurnsWhenProviderNotDiarized(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageFrench)

	f.transcriber.name = "openai-whisper"
	f.transcriber.result = &transcription.Result{
		Text:            "Bonjour. Merci docteur.",
		DurationSeconds: 6,
		Diarized:        false,
		Utterances: []transcription.Utterance{
			{Text: "Bonjour.", Start: 0, End: 3},
			{Text: "Merci docteur.", Start: 3, End: 6},
		},
		Turns: []entities.SpeakerTurn{
			{SpeakerLabel: "S1", StartTime: 0, EndTime: 3},
			{SpeakerLabel: "S2", StartTime: 3, EndTime: 6},
		},
	}

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)
	require.Len(t, stored.TranscriptSegments, 2)
	assert.Equal(t, entities.SpeakerPractitioner, stored.TranscriptSegments[0].Speaker)
	assert.Equal(t, entities.SpeakerPatient, stored.TranscriptSegments[1].Speaker)
}

func TestProcessProviderFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)

	f.transcriber.err = stdErrors.New("provider assemblyai: quota exceeded")

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entities.RecordingStatusFailed, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.NotEmpty(t, *stored.ProcessingError)
	assert.Contains(t, *stored.ProcessingError, "quota exceeded")
}

func TestProcessUnclaimableIsNoOp(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := entities.NewRecording(sessionID, entities.LanguageEnglish)
	rec.MarkAsCompleted()
	f.recordingRepo.recordings[rec.ID] = rec

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)
	assert.Equal(t, 0, f.transcriber.calls)
}

func TestProcessRetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)

	f.transcriber.err = stdErrors.New("temporarily down")
	require.NoError(t, f.service.Process(context.Background(), rec.ID))

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.Equal(t, entities.RecordingStatusFailed, stored.Status)

	// Provider recovers; FAILED is claimable again
	f.transcriber.err = nil
	f.transcriber.name = "assemblyai"
	f.transcriber.result = &transcription.Result{Text: "all good", DurationSeconds: 3, Diarized: true}

	require.NoError(t, f.service.Process(context.Background(), rec.ID))

	stored, _ = f.recordingRepo.FindByID(context.Background(), rec.ID)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)
	assert.Nil(t, stored.ProcessingError)
}

func TestProcessKinyarwandaDualLanguage(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageKinyarwanda)

	original := "Muraho neza, mbwira uko umeze."
	f.transcriber.name = "pindo"
	f.transcriber.result = &transcription.Result{Text: original, DurationSeconds: 8}
	f.translator.out = "Hello, tell me how you are feeling."

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)

	require.NotNil(t, stored.Transcript)
	transcript := *stored.Transcript
	assert.Contains(t, transcript, "=== ENGLISH TRANSLATION ===")
	assert.Contains(t, transcript, "=== KINYARWANDA ORIGINAL ===")
	assert.Contains(t, transcript, f.translator.out)
	assert.Contains(t, transcript, original)
	// Translation comes first
	assert.Less(t,
		strings.Index(transcript, "=== ENGLISH TRANSLATION ==="),
		strings.Index(transcript, "=== KINYARWANDA ORIGINAL ==="),
	)

	assert.Equal(t, "KINYARWANDA", stored.AdditionalData["original_language"])
	assert.Equal(t, "ENGLISH", stored.AdditionalData["translated_language"])
	assert.Equal(t, original, stored.AdditionalData["original_text"])
	assert.Equal(t, f.translator.out, stored.AdditionalData["translated_text"])

	// Text-only provider yields a single full-span segment
	require.Len(t, stored.TranscriptSegments, 1)
	assert.Equal(t, entities.SpeakerUnknown, stored.TranscriptSegments[0].Speaker)
	assert.Equal(t, 0.0, stored.TranscriptSegments[0].StartTime)
	assert.Equal(t, 8.0, stored.TranscriptSegments[0].EndTime)
}

func TestProcessKinyarwandaTranslationFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageKinyarwanda)

	original := "Mfite umutwe umbabaza."
	f.transcriber.name = "pindo"
	f.transcriber.result = &transcription.Result{Text: original, DurationSeconds: 4}
	f.translator.err = stdErrors.New("model overloaded")

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)

	require.NotNil(t, stored.Transcript)
	assert.Contains(t, *stored.Transcript, "=== TRANSLATION UNAVAILABLE ===")
	assert.Contains(t, *stored.Transcript, original)

	assert.Equal(t, original, stored.AdditionalData["original_text"])
	assert.Equal(t, "model overloaded", stored.AdditionalData["translation_error"])
	_, hasTranslated := stored.AdditionalData["translated_text"]
	assert.False(t, hasTranslated)
}

func TestProcessMissingFileFails(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := entities.NewRecording(sessionID, entities.LanguageEnglish)
	rec.Status = entities.RecordingStatusUploaded
	f.recordingRepo.recordings[rec.ID] = rec

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	assert.Equal(t, entities.RecordingStatusFailed, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.NotEmpty(t, *stored.ProcessingError)
}

func TestProcessStorageURLFailureFails(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)
	f.store.failURL = true

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	assert.Equal(t, entities.RecordingStatusFailed, stored.Status)
	require.NotNil(t, stored.ProcessingError)
	assert.Contains(t, *stored.ProcessingError, "presign failed")
}

func TestWorkerPoolLifecycle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.StartWorkerPool(context.Background(), 2))
	assert.Error(t, f.service.StartWorkerPool(context.Background(), 2))
	require.NoError(t, f.service.StopWorkerPool())
	assert.Error(t, f.service.StopWorkerPool())
}

func TestWorkerPoolProcessesUpload(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec, err := f.service.Start(context.Background(), sessionID, entities.LanguageEnglish)
	require.NoError(t, err)

	f.transcriber.name = "assemblyai"
	f.transcriber.result = &transcription.Result{Text: "hello", DurationSeconds: 1, Diarized: true}

	require.NoError(t, f.service.StartWorkerPool(context.Background(), 1))
	defer f.service.StopWorkerPool()

	_, err = f.service.Upload(context.Background(), rec.ID, strings.NewReader("audio"), 5, "a.mp3")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
		return stored != nil && stored.Status == entities.RecordingStatusCompleted
	}, 5*time.Second, 20*time.Millisecond, "recording should complete in the background")
}

func TestProcessSegmentsSynthesizedFromWords(t *testing.T) {
	f := newFixture(t)
	sessionID := f.addActiveSession()
	rec := f.addUploadedRecording(sessionID, entities.LanguageEnglish)

	words := make([]transcription.Word, 60)
	for i := range words {
		words[i] = transcription.Word{
			Text:  fmt.Sprintf("w%d", i),
			Start: float64(i) * 0.1,
			End:   float64(i)*0.1 + 0.1,
		}
	}
	f.transcriber.name = "openai-whisper"
	f.transcriber.result = &transcription.Result{
		Text:            "long monologue",
		DurationSeconds: 6,
		Words:           words,
	}

	err := f.service.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, _ := f.recordingRepo.FindByID(context.Background(), rec.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entities.RecordingStatusCompleted, stored.Status)
	// 60 words split at the 50-word cap
	require.Len(t, stored.TranscriptSegments, 2)
	for _, s := range stored.TranscriptSegments {
		assert.Equal(t, entities.SpeakerUnknown, s.Speaker)
	}
}
