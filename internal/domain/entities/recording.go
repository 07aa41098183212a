package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordingStatus represents the processing state of a recording
type RecordingStatus string

const (
	RecordingStatusRecording    RecordingStatus = "RECORDING"
	RecordingStatusStopped      RecordingStatus = "STOPPED"
	RecordingStatusUploaded     RecordingStatus = "UPLOADED"
	RecordingStatusProcessing   RecordingStatus = "PROCESSING"
	RecordingStatusTranscribing RecordingStatus = "TRANSCRIBING"
	RecordingStatusDiarizing    RecordingStatus = "DIARIZING"
	RecordingStatusCompleted    RecordingStatus = "COMPLETED"
	RecordingStatusFailed       RecordingStatus = "FAILED"
)

// Language represents a supported consultation language
type Language string

const (
	LanguageEnglish     Language = "ENGLISH"
	LanguageFrench      Language = "FRENCH"
	LanguageSwahili     Language = "SWAHILI"
	LanguageKinyarwanda Language = "KINYARWANDA"
)

// IsValid reports whether the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish, LanguageFrench, LanguageSwahili, LanguageKinyarwanda:
		return true
	}
	return false
}

// SpeakerRole identifies who is speaking in a transcript segment
type SpeakerRole string

const (
	SpeakerPractitioner SpeakerRole = "practitioner"
	SpeakerPatient      SpeakerRole = "patient"
	SpeakerUnknown      SpeakerRole = "unknown"
)

// Segment is one transcribed utterance with timing and speaker attribution
type Segment struct {
	Text       string      `json:"text"`
	Speaker    SpeakerRole `json:"speaker"`
	StartTime  float64     `json:"start_time"`
	EndTime    float64     `json:"end_time"`
	Confidence *float64    `json:"confidence,omitempty"`
}

// SpeakerTurn is a provider-reported time interval attributed to one opaque
// speaker label. Used transiently during diarization mapping, never persisted.
type SpeakerTurn struct {
	SpeakerLabel string
	StartTime    float64
	EndTime      float64
}

// Recording represents one audio capture within a consultation session
type Recording struct {
	ID                    uuid.UUID                        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID             uuid.UUID                        `json:"session_id" gorm:"type:uuid;not null;index"`
	Language              Language                         `json:"language" gorm:"type:varchar(20);not null;default:'ENGLISH'"`
	Status                RecordingStatus                  `json:"status" gorm:"type:varchar(20);not null;default:'RECORDING';index"`
	FileName              *string                          `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	FilePath              *string                          `json:"file_path,omitempty" gorm:"type:text"`
	FileSizeBytes         *int64                           `json:"file_size_bytes,omitempty"`
	DurationSeconds       *float64                         `json:"duration_seconds,omitempty"`
	Transcript            *string                          `json:"transcript,omitempty" gorm:"type:text"`
	TranscriptSegments    []Segment                        `json:"transcript_segments,omitempty" gorm:"type:jsonb;serializer:json"`
	AdditionalData        datatypes.JSONMap                `json:"additional_data,omitempty" gorm:"type:jsonb"`
	ProcessingError       *string                          `json:"processing_error,omitempty" gorm:"type:text"`
	StartedAt             time.Time                        `json:"started_at" gorm:"not null;default:now()"`
	StoppedAt             *time.Time                       `json:"stopped_at,omitempty"`
	ProcessingStartedAt   *time.Time                       `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time                       `json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time                        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time                        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}

// NewRecording creates a recording in RECORDING state for a session
func NewRecording(sessionID uuid.UUID, language Language) *Recording {
	return &Recording{
		ID:        uuid.New(),
		SessionID: sessionID,
		Language:  language,
		Status:    RecordingStatusRecording,
		StartedAt: time.Now(),
	}
}

// validTransitions defines every allowed status transition.
// FAILED is reachable from UPLOADED onward; retry re-enters at PROCESSING.
var validTransitions = map[RecordingStatus][]RecordingStatus{
	RecordingStatusRecording:    {RecordingStatusStopped, RecordingStatusUploaded},
	RecordingStatusStopped:      {RecordingStatusUploaded},
	RecordingStatusUploaded:     {RecordingStatusProcessing, RecordingStatusFailed},
	RecordingStatusProcessing:   {RecordingStatusTranscribing, RecordingStatusFailed},
	RecordingStatusTranscribing: {RecordingStatusDiarizing, RecordingStatusCompleted, RecordingStatusFailed},
	RecordingStatusDiarizing:    {RecordingStatusCompleted, RecordingStatusFailed},
	RecordingStatusCompleted:    {},
	RecordingStatusFailed:       {RecordingStatusProcessing},
}

// CanTransition reports whether moving to the target status is allowed
func (r *Recording) CanTransition(target RecordingStatus) bool {
	for _, s := range validTransitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CanStop reports whether the recording can be stopped
func (r *Recording) CanStop() bool {
	return r.Status == RecordingStatusRecording
}

// CanUpload reports whether audio can be attached to the recording
func (r *Recording) CanUpload() bool {
	return r.Status == RecordingStatusRecording || r.Status == RecordingStatusStopped
}

// CanProcess reports whether background processing may (re-)enter
func (r *Recording) CanProcess() bool {
	return r.Status == RecordingStatusUploaded || r.Status == RecordingStatusFailed
}

// IsCompleted checks if recording processing finished successfully
func (r *Recording) IsCompleted() bool {
	return r.Status == RecordingStatusCompleted
}

// IsFailed checks if recording processing failed
func (r *Recording) IsFailed() bool {
	return r.Status == RecordingStatusFailed
}

// IsTerminal checks if the recording is in a terminal state
func (r *Recording) IsTerminal() bool {
	return r.Status == RecordingStatusCompleted || r.Status == RecordingStatusFailed
}

// MarkAsStopped marks the recording as stopped
func (r *Recording) MarkAsStopped() {
	r.Status = RecordingStatusStopped
	now := time.Now()
	r.StoppedAt = &now
}

// MarkAsUploaded records the uploaded file metadata
func (r *Recording) MarkAsUploaded(filePath, fileName string, sizeBytes int64) {
	r.Status = RecordingStatusUploaded
	r.FilePath = &filePath
	r.FileName = &fileName
	r.FileSizeBytes = &sizeBytes
}

// MarkAsProcessing marks recording as processing and clears prior failure state
func (r *Recording) MarkAsProcessing() {
	r.Status = RecordingStatusProcessing
	r.ProcessingError = nil
	now := time.Now()
	r.ProcessingStartedAt = &now
}

// MarkAsTranscribing marks recording as transcribing
func (r *Recording) MarkAsTranscribing() {
	r.Status = RecordingStatusTranscribing
}

// MarkAsDiarizing marks recording as diarizing
func (r *Recording) MarkAsDiarizing() {
	r.Status = RecordingStatusDiarizing
}

// MarkAsCompleted marks recording as completed
func (r *Recording) MarkAsCompleted() {
	r.Status = RecordingStatusCompleted
	r.ProcessingError = nil
	now := time.Now()
	r.ProcessingCompletedAt = &now
}

// MarkAsFailed marks recording as failed with a non-empty failure description
func (r *Recording) MarkAsFailed(errorMsg string) {
	if errorMsg == "" {
		errorMsg = "processing failed for an unknown reason"
	}
	r.Status = RecordingStatusFailed
	r.ProcessingError = &errorMsg
	now := time.Now()
	r.ProcessingCompletedAt = &now
}
