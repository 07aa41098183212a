package recording

import (
	"time"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

// SegmentResponse is one diarized slice of the transcript
type SegmentResponse struct {
	Text       string   `json:"text"`
	Speaker    string   `json:"speaker"`
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// RecordingResponse represents a recording in responses
type RecordingResponse struct {
	ID                    string                 `json:"id"`
	SessionID             string                 `json:"session_id"`
	Language              string                 `json:"language"`
	Status                string                 `json:"status"`
	FileName              *string                `json:"file_name,omitempty"`
	FileSizeBytes         *int64                 `json:"file_size_bytes,omitempty"`
	DurationSeconds       *float64               `json:"duration_seconds,omitempty"`
	Transcript            *string                `json:"transcript,omitempty"`
	TranscriptSegments    []SegmentResponse      `json:"transcript_segments,omitempty"`
	AdditionalData        map[string]interface{} `json:"additional_data,omitempty"`
	ProcessingError       *string                `json:"processing_error,omitempty"`
	StartedAt             time.Time              `json:"started_at"`
	StoppedAt             *time.Time             `json:"stopped_at,omitempty"`
	ProcessingStartedAt   *time.Time             `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time             `json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// ListRecordingsResponse contains all recordings for a session
type ListRecordingsResponse struct {
	Recordings []RecordingResponse `json:"recordings"`
	Total      int                 `json:"total"`
}

// UploadResponse is returned after an audio file is stored
type UploadResponse struct {
	Recording RecordingResponse `json:"recording"`
	Message   string            `json:"message"`
}

// TranscribeResponse acknowledges that processing was queued
type TranscribeResponse struct {
	RecordingID string `json:"recording_id"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// ToRecordingResponse converts a recording entity to its response shape
func ToRecordingResponse(r *entities.Recording) RecordingResponse {
	resp := RecordingResponse{
		ID:                    r.ID.String(),
		SessionID:             r.SessionID.String(),
		Language:              string(r.Language),
		Status:                string(r.Status),
		FileName:              r.FileName,
		FileSizeBytes:         r.FileSizeBytes,
		DurationSeconds:       r.DurationSeconds,
		Transcript:            r.Transcript,
		AdditionalData:        r.AdditionalData,
		ProcessingError:       r.ProcessingError,
		StartedAt:             r.StartedAt,
		StoppedAt:             r.StoppedAt,
		ProcessingStartedAt:   r.ProcessingStartedAt,
		ProcessingCompletedAt: r.ProcessingCompletedAt,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}

	for _, seg := range r.TranscriptSegments {
		resp.TranscriptSegments = append(resp.TranscriptSegments, SegmentResponse{
			Text:       seg.Text,
			Speaker:    string(seg.Speaker),
			StartTime:  seg.StartTime,
			EndTime:    seg.EndTime,
			Confidence: seg.Confidence,
		})
	}

	return resp
}

// ToListRecordingsResponse converts a slice of recordings
func ToListRecordingsResponse(recordings []*entities.Recording) ListRecordingsResponse {
	resp := ListRecordingsResponse{
		Recordings: make([]RecordingResponse, 0, len(recordings)),
		Total:      len(recordings),
	}
	for _, r := range recordings {
		resp.Recordings = append(resp.Recordings, ToRecordingResponse(r))
	}
	return resp
}
