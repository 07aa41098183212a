package recording

// StartRecordingRequest represents the request to start a recording for a session
type StartRecordingRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Language  string `json:"language" validate:"required,oneof=ENGLISH FRENCH KINYARWANDA SWAHILI"`
}

// StopRecordingRequest represents the request to stop an active recording
type StopRecordingRequest struct {
	RecordingID string `json:"recording_id" validate:"required,uuid"`
}
