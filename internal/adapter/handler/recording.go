package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/errors"
	dto "github.com/rmoh-git/kwik-med-emr-backend/internal/adapter/dto/recording"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/usecase/recording"
)

// Recording handles recording lifecycle HTTP requests
type Recording struct {
	service recording.Service
	logger  *zap.Logger
}

// NewRecordingHandler creates a new recording handler
func NewRecordingHandler(service recording.Service, logger *zap.Logger) *Recording {
	return &Recording{
		service: service,
		logger:  logger,
	}
}

// Start godoc
// @Summary      Start a recording
// @Description  Creates a recording in RECORDING state for an active consultation session
// @Tags         Recordings
// @Accept       json
// @Produce      json
// @Param        request  body      dto.StartRecordingRequest  true  "Session and language"
// @Success      201      {object}  dto.RecordingResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid payload or unsupported language"
// @Failure      404      {object}  map[string]interface{}  "Session not found"
// @Failure      409      {object}  map[string]interface{}  "Session not active or already recording"
// @Router       /recordings/start [post]
func (h *Recording) Start(c echo.Context) error {
	var req dto.StartRecordingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("session_id must be a valid UUID"))
	}

	rec, err := h.service.Start(c.Request().Context(), sessionID, entities.Language(req.Language))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return c.JSON(http.StatusCreated, dto.ToRecordingResponse(rec))
}

// Stop godoc
// @Summary      Stop a recording
// @Description  Moves an active recording from RECORDING to STOPPED
// @Tags         Recordings
// @Accept       json
// @Produce      json
// @Param        request  body      dto.StopRecordingRequest  true  "Recording to stop"
// @Success      200      {object}  dto.RecordingResponse
// @Failure      400      {object}  map[string]interface{}  "Recording is not in RECORDING state"
// @Failure      404      {object}  map[string]interface{}  "Recording not found"
// @Router       /recordings/stop [post]
func (h *Recording) Stop(c echo.Context) error {
	var req dto.StopRecordingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}

	recordingID, err := uuid.Parse(req.RecordingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("recording_id must be a valid UUID"))
	}

	rec, err := h.service.Stop(c.Request().Context(), recordingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.ToRecordingResponse(rec))
}

// Upload godoc
// @Summary      Upload recording audio
// @Description  Stores the audio file for a recording and queues background transcription
// @Tags         Recordings
// @Accept       multipart/form-data
// @Produce      json
// @Param        id          path      string  true  "Recording ID (UUID)"
// @Param        audio_file  formData  file    true  "Audio file (mp3, wav, m4a, webm, ogg, flac)"
// @Success      200  {object}  dto.UploadResponse
// @Failure      400  {object}  map[string]interface{}  "Invalid state or unsupported format"
// @Failure      404  {object}  map[string]interface{}  "Recording not found"
// @Failure      413  {object}  map[string]interface{}  "File exceeds size limit"
// @Router       /recordings/{id}/upload [post]
func (h *Recording) Upload(c echo.Context) error {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("recording id must be a valid UUID"))
	}

	fileHeader, err := c.FormFile("audio_file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("audio_file is required"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}
	defer src.Close()

	rec, err := h.service.Upload(c.Request().Context(), recordingID, src, fileHeader.Size, fileHeader.Filename)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.UploadResponse{
		Recording: dto.ToRecordingResponse(rec),
		Message:   "audio uploaded, transcription queued",
	})
}

// Transcribe godoc
// @Summary      Queue transcription
// @Description  Queues background processing for an uploaded or failed recording
// @Tags         Recordings
// @Produce      json
// @Param        id  path  string  true  "Recording ID (UUID)"
// @Success      202  {object}  dto.TranscribeResponse
// @Failure      400  {object}  map[string]interface{}  "Recording has no audio or is in the wrong state"
// @Failure      404  {object}  map[string]interface{}  "Recording not found"
// @Router       /recordings/{id}/transcribe [post]
func (h *Recording) Transcribe(c echo.Context) error {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("recording id must be a valid UUID"))
	}

	rec, err := h.service.Transcribe(c.Request().Context(), recordingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return c.JSON(http.StatusAccepted, dto.TranscribeResponse{
		RecordingID: rec.ID.String(),
		Status:      string(rec.Status),
		Message:     "transcription queued",
	})
}

// Get godoc
// @Summary      Get a recording
// @Description  Returns a recording with its transcript and segments when available
// @Tags         Recordings
// @Produce      json
// @Param        id  path  string  true  "Recording ID (UUID)"
// @Success      200  {object}  dto.RecordingResponse
// @Failure      404  {object}  map[string]interface{}  "Recording not found"
// @Router       /recordings/{id} [get]
func (h *Recording) Get(c echo.Context) error {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("recording id must be a valid UUID"))
	}

	rec, err := h.service.Get(c.Request().Context(), recordingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.ToRecordingResponse(rec))
}

// ListBySession godoc
// @Summary      List session recordings
// @Description  Returns all recordings for a consultation session, newest first
// @Tags         Recordings
// @Produce      json
// @Param        session_id  path  string  true  "Session ID (UUID)"
// @Success      200  {object}  dto.ListRecordingsResponse
// @Failure      404  {object}  map[string]interface{}  "Session not found"
// @Router       /recordings/session/{session_id} [get]
func (h *Recording) ListBySession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("session id must be a valid UUID"))
	}

	recordings, err := h.service.ListBySession(c.Request().Context(), sessionID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.ToListRecordingsResponse(recordings))
}
