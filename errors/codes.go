package errors

// ErrorCode identifies a failure class in API responses
type ErrorCode int

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_CONFLICT
	ErrorCode_INVALID_PAYLOAD
	ErrorCode_PAYLOAD_TOO_LARGE

	// Session errors
	ErrorCode_SESSION_NOT_FOUND
	ErrorCode_SESSION_NOT_ACTIVE
	ErrorCode_SESSION_ALREADY_RECORDING

	// Recording errors
	ErrorCode_RECORDING_NOT_FOUND
	ErrorCode_RECORDING_INVALID_STATE
	ErrorCode_RECORDING_UPLOAD_FAILED
	ErrorCode_RECORDING_UNSUPPORTED_FORMAT
	ErrorCode_RECORDING_FILE_TOO_LARGE
	ErrorCode_RECORDING_PROCESSING_FAILED
	ErrorCode_RECORDING_INVALID_LANGUAGE

	// Transcription provider errors
	ErrorCode_PROVIDER_FAILED
	ErrorCode_PROVIDER_UNAVAILABLE
	ErrorCode_TRANSLATION_FAILED

	// Integration errors
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED

	// Database errors
	ErrorCode_DB_CONNECTION_FAILED
	ErrorCode_DB_QUERY_FAILED

	ErrorCode_HTTP_OK
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                      "UNKNOWN",
	ErrorCode_INTERNAL:                     "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:             "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                    "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:               "ALREADY_EXISTS",
	ErrorCode_CONFLICT:                     "CONFLICT",
	ErrorCode_INVALID_PAYLOAD:              "INVALID_PAYLOAD",
	ErrorCode_PAYLOAD_TOO_LARGE:            "PAYLOAD_TOO_LARGE",
	ErrorCode_SESSION_NOT_FOUND:            "SESSION_NOT_FOUND",
	ErrorCode_SESSION_NOT_ACTIVE:           "SESSION_NOT_ACTIVE",
	ErrorCode_SESSION_ALREADY_RECORDING:    "SESSION_ALREADY_RECORDING",
	ErrorCode_RECORDING_NOT_FOUND:          "RECORDING_NOT_FOUND",
	ErrorCode_RECORDING_INVALID_STATE:      "RECORDING_INVALID_STATE",
	ErrorCode_RECORDING_UPLOAD_FAILED:      "RECORDING_UPLOAD_FAILED",
	ErrorCode_RECORDING_UNSUPPORTED_FORMAT: "RECORDING_UNSUPPORTED_FORMAT",
	ErrorCode_RECORDING_FILE_TOO_LARGE:     "RECORDING_FILE_TOO_LARGE",
	ErrorCode_RECORDING_PROCESSING_FAILED:  "RECORDING_PROCESSING_FAILED",
	ErrorCode_RECORDING_INVALID_LANGUAGE:   "RECORDING_INVALID_LANGUAGE",
	ErrorCode_PROVIDER_FAILED:              "PROVIDER_FAILED",
	ErrorCode_PROVIDER_UNAVAILABLE:         "PROVIDER_UNAVAILABLE",
	ErrorCode_TRANSLATION_FAILED:           "TRANSLATION_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:   "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:     "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:         "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:              "DB_QUERY_FAILED",
	ErrorCode_HTTP_OK:                      "OK",
}

// String returns the symbolic name of the error code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
