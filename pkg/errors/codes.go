package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_011"
	ErrCodeUnknown            ErrorCode = "COMMON_999"
	ErrCodeOK                 ErrorCode = "OK"
)

// Patent module error codes
const (
	ErrCodePatentNotFound      ErrorCode = "PAT_001"
	ErrCodePatentAlreadyExists ErrorCode = "PAT_002"
	ErrCodePatentInvalid       ErrorCode = "PAT_003"
	ErrCodePatentParseFailed   ErrorCode = "PAT_004"
	ErrCodeImportFailed        ErrorCode = "PAT_005"
)

// Annotation / extraction module error codes
const (
	ErrCodeAnnotationFailed       ErrorCode = "ANN_001"
	ErrCodeAnnotatorUnavailable   ErrorCode = "ANN_002"
	ErrCodeAnnotatorBadResponse   ErrorCode = "ANN_003"
	ErrCodeExtractionFailed       ErrorCode = "ANN_004"
	ErrCodeExtractionInputInvalid ErrorCode = "ANN_005"
)

// Knowledge-graph / LLM module error codes
const (
	ErrCodeGraphWriteFailed    ErrorCode = "KG_001"
	ErrCodeGraphQueryFailed    ErrorCode = "KG_002"
	ErrCodeLLMRequestFailed    ErrorCode = "KG_003"
	ErrCodeLLMResponseInvalid  ErrorCode = "KG_004"
	ErrCodeRelationParseFailed ErrorCode = "KG_005"
)

// Infrastructure error codes
const (
	ErrCodeMessageQueueError ErrorCode = "INFRA_001"
	ErrCodeStorageError      ErrorCode = "INFRA_002"
	ErrCodeSearchError       ErrorCode = "INFRA_003"
)

// Short aliases used throughout the codebase.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeUnknown        = ErrCodeUnknown
	CodeOK             = ErrCodeOK
	CodePatentNotFound = ErrCodePatentNotFound
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodePatentNotFound:      http.StatusNotFound,
	ErrCodePatentAlreadyExists: http.StatusConflict,
	ErrCodePatentInvalid:       http.StatusBadRequest,
	ErrCodePatentParseFailed:   http.StatusUnprocessableEntity,
	ErrCodeImportFailed:        http.StatusInternalServerError,

	ErrCodeAnnotationFailed:       http.StatusBadGateway,
	ErrCodeAnnotatorUnavailable:   http.StatusServiceUnavailable,
	ErrCodeAnnotatorBadResponse:   http.StatusBadGateway,
	ErrCodeExtractionFailed:       http.StatusInternalServerError,
	ErrCodeExtractionInputInvalid: http.StatusBadRequest,

	ErrCodeGraphWriteFailed:    http.StatusInternalServerError,
	ErrCodeGraphQueryFailed:    http.StatusInternalServerError,
	ErrCodeLLMRequestFailed:    http.StatusBadGateway,
	ErrCodeLLMResponseInvalid:  http.StatusBadGateway,
	ErrCodeRelationParseFailed: http.StatusUnprocessableEntity,

	ErrCodeMessageQueueError: http.StatusInternalServerError,
	ErrCodeStorageError:      http.StatusInternalServerError,
	ErrCodeSearchError:       http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",

	ErrCodePatentNotFound:      "patent application not found",
	ErrCodePatentAlreadyExists: "patent application already exists",
	ErrCodePatentInvalid:       "invalid patent application",
	ErrCodePatentParseFailed:   "failed to parse patent document",
	ErrCodeImportFailed:        "patent import failed",

	ErrCodeAnnotationFailed:       "annotation engine call failed",
	ErrCodeAnnotatorUnavailable:   "annotation engine unavailable",
	ErrCodeAnnotatorBadResponse:   "annotation engine returned malformed response",
	ErrCodeExtractionFailed:       "entity extraction failed",
	ErrCodeExtractionInputInvalid: "invalid extraction input",

	ErrCodeGraphWriteFailed:    "knowledge graph write failed",
	ErrCodeGraphQueryFailed:    "knowledge graph query failed",
	ErrCodeLLMRequestFailed:    "LLM request failed",
	ErrCodeLLMResponseInvalid:  "LLM returned malformed response",
	ErrCodeRelationParseFailed: "failed to parse extracted relations",

	ErrCodeMessageQueueError: "message queue error",
	ErrCodeStorageError:      "object storage error",
	ErrCodeSearchError:       "search index error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
