package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors.
// Message is safe to show to callers; Cause is for logs.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the cause chain and the sentinel for the code,
// so errors.Is works against either.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Error codes for the failure taxonomy of a parse request.
const (
	CodeUnsupportedFileType    = "UNSUPPORTED_FILE_TYPE"
	CodeTextExtractionEmpty    = "TEXT_EXTRACTION_EMPTY"
	CodeModelInference         = "MODEL_INFERENCE_FAILED"
	CodeModelOutputMalformed   = "MODEL_OUTPUT_MALFORMED"
	CodeModelOutputInvalidJSON = "MODEL_OUTPUT_INVALID_JSON"
	CodeSchemaViolation        = "SCHEMA_VIOLATION"
	CodeInvalidValue           = "INVALID_VALUE"
	CodeConfig                 = "CONFIG_ERROR"
)

var (
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrTextExtractionEmpty    = errors.New("text extraction empty")
	ErrModelInference         = errors.New("model inference failed")
	ErrModelOutputMalformed   = errors.New("model output malformed")
	ErrModelOutputInvalidJSON = errors.New("model output invalid json")
	ErrSchemaViolation        = errors.New("schema violation")
	ErrInvalidValue           = errors.New("invalid value")
	ErrInvalidConfig          = errors.New("invalid configuration")
)

var sentinels = map[string]error{
	CodeUnsupportedFileType:    ErrUnsupportedFileType,
	CodeTextExtractionEmpty:    ErrTextExtractionEmpty,
	CodeModelInference:         ErrModelInference,
	CodeModelOutputMalformed:   ErrModelOutputMalformed,
	CodeModelOutputInvalidJSON: ErrModelOutputInvalidJSON,
	CodeSchemaViolation:        ErrSchemaViolation,
	CodeInvalidValue:           ErrInvalidValue,
	CodeConfig:                 ErrInvalidConfig,
}

// User-visible messages.
const (
	MsgUnsupportedFileType = "Unsupported file type. Please upload a PDF or TXT file."
	MsgTextExtractionEmpty = "Failed to extract text from the document."
	MsgModelFailed         = "Failed to extract data from LLM response."
	MsgSchemaViolation     = "Validation failed. The LLM returned data that does not match the required schema."
	MsgUnexpected          = "An unexpected error occurred."
)

// NewAppError constructs an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
