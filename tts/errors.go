package tts

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/kokoro-tiny-go/tts/voice"
)

// Common engine errors. Voice lookup failures surface the sentinels from
// the voice package, so errors.Is works across the package boundary.
var (
	// ErrUnknownVoice indicates the requested voice id is not in the table.
	ErrUnknownVoice = voice.ErrUnknownVoice

	// ErrDimensionMismatch indicates blended style vectors differ in length.
	ErrDimensionMismatch = voice.ErrDimensionMismatch

	// ErrInvalidSpeed indicates the speed multiplier is out of range.
	ErrInvalidSpeed = errors.New("speed must be between 0.5 and 2.0")

	// ErrNoVoiceTable indicates the engine was built without a voice table.
	ErrNoVoiceTable = errors.New("no voice table configured")
)

// ErrorCode identifies specific engine error types.
type ErrorCode string

const (
	// ErrorCodeModelFailure marks a failed neural model invocation.
	ErrorCodeModelFailure ErrorCode = "MODEL_FAILURE"

	// ErrorCodeTokenizerFailure marks a failed tokenizer invocation.
	ErrorCodeTokenizerFailure ErrorCode = "TOKENIZER_FAILURE"

	// ErrorCodeInvalidInput marks a request the engine cannot act on.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// EngineError is an engine-specific error with additional context.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewEngineError creates a new engine error with context.
func NewEngineError(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, Cause: cause}
}
