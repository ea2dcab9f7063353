package tts

import "fmt"

// WarningCode tags an advisory condition. Warnings never fail a
// synthesis call; they travel alongside a successful result.
type WarningCode string

const (
	// WarnEmptyText flags input that normalized to nothing.
	WarnEmptyText WarningCode = "EMPTY_TEXT"

	// WarnTextTooLong flags input over the configured character ceiling.
	WarnTextTooLong WarningCode = "TEXT_TOO_LONG"

	// WarnUnsupportedChars flags characters outside the model vocabulary.
	WarnUnsupportedChars WarningCode = "UNSUPPORTED_CHARS"

	// WarnWordTruncated flags a word cut down to fit the token budget.
	WarnWordTruncated WarningCode = "WORD_TRUNCATED"
)

// Warning is a tagged advisory attached to a synthesis result.
type Warning struct {
	Code    WarningCode
	Message string
}

// String renders the warning for human consumption.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
