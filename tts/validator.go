package tts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// maxReportedChars bounds how many distinct offending characters a single
// unsupported-character warning names, so one exotic document cannot blow
// up the warning list.
const maxReportedChars = 5

// Validator inspects normalized text and produces advisory warnings. It
// never blocks or mutates the text, and callers uninterested in warnings
// can skip it entirely.
type Validator struct {
	// MaxChars is the character ceiling above which text is flagged as
	// oversized. Zero or negative disables the check.
	MaxChars int

	// Known reports whether the model vocabulary covers a rune. Nil
	// disables the unsupported-character check.
	Known func(rune) bool
}

// Check returns the (possibly empty) ordered warnings for text. The text
// is expected to be normalized already.
func (v Validator) Check(text string) []Warning {
	var warnings []Warning

	if text == "" {
		return append(warnings, Warning{Code: WarnEmptyText, Message: "empty text"})
	}

	if v.MaxChars > 0 {
		if n := utf8.RuneCountInString(text); n > v.MaxChars {
			warnings = append(warnings, Warning{
				Code: WarnTextTooLong,
				Message: fmt.Sprintf("text is %s characters, above the %s character ceiling",
					humanize.Comma(int64(n)), humanize.Comma(int64(v.MaxChars))),
			})
		}
	}

	if v.Known != nil {
		if offenders := v.unknownRunes(text); len(offenders) > 0 {
			warnings = append(warnings, Warning{
				Code: WarnUnsupportedChars,
				Message: fmt.Sprintf("text contains characters outside the model vocabulary: %s",
					strings.Join(offenders, " ")),
			})
		}
	}

	return warnings
}

// unknownRunes collects up to maxReportedChars distinct runes the
// vocabulary does not cover.
func (v Validator) unknownRunes(text string) []string {
	seen := make(map[rune]bool)
	var offenders []string
	for _, r := range text {
		if r == ' ' || v.Known(r) || seen[r] {
			continue
		}
		seen[r] = true
		offenders = append(offenders, fmt.Sprintf("%q", r))
		if len(offenders) == maxReportedChars {
			break
		}
	}
	return offenders
}
