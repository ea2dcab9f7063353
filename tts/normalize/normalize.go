// Package normalize canonicalizes raw input text before tokenization.
//
// Normalization is a pure function: the same input always yields the same
// output, and normalizing already-normalized text is a no-op. It runs in
// three ordered steps: Unicode NFC composition, typographic character
// substitution, and whitespace collapsing.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// replacements maps typographic glyphs to plain ASCII equivalents the
// tokenizer vocabulary understands. Smart quotes become straight quotes,
// en/em dashes become hyphens, and the ellipsis glyph becomes three
// literal periods.
var replacements = strings.NewReplacer(
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
	"‚", "'", // single low-9 quotation mark
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"„", `"`, // double low-9 quotation mark
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // horizontal ellipsis
)

// Text canonicalizes raw text. Decomposed glyphs are merged via NFC,
// typographic punctuation is substituted with ASCII equivalents, runs of
// whitespace (including tabs and newlines) collapse to a single space,
// other control characters are dropped, and leading/trailing whitespace
// is trimmed. The output contains no control characters.
func Text(s string) string {
	s = norm.NFC.String(s)
	s = replacements.Replace(s)

	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r):
			// Stray control characters carry no speakable content.
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	return b.String()
}
