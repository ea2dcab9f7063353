package chunk

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// runeCounter counts one token per rune, which keeps prefix counts
// monotonic the way real tokenizers behave.
var runeCounter = CounterFunc(func(text string) (int, error) {
	return len([]rune(text)), nil
})

func join(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}

func TestSplitEmptyText(t *testing.T) {
	chunks, truncs, err := Split("", runeCounter, Options{Budget: 10})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 0 || len(truncs) != 0 {
		t.Errorf("Split(\"\") = %d chunks, %d truncations; want none", len(chunks), len(truncs))
	}
}

func TestSplitDirectPath(t *testing.T) {
	text := "It's 21:22"
	chunks, truncs, err := Split(text, runeCounter, Options{Budget: 512})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(truncs) != 0 {
		t.Fatalf("unexpected truncations: %v", truncs)
	}
	if len(chunks) != 1 {
		t.Fatalf("short text split into %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want %q", chunks[0].Text, text)
	}
	if chunks[0].TokenCount != 10 {
		t.Errorf("chunk token count = %d, want 10", chunks[0].TokenCount)
	}
}

func TestSplitDirectPathFallsThroughWhenOverBudget(t *testing.T) {
	// Under the direct-path character threshold but over the budget, so
	// sentence packing must still run.
	text := "One two three. Four five six."
	chunks, _, err := Split(text, runeCounter, Options{Budget: 16})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if c.TokenCount > 16 {
			t.Errorf("chunk %q exceeds budget: %d tokens", c.Text, c.TokenCount)
		}
	}
}

func TestSplitKeepsIntraWordPeriods(t *testing.T) {
	// Periods inside numbers and version strings are not sentence
	// boundaries; splitting them apart would corrupt the rejoined text.
	text := "Pi is about 3.14 in short form. The build is v2.0.1 now. Nothing else changed today."

	chunks, truncs, err := Split(text, runeCounter, Options{Budget: 40})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(truncs) != 0 {
		t.Fatalf("unexpected truncations: %v", truncs)
	}

	want := []string{
		"Pi is about 3.14 in short form.",
		"The build is v2.0.1 now.",
		"Nothing else changed today.",
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, c.Text, want[i])
		}
	}
	if got := join(chunks); got != text {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, text)
	}
}

func TestSplitDirectPathCountsRunes(t *testing.T) {
	// 29 characters but 55 bytes: the short-text threshold is measured in
	// characters, so this takes the direct path with a single count of the
	// whole text instead of sentence packing.
	text := strings.Repeat("é", 13) + ". " + strings.Repeat("è", 13) + "."

	calls := 0
	counting := CounterFunc(func(s string) (int, error) {
		calls++
		return len([]rune(s)), nil
	})

	chunks, truncs, err := Split(text, counting, Options{Budget: 512})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(truncs) != 0 {
		t.Fatalf("unexpected truncations: %v", truncs)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want %q", chunks[0].Text, text)
	}
	if calls != 1 {
		t.Errorf("CountTokens called %d times, want 1", calls)
	}
}

func TestSplitSentencePacking(t *testing.T) {
	text := "Aa bb cc. Dd ee ff. Gg hh ii. Jj kk ll. Mm nn oo. Pp qq rr. Ss tt uu. Vv ww xx."
	budget := 20

	chunks, truncs, err := Split(text, runeCounter, Options{Budget: budget})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(truncs) != 0 {
		t.Fatalf("unexpected truncations: %v", truncs)
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(chunks))
	}
	for _, c := range chunks {
		if c.TokenCount > budget {
			t.Errorf("chunk %q exceeds budget: %d tokens", c.Text, c.TokenCount)
		}
		if c.Boundary != '.' {
			t.Errorf("chunk %q boundary = %q, want '.'", c.Text, c.Boundary)
		}
	}
	if got := join(chunks); got != text {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, text)
	}
}

func TestSplitLongPassage(t *testing.T) {
	// 800 words in 80 sentences against a 512-token budget.
	var sentences []string
	for i := 0; i < 80; i++ {
		sentences = append(sentences, fmt.Sprintf("word%03d two three four five six seven eight nine ten.", i))
	}
	text := strings.Join(sentences, " ")

	chunks, truncs, err := Split(text, runeCounter, Options{Budget: 512, NumStyles: 510})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(truncs) != 0 {
		t.Fatalf("unexpected truncations: %v", truncs)
	}
	if len(chunks) < 2 {
		t.Fatalf("800-word passage produced %d chunks, want >= 2", len(chunks))
	}
	for _, c := range chunks {
		if c.TokenCount > 512 {
			t.Errorf("chunk exceeds budget: %d tokens", c.TokenCount)
		}
		if want := styleIndexFor(c.TokenCount, 510); c.StyleIndex != want {
			t.Errorf("chunk style index = %d, want %d", c.StyleIndex, want)
		}
	}
	if got := join(chunks); got != text {
		t.Errorf("reconstruction mismatch")
	}
}

func styleIndexFor(tokenCount, numStyles int) int {
	if tokenCount > numStyles-1 {
		return numStyles - 1
	}
	return tokenCount
}

func TestSplitWordFallback(t *testing.T) {
	// One sentence, no terminator until the very end, over budget.
	words := make([]string, 40)
	for i := range words {
		words[i] = "abcdefgh"
	}
	text := strings.Join(words, " ") + "."

	chunks, truncs, err := Split(text, runeCounter, Options{Budget: 64})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(truncs) != 0 {
		t.Fatalf("unexpected truncations: %v", truncs)
	}
	if len(chunks) < 2 {
		t.Fatalf("oversized sentence produced %d chunks, want >= 2", len(chunks))
	}
	for _, c := range chunks {
		if c.TokenCount > 64 {
			t.Errorf("chunk %q exceeds budget: %d tokens", c.Text, c.TokenCount)
		}
	}
	if got := join(chunks); got != text {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, text)
	}
}

func TestSplitTruncatesOversizedWord(t *testing.T) {
	word := strings.Repeat("x", 600)

	chunks, truncs, err := Split(word, runeCounter, Options{Budget: 512})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want exactly 1", len(chunks))
	}
	if len(truncs) != 1 {
		t.Fatalf("got %d truncations, want exactly 1", len(truncs))
	}
	if chunks[0].TokenCount != 512 {
		t.Errorf("truncated chunk has %d tokens, want 512", chunks[0].TokenCount)
	}
	if truncs[0].Word != word {
		t.Errorf("truncation records wrong word")
	}
	if truncs[0].Kept != strings.Repeat("x", 512) {
		t.Errorf("truncation kept %d runes, want 512", len(truncs[0].Kept))
	}
}

func TestSplitTruncatedChunkStaysClosed(t *testing.T) {
	// Digits cost three tokens and spaces none, so a truncated prefix can
	// land well under budget with room a neighbor could otherwise fill.
	weighted := CounterFunc(func(text string) (int, error) {
		n := 0
		for _, r := range text {
			switch {
			case r == ' ':
			case r >= '0' && r <= '9':
				n += 3
			default:
				n++
			}
		}
		return n, nil
	})

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "next word starts fresh",
			text: "abcde9999 x y",
			want: []string{"abcde", "x y"},
		},
		{
			name: "next sentence starts fresh",
			text: "z99999. a.",
			want: []string{"z9", "a."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, truncs, err := Split(tt.text, weighted, Options{Budget: 6})
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(truncs) != 1 {
				t.Fatalf("got %d truncations, want 1", len(truncs))
			}
			if len(chunks) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.want))
			}
			for i, c := range chunks {
				if c.Text != tt.want[i] {
					t.Errorf("chunk[%d] = %q, want %q", i, c.Text, tt.want[i])
				}
			}
			if truncs[0].Kept != chunks[0].Text {
				t.Errorf("kept prefix %q is not its own chunk %q", truncs[0].Kept, chunks[0].Text)
			}
		})
	}
}

func TestSplitBoundaryClasses(t *testing.T) {
	tests := []struct {
		text string
		want byte
	}{
		{"Stop right there!", '!'},
		{"Is it time?", '?'},
		{"Plain clause", 0},
		{"First part,", ','},
	}

	for _, tt := range tests {
		chunks, _, err := Split(tt.text, runeCounter, Options{Budget: 512})
		if err != nil {
			t.Fatalf("Split(%q): %v", tt.text, err)
		}
		if len(chunks) != 1 {
			t.Fatalf("Split(%q) = %d chunks, want 1", tt.text, len(chunks))
		}
		if chunks[0].Boundary != tt.want {
			t.Errorf("Split(%q) boundary = %q, want %q", tt.text, chunks[0].Boundary, tt.want)
		}
	}
}

func TestSplitStyleIndexClamped(t *testing.T) {
	text := strings.Repeat("abcde fghij ", 10) + "end." // well over 8 tokens per chunk
	chunks, _, err := Split(text, runeCounter, Options{Budget: 40, NumStyles: 8})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for _, c := range chunks {
		if c.StyleIndex > 7 {
			t.Errorf("style index %d not clamped to 7", c.StyleIndex)
		}
	}
}

func TestSplitCounterError(t *testing.T) {
	boom := errors.New("tokenizer exploded")
	failing := CounterFunc(func(string) (int, error) { return 0, boom })

	_, _, err := Split(strings.Repeat("words and more words. ", 20), failing, Options{Budget: 8})
	if !errors.Is(err, boom) {
		t.Errorf("Split = %v, want wrapped counter error", err)
	}
}
