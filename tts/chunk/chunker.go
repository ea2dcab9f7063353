// Package chunk splits normalized text into spans that respect the
// synthesis model's token budget.
//
// Splitting is sentence-first: consecutive sentences are greedily packed
// while the chunk stays within budget. A single sentence that alone
// exceeds the budget falls back to word-level packing, and a single word
// that alone exceeds the budget is hard-truncated as a last resort. Hard
// truncation is the only operation in the pipeline that discards input,
// and it is always reported.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DirectPathMaxChars is the length below which text is treated as a
// single chunk when it fits the budget, so short alerts and utterances
// never pick up splitting artifacts.
const DirectPathMaxChars = 50

// TokenCounter reports how many model tokens a span of text encodes to.
// Counts must be deterministic for identical input.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// CounterFunc adapts a function to the TokenCounter interface.
type CounterFunc func(text string) (int, error)

// CountTokens calls f.
func (f CounterFunc) CountTokens(text string) (int, error) { return f(text) }

// Chunk is a contiguous span of normalized text bounded by the token
// budget. Chunks are transient: produced here, consumed by synthesis,
// then discarded.
type Chunk struct {
	// Text is the chunk's span of the normalized input.
	Text string

	// TokenCount is the chunk's own token count, always <= the budget.
	TokenCount int

	// StyleIndex is the clamped style bucket derived from TokenCount.
	StyleIndex int

	// Boundary is the punctuation class ending the chunk ('.', '!', '?',
	// ',', ';', ':'), or 0 when the chunk ends mid-clause. The stitcher
	// uses it to pick the pause that follows this chunk.
	Boundary byte
}

// Truncation records a word that had to be cut to fit the token budget.
type Truncation struct {
	// Word is the original whitespace-delimited word.
	Word string

	// Kept is the prefix that survived; empty if nothing fit.
	Kept string
}

// Options configures a split.
type Options struct {
	// Budget is the maximum token count per chunk.
	Budget int

	// NumStyles is the style bucket count used to clamp StyleIndex.
	// Zero or negative disables clamping.
	NumStyles int
}

// Split produces an ordered sequence of chunks from normalized text such
// that every chunk's token count is within opts.Budget. Joining the chunk
// texts with single spaces reconstructs the input, except where a
// Truncation was reported.
func Split(text string, counter TokenCounter, opts Options) ([]Chunk, []Truncation, error) {
	if text == "" {
		return nil, nil, nil
	}

	// Short alerts take the direct path whenever they actually fit.
	// Length is measured in characters, not bytes, so accented or
	// non-Latin alerts qualify the same way ASCII ones do.
	if utf8.RuneCountInString(text) < DirectPathMaxChars {
		count, err := counter.CountTokens(text)
		if err != nil {
			return nil, nil, err
		}
		if count <= opts.Budget {
			return []Chunk{makeChunk(text, count, opts.NumStyles)}, nil, nil
		}
	}

	var (
		chunks []Chunk
		truncs []Truncation
		sealed bool // last chunk ends in a truncated word; never merge into it
	)

	for _, sentence := range splitSentences(text) {
		count, err := counter.CountTokens(sentence)
		if err != nil {
			return nil, nil, err
		}

		if count > opts.Budget {
			// Oversized sentence: pack word by word instead.
			wordChunks, wordTruncs, lastSealed, err := packWords(sentence, counter, opts)
			if err != nil {
				return nil, nil, err
			}
			chunks = append(chunks, wordChunks...)
			truncs = append(truncs, wordTruncs...)
			sealed = lastSealed
			continue
		}

		if sealed {
			chunks = append(chunks, makeChunk(sentence, count, opts.NumStyles))
			sealed = false
			continue
		}

		chunks, err = packInto(chunks, sentence, count, counter, opts)
		if err != nil {
			return nil, nil, err
		}
	}

	return chunks, truncs, nil
}

// packInto greedily appends piece to the last open chunk when the merged
// span still fits the budget, and starts a new chunk otherwise. pieceCount
// is piece's own token count, already known to be <= the budget.
func packInto(chunks []Chunk, piece string, pieceCount int, counter TokenCounter, opts Options) ([]Chunk, error) {
	if n := len(chunks); n > 0 {
		merged := chunks[n-1].Text + " " + piece
		count, err := counter.CountTokens(merged)
		if err != nil {
			return nil, err
		}
		if count <= opts.Budget {
			chunks[n-1] = makeChunk(merged, count, opts.NumStyles)
			return chunks, nil
		}
	}
	return append(chunks, makeChunk(piece, pieceCount, opts.NumStyles)), nil
}

// packWords packs a single oversized sentence word by word, truncating
// any word that alone exceeds the budget. The returned sealed flag tells
// the caller the final chunk holds a truncated word.
func packWords(sentence string, counter TokenCounter, opts Options) ([]Chunk, []Truncation, bool, error) {
	var (
		chunks []Chunk
		truncs []Truncation
		sealed bool
	)

	for _, word := range strings.Fields(sentence) {
		count, err := counter.CountTokens(word)
		if err != nil {
			return nil, nil, false, err
		}

		if count > opts.Budget {
			kept, keptCount, err := truncateWord(word, counter, opts.Budget)
			if err != nil {
				return nil, nil, false, err
			}
			truncs = append(truncs, Truncation{Word: word, Kept: kept})
			if kept == "" {
				continue
			}
			// Truncated words close their own chunk; merging neighbors
			// into it would only hide where content was lost.
			chunks = append(chunks, makeChunk(kept, keptCount, opts.NumStyles))
			sealed = true
			continue
		}

		if sealed {
			chunks = append(chunks, makeChunk(word, count, opts.NumStyles))
			sealed = false
			continue
		}

		chunks, err = packInto(chunks, word, count, counter, opts)
		if err != nil {
			return nil, nil, false, err
		}
	}

	return chunks, truncs, sealed, nil
}

// truncateWord finds the longest rune prefix of word whose token count
// fits the budget. Returns the empty string when not even a single rune
// fits.
func truncateWord(word string, counter TokenCounter, budget int) (string, int, error) {
	runes := []rune(word)

	lo, hi := 0, len(runes) // invariant: prefix of length lo fits
	bestCount := 0
	for lo < hi {
		mid := (lo + hi + 1) / 2
		count, err := counter.CountTokens(string(runes[:mid]))
		if err != nil {
			return "", 0, err
		}
		if count <= budget {
			lo = mid
			bestCount = count
		} else {
			hi = mid - 1
		}
	}

	return string(runes[:lo]), bestCount, nil
}

func makeChunk(text string, count, numStyles int) Chunk {
	idx := count
	if numStyles > 0 && idx > numStyles-1 {
		idx = numStyles - 1
	}
	if idx < 0 {
		idx = 0
	}
	return Chunk{
		Text:       text,
		TokenCount: count,
		StyleIndex: idx,
		Boundary:   boundaryClass(text),
	}
}

// boundaryClass returns the trailing punctuation byte of text, or 0.
func boundaryClass(text string) byte {
	if text == "" {
		return 0
	}
	switch c := text[len(text)-1]; c {
	case '.', '!', '?', ',', ';', ':':
		return c
	default:
		return 0
	}
}

// splitSentences splits normalized text at sentence-terminal punctuation,
// keeping each terminator run with its sentence. Input is already
// whitespace-normalized, so sentences are separated by single spaces.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume the whole terminator run ("?!", "...").
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
		}
		// A terminator only closes a sentence before a space or at end of
		// input; periods inside "3.14" or "v2.0.1" are not boundaries.
		// Normalization has already collapsed all whitespace to ' '.
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
