// Package tts orchestrates a fixed-capacity neural speech synthesizer
// around arbitrary-length text: normalization, advisory validation,
// token-budget chunking, per-chunk style selection and stitched audio
// assembly. The neural model and the phonemizer/tokenizer are external
// collaborators behind the interfaces in this file.
package tts

import (
	"context"

	"github.com/dgnsrekt/kokoro-tiny-go/tts/voice"
)

// Tokenizer converts normalized text into the model's token ids.
// Implementations must be deterministic for identical input and must pad
// short sequences without discarding leading tokens, so very short
// phrases keep their full content.
type Tokenizer interface {
	Encode(text string) ([]int64, error)
}

// Synthesizer is the neural model boundary. It maps a bounded token
// sequence, a style vector and a speed multiplier to raw mono float32
// samples at a fixed, model-defined sample rate.
type Synthesizer interface {
	// SynthesizeChunk runs one inference. The token sequence is already
	// within the model's budget; callers guarantee the precondition.
	SynthesizeChunk(ctx context.Context, tokens []int64, style voice.Style, speed float64) ([]float32, error)

	// SampleRate reports the model's output sample rate in Hz.
	SampleRate() int
}
