// Package enginetest provides mock tokenizer and synthesizer
// implementations for exercising the engine without a neural model.
package enginetest

import (
	"context"
	"sync"

	"github.com/dgnsrekt/kokoro-tiny-go/tts/voice"
)

// Tokenizer is a deterministic mock tokenizer emitting one token per
// rune. Like the real phonemizer it pads short sequences on the right, so
// leading tokens of very short phrases are never lost.
type Tokenizer struct {
	// PadTo right-pads sequences shorter than this length with PadToken.
	PadTo int

	// PadToken is the id used for padding.
	PadToken int64

	// FailWith, when set, makes every Encode call fail.
	FailWith error
}

// Encode tokenizes text.
func (t *Tokenizer) Encode(text string) ([]int64, error) {
	if t.FailWith != nil {
		return nil, t.FailWith
	}

	runes := []rune(text)
	n := len(runes)
	if t.PadTo > n {
		n = t.PadTo
	}

	tokens := make([]int64, n)
	for i := range tokens {
		tokens[i] = t.PadToken
	}
	for i, r := range runes {
		tokens[i] = int64(r)
	}
	return tokens, nil
}

// Call records one synthesizer invocation.
type Call struct {
	Tokens []int64
	Style  voice.Style
	Speed  float64
}

// Synthesizer is a mock model producing SamplesPerToken samples per input
// token. It records every call and is safe for concurrent use.
type Synthesizer struct {
	// Rate is the reported sample rate; defaults to 24000 Hz.
	Rate int

	// SamplesPerToken controls output length; defaults to 2.
	SamplesPerToken int

	// Fill is the sample value emitted; defaults to 0.25.
	Fill float32

	// FailWith, when set, makes every SynthesizeChunk call fail.
	FailWith error

	mu    sync.Mutex
	calls []Call
}

// SynthesizeChunk emits len(tokens)*SamplesPerToken samples.
func (s *Synthesizer) SynthesizeChunk(_ context.Context, tokens []int64, style voice.Style, speed float64) ([]float32, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Tokens: append([]int64(nil), tokens...),
		Style:  append(voice.Style(nil), style...),
		Speed:  speed,
	})
	s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	fill := s.Fill
	if fill == 0 {
		fill = 0.25
	}
	out := make([]float32, len(tokens)*s.samplesPerToken())
	for i := range out {
		out[i] = fill
	}
	return out, nil
}

// SampleRate reports the mock model's sample rate.
func (s *Synthesizer) SampleRate() int {
	if s.Rate == 0 {
		return 24000
	}
	return s.Rate
}

// Calls returns a copy of the recorded invocations in call order.
func (s *Synthesizer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Synthesizer) samplesPerToken() int {
	if s.SamplesPerToken == 0 {
		return 2
	}
	return s.SamplesPerToken
}
