package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/kokoro-tiny-go/tts/audio"
	"github.com/dgnsrekt/kokoro-tiny-go/tts/chunk"
	"github.com/dgnsrekt/kokoro-tiny-go/tts/normalize"
	"github.com/dgnsrekt/kokoro-tiny-go/tts/voice"
)

// Speed multiplier bounds, matching the range the model was tuned for.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Request describes one synthesis call. It is treated as an immutable
// value; the engine never mutates it.
type Request struct {
	// Text is the raw input text.
	Text string

	// Voice selects the voice; empty means Config.DefaultVoice.
	Voice string

	// Speed is the playback speed multiplier; zero means 1.0.
	Speed float64

	// Blend, when non-empty, overrides Voice with a weighted voice
	// blend. The blended style is recomputed per chunk from each
	// component's clamped bucket.
	Blend []voice.BlendVoice
}

// Engine coordinates normalization, validation, chunking, style selection
// and model invocation. The voice table and configuration are read-only
// after New, so a single engine is safe for concurrent Synthesize calls.
type Engine struct {
	tok       Tokenizer
	synth     Synthesizer
	voices    *voice.Table
	cfg       Config
	gaps      audio.GapConfig
	validator Validator
	logger    *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithVocabulary enables the unsupported-character check against the
// model's known vocabulary.
func WithVocabulary(known func(rune) bool) Option {
	return func(e *Engine) { e.validator.Known = known }
}

// New builds an engine around the external tokenizer and synthesizer and
// an already-loaded voice table.
func New(tok Tokenizer, synth Synthesizer, voices *voice.Table, cfg Config, opts ...Option) (*Engine, error) {
	if tok == nil {
		return nil, NewEngineError(ErrorCodeInvalidInput, "nil tokenizer", nil)
	}
	if synth == nil {
		return nil, NewEngineError(ErrorCodeInvalidInput, "nil synthesizer", nil)
	}
	if voices == nil {
		return nil, ErrNoVoiceTable
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		tok:       tok,
		synth:     synth,
		voices:    voices,
		cfg:       cfg,
		gaps:      cfg.gapConfig(),
		validator: Validator{MaxChars: cfg.MaxChars},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := voices.NumStyles(cfg.DefaultVoice); err != nil {
		e.logger.Warn("default voice missing from table; requests must name a voice",
			"voice", cfg.DefaultVoice)
	}

	return e, nil
}

// Synthesize converts text into a single continuous sample buffer. It is
// SynthesizeWithWarnings with the warnings discarded; the two entry
// points share one code path so their behavior cannot drift.
func (e *Engine) Synthesize(ctx context.Context, req Request) ([]float32, error) {
	samples, _, err := e.SynthesizeWithWarnings(ctx, req)
	return samples, err
}

// SynthesizeWithWarnings converts text into a single continuous sample
// buffer plus the advisory warnings gathered along the way. The result is
// complete or the call fails; no partial output is exposed.
func (e *Engine) SynthesizeWithWarnings(ctx context.Context, req Request) ([]float32, []Warning, error) {
	start := time.Now()

	speed := req.Speed
	if speed == 0 {
		speed = 1.0
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}

	text := normalize.Text(req.Text)
	warnings := e.validator.Check(text)

	// Empty text is the sole early return and it is not an error: the
	// caller gets an empty buffer and the advisory warning.
	if text == "" {
		e.logger.Debug("synthesis skipped", "reason", "empty text")
		return []float32{}, warnings, nil
	}

	numStyles, err := e.resolveNumStyles(req)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := e.encode(text)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Debug("synthesis started",
		"textLength", len(text),
		"tokens", len(tokens),
		"budget", e.cfg.TokenBudget,
		"speed", speed)

	// Direct path: the whole text fits the budget, no chunking and no
	// stitching involved.
	if len(tokens) <= e.cfg.TokenBudget {
		style, err := e.styleFor(req, len(tokens))
		if err != nil {
			return nil, nil, err
		}
		samples, err := e.synthesizeChunk(ctx, tokens, style, speed)
		if err != nil {
			return nil, nil, err
		}
		e.logMetrics(start, 1, len(samples))
		return samples, warnings, nil
	}

	chunks, truncations, err := chunk.Split(text, e.counter(), chunk.Options{
		Budget:    e.cfg.TokenBudget,
		NumStyles: numStyles,
	})
	if err != nil {
		return nil, nil, err
	}
	for _, tr := range truncations {
		warnings = append(warnings, Warning{
			Code: WarnWordTruncated,
			Message: fmt.Sprintf("word %q exceeds the token budget and was truncated to %q",
				tr.Word, tr.Kept),
		})
	}

	segments, err := e.synthesizeChunks(ctx, req, chunks, speed)
	if err != nil {
		return nil, nil, err
	}

	out := audio.Stitch(segments, e.gaps, e.synth.SampleRate())
	e.logMetrics(start, len(chunks), len(out))
	return out, warnings, nil
}

// synthesizeChunks runs the bounded per-chunk pipeline: re-tokenize the
// chunk's text, select the style from the chunk's own tags, invoke the
// model. With Workers > 1 the chunks are synthesized concurrently,
// but results land in an index-addressed slice so stitching always
// happens in original chunk order.
func (e *Engine) synthesizeChunks(ctx context.Context, req Request, chunks []chunk.Chunk, speed float64) ([]audio.Segment, error) {
	segments := make([]audio.Segment, len(chunks))

	synthOne := func(ctx context.Context, i int) error {
		c := chunks[i]
		tokens, err := e.encode(c.Text)
		if err != nil {
			return err
		}
		style, err := e.styleForChunk(req, c)
		if err != nil {
			return err
		}
		samples, err := e.synthesizeChunk(ctx, tokens, style, speed)
		if err != nil {
			return err
		}
		segments[i] = audio.Segment{Samples: samples, Boundary: c.Boundary}
		return nil
	}

	if e.cfg.Workers <= 1 {
		for i := range chunks {
			if err := synthOne(ctx, i); err != nil {
				return nil, err
			}
		}
		return segments, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range chunks {
		i := i
		g.Go(func() error { return synthOne(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}

// synthesizeChunk invokes the model once for a bounded token sequence.
// It trusts its precondition (len(tokens) <= TokenBudget, guaranteed by
// the caller's dispatch or by chunk construction) and performs no budget
// check of its own: re-checking here would either no-op or recurse back
// into chunking.
func (e *Engine) synthesizeChunk(ctx context.Context, tokens []int64, style voice.Style, speed float64) ([]float32, error) {
	samples, err := e.synth.SynthesizeChunk(ctx, tokens, style, speed)
	if err != nil {
		return nil, NewEngineError(ErrorCodeModelFailure, "model inference failed", err)
	}
	return samples, nil
}

// styleFor selects the style vector for the request at the given token
// count: a clamped single-voice lookup, or a per-component-clamped blend.
func (e *Engine) styleFor(req Request, tokenCount int) (voice.Style, error) {
	if len(req.Blend) > 0 {
		return e.voices.Blend(req.Blend, tokenCount)
	}
	return e.voices.StyleFor(e.voiceID(req), tokenCount)
}

// styleForChunk selects the style vector from the chunk's own tags.
// Single-voice lookups consume the chunk's pre-clamped StyleIndex; blends
// take the chunk's token count so each component still clamps at its own
// last bucket.
func (e *Engine) styleForChunk(req Request, c chunk.Chunk) (voice.Style, error) {
	if len(req.Blend) > 0 {
		return e.voices.Blend(req.Blend, c.TokenCount)
	}
	return e.voices.StyleFor(e.voiceID(req), c.StyleIndex)
}

// resolveNumStyles returns the style bucket count the chunker clamps
// against, failing early when the request names an unknown voice.
func (e *Engine) resolveNumStyles(req Request) (int, error) {
	if len(req.Blend) > 0 {
		smallest := 0
		for _, c := range req.Blend {
			n, err := e.voices.NumStyles(c.Voice)
			if err != nil {
				return 0, err
			}
			if smallest == 0 || n < smallest {
				smallest = n
			}
		}
		return smallest, nil
	}
	return e.voices.NumStyles(e.voiceID(req))
}

func (e *Engine) voiceID(req Request) string {
	if req.Voice != "" {
		return req.Voice
	}
	return e.cfg.DefaultVoice
}

// encode runs the external tokenizer.
func (e *Engine) encode(text string) ([]int64, error) {
	tokens, err := e.tok.Encode(text)
	if err != nil {
		return nil, NewEngineError(ErrorCodeTokenizerFailure, "tokenization failed", err)
	}
	return tokens, nil
}

// counter adapts the tokenizer to the chunker's token-count interface.
func (e *Engine) counter() chunk.TokenCounter {
	return chunk.CounterFunc(func(text string) (int, error) {
		tokens, err := e.encode(text)
		if err != nil {
			return 0, err
		}
		return len(tokens), nil
	})
}

func (e *Engine) logMetrics(start time.Time, numChunks, numSamples int) {
	e.logger.Info("synthesis completed",
		"chunks", numChunks,
		"samples", humanize.Comma(int64(numSamples)),
		"duration", time.Since(start))
}
