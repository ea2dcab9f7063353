// Package audio assembles per-chunk sample buffers into one waveform.
package audio

import "time"

// Segment is one chunk's worth of mono float32 samples plus the
// punctuation class that ended the chunk's text. All segments in a stitch
// share the same sample rate.
type Segment struct {
	Samples  []float32
	Boundary byte
}

// GapConfig holds the silence durations inserted between consecutive
// chunks, keyed by the punctuation class at the chunk boundary. The exact
// values are tuning, not invariants.
type GapConfig struct {
	// Sentence follows '.', '!' and '?'.
	Sentence time.Duration

	// Clause follows ',', ';' and ':'.
	Clause time.Duration

	// Default applies when the boundary carries no punctuation signal.
	Default time.Duration
}

// DefaultGapConfig returns the stock inter-chunk pause durations.
func DefaultGapConfig() GapConfig {
	return GapConfig{
		Sentence: 120 * time.Millisecond,
		Clause:   60 * time.Millisecond,
		Default:  80 * time.Millisecond,
	}
}

// Duration returns the gap duration for the given boundary class.
func (g GapConfig) Duration(boundary byte) time.Duration {
	switch boundary {
	case '.', '!', '?':
		return g.Sentence
	case ',', ';', ':':
		return g.Clause
	default:
		return g.Default
	}
}

// SampleCount returns the number of silence samples the gap after the
// given boundary occupies at the given sample rate.
func (g GapConfig) SampleCount(boundary byte, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	return int(g.Duration(boundary).Seconds() * float64(sampleRate))
}

// Stitch concatenates the segments in order, inserting a silence gap
// between consecutive segments (never before the first or after the
// last). The gap after each segment is chosen by that segment's boundary
// class. The result length is the sum of all segment lengths plus the sum
// of the inserted gap lengths; no samples are dropped, reordered or
// resampled.
func Stitch(segments []Segment, gaps GapConfig, sampleRate int) []float32 {
	if len(segments) == 0 {
		return []float32{}
	}

	total := 0
	for i, seg := range segments {
		total += len(seg.Samples)
		if i < len(segments)-1 {
			total += gaps.SampleCount(seg.Boundary, sampleRate)
		}
	}

	out := make([]float32, total)
	pos := 0
	for i, seg := range segments {
		pos += copy(out[pos:], seg.Samples)
		if i < len(segments)-1 {
			pos += gaps.SampleCount(seg.Boundary, sampleRate) // silence is already zeroed
		}
	}

	return out
}
