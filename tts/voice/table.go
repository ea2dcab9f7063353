// Package voice holds per-voice style vector tables.
//
// A style vector conditions the synthesis model's prosody and timbre. Each
// voice carries an ordered sequence of style vectors indexed by expected
// token count: index 0 matches the shortest utterances and the last index
// matches the longest bucket the model was trained against. Tables are
// built once, are immutable afterwards, and are safe for concurrent
// readers.
package voice

import (
	"errors"
	"fmt"
	"sort"
)

// Common voice table errors.
var (
	// ErrUnknownVoice indicates the requested voice id is not in the table.
	ErrUnknownVoice = errors.New("unknown voice")

	// ErrDimensionMismatch indicates blended style vectors differ in length.
	ErrDimensionMismatch = errors.New("style vector dimension mismatch")

	// ErrBadTable indicates a voice table could not be constructed or decoded.
	ErrBadTable = errors.New("malformed voice table")
)

// Style is a fixed-length conditioning vector for the synthesis model.
type Style []float32

// Voice pairs a voice identifier with its ordered style vectors.
type Voice struct {
	// Name is the voice identifier, e.g. "af_sky".
	Name string

	// Styles is ordered by expected token count. All vectors within a
	// voice share the same dimensionality.
	Styles []Style
}

// dim returns the style dimensionality of the voice, or 0 if it has no styles.
func (v Voice) dim() int {
	if len(v.Styles) == 0 {
		return 0
	}
	return len(v.Styles[0])
}

// validate checks internal consistency of a single voice.
func (v Voice) validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: voice with empty name", ErrBadTable)
	}
	if len(v.Styles) == 0 {
		return fmt.Errorf("%w: voice %q has no styles", ErrBadTable, v.Name)
	}
	dim := v.dim()
	if dim == 0 {
		return fmt.Errorf("%w: voice %q has zero-length style vectors", ErrBadTable, v.Name)
	}
	for i, s := range v.Styles {
		if len(s) != dim {
			return fmt.Errorf("%w: voice %q style %d has dim %d, want %d",
				ErrBadTable, v.Name, i, len(s), dim)
		}
	}
	return nil
}

// Table is an immutable collection of voices keyed by voice id.
type Table struct {
	voices map[string]Voice
}

// NewTable builds a table from the given voices. Every voice must have at
// least one style and uniform dimensionality across its own styles.
// Duplicate voice names are rejected.
func NewTable(voices []Voice) (*Table, error) {
	if len(voices) == 0 {
		return nil, fmt.Errorf("%w: no voices", ErrBadTable)
	}
	m := make(map[string]Voice, len(voices))
	for _, v := range voices {
		if err := v.validate(); err != nil {
			return nil, err
		}
		if _, dup := m[v.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate voice %q", ErrBadTable, v.Name)
		}
		m[v.Name] = v
	}
	return &Table{voices: m}, nil
}

// Voices returns the sorted voice ids in the table.
func (t *Table) Voices() []string {
	names := make([]string, 0, len(t.voices))
	for name := range t.voices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumStyles returns the number of style buckets for the given voice.
func (t *Table) NumStyles(voiceID string) (int, error) {
	v, ok := t.voices[voiceID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVoice, voiceID)
	}
	return len(v.Styles), nil
}

// StyleFor returns the style vector for a voice at the given token count.
// The index saturates at the last trained bucket: token counts at or
// beyond numStyles-1 select the final style rather than erroring, since
// the model degrades gracefully at the boundary.
func (t *Table) StyleFor(voiceID string, tokenCount int) (Style, error) {
	v, ok := t.voices[voiceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, voiceID)
	}
	idx := tokenCount
	if idx < 0 {
		idx = 0
	}
	if idx > len(v.Styles)-1 {
		idx = len(v.Styles) - 1
	}
	return v.Styles[idx], nil
}

// BlendVoice is one weighted component of a voice blend.
type BlendVoice struct {
	Voice  string
	Weight float64
}

// Blend produces a style vector as the weighted elementwise sum of the
// component voices' styles at the given token count. Weights are taken as
// given; choosing an informative combination is the caller's concern. All
// component vectors must share the same dimensionality.
func (t *Table) Blend(components []BlendVoice, tokenCount int) (Style, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: empty blend", ErrBadTable)
	}

	var out Style
	for _, c := range components {
		s, err := t.StyleFor(c.Voice, tokenCount)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = make(Style, len(s))
		} else if len(s) != len(out) {
			return nil, fmt.Errorf("%w: voice %q has dim %d, blend has dim %d",
				ErrDimensionMismatch, c.Voice, len(s), len(out))
		}
		w := float32(c.Weight)
		for i, x := range s {
			out[i] += w * x
		}
	}
	return out, nil
}
