package voice

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Voice tables are stored in a small binary container: the "KVT1" magic,
// a voice count, then per voice a name, a style count, a dimensionality
// and the raw little-endian float32 style data. Files may additionally be
// gzip-compressed; Load sniffs the gzip magic and unwraps transparently.
const tableMagic = "KVT1"

// Conservative decode limits so a corrupt header cannot ask for absurd
// allocations.
const (
	maxVoices   = 1 << 12
	maxNameLen  = 1 << 8
	maxStyles   = 1 << 16
	maxStyleDim = 1 << 14
)

// Load decodes a voice table from r. Gzip-compressed tables are detected
// by magic and decompressed via klauspost/compress.
func Load(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	var src io.Reader = br
	if head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrBadTable, err)
		}
		defer zr.Close()
		src = zr
	}

	return decode(src)
}

// LoadFile opens and decodes a voice table file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func decode(r io.Reader) (*Table, error) {
	magic := make([]byte, len(tableMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	if string(magic) != tableMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadTable, magic)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: voice count: %v", ErrBadTable, err)
	}
	if count == 0 || count > maxVoices {
		return nil, fmt.Errorf("%w: implausible voice count %d", ErrBadTable, count)
	}

	voices := make([]Voice, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := decodeVoice(r)
		if err != nil {
			return nil, err
		}
		voices = append(voices, v)
	}

	return NewTable(voices)
}

func decodeVoice(r io.Reader) (Voice, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return Voice{}, fmt.Errorf("%w: name length: %v", ErrBadTable, err)
	}
	if nameLen == 0 || nameLen > maxNameLen {
		return Voice{}, fmt.Errorf("%w: implausible name length %d", ErrBadTable, nameLen)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return Voice{}, fmt.Errorf("%w: name: %v", ErrBadTable, err)
	}

	var numStyles, dim uint32
	if err := binary.Read(r, binary.LittleEndian, &numStyles); err != nil {
		return Voice{}, fmt.Errorf("%w: style count: %v", ErrBadTable, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return Voice{}, fmt.Errorf("%w: style dim: %v", ErrBadTable, err)
	}
	if numStyles == 0 || numStyles > maxStyles || dim == 0 || dim > maxStyleDim {
		return Voice{}, fmt.Errorf("%w: voice %q has implausible shape %dx%d",
			ErrBadTable, name, numStyles, dim)
	}

	raw := make([]byte, 4*int(numStyles)*int(dim))
	if _, err := io.ReadFull(r, raw); err != nil {
		return Voice{}, fmt.Errorf("%w: voice %q style data: %v", ErrBadTable, name, err)
	}

	styles := make([]Style, numStyles)
	off := 0
	for s := range styles {
		vec := make(Style, dim)
		for d := range vec {
			vec[d] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
			off += 4
		}
		styles[s] = vec
	}

	return Voice{Name: string(name), Styles: styles}, nil
}

// Encode writes the voices to w in the table container format. Used by
// table-preparation tooling and tests; the synthesis path only reads.
func Encode(w io.Writer, voices []Voice) error {
	for _, v := range voices {
		if err := v.validate(); err != nil {
			return err
		}
		if len(v.Name) > maxNameLen {
			return fmt.Errorf("%w: voice name too long: %q", ErrBadTable, v.Name)
		}
	}

	if _, err := io.WriteString(w, tableMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(voices))); err != nil {
		return err
	}
	for _, v := range voices {
		if err := binary.Write(w, binary.LittleEndian, uint16(len(v.Name))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, v.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(v.Styles))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(v.dim())); err != nil {
			return err
		}
		for _, s := range v.Styles {
			for _, x := range s {
				if err := binary.Write(w, binary.LittleEndian, math.Float32bits(x)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
