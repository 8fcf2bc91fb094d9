// Package container splits an SC3 script file into the sections the
// decoder works on.
//
// File layout (all integers little-endian u32):
//
//	[0:4]   magic "SC3\0"
//	[4:8]   offset of the textual index table
//	[8:12]  offset of the image index table
//	[12:]   label table; the first label is also the start of the bytecode
//	...     main bytecode, up to the textual index table
//	...     textual indexes, up to the image index table
//	...     image indexes, up to the first textual subroutine
//	...     textual bytecode, up to the first image name
//	...     NUL separated image names, up to end of file
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/sc3/pkg/sc3"
)

// Magic is the SC3 file signature.
const Magic = "SC3\x00"

// HeaderSize is the size of the fixed header before the label table.
const HeaderSize = 12

var (
	ErrBadMagic = errors.New("invalid SC3 magic")
	ErrNoText   = errors.New("script has no textual section")
	ErrLayout   = errors.New("inconsistent SC3 layout")
)

// Scripts that are never decoded: engine bootstrap scripts and debug menus.
var (
	DefaultIgnore       = []string{"startup.scr", "system.scr"}
	DefaultIgnorePrefix = []string{"debug"}
)

// Split parses an SC3 file. The returned Input aliases data.
//
// A file whose bytecode runs to end of file has nothing to decode; Split
// returns ErrNoText together with the sections read so far.
func Split(data []byte) (*sc3.Input, error) {
	if len(data) < HeaderSize+4 {
		return nil, fmt.Errorf("%w: file too short: need at least %d bytes, got %d", ErrLayout, HeaderSize+4, len(data))
	}
	if string(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrBadMagic, Magic, data[0:4])
	}

	textOff := binary.LittleEndian.Uint32(data[4:8])
	imageOff := binary.LittleEndian.Uint32(data[8:12])
	firstLabel := binary.LittleEndian.Uint32(data[12:16])
	size := uint32(len(data))

	labelEnd := firstLabel - firstLabel%4
	if labelEnd < HeaderSize+4 || firstLabel > textOff || textOff > size {
		return nil, fmt.Errorf("%w: label table ends at 0x%x, bytecode 0x%x..0x%x, file size 0x%x",
			ErrLayout, labelEnd, firstLabel, textOff, size)
	}
	labels := readUint32s(data[HeaderSize:labelEnd])

	in := &sc3.Input{
		Bytecodes: data[firstLabel:textOff],
		Labels:    labels,
	}
	if textOff >= size {
		return in, ErrNoText
	}

	if imageOff < textOff || imageOff > size || (imageOff-textOff)%4 != 0 {
		return nil, fmt.Errorf("%w: textual indexes 0x%x..0x%x", ErrLayout, textOff, imageOff)
	}
	in.TextualIndexes = readUint32s(data[textOff:imageOff])
	if len(in.TextualIndexes) == 0 {
		return in, ErrNoText
	}

	textStart := in.TextualIndexes[0]
	if textStart < imageOff || textStart > size || (textStart-imageOff)%4 != 0 {
		return nil, fmt.Errorf("%w: image indexes 0x%x..0x%x", ErrLayout, imageOff, textStart)
	}
	imageIndexes := readUint32s(data[imageOff:textStart])

	textEnd := size
	if len(imageIndexes) > 0 {
		textEnd = imageIndexes[0]
	}
	if textEnd < textStart || textEnd > size {
		return nil, fmt.Errorf("%w: textual bytecode 0x%x..0x%x", ErrLayout, textStart, textEnd)
	}
	in.TextualBytecodes = data[textStart:textEnd]

	for _, name := range strings.Split(string(data[textEnd:]), "\x00") {
		if name != "" {
			in.ImageNames = append(in.ImageNames, name)
		}
	}
	return in, nil
}

// IsIgnored reports whether a script file name is skipped by default.
func IsIgnored(name string) bool {
	return Ignored(name, DefaultIgnore, DefaultIgnorePrefix)
}

// Ignored reports whether name is in names or starts with one of prefixes.
func Ignored(name string, names, prefixes []string) bool {
	for _, n := range names {
		if name == n {
			return true
		}
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func readUint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}
