package container

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/sc3/pkg/sc3"
)

// buildSC3 lays out a script file. extraLabels are offsets relative to the
// start of the bytecode.
func buildSC3(extraLabels []uint32, code []byte, texts [][]byte, images []string) []byte {
	u32 := func(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

	firstLabel := uint32(HeaderSize + 4*(1+len(extraLabels)))
	textOff := firstLabel + uint32(len(code))
	imageOff := textOff + uint32(4*len(texts))
	textStart := imageOff + uint32(4*len(images))

	buf := []byte(Magic)
	buf = u32(buf, textOff)
	buf = u32(buf, imageOff)
	buf = u32(buf, firstLabel)
	for _, l := range extraLabels {
		buf = u32(buf, firstLabel+l)
	}
	buf = append(buf, code...)

	pos := textStart
	for _, t := range texts {
		buf = u32(buf, pos)
		pos += uint32(len(t))
	}
	namePos := pos
	for _, name := range images {
		buf = u32(buf, namePos)
		namePos += uint32(len(name) + 1)
	}
	for _, t := range texts {
		buf = append(buf, t...)
	}
	for _, name := range images {
		buf = append(buf, name...)
		buf = append(buf, 0)
	}
	return buf
}

func TestSplit(t *testing.T) {
	code := []byte{0x00, 0x07, 0x01, 0x00, 0xFF, 0x01, 0x00, 0x00}
	data := buildSC3([]uint32{4}, code,
		[][]byte{{0x48, 0x69, 0x00}, {0x41, 0x00}},
		[]string{"bg00", "bg01"})

	in, err := Split(data)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	want := &sc3.Input{
		Bytecodes:        code,
		Labels:           []uint32{20, 24},
		TextualIndexes:   []uint32{44, 47},
		TextualBytecodes: []byte{0x48, 0x69, 0x00, 0x41, 0x00},
		ImageNames:       []string{"bg00", "bg01"},
	}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}

	insts, err := sc3.Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(insts) != 3 {
		t.Fatalf("got %d instructions, want 3", len(insts))
	}
	if insts[0].Switches[0].Target != 24 || !insts[1].Labeled {
		t.Errorf("goto target 0x%x, labeled %v", insts[0].Switches[0].Target, insts[1].Labeled)
	}
	if insts[1].Textual[0].Text != "A" || insts[1].Textual[0].Position != 47 {
		t.Errorf("text = %+v", insts[1].Textual)
	}
}

func TestSplitNoImages(t *testing.T) {
	data := buildSC3(nil, []byte{0x00, 0x00}, [][]byte{{0x41, 0x00}}, nil)
	in, err := Split(data)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(in.ImageNames) != 0 || len(in.TextualBytecodes) != 2 {
		t.Errorf("got %d images, %d textual bytes", len(in.ImageNames), len(in.TextualBytecodes))
	}
}

func TestSplitErrors(t *testing.T) {
	good := buildSC3(nil, []byte{0x00, 0x00}, [][]byte{{0x41, 0x00}}, []string{"a"})

	badMagic := append([]byte("SC4\x00"), good[4:]...)
	if _, err := Split(badMagic); !errors.Is(err, ErrBadMagic) {
		t.Errorf("bad magic error = %v", err)
	}

	if _, err := Split(good[:10]); !errors.Is(err, ErrLayout) {
		t.Errorf("short file error = %v", err)
	}

	// Bytecode reaching end of file: nothing textual to decode.
	noText := buildSC3(nil, []byte{0x00, 0x00}, nil, nil)
	binary.LittleEndian.PutUint32(noText[4:8], uint32(len(noText)))
	in, err := Split(noText)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("no text error = %v", err)
	}
	if in == nil || len(in.Bytecodes) != 2 {
		t.Errorf("no text input = %+v", in)
	}

	broken := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(broken[8:12], 3)
	if _, err := Split(broken); !errors.Is(err, ErrLayout) {
		t.Errorf("broken image offset error = %v", err)
	}
}

func TestIsIgnored(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"startup.scr", true},
		{"system.scr", true},
		{"debug_menu.scr", true},
		{"debug.scr", true},
		{"sc01.scr", false},
		{"mysystem.scr", false},
	}
	for _, tt := range tests {
		if got := IsIgnored(tt.name); got != tt.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
