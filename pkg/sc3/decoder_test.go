package sc3

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testLabels = []uint32{0x100, 0x120}

func testInput(code ...byte) *Input {
	return &Input{
		Bytecodes:        code,
		Labels:           testLabels,
		TextualIndexes:   []uint32{0x500, 0x505},
		TextualBytecodes: []byte{0x48, 0x69, 0x01, 0x02, 0x00, 0x41, 0x00},
		ImageNames:       []string{"bg00", "bg01"},
	}
}

func mustDecode(t *testing.T, in *Input) []Instruction {
	t.Helper()
	insts, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return insts
}

func decodeError(t *testing.T, in *Input, kind error) *DecodeError {
	t.Helper()
	_, err := Decode(in)
	if !errors.Is(err, kind) {
		t.Fatalf("Decode error = %v, want %v", err, kind)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error is %T, want *DecodeError", err)
	}
	return de
}

func TestDecodeVariable(t *testing.T) {
	code := []byte{0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x14, 0x85, 0x00, 0x00}
	insts := mustDecode(t, testInput(code...))

	want := []Instruction{{
		Position: 0x100,
		Bytes:    code,
		Kind:     KindMeta,
		Code:     byte(MetaVariable),
		Expressions: []Expression{
			{Kind: ExprVariable, Role: "variable", Namespace: 0xA4, Index: 5, Name: "g_05"},
			{Kind: ExprOperator, Role: "operator", Operator: OperatorAssign},
			roled(IntConst(5), "value"),
		},
		Labeled: true,
	}}
	if diff := cmp.Diff(want, insts); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVariablePadding(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"config", []byte{0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x14, 0xC0, 1, 2, 3, 4}},
		{"variable", []byte{0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x14, 0x28, 0x0A, 0xA0, 0x01, 0x14, 0x00}},
		{"random", []byte{0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x17, 0x33, 0x0A, 0x89, 0x14, 0x00}},
		{"rgba", []byte{0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x14, 0xE0, 1, 2, 3, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts := mustDecode(t, testInput(tt.code...))
			if len(insts) != 1 || len(insts[0].Bytes) != len(tt.code) {
				t.Fatalf("got %d instructions, want one spanning %d bytes", len(insts), len(tt.code))
			}
		})
	}
}

func TestDecodeVariableRequiresVariableRef(t *testing.T) {
	de := decodeError(t, testInput(0xFE, 0x85, 0x14, 0x85, 0x00, 0x00), ErrStructural)
	if de.Trail[len(de.Trail)-2] != "at MetaOpcode.Variable" {
		t.Errorf("trail = %q", de.Trail)
	}
}

func TestDecodeVariableEnum(t *testing.T) {
	symbols := DefaultSymbols.With(
		map[string]string{"g_05": "route"},
		map[string]map[int]string{"g_05": {5: "FIVE"}},
	)
	insts, err := NewDecoder(symbols).Decode(testInput(0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x14, 0x85, 0x00, 0x00))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	exprs := insts[0].Expressions
	if exprs[0].Display() != "route" || exprs[2].Display() != "FIVE" {
		t.Errorf("got %s %s, want route FIVE", exprs[0].Display(), exprs[2].Display())
	}
	if exprs[0].Name != "g_05" {
		t.Errorf("canonical name changed to %q", exprs[0].Name)
	}
}

func TestDecodeUnknownMeta(t *testing.T) {
	de := decodeError(t, testInput(0x99), ErrUnknownOpcode)
	want := []string{"at MetaOpcode(0x99)", "at position 0x100"}
	if diff := cmp.Diff(want, de.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
	if de.Byte != 0x99 || de.Position != 0x100 {
		t.Errorf("Byte = 0x%02X, Position = 0x%x", de.Byte, de.Position)
	}
}

func TestDecodeGoto(t *testing.T) {
	insts := mustDecode(t, testInput(0x00, 0x07, 0x01, 0x00))
	want := []Switch{{Ordinal: 1, Target: 0x120}}
	if diff := cmp.Diff(want, insts[0].Switches); diff != "" {
		t.Errorf("switches mismatch (-want +got):\n%s", diff)
	}
	if insts[0].Kind != KindFlow || insts[0].Code != byte(FlowGoto) {
		t.Errorf("got %s %s", insts[0].Kind, insts[0].Name())
	}
}

func TestDecodeGotoOutOfRange(t *testing.T) {
	de := decodeError(t, testInput(0x00, 0x07, 0x05, 0x00), ErrResolution)
	want := []string{`for expression "jump target"`, "at FlowOpcode.Goto", "at position 0x100"}
	if diff := cmp.Diff(want, de.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
	if de.Offset != 2 {
		t.Errorf("Offset = %d, want 2", de.Offset)
	}
}

func TestDecodeTrailingFlowEnd(t *testing.T) {
	insts := mustDecode(t, testInput(0x00, 0x07, 0x01, 0x00, 0x00))
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}
	last := insts[1]
	if last.Kind != KindFlow || last.Code != byte(FlowEnd) || !bytes.Equal(last.Bytes, []byte{0x00}) {
		t.Errorf("last instruction = %+v", last)
	}
	if last.Position != 0x104 || last.Labeled {
		t.Errorf("Position = 0x%x, Labeled = %v", last.Position, last.Labeled)
	}
}

func TestDecodeGotoIf(t *testing.T) {
	code := []byte{
		0x00, 0x0A, 0x01,
		0x28, 0x0A, 0xA4, 0x05, 0x14, // g_05
		0x0C, 0x01, // ==
		0x85,       // 5
		0x01, 0x00,
		0x01, 0x00, // label 1
	}
	insts := mustDecode(t, testInput(code...))
	inst := insts[0]
	if got := joinExpressions(inst.Expressions, " "); got != "g_05 == 5" {
		t.Errorf("expressions = %q", got)
	}
	if inst.Switches[0].Target != 0x120 {
		t.Errorf("target = 0x%x, want 0x120", inst.Switches[0].Target)
	}
	if len(inst.Bytes) != len(code) {
		t.Errorf("consumed %d bytes, want %d", len(inst.Bytes), len(code))
	}
}

func TestDecodeSwitch(t *testing.T) {
	code := []byte{
		0x00, 0x26, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x00,
		0x00, 0x27, 0x81, 0x01, 0x00,
		0x00, 0x27, 0x82, 0x00, 0x00,
		0x00, 0x00,
	}
	symbols := DefaultSymbols.With(nil, map[string]map[int]string{"g_05": {1: "ONE"}})
	insts, err := NewDecoder(symbols).Decode(testInput(code...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want switch and end", len(insts))
	}
	sw := insts[0].Switches
	if len(sw) != 2 {
		t.Fatalf("got %d cases, want 2", len(sw))
	}
	if sw[0].Case.Display() != "ONE" || sw[0].Target != 0x120 {
		t.Errorf("case 0 = %s -> 0x%x", sw[0].Case.Display(), sw[0].Target)
	}
	if sw[1].Case.Display() != "2" || sw[1].Target != 0x100 {
		t.Errorf("case 1 = %s -> 0x%x", sw[1].Case.Display(), sw[1].Target)
	}
	if len(insts[0].Bytes) != 18 {
		t.Errorf("switch consumed %d bytes, want 18", len(insts[0].Bytes))
	}
}

func TestDecodeSwitchRequiresCase(t *testing.T) {
	de := decodeError(t, testInput(0x00, 0x26, 0x85, 0x00, 0x00, 0x00), ErrStructural)
	want := []string{"at case 0", "at FlowOpcode.Switch", "at position 0x100"}
	if diff := cmp.Diff(want, de.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
	if de.Offset != 4 {
		t.Errorf("Offset = %d, want 4", de.Offset)
	}

	decodeError(t, testInput(0x00, 0x26, 0x85, 0x00), ErrTruncated)
}

func TestDecodeCall(t *testing.T) {
	insts := mustDecode(t, testInput(0x00, 0x0D, 0x81, 0x4C, 0x01))
	exprs := insts[0].Expressions
	if len(exprs) != 1 || exprs[0].Value != 332 || exprs[0].Symbol != "SHAKE_FD_1" {
		t.Errorf("expressions = %+v", exprs)
	}

	decodeError(t, testInput(0x00, 0x0D, 0x82, 0x4C, 0x01), ErrStructural)
}

func TestDecodeGotoIfFlag(t *testing.T) {
	insts := mustDecode(t, testInput(0x00, 0x15, 0x01, 0xA0, 0x20, 0x81, 0x01, 0x00))
	got := joinExpressions(insts[0].Expressions, " ")
	if got != "TRUE MOVIE_SKIPPED" {
		t.Errorf("expressions = %q", got)
	}
	if insts[0].Switches[0].Target != 0x120 {
		t.Errorf("target = 0x%x", insts[0].Switches[0].Target)
	}
}

func TestDecodeTurnMode(t *testing.T) {
	insts := mustDecode(t, testInput(0x00, 0x19, 0x81, 0x84))
	if got := joinExpressions(insts[0].Expressions, " "); got != "1 ON" {
		t.Errorf("expressions = %q", got)
	}
}

func TestDecodeUnknownFlow(t *testing.T) {
	de := decodeError(t, testInput(0x00, 0x42), ErrUnknownOpcode)
	if de.Trail[0] != "at FlowOpcode(0x42)" {
		t.Errorf("trail = %q", de.Trail)
	}
}

func TestDecodeCommands(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want string
	}{
		{"LoadBG", []byte{0x10, 0x0C, 0, 0, 0, 0, 0x01, 0x00, 0x80, 0x81}, `"bg01" 0 1`},
		{"PlayBGM", []byte{0x10, 0x03, 0xA0, 0x1A, 0x85}, `"bgm1a" 5`},
		{"PlaySFX", []byte{0x10, 0x05, 's', 'e', 0x00, 0x81, 0x85}, `"se" 5`},
		{"StartAnim", []byte{0x10, 0x20, 0x84}, "SCREEN_SHAKE_HARD"},
		{"LoadFG", []byte{0x10, 0x0F, 0x81, 0, 0, 0, 0, 0x00, 0x00, 0xA0, 0x10, 0x83}, `0 "bg00" 16 FADE_IN`},
		{"StopBGM", []byte{0x10, 0x04}, ""},
		{"OverlayMono", []byte{0x10, 0x45, 0x8A, 0x81}, "10 WHITE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts := mustDecode(t, testInput(tt.code...))
			if len(insts) != 1 {
				t.Fatalf("got %d instructions, want 1", len(insts))
			}
			inst := insts[0]
			if inst.Kind != KindCommand || Opcode(inst.Code).Name() != tt.name {
				t.Errorf("got %s %s, want %s", inst.Kind, inst.Name(), tt.name)
			}
			if got := joinExpressions(inst.Expressions, " "); got != tt.want {
				t.Errorf("expressions = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	de := decodeError(t, testInput(0x10, 0xFF), ErrUnknownOpcode)
	if de.Trail[0] != "at Opcode(0xFF)" {
		t.Errorf("trail = %q", de.Trail)
	}

	de = decodeError(t, testInput(0x10, 0x0C, 0, 0, 0, 0, 0x05, 0x00, 0x80, 0x81), ErrResolution)
	want := []string{`for expression "image name"`, "at Opcode.LoadBG", "at position 0x100"}
	if diff := cmp.Diff(want, de.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}

	decodeError(t, testInput(0x10, 0x0C, 0, 1, 0, 0, 0x00, 0x00, 0x80, 0x81), ErrStructural)
	decodeError(t, testInput(0x10, 0x01, 'a', 'b'), ErrTruncated)

	de = decodeError(t, testInput(0x10, 0x03, 0xB0, 0xFF, 0x85), ErrResolution)
	if de.Trail[0] != `for expression "bgm name"` {
		t.Errorf("trail = %q", de.Trail)
	}
}

func TestDecodeText(t *testing.T) {
	insts := mustDecode(t, testInput(0xFF, 0x00, 0x00, 0xFF, 0x01, 0x00))
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}

	first := insts[0]
	if first.Kind != KindText || first.Code != byte(MetaText) {
		t.Errorf("got %s 0x%02X", first.Kind, first.Code)
	}
	if diff := cmp.Diff([]Switch{{Ordinal: 0}}, first.Switches); diff != "" {
		t.Errorf("switches mismatch (-want +got):\n%s", diff)
	}
	want := []TextualInstruction{
		{Position: 0x500, Bytes: []byte{0x48, 0x69, 0x01}, Kind: TextLiteral, Code: 0x48, Text: "Hi\n"},
		{Position: 0x503, Bytes: []byte{0x02}, Kind: TextCommand, Code: byte(TextWait)},
		{Position: 0x504, Bytes: []byte{0x00}, Kind: TextCommand, Code: byte(TextEnd)},
	}
	if diff := cmp.Diff(want, first.Textual); diff != "" {
		t.Errorf("textual mismatch (-want +got):\n%s", diff)
	}

	// The last subroutine runs to the end of the region.
	last := insts[1].Textual
	if len(last) != 2 || last[0].Text != "A" || last[0].Position != 0x505 {
		t.Errorf("last subroutine = %+v", last)
	}
}

func TestDecodeTextErrors(t *testing.T) {
	decodeError(t, testInput(0xFF, 0x02, 0x00), ErrResolution)

	in := testInput(0xFF, 0x00, 0x00)
	in.TextualBytecodes = []byte{0x05, 0x81, 0x00, 0x41, 0x00}
	de := decodeError(t, in, ErrStructural)
	want := []string{
		"at TextualOpcode.MarkLog",
		"at position 0x500",
		"at MetaOpcode.Text",
		"at position 0x100",
	}
	if diff := cmp.Diff(want, de.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
	if de.Position != 0x500 {
		t.Errorf("Position = 0x%x, want 0x500", de.Position)
	}
	if !strings.HasPrefix(de.Error(), "expected a zero-value expression") {
		t.Errorf("Error() = %q", de.Error())
	}
}

func TestDecodeIdempotent(t *testing.T) {
	code := []byte{
		0xFE, 0x28, 0x0A, 0xA4, 0x05, 0x14, 0x14, 0x85, 0x00, 0x00,
		0x10, 0x0C, 0, 0, 0, 0, 0x01, 0x00, 0x80, 0x81,
		0xFF, 0x00, 0x00,
		0x00, 0x07, 0x01, 0x00,
		0x00,
	}
	in := testInput(code...)
	orig := bytes.Clone(code)

	first := mustDecode(t, in)
	second := mustDecode(t, in)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("decodes differ (-first +second):\n%s", diff)
	}
	if !bytes.Equal(in.Bytecodes, orig) {
		t.Error("Decode modified its input")
	}
	if len(first) != 5 {
		t.Errorf("got %d instructions, want 5", len(first))
	}

	var total int
	for _, inst := range first {
		total += len(inst.Bytes)
	}
	if total != len(code) {
		t.Errorf("instructions cover %d bytes, want %d", total, len(code))
	}
}

func TestDecodeEmptyLabels(t *testing.T) {
	in := testInput(0x00)
	in.Labels = nil
	if _, err := Decode(in); !errors.Is(err, ErrResolution) {
		t.Errorf("Decode error = %v, want ErrResolution", err)
	}
}
