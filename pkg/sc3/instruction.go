package sc3

import "fmt"

// InstructionKind is the dispatch layer an instruction was decoded in.
type InstructionKind uint8

const (
	KindMeta    InstructionKind = iota // Variable assignment, Code is the meta byte
	KindFlow                           // Code is a FlowOpcode
	KindCommand                        // Code is an Opcode
	KindText                           // Text subroutine call, Code is the meta byte
)

func (k InstructionKind) String() string {
	switch k {
	case KindMeta:
		return "Meta"
	case KindFlow:
		return "Flow"
	case KindCommand:
		return "Command"
	case KindText:
		return "Text"
	}
	return fmt.Sprintf("InstructionKind(%d)", uint8(k))
}

// Switch is one outgoing edge of an instruction. Case is nil for
// unconditional edges. Target is the resolved absolute position; text calls
// leave it zero and carry the subroutine ordinal only.
type Switch struct {
	Case    *Expression `cbor:"1,keyasint,omitempty"`
	Ordinal int         `cbor:"2,keyasint"`
	Target  uint32      `cbor:"3,keyasint,omitempty"`
}

// Instruction is one decoded instruction of the main stream.
type Instruction struct {
	Position    uint32               `cbor:"1,keyasint"`
	Bytes       []byte               `cbor:"2,keyasint"`
	Kind        InstructionKind      `cbor:"3,keyasint"`
	Code        byte                 `cbor:"4,keyasint"`
	Expressions []Expression         `cbor:"5,keyasint,omitempty"`
	Switches    []Switch             `cbor:"6,keyasint,omitempty"`
	Textual     []TextualInstruction `cbor:"7,keyasint,omitempty"`
	Labeled     bool                 `cbor:"8,keyasint,omitempty"`
}

// Name returns the opcode name in the form used by error trails, e.g.
// "FlowOpcode.Goto" or "Opcode.LoadBG".
func (inst *Instruction) Name() string {
	switch inst.Kind {
	case KindFlow:
		return FlowOpcode(inst.Code).String()
	case KindCommand:
		return Opcode(inst.Code).String()
	}
	return MetaOpcode(inst.Code).String()
}

// TextualKind distinguishes literal text from in-dialogue commands.
type TextualKind uint8

const (
	TextCommand TextualKind = iota
	TextLiteral
)

func (k TextualKind) String() string {
	if k == TextLiteral {
		return "Literal"
	}
	return "Command"
}

// Choice is one option of a Choice command. Cond is nil for options that
// are always shown.
type Choice struct {
	Cond *Expression `cbor:"1,keyasint,omitempty"`
	Text string      `cbor:"2,keyasint"`
}

// TextualInstruction is one decoded element of a textual subroutine.
// Position is absolute within the textual region.
type TextualInstruction struct {
	Position    uint32       `cbor:"1,keyasint"`
	Bytes       []byte       `cbor:"2,keyasint"`
	Kind        TextualKind  `cbor:"3,keyasint"`
	Code        byte         `cbor:"4,keyasint"`
	Expressions []Expression `cbor:"5,keyasint,omitempty"`
	Choices     []Choice     `cbor:"6,keyasint,omitempty"`
	Text        string       `cbor:"7,keyasint,omitempty"`
}

// Input is everything Decode needs from one script container.
type Input struct {
	Bytecodes        []byte   // Main instruction stream
	Labels           []uint32 // Absolute positions; Labels[0] is the stream base
	TextualIndexes   []uint32 // Absolute start of each textual subroutine
	TextualBytecodes []byte   // Textual region, starting at TextualIndexes[0]
	ImageNames       []string
}
