package sc3

import "fmt"

// MetaOpcode is the first byte of every instruction in the main stream.
type MetaOpcode byte

const (
	MetaFlow     MetaOpcode = 0x00 // Followed by a FlowOpcode
	MetaCommand  MetaOpcode = 0x10 // Followed by an Opcode
	MetaVariable MetaOpcode = 0xFE // variable operator value
	MetaText     MetaOpcode = 0xFF // Text subroutine call: MetaText <ordinal:u16>
)

// FlowOpcode selects a control-flow instruction after MetaFlow.
type FlowOpcode byte

const (
	FlowEnd          FlowOpcode = 0x00 // End of the main instruction section
	FlowDelay        FlowOpcode = 0x05 // FlowDelay <frames:expr>
	FlowSuspend      FlowOpcode = 0x06
	FlowGoto         FlowOpcode = 0x07 // FlowGoto <label:u16>
	FlowGotoIf       FlowOpcode = 0x0A // FlowGotoIf 01 <lhs> <op> 01 <rhs> 01 00 <label:u16>
	FlowCall         FlowOpcode = 0x0D // FlowCall <1:expr> <system label:u16>
	FlowTurnFlagOn   FlowOpcode = 0x12 // FlowTurnFlagOn <flag:expr>
	FlowTurnFlagOff  FlowOpcode = 0x13 // FlowTurnFlagOff <flag:expr>
	FlowGotoIfFlag   FlowOpcode = 0x15 // FlowGotoIfFlag <value:u8> <mask:expr> <mode:expr> <label:u16>
	FlowTurnMode     FlowOpcode = 0x19 // FlowTurnMode <a:expr> <b:expr>
	FlowSwitch       FlowOpcode = 0x26 // FlowSwitch <test:expr> 00 (0x2700 <case:expr> <label:u16>)+
	FlowTurnFlag25On FlowOpcode = 0x28
)

// Opcode selects an engine command after MetaCommand.
type Opcode byte

const (
	// ========================================================================
	// Script, audio (0x01-0x09)
	// ========================================================================

	OpToFile    Opcode = 0x01
	OpPlayBGM   Opcode = 0x03
	OpStopBGM   Opcode = 0x04
	OpPlaySFX   Opcode = 0x05
	OpStopSFX   Opcode = 0x06
	OpWaitSFX   Opcode = 0x07
	OpPlayVoice Opcode = 0x08
	OpWaitVoice Opcode = 0x09

	// ========================================================================
	// Background and foreground layers (0x0C-0x16)
	// ========================================================================

	OpLoadBG     Opcode = 0x0C
	OpRemoveBG   Opcode = 0x0D
	OpLoadFG     Opcode = 0x0F
	OpRemoveFG   Opcode = 0x10
	OpLoadFG2    Opcode = 0x12
	OpRemoveFG3  Opcode = 0x13
	OpSetFGOrder Opcode = 0x14
	OpAffectFG   Opcode = 0x15
	OpLoadFG3    Opcode = 0x16

	// ========================================================================
	// Dialog box, chapters, animations (0x18-0x2B)
	// ========================================================================

	OpHideDialog     Opcode = 0x18
	OpShowDialog     Opcode = 0x19
	OpMarkChoiceID   Opcode = 0x1A
	OpShowChapter    Opcode = 0x1D
	OpDelay          Opcode = 0x1E // May also wait for interaction
	OpShowClock      Opcode = 0x1F
	OpStartAnim      Opcode = 0x20
	OpCloseAnim      Opcode = 0x21
	OpMarkLocationID Opcode = 0x24
	OpLoadBGKeepFG   Opcode = 0x27
	OpUnk2B          Opcode = 0x2B

	// ========================================================================
	// Gallery and movies (0x37-0x3C)
	// ========================================================================

	OpUnlockImage  Opcode = 0x37
	OpOpenMovie    Opcode = 0x39
	OpStopMovie    Opcode = 0x3A
	OpSetMovieRect Opcode = 0x3B
	OpPlayMovie    Opcode = 0x3C

	// ========================================================================
	// Camera and screen effects (0x40-0x46)
	// ========================================================================

	OpLoadBGCrop     Opcode = 0x40
	OpChangeBGCrop   Opcode = 0x41
	OpSetVolume      Opcode = 0x43
	OpOverlayMono    Opcode = 0x45
	OpSetDialogColor Opcode = 0x46
)

// TextualOpcode is a command byte inside a textual subroutine. Bytes that
// are not textual opcodes start a literal text span.
type TextualOpcode byte

const (
	TextEnd       TextualOpcode = 0x00 // Return to the main routine
	TextNewLine   TextualOpcode = 0x01 // Only valid inside a literal span
	TextWait      TextualOpcode = 0x02 // Wait for a click
	TextClear     TextualOpcode = 0x03 // Clear text, reset text state
	TextSleep     TextualOpcode = 0x04 // TextSleep <frames:expr>
	TextMarkLog   TextualOpcode = 0x05 // Backlog marker, TextMarkLog <0:expr>
	TextChoice    TextualOpcode = 0x0B
	TextWaitVoice TextualOpcode = 0x0C
	TextVoice     TextualOpcode = 0x0D // TextVoice <name:cstring>
	TextMark      TextualOpcode = 0x0E // Last point the game can be saved
	TextStyle     TextualOpcode = 0x10 // TextStyle <state:u8>
	TextBig       TextualOpcode = 0x11 // TextBig 03
)

var metaNames = map[MetaOpcode]string{
	MetaFlow:     "Flow",
	MetaCommand:  "Command",
	MetaVariable: "Variable",
	MetaText:     "Text",
}

var flowNames = map[FlowOpcode]string{
	FlowEnd:          "End",
	FlowDelay:        "Delay",
	FlowSuspend:      "Suspend",
	FlowGoto:         "Goto",
	FlowGotoIf:       "GotoIf",
	FlowCall:         "Call",
	FlowTurnFlagOn:   "TurnFlagOn",
	FlowTurnFlagOff:  "TurnFlagOff",
	FlowGotoIfFlag:   "GotoIfFlag",
	FlowTurnMode:     "TurnMode",
	FlowSwitch:       "Switch",
	FlowTurnFlag25On: "TurnFlag25On",
}

var textualNames = map[TextualOpcode]string{
	TextEnd:       "End",
	TextNewLine:   "NewLine",
	TextWait:      "Wait",
	TextClear:     "Clear",
	TextSleep:     "Sleep",
	TextMarkLog:   "MarkLog",
	TextChoice:    "Choice",
	TextWaitVoice: "WaitVoice",
	TextVoice:     "Voice",
	TextMark:      "Mark",
	TextStyle:     "Style",
	TextBig:       "Big",
}

// OperandKind is one step of a command's operand layout.
type OperandKind uint8

const (
	OperandExpr    OperandKind = iota // Tagged expression
	OperandDiscard                    // Tagged expression that is read and dropped
	OperandString                     // NUL terminated ASCII string
	OperandImage                      // Raw u16 ordinal into the image name list
	OperandMusic                      // Expression turned into a bgm track name
	OperandPad4                       // Four zero bytes
)

// Operand describes one argument of a command.
type Operand struct {
	Kind OperandKind
	Role string // Argument role, used in listings and error trails
}

// CommandInfo provides metadata about each command opcode.
type CommandInfo struct {
	Name     string
	Operands []Operand
}

func exprArg(role string) Operand { return Operand{OperandExpr, role} }
func imageArg(role string) Operand { return Operand{OperandImage, role} }

var pad4 = Operand{Kind: OperandPad4}

// commandInfoTable is the full command set. A command byte that is not a key
// here is an unknown opcode.
var commandInfoTable = map[Opcode]CommandInfo{
	OpToFile:    {"ToFile", []Operand{{OperandString, "script name"}}},
	OpPlayBGM:   {"PlayBGM", []Operand{{OperandMusic, "bgm name"}, exprArg("bgm volume")}},
	OpStopBGM:   {"StopBGM", nil},
	OpPlaySFX:   {"PlaySFX", []Operand{{OperandString, "sfx name"}, {OperandDiscard, "loop"}, exprArg("sfx volume")}},
	OpStopSFX:   {"StopSFX", nil},
	OpWaitSFX:   {"WaitSFX", nil},
	OpPlayVoice: {"PlayVoice", []Operand{{OperandString, "voice name"}}},
	OpWaitVoice: {"WaitVoice", nil},

	OpLoadBG:   {"LoadBG", []Operand{pad4, imageArg("image name"), exprArg("mode1"), exprArg("mode2")}},
	OpRemoveBG: {"RemoveBG", []Operand{exprArg("target color"), exprArg("mode1"), exprArg("mode2")}},
	OpLoadFG: {"LoadFG", []Operand{
		exprArg("fg id"), pad4, imageArg("image name"), exprArg("horizontal position"), exprArg("mode"),
	}},
	OpRemoveFG: {"RemoveFG", []Operand{exprArg("fg id"), exprArg("mode")}},
	OpLoadFG2: {"LoadFG2", []Operand{
		exprArg("fg id1"), exprArg("fg id2"),
		pad4, imageArg("image1 name"),
		pad4, imageArg("image2 name"),
		exprArg("dx1"), exprArg("dx2"), exprArg("mode"),
	}},
	OpRemoveFG3:  {"RemoveFG3", []Operand{exprArg("sum of ids"), exprArg("mode")}},
	OpSetFGOrder: {"SetFGOrder", []Operand{exprArg("fg id1 depth"), exprArg("fg id2 depth"), exprArg("fg id4 depth")}},
	OpAffectFG:   {"AffectFG", []Operand{exprArg("fg id"), exprArg("effect")}},
	OpLoadFG3: {"LoadFG3", []Operand{
		pad4, imageArg("image1 name"),
		pad4, imageArg("image2 name"),
		pad4, imageArg("image3 name"),
		exprArg("dx1"), exprArg("dx2"), exprArg("dx3"), exprArg("mode"),
	}},

	OpHideDialog:     {"HideDialog", nil},
	OpShowDialog:     {"ShowDialog", nil},
	OpMarkChoiceID:   {"MarkChoiceId", []Operand{exprArg("a1"), exprArg("a2")}},
	OpShowChapter:    {"ShowChapter", []Operand{pad4, imageArg("image name")}},
	OpDelay:          {"Delay", []Operand{exprArg("nFrame")}},
	OpShowClock:      {"ShowClock", []Operand{exprArg("hour"), exprArg("minute")}},
	OpStartAnim:      {"StartAnim", []Operand{exprArg("animId")}},
	OpCloseAnim:      {"CloseAnim", []Operand{exprArg("animId")}},
	OpMarkLocationID: {"MarkLocationId", []Operand{exprArg("a1")}},
	OpLoadBGKeepFG:   {"LoadBGKeepFG", []Operand{pad4, imageArg("bg name"), exprArg("mode1"), exprArg("mode2")}},
	OpUnk2B:          {"Unk2B", []Operand{exprArg("a1")}},

	OpUnlockImage:  {"UnlockImage", []Operand{pad4, imageArg("image name")}},
	OpOpenMovie:    {"OpenMovie", []Operand{{OperandString, "video name"}}},
	OpStopMovie:    {"StopMovie", nil},
	OpSetMovieRect: {"SetMovieRect", []Operand{exprArg("a1")}},
	OpPlayMovie:    {"PlayMovie", nil},

	OpLoadBGCrop: {"LoadBGCrop", []Operand{
		pad4, imageArg("bg name"), exprArg("mode1"), exprArg("mode2"),
		exprArg("x"), exprArg("y"), exprArg("hx"), exprArg("hy"),
	}},
	OpChangeBGCrop:   {"ChangeBGCrop", []Operand{exprArg("x"), exprArg("y"), exprArg("hx"), exprArg("hy"), exprArg("duration")}},
	OpSetVolume:      {"SetVolume", []Operand{exprArg("a1")}},
	OpOverlayMono:    {"OverlayMono", []Operand{exprArg("nFrame"), exprArg("colorCode")}},
	OpSetDialogColor: {"SetDialogColor", []Operand{exprArg("colorCode")}},
}

// GetCommandInfo returns metadata for a command opcode.
// The second result is false if the opcode is not a known command.
func GetCommandInfo(op Opcode) (CommandInfo, bool) {
	info, ok := commandInfoTable[op]
	return info, ok
}

// AllCommands returns every defined command opcode.
func AllCommands() []Opcode {
	ops := make([]Opcode, 0, len(commandInfoTable))
	for op := range commandInfoTable {
		ops = append(ops, op)
	}
	return ops
}

func (op MetaOpcode) String() string {
	if name, ok := metaNames[op]; ok {
		return "MetaOpcode." + name
	}
	return fmt.Sprintf("MetaOpcode(0x%02X)", byte(op))
}

func (op FlowOpcode) String() string {
	if name, ok := flowNames[op]; ok {
		return "FlowOpcode." + name
	}
	return fmt.Sprintf("FlowOpcode(0x%02X)", byte(op))
}

func (op Opcode) String() string {
	if info, ok := commandInfoTable[op]; ok {
		return "Opcode." + info.Name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}

func (op TextualOpcode) String() string {
	if name, ok := textualNames[op]; ok {
		return "TextualOpcode." + name
	}
	return fmt.Sprintf("TextualOpcode(0x%02X)", byte(op))
}

// Name returns the bare command name, e.g. "LoadBG".
func (op Opcode) Name() string {
	if info, ok := commandInfoTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Unk%02X", byte(op))
}

// Name returns the bare flow opcode name, e.g. "Goto".
func (op FlowOpcode) Name() string {
	if name, ok := flowNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Unk%02X", byte(op))
}

// Name returns the bare textual opcode name, e.g. "Choice".
func (op TextualOpcode) Name() string {
	if name, ok := textualNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Unk%02X", byte(op))
}

// IsCommand reports whether op starts a textual command. NewLine is not a
// command: it only ever terminates a literal span.
func (op TextualOpcode) IsCommand() bool {
	if op == TextNewLine {
		return false
	}
	_, ok := textualNames[op]
	return ok
}
