package sc3

import (
	"fmt"
	"strings"
)

// Disassemble returns a pseudo-assembly listing of decoded instructions.
func Disassemble(instructions []Instruction) string {
	return DisassembleWithName("", instructions)
}

// DisassembleWithName returns a listing with a name header.
//
// Each line is "[labeled:XXXXXXXX]hex bytes: pseudo code". Text calls are
// followed by a "__[XXXXXXXX]" line holding the dialogue with {Command}
// markers.
func DisassembleWithName(name string, instructions []Instruction) string {
	var sb strings.Builder

	if name != "" {
		fmt.Fprintf(&sb, "; === %s ===\n", name)
	}
	for i := range instructions {
		disassembleInstruction(&sb, &instructions[i])
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, inst *Instruction) {
	sb.WriteString("[")
	if inst.Labeled {
		sb.WriteString("labeled:")
	}
	fmt.Fprintf(sb, "%08X]%s: ", inst.Position, hexBytes(inst.Bytes))

	switch inst.Kind {
	case KindMeta:
		sb.WriteString(joinExpressions(inst.Expressions, " "))
	case KindText:
		sb.WriteString("text\n")
		disassembleText(sb, inst.Textual)
	case KindFlow:
		sb.WriteString(flowLine(inst))
	case KindCommand:
		sb.WriteString(Opcode(inst.Code).Name())
		if len(inst.Expressions) > 0 {
			sb.WriteString(" ")
			sb.WriteString(joinExpressions(inst.Expressions, " "))
		}
	}
	sb.WriteString("\n")
}

func flowLine(inst *Instruction) string {
	args := joinExpressions(inst.Expressions, " ")
	switch FlowOpcode(inst.Code) {
	case FlowEnd:
		return "end"
	case FlowGoto:
		return fmt.Sprintf("goto %08X", inst.Switches[0].Target)
	case FlowGotoIf:
		return fmt.Sprintf("if %s goto %08X", args, inst.Switches[0].Target)
	case FlowSwitch:
		var sb strings.Builder
		sb.WriteString("switch " + args)
		for _, sw := range inst.Switches {
			fmt.Fprintf(&sb, "\ncase %s goto %08X", sw.Case.Display(), sw.Target)
		}
		return sb.String()
	case FlowDelay:
		return "delay " + args
	case FlowSuspend:
		return "suspend"
	case FlowCall:
		return "call_system " + args
	case FlowTurnFlagOn:
		return "turn_on " + args
	case FlowTurnFlagOff:
		return "turn_off " + args
	case FlowTurnFlag25On:
		return "turn_on 37"
	case FlowTurnMode:
		return "turn_mode " + args
	case FlowGotoIfFlag:
		return fmt.Sprintf("if_flag %s = %s goto %08X",
			inst.Expressions[1].Display(), inst.Expressions[0].Display(), inst.Switches[0].Target)
	}
	return fmt.Sprintf("flow_unk_%02X %s", inst.Code, args)
}

func disassembleText(sb *strings.Builder, textual []TextualInstruction) {
	if len(textual) == 0 {
		sb.WriteString("__[]")
		return
	}
	fmt.Fprintf(sb, "__[%08X]", textual[0].Position)
	for i := range textual {
		ti := &textual[i]
		if ti.Kind == TextLiteral {
			sb.WriteString(ti.Text)
			continue
		}
		op := TextualOpcode(ti.Code)
		switch op {
		case TextStyle:
			sb.WriteString(styleMarker(ti.Expressions[0].Value))
		case TextChoice:
			fmt.Fprintf(sb, "{%s %s\n", op.Name(), ti.Expressions[0].Display())
			for _, ch := range ti.Choices {
				if ch.Cond != nil {
					sb.WriteString("<" + ch.Cond.Display() + ">")
				}
				sb.WriteString(ch.Text)
			}
			sb.WriteString("}")
		default:
			sb.WriteString("{" + op.Name())
			if len(ti.Expressions) > 0 {
				sb.WriteString(" " + joinExpressions(ti.Expressions, " "))
			}
			sb.WriteString("}")
		}
	}
}

func styleMarker(state int) string {
	switch state {
	case 0:
		return "{Emphasized}"
	case 1:
		return "{Normal}"
	case 4:
		return "{ResetStyle}"
	}
	return fmt.Sprintf("{Style %d}", state)
}

func joinExpressions(exprs []Expression, sep string) string {
	parts := make([]string, len(exprs))
	for i := range exprs {
		parts[i] = exprs[i].Display()
	}
	return strings.Join(parts, sep)
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}
