package sc3

import "errors"

const (
	gotoIfMarker   = 0x01
	switchSentinel = 0x2700 // Bytes 00 27
)

// Decoder decodes script units with a fixed symbol table. A Decoder holds
// no per-decode state and may be shared.
type Decoder struct {
	symbols *SymbolTable
}

// NewDecoder returns a decoder that annotates with symbols. A nil table
// means DefaultSymbols.
func NewDecoder(symbols *SymbolTable) *Decoder {
	if symbols == nil {
		symbols = DefaultSymbols
	}
	return &Decoder{symbols: symbols}
}

// Decode decodes in with DefaultSymbols.
func Decode(in *Input) ([]Instruction, error) {
	return NewDecoder(nil).Decode(in)
}

// decodeState is the context of one Decode call: the cursor over the main
// stream, the tables and the instruction under construction.
type decodeState struct {
	c       *cursor
	in      *Input
	labels  *LabelTable
	symbols *SymbolTable
	inst    *Instruction
}

// Decode decodes the whole instruction stream of in. The first error aborts
// the decode; no partial result is returned.
func (d *Decoder) Decode(in *Input) ([]Instruction, error) {
	labels, err := NewLabelTable(in.Labels)
	if err != nil {
		return nil, err
	}
	st := &decodeState{
		c:       newCursor(in.Bytecodes),
		in:      in,
		labels:  labels,
		symbols: d.symbols,
	}

	var out []Instruction
	base := labels.Base()
	for !st.c.eof() {
		start := st.c.pos
		meta, _ := st.c.readByte()
		inst := Instruction{
			Position: base + uint32(start),
			Code:     meta,
		}
		st.inst = &inst

		if err := st.decodeMeta(MetaOpcode(meta)); err != nil {
			return nil, atPosition(err, inst.Position)
		}

		inst.Bytes = st.c.buf[start:st.c.pos]
		inst.Labeled = labels.IsLabeled(inst.Position)
		st.annotate()
		out = append(out, inst)
	}
	return out, nil
}

func (st *decodeState) decodeMeta(meta MetaOpcode) error {
	inst := st.inst
	switch meta {
	case MetaFlow:
		inst.Kind = KindFlow
		if st.c.eof() {
			// A bare trailing 0x00 is the end of the stream.
			inst.Code = byte(FlowEnd)
			return nil
		}
		code, _ := st.c.readByte()
		inst.Code = code
		if err := st.decodeFlow(FlowOpcode(code)); err != nil {
			return withContext(err, "at %s", FlowOpcode(code))
		}
		return nil

	case MetaCommand:
		inst.Kind = KindCommand
		code, err := st.c.readByte()
		if err != nil {
			return withContext(err, "at %s", meta)
		}
		inst.Code = code
		if err := st.decodeCommand(Opcode(code)); err != nil {
			return withContext(err, "at %s", Opcode(code))
		}
		return nil

	case MetaVariable:
		inst.Kind = KindMeta
		if err := st.decodeVariable(); err != nil {
			return withContext(err, "at %s", meta)
		}
		return nil

	case MetaText:
		inst.Kind = KindText
		if err := st.decodeText(); err != nil {
			return withContext(err, "at %s", meta)
		}
		return nil
	}

	inst.Kind = KindMeta
	de := decodeErrorf(ErrUnknownOpcode, st.c.pos-1, "unknown meta opcode 0x%02x", byte(meta))
	de.Byte = byte(meta)
	return withContext(de, "at %s", meta)
}

func (st *decodeState) decodeFlow(op FlowOpcode) error {
	c, inst := st.c, st.inst
	switch op {
	case FlowEnd, FlowSuspend, FlowTurnFlag25On:
		return nil

	case FlowGoto:
		sw, err := st.readJump()
		if err != nil {
			return err
		}
		inst.Switches = []Switch{sw}

	case FlowGotoIf:
		if err := c.skipMarker(1, gotoIfMarker); err != nil {
			return err
		}
		lhs, err := readExpression(c, "left operand", 0)
		if err != nil {
			return err
		}
		opPos := c.pos
		cmp, err := readExpression(c, "comparison", 0)
		if err != nil {
			return err
		}
		if cmp.Kind != ExprOperator {
			return decodeErrorf(ErrStructural, opPos, "expected an operator, got %s", cmp.Kind)
		}
		if err := c.skipMarker(1, gotoIfMarker); err != nil {
			return err
		}
		rhs, err := readExpression(c, "right operand", 0)
		if err != nil {
			return err
		}
		if err := c.skipMarker(1, gotoIfMarker); err != nil {
			return err
		}
		if err := c.skipPadding(1); err != nil {
			return err
		}
		sw, err := st.readJump()
		if err != nil {
			return err
		}
		inst.Expressions = []Expression{lhs, cmp, rhs}
		inst.Switches = []Switch{sw}

	case FlowDelay:
		return st.readExpressions("duration")

	case FlowTurnFlagOn, FlowTurnFlagOff:
		return st.readExpressions("flagIndex")

	case FlowTurnMode:
		return st.readExpressions("a1", "a2")

	case FlowCall:
		argPos := c.pos
		script, err := readExpression(c, "scriptIndex", 0)
		if err != nil {
			return err
		}
		if !script.IsIntValue(1) {
			return decodeErrorf(ErrStructural, argPos,
				"expected expression value 1 as argument 1, got %s", script.Display())
		}
		ordinal, err := readRawUint16Expr(c, "labelOrdinal")
		if err != nil {
			return err
		}
		inst.Expressions = []Expression{ordinal}

	case FlowGotoIfFlag:
		value, err := readRawByteExpr(c, "left operand")
		if err != nil {
			return err
		}
		mask, err := st.readIntExpression("bit mask")
		if err != nil {
			return err
		}
		mode, err := st.readIntExpression("mode")
		if err != nil {
			return err
		}
		flag := TupleConst(mask, mode)
		flag.Role = "flag"
		sw, err := st.readJump()
		if err != nil {
			return err
		}
		inst.Expressions = []Expression{value, flag}
		inst.Switches = []Switch{sw}

	case FlowSwitch:
		return st.decodeSwitch()

	default:
		de := decodeErrorf(ErrUnknownOpcode, c.pos-1, "unknown flow opcode 0x%02x", byte(op))
		de.Byte = byte(op)
		return de
	}
	return nil
}

// decodeSwitch reads: <test:expr> 00 (00 27 <case:expr> <label:u16>)+
// The bytes after the last case are left for the next instruction.
func (st *decodeState) decodeSwitch() error {
	c, inst := st.c, st.inst
	test, err := readExpression(c, "expression to test", 0)
	if err != nil {
		return err
	}
	if err := c.skipPadding(1); err != nil {
		return err
	}
	inst.Expressions = []Expression{test}

	// The first case is required.
	if err := c.skipMarker(2, switchSentinel); err != nil {
		return withContext(err, "at case 0")
	}
	for {
		cond, err := readExpression(c, "case expression", 0)
		if err != nil {
			return withContext(err, "at case %d", len(inst.Switches))
		}
		sw, err := st.readJump()
		if err != nil {
			return withContext(err, "at case %d", len(inst.Switches))
		}
		if test.Kind == ExprVariable {
			st.symbols.annotateEnum(test.Name, &cond)
		}
		sw.Case = &cond
		inst.Switches = append(inst.Switches, sw)

		if v, ok := c.peekUint16(); !ok || v != switchSentinel {
			return nil
		}
		c.pos += 2
	}
}

// decodeVariable reads: <variable> <operator> <value> <padding>
func (st *decodeState) decodeVariable() error {
	c, inst := st.c, st.inst
	lhsPos := c.pos
	lhs, err := readExpression(c, "variable", 0)
	if err != nil {
		return err
	}
	if lhs.Kind != ExprVariable {
		return decodeErrorf(ErrStructural, lhsPos, "expected VariableRef expression, got %s", lhs.Kind)
	}
	op, err := readExpression(c, "operator", 0)
	if err != nil {
		return err
	}
	rhs, err := readExpression(c, "value", 0)
	if err != nil {
		return err
	}
	first, second := valuePadding(rhs)
	if err := c.skipPadding(first); err != nil {
		return withContext(err, "for expression %q", "value")
	}
	if err := c.skipPadding(second); err != nil {
		return withContext(err, "for expression %q", "value")
	}
	st.symbols.annotateEnum(lhs.Name, &rhs)
	inst.Expressions = []Expression{lhs, op, rhs}
	return nil
}

// decodeText reads a subroutine ordinal and decodes the subroutine it names.
func (st *decodeState) decodeText() error {
	c, inst := st.c, st.inst
	ordPos := c.pos
	ordinal, err := readRawUint16Expr(c, "subroutine ordinal")
	if err != nil {
		return err
	}
	seg, pos, err := st.textSegment(ordinal.Value)
	if err != nil {
		err.(*DecodeError).Offset = ordPos
		return withContext(err, "for expression %q", ordinal.Role)
	}
	inst.Switches = []Switch{{Ordinal: ordinal.Value}}

	textual, err := decodeTextual(seg, pos)
	if err != nil {
		return err
	}
	inst.Textual = textual
	return nil
}

// textSegment returns the bytes of textual subroutine ordinal and its
// absolute position.
func (st *decodeState) textSegment(ordinal int) ([]byte, uint32, error) {
	idx := st.in.TextualIndexes
	if ordinal >= len(idx) {
		return nil, 0, decodeErrorf(ErrResolution, 0,
			"text ordinal %d is out of range (%d subroutines)", ordinal, len(idx))
	}
	region := st.in.TextualBytecodes
	begin := int64(idx[ordinal]) - int64(idx[0])
	end := int64(len(region))
	if ordinal+1 < len(idx) {
		end = int64(idx[ordinal+1]) - int64(idx[0])
	}
	if begin < 0 || begin > end || end > int64(len(region)) {
		return nil, 0, decodeErrorf(ErrResolution, 0,
			"text ordinal %d spans 0x%x..0x%x outside the textual region (0x%x bytes)",
			ordinal, begin, end, len(region))
	}
	return region[begin:end], idx[ordinal], nil
}

// readJump reads a raw label ordinal and resolves it.
func (st *decodeState) readJump() (Switch, error) {
	pos := st.c.pos
	ordinal, err := readRawUint16Expr(st.c, "jump target")
	if err != nil {
		return Switch{}, err
	}
	target, err := st.labels.Resolve(ordinal.Value)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Offset = pos
		}
		return Switch{}, withContext(err, "for expression %q", ordinal.Role)
	}
	return Switch{Ordinal: ordinal.Value, Target: target}, nil
}

// readExpressions appends one unpadded expression per role.
func (st *decodeState) readExpressions(roles ...string) error {
	for _, role := range roles {
		e, err := readExpression(st.c, role, 0)
		if err != nil {
			return err
		}
		st.inst.Expressions = append(st.inst.Expressions, e)
	}
	return nil
}

// readIntExpression reads an expression that must be an integer constant.
func (st *decodeState) readIntExpression(role string) (int, error) {
	pos := st.c.pos
	e, err := readExpression(st.c, role, 0)
	if err != nil {
		return 0, err
	}
	if !e.IsInt() {
		return 0, withContext(decodeErrorf(ErrStructural, pos,
			"expected an integer constant, got %s", e.Kind), "for expression %q", role)
	}
	return e.Value, nil
}

// annotate names the arguments of the instruction just decoded.
func (st *decodeState) annotate() {
	inst := st.inst
	switch inst.Kind {
	case KindFlow, KindCommand:
		for i := range inst.Expressions {
			st.symbols.AnnotateArgument(inst.Kind, inst.Code, i, &inst.Expressions[i])
		}
	case KindMeta:
		for i := range inst.Expressions {
			st.symbols.annotateVariables(&inst.Expressions[i])
		}
	}
	for _, sw := range inst.Switches {
		if sw.Case != nil {
			st.symbols.annotateVariables(sw.Case)
		}
	}
}
