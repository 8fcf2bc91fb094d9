package sc3

import "fmt"

// decodeCommand reads the operands of a command following its layout in
// commandInfoTable.
func (st *decodeState) decodeCommand(op Opcode) error {
	info, ok := commandInfoTable[op]
	if !ok {
		de := decodeErrorf(ErrUnknownOpcode, st.c.pos-1, "unknown opcode 0x%02x", byte(op))
		de.Byte = byte(op)
		return de
	}

	c, inst := st.c, st.inst
	for _, operand := range info.Operands {
		var (
			e   Expression
			err error
		)
		switch operand.Kind {
		case OperandPad4:
			if err := c.skipPadding(4); err != nil {
				return err
			}
			continue
		case OperandDiscard:
			if _, err := readExpression(c, operand.Role, 0); err != nil {
				return err
			}
			continue
		case OperandExpr:
			e, err = readExpression(c, operand.Role, 0)
		case OperandString:
			e, err = readCStringExpr(c, operand.Role)
		case OperandImage:
			e, err = st.readImage(operand.Role)
		case OperandMusic:
			e, err = st.readMusic(operand.Role)
		default:
			return decodeErrorf(ErrStructural, c.pos, "unsupported operand kind %d", operand.Kind)
		}
		if err != nil {
			return err
		}
		inst.Expressions = append(inst.Expressions, e)
	}
	return nil
}

// readImage reads a raw image ordinal and replaces it with the image name.
func (st *decodeState) readImage(role string) (Expression, error) {
	pos := st.c.pos
	ordinal, err := readRawUint16Expr(st.c, role)
	if err != nil {
		return Expression{}, err
	}
	names := st.in.ImageNames
	if ordinal.Value >= len(names) {
		return Expression{}, withContext(decodeErrorf(ErrResolution, pos,
			"image ordinal %d is out of range (%d images)", ordinal.Value, len(names)),
			"for expression %q", role)
	}
	e := StringConst(names[ordinal.Value])
	e.Role = role
	e.Value = ordinal.Value
	return e, nil
}

// readMusic reads a track number expression and turns it into the track
// name, e.g. 0x1A becomes "bgm1a".
func (st *decodeState) readMusic(role string) (Expression, error) {
	pos := st.c.pos
	e, err := readExpression(st.c, role, 0)
	if err != nil {
		return Expression{}, err
	}
	if !e.IsInt() {
		return Expression{}, withContext(decodeErrorf(ErrResolution, pos,
			"only integer constants name a bgm track, got %s", e.Kind),
			"for expression %q", role)
	}
	if e.Value < 0 {
		return Expression{}, withContext(decodeErrorf(ErrResolution, pos,
			"bgm track %d is negative", e.Value),
			"for expression %q", role)
	}
	e.Form = ConstString
	e.Text = fmt.Sprintf("bgm%02x", e.Value)
	return e, nil
}
