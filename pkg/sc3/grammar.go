package sc3

// Expression tags.
const (
	tagVariable    = 0x28 // 28 0A <kind> <index> 14
	tagVariableAlt = 0x2D // 2D 0A <kind> <index> 14
	tagFunction    = 0x33 // 33 0A <expr> 14
	tagOpen        = 0x0A
	tagClose       = 0x14
	tagRGBA        = 0xE0
)

// readExpression decodes one tagged expression and then skips padding zero
// bytes (0, 1, 2 or 4). Config expressions never take padding.
func readExpression(c *cursor, role string, padding int) (Expression, error) {
	e, err := readExpressionBody(c, role)
	if err != nil {
		return Expression{}, withContext(err, "for expression %q", role)
	}
	if e.Kind == ExprConfig {
		padding = 0
	}
	if err := c.skipPadding(padding); err != nil {
		return Expression{}, withContext(err, "for expression %q", role)
	}
	return e, nil
}

func readExpressionBody(c *cursor, role string) (Expression, error) {
	start := c.pos
	mode, err := c.readByte()
	if err != nil {
		return Expression{}, err
	}

	switch {
	case mode >= 0xC0 && mode <= 0xCF:
		fields := []int{int(mode - 0xC0), 0, 0, 0, 0}
		for i := 1; i < len(fields); i++ {
			b, err := c.readByte()
			if err != nil {
				return Expression{}, err
			}
			fields[i] = int(b)
		}
		return Expression{Kind: ExprConfig, Role: role, Fields: fields}, nil

	case mode >= 0xA0 && mode <= 0xAF:
		b, err := c.readByte()
		if err != nil {
			return Expression{}, err
		}
		e := IntConst(256*int(mode-0xA0) + int(b))
		e.Role = role
		return e, nil

	case mode >= 0xB0 && mode <= 0xBF:
		b, err := c.readByte()
		if err != nil {
			return Expression{}, err
		}
		e := IntConst(256*int(mode-0xB0) + (int(b) - 0x100))
		e.Role = role
		return e, nil

	case mode >= 0x80 && mode <= 0x8F:
		e := IntConst(int(mode - 0x80))
		e.Role = role
		return e, nil

	case mode == tagRGBA:
		fields := make([]int, 3)
		for i := range fields {
			b, err := c.readByte()
			if err != nil {
				return Expression{}, err
			}
			fields[i] = int(b)
		}
		return Expression{Kind: ExprRGBA, Role: role, Fields: fields}, nil
	}

	if _, ok := operatorTokens[Operator(mode)]; ok {
		return Expression{Kind: ExprOperator, Role: role, Operator: Operator(mode)}, nil
	}

	switch mode {
	case tagVariable, tagVariableAlt, tagFunction:
		open, err := c.readByte()
		if err != nil {
			return Expression{}, err
		}
		if open != tagOpen {
			de := decodeErrorf(ErrGrammar, start,
				"unknown expression 0x%02x 0x%02x at offset 0x%x", mode, open, start)
			de.Byte = mode
			return Expression{}, de
		}
		if mode == tagFunction {
			return readRandom(c, role)
		}
		return readVariable(c, role, mode == tagVariableAlt)
	}

	de := decodeErrorf(ErrGrammar, start, "unknown expression 0x%02x at offset 0x%x", mode, start)
	de.Byte = mode
	return Expression{}, de
}

func readVariable(c *cursor, role string, alternate bool) (Expression, error) {
	kind, err := c.readByte()
	if err != nil {
		return Expression{}, err
	}
	index, err := c.readByte()
	if err != nil {
		return Expression{}, err
	}
	markerPos := c.pos
	marker, err := c.readByte()
	if err != nil {
		return Expression{}, err
	}
	if marker != tagClose {
		return Expression{}, decodeErrorf(ErrStructural, markerPos,
			"expected 0x14 as variable expression ending marker, got 0x%02x", marker)
	}
	name, err := VariableName(kind, index)
	if err != nil {
		err.(*DecodeError).Offset = markerPos - 2
		return Expression{}, err
	}
	return Expression{
		Kind:      ExprVariable,
		Role:      role,
		Namespace: kind,
		Index:     index,
		Alternate: alternate,
		Name:      name,
	}, nil
}

func readRandom(c *cursor, role string) (Expression, error) {
	arg, err := readExpression(c, "maxValue", 0)
	if err != nil {
		return Expression{}, withContext(err, "at function random")
	}
	markerPos := c.pos
	if c.eof() {
		return Expression{}, decodeErrorf(ErrMalformedFunctionCall, markerPos,
			"missing 0x14 after random argument at end of bytecode")
	}
	marker, _ := c.readByte()
	if marker != tagClose {
		return Expression{}, decodeErrorf(ErrMalformedFunctionCall, markerPos,
			"expected 0x14 after random argument, got 0x%02x", marker)
	}
	return Expression{
		Kind: ExprFunctionCall,
		Role: role,
		Name: "random",
		Args: []Expression{arg},
	}, nil
}

// valuePadding is the zero padding that follows the right-hand side of a
// variable assignment.
func valuePadding(rhs Expression) (first, second int) {
	switch rhs.Kind {
	case ExprConfig:
		return 0, 0
	case ExprVariable, ExprFunctionCall:
		return 1, 0
	case ExprRGBA:
		return 1, 2
	}
	return 2, 0
}

// readRawByteExpr reads one raw byte as an integer constant.
func readRawByteExpr(c *cursor, role string) (Expression, error) {
	b, err := c.readByte()
	if err != nil {
		return Expression{}, withContext(err, "for expression %q", role)
	}
	e := IntConst(int(b))
	e.Role = role
	return e, nil
}

// readRawUint16Expr reads a raw little-endian uint16 as an integer constant.
func readRawUint16Expr(c *cursor, role string) (Expression, error) {
	v, err := c.readUint16()
	if err != nil {
		return Expression{}, withContext(err, "for expression %q", role)
	}
	e := IntConst(int(v))
	e.Role = role
	return e, nil
}

// readCStringExpr reads a NUL terminated string as a string constant.
func readCStringExpr(c *cursor, role string) (Expression, error) {
	s, err := c.readCString()
	if err != nil {
		return Expression{}, withContext(err, "for expression %q", role)
	}
	e := StringConst(s)
	e.Role = role
	return e, nil
}
