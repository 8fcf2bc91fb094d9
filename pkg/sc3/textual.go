package sc3

import "strings"

const (
	choiceUnconditional = 1
	choiceConditional   = 2
	bigTextMarker       = 0x03 // The only size the engine renders correctly
)

// decodeTextual decodes one textual subroutine. base is the absolute
// position of seg[0].
func decodeTextual(seg []byte, base uint32) ([]TextualInstruction, error) {
	c := newCursor(seg)
	var out []TextualInstruction

	for !c.eof() {
		start := c.pos
		code, _ := c.readByte()
		ti := TextualInstruction{
			Position: base + uint32(start),
			Kind:     TextCommand,
			Code:     code,
		}

		op := TextualOpcode(code)
		var err error
		if op.IsCommand() {
			if err = decodeTextualCommand(c, op, &ti); err != nil {
				err = withContext(err, "at %s", op)
			}
		} else {
			ti.Kind = TextLiteral
			if ti.Text, err = readText(c, code); err != nil {
				err = withContext(err, "in text")
			}
		}
		if err != nil {
			return nil, atPosition(err, ti.Position)
		}

		ti.Bytes = seg[start:c.pos]
		out = append(out, ti)
	}
	return out, nil
}

func decodeTextualCommand(c *cursor, op TextualOpcode, ti *TextualInstruction) error {
	switch op {
	case TextEnd, TextWait, TextClear, TextWaitVoice, TextMark:
		return nil

	case TextSleep:
		e, err := readExpression(c, "duration", 0)
		if err != nil {
			return err
		}
		ti.Expressions = append(ti.Expressions, e)

	case TextMarkLog:
		start := c.pos
		e, err := readExpression(c, "unk", 0)
		if err != nil {
			return err
		}
		if !e.IsIntValue(0) {
			return decodeErrorf(ErrStructural, start, "expected a zero-value expression, got %s", e.Display())
		}

	case TextChoice:
		return decodeChoice(c, ti)

	case TextVoice:
		e, err := readCStringExpr(c, "voice name")
		if err != nil {
			return err
		}
		ti.Expressions = append(ti.Expressions, e)

	case TextStyle:
		e, err := readRawByteExpr(c, "style")
		if err != nil {
			return err
		}
		ti.Expressions = append(ti.Expressions, e)

	case TextBig:
		return c.skipMarker(1, bigTextMarker)

	default:
		return decodeErrorf(ErrUnknownOpcode, c.pos-1, "unknown textual opcode 0x%02x", byte(op))
	}
	return nil
}

// decodeChoice reads: 00 <id:u16> (0B <tag> [cond] <text>)* 00
func decodeChoice(c *cursor, ti *TextualInstruction) error {
	if err := c.skipPadding(1); err != nil {
		return err
	}
	id, err := readRawUint16Expr(c, "id")
	if err != nil {
		return err
	}
	ti.Expressions = append(ti.Expressions, id)

	for {
		markerPos := c.pos
		if c.eof() {
			return decodeErrorf(ErrMalformedChoice, markerPos, "choice list is not terminated")
		}
		marker, _ := c.readByte()
		if marker == byte(TextEnd) {
			return nil
		}
		if marker != byte(TextChoice) {
			return decodeErrorf(ErrMalformedChoice, markerPos,
				"expected zero byte after choices, got 0x%02x", marker)
		}

		choice, err := readChoiceEntry(c)
		if err != nil {
			return withContext(err, "at choice %d", len(ti.Choices))
		}
		ti.Choices = append(ti.Choices, choice)
	}
}

func readChoiceEntry(c *cursor) (Choice, error) {
	tagPos := c.pos
	if c.eof() {
		return Choice{}, decodeErrorf(ErrMalformedChoice, tagPos, "missing choice type")
	}
	tag, _ := c.readByte()

	var choice Choice
	switch tag {
	case choiceUnconditional:
	case choiceConditional:
		cond, err := readExpression(c, "choiceCond", 0)
		if err != nil {
			return Choice{}, err
		}
		choice.Cond = &cond
	default:
		return Choice{}, decodeErrorf(ErrMalformedChoice, tagPos, "unknown choice type %d", tag)
	}

	textPos := c.pos
	if c.eof() {
		return Choice{}, decodeErrorf(ErrMalformedChoice, textPos, "missing choice text")
	}
	first, _ := c.readByte()
	if first == byte(TextEnd) {
		return Choice{}, decodeErrorf(ErrMalformedChoice, textPos, "unexpected zero byte when reading choice text")
	}
	text, err := readText(c, first)
	if err != nil {
		return Choice{}, err
	}
	choice.Text = text
	return choice, nil
}

// readText decodes a literal span whose first byte has already been read.
// The span ends after a newline byte or before the next textual command
// byte; reaching the end of the segment first is ErrTruncated. Its first
// byte is always taken as text.
func readText(c *cursor, first byte) (string, error) {
	var sb strings.Builder
	b := first
	for {
		if TextualOpcode(b) == TextNewLine {
			sb.WriteByte('\n')
			return sb.String(), nil
		}
		if isDoubleByteLead(b) {
			b2, err := c.readByte()
			if err != nil {
				return "", err
			}
			sb.WriteString(decodeDoubleByte(b, b2))
		} else {
			sb.WriteString(decodeSingleByte(b))
		}

		if c.eof() {
			return "", decodeErrorf(ErrTruncated, c.pos,
				"text runs to the end of the segment at offset 0x%x", c.pos)
		}
		b = c.buf[c.pos]
		if TextualOpcode(b).IsCommand() {
			return sb.String(), nil
		}
		c.pos++
	}
}
