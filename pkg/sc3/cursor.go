package sc3

import "encoding/binary"

// cursor is a forward reader over one bytecode buffer. Reads past the end
// fail with ErrTruncated.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.buf)
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.buf) {
		return decodeErrorf(ErrTruncated, c.pos,
			"need %d bytes at offset 0x%x, have %d", n, c.pos, c.remaining())
	}
	return nil
}

func (c *cursor) readByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// readUint16 reads a little-endian uint16.
func (c *cursor) readUint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// readUint32 reads a little-endian uint32.
func (c *cursor) readUint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// peekUint16 returns the next little-endian uint16 without consuming it.
func (c *cursor) peekUint16() (uint16, bool) {
	if c.remaining() < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(c.buf[c.pos:]), true
}

// readCString reads a NUL terminated ASCII string and consumes the NUL.
func (c *cursor) readCString() (string, error) {
	start := c.pos
	for i := start; i < len(c.buf); i++ {
		if c.buf[i] == 0 {
			c.pos = i + 1
			return string(c.buf[start:i]), nil
		}
	}
	return "", decodeErrorf(ErrTruncated, start, "unterminated string at offset 0x%x", start)
}

// readSized reads a 1, 2 or 4 byte little-endian value.
func (c *cursor) readSized(size int) (uint32, error) {
	switch size {
	case 1:
		b, err := c.readByte()
		return uint32(b), err
	case 2:
		v, err := c.readUint16()
		return uint32(v), err
	case 4:
		return c.readUint32()
	}
	return 0, decodeErrorf(ErrStructural, c.pos, "unsupported field size %d", size)
}

// skipPadding consumes size zero bytes. A size of zero is a no-op.
func (c *cursor) skipPadding(size int) error {
	if size == 0 {
		return nil
	}
	start := c.pos
	v, err := c.readSized(size)
	if err != nil {
		return err
	}
	if v != 0 {
		return decodeErrorf(ErrStructural, start,
			"expected %d-byte zero padding at offset 0x%x, got 0x%x", size, start, v)
	}
	return nil
}

// skipMarker consumes a size-byte marker that must equal want.
func (c *cursor) skipMarker(size int, want uint32) error {
	start := c.pos
	v, err := c.readSized(size)
	if err != nil {
		return err
	}
	if v != want {
		return decodeErrorf(ErrStructural, start,
			"expected %d-byte marker 0x%x at offset 0x%x, got 0x%x", size, want, start, v)
	}
	return nil
}
