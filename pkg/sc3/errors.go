package sc3

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the decoder is a *DecodeError whose
// Kind is one of these, so callers can branch with errors.Is.
var (
	ErrGrammar               = errors.New("unknown expression")
	ErrStructural            = errors.New("structural mismatch")
	ErrUnknownOpcode         = errors.New("unknown opcode")
	ErrResolution            = errors.New("unresolved reference")
	ErrMalformedChoice       = errors.New("malformed choice")
	ErrMalformedFunctionCall = errors.New("malformed function call")
	ErrTruncated             = errors.New("unexpected end of bytecode")
)

// DecodeError reports a decode failure together with the dispatch path that
// was active when it happened.
type DecodeError struct {
	Kind   error  // One of the Err* kinds above
	Msg    string // Innermost description
	Offset int    // Cursor offset in the buffer being decoded
	Byte   byte   // Offending byte, for ErrGrammar and ErrUnknownOpcode

	// Position is the absolute position of the innermost instruction that
	// was being decoded. Valid once the error has left an instruction loop.
	Position    uint32
	HasPosition bool

	// Trail is the context accumulated while the error propagated, innermost
	// first: argument role, opcode, position, then enclosing layers.
	Trail []string
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	for _, ctx := range e.Trail {
		sb.WriteString(" ")
		sb.WriteString(ctx)
	}
	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func decodeErrorf(kind error, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:   kind,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// withContext appends one entry to the trail of a *DecodeError. Other errors
// are returned unchanged.
func withContext(err error, format string, args ...any) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Trail = append(de.Trail, fmt.Sprintf(format, args...))
	}
	return err
}

// atPosition appends the position entry and records it as the failure
// position if no inner layer has done so.
func atPosition(err error, pos uint32) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Trail = append(de.Trail, fmt.Sprintf("at position 0x%x", pos))
		if !de.HasPosition {
			de.Position = pos
			de.HasPosition = true
		}
	}
	return err
}
