// Package sc3 decodes SC3 script bytecode into a structured instruction
// list. SC3 is the script container used by the KID visual-novel engine;
// each script unit carries a main instruction stream, a label table, a
// region of dialogue ("textual") subroutines and a list of image names.
//
// The decoder is strict: any byte it does not understand aborts the decode
// of the whole unit with a *DecodeError. There is no recovery mode.
//
// # Instruction stream
//
// Every instruction starts with a meta opcode:
//
//   - 0x00 Flow: a second byte selects a flow opcode (goto, conditional
//     goto, switch, delay, system call, flag toggles)
//   - 0x10 Command: a second byte selects one of the engine commands
//     (audio, background and foreground images, movies, dialog box)
//   - 0xFE Variable: an assignment "variable operator value"
//   - 0xFF Text: a 16-bit ordinal naming a textual subroutine, which is
//     decoded recursively
//
// Arguments are encoded either as raw little-endian integers, NUL
// terminated ASCII strings, or tagged expressions. The expression grammar
// covers small constants, 12-bit signed and unsigned constants, color
// literals, operators, variable references, templated config values and a
// single function, random.
//
// # Textual subroutines
//
// Dialogue text is Shift-JIS (CP932) for double-byte characters and
// Windows-1252 for everything else, interleaved with textual opcodes for
// pacing, voice cues, choices and bookmarks. The localized releases reuse a
// handful of CP932 glyphs for emoji and accented Latin letters; those are
// substituted while decoding.
//
// # Annotation
//
// After an instruction is decoded, constant arguments of flow and command
// instructions are given symbolic names from static tables keyed by opcode
// and argument position. Variable assignments and switch cases are named
// from per-variable enum tables. Tables can be extended with a SymbolTable
// built from project configuration.
//
// Decode is a pure function of its Input: it keeps no state between calls
// and may run concurrently on different inputs.
package sc3
