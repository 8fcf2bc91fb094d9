package sc3

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// glyphSubstitutions remaps CP932 glyphs that the localized scripts reuse
// for emoji, accented letters and ASCII punctuation.
var glyphSubstitutions = map[string]string{
	"①": "💧",
	"②": "❤️",
	"③": "💢",
	"④": "💦",
	"⑤": "⭐",
	"⑩": "ä",
	"⑪": "ö",
	"⑫": "ü",
	"⑬": "—",
	"舅": "än",
	"　": " ",
	"，": ",",
	"．": ".",
	"？": "?",
	"！": "!",
	"／": "/",
	"’": "\\",
	"（": "(",
	"）": ")",
	"－": "-",
	"＜": "<",
	"＞": ">",
}

// isDoubleByteLead reports whether b starts a two-byte CP932 character.
func isDoubleByteLead(b byte) bool {
	return (b >= 0x80 && b <= 0xA0) || (b >= 0xE0 && b <= 0xEF)
}

// decodeDoubleByte decodes one CP932 character and applies the glyph
// substitutions.
func decodeDoubleByte(c1, c2 byte) string {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes([]byte{c1, c2})
	if err != nil {
		return string(charmap.Windows1252.DecodeByte(c1)) + string(charmap.Windows1252.DecodeByte(c2))
	}
	s := string(out)
	if sub, ok := glyphSubstitutions[s]; ok {
		return sub
	}
	return s
}

// decodeSingleByte decodes one Windows-1252 character.
func decodeSingleByte(b byte) string {
	return string(charmap.Windows1252.DecodeByte(b))
}
