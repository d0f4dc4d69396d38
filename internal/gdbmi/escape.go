// Decoding of the C-like escapes gdb uses inside MI string literals.
package gdbmi

import (
	"strings"
	"unicode/utf8"
)

// Single-character escape codes gdb emits (see printchar in gdb/utils.c).
var nonOctalEscapes = map[byte]string{
	'\'': "'",
	'\\': "\\",
	'a':  "\a",
	'b':  "\b",
	'e':  "\033",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'"':  "\"",
}

// Unescape decodes text escaped by gdb in MI mode. The text must not include
// the surrounding quotes, and any quote inside it must be escaped.
func Unescape(text string) (string, error) {
	s, _, err := unescapeFrom(text, 0, false)
	return s, err
}

// AdvancePastEscapedString decodes the quoted string starting at text[start],
// which must be just past the opening quote. It returns the decoded text and
// the index just after the closing quote.
func AdvancePastEscapedString(text string, start int) (string, int, error) {
	return unescapeFrom(text, start, true)
}

func unescapeFrom(text string, start int, expectClosingQuote bool) (string, int, error) {
	var sb strings.Builder
	i := start
	plain := start // start of the not yet copied run of plain text
	for i < len(text) {
		c := text[i]
		switch {
		case c == '"':
			sb.WriteString(text[plain:i])
			if !expectClosingQuote {
				return "", 0, &EscapeError{Kind: EscapeUnescapedQuote, Text: text}
			}
			return sb.String(), i + 1, nil

		case c == '\\' && i+1 < len(text):
			sb.WriteString(text[plain:i])
			if isOctalGroup(text, i+1) {
				end, err := decodeOctalRun(&sb, text, i)
				if err != nil {
					return "", 0, err
				}
				i = end
			} else {
				code := text[i+1]
				repl, ok := nonOctalEscapes[code]
				if !ok {
					return "", 0, &EscapeError{Kind: EscapeInvalidChar, Value: text[i : i+2], Text: text}
				}
				sb.WriteString(repl)
				i += 2
			}
			plain = i

		default:
			i++
		}
	}
	if expectClosingQuote {
		return "", 0, &EscapeError{Kind: EscapeMissingClosingQuote, Text: text}
	}
	sb.WriteString(text[plain:])
	return sb.String(), len(text), nil
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func isOctalGroup(text string, i int) bool {
	return i+3 <= len(text) && isOctalDigit(text[i]) && isOctalDigit(text[i+1]) && isOctalDigit(text[i+2])
}

// decodeOctalRun consumes consecutive \NNN groups starting at text[i] (the
// backslash) and writes them to sb. A multi-byte UTF-8 character is encoded
// as several groups, so the run is decoded as a whole. Runs that are not valid
// UTF-8 are copied through unchanged; gdb emits those on some hosts.
func decodeOctalRun(sb *strings.Builder, text string, i int) (int, error) {
	start := i
	var buf []byte
	for i < len(text) && text[i] == '\\' && isOctalGroup(text, i+1) {
		group := text[i+1 : i+4]
		n := int(group[0]-'0')<<6 | int(group[1]-'0')<<3 | int(group[2]-'0')
		if n > 0xff {
			return 0, &EscapeError{Kind: EscapeInvalidOctal, Value: group, Text: text}
		}
		buf = append(buf, byte(n))
		i += 4
	}
	if utf8.Valid(buf) {
		sb.Write(buf)
	} else {
		sb.WriteString(text[start:i])
	}
	return i, nil
}

// Escape encodes s the way gdb quotes strings in MI output, without the
// surrounding quotes. Unescape(Escape(s)) == s for valid UTF-8 input.
func Escape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\033':
			sb.WriteString(`\e`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
				continue
			}
			sb.WriteByte('\\')
			sb.WriteByte('0' + c>>6)
			sb.WriteByte('0' + (c>>3)&7)
			sb.WriteByte('0' + c&7)
		}
	}
	return sb.String()
}
