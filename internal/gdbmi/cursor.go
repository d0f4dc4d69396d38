// Forward-only cursor over one line of MI text.
package gdbmi

import (
	"io"
	"log/slog"
	"strings"
)

// Cursor reads a fixed text buffer sequentially. The index is a byte offset;
// every structural MI character is ASCII, so UTF-8 sequences are never split
// at a point the parser cares about.
type Cursor struct {
	text  string
	index int
	log   *slog.Logger
}

// NewCursor returns a cursor at the start of text. A nil logger discards.
func NewCursor(text string, logger *slog.Logger) *Cursor {
	if logger == nil {
		logger = discardLogger
	}
	return &Cursor{text: text, log: logger}
}

// Index returns the current read offset. It may exceed Len after reads past
// the end.
func (c *Cursor) Index() int { return c.index }

// Len returns the length of the backing text.
func (c *Cursor) Len() int { return len(c.text) }

// Read returns up to n bytes from the current index. Past the end it returns
// what remains, possibly nothing, but the index still moves by n so a
// following Seek(-n) lands where it was.
func (c *Cursor) Read(n int) string {
	start := c.index
	c.index += n
	if start >= len(c.text) {
		return ""
	}
	end := c.index
	if end > len(c.text) {
		end = len(c.text)
	}
	return c.text[start:end]
}

// Seek moves the index by offset. There is no bounds check: callers only step
// back over what they already consumed.
func (c *Cursor) Seek(offset int) {
	c.index += offset
}

// AdvancePastChars consumes bytes until one of terminators is consumed and
// returns what was read before it. If the text runs out first, the remainder
// is returned.
func (c *Cursor) AdvancePastChars(terminators string) string {
	start := c.index
	if start >= len(c.text) {
		return ""
	}
	for c.index < len(c.text) {
		ch := c.text[c.index]
		c.index++
		if strings.IndexByte(terminators, ch) >= 0 {
			return c.text[start : c.index-1]
		}
	}
	c.log.Debug("unexpected end of stream", "terminators", terminators, "text", c.text)
	return c.text[start:]
}

// AdvancePastEscapedString decodes the quoted string the cursor is in, which
// must have been entered by consuming its opening quote, and moves past the
// closing quote.
func (c *Cursor) AdvancePastEscapedString() (string, error) {
	if c.index <= 0 || c.index > len(c.text) || c.text[c.index-1] != '"' {
		return "", ErrNotAtString
	}
	s, end, err := AdvancePastEscapedString(c.text, c.index)
	if err != nil {
		return "", err
	}
	c.index = end
	return s, nil
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
