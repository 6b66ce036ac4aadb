package internal

import (
	"bytes"
)

// Cursor walks an immutable byte buffer, tracking the current byte offset
// and the 1-based line number of text consumed so far. Every parsing stage
// receives the same buffer and advances the shared cursor; nothing is
// re-read and there is no ambient state.
type Cursor struct {
	buf  []byte
	pos  int
	line int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf, line: 1}
}

func (c *Cursor) Pos() int { return c.pos }

// Line is the line number of the next unread line.
func (c *Cursor) Line() int { return c.line }

func (c *Cursor) Len() int { return len(c.buf) - c.pos }

func (c *Cursor) EOF() bool { return c.pos >= len(c.buf) }

// Remaining returns the unread tail of the buffer without consuming it.
func (c *Cursor) Remaining() []byte {
	return c.buf[c.pos:]
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) {
	c.pos += n
	if c.pos > len(c.buf) {
		c.pos = len(c.buf)
	}
}

// ReadLine consumes up to and including the next LF and returns the line
// with its LF or CRLF terminator stripped. Returns false at end of buffer.
func (c *Cursor) ReadLine() (string, bool) {
	if c.EOF() {
		return "", false
	}
	rest := c.buf[c.pos:]
	n := bytes.IndexByte(rest, '\n')
	var raw []byte
	if n < 0 {
		raw = rest
		c.pos = len(c.buf)
	} else {
		raw = rest[:n]
		c.pos += n + 1
	}
	c.line++
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	return string(raw), true
}

// PeekBytes returns the next n unread bytes (fewer near the end) without
// consuming them. Used to sniff the BB table flavor.
func (c *Cursor) PeekBytes(n int) []byte {
	rest := c.buf[c.pos:]
	if n > len(rest) {
		n = len(rest)
	}
	return rest[:n]
}
