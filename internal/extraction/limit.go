package extraction

import (
	"fmt"
	"io"
	"strings"
)

// DefaultMaxText bounds the extracted text and each decompressed part read
// while producing it.
const DefaultMaxText = 8 << 20

// textBuffer is a strings.Builder that refuses to grow past max bytes.
type textBuffer struct {
	b   strings.Builder
	max int
	err error
}

func (t *textBuffer) grow(n int) bool {
	if t.err != nil {
		return false
	}
	if t.b.Len()+n > t.max {
		t.err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, t.max)
		return false
	}
	return true
}

func (t *textBuffer) WriteByte(c byte) error {
	if t.grow(1) {
		t.b.WriteByte(c)
	}
	return t.err
}

func (t *textBuffer) Write(p []byte) (int, error) {
	if !t.grow(len(p)) {
		return 0, t.err
	}
	return t.b.Write(p)
}

func (t *textBuffer) WriteString(s string) (int, error) {
	if !t.grow(len(s)) {
		return 0, t.err
	}
	return t.b.WriteString(s)
}

func (t *textBuffer) Len() int       { return t.b.Len() }
func (t *textBuffer) String() string { return t.b.String() }

// capReader fails with ErrTooLarge once more than n bytes have been read.
type capReader struct {
	r io.Reader
	n int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.n < 0 {
		return 0, fmt.Errorf("%w: decompressed part too large", ErrTooLarge)
	}
	if int64(len(p)) > c.n+1 {
		p = p[:c.n+1]
	}
	n, err := c.r.Read(p)
	c.n -= int64(n)
	if c.n < 0 {
		return n, fmt.Errorf("%w: decompressed part too large", ErrTooLarge)
	}
	return n, err
}

// partLimit is the decompressed size allowed for a part whose text may be
// at most maxText bytes. Markup outweighs text by a wide margin in DOCX.
func partLimit(maxText int) int64 {
	return int64(maxText) * 8
}
