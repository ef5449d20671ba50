package extraction

import (
	"encoding/hex"
	"strconv"
	"strings"
)

type kind int

const (
	kindOperator kind = iota
	kindString
	kindNumber
	kindArray
	kindOther
)

type operand struct {
	kind  kind
	text  string
	num   float64
	items []operand
}

// scanner tokenizes a PDF content stream. It understands literal and hex
// strings, numbers, arrays, names, dictionaries, and inline operators; it
// does not decode inline images.
type scanner struct {
	src []byte
	pos int
}

func (s *scanner) next() (operand, bool) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return operand{}, false
	}

	c := s.src[s.pos]
	switch {
	case c == '(':
		return operand{kind: kindString, text: s.literal()}, true
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		s.skipDict()
		return operand{kind: kindOther}, true
	case c == '<':
		return operand{kind: kindString, text: s.hexString()}, true
	case c == '[':
		s.pos++
		var items []operand
		for {
			s.skipSpace()
			if s.pos >= len(s.src) {
				break
			}
			if s.src[s.pos] == ']' {
				s.pos++
				break
			}
			item, ok := s.next()
			if !ok {
				break
			}
			items = append(items, item)
		}
		return operand{kind: kindArray, items: items}, true
	case c == '/':
		s.pos++
		s.word()
		return operand{kind: kindOther}, true
	case c == '+' || c == '-' || c == '.' || isDigit(c):
		w := s.word()
		n, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return operand{kind: kindOther}, true
		}
		return operand{kind: kindNumber, num: n}, true
	case c == ']' || c == ')' || c == '>' || c == '{' || c == '}':
		s.pos++
		return operand{kind: kindOther}, true
	default:
		return operand{kind: kindOperator, text: s.word()}, true
	}
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '%' {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.src) && !isSpace(s.src[s.pos]) && !isDelim(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

func (s *scanner) skipDict() {
	depth := 1
	for s.pos < len(s.src) && depth > 0 {
		switch {
		case s.src[s.pos] == '(':
			s.literal()
			continue
		case s.src[s.pos] == '<' && s.peek(1) == '<':
			depth++
			s.pos += 2
			continue
		case s.src[s.pos] == '>' && s.peek(1) == '>':
			depth--
			s.pos += 2
			continue
		}
		s.pos++
	}
}

// literal reads a balanced (...) string, resolving escapes.
func (s *scanner) literal() string {
	var b strings.Builder
	s.pos++
	depth := 1

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++

		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
		case '\\':
			if s.pos >= len(s.src) {
				return b.String()
			}
			e := s.src[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '7'; i++ {
						v = v*8 + int(s.src[s.pos]-'0')
						s.pos++
					}
					b.WriteByte(byte(v))
					continue
				}
				b.WriteByte(e)
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (s *scanner) hexString() string {
	s.pos++
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '>' {
		s.pos++
	}
	raw := strings.Map(func(r rune) rune {
		if isSpace(byte(r)) {
			return -1
		}
		return r
	}, string(s.src[start:s.pos]))
	s.pos++

	if len(raw)%2 == 1 {
		raw += "0"
	}
	out, err := hex.DecodeString(raw)
	if err != nil {
		return ""
	}
	return string(out)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
