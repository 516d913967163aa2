package corpus

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// parseListLiteral parses a Python-style list or tuple literal such as
// "['salt', \"mom's sauce\", 3, None]" or "('salt', 'egg')". String elements
// are returned in order and ok is false when the literal is malformed.
// Non-string scalars and nested containers are accepted and skipped.
func parseListLiteral(raw string) (values []string, ok bool) {
	p := literalParser{src: raw}
	p.skipSpace()
	var closer byte
	switch {
	case p.consume('['):
		closer = ']'
	case p.consume('('):
		closer = ')'
	default:
		return nil, false
	}

	values = []string{}
	for {
		p.skipSpace()
		if p.consume(closer) {
			break
		}

		if p.peekQuote() {
			isBytes := p.src[p.pos] == 'b' || p.src[p.pos] == 'B'
			s, ok := p.parseString()
			if !ok {
				return nil, false
			}
			if !isBytes {
				values = append(values, s)
			}
		} else if !p.skipValue() {
			return nil, false
		}

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(closer) {
			break
		}
		return nil, false
	}

	p.skipSpace()
	if !p.eof() {
		return nil, false
	}
	return values, true
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// peekQuote reports a quote, optionally behind a u/r/b prefix.
func (p *literalParser) peekQuote() bool {
	i := p.pos
	if i < len(p.src) && strings.IndexByte("uUrRbB", p.src[i]) >= 0 {
		i++
	}
	return i < len(p.src) && (p.src[i] == '\'' || p.src[i] == '"')
}

func (p *literalParser) parseString() (string, bool) {
	raw := false
	if c := p.src[p.pos]; c != '\'' && c != '"' {
		raw = c == 'r' || c == 'R'
		p.pos++
	}
	quote := p.src[p.pos]
	p.pos++

	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), true
		case c == '\\' && p.pos+1 < len(p.src):
			if raw {
				sb.WriteByte(c)
				sb.WriteByte(p.src[p.pos+1])
				p.pos += 2
				continue
			}
			p.pos++
			if !p.writeEscape(&sb) {
				return "", false
			}
		case c == '\n':
			return "", false
		default:
			_, size := utf8.DecodeRuneInString(p.src[p.pos:])
			sb.WriteString(p.src[p.pos : p.pos+size])
			p.pos += size
		}
	}
	return "", false
}

func (p *literalParser) writeEscape(sb *strings.Builder) bool {
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case '\n':
		// line continuation
	case 'x':
		return p.writeCodePoint(sb, 2)
	case 'u':
		return p.writeCodePoint(sb, 4)
	case 'U':
		return p.writeCodePoint(sb, 8)
	default:
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return true
}

func (p *literalParser) writeCodePoint(sb *strings.Builder, digits int) bool {
	if p.pos+digits > len(p.src) {
		return false
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return false
	}
	sb.WriteRune(rune(n))
	p.pos += digits
	return true
}

// skipValue skips a non-string element: a scalar (None, True, False, a
// number) or a nested list, tuple or dict.
func (p *literalParser) skipValue() bool {
	if p.eof() {
		return false
	}
	switch p.src[p.pos] {
	case '[', '(', '{':
		return p.skipContainer()
	}

	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == ',' || c == ']' || c == ')' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	token := p.src[start:p.pos]
	switch token {
	case "None", "True", "False":
		return true
	}
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}

func (p *literalParser) skipContainer() bool {
	var stack []byte
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '[':
			stack = append(stack, ']')
		case '(':
			stack = append(stack, ')')
		case '{':
			stack = append(stack, '}')
		case ']', ')', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return false
			}
			stack = stack[:len(stack)-1]
		case '\'', '"':
			if _, ok := p.parseString(); !ok {
				return false
			}
			continue
		}
		p.pos++
		if len(stack) == 0 {
			return true
		}
	}
	return false
}
