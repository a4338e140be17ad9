package unserial

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// cursor is a read position over the input.
//
// Reads never move backwards, except for the one-character rewind after
// a custom payload (see decodeCustom).
type cursor struct {
	input string
	pos   int
}

// until returns the text up to delim and moves past delim.
func (c *cursor) until(delim byte) (string, error) {
	if c.pos > len(c.input) {
		return "", unexpectedEnd(len(c.input))
	}
	i := strings.IndexByte(c.input[c.pos:], delim)
	if i < 0 {
		return "", unexpectedEnd(len(c.input))
	}
	tok := c.input[c.pos : c.pos+i]
	c.pos += i + 1
	return tok, nil
}

// readTag returns the type tag and skips the separator after it.
func (c *cursor) readTag() (byte, error) {
	if c.pos+1 >= len(c.input) {
		return 0, unexpectedEnd(c.pos)
	}
	tag := c.input[c.pos]
	c.pos += 2
	return tag, nil
}

// readLength reads a count terminated by ':' and skips the character
// that follows it (the opening '"' or '{').
func (c *cursor) readLength() (int, error) {
	tok, err := c.until(':')
	if err != nil {
		return 0, err
	}
	c.pos++
	return parseLength(tok), nil
}

// readNumber reads an integer payload terminated by ';'.
func (c *cursor) readNumber() (*Value, error) {
	tok, err := c.until(';')
	if err != nil {
		return nil, err
	}
	return parseNumber(tok), nil
}

// readFloat reads a float payload terminated by ';'.
func (c *cursor) readFloat() (float64, error) {
	tok, err := c.until(';')
	if err != nil {
		return 0, err
	}
	return parseFloatPayload(tok), nil
}

// readBool reads a boolean payload terminated by ';'.
func (c *cursor) readBool() (bool, error) {
	tok, err := c.until(';')
	if err != nil {
		return false, err
	}
	return tok == "1", nil
}

// readString reads a length-prefixed string closed by delim.
//
// The prefix counts bytes. The span is grown a whole rune at a time until
// it covers the declared length, so a prefix that ends inside a
// multi-byte character takes the full character. If the byte after the
// span is not delim, the span runs to the next delim instead; this
// recovers from writers that miscounted the length. recovered reports
// whether that happened.
//
// The cursor ends two bytes past the span: the closing delimiter and the
// ';' (or, for custom payloads, one byte too far; the caller rewinds).
func (c *cursor) readString(delim byte) (s string, recovered bool, err error) {
	n, err := c.readLength()
	if err != nil {
		return "", false, err
	}
	start := c.pos
	if start > len(c.input) {
		return "", false, unexpectedEnd(len(c.input))
	}

	end := start
	for count := 0; count < n; {
		if end >= len(c.input) {
			return "", false, unexpectedEnd(len(c.input))
		}
		_, w := utf8.DecodeRuneInString(c.input[end:])
		count += w
		end += w
	}

	if end >= len(c.input) || c.input[end] != delim {
		i := strings.IndexByte(c.input[end:], delim)
		if i < 0 {
			return "", false, unexpectedEnd(len(c.input))
		}
		end += i
		recovered = true
	}

	c.pos = end + 2
	return c.input[start:end], recovered, nil
}

// ============================================================
// Numeric payloads
// ============================================================

// parseLength parses the leading integer of tok. Anything unparseable
// counts as zero.
func parseLength(tok string) int {
	s := strings.TrimLeft(tok, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Out of range; the caller runs into the end of input.
		if s[0] == '-' {
			return 0
		}
		return math.MaxInt
	}
	return n
}

// parseNumber converts an integer payload. An empty payload is 0, an
// integral number is an Int, any other number is a Float and garbage is
// NaN.
func parseNumber(tok string) *Value {
	s := strings.TrimSpace(tok)
	if s == "" {
		return Int(0)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Float(math.NaN())
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}
	return Float(f)
}

// parseFloatPayload parses the longest numeric prefix of tok.
// INF, -INF and NAN are the serializer's spellings of the special values.
func parseFloatPayload(tok string) float64 {
	s := strings.TrimLeft(tok, " \t\n\r\v\f")
	switch s {
	case "INF":
		return math.Inf(1)
	case "-INF":
		return math.Inf(-1)
	case "NAN":
		return math.NaN()
	}

	end := floatPrefixLen(s)
	if end == 0 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func floatPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
