package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultDelimiter is java.util.Scanner's whitespace delimiter.
const DefaultDelimiter = `\p{javaWhitespace}+`

var (
	// ErrNoSuchElement is returned when input is exhausted.
	ErrNoSuchElement = errors.New("no such element")
	// ErrInputMismatch is returned when a token does not parse as the
	// requested type.
	ErrInputMismatch = errors.New("input mismatch")
)

// Scanner is the java.util.Scanner subset lowered code reads with. Input is
// pulled a line at a time and normalised to NFC so that composed and
// decomposed spellings of a character read the same.
type Scanner struct {
	r        *bufio.Reader
	buf      []rune
	pos      int
	eof      bool
	charMode bool // empty delimiter: every character is a token
}

// NewScanner creates a scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// fill appends the next input line to the buffer. It reports false once
// nothing more can be read.
func (s *Scanner) fill() bool {
	if s.eof || s.r == nil {
		return false
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		s.eof = true
	}
	if line == "" {
		return false
	}
	s.buf = append(s.buf, []rune(norm.NFC.String(line))...)
	return true
}

// compact drops consumed input.
func (s *Scanner) compact() {
	if s.pos == 0 {
		return
	}
	s.buf = append(s.buf[:0], s.buf[s.pos:]...)
	s.pos = 0
}

// Next returns the next token.
func (s *Scanner) Next() (string, error) {
	s.compact()
	if s.charMode {
		if s.pos >= len(s.buf) && !s.fill() {
			return "", ErrNoSuchElement
		}
		r := s.buf[s.pos]
		s.pos++
		return string(r), nil
	}
	for {
		for s.pos < len(s.buf) && unicode.IsSpace(s.buf[s.pos]) {
			s.pos++
		}
		if s.pos < len(s.buf) {
			break
		}
		if !s.fill() {
			return "", ErrNoSuchElement
		}
	}
	start := s.pos
	for {
		for s.pos < len(s.buf) && !unicode.IsSpace(s.buf[s.pos]) {
			s.pos++
		}
		// a token ends at a delimiter or at end of input
		if s.pos < len(s.buf) || !s.fill() {
			break
		}
	}
	return string(s.buf[start:s.pos]), nil
}

// NextInt reads an int token.
func (s *Scanner) NextInt() (int32, error) {
	tok, err := s.Next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an int", ErrInputMismatch, tok)
	}
	return int32(n), nil
}

// NextFloat reads a float token.
func (s *Scanner) NextFloat() (float32, error) {
	tok, err := s.Next()
	if err != nil {
		return 0, err
	}
	if strings.ContainsAny(tok, "xXpP_") {
		return 0, fmt.Errorf("%w: %q is not a float", ErrInputMismatch, tok)
	}
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float", ErrInputMismatch, tok)
	}
	return float32(f), nil
}

// NextBoolean reads "true" or "false" in any case.
func (s *Scanner) NextBoolean() (bool, error) {
	tok, err := s.Next()
	if err != nil {
		return false, err
	}
	switch {
	case strings.EqualFold(tok, "true"):
		return true, nil
	case strings.EqualFold(tok, "false"):
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ErrInputMismatch, tok)
}

// NextLine returns the rest of the current line without its terminator.
func (s *Scanner) NextLine() (string, error) {
	s.compact()
	for {
		for i := s.pos; i < len(s.buf); i++ {
			if s.buf[i] == '\n' {
				line := string(s.buf[s.pos:i])
				s.pos = i + 1
				return strings.TrimSuffix(line, "\r"), nil
			}
		}
		if !s.fill() {
			break
		}
	}
	if s.pos >= len(s.buf) {
		return "", ErrNoSuchElement
	}
	line := string(s.buf[s.pos:])
	s.pos = len(s.buf)
	return line, nil
}

// UseDelimiter switches between the default whitespace delimiter and the
// empty delimiter. Other patterns are not supported.
func (s *Scanner) UseDelimiter(pattern string) error {
	switch pattern {
	case "":
		s.charMode = true
	case DefaultDelimiter:
		s.charMode = false
	default:
		return fmt.Errorf("unsupported delimiter %q", pattern)
	}
	return nil
}

// Reset restores the default delimiter.
func (s *Scanner) Reset() { s.charMode = false }
