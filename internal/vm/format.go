package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatError reports a printf pattern or argument that java.util.Formatter
// would reject.
type FormatError struct {
	Pattern string
	Pos     int
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %q at %d: %s", e.Pattern, e.Pos, e.Reason)
}

type spec struct {
	left      bool
	width     int
	precision int // -1 when absent
	conv      byte
}

// Format renders pattern with args the way PrintStream.printf does for the
// conversions lowered code uses: %d %f %b %c %s, the '-' flag, width and
// precision, plus %% and %n. Args are boxed values as held in Value.Ref.
func Format(pattern string, args []any) (string, error) {
	var sb strings.Builder
	next := 0
	for i := 0; i < len(pattern); {
		c := pattern[i]
		if c != '%' {
			sb.WriteByte(c)
			i++
			continue
		}
		start := i
		sp, end, err := parseSpec(pattern, i+1)
		if err != nil {
			return "", err
		}
		i = end
		switch sp.conv {
		case '%':
			pad(&sb, "%", sp)
			continue
		case 'n':
			sb.WriteByte('\n')
			continue
		}
		if next >= len(args) {
			return "", &FormatError{Pattern: pattern, Pos: start, Reason: "missing argument for %" + string(sp.conv)}
		}
		text, err := convert(sp, args[next])
		if err != nil {
			return "", &FormatError{Pattern: pattern, Pos: start, Reason: err.Error()}
		}
		next++
		pad(&sb, text, sp)
	}
	return sb.String(), nil
}

func parseSpec(pattern string, i int) (spec, int, error) {
	sp := spec{precision: -1}
	fail := func(reason string) (spec, int, error) {
		return sp, i, &FormatError{Pattern: pattern, Pos: i, Reason: reason}
	}
	if i < len(pattern) && pattern[i] == '-' {
		sp.left = true
		i++
	}
	digits := i
	for i < len(pattern) && pattern[i] >= '0' && pattern[i] <= '9' {
		i++
	}
	if i > digits {
		n, err := strconv.Atoi(pattern[digits:i])
		if err != nil {
			return fail("bad width")
		}
		sp.width = n
	}
	if i < len(pattern) && pattern[i] == '.' {
		i++
		digits = i
		for i < len(pattern) && pattern[i] >= '0' && pattern[i] <= '9' {
			i++
		}
		if i == digits {
			return fail("precision without digits")
		}
		n, err := strconv.Atoi(pattern[digits:i])
		if err != nil {
			return fail("bad precision")
		}
		sp.precision = n
	}
	if i >= len(pattern) {
		return fail("unterminated specifier")
	}
	sp.conv = pattern[i]
	i++
	if sp.left && sp.width == 0 {
		return fail("'-' requires a width")
	}
	switch sp.conv {
	case 'd', 'c', 'n', '%':
		if sp.precision >= 0 {
			return fail("precision not allowed for %" + string(sp.conv))
		}
	case 'f', 'b', 's':
	default:
		return fail("unknown conversion %" + string(sp.conv))
	}
	return sp, i, nil
}

func convert(sp spec, arg any) (string, error) {
	switch sp.conv {
	case 'd':
		n, ok := arg.(int32)
		if !ok {
			return "", fmt.Errorf("%%d != %s", boxedName(arg))
		}
		return strconv.FormatInt(int64(n), 10), nil
	case 'f':
		f, ok := arg.(float32)
		if !ok {
			return "", fmt.Errorf("%%f != %s", boxedName(arg))
		}
		prec := sp.precision
		if prec < 0 {
			prec = 6
		}
		return formatFixed(f, prec), nil
	case 'b':
		s := "true"
		switch x := arg.(type) {
		case nil:
			s = "false"
		case bool:
			if !x {
				s = "false"
			}
		}
		return truncate(s, sp.precision), nil
	case 'c':
		switch x := arg.(type) {
		case nil:
			return "null", nil
		case Char:
			return string(rune(x)), nil
		case int32:
			if !utf8.ValidRune(rune(x)) {
				return "", fmt.Errorf("code point %d is not valid", x)
			}
			return string(rune(x)), nil
		}
		return "", fmt.Errorf("%%c != %s", boxedName(arg))
	default: // 's'
		return truncate(javaString(arg), sp.precision), nil
	}
}

func boxedName(arg any) string {
	switch arg.(type) {
	case nil:
		return "null"
	case int32:
		return "java.lang.Integer"
	case float32:
		return "java.lang.Float"
	case bool:
		return "java.lang.Boolean"
	case Char:
		return "java.lang.Character"
	case string:
		return "java.lang.String"
	}
	return fmt.Sprintf("%T", arg)
}

func truncate(s string, precision int) string {
	if precision < 0 || utf8.RuneCountInString(s) <= precision {
		return s
	}
	return string([]rune(s)[:precision])
}

func pad(sb *strings.Builder, s string, sp spec) {
	fill := sp.width - utf8.RuneCountInString(s)
	if fill <= 0 {
		sb.WriteString(s)
		return
	}
	if sp.left {
		sb.WriteString(s)
		sb.WriteString(strings.Repeat(" ", fill))
		return
	}
	sb.WriteString(strings.Repeat(" ", fill))
	sb.WriteString(s)
}

// formatFixed renders f with prec fractional digits. Like Formatter it
// starts from the shortest decimal that identifies the float and rounds
// half up.
func formatFixed(f float32, prec int) string {
	switch {
	case f != f:
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "Infinity"
	case math.IsInf(float64(f), -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(float64(f), 'e', -1, 32)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	mant, expText, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expText)
	digits := []byte(strings.Replace(mant, ".", "", 1))
	point := exp + 1 // digits before the decimal point
	if point < 0 {
		digits = append([]byte(strings.Repeat("0", -point)), digits...)
		point = 0
	}
	if keep := point + prec; keep < len(digits) {
		up := digits[keep] >= '5'
		digits = digits[:keep]
		if up {
			i := keep - 1
			for ; i >= 0; i-- {
				if digits[i] == '9' {
					digits[i] = '0'
					continue
				}
				digits[i]++
				break
			}
			if i < 0 {
				digits = append([]byte{'1'}, digits...)
				point++
			}
		}
	}
	for len(digits) < point+prec {
		digits = append(digits, '0')
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	if point == 0 {
		sb.WriteByte('0')
	} else {
		sb.Write(digits[:point])
	}
	if prec > 0 {
		sb.WriteByte('.')
		sb.Write(digits[point : point+prec])
	}
	return sb.String()
}

// javaFloatString renders f like Float.toString.
func javaFloatString(f float32) string {
	switch {
	case f != f:
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "Infinity"
	case math.IsInf(float64(f), -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(float64(f)) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(float64(f))
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(float64(f), 'f', -1, 32)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(float64(f), 'e', -1, 32)
	mant, expText, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	exp, _ := strconv.Atoi(expText)
	return mant + "E" + strconv.Itoa(exp)
}
