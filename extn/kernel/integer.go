package kernel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shale-lang/shale/engine"
	"github.com/shale-lang/shale/interp"
)

// ParseInteger converts a numeric literal to an int64 under Integer()
// coercion rules. A radix of 0 means none was given, so base prefixes in the
// literal decide the base and a bare leading zero means octal. With an
// explicit radix, a base prefix is only accepted when it agrees with it.
func ParseInteger(literal string, radix int) (int64, error) {
	if strings.ContainsRune(literal, 0) {
		return 0, fmt.Errorf("string contains null byte")
	}
	s := strings.TrimSpace(literal)

	negative := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	prefixRadix, rest := splitRadixPrefix(s)
	switch {
	case radix == 0 && prefixRadix != 0:
		radix, s = prefixRadix, rest
	case radix == 0:
		radix = 10
		// A bare leading zero with no explicit radix selects octal.
		if len(s) > 1 && s[0] == '0' {
			radix, s = 8, s[1:]
		}
	case prefixRadix != 0 && prefixRadix != radix:
		return 0, invalidValueError(literal)
	case prefixRadix != 0:
		s = rest
	}

	if radix < 2 || radix > 36 {
		return 0, fmt.Errorf("invalid radix %d", radix)
	}

	digits, err := stripUnderscores(s)
	if err != nil || digits == "" {
		return 0, invalidValueError(literal)
	}
	n, err := strconv.ParseUint(digits, radix, 64)
	if err != nil {
		return 0, invalidValueError(literal)
	}
	if negative {
		if n > 1<<63 {
			return 0, invalidValueError(literal)
		}
		if n == 1<<63 {
			return math.MinInt64, nil
		}
		return -int64(n), nil
	}
	if n > 1<<63-1 {
		return 0, invalidValueError(literal)
	}
	return int64(n), nil
}

func invalidValueError(literal string) error {
	return fmt.Errorf("invalid value for Integer(): %q", literal)
}

// splitRadixPrefix recognizes the 0b, 0o, 0d, and 0x base prefixes and
// returns the base and the remaining digits. A zero base means no prefix was
// present.
func splitRadixPrefix(s string) (int, string) {
	if len(s) < 2 || s[0] != '0' {
		return 0, s
	}
	switch s[1] {
	case 'b', 'B':
		return 2, s[2:]
	case 'o', 'O':
		return 8, s[2:]
	case 'd', 'D':
		return 10, s[2:]
	case 'x', 'X':
		return 16, s[2:]
	}
	return 0, s
}

// stripUnderscores removes digit group separators. An underscore is only
// valid between two digit characters.
func stripUnderscores(s string) (string, error) {
	if !strings.Contains(s, "_") {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || s[i-1] == '_' || s[i+1] == '_' {
			return "", fmt.Errorf("misplaced underscore")
		}
	}
	return b.String(), nil
}

func integerFunc(i *interp.Interpreter) engine.NativeFunc {
	return func(s engine.State, args []engine.Value) engine.Value {
		if len(args) == 0 || len(args) > 2 {
			raise(s, "ArgumentError", fmt.Sprintf("wrong number of arguments (given %d, expected 1..2)", len(args)))
		}

		radix := 0
		if len(args) == 2 {
			if args[1].Tag != engine.TagFixnum {
				raise(s, "TypeError", fmt.Sprintf("no implicit conversion of %s into Integer", classOf(s, args[1])))
			}
			radix = int(args[1].Num)
		}

		switch args[0].Tag {
		case engine.TagFixnum:
			if len(args) == 2 {
				raise(s, "ArgumentError", "base specified for non string value")
			}
			return args[0]
		case engine.TagString:
			contents, err := s.StringContents(args[0])
			if err != nil {
				raise(s, "TypeError", "no implicit conversion into String")
			}
			n, err := ParseInteger(string(contents), radix)
			if err != nil {
				raise(s, "ArgumentError", err.Error())
			}
			return engine.Fixnum(n)
		default:
			raise(s, "TypeError", fmt.Sprintf("can't convert %s into Integer", classOf(s, args[0])))
			return engine.Nil()
		}
	}
}
