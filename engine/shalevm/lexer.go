package shalevm

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tkEOF tokenKind = iota
	tkNewline
	tkInt
	tkString
	tkIdent
	tkConst
	tkGVar
	tkIVar
	tkDef
	tkEnd
	tkRaise
	tkTrue
	tkFalse
	tkNil
	tkFile
	tkPlus
	tkMinus
	tkStar
	tkSlash
	tkPercent
	tkEq
	tkNe
	tkLt
	tkGt
	tkLe
	tkGe
	tkAssign
	tkComma
	tkLParen
	tkRParen
	tkDot
)

var keywords = map[string]tokenKind{
	"def":      tkDef,
	"end":      tkEnd,
	"raise":    tkRaise,
	"true":     tkTrue,
	"false":    tkFalse,
	"nil":      tkNil,
	"__FILE__": tkFile,
}

type token struct {
	kind tokenKind
	text string
	num  int64
	line int
}

// syntaxError carries the position of a lexing or parsing failure. The VM
// surfaces it as a SyntaxError exception.
type syntaxError struct {
	line int
	msg  string
}

func (e *syntaxError) Error() string { return fmt.Sprintf("%d: %s", e.line, e.msg) }

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }

// lex tokenizes src, numbering lines from startLine.
func lex(src []byte, startLine int) ([]token, *syntaxError) {
	var toks []token
	line := startLine
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			toks = append(toks, token{kind: tkNewline, line: line})
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == ';':
			toks = append(toks, token{kind: tkNewline, line: line})
			i++
		case c == '\'' || c == '"':
			text, next, err := lexString(src, i, line)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tkString, text: text, line: line})
			i = next
		case isDigit(c):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
				i++
			}
			text := string(src[start:i])
			n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 10, 64)
			if err != nil {
				return nil, &syntaxError{line: line, msg: "integer literal out of range"}
			}
			toks = append(toks, token{kind: tkInt, text: text, num: n, line: line})
		case isLetter(c):
			start := i
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i])) {
				i++
			}
			word := string(src[start:i])
			// Methods like nil? and respond_to? keep their trailing marks.
			if i < len(src) && (src[i] == '?' || src[i] == '!') {
				word += string(src[i])
				i++
			}
			if kind, ok := keywords[word]; ok {
				toks = append(toks, token{kind: kind, text: word, line: line})
			} else if isUpper(word[0]) {
				toks = append(toks, token{kind: tkConst, text: word, line: line})
			} else {
				toks = append(toks, token{kind: tkIdent, text: word, line: line})
			}
		case c == '$' || c == '@':
			kind := tkGVar
			if c == '@' {
				kind = tkIVar
			}
			i++
			start := i
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i])) {
				i++
			}
			if start == i {
				return nil, &syntaxError{line: line, msg: "syntax error"}
			}
			toks = append(toks, token{kind: kind, text: string(src[start:i]), line: line})
		default:
			kind, width, ok := lexOperator(src, i)
			if !ok {
				return nil, &syntaxError{line: line, msg: "syntax error"}
			}
			toks = append(toks, token{kind: kind, text: string(src[i : i+width]), line: line})
			i += width
		}
	}
	toks = append(toks, token{kind: tkEOF, line: line})
	return toks, nil
}

func lexString(src []byte, start, line int) (string, int, *syntaxError) {
	quote := src[start]
	var out []byte
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return string(out), i + 1, nil
		case c == '\n':
			return "", 0, &syntaxError{line: line, msg: "syntax error"}
		case c == '\\' && i+1 < len(src):
			esc := src[i+1]
			if quote == '\'' {
				// Single quotes only escape the quote and backslash.
				if esc == '\'' || esc == '\\' {
					out = append(out, esc)
					i += 2
					continue
				}
				out = append(out, c)
				i++
				continue
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\', '"', '\'':
				out = append(out, esc)
			default:
				out = append(out, esc)
			}
			i += 2
		default:
			out = append(out, c)
			i++
		}
	}
	return "", 0, &syntaxError{line: line, msg: "syntax error"}
}

func lexOperator(src []byte, i int) (tokenKind, int, bool) {
	two := ""
	if i+1 < len(src) {
		two = string(src[i : i+2])
	}
	switch two {
	case "==":
		return tkEq, 2, true
	case "!=":
		return tkNe, 2, true
	case "<=":
		return tkLe, 2, true
	case ">=":
		return tkGe, 2, true
	}
	switch src[i] {
	case '+':
		return tkPlus, 1, true
	case '-':
		return tkMinus, 1, true
	case '*':
		return tkStar, 1, true
	case '/':
		return tkSlash, 1, true
	case '%':
		return tkPercent, 1, true
	case '<':
		return tkLt, 1, true
	case '>':
		return tkGt, 1, true
	case '=':
		return tkAssign, 1, true
	case ',':
		return tkComma, 1, true
	case '(':
		return tkLParen, 1, true
	case ')':
		return tkRParen, 1, true
	case '.':
		return tkDot, 1, true
	}
	return tkEOF, 0, false
}
