package shalevm

// Recursive descent parser for the shale surface syntax. Every node records
// the file and line it was parsed from; __FILE__ is resolved lexically so
// method bodies report the file that defined them, not the file that calls
// them.

type position struct {
	file string
	line int
}

type node interface {
	pos() position
}

type (
	intLit struct {
		position
		val int64
	}
	strLit struct {
		position
		val string
	}
	boolLit struct {
		position
		val bool
	}
	nilLit struct {
		position
	}
	fileLit struct {
		position
	}
	gvarRef struct {
		position
		name string
	}
	ivarRef struct {
		position
		name string
	}
	identRef struct {
		// A bare identifier: local variable, zero-argument method, or
		// native; resolved at eval time.
		position
		name string
	}
	assignNode struct {
		position
		target node // gvarRef, ivarRef, or identRef
		value  node
	}
	binopNode struct {
		position
		op  tokenKind
		lhs node
		rhs node
	}
	negNode struct {
		position
		operand node
	}
	callNode struct {
		position
		recv string // namespace constant, or "" for a bare call
		name string
		args []node
	}
	raiseNode struct {
		position
		class string // "" means RuntimeError
		arg   node   // nil means re-raise message-less RuntimeError
	}
	defNode struct {
		position
		name string
		body []node
	}
)

func (p position) pos() position { return p }

type parser struct {
	toks []token
	i    int
	file string
}

func (p *parser) at(line int) position { return position{file: p.file, line: line} }

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tkEOF {
		p.i++
	}
	return t
}

func (p *parser) accept(kind tokenKind) (token, bool) {
	if p.peek().kind == kind {
		return p.next(), true
	}
	return token{}, false
}

func (p *parser) fail(t token) {
	panic(&syntaxError{line: t.line, msg: "syntax error"})
}

func (p *parser) skipTerminators() {
	for p.peek().kind == tkNewline {
		p.next()
	}
}

// parse builds the program AST for src. It returns a syntaxError for any
// malformed input; it never panics past its own boundary.
func parseSource(file string, src []byte, startLine int) (prog []node, err *syntaxError) {
	toks, lerr := lex(src, startLine)
	if lerr != nil {
		return nil, lerr
	}
	p := &parser{toks: toks, file: file}
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*syntaxError)
			if !ok {
				panic(r)
			}
			prog, err = nil, se
		}
	}()
	prog = p.parseStmts(tkEOF)
	if p.peek().kind != tkEOF {
		p.fail(p.peek())
	}
	return prog, nil
}

// parseStmts parses statements until the given closing token, which is left
// unconsumed.
func (p *parser) parseStmts(until tokenKind) []node {
	var stmts []node
	p.skipTerminators()
	for p.peek().kind != until && p.peek().kind != tkEOF {
		stmts = append(stmts, p.parseStmt())
		if p.peek().kind != until && p.peek().kind != tkEOF {
			if _, ok := p.accept(tkNewline); !ok {
				p.fail(p.peek())
			}
		}
		p.skipTerminators()
	}
	return stmts
}

func (p *parser) parseStmt() node {
	if t, ok := p.accept(tkDef); ok {
		name, okName := p.accept(tkIdent)
		if !okName {
			p.fail(p.peek())
		}
		body := p.parseStmts(tkEnd)
		if _, okEnd := p.accept(tkEnd); !okEnd {
			p.fail(p.peek())
		}
		return &defNode{position: p.at(t.line), name: name.text, body: body}
	}
	return p.parseExpr()
}

func (p *parser) parseExpr() node {
	// Assignment needs two-token lookahead to distinguish `x = 1` from
	// `x == 1` and from a command call `x 1`.
	t := p.peek()
	switch t.kind {
	case tkGVar, tkIVar, tkIdent:
		if p.toks[p.i+1].kind == tkAssign {
			target := p.next()
			p.next() // '='
			value := p.parseExpr()
			var tnode node
			switch target.kind {
			case tkGVar:
				tnode = &gvarRef{position: p.at(target.line), name: target.text}
			case tkIVar:
				tnode = &ivarRef{position: p.at(target.line), name: target.text}
			default:
				tnode = &identRef{position: p.at(target.line), name: target.text}
			}
			return &assignNode{position: p.at(target.line), target: tnode, value: value}
		}
	case tkRaise:
		p.next()
		return p.parseRaise(t)
	}
	return p.parseEquality()
}

func (p *parser) parseRaise(t token) node {
	pos := p.at(t.line)
	switch p.peek().kind {
	case tkNewline, tkEOF, tkEnd:
		return &raiseNode{position: pos}
	case tkConst:
		class := p.next()
		if _, ok := p.accept(tkComma); !ok {
			p.fail(p.peek())
		}
		return &raiseNode{position: pos, class: class.text, arg: p.parseExpr()}
	default:
		return &raiseNode{position: pos, arg: p.parseExpr()}
	}
}

func (p *parser) parseEquality() node {
	lhs := p.parseComparison()
	for {
		t := p.peek()
		if t.kind != tkEq && t.kind != tkNe {
			return lhs
		}
		p.next()
		rhs := p.parseComparison()
		lhs = &binopNode{position: p.at(t.line), op: t.kind, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseComparison() node {
	lhs := p.parseAdditive()
	for {
		t := p.peek()
		switch t.kind {
		case tkLt, tkGt, tkLe, tkGe:
			p.next()
			rhs := p.parseAdditive()
			lhs = &binopNode{position: p.at(t.line), op: t.kind, lhs: lhs, rhs: rhs}
		default:
			return lhs
		}
	}
}

func (p *parser) parseAdditive() node {
	lhs := p.parseMultiplicative()
	for {
		t := p.peek()
		if t.kind != tkPlus && t.kind != tkMinus {
			return lhs
		}
		p.next()
		rhs := p.parseMultiplicative()
		lhs = &binopNode{position: p.at(t.line), op: t.kind, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseMultiplicative() node {
	lhs := p.parseUnary()
	for {
		t := p.peek()
		if t.kind != tkStar && t.kind != tkSlash && t.kind != tkPercent {
			return lhs
		}
		p.next()
		rhs := p.parseUnary()
		lhs = &binopNode{position: p.at(t.line), op: t.kind, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseUnary() node {
	if t, ok := p.accept(tkMinus); ok {
		return &negNode{position: p.at(t.line), operand: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() node {
	t := p.next()
	pos := p.at(t.line)
	switch t.kind {
	case tkInt:
		return &intLit{position: pos, val: t.num}
	case tkString:
		return &strLit{position: pos, val: t.text}
	case tkTrue:
		return &boolLit{position: pos, val: true}
	case tkFalse:
		return &boolLit{position: pos, val: false}
	case tkNil:
		return &nilLit{position: pos}
	case tkFile:
		return &fileLit{position: pos}
	case tkGVar:
		return &gvarRef{position: pos, name: t.text}
	case tkIVar:
		return &ivarRef{position: pos, name: t.text}
	case tkLParen:
		inner := p.parseExpr()
		if _, ok := p.accept(tkRParen); !ok {
			p.fail(p.peek())
		}
		return inner
	case tkConst:
		// Namespaced native call Const.method(args), or a capitalized bare
		// call like Integer('42').
		if _, ok := p.accept(tkDot); ok {
			name, okName := p.accept(tkIdent)
			if !okName {
				p.fail(p.peek())
			}
			return &callNode{position: pos, recv: t.text, name: name.text, args: p.parseCallArgs()}
		}
		return &callNode{position: pos, name: t.text, args: p.parseCallArgs()}
	case tkIdent:
		if p.peek().kind == tkLParen {
			return &callNode{position: pos, name: t.text, args: p.parseCallArgs()}
		}
		if startsExpression(p.peek().kind) {
			// Command call without parentheses: require 'foo'
			return &callNode{position: pos, name: t.text, args: p.parseArgList()}
		}
		return &identRef{position: pos, name: t.text}
	}
	p.fail(t)
	return nil
}

func (p *parser) parseCallArgs() []node {
	if _, ok := p.accept(tkLParen); !ok {
		if startsExpression(p.peek().kind) {
			return p.parseArgList()
		}
		return nil
	}
	if _, ok := p.accept(tkRParen); ok {
		return nil
	}
	args := p.parseArgList()
	if _, ok := p.accept(tkRParen); !ok {
		p.fail(p.peek())
	}
	return args
}

func (p *parser) parseArgList() []node {
	args := []node{p.parseExpr()}
	for {
		if _, ok := p.accept(tkComma); !ok {
			return args
		}
		args = append(args, p.parseExpr())
	}
}

func startsExpression(kind tokenKind) bool {
	switch kind {
	case tkInt, tkString, tkIdent, tkConst, tkGVar, tkIVar, tkTrue, tkFalse, tkNil, tkFile, tkLParen, tkMinus:
		return true
	default:
		return false
	}
}
