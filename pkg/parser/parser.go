// Package parser implements the pebble language parser.
//
// The parser turns the lexer's token stream into the ast.Program defined
// in pkg/ast. It's a recursive-descent parser with a Pratt-style
// precedence-climbing expression parser, following the same two-token
// lookahead shape as the teacher's Smalltalk parser: curTok is the token
// being examined, peekTok is one token of lookahead, and the parser
// accumulates errors in a slice rather than aborting at the first one.
//
// Grammar overview:
//
//	Program      := Block
//	Block        := (Statement NEWLINE)* at one indentation level
//	Statement    := If | While | For | Return | Break | Continue
//	              | FunctionDef | Assignment | ExprStatement
//	If           := "if" Expression ":" NEWLINE INDENT Block DEDENT
//	While        := "while" Expression ":" NEWLINE INDENT Block DEDENT
//	For          := "for" IDENT "in" Expression ":" NEWLINE INDENT Block DEDENT
//	FunctionDef  := "def" IDENT "(" Params ")" ":" NEWLINE INDENT Block DEDENT
//	Assignment   := Target ("=" | CompoundOp) Expression
//	Target       := IDENT ("[" Expression "]")*
//	Expression   := precedence-climbing over binary/unary operators,
//	                with Call/Index postfix and literal/identifier leaves.
//
// Operator precedence, low to high: or; and; not; comparisons (==, !=, <,
// <=, >, >=, in, not in); bitwise or; bitwise xor; bitwise and; shifts;
// additive (+, -); multiplicative (*, /, //, %); unary (-, ~);
// power (**, right-associative); postfix (call, index).
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kristofer/pebble/pkg/ast"
	"github.com/kristofer/pebble/pkg/lexer"
	"github.com/kristofer/pebble/pkg/pebbleerr"
	"github.com/kristofer/pebble/pkg/token"
)

// precedence levels, lowest to highest.
const (
	_ int = iota
	precLowest
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPower
	precPostfix
)

var binaryPrecedence = map[token.Kind]int{
	token.OR:       precOr,
	token.AND:      precAnd,
	token.EQ:       precCompare,
	token.NEQ:      precCompare,
	token.LT:       precCompare,
	token.LE:       precCompare,
	token.GT:       precCompare,
	token.GE:       precCompare,
	token.IN:       precCompare,
	token.PIPE:     precBitOr,
	token.CARET:    precBitXor,
	token.AMP:      precBitAnd,
	token.LSHIFT:   precShift,
	token.RSHIFT:   precShift,
	token.PLUS:     precAdditive,
	token.MINUS:    precAdditive,
	token.STAR:     precMultiplicative,
	token.SLASH:    precMultiplicative,
	token.DSLASH:   precMultiplicative,
	token.PERCENT:  precMultiplicative,
	token.STARSTAR: precPower,
}

// dunderFor maps a binary operator token to the dunder method name the
// emitter invokes for it (spec.md §4.2's operator→dunder table).
var dunderFor = map[token.Kind]string{
	token.PLUS:     "__add__",
	token.MINUS:    "__sub__",
	token.STAR:     "__mul__",
	token.SLASH:    "__truediv__",
	token.DSLASH:   "__floordiv__",
	token.PERCENT:  "__mod__",
	token.STARSTAR: "__pow__",
	token.EQ:       "__eq__",
	token.NEQ:      "__ne__",
	token.LT:       "__lt__",
	token.LE:       "__le__",
	token.GT:       "__gt__",
	token.GE:       "__ge__",
	token.AND:      "__and__",
	token.OR:       "__or__",
	token.AMP:      "__bwand__",
	token.PIPE:     "__bwor__",
	token.CARET:    "__xor__",
	token.LSHIFT:   "__lshift__",
	token.RSHIFT:   "__rshift__",
	token.IN:       "__contains__",
}

// compoundOps maps a compound-assignment token to its ast.CompoundOp.
var compoundOps = map[token.Kind]ast.CompoundOp{
	token.PLUS_EQ:     ast.OpAddAssign,
	token.MINUS_EQ:    ast.OpSubAssign,
	token.STAR_EQ:     ast.OpMulAssign,
	token.SLASH_EQ:    ast.OpDivAssign,
	token.DSLASH_EQ:   ast.OpFloorDivAssign,
	token.PERCENT_EQ:  ast.OpModAssign,
	token.STARSTAR_EQ: ast.OpPowAssign,
	token.AMP_EQ:      ast.OpAndBitAssign,
	token.PIPE_EQ:     ast.OpOrBitAssign,
	token.CARET_EQ:    ast.OpXorAssign,
	token.LSHIFT_EQ:   ast.OpLShiftAssign,
	token.RSHIFT_EQ:   ast.OpRShiftAssign,
}

// Parser is a single-use recursive-descent parser over one source input.
type Parser struct {
	l       *lexer.Lexer
	curTok  token.Token
	peekTok token.Token
	errors  []*pebbleerr.CompileError
}

// New creates a parser over input, primed with the first two tokens.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos { return ast.Pos{Row: p.curTok.Row, Col: p.curTok.Col} }

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, pebbleerr.NewCompileError(p.curTok.Row, p.curTok.Col, "%s", msg))
}

// Errors returns accumulated parse errors, if any.
func (p *Parser) Errors() []*pebbleerr.CompileError { return p.errors }

// expect verifies curTok has kind k, advances past it, and records an
// error (returning false) otherwise.
func (p *Parser) expect(k token.Kind) bool {
	if p.curTok.Kind != k {
		p.addError(fmt.Sprintf("expected %s, got %s", k, p.curTok.Kind))
		return false
	}
	p.nextToken()
	return true
}

// skipNewlines consumes any run of NEWLINE tokens (blank logical lines
// inside a block never survive the lexer, but a block can still be
// followed directly by a DEDENT with no trailing statement).
func (p *Parser) skipNewlines() {
	for p.curTok.Kind == token.NEWLINE {
		p.nextToken()
	}
}

// Parse parses the whole input as a pebble program.
func (p *Parser) Parse() (*ast.Program, error) {
	start := p.pos()
	block := p.parseStatements(func() bool { return p.curTok.Kind == token.EOF })
	if len(p.errors) > 0 {
		joined := make([]error, len(p.errors))
		for i, e := range p.errors {
			joined[i] = e
		}
		return &ast.Program{Body: &ast.Block{Pos: start, Statements: block}}, errors.Join(joined...)
	}
	return &ast.Program{Body: &ast.Block{Pos: start, Statements: block}}, nil
}

// parseStatements reads statements until stop() holds, skipping blank
// NEWLINE-only lines between them.
func (p *Parser) parseStatements(stop func() bool) []ast.Statement {
	var stmts []ast.Statement
	p.skipNewlines()
	for !stop() {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}
	return stmts
}

// parseBlock parses an indented block following a trailing ":" and
// NEWLINE: INDENT Block DEDENT.
func (p *Parser) parseBlock() *ast.Block {
	start := p.pos()
	if !p.expect(token.NEWLINE) {
		return &ast.Block{Pos: start}
	}
	if !p.expect(token.INDENT) {
		return &ast.Block{Pos: start}
	}
	stmts := p.parseStatements(func() bool { return p.curTok.Kind == token.DEDENT || p.curTok.Kind == token.EOF })
	p.expect(token.DEDENT)
	return &ast.Block{Pos: start, Statements: stmts}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Kind {
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.DEF:
		return p.parseFunctionDef()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		n := &ast.Break{Pos: p.pos()}
		p.nextToken()
		return n
	case token.CONTINUE:
		n := &ast.Continue{Pos: p.pos()}
		p.nextToken()
		return n
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseIf() ast.Statement {
	start := p.pos()
	p.nextToken() // consume 'if'
	cond := p.parseExpression(precLowest)
	p.expect(token.COLON)
	then := p.parseBlock()
	return &ast.If{Pos: start, Condition: cond, Then: then}
}

func (p *Parser) parseWhile() ast.Statement {
	start := p.pos()
	p.nextToken() // consume 'while'
	cond := p.parseExpression(precLowest)
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.While{Pos: start, Condition: cond, Body: body}
}

func (p *Parser) parseFor() ast.Statement {
	start := p.pos()
	p.nextToken() // consume 'for'
	name := p.curTok.Literal
	p.expect(token.IDENT)
	p.expect(token.IN)
	iterable := p.parseExpression(precLowest)
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.For{Pos: start, Var: name, Iterable: iterable, Body: body}
}

func (p *Parser) parseFunctionDef() ast.Statement {
	start := p.pos()
	p.nextToken() // consume 'def'
	name := p.curTok.Literal
	p.expect(token.IDENT)
	p.expect(token.LPAREN)
	var params []string
	for p.curTok.Kind != token.RPAREN && p.curTok.Kind != token.EOF {
		params = append(params, p.curTok.Literal)
		p.expect(token.IDENT)
		if p.curTok.Kind == token.COMMA {
			p.nextToken()
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.FunctionDef{Pos: start, Name: name, Params: params, Body: body}
}

func (p *Parser) parseReturn() ast.Statement {
	start := p.pos()
	p.nextToken() // consume 'return'
	if p.curTok.Kind == token.NEWLINE || p.curTok.Kind == token.EOF || p.curTok.Kind == token.DEDENT {
		return &ast.Return{Pos: start}
	}
	val := p.parseExpression(precLowest)
	return &ast.Return{Pos: start, Value: val}
}

// parseSimpleStatement parses an assignment or a bare expression
// statement, disambiguated by lookahead after parsing the left-hand
// expression: if it's followed by "=" or a compound-assignment operator
// and is itself a valid assignment target (Identifier or Index chain),
// it's an Assignment; any other left-hand side is reported as an error.
func (p *Parser) parseSimpleStatement() ast.Statement {
	start := p.pos()
	expr := p.parseExpression(precLowest)

	op, isCompound := compoundOps[p.curTok.Kind]
	if p.curTok.Kind == token.ASSIGN || isCompound {
		assignOp := ast.OpAssign
		if isCompound {
			assignOp = op
		}
		p.nextToken() // consume '=' or compound operator
		rhs := p.parseExpression(precLowest)
		name, targets := splitAssignTarget(expr)
		if name == "" {
			p.addError("invalid assignment target")
		}
		return &ast.Assignment{Pos: start, Name: name, Targets: targets, Op: assignOp, Value: rhs}
	}

	return &ast.ExprStatement{Pos: start, Expr: expr}
}

// splitAssignTarget decomposes an expression parsed as v[a][b]...[z] into
// its base name and the ordered chain of index expressions, per the
// Assignment node's contract.
func splitAssignTarget(expr ast.Expression) (string, []ast.Expression) {
	var chain []ast.Expression
	for {
		if idx, ok := expr.(*ast.Index); ok {
			chain = append([]ast.Expression{idx.At}, chain...)
			expr = idx.Recv
			continue
		}
		break
	}
	if id, ok := expr.(*ast.Identifier); ok {
		return id.Name, chain
	}
	return "", chain
}

// parseExpression implements precedence climbing: it parses a unary/
// primary term, then repeatedly folds in binary operators whose
// precedence is at least minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parseUnary()

	for {
		if p.curTok.Kind == token.NOT && p.peekTok.Kind == token.IN && precCompare >= minPrec {
			start := left.Position()
			p.nextToken() // consume 'not'
			p.nextToken() // consume 'in'
			right := p.parseExpression(precCompare + 1)
			// __contains__/__ncontains__ dispatch on the container, so the
			// container (right) becomes the receiver: see the token.IN case
			// below for the same swap.
			left = &ast.BinaryOp{Pos: start, Op: "__ncontains__", Left: right, Right: left}
			continue
		}

		prec, ok := binaryPrecedence[p.curTok.Kind]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.curTok.Kind
		start := left.Position()
		p.nextToken()
		nextMin := prec + 1
		if opTok == token.STARSTAR {
			nextMin = prec // right-associative
		}
		right := p.parseExpression(nextMin)
		if opTok == token.IN {
			// "x in list" dispatches List.__contains__, so the container
			// (right) is the receiver the emitter's "emit l, LOAD_ATTR
			// dunder" rule binds the method to, not the value being tested.
			left = &ast.BinaryOp{Pos: start, Op: dunderFor[opTok], Left: right, Right: left}
			continue
		}
		left = &ast.BinaryOp{Pos: start, Op: dunderFor[opTok], Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.curTok.Kind {
	case token.NOT:
		start := p.pos()
		p.nextToken()
		operand := p.parseExpression(precNot)
		return &ast.UnaryOp{Pos: start, Op: "__inv__", Operand: operand}
	case token.MINUS:
		start := p.pos()
		p.nextToken()
		operand := p.parseExpression(precUnary)
		return &ast.UnaryOp{Pos: start, Op: "__neg__", Operand: operand}
	case token.TILDE:
		start := p.pos()
		p.nextToken()
		operand := p.parseExpression(precUnary)
		return &ast.UnaryOp{Pos: start, Op: "__bwinv__", Operand: operand}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix folds in call and index suffixes: f(a, b)[0](c).
func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for {
		switch p.curTok.Kind {
		case token.LPAREN:
			start := p.pos()
			p.nextToken()
			var args []ast.Expression
			for p.curTok.Kind != token.RPAREN && p.curTok.Kind != token.EOF {
				args = append(args, p.parseExpression(precLowest))
				if p.curTok.Kind == token.COMMA {
					p.nextToken()
				}
			}
			p.expect(token.RPAREN)
			expr = &ast.Call{Pos: start, Callee: expr, Args: args}
		case token.LBRACKET:
			start := p.pos()
			p.nextToken()
			at := p.parseExpression(precLowest)
			p.expect(token.RBRACKET)
			expr = &ast.Index{Pos: start, Recv: expr, At: at}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curTok.Kind {
	case token.NUMBER:
		return p.parseNumber()
	case token.STRING:
		lit := &ast.StringLiteral{Pos: p.pos(), Value: p.curTok.Literal}
		p.nextToken()
		return lit
	case token.TRUE:
		lit := &ast.BooleanLiteral{Pos: p.pos(), Value: true}
		p.nextToken()
		return lit
	case token.FALSE:
		lit := &ast.BooleanLiteral{Pos: p.pos(), Value: false}
		p.nextToken()
		return lit
	case token.NONE:
		lit := &ast.NoneLiteral{Pos: p.pos()}
		p.nextToken()
		return lit
	case token.IDENT:
		id := &ast.Identifier{Pos: p.pos(), Name: p.curTok.Literal}
		p.nextToken()
		return id
	case token.LPAREN:
		p.nextToken()
		expr := p.parseExpression(precLowest)
		p.expect(token.RPAREN)
		return expr
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseBraceLiteral()
	default:
		p.addError(fmt.Sprintf("unexpected token: %s", p.curTok.Kind))
		p.nextToken()
		return &ast.NoneLiteral{Pos: p.pos()}
	}
}

func (p *Parser) parseNumber() ast.Expression {
	start := p.pos()
	value, err := strconv.ParseFloat(p.curTok.Literal, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as a number", p.curTok.Literal))
		value = 0
	}
	p.nextToken()
	return &ast.NumberLiteral{Pos: start, Value: value}
}

func (p *Parser) parseListLiteral() ast.Expression {
	start := p.pos()
	p.nextToken() // consume '['
	var items []ast.Expression
	for p.curTok.Kind != token.RBRACKET && p.curTok.Kind != token.EOF {
		items = append(items, p.parseExpression(precLowest))
		if p.curTok.Kind == token.COMMA {
			p.nextToken()
		}
	}
	p.expect(token.RBRACKET)
	return &ast.ListLiteral{Pos: start, Items: items}
}

// parseBraceLiteral disambiguates "{1, 2, 3}" (set) from
// "{'k': v, ...}" (dict) by checking for a COLON after the first element.
func (p *Parser) parseBraceLiteral() ast.Expression {
	start := p.pos()
	p.nextToken() // consume '{'

	if p.curTok.Kind == token.RBRACE {
		p.nextToken()
		return &ast.DictLiteral{Pos: start}
	}

	if p.curTok.Kind == token.STRING && p.peekTok.Kind == token.COLON {
		return p.parseDictLiteral(start)
	}
	return p.parseSetLiteral(start)
}

func (p *Parser) parseSetLiteral(start ast.Pos) ast.Expression {
	var items []ast.Expression
	for p.curTok.Kind != token.RBRACE && p.curTok.Kind != token.EOF {
		items = append(items, p.parseExpression(precLowest))
		if p.curTok.Kind == token.COMMA {
			p.nextToken()
		}
	}
	p.expect(token.RBRACE)
	return &ast.SetLiteral{Pos: start, Items: items}
}

func (p *Parser) parseDictLiteral(start ast.Pos) ast.Expression {
	var entries []ast.DictEntry
	for p.curTok.Kind != token.RBRACE && p.curTok.Kind != token.EOF {
		key := p.curTok.Literal
		p.expect(token.STRING)
		p.expect(token.COLON)
		value := p.parseExpression(precLowest)
		entries = append(entries, ast.DictEntry{Key: key, Value: value})
		if p.curTok.Kind == token.COMMA {
			p.nextToken()
		}
	}
	p.expect(token.RBRACE)
	return &ast.DictLiteral{Pos: start, Entries: entries}
}
