package lexer

import (
	"testing"

	"github.com/kristofer/pebble/pkg/token"
)

func TestNextTokenBasicTokens(t *testing.T) {
	input := `+ - * / // % ** == != < <= > >= & | ~ ^ << >> ( ) [ ] { } , : .`

	tests := []struct {
		kind    token.Kind
		literal string
	}{
		{token.PLUS, "+"},
		{token.MINUS, "-"},
		{token.STAR, "*"},
		{token.SLASH, "/"},
		{token.DSLASH, "//"},
		{token.PERCENT, "%"},
		{token.STARSTAR, "**"},
		{token.EQ, "=="},
		{token.NEQ, "!="},
		{token.LT, "<"},
		{token.LE, "<="},
		{token.GT, ">"},
		{token.GE, ">="},
		{token.AMP, "&"},
		{token.PIPE, "|"},
		{token.TILDE, "~"},
		{token.CARET, "^"},
		{token.LSHIFT, "<<"},
		{token.RSHIFT, ">>"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACKET, "["},
		{token.RBRACKET, "]"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.COMMA, ","},
		{token.COLON, ":"},
		{token.DOT, "."},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s", i, tt.kind, tok.Kind)
		}
		if tok.Literal != tt.literal {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.literal, tok.Literal)
		}
	}
}

func TestNextTokenCompoundAssignment(t *testing.T) {
	input := `+= -= *= /= //= %= **= &= |= ^= <<= >>= =`
	kinds := []token.Kind{
		token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ,
		token.DSLASH_EQ, token.PERCENT_EQ, token.STARSTAR_EQ, token.AMP_EQ,
		token.PIPE_EQ, token.CARET_EQ, token.LSHIFT_EQ, token.RSHIFT_EQ,
		token.ASSIGN,
	}

	l := New(input)
	for i, k := range kinds {
		tok := l.NextToken()
		if tok.Kind != k {
			t.Fatalf("tok[%d]: expected %s, got %s (%q)", i, k, tok.Kind, tok.Literal)
		}
	}
}

func TestNextTokenKeywordsAndIdents(t *testing.T) {
	input := "if while for in def return break continue True False None and or not x1 _y"
	kinds := []token.Kind{
		token.IF, token.WHILE, token.FOR, token.IN, token.DEF, token.RETURN,
		token.BREAK, token.CONTINUE, token.TRUE, token.FALSE, token.NONE,
		token.AND, token.OR, token.NOT, token.IDENT, token.IDENT,
	}

	l := New(input)
	for i, k := range kinds {
		tok := l.NextToken()
		if tok.Kind != k {
			t.Fatalf("tok[%d]: expected %s, got %s (%q)", i, k, tok.Kind, tok.Literal)
		}
	}
}

func TestNextTokenNumberAndString(t *testing.T) {
	l := New(`42 3.5 'hi' "there"`)

	num := l.NextToken()
	if num.Kind != token.NUMBER || num.Literal != "42" {
		t.Fatalf("expected NUMBER 42, got %s %q", num.Kind, num.Literal)
	}
	flt := l.NextToken()
	if flt.Kind != token.NUMBER || flt.Literal != "3.5" {
		t.Fatalf("expected NUMBER 3.5, got %s %q", flt.Kind, flt.Literal)
	}
	s1 := l.NextToken()
	if s1.Kind != token.STRING || s1.Literal != "hi" {
		t.Fatalf("expected STRING hi, got %s %q", s1.Kind, s1.Literal)
	}
	s2 := l.NextToken()
	if s2.Kind != token.STRING || s2.Literal != "there" {
		t.Fatalf("expected STRING there, got %s %q", s2.Kind, s2.Literal)
	}
}

func TestNextTokenIndentation(t *testing.T) {
	input := "x = 1\nif x:\n    y = 2\n    z = 3\nprint(x)\n"

	var kinds []token.Kind
	l := New(input)
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}

	expected := []token.Kind{
		token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT,
		token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.DEDENT,
		token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.NEWLINE,
		token.EOF,
	}

	if len(kinds) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(kinds), kinds)
	}
	for i, k := range expected {
		if kinds[i] != k {
			t.Fatalf("token[%d]: expected %s, got %s", i, k, kinds[i])
		}
	}
}

func TestNextTokenBlankAndCommentLinesIgnored(t *testing.T) {
	input := "x = 1\n\n# a comment\ny = 2\n"
	var kinds []token.Kind
	l := New(input)
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	expected := []token.Kind{
		token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.IDENT, token.ASSIGN, token.NUMBER, token.NEWLINE,
		token.EOF,
	}
	if len(kinds) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(kinds), kinds)
	}
}
