package parser

import (
	"strings"

	"github.com/shepstack/shep/internal/diagnostic"
	"github.com/shepstack/shep/internal/lexer"
)

// syncTokens are tokens the parser can synchronize to after an error:
// the next top-level keyword or block boundary.
var syncTokens = map[lexer.TokenType]bool{
	lexer.APP:      true,
	lexer.DATA:     true,
	lexer.VIEW:     true,
	lexer.ACTION:   true,
	lexer.TASK:     true,
	lexer.VALIDATE: true,
	lexer.SET:      true,
	lexer.IF:       true,
	lexer.SAVE:     true,
	lexer.ALERT:    true,
	lexer.RBRACE:   true,
	lexer.EOF:      true,
}

// Parser holds the parser state
type Parser struct {
	tokens []lexer.Token
	pos    int
	file   string
	diags  *diagnostic.Diagnostics
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF, File: p.file}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming
func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF, File: p.file}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches the expected type,
// otherwise reports a ParseError naming the expected token
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.current()
	if tok.Type != tt {
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected %s, got %s", tt, tok.Type)
		return tok
	}
	return p.advance()
}

// expectOneOf reports a ParseError naming the full expected-token set
// when the current token matches none of the candidates.
func (p *Parser) expectOneOf(tts ...lexer.TokenType) lexer.Token {
	tok := p.current()
	for _, tt := range tts {
		if tok.Type == tt {
			return p.advance()
		}
	}
	names := make([]string, len(tts))
	for i, tt := range tts {
		names[i] = tt.String()
	}
	p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
		"expected one of %s, got %s", strings.Join(names, ", "), tok.Type)
	return tok
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// match consumes the current token if it matches, returns true if consumed
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

// synchronize skips tokens until a sync point is found (panic-mode
// recovery), so one run can collect several independent syntax errors.
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) {
		if syncTokens[p.current().Type] {
			return
		}
		p.advance()
	}
}
