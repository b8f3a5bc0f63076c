package lexer

import (
	"github.com/shepstack/shep/internal/diagnostic"
)

// Lexer scans shep source text and produces tokens. Malformed input is
// reported through the shared diagnostics collection; the scanner skips
// to the next whitespace boundary and keeps going, so one pass can
// surface several lexical errors.
type Lexer struct {
	input        string
	file         string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
	diags        *diagnostic.Diagnostics
}

// New creates a new Lexer for the given source unit. Diagnostics are
// appended to diags as they are found.
func New(file, input string, diags *diagnostic.Diagnostics) *Lexer {
	l := &Lexer{
		input:  input,
		file:   file,
		line:   1,
		column: 0,
		diags:  diags,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII code for NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.readChar()
	}
}

// skipSingleLineComment skips a single-line comment (//)
func (l *Lexer) skipSingleLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipMultiLineComment skips a multi-line comment (/* */)
func (l *Lexer) skipMultiLineComment() {
	for {
		if l.ch == 0 {
			break // End of file
		}
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // consume '*'
			l.readChar() // consume '/'
			break
		}
		l.readChar()
	}
}

// recover skips forward to the next whitespace or newline boundary so
// scanning can resume after a malformed token.
func (l *Lexer) recover() {
	for l.ch != 0 && l.ch != ' ' && l.ch != '\t' && l.ch != '\n' && l.ch != '\r' {
		l.readChar()
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a numeric literal (integer or decimal)
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[position:l.position]
}

// readString reads a string literal. The opening quote has already been
// consumed. Returns the unquoted value and whether the string was
// terminated.
func (l *Lexer) readString() (string, bool) {
	result := ""

	for {
		l.readChar()
		if l.ch == 0 || l.ch == '\n' {
			// Unterminated string
			return "", false
		}
		if l.ch == '"' {
			break
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result += "\n"
			case 't':
				result += "\t"
			case '\\':
				result += "\\"
			case '"':
				result += "\""
			default:
				// Invalid escape sequence, just include the backslash
				result += "\\" + string(l.ch)
			}
		} else {
			result += string(l.ch)
		}
	}

	return result, true
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	// Save position before processing token
	tok.File = l.file
	tok.Line = l.line
	tok.Column = l.column

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			ch := l.ch
			l.readChar()
			tok = Token{Type: EQ, Literal: string(ch) + string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		} else {
			tok = Token{Type: ASSIGN, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		}
	case '!':
		if l.peekChar() == '=' {
			ch := l.ch
			l.readChar()
			tok = Token{Type: NEQ, Literal: string(ch) + string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		} else {
			l.diags.Add(diagnostic.LexError, l.file, tok.Line, tok.Column, "unexpected character '!'")
			l.recover()
			return l.NextToken()
		}
	case '<':
		if l.peekChar() == '=' {
			ch := l.ch
			l.readChar()
			tok = Token{Type: LEQ, Literal: string(ch) + string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		} else {
			tok = Token{Type: LT, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		}
	case '>':
		if l.peekChar() == '=' {
			ch := l.ch
			l.readChar()
			tok = Token{Type: GEQ, Literal: string(ch) + string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		} else {
			tok = Token{Type: GT, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
		}
	case '/':
		if l.peekChar() == '/' {
			l.skipSingleLineComment()
			return l.NextToken()
		} else if l.peekChar() == '*' {
			l.readChar() // consume '/'
			l.readChar() // consume '*'
			l.skipMultiLineComment()
			return l.NextToken()
		}
		l.diags.Add(diagnostic.LexError, l.file, tok.Line, tok.Column, "unexpected character '/'")
		l.recover()
		return l.NextToken()
	case '(':
		tok = Token{Type: LPAREN, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case ')':
		tok = Token{Type: RPAREN, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case '{':
		tok = Token{Type: LBRACE, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case '}':
		tok = Token{Type: RBRACE, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case '[':
		tok = Token{Type: LBRACKET, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case ']':
		tok = Token{Type: RBRACKET, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case ',':
		tok = Token{Type: COMMA, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case ':':
		tok = Token{Type: COLON, Literal: string(l.ch), File: l.file, Line: tok.Line, Column: tok.Column}
	case '"':
		str, ok := l.readString()
		if !ok {
			l.diags.Add(diagnostic.LexError, l.file, tok.Line, tok.Column, "unterminated string literal")
			// readString stopped on newline or EOF; resume from there
			return l.NextToken()
		}
		tok = Token{Type: STRING_LIT, Literal: str, File: l.file, Line: tok.Line, Column: tok.Column}
	case 0:
		tok = Token{Type: EOF, Literal: "", File: l.file, Line: tok.Line, Column: tok.Column}
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			tokenType := LookupIdent(ident)
			tok = Token{Type: tokenType, Literal: ident, File: l.file, Line: tok.Line, Column: tok.Column}
			return tok // Early return because readIdentifier already advanced
		} else if isDigit(l.ch) {
			literal := l.readNumber()
			tok = Token{Type: NUMBER_LIT, Literal: literal, File: l.file, Line: tok.Line, Column: tok.Column}
			return tok // Early return because readNumber already advanced
		}
		l.diags.Add(diagnostic.LexError, l.file, tok.Line, tok.Column,
			"unexpected character %q", string(l.ch))
		l.recover()
		return l.NextToken()
	}

	l.readChar()
	return tok
}

// Tokenize returns all tokens from the input
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

// Helper functions

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
