package parser

import (
	"strconv"

	"github.com/shepstack/shep/internal/ast"
	"github.com/shepstack/shep/internal/diagnostic"
	"github.com/shepstack/shep/internal/lexer"
)

// New creates a new parser for one source unit. Lexical diagnostics
// land in the same collection as parse diagnostics.
func New(file, source string) *Parser {
	diags := diagnostic.New()
	l := lexer.New(file, source, diags)
	tokens := l.Tokenize()
	return &Parser{
		tokens: tokens,
		pos:    0,
		file:   file,
		diags:  diags,
	}
}

// Diagnostics returns the parser's diagnostics
func (p *Parser) Diagnostics() *diagnostic.Diagnostics {
	return p.diags
}

// Parse parses the token stream into a Spec AST. Parsing is a pure
// function of the token sequence: identical input yields identical AST
// and diagnostics.
func (p *Parser) Parse() *ast.Spec {
	spec := &ast.Spec{File: p.file}

	if p.check(lexer.APP) {
		spec.App = p.parseAppDecl()
	} else {
		tok := p.current()
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected APP declaration at start of spec, got %s", tok.Type)
	}

	for !p.check(lexer.EOF) {
		switch p.current().Type {
		case lexer.DATA:
			spec.Datas = append(spec.Datas, p.parseDataDecl())
		case lexer.VIEW:
			spec.Views = append(spec.Views, p.parseViewDecl())
		case lexer.ACTION:
			spec.Actions = append(spec.Actions, p.parseActionDecl())
		case lexer.TASK:
			spec.Tasks = append(spec.Tasks, p.parseTaskDecl())
		default:
			tok := p.current()
			p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
				"expected one of DATA, VIEW, ACTION, TASK at top level, got %s", tok.Type)
			startPos := p.pos
			p.synchronize()
			if p.pos == startPos {
				p.advance() // ensure forward progress to avoid infinite loop
			}
		}
	}
	return spec
}

// parseAppDecl parses: app <name> { [description: "<text>"] }
func (p *Parser) parseAppDecl() *ast.AppDecl {
	tok := p.expect(lexer.APP)
	name := p.expect(lexer.IDENT)
	p.expect(lexer.LBRACE)

	decl := &ast.AppDecl{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		switch p.current().Type {
		case lexer.DESCRIPTION:
			p.advance()
			p.expect(lexer.COLON)
			s := p.expect(lexer.STRING_LIT)
			decl.Description = s.Literal
		default:
			tok := p.current()
			p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
				"unexpected token %s in app body", tok.Type)
			startPos := p.pos
			p.synchronize()
			if p.pos == startPos {
				p.advance()
			}
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

// parseDataDecl parses: data <name> { <field>: <type> (<constraints>) ... }
func (p *Parser) parseDataDecl() *ast.DataDecl {
	tok := p.expect(lexer.DATA)
	name := p.expect(lexer.IDENT)
	p.expect(lexer.LBRACE)

	decl := &ast.DataDecl{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		if p.check(lexer.IDENT) {
			decl.Fields = append(decl.Fields, p.parseFieldDecl())
			continue
		}
		tok := p.current()
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected field name in data body, got %s", tok.Type)
		startPos := p.pos
		p.synchronize()
		if p.pos == startPos {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

// parseFieldDecl parses: <name>: <type> [(<constraint>, ...)]
func (p *Parser) parseFieldDecl() *ast.FieldDecl {
	name := p.expect(lexer.IDENT)
	p.expect(lexer.COLON)
	fieldType := p.parseTypeRef()

	field := &ast.FieldDecl{
		Name:   name.Literal,
		Type:   fieldType,
		Line:   name.Line,
		Column: name.Column,
	}

	if p.match(lexer.LPAREN) {
		for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
			c := p.parseConstraint()
			if c != nil {
				field.Constraints = append(field.Constraints, c)
			}
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RPAREN)
	}

	return field
}

// parseTypeRef parses: text | number | bool | date | ref <Entity>
func (p *Parser) parseTypeRef() *ast.TypeRef {
	tok := p.current()
	switch tok.Type {
	case lexer.TEXT_TYPE:
		p.advance()
		return &ast.TypeRef{Kind: ast.TypeText, Line: tok.Line, Column: tok.Column}
	case lexer.NUMBER_TYPE:
		p.advance()
		return &ast.TypeRef{Kind: ast.TypeNumber, Line: tok.Line, Column: tok.Column}
	case lexer.BOOL_TYPE:
		p.advance()
		return &ast.TypeRef{Kind: ast.TypeBool, Line: tok.Line, Column: tok.Column}
	case lexer.DATE_TYPE:
		p.advance()
		return &ast.TypeRef{Kind: ast.TypeDate, Line: tok.Line, Column: tok.Column}
	case lexer.REF:
		p.advance()
		target := p.expect(lexer.IDENT)
		return &ast.TypeRef{Kind: ast.TypeRefKind, RefName: target.Literal, Line: tok.Line, Column: tok.Column}
	default:
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected one of TEXT_TYPE, NUMBER_TYPE, BOOL_TYPE, DATE_TYPE, REF, got %s", tok.Type)
		return &ast.TypeRef{Kind: ast.TypeText, Line: tok.Line, Column: tok.Column}
	}
}

// parseConstraint parses one field constraint modifier
func (p *Parser) parseConstraint() *ast.Constraint {
	tok := p.current()
	switch tok.Type {
	case lexer.REQUIRED:
		p.advance()
		return &ast.Constraint{Kind: ast.ConstraintRequired, Line: tok.Line, Column: tok.Column}
	case lexer.UNIQUE:
		p.advance()
		return &ast.Constraint{Kind: ast.ConstraintUnique, Line: tok.Line, Column: tok.Column}
	case lexer.MIN, lexer.MAX:
		p.advance()
		p.expect(lexer.COLON)
		num := p.expect(lexer.NUMBER_LIT)
		kind := ast.ConstraintMin
		if tok.Type == lexer.MAX {
			kind = ast.ConstraintMax
		}
		return &ast.Constraint{Kind: kind, Number: parseNumber(num.Literal), Line: tok.Line, Column: tok.Column}
	case lexer.DEFAULT:
		p.advance()
		p.expect(lexer.COLON)
		value := p.parseLiteral()
		return &ast.Constraint{Kind: ast.ConstraintDefault, Default: value, Line: tok.Line, Column: tok.Column}
	case lexer.ENUM:
		p.advance()
		p.expect(lexer.COLON)
		p.expect(lexer.LBRACKET)
		var values []string
		for !p.check(lexer.RBRACKET) && !p.check(lexer.EOF) {
			s := p.expect(lexer.STRING_LIT)
			values = append(values, s.Literal)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RBRACKET)
		return &ast.Constraint{Kind: ast.ConstraintEnum, EnumValues: values, Line: tok.Line, Column: tok.Column}
	case lexer.AI:
		p.advance()
		p.expect(lexer.COLON)
		prompt := p.expect(lexer.STRING_LIT)
		p.expect(lexer.COMMA)
		mode := p.parseAiMode()
		return &ast.Constraint{Kind: ast.ConstraintAI, Prompt: prompt.Literal, Mode: mode, Line: tok.Line, Column: tok.Column}
	default:
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected one of REQUIRED, UNIQUE, MIN, MAX, DEFAULT, ENUM, AI, got %s", tok.Type)
		p.advance()
		return nil
	}
}

// parseAiMode parses: classify | extract | generate
func (p *Parser) parseAiMode() ast.AiMode {
	tok := p.expectOneOf(lexer.CLASSIFY, lexer.EXTRACT, lexer.GENERATE)
	switch tok.Type {
	case lexer.EXTRACT:
		return ast.ModeExtract
	case lexer.GENERATE:
		return ast.ModeGenerate
	default:
		return ast.ModeClassify
	}
}

// parseLiteral parses a literal expression (string, number, boolean)
func (p *Parser) parseLiteral() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.STRING_LIT:
		p.advance()
		return &ast.StringLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.NUMBER_LIT:
		p.advance()
		return &ast.NumberLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Line: tok.Line, Column: tok.Column}
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Line: tok.Line, Column: tok.Column}
	default:
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected one of STRING_LIT, NUMBER_LIT, TRUE, FALSE, got %s", tok.Type)
		p.advance()
		return &ast.StringLit{Line: tok.Line, Column: tok.Column}
	}
}

// parseViewDecl parses: view <name> { from: E  show: [a, b]  filter: <expr>  sort: <field> [asc|desc] }
func (p *Parser) parseViewDecl() *ast.ViewDecl {
	tok := p.expect(lexer.VIEW)
	name := p.expect(lexer.IDENT)
	p.expect(lexer.LBRACE)

	decl := &ast.ViewDecl{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		switch p.current().Type {
		case lexer.FROM:
			p.advance()
			p.expect(lexer.COLON)
			target := p.expect(lexer.IDENT)
			decl.From = target.Literal
			decl.FromPos = [2]int{target.Line, target.Column}
		case lexer.SHOW:
			p.advance()
			p.expect(lexer.COLON)
			p.expect(lexer.LBRACKET)
			for !p.check(lexer.RBRACKET) && !p.check(lexer.EOF) {
				f := p.expect(lexer.IDENT)
				decl.Show = append(decl.Show, &ast.FieldRef{Name: f.Literal, Line: f.Line, Column: f.Column})
				if !p.match(lexer.COMMA) {
					break
				}
			}
			p.expect(lexer.RBRACKET)
		case lexer.FILTER:
			p.advance()
			p.expect(lexer.COLON)
			decl.Filter = p.parseExpression()
		case lexer.SORT:
			p.advance()
			p.expect(lexer.COLON)
			f := p.expect(lexer.IDENT)
			sort := &ast.SortClause{Field: f.Literal, Line: f.Line, Column: f.Column}
			if p.match(lexer.DESC) {
				sort.Desc = true
			} else {
				p.match(lexer.ASC)
			}
			decl.Sort = sort
		default:
			tok := p.current()
			p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
				"unexpected token %s in view body", tok.Type)
			startPos := p.pos
			p.synchronize()
			if p.pos == startPos {
				p.advance()
			}
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

// parseActionDecl parses: action <name> { [on: E] <stmt> ... }
func (p *Parser) parseActionDecl() *ast.ActionDecl {
	tok := p.expect(lexer.ACTION)
	name := p.expect(lexer.IDENT)
	p.expect(lexer.LBRACE)

	decl := &ast.ActionDecl{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}

	if p.check(lexer.ON) {
		p.advance()
		p.expect(lexer.COLON)
		target := p.expect(lexer.IDENT)
		decl.On = target.Literal
		decl.OnPos = [2]int{target.Line, target.Column}
	}

	decl.Body = p.parseStatements()
	p.expect(lexer.RBRACE)
	return decl
}

// parseStatements parses statements until a closing brace
func (p *Parser) parseStatements() []ast.Statement {
	var stmts []ast.Statement
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// parseStatement parses one action statement
func (p *Parser) parseStatement() ast.Statement {
	tok := p.current()
	switch tok.Type {
	case lexer.VALIDATE:
		p.advance()
		f := p.expect(lexer.IDENT)
		return &ast.ValidateStmt{Field: f.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.SET:
		p.advance()
		f := p.expect(lexer.IDENT)
		p.expect(lexer.ASSIGN)
		value := p.parseExpression()
		return &ast.SetStmt{Field: f.Literal, Value: value, Line: tok.Line, Column: tok.Column}
	case lexer.IF:
		p.advance()
		cond := p.parseExpression()
		p.expect(lexer.LBRACE)
		then := p.parseStatements()
		p.expect(lexer.RBRACE)
		stmt := &ast.IfStmt{Condition: cond, Then: then, Line: tok.Line, Column: tok.Column}
		if p.match(lexer.ELSE) {
			p.expect(lexer.LBRACE)
			stmt.Else = p.parseStatements()
			p.expect(lexer.RBRACE)
		}
		return stmt
	case lexer.SAVE:
		p.advance()
		return &ast.SaveStmt{Line: tok.Line, Column: tok.Column}
	case lexer.ALERT:
		p.advance()
		msg := p.expect(lexer.STRING_LIT)
		return &ast.AlertStmt{Message: msg.Literal, Line: tok.Line, Column: tok.Column}
	default:
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected one of VALIDATE, SET, IF, SAVE, ALERT in action body, got %s", tok.Type)
		startPos := p.pos
		p.synchronize()
		if p.pos == startPos {
			p.advance()
		}
		return nil
	}
}

// parseTaskDecl parses: task <name> { every: "<duration>"  run: <Action> }
func (p *Parser) parseTaskDecl() *ast.TaskDecl {
	tok := p.expect(lexer.TASK)
	name := p.expect(lexer.IDENT)
	p.expect(lexer.LBRACE)

	decl := &ast.TaskDecl{
		Name:   name.Literal,
		Line:   tok.Line,
		Column: tok.Column,
	}

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		switch p.current().Type {
		case lexer.EVERY:
			p.advance()
			p.expect(lexer.COLON)
			s := p.expect(lexer.STRING_LIT)
			decl.Every = s.Literal
		case lexer.RUN:
			p.advance()
			p.expect(lexer.COLON)
			target := p.expect(lexer.IDENT)
			decl.Run = target.Literal
			decl.RunPos = [2]int{target.Line, target.Column}
		default:
			tok := p.current()
			p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
				"unexpected token %s in task body", tok.Type)
			startPos := p.pos
			p.synchronize()
			if p.pos == startPos {
				p.advance()
			}
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

// --- Expressions ---

// parseExpression parses an expression with or/and/not precedence
func (p *Parser) parseExpression() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.check(lexer.OR) {
		op := p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpr{Left: left, Op: op.Type, Right: right, Line: op.Line, Column: op.Column}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseNot()
	for p.check(lexer.AND) {
		op := p.advance()
		right := p.parseNot()
		left = &ast.BinaryExpr{Left: left, Op: op.Type, Right: right, Line: op.Line, Column: op.Column}
	}
	return left
}

func (p *Parser) parseNot() ast.Expression {
	if p.check(lexer.NOT) {
		op := p.advance()
		operand := p.parseNot()
		return &ast.UnaryExpr{Op: op.Type, Operand: operand, Line: op.Line, Column: op.Column}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parsePrimary()
	switch p.current().Type {
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LEQ, lexer.GEQ:
		op := p.advance()
		right := p.parsePrimary()
		return &ast.BinaryExpr{Left: left, Op: op.Type, Right: right, Line: op.Line, Column: op.Column}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return &ast.Identifier{Name: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.STRING_LIT, lexer.NUMBER_LIT, lexer.TRUE, lexer.FALSE:
		return p.parseLiteral()
	case lexer.AI:
		return p.parseAiExpr()
	case lexer.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(lexer.RPAREN)
		return expr
	default:
		p.diags.Add(diagnostic.ParseError, tok.File, tok.Line, tok.Column,
			"expected one of IDENT, STRING_LIT, NUMBER_LIT, TRUE, FALSE, AI, LPAREN in expression, got %s", tok.Type)
		p.advance()
		return &ast.StringLit{Line: tok.Line, Column: tok.Column}
	}
}

// parseAiExpr parses: ai("<prompt>", <mode>)
func (p *Parser) parseAiExpr() ast.Expression {
	tok := p.expect(lexer.AI)
	p.expect(lexer.LPAREN)
	prompt := p.expect(lexer.STRING_LIT)
	p.expect(lexer.COMMA)
	mode := p.parseAiMode()
	p.expect(lexer.RPAREN)
	return &ast.AiExpr{Prompt: prompt.Literal, Mode: mode, Line: tok.Line, Column: tok.Column}
}

// parseNumber converts a numeric literal to a float64. The lexer only
// produces digit sequences with an optional fraction, so parsing cannot
// fail here.
func parseNumber(lit string) float64 {
	n, _ := strconv.ParseFloat(lit, 64)
	return n
}
