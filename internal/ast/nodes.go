package ast

import "github.com/shepstack/shep/internal/lexer"

// Node is the base interface for all AST nodes. Ownership is strictly
// parent to child; nodes never point back at their parents.
type Node interface {
	Pos() (line, col int)
}

// Statement nodes appear inside action bodies
type Statement interface {
	Node
	stmtNode()
}

// Expression nodes
type Expression interface {
	Node
	exprNode()
}

// Spec represents one complete source unit
type Spec struct {
	File    string
	App     *AppDecl
	Datas   []*DataDecl
	Views   []*ViewDecl
	Actions []*ActionDecl
	Tasks   []*TaskDecl
}

func (s *Spec) Pos() (int, int) {
	if s.App != nil {
		return s.App.Pos()
	}
	return 0, 0
}

// AppDecl represents the app declaration
type AppDecl struct {
	Name        string
	Description string
	Line        int
	Column      int
}

func (a *AppDecl) Pos() (int, int) { return a.Line, a.Column }

// DataDecl represents a data entity declaration
type DataDecl struct {
	Name   string
	Fields []*FieldDecl
	Line   int
	Column int
}

func (d *DataDecl) Pos() (int, int) { return d.Line, d.Column }

// FieldDecl represents one field of a data entity with its ordered
// constraint list.
type FieldDecl struct {
	Name        string
	Type        *TypeRef
	Constraints []*Constraint
	Line        int
	Column      int
}

func (f *FieldDecl) Pos() (int, int) { return f.Line, f.Column }

// TypeKind enumerates the field types of the language
type TypeKind int

const (
	TypeText TypeKind = iota
	TypeNumber
	TypeBool
	TypeDate
	TypeRefKind
)

// String returns the source-level name of the type kind
func (k TypeKind) String() string {
	switch k {
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeRefKind:
		return "ref"
	default:
		return "unknown"
	}
}

// TypeRef represents a field type reference. RefName is set only for
// TypeRefKind kinds.
type TypeRef struct {
	Kind    TypeKind
	RefName string
	Line    int
	Column  int
}

func (t *TypeRef) Pos() (int, int) { return t.Line, t.Column }

// ConstraintKind enumerates field constraint modifiers
type ConstraintKind int

const (
	ConstraintRequired ConstraintKind = iota
	ConstraintUnique
	ConstraintMin
	ConstraintMax
	ConstraintDefault
	ConstraintEnum
	ConstraintAI
)

// String returns the source-level name of the constraint kind
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintRequired:
		return "required"
	case ConstraintUnique:
		return "unique"
	case ConstraintMin:
		return "min"
	case ConstraintMax:
		return "max"
	case ConstraintDefault:
		return "default"
	case ConstraintEnum:
		return "enum"
	case ConstraintAI:
		return "ai"
	default:
		return "unknown"
	}
}

// Constraint represents one field constraint. Only the fields relevant
// to Kind are populated.
type Constraint struct {
	Kind       ConstraintKind
	Number     float64    // min, max
	Default    Expression // default literal
	EnumValues []string   // enum
	Prompt     string     // ai
	Mode       AiMode     // ai
	Line       int
	Column     int
}

func (c *Constraint) Pos() (int, int) { return c.Line, c.Column }

// AiMode is the operation mode of an ai() expression or constraint
type AiMode int

const (
	ModeClassify AiMode = iota
	ModeExtract
	ModeGenerate
)

// String returns the source-level name of the mode
func (m AiMode) String() string {
	switch m {
	case ModeClassify:
		return "classify"
	case ModeExtract:
		return "extract"
	case ModeGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// ViewDecl represents a view declaration
type ViewDecl struct {
	Name    string
	From    string
	FromPos [2]int // line, col of the from clause value
	Show    []*FieldRef
	Filter  Expression // nil when absent
	Sort    *SortClause
	Line    int
	Column  int
}

func (v *ViewDecl) Pos() (int, int) { return v.Line, v.Column }

// FieldRef is a by-name reference to an entity field
type FieldRef struct {
	Name   string
	Line   int
	Column int
}

func (f *FieldRef) Pos() (int, int) { return f.Line, f.Column }

// SortClause represents a view's sort specification
type SortClause struct {
	Field  string
	Desc   bool
	Line   int
	Column int
}

func (s *SortClause) Pos() (int, int) { return s.Line, s.Column }

// ActionDecl represents an action declaration
type ActionDecl struct {
	Name   string
	On     string
	OnPos  [2]int // line, col of the on clause value
	Body   []Statement
	Line   int
	Column int
}

func (a *ActionDecl) Pos() (int, int) { return a.Line, a.Column }

// TaskDecl represents a background task declaration
type TaskDecl struct {
	Name   string
	Every  string // duration literal, e.g. "24h"
	Run    string // target action name
	RunPos [2]int
	Line   int
	Column int
}

func (t *TaskDecl) Pos() (int, int) { return t.Line, t.Column }

// --- Statements ---

// ValidateStmt represents: validate <field>
type ValidateStmt struct {
	Field  string
	Line   int
	Column int
}

func (v *ValidateStmt) Pos() (int, int) { return v.Line, v.Column }
func (v *ValidateStmt) stmtNode()       {}

// SetStmt represents: set <field> = <expr>
type SetStmt struct {
	Field  string
	Value  Expression
	Line   int
	Column int
}

func (s *SetStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *SetStmt) stmtNode()       {}

// IfStmt represents a conditional branch. The condition may be an
// ai() expression.
type IfStmt struct {
	Condition Expression
	Then      []Statement
	Else      []Statement // nil if no else branch
	Line      int
	Column    int
}

func (i *IfStmt) Pos() (int, int) { return i.Line, i.Column }
func (i *IfStmt) stmtNode()       {}

// SaveStmt represents: save
type SaveStmt struct {
	Line   int
	Column int
}

func (s *SaveStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *SaveStmt) stmtNode()       {}

// AlertStmt represents: alert "<message>"
type AlertStmt struct {
	Message string
	Line    int
	Column  int
}

func (a *AlertStmt) Pos() (int, int) { return a.Line, a.Column }
func (a *AlertStmt) stmtNode()       {}

// --- Expressions ---

// Identifier references a field of the enclosing entity
type Identifier struct {
	Name   string
	Line   int
	Column int
}

func (i *Identifier) Pos() (int, int) { return i.Line, i.Column }
func (i *Identifier) exprNode()       {}

// StringLit represents a string literal
type StringLit struct {
	Value  string
	Line   int
	Column int
}

func (s *StringLit) Pos() (int, int) { return s.Line, s.Column }
func (s *StringLit) exprNode()       {}

// NumberLit represents a numeric literal
type NumberLit struct {
	Value  string // original text, parsed during lowering
	Line   int
	Column int
}

func (n *NumberLit) Pos() (int, int) { return n.Line, n.Column }
func (n *NumberLit) exprNode()       {}

// BoolLit represents a boolean literal
type BoolLit struct {
	Value  bool
	Line   int
	Column int
}

func (b *BoolLit) Pos() (int, int) { return b.Line, b.Column }
func (b *BoolLit) exprNode()       {}

// BinaryExpr represents a comparison or logical operation
type BinaryExpr struct {
	Left   Expression
	Op     lexer.TokenType
	Right  Expression
	Line   int
	Column int
}

func (b *BinaryExpr) Pos() (int, int) { return b.Line, b.Column }
func (b *BinaryExpr) exprNode()       {}

// UnaryExpr represents logical negation
type UnaryExpr struct {
	Op      lexer.TokenType
	Operand Expression
	Line    int
	Column  int
}

func (u *UnaryExpr) Pos() (int, int) { return u.Line, u.Column }
func (u *UnaryExpr) exprNode()       {}

// AiExpr represents an ai("prompt", mode) expression
type AiExpr struct {
	Prompt string
	Mode   AiMode
	Line   int
	Column int
}

func (a *AiExpr) Pos() (int, int) { return a.Line, a.Column }
func (a *AiExpr) exprNode()       {}
