package ir

import "time"

// EntityID indexes into Module.Entities.
type EntityID int

// FieldID indexes into Entity.Fields.
type FieldID int

// ActionID indexes into Module.Actions.
type ActionID int

// NoEntity marks an unset entity reference.
const NoEntity EntityID = -1

// Module is the normalized form of one verified source unit. It is
// immutable after Lower returns; backends read it concurrently without
// synchronization.
type Module struct {
	AppName     string
	Description string
	Entities    []*Entity
	Views       []*View
	Actions     []*Action
	Tasks       []*Task

	// AiOps is the deduplicated catalog of AI operations in the
	// module, sorted by OperationID.
	AiOps []*AiOp
}

// Entity is a lowered data declaration.
type Entity struct {
	ID     EntityID
	Name   string
	Fields []*Field
}

// FieldType enumerates the storage types of a lowered field.
type FieldType int

const (
	TextField FieldType = iota
	NumberField
	BoolField
	DateField
	RefField
)

// String returns the source-level name of the field type.
func (t FieldType) String() string {
	switch t {
	case TextField:
		return "text"
	case NumberField:
		return "number"
	case BoolField:
		return "bool"
	case DateField:
		return "date"
	case RefField:
		return "ref"
	default:
		return "unknown"
	}
}

// Field is a lowered field declaration. Constraint modifiers are
// flattened into explicit members so backends never re-walk a
// constraint list.
type Field struct {
	ID   FieldID
	Name string
	Type FieldType

	// Ref is the target entity for RefField types, NoEntity otherwise.
	Ref EntityID

	Required bool
	Unique   bool

	HasMin bool
	Min    float64
	HasMax bool
	Max    float64

	HasDefault bool
	Default    Value

	// Enum holds the allowed values for enum-constrained text fields.
	Enum []string

	// AI is set when the field carries an ai constraint. The operation
	// also appears in Module.AiOps.
	AI *AiOp
}

// AiMode is the operation mode of an AI call.
type AiMode string

const (
	Classify AiMode = "classify"
	Extract  AiMode = "extract"
	Generate AiMode = "generate"
)

// AiOp is one distinct AI operation. Two operations with the same mode
// and prompt share an OperationID and collapse to one catalog entry.
type AiOp struct {
	// OperationID is a stable content-derived identifier, used as the
	// cache and rate-limit key prefix at runtime.
	OperationID string
	Prompt      string
	Mode        AiMode
}

// View is a lowered view declaration.
type View struct {
	Name   string
	Entity EntityID
	Show   []FieldID
	Filter Expr // nil when absent
	Sort   *Sort
}

// Sort is a view's sort specification.
type Sort struct {
	Field FieldID
	Desc  bool
}

// Action is a lowered action declaration.
type Action struct {
	ID     ActionID
	Name   string
	Entity EntityID
	Body   []Instr
}

// Task is a lowered background task.
type Task struct {
	Name  string
	Every time.Duration
	Run   ActionID
}

// --- Instructions ---

// Instr is one step of an action body.
type Instr interface {
	instrNode()
}

// Validate checks a field's constraints against the current record and
// fails the action on violation.
type Validate struct {
	Field FieldID
}

func (*Validate) instrNode() {}

// SetField assigns an expression result to a field.
type SetField struct {
	Field FieldID
	Value Expr
}

func (*SetField) instrNode() {}

// AiInvoke performs one AI operation and binds the result to a
// temporary. Every ai() expression in a body lowers to an AiInvoke
// before the instruction that consumes its result.
type AiInvoke struct {
	Op   *AiOp
	Dest string // temporary name, referenced by TempRef
}

func (*AiInvoke) instrNode() {}

// Branch executes Then when Cond is true, Else otherwise.
type Branch struct {
	Cond Expr
	Then []Instr
	Else []Instr
}

func (*Branch) instrNode() {}

// Save persists the current record.
type Save struct{}

func (*Save) instrNode() {}

// Alert emits a notification with a fixed message.
type Alert struct {
	Message string
}

func (*Alert) instrNode() {}

// --- Expressions ---

// Expr is a side-effect-free expression over the current record and
// previously bound temporaries.
type Expr interface {
	exprNode()
}

// FieldRef reads a field of the current record.
type FieldRef struct {
	Field FieldID
}

func (*FieldRef) exprNode() {}

// TempRef reads a temporary bound by an earlier AiInvoke.
type TempRef struct {
	Name string
}

func (*TempRef) exprNode() {}

// ValueKind tags a literal Value.
type ValueKind int

const (
	TextValue ValueKind = iota
	NumberValue
	BoolValue
)

// Value is a literal. Only the member matching Kind is meaningful.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
}

// Lit is a literal expression.
type Lit struct {
	Value Value
}

func (*Lit) exprNode() {}

// BinOp enumerates binary operators.
type BinOp int

const (
	OpEq BinOp = iota
	OpNeq
	OpLt
	OpGt
	OpLeq
	OpGeq
	OpAnd
	OpOr
)

// String returns the source-level spelling of the operator.
func (op BinOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLeq:
		return "<="
	case OpGeq:
		return ">="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return "unknown"
	}
}

// Binary is a comparison or logical operation.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Unary is logical negation.
type Unary struct {
	Operand Expr
}

func (*Unary) exprNode() {}

// EntityByID returns the entity with the given ID, or nil.
func (m *Module) EntityByID(id EntityID) *Entity {
	if id < 0 || int(id) >= len(m.Entities) {
		return nil
	}
	return m.Entities[int(id)]
}

// ActionByID returns the action with the given ID, or nil.
func (m *Module) ActionByID(id ActionID) *Action {
	if id < 0 || int(id) >= len(m.Actions) {
		return nil
	}
	return m.Actions[int(id)]
}

// FieldByID returns the field with the given ID, or nil.
func (e *Entity) FieldByID(id FieldID) *Field {
	if id < 0 || int(id) >= len(e.Fields) {
		return nil
	}
	return e.Fields[int(id)]
}
