package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/shepstack/shep/internal/ast"
	"github.com/shepstack/shep/internal/lexer"
	"github.com/shepstack/shep/internal/verifier"
)

// OperationIDFor derives the stable identifier of an AI operation from
// its mode and prompt. Operations with identical content always map to
// the same ID, so caches survive recompilation.
func OperationIDFor(mode AiMode, prompt string) string {
	sum := sha256.Sum256([]byte(string(mode) + "\n" + prompt))
	return hex.EncodeToString(sum[:])[:16]
}

// lowerer transforms a verified AST into IR.
type lowerer struct {
	spec *ast.Spec
	res  *verifier.Result
	mod  *Module

	entityIDs map[string]EntityID
	actionIDs map[string]ActionID
	fieldIDs  map[EntityID]map[string]FieldID

	ops map[string]*AiOp // by OperationID

	tempCounter int
}

// Lower transforms a verified spec into an IR module. The caller must
// not invoke Lower when verification produced errors; lowering assumes
// every reference resolved.
func Lower(spec *ast.Spec, res *verifier.Result) *Module {
	l := &lowerer{
		spec:      spec,
		res:       res,
		mod:       &Module{},
		entityIDs: make(map[string]EntityID),
		actionIDs: make(map[string]ActionID),
		fieldIDs:  make(map[EntityID]map[string]FieldID),
		ops:       make(map[string]*AiOp),
	}

	if spec.App != nil {
		l.mod.AppName = spec.App.Name
		l.mod.Description = spec.App.Description
	}

	// Assign dense IDs in declaration order before lowering bodies so
	// forward references resolve.
	for _, d := range spec.Datas {
		id := EntityID(len(l.mod.Entities))
		l.entityIDs[d.Name] = id
		l.mod.Entities = append(l.mod.Entities, &Entity{ID: id, Name: d.Name})
		fields := make(map[string]FieldID)
		for _, f := range d.Fields {
			if _, ok := fields[f.Name]; !ok {
				fields[f.Name] = FieldID(len(fields))
			}
		}
		l.fieldIDs[id] = fields
	}
	for _, a := range spec.Actions {
		l.actionIDs[a.Name] = ActionID(len(l.actionIDs))
	}

	for i, d := range spec.Datas {
		l.lowerEntity(l.mod.Entities[i], d)
	}
	for _, view := range spec.Views {
		l.lowerView(view)
	}
	for _, action := range spec.Actions {
		l.lowerAction(action)
	}
	for _, task := range spec.Tasks {
		l.lowerTask(task)
	}

	for _, op := range l.ops {
		l.mod.AiOps = append(l.mod.AiOps, op)
	}
	sort.Slice(l.mod.AiOps, func(i, j int) bool {
		return l.mod.AiOps[i].OperationID < l.mod.AiOps[j].OperationID
	})

	return l.mod
}

// intern deduplicates an AI operation into the module catalog.
func (l *lowerer) intern(prompt string, mode ast.AiMode) *AiOp {
	m := lowerMode(mode)
	id := OperationIDFor(m, prompt)
	if op, ok := l.ops[id]; ok {
		return op
	}
	op := &AiOp{OperationID: id, Prompt: prompt, Mode: m}
	l.ops[id] = op
	return op
}

func lowerMode(m ast.AiMode) AiMode {
	switch m {
	case ast.ModeExtract:
		return Extract
	case ast.ModeGenerate:
		return Generate
	default:
		return Classify
	}
}

// --- Entities ---

func (l *lowerer) lowerEntity(ent *Entity, d *ast.DataDecl) {
	seen := make(map[string]bool)
	for _, f := range d.Fields {
		if seen[f.Name] {
			continue // duplicate, first wins
		}
		seen[f.Name] = true
		ent.Fields = append(ent.Fields, l.lowerField(FieldID(len(ent.Fields)), f))
	}
}

func (l *lowerer) lowerField(id FieldID, f *ast.FieldDecl) *Field {
	field := &Field{
		ID:   id,
		Name: f.Name,
		Type: lowerType(f.Type.Kind),
		Ref:  NoEntity,
	}
	if f.Type.Kind == ast.TypeRefKind {
		field.Ref = l.entityIDs[f.Type.RefName]
	}

	for _, c := range f.Constraints {
		switch c.Kind {
		case ast.ConstraintRequired:
			field.Required = true
		case ast.ConstraintUnique:
			field.Unique = true
		case ast.ConstraintMin:
			field.HasMin = true
			field.Min = c.Number
		case ast.ConstraintMax:
			field.HasMax = true
			field.Max = c.Number
		case ast.ConstraintDefault:
			field.HasDefault = true
			field.Default = lowerLiteral(c.Default)
		case ast.ConstraintEnum:
			field.Enum = append([]string(nil), c.EnumValues...)
		case ast.ConstraintAI:
			field.AI = l.intern(c.Prompt, c.Mode)
		}
	}
	return field
}

func lowerType(k ast.TypeKind) FieldType {
	switch k {
	case ast.TypeNumber:
		return NumberField
	case ast.TypeBool:
		return BoolField
	case ast.TypeDate:
		return DateField
	case ast.TypeRefKind:
		return RefField
	default:
		return TextField
	}
}

func lowerLiteral(e ast.Expression) Value {
	switch lit := e.(type) {
	case *ast.NumberLit:
		n, _ := strconv.ParseFloat(lit.Value, 64)
		return Value{Kind: NumberValue, Number: n}
	case *ast.BoolLit:
		return Value{Kind: BoolValue, Bool: lit.Value}
	case *ast.StringLit:
		return Value{Kind: TextValue, Text: lit.Value}
	default:
		return Value{Kind: TextValue}
	}
}

// --- Views ---

func (l *lowerer) lowerView(view *ast.ViewDecl) {
	entity, ok := l.res.ViewEntity[view]
	if !ok {
		return
	}
	eid := l.entityIDs[entity.Name]
	fields := l.fieldIDs[eid]

	v := &View{Name: view.Name, Entity: eid}
	for _, ref := range view.Show {
		v.Show = append(v.Show, fields[ref.Name])
	}
	if view.Filter != nil {
		v.Filter = l.lowerPureExpr(view.Filter, fields)
	}
	if view.Sort != nil {
		v.Sort = &Sort{Field: fields[view.Sort.Field], Desc: view.Sort.Desc}
	}
	l.mod.Views = append(l.mod.Views, v)
}

// --- Actions ---

func (l *lowerer) lowerAction(action *ast.ActionDecl) {
	entity, ok := l.res.ActionEntity[action]
	a := &Action{
		ID:     l.actionIDs[action.Name],
		Name:   action.Name,
		Entity: NoEntity,
	}
	if ok {
		a.Entity = l.entityIDs[entity.Name]
		l.tempCounter = 0
		a.Body = l.lowerStatements(action.Body, l.fieldIDs[a.Entity])
	}
	l.mod.Actions = append(l.mod.Actions, a)
}

func (l *lowerer) lowerStatements(stmts []ast.Statement, fields map[string]FieldID) []Instr {
	var out []Instr
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ValidateStmt:
			out = append(out, &Validate{Field: fields[s.Field]})
		case *ast.SetStmt:
			value := l.lowerExpr(s.Value, fields, &out)
			out = append(out, &SetField{Field: fields[s.Field], Value: value})
		case *ast.IfStmt:
			cond := l.lowerExpr(s.Condition, fields, &out)
			out = append(out, &Branch{
				Cond: cond,
				Then: l.lowerStatements(s.Then, fields),
				Else: l.lowerStatements(s.Else, fields),
			})
		case *ast.SaveStmt:
			out = append(out, &Save{})
		case *ast.AlertStmt:
			out = append(out, &Alert{Message: s.Message})
		}
	}
	return out
}

// lowerExpr lowers an expression, hoisting each nested ai() call into
// an AiInvoke appended to instrs. The returned expression is pure.
func (l *lowerer) lowerExpr(e ast.Expression, fields map[string]FieldID, instrs *[]Instr) Expr {
	if ai, ok := e.(*ast.AiExpr); ok {
		op := l.intern(ai.Prompt, ai.Mode)
		dest := fmt.Sprintf("ai%d", l.tempCounter)
		l.tempCounter++
		*instrs = append(*instrs, &AiInvoke{Op: op, Dest: dest})
		return &TempRef{Name: dest}
	}
	if b, ok := e.(*ast.BinaryExpr); ok {
		// Operands lower left to right so invocation order matches
		// source order.
		left := l.lowerExpr(b.Left, fields, instrs)
		right := l.lowerExpr(b.Right, fields, instrs)
		return &Binary{Op: lowerOp(b.Op), Left: left, Right: right}
	}
	if u, ok := e.(*ast.UnaryExpr); ok {
		return &Unary{Operand: l.lowerExpr(u.Operand, fields, instrs)}
	}
	return l.lowerPureExpr(e, fields)
}

// lowerPureExpr lowers an expression known to contain no ai() calls.
func (l *lowerer) lowerPureExpr(e ast.Expression, fields map[string]FieldID) Expr {
	switch expr := e.(type) {
	case *ast.Identifier:
		return &FieldRef{Field: fields[expr.Name]}
	case *ast.StringLit:
		return &Lit{Value: Value{Kind: TextValue, Text: expr.Value}}
	case *ast.NumberLit:
		n, _ := strconv.ParseFloat(expr.Value, 64)
		return &Lit{Value: Value{Kind: NumberValue, Number: n}}
	case *ast.BoolLit:
		return &Lit{Value: Value{Kind: BoolValue, Bool: expr.Value}}
	case *ast.BinaryExpr:
		return &Binary{
			Op:    lowerOp(expr.Op),
			Left:  l.lowerPureExpr(expr.Left, fields),
			Right: l.lowerPureExpr(expr.Right, fields),
		}
	case *ast.UnaryExpr:
		return &Unary{Operand: l.lowerPureExpr(expr.Operand, fields)}
	default:
		return &Lit{Value: Value{Kind: BoolValue, Bool: true}}
	}
}

func lowerOp(op lexer.TokenType) BinOp {
	switch op {
	case lexer.NEQ:
		return OpNeq
	case lexer.LT:
		return OpLt
	case lexer.GT:
		return OpGt
	case lexer.LEQ:
		return OpLeq
	case lexer.GEQ:
		return OpGeq
	case lexer.AND:
		return OpAnd
	case lexer.OR:
		return OpOr
	default:
		return OpEq
	}
}

// --- Tasks ---

func (l *lowerer) lowerTask(task *ast.TaskDecl) {
	action, ok := l.res.TaskAction[task]
	if !ok {
		return
	}
	every, ok := l.res.TaskEvery[task]
	if !ok {
		return
	}
	l.mod.Tasks = append(l.mod.Tasks, &Task{
		Name:  task.Name,
		Every: every,
		Run:   l.actionIDs[action.Name],
	})
}
