package verifier

import (
	"time"

	"github.com/shepstack/shep/internal/ast"
	"github.com/shepstack/shep/internal/diagnostic"
	"github.com/shepstack/shep/internal/lexer"
)

// unknownType marks an expression whose type could not be determined
// (usually because an earlier pass already reported the problem).
const unknownType ast.TypeKind = -1

// checkConstraints performs constraint validation (pass 3):
// type-compatibility of constraint modifiers, non-empty enum sets,
// non-empty AI prompts, required-vs-default conflicts, foreign-key
// target shape, condition typing, and task schedules.
func (v *Verifier) checkConstraints() {
	for _, d := range v.spec.Datas {
		for _, f := range d.Fields {
			v.checkFieldConstraints(d, f)
		}
	}
	for _, view := range v.spec.Views {
		entity, ok := v.res.ViewEntity[view]
		if !ok || view.Filter == nil {
			continue
		}
		if ai := findAiExpr(view.Filter); ai != nil {
			// Views are pure read paths; AI invocation only happens in actions
			v.diags.Add(diagnostic.UnsupportedConstruct, v.spec.File, ai.Line, ai.Column,
				"ai() is not allowed in view filters")
			continue
		}
		v.checkCondition(view.Filter, v.res.Fields[entity])
	}
	for _, action := range v.spec.Actions {
		if entity, ok := v.res.ActionEntity[action]; ok {
			v.checkStatements(action.Body, v.res.Fields[entity])
		}
	}
	for _, task := range v.spec.Tasks {
		v.checkTask(task)
	}
}

// checkFieldConstraints validates the constraint list of one field
func (v *Verifier) checkFieldConstraints(d *ast.DataDecl, f *ast.FieldDecl) {
	file := v.spec.File
	var (
		required   bool
		hasDefault bool
		defaultC   *ast.Constraint
		enumC      *ast.Constraint
		hasMin     bool
		hasMax     bool
		min, max   float64
	)

	for _, c := range f.Constraints {
		switch c.Kind {
		case ast.ConstraintRequired:
			required = true

		case ast.ConstraintUnique:
			// No shape requirements beyond the field itself

		case ast.ConstraintMin, ast.ConstraintMax:
			if f.Type.Kind != ast.TypeNumber && f.Type.Kind != ast.TypeText {
				v.diags.Add(diagnostic.TypeMismatch, file, c.Line, c.Column,
					"%s constraint requires a number or text field, '%s' is %s",
					c.Kind, f.Name, f.Type.Kind)
				continue
			}
			if c.Kind == ast.ConstraintMin {
				hasMin, min = true, c.Number
			} else {
				hasMax, max = true, c.Number
			}

		case ast.ConstraintDefault:
			hasDefault = true
			defaultC = c
			if lit := literalType(c.Default); lit != unknownType && !typeCompatible(f.Type.Kind, lit) {
				v.diags.Add(diagnostic.TypeMismatch, file, c.Line, c.Column,
					"default value of type %s does not match field '%s' of type %s",
					lit, f.Name, f.Type.Kind)
			}

		case ast.ConstraintEnum:
			enumC = c
			if f.Type.Kind != ast.TypeText {
				v.diags.Add(diagnostic.TypeMismatch, file, c.Line, c.Column,
					"enum constraint requires a text field, '%s' is %s", f.Name, f.Type.Kind)
				continue
			}
			if len(c.EnumValues) == 0 {
				v.diags.Add(diagnostic.ConstraintViolation, file, c.Line, c.Column,
					"enum constraint on field '%s' has no values", f.Name)
			}

		case ast.ConstraintAI:
			if c.Prompt == "" {
				v.diags.Add(diagnostic.ConstraintViolation, file, c.Line, c.Column,
					"ai constraint on field '%s' has an empty prompt", f.Name)
			}
			if f.Type.Kind == ast.TypeDate || f.Type.Kind == ast.TypeRefKind {
				v.diags.Add(diagnostic.TypeMismatch, file, c.Line, c.Column,
					"ai constraint cannot produce a %s value for field '%s'", f.Type.Kind, f.Name)
			}
		}
	}

	if hasMin && hasMax && min > max {
		v.diags.Add(diagnostic.ConstraintViolation, file, f.Line, f.Column,
			"field '%s' has min %v greater than max %v", f.Name, min, max)
	}

	if required && hasDefault {
		v.diags.Warn(diagnostic.ConstraintViolation, file, defaultC.Line, defaultC.Column,
			"field '%s' is both required and defaulted; the default can never apply on creation", f.Name)
	}

	if hasDefault && enumC != nil && len(enumC.EnumValues) > 0 {
		if s, ok := defaultC.Default.(*ast.StringLit); ok && !contains(enumC.EnumValues, s.Value) {
			v.diags.Add(diagnostic.ConstraintViolation, file, defaultC.Line, defaultC.Column,
				"default %q is not one of the enum values of field '%s'", s.Value, f.Name)
		}
	}

	if f.Type.Kind == ast.TypeRefKind {
		v.checkRefTarget(f)
	}
}

// checkRefTarget verifies a foreign-key field targets an entity with an
// identifying field: one marked unique, or one named "id".
func (v *Verifier) checkRefTarget(f *ast.FieldDecl) {
	sym := v.table.Resolve(NSData, f.Type.RefName)
	if sym == nil {
		return // already reported by reference resolution
	}
	target := sym.Decl.(*ast.DataDecl)
	for _, tf := range target.Fields {
		if tf.Name == "id" {
			return
		}
		for _, c := range tf.Constraints {
			if c.Kind == ast.ConstraintUnique {
				return
			}
		}
	}
	v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, f.Line, f.Column,
		"field '%s' references data '%s' which has no identifying field (unique or 'id')",
		f.Name, target.Name)
}

// checkStatements validates statement bodies: set value typing and
// condition typing.
func (v *Verifier) checkStatements(stmts []ast.Statement, fields map[string]*ast.FieldDecl) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.SetStmt:
			target, ok := fields[s.Field]
			if !ok {
				continue // already reported
			}
			vt := v.exprType(s.Value, fields)
			if vt != unknownType && !typeCompatible(target.Type.Kind, vt) {
				v.diags.Add(diagnostic.TypeMismatch, v.spec.File, s.Line, s.Column,
					"cannot set field '%s' of type %s to a %s value", s.Field, target.Type.Kind, vt)
			}
			if ai, ok := s.Value.(*ast.AiExpr); ok && ai.Prompt == "" {
				v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, ai.Line, ai.Column,
					"ai() expression has an empty prompt")
			}
		case *ast.IfStmt:
			v.checkCondition(s.Condition, fields)
			v.checkStatements(s.Then, fields)
			v.checkStatements(s.Else, fields)
		}
	}
}

// checkCondition verifies a branch or filter condition is boolean. An
// ai() condition must use classify mode and carry a non-empty prompt.
func (v *Verifier) checkCondition(expr ast.Expression, fields map[string]*ast.FieldDecl) {
	if ai, ok := expr.(*ast.AiExpr); ok {
		if ai.Prompt == "" {
			v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, ai.Line, ai.Column,
				"ai() expression has an empty prompt")
		}
		if ai.Mode != ast.ModeClassify {
			v.diags.Add(diagnostic.TypeMismatch, v.spec.File, ai.Line, ai.Column,
				"ai() used as a condition must use classify mode, got %s", ai.Mode)
		}
		return
	}

	t := v.exprType(expr, fields)
	if t != unknownType && t != ast.TypeBool {
		line, col := expr.Pos()
		v.diags.Add(diagnostic.TypeMismatch, v.spec.File, line, col,
			"condition must be boolean, got %s", t)
	}
}

// checkTask validates the schedule literal of a task
func (v *Verifier) checkTask(task *ast.TaskDecl) {
	if task.Every == "" {
		v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, task.Line, task.Column,
			"task '%s' has no every clause", task.Name)
		return
	}
	d, err := time.ParseDuration(task.Every)
	if err != nil || d <= 0 {
		v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, task.Line, task.Column,
			"task '%s' has an invalid schedule %q", task.Name, task.Every)
		return
	}
	v.res.TaskEvery[task] = d
}

// exprType infers the type of an expression against an entity's
// fields. Comparisons and logical operations yield bool; an already
// reported unknown reference yields unknownType so no cascading
// diagnostics are produced.
func (v *Verifier) exprType(expr ast.Expression, fields map[string]*ast.FieldDecl) ast.TypeKind {
	switch e := expr.(type) {
	case *ast.Identifier:
		f, ok := fields[e.Name]
		if !ok {
			return unknownType
		}
		return f.Type.Kind
	case *ast.StringLit:
		return ast.TypeText
	case *ast.NumberLit:
		return ast.TypeNumber
	case *ast.BoolLit:
		return ast.TypeBool
	case *ast.AiExpr:
		switch e.Mode {
		case ast.ModeClassify:
			return ast.TypeBool
		default:
			return ast.TypeText
		}
	case *ast.UnaryExpr:
		ot := v.exprType(e.Operand, fields)
		if ot != unknownType && ot != ast.TypeBool {
			v.diags.Add(diagnostic.TypeMismatch, v.spec.File, e.Line, e.Column,
				"not requires a boolean operand, got %s", ot)
		}
		return ast.TypeBool
	case *ast.BinaryExpr:
		lt := v.exprType(e.Left, fields)
		rt := v.exprType(e.Right, fields)
		switch e.Op {
		case lexer.AND, lexer.OR:
			if lt != unknownType && lt != ast.TypeBool {
				v.diags.Add(diagnostic.TypeMismatch, v.spec.File, e.Line, e.Column,
					"%s requires boolean operands, got %s", opName(e.Op), lt)
			}
			if rt != unknownType && rt != ast.TypeBool {
				v.diags.Add(diagnostic.TypeMismatch, v.spec.File, e.Line, e.Column,
					"%s requires boolean operands, got %s", opName(e.Op), rt)
			}
		case lexer.LT, lexer.GT, lexer.LEQ, lexer.GEQ:
			if lt != unknownType && lt != ast.TypeNumber && lt != ast.TypeDate {
				v.diags.Add(diagnostic.TypeMismatch, v.spec.File, e.Line, e.Column,
					"ordering comparison requires number or date operands, got %s", lt)
			} else if lt != unknownType && rt != unknownType && lt != rt {
				v.diags.Add(diagnostic.TypeMismatch, v.spec.File, e.Line, e.Column,
					"cannot compare %s with %s", lt, rt)
			}
		default: // EQ, NEQ
			if lt != unknownType && rt != unknownType && !typeCompatible(lt, rt) {
				v.diags.Add(diagnostic.TypeMismatch, v.spec.File, e.Line, e.Column,
					"cannot compare %s with %s", lt, rt)
			}
		}
		return ast.TypeBool
	default:
		return unknownType
	}
}

// literalType returns the type of a literal expression, or unknownType
// for non-literals.
func literalType(expr ast.Expression) ast.TypeKind {
	switch expr.(type) {
	case *ast.StringLit:
		return ast.TypeText
	case *ast.NumberLit:
		return ast.TypeNumber
	case *ast.BoolLit:
		return ast.TypeBool
	default:
		return unknownType
	}
}

// typeCompatible reports whether a value of type got may inhabit a slot
// of type want. Dates accept text literals (ISO 8601 strings); a ref
// slot accepts the text identifier of its target.
func typeCompatible(want, got ast.TypeKind) bool {
	if want == got {
		return true
	}
	if want == ast.TypeDate && got == ast.TypeText {
		return true
	}
	if want == ast.TypeRefKind && got == ast.TypeText {
		return true
	}
	return false
}

// findAiExpr returns the first ai() expression nested anywhere in expr,
// or nil.
func findAiExpr(expr ast.Expression) *ast.AiExpr {
	switch e := expr.(type) {
	case *ast.AiExpr:
		return e
	case *ast.BinaryExpr:
		if ai := findAiExpr(e.Left); ai != nil {
			return ai
		}
		return findAiExpr(e.Right)
	case *ast.UnaryExpr:
		return findAiExpr(e.Operand)
	default:
		return nil
	}
}

func opName(op lexer.TokenType) string {
	if op == lexer.AND {
		return "and"
	}
	return "or"
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
