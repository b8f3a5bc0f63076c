package verifier

import (
	"github.com/shepstack/shep/internal/ast"
	"github.com/shepstack/shep/internal/diagnostic"
)

// resolveReferences resolves every cross-reference in the spec against
// the symbol table (pass 2): field ref types, view targets and field
// lists, action targets and statement fields, task run targets.
// Unresolved names report UnknownReference and resolution continues.
func (v *Verifier) resolveReferences() {
	v.resolveFieldTypes()
	v.resolveViews()
	v.resolveActions()
	v.resolveTasks()
}

// resolveFieldTypes resolves each `ref <Entity>` field type
func (v *Verifier) resolveFieldTypes() {
	for _, d := range v.spec.Datas {
		for _, f := range d.Fields {
			if f.Type.Kind == ast.TypeRefKind {
				v.lookupData(f.Type.RefName, f.Type.Line, f.Type.Column)
			}
		}
	}
}

// resolveViews resolves each view's from target and its field lists
func (v *Verifier) resolveViews() {
	for _, view := range v.spec.Views {
		if view.From == "" {
			v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, view.Line, view.Column,
				"view '%s' has no from clause", view.Name)
			continue
		}
		entity := v.lookupData(view.From, view.FromPos[0], view.FromPos[1])
		if entity == nil {
			continue
		}
		v.res.ViewEntity[view] = entity

		fields := v.res.Fields[entity]
		for _, ref := range view.Show {
			if _, ok := fields[ref.Name]; !ok {
				v.unknownReference("field", ref.Name, fieldNames(fields), ref.Line, ref.Column)
			}
		}
		if view.Filter != nil {
			v.resolveExprFields(view.Filter, fields)
		}
		if view.Sort != nil {
			if _, ok := fields[view.Sort.Field]; !ok {
				v.unknownReference("field", view.Sort.Field, fieldNames(fields), view.Sort.Line, view.Sort.Column)
			}
		}
	}
}

// resolveActions resolves each action's on target and the field
// references inside its statement body
func (v *Verifier) resolveActions() {
	for _, action := range v.spec.Actions {
		if action.On == "" {
			if len(action.Body) > 0 {
				v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, action.Line, action.Column,
					"action '%s' has no on clause", action.Name)
			}
			continue
		}
		entity := v.lookupData(action.On, action.OnPos[0], action.OnPos[1])
		if entity == nil {
			continue
		}
		v.res.ActionEntity[action] = entity
		v.resolveStatements(action.Body, v.res.Fields[entity])
	}
}

// resolveStatements resolves field references in an action body
func (v *Verifier) resolveStatements(stmts []ast.Statement, fields map[string]*ast.FieldDecl) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ValidateStmt:
			if _, ok := fields[s.Field]; !ok {
				v.unknownReference("field", s.Field, fieldNames(fields), s.Line, s.Column)
			}
		case *ast.SetStmt:
			if _, ok := fields[s.Field]; !ok {
				v.unknownReference("field", s.Field, fieldNames(fields), s.Line, s.Column)
			}
			v.resolveExprFields(s.Value, fields)
		case *ast.IfStmt:
			v.resolveExprFields(s.Condition, fields)
			v.resolveStatements(s.Then, fields)
			v.resolveStatements(s.Else, fields)
		}
	}
}

// resolveExprFields resolves identifier references inside an expression
func (v *Verifier) resolveExprFields(expr ast.Expression, fields map[string]*ast.FieldDecl) {
	switch e := expr.(type) {
	case *ast.Identifier:
		if _, ok := fields[e.Name]; !ok {
			v.unknownReference("field", e.Name, fieldNames(fields), e.Line, e.Column)
		}
	case *ast.BinaryExpr:
		v.resolveExprFields(e.Left, fields)
		v.resolveExprFields(e.Right, fields)
	case *ast.UnaryExpr:
		v.resolveExprFields(e.Operand, fields)
	}
}

// resolveTasks resolves each task's run target against the action
// namespace
func (v *Verifier) resolveTasks() {
	for _, task := range v.spec.Tasks {
		if task.Run == "" {
			v.diags.Add(diagnostic.ConstraintViolation, v.spec.File, task.Line, task.Column,
				"task '%s' has no run clause", task.Name)
			continue
		}
		sym := v.table.Resolve(NSAction, task.Run)
		if sym == nil {
			v.unknownReference("action", task.Run, v.table.Names(NSAction), task.RunPos[0], task.RunPos[1])
			continue
		}
		v.res.TaskAction[task] = sym.Decl.(*ast.ActionDecl)
	}
}
