package serverbe

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shepstack/shep/internal/ir"
)

// generateActions emits one handler per action. Each handler executes
// the lowered instruction list against a loaded record; AI temporaries
// become local variables bound by the wrapper client.
func generateActions(mod *ir.Module) string {
	w := &writer{}
	w.sb.WriteString(header)
	w.line("")
	w.line("import (")
	w.in()
	w.line("\"context\"")
	if hasValidators(mod) {
		w.line("\"fmt\"")
	}
	w.line("")
	w.line("%q", RuntimeImport)
	w.out()
	w.line(")")
	w.line("")

	w.line("// Alerter receives action notifications.")
	w.line("type Alerter interface {")
	w.in()
	w.line("Alert(ctx context.Context, message string) error")
	w.out()
	w.line("}")
	w.line("")

	w.line("// Actions executes the application's action handlers.")
	w.line("type Actions struct {")
	w.in()
	w.line("store  *Store")
	w.line("ai     *aiwrap.Client")
	w.line("alerts Alerter")
	w.out()
	w.line("}")
	w.line("")
	w.line("// NewActions wires the action handlers to their dependencies.")
	w.line("func NewActions(store *Store, ai *aiwrap.Client, alerts Alerter) *Actions {")
	w.in()
	w.line("return &Actions{store: store, ai: ai, alerts: alerts}")
	w.out()
	w.line("}")
	w.line("")

	for _, action := range mod.Actions {
		generateActionHandler(w, mod, action)
	}

	generateValidators(w, mod)

	return w.String()
}

func generateActionHandler(w *writer, mod *ir.Module, action *ir.Action) {
	ent := mod.EntityByID(action.Entity)
	if ent == nil {
		return
	}
	g := &actionGen{w: w, ent: ent, temps: make(map[string]ir.AiMode)}

	w.line("// %s runs the %s action against one %s record.", goName(action.Name), action.Name, tableName(ent.Name))
	w.line("func (a *Actions) %s(ctx context.Context, rec *%s) error {", goName(action.Name), ent.Name)
	w.in()
	g.instrs(action.Body)
	w.line("return nil")
	w.out()
	w.line("}")
	w.line("")
}

type actionGen struct {
	w     *writer
	ent   *ir.Entity
	temps map[string]ir.AiMode
}

func (g *actionGen) instrs(body []ir.Instr) {
	w := g.w
	for _, instr := range body {
		switch in := instr.(type) {
		case *ir.Validate:
			f := g.ent.FieldByID(in.Field)
			w.line("if err := %s(rec); err != nil {", validatorName(g.ent, f))
			w.in()
			w.line("return err")
			w.out()
			w.line("}")
		case *ir.SetField:
			f := g.ent.FieldByID(in.Field)
			w.line("rec.%s = %s", goName(f.Name), g.expr(in.Value))
		case *ir.AiInvoke:
			g.temps[in.Dest] = in.Op.Mode
			w.line("%s, err := a.ai.Do(ctx, %s(), rec)", in.Dest, opFuncName(in.Op))
			w.line("if err != nil {")
			w.in()
			w.line("return err")
			w.out()
			w.line("}")
		case *ir.Branch:
			w.line("if %s {", g.expr(in.Cond))
			w.in()
			g.instrs(in.Then)
			w.out()
			if len(in.Else) > 0 {
				w.line("} else {")
				w.in()
				g.instrs(in.Else)
				w.out()
			}
			w.line("}")
		case *ir.Save:
			w.line("if err := a.store.Save%s(ctx, rec); err != nil {", g.ent.Name)
			w.in()
			w.line("return err")
			w.out()
			w.line("}")
		case *ir.Alert:
			w.line("if err := a.alerts.Alert(ctx, %q); err != nil {", in.Message)
			w.in()
			w.line("return err")
			w.out()
			w.line("}")
		}
	}
}

func (g *actionGen) expr(e ir.Expr) string {
	switch expr := e.(type) {
	case *ir.FieldRef:
		return "rec." + goName(g.ent.FieldByID(expr.Field).Name)
	case *ir.TempRef:
		if g.temps[expr.Name] == ir.Classify {
			return expr.Name + ".Bool()"
		}
		return expr.Name + ".Text()"
	case *ir.Lit:
		return goLiteral(expr.Value)
	case *ir.Binary:
		return fmt.Sprintf("(%s %s %s)", g.expr(expr.Left), goOp(expr.Op), g.expr(expr.Right))
	case *ir.Unary:
		return "!" + g.expr(expr.Operand)
	default:
		return "true"
	}
}

func goOp(op ir.BinOp) string {
	switch op {
	case ir.OpAnd:
		return "&&"
	case ir.OpOr:
		return "||"
	default:
		return op.String()
	}
}

// generateValidators emits one validator per field referenced by a
// Validate instruction anywhere in the module.
func generateValidators(w *writer, mod *ir.Module) {
	type site struct {
		ent   *ir.Entity
		field *ir.Field
	}
	seen := make(map[string]site)
	for _, action := range mod.Actions {
		ent := mod.EntityByID(action.Entity)
		if ent == nil {
			continue
		}
		walkInstrs(action.Body, func(instr ir.Instr) {
			if v, ok := instr.(*ir.Validate); ok {
				f := ent.FieldByID(v.Field)
				seen[validatorName(ent, f)] = site{ent: ent, field: f}
			}
		})
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := seen[name]
		generateValidator(w, name, s.ent, s.field)
	}
}

func generateValidator(w *writer, name string, ent *ir.Entity, f *ir.Field) {
	w.line("func %s(rec *%s) error {", name, ent.Name)
	w.in()
	field := "rec." + goName(f.Name)

	if f.Required {
		switch f.Type {
		case ir.NumberField, ir.BoolField:
			// Zero is a legal value; presence is enforced by the create shape
		case ir.DateField:
			w.line("if %s.IsZero() {", field)
			w.in()
			w.line("return fmt.Errorf(\"%s is required\")", f.Name)
			w.out()
			w.line("}")
		default:
			w.line("if %s == \"\" {", field)
			w.in()
			w.line("return fmt.Errorf(\"%s is required\")", f.Name)
			w.out()
			w.line("}")
		}
	}

	bound := field
	if f.Type == ir.TextField {
		bound = fmt.Sprintf("float64(len(%s))", field)
	}
	if f.HasMin {
		w.line("if %s < %s {", bound, formatFloat(f.Min))
		w.in()
		w.line("return fmt.Errorf(\"%s is below the minimum of %s\")", f.Name, formatFloat(f.Min))
		w.out()
		w.line("}")
	}
	if f.HasMax {
		w.line("if %s > %s {", bound, formatFloat(f.Max))
		w.in()
		w.line("return fmt.Errorf(\"%s exceeds the maximum of %s\")", f.Name, formatFloat(f.Max))
		w.out()
		w.line("}")
	}

	if len(f.Enum) > 0 {
		quoted := make([]string, len(f.Enum))
		for i, v := range f.Enum {
			quoted[i] = strconv.Quote(v)
		}
		w.line("switch %s {", field)
		w.line("case %s:", strings.Join(quoted, ", "))
		w.line("default:")
		w.in()
		w.line("return fmt.Errorf(\"%s must be one of %s\")", f.Name, strings.Join(f.Enum, ", "))
		w.out()
		w.line("}")
	}

	w.line("return nil")
	w.out()
	w.line("}")
	w.line("")
}

func hasValidators(mod *ir.Module) bool {
	found := false
	for _, action := range mod.Actions {
		walkInstrs(action.Body, func(instr ir.Instr) {
			if _, ok := instr.(*ir.Validate); ok {
				found = true
			}
		})
	}
	return found
}

func walkInstrs(body []ir.Instr, fn func(ir.Instr)) {
	for _, instr := range body {
		fn(instr)
		if b, ok := instr.(*ir.Branch); ok {
			walkInstrs(b.Then, fn)
			walkInstrs(b.Else, fn)
		}
	}
}

func validatorName(ent *ir.Entity, f *ir.Field) string {
	return "validate" + ent.Name + goName(f.Name)
}

func opFuncName(op *ir.AiOp) string {
	return "aiOp_" + op.OperationID
}

func formatFloat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
