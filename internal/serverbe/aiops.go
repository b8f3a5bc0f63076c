package serverbe

import (
	"strconv"
	"strings"

	"github.com/shepstack/shep/internal/ir"
)

// generateAiOps emits the operation table consumed by the aiwrap
// runtime plus the per-entity derivation helpers for AI-constrained
// fields. Every ai() site in the module resolves to one of these
// operations by id.
func generateAiOps(mod *ir.Module) string {
	w := &writer{}
	w.sb.WriteString(header)
	w.line("")
	if len(mod.AiOps) > 0 {
		w.line("import (")
		w.in()
		if hasDerivedFields(mod) {
			w.line("\"context\"")
			w.line("")
		}
		w.line("%q", RuntimeImport)
		w.out()
		w.line(")")
		w.line("")
	}

	for _, op := range mod.AiOps {
		generateOpFunc(w, mod, op)
	}
	for _, ent := range mod.Entities {
		generateDerivations(w, ent)
	}

	return w.String()
}

func generateOpFunc(w *writer, mod *ir.Module, op *ir.AiOp) {
	w.line("// %s is the %s operation %q.", opFuncName(op), op.Mode, truncatePrompt(op.Prompt))
	w.line("func %s() aiwrap.Operation {", opFuncName(op))
	w.in()
	w.line("return aiwrap.Operation{")
	w.in()
	w.line("ID:     %q,", op.OperationID)
	w.line("Prompt: %q,", op.Prompt)
	w.line("Mode:   %s,", wrapMode(op.Mode))
	generateOutputSpec(w, mod, op)
	w.line("Config: aiwrap.DefaultConfig(),")
	w.out()
	w.line("}")
	w.out()
	w.line("}")
	w.line("")
}

// generateOutputSpec derives the expected result shape. A field site
// fixes the type and enum set; otherwise the mode decides.
func generateOutputSpec(w *writer, mod *ir.Module, op *ir.AiOp) {
	if f := fieldSite(mod, op); f != nil {
		if len(f.Enum) > 0 {
			quoted := make([]string, len(f.Enum))
			for i, v := range f.Enum {
				quoted[i] = strconv.Quote(v)
			}
			w.line("Output: aiwrap.OutputSpec{Type: %s, Enum: []string{%s}},",
				wrapOutputType(f.Type), strings.Join(quoted, ", "))
			return
		}
		w.line("Output: aiwrap.OutputSpec{Type: %s},", wrapOutputType(f.Type))
		return
	}
	if op.Mode == ir.Classify {
		w.line("Output: aiwrap.OutputSpec{Type: aiwrap.BoolOutput},")
		return
	}
	w.line("Output: aiwrap.OutputSpec{Type: aiwrap.TextOutput},")
}

// generateDerivations emits the helper computing every AI-derived
// field of an entity.
func generateDerivations(w *writer, ent *ir.Entity) {
	var derived []*ir.Field
	for _, f := range ent.Fields {
		if f.AI != nil {
			derived = append(derived, f)
		}
	}
	if len(derived) == 0 {
		return
	}

	w.line("// Derive%s computes the AI-derived fields of a %s record.", ent.Name, tableName(ent.Name))
	w.line("func (a *Actions) Derive%s(ctx context.Context, rec *%s) error {", ent.Name, ent.Name)
	w.in()
	for i, f := range derived {
		res := "res" + strconv.Itoa(i)
		w.line("%s, err := a.ai.Do(ctx, %s(), rec)", res, opFuncName(f.AI))
		w.line("if err != nil {")
		w.in()
		w.line("return err")
		w.out()
		w.line("}")
		w.line("rec.%s = %s.%s", goName(f.Name), res, resultAccessor(f.Type))
	}
	w.line("return nil")
	w.out()
	w.line("}")
	w.line("")
}

func resultAccessor(t ir.FieldType) string {
	switch t {
	case ir.BoolField:
		return "Bool()"
	case ir.NumberField:
		return "Number()"
	default:
		return "Text()"
	}
}

func wrapMode(m ir.AiMode) string {
	switch m {
	case ir.Extract:
		return "aiwrap.Extract"
	case ir.Generate:
		return "aiwrap.Generate"
	default:
		return "aiwrap.Classify"
	}
}

func wrapOutputType(t ir.FieldType) string {
	switch t {
	case ir.BoolField:
		return "aiwrap.BoolOutput"
	case ir.NumberField:
		return "aiwrap.NumberOutput"
	default:
		return "aiwrap.TextOutput"
	}
}

// fieldSite returns the field carrying this operation as a constraint,
// or nil when the operation only appears in action bodies.
func fieldSite(mod *ir.Module, op *ir.AiOp) *ir.Field {
	for _, ent := range mod.Entities {
		for _, f := range ent.Fields {
			if f.AI != nil && f.AI.OperationID == op.OperationID {
				return f
			}
		}
	}
	return nil
}

func hasDerivedFields(mod *ir.Module) bool {
	for _, ent := range mod.Entities {
		for _, f := range ent.Fields {
			if f.AI != nil {
				return true
			}
		}
	}
	return false
}

func truncatePrompt(p string) string {
	if len(p) > 40 {
		return p[:40] + "..."
	}
	return p
}
