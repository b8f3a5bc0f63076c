package serverbe

import (
	"fmt"

	"github.com/shepstack/shep/internal/ir"
)

// generateTypes emits the entity structs, enum constants, and create
// shapes. A field that is required and has no default is a plain value
// in the create shape; everything else is an optional pointer.
func generateTypes(mod *ir.Module) string {
	w := &writer{}
	w.sb.WriteString(header)
	w.line("")
	if usesTime(mod) {
		w.line("import \"time\"")
		w.line("")
	}

	for _, ent := range mod.Entities {
		generateEnumConstants(w, ent)
		generateEntityStruct(w, ent)
		generateCreateShape(w, ent)
	}

	if hasDateDefault(mod) {
		w.line("func mustParseDate(s string) time.Time {")
		w.in()
		w.line("t, err := time.Parse(time.RFC3339, s)")
		w.line("if err != nil {")
		w.in()
		w.line("panic(\"invalid date literal: \" + s)")
		w.out()
		w.line("}")
		w.line("return t")
		w.out()
		w.line("}")
	}

	return w.String()
}

func hasDateDefault(mod *ir.Module) bool {
	for _, ent := range mod.Entities {
		for _, f := range ent.Fields {
			if f.Type == ir.DateField && f.HasDefault {
				return true
			}
		}
	}
	return false
}

func generateEnumConstants(w *writer, ent *ir.Entity) {
	for _, f := range ent.Fields {
		if len(f.Enum) == 0 {
			continue
		}
		w.line("// Allowed values of %s.%s.", ent.Name, goName(f.Name))
		w.line("const (")
		w.in()
		for _, v := range f.Enum {
			w.line("%s%s%s = %q", ent.Name, goName(f.Name), goName(v), v)
		}
		w.out()
		w.line(")")
		w.line("")
	}
}

func generateEntityStruct(w *writer, ent *ir.Entity) {
	w.line("// %s is a stored %s record.", ent.Name, tableName(ent.Name))
	w.line("type %s struct {", ent.Name)
	w.in()
	if !hasDeclaredID(ent) {
		w.line("ID string `json:\"id\"`")
	}
	for _, f := range ent.Fields {
		w.line("%s %s `json:%q`", goName(f.Name), goType(f.Type), f.Name)
	}
	w.out()
	w.line("}")
	w.line("")
}

func generateCreateShape(w *writer, ent *ir.Entity) {
	w.line("// %sCreate is the payload for creating a %s.", ent.Name, tableName(ent.Name))
	w.line("type %sCreate struct {", ent.Name)
	w.in()
	for _, f := range ent.Fields {
		if f.Name == "id" {
			continue // assigned by the store
		}
		if f.AI != nil {
			continue // derived, never supplied by the caller
		}
		if f.Required && !f.HasDefault {
			w.line("%s %s `json:%q`", goName(f.Name), goType(f.Type), f.Name)
		} else {
			w.line("%s *%s `json:\"%s,omitempty\"`", goName(f.Name), goType(f.Type), f.Name)
		}
	}
	w.out()
	w.line("}")
	w.line("")

	generateNewFromCreate(w, ent)
}

// generateNewFromCreate emits the constructor applying defaults for
// absent optional fields.
func generateNewFromCreate(w *writer, ent *ir.Entity) {
	w.line("// New%s builds a %s from its create payload, applying defaults.", ent.Name, ent.Name)
	w.line("func New%s(id string, in %sCreate) *%s {", ent.Name, ent.Name, ent.Name)
	w.in()
	w.line("rec := &%s{ID: id}", ent.Name)
	for _, f := range ent.Fields {
		if f.Name == "id" || f.AI != nil {
			continue
		}
		name := goName(f.Name)
		if f.Required && !f.HasDefault {
			w.line("rec.%s = in.%s", name, name)
			continue
		}
		w.line("if in.%s != nil {", name)
		w.in()
		w.line("rec.%s = *in.%s", name, name)
		w.out()
		if f.HasDefault {
			w.line("} else {")
			w.in()
			w.line("rec.%s = %s", name, defaultLiteral(f))
			w.out()
		}
		w.line("}")
	}
	w.line("return rec")
	w.out()
	w.line("}")
	w.line("")
}

func defaultLiteral(f *ir.Field) string {
	if f.Type == ir.DateField && f.Default.Kind == ir.TextValue {
		return fmt.Sprintf("mustParseDate(%q)", f.Default.Text)
	}
	return goLiteral(f.Default)
}
