// Package clientbe generates the client target: TypeScript model
// shapes and view binding descriptors.
package clientbe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shepstack/shep/internal/backend"
	"github.com/shepstack/shep/internal/ir"
)

const header = "// Code generated by shepc. Do not edit.\n"

// Backend implements backend.Backend for the client target.
type Backend struct{}

// New returns the client backend.
func New() *Backend { return &Backend{} }

// Kind returns backend.Client.
func (*Backend) Kind() backend.Kind { return backend.Client }

// Generate produces models.ts and views.ts from the module.
func (*Backend) Generate(mod *ir.Module) ([]backend.File, error) {
	return []backend.File{
		{Path: "client/models.ts", Content: generateModels(mod)},
		{Path: "client/views.ts", Content: generateViews(mod)},
	}, nil
}

// generateModels emits one interface per entity plus its create shape.
// A field that is required and has no default is mandatory in the
// create shape; everything else is optional.
func generateModels(mod *ir.Module) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	for _, ent := range mod.Entities {
		for _, f := range ent.Fields {
			if len(f.Enum) > 0 {
				fmt.Fprintf(&sb, "export type %s = %s;\n\n", enumTypeName(ent, f), unionType(f.Enum))
			}
		}

		fmt.Fprintf(&sb, "export interface %s {\n", ent.Name)
		if !hasDeclaredID(ent) {
			sb.WriteString("  id: string;\n")
		}
		for _, f := range ent.Fields {
			fmt.Fprintf(&sb, "  %s: %s;\n", f.Name, tsType(ent, f))
		}
		sb.WriteString("}\n\n")

		fmt.Fprintf(&sb, "export interface %sCreate {\n", ent.Name)
		for _, f := range ent.Fields {
			if f.Name == "id" || f.AI != nil {
				continue
			}
			opt := "?"
			if f.Required && !f.HasDefault {
				opt = ""
			}
			fmt.Fprintf(&sb, "  %s%s: %s;\n", f.Name, opt, tsType(ent, f))
		}
		sb.WriteString("}\n\n")
	}

	return sb.String()
}

// generateViews emits the binding descriptor type and one constant per
// view.
func generateViews(mod *ir.Module) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	if len(mod.Views) > 0 {
		names := importedModels(mod)
		fmt.Fprintf(&sb, "import type { %s } from \"./models\";\n\n", strings.Join(names, ", "))
	}

	sb.WriteString("export interface ViewBinding<T> {\n")
	sb.WriteString("  name: string;\n")
	sb.WriteString("  entity: string;\n")
	sb.WriteString("  columns: (keyof T)[];\n")
	sb.WriteString("  filter?: string;\n")
	sb.WriteString("  sort?: { field: keyof T; direction: \"asc\" | \"desc\" };\n")
	sb.WriteString("}\n\n")

	for _, view := range mod.Views {
		ent := mod.EntityByID(view.Entity)
		fmt.Fprintf(&sb, "export const %s: ViewBinding<%s> = {\n", view.Name, ent.Name)
		fmt.Fprintf(&sb, "  name: %q,\n", view.Name)
		fmt.Fprintf(&sb, "  entity: %q,\n", strings.ToLower(ent.Name))
		fmt.Fprintf(&sb, "  columns: [%s],\n", columnList(ent, view.Show))
		if view.Filter != nil {
			fmt.Fprintf(&sb, "  filter: %q,\n", filterText(ent, view.Filter))
		}
		if view.Sort != nil {
			dir := "asc"
			if view.Sort.Desc {
				dir = "desc"
			}
			fmt.Fprintf(&sb, "  sort: { field: %q, direction: %q },\n",
				ent.FieldByID(view.Sort.Field).Name, dir)
		}
		sb.WriteString("};\n\n")
	}

	return sb.String()
}

func tsType(ent *ir.Entity, f *ir.Field) string {
	if len(f.Enum) > 0 {
		return enumTypeName(ent, f)
	}
	switch f.Type {
	case ir.NumberField:
		return "number"
	case ir.BoolField:
		return "boolean"
	default: // text, date (ISO 8601), ref
		return "string"
	}
}

func enumTypeName(ent *ir.Entity, f *ir.Field) string {
	parts := strings.Split(f.Name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return ent.Name + strings.Join(parts, "")
}

func unionType(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " | ")
}

func columnList(ent *ir.Entity, show []ir.FieldID) string {
	cols := make([]string, len(show))
	for i, id := range show {
		cols[i] = strconv.Quote(ent.FieldByID(id).Name)
	}
	return strings.Join(cols, ", ")
}

// filterText renders a filter expression in source syntax; the client
// treats it as an opaque descriptor.
func filterText(ent *ir.Entity, e ir.Expr) string {
	switch expr := e.(type) {
	case *ir.FieldRef:
		return ent.FieldByID(expr.Field).Name
	case *ir.Lit:
		return litText(expr.Value)
	case *ir.Binary:
		return fmt.Sprintf("%s %s %s", filterText(ent, expr.Left), expr.Op, filterText(ent, expr.Right))
	case *ir.Unary:
		return "not " + filterText(ent, expr.Operand)
	default:
		return "true"
	}
}

func litText(v ir.Value) string {
	switch v.Kind {
	case ir.NumberValue:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ir.BoolValue:
		return strconv.FormatBool(v.Bool)
	default:
		return strconv.Quote(v.Text)
	}
}

// importedModels returns the entity names referenced by views, in
// first-use order, deduplicated.
func importedModels(mod *ir.Module) []string {
	seen := make(map[string]bool)
	var names []string
	for _, view := range mod.Views {
		ent := mod.EntityByID(view.Entity)
		if !seen[ent.Name] {
			seen[ent.Name] = true
			names = append(names, ent.Name)
		}
	}
	return names
}

func hasDeclaredID(ent *ir.Entity) bool {
	for _, f := range ent.Fields {
		if f.Name == "id" {
			return true
		}
	}
	return false
}
