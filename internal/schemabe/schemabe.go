// Package schemabe generates the relational schema target: one
// schema.sql file with a CREATE TABLE per entity.
package schemabe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shepstack/shep/internal/backend"
	"github.com/shepstack/shep/internal/ir"
)

// Backend implements backend.Backend for the schema target.
type Backend struct{}

// New returns the schema backend.
func New() *Backend { return &Backend{} }

// Kind returns backend.Schema.
func (*Backend) Kind() backend.Kind { return backend.Schema }

// Generate produces schema.sql from the module.
func (*Backend) Generate(mod *ir.Module) ([]backend.File, error) {
	g := &generator{mod: mod}

	g.emitLine("-- Schema for %s. Generated by shepc; do not edit.", mod.AppName)
	g.emitLine("")
	for _, ent := range mod.Entities {
		g.generateTable(ent)
		g.emitLine("")
	}

	return []backend.File{{Path: "schema.sql", Content: g.sb.String()}}, nil
}

type generator struct {
	mod *ir.Module
	sb  strings.Builder
}

func (g *generator) emitLine(format string, args ...any) {
	fmt.Fprintf(&g.sb, format, args...)
	g.sb.WriteByte('\n')
}

func (g *generator) generateTable(ent *ir.Entity) {
	g.emitLine("CREATE TABLE %s (", TableName(ent.Name))

	var lines []string
	if declaredID(ent) == nil {
		// Entities without an explicit id get a synthetic primary key
		lines = append(lines, "    id TEXT PRIMARY KEY")
	}
	for _, f := range ent.Fields {
		lines = append(lines, "    "+g.columnDef(ent, f))
	}
	for _, f := range ent.Fields {
		if f.Type == ir.RefField {
			target := g.mod.EntityByID(f.Ref)
			lines = append(lines, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s(%s)",
				f.Name, TableName(target.Name), identifyingColumn(target)))
		}
	}

	g.sb.WriteString(strings.Join(lines, ",\n"))
	g.emitLine("")
	g.emitLine(");")
}

func (g *generator) columnDef(ent *ir.Entity, f *ir.Field) string {
	parts := []string{f.Name, columnType(f.Type)}

	if f.Name == "id" {
		parts = append(parts, "PRIMARY KEY")
	}
	if f.Required {
		parts = append(parts, "NOT NULL")
	}
	if f.Unique && f.Name != "id" {
		parts = append(parts, "UNIQUE")
	}
	if f.HasDefault {
		parts = append(parts, "DEFAULT "+sqlLiteral(f.Default))
	}
	if check := checkClause(f); check != "" {
		parts = append(parts, check)
	}
	return strings.Join(parts, " ")
}

// checkClause builds the CHECK constraint for enum and min/max
// modifiers. Min/max bound the value for numbers and the length for
// text.
func checkClause(f *ir.Field) string {
	var conds []string

	if len(f.Enum) > 0 {
		quoted := make([]string, len(f.Enum))
		for i, v := range f.Enum {
			quoted[i] = quoteSQL(v)
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", f.Name, strings.Join(quoted, ", ")))
	}

	expr := f.Name
	if f.Type == ir.TextField {
		expr = "length(" + f.Name + ")"
	}
	if f.HasMin {
		conds = append(conds, fmt.Sprintf("%s >= %s", expr, formatNumber(f.Min)))
	}
	if f.HasMax {
		conds = append(conds, fmt.Sprintf("%s <= %s", expr, formatNumber(f.Max)))
	}

	if len(conds) == 0 {
		return ""
	}
	return "CHECK (" + strings.Join(conds, " AND ") + ")"
}

func columnType(t ir.FieldType) string {
	switch t {
	case ir.NumberField:
		return "REAL"
	case ir.BoolField:
		return "INTEGER"
	case ir.DateField:
		return "TEXT" // ISO 8601
	case ir.RefField:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func sqlLiteral(v ir.Value) string {
	switch v.Kind {
	case ir.NumberValue:
		return formatNumber(v.Number)
	case ir.BoolValue:
		if v.Bool {
			return "1"
		}
		return "0"
	default:
		return quoteSQL(v.Text)
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// TableName maps an entity name to its table name.
func TableName(entity string) string {
	return strings.ToLower(entity)
}

// declaredID returns the entity's explicit id field, or nil.
func declaredID(ent *ir.Entity) *ir.Field {
	for _, f := range ent.Fields {
		if f.Name == "id" {
			return f
		}
	}
	return nil
}

// identifyingColumn returns the column a foreign key should reference:
// the explicit id field, the first unique field, or the synthetic id.
func identifyingColumn(ent *ir.Entity) string {
	if f := declaredID(ent); f != nil {
		return f.Name
	}
	for _, f := range ent.Fields {
		if f.Unique {
			return f.Name
		}
	}
	return "id"
}
