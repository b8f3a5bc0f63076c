package serverbe

import (
	"strconv"
	"strings"

	"github.com/shepstack/shep/internal/ir"
)

// goName maps a source identifier to an exported Go name:
// "created_at" becomes "CreatedAt", "id" becomes "ID".
func goName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if p == "id" {
			b.WriteString("ID")
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// tableName maps an entity name to its table name, matching the schema
// target.
func tableName(entity string) string {
	return strings.ToLower(entity)
}

func goType(t ir.FieldType) string {
	switch t {
	case ir.NumberField:
		return "float64"
	case ir.BoolField:
		return "bool"
	case ir.DateField:
		return "time.Time"
	default: // text, ref
		return "string"
	}
}

func goLiteral(v ir.Value) string {
	switch v.Kind {
	case ir.NumberValue:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ir.BoolValue:
		return strconv.FormatBool(v.Bool)
	default:
		return strconv.Quote(v.Text)
	}
}

// hasDeclaredID reports whether the entity declares its own id field.
// Entities without one get a synthetic ID column, mirroring the schema
// target.
func hasDeclaredID(ent *ir.Entity) bool {
	for _, f := range ent.Fields {
		if f.Name == "id" {
			return true
		}
	}
	return false
}

// columnNames returns the full column list of an entity, synthetic id
// first when present.
func columnNames(ent *ir.Entity) []string {
	var cols []string
	if !hasDeclaredID(ent) {
		cols = append(cols, "id")
	}
	for _, f := range ent.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

func usesTime(mod *ir.Module) bool {
	for _, ent := range mod.Entities {
		for _, f := range ent.Fields {
			if f.Type == ir.DateField {
				return true
			}
		}
	}
	return false
}
