package serverbe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shepstack/shep/internal/ir"
)

// generateStore emits the database/sql persistence layer: insert, get,
// save, and list per entity, plus one query method per view.
func generateStore(mod *ir.Module) string {
	w := &writer{}
	w.sb.WriteString(header)
	w.line("")
	w.line("import (")
	w.in()
	w.line("\"context\"")
	w.line("\"database/sql\"")
	if usesTime(mod) {
		w.line("")
		w.line("\"time\"")
	}
	w.out()
	w.line(")")
	w.line("")

	w.line("// Store persists records through database/sql. The schema target")
	w.line("// defines the tables it expects.")
	w.line("type Store struct {")
	w.in()
	w.line("db *sql.DB")
	w.out()
	w.line("}")
	w.line("")
	w.line("// NewStore wraps an open database handle.")
	w.line("func NewStore(db *sql.DB) *Store {")
	w.in()
	w.line("return &Store{db: db}")
	w.out()
	w.line("}")
	w.line("")

	for _, ent := range mod.Entities {
		generateEntityStore(w, ent)
	}
	for _, view := range mod.Views {
		generateViewQuery(w, mod, view)
	}

	return w.String()
}

func generateEntityStore(w *writer, ent *ir.Entity) {
	table := tableName(ent.Name)
	cols := columnNames(ent)
	colList := strings.Join(cols, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	w.line("// Insert%s stores a new %s record.", ent.Name, table)
	w.line("func (s *Store) Insert%s(ctx context.Context, rec *%s) error {", ent.Name, ent.Name)
	w.in()
	w.line("_, err := s.db.ExecContext(ctx, `INSERT INTO %s (%s) VALUES (%s)`,", table, colList, placeholders)
	w.in()
	w.line("%s)", strings.Join(insertArgs(ent), ", "))
	w.out()
	w.line("return err")
	w.out()
	w.line("}")
	w.line("")

	w.line("// Save%s writes a %s record, replacing any existing row.", ent.Name, table)
	w.line("func (s *Store) Save%s(ctx context.Context, rec *%s) error {", ent.Name, ent.Name)
	w.in()
	w.line("_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO %s (%s) VALUES (%s)`,", table, colList, placeholders)
	w.in()
	w.line("%s)", strings.Join(insertArgs(ent), ", "))
	w.out()
	w.line("return err")
	w.out()
	w.line("}")
	w.line("")

	idCol := "id"
	w.line("// Get%s loads one %s record by id.", ent.Name, table)
	w.line("func (s *Store) Get%s(ctx context.Context, id string) (*%s, error) {", ent.Name, ent.Name)
	w.in()
	w.line("row := s.db.QueryRowContext(ctx, `SELECT %s FROM %s WHERE %s = ?`, id)", colList, table, idCol)
	w.line("return scan%s(row)", ent.Name)
	w.out()
	w.line("}")
	w.line("")

	w.line("// List%s loads every %s record.", ent.Name, table)
	w.line("func (s *Store) List%s(ctx context.Context) ([]*%s, error) {", ent.Name, ent.Name)
	w.in()
	w.line("return s.query%s(ctx, `SELECT %s FROM %s`)", ent.Name, colList, table)
	w.out()
	w.line("}")
	w.line("")

	generateScanner(w, ent)
	generateQueryHelper(w, ent)
}

func generateScanner(w *writer, ent *ir.Entity) {
	w.line("func scan%s(row interface{ Scan(dest ...any) error }) (*%s, error) {", ent.Name, ent.Name)
	w.in()
	w.line("var rec %s", ent.Name)

	var dests []string
	var dates []*ir.Field
	if !hasDeclaredID(ent) {
		dests = append(dests, "&rec.ID")
	}
	for _, f := range ent.Fields {
		if f.Type == ir.DateField {
			dests = append(dests, "&"+dateVar(f))
			dates = append(dates, f)
			continue
		}
		dests = append(dests, "&rec."+goName(f.Name))
	}
	for _, f := range dates {
		w.line("var %s string", dateVar(f))
	}
	w.line("if err := row.Scan(%s); err != nil {", strings.Join(dests, ", "))
	w.in()
	w.line("return nil, err")
	w.out()
	w.line("}")
	for _, f := range dates {
		w.line("if t, err := time.Parse(time.RFC3339, %s); err == nil {", dateVar(f))
		w.in()
		w.line("rec.%s = t", goName(f.Name))
		w.out()
		w.line("}")
	}
	w.line("return &rec, nil")
	w.out()
	w.line("}")
	w.line("")
}

func generateQueryHelper(w *writer, ent *ir.Entity) {
	w.line("func (s *Store) query%s(ctx context.Context, query string, args ...any) ([]*%s, error) {", ent.Name, ent.Name)
	w.in()
	w.line("rows, err := s.db.QueryContext(ctx, query, args...)")
	w.line("if err != nil {")
	w.in()
	w.line("return nil, err")
	w.out()
	w.line("}")
	w.line("defer rows.Close()")
	w.line("")
	w.line("var out []*%s", ent.Name)
	w.line("for rows.Next() {")
	w.in()
	w.line("rec, err := scan%s(rows)", ent.Name)
	w.line("if err != nil {")
	w.in()
	w.line("return nil, err")
	w.out()
	w.line("}")
	w.line("out = append(out, rec)")
	w.out()
	w.line("}")
	w.line("return out, rows.Err()")
	w.out()
	w.line("}")
	w.line("")
}

// generateViewQuery emits the query method for one view: full column
// select with the filter as WHERE and the sort as ORDER BY.
func generateViewQuery(w *writer, mod *ir.Module, view *ir.View) {
	ent := mod.EntityByID(view.Entity)
	table := tableName(ent.Name)
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columnNames(ent), ", "), table)
	if view.Filter != nil {
		query += " WHERE " + sqlExpr(ent, view.Filter)
	}
	if view.Sort != nil {
		dir := "ASC"
		if view.Sort.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", ent.FieldByID(view.Sort.Field).Name, dir)
	}

	w.line("// Query%s lists %s records for the %s view.", goName(view.Name), table, view.Name)
	w.line("func (s *Store) Query%s(ctx context.Context) ([]*%s, error) {", goName(view.Name), ent.Name)
	w.in()
	w.line("return s.query%s(ctx, `%s`)", ent.Name, query)
	w.out()
	w.line("}")
	w.line("")
}

// sqlExpr renders a pure filter expression as SQL.
func sqlExpr(ent *ir.Entity, e ir.Expr) string {
	switch expr := e.(type) {
	case *ir.FieldRef:
		return ent.FieldByID(expr.Field).Name
	case *ir.Lit:
		return sqlValue(expr.Value)
	case *ir.Binary:
		return fmt.Sprintf("(%s %s %s)", sqlExpr(ent, expr.Left), sqlOp(expr.Op), sqlExpr(ent, expr.Right))
	case *ir.Unary:
		return "NOT " + sqlExpr(ent, expr.Operand)
	default:
		return "1"
	}
}

func sqlOp(op ir.BinOp) string {
	switch op {
	case ir.OpEq:
		return "="
	case ir.OpNeq:
		return "<>"
	case ir.OpAnd:
		return "AND"
	case ir.OpOr:
		return "OR"
	default:
		return op.String()
	}
}

func sqlValue(v ir.Value) string {
	switch v.Kind {
	case ir.NumberValue:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ir.BoolValue:
		if v.Bool {
			return "1"
		}
		return "0"
	default:
		return "'" + strings.ReplaceAll(v.Text, "'", "''") + "'"
	}
}

func insertArgs(ent *ir.Entity) []string {
	var args []string
	if !hasDeclaredID(ent) {
		args = append(args, "rec.ID")
	}
	for _, f := range ent.Fields {
		if f.Type == ir.DateField {
			args = append(args, fmt.Sprintf("rec.%s.Format(time.RFC3339)", goName(f.Name)))
			continue
		}
		args = append(args, "rec."+goName(f.Name))
	}
	return args
}

func dateVar(f *ir.Field) string {
	return "raw" + goName(f.Name)
}
