package verifier

import (
	"sort"
	"time"

	"github.com/shepstack/shep/internal/ast"
	"github.com/shepstack/shep/internal/diagnostic"
)

// Options configures verifier behavior. The zero value disables
// suggestions; use DefaultOptions for the standard settings.
type Options struct {
	// SuggestionDistance is the maximum edit distance for "did you
	// mean" suggestions on unknown references.
	SuggestionDistance int
}

// DefaultOptions returns the standard verifier settings
func DefaultOptions() Options {
	return Options{SuggestionDistance: 2}
}

// Result holds the outcome of verification: the ordered diagnostics,
// the symbol table, and the resolved cross-reference links later
// consumed by IR lowering.
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	Symbols     *SymbolTable

	// Resolved links, populated only for declarations that resolved
	ViewEntity   map[*ast.ViewDecl]*ast.DataDecl
	ActionEntity map[*ast.ActionDecl]*ast.DataDecl
	TaskAction   map[*ast.TaskDecl]*ast.ActionDecl
	TaskEvery    map[*ast.TaskDecl]time.Duration

	// Fields indexes each entity's fields by name (first wins on
	// duplicates, mirroring the symbol table rule)
	Fields map[*ast.DataDecl]map[string]*ast.FieldDecl
}

// Verifier performs semantic analysis over one Spec in three
// sequential, non-aborting passes: declaration collection, reference
// resolution, constraint validation.
type Verifier struct {
	spec  *ast.Spec
	diags *diagnostic.Diagnostics
	table *SymbolTable
	opts  Options
	res   *Result
}

// Verify runs semantic analysis with default options
func Verify(spec *ast.Spec) *Result {
	return VerifyWithOptions(spec, DefaultOptions())
}

// VerifyWithOptions runs semantic analysis. All passes accumulate
// diagnostics rather than halting: a single run reports every
// independent problem it can find. Severity escalation is the caller's
// policy, never applied here.
func VerifyWithOptions(spec *ast.Spec, opts Options) *Result {
	v := &Verifier{
		spec:  spec,
		diags: diagnostic.New(),
		table: NewSymbolTable(),
		opts:  opts,
	}
	v.res = &Result{
		Diagnostics:  v.diags,
		Symbols:      v.table,
		ViewEntity:   make(map[*ast.ViewDecl]*ast.DataDecl),
		ActionEntity: make(map[*ast.ActionDecl]*ast.DataDecl),
		TaskAction:   make(map[*ast.TaskDecl]*ast.ActionDecl),
		TaskEvery:    make(map[*ast.TaskDecl]time.Duration),
		Fields:       make(map[*ast.DataDecl]map[string]*ast.FieldDecl),
	}

	v.collectDeclarations()
	v.resolveReferences()
	v.checkConstraints()

	return v.res
}

// collectDeclarations populates the symbol table (pass 1). A duplicate
// name within the same namespace reports DuplicateDeclaration at the
// second occurrence; the first declaration wins for resolution.
func (v *Verifier) collectDeclarations() {
	file := v.spec.File

	for _, d := range v.spec.Datas {
		if prev := v.table.Define(&Symbol{Name: d.Name, Namespace: NSData, Decl: d, Line: d.Line, Column: d.Column}); prev != nil {
			v.diags.Add(diagnostic.DuplicateDeclaration, file, d.Line, d.Column,
				"data '%s' is already declared at %d:%d", d.Name, prev.Line, prev.Column)
			continue
		}
		v.collectFields(d)
	}
	for _, d := range v.spec.Views {
		if prev := v.table.Define(&Symbol{Name: d.Name, Namespace: NSView, Decl: d, Line: d.Line, Column: d.Column}); prev != nil {
			v.diags.Add(diagnostic.DuplicateDeclaration, file, d.Line, d.Column,
				"view '%s' is already declared at %d:%d", d.Name, prev.Line, prev.Column)
		}
	}
	for _, d := range v.spec.Actions {
		if prev := v.table.Define(&Symbol{Name: d.Name, Namespace: NSAction, Decl: d, Line: d.Line, Column: d.Column}); prev != nil {
			v.diags.Add(diagnostic.DuplicateDeclaration, file, d.Line, d.Column,
				"action '%s' is already declared at %d:%d", d.Name, prev.Line, prev.Column)
		}
	}
	for _, d := range v.spec.Tasks {
		if prev := v.table.Define(&Symbol{Name: d.Name, Namespace: NSTask, Decl: d, Line: d.Line, Column: d.Column}); prev != nil {
			v.diags.Add(diagnostic.DuplicateDeclaration, file, d.Line, d.Column,
				"task '%s' is already declared at %d:%d", d.Name, prev.Line, prev.Column)
		}
	}
}

// collectFields indexes an entity's fields by name and reports
// duplicate field names within the entity.
func (v *Verifier) collectFields(d *ast.DataDecl) {
	fields := make(map[string]*ast.FieldDecl)
	for _, f := range d.Fields {
		if prev, ok := fields[f.Name]; ok {
			v.diags.Add(diagnostic.DuplicateDeclaration, v.spec.File, f.Line, f.Column,
				"field '%s' is already declared in data '%s' at %d:%d", f.Name, d.Name, prev.Line, prev.Column)
			continue
		}
		fields[f.Name] = f
	}
	v.res.Fields[d] = fields
}

// lookupData resolves a data entity reference, reporting
// UnknownReference with a nearest-name suggestion on failure.
func (v *Verifier) lookupData(name string, line, col int) *ast.DataDecl {
	if sym := v.table.Resolve(NSData, name); sym != nil {
		return sym.Decl.(*ast.DataDecl)
	}
	v.unknownReference("data", name, v.table.Names(NSData), line, col)
	return nil
}

// unknownReference emits an UnknownReference diagnostic, attaching a
// suggestion when a candidate is within the configured edit distance.
func (v *Verifier) unknownReference(kind, name string, candidates []string, line, col int) {
	suggestion := nearestName(name, candidates, v.opts.SuggestionDistance)
	msg := "unknown " + kind + " '" + name + "'"
	if suggestion != "" {
		v.diags.AddWithSuggestion(diagnostic.UnknownReference, v.spec.File, line, col, msg, suggestion)
		return
	}
	v.diags.Add(diagnostic.UnknownReference, v.spec.File, line, col, "%s", msg)
}

// fieldNames returns the sorted field names of an entity for
// suggestion candidates.
func fieldNames(fields map[string]*ast.FieldDecl) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	// Deterministic candidate order keeps diagnostics stable
	sort.Strings(names)
	return names
}
