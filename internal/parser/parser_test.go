package parser

import (
	"testing"

	"github.com/shepstack/shep/internal/ast"
	"github.com/shepstack/shep/internal/diagnostic"
	"github.com/shepstack/shep/internal/lexer"
)

const fullSpec = `app Helpdesk {
	description: "support ticket tracker"
}

data Ticket {
	id: text (required, unique)
	title: text (required, min: 3, max: 120)
	status: text (enum: ["open", "closed"], default: "open")
	priority: number (min: 1, max: 5, default: 3)
	summary: text (ai: "summarize the ticket body", generate)
	created: date (required)
}

data Comment {
	id: text (required, unique)
	ticket: ref Ticket
	body: text (required)
}

view OpenTickets {
	from: Ticket
	show: [title, status, priority]
	filter: status == "open"
	sort: created desc
}

action Escalate {
	on: Ticket
	validate title
	if ai("is this ticket urgent", classify) {
		set priority = 5
		alert "urgent ticket"
	} else {
		set priority = 2
	}
	save
}

task EscalateStale {
	every: "24h"
	run: Escalate
}`

func parse(t *testing.T, source string) (*ast.Spec, *diagnostic.Diagnostics) {
	t.Helper()
	p := New("test.shep", source)
	spec := p.Parse()
	return spec, p.Diagnostics()
}

func TestParseFullSpec(t *testing.T) {
	spec, diags := parse(t, fullSpec)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.shep"))
	}

	if spec.App == nil || spec.App.Name != "Helpdesk" {
		t.Fatalf("app = %+v, want Helpdesk", spec.App)
	}
	if spec.App.Description != "support ticket tracker" {
		t.Errorf("description = %q", spec.App.Description)
	}
	if len(spec.Datas) != 2 || len(spec.Views) != 1 || len(spec.Actions) != 1 || len(spec.Tasks) != 1 {
		t.Fatalf("decl counts = %d/%d/%d/%d, want 2/1/1/1",
			len(spec.Datas), len(spec.Views), len(spec.Actions), len(spec.Tasks))
	}
}

func TestParseFieldConstraints(t *testing.T) {
	spec, diags := parse(t, fullSpec)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.shep"))
	}

	ticket := spec.Datas[0]
	if len(ticket.Fields) != 6 {
		t.Fatalf("field count = %d, want 6", len(ticket.Fields))
	}

	title := ticket.Fields[1]
	if len(title.Constraints) != 3 {
		t.Fatalf("title constraints = %d, want 3", len(title.Constraints))
	}
	if title.Constraints[1].Kind != ast.ConstraintMin || title.Constraints[1].Number != 3 {
		t.Errorf("title min = %+v", title.Constraints[1])
	}

	status := ticket.Fields[2]
	enum := status.Constraints[0]
	if enum.Kind != ast.ConstraintEnum || len(enum.EnumValues) != 2 || enum.EnumValues[0] != "open" {
		t.Errorf("status enum = %+v", enum)
	}
	def := status.Constraints[1]
	if def.Kind != ast.ConstraintDefault {
		t.Fatalf("status default = %+v", def)
	}
	if s, ok := def.Default.(*ast.StringLit); !ok || s.Value != "open" {
		t.Errorf("default literal = %+v", def.Default)
	}

	summary := ticket.Fields[4]
	aiC := summary.Constraints[0]
	if aiC.Kind != ast.ConstraintAI || aiC.Prompt != "summarize the ticket body" || aiC.Mode != ast.ModeGenerate {
		t.Errorf("ai constraint = %+v", aiC)
	}

	ticketRef := spec.Datas[1].Fields[1]
	if ticketRef.Type.Kind != ast.TypeRefKind || ticketRef.Type.RefName != "Ticket" {
		t.Errorf("ref type = %+v", ticketRef.Type)
	}
}

func TestParseView(t *testing.T) {
	spec, diags := parse(t, fullSpec)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.shep"))
	}

	view := spec.Views[0]
	if view.From != "Ticket" {
		t.Errorf("from = %q", view.From)
	}
	if len(view.Show) != 3 || view.Show[0].Name != "title" {
		t.Errorf("show = %+v", view.Show)
	}
	bin, ok := view.Filter.(*ast.BinaryExpr)
	if !ok || bin.Op != lexer.EQ {
		t.Fatalf("filter = %+v", view.Filter)
	}
	if view.Sort == nil || view.Sort.Field != "created" || !view.Sort.Desc {
		t.Errorf("sort = %+v", view.Sort)
	}
}

func TestParseActionBody(t *testing.T) {
	spec, diags := parse(t, fullSpec)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.shep"))
	}

	action := spec.Actions[0]
	if action.On != "Ticket" {
		t.Errorf("on = %q", action.On)
	}
	if len(action.Body) != 3 {
		t.Fatalf("body statements = %d, want 3", len(action.Body))
	}

	if _, ok := action.Body[0].(*ast.ValidateStmt); !ok {
		t.Errorf("stmt 0 = %T, want ValidateStmt", action.Body[0])
	}

	ifStmt, ok := action.Body[1].(*ast.IfStmt)
	if !ok {
		t.Fatalf("stmt 1 = %T, want IfStmt", action.Body[1])
	}
	cond, ok := ifStmt.Condition.(*ast.AiExpr)
	if !ok || cond.Mode != ast.ModeClassify {
		t.Errorf("condition = %+v", ifStmt.Condition)
	}
	if len(ifStmt.Then) != 2 || len(ifStmt.Else) != 1 {
		t.Errorf("branches = %d/%d, want 2/1", len(ifStmt.Then), len(ifStmt.Else))
	}

	if _, ok := action.Body[2].(*ast.SaveStmt); !ok {
		t.Errorf("stmt 2 = %T, want SaveStmt", action.Body[2])
	}
}

func TestParseTask(t *testing.T) {
	spec, diags := parse(t, fullSpec)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.shep"))
	}

	task := spec.Tasks[0]
	if task.Every != "24h" || task.Run != "Escalate" {
		t.Errorf("task = %+v", task)
	}
}

func TestExpressionPrecedence(t *testing.T) {
	source := `app A {}
view V {
	from: T
	filter: not done and priority > 3 or status == "open"
}`

	spec, diags := parse(t, source)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.shep"))
	}

	// or binds loosest: (not done and priority > 3) or (status == "open")
	or, ok := spec.Views[0].Filter.(*ast.BinaryExpr)
	if !ok || or.Op != lexer.OR {
		t.Fatalf("top = %+v, want or", spec.Views[0].Filter)
	}
	and, ok := or.Left.(*ast.BinaryExpr)
	if !ok || and.Op != lexer.AND {
		t.Fatalf("left = %+v, want and", or.Left)
	}
	if _, ok := and.Left.(*ast.UnaryExpr); !ok {
		t.Errorf("and.Left = %T, want UnaryExpr", and.Left)
	}
}

func TestMissingAppDeclaration(t *testing.T) {
	_, diags := parse(t, `data Ticket { id: text }`)
	if !diags.HasErrors() {
		t.Fatal("expected a ParseError for missing app declaration")
	}
	if diags.All()[0].Code != diagnostic.ParseError {
		t.Errorf("code = %s, want ParseError", diags.All()[0].Code)
	}
}

func TestRecoveryReportsMultipleErrors(t *testing.T) {
	source := `app A {}
data Ticket {
	title text
}
view V {
	wrong: nope
}
data Other {
	id: text
}`

	spec, diags := parse(t, source)
	if diags.ErrorCount() < 2 {
		t.Fatalf("error count = %d, want at least 2:\n%s", diags.ErrorCount(), diags.Format("test.shep"))
	}
	// Recovery keeps later declarations parseable
	if len(spec.Datas) != 2 {
		t.Errorf("data count = %d, want 2", len(spec.Datas))
	}
	if spec.Datas[1].Name != "Other" || len(spec.Datas[1].Fields) != 1 {
		t.Errorf("post-recovery decl = %+v", spec.Datas[1])
	}
}

func TestParseDeterministic(t *testing.T) {
	p1 := New("test.shep", fullSpec)
	p1.Parse()
	p2 := New("test.shep", fullSpec)
	p2.Parse()

	if p1.Diagnostics().Count() != p2.Diagnostics().Count() {
		t.Errorf("diagnostic counts differ: %d vs %d", p1.Diagnostics().Count(), p2.Diagnostics().Count())
	}
}
