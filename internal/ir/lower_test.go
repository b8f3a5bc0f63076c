package ir

import (
	"testing"
	"time"

	"github.com/shepstack/shep/internal/parser"
	"github.com/shepstack/shep/internal/verifier"
)

func lower(t *testing.T, source string) *Module {
	t.Helper()
	p := parser.New("test.shep", source)
	spec := p.Parse()
	if p.Diagnostics().HasErrors() {
		t.Fatalf("parse errors:\n%s", p.Diagnostics().Format("test.shep"))
	}
	res := verifier.Verify(spec)
	if res.Diagnostics.HasErrors() {
		t.Fatalf("verify errors:\n%s", res.Diagnostics.Format("test.shep"))
	}
	return Lower(spec, res)
}

func TestOperationIDFormat(t *testing.T) {
	id := OperationIDFor(Classify, "is this urgent")
	if len(id) != 16 {
		t.Fatalf("id length = %d, want 16", len(id))
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("id %q is not lowercase hex", id)
		}
	}
}

func TestOperationIDStability(t *testing.T) {
	a := OperationIDFor(Classify, "is this urgent")
	b := OperationIDFor(Classify, "is this urgent")
	if a != b {
		t.Errorf("same content produced different ids: %s vs %s", a, b)
	}

	if OperationIDFor(Generate, "is this urgent") == a {
		t.Error("mode change did not change the id")
	}
	if OperationIDFor(Classify, "is this urgent?") == a {
		t.Error("prompt change did not change the id")
	}
}

func TestLowerFields(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	id: text (required, unique)
	title: text (min: 3, max: 120)
	status: text (enum: ["open", "closed"], default: "open")
	priority: number (default: 3)
	owner: ref User
}
data User {
	id: text (required, unique)
}`)

	if len(mod.Entities) != 2 {
		t.Fatalf("entity count = %d, want 2", len(mod.Entities))
	}
	ticket := mod.Entities[0]
	if ticket.Name != "Ticket" || ticket.ID != 0 {
		t.Fatalf("entity 0 = %s id %d", ticket.Name, ticket.ID)
	}

	id := ticket.Fields[0]
	if !id.Required || !id.Unique || id.Type != TextField {
		t.Errorf("id field = %+v", id)
	}

	title := ticket.Fields[1]
	if !title.HasMin || title.Min != 3 || !title.HasMax || title.Max != 120 {
		t.Errorf("title bounds = %+v", title)
	}

	status := ticket.Fields[2]
	if len(status.Enum) != 2 || status.Enum[0] != "open" {
		t.Errorf("status enum = %v", status.Enum)
	}
	if !status.HasDefault || status.Default.Kind != TextValue || status.Default.Text != "open" {
		t.Errorf("status default = %+v", status.Default)
	}

	priority := ticket.Fields[3]
	if priority.Type != NumberField || !priority.HasDefault || priority.Default.Number != 3 {
		t.Errorf("priority = %+v", priority)
	}

	owner := ticket.Fields[4]
	if owner.Type != RefField || owner.Ref != 1 {
		t.Errorf("owner ref = %+v", owner)
	}
	if mod.EntityByID(owner.Ref).Name != "User" {
		t.Errorf("owner target = %s", mod.EntityByID(owner.Ref).Name)
	}
}

func TestAiOperationInterning(t *testing.T) {
	// The same prompt and mode appears at a field site and twice in
	// action bodies; the catalog holds one operation.
	mod := lower(t, `app A {}
data Ticket {
	urgent: bool (ai: "is this ticket urgent", classify)
	title: text
}
action CheckOne {
	on: Ticket
	if ai("is this ticket urgent", classify) {
		alert "urgent"
	}
}
action CheckTwo {
	on: Ticket
	if ai("is this ticket urgent", classify) {
		save
	}
}`)

	if len(mod.AiOps) != 1 {
		t.Fatalf("AiOps count = %d, want 1", len(mod.AiOps))
	}
	op := mod.AiOps[0]
	if op.Mode != Classify || op.Prompt != "is this ticket urgent" {
		t.Errorf("op = %+v", op)
	}
	if op.OperationID != OperationIDFor(Classify, "is this ticket urgent") {
		t.Errorf("id mismatch: %s", op.OperationID)
	}

	// All three sites share the same *AiOp
	if mod.Entities[0].Fields[0].AI != op {
		t.Error("field site does not share the interned op")
	}
}

func TestAiOpsSortedByID(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	a: text (ai: "prompt one", generate)
	b: text (ai: "prompt two", generate)
	c: bool (ai: "prompt three", classify)
}`)

	if len(mod.AiOps) != 3 {
		t.Fatalf("AiOps count = %d, want 3", len(mod.AiOps))
	}
	for i := 1; i < len(mod.AiOps); i++ {
		if mod.AiOps[i-1].OperationID >= mod.AiOps[i].OperationID {
			t.Fatalf("AiOps not sorted at %d: %s >= %s",
				i, mod.AiOps[i-1].OperationID, mod.AiOps[i].OperationID)
		}
	}
}

func TestAiHoistedBeforeBranch(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	priority: number
}
action Escalate {
	on: Ticket
	if ai("is this ticket urgent", classify) {
		set priority = 5
	} else {
		set priority = 2
	}
	save
}`)

	body := mod.Actions[0].Body
	if len(body) != 3 {
		t.Fatalf("instruction count = %d, want 3", len(body))
	}

	inv, ok := body[0].(*AiInvoke)
	if !ok {
		t.Fatalf("instr 0 = %T, want AiInvoke", body[0])
	}
	if inv.Dest != "ai0" {
		t.Errorf("dest = %q, want ai0", inv.Dest)
	}

	br, ok := body[1].(*Branch)
	if !ok {
		t.Fatalf("instr 1 = %T, want Branch", body[1])
	}
	ref, ok := br.Cond.(*TempRef)
	if !ok || ref.Name != "ai0" {
		t.Fatalf("cond = %+v, want TempRef ai0", br.Cond)
	}
	if len(br.Then) != 1 || len(br.Else) != 1 {
		t.Errorf("branch arms = %d/%d, want 1/1", len(br.Then), len(br.Else))
	}

	if _, ok := body[2].(*Save); !ok {
		t.Errorf("instr 2 = %T, want Save", body[2])
	}
}

func TestAiHoistedBeforeSet(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	summary: text
	urgent: bool
}
action Enrich {
	on: Ticket
	set summary = ai("summarize the ticket", generate)
	set urgent = ai("is this urgent", classify)
	save
}`)

	body := mod.Actions[0].Body
	if len(body) != 5 {
		t.Fatalf("instruction count = %d, want 5", len(body))
	}

	inv0, ok := body[0].(*AiInvoke)
	if !ok || inv0.Dest != "ai0" || inv0.Op.Mode != Generate {
		t.Fatalf("instr 0 = %+v, want generate AiInvoke ai0", body[0])
	}
	set0, ok := body[1].(*SetField)
	if !ok {
		t.Fatalf("instr 1 = %T, want SetField", body[1])
	}
	if ref, ok := set0.Value.(*TempRef); !ok || ref.Name != "ai0" {
		t.Errorf("set 0 value = %+v", set0.Value)
	}

	inv1, ok := body[2].(*AiInvoke)
	if !ok || inv1.Dest != "ai1" || inv1.Op.Mode != Classify {
		t.Fatalf("instr 2 = %+v, want classify AiInvoke ai1", body[2])
	}
}

func TestTempCounterResetsPerAction(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	summary: text
}
action One {
	on: Ticket
	set summary = ai("summarize", generate)
}
action Two {
	on: Ticket
	set summary = ai("rewrite", generate)
}`)

	for i, action := range mod.Actions {
		inv, ok := action.Body[0].(*AiInvoke)
		if !ok || inv.Dest != "ai0" {
			t.Errorf("action %d first instr = %+v, want AiInvoke ai0", i, action.Body[0])
		}
	}
}

func TestLowerViewFilterAndSort(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	title: text
	status: text
	priority: number
}
view Open {
	from: Ticket
	show: [title, priority]
	filter: status == "open" and priority > 3
	sort: priority desc
}`)

	view := mod.Views[0]
	if view.Entity != 0 {
		t.Errorf("entity = %d", view.Entity)
	}
	if len(view.Show) != 2 || view.Show[0] != 0 || view.Show[1] != 2 {
		t.Errorf("show = %v", view.Show)
	}

	and, ok := view.Filter.(*Binary)
	if !ok || and.Op != OpAnd {
		t.Fatalf("filter = %+v, want and", view.Filter)
	}
	eq, ok := and.Left.(*Binary)
	if !ok || eq.Op != OpEq {
		t.Fatalf("left = %+v, want ==", and.Left)
	}
	if ref, ok := eq.Left.(*FieldRef); !ok || ref.Field != 1 {
		t.Errorf("eq left = %+v, want field 1", eq.Left)
	}
	if lit, ok := eq.Right.(*Lit); !ok || lit.Value.Text != "open" {
		t.Errorf("eq right = %+v", eq.Right)
	}

	if view.Sort == nil || view.Sort.Field != 2 || !view.Sort.Desc {
		t.Errorf("sort = %+v", view.Sort)
	}
}

func TestLowerTask(t *testing.T) {
	mod := lower(t, `app A {}
data Ticket {
	title: text
}
action Sweep {
	on: Ticket
	save
}
task Nightly {
	every: "24h"
	run: Sweep
}`)

	if len(mod.Tasks) != 1 {
		t.Fatalf("task count = %d, want 1", len(mod.Tasks))
	}
	task := mod.Tasks[0]
	if task.Every != 24*time.Hour {
		t.Errorf("every = %s, want 24h", task.Every)
	}
	if mod.ActionByID(task.Run).Name != "Sweep" {
		t.Errorf("run target = %+v", task.Run)
	}
}

func TestForwardEntityReference(t *testing.T) {
	// Ticket references User declared after it
	mod := lower(t, `app A {}
data Ticket {
	owner: ref User
}
data User {
	id: text (unique)
}`)

	owner := mod.Entities[0].Fields[0]
	if owner.Ref != 1 {
		t.Errorf("ref = %d, want 1", owner.Ref)
	}
}
