package verifier

import (
	"testing"
	"time"

	"github.com/shepstack/shep/internal/diagnostic"
	"github.com/shepstack/shep/internal/parser"
)

func verify(t *testing.T, source string) *Result {
	t.Helper()
	p := parser.New("test.shep", source)
	spec := p.Parse()
	if p.Diagnostics().HasErrors() {
		t.Fatalf("parse errors in test source:\n%s", p.Diagnostics().Format("test.shep"))
	}
	return Verify(spec)
}

func byCode(res *Result, code diagnostic.Code) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, d := range res.Diagnostics.All() {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestCleanSpec(t *testing.T) {
	res := verify(t, `app Helpdesk {}
data Ticket {
	id: text (required, unique)
	title: text (required, min: 3, max: 120)
	status: text (enum: ["open", "closed"], default: "open")
	urgent: bool (ai: "is this ticket urgent", classify)
}
view OpenTickets {
	from: Ticket
	show: [title, status]
	filter: status == "open"
	sort: title asc
}
action Escalate {
	on: Ticket
	validate title
	if urgent {
		alert "needs attention"
	}
	save
}
task Sweep {
	every: "24h"
	run: Escalate
}`)

	if res.Diagnostics.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestUnknownViewField(t *testing.T) {
	res := verify(t, `app A {}
data User {
	id: text (required)
}
view UserList {
	from: User
	show: [id, missing]
}`)

	unknowns := byCode(res, diagnostic.UnknownReference)
	if len(unknowns) != 1 {
		t.Fatalf("UnknownReference count = %d, want 1:\n%s", len(unknowns), res.Diagnostics.Format("test.shep"))
	}
	if msg := unknowns[0].Message; msg != "unknown field 'missing'" {
		t.Errorf("message = %q", msg)
	}
}

func TestDuplicateDataDeclaration(t *testing.T) {
	res := verify(t, `app A {}
data User {
	id: text (required)
}
data User {
	name: text
}`)

	dups := byCode(res, diagnostic.DuplicateDeclaration)
	if len(dups) != 1 {
		t.Fatalf("DuplicateDeclaration count = %d, want 1:\n%s", len(dups), res.Diagnostics.Format("test.shep"))
	}
	// Reported at the second occurrence
	if dups[0].Line != 5 {
		t.Errorf("reported at line %d, want 5", dups[0].Line)
	}
}

func TestDuplicateFieldDeclaration(t *testing.T) {
	res := verify(t, `app A {}
data User {
	name: text
	name: number
}`)

	dups := byCode(res, diagnostic.DuplicateDeclaration)
	if len(dups) != 1 {
		t.Fatalf("DuplicateDeclaration count = %d, want 1", len(dups))
	}
}

func TestDidYouMeanSuggestion(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	title: text
}
view V {
	from: Ticket
	show: [titel]
}`)

	unknowns := byCode(res, diagnostic.UnknownReference)
	if len(unknowns) != 1 {
		t.Fatalf("UnknownReference count = %d, want 1", len(unknowns))
	}
	if unknowns[0].Suggestion != "title" {
		t.Errorf("suggestion = %q, want %q", unknowns[0].Suggestion, "title")
	}
}

func TestSuggestionDistanceConfigurable(t *testing.T) {
	p := parser.New("test.shep", `app A {}
data Ticket {
	title: text
}
view V {
	from: Ticket
	show: [titel]
}`)
	spec := p.Parse()

	res := VerifyWithOptions(spec, Options{SuggestionDistance: 0})
	unknowns := byCode(res, diagnostic.UnknownReference)
	if len(unknowns) != 1 {
		t.Fatalf("UnknownReference count = %d, want 1", len(unknowns))
	}
	if unknowns[0].Suggestion != "" {
		t.Errorf("suggestion = %q, want none at distance 0", unknowns[0].Suggestion)
	}
}

func TestMinGreaterThanMax(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	priority: number (min: 10, max: 5)
}`)

	if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestMinOnBoolField(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	done: bool (min: 1)
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestEmptyEnum(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	status: text (enum: [])
}`)

	if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestEnumOnNumberField(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	priority: number (enum: ["high"])
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestDefaultNotInEnum(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	status: text (enum: ["open", "closed"], default: "pending")
}`)

	if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestDefaultTypeMismatch(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	priority: number (default: "high")
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestRequiredWithDefaultWarns(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	status: text (required, default: "open")
}`)

	if res.Diagnostics.ErrorCount() != 0 {
		t.Fatalf("unexpected errors:\n%s", res.Diagnostics.Format("test.shep"))
	}
	if res.Diagnostics.WarningCount() != 1 {
		t.Fatalf("warning count = %d, want 1", res.Diagnostics.WarningCount())
	}
}

func TestEmptyAiPrompt(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	summary: text (ai: "", generate)
}`)

	if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestAiOnDateField(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	due: date (ai: "estimate the due date", extract)
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestRefTargetNeedsIdentifier(t *testing.T) {
	res := verify(t, `app A {}
data Comment {
	body: text
}
data Ticket {
	parent: ref Comment
}`)

	if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestRefTargetWithUniqueField(t *testing.T) {
	res := verify(t, `app A {}
data Comment {
	slug: text (unique)
}
data Ticket {
	parent: ref Comment
}`)

	if res.Diagnostics.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestUnknownRefTarget(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	owner: ref Usr
}
data User {
	id: text
}`)

	unknowns := byCode(res, diagnostic.UnknownReference)
	if len(unknowns) != 1 {
		t.Fatalf("UnknownReference count = %d, want 1", len(unknowns))
	}
	if unknowns[0].Suggestion != "User" {
		t.Errorf("suggestion = %q, want %q", unknowns[0].Suggestion, "User")
	}
}

func TestAiInViewFilterRejected(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	status: text
}
view Urgent {
	from: Ticket
	show: [status]
	filter: ai("is this ticket urgent", classify)
}`)

	bad := byCode(res, diagnostic.UnsupportedConstruct)
	if len(bad) != 1 {
		t.Fatalf("UnsupportedConstruct count = %d, want 1:\n%s", len(bad), res.Diagnostics.Format("test.shep"))
	}
}

func TestAiNestedInViewFilterRejected(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	status: text
}
view Urgent {
	from: Ticket
	show: [status]
	filter: status == "open" and ai("is this ticket urgent", classify)
}`)

	if len(byCode(res, diagnostic.UnsupportedConstruct)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestSetTypeMismatch(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	title: text
}
action Rename {
	on: Ticket
	set title = 5
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestSetAiModeTyping(t *testing.T) {
	// classify yields bool, generate yields text
	res := verify(t, `app A {}
data Ticket {
	urgent: bool
	summary: text
}
action Enrich {
	on: Ticket
	set urgent = ai("is this urgent", classify)
	set summary = ai("summarize", generate)
	save
}`)

	if res.Diagnostics.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestNonClassifyAiCondition(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	title: text
}
action Check {
	on: Ticket
	if ai("describe the ticket", generate) {
		save
	}
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestNonBooleanCondition(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	title: text
}
action Check {
	on: Ticket
	if title {
		save
	}
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestOrderingComparisonRequiresNumberOrDate(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	status: text
}
view V {
	from: Ticket
	show: [status]
	filter: status > "open"
}`)

	if len(byCode(res, diagnostic.TypeMismatch)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestUnknownFieldSuppressesCascade(t *testing.T) {
	// The unknown reference is reported once; the comparison it appears
	// in does not pile on a type error.
	res := verify(t, `app A {}
data Ticket {
	status: text
}
view V {
	from: Ticket
	show: [status]
	filter: prio > 3
}`)

	if len(byCode(res, diagnostic.UnknownReference)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
	if len(byCode(res, diagnostic.TypeMismatch)) != 0 {
		t.Errorf("cascading type errors:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestInvalidTaskSchedule(t *testing.T) {
	tests := []struct {
		name  string
		every string
	}{
		{"not a duration", "soon"},
		{"zero", "0s"},
		{"negative", "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := verify(t, `app A {}
data Ticket {
	title: text
}
action Sweep {
	on: Ticket
	save
}
task Nightly {
	every: "`+tt.every+`"
	run: Sweep
}`)

			if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
				t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
			}
		})
	}
}

func TestTaskResolution(t *testing.T) {
	res := verify(t, `app A {}
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

	if res.Diagnostics.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
	if len(res.TaskEvery) != 1 {
		t.Fatalf("TaskEvery size = %d, want 1", len(res.TaskEvery))
	}
	for _, d := range res.TaskEvery {
		if d != 24*time.Hour {
			t.Errorf("every = %s, want 24h", d)
		}
	}
	if len(res.TaskAction) != 1 {
		t.Errorf("TaskAction size = %d, want 1", len(res.TaskAction))
	}
}

func TestTaskUnknownAction(t *testing.T) {
	res := verify(t, `app A {}
task Nightly {
	every: "1h"
	run: Missing
}`)

	if len(byCode(res, diagnostic.UnknownReference)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestViewWithoutFrom(t *testing.T) {
	res := verify(t, `app A {}
view Orphan {
	show: [title]
}`)

	if len(byCode(res, diagnostic.ConstraintViolation)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
}

func TestResolvedLinksPopulated(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	title: text
}
view V {
	from: Ticket
	show: [title]
}
action Touch {
	on: Ticket
	save
}`)

	if res.Diagnostics.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
	if len(res.ViewEntity) != 1 || len(res.ActionEntity) != 1 {
		t.Fatalf("links = %d views, %d actions, want 1/1", len(res.ViewEntity), len(res.ActionEntity))
	}
	for view, ent := range res.ViewEntity {
		if view.Name != "V" || ent.Name != "Ticket" {
			t.Errorf("view link = %s -> %s", view.Name, ent.Name)
		}
	}
}

func TestFirstDeclarationWinsOnDuplicate(t *testing.T) {
	res := verify(t, `app A {}
data Ticket {
	title: text
}
data Ticket {
	other: number
}
view V {
	from: Ticket
	show: [title]
}`)

	// One duplicate error, but the view resolves against the first decl
	if len(byCode(res, diagnostic.DuplicateDeclaration)) != 1 {
		t.Fatalf("diagnostics:\n%s", res.Diagnostics.Format("test.shep"))
	}
	if len(byCode(res, diagnostic.UnknownReference)) != 0 {
		t.Errorf("show resolution failed:\n%s", res.Diagnostics.Format("test.shep"))
	}
}
