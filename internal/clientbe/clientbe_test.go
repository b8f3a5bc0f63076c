package clientbe

import (
	"strings"
	"testing"

	"github.com/shepstack/shep/internal/ir"
	"github.com/shepstack/shep/internal/parser"
	"github.com/shepstack/shep/internal/verifier"
)

func generate(t *testing.T, source string) map[string]string {
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
	mod := ir.Lower(spec, res)

	files, err := New().Generate(mod)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = f.Content
	}
	return out
}

func wantContains(t *testing.T, content, want string) {
	t.Helper()
	if !strings.Contains(content, want) {
		t.Errorf("missing %q in:\n%s", want, content)
	}
}

const ticketSpec = `app Helpdesk {}
data Ticket {
	id: text (required, unique)
	title: text (required)
	status: text (enum: ["open", "closed"], default: "open")
	priority: number (default: 3)
	summary: text (ai: "summarize the ticket", generate)
	done: bool (default: false)
}
view Open {
	from: Ticket
	show: [title, priority]
	filter: status == "open" and priority > 3
	sort: priority desc
}`

func TestFilePaths(t *testing.T) {
	files := generate(t, ticketSpec)
	for _, path := range []string{"client/models.ts", "client/views.ts"} {
		content, ok := files[path]
		if !ok {
			t.Errorf("missing %s", path)
			continue
		}
		if !strings.HasPrefix(content, "// Code generated by shepc.") {
			t.Errorf("%s missing generated header", path)
		}
	}
}

func TestEnumUnionType(t *testing.T) {
	models := generate(t, ticketSpec)["client/models.ts"]

	wantContains(t, models, `export type TicketStatus = "open" | "closed";`)
	wantContains(t, models, "status: TicketStatus;")
}

func TestModelInterface(t *testing.T) {
	models := generate(t, ticketSpec)["client/models.ts"]

	wantContains(t, models, "export interface Ticket {")
	wantContains(t, models, "id: string;")
	wantContains(t, models, "title: string;")
	wantContains(t, models, "priority: number;")
	wantContains(t, models, "done: boolean;")
	wantContains(t, models, "summary: string;")
}

func TestCreateShapeOptionality(t *testing.T) {
	models := generate(t, ticketSpec)["client/models.ts"]

	wantContains(t, models, "export interface TicketCreate {")
	// Required without default is mandatory
	wantContains(t, models, "title: string;")
	// Defaulted fields are optional
	wantContains(t, models, "status?: TicketStatus;")
	wantContains(t, models, "priority?: number;")
	wantContains(t, models, "done?: boolean;")

	create := models[strings.Index(models, "export interface TicketCreate {"):]
	if strings.Contains(create, "summary") {
		t.Error("AI-derived field leaked into the create shape")
	}
	if strings.Contains(create, "id:") || strings.Contains(create, "id?:") {
		t.Error("id leaked into the create shape")
	}
}

func TestSyntheticID(t *testing.T) {
	models := generate(t, `app A {}
data Note {
	body: text
}`)["client/models.ts"]

	wantContains(t, models, "export interface Note {")
	wantContains(t, models, "id: string;")
}

func TestViewBinding(t *testing.T) {
	views := generate(t, ticketSpec)["client/views.ts"]

	wantContains(t, views, `import type { Ticket } from "./models";`)
	wantContains(t, views, "export interface ViewBinding<T> {")
	wantContains(t, views, "export const Open: ViewBinding<Ticket> = {")
	wantContains(t, views, `name: "Open",`)
	wantContains(t, views, `entity: "ticket",`)
	wantContains(t, views, `columns: ["title", "priority"],`)
	wantContains(t, views, `filter: "status == \"open\" and priority > 3",`)
	wantContains(t, views, `sort: { field: "priority", direction: "desc" },`)
}

func TestNoImportWithoutViews(t *testing.T) {
	views := generate(t, `app A {}
data Note {
	body: text
}`)["client/views.ts"]

	if strings.Contains(views, "import type") {
		t.Errorf("unexpected import in:\n%s", views)
	}
	wantContains(t, views, "export interface ViewBinding<T> {")
}

func TestDeterministicOutput(t *testing.T) {
	first := generate(t, ticketSpec)
	for i := 0; i < 5; i++ {
		next := generate(t, ticketSpec)
		for path, content := range first {
			if next[path] != content {
				t.Fatalf("run %d differs in %s", i, path)
			}
		}
	}
}
