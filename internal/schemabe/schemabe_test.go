package schemabe

import (
	"strings"
	"testing"

	"github.com/shepstack/shep/internal/ir"
	"github.com/shepstack/shep/internal/parser"
	"github.com/shepstack/shep/internal/verifier"
)

func generate(t *testing.T, source string) string {
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
	if len(files) != 1 || files[0].Path != "schema.sql" {
		t.Fatalf("files = %+v, want one schema.sql", files)
	}
	return files[0].Content
}

func TestTablePerEntity(t *testing.T) {
	sql := generate(t, `app A {}
data Ticket {
	id: text (required, unique)
}
data Comment {
	id: text (required, unique)
}`)

	for _, want := range []string{"CREATE TABLE ticket (", "CREATE TABLE comment ("} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in:\n%s", want, sql)
		}
	}
}

func TestColumnConstraints(t *testing.T) {
	sql := generate(t, `app A {}
data Ticket {
	id: text (required)
	slug: text (unique)
	title: text (required, min: 3, max: 120)
	status: text (enum: ["open", "closed"], default: "open")
	priority: number (min: 1, max: 5, default: 3)
	done: bool (default: false)
}`)

	wants := []string{
		"id TEXT PRIMARY KEY NOT NULL",
		"slug TEXT UNIQUE",
		"title TEXT NOT NULL CHECK (length(title) >= 3 AND length(title) <= 120)",
		"status TEXT DEFAULT 'open' CHECK (status IN ('open', 'closed'))",
		"priority REAL DEFAULT 3 CHECK (priority >= 1 AND priority <= 5)",
		"done INTEGER DEFAULT 0",
	}
	for _, want := range wants {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in:\n%s", want, sql)
		}
	}
}

func TestSyntheticIDWhenNoneDeclared(t *testing.T) {
	sql := generate(t, `app A {}
data Note {
	body: text
}`)

	if !strings.Contains(sql, "id TEXT PRIMARY KEY,") {
		t.Errorf("missing synthetic id in:\n%s", sql)
	}
}

func TestForeignKeyToDeclaredID(t *testing.T) {
	sql := generate(t, `app A {}
data User {
	id: text (required, unique)
}
data Ticket {
	owner: ref User
}`)

	if !strings.Contains(sql, "owner TEXT") {
		t.Errorf("missing ref column in:\n%s", sql)
	}
	if !strings.Contains(sql, "FOREIGN KEY (owner) REFERENCES user(id)") {
		t.Errorf("missing foreign key in:\n%s", sql)
	}
}

func TestForeignKeyToUniqueField(t *testing.T) {
	sql := generate(t, `app A {}
data User {
	email: text (unique)
}
data Ticket {
	owner: ref User
}`)

	if !strings.Contains(sql, "FOREIGN KEY (owner) REFERENCES user(email)") {
		t.Errorf("wrong foreign key target in:\n%s", sql)
	}
}

func TestDateStoredAsText(t *testing.T) {
	sql := generate(t, `app A {}
data Ticket {
	created: date (required)
}`)

	if !strings.Contains(sql, "created TEXT NOT NULL") {
		t.Errorf("missing date column in:\n%s", sql)
	}
}

func TestQuoteEscaping(t *testing.T) {
	sql := generate(t, `app A {}
data Ticket {
	status: text (enum: ["won't fix", "open"])
}`)

	if !strings.Contains(sql, "'won''t fix'") {
		t.Errorf("single quote not doubled in:\n%s", sql)
	}
}

func TestDeterministicOutput(t *testing.T) {
	source := `app A {}
data User {
	id: text (required, unique)
	name: text (required)
}
data Ticket {
	id: text (required, unique)
	owner: ref User
	status: text (enum: ["open", "closed"], default: "open")
}`

	first := generate(t, source)
	for i := 0; i < 5; i++ {
		if next := generate(t, source); next != first {
			t.Fatalf("run %d differs from first:\n%s\n---\n%s", i, first, next)
		}
	}
}
