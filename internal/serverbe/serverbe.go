// Package serverbe generates the server target: Go source implementing
// entity types, persistence, action handlers, task scheduling, and the
// AI operation table consumed by the aiwrap runtime.
package serverbe

import (
	"fmt"
	"strings"

	"github.com/shepstack/shep/internal/backend"
	"github.com/shepstack/shep/internal/ir"
)

// RuntimeImport is the import path of the AI wrapper runtime the
// generated code links against.
const RuntimeImport = "github.com/shepstack/shep/aiwrap"

const header = "// Code generated by shepc. DO NOT EDIT.\n\npackage server\n"

// Backend implements backend.Backend for the server target.
type Backend struct{}

// New returns the server backend.
func New() *Backend { return &Backend{} }

// Kind returns backend.Server.
func (*Backend) Kind() backend.Kind { return backend.Server }

// Generate produces the server source files from the module.
func (*Backend) Generate(mod *ir.Module) ([]backend.File, error) {
	files := []backend.File{
		{Path: "server/types.go", Content: generateTypes(mod)},
		{Path: "server/store.go", Content: generateStore(mod)},
		{Path: "server/actions.go", Content: generateActions(mod)},
		{Path: "server/ai.go", Content: generateAiOps(mod)},
	}
	if len(mod.Tasks) > 0 {
		files = append(files, backend.File{Path: "server/tasks.go", Content: generateTasks(mod)})
	}
	return files, nil
}

// writer accumulates generated source with indentation tracking.
type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.sb.WriteByte('\n')
		return
	}
	w.sb.WriteString(strings.Repeat("\t", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) in()  { w.indent++ }
func (w *writer) out() { w.indent-- }

func (w *writer) String() string { return w.sb.String() }
