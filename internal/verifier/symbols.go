package verifier

import (
	"sort"

	"github.com/shepstack/shep/internal/ast"
)

// Namespace separates the declaration kinds in the symbol table
type Namespace int

const (
	NSData Namespace = iota
	NSView
	NSAction
	NSTask
)

// String returns the string representation of the namespace
func (ns Namespace) String() string {
	switch ns {
	case NSData:
		return "data"
	case NSView:
		return "view"
	case NSAction:
		return "action"
	case NSTask:
		return "task"
	default:
		return "unknown"
	}
}

// Symbol represents one top-level declaration in the symbol table
type Symbol struct {
	Name      string
	Namespace Namespace
	Decl      ast.Node
	Line      int
	Column    int
}

type symbolKey struct {
	ns   Namespace
	name string
}

// SymbolTable maps (namespace, name) to the declaring AST node. Built
// during verification and discarded afterwards; AST nodes hold no
// pointers into it.
type SymbolTable struct {
	symbols map[symbolKey]*Symbol
}

// NewSymbolTable creates an empty symbol table
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbols: make(map[symbolKey]*Symbol),
	}
}

// Define adds a symbol to the table. If the (namespace, name) pair is
// already taken the existing symbol is returned and the table is left
// unchanged: the first declaration wins for resolution.
func (t *SymbolTable) Define(sym *Symbol) *Symbol {
	key := symbolKey{ns: sym.Namespace, name: sym.Name}
	if existing, ok := t.symbols[key]; ok {
		return existing
	}
	t.symbols[key] = sym
	return nil
}

// Resolve looks up a symbol by namespace and name.
// Returns nil if the symbol is not found.
func (t *SymbolTable) Resolve(ns Namespace, name string) *Symbol {
	return t.symbols[symbolKey{ns: ns, name: name}]
}

// Names returns the sorted names defined in a namespace, used as
// suggestion candidates.
func (t *SymbolTable) Names(ns Namespace) []string {
	var names []string
	for key := range t.symbols {
		if key.ns == ns {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return names
}
