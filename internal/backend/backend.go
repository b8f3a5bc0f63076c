package backend

import "github.com/shepstack/shep/internal/ir"

// Kind identifies a target artifact family. The set is closed: adding
// a target means adding a constant here and a generator for it.
type Kind int

const (
	Schema Kind = iota
	Server
	Client
)

// String returns the target name used in CLI output and logs.
func (k Kind) String() string {
	switch k {
	case Schema:
		return "schema"
	case Server:
		return "server"
	case Client:
		return "client"
	default:
		return "unknown"
	}
}

// Kinds returns all target kinds in their fixed generation order.
func Kinds() []Kind {
	return []Kind{Schema, Server, Client}
}

// File is one generated output file. Path is relative to the output
// root and always uses forward slashes.
type File struct {
	Path    string
	Content string
}

// Backend generates one target artifact family from an IR module.
// Implementations must be deterministic: the same module always yields
// byte-identical files. The module is shared across backends running
// concurrently and must not be mutated.
type Backend interface {
	Kind() Kind
	Generate(mod *ir.Module) ([]File, error)
}
