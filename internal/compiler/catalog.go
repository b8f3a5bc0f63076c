package compiler

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shepstack/shep/internal/backend"
	"github.com/shepstack/shep/internal/ir"
)

// catalogEntry is one operation in ai_operations.json.
type catalogEntry struct {
	OperationID string   `json:"operation_id"`
	Prompt      string   `json:"prompt"`
	Mode        string   `json:"mode"`
	Sites       []string `json:"sites"`
}

// operationCatalog builds the machine-readable catalog of every AI
// operation in the module, for observability tooling.
func operationCatalog(mod *ir.Module) backend.File {
	sites := collectSites(mod)

	entries := make([]catalogEntry, 0, len(mod.AiOps))
	for _, op := range mod.AiOps {
		entries = append(entries, catalogEntry{
			OperationID: op.OperationID,
			Prompt:      op.Prompt,
			Mode:        string(op.Mode),
			Sites:       sites[op.OperationID],
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		// Entries are plain strings; this cannot fail
		data = []byte("[]")
	}
	return backend.File{Path: "ai_operations.json", Content: string(data) + "\n"}
}

// collectSites maps each operation id to the sorted source sites using
// it: "Entity.field" for constraints, "action:name" for action bodies.
func collectSites(mod *ir.Module) map[string][]string {
	sites := make(map[string][]string)
	add := func(opID, site string) {
		sites[opID] = append(sites[opID], site)
	}

	for _, ent := range mod.Entities {
		for _, f := range ent.Fields {
			if f.AI != nil {
				add(f.AI.OperationID, fmt.Sprintf("%s.%s", ent.Name, f.Name))
			}
		}
	}
	for _, action := range mod.Actions {
		seen := make(map[string]bool)
		walkInstrs(action.Body, func(instr ir.Instr) {
			if inv, ok := instr.(*ir.AiInvoke); ok && !seen[inv.Op.OperationID] {
				seen[inv.Op.OperationID] = true
				add(inv.Op.OperationID, "action:"+action.Name)
			}
		})
	}

	for _, list := range sites {
		sort.Strings(list)
	}
	return sites
}

func walkInstrs(body []ir.Instr, fn func(ir.Instr)) {
	for _, instr := range body {
		fn(instr)
		if b, ok := instr.(*ir.Branch); ok {
			walkInstrs(b.Then, fn)
			walkInstrs(b.Else, fn)
		}
	}
}
