package serverbe

import (
	"fmt"
	"time"

	"github.com/shepstack/shep/internal/ir"
)

// generateTasks emits the background scheduler: one ticker loop per
// task, applying the target action to every record of its entity.
func generateTasks(mod *ir.Module) string {
	w := &writer{}
	w.sb.WriteString(header)
	w.line("")
	w.line("import (")
	w.in()
	w.line("\"context\"")
	w.line("\"sync\"")
	w.line("\"time\"")
	w.out()
	w.line(")")
	w.line("")

	w.line("// RunTasks starts every scheduled task loop and blocks until the")
	w.line("// context is canceled.")
	w.line("func (a *Actions) RunTasks(ctx context.Context) error {")
	w.in()
	w.line("var wg sync.WaitGroup")
	for _, task := range mod.Tasks {
		action := mod.ActionByID(task.Run)
		w.line("")
		w.line("// %s runs %s every %s", task.Name, action.Name, task.Every)
		w.line("wg.Add(1)")
		w.line("go func() {")
		w.in()
		w.line("defer wg.Done()")
		w.line("ticker := time.NewTicker(%s)", durationExpr(task.Every))
		w.line("defer ticker.Stop()")
		w.line("for {")
		w.in()
		w.line("select {")
		w.line("case <-ctx.Done():")
		w.in()
		w.line("return")
		w.out()
		w.line("case <-ticker.C:")
		w.in()
		w.line("a.run%s(ctx)", goName(task.Name))
		w.out()
		w.line("}")
		w.out()
		w.line("}")
		w.out()
		w.line("}()")
	}
	w.line("")
	w.line("wg.Wait()")
	w.line("return ctx.Err()")
	w.out()
	w.line("}")
	w.line("")

	for _, task := range mod.Tasks {
		generateTaskRunner(w, mod, task)
	}

	return w.String()
}

func generateTaskRunner(w *writer, mod *ir.Module, task *ir.Task) {
	action := mod.ActionByID(task.Run)
	ent := mod.EntityByID(action.Entity)
	if ent == nil {
		return
	}

	w.line("func (a *Actions) run%s(ctx context.Context) {", goName(task.Name))
	w.in()
	w.line("recs, err := a.store.List%s(ctx)", ent.Name)
	w.line("if err != nil {")
	w.in()
	w.line("return")
	w.out()
	w.line("}")
	w.line("for _, rec := range recs {")
	w.in()
	w.line("if ctx.Err() != nil {")
	w.in()
	w.line("return")
	w.out()
	w.line("}")
	w.line("_ = a.%s(ctx, rec)", goName(action.Name))
	w.out()
	w.line("}")
	w.out()
	w.line("}")
	w.line("")
}

// durationExpr renders a duration as Go source, preferring whole
// seconds for readability.
func durationExpr(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", int64(d/time.Second))
	}
	return fmt.Sprintf("time.Duration(%d)", d.Nanoseconds())
}
