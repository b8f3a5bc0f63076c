// Package compiler drives the full pipeline: parse -> verify ->
// lower -> backends, and writes the generated artifacts.
package compiler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/shepstack/shep/internal/backend"
	"github.com/shepstack/shep/internal/clientbe"
	"github.com/shepstack/shep/internal/diagnostic"
	"github.com/shepstack/shep/internal/ir"
	"github.com/shepstack/shep/internal/parser"
	"github.com/shepstack/shep/internal/schemabe"
	"github.com/shepstack/shep/internal/serverbe"
	"github.com/shepstack/shep/internal/verifier"
)

// Options configures a compilation.
type Options struct {
	Logger   zerolog.Logger
	Verifier verifier.Options
}

// DefaultOptions returns the standard compiler settings with logging
// disabled.
func DefaultOptions() Options {
	return Options{
		Logger:   zerolog.Nop(),
		Verifier: verifier.DefaultOptions(),
	}
}

// Result holds the output of a compilation. Outputs is populated only
// when no error diagnostics were produced.
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	Module      *ir.Module
	Outputs     map[backend.Kind][]backend.File

	// Extra holds artifacts outside the backend targets, currently the
	// AI operation catalog.
	Extra []backend.File
}

// HasErrors reports whether compilation produced blocking diagnostics.
func (r *Result) HasErrors() bool {
	return r.Diagnostics != nil && r.Diagnostics.HasErrors()
}

// Check runs parse + verify only (no codegen) and returns the ordered
// diagnostics.
func Check(file, source string) *diagnostic.Diagnostics {
	return CheckWithOptions(file, source, verifier.DefaultOptions())
}

// CheckWithOptions runs parse + verify with explicit verifier options.
func CheckWithOptions(file, source string, opts verifier.Options) *diagnostic.Diagnostics {
	p := parser.New(file, source)
	spec := p.Parse()
	if p.Diagnostics().HasErrors() {
		return p.Diagnostics()
	}
	return verifier.VerifyWithOptions(spec, opts).Diagnostics
}

// Compile runs the full pipeline. Backends run concurrently over the
// immutable IR; cancellation is checked between stages.
func Compile(ctx context.Context, file, source string, opts Options) (*Result, error) {
	runID := uuid.New()
	log := opts.Logger.With().Str("run_id", runID.String()).Str("file", file).Logger()
	res := &Result{}

	p := parser.New(file, source)
	spec := p.Parse()
	if p.Diagnostics().HasErrors() {
		res.Diagnostics = p.Diagnostics()
		log.Debug().Int("errors", res.Diagnostics.ErrorCount()).Msg("parse failed")
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vres := verifier.VerifyWithOptions(spec, opts.Verifier)
	res.Diagnostics = vres.Diagnostics
	if vres.Diagnostics.HasErrors() {
		log.Debug().Int("errors", vres.Diagnostics.ErrorCount()).Msg("verification failed")
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mod := ir.Lower(spec, vres)
	res.Module = mod
	log.Debug().
		Int("entities", len(mod.Entities)).
		Int("actions", len(mod.Actions)).
		Int("ai_ops", len(mod.AiOps)).
		Msg("lowered to ir")

	outputs, err := runBackends(ctx, mod)
	if err != nil {
		return nil, err
	}
	res.Outputs = outputs
	res.Extra = []backend.File{operationCatalog(mod)}

	log.Info().Msg("compilation succeeded")
	return res, nil
}

// runBackends generates every target concurrently.
func runBackends(ctx context.Context, mod *ir.Module) (map[backend.Kind][]backend.File, error) {
	backends := []backend.Backend{schemabe.New(), serverbe.New(), clientbe.New()}

	outputs := make(map[backend.Kind][]backend.File, len(backends))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for _, be := range backends {
		be := be
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := be.Generate(mod)
			if err != nil {
				return err
			}
			mu.Lock()
			outputs[be.Kind()] = files
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
