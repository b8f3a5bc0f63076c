package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shepstack/shep/internal/backend"
)

// WriteOutput writes every generated file under outRoot. Files are
// written atomically (temp file in the target directory, then rename)
// so a crash never leaves a partial artifact. Nothing is written when
// the result carries error diagnostics.
func WriteOutput(ctx context.Context, res *Result, outRoot string) error {
	if res.HasErrors() {
		return fmt.Errorf("refusing to write output: compilation has errors")
	}

	var files []backend.File
	for _, kind := range backend.Kinds() {
		files = append(files, res.Outputs[kind]...)
	}
	files = append(files, res.Extra...)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(outRoot, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(outRoot string, f backend.File) error {
	dest := filepath.Join(outRoot, filepath.FromSlash(f.Path))
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".shepc-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(f.Content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", f.Path, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", f.Path, err)
	}
	return nil
}
