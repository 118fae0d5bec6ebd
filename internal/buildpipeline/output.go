package buildpipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pascalc/internal/bytecode"
)

// OutputPath is where class is written under outDir.
func OutputPath(outDir string, class *bytecode.Class, format OutputFormat) string {
	return filepath.Join(outDir, filepath.FromSlash(class.Name)+format.Ext())
}

// WriteClass writes class to path in format, replacing any previous file
// atomically.
func WriteClass(path string, class *bytecode.Class, format OutputFormat) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	switch format {
	case FormatMsgpack:
		err = bytecode.EncodeClass(f, class)
	default:
		err = bytecode.WriteListing(f, class)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}
