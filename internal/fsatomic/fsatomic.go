// Package fsatomic provides atomic text-file replacement and BOM-aware reads.
//
// All roster artifacts (config, exports) are written through WriteFile so
// readers never observe a partially written file: content goes to a temp
// file in the destination directory, which is then renamed over the target.
// The temp file is removed on every failure path.
package fsatomic

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// utf8BOM is the optional byte-order mark some tools prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls WriteFile behavior.
type Options struct {
	// Perm is the file mode for the destination. Zero means 0644.
	Perm os.FileMode

	// Backup writes the previous content of the destination to
	// destination+".bak" before replacing it. No backup is created when
	// the destination did not exist.
	Backup bool
}

// ReadFile reads the file at path and strips a leading UTF-8 BOM if present.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-provided path
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

// WriteFile atomically replaces the file at path with data.
// Parent directories are created on demand. No BOM is written.
func WriteFile(path string, data []byte, opts Options) error {
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	if opts.Backup {
		if err := backup(path); err != nil {
			return err
		}
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("setting temp file mode: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// backup copies the current destination content to path+".bak".
// Missing destination is not an error: there is nothing to preserve.
func backup(path string) error {
	prev, err := os.ReadFile(path) //nolint:gosec // G304: same path as destination
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading previous content: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat previous file: %w", err)
	}
	if err := os.WriteFile(path+".bak", prev, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}
