package nvm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Region is the single durable slot holding one persisted script blob,
// backed by a file on the host filesystem. Writes are atomic (temp file,
// fsync, rename) so a power loss mid-write leaves either the old blob or
// the new one, never a torn mix.
type Region struct {
	path string
}

// NewRegion creates a Region at the given path. The parent directory is
// created if needed.
func NewRegion(path string) (*Region, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("nvm: resolve region path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("nvm: create region dir: %w", err)
	}
	return &Region{path: abs}, nil
}

// Store encodes and writes the script as the slot's new content.
func (r *Region) Store(script string) error {
	blob, err := Encode(script)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".nvm-tmp-*")
	if err != nil {
		return fmt.Errorf("nvm: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(blob); err != nil {
		return fmt.Errorf("nvm: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("nvm: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("nvm: close temp: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("nvm: rename: %w", err)
	}
	success = true
	return nil
}

// Load reads and decodes the slot. A missing slot returns ok=false with a
// nil error; a corrupt blob returns ok=false with the decode error, which
// callers treat the same way.
func (r *Region) Load() (script string, ok bool, err error) {
	blob, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("nvm: read region: %w", err)
	}
	script, err = Decode(blob)
	if err != nil {
		return "", false, err
	}
	return script, true, nil
}
