package nvm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

func tempRegion(t *testing.T) *Region {
	t.Helper()
	r, err := NewRegion(filepath.Join(t.TempDir(), "slot", "script.nvm"))
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	return r
}

func TestRegionStoreLoad(t *testing.T) {
	r := tempRegion(t)
	if err := r.Store(`{"states":{"normal":[]}}`); err != nil {
		t.Fatalf("Store: %v", err)
	}
	script, ok, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored script")
	}
	if script != `{"states":{"normal":[]}}` {
		t.Errorf("script = %q", script)
	}
}

func TestRegionLoadMissing(t *testing.T) {
	r := tempRegion(t)
	_, ok, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Error("expected no stored script")
	}
}

func TestRegionLoadCorrupt(t *testing.T) {
	r := tempRegion(t)
	if err := r.Store("good script"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	// Corrupt the slot on disk.
	data, err := os.ReadFile(r.path)
	if err != nil {
		t.Fatalf("read slot: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		t.Fatalf("write slot: %v", err)
	}

	_, ok, err := r.Load()
	if ok {
		t.Error("corrupt slot must read as absent")
	}
	if !errors.Is(err, apperr.ErrCorruptBlob) {
		t.Errorf("err = %v, want ErrCorruptBlob", err)
	}
}

func TestRegionOverwrite(t *testing.T) {
	r := tempRegion(t)
	if err := r.Store("first"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := r.Store("second"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	script, ok, _ := r.Load()
	if !ok || script != "second" {
		t.Errorf("got %q, %v", script, ok)
	}
}
