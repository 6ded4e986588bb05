package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.Color {
		t.Error("Default().Color = false, want true")
	}
	if !cfg.Stdlib {
		t.Error("Default().Stdlib = false, want true")
	}
	if cfg.MaxLoopSteps != 0 {
		t.Errorf("Default().MaxLoopSteps = %d, want 0", cfg.MaxLoopSteps)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load of a missing file should not error, got %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("got %+v, want the default %+v", cfg, want)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ibpcode.yaml")
	content := "color: false\nmaxLoopSteps: 5000\nstdlib: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Color {
		t.Error("Color = true, want false")
	}
	if cfg.MaxLoopSteps != 5000 {
		t.Errorf("MaxLoopSteps = %d, want 5000", cfg.MaxLoopSteps)
	}
	if cfg.Stdlib {
		t.Error("Stdlib = true, want false")
	}
}

func TestLoadPartialYAMLKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ibpcode.yaml")
	if err := os.WriteFile(path, []byte("maxLoopSteps: 100\n"), 0o644); err != nil {
		t.Fatalf("failed to write test fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Color {
		t.Error("Color should keep its default of true when omitted from the file")
	}
	if cfg.MaxLoopSteps != 100 {
		t.Errorf("MaxLoopSteps = %d, want 100", cfg.MaxLoopSteps)
	}
}
