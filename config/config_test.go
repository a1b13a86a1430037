/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corvuslang/corvus/corvuslog"
)

func TestLoadParsesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corvus.yaml")
	doc := "classpath:\n  - ./classes\n  - ./vendor/classes\nexternalParser: true\nlogLevel: warning\nheapCells: 4096\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Classpath) != 2 || cfg.Classpath[0] != "./classes" {
		t.Errorf("Classpath = %v", cfg.Classpath)
	}
	if !cfg.ExternalParser {
		t.Error("ExternalParser = false, want true")
	}
	if cfg.HeapCells != 4096 {
		t.Errorf("HeapCells = %d, want 4096", cfg.HeapCells)
	}
	if got := cfg.Level(); got != corvuslog.Warning {
		t.Errorf("Level() = %v, want Warning", got)
	}
}

func TestLevelDefaultsToInfo(t *testing.T) {
	var cfg Config
	if got := cfg.Level(); got != corvuslog.Info {
		t.Errorf("Level() = %v, want Info for unset LogLevel", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
