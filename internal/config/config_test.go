package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Chunker.ChunkSize != 600 || cfg.Chunker.Overlap != 100 {
		t.Fatalf("chunker defaults = %+v", cfg.Chunker)
	}
	if cfg.Store.Type != "chromem" {
		t.Fatalf("store type = %q", cfg.Store.Type)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  addr: \":9090\"\nretriever:\n  top_k: 8\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Retriever.TopK != 8 {
		t.Fatalf("top_k = %d, want 8", cfg.Retriever.TopK)
	}
	if cfg.LLM.Model != "mistral" {
		t.Fatalf("llm model default = %q", cfg.LLM.Model)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Addr = ":7070"
	cfg.Retriever.DefaultPDF = "manual.pdf"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Addr != ":7070" {
		t.Fatalf("addr = %q", loaded.Server.Addr)
	}
	if loaded.Retriever.DefaultPDF != "manual.pdf" {
		t.Fatalf("default_pdf = %q", loaded.Retriever.DefaultPDF)
	}
}
